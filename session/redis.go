package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// KeySession holds the JSON-encoded session of a user: session:{user_id}
const KeySession = "session:%s"

// updateAttempts bounds optimistic-lock retries when two requests for the
// same user race.
const updateAttempts = 3

// RedisStore keeps each session as a JSON value with a sliding TTL, so a
// session survives restarts and is shared by every API instance.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) key(userID string) string {
	return fmt.Sprintf(KeySession, userID)
}

func (r *RedisStore) Load(ctx context.Context, userID string) (*Session, error) {
	return r.get(ctx, r.rdb, userID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) get(ctx context.Context, g getter, userID string) (*Session, error) {
	b, err := g.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(userID), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading session")
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrap(err, "decoding session")
	}
	return s.normalize(userID), nil
}

func (r *RedisStore) Update(ctx context.Context, userID string, fn func(*Session) error) (*Session, error) {
	key := r.key(userID)
	var out *Session
	txf := func(tx *redis.Tx) error {
		s, err := r.get(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		b, err := json.Marshal(s)
		if err != nil {
			return errors.Wrap(err, "encoding session")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, r.ttl)
			return nil
		})
		if err == nil {
			out = s
		}
		return err
	}
	for i := 0; i < updateAttempts; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, errors.Wrap(redis.TxFailedErr, "session busy")
}

func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	return errors.Wrap(r.rdb.Del(ctx, r.key(userID)).Err(), "deleting session")
}
