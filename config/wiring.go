package config

import (
	"os"
	"time"

	"feastfleet/events"
	"feastfleet/session"
	"feastfleet/store"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownDriver  = errors.New("unknown backend")
	ErrInsecureSecret = errors.New("JWT_SECRET must be set in release mode")
)

// CheckSecrets fails in release mode when tokens would be signed with
// DefaultJWTSecret, and warns about it in any other mode.
func CheckSecrets(cfg Config, log logrus.FieldLogger) error {
	if string(cfg.JWTSecret) != DefaultJWTSecret {
		return nil
	}
	if cfg.GinMode == gin.ReleaseMode {
		return ErrInsecureSecret
	}
	log.Warn("JWT_SECRET not set, signing tokens with the built-in development secret")
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.LogFormat == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// OpenStore opens the Record Store named by STORE_DRIVER.
func OpenStore(cfg Config, log logrus.FieldLogger) (store.Store, error) {
	switch cfg.StoreDriver {
	case "", "json":
		return store.OpenJSON(cfg.DataFile, log), nil
	case "sqlite":
		return store.OpenSQLite(cfg.SQLitePath)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, errors.New("POSTGRES_DSN is required for the postgres store")
		}
		return store.OpenPostgres(cfg.PostgresDSN)
	}
	return nil, errors.Wrapf(ErrUnknownDriver, "store %q", cfg.StoreDriver)
}

// OpenSessions returns the session store and, for redis, the client so the
// caller can close it.
func OpenSessions(cfg Config) (session.Store, *redis.Client, error) {
	switch cfg.SessionBackend {
	case "", "memory":
		return session.NewMemoryStore(), nil, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:        cfg.RedisAddr,
			DialTimeout: 2 * time.Second,
			ReadTimeout: 2 * time.Second,
		})
		return session.NewRedisStore(rdb, cfg.SessionTTL), rdb, nil
	}
	return nil, nil, errors.Wrapf(ErrUnknownDriver, "session %q", cfg.SessionBackend)
}

// OpenPublisher starts a Kafka publisher, or returns a no-op one when no
// brokers are configured. The returned close func is never nil.
func OpenPublisher(cfg Config, log logrus.FieldLogger) (events.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("KAFKA_BROKERS not set, order events disabled")
		return events.Nop{}, func() {}
	}
	p := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, "feastfleet-api", 1024, log)
	p.Start()
	return p, p.Close
}
