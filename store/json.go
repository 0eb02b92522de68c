package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"feastfleet/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// document is the persisted layout: one JSON object, one array per collection.
type document struct {
	Users       []models.User       `json:"users"`
	Restaurants []models.Restaurant `json:"restaurants"`
	MenuItems   []models.MenuItem   `json:"menu_items"`
	Orders      []models.Order      `json:"orders"`
}

func emptyDocument() document {
	return document{
		Users:       []models.User{},
		Restaurants: []models.Restaurant{},
		MenuItems:   []models.MenuItem{},
		Orders:      []models.Order{},
	}
}

// JSONStore keeps the whole document in memory and rewrites the file after
// every mutation. A failed write is returned to the caller but the in-memory
// change stays; the next successful write brings the file back in line.
type JSONStore struct {
	mu   sync.RWMutex
	path string
	doc  document
	log  logrus.FieldLogger
}

// OpenJSON loads path. A missing or unreadable file yields an empty document.
func OpenJSON(path string, log logrus.FieldLogger) *JSONStore {
	s := &JSONStore{path: path, log: log}
	s.doc = s.load()
	return s
}

func (s *JSONStore) load() document {
	doc := emptyDocument()
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).WithField("path", s.path).Error("reading data file, starting empty")
		}
		return doc
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		s.log.WithError(err).WithField("path", s.path).Error("decoding data file, starting empty")
		return emptyDocument()
	}
	if doc.Users == nil {
		doc.Users = []models.User{}
	}
	if doc.Restaurants == nil {
		doc.Restaurants = []models.Restaurant{}
	}
	if doc.MenuItems == nil {
		doc.MenuItems = []models.MenuItem{}
	}
	if doc.Orders == nil {
		doc.Orders = []models.Order{}
	}
	return doc
}

// Reload discards memory and re-reads the file.
func (s *JSONStore) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = s.load()
}

// persist must be called with mu held.
func (s *JSONStore) persist() error {
	if err := s.save(); err != nil {
		s.log.WithError(err).WithField("path", s.path).Error("data file not written, change kept in memory")
		return &NotPersistedError{Err: err}
	}
	return nil
}

func (s *JSONStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "creating data directory")
	}
	b, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding data file")
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".app_data-*.json")
	if err != nil {
		return errors.Wrap(err, "writing data file")
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "writing data file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "writing data file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "replacing data file")
	}
	return nil
}

func (s *JSONStore) Users() Collection[models.User] {
	return &jsonCollection[models.User]{s: s, table: UsersTable, items: func(d *document) *[]models.User { return &d.Users }}
}

func (s *JSONStore) Restaurants() Collection[models.Restaurant] {
	return &jsonCollection[models.Restaurant]{s: s, table: RestaurantsTable, items: func(d *document) *[]models.Restaurant { return &d.Restaurants }}
}

func (s *JSONStore) MenuItems() Collection[models.MenuItem] {
	return &jsonCollection[models.MenuItem]{s: s, table: MenuItemsTable, items: func(d *document) *[]models.MenuItem { return &d.MenuItems }}
}

func (s *JSONStore) Orders() Collection[models.Order] {
	return &jsonCollection[models.Order]{s: s, table: OrdersTable, items: func(d *document) *[]models.Order { return &d.Orders }}
}

func (s *JSONStore) Close() error { return nil }

type jsonCollection[T any] struct {
	s     *JSONStore
	table Table[T]
	items func(*document) *[]T
}

func (c *jsonCollection[T]) All(_ context.Context) ([]T, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	src := *c.items(&c.s.doc)
	out := make([]T, len(src))
	copy(out, src)
	return out, nil
}

func (c *jsonCollection[T]) ByID(_ context.Context, id string) (T, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	for _, rec := range *c.items(&c.s.doc) {
		if *c.table.ID(&rec) == id {
			return rec, nil
		}
	}
	var zero T
	return zero, ErrNotFound
}

func (c *jsonCollection[T]) ByField(_ context.Context, field string, value any) ([]T, error) {
	sf, ok := jsonField(reflect.TypeFor[T](), field)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownField, "%s.%s", c.table.Name, field)
	}
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	out := []T{}
	for _, rec := range *c.items(&c.s.doc) {
		if fieldMatches(rec, sf, value) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (c *jsonCollection[T]) Insert(_ context.Context, rec *T) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.insertLocked(rec)
}

func (c *jsonCollection[T]) InsertUnique(_ context.Context, rec *T, field string) error {
	sf, ok := jsonField(reflect.TypeFor[T](), field)
	if !ok {
		return errors.Wrapf(ErrUnknownField, "%s.%s", c.table.Name, field)
	}
	want := fieldString(rec, sf)
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, have := range *c.items(&c.s.doc) {
		if strings.EqualFold(fieldString(have, sf), want) {
			return errors.Wrapf(ErrDuplicateValue, "%s.%s %q", c.table.Name, field, want)
		}
	}
	return c.insertLocked(rec)
}

// insertLocked must be called with mu held for writing.
func (c *jsonCollection[T]) insertLocked(rec *T) error {
	items := c.items(&c.s.doc)
	taken := func(id string) bool {
		for i := range *items {
			if *c.table.ID(&(*items)[i]) == id {
				return true
			}
		}
		return false
	}
	id := c.table.ID(rec)
	if *id == "" {
		*id = c.table.nextID(len(*items), taken)
	} else if taken(*id) {
		return errors.Wrapf(ErrDuplicateID, "%s %s", c.table.Name, *id)
	}
	*items = append(*items, *rec)
	return c.s.persist()
}

func (c *jsonCollection[T]) Update(_ context.Context, rec T) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	id := *c.table.ID(&rec)
	items := *c.items(&c.s.doc)
	for i := range items {
		if *c.table.ID(&items[i]) == id {
			items[i] = rec
			return c.s.persist()
		}
	}
	return ErrNotFound
}
