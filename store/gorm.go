package store

import (
	"context"
	"fmt"
	"reflect"

	"feastfleet/models"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormStore keeps each collection in its own table. Every mutation runs in
// its own transaction, so concurrent sessions no longer overwrite each other.
type GormStore struct {
	db *gorm.DB
	// listing order, oldest record first
	orderBy string
}

// idSequence orders generated ids ("item2" before "item10") on databases
// without a stable row order. Unlike ctid it survives UPDATE.
const idSequence = "LENGTH(id), id"

// OpenSQLite opens (and migrates) an embedded database at path.
func OpenSQLite(path string) (*GormStore, error) {
	return openSQLite(path, "rowid")
}

func openSQLite(path, orderBy string) (*GormStore, error) {
	s, err := openGorm(sqlite.Open(path), orderBy)
	if err != nil {
		return nil, err
	}
	// one writer at a time; sqlite answers SQLITE_BUSY otherwise
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	sqlDB.SetMaxOpenConns(1)
	return s, nil
}

// OpenPostgres opens (and migrates) a PostgreSQL database.
func OpenPostgres(dsn string) (*GormStore, error) {
	return openGorm(postgres.Open(dsn), idSequence)
}

func openGorm(dialector gorm.Dialector, orderBy string) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.MenuItem{},
		&models.Order{},
	)
	if err != nil {
		return nil, errors.Wrap(err, "migrating database")
	}
	return &GormStore{db: db, orderBy: orderBy}, nil
}

func (s *GormStore) Users() Collection[models.User] {
	return &gormCollection[models.User]{db: s.db, orderBy: s.orderBy, table: UsersTable}
}

func (s *GormStore) Restaurants() Collection[models.Restaurant] {
	return &gormCollection[models.Restaurant]{db: s.db, orderBy: s.orderBy, table: RestaurantsTable}
}

func (s *GormStore) MenuItems() Collection[models.MenuItem] {
	return &gormCollection[models.MenuItem]{db: s.db, orderBy: s.orderBy, table: MenuItemsTable}
}

func (s *GormStore) Orders() Collection[models.Order] {
	return &gormCollection[models.Order]{db: s.db, orderBy: s.orderBy, table: OrdersTable}
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormCollection[T any] struct {
	db      *gorm.DB
	orderBy string
	table   Table[T]
}

func (c *gormCollection[T]) All(ctx context.Context) ([]T, error) {
	out := []T{}
	if err := c.db.WithContext(ctx).Order(c.orderBy).Find(&out).Error; err != nil {
		return nil, errors.Wrapf(err, "listing %s", c.table.Name)
	}
	return out, nil
}

func (c *gormCollection[T]) ByID(ctx context.Context, id string) (T, error) {
	var rec T
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, errors.Wrapf(err, "loading %s %s", c.table.Name, id)
	}
	return rec, nil
}

// column maps a JSON field name onto the database column that stores it.
func (c *gormCollection[T]) column(field string) (string, error) {
	sf, ok := jsonField(reflect.TypeFor[T](), field)
	if !ok {
		return "", errors.Wrapf(ErrUnknownField, "%s.%s", c.table.Name, field)
	}
	stmt := &gorm.Statement{DB: c.db}
	if err := stmt.Parse(new(T)); err != nil {
		return "", errors.Wrapf(err, "parsing %s schema", c.table.Name)
	}
	f := stmt.Schema.LookUpField(sf.Name)
	if f == nil || f.DBName == "" {
		return "", errors.Wrapf(ErrUnknownField, "%s.%s", c.table.Name, field)
	}
	return f.DBName, nil
}

func (c *gormCollection[T]) ByField(ctx context.Context, field string, value any) ([]T, error) {
	col, err := c.column(field)
	if err != nil {
		return nil, err
	}
	out := []T{}
	err = c.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: col}, Value: value}).
		Order(c.orderBy).
		Find(&out).Error
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s by %s", c.table.Name, field)
	}
	return out, nil
}

func (c *gormCollection[T]) Insert(ctx context.Context, rec *T) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return c.insertTx(tx, rec)
	})
}

func (c *gormCollection[T]) InsertUnique(ctx context.Context, rec *T, field string) error {
	col, err := c.column(field)
	if err != nil {
		return err
	}
	sf, _ := jsonField(reflect.TypeFor[T](), field)
	want := fieldString(rec, sf)
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(new(T)).
			Where(fmt.Sprintf("LOWER(%s) = LOWER(?)", tx.Statement.Quote(col)), want).
			Count(&n).Error
		if err != nil {
			return errors.Wrapf(err, "checking %s.%s", c.table.Name, field)
		}
		if n > 0 {
			return errors.Wrapf(ErrDuplicateValue, "%s.%s %q", c.table.Name, field, want)
		}
		return c.insertTx(tx, rec)
	})
}

func (c *gormCollection[T]) insertTx(tx *gorm.DB, rec *T) error {
	taken := func(id string) bool {
		var n int64
		tx.Model(new(T)).Where("id = ?", id).Count(&n)
		return n > 0
	}
	id := c.table.ID(rec)
	if *id == "" {
		var count int64
		if err := tx.Model(new(T)).Count(&count).Error; err != nil {
			return errors.Wrapf(err, "counting %s", c.table.Name)
		}
		*id = c.table.nextID(int(count), taken)
	} else if taken(*id) {
		return errors.Wrapf(ErrDuplicateID, "%s %s", c.table.Name, *id)
	}
	err := tx.Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent transaction got past the checks first
		return errors.Wrapf(ErrDuplicateValue, "inserting into %s", c.table.Name)
	}
	if err != nil {
		return errors.Wrapf(err, "inserting into %s", c.table.Name)
	}
	return nil
}

func (c *gormCollection[T]) Update(ctx context.Context, rec T) error {
	id := *c.table.ID(&rec)
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(new(T)).Where("id = ?", id).Select("*").Updates(&rec)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "updating %s %s", c.table.Name, id)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
