// Package store is the Record Store: four flat collections (users,
// restaurants, menu items, orders) keyed by application-assigned string ids.
package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"feastfleet/models"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no record carries the requested id
	ErrNotFound = errors.New("record not found")
	// ErrUnknownField is returned by ByField for a field the record type does not have
	ErrUnknownField = errors.New("unknown field")
	// ErrDuplicateID is returned by Insert for an explicit id that is already used
	ErrDuplicateID = errors.New("duplicate id")
	// ErrDuplicateValue is returned by InsertUnique, and by any insert that hits a unique index
	ErrDuplicateValue = errors.New("duplicate value")
	// ErrNotPersisted matches a mutation that was applied but could not be written out
	ErrNotPersisted = errors.New("change not persisted")
)

// NotPersistedError wraps the write failure behind ErrNotPersisted. The
// record it concerns is already visible to readers.
type NotPersistedError struct {
	Err error
}

func (e *NotPersistedError) Error() string {
	return "change kept in memory but not persisted: " + e.Err.Error()
}

func (e *NotPersistedError) Unwrap() error { return e.Err }

func (e *NotPersistedError) Is(target error) bool { return target == ErrNotPersisted }

// Collection is the operation set shared by every collection, whatever the backend.
type Collection[T any] interface {
	All(ctx context.Context) ([]T, error)
	ByID(ctx context.Context, id string) (T, error)
	// ByField returns every record whose JSON field equals value (compared by string form).
	ByField(ctx context.Context, field string, value any) ([]T, error)
	// Insert assigns "<prefix><count+1>" when the id is empty.
	Insert(ctx context.Context, rec *T) error
	// InsertUnique is Insert, refused with ErrDuplicateValue when another
	// record already holds rec's value of field (compared case-insensitively).
	// The check and the insert happen atomically.
	InsertUnique(ctx context.Context, rec *T, field string) error
	// Update replaces the record sharing rec's id; ErrNotFound when there is none.
	Update(ctx context.Context, rec T) error
}

type Store interface {
	Users() Collection[models.User]
	Restaurants() Collection[models.Restaurant]
	MenuItems() Collection[models.MenuItem]
	Orders() Collection[models.Order]
	Close() error
}

// Table describes a collection: its persisted name, its id prefix and how to
// reach the id of a record.
type Table[T any] struct {
	Name   string
	Prefix string
	ID     func(*T) *string
}

// nextID returns "<prefix><count+1>", stepping past ids already taken by
// records that were inserted with an explicit id.
func (t Table[T]) nextID(count int, taken func(string) bool) string {
	for n := count + 1; ; n++ {
		id := fmt.Sprintf("%s%d", t.Prefix, n)
		if !taken(id) {
			return id
		}
	}
}

var (
	UsersTable       = Table[models.User]{Name: "users", Prefix: "user", ID: func(u *models.User) *string { return &u.ID }}
	RestaurantsTable = Table[models.Restaurant]{Name: "restaurants", Prefix: "rest", ID: func(r *models.Restaurant) *string { return &r.ID }}
	MenuItemsTable   = Table[models.MenuItem]{Name: "menu_items", Prefix: "item", ID: func(m *models.MenuItem) *string { return &m.ID }}
	OrdersTable      = Table[models.Order]{Name: "orders", Prefix: "order", ID: func(o *models.Order) *string { return &o.ID }}
)

// jsonField finds the struct field of t whose json tag name is field.
func jsonField(t reflect.Type, field string) (reflect.StructField, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return reflect.StructField{}, false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == field && name != "-" {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

// fieldMatches compares rec's field against value by their printed form, so
// that "rest1" matches a string id and "true" matches a bool.
func fieldMatches(rec any, sf reflect.StructField, value any) bool {
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	return fmt.Sprint(v.FieldByIndex(sf.Index).Interface()) == fmt.Sprint(value)
}

// fieldString is the printed form of rec's field.
func fieldString(rec any, sf reflect.StructField) string {
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	return fmt.Sprint(v.FieldByIndex(sf.Index).Interface())
}

// UserByEmail is the "user by email" lookup; the address is compared case-insensitively.
func UserByEmail(ctx context.Context, s Store, email string) (models.User, error) {
	users, err := s.Users().All(ctx)
	if err != nil {
		return models.User{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range users {
		if strings.ToLower(u.Email) == email {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func RestaurantsByOwner(ctx context.Context, s Store, ownerID string) ([]models.Restaurant, error) {
	return s.Restaurants().ByField(ctx, "owner_id", ownerID)
}

func MenuByRestaurant(ctx context.Context, s Store, restaurantID string) ([]models.MenuItem, error) {
	return s.MenuItems().ByField(ctx, "restaurant_id", restaurantID)
}

func OrdersByUser(ctx context.Context, s Store, userID string) ([]models.Order, error) {
	return s.Orders().ByField(ctx, "user_id", userID)
}

func OrdersByRestaurant(ctx context.Context, s Store, restaurantID string) ([]models.Order, error) {
	return s.Orders().ByField(ctx, "restaurant_id", restaurantID)
}
