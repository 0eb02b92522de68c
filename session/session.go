// Package session keeps the per-user state that lives between requests:
// the cart, the last reported location and delivery-tracking progress.
package session

import (
	"context"
	"math"

	"feastfleet/geo"
	"feastfleet/models"

	"github.com/pkg/errors"
)

// ErrMixedRestaurant is returned when an item from a second restaurant is
// added to a non-empty cart
var ErrMixedRestaurant = errors.New("cart holds items from another restaurant")

type Session struct {
	UserID string      `json:"user_id"`
	Cart   models.Cart `json:"cart"`
	// Location is where the customer last said they are
	Location *models.Location `json:"location,omitempty"`
	// Progress is the simulated courier progress per tracked order
	Progress map[string]float64 `json:"progress"`
	// AutoAdvanced is set once a simulated status change has happened in
	// this session; there is at most one.
	AutoAdvanced bool `json:"auto_advanced"`
}

func New(userID string) *Session {
	return &Session{
		UserID:   userID,
		Cart:     models.Cart{Lines: []models.CartLine{}},
		Progress: map[string]float64{},
	}
}

// Store persists sessions. Update runs fn on the current session (a fresh
// one if none exists) and saves the result unless fn fails.
type Store interface {
	Load(ctx context.Context, userID string) (*Session, error)
	Update(ctx context.Context, userID string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, userID string) error
}

// AddItem puts one unit of item in the cart, merging with an existing line
// for the same menu item.
func (s *Session) AddItem(item models.MenuItem, restaurantName string) error {
	if len(s.Cart.Lines) > 0 && s.Cart.RestaurantID != item.RestaurantID {
		return ErrMixedRestaurant
	}
	if len(s.Cart.Lines) == 0 {
		s.Cart.RestaurantID = item.RestaurantID
		s.Cart.RestaurantName = restaurantName
	}
	for i := range s.Cart.Lines {
		if s.Cart.Lines[i].ID == item.ID {
			s.Cart.Lines[i].Quantity++
			return nil
		}
	}
	s.Cart.Lines = append(s.Cart.Lines, models.CartLine{
		ID:       item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Quantity: 1,
	})
	return nil
}

// RemoveItem drops the whole line for itemID and reports whether there was one
func (s *Session) RemoveItem(itemID string) bool {
	for i, l := range s.Cart.Lines {
		if l.ID == itemID {
			s.Cart.Lines = append(s.Cart.Lines[:i], s.Cart.Lines[i+1:]...)
			if len(s.Cart.Lines) == 0 {
				s.ClearCart()
			}
			return true
		}
	}
	return false
}

func (s *Session) ClearCart() {
	s.Cart = models.Cart{Lines: []models.CartLine{}}
}

func (s *Session) CartTotal() float64 {
	total := 0.0
	for _, l := range s.Cart.Lines {
		total += l.Price * float64(l.Quantity)
	}
	return math.Round(total*100) / 100
}

func (s *Session) ItemCount() int {
	n := 0
	for _, l := range s.Cart.Lines {
		n += l.Quantity
	}
	return n
}

// AdvanceProgress moves the courier for orderID one refresh further and
// returns the new progress.
func (s *Session) AdvanceProgress(orderID string) float64 {
	if s.Progress == nil {
		s.Progress = map[string]float64{}
	}
	p := geo.Advance(s.Progress[orderID])
	s.Progress[orderID] = p
	return p
}

func (s *Session) clone() *Session {
	c := *s
	c.Cart.Lines = append([]models.CartLine{}, s.Cart.Lines...)
	c.Progress = make(map[string]float64, len(s.Progress))
	for k, v := range s.Progress {
		c.Progress[k] = v
	}
	if s.Location != nil {
		loc := *s.Location
		c.Location = &loc
	}
	return &c
}

// normalize fills in what a decoded session may be missing
func (s *Session) normalize(userID string) *Session {
	s.UserID = userID
	if s.Cart.Lines == nil {
		s.Cart.Lines = []models.CartLine{}
	}
	if s.Progress == nil {
		s.Progress = map[string]float64{}
	}
	return s
}
