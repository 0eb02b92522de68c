// Package orders runs the order lifecycle: checkout from a session cart,
// vendor and customer actions, simulated progress and delivery tracking.
package orders

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"feastfleet/events"
	"feastfleet/geo"
	"feastfleet/models"
	"feastfleet/notify"
	"feastfleet/session"
	"feastfleet/statemachine"
	"feastfleet/store"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrAddressRequired    = errors.New("please enter a delivery address")
	ErrInvalidPayment     = errors.New("unsupported payment method")
	ErrOrderNotFound      = errors.New("order not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrForbidden          = errors.New("order does not belong to you")
)

// PaymentMethods are the options offered at checkout; the first is the default.
var PaymentMethods = []string{"Cash on Delivery", "Credit/Debit Card", "UPI", "Wallet"}

// AutoAdvanceChance is the probability that one tracking poll moves a
// confirmed or preparing order one step forward in simulation mode.
const AutoAdvanceChance = 0.1

// TransitionError carries what a caller needs to explain a refused action.
type TransitionError struct {
	Current models.OrderStatus
	Valid   []models.OrderStatus
	Err     error
}

func (e *TransitionError) Error() string { return e.Err.Error() }

func (e *TransitionError) Unwrap() error { return e.Err }

type Options struct {
	// Simulation enables the random status nudge while an order is tracked
	Simulation bool
	// Roll returns a number in [0,1); defaults to math/rand/v2
	Roll func() float64
	Now  func() time.Time
}

type Service struct {
	store    store.Store
	sessions session.Store
	notifier *notify.Notifier
	events   events.Publisher
	log      logrus.FieldLogger
	locks    orderLocks

	simulate bool
	roll     func() float64
	now      func() time.Time
}

func NewService(s store.Store, sessions session.Store, n *notify.Notifier, pub events.Publisher, log logrus.FieldLogger, opts Options) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if opts.Roll == nil {
		opts.Roll = rand.Float64
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:    s,
		sessions: sessions,
		notifier: n,
		events:   pub,
		log:      log,
		simulate: opts.Simulation,
		roll:     opts.Roll,
		now:      opts.Now,
	}
}

// Simulation reports whether auto-advance is enabled
func (s *Service) Simulation() bool { return s.simulate }

type CheckoutRequest struct {
	DeliveryAddress string           `json:"delivery_address"`
	Phone           string           `json:"phone"`
	PaymentMethod   string           `json:"payment_method"`
	Location        *models.Location `json:"location"`
}

type CheckoutResult struct {
	Order        models.Order  `json:"order"`
	Notification notify.Result `json:"notification"`
}

// Checkout turns the user's cart into a confirmed order. A store write
// failure still returns the order, together with an error matching
// store.ErrNotPersisted.
func (s *Service) Checkout(ctx context.Context, user models.User, req CheckoutRequest) (CheckoutResult, error) {
	sess, err := s.sessions.Load(ctx, user.ID)
	if err != nil {
		return CheckoutResult{}, errors.Wrap(err, "loading session")
	}
	if len(sess.Cart.Lines) == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}
	if req.DeliveryAddress == "" {
		return CheckoutResult{}, ErrAddressRequired
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = PaymentMethods[0]
	}
	if !slices.Contains(PaymentMethods, req.PaymentMethod) {
		return CheckoutResult{}, errors.Wrapf(ErrInvalidPayment, "%q", req.PaymentMethod)
	}
	if req.Phone == "" {
		req.Phone = user.Phone
	}

	restaurant, err := s.store.Restaurants().ByID(ctx, sess.Cart.RestaurantID)
	if errors.Is(err, store.ErrNotFound) {
		return CheckoutResult{}, ErrRestaurantNotFound
	}
	if err != nil {
		return CheckoutResult{}, err
	}

	loc := geo.DefaultLocation
	switch {
	case req.Location != nil:
		loc = *req.Location
	case sess.Location != nil:
		loc = *sess.Location
	}
	loc.Address = req.DeliveryAddress
	distance := geo.Between(loc, restaurant.Location)

	items := make([]string, 0, len(sess.Cart.Lines))
	details := make([]models.OrderLine, 0, len(sess.Cart.Lines))
	for _, l := range sess.Cart.Lines {
		items = append(items, fmt.Sprintf("%s x%d", l.Name, l.Quantity))
		details = append(details, models.OrderLine{ID: l.ID, Name: l.Name, Price: l.Price, Quantity: l.Quantity})
	}

	order := models.Order{
		UserID:           user.ID,
		RestaurantID:     restaurant.ID,
		CustomerName:     user.Name,
		RestaurantName:   restaurant.Name,
		Items:            items,
		ItemDetails:      details,
		TotalAmount:      sess.CartTotal(),
		DeliveryAddress:  req.DeliveryAddress,
		DeliveryLocation: &loc,
		Phone:            req.Phone,
		PaymentMethod:    req.PaymentMethod,
		Status:           models.StatusConfirmed,
		ETA:              fmt.Sprintf("%d minutes", geo.ETAMinutes(distance, geo.DefaultSpeedKmh)),
		CreatedAt:        unixSeconds(s.now()),
		DistanceKm:       math.Round(distance*100) / 100,
	}

	insertErr := s.store.Orders().Insert(ctx, &order)
	if insertErr != nil && !errors.Is(insertErr, store.ErrNotPersisted) {
		return CheckoutResult{}, errors.Wrap(insertErr, "saving order")
	}

	if _, err := s.sessions.Update(ctx, user.ID, func(sess *session.Session) error {
		sess.ClearCart()
		sess.Location = &models.Location{Lat: loc.Lat, Lng: loc.Lng}
		return nil
	}); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("order placed but cart not cleared")
	}

	// the stored user carries the current notification settings
	if fresh, err := s.store.Users().ByID(ctx, user.ID); err == nil {
		user = fresh
	}
	res := CheckoutResult{
		Order:        order,
		Notification: s.notifier.OrderConfirmed(ctx, order, user),
	}

	ev := events.NewEvent(events.EventOrderCreated, order)
	ev.Actor = string(statemachine.ActorCustomer)
	s.events.Publish(ctx, ev)

	s.log.WithFields(logrus.Fields{
		"order_id":      order.ID,
		"restaurant_id": order.RestaurantID,
		"total":         order.TotalAmount,
	}).Info("order placed")
	return res, insertErr
}

type ApplyResult struct {
	Order          models.Order       `json:"order"`
	PreviousStatus models.OrderStatus `json:"previous_status"`
	Notification   notify.Result      `json:"notification"`
}

// Apply performs action on orderID on behalf of userID. Customers may only
// act on their own orders, vendors only on orders of restaurants they own.
// Calls for the same order run one at a time.
func (s *Service) Apply(ctx context.Context, actor statemachine.Actor, userID, orderID string, action statemachine.Action) (ApplyResult, error) {
	defer s.locks.lock(orderID)()

	order, err := s.authorize(ctx, actor, userID, orderID)
	if err != nil {
		return ApplyResult{}, err
	}
	tr, err := statemachine.Resolve(order.Status, action, actor)
	if err != nil {
		return ApplyResult{}, &TransitionError{
			Current: order.Status,
			Valid:   statemachine.ValidTransitionsFrom(order.Status),
			Err:     err,
		}
	}

	prev := order.Status
	order.Status = tr.To
	updateErr := s.store.Orders().Update(ctx, order)
	if updateErr != nil && !errors.Is(updateErr, store.ErrNotPersisted) {
		return ApplyResult{}, errors.Wrapf(updateErr, "updating order %s", order.ID)
	}

	res := ApplyResult{Order: order, PreviousStatus: prev}
	customer, err := s.store.Users().ByID(ctx, order.UserID)
	if err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Warn("customer not found, status SMS skipped")
		res.Notification = notify.Result{Message: "Customer not found"}
	} else {
		res.Notification = s.notifier.StatusChanged(ctx, order, customer, order.Status)
	}

	ev := events.NewEvent(events.EventOrderStatusChanged, order)
	ev.PrevStatus = prev
	ev.Actor = string(actor)
	s.events.Publish(ctx, ev)

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"actor":    actor,
		"action":   action,
		"from":     prev,
		"to":       order.Status,
	}).Info("order status changed")
	return res, updateErr
}

// authorize loads orderID and checks that userID may act on it as actor.
func (s *Service) authorize(ctx context.Context, actor statemachine.Actor, userID, orderID string) (models.Order, error) {
	order, err := s.store.Orders().ByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return order, ErrOrderNotFound
	}
	if err != nil {
		return order, err
	}
	switch actor {
	case statemachine.ActorCustomer:
		if order.UserID != userID {
			return order, ErrForbidden
		}
	case statemachine.ActorVendor:
		restaurant, err := s.store.Restaurants().ByID(ctx, order.RestaurantID)
		if err != nil || restaurant.OwnerID != userID {
			return order, ErrForbidden
		}
	}
	return order, nil
}

// Order returns orderID if userID may see it as actor.
func (s *Service) Order(ctx context.Context, actor statemachine.Actor, userID, orderID string) (models.Order, error) {
	return s.authorize(ctx, actor, userID, orderID)
}

// CustomerOrders lists userID's orders, newest first.
func (s *Service) CustomerOrders(ctx context.Context, userID string) ([]models.Order, error) {
	list, err := store.OrdersByUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	newestFirst(list)
	return list, nil
}

// VendorOrders lists orders for every restaurant ownerID owns, newest
// first, optionally limited to one status, with a per-status count.
func (s *Service) VendorOrders(ctx context.Context, ownerID string, status models.OrderStatus) ([]models.Order, map[models.OrderStatus]int, error) {
	restaurants, err := store.RestaurantsByOwner(ctx, s.store, ownerID)
	if err != nil {
		return nil, nil, err
	}
	out := []models.Order{}
	summary := map[models.OrderStatus]int{}
	for _, r := range restaurants {
		list, err := store.OrdersByRestaurant(ctx, s.store, r.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, o := range list {
			summary[o.Status]++
			if status == "" || o.Status == status {
				out = append(out, o)
			}
		}
	}
	newestFirst(out)
	return out, summary, nil
}

func newestFirst(list []models.Order) {
	slices.SortStableFunc(list, func(a, b models.Order) int {
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		}
		return 0
	})
}

type ReorderResult struct {
	Cart models.Cart `json:"cart"`
	// Skipped names past items that are gone from the menu or unavailable
	Skipped []string `json:"skipped"`
}

// Reorder replaces the cart with the lines of a past order, priced from the
// current menu.
func (s *Service) Reorder(ctx context.Context, userID, orderID string) (ReorderResult, error) {
	order, err := s.authorize(ctx, statemachine.ActorCustomer, userID, orderID)
	if err != nil {
		return ReorderResult{}, err
	}
	restaurant, err := s.store.Restaurants().ByID(ctx, order.RestaurantID)
	if errors.Is(err, store.ErrNotFound) {
		return ReorderResult{}, ErrRestaurantNotFound
	}
	if err != nil {
		return ReorderResult{}, err
	}

	skipped := []string{}
	var lines []models.CartLine
	for _, d := range order.ItemDetails {
		item, err := s.store.MenuItems().ByID(ctx, d.ID)
		if err != nil || item.RestaurantID != restaurant.ID || !item.Available() {
			skipped = append(skipped, d.Name)
			continue
		}
		lines = append(lines, models.CartLine{ID: item.ID, Name: item.Name, Price: item.Price, Quantity: d.Quantity})
	}
	if len(lines) == 0 {
		return ReorderResult{Skipped: skipped}, ErrEmptyCart
	}

	sess, err := s.sessions.Update(ctx, userID, func(sess *session.Session) error {
		sess.ClearCart()
		sess.Cart.RestaurantID = restaurant.ID
		sess.Cart.RestaurantName = restaurant.Name
		sess.Cart.Lines = lines
		return nil
	})
	if err != nil {
		return ReorderResult{}, errors.Wrap(err, "saving cart")
	}
	return ReorderResult{Cart: sess.Cart, Skipped: skipped}, nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
