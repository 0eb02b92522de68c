package orders

import (
	"context"
	"hash/fnv"
	"math/rand/v2"

	"feastfleet/geo"
	"feastfleet/models"
	"feastfleet/session"
	"feastfleet/statemachine"
	"feastfleet/store"

	"github.com/pkg/errors"
)

// RefreshAfterSeconds is how long a client waits between tracking polls.
const RefreshAfterSeconds = 5

// StatusProgress is the share of the journey each status stands for.
var StatusProgress = map[models.OrderStatus]float64{
	models.StatusConfirmed:      0.25,
	models.StatusPreparing:      0.5,
	models.StatusOutForDelivery: 0.75,
	models.StatusDelivered:      1.0,
	models.StatusCancelled:      0,
}

type Agent struct {
	Name     string          `json:"name"`
	Vehicle  string          `json:"vehicle"`
	Location models.Location `json:"location"`
}

// defaultAgent is the courier every simulated delivery is assigned to
var defaultAgent = Agent{Name: "Rahul S.", Vehicle: "Bike"}

type Tracking struct {
	Order              models.Order    `json:"order"`
	StatusProgress     float64         `json:"status_progress"`
	RestaurantLocation models.Location `json:"restaurant_location"`
	CustomerLocation   models.Location `json:"customer_location"`
	// Agent and Progress are only set while the order is out for delivery
	Agent    *Agent  `json:"agent,omitempty"`
	Progress float64 `json:"progress,omitempty"`
	// ETA is hidden once the order is finished
	ETA                 string `json:"eta,omitempty"`
	RefreshAfterSeconds int    `json:"refresh_after_seconds,omitempty"`
	AutoAdvanced        bool   `json:"auto_advanced,omitempty"`
}

// Done reports whether polling can stop
func (t Tracking) Done() bool { return t.Order.Status.Terminal() }

// Track is one poll of the tracking view for userID. In simulation mode a
// customer's poll may first nudge the order one status forward, at most once
// per session. While the order is out for delivery each poll moves the
// courier further along the straight line from restaurant to customer.
func (s *Service) Track(ctx context.Context, actor statemachine.Actor, userID, orderID string) (Tracking, error) {
	order, err := s.authorize(ctx, actor, userID, orderID)
	if err != nil {
		return Tracking{}, err
	}
	restaurant, err := s.store.Restaurants().ByID(ctx, order.RestaurantID)
	if errors.Is(err, store.ErrNotFound) {
		return Tracking{}, ErrRestaurantNotFound
	}
	if err != nil {
		return Tracking{}, err
	}

	sess, err := s.sessions.Load(ctx, userID)
	if err != nil {
		return Tracking{}, errors.Wrap(err, "loading session")
	}

	autoAdvanced := false
	if actor == statemachine.ActorCustomer {
		if advanced, ok := s.AutoAdvance(ctx, sess, order); ok {
			order = advanced
			autoAdvanced = true
		}
	}

	var customer models.Location
	switch {
	case order.DeliveryLocation != nil:
		customer = *order.DeliveryLocation
	case sess.Location != nil:
		customer = *sess.Location
	default:
		customer = geo.RandomLocationNear(restaurant.Location, order.DistanceKm, orderRand(order.ID))
	}

	t := Tracking{
		Order:              order,
		StatusProgress:     StatusProgress[order.Status],
		RestaurantLocation: restaurant.Location,
		CustomerLocation:   customer,
		AutoAdvanced:       autoAdvanced,
	}
	if !order.Status.Terminal() {
		t.ETA = order.ETA
		t.RefreshAfterSeconds = RefreshAfterSeconds
	}

	if order.Status == models.StatusOutForDelivery || autoAdvanced {
		sess, err = s.sessions.Update(ctx, userID, func(sess *session.Session) error {
			if autoAdvanced {
				sess.AutoAdvanced = true
			}
			if order.Status == models.StatusOutForDelivery {
				t.Progress = sess.AdvanceProgress(order.ID)
			}
			return nil
		})
		if err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("tracking progress not saved")
			if order.Status == models.StatusOutForDelivery && t.Progress == 0 {
				t.Progress = geo.ProgressStart
			}
		}
	}
	if order.Status == models.StatusOutForDelivery {
		agent := defaultAgent
		agent.Location = geo.Interpolate(restaurant.Location, customer, t.Progress, nil)
		t.Agent = &agent
	}
	return t, nil
}

// AutoAdvance rolls the simulated status nudge for one poll. It only fires
// in simulation mode, for a session that has not been nudged yet, and for an
// order the system actor may move. The caller records the nudge on the session.
func (s *Service) AutoAdvance(ctx context.Context, sess *session.Session, order models.Order) (models.Order, bool) {
	if !s.simulate || sess.AutoAdvanced {
		return order, false
	}
	if len(statemachine.ActionsFor(order.Status, statemachine.ActorSystem)) == 0 {
		return order, false
	}
	if s.roll() >= AutoAdvanceChance {
		return order, false
	}
	res, err := s.Apply(ctx, statemachine.ActorSystem, "", order.ID, statemachine.ActionAdvance)
	if err != nil && !errors.Is(err, store.ErrNotPersisted) {
		s.log.WithError(err).WithField("order_id", order.ID).Warn("simulated status change failed")
		return order, false
	}
	return res.Order, true
}

// orderRand is a generator that yields the same numbers for every poll of
// one order.
func orderRand(orderID string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(orderID))
	return rand.New(rand.NewPCG(h.Sum64(), 0))
}
