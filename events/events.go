// Package events publishes order lifecycle events for other services.
package events

import (
	"context"
	"time"

	"feastfleet/models"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Event is the envelope written to the stream
type Event struct {
	EventID      string             `json:"event_id"`
	EventType    string             `json:"event_type"`
	EventVersion int                `json:"event_version"`
	OccurredAt   time.Time          `json:"occurred_at"`
	Producer     string             `json:"producer"`
	OrderID      string             `json:"order_id"`
	Status       models.OrderStatus `json:"status"`
	PrevStatus   models.OrderStatus `json:"prev_status,omitempty"`
	Actor        string             `json:"actor,omitempty"`
	Order        models.Order       `json:"order"`
}

// Publisher is best-effort: Publish must not block and has no error.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

func NewEvent(eventType string, order models.Order) Event {
	return Event{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		OrderID:      order.ID,
		Status:       order.Status,
		Order:        order,
	}
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
