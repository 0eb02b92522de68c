package statemachine

import (
	"strings"

	"feastfleet/models"

	"github.com/pkg/errors"
)

// Actor is whoever asks for a status change
type Actor string

const (
	ActorVendor   Actor = "vendor"
	ActorCustomer Actor = "customer"
	ActorSystem   Actor = "system"
)

// Action is the verb a caller uses to ask for a transition
type Action string

const (
	ActionAccept  Action = "accept"
	ActionReject  Action = "reject"
	ActionReady   Action = "ready"
	ActionDeliver Action = "deliver"
	ActionCancel  Action = "cancel"
	ActionAdvance Action = "advance"
)

// ErrInvalidTransition is returned for any change the table does not allow,
// including every attempt to leave delivered or cancelled.
var ErrInvalidTransition = errors.New("invalid transition")

// Transition defines a valid state change, who can perform it and the
// action that triggers it
type Transition struct {
	From   models.OrderStatus `json:"from"`
	To     models.OrderStatus `json:"to"`
	Actor  Actor              `json:"actor"`
	Action Action             `json:"action"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Vendor works through a new order
	{From: models.StatusConfirmed, To: models.StatusPreparing, Actor: ActorVendor, Action: ActionAccept},
	{From: models.StatusPreparing, To: models.StatusOutForDelivery, Actor: ActorVendor, Action: ActionReady},
	{From: models.StatusOutForDelivery, To: models.StatusDelivered, Actor: ActorVendor, Action: ActionDeliver},

	// Vendor can reject until the food leaves the kitchen
	{From: models.StatusConfirmed, To: models.StatusCancelled, Actor: ActorVendor, Action: ActionReject},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: ActorVendor, Action: ActionReject},

	// Customer can cancel until the food leaves the kitchen
	{From: models.StatusConfirmed, To: models.StatusCancelled, Actor: ActorCustomer, Action: ActionCancel},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: ActorCustomer, Action: ActionCancel},

	// Simulated progress
	{From: models.StatusConfirmed, To: models.StatusPreparing, Actor: ActorSystem, Action: ActionAdvance},
	{From: models.StatusPreparing, To: models.StatusOutForDelivery, Actor: ActorSystem, Action: ActionAdvance},
}

type actionKey struct {
	From   models.OrderStatus
	Action Action
	Actor  Actor
}

var actionMap = map[actionKey]Transition{}

func init() {
	for _, t := range validTransitions {
		actionMap[actionKey{t.From, t.Action, t.Actor}] = t
	}
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	nexts := []models.OrderStatus{}
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// ActionsFor lists the actions actor may take on an order in status
func ActionsFor(status models.OrderStatus, actor Actor) []Action {
	out := []Action{}
	for _, t := range validTransitions {
		if t.From == status && t.Actor == actor {
			out = append(out, t.Action)
		}
	}
	return out
}

// Resolve finds the transition action triggers for actor on an order in
// status from.
func Resolve(from models.OrderStatus, action Action, actor Actor) (Transition, error) {
	if t, ok := actionMap[actionKey{from, action, actor}]; ok {
		return t, nil
	}
	return Transition{}, errors.Wrapf(ErrInvalidTransition,
		"action '%s' is not allowed for actor '%s' on a %s order; valid transitions from %s are: %s",
		action, actor, from, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}
