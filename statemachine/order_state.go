package statemachine

import (
	"comanda/apierr"
	"comanda/models"
)

// Actors that may drive order status changes.
const (
	ActorStaff    = "staff"
	ActorCustomer = "customer"
)

// Transition defines a valid order status change and who can perform it.
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor string             `json:"actor"`
}

// validTransitions is the authoritative state machine definition: the happy
// path is pending -> preparing -> ready -> delivered, driven by staff;
// cancellation is reachable from every non-terminal state and delivered
// orders can never be cancelled.
var validTransitions = []Transition{
	{From: models.StatusPending, To: models.StatusPreparing, Actor: ActorStaff},
	{From: models.StatusPreparing, To: models.StatusReady, Actor: ActorStaff},
	{From: models.StatusReady, To: models.StatusDelivered, Actor: ActorStaff},

	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorStaff},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorCustomer},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: ActorStaff},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: ActorCustomer},
	{From: models.StatusReady, To: models.StatusCancelled, Actor: ActorStaff},
	{From: models.StatusReady, To: models.StatusCancelled, Actor: ActorCustomer},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor string
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state.
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks whether the given actor may move an order from one
// status to another.
func CanTransition(from, to models.OrderStatus, actor string) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return &apierr.InvalidTransitionError{From: string(from), To: string(to)}
}

// Cancellable reports whether an order in the given status may still be
// cancelled by its owner.
func Cancellable(status models.OrderStatus) bool {
	return CanTransition(status, models.StatusCancelled, ActorCustomer) == nil
}

// AllTransitions returns the full state machine, served verbatim by the
// /transitions documentation endpoint.
func AllTransitions() []Transition {
	return validTransitions
}
