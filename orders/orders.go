// Package orders covers order submission and status tracking. Submission
// validates locally before any request goes out; tracking validates status
// transitions against the state machine instead of trusting the server to
// reject bad ones.
package orders

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"comanda/apierr"
	"comanda/cart"
	"comanda/client"
	"comanda/logger"
	"comanda/models"
	"comanda/statemachine"
)

// SubmitRequest is the input to Submit, before it is joined with the draft.
type SubmitRequest struct {
	CustomerName string `validate:"required"`
	TableID      *uint
	Notes        string
}

type Service struct {
	api      *client.Client
	draft    *cart.Builder
	validate *validator.Validate
	log      *logger.Logger
}

func NewService(api *client.Client, draft *cart.Builder) *Service {
	return &Service{
		api:      api,
		draft:    draft,
		validate: validator.New(),
		log:      logger.New("order-service"),
	}
}

// Submit serializes the draft plus customer details into a new order. The
// draft is cleared only after the server confirms creation. Unit prices in
// the response come from the server's own catalog; the client-side snapshots
// are display-only and never sent.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (models.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.Order{}, &apierr.ValidationError{Field: "customerName", Reason: "is required"}
	}
	if s.draft.Empty() {
		return models.Order{}, &apierr.ValidationError{Field: "items", Reason: "draft order is empty"}
	}

	created, err := s.api.CreateOrder(ctx, models.CreateOrderRequest{
		CustomerName: req.CustomerName,
		TableID:      req.TableID,
		Notes:        req.Notes,
		Items:        s.draft.Items(),
	})
	if err != nil {
		return models.Order{}, err
	}

	s.draft.Clear()
	s.log.Info("", "order_submit", "order created")
	return created, nil
}

// Tracker is the read-through view over the order collection, with
// transition actions for staff and cancellation for customers.
type Tracker struct {
	mu     sync.RWMutex
	api    *client.Client
	orders map[uint]models.Order
	log    *logger.Logger
}

func NewTracker(api *client.Client) *Tracker {
	return &Tracker{
		api:    api,
		orders: make(map[uint]models.Order),
		log:    logger.New("order-tracker"),
	}
}

// Refresh re-fetches the order collection. A cancelled context is a no-op.
func (t *Tracker) Refresh(ctx context.Context) error {
	fetched, err := t.api.ListOrders(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	next := make(map[uint]models.Order, len(fetched))
	for _, o := range fetched {
		next[o.ID] = o
	}
	t.mu.Lock()
	t.orders = next
	t.mu.Unlock()
	return nil
}

// Orders returns all known orders, newest first.
func (t *Tracker) Orders() []models.Order {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.Order, 0, len(t.orders))
	for _, o := range t.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// Find looks an order up by ID.
func (t *Tracker) Find(id uint) (models.Order, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	o, ok := t.orders[id]
	return o, ok
}

// OrdersFor filters to orders placed under the given customer name. The
// correlation is plaintext name match, exactly as the product behaves today:
// two customers sharing a name see each other's orders.
func (t *Tracker) OrdersFor(customerName string) []models.Order {
	var out []models.Order
	for _, o := range t.Orders() {
		if o.CustomerName == customerName {
			out = append(out, o)
		}
	}
	return out
}

// TabTotal is the running tab for a customer: every order except cancelled
// ones, summed over price-at-order-time.
func (t *Tracker) TabTotal(customerName string) float64 {
	var total float64
	for _, o := range t.OrdersFor(customerName) {
		if o.Status == models.StatusCancelled {
			continue
		}
		total += o.Total()
	}
	return total
}

// CountsByStatus returns how many orders sit in each status.
func (t *Tracker) CountsByStatus() map[models.OrderStatus]int {
	counts := make(map[models.OrderStatus]int)
	for _, o := range t.Orders() {
		counts[o.Status]++
	}
	return counts
}

// Transition moves an order to a new status on behalf of the given actor.
// The move is validated locally first, then applied optimistically and
// reverted if the backend rejects it.
func (t *Tracker) Transition(ctx context.Context, id uint, to models.OrderStatus, actor string) (models.Order, error) {
	t.mu.Lock()
	prev, ok := t.orders[id]
	if !ok {
		t.mu.Unlock()
		return models.Order{}, &apierr.ValidationError{Field: "orderId", Reason: "is not a known order"}
	}
	if err := statemachine.CanTransition(prev.Status, to, actor); err != nil {
		t.mu.Unlock()
		return models.Order{}, err
	}
	next := prev
	next.Status = to
	t.orders[id] = next
	t.mu.Unlock()

	updated, err := t.api.UpdateOrderStatus(ctx, id, to)
	if err != nil {
		t.mu.Lock()
		t.orders[id] = prev
		t.mu.Unlock()
		if errors.Is(err, context.Canceled) {
			return models.Order{}, context.Canceled
		}
		t.log.Error("", "order_transition", "server rejected transition, local state reverted", err)
		return models.Order{}, err
	}

	t.mu.Lock()
	t.orders[id] = updated
	t.mu.Unlock()
	return updated, nil
}

// Cancel cancels an order on the customer's behalf. Only pending, preparing
// and ready orders are cancellable; delivered orders are rejected with no
// state change.
func (t *Tracker) Cancel(ctx context.Context, id uint) (models.Order, error) {
	return t.Transition(ctx, id, models.StatusCancelled, statemachine.ActorCustomer)
}
