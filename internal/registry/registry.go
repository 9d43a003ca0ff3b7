package registry

import (
	"fmt"
	"sync"
	"time"

	. "skoll/internal/common"

	"github.com/google/uuid"
)

// Registry owns the canonical record of every order ever submitted. The
// order book holds pointers to the same records, so matching-induced
// mutation is visible here without a separate update step. Filled and
// cancelled orders stay in the registry as history; they only leave the
// ladders.
type Registry struct {
	mu     sync.Mutex
	orders map[string]*Order
}

func New() *Registry {
	return &Registry{
		orders: make(map[string]*Order),
	}
}

// Create validates and registers a new order. The returned pointer is the
// canonical record; callers must not copy it before handing it to matching.
func (r *Registry) Create(clientID, symbol string, price float64, quantity uint64, side Side) (*Order, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: price %f must be positive", ErrInvalidOrder, price)
	}
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}

	order := &Order{
		UUID:          uuid.New().String(),
		ClientID:      clientID,
		Symbol:        symbol,
		Side:          side,
		LimitPrice:    price,
		Quantity:      quantity,
		TotalQuantity: quantity,
		Status:        Open,
		Timestamp:     time.Now(),
	}

	r.mu.Lock()
	r.orders[order.UUID] = order
	r.mu.Unlock()

	return order, nil
}

// Cancel flips an order to cancelled if it exists, belongs to clientID and
// is still open. It does not touch the book; the engine removes the ladder
// entry under the symbol's lock after this succeeds.
func (r *Registry) Cancel(orderID, clientID string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	if order.ClientID != clientID {
		return nil, fmt.Errorf("%w: order %s is not owned by %s", ErrUnauthorizedCancel, orderID, clientID)
	}
	if order.Status != Open {
		return nil, fmt.Errorf("%w: order %s is %v", ErrInvalidState, orderID, order.Status)
	}

	order.Status = Cancelled
	return order, nil
}

// Get looks up an order by id.
func (r *Registry) Get(orderID string) (*Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	return order, ok
}

// OpenOrders snapshots every order still in the open state. Ordering is
// unspecified.
func (r *Registry) OpenOrders() []*Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	open := make([]*Order, 0)
	for _, order := range r.orders {
		if order.Status == Open {
			open = append(open, order)
		}
	}
	return open
}

// UpdateStatus is the engine-facing mutator used when a fill completes.
// Unknown ids fail silently with false.
func (r *Registry) UpdateStatus(orderID string, status OrderStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return false
	}
	order.Status = status
	return true
}
