package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/order"
)

// OrderRepository keeps order records for the lifetime of the process.
// Callers always receive copies.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*domain.Order)}
}

func (r *OrderRepository) Insert(_ context.Context, o *domain.Order) error {
	return r.put(o, false)
}

func (r *OrderRepository) Update(_ context.Context, o *domain.Order) error {
	return r.put(o, true)
}

func (r *OrderRepository) Get(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

// put stores a copy of o. With existing set the record must already be
// present, otherwise it must not be.
func (r *OrderRepository) put(o *domain.Order, existing bool) error {
	if o == nil || o.ID == "" {
		return domain.ErrMissingID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, found := r.orders[o.ID]
	switch {
	case existing && !found:
		return domain.ErrNotFound
	case !existing && found:
		return domain.ErrConflict
	}
	r.orders[o.ID] = o.Clone()
	return nil
}
