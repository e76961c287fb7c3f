package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/inventory"
)

// InventoryRepository keeps inventory records in a map. The write lock covers the whole
// check-and-decrement, so concurrent reservations of one sku are serialized.
type InventoryRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Record
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		items: make(map[string]*domain.Record),
	}
}

func (r *InventoryRepository) Get(ctx context.Context, sku string) (*domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.items[sku]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

func (r *InventoryRepository) Reserve(ctx context.Context, sku string, quantity int) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.items[sku]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := rec.Clone()
	if err := next.Deduct(quantity); err != nil {
		return nil, err
	}
	r.items[sku] = next
	return next.Clone(), nil
}

func (r *InventoryRepository) Seed(ctx context.Context, record *domain.Record) error {
	_ = ctx
	if record == nil || record.SKU == "" {
		return domain.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[record.SKU]; exists {
		return nil
	}
	r.items[record.SKU] = record.Clone()
	return nil
}
