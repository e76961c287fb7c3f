package memory

import (
	"context"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/warehouse"
)

type WarehouseRepository struct {
	mu      sync.RWMutex
	records map[domain.Key]*domain.Record
}

func NewWarehouseRepository() *WarehouseRepository {
	return &WarehouseRepository{
		records: make(map[domain.Key]*domain.Record),
	}
}

func (r *WarehouseRepository) Get(ctx context.Context, key domain.Key) (*domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

func (r *WarehouseRepository) Reserve(ctx context.Context, key domain.Key, quantity int, at time.Time) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := rec.Clone()
	if err := next.Reserve(quantity, at); err != nil {
		return nil, err
	}
	r.records[key] = next
	return next.Clone(), nil
}

func (r *WarehouseRepository) Seed(ctx context.Context, record *domain.Record) error {
	_ = ctx
	if record == nil {
		return domain.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.Key()]; exists {
		return nil
	}
	r.records[record.Key()] = record.Clone()
	return nil
}
