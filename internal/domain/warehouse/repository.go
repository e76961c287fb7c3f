package warehouse

import (
	"context"
	"time"
)

type Repository interface {
	Get(ctx context.Context, key Key) (*Record, error)
	// Reserve runs Record.Reserve for key inside the store's per-key critical section and persists the result.
	Reserve(ctx context.Context, key Key, quantity int, at time.Time) (*Record, error)
	// Seed inserts the record when the key is absent and leaves existing rows alone.
	Seed(ctx context.Context, record *Record) error
}
