package inventory

import (
	"context"
)

type Repository interface {
	// Get returns a copy of the record or ErrNotFound.
	Get(ctx context.Context, sku string) (*Record, error)
	// Reserve atomically checks availability and decrements it by quantity, returning the
	// updated record. ErrNotFound / ErrInsufficientStock leave the store untouched.
	Reserve(ctx context.Context, sku string, quantity int) (*Record, error)
	// Seed inserts the record when the sku is absent and leaves existing rows alone.
	Seed(ctx context.Context, record *Record) error
}
