package inventory

import "context"

// WarehousePort reserves stock at the warehouse. A nil error means the warehouse answered with success.
// Transport failures wrap failure.ErrUnreachable.
type WarehousePort interface {
	Reserve(ctx context.Context, sku string, quantity int) error
}
