package payment

import "context"

// Ledger stores authorization entries. Writing an order id twice replaces the previous entry.
type Ledger interface {
	Record(ctx context.Context, auth *Authorization) error
	Get(ctx context.Context, orderID string) (*Authorization, error)
}
