package inventory

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("inventory: sku not found")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// Record is the logical, per-SKU availability owned by the inventory service.
type Record struct {
	SKU         string
	Description string
	Available   int
	UpdatedAt   time.Time
}

func NewRecord(sku, description string, available int) (*Record, error) {
	if sku == "" {
		return nil, ErrNotFound
	}
	if available < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Record{
		SKU:         sku,
		Description: description,
		Available:   available,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}

// Deduct removes quantity from the available stock. It never lets Available go negative;
// callers must run it inside the store's per-key critical section.
func (r *Record) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > r.Available {
		return ErrInsufficientStock
	}
	r.Available -= quantity
	r.touch()
	return nil
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func (r *Record) touch() {
	r.UpdatedAt = time.Now().UTC()
}
