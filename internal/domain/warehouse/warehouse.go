package warehouse

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("warehouse: item not stocked at location")
	ErrInvalidQuantity   = errors.New("warehouse: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("warehouse: insufficient stock")
)

const StatusReserved = "reserved"

// Record is the physical stock of one sku at one location.
type Record struct {
	SKU            string
	Location       string
	Available      int
	Reserved       int
	LastReservedAt *time.Time
	Status         string
}

// Key identifies a record; sku and location together are unique.
type Key struct {
	SKU      string
	Location string
}

func (r *Record) Key() Key { return Key{SKU: r.SKU, Location: r.Location} }

// Reserve moves quantity from available to reserved. Available+Reserved is unchanged.
func (r *Record) Reserve(quantity int, at time.Time) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > r.Available {
		return ErrInsufficientStock
	}
	r.Available -= quantity
	r.Reserved += quantity
	ts := at.UTC()
	r.LastReservedAt = &ts
	r.Status = StatusReserved
	return nil
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.LastReservedAt != nil {
		ts := *r.LastReservedAt
		c.LastReservedAt = &ts
	}
	return &c
}
