package boltdb

import (
	"context"
	"time"

	bolt "github.com/boltdb/bolt"

	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/warehouse"
)

type warehouseRow struct {
	SKU            string     `json:"sku"`
	Location       string     `json:"location"`
	Available      int        `json:"available"`
	Reserved       int        `json:"reserved"`
	LastReservedAt *time.Time `json:"last_reserved_at,omitempty"`
	Status         string     `json:"status,omitempty"`
}

func toWarehouseRow(r *domain.Record) warehouseRow {
	return warehouseRow{
		SKU:            r.SKU,
		Location:       r.Location,
		Available:      r.Available,
		Reserved:       r.Reserved,
		LastReservedAt: r.LastReservedAt,
		Status:         r.Status,
	}
}

func (r warehouseRow) record() *domain.Record {
	return &domain.Record{
		SKU:            r.SKU,
		Location:       r.Location,
		Available:      r.Available,
		Reserved:       r.Reserved,
		LastReservedAt: r.LastReservedAt,
		Status:         r.Status,
	}
}

// warehouseKey is "location/sku"; both parts are needed for uniqueness.
func warehouseKey(k domain.Key) []byte {
	return []byte(k.Location + "/" + k.SKU)
}

type WarehouseRepository struct {
	db *DB
}

func NewWarehouseRepository(db *DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

func (r *WarehouseRepository) Get(ctx context.Context, key domain.Key) (*domain.Record, error) {
	_ = ctx
	var row warehouseRow

	err := r.db.db.View(func(tx *bolt.Tx) error {
		found, err := getJSON(tx.Bucket(bucketWarehouse), warehouseKey(key), &row)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row.record(), nil
}

func (r *WarehouseRepository) Reserve(ctx context.Context, key domain.Key, quantity int, at time.Time) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var next *domain.Record

	err := r.db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketWarehouse)
		var row warehouseRow
		found, err := getJSON(b, warehouseKey(key), &row)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrNotFound
		}
		next = row.record()
		if err := next.Reserve(quantity, at); err != nil {
			return err
		}
		return putJSON(b, warehouseKey(key), toWarehouseRow(next))
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (r *WarehouseRepository) Seed(ctx context.Context, record *domain.Record) error {
	_ = ctx
	if record == nil {
		return domain.ErrNotFound
	}

	return r.db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketWarehouse)
		if b.Get(warehouseKey(record.Key())) != nil {
			return nil
		}
		return putJSON(b, warehouseKey(record.Key()), toWarehouseRow(record))
	})
}
