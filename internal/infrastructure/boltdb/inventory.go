package boltdb

import (
	"context"
	"time"

	bolt "github.com/boltdb/bolt"

	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/inventory"
)

type inventoryRow struct {
	SKU         string    `json:"sku"`
	Description string    `json:"description"`
	Available   int       `json:"available"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toInventoryRow(r *domain.Record) inventoryRow {
	return inventoryRow{SKU: r.SKU, Description: r.Description, Available: r.Available, UpdatedAt: r.UpdatedAt}
}

func (r inventoryRow) record() *domain.Record {
	return &domain.Record{SKU: r.SKU, Description: r.Description, Available: r.Available, UpdatedAt: r.UpdatedAt}
}

type InventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) Get(ctx context.Context, sku string) (*domain.Record, error) {
	_ = ctx
	var row inventoryRow

	err := r.db.db.View(func(tx *bolt.Tx) error {
		found, err := getJSON(tx.Bucket(bucketInventory), []byte(sku), &row)
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

// Reserve checks and decrements inside one write transaction. A failed check returns an error,
// which rolls the transaction back.
func (r *InventoryRepository) Reserve(ctx context.Context, sku string, quantity int) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var next *domain.Record

	err := r.db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketInventory)
		var row inventoryRow
		found, err := getJSON(b, []byte(sku), &row)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrNotFound
		}
		next = row.record()
		if err := next.Deduct(quantity); err != nil {
			return err
		}
		return putJSON(b, []byte(sku), toInventoryRow(next))
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (r *InventoryRepository) Seed(ctx context.Context, record *domain.Record) error {
	_ = ctx
	if record == nil || record.SKU == "" {
		return domain.ErrNotFound
	}

	return r.db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketInventory)
		if b.Get([]byte(record.SKU)) != nil {
			return nil
		}
		return putJSON(b, []byte(record.SKU), toInventoryRow(record))
	})
}
