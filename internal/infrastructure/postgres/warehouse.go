package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/warehouse"
)

type WarehouseRepository struct {
	pool *pgxpool.Pool
}

func NewWarehouseRepository(pool *pgxpool.Pool) *WarehouseRepository {
	return &WarehouseRepository{pool: pool}
}

func scanWarehouse(row pgx.Row) (*domain.Record, error) {
	var rec domain.Record
	if err := row.Scan(&rec.SKU, &rec.Location, &rec.Available, &rec.Reserved, &rec.LastReservedAt, &rec.Status); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *WarehouseRepository) Get(ctx context.Context, key domain.Key) (*domain.Record, error) {
	const query = `
SELECT sku, location, available, reserved, last_reserved_at, status
FROM warehouse_stock
WHERE sku = $1 AND location = $2`
	rec, err := scanWarehouse(r.pool.QueryRow(ctx, query, key.SKU, key.Location))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get warehouse stock: %w", err)
	}
	return rec, nil
}

func (r *WarehouseRepository) Reserve(ctx context.Context, key domain.Key, quantity int, at time.Time) (*domain.Record, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	const stmt = `
UPDATE warehouse_stock
SET available = available - $3, reserved = reserved + $3, last_reserved_at = $4, status = $5
WHERE sku = $1 AND location = $2 AND available >= $3
RETURNING sku, location, available, reserved, last_reserved_at, status`

	rec, err := scanWarehouse(r.pool.QueryRow(ctx, stmt, key.SKU, key.Location, quantity, at.UTC(), domain.StatusReserved))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reserve warehouse stock: %w", err)
	}

	var exists bool
	const probe = `SELECT EXISTS (SELECT 1 FROM warehouse_stock WHERE sku = $1 AND location = $2)`
	if err := r.pool.QueryRow(ctx, probe, key.SKU, key.Location).Scan(&exists); err != nil {
		return nil, fmt.Errorf("reserve warehouse stock: %w", err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrInsufficientStock
}

func (r *WarehouseRepository) Seed(ctx context.Context, record *domain.Record) error {
	if record == nil {
		return domain.ErrNotFound
	}
	const stmt = `
INSERT INTO warehouse_stock (sku, location, available, reserved)
VALUES ($1, $2, $3, $4)
ON CONFLICT (sku, location) DO NOTHING`
	if _, err := r.pool.Exec(ctx, stmt, record.SKU, record.Location, record.Available, record.Reserved); err != nil {
		return fmt.Errorf("seed warehouse stock: %w", err)
	}
	return nil
}
