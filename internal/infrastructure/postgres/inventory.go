package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/inventory"
)

type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) Get(ctx context.Context, sku string) (*domain.Record, error) {
	const query = `SELECT sku, description, available, updated_at FROM inventory WHERE sku = $1`
	var rec domain.Record
	err := r.pool.QueryRow(ctx, query, sku).Scan(&rec.SKU, &rec.Description, &rec.Available, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return &rec, nil
}

// Reserve decrements only when enough stock remains. When no row is updated a second query tells
// a missing sku apart from insufficient stock.
func (r *InventoryRepository) Reserve(ctx context.Context, sku string, quantity int) (*domain.Record, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	const stmt = `
UPDATE inventory
SET available = available - $2, updated_at = NOW()
WHERE sku = $1 AND available >= $2
RETURNING sku, description, available, updated_at`

	var rec domain.Record
	err := r.pool.QueryRow(ctx, stmt, sku, quantity).Scan(&rec.SKU, &rec.Description, &rec.Available, &rec.UpdatedAt)
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reserve inventory: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inventory WHERE sku = $1)`, sku).Scan(&exists); err != nil {
		return nil, fmt.Errorf("reserve inventory: %w", err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrInsufficientStock
}

func (r *InventoryRepository) Seed(ctx context.Context, record *domain.Record) error {
	if record == nil || record.SKU == "" {
		return domain.ErrNotFound
	}
	const stmt = `
INSERT INTO inventory (sku, description, available)
VALUES ($1, $2, $3)
ON CONFLICT (sku) DO NOTHING`
	if _, err := r.pool.Exec(ctx, stmt, record.SKU, record.Description, record.Available); err != nil {
		return fmt.Errorf("seed inventory: %w", err)
	}
	return nil
}
