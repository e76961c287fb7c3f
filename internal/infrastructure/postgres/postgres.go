// Package postgres stores inventory and warehouse stock rows in Postgres. Reservations are a single
// conditional UPDATE, so the database serializes concurrent decrements of one row.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/postgres/migrations"
)

// Open connects to dsn, checks the connection and applies the embedded migrations.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if err := migrations.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
