package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Zhima-Mochi/minishop-tracing/internal/config"
	dominv "github.com/Zhima-Mochi/minishop-tracing/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-tracing/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-tracing/internal/domain/payment"
	domwh "github.com/Zhima-Mochi/minishop-tracing/internal/domain/warehouse"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/boltdb"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/postgres"
	redisledger "github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/redis"
)

// InventorySeed and WarehouseSeed are inserted at startup when absent.
var (
	InventorySeed = []dominv.Record{
		{SKU: "sku001", Description: "Sample item 1", Available: 10},
		{SKU: "sku002", Description: "Sample item 2", Available: 30},
	}
	WarehouseSeed = []domwh.Record{
		{SKU: "sku001", Location: "Warehouse-A", Available: 10},
		{SKU: "sku002", Location: "Warehouse-A", Available: 30},
		{SKU: "sku001", Location: "Warehouse-B", Available: 40},
	}
)

// stores opens the backends lazily; a process only connects to what its roles use.
type stores struct {
	cfg config.Config

	bolt  *boltdb.DB
	pool  *pgxpool.Pool
	redis *goredis.Client

	closers []func(context.Context) error
}

func (s *stores) boltDB() (*boltdb.DB, error) {
	if s.bolt != nil {
		return s.bolt, nil
	}
	db, err := boltdb.Open(s.cfg.BoltPath)
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", s.cfg.BoltPath, err)
	}
	s.bolt = db
	s.closers = append(s.closers, func(context.Context) error { return db.Close() })
	return db, nil
}

func (s *stores) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if s.pool != nil {
		return s.pool, nil
	}
	pool, err := postgres.Open(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	s.closers = append(s.closers, func(context.Context) error { pool.Close(); return nil })
	return pool, nil
}

func (s *stores) inventory(ctx context.Context) (dominv.Repository, error) {
	var repo dominv.Repository
	switch s.cfg.StoreDriver {
	case config.StoreBolt:
		db, err := s.boltDB()
		if err != nil {
			return nil, err
		}
		repo = boltdb.NewInventoryRepository(db)
	case config.StorePostgres:
		pool, err := s.postgres(ctx)
		if err != nil {
			return nil, err
		}
		repo = postgres.NewInventoryRepository(pool)
	default:
		repo = memory.NewInventoryRepository()
	}
	for i := range InventorySeed {
		rec := InventorySeed[i]
		if err := repo.Seed(ctx, &rec); err != nil {
			return nil, fmt.Errorf("seed inventory %s: %w", rec.SKU, err)
		}
	}
	return repo, nil
}

func (s *stores) warehouse(ctx context.Context) (domwh.Repository, error) {
	var repo domwh.Repository
	switch s.cfg.StoreDriver {
	case config.StoreBolt:
		db, err := s.boltDB()
		if err != nil {
			return nil, err
		}
		repo = boltdb.NewWarehouseRepository(db)
	case config.StorePostgres:
		pool, err := s.postgres(ctx)
		if err != nil {
			return nil, err
		}
		repo = postgres.NewWarehouseRepository(pool)
	default:
		repo = memory.NewWarehouseRepository()
	}
	for i := range WarehouseSeed {
		rec := WarehouseSeed[i]
		if err := repo.Seed(ctx, &rec); err != nil {
			return nil, fmt.Errorf("seed warehouse %s@%s: %w", rec.SKU, rec.Location, err)
		}
	}
	return repo, nil
}

// ledger prefers Redis when configured, then the Bolt file, then memory.
func (s *stores) ledger(ctx context.Context) (dompay.Ledger, error) {
	if s.cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: s.cfg.RedisAddr})
		ledger := redisledger.NewPaymentLedger(client, "")
		if err := ledger.Ping(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis %s: %w", s.cfg.RedisAddr, err)
		}
		s.redis = client
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
		return ledger, nil
	}
	if s.cfg.StoreDriver == config.StoreBolt {
		db, err := s.boltDB()
		if err != nil {
			return nil, err
		}
		return boltdb.NewPaymentLedger(db), nil
	}
	return memory.NewPaymentLedger(), nil
}

func (s *stores) orders() (domorder.Repository, error) {
	if s.cfg.StoreDriver == config.StoreBolt {
		db, err := s.boltDB()
		if err != nil {
			return nil, err
		}
		return boltdb.NewOrderRepository(db), nil
	}
	return memory.NewOrderRepository(), nil
}
