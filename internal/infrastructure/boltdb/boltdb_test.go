package boltdb

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dominv "github.com/Zhima-Mochi/minishop-tracing/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-tracing/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-tracing/internal/domain/payment"
	domwh "github.com/Zhima-Mochi/minishop-tracing/internal/domain/warehouse"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInventoryReserveNeverNegative(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepository(newTestDB(t))
	require.NoError(t, repo.Seed(ctx, &dominv.Record{SKU: "sku001", Available: 10}))

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Reserve(ctx, "sku001", 1); err == nil {
				ok.Add(1)
			} else {
				assert.ErrorIs(t, err, dominv.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, ok.Load())
	rec, err := repo.Get(ctx, "sku001")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Available)
}

func TestInventoryFailedReserveLeavesStock(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepository(newTestDB(t))
	require.NoError(t, repo.Seed(ctx, &dominv.Record{SKU: "sku001", Available: 10}))

	_, err := repo.Reserve(ctx, "sku001", 11)
	assert.ErrorIs(t, err, dominv.ErrInsufficientStock)
	_, err = repo.Reserve(ctx, "nope", 1)
	assert.ErrorIs(t, err, dominv.ErrNotFound)

	rec, err := repo.Get(ctx, "sku001")
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Available)
}

func TestInventorySeedSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "inv.db")

	db, err := Open(path)
	require.NoError(t, err)
	repo := NewInventoryRepository(db)
	require.NoError(t, repo.Seed(ctx, &dominv.Record{SKU: "sku001", Available: 10}))
	_, err = repo.Reserve(ctx, "sku001", 4)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	repo = NewInventoryRepository(db)
	require.NoError(t, repo.Seed(ctx, &dominv.Record{SKU: "sku001", Available: 10}))

	rec, err := repo.Get(ctx, "sku001")
	require.NoError(t, err)
	assert.Equal(t, 6, rec.Available)
}

func TestWarehouseReserveConservesTotal(t *testing.T) {
	ctx := context.Background()
	repo := NewWarehouseRepository(newTestDB(t))
	require.NoError(t, repo.Seed(ctx, &domwh.Record{SKU: "sku001", Location: "Warehouse-A", Available: 10}))
	require.NoError(t, repo.Seed(ctx, &domwh.Record{SKU: "sku001", Location: "Warehouse-B", Available: 40}))

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rec, err := repo.Reserve(ctx, domwh.Key{SKU: "sku001", Location: "Warehouse-A"}, 3, at)
	require.NoError(t, err)
	assert.Equal(t, 7, rec.Available)
	assert.Equal(t, 3, rec.Reserved)

	_, err = repo.Reserve(ctx, domwh.Key{SKU: "sku001", Location: "Warehouse-A"}, 8, at)
	assert.ErrorIs(t, err, domwh.ErrInsufficientStock)

	got, err := repo.Get(ctx, domwh.Key{SKU: "sku001", Location: "Warehouse-A"})
	require.NoError(t, err)
	assert.Equal(t, 10, got.Available+got.Reserved)
	require.NotNil(t, got.LastReservedAt)
	assert.True(t, got.LastReservedAt.Equal(at))

	other, err := repo.Get(ctx, domwh.Key{SKU: "sku001", Location: "Warehouse-B"})
	require.NoError(t, err)
	assert.Equal(t, 40, other.Available)

	_, err = repo.Get(ctx, domwh.Key{SKU: "sku002", Location: "Warehouse-A"})
	assert.ErrorIs(t, err, domwh.ErrNotFound)
}

func TestWarehouseConcurrentReserveNeverGoesNegative(t *testing.T) {
	cases := []struct {
		name      string
		qty       int
		workers   int
		wantOK    int32
		wantAvail int
	}{
		{"single units drain stock", 1, 25, 10, 0},
		{"uneven lots leave remainder", 3, 20, 3, 1},
		{"oversized lot never fits", 11, 10, 0, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewWarehouseRepository(newTestDB(t))
			key := domwh.Key{SKU: "sku001", Location: "Warehouse-A"}
			require.NoError(t, repo.Seed(ctx, &domwh.Record{SKU: key.SKU, Location: key.Location, Available: 10}))

			var ok atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < tc.workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					rec, err := repo.Reserve(ctx, key, tc.qty, time.Now())
					if err != nil {
						assert.ErrorIs(t, err, domwh.ErrInsufficientStock)
						return
					}
					ok.Add(1)
					assert.GreaterOrEqual(t, rec.Available, 0)
				}()
			}
			wg.Wait()

			got, err := repo.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, tc.wantOK, ok.Load())
			assert.Equal(t, tc.wantAvail, got.Available)
			assert.Equal(t, 10, got.Available+got.Reserved)
		})
	}
}

func TestLedgerReplacesEntry(t *testing.T) {
	ctx := context.Background()
	ledger := NewPaymentLedger(newTestDB(t))
	req := dompay.Request{OrderID: "o-1", UserID: "u1", PaymentMethod: "credit_card", Amount: decimal.RequireFromString("19.99")}

	require.NoError(t, ledger.Record(ctx, dompay.NewAuthorization(req, dompay.StatusDeclined, time.Now())))
	require.NoError(t, ledger.Record(ctx, dompay.NewAuthorization(req, dompay.StatusAuthorized, time.Now())))

	got, err := ledger.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, dompay.StatusAuthorized, got.Status)
	assert.True(t, got.Amount.Equal(req.Amount))

	_, err = ledger.Get(ctx, "o-2")
	assert.ErrorIs(t, err, dompay.ErrNotFound)
}

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))
	o, err := domorder.New("o-1", domorder.Request{
		Items:         []domorder.Item{{SKU: "sku001", Quantity: 2}},
		PaymentMethod: "credit_card",
		Amount:        decimal.NewFromInt(20),
		UserID:        "u1",
	}, "trace-1")
	require.NoError(t, err)

	require.NoError(t, repo.Insert(ctx, o))
	assert.ErrorIs(t, repo.Insert(ctx, o), domorder.ErrConflict)

	require.NoError(t, o.InventoryReserved())
	require.NoError(t, repo.Update(ctx, o))

	got, err := repo.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusInventoryReserved, got.Status)
	require.NoError(t, got.PaymentSucceeded())
	assert.Equal(t, domorder.StatusCompleted, got.Status)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domorder.ErrNotFound)
}
