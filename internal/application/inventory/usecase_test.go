package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/memory"
)

type fakeWarehouse struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeWarehouse) Reserve(context.Context, string, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

type recordingInjector struct {
	mu     sync.Mutex
	points []string
}

func (r *recordingInjector) BeforeCall(_ context.Context, point string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, point)
}

func seeded(t *testing.T, available int) *memory.InventoryRepository {
	t.Helper()
	repo := memory.NewInventoryRepository()
	rec, err := domain.NewRecord("sku001", "", available)
	require.NoError(t, err)
	require.NoError(t, repo.Seed(context.Background(), rec))
	return repo
}

func available(t *testing.T, repo domain.Repository) int {
	t.Helper()
	rec, err := repo.Get(context.Background(), "sku001")
	require.NoError(t, err)
	return rec.Available
}

func TestCheckAndReserveSuccess(t *testing.T) {
	repo := seeded(t, 10)
	wh := &fakeWarehouse{}
	inj := &recordingInjector{}
	uc := NewCheckAndReserveUseCase(repo, wh, inj, nil)

	reply, err := uc.Execute(context.Background(), CheckAndReserveInput{SKU: "sku001", Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, reply.Outcome)
	assert.Equal(t, domain.MessageReserved, reply.Message)
	assert.Equal(t, 5, available(t, repo))
	assert.Equal(t, 1, wh.calls)
	assert.Equal(t, []string{"inventory.before_warehouse", "inventory.after_warehouse"}, inj.points)
}

func TestCheckAndReserveInsufficientLeavesStock(t *testing.T) {
	repo := seeded(t, 10)
	wh := &fakeWarehouse{}
	uc := NewCheckAndReserveUseCase(repo, wh, nil, nil)

	reply, err := uc.Execute(context.Background(), CheckAndReserveInput{SKU: "sku001", Quantity: 50})
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeInsufficient, reply.Outcome)
	assert.Equal(t, domain.MessageInsufficient, reply.Message)
	assert.True(t, failure.Is(err, failure.Capacity))
	assert.Equal(t, 10, available(t, repo))
	assert.Zero(t, wh.calls)

	_, err = uc.Execute(context.Background(), CheckAndReserveInput{SKU: "unknown", Quantity: 1})
	assert.True(t, failure.Is(err, failure.Capacity))
}

func TestCheckAndReserveWarehouseFailureKeepsDecrement(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		message  string
		category failure.Category
	}{
		{"warehouse declined", failure.New(failure.Capacity, "Insufficient inventory in warehouse"), domain.MessageWarehouseFailed, failure.Capacity},
		{"warehouse errored", failure.New(failure.Downstream, "Internal Server Error"), domain.MessageWarehouseFailed, failure.Capacity},
		{"warehouse unreachable", failure.Wrap(failure.Downstream, "x", fmt.Errorf("%w: dial tcp", failure.ErrUnreachable)), domain.MessageWarehouseUnreachable, failure.Downstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := seeded(t, 10)
			uc := NewCheckAndReserveUseCase(repo, &fakeWarehouse{err: tc.err}, nil, nil)

			reply, err := uc.Execute(context.Background(), CheckAndReserveInput{SKU: "sku001", Quantity: 3})
			require.Error(t, err)
			assert.Equal(t, domain.OutcomeDownstreamFailure, reply.Outcome)
			assert.Equal(t, tc.message, reply.Message)
			assert.True(t, reply.StockCommitted())
			assert.ErrorIs(t, err, domain.ErrStockCommitted)
			assert.Equal(t, tc.category, failure.CategoryOf(err))
			assert.Equal(t, tc.message, failure.MessageOf(err))
			assert.Equal(t, 7, available(t, repo))
		})
	}
}

type failingRepo struct{ domain.Repository }

func (failingRepo) Reserve(context.Context, string, int) (*domain.Record, error) {
	return nil, errors.New("disk full")
}

func TestCheckAndReserveStoreFailureCommitsNothing(t *testing.T) {
	wh := &fakeWarehouse{}
	uc := NewCheckAndReserveUseCase(failingRepo{}, wh, nil, nil)

	reply, err := uc.Execute(context.Background(), CheckAndReserveInput{SKU: "sku001", Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeStoreFailure, reply.Outcome)
	assert.False(t, reply.StockCommitted())
	assert.NotErrorIs(t, err, domain.ErrStockCommitted)
	assert.True(t, failure.Is(err, failure.Downstream))
	assert.Zero(t, wh.calls)
}

func TestCheckAndReserveValidation(t *testing.T) {
	uc := NewCheckAndReserveUseCase(seeded(t, 10), &fakeWarehouse{}, nil, nil)

	_, err := uc.Execute(context.Background(), CheckAndReserveInput{SKU: "", Quantity: 1})
	assert.True(t, failure.Is(err, failure.Validation))
	_, err = uc.Execute(context.Background(), CheckAndReserveInput{SKU: "sku001", Quantity: -1})
	assert.True(t, failure.Is(err, failure.Validation))
}

func TestCheckAndReserveConcurrentNeverNegative(t *testing.T) {
	repo := seeded(t, 10)
	uc := NewCheckAndReserveUseCase(repo, &fakeWarehouse{}, nil, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.Execute(context.Background(), CheckAndReserveInput{SKU: "sku001", Quantity: 2}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, available(t, repo))
}

func TestLookup(t *testing.T) {
	uc := NewCheckAndReserveUseCase(seeded(t, 10), &fakeWarehouse{}, nil, nil)

	rec, err := uc.Lookup(context.Background(), "sku001")
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Available)

	_, err = uc.Lookup(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
