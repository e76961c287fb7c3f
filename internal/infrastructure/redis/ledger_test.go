package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/payment"
)

func sampleAuthorization() *domain.Authorization {
	return domain.NewAuthorization(domain.Request{
		OrderID:       "o-1",
		UserID:        "u1",
		PaymentMethod: "credit_card",
		Amount:        decimal.RequireFromString("19.99"),
	}, domain.StatusAuthorized, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
}

func TestRecord(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ledger := NewPaymentLedger(db, "")

	auth := sampleAuthorization()
	data, err := json.Marshal(auth)
	require.NoError(t, err)
	mock.ExpectSet(DefaultKeyPrefix+"o-1", data, 0).SetVal("OK")

	require.NoError(t, ledger.Record(context.Background(), auth))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRequiresOrderID(t *testing.T) {
	db, _ := redismock.NewClientMock()
	ledger := NewPaymentLedger(db, "")

	assert.Error(t, ledger.Record(context.Background(), &domain.Authorization{}))
}

func TestGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ledger := NewPaymentLedger(db, "auth:")

	auth := sampleAuthorization()
	data, err := json.Marshal(auth)
	require.NoError(t, err)
	mock.ExpectGet("auth:o-1").SetVal(string(data))

	got, err := ledger.Get(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, "o-1", got.OrderID)
	assert.Equal(t, domain.StatusAuthorized, got.Status)
	assert.True(t, got.Amount.Equal(auth.Amount))
	assert.True(t, got.RecordedAt.Equal(auth.RecordedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ledger := NewPaymentLedger(db, "")
	mock.ExpectGet(DefaultKeyPrefix + "o-9").RedisNil()

	_, err := ledger.Get(context.Background(), "o-9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetServerError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ledger := NewPaymentLedger(db, "")
	mock.ExpectGet(DefaultKeyPrefix + "o-1").SetErr(errors.New("connection reset"))

	_, err := ledger.Get(context.Background(), "o-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
