package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/payment"
)

// PaymentLedger is the process-local authorization ledger.
type PaymentLedger struct {
	mu      sync.RWMutex
	entries map[string]domain.Authorization
}

func NewPaymentLedger() *PaymentLedger {
	return &PaymentLedger{
		entries: make(map[string]domain.Authorization),
	}
}

func (l *PaymentLedger) Record(ctx context.Context, auth *domain.Authorization) error {
	_ = ctx
	if auth == nil || auth.OrderID == "" {
		return fmt.Errorf("payment ledger: order id is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[auth.OrderID] = *auth
	return nil
}

func (l *PaymentLedger) Get(ctx context.Context, orderID string) (*domain.Authorization, error) {
	_ = ctx

	l.mu.RLock()
	defer l.mu.RUnlock()

	auth, ok := l.entries[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &auth, nil
}
