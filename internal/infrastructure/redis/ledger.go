// Package redis keeps the payment authorization ledger in Redis, one JSON string per order id.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/payment"
)

const DefaultKeyPrefix = "payment:authorization:"

type PaymentLedger struct {
	client *redis.Client
	prefix string
}

func NewPaymentLedger(client *redis.Client, prefix string) *PaymentLedger {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &PaymentLedger{client: client, prefix: prefix}
}

func (l *PaymentLedger) key(orderID string) string {
	return l.prefix + orderID
}

// Record overwrites any previous entry for the order.
func (l *PaymentLedger) Record(ctx context.Context, auth *domain.Authorization) error {
	if auth == nil || auth.OrderID == "" {
		return fmt.Errorf("payment ledger: order id is required")
	}
	data, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("payment ledger: encode: %w", err)
	}
	return l.client.Set(ctx, l.key(auth.OrderID), data, 0).Err()
}

func (l *PaymentLedger) Get(ctx context.Context, orderID string) (*domain.Authorization, error) {
	data, err := l.client.Get(ctx, l.key(orderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var auth domain.Authorization
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, fmt.Errorf("payment ledger: decode: %w", err)
	}
	return &auth, nil
}

// Ping reports whether the server answers; used at startup.
func (l *PaymentLedger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
