package boltdb

import (
	"context"
	"fmt"

	bolt "github.com/boltdb/bolt"

	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/payment"
)

// PaymentLedger stores authorizations keyed by order id. A second Record for the same order replaces the first.
type PaymentLedger struct {
	db *DB
}

func NewPaymentLedger(db *DB) *PaymentLedger {
	return &PaymentLedger{db: db}
}

func (l *PaymentLedger) Record(ctx context.Context, auth *domain.Authorization) error {
	_ = ctx
	if auth == nil || auth.OrderID == "" {
		return fmt.Errorf("payment ledger: order id is required")
	}

	return l.db.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketLedger), []byte(auth.OrderID), auth)
	})
}

func (l *PaymentLedger) Get(ctx context.Context, orderID string) (*domain.Authorization, error) {
	_ = ctx
	var auth domain.Authorization

	err := l.db.db.View(func(tx *bolt.Tx) error {
		found, err := getJSON(tx.Bucket(bucketLedger), []byte(orderID), &auth)
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
	return &auth, nil
}
