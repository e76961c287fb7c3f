package boltdb

import (
	"context"

	bolt "github.com/boltdb/bolt"

	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/order"
)

type OrderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return domain.ErrMissingID
	}

	return r.db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketOrders)
		if b.Get([]byte(order.ID)) != nil {
			return domain.ErrConflict
		}
		return putJSON(b, []byte(order.ID), order)
	})
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx
	var o domain.Order

	err := r.db.db.View(func(tx *bolt.Tx) error {
		found, err := getJSON(tx.Bucket(bucketOrders), []byte(id), &o)
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
	return &o, nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return domain.ErrMissingID
	}

	return r.db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketOrders)
		if b.Get([]byte(order.ID)) == nil {
			return domain.ErrNotFound
		}
		return putJSON(b, []byte(order.ID), order)
	})
}
