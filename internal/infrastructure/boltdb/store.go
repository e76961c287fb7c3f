// Package boltdb persists the fulfillment stores in a single embedded BoltDB file.
//
// Every entity lives in its own bucket with JSON values. Read-modify-write operations
// (check-and-decrement, reserve) run inside one db.Update transaction; Bolt allows a single
// writer at a time, so they are serialized without further locking.
package boltdb

import (
	"encoding/json"
	"time"

	bolt "github.com/boltdb/bolt"
)

var (
	bucketInventory = []byte("inventory")
	bucketWarehouse = []byte("warehouse")
	bucketLedger    = []byte("payment_ledger")
	bucketOrders    = []byte("orders")
)

// DB wraps the bolt handle shared by the repositories of one process.
type DB struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path and ensures every bucket exists.
func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketInventory, bucketWarehouse, bucketLedger, bucketOrders} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func getJSON(b *bolt.Bucket, key []byte, dst any) (bool, error) {
	v := b.Get(key)
	if v == nil {
		return false, nil
	}
	return true, json.Unmarshal(v, dst)
}

func putJSON(b *bolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}
