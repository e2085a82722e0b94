package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Badger is a [KV] backed by an embedded BadgerDB instance, for deployments
// that want durability without an external service.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures [OpenBadger].
type BadgerOptions struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string
	// InMemory runs without touching disk. Useful for tests.
	InMemory bool
	// SyncWrites forces fsync after each write. Slower but more durable.
	SyncWrites bool
}

// OpenBadger opens (creating if needed) a Badger-backed [KV]. The caller owns
// the returned store and must Close it.
func OpenBadger(opts BadgerOptions) (*Badger, error) {
	options := badger.DefaultOptions(opts.Dir).
		WithInMemory(opts.InMemory).
		WithSyncWrites(opts.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Badger{db: db}, nil
}

// Get implements [KV].
func (b *Badger) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, true, nil
}

// Set implements [KV].
func (b *Badger) Set(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Remove implements [KV].
func (b *Badger) Remove(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}
