// SPDX-License-Identifier: MIT

package storage

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerGateway is the Badger-backed Gateway. SyncWrites is forced on so
// every Write is fsynced before it returns (synchronous-durable semantics).
type BadgerGateway struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger database at path.
func OpenBadger(path string) (*BadgerGateway, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithSyncWrites(true)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &BadgerGateway{db: db}, nil
}

func (g *BadgerGateway) Close() error { return g.db.Close() }

func (g *BadgerGateway) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return out, true, nil
}

func (g *BadgerGateway) Write(ctx context.Context, key string, value []byte) error {
	return g.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (g *BadgerGateway) Delete(ctx context.Context, key string) error {
	return g.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (g *BadgerGateway) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	p := []byte(prefix)
	err := g.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Ensure interface compliance at compile time.
var _ Gateway = (*BadgerGateway)(nil)
