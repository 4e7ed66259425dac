// SPDX-License-Identifier: MIT

// Package storage provides the durable key-value gateway behind the
// diagnostic state stores. Core logic only ever talks to the Gateway
// interface so it can run against the in-memory fake in tests.
package storage

import "context"

// Gateway is a small durable key-value surface. Absence of a key is a
// valid empty state, never an error: Read reports it via the bool.
type Gateway interface {
	// Read returns the stored value for key, or ok=false when absent.
	Read(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Write durably stores value under key. It must not return before the
	// update is flushed: a crash immediately after a successful Write never
	// loses the record.
	Write(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
	// List returns all keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Close releases the underlying resources.
	Close() error
}
