// SPDX-License-Identifier: MIT

// Package dtccache memoizes per-module trouble-code result sets for the
// lifetime of one diagnostic session.
package dtccache

import (
	"context"

	"github.com/ecuscope/ecuscope/internal/dtc"
)

// Backend stores result sets keyed by (session, module). Implementations:
// Redis for deployments, the in-memory backend for tests and redis-less runs.
type Backend interface {
	// Get returns the stored result set, or ok=false on a miss.
	Get(ctx context.Context, sessionID, moduleID string) (codes []dtc.TroubleCode, ok bool, err error)
	// Set stores a result set for the key.
	Set(ctx context.Context, sessionID, moduleID string, codes []dtc.TroubleCode) error
	// DropSession removes every entry stored under sessionID.
	DropSession(ctx context.Context, sessionID string) error
	// Close releases backend resources.
	Close() error
}
