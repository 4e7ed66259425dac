// SPDX-License-Identifier: MIT

package dtccache

import (
	"context"
	"sync"

	"github.com/ecuscope/ecuscope/internal/dtc"
)

// MemoryBackend is an in-process Backend for tests and redis-less runs.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]map[string][]dtc.TroubleCode // sessionID -> moduleID -> codes
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]map[string][]dtc.TroubleCode)}
}

func (b *MemoryBackend) Get(_ context.Context, sessionID, moduleID string) ([]dtc.TroubleCode, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	codes, ok := b.entries[sessionID][moduleID]
	if !ok {
		return nil, false, nil
	}
	return append([]dtc.TroubleCode(nil), codes...), true, nil
}

func (b *MemoryBackend) Set(_ context.Context, sessionID, moduleID string, codes []dtc.TroubleCode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.entries[sessionID] == nil {
		b.entries[sessionID] = make(map[string][]dtc.TroubleCode)
	}
	b.entries[sessionID][moduleID] = append([]dtc.TroubleCode(nil), codes...)
	return nil
}

func (b *MemoryBackend) DropSession(_ context.Context, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, sessionID)
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

var _ Backend = (*MemoryBackend)(nil)
