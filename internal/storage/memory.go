// SPDX-License-Identifier: MIT

package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryGateway is an in-memory Gateway for tests and ephemeral runs.
type MemoryGateway struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *MemoryGateway {
	return &MemoryGateway{data: make(map[string][]byte)}
}

func (g *MemoryGateway) Read(_ context.Context, key string) ([]byte, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (g *MemoryGateway) Write(_ context.Context, key string, value []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.data[key] = append([]byte(nil), value...)
	return nil
}

func (g *MemoryGateway) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.data, key)
	return nil
}

func (g *MemoryGateway) List(_ context.Context, prefix string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var keys []string
	for k := range g.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (g *MemoryGateway) Close() error { return nil }

var _ Gateway = (*MemoryGateway)(nil)
