// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	xglog "github.com/ecuscope/ecuscope/internal/log"
	"github.com/ecuscope/ecuscope/internal/storage"
)

const keyPrefix = "progress:"

// Store persists ModuleProgress records through the storage gateway.
// Every Put is durably flushed before it returns.
type Store struct {
	gw     storage.Gateway
	logger zerolog.Logger
}

// NewStore wraps the gateway in a progress store.
func NewStore(gw storage.Gateway) *Store {
	return &Store{
		gw:     gw,
		logger: xglog.WithComponent("progress"),
	}
}

// Get returns the progress record for moduleID, or nil when none exists.
// A record that fails to parse is treated as absent: the corrupt value is
// discarded and the event logged, never surfaced as a fatal error.
func (s *Store) Get(ctx context.Context, moduleID string) (*ModuleProgress, error) {
	data, ok, err := s.gw.Read(ctx, keyPrefix+moduleID)
	if err != nil {
		return nil, fmt.Errorf("read progress for %s: %w", moduleID, err)
	}
	if !ok {
		return nil, nil
	}
	var p ModuleProgress
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "progress.record_corrupt").
			Str(xglog.FieldModuleID, moduleID).
			Msg("discarding corrupt progress record")
		_ = s.gw.Delete(ctx, keyPrefix+moduleID)
		return nil, nil
	}
	return &p, nil
}

// Put durably stores the record.
func (s *Store) Put(ctx context.Context, moduleID string, p *ModuleProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress for %s: %w", moduleID, err)
	}
	if err := s.gw.Write(ctx, keyPrefix+moduleID, data); err != nil {
		return fmt.Errorf("write progress for %s: %w", moduleID, err)
	}
	return nil
}

// Reset removes the record for one module. Irreversible.
func (s *Store) Reset(ctx context.Context, moduleID string) error {
	return s.gw.Delete(ctx, keyPrefix+moduleID)
}

// ResetAll removes every progress record in the current scope.
func (s *Store) ResetAll(ctx context.Context) error {
	keys, err := s.gw.List(ctx, keyPrefix)
	if err != nil {
		return fmt.Errorf("list progress records: %w", err)
	}
	for _, k := range keys {
		if err := s.gw.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}
