// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	xglog "github.com/ecuscope/ecuscope/internal/log"
)

const historyPrefix = "history:module:"

// maxHistoryEntries bounds the per-module action history.
const maxHistoryEntries = 50

// HistoryEntry is one recorded action against a module.
type HistoryEntry struct {
	Action  string    `json:"action"`
	Details string    `json:"details,omitempty"`
	At      time.Time `json:"at"`
}

// AppendHistory records an action for moduleID, evicting the oldest entry
// once the bound is exceeded (FIFO).
func (s *Store) AppendHistory(ctx context.Context, moduleID string, entry HistoryEntry) error {
	entries, err := s.History(ctx, moduleID)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	if len(entries) > maxHistoryEntries {
		entries = entries[len(entries)-maxHistoryEntries:]
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal history for %s: %w", moduleID, err)
	}
	if err := s.gw.Write(ctx, historyPrefix+moduleID, data); err != nil {
		return fmt.Errorf("write history for %s: %w", moduleID, err)
	}
	return nil
}

// History returns the recorded actions for moduleID, oldest first. A corrupt
// record is discarded and treated as empty.
func (s *Store) History(ctx context.Context, moduleID string) ([]HistoryEntry, error) {
	data, ok, err := s.gw.Read(ctx, historyPrefix+moduleID)
	if err != nil {
		return nil, fmt.Errorf("read history for %s: %w", moduleID, err)
	}
	if !ok {
		return nil, nil
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "progress.history_corrupt").
			Str(xglog.FieldModuleID, moduleID).
			Msg("discarding corrupt module history")
		_ = s.gw.Delete(ctx, historyPrefix+moduleID)
		return nil, nil
	}
	return entries, nil
}
