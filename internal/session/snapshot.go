// SPDX-License-Identifier: MIT

package session

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
)

// Snapshot is the durable current-vehicle/current-session record used to
// restore UI state after a reload or crash.
type Snapshot struct {
	Vehicle   *Vehicle `json:"vehicle,omitempty"`
	SessionID string   `json:"sessionId,omitempty"`
}

// writeSnapshot persists the snapshot atomically: renameio fsyncs the temp
// file before the rename, so a crash mid-write never leaves a torn record.
func writeSnapshot(path string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// readSnapshot loads the snapshot. A missing or corrupt file is a valid
// empty state.
func readSnapshot(path string) Snapshot {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}
	}
	return snap
}
