// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// maxHistory bounds the session history to the most recent entries.
const maxHistory = 10

// History persists completed sessions in SQLite, deduplicated by session
// ID and capped at the ten most recent.
type History struct {
	db *sql.DB
}

// OpenHistory initializes the history store and runs migrations.
// busy_timeout avoids "database locked" errors under concurrent reads.
func OpenHistory(dbPath string) (*History, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	h := &History{db: db}
	if err := h.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return h, nil
}

// Close closes the database connection.
func (h *History) Close() error { return h.db.Close() }

func (h *History) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		vin TEXT NOT NULL,
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		total_dtcs INTEGER NOT NULL DEFAULT 0,
		critical_dtcs INTEGER NOT NULL DEFAULT 0,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at DESC);
	`
	if _, err := h.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Push records a completed session. Pushing a session with an ID already in
// the history replaces that row instead of duplicating it; afterwards the
// table is trimmed back to the bound, oldest entries first.
func (h *History) Push(ctx context.Context, s *DiagnosticSession) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (id, vin, started_at, ended_at, duration_ms, total_dtcs, critical_dtcs, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Vehicle.VIN,
		s.StartedAt.UTC().Format(time.RFC3339Nano),
		s.EndedAt.UTC().Format(time.RFC3339Nano),
		s.Duration.Milliseconds(), s.TotalDTCs, s.CriticalDTCs, string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM sessions WHERE id NOT IN (
			SELECT id FROM sessions ORDER BY ended_at DESC LIMIT ?
		)`, maxHistory)
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	return tx.Commit()
}

// Recent returns up to maxHistory sessions, most recent first.
func (h *History) Recent(ctx context.Context) ([]*DiagnosticSession, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT payload FROM sessions ORDER BY ended_at DESC LIMIT ?`, maxHistory)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*DiagnosticSession
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		var s DiagnosticSession
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			// Corrupt row: skip it rather than failing the whole read.
			continue
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
