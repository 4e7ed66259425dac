// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"

	xglog "github.com/ecuscope/ecuscope/internal/log"
	"github.com/ecuscope/ecuscope/internal/metrics"
)

// Invalidator drops all result-cache entries scoped to a session. Satisfied
// by dtccache.Cache; the manager references the cache's key space, it never
// owns the entries.
type Invalidator interface {
	InvalidateSession(ctx context.Context, sessionID string) error
}

// ProgressObserver receives the fixed start checkpoints on a 0-100 scale.
type ProgressObserver func(checkpoint string, percent int)

// startCheckpoints is the fixed sequence every Start walks through. Each
// step runs even when it does no real work: observers depend on seeing the
// full monotonic sequence.
var startCheckpoints = []struct {
	name    string
	percent int
}{
	{"session_init", 10},
	{"ecu_discovery", 30},
	{"module_inventory", 50},
	{"protocol_negotiation", 70},
	{"session_create", 90},
	{"finalize", 100},
}

// Manager owns the single active diagnostic session. All operations are
// serialized through one mutex; the lifecycle machine enforces the
// none -> starting -> active -> completed -> none ordering.
type Manager struct {
	mu           sync.Mutex
	lifecycle    *fsm.FSM
	resolver     VehicleResolver
	cache        Invalidator
	history      *History
	snapshotPath string
	logger       zerolog.Logger
	now          func() time.Time
	newID        func() string

	active *DiagnosticSession
}

// NewManager wires the session manager. snapshotPath may be empty to
// disable the durable current-state snapshot.
func NewManager(resolver VehicleResolver, cache Invalidator, history *History, snapshotPath string) *Manager {
	return &Manager{
		lifecycle:    newLifecycle(),
		resolver:     resolver,
		cache:        cache,
		history:      history,
		snapshotPath: snapshotPath,
		logger:       xglog.WithComponent("session"),
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
}

// State returns the manager lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State(m.lifecycle.Current())
}

// Active returns a copy of the active session, or ok=false.
func (m *Manager) Active() (*DiagnosticSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil, false
	}
	return m.active.clone(), true
}

// Restore returns the persisted current-state snapshot, if any.
func (m *Manager) Restore() Snapshot {
	if m.snapshotPath == "" {
		return Snapshot{}
	}
	return readSnapshot(m.snapshotPath)
}

// Start begins a new diagnostic session for vehicle. An already-active
// session is implicitly ended first: sessions are never left dangling.
// The observer (optional) sees every checkpoint in order. On any step
// failure the operation aborts atomically: no partial session is retained
// and the manager state returns to NONE.
func (m *Manager) Start(ctx context.Context, vehicle Vehicle, observer ProgressObserver) (*DiagnosticSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		if err := m.endLocked(ctx); err != nil {
			return nil, fmt.Errorf("end previous session: %w", err)
		}
	}

	fire(m.lifecycle, eventBegin)

	session, err := m.runStart(ctx, vehicle, observer)
	if err != nil {
		fire(m.lifecycle, eventAbort)
		metrics.SessionsFailed.WithLabelValues(failureReason(err)).Inc()
		m.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "session.start_failed").
			Str(xglog.FieldVehicleID, vehicle.VIN).
			Msg("diagnostic session start aborted")
		return nil, err
	}

	m.active = session
	fire(m.lifecycle, eventReady)
	metrics.SessionsStarted.Inc()
	m.logger.Info().
		Str(xglog.FieldEvent, "session.started").
		Str(xglog.FieldSessionID, session.ID).
		Str(xglog.FieldVehicleID, vehicle.VIN).
		Int("modules", len(session.Modules)).
		Msg("diagnostic session active")
	return session.clone(), nil
}

// runStart executes the checkpoint sequence and returns the new session.
func (m *Manager) runStart(ctx context.Context, vehicle Vehicle, observer ProgressObserver) (*DiagnosticSession, error) {
	report := func(i int) {
		if observer != nil {
			observer(startCheckpoints[i].name, startCheckpoints[i].percent)
		}
	}

	// session_init
	report(0)

	// ecu_discovery
	profile, err := m.resolver.Resolve(ctx, vehicle)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVehicleInvalid, err)
	}
	if len(profile.ECUModules) == 0 {
		return nil, ErrVehicleInvalid
	}
	report(1)

	// module_inventory
	modules := make([]ModuleScan, 0, len(profile.ECUModules))
	for _, id := range profile.ECUModules {
		modules = append(modules, ModuleScan{ModuleID: id})
	}
	report(2)

	// protocol_negotiation: no wire protocol behind this console, but the
	// checkpoint is still observed to keep the progress scale stable.
	report(3)

	// session_create
	session := &DiagnosticSession{
		ID:        m.newID(),
		Vehicle:   vehicle,
		StartedAt: m.now(),
		Status:    StatusActive,
		Modules:   modules,
	}
	report(4)

	// finalize
	if m.snapshotPath != "" {
		if err := writeSnapshot(m.snapshotPath, Snapshot{Vehicle: &vehicle, SessionID: session.ID}); err != nil {
			return nil, err
		}
	}
	report(5)

	return session, nil
}

// RecordActivity appends to the active session's action log, evicting the
// oldest entry once the 50-entry bound is exceeded.
func (m *Manager) RecordActivity(action, details string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrSessionNotActive
	}
	m.active.Actions = append(m.active.Actions, Action{
		Action:  action,
		Details: details,
		At:      m.now(),
	})
	if len(m.active.Actions) > maxActions {
		evicted := len(m.active.Actions) - maxActions
		m.active.Actions = m.active.Actions[evicted:]
		metrics.ActionLogEvictions.Add(float64(evicted))
	}
	return nil
}

// RecordScanResult updates the per-module DTC count and the aggregate
// counters after a trouble-code read.
func (m *Manager) RecordScanResult(moduleID string, total, critical int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrSessionNotActive
	}
	for i := range m.active.Modules {
		if m.active.Modules[i].ModuleID == moduleID {
			m.active.TotalDTCs += total - m.active.Modules[i].DTCCount
			m.active.CriticalDTCs += critical - m.active.Modules[i].CriticalCount
			m.active.Modules[i].DTCCount = total
			m.active.Modules[i].CriticalCount = critical
			return nil
		}
	}
	m.active.Modules = append(m.active.Modules, ModuleScan{ModuleID: moduleID, DTCCount: total, CriticalCount: critical})
	m.active.TotalDTCs += total
	m.active.CriticalDTCs += critical
	return nil
}

// End completes the active session: duration is computed, the record joins
// the history, every result-cache entry under its ID is invalidated, and
// the manager returns to NONE.
func (m *Manager) End(ctx context.Context) (*DiagnosticSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil, ErrSessionNotActive
	}
	session := m.active
	if err := m.endLocked(ctx); err != nil {
		return nil, err
	}
	return session.clone(), nil
}

// endLocked performs the COMPLETED transition and teardown. Caller holds mu.
func (m *Manager) endLocked(ctx context.Context) error {
	session := m.active

	fire(m.lifecycle, eventFinish)
	session.Status = StatusCompleted
	session.EndedAt = m.now()
	session.Duration = session.EndedAt.Sub(session.StartedAt)

	if m.history != nil {
		if err := m.history.Push(ctx, session); err != nil {
			// History is best-effort on teardown; the session still ends.
			m.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "session.history_push_failed").
				Str(xglog.FieldSessionID, session.ID).
				Msg("failed to record session in history")
		}
	}
	if m.cache != nil {
		if err := m.cache.InvalidateSession(ctx, session.ID); err != nil {
			m.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "session.cache_invalidate_failed").
				Str(xglog.FieldSessionID, session.ID).
				Msg("failed to invalidate result cache")
		}
	}
	if m.snapshotPath != "" {
		if err := writeSnapshot(m.snapshotPath, Snapshot{Vehicle: &session.Vehicle}); err != nil {
			m.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "session.snapshot_failed").
				Msg("failed to update snapshot")
		}
	}

	m.active = nil
	fire(m.lifecycle, eventTeardown)
	metrics.SessionsEnded.Inc()
	m.logger.Info().
		Str(xglog.FieldEvent, "session.ended").
		Str(xglog.FieldSessionID, session.ID).
		Dur("duration", session.Duration).
		Msg("diagnostic session completed")
	return nil
}

// HistoryRecent returns the bounded session history, most recent first.
func (m *Manager) HistoryRecent(ctx context.Context) ([]*DiagnosticSession, error) {
	if m.history == nil {
		return nil, nil
	}
	return m.history.Recent(ctx)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrVehicleInvalid):
		return "vehicle_invalid"
	default:
		return "internal"
	}
}
