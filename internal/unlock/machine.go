// SPDX-License-Identifier: MIT

package unlock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecuscope/ecuscope/internal/catalog"
	xglog "github.com/ecuscope/ecuscope/internal/log"
	"github.com/ecuscope/ecuscope/internal/metrics"
	"github.com/ecuscope/ecuscope/internal/progress"
	"github.com/ecuscope/ecuscope/internal/storage"
)

const gatesPrefix = "gates:"

// Machine owns the gate state for every module. Progress reports are
// serialized through a single mutex: gate recomputation and persistence
// are never interleaved for the same module.
type Machine struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	store   *progress.Store
	gw      storage.Gateway
	logger  zerolog.Logger
	now     func() time.Time
}

// NewMachine wires the unlock machine to the catalog, the progress store
// and the gateway used to persist derived gate sets.
func NewMachine(cat *catalog.Catalog, store *progress.Store, gw storage.Gateway) *Machine {
	return &Machine{
		catalog: cat,
		store:   store,
		gw:      gw,
		logger:  xglog.WithComponent("unlock"),
		now:     time.Now,
	}
}

// ReportProgress merges a partial update into the module's progress record,
// recomputes the gate set, persists both, and returns the updated gates.
// Gates are monotonic: a recomputation can only add unlocks, never remove
// them, because the new set is OR-ed with the persisted one.
func (m *Machine) ReportProgress(ctx context.Context, moduleID string, upd progress.Update) (GateSet, error) {
	desc, err := m.catalog.Describe(moduleID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.store.Get(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &progress.ModuleProgress{ModuleID: moduleID}
	}
	p.Merge(upd, m.now())

	prev, err := m.loadGates(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	next := Compute(p, desc)
	for tab, open := range prev {
		if open && !next[tab] {
			next[tab] = true // monotonic: never re-lock
		}
	}

	if err := m.store.Put(ctx, moduleID, p); err != nil {
		return nil, err
	}
	if err := m.saveGates(ctx, moduleID, next); err != nil {
		return nil, err
	}

	metrics.ProgressReports.WithLabelValues(moduleID).Inc()
	for tab, open := range next {
		if open && !prev[tab] {
			metrics.TabsUnlocked.WithLabelValues(string(tab)).Inc()
			m.logger.Info().
				Str(xglog.FieldEvent, "unlock.tab_unlocked").
				Str(xglog.FieldModuleID, moduleID).
				Str(xglog.FieldTab, string(tab)).
				Msg("tab unlocked")
		}
	}
	return next, nil
}

// Gates returns the persisted gate set for moduleID. A module that has
// never been selected yields the default set (DTC only) without error;
// that is a safe default, not state corruption.
func (m *Machine) Gates(ctx context.Context, moduleID string) (GateSet, error) {
	if _, err := m.catalog.Describe(moduleID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadGates(ctx, moduleID)
}

// IsUnlocked reports whether one tab of a module is open.
func (m *Machine) IsUnlocked(ctx context.Context, moduleID string, tab Tab) (bool, error) {
	gates, err := m.Gates(ctx, moduleID)
	if err != nil {
		return false, err
	}
	return gates[tab], nil
}

// Select initializes gate state for a module on first selection and
// returns the current set. Gate state is idempotent on repeated
// selection; the progress record counts every selection.
func (m *Machine) Select(ctx context.Context, moduleID string) (GateSet, error) {
	if _, err := m.catalog.Describe(moduleID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.store.Get(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &progress.ModuleProgress{ModuleID: moduleID}
	}
	p.SessionCount++
	p.LastUpdated = m.now()
	if err := m.store.Put(ctx, moduleID, p); err != nil {
		return nil, err
	}

	gates, err := m.loadGates(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if err := m.saveGates(ctx, moduleID, gates); err != nil {
		return nil, err
	}
	return gates, nil
}

// Reset discards gate and progress state for one module, or for every
// module when moduleID is empty. Used for explicit start-over.
func (m *Machine) Reset(ctx context.Context, moduleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if moduleID != "" {
		if err := m.store.Reset(ctx, moduleID); err != nil {
			return err
		}
		return m.gw.Delete(ctx, gatesPrefix+moduleID)
	}

	if err := m.store.ResetAll(ctx); err != nil {
		return err
	}
	keys, err := m.gw.List(ctx, gatesPrefix)
	if err != nil {
		return fmt.Errorf("list gate records: %w", err)
	}
	for _, k := range keys {
		if err := m.gw.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) loadGates(ctx context.Context, moduleID string) (GateSet, error) {
	data, ok, err := m.gw.Read(ctx, gatesPrefix+moduleID)
	if err != nil {
		return nil, fmt.Errorf("read gates for %s: %w", moduleID, err)
	}
	if !ok {
		return DefaultGates(), nil
	}
	var g GateSet
	if err := json.Unmarshal(data, &g); err != nil {
		m.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "unlock.gates_corrupt").
			Str(xglog.FieldModuleID, moduleID).
			Msg("discarding corrupt gate record")
		_ = m.gw.Delete(ctx, gatesPrefix+moduleID)
		return DefaultGates(), nil
	}
	// Older records may predate a tab; absent tabs default to locked,
	// except DTC which is always open.
	for _, t := range AllTabs {
		if _, present := g[t]; !present {
			g[t] = t == TabDTC
		}
	}
	return g, nil
}

func (m *Machine) saveGates(ctx context.Context, moduleID string, g GateSet) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal gates for %s: %w", moduleID, err)
	}
	if err := m.gw.Write(ctx, gatesPrefix+moduleID, data); err != nil {
		return fmt.Errorf("write gates for %s: %w", moduleID, err)
	}
	return nil
}
