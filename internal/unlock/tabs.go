// SPDX-License-Identifier: MIT

// Package unlock implements the per-module progressive disclosure gates.
// Each (module, tab) pair is a one-directional LOCKED -> UNLOCKED machine:
// once unlocked, a tab never re-locks within a session.
package unlock

// Tab identifies one diagnostic view of a module.
type Tab string

const (
	TabDTC       Tab = "dtc"
	TabECUID     Tab = "ecu_id"
	TabLiveData  Tab = "live_data"
	TabActuators Tab = "actuators"
	TabRoutines  Tab = "routines"
)

// AllTabs lists every tab in display order.
var AllTabs = []Tab{TabDTC, TabECUID, TabLiveData, TabActuators, TabRoutines}

// GateSet maps tab -> unlocked. It is derived state: a pure function of
// module progress and descriptor capabilities, persisted only for fast reads.
type GateSet map[Tab]bool

// DefaultGates is the state of a module that has never been selected:
// the DTC tab is unconditionally open, everything else locked.
func DefaultGates() GateSet {
	g := make(GateSet, len(AllTabs))
	for _, t := range AllTabs {
		g[t] = t == TabDTC
	}
	return g
}

// Clone returns an independent copy of the gate set.
func (g GateSet) Clone() GateSet {
	out := make(GateSet, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}
