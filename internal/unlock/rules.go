// SPDX-License-Identifier: MIT

package unlock

import (
	"github.com/ecuscope/ecuscope/internal/catalog"
	"github.com/ecuscope/ecuscope/internal/progress"
)

// rule is one row of the canonical unlock table. The predicate is pure:
// it inspects current progress and the static descriptor, nothing else.
type rule struct {
	tab  Tab
	open func(p *progress.ModuleProgress, d catalog.Descriptor) bool
}

// rules is the single authoritative unlock table. Every gate decision in
// the system goes through it; there are deliberately no other copies of
// these predicates anywhere.
var rules = []rule{
	{
		tab:  TabDTC,
		open: func(*progress.ModuleProgress, catalog.Descriptor) bool { return true },
	},
	{
		tab: TabECUID,
		open: func(p *progress.ModuleProgress, _ catalog.Descriptor) bool {
			return p.DTCAnalyzed && len(p.CategoriesViewed) > 0
		},
	},
	{
		tab: TabLiveData,
		open: func(p *progress.ModuleProgress, d catalog.Descriptor) bool {
			return p.ECUIDAccessed && d.Capabilities.LiveData
		},
	},
	{
		tab: TabActuators,
		open: func(p *progress.ModuleProgress, d catalog.Descriptor) bool {
			return p.ECUIDAccessed && d.Capabilities.ActuatorTesting
		},
	},
	{
		tab: TabRoutines,
		open: func(p *progress.ModuleProgress, d catalog.Descriptor) bool {
			return p.ECUIDAccessed && d.Capabilities.DiagnosticRoutines
		},
	},
}

// Compute evaluates the rule table against a progress record. p may be nil
// (module never selected), which yields the default gate set.
func Compute(p *progress.ModuleProgress, d catalog.Descriptor) GateSet {
	if p == nil {
		return DefaultGates()
	}
	g := make(GateSet, len(rules))
	for _, r := range rules {
		g[r.tab] = r.open(p, d)
	}
	return g
}
