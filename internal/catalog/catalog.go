// SPDX-License-Identifier: MIT

// Package catalog holds the static per-module capability descriptors.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Priority ranks how critical a module is for vehicle operation.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Capabilities flags which diagnostic views a module supports.
type Capabilities struct {
	DTCAnalysis        bool `yaml:"dtcAnalysis" json:"dtcAnalysis"`
	ECUIdentification  bool `yaml:"ecuIdentification" json:"ecuIdentification"`
	LiveData           bool `yaml:"liveData" json:"liveData"`
	ActuatorTesting    bool `yaml:"actuatorTesting" json:"actuatorTesting"`
	DiagnosticRoutines bool `yaml:"diagnosticRoutines" json:"diagnosticRoutines"`
}

// Descriptor is the immutable static record for one ECU module.
type Descriptor struct {
	ID           string       `yaml:"id" json:"id"`
	Name         string       `yaml:"name" json:"name"`
	Category     string       `yaml:"category" json:"category"`
	Priority     Priority     `yaml:"priority" json:"priority"`
	Capabilities Capabilities `yaml:"capabilities" json:"capabilities"`
}

// ErrUnknownModule is returned when a module ID is not present in the catalog.
// Callers must treat it as a hard failure, never as a capability-less module.
type ErrUnknownModule struct {
	ModuleID string
}

func (e *ErrUnknownModule) Error() string {
	return fmt.Sprintf("unknown module %q", e.ModuleID)
}

// Catalog is a read-mostly lookup table of module descriptors. Overlay
// reloads replace the whole table atomically.
type Catalog struct {
	mu      sync.RWMutex
	modules map[string]Descriptor
}

// New returns a catalog seeded with the built-in descriptor set.
func New() *Catalog {
	c := &Catalog{modules: make(map[string]Descriptor, len(defaultModules))}
	for _, d := range defaultModules {
		c.modules[d.ID] = d
	}
	return c
}

// Describe looks up the descriptor for moduleID.
func (c *Catalog) Describe(moduleID string) (Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.modules[moduleID]
	if !ok {
		return Descriptor{}, &ErrUnknownModule{ModuleID: moduleID}
	}
	return d, nil
}

// List returns all descriptors ordered by ID.
func (c *Catalog) List() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Descriptor, 0, len(c.modules))
	for _, d := range c.modules {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type overlayFile struct {
	Modules []Descriptor `yaml:"modules"`
}

// LoadOverlay merges descriptors from a YAML file over the built-in set.
// The swap is all-or-nothing: a file that fails to parse or validate leaves
// the current table untouched.
func (c *Catalog) LoadOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog overlay: %w", err)
	}
	var overlay overlayFile
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse catalog overlay: %w", err)
	}

	next := make(map[string]Descriptor, len(defaultModules)+len(overlay.Modules))
	for _, d := range defaultModules {
		next[d.ID] = d
	}
	for _, d := range overlay.Modules {
		if err := validate(d); err != nil {
			return fmt.Errorf("catalog overlay %s: %w", path, err)
		}
		next[d.ID] = d
	}

	c.mu.Lock()
	c.modules = next
	c.mu.Unlock()
	return nil
}

func validate(d Descriptor) error {
	if d.ID == "" {
		return fmt.Errorf("descriptor without id")
	}
	switch d.Priority {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return fmt.Errorf("module %s: invalid priority %q", d.ID, d.Priority)
	}
	return nil
}
