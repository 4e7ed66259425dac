// SPDX-License-Identifier: MIT

// Package progress records which diagnostic steps each ECU module has
// completed within the current vehicle scope.
package progress

import (
	"sort"
	"time"
)

// ModuleProgress is the durable per-module step record. One instance exists
// per (vehicle scope, module); it is created on first selection, which also
// bumps SessionCount, and otherwise mutated only through Update merges.
type ModuleProgress struct {
	ModuleID          string    `json:"moduleId"`
	DTCAnalyzed       bool      `json:"dtcAnalyzed"`
	CategoriesViewed  []string  `json:"categoriesViewed"`
	ECUIDAccessed     bool      `json:"ecuIdAccessed"`
	LiveDataAccessed  bool      `json:"liveDataAccessed"`
	ActuatorsAccessed bool      `json:"actuatorsAccessed"`
	RoutinesAccessed  bool      `json:"routinesAccessed"`
	LastUpdated       time.Time `json:"lastUpdated"`
	SessionCount      int       `json:"sessionCount"`
}

// Update is a partial progress report. Nil pointer fields are untouched on
// merge; Categories are unioned into the existing set, never replaced.
type Update struct {
	DTCAnalyzed       *bool    `json:"dtcAnalyzed,omitempty"`
	Categories        []string `json:"categoriesViewed,omitempty"`
	ECUIDAccessed     *bool    `json:"ecuIdAccessed,omitempty"`
	LiveDataAccessed  *bool    `json:"liveDataAccessed,omitempty"`
	ActuatorsAccessed *bool    `json:"actuatorsAccessed,omitempty"`
	RoutinesAccessed  *bool    `json:"routinesAccessed,omitempty"`
}

// Merge applies upd to p. Scalar fields are last-write-wins; the category
// set is a union. Applying the same update twice yields the same record
// (idempotent apart from LastUpdated).
func (p *ModuleProgress) Merge(upd Update, now time.Time) {
	if upd.DTCAnalyzed != nil {
		p.DTCAnalyzed = *upd.DTCAnalyzed
	}
	if upd.ECUIDAccessed != nil {
		p.ECUIDAccessed = *upd.ECUIDAccessed
	}
	if upd.LiveDataAccessed != nil {
		p.LiveDataAccessed = *upd.LiveDataAccessed
	}
	if upd.ActuatorsAccessed != nil {
		p.ActuatorsAccessed = *upd.ActuatorsAccessed
	}
	if upd.RoutinesAccessed != nil {
		p.RoutinesAccessed = *upd.RoutinesAccessed
	}
	if len(upd.Categories) > 0 {
		p.CategoriesViewed = unionSorted(p.CategoriesViewed, upd.Categories)
	}
	p.LastUpdated = now
}

func unionSorted(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(extra))
	for _, c := range existing {
		seen[c] = struct{}{}
	}
	for _, c := range extra {
		seen[c] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
