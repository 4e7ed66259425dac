// SPDX-License-Identifier: MIT

// Package dtc defines the diagnostic trouble-code records exchanged with
// the external data source.
package dtc

import "context"

// Severity ranks the impact of a fault.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Parameter is one freeze-frame sensor reading captured at fault time.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// TroubleCode is one fault record reported by a module.
type TroubleCode struct {
	Code        string      `json:"code"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	Occurrences int         `json:"occurrences"`
	FreezeFrame []Parameter `json:"freezeFrame,omitempty"`
}

// Source is the external diagnostic data source. It is the sole producer
// of truth on a cache miss; it may be slow or unreliable.
type Source interface {
	FetchTroubleCodes(ctx context.Context, moduleID string) ([]TroubleCode, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, moduleID string) ([]TroubleCode, error)

func (f SourceFunc) FetchTroubleCodes(ctx context.Context, moduleID string) ([]TroubleCode, error) {
	return f(ctx, moduleID)
}
