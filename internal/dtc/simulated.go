// SPDX-License-Identifier: MIT

package dtc

import (
	"context"
	"hash/fnv"
	"time"
)

// SimulatedSource serves deterministic trouble codes per module. It stands
// in for the vehicle bus so the console is fully usable offline; the same
// module always reports the same fault set.
type SimulatedSource struct {
	// Latency is added per fetch to mimic bus round trips. Zero in tests.
	Latency time.Duration
}

// NewSimulatedSource returns a source with a small realistic latency.
func NewSimulatedSource() *SimulatedSource {
	return &SimulatedSource{Latency: 150 * time.Millisecond}
}

var simulatedFaults = map[string][]TroubleCode{
	"EMS": {
		{
			Code:        "P0301",
			Description: "Cylinder 1 Misfire Detected",
			Severity:    SeverityCritical,
			Occurrences: 3,
			FreezeFrame: []Parameter{
				{Name: "Engine RPM", Value: "2450", Unit: "rpm"},
				{Name: "Coolant Temp", Value: "92", Unit: "°C"},
				{Name: "Engine Load", Value: "64", Unit: "%"},
			},
		},
		{
			Code:        "P0420",
			Description: "Catalyst System Efficiency Below Threshold",
			Severity:    SeverityMedium,
			Occurrences: 1,
		},
	},
	"TCU": {
		{
			Code:        "P0700",
			Description: "Transmission Control System Malfunction",
			Severity:    SeverityHigh,
			Occurrences: 2,
			FreezeFrame: []Parameter{
				{Name: "Vehicle Speed", Value: "48", Unit: "km/h"},
				{Name: "Gear", Value: "3"},
			},
		},
	},
	"ABS": {
		{
			Code:        "C0035",
			Description: "Left Front Wheel Speed Sensor Circuit",
			Severity:    SeverityHigh,
			Occurrences: 5,
			FreezeFrame: []Parameter{
				{Name: "Vehicle Speed", Value: "0", Unit: "km/h"},
			},
		},
	},
	"SRS": {
		{
			Code:        "B0012",
			Description: "Passenger Frontal Deployment Loop Resistance High",
			Severity:    SeverityCritical,
			Occurrences: 1,
		},
	},
	"BCM": {
		{
			Code:        "B1325",
			Description: "Device Power Circuit Voltage Out of Range",
			Severity:    SeverityLow,
			Occurrences: 8,
		},
	},
	"HVAC": {},
	"IPC": {
		{
			Code:        "U0155",
			Description: "Lost Communication With Instrument Panel Cluster",
			Severity:    SeverityMedium,
			Occurrences: 2,
		},
	},
}

// FetchTroubleCodes returns the canned fault set for moduleID. Modules
// outside the table report a single synthetic communication fault derived
// from the module name, so unknown modules still behave consistently.
func (s *SimulatedSource) FetchTroubleCodes(ctx context.Context, moduleID string) ([]TroubleCode, error) {
	if s.Latency > 0 {
		select {
		case <-time.After(s.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if codes, ok := simulatedFaults[moduleID]; ok {
		out := make([]TroubleCode, len(codes))
		copy(out, codes)
		return out, nil
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(moduleID))
	return []TroubleCode{
		{
			Code:        "U1000",
			Description: "Communication Fault With " + moduleID,
			Severity:    SeverityLow,
			Occurrences: int(h.Sum32()%4) + 1,
		},
	}, nil
}
