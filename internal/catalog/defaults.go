// SPDX-License-Identifier: MIT

package catalog

// defaultModules is the built-in descriptor set covering the common ECU
// inventory of a passenger vehicle. An overlay file may extend or replace
// individual entries but the table itself is never mutated in place.
var defaultModules = []Descriptor{
	{
		ID:       "EMS",
		Name:     "Engine Management System",
		Category: "Powertrain",
		Priority: PriorityCritical,
		Capabilities: Capabilities{
			DTCAnalysis:        true,
			ECUIdentification:  true,
			LiveData:           true,
			ActuatorTesting:    true,
			DiagnosticRoutines: true,
		},
	},
	{
		ID:       "TCU",
		Name:     "Transmission Control Unit",
		Category: "Powertrain",
		Priority: PriorityCritical,
		Capabilities: Capabilities{
			DTCAnalysis:        true,
			ECUIdentification:  true,
			LiveData:           true,
			ActuatorTesting:    true,
			DiagnosticRoutines: true,
		},
	},
	{
		ID:       "ABS",
		Name:     "Anti-lock Braking System",
		Category: "Chassis",
		Priority: PriorityCritical,
		Capabilities: Capabilities{
			DTCAnalysis:        true,
			ECUIdentification:  true,
			LiveData:           true,
			ActuatorTesting:    true,
			DiagnosticRoutines: false,
		},
	},
	{
		ID:       "SRS",
		Name:     "Supplemental Restraint System",
		Category: "Safety",
		Priority: PriorityCritical,
		Capabilities: Capabilities{
			DTCAnalysis:       true,
			ECUIdentification: true,
			LiveData:          true,
		},
	},
	{
		ID:       "SVS",
		Name:     "Stability and Vehicle Safety",
		Category: "Chassis",
		Priority: PriorityHigh,
		Capabilities: Capabilities{
			DTCAnalysis:       true,
			ECUIdentification: true,
			LiveData:          true,
		},
	},
	{
		ID:       "BCM",
		Name:     "Body Control Module",
		Category: "Body",
		Priority: PriorityMedium,
		Capabilities: Capabilities{
			DTCAnalysis:       true,
			ECUIdentification: true,
			LiveData:          true,
			ActuatorTesting:   true,
		},
	},
	{
		ID:       "IPC",
		Name:     "Instrument Panel Cluster",
		Category: "Body",
		Priority: PriorityMedium,
		Capabilities: Capabilities{
			DTCAnalysis:        true,
			ECUIdentification:  true,
			LiveData:           true,
			ActuatorTesting:    true,
			DiagnosticRoutines: true,
		},
	},
	{
		ID:       "HVAC",
		Name:     "Climate Control",
		Category: "Comfort",
		Priority: PriorityLow,
		Capabilities: Capabilities{
			DTCAnalysis:       true,
			ECUIdentification: true,
			LiveData:          true,
			ActuatorTesting:   true,
		},
	},
}
