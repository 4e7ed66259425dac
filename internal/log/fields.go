// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldSessionID = "session_id"
	FieldModuleID  = "module_id"
	FieldVehicleID = "vehicle_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldTab      = "tab"

	// Storage fields
	FieldKey  = "key"
	FieldPath = "path"
)
