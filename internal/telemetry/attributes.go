// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Diagnostic session attributes
	SessionIDKey       = "session.id"
	SessionVehicleKey  = "session.vehicle_id"
	SessionStateKey    = "session.state"
	SessionDurationKey = "session.duration_ms"
	SessionModuleCount = "session.module_count"

	// Control module attributes
	ModuleIDKey  = "module.id"
	ModuleTabKey = "module.tab"

	// Trouble code attributes
	DTCCountKey    = "dtc.count"
	DTCSeverityKey = "dtc.severity"
	DTCCacheHitKey = "dtc.cache_hit"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// SessionAttributes creates diagnostic-session span attributes.
func SessionAttributes(sessionID, vehicleID, state string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if sessionID != "" {
		attrs = append(attrs, attribute.String(SessionIDKey, sessionID))
	}
	if vehicleID != "" {
		attrs = append(attrs, attribute.String(SessionVehicleKey, vehicleID))
	}
	if state != "" {
		attrs = append(attrs, attribute.String(SessionStateKey, state))
	}
	return attrs
}

// ModuleAttributes creates control-module span attributes.
func ModuleAttributes(moduleID, tab string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if moduleID != "" {
		attrs = append(attrs, attribute.String(ModuleIDKey, moduleID))
	}
	if tab != "" {
		attrs = append(attrs, attribute.String(ModuleTabKey, tab))
	}
	return attrs
}

// DTCAttributes creates trouble-code span attributes.
func DTCAttributes(count int, cacheHit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(DTCCountKey, count),
		attribute.Bool(DTCCacheHitKey, cacheHit),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
