// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ecuscope/ecuscope/internal/catalog"
	"github.com/ecuscope/ecuscope/internal/log"
	"github.com/ecuscope/ecuscope/internal/session"
)

// envelope is the uniform response shape of every JSON endpoint.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a success envelope with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: v})
}

// writeErrorCode writes an error envelope with an explicit code and message.
func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   &apiError{Code: code, Message: message},
	})
}

// writeError maps a domain error to its HTTP status and error code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var unknown *catalog.ErrUnknownModule
	switch {
	case errors.As(err, &unknown):
		writeErrorCode(w, http.StatusNotFound, "MODULE_UNKNOWN", err.Error())
	case errors.Is(err, session.ErrVehicleInvalid):
		writeErrorCode(w, http.StatusUnprocessableEntity, "VEHICLE_INVALID", err.Error())
	case errors.Is(err, session.ErrSessionNotActive):
		writeErrorCode(w, http.StatusConflict, "SESSION_NOT_ACTIVE", err.Error())
	default:
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(log.FieldPath, r.URL.Path).Msg("request failed")
		writeErrorCode(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}

// writeBadRequest reports a malformed request body or parameter.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeErrorCode(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

// writeUpstreamError reports a trouble-code source failure.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Warn().Err(err).Str(log.FieldPath, r.URL.Path).Msg("trouble code source failed")
	writeErrorCode(w, http.StatusBadGateway, "SOURCE_UNAVAILABLE", "trouble code source unavailable")
}
