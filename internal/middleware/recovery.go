// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/ecuscope/ecuscope/internal/log"
)

// Recoverer converts panics into 500 responses instead of killing the server.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger := log.WithComponentFromContext(r.Context(), "panic-recovery")
				logger.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("method", r.Method).
					Str(log.FieldPath, r.URL.Path).
					Str(log.FieldEvent, "http.panic").
					Msg("recovered from panic in handler")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"success":false,"error":{"code":"INTERNAL","message":"internal server error"}}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
