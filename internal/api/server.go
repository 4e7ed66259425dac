// SPDX-License-Identifier: MIT

// Package api exposes the diagnostic console over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ecuscope/ecuscope/internal/catalog"
	"github.com/ecuscope/ecuscope/internal/dtc"
	"github.com/ecuscope/ecuscope/internal/dtccache"
	"github.com/ecuscope/ecuscope/internal/log"
	"github.com/ecuscope/ecuscope/internal/middleware"
	"github.com/ecuscope/ecuscope/internal/nav"
	"github.com/ecuscope/ecuscope/internal/progress"
	"github.com/ecuscope/ecuscope/internal/session"
	"github.com/ecuscope/ecuscope/internal/unlock"
)

// Options carries the collaborators and HTTP policy for the server.
type Options struct {
	Catalog  *catalog.Catalog
	Machine  *unlock.Machine
	Progress *progress.Store
	Cache    *dtccache.Cache
	Source   dtc.Source
	Sessions *session.Manager
	Nav      *nav.Controller

	// Stack toggles, fed from config.
	EnableMetrics     bool
	TracingService    string
	EnableRateLimit   bool
	RequestsPerMinute int
}

// Server is the HTTP front of the diagnostic console.
type Server struct {
	opts   Options
	logger zerolog.Logger
	router *chi.Mux
}

// New constructs the server and mounts all routes.
func New(opts Options) *Server {
	s := &Server{
		opts:   opts,
		logger: log.WithComponent("api"),
	}
	s.router = middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:     opts.EnableMetrics,
		TracingService:    opts.TracingService,
		EnableLogging:     true,
		EnableRateLimit:   opts.EnableRateLimit,
		RequestsPerMinute: opts.RequestsPerMinute,
	})
	s.routes()
	return s
}

// ServeHTTP makes the server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/modules", func(r chi.Router) {
			r.Get("/", s.handleModuleList)
			r.Route("/{moduleID}", func(r chi.Router) {
				r.Get("/", s.handleModuleDescribe)
				r.Post("/select", s.handleModuleSelect)
				r.Post("/progress", s.handleModuleProgress)
				r.Get("/gates", s.handleModuleGates)
				r.Post("/reset", s.handleModuleReset)
				r.Get("/dtc", s.handleModuleDTC)
				r.Get("/history", s.handleModuleHistory)
			})
		})

		r.Route("/session", func(r chi.Router) {
			r.With(middleware.SessionStartRateLimit()).Post("/start", s.handleSessionStart)
			r.Post("/end", s.handleSessionEnd)
			r.Get("/", s.handleSessionCurrent)
			r.Get("/history", s.handleSessionHistory)
			r.Post("/activity", s.handleSessionActivity)
		})

		r.Route("/nav", func(r chi.Router) {
			r.Get("/", s.handleNavCurrent)
			r.Post("/navigate", s.handleNavNavigate)
			r.Post("/back", s.handleNavBack)
		})

		r.Post("/progress/reset", s.handleProgressResetAll)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports ready once the capability catalog is populated.
func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if len(s.opts.Catalog.List()) == 0 {
		writeErrorCode(w, http.StatusServiceUnavailable, "NOT_READY", "capability catalog empty")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
