// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ecuscope/ecuscope/internal/dtc"
	"github.com/ecuscope/ecuscope/internal/log"
	"github.com/ecuscope/ecuscope/internal/progress"
	"github.com/ecuscope/ecuscope/internal/session"
	"github.com/ecuscope/ecuscope/internal/unlock"
)

// moduleView joins a catalog descriptor with its current gate state.
type moduleView struct {
	ModuleID     string          `json:"moduleId"`
	Name         string          `json:"name"`
	Priority     string          `json:"priority"`
	Capabilities map[string]bool `json:"capabilities"`
	Gates        map[string]bool `json:"gates,omitempty"`
}

func (s *Server) handleModuleList(w http.ResponseWriter, r *http.Request) {
	descriptors := s.opts.Catalog.List()
	out := make([]moduleView, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, moduleView{
			ModuleID: d.ID,
			Name:     d.Name,
			Priority: string(d.Priority),
			Capabilities: map[string]bool{
				"dtcAnalysis":        d.Capabilities.DTCAnalysis,
				"ecuIdentification":  d.Capabilities.ECUIdentification,
				"liveData":           d.Capabilities.LiveData,
				"actuatorTesting":    d.Capabilities.ActuatorTesting,
				"diagnosticRoutines": d.Capabilities.DiagnosticRoutines,
			},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleModuleDescribe(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleID")
	d, err := s.opts.Catalog.Describe(moduleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	gates, err := s.opts.Machine.Gates(r.Context(), moduleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, moduleView{
		ModuleID: d.ID,
		Name:     d.Name,
		Priority: string(d.Priority),
		Capabilities: map[string]bool{
			"dtcAnalysis":        d.Capabilities.DTCAnalysis,
			"ecuIdentification":  d.Capabilities.ECUIdentification,
			"liveData":           d.Capabilities.LiveData,
			"actuatorTesting":    d.Capabilities.ActuatorTesting,
			"diagnosticRoutines": d.Capabilities.DiagnosticRoutines,
		},
		Gates: gateMap(gates),
	})
}

func (s *Server) handleModuleSelect(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleID")
	gates, err := s.opts.Machine.Select(r.Context(), moduleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = s.opts.Sessions.RecordActivity("module_select", moduleID)
	s.recordModuleAction(r, moduleID, "select", "")
	writeJSON(w, http.StatusOK, map[string]any{
		"moduleId": moduleID,
		"gates":    gateMap(gates),
	})
}

func (s *Server) handleModuleProgress(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleID")

	var upd progress.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeBadRequest(w, "invalid progress report body")
		return
	}

	gates, err := s.opts.Machine.ReportProgress(r.Context(), moduleID, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordModuleAction(r, moduleID, "progress_report", "")
	writeJSON(w, http.StatusOK, map[string]any{
		"moduleId": moduleID,
		"gates":    gateMap(gates),
	})
}

func (s *Server) handleModuleGates(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleID")
	gates, err := s.opts.Machine.Gates(r.Context(), moduleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"moduleId": moduleID,
		"gates":    gateMap(gates),
	})
}

func (s *Server) handleModuleReset(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleID")
	if _, err := s.opts.Catalog.Describe(moduleID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.opts.Machine.Reset(r.Context(), moduleID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"moduleId": moduleID, "status": "reset"})
}

func (s *Server) handleProgressResetAll(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Machine.Reset(r.Context(), ""); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleModuleDTC serves the trouble codes of one module in the active
// session, through the at-most-once result cache.
func (s *Server) handleModuleDTC(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleID")
	if _, err := s.opts.Catalog.Describe(moduleID); err != nil {
		writeError(w, r, err)
		return
	}

	active, ok := s.opts.Sessions.Active()
	if !ok {
		writeError(w, r, session.ErrSessionNotActive)
		return
	}

	codes, err := s.opts.Cache.GetOrLoad(r.Context(), moduleID, active.ID, s.opts.Source)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}

	critical := 0
	for _, c := range codes {
		if c.Severity == dtc.SeverityCritical {
			critical++
		}
	}
	_ = s.opts.Sessions.RecordScanResult(moduleID, len(codes), critical)
	s.recordModuleAction(r, moduleID, "dtc_read", active.ID)

	writeJSON(w, http.StatusOK, map[string]any{
		"moduleId":  moduleID,
		"sessionId": active.ID,
		"codes":     codes,
	})
}

func (s *Server) handleModuleHistory(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleID")
	if _, err := s.opts.Catalog.Describe(moduleID); err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := s.opts.Progress.History(r.Context(), moduleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// recordModuleAction appends to the per-module action history. Best effort:
// a history write failure never fails the request itself.
func (s *Server) recordModuleAction(r *http.Request, moduleID, action, details string) {
	err := s.opts.Progress.AppendHistory(r.Context(), moduleID, progress.HistoryEntry{
		Action:  action,
		Details: details,
		At:      time.Now(),
	})
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Warn().Err(err).Str(log.FieldModuleID, moduleID).Msg("failed to record module history")
	}
}

func gateMap(g unlock.GateSet) map[string]bool {
	out := make(map[string]bool, len(g))
	for tab, open := range g {
		out[string(tab)] = open
	}
	return out
}
