// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ecuscope/ecuscope/internal/session"
)

// startCheckpoint is one observed milestone of the session start pipeline.
type startCheckpoint struct {
	Checkpoint string `json:"checkpoint"`
	Percent    int    `json:"percent"`
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var vehicle session.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
		writeBadRequest(w, "invalid vehicle body")
		return
	}
	if vehicle.VIN == "" {
		writeBadRequest(w, "vin is required")
		return
	}

	var checkpoints []startCheckpoint
	sess, err := s.opts.Sessions.Start(r.Context(), vehicle, func(checkpoint string, percent int) {
		checkpoints = append(checkpoints, startCheckpoint{Checkpoint: checkpoint, Percent: percent})
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session":     sess,
		"checkpoints": checkpoints,
	})
}

func (s *Server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	sess, err := s.opts.Sessions.End(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionCurrent(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"state": s.opts.Sessions.State()}
	if sess, ok := s.opts.Sessions.Active(); ok {
		resp["session"] = sess
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.opts.Sessions.HistoryRecent(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSessionActivity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action  string `json:"action"`
		Details string `json:"details,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid activity body")
		return
	}
	if body.Action == "" {
		writeBadRequest(w, "action is required")
		return
	}
	if err := s.opts.Sessions.RecordActivity(body.Action, body.Details); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}
