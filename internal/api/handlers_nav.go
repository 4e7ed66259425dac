// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ecuscope/ecuscope/internal/nav"
)

func (s *Server) handleNavCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"current": s.opts.Nav.Current(),
		"depth":   s.opts.Nav.Depth(),
	})
}

func (s *Server) handleNavNavigate(w http.ResponseWriter, r *http.Request) {
	var route nav.Route
	if err := json.NewDecoder(r.Body).Decode(&route); err != nil {
		writeBadRequest(w, "invalid route body")
		return
	}
	if route.Name == "" {
		writeBadRequest(w, "route name is required")
		return
	}
	current := s.opts.Nav.Navigate(route)
	writeJSON(w, http.StatusOK, map[string]any{
		"current": current,
		"depth":   s.opts.Nav.Depth(),
	})
}

func (s *Server) handleNavBack(w http.ResponseWriter, r *http.Request) {
	current := s.opts.Nav.Back()
	writeJSON(w, http.StatusOK, map[string]any{
		"current": current,
		"depth":   s.opts.Nav.Depth(),
	})
}
