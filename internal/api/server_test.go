// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ecuscope/ecuscope/internal/catalog"
	"github.com/ecuscope/ecuscope/internal/dtc"
	"github.com/ecuscope/ecuscope/internal/dtccache"
	"github.com/ecuscope/ecuscope/internal/nav"
	"github.com/ecuscope/ecuscope/internal/progress"
	"github.com/ecuscope/ecuscope/internal/session"
	"github.com/ecuscope/ecuscope/internal/storage"
	"github.com/ecuscope/ecuscope/internal/unlock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testEnv struct {
	server *Server
	source *stubSource
}

// stubSource serves canned trouble codes and can be flipped into failure.
type stubSource struct {
	fail  bool
	calls int
}

func (s *stubSource) FetchTroubleCodes(_ context.Context, moduleID string) ([]dtc.TroubleCode, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("bus unreachable")
	}
	return []dtc.TroubleCode{
		{Code: "P0301", Description: "Cylinder 1 misfire", Severity: dtc.SeverityCritical, Occurrences: 3},
		{Code: "P0420", Description: "Catalyst efficiency low", Severity: dtc.SeverityMedium, Occurrences: 1},
	}, nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cat := catalog.New()
	gw := storage.NewMemory()
	store := progress.NewStore(gw)
	machine := unlock.NewMachine(cat, store, gw)
	cache := dtccache.New(dtccache.NewMemoryBackend())
	t.Cleanup(func() { _ = cache.Close() })

	history, err := session.OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = history.Close() })

	resolver := session.ResolverFunc(func(_ context.Context, v session.Vehicle) (session.VehicleProfile, error) {
		if v.VIN == "UNKNOWN" {
			return session.VehicleProfile{}, nil
		}
		return session.VehicleProfile{ECUModules: []string{"EMS", "ABS"}}, nil
	})

	source := &stubSource{}
	server := New(Options{
		Catalog:  cat,
		Machine:  machine,
		Progress: store,
		Cache:    cache,
		Source:   source,
		Sessions: session.NewManager(resolver, cache, history, ""),
		Nav:      nav.New(nav.Route{Name: "home"}),
	})
	return &testEnv{server: server, source: source}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func startSession(t *testing.T, e *testEnv) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/session/start", session.Vehicle{VIN: "WVWZZZ1JZ3W386752"})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestModuleList(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/modules", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var modules []moduleView
	decodeData(t, w, &modules)
	assert.NotEmpty(t, modules)

	ids := make(map[string]bool)
	for _, m := range modules {
		ids[m.ModuleID] = true
	}
	assert.True(t, ids["EMS"])
	assert.True(t, ids["ABS"])
}

func TestModuleDescribe_Unknown(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/modules/NOPE", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "MODULE_UNKNOWN", env.Error.Code)
}

func TestModuleSelect_DTCOpenByDefault(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/modules/EMS/select", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ModuleID string          `json:"moduleId"`
		Gates    map[string]bool `json:"gates"`
	}
	decodeData(t, w, &resp)
	assert.Equal(t, "EMS", resp.ModuleID)
	assert.True(t, resp.Gates["dtc"])
	assert.False(t, resp.Gates["ecu_id"])
	assert.False(t, resp.Gates["live_data"])
}

func TestModuleProgress_UnlocksEcuID(t *testing.T) {
	e := newTestEnv(t)

	yes := true
	w := e.do(t, http.MethodPost, "/api/v1/modules/EMS/progress", progress.Update{
		DTCAnalyzed: &yes,
		Categories:  []string{"powertrain"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Gates map[string]bool `json:"gates"`
	}
	decodeData(t, w, &resp)
	assert.True(t, resp.Gates["ecu_id"])
	assert.False(t, resp.Gates["live_data"])
}

func TestModuleProgress_BadBody(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/modules/EMS/progress", bytes.NewBufferString("{broken"))
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModuleReset(t *testing.T) {
	e := newTestEnv(t)

	yes := true
	w := e.do(t, http.MethodPost, "/api/v1/modules/EMS/progress", progress.Update{
		DTCAnalyzed: &yes,
		Categories:  []string{"powertrain"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/modules/EMS/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/modules/EMS/gates", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Gates map[string]bool `json:"gates"`
	}
	decodeData(t, w, &resp)
	assert.True(t, resp.Gates["dtc"])
	assert.False(t, resp.Gates["ecu_id"])
}

func TestModuleDTC_RequiresActiveSession(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/modules/EMS/dtc", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SESSION_NOT_ACTIVE", env.Error.Code)
}

func TestModuleDTC_CachedPerSession(t *testing.T) {
	e := newTestEnv(t)
	startSession(t, e)

	for i := 0; i < 3; i++ {
		w := e.do(t, http.MethodGet, "/api/v1/modules/EMS/dtc", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 1, e.source.calls, "repeated reads must hit the cache")

	// The scan result lands on the session aggregate.
	w := e.do(t, http.MethodGet, "/api/v1/session", nil)
	var resp struct {
		Session *session.DiagnosticSession `json:"session"`
	}
	decodeData(t, w, &resp)
	require.NotNil(t, resp.Session)
	assert.Equal(t, 2, resp.Session.TotalDTCs)
	assert.Equal(t, 1, resp.Session.CriticalDTCs)
}

func TestModuleDTC_SourceFailure(t *testing.T) {
	e := newTestEnv(t)
	startSession(t, e)

	e.source.fail = true
	w := e.do(t, http.MethodGet, "/api/v1/modules/EMS/dtc", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SOURCE_UNAVAILABLE", env.Error.Code)

	// A failure is not cached: the next read retries the source.
	e.source.fail = false
	w = e.do(t, http.MethodGet, "/api/v1/modules/EMS/dtc", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionStart_ReportsCheckpoints(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/session/start", session.Vehicle{VIN: "WVWZZZ1JZ3W386752"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Session     *session.DiagnosticSession `json:"session"`
		Checkpoints []startCheckpoint          `json:"checkpoints"`
	}
	decodeData(t, w, &resp)
	require.NotNil(t, resp.Session)
	assert.Equal(t, session.StatusActive, resp.Session.Status)

	require.Len(t, resp.Checkpoints, 6)
	assert.Equal(t, "session_init", resp.Checkpoints[0].Checkpoint)
	assert.Equal(t, "finalize", resp.Checkpoints[5].Checkpoint)
	for i := 1; i < len(resp.Checkpoints); i++ {
		assert.Greater(t, resp.Checkpoints[i].Percent, resp.Checkpoints[i-1].Percent)
	}
}

func TestSessionStart_InvalidVehicle(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/session/start", session.Vehicle{VIN: "UNKNOWN"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VEHICLE_INVALID", env.Error.Code)
}

func TestSessionStart_MissingVIN(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/session/start", session.Vehicle{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionEndAndHistory(t *testing.T) {
	e := newTestEnv(t)
	startSession(t, e)

	w := e.do(t, http.MethodPost, "/api/v1/session/end", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var ended session.DiagnosticSession
	decodeData(t, w, &ended)
	assert.Equal(t, session.StatusCompleted, ended.Status)

	w = e.do(t, http.MethodGet, "/api/v1/session/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history []*session.DiagnosticSession
	decodeData(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, ended.ID, history[0].ID)
}

func TestSessionEnd_NotActive(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/session/end", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSessionActivity(t *testing.T) {
	e := newTestEnv(t)
	startSession(t, e)

	w := e.do(t, http.MethodPost, "/api/v1/session/activity", map[string]string{
		"action":  "tab_view",
		"details": "EMS/dtc",
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/session", nil)
	var resp struct {
		Session *session.DiagnosticSession `json:"session"`
	}
	decodeData(t, w, &resp)
	require.NotNil(t, resp.Session)
	require.NotEmpty(t, resp.Session.Actions)
	assert.Equal(t, "tab_view", resp.Session.Actions[len(resp.Session.Actions)-1].Action)
}

func TestSessionActivity_MissingAction(t *testing.T) {
	e := newTestEnv(t)
	startSession(t, e)

	w := e.do(t, http.MethodPost, "/api/v1/session/activity", map[string]string{"details": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNavRoundTrip(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/nav/navigate", nav.Route{
		Name:   "module",
		Params: map[string]string{"moduleId": "EMS"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Current nav.Route `json:"current"`
		Depth   int       `json:"depth"`
	}
	decodeData(t, w, &resp)
	assert.Equal(t, "module", resp.Current.Name)
	assert.Equal(t, 2, resp.Depth)

	w = e.do(t, http.MethodPost, "/api/v1/nav/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &resp)
	assert.Equal(t, "home", resp.Current.Name)
	assert.Equal(t, 1, resp.Depth)
}

func TestNavNavigate_MissingName(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/nav/navigate", nav.Route{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModuleHistory_RecordsActions(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/modules/EMS/select", nil)
	require.Equal(t, http.StatusOK, w.Code)

	yes := true
	w = e.do(t, http.MethodPost, "/api/v1/modules/EMS/progress", progress.Update{DTCAnalyzed: &yes})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/modules/EMS/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entries []progress.HistoryEntry
	decodeData(t, w, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "select", entries[0].Action)
	assert.Equal(t, "progress_report", entries[1].Action)
}

func TestProgressResetAll(t *testing.T) {
	e := newTestEnv(t)

	yes := true
	for _, id := range []string{"EMS", "ABS"} {
		w := e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/modules/%s/progress", id), progress.Update{
			DTCAnalyzed: &yes,
			Categories:  []string{"chassis"},
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := e.do(t, http.MethodPost, "/api/v1/progress/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	for _, id := range []string{"EMS", "ABS"} {
		w = e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/modules/%s/gates", id), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Gates map[string]bool `json:"gates"`
		}
		decodeData(t, w, &resp)
		assert.False(t, resp.Gates["ecu_id"], "module %s should be back to defaults", id)
	}
}
