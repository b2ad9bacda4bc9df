package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/nqueens.net/internal/adapter/logging"
	memoryexecutors "gitlab.com/nqueens.net/internal/adapter/memory/executorport"
	"gitlab.com/nqueens.net/internal/core/services/coordinator"
	"gitlab.com/nqueens.net/internal/core/services/run"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/handlers/runs"
	"gitlab.com/nqueens.net/internal/nqueens"
)

type fixedStats coordinator.Stats

func (f fixedStats) Stats() coordinator.Stats {
	return coordinator.Stats(f)
}

func newTestServer(t *testing.T) (*Server, *run.RunService, *memoryexecutors.ExecutorRepository) {
	runService := run.NewRunService(nil, logging.NewNopLogger())
	registry := memoryexecutors.NewExecutorRepository()
	stats := fixedStats{Phase: coordinator.PhaseDraining, Dispatched: 12, Live: 1, Solutions: 40}

	server := NewServer(0, "nqueens-coordinator", *NewServiceProvider(runService, stats, registry), logging.NewNopLogger())
	require.NoError(t, server.Init())
	return server, runService, registry
}

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := get(t, server, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"nqueens-coordinator"}`, rec.Body.String())
}

func TestCurrentRun(t *testing.T) {
	server, runService, _ := newTestServer(t)

	rec := get(t, server, "/api/run")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	started, err := runService.Begin(context.Background(), domain.Params{N: 8, K: 2}, 4)
	require.NoError(t, err)

	rec = get(t, server, "/api/run")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body runs.RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, started.ID, body.Run.ID)
	assert.Equal(t, 8, body.Run.N)
	assert.Equal(t, coordinator.PhaseDraining, body.Stats.Phase)
	assert.Equal(t, int64(12), body.Stats.Dispatched)
	assert.Equal(t, int64(40), body.Stats.Solutions)
}

func TestStoredRun(t *testing.T) {
	server, runService, _ := newTestServer(t)

	rec := get(t, server, "/api/runs/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, server, "/api/runs/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	started, err := runService.Begin(context.Background(), domain.Params{N: 4, K: 1}, 2)
	require.NoError(t, err)
	_, err = runService.Finish(context.Background(), nqueens.Solve(4), nil)
	require.NoError(t, err)

	rec = get(t, server, "/api/runs/"+started.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var body runs.StoredRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.RunStatusCompleted, body.Run.Status)
	assert.Equal(t, 2, body.Run.SolutionCount)
}

func TestExecutors(t *testing.T) {
	server, _, registry := newTestServer(t)

	rec := get(t, server, "/api/executors")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"executors":[]}`, rec.Body.String())

	registeredAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, registry.SaveExecutor(context.Background(), &domain.ExecutorInfo{
		ID:           "exec-1",
		Rank:         1,
		IpAddress:    "10.0.0.7",
		Status:       domain.ExecutorStatusRegistered,
		RegisteredAt: registeredAt,
	}))

	rec = get(t, server, "/api/executors")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"executors":[{
		"id":"exec-1","rank":1,"ip_address":"10.0.0.7",
		"status":"REGISTERED","registered_at":"2025-01-02T03:04:05Z"
	}]}`, rec.Body.String())
}

func TestUnknownMethod(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/run", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
