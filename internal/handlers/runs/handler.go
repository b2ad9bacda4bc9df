package runs

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/core/services/coordinator"
	"gitlab.com/nqueens.net/internal/core/services/run"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/handlers"
	"gitlab.com/nqueens.net/internal/static/errs"
)

// StatsSource reports coordinator progress
type StatsSource interface {
	Stats() coordinator.Stats
}

// RunHandler serves the current run and stored runs
type RunHandler struct {
	runService run.IRunService
	stats      StatsSource
	logger     primary.Logger
}

// RunStatus is the body of GET /api/run
type RunStatus struct {
	Run   *domain.Run       `json:"run"`
	Stats coordinator.Stats `json:"stats"`
}

// StoredRun is the body of GET /api/runs/{runId}
type StoredRun struct {
	Run       *domain.Run `json:"run"`
	Solutions [][]uint32  `json:"solutions"`
}

func NewRunHandler(runService run.IRunService, stats StatsSource, logger primary.Logger) *RunHandler {
	return &RunHandler{
		runService: runService,
		stats:      stats,
		logger:     logger,
	}
}

// RegisterRoutes registers the API routes for RunHandler
func (h *RunHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/run", h.GetCurrentRun).Methods("GET")
	router.HandleFunc("/api/runs/{runId}", h.GetRun).Methods("GET")
}

// GetCurrentRun returns the run in progress with a coordinator snapshot
func (h *RunHandler) GetCurrentRun(w http.ResponseWriter, r *http.Request) {
	current := h.runService.Current()
	if current == nil {
		handlers.ResponseError(w, "No run started", http.StatusNotFound)
		return
	}

	handlers.ResponseWithJson(w, http.StatusOK, RunStatus{Run: current, Stats: h.stats.Stats()})
}

// GetRun returns a stored run with its solutions
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(mux.Vars(r)["runId"])
	if err != nil {
		handlers.ResponseError(w, "Invalid run id", http.StatusBadRequest)
		return
	}

	stored, sols, err := h.runService.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			handlers.ResponseError(w, "Run not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get run", "runId", runID, "error", err)
		handlers.ResponseError(w, "Failed to get run", http.StatusInternalServerError)
		return
	}

	body := StoredRun{Run: stored, Solutions: make([][]uint32, 0, sols.Count())}
	for _, p := range sols.Split() {
		body.Solutions = append(body.Solutions, p)
	}
	handlers.ResponseWithJson(w, http.StatusOK, body)
}
