package executors

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/core/ports/secondary"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/handlers"
)

type ApiHandler struct {
	ExecutorRepository secondary.ExecutorRepository
	logger             primary.Logger
}

func NewHandler(repo secondary.ExecutorRepository, logger primary.Logger) *ApiHandler {
	return &ApiHandler{
		ExecutorRepository: repo,
		logger:             logger,
	}
}

func (api *ApiHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/executors", api.GetExecutors).Methods("GET")
}

func (api *ApiHandler) GetExecutors(w http.ResponseWriter, r *http.Request) {
	executors, err := api.ExecutorRepository.GetAllExecutors(r.Context())
	if err != nil {
		api.logger.Error("Failed to get executors", "error", err)
		handlers.ResponseError(w, "Failed to get executors", http.StatusInternalServerError)
		return
	}
	if executors == nil {
		executors = []*domain.ExecutorInfo{}
	}

	handlers.ResponseWithJson(w, http.StatusOK, map[string][]*domain.ExecutorInfo{"executors": executors})
}
