package run

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/nqueens.net/internal/domain"
)

// IRunService tracks the lifecycle of runs and persists them when a
// repository is configured
type IRunService interface {
	// Begin records a new running run
	Begin(ctx context.Context, params domain.Params, procs int) (*domain.Run, error)

	// Finish records the outcome of the current run. A non-nil runErr marks it failed.
	Finish(ctx context.Context, sols domain.Solutions, runErr error) (*domain.Run, error)

	// Current returns a copy of the current run, or nil before Begin
	Current() *domain.Run

	// GetRun looks up a stored run and its solutions
	GetRun(ctx context.Context, runID uuid.UUID) (*domain.Run, domain.Solutions, error)
}
