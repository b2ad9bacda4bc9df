package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/nqueens.net/internal/domain"
)

type RunRepository interface {
	// EnsureSchema creates the tables used by the repository
	EnsureSchema(ctx context.Context) error

	// SaveRun inserts or updates a run
	SaveRun(ctx context.Context, run *domain.Run) error

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, runID uuid.UUID) (*domain.Run, error)

	// SaveSolutions stores the solution set of a run
	SaveSolutions(ctx context.Context, runID uuid.UUID, sols domain.Solutions) error

	// GetSolutions retrieves the solution set of a run
	GetSolutions(ctx context.Context, runID uuid.UUID) (domain.Solutions, error)
}
