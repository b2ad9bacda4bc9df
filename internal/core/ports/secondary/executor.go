package secondary

import (
	"context"
	"time"

	"gitlab.com/nqueens.net/internal/domain"
)

type ExecutorRepository interface {
	// SaveExecutor saves executor information
	SaveExecutor(ctx context.Context, executor *domain.ExecutorInfo) error

	// GetExecutor retrieves executor information by ID
	GetExecutor(ctx context.Context, executorID string) (*domain.ExecutorInfo, error)

	// GetAllExecutors retrieves every known executor
	GetAllExecutors(ctx context.Context) ([]*domain.ExecutorInfo, error)

	// MarkTerminated records that the executor with the given rank acknowledged termination
	MarkTerminated(ctx context.Context, rank domain.Rank, at time.Time) error
}
