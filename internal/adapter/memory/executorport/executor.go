// Package executorport keeps the executor registry in process memory. It is
// the default when no Redis address is configured.
package executorport

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gitlab.com/nqueens.net/internal/core/ports/secondary"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/static/errs"
)

var _ secondary.ExecutorRepository = (*ExecutorRepository)(nil)

type ExecutorRepository struct {
	mu        sync.RWMutex
	executors map[string]domain.ExecutorInfo
	ranks     map[domain.Rank]string
}

func NewExecutorRepository() *ExecutorRepository {
	return &ExecutorRepository{
		executors: make(map[string]domain.ExecutorInfo),
		ranks:     make(map[domain.Rank]string),
	}
}

func (r *ExecutorRepository) SaveExecutor(_ context.Context, executor *domain.ExecutorInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.executors[executor.ID] = *executor
	r.ranks[executor.Rank] = executor.ID
	return nil
}

func (r *ExecutorRepository) GetExecutor(_ context.Context, executorID string) (*domain.ExecutorInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	executor, ok := r.executors[executorID]
	if !ok {
		return nil, nil
	}
	return &executor, nil
}

// GetAllExecutors returns executors ordered by rank
func (r *ExecutorRepository) GetAllExecutors(_ context.Context) ([]*domain.ExecutorInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.ExecutorInfo, 0, len(r.executors))
	for _, executor := range r.executors {
		out = append(out, &executor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

func (r *ExecutorRepository) MarkTerminated(_ context.Context, rank domain.Rank, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.ranks[rank]
	if !ok {
		return fmt.Errorf("%w: executor with rank %d", errs.NotFound, rank)
	}
	executor := r.executors[id]
	executor.Status = domain.ExecutorStatusTerminated
	executor.TerminatedAt = &at
	r.executors[id] = executor
	return nil
}
