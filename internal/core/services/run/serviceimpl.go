package run

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/core/ports/secondary"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/static/errs"
)

var _ IRunService = &RunService{}

type RunService struct {
	mu      sync.RWMutex
	current *domain.Run
	repo    secondary.RunRepository
	logger  primary.Logger
}

// NewRunService creates a run service. repo may be nil, in which case runs
// are only tracked in memory.
func NewRunService(repo secondary.RunRepository, logger primary.Logger) *RunService {
	return &RunService{
		repo:   repo,
		logger: logger,
	}
}

func (s *RunService) Begin(ctx context.Context, params domain.Params, procs int) (*domain.Run, error) {
	r := domain.NewRun(params, procs)

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	s.mu.Lock()
	s.current = r
	s.mu.Unlock()

	s.logger.Info("Run started", "runId", r.ID, "n", r.N, "k", r.K, "procs", r.Procs)
	return clone(r), nil
}

func (s *RunService) Finish(ctx context.Context, sols domain.Solutions, runErr error) (*domain.Run, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil, errors.New("no run in progress")
	}
	if runErr != nil {
		s.current.Fail()
	} else {
		s.current.Complete(sols)
	}
	r := clone(s.current)
	s.mu.Unlock()

	if runErr != nil {
		s.logger.Error("Run failed", "runId", r.ID, "error", runErr)
	} else {
		s.logger.Info("Run completed", "runId", r.ID, "solutions", r.SolutionCount,
			"elapsed", r.CompletedAt.Sub(r.StartedAt).String())
	}

	if s.repo == nil {
		return r, nil
	}
	if err := s.repo.SaveRun(ctx, r); err != nil {
		return r, fmt.Errorf("failed to record run outcome: %w", err)
	}
	if runErr == nil {
		if err := s.repo.SaveSolutions(ctx, r.ID, sols); err != nil {
			return r, fmt.Errorf("failed to record solutions: %w", err)
		}
	}
	return r, nil
}

func (s *RunService) Current() *domain.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	return clone(s.current)
}

func (s *RunService) GetRun(ctx context.Context, runID uuid.UUID) (*domain.Run, domain.Solutions, error) {
	if s.repo == nil {
		if cur := s.Current(); cur != nil && cur.ID == runID {
			return cur, domain.Solutions{N: cur.N}, nil
		}
		return nil, domain.Solutions{}, fmt.Errorf("%w: run %s", errs.NotFound, runID)
	}

	r, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, domain.Solutions{}, err
	}
	if r == nil {
		return nil, domain.Solutions{}, fmt.Errorf("%w: run %s", errs.NotFound, runID)
	}

	sols, err := s.repo.GetSolutions(ctx, runID)
	if err != nil {
		return nil, domain.Solutions{}, err
	}
	return r, sols, nil
}

func clone(r *domain.Run) *domain.Run {
	c := *r
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}
