package schedulerengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"gitlab.com/nqueens.net/internal/adapter/inproc"
	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/core/services/coordinator"
	"gitlab.com/nqueens.net/internal/core/services/executor"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/static/errs"
)

// LocalEngine runs a whole cluster inside the current process: one goroutine
// per role in an errgroup, wired through an in-process transport.
type LocalEngine struct {
	logger      primary.Logger
	endpoints   []*inproc.Endpoint
	coordinator *coordinator.CoordinatorService
	executors   []*executor.ExecutorService
	started     atomic.Bool
}

// NewLocalEngine prepares a cluster of procs ranks (one coordinator, procs-1 executors)
func NewLocalEngine(procs int, logger primary.Logger, options ...coordinator.Option) (*LocalEngine, error) {
	if procs < 2 {
		return nil, fmt.Errorf("%w: need at least 2 processes, got %d", errs.InvalidParams, procs)
	}

	endpoints := inproc.NewCluster(procs)
	e := &LocalEngine{
		logger:      logger,
		endpoints:   endpoints,
		coordinator: coordinator.NewCoordinatorService(endpoints[0], logger, options...),
	}
	for _, ep := range endpoints[1:] {
		e.executors = append(e.executors, executor.NewExecutorService(ep, logger))
	}
	return e, nil
}

// Coordinator exposes the coordinator, e.g. for status reporting
func (e *LocalEngine) Coordinator() *coordinator.CoordinatorService {
	return e.coordinator
}

// Run executes the cluster once. A failing role cancels the group so no
// goroutine is left blocked; every role error is returned joined.
func (e *LocalEngine) Run(ctx context.Context, params domain.Params) (domain.Solutions, error) {
	if !e.started.CompareAndSwap(false, true) {
		return domain.Solutions{}, errors.New("local engine already started")
	}

	var (
		mu       sync.Mutex
		failures []error
	)
	fail := func(err error) error {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
		e.logger.Error("Role failed", "error", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, ex := range e.executors {
		rank := e.endpoints[i+1].Rank()
		g.Go(func() error {
			if err := ex.Run(gctx); err != nil {
				return fail(fmt.Errorf("executor rank %d: %w", rank, err))
			}
			return nil
		})
	}

	var sols domain.Solutions
	g.Go(func() error {
		var err error
		if sols, err = e.coordinator.Run(gctx, params); err != nil {
			return fail(fmt.Errorf("coordinator: %w", err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.Solutions{}, errors.Join(failures...)
	}
	return sols, nil
}
