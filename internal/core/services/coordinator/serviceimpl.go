package coordinator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/core/ports/secondary"
	"gitlab.com/nqueens.net/internal/core/services/protocol"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/nqueens"
	"gitlab.com/nqueens.net/internal/static/errs"
)

var _ ICoordinatorService = &CoordinatorService{}

// CoordinatorService implements the coordinator role on rank 0
type CoordinatorService struct {
	transport    primary.Transport
	logger       primary.Logger
	executorRepo secondary.ExecutorRepository

	results domain.ResultBuffer
	n       int

	phase      atomic.Value
	dispatched atomic.Int64
	requests   atomic.Int64
	live       atomic.Int64
	terminated atomic.Int64
	solutions  atomic.Int64
}

// Option configures a CoordinatorService
type Option func(*CoordinatorService)

// WithExecutorRepository records executor terminations in repo
func WithExecutorRepository(repo secondary.ExecutorRepository) Option {
	return func(s *CoordinatorService) {
		s.executorRepo = repo
	}
}

// NewCoordinatorService creates a coordinator bound to the transport of rank 0
func NewCoordinatorService(transport primary.Transport, logger primary.Logger, options ...Option) *CoordinatorService {
	s := &CoordinatorService{
		transport: transport,
		logger:    logger,
	}
	s.phase.Store(PhaseIdle)

	for _, option := range options {
		option(s)
	}
	return s
}

// Run drives one complete run
func (s *CoordinatorService) Run(ctx context.Context, params domain.Params) (domain.Solutions, error) {
	if err := params.Validate(); err != nil {
		return domain.Solutions{}, err
	}
	if s.transport.Rank() != domain.CoordinatorRank {
		return domain.Solutions{}, fmt.Errorf("%w: coordinator must run on rank %d, got %d", errs.UnknownRank, domain.CoordinatorRank, s.transport.Rank())
	}
	if s.transport.Size() < 2 {
		return domain.Solutions{}, fmt.Errorf("%w: at least one executor is required", errs.InvalidParams)
	}

	s.reset(params)

	start := time.Now()
	s.logger.Info("Starting run", "n", params.N, "k", params.K, "executors", s.transport.Size()-1)

	if err := protocol.BroadcastParams(ctx, s.transport, params); err != nil {
		return domain.Solutions{}, err
	}

	s.phase.Store(PhaseDispatching)
	for placement := range nqueens.Placements(domain.NewPlacement(s.n), 0, int(params.K)) {
		if err := s.dispatch(ctx, placement); err != nil {
			return domain.Solutions{}, err
		}
	}
	s.logger.Info("All work dispatched", "units", s.dispatched.Load())

	s.phase.Store(PhaseDraining)
	if err := s.drain(ctx); err != nil {
		return domain.Solutions{}, err
	}
	s.phase.Store(PhaseDone)

	sols := domain.Solutions{N: s.n, Values: s.results.Flush()}
	s.logger.Info("Run completed", "solutions", sols.Count(), "elapsed", time.Since(start).String())
	return sols, nil
}

// reset clears the state of any previous run
func (s *CoordinatorService) reset(params domain.Params) {
	s.n = int(params.N)
	s.results = domain.ResultBuffer{}
	s.phase.Store(PhaseIdle)
	s.dispatched.Store(0)
	s.requests.Store(0)
	s.terminated.Store(0)
	s.solutions.Store(0)
	s.live.Store(int64(s.transport.Size() - 1))
}

// dispatch hands one unit of work to whichever executor asks first
func (s *CoordinatorService) dispatch(ctx context.Context, placement domain.Placement) error {
	req, err := s.nextRequest(ctx)
	if err != nil {
		return err
	}

	if err := protocol.SendWork(ctx, s.transport, req.Source, placement); err != nil {
		return err
	}
	s.dispatched.Add(1)
	s.logger.Debug("Work dispatched", "rank", req.Source, "placement", placement)
	return nil
}

// drain answers every remaining request with termination until every
// executor has acknowledged
func (s *CoordinatorService) drain(ctx context.Context) error {
	for s.live.Load() > 0 {
		req, err := s.nextRequest(ctx)
		if err != nil {
			return err
		}

		if err := protocol.SendTerminate(ctx, s.transport, req.Source); err != nil {
			return err
		}
		if err := protocol.RecvAck(ctx, s.transport, req.Source); err != nil {
			return err
		}

		s.live.Add(-1)
		s.terminated.Add(1)
		s.logger.Info("Executor terminated", "rank", req.Source, "remaining", s.live.Load())
		s.recordTermination(ctx, req.Source)
	}
	return nil
}

// nextRequest receives a request and appends the results it carries before
// any reply is sent
func (s *CoordinatorService) nextRequest(ctx context.Context) (protocol.Request, error) {
	req, err := protocol.RecvRequest(ctx, s.transport)
	if err != nil {
		return protocol.Request{}, err
	}
	s.requests.Add(1)

	if len(req.Results) > 0 {
		s.results.Extend(req.Results)
		s.solutions.Store(int64(s.results.Len() / s.n))
		s.logger.Debug("Results received", "rank", req.Source, "values", len(req.Results))
	}
	return req, nil
}

func (s *CoordinatorService) recordTermination(ctx context.Context, rank domain.Rank) {
	if s.executorRepo == nil {
		return
	}
	if err := s.executorRepo.MarkTerminated(ctx, rank, time.Now()); err != nil {
		s.logger.Warn("Failed to record executor termination", "rank", rank, "error", err)
	}
}

// Stats returns a snapshot of the run's progress
func (s *CoordinatorService) Stats() Stats {
	return Stats{
		Phase:      s.phase.Load().(Phase),
		Dispatched: s.dispatched.Load(),
		Requests:   s.requests.Load(),
		Live:       s.live.Load(),
		Terminated: s.terminated.Load(),
		Solutions:  s.solutions.Load(),
	}
}
