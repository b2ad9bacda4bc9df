package executor

import (
	"context"
	"sync/atomic"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/core/services/protocol"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/nqueens"
)

var _ IExecutorService = &ExecutorService{}

// ExecutorService implements the executor role on ranks 1..P-1
type ExecutorService struct {
	transport primary.Transport
	logger    primary.Logger

	results   domain.ResultBuffer
	completed atomic.Int64
}

// NewExecutorService creates an executor bound to transport
func NewExecutorService(transport primary.Transport, logger primary.Logger) *ExecutorService {
	return &ExecutorService{
		transport: transport,
		logger:    logger,
	}
}

// Run executes the request loop until termination is acknowledged
func (s *ExecutorService) Run(ctx context.Context) error {
	params, err := protocol.RecvParams(ctx, s.transport)
	if err != nil {
		return err
	}
	n, k := int(params.N), int(params.K)
	s.logger.Info("Executor started", "rank", s.transport.Rank(), "n", n, "k", k)

	first := true
	for {
		if err := s.request(ctx, first); err != nil {
			return err
		}
		first = false

		assignment, err := protocol.RecvAssignment(ctx, s.transport, n)
		if err != nil {
			return err
		}

		if assignment.Terminate {
			if err := protocol.SendAck(ctx, s.transport); err != nil {
				return err
			}
			s.logger.Info("Executor terminated", "rank", s.transport.Rank(), "units", s.completed.Load())
			return nil
		}

		nqueens.Enumerate(assignment.Placement, k, n, s.results.Append)
		s.completed.Add(1)
	}
}

// request flushes the local results together with the next work request
func (s *ExecutorService) request(ctx context.Context, first bool) error {
	if err := protocol.SendRequest(ctx, s.transport, first, s.results.Values()); err != nil {
		return err
	}
	s.results.Flush()
	return nil
}

// Completed returns the number of finished work units
func (s *ExecutorService) Completed() int64 {
	return s.completed.Load()
}
