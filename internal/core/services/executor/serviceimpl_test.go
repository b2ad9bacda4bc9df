package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/nqueens.net/internal/adapter/inproc"
	"gitlab.com/nqueens.net/internal/adapter/logging"
	"gitlab.com/nqueens.net/internal/core/services/protocol"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/static/errs"
)

// TestRunAgainstScriptedCoordinator plays the coordinator side by hand.
func TestRunAgainstScriptedCoordinator(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	eps := inproc.NewCluster(2)
	coord := eps[0]
	svc := NewExecutorService(eps[1], logging.NewNopLogger())

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	require.NoError(t, protocol.BroadcastParams(ctx, coord, domain.Params{N: 4, K: 1}))

	req, err := protocol.RecvRequest(ctx, coord)
	require.NoError(t, err)
	assert.True(t, req.First)
	assert.Equal(t, domain.Rank(1), req.Source)

	require.NoError(t, protocol.SendWork(ctx, coord, 1, domain.Placement{1, 0, 0, 0}))
	req, err = protocol.RecvRequest(ctx, coord)
	require.NoError(t, err)
	assert.False(t, req.First)
	assert.Equal(t, []uint32{1, 3, 0, 2}, req.Results)

	// No solution starts in the last column of a 4x4 board.
	require.NoError(t, protocol.SendWork(ctx, coord, 1, domain.Placement{3, 0, 0, 0}))
	req, err = protocol.RecvRequest(ctx, coord)
	require.NoError(t, err)
	assert.Empty(t, req.Results, "results already flushed are not sent again")

	require.NoError(t, protocol.SendWork(ctx, coord, 1, domain.Placement{2, 0, 0, 0}))
	req, err = protocol.RecvRequest(ctx, coord)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 0, 3, 1}, req.Results)

	require.NoError(t, protocol.SendTerminate(ctx, coord, 1))
	require.NoError(t, protocol.RecvAck(ctx, coord, 1))

	require.NoError(t, <-errCh)
	assert.Equal(t, int64(3), svc.Completed())
}

func TestRunTerminatedImmediately(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	eps := inproc.NewCluster(2)
	svc := NewExecutorService(eps[1], logging.NewNopLogger())

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	require.NoError(t, protocol.BroadcastParams(ctx, eps[0], domain.Params{N: 8, K: 2}))
	req, err := protocol.RecvRequest(ctx, eps[0])
	require.NoError(t, err)
	require.NoError(t, protocol.SendTerminate(ctx, eps[0], req.Source))
	require.NoError(t, protocol.RecvAck(ctx, eps[0], req.Source))

	require.NoError(t, <-errCh)
	assert.Equal(t, int64(0), svc.Completed())
}

func TestRunFailsOnClosedTransport(t *testing.T) {
	eps := inproc.NewCluster(2)
	eps[1].Close()

	err := NewExecutorService(eps[1], logging.NewNopLogger()).Run(context.Background())
	assert.ErrorIs(t, err, errs.TransportClosed)
}
