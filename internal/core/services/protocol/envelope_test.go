package protocol

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/nqueens.net/internal/adapter/inproc"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/static/errs"
)

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestFirstRequest(t *testing.T) {
	eps := inproc.NewCluster(2)
	ctx := testContext(t)

	require.NoError(t, SendRequest(ctx, eps[1], true, []uint32{5, 5}))

	req, err := RecvRequest(ctx, eps[0])
	require.NoError(t, err)
	assert.Equal(t, domain.Rank(1), req.Source)
	assert.True(t, req.First)
	assert.Empty(t, req.Results)
}

func TestRepeatRequestCarriesResults(t *testing.T) {
	eps := inproc.NewCluster(3)
	ctx := testContext(t)

	require.NoError(t, SendRequest(ctx, eps[2], false, []uint32{1, 3, 0, 2}))
	require.NoError(t, SendRequest(ctx, eps[1], false, nil))

	req, err := RecvRequest(ctx, eps[0])
	require.NoError(t, err)
	assert.Equal(t, domain.Rank(2), req.Source)
	assert.False(t, req.First)
	assert.Equal(t, []uint32{1, 3, 0, 2}, req.Results)

	req, err = RecvRequest(ctx, eps[0])
	require.NoError(t, err)
	assert.Equal(t, domain.Rank(1), req.Source)
	assert.Empty(t, req.Results)
}

func TestRecvRequestRejectsBadCount(t *testing.T) {
	eps := inproc.NewCluster(2)
	ctx := testContext(t)

	require.NoError(t, eps[1].Send(ctx, 0, domain.TagRepeatRequest, []uint32{3}))
	require.NoError(t, eps[1].Send(ctx, 0, domain.TagRepeatRequest, []uint32{1}))

	_, err := RecvRequest(ctx, eps[0])
	assert.ErrorIs(t, err, errs.UnexpectedTag)
}

func TestAssignment(t *testing.T) {
	eps := inproc.NewCluster(2)
	ctx := testContext(t)

	require.NoError(t, SendWork(ctx, eps[0], 1, domain.Placement{2, 0, 0, 0}))
	require.NoError(t, SendTerminate(ctx, eps[0], 1))

	a, err := RecvAssignment(ctx, eps[1], 4)
	require.NoError(t, err)
	assert.False(t, a.Terminate)
	assert.Equal(t, domain.Placement{2, 0, 0, 0}, a.Placement)

	a, err = RecvAssignment(ctx, eps[1], 4)
	require.NoError(t, err)
	assert.True(t, a.Terminate)
}

func TestAssignmentWrongLength(t *testing.T) {
	eps := inproc.NewCluster(2)
	ctx := testContext(t)

	require.NoError(t, SendWork(ctx, eps[0], 1, domain.Placement{2, 0}))
	_, err := RecvAssignment(ctx, eps[1], 4)
	assert.ErrorIs(t, err, errs.UnexpectedTag)
}

func TestAck(t *testing.T) {
	eps := inproc.NewCluster(3)
	ctx := testContext(t)

	require.NoError(t, SendAck(ctx, eps[2]))
	require.NoError(t, RecvAck(ctx, eps[0], 2))
}

func TestParams(t *testing.T) {
	eps := inproc.NewCluster(2)
	ctx := testContext(t)

	require.NoError(t, BroadcastParams(ctx, eps[0], domain.Params{N: 8, K: 3}))
	params, err := RecvParams(ctx, eps[1])
	require.NoError(t, err)
	assert.Equal(t, domain.Params{N: 8, K: 3}, params)
}
