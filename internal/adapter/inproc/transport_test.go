package inproc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/static/errs"
)

func TestNewCluster(t *testing.T) {
	eps := NewCluster(3)
	require.Len(t, eps, 3)
	for i, ep := range eps {
		assert.Equal(t, domain.Rank(i), ep.Rank())
		assert.Equal(t, 3, ep.Size())
	}
}

func TestSendCopiesPayload(t *testing.T) {
	eps := NewCluster(2)
	ctx := context.Background()

	values := []uint32{1, 2, 3}
	require.NoError(t, eps[1].Send(ctx, 0, domain.TagWork, values))
	values[0] = 99

	msg, err := eps[0].Recv(ctx, domain.AnySource)
	require.NoError(t, err)
	assert.Equal(t, domain.Rank(1), msg.Source)
	assert.Equal(t, domain.TagWork, msg.Tag)
	assert.Equal(t, []uint32{1, 2, 3}, msg.Payload)
}

func TestSendUnknownRank(t *testing.T) {
	eps := NewCluster(2)
	err := eps[0].Send(context.Background(), 5, domain.TagWork, nil)
	assert.ErrorIs(t, err, errs.UnknownRank)

	_, err = eps[0].Recv(context.Background(), 7)
	assert.ErrorIs(t, err, errs.UnknownRank)
}

func TestBroadcast(t *testing.T) {
	eps := NewCluster(4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got := make([][]uint32, len(eps))
	var wg sync.WaitGroup
	for i, ep := range eps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var in []uint32
			if ep.Rank() == 0 {
				in = []uint32{8, 3}
			}
			out, err := ep.Broadcast(ctx, 0, in)
			assert.NoError(t, err)
			got[i] = out
		}()
	}
	wg.Wait()

	for i := range eps {
		assert.Equal(t, []uint32{8, 3}, got[i], "rank %d", i)
	}
}

func TestCloseFailsReceive(t *testing.T) {
	eps := NewCluster(2)
	eps[1].Close()

	_, err := eps[1].Recv(context.Background(), 0)
	assert.ErrorIs(t, err, errs.TransportClosed)

	err = eps[0].Send(context.Background(), 1, domain.TagWork, nil)
	assert.ErrorIs(t, err, errs.TransportClosed)
}
