package tcp

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/nqueens.net/internal/adapter/crypto"
	"gitlab.com/nqueens.net/internal/adapter/logging"
	memoryexecutors "gitlab.com/nqueens.net/internal/adapter/memory/executorport"
	"gitlab.com/nqueens.net/internal/config"
	"gitlab.com/nqueens.net/internal/core/services/coordinator"
	"gitlab.com/nqueens.net/internal/core/services/executor"
	"gitlab.com/nqueens.net/internal/core/services/protocol"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/nqueens"
	"gitlab.com/nqueens.net/internal/static/errs"
	"gitlab.com/nqueens.net/internal/tcp/connectionmanager"
	"gitlab.com/nqueens.net/internal/tcp/defs"
)

func startServer(t *testing.T, size int, options ...TCPServerOption) *TCPServer {
	options = append([]TCPServerOption{WithAddress("127.0.0.1:0")}, options...)
	server := NewTCPServer(size, logging.NewNopLogger(), options...)
	require.NoError(t, server.Start())
	t.Cleanup(func() { _ = server.Stop(context.Background()) })
	return server
}

func TestRunOverTCP(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const procs = 4
	registry := memoryexecutors.NewExecutorRepository()
	server := startServer(t, procs, WithExecutorRepository(registry), WithRunID("run-1"))

	var wg sync.WaitGroup
	execErrs := make([]error, procs-1)
	for i := 0; i < procs-1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client, err := Dial(ctx, server.Addr().String(), logging.NewNopLogger())
			if err != nil {
				execErrs[i] = err
				return
			}
			defer client.Close()
			execErrs[i] = executor.NewExecutorService(client, logging.NewNopLogger()).Run(ctx)
		}(i)
	}

	require.NoError(t, server.AwaitExecutors(ctx))

	svc := coordinator.NewCoordinatorService(server, logging.NewNopLogger(), coordinator.WithExecutorRepository(registry))
	sols, err := svc.Run(ctx, domain.Params{N: 7, K: 2})
	require.NoError(t, err)

	wg.Wait()
	for _, err := range execErrs {
		assert.NoError(t, err)
	}

	assert.Equal(t, nqueens.Solve(7).Sorted(), sols.Sorted())

	executors, err := registry.GetAllExecutors(ctx)
	require.NoError(t, err)
	require.Len(t, executors, procs-1)
	for i, info := range executors {
		assert.Equal(t, domain.Rank(i+1), info.Rank)
		assert.Equal(t, "run-1", info.RunID)
		assert.Equal(t, domain.ExecutorStatusTerminated, info.Status)
	}
}

func TestRegistrationRequiresValidToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens := crypto.NewJWTService(&config.JwtConfig{Secret: "cluster-secret", TokenTTL: time.Minute})
	server := startServer(t, 2, WithTokenService(tokens))

	_, err := Dial(ctx, server.Addr().String(), logging.NewNopLogger(), WithExecutorID("exec-1"), WithToken("garbage"))
	assert.ErrorIs(t, err, errs.Unauthorized)

	token, err := tokens.GenerateToken(ctx, "exec-1")
	require.NoError(t, err)

	_, err = Dial(ctx, server.Addr().String(), logging.NewNopLogger(), WithExecutorID("exec-2"), WithToken(token))
	assert.ErrorIs(t, err, errs.Unauthorized, "token is bound to its executor id")

	client, err := Dial(ctx, server.Addr().String(), logging.NewNopLogger(), WithExecutorID("exec-1"), WithToken(token))
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, domain.Rank(1), client.Rank())
	assert.Equal(t, 2, client.Size())
	require.NoError(t, server.AwaitExecutors(ctx))
}

func TestRegistrationRejectedWhenFull(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server := startServer(t, 2)

	client, err := Dial(ctx, server.Addr().String(), logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	_, err = Dial(ctx, server.Addr().String(), logging.NewNopLogger())
	assert.ErrorIs(t, err, errs.RegistrationFailed)
}

func TestAwaitExecutorsHonoursContext(t *testing.T) {
	server := startServer(t, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := server.AwaitExecutors(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientOnlyReachesCoordinator(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server := startServer(t, 3)
	client, err := Dial(ctx, server.Addr().String(), logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	err = client.Send(ctx, 2, domain.TagWork, []uint32{0})
	assert.ErrorIs(t, err, errs.UnknownRank)

	_, err = client.Recv(ctx, 2)
	assert.ErrorIs(t, err, errs.UnknownRank)
}

func TestExecutorDisconnectBeforeAckFailsCoordinator(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server := startServer(t, 2)
	client, err := Dial(ctx, server.Addr().String(), logging.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, server.AwaitExecutors(ctx))

	require.NoError(t, client.Close())

	_, err = server.Recv(ctx, domain.AnySource)
	assert.ErrorIs(t, err, errs.TransportClosed)
}

func TestResultFlushLargerThanOneFrame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	server := startServer(t, 2)
	client, err := Dial(ctx, server.Addr().String(), logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, server.AwaitExecutors(ctx))

	results := make([]uint32, defs.MaxFramePayload/4+16)
	for i := range results {
		results[i] = uint32(i % 16)
	}

	sent := make(chan error, 1)
	go func() { sent <- protocol.SendRequest(ctx, client, false, results) }()

	req, err := protocol.RecvRequest(ctx, server)
	require.NoError(t, err)
	require.NoError(t, <-sent)

	assert.Equal(t, domain.Rank(1), req.Source)
	assert.False(t, req.First)
	require.Len(t, req.Results, len(results))
	assert.Equal(t, results, req.Results)
}

func TestUnknownFrameTypeAnsweredWithError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server := startServer(t, 2)
	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	registration, err := json.Marshal(defs.RegistrationData{ExecutorID: "raw"})
	require.NoError(t, err)
	require.NoError(t, connectionmanager.SendMessage(conn, defs.MsgRegister, registration))
	msgType, _, err := connectionmanager.ReadControlMessage(conn)
	require.NoError(t, err)
	require.Equal(t, defs.MsgRegistered, msgType)
	require.NoError(t, server.AwaitExecutors(ctx))

	require.NoError(t, connectionmanager.SendMessage(conn, 0x7F, nil))
	msgType, payload, err := connectionmanager.ReadMessage(conn)
	require.NoError(t, err)
	assert.Equal(t, defs.MsgError, msgType)
	assert.Equal(t, defs.ErrCodeUnknownType, connectionmanager.DecodeError(payload).Code)

	require.NoError(t, connectionmanager.SendValues(conn, defs.DataType(domain.TagFirstRequest), []uint32{0}))
	msg, err := server.Recv(ctx, domain.AnySource, domain.TagFirstRequest)
	require.NoError(t, err)
	assert.Equal(t, domain.Rank(1), msg.Source)
}
