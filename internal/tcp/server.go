// Package tcp carries the coordinator/executor protocol over TCP in a star
// topology. The coordinator listens; every executor holds one connection to
// it.
package tcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/core/ports/secondary"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/mailbox"
	"gitlab.com/nqueens.net/internal/static/errs"
	"gitlab.com/nqueens.net/internal/tcp/connectionmanager"
	"gitlab.com/nqueens.net/internal/tcp/defs"
)

var _ primary.Transport = (*TCPServer)(nil)

// TCPServer accepts executor connections and serves as the coordinator's
// transport once every executor has registered
type TCPServer struct {
	address             string
	size                int
	runID               string
	registrationTimeout time.Duration
	tokens              primary.TokenService
	executors           secondary.ExecutorRepository
	logger              primary.Logger
	listener            net.Listener
	connectionMgr       *connectionmanager.ConnectionManager
	inbox               *mailbox.Mailbox
	ready               chan struct{}
	readyOnce           sync.Once
	stopCh              chan struct{}
	stopOnce            sync.Once
	acked               sync.Map // domain.Rank -> struct{}, set once TerminateAck arrives
	stopping            atomic.Bool
}

// TCPServerOption configures a TCPServer
type TCPServerOption func(*TCPServer)

// WithAddress sets the server address
func WithAddress(address string) TCPServerOption {
	return func(s *TCPServer) {
		s.address = address
	}
}

// WithTokenService requires every registration to carry a token that verifies
func WithTokenService(tokens primary.TokenService) TCPServerOption {
	return func(s *TCPServer) {
		s.tokens = tokens
	}
}

// WithExecutorRepository records every registered executor
func WithExecutorRepository(repo secondary.ExecutorRepository) TCPServerOption {
	return func(s *TCPServer) {
		s.executors = repo
	}
}

// WithRunID tags registry entries with the run they belong to
func WithRunID(runID string) TCPServerOption {
	return func(s *TCPServer) {
		s.runID = runID
	}
}

// WithRegistrationTimeout bounds how long a new connection may take to register
func WithRegistrationTimeout(timeout time.Duration) TCPServerOption {
	return func(s *TCPServer) {
		s.registrationTimeout = timeout
	}
}

// NewTCPServer creates the rank 0 endpoint of a cluster of size processes
func NewTCPServer(size int, logger primary.Logger, options ...TCPServerOption) *TCPServer {
	server := &TCPServer{
		address:             ":9000", // Default address
		size:                size,
		registrationTimeout: defs.InitialRegistrationTimeout,
		logger:              logger,
		connectionMgr:       connectionmanager.NewConnectionManager(size, logger),
		inbox:               mailbox.New(),
		ready:               make(chan struct{}),
		stopCh:              make(chan struct{}),
	}

	// Apply options
	for _, option := range options {
		option(server)
	}

	if size <= 1 {
		server.readyOnce.Do(func() { close(server.ready) })
	}

	return server
}

// Start starts the TCP server
func (s *TCPServer) Start() error {
	var err error
	s.listener, err = net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}

	s.logger.Info("TCP server listening", "address", s.listener.Addr().String(), "executors", s.size-1)

	// Accept connections in a goroutine
	go s.acceptConnections()

	return nil
}

// Addr returns the listening address, or nil before Start
func (s *TCPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// AwaitExecutors blocks until size-1 executors have registered
func (s *TCPServer) AwaitExecutors(ctx context.Context) error {
	select {
	case <-s.ready:
		s.logger.Info("All executors registered", "executors", s.size-1)
		return nil
	case <-s.stopCh:
		return errs.TransportClosed
	case <-ctx.Done():
		return fmt.Errorf("waiting for executors (%d/%d registered): %w",
			s.connectionMgr.Registered(), s.size-1, ctx.Err())
	}
}

// Stop closes the listener and every executor connection
func (s *TCPServer) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.stopping.Store(true)
		close(s.stopCh)

		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				s.logger.Error("Failed to close listener", "error", err)
			}
		}

		s.connectionMgr.CloseAll()
		s.inbox.Close(nil)
	})
	return ctx.Err()
}

// acceptConnections accepts incoming connections
func (s *TCPServer) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				s.logger.Error("Failed to accept connection", "error", err)
				time.Sleep(defs.ConnectionRetryDelay) // Avoid tight loop on error
				continue
			}
		}

		// Handle connection in a goroutine
		go s.handleConnection(conn)
	}
}

// handleConnection registers one executor and then feeds its frames into the
// coordinator's inbox until the connection ends
func (s *TCPServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	peer, err := s.register(conn)
	if err != nil {
		s.logger.Warn("Executor registration rejected", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}
	defer s.connectionMgr.RemoveExecutor(peer.Rank)

	for {
		msgType, payload, err := connectionmanager.ReadMessage(conn)
		if err != nil {
			s.disconnected(peer, err)
			return
		}

		tag, ok := defs.TagOf(msgType)
		if !ok {
			s.logger.Error("Unknown message type", "rank", peer.Rank, "type", msgType)
			peer.SendError(defs.ErrCodeUnknownType, fmt.Sprintf("Unknown message type: %d", msgType))
			continue
		}

		values, err := connectionmanager.DecodeValues(payload)
		if err != nil {
			s.logger.Error("Malformed data frame", "rank", peer.Rank, "error", err)
			s.inbox.Close(fmt.Errorf("rank %d sent a malformed frame: %w", peer.Rank, errs.UnexpectedTag))
			return
		}

		if tag == domain.TagTerminateAck {
			s.acked.Store(peer.Rank, struct{}{})
		}
		s.inbox.Put(domain.Message{Source: peer.Rank, Tag: tag, Payload: values})
	}
}

// register reads the registration frame, checks the token, assigns a rank and
// answers with Registered or Error
func (s *TCPServer) register(conn net.Conn) (*connectionmanager.Peer, error) {
	conn.SetDeadline(time.Now().Add(s.registrationTimeout))

	msgType, payload, err := connectionmanager.ReadControlMessage(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read registration: %w", err)
	}
	if msgType != defs.MsgRegister {
		connectionmanager.SendErrorMessage(conn, defs.ErrCodeRegistrationFailed, "Expected registration")
		return nil, fmt.Errorf("%w: first frame has type %d", errs.RegistrationFailed, msgType)
	}

	var registerData defs.RegistrationData
	if err := json.Unmarshal(payload, &registerData); err != nil || registerData.ExecutorID == "" {
		connectionmanager.SendErrorMessage(conn, defs.ErrCodeRegistrationFailed, "Invalid registration data")
		return nil, fmt.Errorf("%w: invalid registration data", errs.RegistrationFailed)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.registrationTimeout)
	defer cancel()

	if s.tokens != nil {
		valid, err := s.tokens.VerifyToken(ctx, registerData.Token, registerData.ExecutorID)
		if err != nil || !valid {
			connectionmanager.SendErrorMessage(conn, defs.ErrCodeUnauthorized, "Unauthorized")
			return nil, fmt.Errorf("%w: %s", errs.Unauthorized, registerData.ExecutorID)
		}
	}

	peer, ok := s.connectionMgr.RegisterExecutor(registerData.ExecutorID, conn)
	if !ok {
		connectionmanager.SendErrorMessage(conn, defs.ErrCodeClusterFull, "All executor ranks are taken")
		return nil, fmt.Errorf("%w: cluster is full", errs.RegistrationFailed)
	}

	if s.executors != nil {
		info := &domain.ExecutorInfo{
			ID:           registerData.ExecutorID,
			Rank:         peer.Rank,
			RunID:        s.runID,
			IpAddress:    registerData.Ip,
			Status:       domain.ExecutorStatusRegistered,
			RegisteredAt: time.Now(),
		}
		if err := s.executors.SaveExecutor(ctx, info); err != nil {
			s.logger.Warn("Failed to record executor", "executorID", registerData.ExecutorID, "error", err)
		}
	}

	registered, err := json.Marshal(defs.RegisteredData{Rank: int(peer.Rank), Size: s.size})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registration reply: %w", err)
	}
	if err := peer.Send(defs.MsgRegistered, registered); err != nil {
		return nil, err
	}

	// After successful registration, remove timeout
	conn.SetDeadline(time.Time{})

	s.logger.Info("Executor registered",
		"executorID", registerData.ExecutorID,
		"rank", peer.Rank,
		"ip address", registerData.Ip,
	)

	if s.connectionMgr.Registered() == s.size-1 {
		s.readyOnce.Do(func() { close(s.ready) })
	}
	return peer, nil
}

// disconnected handles the end of an executor connection. Leaving after the
// termination handshake is normal; anything earlier fails the run.
func (s *TCPServer) disconnected(peer *connectionmanager.Peer, err error) {
	if s.stopping.Load() {
		return
	}
	if _, ok := s.acked.Load(peer.Rank); ok && errors.Is(err, io.EOF) {
		s.logger.Info("Executor disconnected", "rank", peer.Rank)
		return
	}

	s.logger.Error("Executor connection lost", "rank", peer.Rank, "error", err)
	s.inbox.Close(fmt.Errorf("rank %d disconnected: %w", peer.Rank, errs.TransportClosed))
}

func (s *TCPServer) Rank() domain.Rank {
	return domain.CoordinatorRank
}

func (s *TCPServer) Size() int {
	return s.size
}

// Broadcast sends values to every executor. Only rank 0 can be the root.
func (s *TCPServer) Broadcast(ctx context.Context, root domain.Rank, values []uint32) ([]uint32, error) {
	if root != domain.CoordinatorRank {
		return nil, fmt.Errorf("%w: broadcast root %d", errs.UnknownRank, root)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for r := 1; r < s.size; r++ {
		peer, ok := s.connectionMgr.GetPeer(domain.Rank(r))
		if !ok {
			return nil, fmt.Errorf("rank %d: %w", r, errs.TransportClosed)
		}
		if err := peer.SendValues(defs.MsgBroadcast, values); err != nil {
			return nil, fmt.Errorf("failed to broadcast to rank %d: %w", r, err)
		}
	}
	return slices.Clone(values), nil
}

// Send writes one data message to dest
func (s *TCPServer) Send(ctx context.Context, dest domain.Rank, tag domain.Tag, values []uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dest <= domain.CoordinatorRank || int(dest) >= s.size {
		return fmt.Errorf("%w: %d", errs.UnknownRank, dest)
	}

	peer, ok := s.connectionMgr.GetPeer(dest)
	if !ok {
		return fmt.Errorf("rank %d: %w", dest, errs.TransportClosed)
	}
	if err := peer.SendValues(defs.DataType(tag), values); err != nil {
		return fmt.Errorf("failed to send %s to rank %d: %w", tag, dest, err)
	}
	return nil
}

func (s *TCPServer) Recv(ctx context.Context, from domain.Rank, tags ...domain.Tag) (domain.Message, error) {
	if from != domain.AnySource && (from < 0 || int(from) >= s.size) {
		return domain.Message{}, fmt.Errorf("%w: %d", errs.UnknownRank, from)
	}
	return s.inbox.Take(ctx, from, tags...)
}
