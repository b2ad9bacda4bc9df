package http

// this is entry point of the coordinator status API

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/core/ports/secondary"
	"gitlab.com/nqueens.net/internal/core/services/run"
	"gitlab.com/nqueens.net/internal/handlers"
	"gitlab.com/nqueens.net/internal/handlers/executors"
	"gitlab.com/nqueens.net/internal/handlers/runs"
)

type ServiceProvider struct {
	runService run.IRunService
	stats      runs.StatsSource
	executors  secondary.ExecutorRepository
}

func NewServiceProvider(
	runService run.IRunService,
	stats runs.StatsSource,
	executors secondary.ExecutorRepository,
) *ServiceProvider {
	return &ServiceProvider{
		runService: runService,
		stats:      stats,
		executors:  executors,
	}
}

type Server struct {
	router          *mux.Router
	Port            int
	ServiceName     string
	ServiceProvider ServiceProvider
	logger          primary.Logger
	srv             *http.Server
}

func NewServer(port int, serviceName string, serviceProvider ServiceProvider, logger primary.Logger) *Server {
	return &Server{
		Port:            port,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		logger:          logger,
	}
}

func (s *Server) Init() error {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods("GET")
	runs.
		NewRunHandler(s.ServiceProvider.runService, s.ServiceProvider.stats, s.logger).
		RegisterRoutes(r)
	executors.NewHandler(s.ServiceProvider.executors, s.logger).Register(r)
	s.router = r
	return nil
}

// Handler returns the routed handler. Init must be called first.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	handlers.ResponseWithJson(w, http.StatusOK, map[string]string{"status": "ok", "service": s.ServiceName})
}

// Start listens on the configured port and serves in a goroutine
func (s *Server) Start(ctx context.Context) error {
	// Set up server
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	listener, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to start http server: %w", err)
	}

	// Start the server in a goroutine
	go func() {
		s.logger.Info("Server listening", "addr", listener.Addr().String())
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down http server...")
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
