package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/nqueens.net/internal/adapter/crypto"
	"gitlab.com/nqueens.net/internal/core/services/coordinator"
	"gitlab.com/nqueens.net/internal/domain"
	http2 "gitlab.com/nqueens.net/internal/http"
	"gitlab.com/nqueens.net/internal/report"
	"gitlab.com/nqueens.net/internal/tcp"
)

// CoordinatorOptions holds flags for the coordinator command.
type CoordinatorOptions struct {
	SolverOptions
	Listen     string
	StatusPort int
}

// NewCoordinatorCommand creates the coordinator command.
func NewCoordinatorCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CoordinatorOptions{}

	cmd := &cobra.Command{
		Use:   "coordinator",
		Short: "Listen for executors and run the coordinator role",
		Long: `Listen on TCP, wait until procs-1 executors have registered, then hand
out work until the board is exhausted and every executor has acknowledged
termination.

Example:
  nqueens coordinator -n 12 -k 3 -p 5 --listen :9000 --status-port 8082`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoordinator(cmd, rootOpts, opts)
		},
	}

	addSolverFlags(cmd, &opts.SolverOptions)
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (env CLUSTER_LISTEN_ADDR)")
	cmd.Flags().IntVar(&opts.StatusPort, "status-port", 0, "serve the status API on this port (env STATUS_PORT)")
	return cmd
}

func runCoordinator(cmd *cobra.Command, rootOpts *RootOptions, opts *CoordinatorOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := rootOpts.Config
	logger := rootOpts.Logger
	if err := applySolverFlags(cmd, &opts.SolverOptions, cfg.SolverConfig); err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.ClusterConfig.ListenAddr = opts.Listen
	}
	if cmd.Flags().Changed("status-port") {
		cfg.HttpConfig.StatusPort = opts.StatusPort
	}
	params, err := cfg.SolverConfig.Params()
	if err != nil {
		return err
	}
	procs := cfg.SolverConfig.Procs

	// SECONDARY PORTS
	runService, closeDB, err := setupRunService(ctx, cfg.DatabaseConfig, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	registry, closeRedis, err := setupExecutorRegistry(ctx, cfg.RedisConfig, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	current, err := runService.Begin(ctx, params, procs)
	if err != nil {
		return err
	}

	//server
	serverOptions := []tcp.TCPServerOption{
		tcp.WithAddress(cfg.ClusterConfig.ListenAddr),
		tcp.WithRegistrationTimeout(cfg.ClusterConfig.RegistrationTimeout),
		tcp.WithExecutorRepository(registry),
		tcp.WithRunID(current.ID.String()),
	}
	if cfg.JwtConfig.Enabled() {
		serverOptions = append(serverOptions, tcp.WithTokenService(crypto.NewJWTService(cfg.JwtConfig)))
	}
	tcpServer := tcp.NewTCPServer(procs, logger, serverOptions...)
	if err := tcpServer.Start(); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = tcpServer.Stop(stopCtx)
	}()

	svc := coordinator.NewCoordinatorService(tcpServer, logger, coordinator.WithExecutorRepository(registry))

	if cfg.HttpConfig.StatusPort > 0 {
		httpServer := http2.NewServer(cfg.HttpConfig.StatusPort, "nqueens-coordinator",
			*http2.NewServiceProvider(runService, svc, registry), logger)
		if err := httpServer.Init(); err != nil {
			return err
		}
		if err := httpServer.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := httpServer.Stop(stopCtx); err != nil {
				logger.Error("Server forced to shutdown", "error", err)
			}
		}()
	}

	started := time.Now()
	sols, runErr := func() (sols domain.Solutions, err error) {
		if err := tcpServer.AwaitExecutors(ctx); err != nil {
			return sols, fmt.Errorf("cluster incomplete: %w", err)
		}
		return svc.Run(ctx, params)
	}()
	if _, err := runService.Finish(context.WithoutCancel(ctx), sols, runErr); err != nil {
		logger.Error("Failed to record run", "error", err)
	}
	if runErr != nil {
		return runErr
	}

	summary := report.Summary{Params: params, Procs: procs, Elapsed: time.Since(started)}
	return report.Write(cmd.OutOrStdout(), summary, sols, report.Options{Boards: opts.Boards, Limit: opts.Limit})
}
