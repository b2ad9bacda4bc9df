package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gitlab.com/nqueens.net/internal/adapter/crypto"
	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/core/services/executor"
	"gitlab.com/nqueens.net/internal/static/errs"
	"gitlab.com/nqueens.net/internal/tcp"
	"gitlab.com/nqueens.net/internal/tcp/defs"
)

// ExecutorOptions holds flags for the executor command.
type ExecutorOptions struct {
	Connect string
	ID      string
}

// NewExecutorCommand creates the executor command.
func NewExecutorCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecutorOptions{}

	cmd := &cobra.Command{
		Use:   "executor",
		Short: "Connect to a coordinator and run the executor role",
		Long: `Register with a coordinator, then keep asking for work until the
coordinator answers with termination.

Example:
  nqueens executor --connect coordinator.local:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecutor(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Connect, "connect", "", "coordinator address (env CLUSTER_COORDINATOR_ADDR)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "executor id (random when empty)")
	return cmd
}

func runExecutor(cmd *cobra.Command, rootOpts *RootOptions, opts *ExecutorOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := rootOpts.Config
	logger := rootOpts.Logger
	if cmd.Flags().Changed("connect") {
		cfg.ClusterConfig.CoordinatorAddr = opts.Connect
	}

	executorID := opts.ID
	if executorID == "" {
		executorID = uuid.NewString()
	}

	dialOptions := []tcp.ClientOption{tcp.WithExecutorID(executorID)}
	if cfg.JwtConfig.Enabled() {
		token, err := crypto.NewJWTService(cfg.JwtConfig).GenerateToken(ctx, executorID)
		if err != nil {
			return err
		}
		dialOptions = append(dialOptions, tcp.WithToken(token))
	}

	client, err := dialCoordinator(ctx, cfg.ClusterConfig.CoordinatorAddr, logger, dialOptions...)
	if err != nil {
		return err
	}
	defer client.Close()

	svc := executor.NewExecutorService(client, logger)
	if err := svc.Run(ctx); err != nil {
		return err
	}

	logger.Info("Executor finished", "executorID", executorID, "rank", client.Rank(), "units", svc.Completed())
	return nil
}

// dialCoordinator retries until the coordinator accepts the connection. A
// rejected registration is final.
func dialCoordinator(ctx context.Context, addr string, logger primary.Logger, options ...tcp.ClientOption) (*tcp.TCPClient, error) {
	for {
		client, err := tcp.Dial(ctx, addr, logger, options...)
		if err == nil {
			return client, nil
		}
		if errors.Is(err, errs.Unauthorized) || errors.Is(err, errs.RegistrationFailed) {
			return nil, err
		}

		logger.Warn("Coordinator not reachable, retrying", "addr", addr, "error", err)
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(defs.ConnectionRetryDelay):
		}
	}
}
