package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/nqueens.net/internal/report"
	"gitlab.com/nqueens.net/internal/schedulerengine"
)

// NewLocalCommand creates the local command.
func NewLocalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolverOptions{}

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Run coordinator and executors in this process",
		Long: `Run a whole cluster inside one process. Every executor is a goroutine
that talks to the coordinator only through messages.

Example:
  nqueens local -n 10 -k 3 -p 8
  nqueens local -n 6 --boards`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(cmd, rootOpts, opts)
		},
	}

	addSolverFlags(cmd, opts)
	return cmd
}

func runLocal(cmd *cobra.Command, rootOpts *RootOptions, opts *SolverOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := rootOpts.Config
	logger := rootOpts.Logger
	if err := applySolverFlags(cmd, opts, cfg.SolverConfig); err != nil {
		return err
	}
	params, err := cfg.SolverConfig.Params()
	if err != nil {
		return err
	}

	runService, closeDB, err := setupRunService(ctx, cfg.DatabaseConfig, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	engine, err := schedulerengine.NewLocalEngine(cfg.SolverConfig.Procs, logger)
	if err != nil {
		return err
	}

	started := time.Now()
	if _, err := runService.Begin(ctx, params, cfg.SolverConfig.Procs); err != nil {
		return err
	}

	sols, runErr := engine.Run(ctx, params)
	if _, err := runService.Finish(context.WithoutCancel(ctx), sols, runErr); err != nil {
		logger.Error("Failed to record run", "error", err)
	}
	if runErr != nil {
		return runErr
	}

	summary := report.Summary{Params: params, Procs: cfg.SolverConfig.Procs, Elapsed: time.Since(started)}
	return report.Write(cmd.OutOrStdout(), summary, sols, report.Options{Boards: opts.Boards, Limit: opts.Limit})
}
