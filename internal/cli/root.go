// Package cli wires configuration, adapters and services into the nqueens
// commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"gitlab.com/nqueens.net/internal/adapter/logging"
	"gitlab.com/nqueens.net/internal/config"
	logger2 "gitlab.com/nqueens.net/internal/global/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Env     string

	// Config is loaded after the env file, before any subcommand runs.
	Config *config.AppConfig
	Logger *logging.ZapLogger
}

// NewRootCommand creates the root command for the nqueens CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "nqueens",
		Short: "Distributed N-Queens enumerator",
		Long: `Enumerates every solution of the N-Queens problem with one coordinator
and a pool of executors. The coordinator splits the board at depth k and
hands each partial placement to whichever executor asks next.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(opts.Env); err != nil {
				return err
			}

			level := zapcore.InfoLevel
			if opts.Verbose {
				level = zapcore.DebugLevel
			}
			opts.Logger = logging.NewZapLoggerWithLevel(level)
			logger2.SetLogger(opts.Logger)

			opts.Config = config.NewSystemConfig()
			if opts.Config.DebugMode {
				opts.Logger.Debug("Debug mode enabled")
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Env, "env", "", "load <env>.env before reading configuration")

	// Add subcommands
	cmd.AddCommand(NewLocalCommand(opts))
	cmd.AddCommand(NewCoordinatorCommand(opts))
	cmd.AddCommand(NewExecutorCommand(opts))

	return cmd
}

// SolverOptions are the problem flags shared by the local and coordinator commands.
type SolverOptions struct {
	N      int
	K      int
	Procs  int
	Boards bool
	Limit  int
}

func addSolverFlags(cmd *cobra.Command, opts *SolverOptions) {
	cmd.Flags().IntVarP(&opts.N, "n", "n", 8, "board size (env NQUEENS_N)")
	cmd.Flags().IntVarP(&opts.K, "k", "k", 2, "split depth (env NQUEENS_K)")
	cmd.Flags().IntVarP(&opts.Procs, "procs", "p", 4, "processes including the coordinator (env NQUEENS_PROCS)")
	cmd.Flags().BoolVar(&opts.Boards, "boards", false, "draw every listed solution")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "list at most this many solutions (0 lists all)")
}

// applySolverFlags lets explicitly set flags override the environment
func applySolverFlags(cmd *cobra.Command, opts *SolverOptions, cfg *config.SolverConfig) error {
	if cmd.Flags().Changed("n") {
		cfg.N = opts.N
	}
	if cmd.Flags().Changed("k") {
		cfg.K = opts.K
	}
	if cmd.Flags().Changed("procs") {
		cfg.Procs = opts.Procs
	}

	if cfg.N < 0 || cfg.K < 0 {
		return fmt.Errorf("n and k must not be negative (n=%d, k=%d)", cfg.N, cfg.K)
	}
	if cfg.Procs < 2 {
		return fmt.Errorf("procs must be at least 2, got %d", cfg.Procs)
	}
	return nil
}
