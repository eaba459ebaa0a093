package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/ciplumber/internal/config"
	"github.com/alanmeadows/ciplumber/internal/logging"
	"github.com/alanmeadows/ciplumber/internal/provider"
	"github.com/alanmeadows/ciplumber/internal/provider/github"
)

// needsConfig marks commands that load and validate the config before running.
const needsConfig = "needs-config"

var (
	verbose    bool
	configFlag string
	appConfig  *config.Config
	closeLog   = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:   "ciplumber",
		Short: "Scheduled bot that keeps labelled pull requests moving toward merge",
		Long: `CI Plumber inspects open pull requests carrying a trigger label, normalizes
their labels, keeps their branches fresh, auto-fixes lint failures, retries
flaky visual-regression checks, and merges them once CI is green and the
approval policy is satisfied.`,
		SilenceUsage: true,
	}

	// newHost builds the hosting-service client. Replaced in tests.
	newHost = func(cfg *config.Config) (provider.Host, error) {
		return github.NewBackend(cfg.GitHub.Repo, cfg.GitHub.Token)
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "",
		fmt.Sprintf("Config file (default %s, falling back to %s)", config.DefaultPath, config.LegacyPath))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		opts := logging.Options{Verbose: verbose}
		if cmd.Annotations[needsConfig] == "true" {
			path := config.ResolvePath(configFlag)
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("loading config %s: %w", path, err)
			}
			appConfig = cfg
			opts.Level = cfg.Logging.Level
			opts.Dir = config.ExpandHome(cfg.Logging.Directory)
		}
		closeFn, err := logging.Setup(opts)
		if err != nil {
			return err
		}
		closeLog = closeFn
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if err := closeLog(); err != nil {
			slog.Warn("failed to close log file", "error", err)
		}
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(prsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(installTimerCmd)
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
