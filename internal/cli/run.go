package cli

import (
	"github.com/spf13/cobra"

	"github.com/alanmeadows/ciplumber/internal/plumber"
)

var runDryRun bool

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Evaluate everything but make no changes")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one pass over the labelled pull requests",
	Long: `Run a single pass: find open PRs with the trigger label from allowed authors,
normalize labels, update stale branches, remediate known CI failures, and
merge every PR the approval policy allows.

Meant to be invoked periodically (see install-timer). Errors on individual
PRs are logged and do not fail the run.`,
	Example: `  ciplumber run
  ciplumber run --dry-run -v
  ciplumber run -c cfg/config.yaml`,
	Annotations: map[string]string{needsConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		host, err := newHost(appConfig)
		if err != nil {
			return err
		}
		runner, err := plumber.New(appConfig, host, plumber.Options{
			DryRun: runDryRun,
			Out:    cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		_, err = runner.Run(cmd.Context())
		return err
	},
}
