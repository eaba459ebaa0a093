package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/ciplumber/internal/plumber"
)

var installTimerInterval time.Duration

func init() {
	installTimerCmd.Flags().DurationVar(&installTimerInterval, "interval", 15*time.Minute, "Time between runs")
}

var installTimerCmd = &cobra.Command{
	Use:   "install-timer",
	Short: "Install a systemd user timer that runs ciplumber periodically",
	Long: `Write a oneshot ciplumber.service and a ciplumber.timer to
~/.config/systemd/user, reload systemd, and enable the timer.

The service runs ` + "`ciplumber run`" + ` from the current directory with the
config selected by --config.`,
	Example: `  ciplumber install-timer
  ciplumber install-timer --interval 30m -c /etc/ciplumber/ciplumber.jsonc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := plumber.InstallTimer(plumber.TimerOptions{
			ConfigPath: configFlag,
			Interval:   installTimerInterval,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "installed %s\n", path)
		fmt.Fprintf(cmd.OutOrStdout(), "timer enabled, check with: systemctl --user list-timers %s.timer\n", plumber.UnitName)
		return nil
	},
}
