package plumber

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// UnitName is the base name of the systemd service and timer units.
const UnitName = "ciplumber"

// TimerOptions configures the systemd user timer that schedules runs.
type TimerOptions struct {
	// ExecPath is the ciplumber binary. Defaults to the running executable.
	ExecPath string
	// ConfigPath is passed to the binary with --config when set.
	ConfigPath string
	// WorkDir is the service working directory. Defaults to the current directory.
	WorkDir string
	// Interval between the end of one run and the start of the next.
	Interval time.Duration
	// UnitDir overrides ~/.config/systemd/user.
	UnitDir string
}

// systemctl runs systemctl --user. Replaced in tests.
var systemctl = func(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("systemctl %v: %s: %w", args, string(out), err)
	}
	return nil
}

// RenderUnits returns the oneshot service and the timer unit contents.
func RenderUnits(opts TimerOptions) (service, timer string) {
	execStart := opts.ExecPath + " run"
	if opts.ConfigPath != "" {
		execStart += fmt.Sprintf(" --config %s", opts.ConfigPath)
	}

	service = fmt.Sprintf(`[Unit]
Description=CI Plumber pull request pass
After=network-online.target
Wants=network-online.target

[Service]
Type=oneshot
WorkingDirectory=%s
ExecStart=%s
TimeoutStartSec=30min
`, opts.WorkDir, execStart)

	timer = fmt.Sprintf(`[Unit]
Description=Run CI Plumber every %s

[Timer]
OnBootSec=2min
OnUnitInactiveSec=%s
Persistent=true

[Install]
WantedBy=timers.target
`, opts.Interval, systemdSpan(opts.Interval))
	return service, timer
}

// systemdSpan formats d as a systemd time span in whole seconds.
func systemdSpan(d time.Duration) string {
	return fmt.Sprintf("%ds", int64(d/time.Second))
}

// InstallTimer writes the service and timer user units, reloads systemd,
// and enables the timer. It returns the timer unit path.
func InstallTimer(opts TimerOptions) (string, error) {
	if opts.Interval < time.Minute {
		return "", fmt.Errorf("interval %s is too short, minimum is 1m", opts.Interval)
	}
	if opts.ExecPath == "" {
		execPath, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("finding executable path: %w", err)
		}
		opts.ExecPath = execPath
	}
	if opts.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		opts.WorkDir = wd
	}
	if opts.ConfigPath != "" {
		abs, err := filepath.Abs(opts.ConfigPath)
		if err != nil {
			return "", fmt.Errorf("resolving config path: %w", err)
		}
		opts.ConfigPath = abs
	}
	if opts.UnitDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home dir: %w", err)
		}
		opts.UnitDir = filepath.Join(home, ".config", "systemd", "user")
	}
	if err := os.MkdirAll(opts.UnitDir, 0755); err != nil {
		return "", fmt.Errorf("creating systemd directory: %w", err)
	}

	service, timer := RenderUnits(opts)
	servicePath := filepath.Join(opts.UnitDir, UnitName+".service")
	timerPath := filepath.Join(opts.UnitDir, UnitName+".timer")
	if err := os.WriteFile(servicePath, []byte(service), 0644); err != nil {
		return "", fmt.Errorf("writing service unit: %w", err)
	}
	if err := os.WriteFile(timerPath, []byte(timer), 0644); err != nil {
		return "", fmt.Errorf("writing timer unit: %w", err)
	}

	if err := systemctl("daemon-reload"); err != nil {
		return "", err
	}
	if err := systemctl("enable", "--now", UnitName+".timer"); err != nil {
		return "", fmt.Errorf("enabling timer: %w", err)
	}
	return timerPath, nil
}
