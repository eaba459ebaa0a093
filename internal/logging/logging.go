package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	slogmulti "github.com/samber/slog-multi"
	"golang.org/x/term"
)

// Options controls logger setup.
type Options struct {
	// Verbose forces debug level regardless of Level.
	Verbose bool
	// Level is one of DEBUG, INFO, WARN/WARNING, ERROR, CRITICAL. Empty means INFO.
	Level string
	// Dir, when set, receives a daily log file named ciplumber-YYYY-MM-DD.log.
	Dir string
	// Now is used to name the daily file. Defaults to time.Now.
	Now func() time.Time
}

// Setup initializes the global slog logger using charmbracelet/log as the backend.
// If the output is a terminal, uses colored text format. Otherwise, uses JSON format.
// The returned close function flushes and closes the log file, if any.
func Setup(opts Options) (func() error, error) {
	level := ParseLevel(opts.Level)
	if opts.Verbose {
		level = charmlog.DebugLevel
	}

	console := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	if !isTerminal() {
		console.SetFormatter(charmlog.JSONFormatter)
	}

	if opts.Dir == "" {
		slog.SetDefault(slog.New(console))
		return func() error { return nil }, nil
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	path := FilePath(opts.Dir, now())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	file := charmlog.NewWithOptions(f, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
		Formatter:       charmlog.LogfmtFormatter,
	})

	slog.SetDefault(slog.New(slogmulti.Fanout(console, file)))
	return f.Close, nil
}

// FilePath returns the daily log file path for t.
func FilePath(dir string, t time.Time) string {
	return filepath.Join(dir, "ciplumber-"+t.Format(time.DateOnly)+".log")
}

// ParseLevel maps a configured level name onto a charm log level.
// Unknown names fall back to info.
func ParseLevel(name string) charmlog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return charmlog.DebugLevel
	case "WARN", "WARNING":
		return charmlog.WarnLevel
	case "ERROR", "CRITICAL":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
