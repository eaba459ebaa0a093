package remediate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanmeadows/ciplumber/internal/provider"
)

// Workspace is the local checkout the linter fixer operates on.
type Workspace interface {
	Dir() string
	Acquire(ctx context.Context, fn func(ctx context.Context) error) error
	EnsureCloned(ctx context.Context) (bool, error)
	Fetch(ctx context.Context) error
	Checkout(ctx context.Context, branch string) error
	IsDirty(ctx context.Context) (bool, error)
	StageAll(ctx context.Context) error
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context, branch string) error
}

// FixResult describes what a linter fix attempt did.
type FixResult struct {
	Command Result
	Pushed  bool
}

// LinterFixer checks out a PR branch, runs the configured fix command, and
// pushes any resulting changes back to the branch.
type LinterFixer struct {
	ws            Workspace
	runner        Runner
	command       string
	commitMessage string
	logger        *slog.Logger
}

// NewLinterFixer creates a fixer. logger may be nil.
func NewLinterFixer(ws Workspace, runner Runner, command, commitMessage string, logger *slog.Logger) *LinterFixer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinterFixer{
		ws:            ws,
		runner:        runner,
		command:       command,
		commitMessage: commitMessage,
		logger:        logger,
	}
}

// Fix runs the fix for pr under the workspace lock. The command's exit
// status is logged but does not decide whether a commit happens; only a
// dirty working tree does.
func (f *LinterFixer) Fix(ctx context.Context, pr *provider.PullRequest) (FixResult, error) {
	var result FixResult
	if f.command == "" {
		return result, fmt.Errorf("no linter fix command configured")
	}
	branch := pr.HeadRef

	err := f.ws.Acquire(ctx, func(ctx context.Context) error {
		cloned, err := f.ws.EnsureCloned(ctx)
		if err != nil {
			return err
		}
		if cloned {
			f.logger.Info("repository cloned", "dir", f.ws.Dir())
		} else {
			f.logger.Debug("using existing repository", "dir", f.ws.Dir())
		}

		f.logger.Info("fetching latest changes", "prNumber", pr.Number)
		if err := f.ws.Fetch(ctx); err != nil {
			return err
		}
		f.logger.Info("checking out branch", "branch", branch)
		if err := f.ws.Checkout(ctx, branch); err != nil {
			return err
		}

		f.logger.Info("running linter fix command", "command", f.command)
		res, err := f.runner.Run(ctx, f.ws.Dir(), f.command)
		result.Command = res
		if err != nil {
			return err
		}
		f.logger.Info("linter command finished", "exitCode", res.ExitCode, "stdout", res.Stdout)
		if res.Stderr != "" {
			f.logger.Warn("linter command stderr", "stderr", res.Stderr)
		}

		dirty, err := f.ws.IsDirty(ctx)
		if err != nil {
			return err
		}
		if !dirty {
			f.logger.Info("no linter changes to commit")
			return nil
		}

		f.logger.Info("committing linter fixes")
		if err := f.ws.StageAll(ctx); err != nil {
			return err
		}
		if err := f.ws.Commit(ctx, f.commitMessage); err != nil {
			return err
		}
		f.logger.Info("pushing linter fixes", "branch", branch)
		if err := f.ws.Push(ctx, branch); err != nil {
			return err
		}
		result.Pushed = true
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to fix linter issues for PR #%d: %w", pr.Number, err)
	}
	return result, nil
}
