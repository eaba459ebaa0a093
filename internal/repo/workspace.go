package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrRemoteMismatch is returned when an existing checkout points at a
// different repository than the one configured.
var ErrRemoteMismatch = errors.New("checkout origin does not match configured repository")

// Identity is the author recorded on automated commits.
type Identity struct {
	Name  string
	Email string
}

// Workspace is the single local working copy used for automated fixes.
// Branch operations must run inside Acquire so that overlapping invocations
// serialize on the checkout.
type Workspace struct {
	dir         string
	remoteURL   string
	identity    Identity
	lockTimeout time.Duration
}

// NewWorkspace creates a handle for the checkout at dir, cloned from remoteURL
// when absent.
func NewWorkspace(dir, remoteURL string, id Identity) *Workspace {
	return &Workspace{
		dir:         filepath.Clean(dir),
		remoteURL:   remoteURL,
		identity:    id,
		lockTimeout: DefaultLockTimeout,
	}
}

// Dir returns the checkout directory.
func (w *Workspace) Dir() string { return w.dir }

// SetLockTimeout overrides DefaultLockTimeout.
func (w *Workspace) SetLockTimeout(d time.Duration) { w.lockTimeout = d }

// Acquire takes an exclusive file lock next to the checkout (<dir>.lock) and
// runs fn while holding it.
func (w *Workspace) Acquire(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := os.MkdirAll(filepath.Dir(w.dir), 0755); err != nil {
		return fmt.Errorf("creating workspace parent: %w", err)
	}
	return withLock(ctx, w.dir+".lock", w.lockTimeout, func() error {
		return fn(ctx)
	})
}

// EnsureCloned clones the repository if the checkout does not exist yet.
// An existing checkout must have an origin matching the configured remote.
func (w *Workspace) EnsureCloned(ctx context.Context) (cloned bool, err error) {
	if _, err := os.Stat(filepath.Join(w.dir, ".git")); err == nil {
		origin, err := getRemoteURL(ctx, w.dir)
		if err != nil {
			return false, err
		}
		if normalizeGitURL(origin) != normalizeGitURL(w.remoteURL) {
			return false, fmt.Errorf("%w: %s has origin %s, want %s",
				ErrRemoteMismatch, w.dir, redactURL(origin), redactURL(w.remoteURL))
		}
		return false, nil
	}

	slog.Info("cloning repository", "dir", w.dir, "remote", redactURL(w.remoteURL))
	cmd := exec.CommandContext(ctx, "git", "clone", w.remoteURL, w.dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return false, fmt.Errorf("git clone %s failed: %s: %w",
			redactURL(w.remoteURL), w.redact(strings.TrimSpace(string(out))), err)
	}
	return true, nil
}

// Fetch updates remote-tracking refs from origin.
func (w *Workspace) Fetch(ctx context.Context) error {
	_, err := w.git(ctx, "fetch", "origin")
	return err
}

// Checkout makes branch the current branch at exactly origin/<branch> as of
// the last Fetch. Uncommitted changes, untracked files and any merge left
// behind by an interrupted run are discarded first, so a branch the author
// force-pushed is taken as-is instead of merged into the stale local copy.
func (w *Workspace) Checkout(ctx context.Context, branch string) error {
	if _, err := w.git(ctx, "reset", "--hard", "--quiet"); err != nil {
		return err
	}
	if _, err := w.git(ctx, "clean", "-fd", "--quiet"); err != nil {
		return err
	}
	_, err := w.git(ctx, "checkout", "--quiet", "-B", branch, "origin/"+branch)
	return err
}

// IsDirty reports whether tracked files have uncommitted modifications.
func (w *Workspace) IsDirty(ctx context.Context) (bool, error) {
	out, err := w.git(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// StageAll stages every change in the working tree.
func (w *Workspace) StageAll(ctx context.Context) error {
	_, err := w.git(ctx, "add", "-A")
	return err
}

// Commit records the staged changes. The workspace identity, when set, is used
// as both author and committer.
func (w *Workspace) Commit(ctx context.Context, message string) error {
	var env []string
	if w.identity.Name != "" {
		env = append(env, "GIT_AUTHOR_NAME="+w.identity.Name, "GIT_COMMITTER_NAME="+w.identity.Name)
	}
	if w.identity.Email != "" {
		env = append(env, "GIT_AUTHOR_EMAIL="+w.identity.Email, "GIT_COMMITTER_EMAIL="+w.identity.Email)
	}
	_, err := w.gitEnv(ctx, env, "commit", "-m", message)
	return err
}

// Push pushes the current HEAD to origin/<branch>.
func (w *Workspace) Push(ctx context.Context, branch string) error {
	_, err := w.git(ctx, "push", "origin", "HEAD:refs/heads/"+branch)
	return err
}

// git runs a git command in the checkout and returns its trimmed stdout.
func (w *Workspace) git(ctx context.Context, args ...string) (string, error) {
	return w.gitEnv(ctx, nil, args...)
}

// gitEnv is git with extra environment variables.
func (w *Workspace) gitEnv(ctx context.Context, env []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = w.dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(strings.TrimSpace(stderr.String()) + "\n" + strings.TrimSpace(stdout.String()))
		return "", fmt.Errorf("git %s failed: %s: %w", strings.Join(args, " "), w.redact(detail), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (w *Workspace) redact(s string) string {
	if w.remoteURL == "" {
		return s
	}
	return strings.ReplaceAll(s, w.remoteURL, redactURL(w.remoteURL))
}
