package repo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gitEnv gives test commits a stable identity regardless of the host config.
func gitEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GIT_AUTHOR_NAME", "Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@test.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@test.com")
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(out))
	return strings.TrimSpace(string(out))
}

// newOrigin creates a bare repository with a main branch and a feature
// branch that adds lint.txt. It returns the bare repository path.
func newOrigin(t *testing.T) string {
	t.Helper()
	gitEnv(t)
	root := t.TempDir()
	seed := filepath.Join(root, "seed")
	bare := filepath.Join(root, "origin.git")
	require.NoError(t, os.MkdirAll(seed, 0755))

	runGit(t, seed, "init")
	require.NoError(t, os.WriteFile(filepath.Join(seed, "README.md"), []byte("hello\n"), 0644))
	runGit(t, seed, "add", "README.md")
	runGit(t, seed, "commit", "-m", "initial")
	runGit(t, seed, "branch", "-M", "main")
	runGit(t, seed, "checkout", "-b", "feature")
	require.NoError(t, os.WriteFile(filepath.Join(seed, "lint.txt"), []byte("bad  spacing\n"), 0644))
	runGit(t, seed, "add", "lint.txt")
	runGit(t, seed, "commit", "-m", "add lint target")
	runGit(t, root, "clone", "--bare", seed, bare)
	return bare
}

func TestNormalizeGitURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://github.com/Acme/Widgets.git", "github.com/acme/widgets"},
		{"https://ghp_secret@github.com/acme/widgets.git", "github.com/acme/widgets"},
		{"git@github.com:acme/widgets.git", "github.com/acme/widgets"},
		{"https://github.com/acme/widgets/", "github.com/acme/widgets"},
		{"/srv/git/widgets.git", "/srv/git/widgets"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeGitURL(tt.input))
		})
	}
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://redacted@github.com/acme/widgets.git", redactURL("https://ghp_secret@github.com/acme/widgets.git"))
	assert.Equal(t, "/srv/git/widgets.git", redactURL("/srv/git/widgets.git"))
}

func TestWorkspace_EnsureCloned(t *testing.T) {
	bare := newOrigin(t)
	dir := filepath.Join(t.TempDir(), "checkout")
	ws := NewWorkspace(dir, bare, Identity{})

	cloned, err := ws.EnsureCloned(t.Context())
	require.NoError(t, err)
	assert.True(t, cloned)
	assert.FileExists(t, filepath.Join(dir, "README.md"))

	cloned, err = ws.EnsureCloned(t.Context())
	require.NoError(t, err)
	assert.False(t, cloned, "existing checkout is reused")
}

func TestWorkspace_EnsureCloned_RemoteMismatch(t *testing.T) {
	bare := newOrigin(t)
	other := newOrigin(t)
	dir := filepath.Join(t.TempDir(), "checkout")

	_, err := NewWorkspace(dir, bare, Identity{}).EnsureCloned(t.Context())
	require.NoError(t, err)

	_, err = NewWorkspace(dir, other, Identity{}).EnsureCloned(t.Context())
	assert.ErrorIs(t, err, ErrRemoteMismatch)
}

// rewriteBranch replaces branch on the bare origin with a single commit on
// top of main that writes lint.txt, as an author force-push would.
func rewriteBranch(t *testing.T, bare, branch, content string) string {
	t.Helper()
	clone := filepath.Join(t.TempDir(), "author")
	runGit(t, filepath.Dir(clone), "clone", "--quiet", bare, clone)
	runGit(t, clone, "checkout", "-B", branch, "origin/main")
	require.NoError(t, os.WriteFile(filepath.Join(clone, "lint.txt"), []byte(content), 0644))
	runGit(t, clone, "add", "lint.txt")
	runGit(t, clone, "commit", "-m", "rewrite "+branch)
	runGit(t, clone, "push", "--force", "origin", branch)
	return runGit(t, bare, "rev-parse", "refs/heads/"+branch)
}

func TestWorkspace_FixCommitPush(t *testing.T) {
	bare := newOrigin(t)
	dir := filepath.Join(t.TempDir(), "checkout")
	ws := NewWorkspace(dir, bare, Identity{Name: "CI Plumber", Email: "bot@example.com"})
	ctx := t.Context()

	err := ws.Acquire(ctx, func(ctx context.Context) error {
		if _, err := ws.EnsureCloned(ctx); err != nil {
			return err
		}
		require.NoError(t, ws.Fetch(ctx))
		require.NoError(t, ws.Checkout(ctx, "feature"))
		assert.Equal(t, "feature", runGit(t, dir, "rev-parse", "--abbrev-ref", "HEAD"))

		dirty, err := ws.IsDirty(ctx)
		require.NoError(t, err)
		assert.False(t, dirty)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "lint.txt"), []byte("bad spacing\n"), 0644))
		dirty, err = ws.IsDirty(ctx)
		require.NoError(t, err)
		assert.True(t, dirty)

		require.NoError(t, ws.StageAll(ctx))
		require.NoError(t, ws.Commit(ctx, "Fix linter issues (automated by CI Plumber)"))
		return ws.Push(ctx, "feature")
	})
	require.NoError(t, err)

	assert.Equal(t, runGit(t, dir, "rev-parse", "HEAD"), runGit(t, bare, "rev-parse", "refs/heads/feature"))
	assert.Equal(t, "CI Plumber <bot@example.com>", runGit(t, bare, "log", "-1", "--format=%an <%ae>", "feature"))
}

func TestWorkspace_CheckoutSwitchesBranches(t *testing.T) {
	bare := newOrigin(t)
	dir := filepath.Join(t.TempDir(), "checkout")
	ws := NewWorkspace(dir, bare, Identity{})
	ctx := t.Context()

	_, err := ws.EnsureCloned(ctx)
	require.NoError(t, err)
	require.NoError(t, ws.Checkout(ctx, "feature"))
	require.NoError(t, ws.Checkout(ctx, "main"))
	require.NoError(t, ws.Checkout(ctx, "feature"))

	assert.Equal(t, "feature", runGit(t, dir, "rev-parse", "--abbrev-ref", "HEAD"))
	assert.Equal(t, "origin/feature", runGit(t, dir, "rev-parse", "--abbrev-ref", "feature@{upstream}"))
}

func TestWorkspace_CheckoutDiscardsLeftovers(t *testing.T) {
	bare := newOrigin(t)
	dir := filepath.Join(t.TempDir(), "checkout")
	ws := NewWorkspace(dir, bare, Identity{})
	ctx := t.Context()

	_, err := ws.EnsureCloned(ctx)
	require.NoError(t, err)
	require.NoError(t, ws.Checkout(ctx, "feature"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lint.txt"), []byte("half fixed\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("tmp\n"), 0644))

	require.NoError(t, ws.Checkout(ctx, "feature"))
	assert.Empty(t, runGit(t, dir, "status", "--porcelain"))
	assert.NoFileExists(t, filepath.Join(dir, "scratch.txt"))
}

func TestWorkspace_CheckoutTakesForcePushedBranch(t *testing.T) {
	bare := newOrigin(t)
	dir := filepath.Join(t.TempDir(), "checkout")
	ws := NewWorkspace(dir, bare, Identity{})
	ctx := t.Context()

	_, err := ws.EnsureCloned(ctx)
	require.NoError(t, err)
	require.NoError(t, ws.Checkout(ctx, "feature"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lint.txt"), []byte("bot fix\n"), 0644))
	require.NoError(t, ws.StageAll(ctx))
	require.NoError(t, ws.Commit(ctx, "bot fix"))
	require.NoError(t, ws.Push(ctx, "feature"))

	rewritten := rewriteBranch(t, bare, "feature", "author rewrite\n")

	require.NoError(t, ws.Fetch(ctx))
	require.NoError(t, ws.Checkout(ctx, "feature"))
	assert.Equal(t, rewritten, runGit(t, dir, "rev-parse", "HEAD"))
	data, err := os.ReadFile(filepath.Join(dir, "lint.txt"))
	require.NoError(t, err)
	assert.Equal(t, "author rewrite\n", string(data))
}

func TestWorkspace_CheckoutRecoversFromConflictedMerge(t *testing.T) {
	bare := newOrigin(t)
	dir := filepath.Join(t.TempDir(), "checkout")
	ws := NewWorkspace(dir, bare, Identity{})
	ctx := t.Context()

	_, err := ws.EnsureCloned(ctx)
	require.NoError(t, err)
	require.NoError(t, ws.Checkout(ctx, "feature"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lint.txt"), []byte("local\n"), 0644))
	require.NoError(t, ws.StageAll(ctx))
	require.NoError(t, ws.Commit(ctx, "local change"))

	rewritten := rewriteBranch(t, bare, "feature", "remote\n")
	require.NoError(t, ws.Fetch(ctx))

	// Leave the checkout mid-merge, as an older run could have.
	_, err = ws.git(ctx, "merge", "--no-edit", "origin/feature")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFLICT", "stdout is part of the error")
	require.FileExists(t, filepath.Join(dir, ".git", "MERGE_HEAD"))

	require.NoError(t, ws.Checkout(ctx, "main"))
	assert.NoFileExists(t, filepath.Join(dir, ".git", "MERGE_HEAD"))
	assert.Empty(t, runGit(t, dir, "status", "--porcelain"))

	require.NoError(t, ws.Checkout(ctx, "feature"))
	assert.Equal(t, rewritten, runGit(t, dir, "rev-parse", "HEAD"))
}

func TestWorkspace_CheckoutUnknownBranch(t *testing.T) {
	bare := newOrigin(t)
	dir := filepath.Join(t.TempDir(), "checkout")
	ws := NewWorkspace(dir, bare, Identity{})

	_, err := ws.EnsureCloned(t.Context())
	require.NoError(t, err)
	err = ws.Checkout(t.Context(), "does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "origin/does-not-exist")
}

func TestWorkspace_AcquireTimesOut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkout")
	ws := NewWorkspace(dir, "unused", Identity{})
	ws.SetLockTimeout(200 * time.Millisecond)

	held := flock.New(dir + ".lock")
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	ran := false
	err = ws.Acquire(t.Context(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, ran)
}

func TestWorkspace_GitErrorRedactsCredentials(t *testing.T) {
	t.Setenv("GIT_TERMINAL_PROMPT", "0")
	dir := filepath.Join(t.TempDir(), "checkout")
	ws := NewWorkspace(dir, "https://ghp_secret@127.0.0.1:1/acme/widgets.git", Identity{})

	_, err := ws.EnsureCloned(t.Context())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "ghp_secret")
}
