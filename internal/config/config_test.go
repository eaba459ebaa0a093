package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

// clearEnv unsets the override variables for the test. A variable that is
// set, even to "", overrides the file.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GITHUB_TOKEN", "CIPLUMBER_REPO", "CIPLUMBER_LOG_LEVEL", "CIPLUMBER_TEAMS_WEBHOOK_URL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Repository.MaxCommitsBehind != 10 {
		t.Errorf("expected max_commits_behind 10, got %d", cfg.Repository.MaxCommitsBehind)
	}
	if cfg.Approvals.MinimumCount != 2 {
		t.Errorf("expected minimum_count 2, got %d", cfg.Approvals.MinimumCount)
	}
	if !cfg.Approvals.CheckRequestedReviewers {
		t.Error("expected check_requested_reviewers to default to true")
	}
	if cfg.Approvals.ChangesRequestedPolicy != "any" {
		t.Errorf("expected changes_requested_policy any, got %s", cfg.Approvals.ChangesRequestedPolicy)
	}
	if cfg.Merge.Method != "squash" {
		t.Errorf("expected merge method squash, got %s", cfg.Merge.Method)
	}
	if cfg.Authors != nil {
		t.Error("expected authors to be unset by default")
	}
}

func TestLoadJSONC(t *testing.T) {
	path := writeFile(t, "test.jsonc", `{
  // This is a JSONC comment
  "labels": {
    "trigger": "automerge"
  },
  "repository": {
    "max_commits_behind": 3
  }
}`)

	m, err := loadJSONC(path)
	if err != nil {
		t.Fatalf("loadJSONC failed: %v", err)
	}

	labels, ok := m["labels"].(map[string]any)
	if !ok {
		t.Fatal("expected labels to be a map")
	}
	if labels["trigger"] != "automerge" {
		t.Errorf("expected trigger=automerge, got %v", labels["trigger"])
	}
}

func TestLoadJSONC_FileNotFound(t *testing.T) {
	_, err := loadJSONC("/nonexistent/path/config.jsonc")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadJSONC_MalformedContent(t *testing.T) {
	path := writeFile(t, "bad.jsonc", `{"labels": {"trigger": "x"`)
	if _, err := loadJSONC(path); err == nil {
		t.Error("expected error for malformed JSONC")
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
github:
  token: ghp_yamltoken
  repo: acme/widgets
repository:
  local_path: /tmp/widgets
  max_commits_behind: 5
labels:
  trigger: ci-plumber
  auto_add:
    - automerge
  categories:
    - prefix: "type:"
      default: "type: chore"
linter:
  fix_command: npm run lint:fix
authors:
  include_token_owner: false
  allowed_users:
    - dependabot[bot]
logging:
  directory: logs
  level: DEBUG
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GitHub.Repo != "acme/widgets" {
		t.Errorf("expected repo acme/widgets, got %s", cfg.GitHub.Repo)
	}
	if cfg.Repository.MaxCommitsBehind != 5 {
		t.Errorf("expected max_commits_behind 5, got %d", cfg.Repository.MaxCommitsBehind)
	}
	if len(cfg.Labels.Categories) != 1 || cfg.Labels.Categories[0].Default != "type: chore" {
		t.Errorf("unexpected categories: %+v", cfg.Labels.Categories)
	}
	if cfg.Authors == nil || cfg.Authors.TokenOwnerIncluded() {
		t.Errorf("expected include_token_owner=false, got %+v", cfg.Authors)
	}
	if got := cfg.Authors.AllowedUsers; len(got) != 1 || got[0] != "dependabot[bot]" {
		t.Errorf("unexpected allowed_users: %v", got)
	}
	// Defaults survive for keys the file did not set.
	if cfg.Linter.CommitMessage != "Fix linter issues (automated by CI Plumber)" {
		t.Errorf("expected default commit message, got %q", cfg.Linter.CommitMessage)
	}
	if cfg.Approvals.MinimumCount != 2 {
		t.Errorf("expected default minimum_count 2, got %d", cfg.Approvals.MinimumCount)
	}
}

func TestMergeIntoConfig_FalseOverridesTrue(t *testing.T) {
	cfg := DefaultConfig()
	src := map[string]any{
		"approvals": map[string]any{"check_requested_reviewers": false},
	}
	if err := mergeIntoConfig(&cfg, src); err != nil {
		t.Fatalf("mergeIntoConfig failed: %v", err)
	}
	if cfg.Approvals.CheckRequestedReviewers {
		t.Error("expected check_requested_reviewers=false after merge")
	}
	if cfg.Approvals.MinimumCount != 2 {
		t.Errorf("expected minimum_count preserved as 2, got %d", cfg.Approvals.MinimumCount)
	}
}

func TestMergeIntoConfig_SliceReplaces(t *testing.T) {
	cfg := DefaultConfig()
	src := map[string]any{
		"linter": map[string]any{"keywords": []any{"stylelint"}},
	}
	if err := mergeIntoConfig(&cfg, src); err != nil {
		t.Fatalf("mergeIntoConfig failed: %v", err)
	}
	if len(cfg.Linter.Keywords) != 1 || cfg.Linter.Keywords[0] != "stylelint" {
		t.Errorf("expected keywords [stylelint], got %v", cfg.Linter.Keywords)
	}
}

func TestLoad_EmptyAuthorsSectionIsPresent(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "c.jsonc", `{
  "github": {"token": "t", "repo": "acme/widgets"},
  "authors": {}
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Authors == nil {
		t.Fatal("expected authors section to be present")
	}
	if !cfg.Authors.TokenOwnerIncluded() {
		t.Error("expected include_token_owner to default to true")
	}
}

func TestLoad_MissingAuthors(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "c.jsonc", `{"github": {"token": "t", "repo": "acme/widgets"}}`)
	_, err := Load(path)
	if !errors.Is(err, ErrMissingAuthors) {
		t.Fatalf("expected ErrMissingAuthors, got %v", err)
	}
}

func TestParse_SkipsValidation(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "c.jsonc", `{"merge": {"method": "octopus"}}`)
	cfg, err := Parse(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Merge.Method != "octopus" {
		t.Errorf("expected merge method octopus, got %s", cfg.Merge.Method)
	}
	if cfg.Validate() == nil {
		t.Error("expected validation to fail")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("CIPLUMBER_REPO", "env/repo")
	path := writeFile(t, "c.jsonc", `{"github": {"token": "file-token", "repo": "file/repo"}, "authors": {}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GitHub.Token != "env-token" {
		t.Errorf("expected env token, got %s", cfg.GitHub.Token)
	}
	if cfg.GitHub.Repo != "env/repo" {
		t.Errorf("expected env repo, got %s", cfg.GitHub.Repo)
	}
}

func TestLoad_EnvLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("CIPLUMBER_LOG_LEVEL", "DEBUG")
	path := writeFile(t, "c.jsonc", `{"github": {"token": "t", "repo": "acme/widgets"}, "authors": {}, "logging": {"level": "ERROR"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected env level DEBUG, got %s", cfg.Logging.Level)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"github.token", "github.repo", "authors"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.GitHub = GitHubConfig{Token: "t", Repo: "acme/widgets"}
		cfg.Authors = &AuthorsConfig{}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing token", mutate: func(c *Config) { c.GitHub.Token = "" }, wantErr: "github.token"},
		{name: "missing repo", mutate: func(c *Config) { c.GitHub.Repo = "" }, wantErr: "github.repo is required"},
		{name: "repo without owner", mutate: func(c *Config) { c.GitHub.Repo = "widgets" }, wantErr: "must be owner/name"},
		{name: "bad webhook", mutate: func(c *Config) { c.Notifications.TeamsWebhookURL = "not a url" }, wantErr: "teams_webhook_url"},
		{name: "webhook ok", mutate: func(c *Config) { c.Notifications.TeamsWebhookURL = "https://example.webhook.office.com/abc" }},
		{name: "missing trigger", mutate: func(c *Config) { c.Labels.Trigger = "" }, wantErr: "labels.trigger"},
		{name: "fix command without path", mutate: func(c *Config) { c.Linter.FixCommand = "make lint" }, wantErr: "repository.local_path"},
		{name: "bad review policy", mutate: func(c *Config) { c.Approvals.ChangesRequestedPolicy = "strict" }, wantErr: "changes_requested_policy"},
		{name: "bad merge method", mutate: func(c *Config) { c.Merge.Method = "octopus" }, wantErr: "merge.method"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "LOUD" }, wantErr: "logging.level"},
		{name: "lowercase level ok", mutate: func(c *Config) { c.Logging.Level = "warning" }},
		{name: "negative quorum", mutate: func(c *Config) { c.Approvals.MinimumCount = -1 }, wantErr: "minimum_count"},
		{name: "incomplete category is skipped, not rejected", mutate: func(c *Config) {
			c.Labels.Categories = []CategoryRule{{Prefix: "type:"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GitHub.Token = "ghp_abcdefghijklmnop"
	cfg.Notifications.TeamsWebhookURL = "https://example.webhook.office.com/abc"

	r := cfg.Redacted()
	if r.GitHub.Token != "ghp_****" {
		t.Errorf("expected masked token, got %s", r.GitHub.Token)
	}
	if strings.Contains(r.Notifications.TeamsWebhookURL, "office.com") {
		t.Errorf("expected masked webhook, got %s", r.Notifications.TeamsWebhookURL)
	}
	if cfg.GitHub.Token != "ghp_abcdefghijklmnop" {
		t.Error("Redacted must not modify the original")
	}
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if got := ResolvePath("custom.jsonc"); got != "custom.jsonc" {
		t.Errorf("explicit path should win, got %s", got)
	}
	if got := ResolvePath(""); got != DefaultPath {
		t.Errorf("expected %s when nothing exists, got %s", DefaultPath, got)
	}

	if err := os.MkdirAll(filepath.Join(dir, "cfg"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, LegacyPath), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := ResolvePath(""); got != LegacyPath {
		t.Errorf("expected legacy path, got %s", got)
	}
}

func TestCloneURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GitHub = GitHubConfig{Token: "tok", Repo: "acme/widgets"}
	if got := cfg.CloneURL(); got != "https://tok@github.com/acme/widgets.git" {
		t.Errorf("unexpected clone url %s", got)
	}
	cfg.Repository.RemoteURL = "/srv/git/widgets.git"
	if got := cfg.CloneURL(); got != "/srv/git/widgets.git" {
		t.Errorf("expected remote_url override, got %s", got)
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	if got := ExpandHome("~/logs"); got != "/home/tester/logs" {
		t.Errorf("unexpected %s", got)
	}
	if got := ExpandHome("/abs/logs"); got != "/abs/logs" {
		t.Errorf("unexpected %s", got)
	}
}

func TestCategoryRuleComplete(t *testing.T) {
	if !(CategoryRule{Prefix: "type:", Default: "type: chore"}).Complete() {
		t.Error("expected complete rule")
	}
	if (CategoryRule{Prefix: "type:"}).Complete() {
		t.Error("expected rule without default to be incomplete")
	}
	if (CategoryRule{Default: "type: chore"}).Complete() {
		t.Error("expected rule without prefix to be incomplete")
	}
}

func TestTokenOwnerIncluded(t *testing.T) {
	if !(AuthorsConfig{}).TokenOwnerIncluded() {
		t.Error("expected default true")
	}
	if (AuthorsConfig{IncludeTokenOwner: boolPtr(false)}).TokenOwnerIncluded() {
		t.Error("expected explicit false")
	}
}
