package config

// Config is the top-level ciplumber configuration.
type Config struct {
	GitHub        GitHubConfig        `json:"github"`
	Repository    RepositoryConfig    `json:"repository"`
	Labels        LabelsConfig        `json:"labels"`
	Linter        LinterConfig        `json:"linter"`
	Chromatic     ChromaticConfig     `json:"chromatic"`
	Approvals     ApprovalsConfig     `json:"approvals"`
	Merge         MergeConfig         `json:"merge"`
	Authors       *AuthorsConfig      `json:"authors,omitempty"`
	Git           GitConfig           `json:"git"`
	Logging       LoggingConfig       `json:"logging"`
	Notifications NotificationsConfig `json:"notifications"`
}

// GitHubConfig identifies the repository and the credentials used to act on it.
type GitHubConfig struct {
	Token string `json:"token" env:"GITHUB_TOKEN" env-description:"GitHub token, overrides github.token"`
	Repo  string `json:"repo" env:"CIPLUMBER_REPO" env-description:"owner/name, overrides github.repo"`
}

// RepositoryConfig controls the local working copy used for fixes and the
// branch freshness threshold.
type RepositoryConfig struct {
	LocalPath string `json:"local_path"`
	// RemoteURL overrides the clone URL derived from github.repo.
	RemoteURL        string `json:"remote_url,omitempty"`
	MaxCommitsBehind int    `json:"max_commits_behind"`
}

// CategoryRule adds Default when no label on the PR starts with Prefix.
type CategoryRule struct {
	Prefix  string `json:"prefix"`
	Default string `json:"default"`
}

// Complete reports whether the rule has both a prefix and a default.
// Incomplete rules are skipped when labelling.
func (r CategoryRule) Complete() bool {
	return r.Prefix != "" && r.Default != ""
}

// LabelsConfig holds label selection and normalization settings.
type LabelsConfig struct {
	Trigger    string         `json:"trigger"`
	AutoAdd    []string       `json:"auto_add"`
	Categories []CategoryRule `json:"categories"`
}

// LinterConfig configures the linter auto-fixer.
type LinterConfig struct {
	FixCommand    string   `json:"fix_command"`
	CommitMessage string   `json:"commit_message"`
	Keywords      []string `json:"keywords"`
}

// ChromaticConfig configures the visual-regression retrier.
type ChromaticConfig struct {
	Keywords []string `json:"keywords"`
}

// ApprovalsConfig configures the approval gate.
type ApprovalsConfig struct {
	MinimumCount            int    `json:"minimum_count"`
	CheckRequestedReviewers bool   `json:"check_requested_reviewers"`
	ChangesRequestedPolicy  string `json:"changes_requested_policy"`
}

// MergeConfig configures how approved PRs are merged.
type MergeConfig struct {
	Method string `json:"method"`
}

// AuthorsConfig restricts which PR authors are processed. The section itself
// is required; an empty allow-list with include_token_owner disabled matches
// nobody.
type AuthorsConfig struct {
	IncludeTokenOwner *bool    `json:"include_token_owner,omitempty"`
	AllowedUsers      []string `json:"allowed_users"`
}

// TokenOwnerIncluded reports whether the token owner is an allowed author.
// Defaults to true when not explicitly set.
func (a AuthorsConfig) TokenOwnerIncluded() bool {
	if a.IncludeTokenOwner == nil {
		return true
	}
	return *a.IncludeTokenOwner
}

// GitConfig sets the identity used for automated commits.
type GitConfig struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}

// LoggingConfig controls the daily log file and level.
type LoggingConfig struct {
	Directory string `json:"directory"`
	Level     string `json:"level" env:"CIPLUMBER_LOG_LEVEL" env-description:"overrides logging.level"`
}

// NotificationsConfig holds notification settings.
type NotificationsConfig struct {
	TeamsWebhookURL string   `json:"teams_webhook_url" env:"CIPLUMBER_TEAMS_WEBHOOK_URL" env-description:"overrides notifications.teams_webhook_url"`
	Events          []string `json:"events"`
}

// boolPtr returns a pointer to the given bool value.
func boolPtr(b bool) *bool {
	return &b
}

// DefaultConfig returns a Config with sensible defaults. Authors is left nil
// so that a missing section can be detected after merging.
func DefaultConfig() Config {
	return Config{
		Repository: RepositoryConfig{
			MaxCommitsBehind: 10,
		},
		Labels: LabelsConfig{
			Trigger: "ci-plumber",
		},
		Linter: LinterConfig{
			CommitMessage: "Fix linter issues (automated by CI Plumber)",
			Keywords:      []string{"lint", "eslint"},
		},
		Chromatic: ChromaticConfig{
			Keywords: []string{"chromatic"},
		},
		Approvals: ApprovalsConfig{
			MinimumCount:            2,
			CheckRequestedReviewers: true,
			ChangesRequestedPolicy:  "any",
		},
		Merge: MergeConfig{
			Method: "squash",
		},
		Git: GitConfig{
			AuthorName:  "CI Plumber",
			AuthorEmail: "ci-plumber@users.noreply.github.com",
		},
		Logging: LoggingConfig{
			Directory: "logs",
			Level:     "INFO",
		},
	}
}
