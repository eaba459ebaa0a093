package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"dario.cat/mergo"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/alanmeadows/ciplumber/internal/policy"
)

const (
	// DefaultPath is the config file used when --config is not given.
	DefaultPath = "ciplumber.jsonc"
	// LegacyPath is the YAML location used by earlier deployments.
	LegacyPath = "cfg/config.yaml"
)

// ErrMissingAuthors is returned when the authors section is absent.
var ErrMissingAuthors = errors.New("missing required config section: authors")

// ResolvePath picks the config file to load. An explicit path always wins;
// otherwise DefaultPath is preferred over LegacyPath when both exist.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, p := range []string{DefaultPath, LegacyPath} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return DefaultPath
}

// Load reads the config file at path, deep-merges it over DefaultConfig,
// applies environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse is Load without validation, for tools that report problems
// instead of failing on them.
func Parse(path string) (*Config, error) {
	raw, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := mergeIntoConfig(&cfg, raw); err != nil {
		return nil, fmt.Errorf("merging config %s: %w", path, err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment overrides: %w", err)
	}
	return &cfg, nil
}

// loadFile parses YAML for .yaml/.yml files and JSONC for everything else.
func loadFile(path string) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return loadJSONC(path)
	}
}

// loadJSONC reads a JSONC file and returns it as a map.
func loadJSONC(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jsonData := jsonc.ToJSON(data)
	var m map[string]any
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// loadYAML reads a YAML file and returns it as a map.
func loadYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if m == nil {
		return nil, fmt.Errorf("parsing %s: empty document", path)
	}
	return m, nil
}

// mergeIntoConfig marshals the config to a map, deep-merges the source map over it,
// then unmarshals back to the Config struct.
func mergeIntoConfig(cfg *Config, src map[string]any) error {
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var dst map[string]any
	if err := json.Unmarshal(cfgBytes, &dst); err != nil {
		return err
	}

	if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
		return err
	}

	merged, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, cfg)
}

var (
	mergeMethods = []any{"merge", "squash", "rebase"}
	logLevels    = []any{"DEBUG", "INFO", "WARN", "WARNING", "ERROR", "CRITICAL"}
	repoPattern  = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)
)

// Validate reports every missing or invalid required setting.
func (c *Config) Validate() error {
	var errs []error
	check := func(key string, value any, rules ...validation.Rule) {
		if err := validation.Validate(value, rules...); err != nil {
			errs = append(errs, fmt.Errorf("%s %w", key, err))
		}
	}

	check("github.token", c.GitHub.Token, validation.Required.Error("is required (or set GITHUB_TOKEN)"))
	check("github.repo", c.GitHub.Repo,
		validation.Required.Error("is required"),
		validation.Match(repoPattern).Error("must be owner/name"))
	check("labels.trigger", c.Labels.Trigger, validation.Required.Error("is required"))
	if c.Authors == nil {
		errs = append(errs, ErrMissingAuthors)
	}
	if c.Linter.FixCommand != "" {
		check("repository.local_path", c.Repository.LocalPath,
			validation.Required.Error("is required when linter.fix_command is set"))
	}
	check("repository.max_commits_behind", c.Repository.MaxCommitsBehind, validation.Min(0))
	check("approvals.minimum_count", c.Approvals.MinimumCount, validation.Min(0))
	if _, err := policy.ReviewPolicyByName(c.Approvals.ChangesRequestedPolicy); err != nil {
		errs = append(errs, fmt.Errorf("approvals.%w", err))
	}
	check("merge.method", c.Merge.Method,
		validation.Required.Error("is required"),
		validation.In(mergeMethods...).Error(fmt.Sprintf("must be one of %v", mergeMethods)))
	check("logging.level", strings.ToUpper(c.Logging.Level),
		validation.In(logLevels...).Error(fmt.Sprintf("must be one of %v", logLevels)))
	check("notifications.teams_webhook_url", c.Notifications.TeamsWebhookURL, is.URL)
	return errors.Join(errs...)
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	out := c
	out.GitHub.Token = mask(c.GitHub.Token)
	out.Notifications.TeamsWebhookURL = mask(c.Notifications.TeamsWebhookURL)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

// ExpandHome replaces a leading "~/" in a path with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") && path != "~" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// CloneURL returns the URL used to clone the repository. Without an explicit
// remote_url, an authenticated github.com HTTPS URL is derived from the token.
func (c *Config) CloneURL() string {
	if c.Repository.RemoteURL != "" {
		return c.Repository.RemoteURL
	}
	return fmt.Sprintf("https://%s@github.com/%s.git", c.GitHub.Token, c.GitHub.Repo)
}
