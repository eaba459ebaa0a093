package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/sjson"

	"github.com/alanmeadows/ciplumber/internal/config"
	"github.com/alanmeadows/ciplumber/internal/console"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ciplumber configuration",
	Long:  `Show, modify, check, and create the ciplumber configuration file.`,
}

var (
	configJSONFlag  bool
	configInitForce bool
)

func init() {
	configShowCmd.Flags().BoolVar(&configJSONFlag, "json", false, "Output raw JSON without formatting")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configInitCmd)
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show merged configuration",
	Long:        `Show the configuration after defaults and environment overrides are applied. Secrets are masked.`,
	Annotations: map[string]string{needsConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		redacted := appConfig.Redacted()

		var data []byte
		var err error
		if configJSONFlag {
			data, err = json.Marshal(redacted)
		} else {
			data, err = json.MarshalIndent(redacted, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a configuration value using a dotted key path.

The value is written to the config file selected by --config (default
ciplumber.jsonc). The file is created if it does not exist. Only JSONC
files can be edited.

Note: JSONC comments are not preserved on write.`,
	Example: `  ciplumber config set github.repo acme/widgets
  ciplumber config set approvals.minimum_count 1
  ciplumber config set approvals.check_requested_reviewers false
  ciplumber config set labels.auto_add.-1 automerge`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ResolvePath(configFlag)
		value := parseValue(args[1])
		if err := setConfigValue(path, args[0], value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", args[0], value, path)
		return nil
	},
}

// parseValue interprets a command-line value as bool, then number, then string.
func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// setConfigValue writes key into the JSONC file at path.
func setConfigValue(path, key string, value any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return fmt.Errorf("config set only edits JSONC files, %s is YAML", path)
	}

	// sjson requires valid JSON, so comments are stripped first.
	existing := []byte("{}")
	if data, err := os.ReadFile(path); err == nil {
		existing = jsonc.ToJSON(data)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading config: %w", err)
	}

	updated, err := sjson.SetBytes(existing, key, value)
	if err != nil {
		return fmt.Errorf("setting key %q: %w", key, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, updated, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config and GitHub access",
	Long: `Load and validate the configuration, authenticate with GitHub, and confirm
the configured repository is reachable. Each check is reported on its own
line; the command fails if any check fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigCheck(cmd, config.ResolvePath(configFlag))
	},
}

var errCheckFailed = errors.New("configuration check failed")

func runConfigCheck(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	console.Header(out, "CI Plumber Configuration Check")

	cfg, err := config.Parse(path)
	if err != nil {
		console.Check(out, console.Fail, "could not load %s: %v", path, err)
		return errCheckFailed
	}
	console.Check(out, console.OK, "loaded %s", path)

	failed := false
	if err := cfg.Validate(); err != nil {
		failed = true
		for _, line := range strings.Split(err.Error(), "\n") {
			console.Check(out, console.Fail, "%s", line)
		}
	} else {
		console.Check(out, console.OK, "configuration is valid")
	}

	if cfg.Linter.FixCommand == "" {
		console.Check(out, console.Warn, "linter.fix_command is not set, lint failures will not be auto-fixed")
	} else if _, err := os.Stat(config.ExpandHome(cfg.Repository.LocalPath)); err != nil {
		console.Check(out, console.Warn, "%s does not exist yet, it will be cloned on the first fix", cfg.Repository.LocalPath)
	} else {
		console.Check(out, console.OK, "working copy %s exists", cfg.Repository.LocalPath)
	}
	for i, rule := range cfg.Labels.Categories {
		if !rule.Complete() {
			console.Check(out, console.Warn, "labels.categories[%d] needs both prefix and default, it will be skipped", i)
		}
	}
	if cfg.Authors != nil && !cfg.Authors.TokenOwnerIncluded() && len(cfg.Authors.AllowedUsers) == 0 {
		console.Check(out, console.Warn, "authors allows nobody, no PRs will be processed")
	}

	if cfg.GitHub.Token == "" || cfg.GitHub.Repo == "" {
		console.Check(out, console.Fail, "skipping GitHub checks without github.token and github.repo")
		return errCheckFailed
	}

	host, err := newHost(cfg)
	if err != nil {
		console.Check(out, console.Fail, "could not create GitHub client: %v", err)
		return errCheckFailed
	}
	user, err := host.AuthenticatedUser(ctx)
	if err != nil {
		console.Check(out, console.Fail, "GitHub authentication failed: %v", err)
		return errCheckFailed
	}
	console.Check(out, console.OK, "authenticated as %s", user)

	name, err := host.GetRepository(ctx)
	if err != nil {
		console.Check(out, console.Fail, "cannot access repository %s: %v", cfg.GitHub.Repo, err)
		return errCheckFailed
	}
	console.Check(out, console.OK, "repository %s is accessible", name)

	if failed {
		return errCheckFailed
	}
	console.SuccessBox(out, "Configuration looks good")
	return nil
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config interactively",
	Long: `Launch an interactive form for the essential settings and write a starter
JSONC config to the path selected by --config (default ciplumber.jsonc).
Leave the token empty to supply it through GITHUB_TOKEN instead.`,
	Example: `  ciplumber config init
  ciplumber config init -c /etc/ciplumber/ciplumber.jsonc --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFlag
		if path == "" {
			path = config.DefaultPath
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}

		a := initAnswers{
			Trigger:          "ci-plumber",
			LocalPath:        "~/ciplumber/checkout",
			MinimumApprovals: "2",
			MergeMethod:      "squash",
		}
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("GitHub repository (owner/name)").
					Value(&a.Repo).
					Validate(func(s string) error {
						if owner, name, ok := strings.Cut(s, "/"); !ok || owner == "" || name == "" {
							return fmt.Errorf("expected owner/name")
						}
						return nil
					}),
				huh.NewInput().
					Title("GitHub token (leave empty to use GITHUB_TOKEN)").
					EchoMode(huh.EchoModePassword).
					Value(&a.Token),
				huh.NewInput().
					Title("Trigger label").
					Value(&a.Trigger),
				huh.NewInput().
					Title("Additional allowed authors (comma separated)").
					Value(&a.AllowedUsers),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("Linter fix command (leave empty to disable)").
					Value(&a.FixCommand),
				huh.NewInput().
					Title("Local working copy").
					Value(&a.LocalPath),
				huh.NewInput().
					Title("Minimum approvals").
					Value(&a.MinimumApprovals).
					Validate(func(s string) error {
						if n, err := strconv.Atoi(s); err != nil || n < 0 {
							return fmt.Errorf("expected a non-negative number")
						}
						return nil
					}),
				huh.NewSelect[string]().
					Title("Merge method").
					Options(
						huh.NewOption("Squash (recommended)", "squash"),
						huh.NewOption("Merge commit", "merge"),
						huh.NewOption("Rebase", "rebase"),
					).
					Value(&a.MergeMethod),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("form cancelled: %w", err)
		}

		if err := writeStarterConfig(path, a); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nRun `ciplumber config check` to verify it.\n", path)
		return nil
	},
}

// initAnswers holds the raw form values of `config init`.
type initAnswers struct {
	Repo             string
	Token            string
	Trigger          string
	AllowedUsers     string
	FixCommand       string
	LocalPath        string
	MinimumApprovals string
	MergeMethod      string
}

// starterConfig turns form answers into a config based on the defaults.
func starterConfig(a initAnswers) (config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.GitHub.Repo = strings.TrimSpace(a.Repo)
	cfg.GitHub.Token = strings.TrimSpace(a.Token)
	if a.Trigger != "" {
		cfg.Labels.Trigger = a.Trigger
	}
	cfg.Linter.FixCommand = strings.TrimSpace(a.FixCommand)
	cfg.Repository.LocalPath = strings.TrimSpace(a.LocalPath)
	if a.MergeMethod != "" {
		cfg.Merge.Method = a.MergeMethod
	}
	if a.MinimumApprovals != "" {
		n, err := strconv.Atoi(a.MinimumApprovals)
		if err != nil {
			return cfg, fmt.Errorf("invalid minimum approvals %q: %w", a.MinimumApprovals, err)
		}
		cfg.Approvals.MinimumCount = n
	}

	authors := &config.AuthorsConfig{AllowedUsers: []string{}}
	for _, u := range strings.Split(a.AllowedUsers, ",") {
		if u = strings.TrimSpace(u); u != "" {
			authors.AllowedUsers = append(authors.AllowedUsers, u)
		}
	}
	cfg.Authors = authors
	return cfg, nil
}

// writeStarterConfig writes the starter config for a as commented JSONC.
func writeStarterConfig(path string, a initAnswers) error {
	cfg, err := starterConfig(a)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	var b strings.Builder
	b.WriteString("// CI Plumber configuration.\n")
	b.WriteString("// GITHUB_TOKEN and CIPLUMBER_REPO override github.token and github.repo.\n")
	b.Write(data)
	b.WriteString("\n")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
