// Package plumber runs a single pass of the bot over the configured
// repository's open pull requests.
package plumber

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/alanmeadows/ciplumber/internal/config"
	"github.com/alanmeadows/ciplumber/internal/console"
	"github.com/alanmeadows/ciplumber/internal/policy"
	"github.com/alanmeadows/ciplumber/internal/provider"
	"github.com/alanmeadows/ciplumber/internal/remediate"
	"github.com/alanmeadows/ciplumber/internal/repo"
)

// Fixer repairs linter failures on a pull request branch.
type Fixer interface {
	Fix(ctx context.Context, pr *provider.PullRequest) (remediate.FixResult, error)
}

// Retrier re-triggers flaky visual-regression checks.
type Retrier interface {
	Retry(ctx context.Context, pr *provider.PullRequest) (remediate.RetryResult, error)
}

// NotifyFunc delivers a notification.
type NotifyFunc func(ctx context.Context, payload NotificationPayload) error

// Options customize a Runner. Zero values select the defaults.
type Options struct {
	// DryRun evaluates everything but performs no writes.
	DryRun bool
	// Out receives the console banners. Defaults to os.Stdout.
	Out    io.Writer
	Logger *slog.Logger
	// Fixer overrides the linter fixer built from the configuration.
	Fixer Fixer
	// Retrier overrides the chromatic retrier built from the host.
	Retrier Retrier
	// Notify overrides the Teams webhook notifier.
	Notify NotifyFunc
}

// PRResult records what a pass did to one pull request.
type PRResult struct {
	Number           int
	Title            string
	Author           string
	URL              string
	Tags             []string
	AddedLabels      []string
	BehindBy         int
	BranchUpdated    bool
	LinterPushed     bool
	ChromaticRetried bool
	Decision         policy.Decision
	Merged           bool
	Err              error
}

// Summary aggregates the results of a pass.
type Summary struct {
	Results []PRResult
}

// Merged returns the number of merged pull requests.
func (s Summary) Merged() int {
	n := 0
	for _, r := range s.Results {
		if r.Merged {
			n++
		}
	}
	return n
}

// Blocked returns the number of pull requests the policy did not allow.
func (s Summary) Blocked() int {
	n := 0
	for _, r := range s.Results {
		if !r.Decision.Allowed {
			n++
		}
	}
	return n
}

// Runner orchestrates one pass.
type Runner struct {
	cfg        *config.Config
	host       provider.Host
	classifier *policy.Classifier
	evaluator  *policy.Evaluator
	fixer      Fixer
	retrier    Retrier
	notify     NotifyFunc
	logger     *slog.Logger
	out        io.Writer
	dryRun     bool
}

// New creates a Runner for cfg acting through host.
func New(cfg *config.Config, host provider.Host, opts Options) (*Runner, error) {
	if cfg.Authors == nil {
		return nil, config.ErrMissingAuthors
	}
	reviews, err := policy.ReviewPolicyByName(cfg.Approvals.ChangesRequestedPolicy)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	r := &Runner{
		cfg:        cfg,
		host:       host,
		classifier: policy.NewClassifier(cfg.Linter.Keywords, cfg.Chromatic.Keywords),
		fixer:      opts.Fixer,
		retrier:    opts.Retrier,
		notify:     opts.Notify,
		logger:     logger,
		out:        out,
		dryRun:     opts.DryRun,
	}
	for i, rule := range cfg.Labels.Categories {
		if !rule.Complete() {
			logger.Warn("skipping label category without prefix or default", "index", i, "prefix", rule.Prefix, "default", rule.Default)
		}
	}

	r.evaluator = policy.NewEvaluator(policy.ApprovalPolicy{
		MinimumApprovals: cfg.Approvals.MinimumCount,
		EnforceRequested: cfg.Approvals.CheckRequestedReviewers,
		Reviews:          reviews,
	}, host, logger)

	if r.fixer == nil && cfg.Linter.FixCommand != "" {
		ws := repo.NewWorkspace(config.ExpandHome(cfg.Repository.LocalPath), cfg.CloneURL(), repo.Identity{
			Name:  cfg.Git.AuthorName,
			Email: cfg.Git.AuthorEmail,
		})
		r.fixer = remediate.NewLinterFixer(ws, remediate.ShellRunner{}, cfg.Linter.FixCommand, cfg.Linter.CommitMessage, logger)
	}
	if r.retrier == nil {
		rule, _ := r.classifier.Rule(policy.TagChromaticFailed)
		r.retrier = remediate.NewChromaticRetrier(host, rule, logger)
	}
	if r.notify == nil {
		r.notify = func(ctx context.Context, p NotificationPayload) error {
			return Notify(ctx, &cfg.Notifications, p)
		}
	}
	return r, nil
}

// Run performs one pass: find candidate PRs, then process each in turn.
// Per-PR failures are recorded in the summary and do not fail the run.
// Authentication or listing failures, and cancellation, are returned.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	console.Header(r.out, "CI Plumber - Automated PR Management")
	r.logger.Info("starting run", "repo", r.cfg.GitHub.Repo, "dryRun", r.dryRun)

	prs, err := r.FindCandidates(ctx)
	if err != nil {
		return summary, err
	}
	r.logger.Info("found PRs to process", "count", len(prs), "label", r.cfg.Labels.Trigger)

	for i := range prs {
		if ctx.Err() != nil {
			r.logger.Info("run cancelled, not processing remaining PRs", "remaining", len(prs)-i)
			break
		}
		console.Separator(r.out)
		summary.Results = append(summary.Results, r.processPR(ctx, &prs[i]))
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	r.logger.Info("run complete",
		"processed", len(summary.Results),
		"merged", summary.Merged(),
		"blocked", summary.Blocked())
	if len(summary.Results) > 0 {
		r.sendNotification(ctx, NotificationPayload{
			Event:  EventRunComplete,
			Title:  r.cfg.GitHub.Repo,
			Status: fmt.Sprintf("%d processed, %d merged", len(summary.Results), summary.Merged()),
			Extra: map[string]string{
				"Blocked": strconv.Itoa(summary.Blocked()),
			},
		})
	}
	console.SuccessBox(r.out, "CI Plumber run completed")
	return summary, nil
}

// Inspect evaluates every candidate PR without modifying anything.
func (r *Runner) Inspect(ctx context.Context) ([]PRResult, error) {
	prs, err := r.FindCandidates(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]PRResult, 0, len(prs))
	for i := range prs {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		pr := &prs[i]
		logger := r.prLogger(pr)
		res := newPRResult(pr)
		res.Tags = policy.ClassifyWithDefault(ctx, r.classifier, policy.FetchResults(r.host, pr.HeadSHA), logger).Sorted()

		current, err := r.host.GetPullRequest(ctx, pr.Number)
		if err != nil {
			res.Err = fmt.Errorf("failed to refresh PR #%d: %w", pr.Number, err)
			res.Decision = policy.Decision{Reason: policy.ReasonStateUnavailable, Err: err}
		} else {
			res.Decision = r.evaluator.EvaluatePR(ctx, r.host, current)
		}
		results = append(results, res)
	}
	return results, nil
}

// FindCandidates lists open PRs carrying the trigger label whose author is
// allowed.
func (r *Runner) FindCandidates(ctx context.Context) ([]provider.PullRequest, error) {
	allowed, err := r.allowedAuthors(ctx)
	if err != nil {
		return nil, err
	}

	open, err := r.host.ListOpenPullRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}

	var prs []provider.PullRequest
	for _, pr := range open {
		if !pr.HasLabel(r.cfg.Labels.Trigger) {
			continue
		}
		if !containsFold(allowed, pr.Author) {
			r.logger.Debug("skipping PR from author not in allowed list", "prNumber", pr.Number, "author", pr.Author)
			continue
		}
		prs = append(prs, pr)
	}
	return prs, nil
}

// allowedAuthors resolves the token owner, which also verifies the
// credentials, and returns the allow-list with the owner first when enabled.
func (r *Runner) allowedAuthors(ctx context.Context) ([]string, error) {
	owner, err := r.host.AuthenticatedUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	r.logger.Info("authenticated", "user", owner)

	var allowed []string
	if r.cfg.Authors.TokenOwnerIncluded() {
		allowed = append(allowed, owner)
	}
	for _, u := range r.cfg.Authors.AllowedUsers {
		if !containsFold(allowed, u) {
			allowed = append(allowed, u)
		}
	}
	r.logger.Info("processing PRs from allowed authors", "authors", strings.Join(allowed, ", "))
	return allowed, nil
}

// processPR handles one PR. Every step logs its own failures so that later
// steps still run.
func (r *Runner) processPR(ctx context.Context, pr *provider.PullRequest) PRResult {
	logger := r.prLogger(pr)
	res := newPRResult(pr)
	logger.Info("processing PR", "title", pr.Title, "author", pr.Author, "branch", pr.HeadRef)

	r.ensureLabels(ctx, pr, &res)
	r.checkFreshness(ctx, pr, &res)

	tags := policy.ClassifyWithDefault(ctx, r.classifier, policy.FetchResults(r.host, pr.HeadSHA), logger)
	res.Tags = tags.Sorted()
	if len(tags) > 0 {
		logger.Info("detected CI failures", "tags", res.Tags)
	}
	r.remediate(ctx, pr, tags, &res)

	current, err := r.host.GetPullRequest(ctx, pr.Number)
	if err != nil {
		logger.Error("failed to refresh PR", "error", err)
		res.Err = fmt.Errorf("failed to refresh PR #%d: %w", pr.Number, err)
		res.Decision = policy.Decision{Reason: policy.ReasonStateUnavailable, Err: err}
		return res
	}

	res.Decision = r.evaluator.EvaluatePR(ctx, r.host, current)
	res.Decision.Log(logger)
	if !res.Decision.Allowed {
		if res.Decision.Reason != policy.ReasonAlreadyMerged && r.blockedNotificationsEnabled() {
			r.sendNotification(ctx, NotificationPayload{
				Event:  EventPRBlocked,
				Title:  pr.Title,
				URL:    pr.URL,
				Status: res.Decision.Summary(),
				Extra:  map[string]string{"PR": "#" + strconv.Itoa(pr.Number)},
			})
		}
		return res
	}

	r.merge(ctx, current, &res)
	return res
}

func (r *Runner) remediate(ctx context.Context, pr *provider.PullRequest, tags policy.TagSet, res *PRResult) {
	logger := r.prLogger(pr)

	if tags.Has(policy.TagLinterFailed) {
		switch {
		case r.fixer == nil:
			logger.Warn("linter failure detected but no fix command is configured")
		case r.dryRun:
			logger.Info("dry run: would run linter fix", "command", r.cfg.Linter.FixCommand)
		default:
			fr, err := r.fixer.Fix(ctx, pr)
			if err != nil {
				logger.Error("linter fix failed", "error", err)
			} else {
				res.LinterPushed = fr.Pushed
			}
		}
	}

	if tags.Has(policy.TagChromaticFailed) {
		if r.dryRun {
			logger.Info("dry run: would retry chromatic checks")
			return
		}
		rr, err := r.retrier.Retry(ctx, pr)
		if err != nil {
			logger.Error("chromatic retry failed", "error", err)
			return
		}
		res.ChromaticRetried = rr.Retried()
	}
}

func (r *Runner) merge(ctx context.Context, pr *provider.PullRequest, res *PRResult) {
	logger := r.prLogger(pr)
	method := r.cfg.Merge.Method
	if r.dryRun {
		logger.Info("dry run: would merge PR", "method", method)
		return
	}

	logger.Info("merging PR", "method", method)
	if err := r.host.MergePullRequest(ctx, pr.Number, method); err != nil {
		logger.Error("failed to merge PR", "error", err)
		res.Err = fmt.Errorf("failed to merge PR #%d: %w", pr.Number, err)
		r.sendNotification(ctx, NotificationPayload{
			Event: EventMergeFailed,
			Title: pr.Title,
			URL:   pr.URL,
			Error: err.Error(),
			Extra: map[string]string{"PR": "#" + strconv.Itoa(pr.Number)},
		})
		return
	}

	res.Merged = true
	logger.Info("successfully merged PR")
	r.sendNotification(ctx, NotificationPayload{
		Event:  EventPRMerged,
		Title:  pr.Title,
		URL:    pr.URL,
		Status: "merged",
		Extra: map[string]string{
			"PR":        "#" + strconv.Itoa(pr.Number),
			"Approvals": strconv.Itoa(res.Decision.ApprovalCount),
		},
	})
}

// blockedNotificationsEnabled reports whether pr_blocked is explicitly
// subscribed. Blocked PRs recur on every pass, so they are opt-in.
func (r *Runner) blockedNotificationsEnabled() bool {
	return slices.Contains(r.cfg.Notifications.Events, string(EventPRBlocked))
}

func (r *Runner) sendNotification(ctx context.Context, p NotificationPayload) {
	if r.dryRun {
		return
	}
	if err := r.notify(ctx, p); err != nil {
		r.logger.Warn("failed to send notification", "event", string(p.Event), "error", err)
	}
}

func (r *Runner) prLogger(pr *provider.PullRequest) *slog.Logger {
	return r.logger.With("prNumber", pr.Number)
}

func newPRResult(pr *provider.PullRequest) PRResult {
	return PRResult{
		Number: pr.Number,
		Title:  pr.Title,
		Author: pr.Author,
		URL:    pr.URL,
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
