package remediate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanmeadows/ciplumber/internal/policy"
	"github.com/alanmeadows/ciplumber/internal/provider"
)

// ChromaticHost is the subset of the hosting service the retrier uses.
type ChromaticHost interface {
	ListCheckRuns(ctx context.Context, ref string) ([]provider.CheckRun, error)
	RerequestCheckRun(ctx context.Context, id int64) error
	ListWorkflows(ctx context.Context) ([]provider.Workflow, error)
	ListWorkflowRuns(ctx context.Context, workflowID int64, branch, event string) ([]provider.WorkflowRun, error)
	RerunWorkflowRun(ctx context.Context, runID int64) error
}

// RetryResult lists what the retrier re-triggered.
type RetryResult struct {
	RerequestedChecks []int64
	RerunWorkflowRuns []int64
}

// Retried reports whether anything was re-triggered.
func (r RetryResult) Retried() bool {
	return len(r.RerequestedChecks) > 0 || len(r.RerunWorkflowRuns) > 0
}

// ChromaticRetrier re-triggers failed visual-regression checks. It does not
// wait for the new runs to finish.
type ChromaticRetrier struct {
	host   ChromaticHost
	rule   policy.Rule
	logger *slog.Logger
}

// NewChromaticRetrier creates a retrier matching names against rule.
func NewChromaticRetrier(host ChromaticHost, rule policy.Rule, logger *slog.Logger) *ChromaticRetrier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromaticRetrier{host: host, rule: rule, logger: logger}
}

// Retry re-requests each failed matching check run on the PR head, then
// re-runs the first failed pull_request run of each matching workflow that
// was built from the PR head SHA. Individual re-trigger failures are logged.
func (c *ChromaticRetrier) Retry(ctx context.Context, pr *provider.PullRequest) (RetryResult, error) {
	var result RetryResult

	runs, err := c.host.ListCheckRuns(ctx, pr.HeadSHA)
	if err != nil {
		return result, fmt.Errorf("failed to retry chromatic for PR #%d: %w", pr.Number, err)
	}
	for _, cr := range runs {
		if cr.Conclusion != policy.OutcomeFailure || !c.rule.Matches(cr.Name) {
			continue
		}
		c.logger.Info("found failed chromatic check", "check", cr.Name, "checkRunID", cr.ID)
		if err := c.host.RerequestCheckRun(ctx, cr.ID); err != nil {
			c.logger.Warn("could not re-request check run", "check", cr.Name, "error", err)
			continue
		}
		result.RerequestedChecks = append(result.RerequestedChecks, cr.ID)
	}

	workflows, err := c.host.ListWorkflows(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to retry chromatic for PR #%d: %w", pr.Number, err)
	}
	for _, wf := range workflows {
		if !c.rule.Matches(wf.Name) {
			continue
		}
		wfRuns, err := c.host.ListWorkflowRuns(ctx, wf.ID, pr.HeadRef, "pull_request")
		if err != nil {
			c.logger.Warn("could not list workflow runs", "workflow", wf.Name, "error", err)
			continue
		}
		for _, run := range wfRuns {
			if run.HeadSHA != pr.HeadSHA || run.Conclusion != policy.OutcomeFailure {
				continue
			}
			c.logger.Info("re-running workflow", "workflow", wf.Name, "runID", run.ID)
			if err := c.host.RerunWorkflowRun(ctx, run.ID); err != nil {
				c.logger.Warn("could not re-run workflow", "workflow", wf.Name, "error", err)
			} else {
				result.RerunWorkflowRuns = append(result.RerunWorkflowRuns, run.ID)
			}
			break
		}
	}

	if !result.Retried() {
		c.logger.Info("no failed chromatic checks found to retry", "prNumber", pr.Number)
	}
	return result, nil
}
