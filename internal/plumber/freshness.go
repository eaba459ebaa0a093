package plumber

import (
	"context"

	"github.com/alanmeadows/ciplumber/internal/provider"
)

// checkFreshness requests a branch update when pr's head is more than the
// configured number of commits behind its base. Errors are logged.
func (r *Runner) checkFreshness(ctx context.Context, pr *provider.PullRequest, res *PRResult) {
	logger := r.prLogger(pr)
	cmp, err := r.host.CompareBranches(ctx, pr.BaseRef, pr.HeadRef)
	if err != nil {
		logger.Error("failed to compare branches", "base", pr.BaseRef, "head", pr.HeadRef, "error", err)
		return
	}
	res.BehindBy = cmp.BehindBy

	limit := r.cfg.Repository.MaxCommitsBehind
	if cmp.BehindBy <= limit {
		logger.Debug("branch is fresh enough", "behindBy", cmp.BehindBy, "limit", limit)
		return
	}

	logger.Info("branch is behind base, requesting update", "behindBy", cmp.BehindBy, "limit", limit)
	if r.dryRun {
		logger.Info("dry run: would update branch")
		return
	}
	if err := r.host.UpdateBranch(ctx, pr.Number); err != nil {
		logger.Error("failed to update branch", "error", err)
		return
	}
	res.BranchUpdated = true
}
