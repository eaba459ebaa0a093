package plumber

import (
	"context"
	"strings"

	"github.com/alanmeadows/ciplumber/internal/config"
	"github.com/alanmeadows/ciplumber/internal/provider"
)

// MissingLabels returns the labels pr should carry but does not: every
// auto_add label, plus the default of each category rule when no existing
// label starts with the rule's prefix. Incomplete rules are ignored. The
// result is deduplicated and keeps configuration order.
func MissingLabels(pr *provider.PullRequest, cfg config.LabelsConfig) []string {
	var missing []string
	add := func(label string) {
		if label == "" || pr.HasLabel(label) {
			return
		}
		for _, m := range missing {
			if m == label {
				return
			}
		}
		missing = append(missing, label)
	}

	for _, label := range cfg.AutoAdd {
		add(label)
	}
	for _, rule := range cfg.Categories {
		if !rule.Complete() || hasPrefixedLabel(pr.Labels, rule.Prefix) {
			continue
		}
		add(rule.Default)
	}
	return missing
}

func hasPrefixedLabel(labels []string, prefix string) bool {
	for _, l := range labels {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

// ensureLabels adds missing labels to pr. Errors are logged, not returned.
func (r *Runner) ensureLabels(ctx context.Context, pr *provider.PullRequest, res *PRResult) {
	missing := MissingLabels(pr, r.cfg.Labels)
	if len(missing) == 0 {
		return
	}
	logger := r.prLogger(pr)
	if r.dryRun {
		logger.Info("dry run: would add labels", "labels", missing)
		return
	}
	if err := r.host.AddLabels(ctx, pr.Number, missing...); err != nil {
		logger.Error("failed to add labels", "labels", missing, "error", err)
		return
	}
	logger.Info("added labels", "labels", missing)
	res.AddedLabels = missing
	pr.Labels = append(pr.Labels, missing...)
}
