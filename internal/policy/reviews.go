package policy

import (
	"fmt"

	"github.com/alanmeadows/ciplumber/internal/provider"
)

// ReviewSummary is the reduction of a PR's review history that the approval
// gate works from.
type ReviewSummary struct {
	// Approvers is the set of logins counted as approving.
	Approvers map[string]struct{}
	// ChangesRequested is true when the policy considers the PR blocked.
	ChangesRequested bool
}

// ApprovalCount returns the number of distinct approvers.
func (s ReviewSummary) ApprovalCount() int {
	return len(s.Approvers)
}

// Approved reports whether login is in the approver set.
func (s ReviewSummary) Approved(login string) bool {
	_, ok := s.Approvers[login]
	return ok
}

// ReviewPolicy reduces an ordered review history to a summary.
type ReviewPolicy func(reviews []provider.Review) ReviewSummary

// Named review policies, selectable from configuration.
const (
	ReviewPolicyAny    = "any"
	ReviewPolicyLatest = "latest"
)

// ReviewPolicyByName returns the policy for a configuration value.
// An empty name selects AnyChangesRequestedBlocks.
func ReviewPolicyByName(name string) (ReviewPolicy, error) {
	switch name {
	case "", ReviewPolicyAny:
		return AnyChangesRequestedBlocks, nil
	case ReviewPolicyLatest:
		return LatestStateWins, nil
	default:
		return nil, fmt.Errorf("unknown changes_requested_policy %q (want %q or %q)", name, ReviewPolicyAny, ReviewPolicyLatest)
	}
}

// AnyChangesRequestedBlocks counts everyone who ever approved, and blocks if
// any review in the history requested changes, even when the same reviewer
// approved later.
func AnyChangesRequestedBlocks(reviews []provider.Review) ReviewSummary {
	s := ReviewSummary{Approvers: make(map[string]struct{})}
	for _, r := range reviews {
		switch r.State {
		case provider.ReviewApproved:
			s.Approvers[r.Author] = struct{}{}
		case provider.ReviewChangesRequested:
			s.ChangesRequested = true
		}
	}
	return s
}

// LatestStateWins keeps only each reviewer's most recent decisive review.
// COMMENTED and PENDING reviews do not change a reviewer's state; DISMISSED
// clears it.
func LatestStateWins(reviews []provider.Review) ReviewSummary {
	latest := make(map[string]string)
	var order []string
	for _, r := range reviews {
		switch r.State {
		case provider.ReviewApproved, provider.ReviewChangesRequested, provider.ReviewDismissed:
			if _, seen := latest[r.Author]; !seen {
				order = append(order, r.Author)
			}
			latest[r.Author] = r.State
		}
	}

	s := ReviewSummary{Approvers: make(map[string]struct{})}
	for _, login := range order {
		switch latest[login] {
		case provider.ReviewApproved:
			s.Approvers[login] = struct{}{}
		case provider.ReviewChangesRequested:
			s.ChangesRequested = true
		}
	}
	return s
}
