package policy

import (
	"context"
	"fmt"

	"github.com/alanmeadows/ciplumber/internal/provider"
)

// StateSource is the subset of the hosting-service client needed to build a State.
type StateSource interface {
	GetCombinedStatus(ctx context.Context, ref string) (*provider.CombinedStatus, error)
	ListCheckRuns(ctx context.Context, ref string) ([]provider.CheckRun, error)
	ListReviews(ctx context.Context, number int) ([]provider.Review, error)
	ListRequestedReviewers(ctx context.Context, number int) (*provider.RequestedReviewers, error)
}

// GatherState fetches everything the evaluator needs for pr. Requested
// reviewers are only fetched when the policy enforces them, and failing to
// list them is an error like any other fetch: the merge is denied rather
// than approved on approvals alone.
func (e *Evaluator) GatherState(ctx context.Context, src StateSource, pr *provider.PullRequest) (State, error) {
	st := State{
		Merged:    pr.Merged,
		Mergeable: pr.Mergeable,
	}

	combined, err := src.GetCombinedStatus(ctx, pr.HeadSHA)
	if err != nil {
		return State{}, fmt.Errorf("getting combined status: %w", err)
	}
	st.CombinedState = combined.State

	runs, err := src.ListCheckRuns(ctx, pr.HeadSHA)
	if err != nil {
		return State{}, fmt.Errorf("listing check runs: %w", err)
	}
	st.CheckRuns = FromCheckRuns(runs)

	reviews, err := src.ListReviews(ctx, pr.Number)
	if err != nil {
		return State{}, fmt.Errorf("listing reviews: %w", err)
	}
	st.Reviews = reviews

	if e.policy.EnforceRequested {
		requested, err := src.ListRequestedReviewers(ctx, pr.Number)
		if err != nil {
			return State{}, fmt.Errorf("listing requested reviewers: %w", err)
		}
		st.Requested = *requested
	}

	return st, nil
}

// EvaluatePR gathers fresh state for pr and evaluates it. A failure to gather
// state denies the merge with ReasonStateUnavailable.
func (e *Evaluator) EvaluatePR(ctx context.Context, src StateSource, pr *provider.PullRequest) Decision {
	if pr.Merged {
		return Decision{Reason: ReasonAlreadyMerged}
	}
	st, err := e.GatherState(ctx, src, pr)
	if err != nil {
		return Decision{Reason: ReasonStateUnavailable, Err: err}
	}
	return e.Evaluate(ctx, st)
}
