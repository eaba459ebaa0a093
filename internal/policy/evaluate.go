package policy

import (
	"context"
	"log/slog"

	"github.com/alanmeadows/ciplumber/internal/provider"
)

// DefaultMinimumApprovals is the quorum used when none is configured.
const DefaultMinimumApprovals = 2

// ApprovalPolicy configures the approval gate.
type ApprovalPolicy struct {
	// MinimumApprovals is the required number of distinct approvers.
	MinimumApprovals int
	// EnforceRequested requires every requested user, and at least one member
	// of every requested team, to have approved.
	EnforceRequested bool
	// Reviews reduces the review history. Nil means AnyChangesRequestedBlocks.
	Reviews ReviewPolicy
}

// State is the remote state a merge decision is computed from. It is fetched
// fresh for every evaluation.
type State struct {
	Merged    bool
	Mergeable *bool
	// CombinedState is the aggregate legacy status ("success", "pending", ...).
	CombinedState string
	CheckRuns     []CheckResult
	Reviews       []provider.Review
	Requested     provider.RequestedReviewers
}

// TeamResolver looks up team membership.
type TeamResolver interface {
	ListTeamMembers(ctx context.Context, teamSlug string) ([]string, error)
}

// Evaluator decides whether a pull request may be merged.
type Evaluator struct {
	policy ApprovalPolicy
	teams  TeamResolver
	logger *slog.Logger
}

// NewEvaluator creates an evaluator. logger may be nil.
func NewEvaluator(p ApprovalPolicy, teams TeamResolver, logger *slog.Logger) *Evaluator {
	if p.Reviews == nil {
		p.Reviews = AnyChangesRequestedBlocks
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{policy: p, teams: teams, logger: logger}
}

// Policy returns the evaluator's approval policy.
func (e *Evaluator) Policy() ApprovalPolicy {
	return e.policy
}

// Evaluate runs the gates in order and returns the first denial, or an
// allowed decision if every gate passes.
func (e *Evaluator) Evaluate(ctx context.Context, st State) Decision {
	if st.Merged {
		return Decision{Reason: ReasonAlreadyMerged}
	}

	if st.Mergeable == nil || !*st.Mergeable {
		return Decision{Reason: ReasonNotMergeable}
	}

	if st.CombinedState != OutcomeSuccess {
		return Decision{Reason: ReasonCombinedStatus, CombinedState: st.CombinedState}
	}

	for _, cr := range st.CheckRuns {
		if !conclusionAllowsMerge(cr.Outcome) {
			failing := cr
			return Decision{Reason: ReasonFailingCheck, CombinedState: st.CombinedState, FailingCheck: &failing}
		}
	}

	d := e.CheckApprovals(ctx, st.Reviews, st.Requested)
	d.CombinedState = st.CombinedState
	return d
}

// CheckApprovals evaluates the approval gate alone.
func (e *Evaluator) CheckApprovals(ctx context.Context, reviews []provider.Review, requested provider.RequestedReviewers) Decision {
	summary := e.policy.Reviews(reviews)

	if summary.ChangesRequested {
		return Decision{Reason: ReasonChangesRequested}
	}

	count := summary.ApprovalCount()
	required := e.policy.MinimumApprovals
	if count < required {
		return Decision{
			Reason:            ReasonInsufficientApprovals,
			ApprovalCount:     count,
			RequiredApprovals: required,
		}
	}

	if e.policy.EnforceRequested {
		var missingUsers, missingTeams []string
		for _, user := range requested.Users {
			if !summary.Approved(user) {
				missingUsers = append(missingUsers, user)
			}
		}
		for _, team := range requested.Teams {
			if !ResolveOrDeny(ctx, e.teams, team, summary, e.logger) {
				missingTeams = append(missingTeams, team)
			}
		}
		if len(missingUsers) > 0 || len(missingTeams) > 0 {
			return Decision{
				Reason:            ReasonMissingRequestedReviews,
				ApprovalCount:     count,
				RequiredApprovals: required,
				MissingUsers:      missingUsers,
				MissingTeams:      missingTeams,
			}
		}
	}

	return Decision{
		Allowed:           true,
		Reason:            ReasonApproved,
		ApprovalCount:     count,
		RequiredApprovals: required,
	}
}

// ResolveOrDeny is the fail-closed team policy: it reports whether at least
// one member of team approved. A membership lookup failure counts as the team
// not having approved.
func ResolveOrDeny(ctx context.Context, teams TeamResolver, team string, summary ReviewSummary, logger *slog.Logger) bool {
	if teams == nil {
		logger.Warn("no team resolver configured, treating team as missing", "team", team)
		return false
	}
	members, err := teams.ListTeamMembers(ctx, team)
	if err != nil {
		logger.Warn("could not check team, treating as missing", "team", team, "error", err)
		return false
	}
	for _, m := range members {
		if summary.Approved(m) {
			return true
		}
	}
	return false
}

// conclusionAllowsMerge reports whether a check-run conclusion is acceptable.
// An absent conclusion (run still in progress) is accepted.
func conclusionAllowsMerge(conclusion string) bool {
	switch conclusion {
	case OutcomeSuccess, OutcomeSkipped, OutcomeNeutral, OutcomeNone:
		return true
	default:
		return false
	}
}
