package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanmeadows/ciplumber/internal/provider"
	"github.com/alanmeadows/ciplumber/internal/provider/mock"
)

// fakeTeams resolves team membership from a map; teams listed in failing
// return an error.
type fakeTeams struct {
	members map[string][]string
	failing map[string]bool
	calls   int
}

func (f *fakeTeams) ListTeamMembers(ctx context.Context, slug string) ([]string, error) {
	f.calls++
	if f.failing[slug] {
		return nil, errors.New("forbidden")
	}
	return f.members[slug], nil
}

func approved(logins ...string) []provider.Review {
	out := make([]provider.Review, 0, len(logins))
	for _, l := range logins {
		out = append(out, provider.Review{Author: l, State: provider.ReviewApproved})
	}
	return out
}

func mergeable(b bool) *bool { return &b }

// greenState returns a state that passes every gate before the approval gate.
func greenState(reviews ...provider.Review) State {
	return State{
		Mergeable:     mergeable(true),
		CombinedState: OutcomeSuccess,
		CheckRuns: []CheckResult{
			{Name: "build", Outcome: OutcomeSuccess},
			{Name: "docs", Outcome: OutcomeSkipped},
			{Name: "optional", Outcome: OutcomeNeutral},
			{Name: "queued", Outcome: OutcomeNone},
		},
		Reviews: reviews,
	}
}

func newTestEvaluator(teams TeamResolver) *Evaluator {
	return NewEvaluator(ApprovalPolicy{
		MinimumApprovals: DefaultMinimumApprovals,
		EnforceRequested: true,
	}, teams, nil)
}

func TestEvaluate_MergedNeverAllowed(t *testing.T) {
	e := newTestEvaluator(&fakeTeams{})
	st := greenState(approved("a", "b", "c")...)
	st.Merged = true

	d := e.Evaluate(t.Context(), st)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonAlreadyMerged, d.Reason)
}

func TestEvaluate_NotMergeable(t *testing.T) {
	e := newTestEvaluator(&fakeTeams{})

	st := greenState(approved("a", "b")...)
	st.Mergeable = mergeable(false)
	assert.Equal(t, ReasonNotMergeable, e.Evaluate(t.Context(), st).Reason)

	st.Mergeable = nil
	d := e.Evaluate(t.Context(), st)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNotMergeable, d.Reason, "unknown mergeability denies")
}

func TestEvaluate_CombinedStatusGate(t *testing.T) {
	e := newTestEvaluator(&fakeTeams{})

	for _, state := range []string{OutcomePending, OutcomeFailure, OutcomeError, ""} {
		t.Run("state="+state, func(t *testing.T) {
			st := greenState(approved("a", "b")...)
			st.CombinedState = state
			d := e.Evaluate(t.Context(), st)
			assert.False(t, d.Allowed)
			assert.Equal(t, ReasonCombinedStatus, d.Reason)
			assert.Equal(t, state, d.CombinedState)
		})
	}
}

func TestEvaluate_PendingStatusDeniesEvenWithGreenChecks(t *testing.T) {
	e := newTestEvaluator(&fakeTeams{})
	st := State{
		Mergeable:     mergeable(true),
		CombinedState: OutcomePending,
		CheckRuns: []CheckResult{
			{Name: "build", Outcome: OutcomeSuccess},
			{Name: "lint", Outcome: OutcomeSuccess},
		},
		Reviews: approved("a", "b"),
	}
	d := e.Evaluate(t.Context(), st)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonCombinedStatus, d.Reason)
}

func TestEvaluate_CheckRunGate(t *testing.T) {
	e := newTestEvaluator(&fakeTeams{})

	for _, c := range []string{OutcomeFailure, OutcomeCancelled, OutcomeTimedOut, OutcomeActionRequired, "stale"} {
		t.Run(c, func(t *testing.T) {
			st := greenState(approved("a", "b")...)
			st.CheckRuns = append(st.CheckRuns, CheckResult{Name: "e2e", Outcome: c})
			d := e.Evaluate(t.Context(), st)
			assert.False(t, d.Allowed)
			assert.Equal(t, ReasonFailingCheck, d.Reason)
			require.NotNil(t, d.FailingCheck)
			assert.Equal(t, "e2e", d.FailingCheck.Name)
			assert.Equal(t, c, d.FailingCheck.Outcome)
		})
	}
}

func TestEvaluate_ZeroApprovals(t *testing.T) {
	e := newTestEvaluator(&fakeTeams{})
	d := e.Evaluate(t.Context(), greenState())
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonInsufficientApprovals, d.Reason)
	assert.Equal(t, 0, d.ApprovalCount)
	assert.Equal(t, 2, d.RequiredApprovals)
}

func TestEvaluate_DuplicateApprovalsCountOnce(t *testing.T) {
	e := newTestEvaluator(&fakeTeams{})
	d := e.Evaluate(t.Context(), greenState(approved("a", "a", "a")...))
	assert.Equal(t, ReasonInsufficientApprovals, d.Reason)
	assert.Equal(t, 1, d.ApprovalCount)
}

func TestEvaluate_TwoApprovalsAllowed(t *testing.T) {
	e := newTestEvaluator(&fakeTeams{})
	d := e.Evaluate(t.Context(), greenState(approved("a", "b")...))
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonApproved, d.Reason)
	assert.Equal(t, 2, d.ApprovalCount)
}

func TestEvaluate_ChangesRequestedDominates(t *testing.T) {
	e := newTestEvaluator(&fakeTeams{})
	reviews := append(approved("a", "b", "c"), provider.Review{Author: "d", State: provider.ReviewChangesRequested})
	d := e.Evaluate(t.Context(), greenState(reviews...))
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonChangesRequested, d.Reason)
	assert.Zero(t, d.ApprovalCount, "quorum is not computed once changes are requested")
}

func TestEvaluate_MissingRequestedUsersAndTeams(t *testing.T) {
	teams := &fakeTeams{members: map[string][]string{
		"frontend": {"a", "x"},
		"backend":  {"y", "z"},
	}}
	e := newTestEvaluator(teams)
	st := greenState(approved("a", "b")...)
	st.Requested = provider.RequestedReviewers{
		Users: []string{"b", "carol"},
		Teams: []string{"frontend", "backend"},
	}

	d := e.Evaluate(t.Context(), st)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonMissingRequestedReviews, d.Reason)
	assert.Equal(t, []string{"carol"}, d.MissingUsers)
	assert.Equal(t, []string{"backend"}, d.MissingTeams)
	assert.Equal(t, 2, d.ApprovalCount)
	assert.Equal(t, 2, d.RequiredApprovals)
}

func TestEvaluate_TeamResolution(t *testing.T) {
	teams := &fakeTeams{members: map[string][]string{"t": {"a", "b"}}}
	e := NewEvaluator(ApprovalPolicy{MinimumApprovals: 1, EnforceRequested: true}, teams, nil)

	st := greenState(approved("b")...)
	st.Requested = provider.RequestedReviewers{Teams: []string{"t"}}
	d := e.Evaluate(t.Context(), st)
	assert.True(t, d.Allowed)
	assert.Empty(t, d.MissingTeams)

	st = greenState(approved("c")...)
	st.Requested = provider.RequestedReviewers{Teams: []string{"t"}}
	d = e.Evaluate(t.Context(), st)
	assert.False(t, d.Allowed)
	assert.Equal(t, []string{"t"}, d.MissingTeams)
}

func TestEvaluate_TeamLookupFailureIsMissing(t *testing.T) {
	teams := &fakeTeams{
		members: map[string][]string{"secret": {"a"}},
		failing: map[string]bool{"secret": true},
	}
	e := newTestEvaluator(teams)
	st := greenState(approved("a", "b")...)
	st.Requested = provider.RequestedReviewers{Teams: []string{"secret"}}

	d := e.Evaluate(t.Context(), st)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonMissingRequestedReviews, d.Reason)
	assert.Equal(t, []string{"secret"}, d.MissingTeams)
	assert.Empty(t, d.MissingUsers)
}

func TestEvaluate_RequestedNotEnforced(t *testing.T) {
	teams := &fakeTeams{}
	e := NewEvaluator(ApprovalPolicy{MinimumApprovals: 2}, teams, nil)
	st := greenState(approved("a", "b")...)
	st.Requested = provider.RequestedReviewers{Users: []string{"carol"}, Teams: []string{"t"}}

	d := e.Evaluate(t.Context(), st)
	assert.True(t, d.Allowed)
	assert.Zero(t, teams.calls)
}

func TestEvaluate_Idempotent(t *testing.T) {
	teams := &fakeTeams{members: map[string][]string{"t": {"a"}}}
	e := newTestEvaluator(teams)
	st := greenState(append(approved("a", "b"), provider.Review{Author: "c", State: provider.ReviewCommented})...)
	st.Requested = provider.RequestedReviewers{Users: []string{"dave"}, Teams: []string{"t"}}

	first := e.Evaluate(t.Context(), st)
	second := e.Evaluate(t.Context(), st)
	assert.Equal(t, first, second)
	assert.Equal(t, ReasonMissingRequestedReviews, first.Reason)
}

func TestEvaluatePR_GatherFailureDenies(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := mock.NewMockHost(ctrl)
	pr := &provider.PullRequest{Number: 7, HeadSHA: "sha", Mergeable: mergeable(true)}

	host.EXPECT().GetCombinedStatus(gomock.Any(), "sha").Return(nil, errors.New("502"))

	d := newTestEvaluator(host).EvaluatePR(t.Context(), host, pr)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonStateUnavailable, d.Reason)
	assert.Error(t, d.Err)
}

func TestEvaluatePR_RequestedReviewersFailureDenies(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := mock.NewMockHost(ctrl)
	pr := &provider.PullRequest{Number: 7, HeadSHA: "sha", Mergeable: mergeable(true)}

	host.EXPECT().GetCombinedStatus(gomock.Any(), "sha").Return(&provider.CombinedStatus{State: "success"}, nil)
	host.EXPECT().ListCheckRuns(gomock.Any(), "sha").Return(nil, nil)
	host.EXPECT().ListReviews(gomock.Any(), 7).Return(approved("a", "b"), nil)
	host.EXPECT().ListRequestedReviewers(gomock.Any(), 7).Return(nil, errors.New("403"))

	d := newTestEvaluator(host).EvaluatePR(t.Context(), host, pr)
	assert.False(t, d.Allowed, "enough approvals do not override unknown requested reviewers")
	assert.Equal(t, ReasonStateUnavailable, d.Reason)
	assert.ErrorContains(t, d.Err, "listing requested reviewers")
}

func TestEvaluatePR_GathersAndAllows(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := mock.NewMockHost(ctrl)
	pr := &provider.PullRequest{Number: 7, HeadSHA: "sha", Mergeable: mergeable(true)}

	host.EXPECT().GetCombinedStatus(gomock.Any(), "sha").Return(&provider.CombinedStatus{State: "success"}, nil)
	host.EXPECT().ListCheckRuns(gomock.Any(), "sha").Return([]provider.CheckRun{{Name: "build", Conclusion: "success"}}, nil)
	host.EXPECT().ListReviews(gomock.Any(), 7).Return(approved("a", "b"), nil)
	host.EXPECT().ListRequestedReviewers(gomock.Any(), 7).Return(&provider.RequestedReviewers{Teams: []string{"core"}}, nil)
	host.EXPECT().ListTeamMembers(gomock.Any(), "core").Return([]string{"b"}, nil)

	d := newTestEvaluator(host).EvaluatePR(t.Context(), host, pr)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.ApprovalCount)
}

func TestEvaluatePR_MergedSkipsFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := mock.NewMockHost(ctrl)

	d := newTestEvaluator(host).EvaluatePR(t.Context(), host, &provider.PullRequest{Number: 1, Merged: true})
	assert.Equal(t, ReasonAlreadyMerged, d.Reason)
}
