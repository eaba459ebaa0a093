package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	github_ratelimit "github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/alanmeadows/ciplumber/internal/provider"
)

// pageSize is the page size requested from every paginated endpoint.
const pageSize = 100

// Backend implements provider.Host for a single GitHub repository.
type Backend struct {
	client    *gh.Client
	gqlOnce   sync.Once
	gqlClient *githubv4.Client
	owner     string
	repo      string
	token     string
	baseURL   string // override for testing
}

// NewBackend creates a GitHub backend for the "owner/name" repository.
// Uses go-github-ratelimit middleware for automatic rate limit handling.
func NewBackend(fullRepo, token string) (*Backend, error) {
	id, err := parseRepo(fullRepo)
	if err != nil {
		return nil, err
	}
	rateLimiter := github_ratelimit.NewClient(nil)
	client := gh.NewClient(rateLimiter).WithAuthToken(token)
	return &Backend{
		client: client,
		owner:  id.Owner,
		repo:   id.Name,
		token:  token,
	}, nil
}

// Owner returns the repository owner (user or organization).
func (b *Backend) Owner() string { return b.owner }

// Repo returns the repository name.
func (b *Backend) Repo() string { return b.repo }

// AuthenticatedUser resolves the token owner via the GraphQL viewer query.
func (b *Backend) AuthenticatedUser(ctx context.Context) (string, error) {
	var q struct {
		Viewer struct {
			Login githubv4.String
		}
	}
	if err := b.getGraphQLClient(ctx).Query(ctx, &q, nil); err != nil {
		return "", fmt.Errorf("failed to query viewer: %w", err)
	}
	login := string(q.Viewer.Login)
	if login == "" {
		return "", fmt.Errorf("viewer login is empty")
	}
	return login, nil
}

// GetRepository returns the repository's full name.
func (b *Backend) GetRepository(ctx context.Context) (string, error) {
	r, _, err := b.client.Repositories.Get(ctx, b.owner, b.repo)
	if err != nil {
		return "", fmt.Errorf("failed to get repository: %w", wrapNotFound(err))
	}
	return r.GetFullName(), nil
}

// ListOpenPullRequests returns every open pull request (with pagination).
func (b *Backend) ListOpenPullRequests(ctx context.Context) ([]provider.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       "open",
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}
	var prs []provider.PullRequest
	for {
		page, resp, err := b.client.PullRequests.List(ctx, b.owner, b.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", err)
		}
		for _, pr := range page {
			prs = append(prs, *mapPR(pr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return prs, nil
}

// GetPullRequest fetches a single pull request. Unlike the list endpoint,
// this populates the mergeable flag.
func (b *Backend) GetPullRequest(ctx context.Context, number int) (*provider.PullRequest, error) {
	pr, _, err := b.client.PullRequests.Get(ctx, b.owner, b.repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get PR: %w", wrapNotFound(err))
	}
	return mapPR(pr), nil
}

// AddLabels adds labels to the pull request's issue.
func (b *Backend) AddLabels(ctx context.Context, number int, labels ...string) error {
	if len(labels) == 0 {
		return nil
	}
	if _, _, err := b.client.Issues.AddLabelsToIssue(ctx, b.owner, b.repo, number, labels); err != nil {
		return fmt.Errorf("failed to add labels: %w", err)
	}
	return nil
}

// CompareBranches compares head against base (base...head).
func (b *Backend) CompareBranches(ctx context.Context, base, head string) (*provider.Comparison, error) {
	cmp, _, err := b.client.Repositories.CompareCommits(ctx, b.owner, b.repo, base, head, &gh.ListOptions{PerPage: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s...%s: %w", base, head, err)
	}
	return &provider.Comparison{
		AheadBy:  cmp.GetAheadBy(),
		BehindBy: cmp.GetBehindBy(),
		Status:   cmp.GetStatus(),
	}, nil
}

// UpdateBranch requests a merge of the base branch into the PR head.
// GitHub answers 202 Accepted, which go-github surfaces as *AcceptedError.
func (b *Backend) UpdateBranch(ctx context.Context, number int) error {
	_, _, err := b.client.PullRequests.UpdateBranch(ctx, b.owner, b.repo, number, nil)
	if err != nil && !isAccepted(err) {
		return fmt.Errorf("failed to update branch: %w", err)
	}
	return nil
}

// GetCombinedStatus returns the combined legacy status for a ref.
func (b *Backend) GetCombinedStatus(ctx context.Context, ref string) (*provider.CombinedStatus, error) {
	opts := &gh.ListOptions{PerPage: pageSize}
	result := &provider.CombinedStatus{}
	for {
		combined, resp, err := b.client.Repositories.GetCombinedStatus(ctx, b.owner, b.repo, ref, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to get combined status: %w", err)
		}
		result.State = combined.GetState()
		for _, s := range combined.Statuses {
			result.Statuses = append(result.Statuses, provider.StatusContext{
				ID:      s.GetID(),
				Context: s.GetContext(),
				State:   s.GetState(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

// ListCheckRuns returns every check run for a ref (with pagination).
func (b *Backend) ListCheckRuns(ctx context.Context, ref string) ([]provider.CheckRun, error) {
	opts := &gh.ListCheckRunsOptions{
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}
	var runs []provider.CheckRun
	for {
		result, resp, err := b.client.Checks.ListCheckRunsForRef(ctx, b.owner, b.repo, ref, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list check runs: %w", err)
		}
		for _, cr := range result.CheckRuns {
			runs = append(runs, provider.CheckRun{
				ID:         cr.GetID(),
				Name:       cr.GetName(),
				Status:     cr.GetStatus(),
				Conclusion: cr.GetConclusion(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return runs, nil
}

// RerequestCheckRun re-requests a check run.
func (b *Backend) RerequestCheckRun(ctx context.Context, id int64) error {
	if _, err := b.client.Checks.ReRequestCheckRun(ctx, b.owner, b.repo, id); err != nil {
		return fmt.Errorf("failed to re-request check run %d: %w", id, err)
	}
	return nil
}

// ListWorkflows returns all workflows of the repository.
func (b *Backend) ListWorkflows(ctx context.Context) ([]provider.Workflow, error) {
	opts := &gh.ListOptions{PerPage: pageSize}
	var workflows []provider.Workflow
	for {
		result, resp, err := b.client.Actions.ListWorkflows(ctx, b.owner, b.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list workflows: %w", err)
		}
		for _, w := range result.Workflows {
			workflows = append(workflows, provider.Workflow{ID: w.GetID(), Name: w.GetName()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return workflows, nil
}

// ListWorkflowRuns returns the first page of runs for a workflow, newest first.
func (b *Backend) ListWorkflowRuns(ctx context.Context, workflowID int64, branch, event string) ([]provider.WorkflowRun, error) {
	opts := &gh.ListWorkflowRunsOptions{
		Branch:      branch,
		Event:       event,
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}
	result, _, err := b.client.Actions.ListWorkflowRunsByID(ctx, b.owner, b.repo, workflowID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs for workflow %d: %w", workflowID, err)
	}
	runs := make([]provider.WorkflowRun, 0, len(result.WorkflowRuns))
	for _, r := range result.WorkflowRuns {
		runs = append(runs, provider.WorkflowRun{
			ID:         r.GetID(),
			HeadSHA:    r.GetHeadSHA(),
			HeadBranch: r.GetHeadBranch(),
			Status:     r.GetStatus(),
			Conclusion: r.GetConclusion(),
		})
	}
	return runs, nil
}

// RerunWorkflowRun re-runs a workflow run.
func (b *Backend) RerunWorkflowRun(ctx context.Context, runID int64) error {
	if _, err := b.client.Actions.RerunWorkflowByID(ctx, b.owner, b.repo, runID); err != nil {
		return fmt.Errorf("failed to re-run workflow run %d: %w", runID, err)
	}
	return nil
}

// ListReviews returns every submitted review in the order GitHub reports them
// (chronological).
func (b *Backend) ListReviews(ctx context.Context, number int) ([]provider.Review, error) {
	opts := &gh.ListOptions{PerPage: pageSize}
	var reviews []provider.Review
	for {
		page, resp, err := b.client.PullRequests.ListReviews(ctx, b.owner, b.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list reviews: %w", err)
		}
		for _, r := range page {
			reviews = append(reviews, provider.Review{
				ID:     r.GetID(),
				Author: r.GetUser().GetLogin(),
				State:  r.GetState(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return reviews, nil
}

// ListRequestedReviewers returns outstanding user and team review requests.
func (b *Backend) ListRequestedReviewers(ctx context.Context, number int) (*provider.RequestedReviewers, error) {
	reviewers, _, err := b.client.PullRequests.ListReviewers(ctx, b.owner, b.repo, number, &gh.ListOptions{PerPage: pageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to list requested reviewers: %w", err)
	}
	result := &provider.RequestedReviewers{}
	for _, u := range reviewers.Users {
		result.Users = append(result.Users, u.GetLogin())
	}
	for _, t := range reviewers.Teams {
		result.Teams = append(result.Teams, t.GetSlug())
	}
	return result, nil
}

// ListTeamMembers returns the logins of all members of an organization team.
// The repository owner is used as the organization.
func (b *Backend) ListTeamMembers(ctx context.Context, teamSlug string) ([]string, error) {
	opts := &gh.TeamListTeamMembersOptions{
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}
	var members []string
	for {
		users, resp, err := b.client.Teams.ListTeamMembersBySlug(ctx, b.owner, teamSlug, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of team %q: %w", teamSlug, wrapNotFound(err))
		}
		for _, u := range users {
			members = append(members, u.GetLogin())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return members, nil
}

// MergePullRequest merges the PR using the given merge method.
func (b *Backend) MergePullRequest(ctx context.Context, number int, method string) error {
	result, _, err := b.client.PullRequests.Merge(ctx, b.owner, b.repo, number, "", &gh.PullRequestOptions{
		MergeMethod: method,
	})
	if err != nil {
		return fmt.Errorf("failed to merge PR: %w", err)
	}
	if !result.GetMerged() {
		return fmt.Errorf("merge was not performed: %s", result.GetMessage())
	}
	return nil
}

// --- Internal helpers ---

// mapPR converts a GitHub PullRequest to provider.PullRequest.
func mapPR(pr *gh.PullRequest) *provider.PullRequest {
	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}
	return &provider.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Author:    pr.GetUser().GetLogin(),
		HeadRef:   pr.GetHead().GetRef(),
		HeadSHA:   pr.GetHead().GetSHA(),
		BaseRef:   pr.GetBase().GetRef(),
		Labels:    labels,
		Mergeable: pr.Mergeable,
		Merged:    pr.GetMerged(),
		URL:       pr.GetHTMLURL(),
	}
}

// isAccepted reports whether err is GitHub's 202 "job scheduled" response.
func isAccepted(err error) bool {
	var accepted *gh.AcceptedError
	return errors.As(err, &accepted)
}

// wrapNotFound maps a 404 response onto provider.ErrNotFound.
func wrapNotFound(err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", provider.ErrNotFound, err)
	}
	return err
}

// getGraphQLClient returns (and lazily creates) the GitHub GraphQL client.
// Thread-safe via sync.Once.
func (b *Backend) getGraphQLClient(ctx context.Context) *githubv4.Client {
	b.gqlOnce.Do(func() {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: b.token})
		httpClient := oauth2.NewClient(ctx, ts)
		if b.baseURL != "" {
			b.gqlClient = githubv4.NewEnterpriseClient(b.baseURL+"/api/graphql", httpClient)
			return
		}
		b.gqlClient = githubv4.NewClient(httpClient)
	})
	return b.gqlClient
}

// Verify Backend implements Host at compile time.
var _ provider.Host = (*Backend)(nil)
