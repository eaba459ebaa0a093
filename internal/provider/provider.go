package provider

import (
	"context"
	"errors"
)

//go:generate mockgen -destination=mock/host.go -package=mock . Host

// ErrNotFound is returned when the hosting service reports a missing resource.
var ErrNotFound = errors.New("resource not found")

// Host is the hosting-service client consumed by the bot.
// Every method performs exactly one logical remote operation (with pagination
// where the API pages) and never retries.
type Host interface {
	// AuthenticatedUser returns the login of the token owner.
	AuthenticatedUser(ctx context.Context) (string, error)

	// GetRepository returns the full name of the configured repository.
	GetRepository(ctx context.Context) (string, error)

	// ListOpenPullRequests returns all open pull requests.
	ListOpenPullRequests(ctx context.Context) ([]PullRequest, error)

	// GetPullRequest returns a single pull request with its mergeable state populated.
	GetPullRequest(ctx context.Context, number int) (*PullRequest, error)

	// AddLabels adds labels to a pull request.
	AddLabels(ctx context.Context, number int, labels ...string) error

	// CompareBranches compares head against base.
	CompareBranches(ctx context.Context, base, head string) (*Comparison, error)

	// UpdateBranch asks the service to merge the base branch into the PR head.
	UpdateBranch(ctx context.Context, number int) error

	// GetCombinedStatus returns the aggregate legacy commit status for a ref.
	GetCombinedStatus(ctx context.Context, ref string) (*CombinedStatus, error)

	// ListCheckRuns returns all check runs for a ref.
	ListCheckRuns(ctx context.Context, ref string) ([]CheckRun, error)

	// RerequestCheckRun asks the service to re-run a check run.
	RerequestCheckRun(ctx context.Context, id int64) error

	// ListWorkflows returns the repository's workflows.
	ListWorkflows(ctx context.Context) ([]Workflow, error)

	// ListWorkflowRuns returns runs of a workflow filtered by branch and event.
	ListWorkflowRuns(ctx context.Context, workflowID int64, branch, event string) ([]WorkflowRun, error)

	// RerunWorkflowRun re-runs a workflow run.
	RerunWorkflowRun(ctx context.Context, runID int64) error

	// ListReviews returns all submitted reviews in submission order.
	ListReviews(ctx context.Context, number int) ([]Review, error)

	// ListRequestedReviewers returns users and teams whose review is requested.
	ListRequestedReviewers(ctx context.Context, number int) (*RequestedReviewers, error)

	// ListTeamMembers returns member logins of a team in the repository's organization.
	ListTeamMembers(ctx context.Context, teamSlug string) ([]string, error)

	// MergePullRequest merges a pull request with the given method ("squash", "merge", "rebase").
	MergePullRequest(ctx context.Context, number int, method string) error
}

// PullRequest is a read-only view of a pull request.
type PullRequest struct {
	Number  int
	Title   string
	Author  string
	HeadRef string
	HeadSHA string
	BaseRef string
	Labels  []string
	// Mergeable is nil while the service is still computing mergeability.
	Mergeable *bool
	Merged    bool
	URL       string
}

// HasLabel reports whether the PR carries the named label.
func (pr *PullRequest) HasLabel(name string) bool {
	for _, l := range pr.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// Comparison is the ahead/behind distance between two refs.
type Comparison struct {
	AheadBy  int
	BehindBy int
	Status   string
}

// CombinedStatus is the aggregate of all legacy status contexts on a commit.
type CombinedStatus struct {
	// State is "success", "failure", "pending" or "error".
	State    string
	Statuses []StatusContext
}

// StatusContext is one legacy commit status.
type StatusContext struct {
	ID      int64
	Context string
	State   string
}

// CheckRun is one check-run result. Conclusion is empty while the run is incomplete.
type CheckRun struct {
	ID         int64
	Name       string
	Status     string
	Conclusion string
}

// Workflow is a repository workflow definition.
type Workflow struct {
	ID   int64
	Name string
}

// WorkflowRun is one execution of a workflow.
type WorkflowRun struct {
	ID         int64
	HeadSHA    string
	HeadBranch string
	Status     string
	Conclusion string
}

// Review states as reported by the service.
const (
	ReviewApproved         = "APPROVED"
	ReviewChangesRequested = "CHANGES_REQUESTED"
	ReviewCommented        = "COMMENTED"
	ReviewDismissed        = "DISMISSED"
	ReviewPending          = "PENDING"
)

// Review is one submitted review.
type Review struct {
	ID     int64
	Author string
	State  string
}

// RequestedReviewers lists the outstanding review requests of a PR.
type RequestedReviewers struct {
	Users []string
	Teams []string
}
