package policy

import (
	"fmt"
	"log/slog"
	"strings"
)

// Reason is the machine-readable cause of a merge decision.
type Reason string

const (
	ReasonApproved                Reason = "approved"
	ReasonAlreadyMerged           Reason = "already_merged"
	ReasonNotMergeable            Reason = "not_mergeable"
	ReasonCombinedStatus          Reason = "combined_status_not_success"
	ReasonFailingCheck            Reason = "failing_check"
	ReasonChangesRequested        Reason = "changes_requested"
	ReasonInsufficientApprovals   Reason = "insufficient_approvals"
	ReasonMissingRequestedReviews Reason = "missing_requested_reviews"
	// ReasonStateUnavailable is used when the remote state needed for a
	// decision could not be fetched.
	ReasonStateUnavailable Reason = "state_unavailable"
)

// Decision is the outcome of a merge-readiness evaluation.
type Decision struct {
	Allowed           bool
	Reason            Reason
	ApprovalCount     int
	RequiredApprovals int
	MissingUsers      []string
	MissingTeams      []string
	CombinedState     string
	FailingCheck      *CheckResult
	Err               error
}

// Summary returns a short human-readable description.
func (d Decision) Summary() string {
	switch d.Reason {
	case ReasonApproved:
		return fmt.Sprintf("ready to merge (%d approvals)", d.ApprovalCount)
	case ReasonAlreadyMerged:
		return "already merged"
	case ReasonNotMergeable:
		return "not mergeable"
	case ReasonCombinedStatus:
		return fmt.Sprintf("combined status %q", d.CombinedState)
	case ReasonFailingCheck:
		if d.FailingCheck != nil {
			return fmt.Sprintf("failing check %s (%s)", d.FailingCheck.Name, d.FailingCheck.Outcome)
		}
		return "failing check"
	case ReasonChangesRequested:
		return "changes requested"
	case ReasonInsufficientApprovals:
		return fmt.Sprintf("approvals %d/%d", d.ApprovalCount, d.RequiredApprovals)
	case ReasonMissingRequestedReviews:
		var parts []string
		if len(d.MissingTeams) > 0 {
			parts = append(parts, "teams "+mentions(d.MissingTeams))
		}
		if len(d.MissingUsers) > 0 {
			parts = append(parts, "users "+mentions(d.MissingUsers))
		}
		return "missing " + strings.Join(parts, "; ")
	case ReasonStateUnavailable:
		return "state unavailable"
	default:
		return string(d.Reason)
	}
}

// Log writes the decision with reason-specific wording. A pending combined
// status is informational; other denials are warnings.
func (d Decision) Log(logger *slog.Logger) {
	switch d.Reason {
	case ReasonApproved:
		logger.Info("PR is ready to merge", "approvals", d.ApprovalCount)
	case ReasonAlreadyMerged:
		logger.Info("PR is already merged")
	case ReasonNotMergeable:
		logger.Warn("PR is not mergeable (conflicts or other issues)")
	case ReasonCombinedStatus:
		switch d.CombinedState {
		case OutcomeFailure, OutcomeError:
			logger.Warn("combined status is failing, CI checks failed", "state", d.CombinedState)
		case OutcomePending:
			logger.Info("combined status is pending, waiting for CI")
		default:
			logger.Info("combined status is not success", "state", d.CombinedState)
		}
	case ReasonFailingCheck:
		if d.FailingCheck != nil {
			logger.Warn("PR has failing check", "check", d.FailingCheck.Name, "conclusion", d.FailingCheck.Outcome)
		}
	case ReasonChangesRequested:
		logger.Warn("PR has requested changes")
	case ReasonInsufficientApprovals:
		logger.Warn("PR needs more approvals",
			"needed", d.RequiredApprovals-d.ApprovalCount,
			"current", d.ApprovalCount,
			"required", d.RequiredApprovals)
	case ReasonMissingRequestedReviews:
		logger.Warn("PR has enough approvals but is missing requested reviews",
			"current", d.ApprovalCount, "required", d.RequiredApprovals)
		if len(d.MissingTeams) > 0 {
			logger.Warn("missing team approvals", "teams", mentions(d.MissingTeams))
		}
		if len(d.MissingUsers) > 0 {
			logger.Warn("missing user approvals", "users", mentions(d.MissingUsers))
		}
	case ReasonStateUnavailable:
		logger.Error("error checking if PR can merge", "error", d.Err)
	}
}

func mentions(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "@" + n
	}
	return strings.Join(out, ", ")
}
