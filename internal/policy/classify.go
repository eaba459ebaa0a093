package policy

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/alanmeadows/ciplumber/internal/provider"
)

// Tag is a semantic CI failure bucket.
type Tag string

const (
	TagLinterFailed    Tag = "linter_failed"
	TagChromaticFailed Tag = "chromatic_failed"
)

// Default keyword sets for the built-in tags.
var (
	DefaultLinterKeywords    = []string{"lint", "eslint"}
	DefaultChromaticKeywords = []string{"chromatic"}
)

// Outcome values considered by the classifier and the check-run gate.
const (
	OutcomeSuccess        = "success"
	OutcomeFailure        = "failure"
	OutcomePending        = "pending"
	OutcomeError          = "error"
	OutcomeSkipped        = "skipped"
	OutcomeNeutral        = "neutral"
	OutcomeCancelled      = "cancelled"
	OutcomeTimedOut       = "timed_out"
	OutcomeActionRequired = "action_required"
	OutcomeNone           = ""
)

// Source identifies which API a CheckResult came from.
type Source string

const (
	SourceStatus   Source = "status"
	SourceCheckRun Source = "check_run"
)

// CheckResult is a named CI result from either the legacy status API or the
// check-run API.
type CheckResult struct {
	ID      int64
	Name    string
	Outcome string
	Source  Source
}

// TagSet is a deduplicated set of failure tags.
type TagSet map[Tag]struct{}

// Has reports whether the set contains tag.
func (s TagSet) Has(tag Tag) bool {
	_, ok := s[tag]
	return ok
}

// Sorted returns the tags in lexical order, for logging.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, string(t))
	}
	slices.Sort(out)
	return out
}

// Rule maps a set of case-insensitive name keywords to a tag.
type Rule struct {
	Tag      Tag
	Keywords []string
}

// Matches reports whether name contains any of the rule's keywords.
func (r Rule) Matches(name string) bool {
	return containsAny(name, r.Keywords)
}

// Classifier turns failed check results into failure tags.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier for the linter and chromatic tags.
// Empty keyword lists fall back to the defaults.
func NewClassifier(linterKeywords, chromaticKeywords []string) *Classifier {
	if len(linterKeywords) == 0 {
		linterKeywords = DefaultLinterKeywords
	}
	if len(chromaticKeywords) == 0 {
		chromaticKeywords = DefaultChromaticKeywords
	}
	return &Classifier{rules: []Rule{
		{Tag: TagLinterFailed, Keywords: linterKeywords},
		{Tag: TagChromaticFailed, Keywords: chromaticKeywords},
	}}
}

// Rule returns the rule for tag, if configured.
func (c *Classifier) Rule(tag Tag) (Rule, bool) {
	for _, r := range c.rules {
		if r.Tag == tag {
			return r, true
		}
	}
	return Rule{}, false
}

// Classify tags every result whose outcome is exactly "failure". A result may
// match several rules; results matching none are ignored.
func (c *Classifier) Classify(results []CheckResult) TagSet {
	tags := make(TagSet)
	for _, r := range results {
		if r.Outcome != OutcomeFailure {
			continue
		}
		for _, rule := range c.rules {
			if rule.Matches(r.Name) {
				tags[rule.Tag] = struct{}{}
			}
		}
	}
	return tags
}

// FetchFunc loads the check results to classify.
type FetchFunc func(ctx context.Context) ([]CheckResult, error)

// ClassifyWithDefault is the fail-open classification policy: if fetch fails,
// the error is logged and an empty tag set is returned, so remediation is
// skipped for that PR rather than aborting it.
func ClassifyWithDefault(ctx context.Context, c *Classifier, fetch FetchFunc, logger *slog.Logger) TagSet {
	results, err := fetch(ctx)
	if err != nil {
		logger.Error("error checking CI status, assuming no failures", "error", err)
		return make(TagSet)
	}
	return c.Classify(results)
}

// FetchResults gathers results from both the legacy status API and the
// check-run API for ref. Either source can carry the failure signal.
func FetchResults(host provider.Host, ref string) FetchFunc {
	return func(ctx context.Context) ([]CheckResult, error) {
		combined, err := host.GetCombinedStatus(ctx, ref)
		if err != nil {
			return nil, err
		}
		runs, err := host.ListCheckRuns(ctx, ref)
		if err != nil {
			return nil, err
		}
		results := make([]CheckResult, 0, len(combined.Statuses)+len(runs))
		results = append(results, FromStatuses(combined.Statuses)...)
		results = append(results, FromCheckRuns(runs)...)
		return results, nil
	}
}

// FromStatuses converts legacy status contexts to check results.
func FromStatuses(statuses []provider.StatusContext) []CheckResult {
	out := make([]CheckResult, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, CheckResult{ID: s.ID, Name: s.Context, Outcome: s.State, Source: SourceStatus})
	}
	return out
}

// FromCheckRuns converts check runs to check results.
func FromCheckRuns(runs []provider.CheckRun) []CheckResult {
	out := make([]CheckResult, 0, len(runs))
	for _, r := range runs {
		out = append(out, CheckResult{ID: r.ID, Name: r.Name, Outcome: r.Conclusion, Source: SourceCheckRun})
	}
	return out
}

func containsAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
