package pipeline

import (
	"time"

	"newswatch/internal/datetext"
	"newswatch/internal/domain"
)

// Plan lists the fetch operations a row still needs. A zero Plan means the
// row is complete and must be skipped before any network or LLM call.
type Plan struct {
	NeedsListingDetails bool
	NeedsBodyFetch      bool
	CommentOnlyRefresh  bool
	NeedsAnalysis       bool
}

// Empty reports whether the row is a complete no-op for this run.
func (p Plan) Empty() bool {
	return !p.NeedsListingDetails && !p.NeedsBodyFetch && !p.CommentOnlyRefresh && !p.NeedsAnalysis
}

// Planner is the pure per-row decision logic over row state.
type Planner struct {
	// RecencyWindow is how long after posting a row's comment count is
	// still considered volatile. Outside the window a row with a body is
	// frozen and skipped entirely.
	RecencyWindow time.Duration
}

// NewPlanner applies the default three-day refresh window.
func NewPlanner(recencyWindow time.Duration) Planner {
	if recencyWindow <= 0 {
		recencyWindow = 3 * 24 * time.Hour
	}
	return Planner{RecencyWindow: recencyWindow}
}

// Decide computes the fetch plan for one row at the given instant.
//
// A comment count of zero is a recorded value, not an unset one; only a
// genuinely unset counter (or the recency window) triggers a new fetch.
func (p Planner) Decide(row domain.Row, now time.Time) Plan {
	var plan Plan

	plan.NeedsBodyFetch = !row.Body.Filled()
	plan.NeedsListingDetails = row.Body.Unknown() || !row.Comments.Set() || row.PostedAtMissing()
	plan.NeedsAnalysis = !row.Labels.Complete()

	if row.Body.Filled() {
		if posted, ok := datetext.Parse(row.PostedAt, now); ok && now.Sub(posted) <= p.RecencyWindow {
			plan.CommentOnlyRefresh = true
		}
	}

	return plan
}
