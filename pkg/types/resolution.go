package types

import "time"

// MergeAction is the classification the resolver assigns to a candidate pair.
type MergeAction string

const (
	// MergeActionAuto means the pair scored at or above the auto-merge
	// threshold and was (or would be) merged without human review.
	MergeActionAuto MergeAction = "auto_merge"

	// MergeActionSuggest means the pair scored in the review band and
	// was (or would be) placed on the human review queue.
	MergeActionSuggest MergeAction = "suggest_merge"

	// MergeActionNone means the pair scored below the suggestion
	// threshold and was dropped.
	MergeActionNone MergeAction = "no_merge"
)

// CandidateMatch is a potential duplicate pair produced during a
// resolution comparison. It is transient: candidates live only for the
// duration of a single resolution call and are never persisted.
type CandidateMatch struct {
	SourceID   int64       `json:"source_id"`
	SourceName string      `json:"source_name"`
	TargetID   int64       `json:"target_id"`
	TargetName string      `json:"target_name"`
	Confidence float64     `json:"confidence"`
	Strategy   string      `json:"strategy"`
	Action     MergeAction `json:"action"`
}

// ResolutionResult summarizes one resolution pass over the corpus.
type ResolutionResult struct {
	EntitiesScanned int              `json:"entities_scanned"`
	AutoMerged      int              `json:"auto_merged"`
	Suggested       int              `json:"suggested"`
	Skipped         int              `json:"skipped"`
	Matches         []CandidateMatch `json:"matches"`
}

// DuplicatePair is a resolved mapping joined with both display names,
// as returned by the duplicate-listing view.
type DuplicatePair struct {
	SourceID      int64  `json:"source_id"`
	SourceName    string `json:"source_name"`
	CanonicalID   int64  `json:"canonical_id"`
	CanonicalName string `json:"canonical_name"`
}

// Resolution log actions. The log is append-only and is the sole
// record of why two mentions became one identity.
const (
	LogActionMerge   = "merge"
	LogActionSplit   = "split"
	LogActionApprove = "approve"
	LogActionReject  = "reject"
)

// ResolutionLogEntry is an immutable audit record of a resolver action.
type ResolutionLogEntry struct {
	ID          int64     `json:"id"`
	SourceID    int64     `json:"source_id"`
	CanonicalID int64     `json:"canonical_id"`
	Action      string    `json:"action"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReviewQueueEntry is a suggested merge awaiting a human decision.
// Entries are unique per (source, target) pair and are removed when
// the pair is approved or rejected.
type ReviewQueueEntry struct {
	ID         int64     `json:"id"`
	SourceID   int64     `json:"source_id"`
	SourceName string    `json:"source_name,omitempty"`
	TargetID   int64     `json:"target_id"`
	TargetName string    `json:"target_name,omitempty"`
	Confidence float64   `json:"confidence"`
	Strategy   string    `json:"strategy"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActivityEvent is broadcast to activity-feed subscribers whenever the
// resolver mutates persisted state.
type ActivityEvent struct {
	Action    string    `json:"action"` // merge, split, approve, reject
	SourceID  int64     `json:"source_id"`
	TargetID  int64     `json:"target_id"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
