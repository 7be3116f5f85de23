package handlers

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MergeRequest is the request format for POST /api/resolver/merge and
// POST /api/resolver/split.
type MergeRequest struct {
	SourceID int64 `json:"source_id"`
	TargetID int64 `json:"target_id"`
}

// MergeResponse reports whether a merge or split took effect.
type MergeResponse struct {
	Merged bool `json:"merged"`
}

// SplitResponse reports whether a split took effect.
type SplitResponse struct {
	Split bool `json:"split"`
}

// ReviewRequest is the request format for
// POST /api/resolver/queue/{id}/review.
type ReviewRequest struct {
	Approve bool `json:"approve"`
}

// ReviewResponse reports the outcome of a queue decision.
type ReviewResponse struct {
	Decided bool   `json:"decided"`
	Action  string `json:"action"`
}

// AliasesResponse is the response format for
// GET /api/resolver/aliases/{id}.
type AliasesResponse struct {
	EntityID int64    `json:"entity_id"`
	Aliases  []string `json:"aliases"`
}

// CanonicalResponse is the response format for
// GET /api/resolver/canonical/{id}.
type CanonicalResponse struct {
	EntityID    int64 `json:"entity_id"`
	CanonicalID int64 `json:"canonical_id"`
}

// SubgraphRequest is the request format for POST /api/graph/subgraph.
type SubgraphRequest struct {
	EntityIDs []int64 `json:"entity_ids"`
}
