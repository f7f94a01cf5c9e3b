package model

// FindingSummary is the compact representative record stored for each
// deduplicated insight
type FindingSummary struct {
	Kind       string `json:"kind"` // "contradiction" or "gap"
	ServiceKey string `json:"service_key,omitempty"`
	Condition  string `json:"condition,omitempty"`
	Details    string `json:"details"`
	Page       int    `json:"page,omitempty"`
}

// InsightRecord is one entry in the cross-run insight store
type InsightRecord struct {
	Signature      string         `json:"signature"`
	Count          int            `json:"occurrence_count"`
	FirstSeenRunID string         `json:"first_seen_run_id"`
	Representative FindingSummary `json:"representative_record"`
}
