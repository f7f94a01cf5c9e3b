package model

import "time"

// Report is the complete output of one analysis run: the two tabular
// record sets consumed by reporting/UI, plus run metadata
type Report struct {
	Source     string    `json:"source"` // Input file the records came from
	RunID      string    `json:"run_id"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	RuleCount int `json:"rule_count"`

	Contradictions []Contradiction `json:"contradictions"`
	Gaps           []Gap           `json:"gaps"`

	Collaborator *CollaboratorSummary `json:"collaborator,omitempty"`
}

// CollaboratorSummary records what the optional reasoning collaborator
// contributed. It is diagnostic only and never gates the pipeline.
type CollaboratorSummary struct {
	Enabled       bool     `json:"enabled"`
	Provider      string   `json:"provider,omitempty"`
	Model         string   `json:"model,omitempty"`
	ChunksTotal   int      `json:"chunks_total"`
	ChunksFailed  int      `json:"chunks_failed"` // Fell back to the deterministic result
	Supplementary int      `json:"supplementary_findings"`
	Warnings      []string `json:"warnings,omitempty"`
}

// NewCount returns how many findings carry "new" dedup status
func (r *Report) NewCount() int {
	n := 0
	for _, c := range r.Contradictions {
		if c.Dedup == InsightNew {
			n++
		}
	}
	for _, g := range r.Gaps {
		if g.Dedup == InsightNew {
			n++
		}
	}
	return n
}
