// Package llm integrates the optional external reasoning collaborator.
//
// The collaborator augments the deterministic pipeline with semantic
// duplicate judgments and supplementary candidate findings. It is never
// required: every call carries a hard timeout, and absence or failure
// yields the deterministic-only result set.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Collaborator is the narrow interface the pipeline consumes
type Collaborator interface {
	// Name returns the provider name
	Name() string

	// Model returns the configured model name
	Model() string

	// IsAvailable checks the provider is configured and reachable
	IsAvailable(ctx context.Context) bool

	// SameIssue judges whether two finding descriptions describe the
	// same underlying issue
	SameIssue(ctx context.Context, a, b string) (bool, error)

	// SuggestFindings reviews one text chunk and proposes supplementary
	// candidate findings. Candidates are advisory: the pipeline rejects
	// any without complete evidence.
	SuggestFindings(ctx context.Context, req ChunkRequest) ([]CandidateFinding, error)
}

// ChunkRequest is one page-wise unit of collaborator review
type ChunkRequest struct {
	Page     int
	Text     string
	Services []string // Service descriptions already extracted from the chunk
}

// CandidateFinding is a collaborator-proposed finding. Evidence must be
// complete on both sides or the pipeline drops the candidate.
type CandidateFinding struct {
	Type         string  `json:"type"` // tariff, limit, coverage, facility_exclusion
	Service      string  `json:"service"`
	Details      string  `json:"details"`
	LeftPage     int     `json:"left_page"`
	LeftSnippet  string  `json:"left_snippet"`
	RightPage    int     `json:"right_page"`
	RightSnippet string  `json:"right_snippet"`
	Agreement    float64 `json:"agreement"` // Collaborator's own 0..1 confidence
}

// buildSameIssuePrompt asks for a bare yes/no judgment
func buildSameIssuePrompt(a, b string) string {
	return fmt.Sprintf(`Two automated findings from a benefits-policy audit are shown below.
Answer with exactly one word, "yes" or "no": do they describe the same underlying issue?

Finding A: %s
Finding B: %s`, a, b)
}

// buildSuggestPrompt asks for supplementary contradiction candidates as
// a strict JSON array
func buildSuggestPrompt(req ChunkRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are reviewing page %d of a benefits policy document for internal
contradictions (conflicting tariffs, limits, coverage or facility levels).

RULES:
1. Report only contradictions visible in the text below. Do not infer from outside knowledge.
2. Every finding must quote both conflicting passages verbatim as evidence.
3. Respond with ONLY a JSON array (possibly empty), no prose. Each element:
   {"type":"tariff|limit|coverage|facility_exclusion","service":"...","details":"...",
    "left_page":%d,"left_snippet":"...","right_page":%d,"right_snippet":"...","agreement":0.0}

`, req.Page, req.Page, req.Page)

	if len(req.Services) > 0 {
		fmt.Fprintf(&b, "Services on this page: %s\n\n", strings.Join(req.Services, "; "))
	}
	fmt.Fprintf(&b, "Page text:\n%s\n", req.Text)
	return b.String()
}

// stripFences removes Markdown code fences models wrap JSON in
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
