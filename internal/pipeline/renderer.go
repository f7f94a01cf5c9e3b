package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"policylens/internal/model"
)

// Renderer writes analysis reports as JSON and Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the two tabular record sets as a Markdown report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Policy Analysis Report\n\n")
	fmt.Fprintf(&b, "- **Source**: %s\n", report.Source)
	fmt.Fprintf(&b, "- **Run**: %s\n", report.RunID)
	fmt.Fprintf(&b, "- **Analyzed**: %s\n", report.AnalyzedAt.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "- **Rules**: %d\n\n", report.RuleCount)

	fmt.Fprintf(&b, "## Contradictions (%d)\n\n", len(report.Contradictions))
	if len(report.Contradictions) == 0 {
		b.WriteString("No contradictions flagged.\n\n")
	} else {
		b.WriteString("| Service Key | Type | Unit | Details | Left | Right | Severity | Confidence | Status |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
		for _, c := range report.Contradictions {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | p.%d: %s | p.%d: %s | %s | %s (%.2f) | %s |\n",
				c.ServiceKey, c.Type, orDash(string(c.Unit)), cell(c.Details),
				c.Left.Page, cell(c.Left.Snippet), c.Right.Page, cell(c.Right.Snippet),
				c.Severity, c.Tier, c.Confidence, c.Dedup)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Coverage Gaps (%d)\n\n", len(report.Gaps))
	if len(report.Gaps) == 0 {
		b.WriteString("No conditions analyzed.\n\n")
	} else {
		b.WriteString("| Condition | Status | Expected Keywords | Evidence | Risk | Confidence | Status |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, g := range report.Gaps {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
				g.Condition, g.Status, cell(strings.Join(g.ExpectedKeywords, ", ")),
				cell(g.Evidence), g.Risk, g.Tier, g.Dedup)
		}
		b.WriteString("\n")
	}

	if report.Collaborator != nil && report.Collaborator.Enabled {
		cs := report.Collaborator
		fmt.Fprintf(&b, "## Collaborator\n\n")
		fmt.Fprintf(&b, "%s/%s reviewed %d chunks (%d failed, fell back to deterministic results) and contributed %d supplementary findings.\n\n",
			cs.Provider, cs.Model, cs.ChunksTotal, cs.ChunksFailed, cs.Supplementary)
	}

	if r.includeFooter {
		b.WriteString("---\n")
		b.WriteString("Findings are flagged, not confirmed: every row is evidence-backed and confidence-tagged, and validation is left to the reader.\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

// RenderSummary prints a short run summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	high := 0
	for _, c := range report.Contradictions {
		if c.Severity == model.SeverityHigh {
			high++
		}
	}
	uncovered := 0
	for _, g := range report.Gaps {
		if g.Status == model.StatusNoCoverage {
			uncovered++
		}
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Rules analyzed:   %d\n", report.RuleCount)
	fmt.Fprintf(w, "Contradictions:   %d (%d high severity)\n", len(report.Contradictions), high)
	fmt.Fprintf(w, "Coverage gaps:    %d conditions, %d without any coverage\n", len(report.Gaps), uncovered)
	fmt.Fprintf(w, "New this run:     %d findings\n", report.NewCount())
}

// cell makes a string safe for a Markdown table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	if runes := []rune(s); len(runes) > 160 {
		s = string(runes[:160]) + "…"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
