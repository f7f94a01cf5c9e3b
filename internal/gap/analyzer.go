package gap

import (
	"fmt"
	"sort"
	"strings"

	"policylens/internal/model"
	"policylens/internal/servicekey"
)

// fuzzyWordThreshold bounds the per-token fuzzy keyword match
const fuzzyWordThreshold = 0.85

// Analyzer checks rules against externally supplied coverage
// expectations
type Analyzer struct {
	cfg      Config
	adequacy int
}

// NewAnalyzer validates the expectation config and builds the analyzer.
// Construction fails on a malformed config; it is never skipped.
func NewAnalyzer(cfg Config, adequacyThreshold int) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("gap analyzer: %w", err)
	}
	if adequacyThreshold < 1 {
		adequacyThreshold = 1
	}
	return &Analyzer{cfg: cfg, adequacy: adequacyThreshold}, nil
}

// Analyze produces one gap record per configured condition. Conditions
// are emitted in sorted order so output is stable.
func (a *Analyzer) Analyze(rules []model.Rule) []model.Gap {
	conditions := make([]string, 0, len(a.cfg))
	for condition := range a.cfg {
		conditions = append(conditions, condition)
	}
	sort.Strings(conditions)

	gaps := make([]model.Gap, 0, len(conditions))
	for _, condition := range conditions {
		exp := a.cfg[condition]
		risk, _ := ParseRisk(exp.Risk)
		gaps = append(gaps, a.analyzeCondition(condition, exp.Keywords, risk, rules))
	}
	return gaps
}

func (a *Analyzer) analyzeCondition(condition string, keywords []string, risk model.RiskLevel, rules []model.Rule) model.Gap {
	g := model.Gap{
		Condition:        condition,
		ExpectedKeywords: keywords,
		Risk:             risk,
	}

	for _, rule := range rules {
		if ruleMatches(rule, keywords) {
			g.Matches = append(g.Matches, model.EvidenceRef{Page: rule.SourcePage, Snippet: rule.Evidence})
			g.MatchTiers = append(g.MatchTiers, rule.Confidence)
		}
	}

	// Classification is monotone in the match count: more matches can
	// only move the status toward ADEQUATE.
	switch {
	case len(g.Matches) == 0:
		g.Status = model.StatusNoCoverage
		g.Evidence = model.NoMatchesMarker
	case len(g.Matches) < a.adequacy:
		g.Status = model.StatusMinimal
		g.Evidence = joinSnippets(g.Matches)
	default:
		g.Status = model.StatusAdequate
		g.Evidence = joinSnippets(g.Matches)
	}
	return g
}

// ruleMatches reports whether any expected keyword hits the rule's
// service description or evidence text, by case-insensitive substring
// or bounded per-token fuzzy match
func ruleMatches(rule model.Rule, keywords []string) bool {
	haystack := strings.ToLower(rule.Service + " " + rule.Evidence)
	tokens := strings.Fields(haystack)

	for _, kw := range keywords {
		needle := strings.ToLower(strings.TrimSpace(kw))
		if needle == "" {
			continue
		}
		if strings.Contains(haystack, needle) {
			return true
		}
		// Single-word keywords also match spelling variants
		if !strings.Contains(needle, " ") {
			for _, token := range tokens {
				if servicekey.Similarity(needle, token) >= fuzzyWordThreshold {
					return true
				}
			}
		}
	}
	return false
}

func joinSnippets(matches []model.EvidenceRef) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		snippet := m.Snippet
		if runes := []rune(snippet); len(runes) > 120 {
			snippet = string(runes[:120]) + "…"
		}
		parts = append(parts, fmt.Sprintf("p.%d: %s", m.Page, snippet))
	}
	return strings.Join(parts, " | ")
}
