// Package detect implements the four contradiction sub-detectors.
//
// Shared protocol: group rules by a detector-specific key, compare within
// each group, and emit one contradiction per violating group (or per
// overlapping facility level), never one per rule pair.
package detect

import (
	"sort"
	"strings"

	"policylens/internal/model"
)

// Detector finds one class of internal inconsistency in a rule set
type Detector interface {
	Name() string
	Detect(rules []model.Rule) ([]model.Contradiction, error)
}

// Options tunes detector thresholds
type Options struct {
	// TariffVariance is the relative spread above which same-unit
	// tariff values contradict each other
	TariffVariance float64

	// HighSeverityVariance upgrades a spread to HIGH severity
	HighSeverityVariance float64

	// HighRiskCategories upgrade any touching contradiction to HIGH
	HighRiskCategories []string
}

// DefaultOptions mirrors model.DefaultConfig
func DefaultOptions() Options {
	cfg := model.DefaultConfig().Analysis
	return Options{
		TariffVariance:       cfg.TariffVariance,
		HighSeverityVariance: cfg.HighSeverityVariance,
		HighRiskCategories:   cfg.HighRiskCategories,
	}
}

// All returns the standard detector set
func All(opts Options) []Detector {
	return []Detector{
		&TariffDetector{opts: opts},
		&LimitDetector{opts: opts},
		&CoverageDetector{opts: opts},
		&FacilityDetector{opts: opts},
	}
}

// Run applies every detector and concatenates the findings
func Run(detectors []Detector, rules []model.Rule) ([]model.Contradiction, error) {
	var all []model.Contradiction
	for _, d := range detectors {
		found, err := d.Detect(rules)
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}
	return all, nil
}

// highRisk reports whether a rule group touches a configured
// clinical-risk category
func (o Options) highRisk(rules ...model.Rule) bool {
	for _, rule := range rules {
		haystack := strings.ToLower(rule.Service + " " + rule.Category + " " + rule.ServiceKey)
		for _, cat := range o.HighRiskCategories {
			if cat != "" && strings.Contains(haystack, strings.ToLower(cat)) {
				return true
			}
		}
	}
	return false
}

// groupBy buckets rules by an arbitrary key and returns the keys sorted
// so detector output order is stable
func groupBy(rules []model.Rule, keyFn func(model.Rule) (string, bool)) (map[string][]model.Rule, []string) {
	groups := make(map[string][]model.Rule)
	for _, rule := range rules {
		key, ok := keyFn(rule)
		if !ok {
			continue
		}
		groups[key] = append(groups[key], rule)
	}
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return groups, keys
}

// evidence builds the evidence reference for one side of a finding
func evidence(rule model.Rule) model.EvidenceRef {
	return model.EvidenceRef{Page: rule.SourcePage, Snippet: rule.Evidence}
}

// spread is the relative difference between two values, relative to the
// smaller one
func spread(a, b float64) float64 {
	if a > b {
		a, b = b, a
	}
	if a <= 0 {
		return 0
	}
	return (b - a) / a
}
