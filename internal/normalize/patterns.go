package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"policylens/internal/model"
)

// coverageStrategy is one tagged pattern in the ordered coverage
// classification chain
type coverageStrategy struct {
	name   string
	re     *regexp.Regexp
	status model.CoverageStatus
	tier   model.ConfidenceTier
}

// coverageStrategies returns the ordered strategy chain. Exclusion
// patterns are anchored phrases, not bare negation words, so that
// "covered at level 4" can never trip a false exclusion.
func coverageStrategies() []coverageStrategy {
	return []coverageStrategy{
		{
			name:   "explicit-exclusion",
			re:     regexp.MustCompile(`\b(?:not\s+(?:be\s+)?covered|no\s+coverage|excluded?\b|non-?reimbursable|not\s+payable|shall\s+not\s+be\s+(?:covered|paid|reimbursed))`),
			status: model.CoverageExcluded,
			tier:   model.TierHigh,
		},
		{
			name:   "explicit-inclusion",
			re:     regexp.MustCompile(`\b(?:is\s+covered|are\s+covered|covered\s+(?:at|under|up\s+to|for)|shall\s+be\s+covered|included|payable|reimbursable|reimbursed)\b`),
			status: model.CoverageIncluded,
			tier:   model.TierHigh,
		},
		{
			name:   "inferred-inclusion",
			re:     regexp.MustCompile(`\b(?:covered|coverage|benefit|entitled)\b`),
			status: model.CoverageIncluded,
			tier:   model.TierMedium,
		},
	}
}

// limitStrategy is one tagged pattern in the ordered limit extraction
// chain; first success wins
type limitStrategy struct {
	name  string
	re    *regexp.Regexp
	ltype model.LimitType
	tier  model.ConfidenceTier
}

func (s limitStrategy) match(phrase string) (model.LimitType, float64, bool) {
	m := s.re.FindStringSubmatch(phrase)
	if m == nil {
		return "", 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil || value <= 0 {
		return "", 0, false
	}
	return s.ltype, value, true
}

func limitStrategies() []limitStrategy {
	num := `(\d+(?:\.\d+)?)`
	return []limitStrategy{
		{"per-week", regexp.MustCompile(num + `\s*(?:times?|sessions?|visits?)?\s*(?:per|a|each|/)\s*week`), model.LimitPerWeek, model.TierHigh},
		{"per-month", regexp.MustCompile(num + `\s*(?:times?|sessions?|visits?)?\s*(?:per|a|each|/)\s*month`), model.LimitPerMonth, model.TierHigh},
		{"per-year", regexp.MustCompile(num + `\s*(?:times?|sessions?|visits?)?\s*(?:per|a|each|/)\s*(?:year|annum)`), model.LimitPerYear, model.TierHigh},
		{"weekly", regexp.MustCompile(`weekly\s+(?:limit|maximum)\s*(?:of|:)?\s*` + num), model.LimitPerWeek, model.TierMedium},
		{"monthly", regexp.MustCompile(`monthly\s+(?:limit|maximum)\s*(?:of|:)?\s*` + num), model.LimitPerMonth, model.TierMedium},
		{"annual", regexp.MustCompile(`annual\s+(?:limit|maximum)\s*(?:of|:)?\s*` + num), model.LimitPerYear, model.TierMedium},
		{"max-total", regexp.MustCompile(`(?:max(?:imum)?|up\s+to|not\s+(?:to\s+)?exceed(?:ing)?|limited?\s+to)\s*(?:of|:)?\s*` + num + `(?:\s+(?:in\s+)?total|\s+sessions?|\s+visits?|\s*$)`), model.LimitMaxTotal, model.TierMedium},
	}
}

// unitSynonyms maps unit phrases to canonical tariff units
var unitSynonyms = map[string]model.TariffUnit{
	"per session":  model.UnitPerSession,
	"each session": model.UnitPerSession,
	"/session":     model.UnitPerSession,
	"a session":    model.UnitPerSession,
	"per day":      model.UnitPerDay,
	"daily":        model.UnitPerDay,
	"/day":         model.UnitPerDay,
	"per month":    model.UnitPerMonth,
	"monthly":      model.UnitPerMonth,
	"/month":       model.UnitPerMonth,
	"per year":     model.UnitPerYear,
	"per annum":    model.UnitPerYear,
	"annually":     model.UnitPerYear,
	"/year":        model.UnitPerYear,
	"per visit":    model.UnitPerVisit,
	"each visit":   model.UnitPerVisit,
	"/visit":       model.UnitPerVisit,
}

// CanonicalUnit maps a unit phrase to its canonical tariff unit, or
// UnitUnspecified when the phrase is not recognized
func CanonicalUnit(phrase string) model.TariffUnit {
	p := strings.ToLower(strings.TrimSpace(phrase))
	p = strings.Join(strings.Fields(p), " ")
	if unit, ok := unitSynonyms[p]; ok {
		return unit
	}
	// Tolerate surrounding words ("birr per session")
	for syn, unit := range unitSynonyms {
		if strings.Contains(p, syn) {
			return unit
		}
	}
	return model.UnitUnspecified
}
