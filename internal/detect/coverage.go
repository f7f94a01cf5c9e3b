package detect

import (
	"fmt"

	"policylens/internal/model"
)

// CoverageDetector flags a service key listed as both included and
// excluded. One finding per group: the highest-confidence rule on each
// side carries the evidence.
type CoverageDetector struct {
	opts Options
}

func (d *CoverageDetector) Name() string { return "coverage" }

func (d *CoverageDetector) Detect(rules []model.Rule) ([]model.Contradiction, error) {
	groups, keys := groupBy(rules, func(r model.Rule) (string, bool) {
		return r.ServiceKey, true
	})

	var found []model.Contradiction
	for _, key := range keys {
		group := groups[key]

		var included, excluded *model.Rule
		for i := range group {
			rule := &group[i]
			switch rule.Coverage {
			case model.CoverageIncluded:
				if included == nil || rule.Confidence.Weight() > included.Confidence.Weight() {
					included = rule
				}
			case model.CoverageExcluded:
				if excluded == nil || rule.Confidence.Weight() > excluded.Confidence.Weight() {
					excluded = rule
				}
			}
		}
		if included == nil || excluded == nil {
			continue
		}

		details := fmt.Sprintf("service is included on p.%d but excluded on p.%d",
			included.SourcePage, excluded.SourcePage)

		c, err := model.NewContradiction(model.ContradictionCoverage, key, details, evidence(*included), evidence(*excluded))
		if err != nil {
			return nil, err
		}
		c.LeftTier, c.RightTier = included.Confidence, excluded.Confidence
		if d.opts.highRisk(*included, *excluded) {
			c.Severity = model.SeverityHigh
		}
		found = append(found, c)
	}
	return found, nil
}
