package detect

import (
	"fmt"

	"policylens/internal/model"
)

// TariffDetector flags a (service_key, unit) group whose extreme tariff
// values diverge beyond the configured variance. Cross-unit comparisons
// are forbidden: rules with unspecified units never enter a group, so a
// per_session amount can never contradict a per_day amount.
type TariffDetector struct {
	opts Options
}

func (d *TariffDetector) Name() string { return "tariff" }

func (d *TariffDetector) Detect(rules []model.Rule) ([]model.Contradiction, error) {
	groups, keys := groupBy(rules, func(r model.Rule) (string, bool) {
		if !r.HasTariff() || r.TariffUnit == model.UnitUnspecified {
			return "", false
		}
		return r.ServiceKey + "|" + string(r.TariffUnit), true
	})

	var found []model.Contradiction
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}

		lo, hi := group[0], group[0]
		distinct := map[float64]bool{}
		for _, rule := range group {
			v := *rule.TariffValue
			distinct[v] = true
			if v < *lo.TariffValue {
				lo = rule
			}
			if v > *hi.TariffValue {
				hi = rule
			}
		}
		if len(distinct) < 2 {
			continue
		}

		sp := spread(*lo.TariffValue, *hi.TariffValue)
		if sp <= d.opts.TariffVariance {
			continue
		}

		// Sides in document order
		left, right := lo, hi
		if right.SourcePage < left.SourcePage {
			left, right = right, left
		}

		details := fmt.Sprintf("tariff %s ranges from %.2f (p.%d) to %.2f (p.%d), %.0f%% apart",
			lo.TariffUnit, *lo.TariffValue, lo.SourcePage, *hi.TariffValue, hi.SourcePage, sp*100)

		c, err := model.NewContradiction(model.ContradictionTariff, left.ServiceKey, details, evidence(left), evidence(right))
		if err != nil {
			return nil, err
		}
		c.Unit = left.TariffUnit
		c.LeftTier, c.RightTier = left.Confidence, right.Confidence
		if sp >= d.opts.HighSeverityVariance || d.opts.highRisk(lo, hi) {
			c.Severity = model.SeverityHigh
		}
		found = append(found, c)
	}
	return found, nil
}
