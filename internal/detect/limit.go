package detect

import (
	"fmt"
	"sort"
	"strings"

	"policylens/internal/model"
)

// LimitDetector flags a (service_key, limit_type) group carrying
// differing numeric values for the same canonical limit. One finding per
// group, built from the two most divergent values' evidence.
type LimitDetector struct {
	opts Options
}

func (d *LimitDetector) Name() string { return "limit" }

func (d *LimitDetector) Detect(rules []model.Rule) ([]model.Contradiction, error) {
	type entry struct {
		rule  model.Rule
		value float64
	}
	groups := make(map[string][]entry)
	var keys []string
	for _, rule := range rules {
		for ltype, value := range rule.Limits {
			key := rule.ServiceKey + "|" + string(ltype)
			if _, ok := groups[key]; !ok {
				keys = append(keys, key)
			}
			groups[key] = append(groups[key], entry{rule: rule, value: value})
		}
	}
	sort.Strings(keys)

	var found []model.Contradiction
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}

		lo, hi := group[0], group[0]
		for _, e := range group {
			if e.value < lo.value {
				lo = e
			}
			if e.value > hi.value {
				hi = e
			}
		}
		if lo.value == hi.value {
			continue
		}

		// Sides in document order
		left, right := lo, hi
		if right.rule.SourcePage < left.rule.SourcePage {
			left, right = right, left
		}

		ltype := key[strings.LastIndex(key, "|")+1:]
		details := fmt.Sprintf("limit %s stated as %g (p.%d) and %g (p.%d)",
			ltype, left.value, left.rule.SourcePage, right.value, right.rule.SourcePage)

		c, err := model.NewContradiction(model.ContradictionLimit, left.rule.ServiceKey, details, evidence(left.rule), evidence(right.rule))
		if err != nil {
			return nil, err
		}
		c.LeftTier, c.RightTier = left.rule.Confidence, right.rule.Confidence
		if spread(lo.value, hi.value) >= d.opts.HighSeverityVariance || d.opts.highRisk(lo.rule, hi.rule) {
			c.Severity = model.SeverityHigh
		}
		found = append(found, c)
	}
	return found, nil
}
