package detect

import (
	"fmt"
	"sort"

	"policylens/internal/model"
)

// FacilityDetector flags a facility level that appears in both an
// excluded rule's level set and an included rule's level set for the
// same service key. One finding per overlapping level, not per rule
// pair; disjoint level sets emit nothing.
type FacilityDetector struct {
	opts Options
}

func (d *FacilityDetector) Name() string { return "facility_exclusion" }

func (d *FacilityDetector) Detect(rules []model.Rule) ([]model.Contradiction, error) {
	groups, keys := groupBy(rules, func(r model.Rule) (string, bool) {
		return r.ServiceKey, len(r.FacilityLevels) > 0
	})

	var found []model.Contradiction
	for _, key := range keys {
		group := groups[key]

		// level -> first rule claiming it on each side
		includedAt := make(map[int]*model.Rule)
		excludedAt := make(map[int]*model.Rule)
		for i := range group {
			rule := &group[i]
			for _, level := range rule.FacilityLevels {
				switch rule.Coverage {
				case model.CoverageIncluded:
					if includedAt[level] == nil {
						includedAt[level] = rule
					}
				case model.CoverageExcluded:
					if excludedAt[level] == nil {
						excludedAt[level] = rule
					}
				}
			}
		}

		var overlap []int
		for level := range includedAt {
			if excludedAt[level] != nil {
				overlap = append(overlap, level)
			}
		}
		sort.Ints(overlap)

		for _, level := range overlap {
			inc, exc := includedAt[level], excludedAt[level]
			details := fmt.Sprintf("facility level %d is covered on p.%d but excluded on p.%d",
				level, inc.SourcePage, exc.SourcePage)

			c, err := model.NewContradiction(model.ContradictionFacility, key, details, evidence(*inc), evidence(*exc))
			if err != nil {
				return nil, err
			}
			c.LeftTier, c.RightTier = inc.Confidence, exc.Confidence
			if d.opts.highRisk(*inc, *exc) {
				c.Severity = model.SeverityHigh
			}
			found = append(found, c)
		}
	}
	return found, nil
}
