package detect

import (
	"strings"
	"testing"

	"policylens/internal/model"
)

func makeRule(key string, page int, opts func(*model.Rule)) model.Rule {
	rule := model.Rule{
		Service:    key,
		ServiceKey: key,
		TariffUnit: model.UnitUnspecified,
		Coverage:   model.CoverageIncluded,
		SourcePage: page,
		Evidence:   "evidence text for " + key + " mentioned in the source document with enough surrounding context",
		Confidence: model.TierHigh,
	}
	if opts != nil {
		opts(&rule)
	}
	return rule
}

func withTariff(value float64, unit model.TariffUnit) func(*model.Rule) {
	return func(r *model.Rule) {
		r.TariffValue = &value
		r.TariffUnit = unit
	}
}

func TestTariffDetector_OnePerGroup(t *testing.T) {
	d := &TariffDetector{opts: DefaultOptions()}

	rules := []model.Rule{
		makeRule("general:mri", 3, withTariff(1000, model.UnitPerSession)),
		makeRule("general:mri", 9, withTariff(1500, model.UnitPerSession)),
		makeRule("general:mri", 12, withTariff(2000, model.UnitPerSession)),
	}

	found, err := d.Detect(rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected exactly one tariff contradiction per group, got %d", len(found))
	}

	c := found[0]
	if c.Type != model.ContradictionTariff {
		t.Errorf("expected tariff type, got %s", c.Type)
	}
	if c.Unit != model.UnitPerSession {
		t.Errorf("expected per_session unit, got %s", c.Unit)
	}
	// Extreme values carry the evidence: pages 3 and 12
	if c.Left.Page != 3 || c.Right.Page != 12 {
		t.Errorf("expected evidence pages 3 and 12, got %d and %d", c.Left.Page, c.Right.Page)
	}
}

func TestTariffDetector_CrossUnitGuard(t *testing.T) {
	d := &TariffDetector{opts: DefaultOptions()}

	// Scenario C: same service, differing amounts, different units
	rules := []model.Rule{
		makeRule("general:dialysis", 5, withTariff(500, model.UnitPerSession)),
		makeRule("general:dialysis", 11, withTariff(1500, model.UnitPerDay)),
	}

	found, err := d.Detect(rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("cross-unit comparison is forbidden, got %d findings", len(found))
	}
}

func TestTariffDetector_BelowThreshold(t *testing.T) {
	d := &TariffDetector{opts: DefaultOptions()}

	rules := []model.Rule{
		makeRule("general:xray", 2, withTariff(100, model.UnitPerVisit)),
		makeRule("general:xray", 6, withTariff(110, model.UnitPerVisit)),
	}

	found, err := d.Detect(rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("10%% spread is below the default threshold, got %d findings", len(found))
	}
}

func TestLimitDetector_ScenarioA(t *testing.T) {
	d := &LimitDetector{opts: DefaultOptions()}

	rules := []model.Rule{
		makeRule("dialysis:hemodialysis", 8, func(r *model.Rule) {
			r.Limits = map[model.LimitType]float64{model.LimitPerWeek: 3}
		}),
		makeRule("dialysis:hemodialysis", 15, func(r *model.Rule) {
			r.Limits = map[model.LimitType]float64{model.LimitPerWeek: 2}
		}),
	}

	found, err := d.Detect(rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected exactly one limit contradiction, got %d", len(found))
	}

	c := found[0]
	if c.Severity != model.SeverityHigh {
		t.Errorf("expected HIGH severity, got %s", c.Severity)
	}
	if c.Left.Page != 8 || c.Right.Page != 15 {
		t.Errorf("expected left_page=8 right_page=15, got %d and %d", c.Left.Page, c.Right.Page)
	}
	if !strings.Contains(c.Details, "per_week") {
		t.Errorf("details should name the limit type: %q", c.Details)
	}
}

func TestCoverageDetector(t *testing.T) {
	d := &CoverageDetector{opts: DefaultOptions()}

	rules := []model.Rule{
		makeRule("general:optometry", 4, nil),
		makeRule("general:optometry", 21, func(r *model.Rule) {
			r.Coverage = model.CoverageExcluded
		}),
		makeRule("general:dental", 6, nil),
	}

	found, err := d.Detect(rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected one coverage contradiction, got %d", len(found))
	}
	if found[0].ServiceKey != "general:optometry" {
		t.Errorf("wrong service key: %s", found[0].ServiceKey)
	}
}

func TestFacilityDetector_OverlappingLevel(t *testing.T) {
	d := &FacilityDetector{opts: DefaultOptions()}

	rules := []model.Rule{
		makeRule("general:surgery", 10, func(r *model.Rule) {
			r.FacilityLevels = []int{4, 5, 6}
		}),
		makeRule("general:surgery", 17, func(r *model.Rule) {
			r.Coverage = model.CoverageExcluded
			r.FacilityLevels = []int{5, 6}
		}),
	}

	found, err := d.Detect(rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One finding per overlapping level, not per rule pair
	if len(found) != 2 {
		t.Fatalf("expected one finding per overlapping level (5 and 6), got %d", len(found))
	}
}

func TestFacilityDetector_DisjointLevels(t *testing.T) {
	d := &FacilityDetector{opts: DefaultOptions()}

	rules := []model.Rule{
		makeRule("general:maternity", 3, func(r *model.Rule) {
			r.FacilityLevels = []int{1, 2}
		}),
		makeRule("general:maternity", 14, func(r *model.Rule) {
			r.Coverage = model.CoverageExcluded
			r.FacilityLevels = []int{5, 6}
		}),
	}

	found, err := d.Detect(rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("disjoint level sets must emit nothing, got %d findings", len(found))
	}
}

func TestNewContradiction_RejectsMissingEvidence(t *testing.T) {
	_, err := model.NewContradiction(model.ContradictionTariff, "general:mri", "details",
		model.EvidenceRef{Page: 3, Snippet: "left side"},
		model.EvidenceRef{Page: 0, Snippet: "right side"})
	if err == nil {
		t.Error("missing page must be rejected at construction time")
	}

	_, err = model.NewContradiction(model.ContradictionTariff, "general:mri", "details",
		model.EvidenceRef{Page: 3, Snippet: "   "},
		model.EvidenceRef{Page: 9, Snippet: "right side"})
	if err == nil {
		t.Error("blank snippet must be rejected at construction time")
	}
}
