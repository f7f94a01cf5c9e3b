package normalize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"policylens/internal/model"
)

func TestNormalizer_BindsNearestUnit(t *testing.T) {
	n := New(1, 6)

	// "Dialysis is charged at 500 birr per session"
	text := "Dialysis is charged at 500 birr per session at general hospitals."
	rec := model.RawRecord{
		RawText: text,
		Service: "Dialysis",
		Amounts: []model.Amount{{Value: 500, Offset: 23}},
		Units:   []model.Mention{{Text: "per session", Offset: 32}},
		Page:    4,
	}

	rule := n.Normalize(rec)

	if !rule.HasTariff() {
		t.Fatal("expected a bound tariff")
	}
	if *rule.TariffValue != 500 {
		t.Errorf("expected tariff 500, got %v", *rule.TariffValue)
	}
	if rule.TariffUnit != model.UnitPerSession {
		t.Errorf("expected per_session, got %s", rule.TariffUnit)
	}
	if rule.Confidence != model.TierHigh {
		t.Errorf("expected HIGH confidence for explicit binding, got %s", rule.Confidence)
	}
}

func TestNormalizer_UnitNotUpgradedWithoutEvidence(t *testing.T) {
	n := New(1, 6)

	rec := model.RawRecord{
		RawText: "Consultation fee of 200 birr applies.",
		Service: "Consultation",
		Amounts: []model.Amount{{Value: 200, Offset: 20}},
		Page:    2,
	}

	rule := n.Normalize(rec)

	if !rule.HasTariff() {
		t.Fatal("single amount should be kept")
	}
	if rule.TariffUnit != model.UnitUnspecified {
		t.Errorf("unit must stay unspecified without a unit phrase, got %s", rule.TariffUnit)
	}
}

func TestNormalizer_DoesNotBindAcrossSentences(t *testing.T) {
	n := New(1, 6)

	// The amount and the unit phrase sit in different sentences.
	text := "The registration fee is 50 birr. Visits are limited per day otherwise."
	rec := model.RawRecord{
		RawText: text,
		Service: "Registration",
		Amounts: []model.Amount{{Value: 50, Offset: 24}},
		Units:   []model.Mention{{Text: "per day", Offset: 56}},
		Page:    3,
	}

	rule := n.Normalize(rec)

	if rule.TariffUnit != model.UnitUnspecified {
		t.Errorf("amounts in unrelated sentences must not merge, got unit %s", rule.TariffUnit)
	}
}

func TestNormalizer_AmbiguousAmountsRejected(t *testing.T) {
	n := New(1, 6)

	rec := model.RawRecord{
		RawText: "Fees range widely: 100 birr or 900 birr depending on the ward.",
		Service: "Ward admission",
		Amounts: []model.Amount{{Value: 100, Offset: 19}, {Value: 900, Offset: 31}},
		Page:    7,
	}

	rule := n.Normalize(rec)

	if rule.HasTariff() {
		t.Errorf("ambiguous multi-amount line must not guess a tariff, got %v", *rule.TariffValue)
	}
}

func TestNormalizer_CoverageGuard(t *testing.T) {
	n := New(1, 6)

	cases := []struct {
		name string
		text string
		want model.CoverageStatus
	}{
		{"covered-at-level", "Physiotherapy is covered at level 4 facilities.", model.CoverageIncluded},
		{"not-covered", "Cosmetic surgery is not covered under this package.", model.CoverageExcluded},
		{"excluded", "Dental implants are excluded from the benefit schedule.", model.CoverageExcluded},
		{"no-coverage", "There is no coverage for experimental treatment.", model.CoverageExcluded},
		{"shall-not", "Fertility treatment shall not be covered.", model.CoverageExcluded},
		{"plain-listing", "Antenatal care, four visits.", model.CoverageIncluded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := n.Normalize(model.RawRecord{RawText: tc.text, Service: tc.name, Page: 1})
			if rule.Coverage != tc.want {
				t.Errorf("%q: expected %s, got %s", tc.text, tc.want, rule.Coverage)
			}
		})
	}
}

func TestNormalizer_LimitExtraction(t *testing.T) {
	n := New(1, 6)

	rec := model.RawRecord{
		RawText:      "Hemodialysis covered 3 times per week.",
		Service:      "Hemodialysis",
		LimitPhrases: []string{"3 times per week"},
		Page:         8,
	}

	rule := n.Normalize(rec)

	if got := rule.Limits[model.LimitPerWeek]; got != 3 {
		t.Errorf("expected per_week limit 3, got %v", got)
	}
}

func TestNormalizer_AmbiguousLimitPhraseRejected(t *testing.T) {
	n := New(1, 6)

	rec := model.RawRecord{
		RawText:      "Sessions: 2 to 3 times per week depending on severity.",
		Service:      "Physiotherapy",
		LimitPhrases: []string{"2 to 3 times per week"},
		Page:         9,
	}

	rule := n.Normalize(rec)

	if len(rule.Limits) != 0 {
		t.Errorf("multi-number limit phrase must be rejected, got %v", rule.Limits)
	}
}

func TestParseFacilityLevels(t *testing.T) {
	cases := []struct {
		name     string
		mentions []string
		want     []int
	}{
		{"explicit", []string{"level 4"}, []int{4}},
		{"range-hyphen", []string{"4-6"}, []int{4, 5, 6}},
		{"range-endash", []string{"levels 4–6"}, []int{4, 5, 6}},
		{"synonym", []string{"general hospital"}, []int{4}},
		{"mixed", []string{"health post", "level 3"}, []int{1, 3}},
		{"out-of-range", []string{"level 9"}, nil},
		{"garbage", []string{"outpatient wing"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseFacilityLevels(tc.mentions, 1, 6)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestEvidenceSnippetTruncatesOnRuneBoundary(t *testing.T) {
	text := strings.Repeat("é", 500)

	got := evidenceSnippet(text)

	if !utf8.ValidString(got) {
		t.Fatal("truncated snippet is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(got); n != 400 {
		t.Errorf("expected 400 runes, got %d", n)
	}
}

func TestCanonicalUnit(t *testing.T) {
	cases := map[string]model.TariffUnit{
		"per session":    model.UnitPerSession,
		"Per Day":        model.UnitPerDay,
		"birr per month": model.UnitPerMonth,
		"annually":       model.UnitPerYear,
		"each visit":     model.UnitPerVisit,
		"per fortnight":  model.UnitUnspecified,
		"something else": model.UnitUnspecified,
	}
	for phrase, want := range cases {
		if got := CanonicalUnit(phrase); got != want {
			t.Errorf("CanonicalUnit(%q): expected %s, got %s", phrase, want, got)
		}
	}
}
