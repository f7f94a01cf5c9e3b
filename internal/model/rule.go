package model

// TariffUnit is the normalized billing-frequency unit bound to a monetary amount
type TariffUnit string

const (
	UnitPerSession  TariffUnit = "per_session"
	UnitPerDay      TariffUnit = "per_day"
	UnitPerMonth    TariffUnit = "per_month"
	UnitPerYear     TariffUnit = "per_year"
	UnitPerVisit    TariffUnit = "per_visit"
	UnitUnspecified TariffUnit = "unspecified"
)

// CoverageStatus classifies whether a rule includes or excludes a service
type CoverageStatus string

const (
	CoverageIncluded CoverageStatus = "included"
	CoverageExcluded CoverageStatus = "excluded"
)

// LimitType is a canonical quantity-limit key
type LimitType string

const (
	LimitPerWeek  LimitType = "per_week"
	LimitPerMonth LimitType = "per_month"
	LimitPerYear  LimitType = "per_year"
	LimitMaxTotal LimitType = "max_total"
)

// ConfidenceTier grades how confidently a value was extracted or a finding
// is supported
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "HIGH"
	TierMedium ConfidenceTier = "MEDIUM"
	TierLow    ConfidenceTier = "LOW"
)

// Weight maps a tier to a numeric confidence in [0,1]
func (t ConfidenceTier) Weight() float64 {
	switch t {
	case TierHigh:
		return 0.9
	case TierMedium:
		return 0.6
	default:
		return 0.3
	}
}

// Rule is the canonical record for one policy line item
type Rule struct {
	Service     string     `json:"service"`                // Service description as extracted
	ServiceKey  string     `json:"service_key"`            // Derived grouping key
	Category    string     `json:"category,omitempty"`     // Category tag from the source table
	TariffValue *float64   `json:"tariff_value,omitempty"` // nil when no amount could be bound
	TariffUnit  TariffUnit `json:"tariff_unit"`

	Coverage       CoverageStatus        `json:"coverage_status"`
	FacilityLevels []int                 `json:"facility_levels,omitempty"` // Sorted integer set
	Limits         map[LimitType]float64 `json:"limits,omitempty"`

	SourcePage int            `json:"source_page"`
	Evidence   string         `json:"evidence_snippet"`
	Confidence ConfidenceTier `json:"extraction_confidence"`
}

// HasTariff reports whether the rule carries a bound monetary amount
func (r *Rule) HasTariff() bool {
	return r.TariffValue != nil
}

// HasLevel reports whether the rule's facility level set contains level
func (r *Rule) HasLevel(level int) bool {
	for _, l := range r.FacilityLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Amount is a candidate monetary amount with its position in the raw text
type Amount struct {
	Value  float64 `json:"value"`
	Offset int     `json:"offset"` // Byte offset in RawText
}

// Mention is a candidate phrase with its position in the raw text
type Mention struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// RawRecord is one extracted rule line/row as delivered by the extraction
// subsystem. Offsets refer to RawText so amounts can be bound to the unit
// phrase they actually sit next to.
type RawRecord struct {
	RawText          string    `json:"raw_text"`
	Service          string    `json:"service,omitempty"`
	Category         string    `json:"category,omitempty"`
	Amounts          []Amount  `json:"candidate_amounts,omitempty"`
	Units            []Mention `json:"candidate_units,omitempty"`
	FacilityMentions []string  `json:"candidate_facility_mentions,omitempty"`
	LimitPhrases     []string  `json:"candidate_limit_phrases,omitempty"`
	Page             int       `json:"page_index"`
}
