package model

import (
	"fmt"
	"strings"
)

// ContradictionType identifies which sub-detector produced a finding
type ContradictionType string

const (
	ContradictionTariff   ContradictionType = "tariff"
	ContradictionLimit    ContradictionType = "limit"
	ContradictionCoverage ContradictionType = "coverage"
	ContradictionFacility ContradictionType = "facility_exclusion"
)

// Severity grades how serious a contradiction is
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// InsightStatus marks whether a finding was seen in a previous run
type InsightStatus string

const (
	InsightNew       InsightStatus = "new"
	InsightRecurring InsightStatus = "recurring"
)

// EvidenceRef points at the source text backing one side of a finding
type EvidenceRef struct {
	Page    int    `json:"page"`
	Snippet string `json:"snippet"`
}

// Contradiction is an internal inconsistency between rules sharing a
// service key. Both evidence sides are always populated; construction
// fails otherwise.
type Contradiction struct {
	Type       ContradictionType `json:"type"`
	ServiceKey string            `json:"service_key"`
	Unit       TariffUnit        `json:"unit,omitempty"` // Empty for non-tariff types
	Details    string            `json:"details"`

	Left  EvidenceRef `json:"left"`
	Right EvidenceRef `json:"right"`

	Severity   Severity       `json:"severity"`
	Confidence float64        `json:"confidence"` // 0..1
	Tier       ConfidenceTier `json:"confidence_tier"`

	Dedup InsightStatus `json:"dedup_status,omitempty"`

	// Extraction tiers of the two underlying rules, kept for scoring
	LeftTier  ConfidenceTier `json:"-"`
	RightTier ConfidenceTier `json:"-"`
}

// NewContradiction builds a contradiction and enforces the
// evidence-integrity invariant: a finding with a missing page or snippet
// on either side is rejected here, never emitted with placeholder text.
func NewContradiction(ctype ContradictionType, serviceKey, details string, left, right EvidenceRef) (Contradiction, error) {
	if serviceKey == "" {
		return Contradiction{}, fmt.Errorf("contradiction %s: empty service key", ctype)
	}
	if err := checkEvidence(ctype, serviceKey, "left", left); err != nil {
		return Contradiction{}, err
	}
	if err := checkEvidence(ctype, serviceKey, "right", right); err != nil {
		return Contradiction{}, err
	}
	return Contradiction{
		Type:       ctype,
		ServiceKey: serviceKey,
		Details:    details,
		Left:       left,
		Right:      right,
		Severity:   SeverityMedium,
	}, nil
}

func checkEvidence(ctype ContradictionType, serviceKey, side string, ev EvidenceRef) error {
	if ev.Page <= 0 {
		return fmt.Errorf("contradiction %s (%s): %s evidence missing page", ctype, serviceKey, side)
	}
	if strings.TrimSpace(ev.Snippet) == "" {
		return fmt.Errorf("contradiction %s (%s): %s evidence missing snippet", ctype, serviceKey, side)
	}
	return nil
}

// GapStatus classifies coverage adequacy for a condition
type GapStatus string

const (
	StatusNoCoverage GapStatus = "NO_COVERAGE_FOUND"
	StatusMinimal    GapStatus = "MINIMAL_COVERAGE"
	StatusAdequate   GapStatus = "ADEQUATE"
)

// RiskLevel is the externally configured clinical risk of a condition
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// NoMatchesMarker is the explicit evidence marker for zero-match gaps
const NoMatchesMarker = "no matches found"

// Gap is a condition whose expected coverage is absent or insufficient
type Gap struct {
	Condition        string    `json:"condition"`
	ExpectedKeywords []string  `json:"expected_keywords"`
	Status           GapStatus `json:"status"`
	Risk             RiskLevel `json:"risk_level"`

	Matches  []EvidenceRef `json:"matches,omitempty"`
	Evidence string        `json:"evidence"` // Matched snippets, or NoMatchesMarker

	Tier  ConfidenceTier `json:"confidence_tier"`
	Dedup InsightStatus  `json:"dedup_status,omitempty"`

	// Extraction tiers of the matched rules, kept for scoring
	MatchTiers []ConfidenceTier `json:"-"`
}

// Description is the human-readable identity of the gap, used for
// cross-run signatures
func (g *Gap) Description() string {
	return fmt.Sprintf("%s coverage %s", g.Condition, strings.ToLower(string(g.Status)))
}
