// Package score assigns a confidence tier to every finding.
//
// The tier combines the pattern specificity recorded during
// normalization, the number of corroborating evidence snippets, and an
// optional agreement score from the external collaborator. It is never
// raised above what the weakest contributing signal justifies.
package score

import (
	"policylens/internal/model"
)

// Scorer finalizes confidence on contradictions and gaps
type Scorer struct{}

// NewScorer creates a scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ScoreContradictions sets the numeric confidence and tier on each
// contradiction in place. agreement, when non-nil, is the collaborator's
// 0..1 agreement score for the batch.
func (s *Scorer) ScoreContradictions(cs []model.Contradiction, agreement *float64) {
	for i := range cs {
		c := &cs[i]
		left, right := tierOrLow(c.LeftTier), tierOrLow(c.RightTier)

		// Average of both sides, dominated by the weaker one
		weakest := left
		if right.Weight() < weakest.Weight() {
			weakest = right
		}
		confidence := (left.Weight() + right.Weight()) / 2
		if agreement != nil {
			confidence = (confidence + clamp01(*agreement)) / 2
		}
		if confidence > weakest.Weight() {
			confidence = weakest.Weight()
		}

		c.Confidence = confidence
		c.Tier = lowerTier(tierFromScore(confidence), weakest)
	}
}

// ScoreGaps sets the tier on each gap in place
func (s *Scorer) ScoreGaps(gaps []model.Gap, agreement *float64) {
	for i := range gaps {
		g := &gaps[i]

		if len(g.Matches) == 0 {
			// Absence of coverage is a real finding, but absence is
			// harder to corroborate than presence.
			g.Tier = model.TierMedium
			continue
		}

		weakest := model.TierHigh
		for _, t := range g.MatchTiers {
			weakest = lowerTier(weakest, tierOrLow(t))
		}

		tier := weakest
		// A single corroborating snippet caps the tier at MEDIUM
		if len(g.Matches) < 2 {
			tier = lowerTier(tier, model.TierMedium)
		}
		if agreement != nil {
			tier = lowerTier(tier, tierFromScore(clamp01(*agreement)))
		}
		g.Tier = tier
	}
}

func tierOrLow(t model.ConfidenceTier) model.ConfidenceTier {
	switch t {
	case model.TierHigh, model.TierMedium, model.TierLow:
		return t
	default:
		return model.TierLow
	}
}

func tierFromScore(score float64) model.ConfidenceTier {
	switch {
	case score >= 0.75:
		return model.TierHigh
	case score >= 0.45:
		return model.TierMedium
	default:
		return model.TierLow
	}
}

func lowerTier(a, b model.ConfidenceTier) model.ConfidenceTier {
	if a.Weight() <= b.Weight() {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
