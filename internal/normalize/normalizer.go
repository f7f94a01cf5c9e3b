package normalize

import (
	"regexp"
	"strings"

	"policylens/internal/model"
)

// maxUnitDistance is how far (in bytes) a unit phrase may sit from a
// monetary amount and still be bound to it
const maxUnitDistance = 60

// Normalizer turns raw extracted fields into canonical Rule records.
// Any field that cannot be confidently extracted is set to its
// "unspecified"/empty sentinel, never fabricated.
type Normalizer struct {
	levelMin int
	levelMax int

	coverage []coverageStrategy
	limits   []limitStrategy
}

// New creates a normalizer bounded to the given facility level range
func New(levelMin, levelMax int) *Normalizer {
	if levelMax <= levelMin {
		levelMin, levelMax = 1, 6
	}
	return &Normalizer{
		levelMin: levelMin,
		levelMax: levelMax,
		coverage: coverageStrategies(),
		limits:   limitStrategies(),
	}
}

// Normalize converts one raw record into a canonical Rule.
// The service key is left empty; the resolver assigns it afterwards.
func (n *Normalizer) Normalize(rec model.RawRecord) model.Rule {
	rule := model.Rule{
		Service:    serviceDescription(rec),
		Category:   strings.ToLower(strings.TrimSpace(rec.Category)),
		TariffUnit: model.UnitUnspecified,
		SourcePage: rec.Page,
		Evidence:   evidenceSnippet(rec.RawText),
	}

	tariffTier := n.bindTariff(rec, &rule)
	coverageTier := n.classifyCoverage(rec.RawText, &rule)
	limitTier := n.extractLimits(rec.LimitPhrases, &rule)
	rule.FacilityLevels = ParseFacilityLevels(rec.FacilityMentions, n.levelMin, n.levelMax)

	rule.Confidence = combineTiers(tariffTier, coverageTier, limitTier)
	return rule
}

// NormalizeAll converts a batch of raw records
func (n *Normalizer) NormalizeAll(recs []model.RawRecord) []model.Rule {
	rules := make([]model.Rule, 0, len(recs))
	for _, rec := range recs {
		rules = append(rules, n.Normalize(rec))
	}
	return rules
}

// bindTariff binds a monetary amount to its nearest unit phrase using
// positional proximity. Amounts in unrelated sentences are never merged:
// a unit phrase separated from the amount by a sentence terminator does
// not qualify.
func (n *Normalizer) bindTariff(rec model.RawRecord, rule *model.Rule) model.ConfidenceTier {
	type binding struct {
		amount model.Amount
		unit   model.TariffUnit
		dist   int
	}
	var best *binding

	for _, amt := range rec.Amounts {
		for _, um := range rec.Units {
			unit := CanonicalUnit(um.Text)
			if unit == model.UnitUnspecified {
				continue
			}
			dist := um.Offset - amt.Offset
			if dist < 0 {
				dist = -dist
			}
			if dist > maxUnitDistance {
				continue
			}
			if crossesSentence(rec.RawText, amt.Offset, um.Offset) {
				continue
			}
			if best == nil || dist < best.dist {
				best = &binding{amount: amt, unit: unit, dist: dist}
			}
		}
	}

	if best != nil {
		v := best.amount.Value
		rule.TariffValue = &v
		rule.TariffUnit = best.unit
		return model.TierHigh
	}

	// A single amount with no unit phrase anywhere is kept, but the
	// unit stays unspecified: it is never silently upgraded.
	if len(rec.Amounts) == 1 {
		v := rec.Amounts[0].Value
		rule.TariffValue = &v
		return model.TierMedium
	}

	// Multiple amounts and no confident binding: ambiguous, reject
	// rather than guess.
	return model.TierLow
}

// classifyCoverage runs the ordered coverage strategies; first match wins
func (n *Normalizer) classifyCoverage(text string, rule *model.Rule) model.ConfidenceTier {
	lower := strings.ToLower(text)
	for _, s := range n.coverage {
		if s.re.MatchString(lower) {
			rule.Coverage = s.status
			return s.tier
		}
	}
	// No explicit coverage language: a listed service defaults to included
	rule.Coverage = model.CoverageIncluded
	return model.TierLow
}

// extractLimits runs the ordered limit strategies over each candidate
// phrase. Phrases carrying more than one number are ambiguous and are
// rejected rather than guessed at.
func (n *Normalizer) extractLimits(phrases []string, rule *model.Rule) model.ConfidenceTier {
	tier := model.ConfidenceTier("")
	for _, phrase := range phrases {
		lower := strings.ToLower(phrase)
		if len(numberPattern.FindAllString(lower, -1)) > 1 {
			continue
		}
		for _, s := range n.limits {
			ltype, value, ok := s.match(lower)
			if !ok {
				continue
			}
			if rule.Limits == nil {
				rule.Limits = make(map[model.LimitType]float64)
			}
			rule.Limits[ltype] = value
			if tier == "" || s.tier == model.TierHigh {
				tier = s.tier
			}
			break
		}
	}
	return tier
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// crossesSentence reports whether a sentence terminator sits between the
// two offsets
func crossesSentence(text string, a, b int) bool {
	if a > b {
		a, b = b, a
	}
	if a < 0 || b > len(text) {
		return false
	}
	return strings.ContainsAny(text[a:b], ".;!?")
}

// serviceDescription picks the service field, falling back to the first
// clause of the raw text
func serviceDescription(rec model.RawRecord) string {
	if s := strings.TrimSpace(rec.Service); s != "" {
		return s
	}
	text := strings.TrimSpace(rec.RawText)
	for _, sep := range []string{".", ";", ":", ","} {
		if idx := strings.Index(text, sep); idx > 0 {
			text = text[:idx]
			break
		}
	}
	return text
}

// evidenceSnippet keeps the raw text as the evidence snippet, trimmed to
// a sane length but never below 150 chars when that much is available
func evidenceSnippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	const maxLen = 400
	if runes := []rune(text); len(runes) > maxLen {
		text = string(runes[:maxLen])
	}
	return text
}

// combineTiers folds per-field extraction tiers into the rule's overall
// extraction confidence: explicit > inferred > absent
func combineTiers(tiers ...model.ConfidenceTier) model.ConfidenceTier {
	best := model.TierLow
	for _, t := range tiers {
		switch t {
		case model.TierHigh:
			return model.TierHigh
		case model.TierMedium:
			best = model.TierMedium
		}
	}
	return best
}
