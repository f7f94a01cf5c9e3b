package servicekey

import (
	"regexp"
	"strings"
)

// DefaultThreshold is the default fuzzy-merge similarity threshold.
// The value is a deliberate precision/recall tradeoff: raising it
// under-merges spelling variants, lowering it over-merges distinct
// services. It is tunable, not a constant to be "fixed".
const DefaultThreshold = 0.80

// Resolver derives stable grouping keys from service descriptions.
// Keys are prefixed by category so a generic facility-tier mention can
// never collide with an unrelated service's key.
//
// The resolver is stateful within a run: near-identical descriptions
// merge onto the first-issued key. Resolution is deterministic for an
// identical input sequence.
type Resolver struct {
	threshold float64

	// canon per category: canonical form -> issued key
	seen map[string]map[string]string
	// canonical forms per category in issue order, for deterministic
	// fuzzy lookup
	issued map[string][]string
}

// NewResolver creates a resolver with the given similarity threshold;
// values outside (0,1] fall back to DefaultThreshold
func NewResolver(threshold float64) *Resolver {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Resolver{
		threshold: threshold,
		seen:      make(map[string]map[string]string),
		issued:    make(map[string][]string),
	}
}

// Resolve derives the service key for a description and optional
// category tag
func (r *Resolver) Resolve(service, category string) string {
	canon := Canonicalize(service)
	if canon == "" {
		canon = "unknown"
	}
	cat := categoryTag(category)

	byCanon, ok := r.seen[cat]
	if !ok {
		byCanon = make(map[string]string)
		r.seen[cat] = byCanon
	}

	if key, ok := byCanon[canon]; ok {
		return key
	}

	// Merge trivial spelling variants onto a previously issued key.
	// Iterate the issue-order list, not the map, for determinism.
	var best string
	bestScore := r.threshold
	for _, prior := range r.order(cat) {
		score := Similarity(canon, prior)
		if score >= bestScore {
			bestScore = score
			best = prior
		}
	}
	if best != "" {
		key := byCanon[best]
		byCanon[canon] = key
		return key
	}

	key := cat + ":" + slug(canon)
	byCanon[canon] = key
	r.issued[cat] = append(r.issued[cat], canon)
	return key
}

// order returns prior canonical forms in issue order
func (r *Resolver) order(cat string) []string {
	return r.issued[cat]
}

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9 ]+`)
	stopwords  = map[string]bool{"the": true, "a": true, "an": true, "of": true, "for": true, "and": true, "services": true, "service": true}
	whitespace = regexp.MustCompile(`\s+`)
)

// Canonicalize lowers, strips punctuation and stopwords, and collapses
// whitespace so spelling variants compare cleanly
func Canonicalize(service string) string {
	s := strings.ToLower(strings.TrimSpace(service))
	s = nonAlnum.ReplaceAllString(s, " ")
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !stopwords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func categoryTag(category string) string {
	cat := strings.ToLower(strings.TrimSpace(category))
	cat = whitespace.ReplaceAllString(cat, "_")
	if cat == "" {
		return "general"
	}
	return cat
}

func slug(canon string) string {
	return strings.ReplaceAll(canon, " ", "_")
}
