package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// facilitySynonyms maps known facility names to their hierarchy level
var facilitySynonyms = map[string]int{
	"health post":          1,
	"health center":        2,
	"health centre":        2,
	"primary hospital":     3,
	"district hospital":    3,
	"general hospital":     4,
	"zonal hospital":       4,
	"specialized hospital": 5,
	"specialised hospital": 5,
	"referral hospital":    6,
	"tertiary hospital":    6,
}

var (
	// "4-6", "4 – 6", "levels 4 to 6"
	levelRangePattern = regexp.MustCompile(`(\d+)\s*(?:[-–—]|to|through)\s*(\d+)`)
	// "level 4", "tier 3", or a bare number
	levelPattern = regexp.MustCompile(`(?:level|tier)?\s*(\d+)`)
)

// ParseFacilityLevels canonicalizes facility mentions (explicit numeric
// levels, ranges and known synonyms) into a sorted integer set bounded
// to [min, max]. Mentions that resolve to nothing are dropped, never
// guessed at.
func ParseFacilityLevels(mentions []string, min, max int) []int {
	set := make(map[int]bool)

	for _, mention := range mentions {
		lower := strings.ToLower(strings.TrimSpace(mention))
		if lower == "" {
			continue
		}

		if level, ok := synonymLevel(lower); ok {
			set[level] = true
			continue
		}

		if m := levelRangePattern.FindStringSubmatch(lower); m != nil {
			lo, _ := strconv.Atoi(m[1])
			hi, _ := strconv.Atoi(m[2])
			if lo <= hi {
				for l := lo; l <= hi; l++ {
					set[l] = true
				}
			}
			continue
		}

		if m := levelPattern.FindStringSubmatch(lower); m != nil {
			if level, err := strconv.Atoi(m[1]); err == nil {
				set[level] = true
			}
		}
	}

	var levels []int
	for level := range set {
		if level >= min && level <= max {
			levels = append(levels, level)
		}
	}
	sort.Ints(levels)
	return levels
}

func synonymLevel(mention string) (int, bool) {
	if level, ok := facilitySynonyms[mention]; ok {
		return level, true
	}
	for name, level := range facilitySynonyms {
		if strings.Contains(mention, name) {
			return level, true
		}
	}
	return 0, false
}
