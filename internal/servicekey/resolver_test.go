package servicekey

import "testing"

func TestResolver_Deterministic(t *testing.T) {
	r := NewResolver(0.80)

	first := r.Resolve("Hemodialysis", "dialysis")
	second := r.Resolve("Hemodialysis", "dialysis")

	if first != second {
		t.Errorf("identical input must resolve to the same key: %q vs %q", first, second)
	}
	if first != "dialysis:hemodialysis" {
		t.Errorf("unexpected key %q", first)
	}
}

func TestResolver_MergesSpellingVariants(t *testing.T) {
	r := NewResolver(0.80)

	a := r.Resolve("Haemodialysis", "dialysis")
	b := r.Resolve("Hemodialysis", "dialysis")

	if a != b {
		t.Errorf("spelling variants should merge: %q vs %q", a, b)
	}
}

func TestResolver_CategoryPreventsCollision(t *testing.T) {
	r := NewResolver(0.80)

	a := r.Resolve("level 4 services", "imaging")
	b := r.Resolve("level 4 services", "surgery")

	if a == b {
		t.Errorf("same description in different categories must not collide: %q", a)
	}
}

func TestResolver_DistinctServicesStaySeparate(t *testing.T) {
	r := NewResolver(0.80)

	a := r.Resolve("Physiotherapy", "rehab")
	b := r.Resolve("Psychotherapy", "rehab")

	if a == b {
		t.Errorf("distinct services must not merge: %q", a)
	}
}

func TestCanonicalize(t *testing.T) {
	cases := map[string]string{
		"Hemodialysis Services":  "hemodialysis",
		"  The X-Ray  (chest)  ": "x ray chest",
		"Care for the Elderly":   "care elderly",
	}
	for in, want := range cases {
		if got := Canonicalize(in); got != want {
			t.Errorf("Canonicalize(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if s := Similarity("hemodialysis", "hemodialysis"); s != 1 {
		t.Errorf("identical strings should score 1, got %f", s)
	}
	if s := Similarity("hemodialysis", "haemodialysis"); s < 0.80 {
		t.Errorf("near-identical strings should pass the default threshold, got %f", s)
	}
	if s := Similarity("physiotherapy", "oncology"); s >= 0.80 {
		t.Errorf("unrelated strings should not pass the threshold, got %f", s)
	}
}
