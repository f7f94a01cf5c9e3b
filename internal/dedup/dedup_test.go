package dedup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"policylens/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Source: "policy.jsonl",
		Contradictions: []model.Contradiction{{
			Type:       model.ContradictionLimit,
			ServiceKey: "dialysis:hemodialysis",
			Details:    "limit per_week stated as 3 (p.8) and 2 (p.15)",
			Left:       model.EvidenceRef{Page: 8, Snippet: "three sessions per week"},
			Right:      model.EvidenceRef{Page: 15, Snippet: "limited to twice weekly"},
			Severity:   model.SeverityHigh,
		}},
		Gaps: []model.Gap{{
			Condition: "stroke rehabilitation",
			Status:    model.StatusNoCoverage,
			Risk:      model.RiskHigh,
			Evidence:  model.NoMatchesMarker,
		}},
	}
}

func TestSignature_StableAcrossPageShifts(t *testing.T) {
	a := Signature("contradiction.limit", "limit per_week stated as 3 (p.8) and 2 (p.15)")
	b := Signature("contradiction.limit", "limit per_week stated as 3 (p.9) and 2 (p.16)")
	if a != b {
		t.Errorf("page shift changed the signature: %q vs %q", a, b)
	}

	c := Signature("contradiction.limit", "limit per_week stated as 4 (p.8) and 2 (p.15)")
	if a == c {
		t.Error("different limit values should yield different signatures")
	}

	d := Signature("gap", "limit per_week stated as 3 (p.8) and 2 (p.15)")
	if a == d {
		t.Error("kind must partition the signature space")
	}
}

func TestMerge_NewThenRecurring(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := sampleReport()
	if err := New(store, nil, "run-1").Merge(ctx, first); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if first.Contradictions[0].Dedup != model.InsightNew {
		t.Errorf("first run should mark contradiction new, got %s", first.Contradictions[0].Dedup)
	}
	if first.Gaps[0].Dedup != model.InsightNew {
		t.Errorf("first run should mark gap new, got %s", first.Gaps[0].Dedup)
	}

	second := sampleReport()
	if err := New(store, nil, "run-2").Merge(ctx, second); err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if second.Contradictions[0].Dedup != model.InsightRecurring {
		t.Errorf("second run should mark contradiction recurring, got %s", second.Contradictions[0].Dedup)
	}
	if second.Gaps[0].Dedup != model.InsightRecurring {
		t.Errorf("second run should mark gap recurring, got %s", second.Gaps[0].Dedup)
	}

	records := store.All()
	if len(records) != 2 {
		t.Fatalf("two runs of identical findings should hold 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Count != 2 {
			t.Errorf("record %s: count %d, want 2", rec.Signature, rec.Count)
		}
		if rec.FirstSeenRunID != "run-1" {
			t.Errorf("record %s: first seen %s, want run-1", rec.Signature, rec.FirstSeenRunID)
		}
	}
}

func TestMerge_DistinctServicesStaySeparate(t *testing.T) {
	store := NewMemoryStore()

	coverage := func(key string) model.Contradiction {
		// Identical wording for both services: only the service key
		// distinguishes them
		return model.Contradiction{
			Type:       model.ContradictionCoverage,
			ServiceKey: key,
			Details:    "service is included on p.4 but excluded on p.21",
			Left:       model.EvidenceRef{Page: 4, Snippet: "is covered for members"},
			Right:      model.EvidenceRef{Page: 21, Snippet: "listed as excluded"},
			Severity:   model.SeverityMedium,
		}
	}
	report := &model.Report{
		Contradictions: []model.Contradiction{
			coverage("general:optometry"),
			coverage("general:dental"),
		},
	}

	if err := New(store, nil, "run-1").Merge(context.Background(), report); err != nil {
		t.Fatalf("merge: %v", err)
	}

	for i, c := range report.Contradictions {
		if c.Dedup != model.InsightNew {
			t.Errorf("contradiction %d (%s): expected new on first run, got %s", i, c.ServiceKey, c.Dedup)
		}
	}
	if got := len(store.All()); got != 2 {
		t.Fatalf("expected 2 distinct store entries, got %d: %+v", got, store.All())
	}
	for _, rec := range store.All() {
		if rec.Count != 1 {
			t.Errorf("record %s: count %d, want 1", rec.Signature, rec.Count)
		}
	}
}

func TestDiskStore_FlushAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insights.json")

	store, err := OpenDiskStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	report := sampleReport()
	if err := New(store, nil, "run-1").Merge(context.Background(), report); err != nil {
		t.Fatalf("merge: %v", err)
	}

	// Reopen from disk: counts persist across processes
	reloaded, err := OpenDiskStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := len(reloaded.All()); got != 2 {
		t.Fatalf("expected 2 persisted records, got %d", got)
	}

	again := sampleReport()
	if err := New(reloaded, nil, "run-2").Merge(context.Background(), again); err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if again.Contradictions[0].Dedup != model.InsightRecurring {
		t.Errorf("persisted signature should recur, got %s", again.Contradictions[0].Dedup)
	}
}

func TestDiskStore_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insights.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenDiskStore(path); err == nil {
		t.Error("corrupt store file must fail to open")
	}
}

func TestMemoryStore_FlushIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	store.Put(model.InsightRecord{Signature: "gap:abc", Count: 1})
	if err := store.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, ok := store.Get("gap:abc"); !ok {
		t.Error("flush must not drop records")
	}
}

func TestThresholdGate(t *testing.T) {
	g := NewThresholdGate(0.85)

	same, err := g.Same(context.Background(), "tariff per session ranges from 100 to 200", "tariff per session ranges from 100 to 200")
	if err != nil || !same {
		t.Errorf("identical descriptions must pass the gate: %v %v", same, err)
	}

	same, err = g.Same(context.Background(), "tariff per session ranges from 100 to 200", "stroke rehabilitation coverage no coverage found")
	if err != nil || same {
		t.Errorf("unrelated descriptions must not pass the gate: %v %v", same, err)
	}
}

type stubJudge struct {
	answer bool
	err    error
	calls  int
}

func (j *stubJudge) SameIssue(_ context.Context, _, _ string) (bool, error) {
	j.calls++
	return j.answer, j.err
}

func TestCollaboratorGate_MemoizesAndFallsBack(t *testing.T) {
	judge := &stubJudge{answer: true}
	g := NewCollaboratorGate(judge, NewThresholdGate(0.85))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		same, err := g.Same(ctx, "a description", "b description")
		if err != nil || !same {
			t.Fatalf("call %d: %v %v", i, same, err)
		}
	}
	if judge.calls != 1 {
		t.Errorf("repeated pairs should hit the memo, judge called %d times", judge.calls)
	}

	// A failing judge falls back to the lexical gate instead of erroring
	failing := &stubJudge{err: errors.New("model offline")}
	g = NewCollaboratorGate(failing, NewThresholdGate(0.85))
	same, err := g.Same(ctx, "identical text here", "identical text here")
	if err != nil {
		t.Fatalf("fallback should absorb judge errors: %v", err)
	}
	if !same {
		t.Error("fallback gate should accept identical text")
	}
}
