package dedup

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	"policylens/internal/servicekey"
)

// SimilarityGate decides whether two finding descriptions describe the
// same underlying issue. The dedup algorithm is identical regardless of
// which implementation is active.
type SimilarityGate interface {
	Same(ctx context.Context, a, b string) (bool, error)
}

// ThresholdGate is the deterministic gate: normalized edit-distance
// similarity at or above the threshold means same issue
type ThresholdGate struct {
	Threshold float64
}

// NewThresholdGate creates a deterministic gate; thresholds outside
// (0,1] fall back to 0.85
func NewThresholdGate(threshold float64) *ThresholdGate {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}
	return &ThresholdGate{Threshold: threshold}
}

// Same compares two descriptions by string similarity
func (g *ThresholdGate) Same(_ context.Context, a, b string) (bool, error) {
	return servicekey.Similarity(a, b) >= g.Threshold, nil
}

// DuplicateJudge is the narrow collaborator surface the gate needs
type DuplicateJudge interface {
	SameIssue(ctx context.Context, a, b string) (bool, error)
}

// CollaboratorGate delegates the same-issue decision to the external
// reasoning collaborator, memoizing verdicts and falling back to the
// deterministic gate when a call fails. The collaborator is never
// required for the gate to answer.
type CollaboratorGate struct {
	judge    DuplicateJudge
	fallback *ThresholdGate
	memo     *gocache.Cache
}

// NewCollaboratorGate wraps a judge with memoization and a
// deterministic fallback
func NewCollaboratorGate(judge DuplicateJudge, fallback *ThresholdGate) *CollaboratorGate {
	if fallback == nil {
		fallback = NewThresholdGate(0)
	}
	return &CollaboratorGate{
		judge:    judge,
		fallback: fallback,
		memo:     gocache.New(gocache.NoExpiration, 0),
	}
}

// Same asks the collaborator, consulting the memo first
func (g *CollaboratorGate) Same(ctx context.Context, a, b string) (bool, error) {
	if a > b {
		a, b = b, a
	}
	key := fmt.Sprintf("%s\x00%s", a, b)
	if v, found := g.memo.Get(key); found {
		return v.(bool), nil
	}

	same, err := g.judge.SameIssue(ctx, a, b)
	if err != nil {
		// Collaborator failure falls back to the deterministic path
		// and is not memoized, so a later call may still succeed.
		return g.fallback.Same(ctx, a, b)
	}

	g.memo.Set(key, same, gocache.NoExpiration)
	return same, nil
}
