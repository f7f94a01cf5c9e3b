package dedup

import (
	"context"
	"fmt"
	"strings"

	"policylens/internal/model"
)

// Deduper merges current-run findings against the insight store.
// It owns the store: no other component mutates it.
type Deduper struct {
	store Store
	gate  SimilarityGate
	runID string
}

// New creates a deduper over an injected store and similarity gate
func New(store Store, gate SimilarityGate, runID string) *Deduper {
	if gate == nil {
		gate = NewThresholdGate(0)
	}
	return &Deduper{store: store, gate: gate, runID: runID}
}

// Merge deduplicates every finding in the report in place, then flushes
// the store once, atomically
func (d *Deduper) Merge(ctx context.Context, report *model.Report) error {
	for i := range report.Contradictions {
		c := &report.Contradictions[i]
		kind := "contradiction." + string(c.Type)
		status, err := d.apply(ctx, kind, model.FindingSummary{
			Kind:       "contradiction",
			ServiceKey: c.ServiceKey,
			Details:    c.Details,
			Page:       c.Left.Page,
		})
		if err != nil {
			return err
		}
		c.Dedup = status
	}

	for i := range report.Gaps {
		g := &report.Gaps[i]
		status, err := d.apply(ctx, "gap", model.FindingSummary{
			Kind:      "gap",
			Condition: g.Condition,
			Details:   g.Description(),
		})
		if err != nil {
			return err
		}
		g.Dedup = status
	}

	if err := d.store.Flush(); err != nil {
		return fmt.Errorf("flush insight store: %w", err)
	}
	return nil
}

// apply records one finding occurrence: exact signature hits and
// gate-approved near-duplicates recur, everything else is inserted new
func (d *Deduper) apply(ctx context.Context, kind string, rep model.FindingSummary) (model.InsightStatus, error) {
	sig := Signature(kind, identity(rep))

	if rec, ok := d.store.Get(sig); ok {
		rec.Count++
		d.store.Put(rec)
		return model.InsightRecurring, nil
	}

	// Semantic near-duplicate check against stored records of the same
	// kind and subject, in sorted signature order for determinism.
	norm := normalizedDescription(identity(rep))
	for _, prior := range d.store.Signatures() {
		if !strings.HasPrefix(prior, kind+":") {
			continue
		}
		rec, ok := d.store.Get(prior)
		if !ok {
			continue
		}
		// The gate judges rephrasings of one subject; findings for
		// different services or conditions never merge.
		if rec.Representative.ServiceKey != rep.ServiceKey || rec.Representative.Condition != rep.Condition {
			continue
		}
		same, err := d.gate.Same(ctx, norm, normalizedDescription(identity(rec.Representative)))
		if err != nil {
			return "", fmt.Errorf("similarity gate: %w", err)
		}
		if same {
			rec.Count++
			d.store.Put(rec)
			return model.InsightRecurring, nil
		}
	}

	d.store.Put(model.InsightRecord{
		Signature:      sig,
		Count:          1,
		FirstSeenRunID: d.runID,
		Representative: rep,
	})
	return model.InsightNew, nil
}

// identity is the cross-run identity text of a finding. The service key
// scopes the description: equal details for different services must
// yield different signatures. Gap descriptions already embed their
// condition.
func identity(rep model.FindingSummary) string {
	if rep.ServiceKey != "" {
		return rep.ServiceKey + ": " + rep.Details
	}
	return rep.Details
}
