package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"policylens/internal/dedup"
	"policylens/internal/detect"
	"policylens/internal/gap"
	"policylens/internal/llm"
	"policylens/internal/model"
	"policylens/internal/normalize"
	"policylens/internal/score"
	"policylens/internal/servicekey"
	"policylens/internal/worker"
)

// Pipeline orchestrates one complete analysis run
type Pipeline struct {
	normalizer *normalize.Normalizer
	detectors  []detect.Detector
	analyzer   *gap.Analyzer
	scorer     *score.Scorer
	deduper    *dedup.Deduper
	collab     llm.Collaborator // nil when disabled
	augmenter  *worker.Augmenter
	cfg        *model.Config
	runID      string
}

// New wires the pipeline from its injected dependencies. The insight
// store and collaborator are constructed by the caller so their
// lifecycle (ephemeral vs cumulative, enabled vs disabled) stays
// explicit.
func New(cfg *model.Config, gapCfg gap.Config, store dedup.Store, collab llm.Collaborator) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	analyzer, err := gap.NewAnalyzer(gapCfg, cfg.Analysis.AdequacyThreshold)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()

	var gate dedup.SimilarityGate = dedup.NewThresholdGate(0.85)
	if collab != nil {
		gate = dedup.NewCollaboratorGate(collab, dedup.NewThresholdGate(0.85))
	}

	return &Pipeline{
		normalizer: normalize.New(cfg.Analysis.FacilityLevelMin, cfg.Analysis.FacilityLevelMax),
		detectors: detect.All(detect.Options{
			TariffVariance:       cfg.Analysis.TariffVariance,
			HighSeverityVariance: cfg.Analysis.HighSeverityVariance,
			HighRiskCategories:   cfg.Analysis.HighRiskCategories,
		}),
		analyzer:  analyzer,
		scorer:    score.NewScorer(),
		deduper:   dedup.New(store, gate, runID),
		collab:    collab,
		augmenter: worker.NewAugmenter(collab, cfg.LLM.MaxConcurrent, cfg.LLM.RequestsPerSecond, cfg.LLM.Burst),
		cfg:       cfg,
		runID:     runID,
	}, nil
}

// Analyze runs the full pipeline over raw extraction records
func (p *Pipeline) Analyze(ctx context.Context, source string, records []model.RawRecord) (*model.Report, error) {
	// 1. Normalize raw fields into canonical rules
	rules := p.normalizer.NormalizeAll(records)

	// 2. Resolve service keys
	resolver := servicekey.NewResolver(p.cfg.Analysis.KeySimilarity)
	for i := range rules {
		rules[i].ServiceKey = resolver.Resolve(rules[i].Service, rules[i].Category)
	}

	// 3. Detect contradictions
	contradictions, err := detect.Run(p.detectors, rules)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	// 4. Analyze coverage gaps
	gaps := p.analyzer.Analyze(rules)

	// 5. Score deterministic findings
	p.scorer.ScoreContradictions(contradictions, nil)
	p.scorer.ScoreGaps(gaps, nil)

	report := &model.Report{
		Source:         source,
		RunID:          p.runID,
		AnalyzedAt:     time.Now().UTC(),
		RuleCount:      len(rules),
		Contradictions: contradictions,
		Gaps:           gaps,
	}

	// 6. Optional collaborator augmentation. Failures degrade to the
	// deterministic result and never abort the run.
	if p.collab != nil {
		p.augment(ctx, report, records, resolver)
	}

	// 7. Merge against the insight store and flush atomically
	if err := p.deduper.Merge(ctx, report); err != nil {
		return nil, fmt.Errorf("dedup: %w", err)
	}

	return report, nil
}

// augment reviews page-wise chunks with the collaborator and appends
// the supplementary findings that survive evidence-integrity checks
func (p *Pipeline) augment(ctx context.Context, report *model.Report, records []model.RawRecord, resolver *servicekey.Resolver) {
	summary := &model.CollaboratorSummary{
		Enabled:  true,
		Provider: p.collab.Name(),
		Model:    p.collab.Model(),
	}
	report.Collaborator = summary

	chunks := chunkByPage(records)
	summary.ChunksTotal = len(chunks)

	results := p.augmenter.AugmentChunks(ctx, chunks)

	var supplementary []model.Contradiction
	var agreementSum float64
	for _, res := range results {
		if res.Err != nil {
			summary.ChunksFailed++
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("page %d: %v", res.Page, res.Err))
			continue
		}
		for _, cand := range res.Candidates {
			c, err := candidateContradiction(cand, resolver)
			if err != nil {
				// Incomplete evidence: reject, never emit placeholders
				summary.Warnings = append(summary.Warnings, fmt.Sprintf("page %d: dropped candidate: %v", res.Page, err))
				continue
			}
			agreementSum += cand.Agreement
			supplementary = append(supplementary, c)
		}
	}

	if len(supplementary) > 0 {
		agreement := agreementSum / float64(len(supplementary))
		p.scorer.ScoreContradictions(supplementary, &agreement)
		report.Contradictions = append(report.Contradictions, supplementary...)
	}
	summary.Supplementary = len(supplementary)
}

// candidateContradiction converts a collaborator candidate, enforcing
// the same evidence-integrity invariant as the deterministic detectors
func candidateContradiction(cand llm.CandidateFinding, resolver *servicekey.Resolver) (model.Contradiction, error) {
	ctype, err := parseContradictionType(cand.Type)
	if err != nil {
		return model.Contradiction{}, err
	}
	key := resolver.Resolve(cand.Service, "")
	c, err := model.NewContradiction(ctype, key, cand.Details,
		model.EvidenceRef{Page: cand.LeftPage, Snippet: cand.LeftSnippet},
		model.EvidenceRef{Page: cand.RightPage, Snippet: cand.RightSnippet})
	if err != nil {
		return model.Contradiction{}, err
	}
	// Collaborator candidates carry no extraction path, so both sides
	// grade as inferred
	c.LeftTier, c.RightTier = model.TierMedium, model.TierMedium
	return c, nil
}

func parseContradictionType(t string) (model.ContradictionType, error) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "tariff":
		return model.ContradictionTariff, nil
	case "limit":
		return model.ContradictionLimit, nil
	case "coverage":
		return model.ContradictionCoverage, nil
	case "facility_exclusion", "facility":
		return model.ContradictionFacility, nil
	default:
		return "", fmt.Errorf("unknown contradiction type %q", t)
	}
}

// chunkByPage groups records into page-wise chunks, sorted by page
func chunkByPage(records []model.RawRecord) []llm.ChunkRequest {
	byPage := make(map[int]*llm.ChunkRequest)
	for _, rec := range records {
		chunk, ok := byPage[rec.Page]
		if !ok {
			chunk = &llm.ChunkRequest{Page: rec.Page}
			byPage[rec.Page] = chunk
		}
		if chunk.Text != "" {
			chunk.Text += "\n"
		}
		chunk.Text += rec.RawText
		if s := strings.TrimSpace(rec.Service); s != "" {
			chunk.Services = append(chunk.Services, s)
		}
	}

	pages := make([]int, 0, len(byPage))
	for page := range byPage {
		pages = append(pages, page)
	}
	sort.Ints(pages)

	chunks := make([]llm.ChunkRequest, 0, len(pages))
	for _, page := range pages {
		chunks = append(chunks, *byPage[page])
	}
	return chunks
}
