// Package worker runs the optional collaborator augmentation with
// bounded parallelism. Each chunk is independent: a timed-out or failed
// call falls back to the deterministic (empty) result for that chunk and
// never blocks or aborts the others.
package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"policylens/internal/llm"
)

// ChunkResult is the outcome of augmenting one chunk
type ChunkResult struct {
	Page       int
	Candidates []llm.CandidateFinding
	Err        error // Non-nil means the chunk fell back to deterministic
}

// Augmenter fans chunk reviews out to the collaborator
type Augmenter struct {
	collab        llm.Collaborator
	limiter       *rate.Limiter
	maxConcurrent int
}

// NewAugmenter creates an augmenter. maxConcurrent values below 1 are
// clamped to 1; requestsPerSecond <= 0 disables rate limiting.
func NewAugmenter(collab llm.Collaborator, maxConcurrent int, requestsPerSecond float64, burst int) *Augmenter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return &Augmenter{
		collab:        collab,
		limiter:       limiter,
		maxConcurrent: maxConcurrent,
	}
}

// AugmentChunks reviews every chunk with at most maxConcurrent calls in
// flight. Per-chunk errors are recorded, not propagated: the returned
// slice always has one result per chunk, in input order.
func (a *Augmenter) AugmentChunks(ctx context.Context, chunks []llm.ChunkRequest) []ChunkResult {
	results := make([]ChunkResult, len(chunks))
	if a.collab == nil || len(chunks) == 0 {
		for i, chunk := range chunks {
			results[i] = ChunkResult{Page: chunk.Page}
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			results[i] = a.augmentOne(gctx, chunk)
			return nil // Chunk failures stay local
		})
	}
	_ = g.Wait()

	return results
}

func (a *Augmenter) augmentOne(ctx context.Context, chunk llm.ChunkRequest) ChunkResult {
	result := ChunkResult{Page: chunk.Page}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			result.Err = err
			return result
		}
	}

	candidates, err := a.collab.SuggestFindings(ctx, chunk)
	if err != nil {
		result.Err = err
		return result
	}
	result.Candidates = candidates
	return result
}
