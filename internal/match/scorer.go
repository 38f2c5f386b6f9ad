// Package match derives the resume-to-job match score from embedding
// similarity. This is the one essential capability of the analysis
// pipeline: without a score there is no meaningful report.
package match

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// ErrUnavailable wraps any embedding failure that survives the retry.
// It is the only stage error that aborts a whole analysis.
var ErrUnavailable = errors.New("similarity scoring unavailable")

// Embedder generates an embedding vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Scorer computes match scores by embedding both texts and comparing them
// with cosine similarity.
type Scorer struct {
	embedder Embedder
}

// NewScorer creates a Scorer using the given embedder.
func NewScorer(embedder Embedder) *Scorer {
	return &Scorer{embedder: embedder}
}

// Score embeds the resume and job description concurrently and returns
// round(cosine * 100, 1) in [0, 100]. Deterministic for fixed inputs and a
// fixed embedding model. One retry is attempted before giving up with
// ErrUnavailable.
func (s *Scorer) Score(ctx context.Context, resumeText, jobText string) (float64, error) {
	score, err := s.score(ctx, resumeText, jobText)
	if err != nil && ctx.Err() == nil {
		score, err = s.score(ctx, resumeText, jobText)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return score, nil
}

func (s *Scorer) score(ctx context.Context, resumeText, jobText string) (float64, error) {
	var resumeVec, jobVec []float32

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.embedder.Embed(gCtx, resumeText)
		if err != nil {
			return fmt.Errorf("embedding resume: %w", err)
		}
		resumeVec = v
		return nil
	})
	g.Go(func() error {
		v, err := s.embedder.Embed(gCtx, jobText)
		if err != nil {
			return fmt.Errorf("embedding job description: %w", err)
		}
		jobVec = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	sim, err := cosine(resumeVec, jobVec)
	if err != nil {
		return 0, err
	}
	return math.Round(sim*1000) / 10, nil
}

// cosine computes cosine similarity clamped to [0, 1]. Embedding models in
// use here produce non-negative similarities for natural text; clamping
// guards the score range against pathological vectors.
func cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("empty embedding vector")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b))
	}

	var dot, aSq, bSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aSq += float64(a[i]) * float64(a[i])
		bSq += float64(b[i]) * float64(b[i])
	}
	if aSq == 0 || bSq == 0 {
		return 0, fmt.Errorf("zero-norm embedding vector")
	}

	sim := dot / (math.Sqrt(aSq) * math.Sqrt(bSq))
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim, nil
}
