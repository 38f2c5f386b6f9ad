package retrieval

import (
	"context"
	"fmt"
	"strings"
)

// Retriever combines embedding and vector search to find job postings
// related to a resume.
type Retriever struct {
	embedder *Embedder
	store    VectorStore
}

// NewRetriever creates a Retriever backed by the given Embedder and VectorStore.
func NewRetriever(embedder *Embedder, store VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// RelatedJobs embeds the resume and returns the top-K most similar seeded
// postings, highest score first.
func (r *Retriever) RelatedJobs(ctx context.Context, resumeText string, topK int) ([]JobMatch, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, fmt.Errorf("resume text is empty")
	}
	if topK <= 0 {
		topK = 5
	}

	vec, err := r.embedder.Embed(ctx, resumeText)
	if err != nil {
		return nil, err
	}
	matches, err := r.store.Search(vec, topK)
	if err != nil {
		return nil, fmt.Errorf("searching postings: %w", err)
	}
	return matches, nil
}
