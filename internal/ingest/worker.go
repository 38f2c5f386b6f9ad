// Package ingest embeds seeded job postings in the background so related-job
// retrieval can match resumes against them.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/skillvector/skillvector/internal/retrieval"
	"github.com/skillvector/skillvector/internal/storage"
)

// JobStore abstracts the embed-job queue and posting operations.
type JobStore interface {
	ClaimNextEmbedJob(ctx context.Context) (*storage.EmbedJob, error)
	CompleteEmbedJob(ctx context.Context, id string) error
	FailEmbedJob(ctx context.Context, id, errMsg string) error
	GetJobPosting(ctx context.Context, id string) (storage.JobPosting, error)
	UpdateJobPostingVectorID(ctx context.Context, id, vectorID string) error
}

// ContentEmbedder generates embeddings for text.
type ContentEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorInserter inserts records into the vector store.
type VectorInserter interface {
	Insert(records []retrieval.Record) error
}

// Worker processes posting_embed jobs from the SQLite queue.
type Worker struct {
	store    JobStore
	embedder ContentEmbedder
	vectors  VectorInserter
	poll     time.Duration
	logger   *slog.Logger
	observed func()
}

// Option configures a Worker.
type Option func(*Worker)

// WithObserver registers a callback invoked once per processed job,
// successful or failed, e.g. for metrics.
func WithObserver(fn func()) Option {
	return func(w *Worker) { w.observed = fn }
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, embedder ContentEmbedder, vectors VectorInserter, pollInterval time.Duration, opts ...Option) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	w := &Worker{
		store:    store,
		embedder: embedder,
		vectors:  vectors,
		poll:     pollInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("ingest worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single posting_embed job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextEmbedJob(ctx)
	if err != nil {
		return false, fmt.Errorf("claiming embed job: %w", err)
	}
	if job == nil {
		return false, nil
	}
	if w.observed != nil {
		defer w.observed()
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("embed job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailEmbedJob(ctx, job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark embed job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteEmbedJob(ctx, job.ID); err != nil {
		return true, fmt.Errorf("completing embed job %s: %w", job.ID, err)
	}
	return true, nil
}

type embedPayload struct {
	PostingID string `json:"posting_id"`
}

func (w *Worker) processJob(ctx context.Context, job *storage.EmbedJob) error {
	var payload embedPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	posting, err := w.store.GetJobPosting(ctx, payload.PostingID)
	if err != nil {
		return fmt.Errorf("loading posting %s: %w", payload.PostingID, err)
	}

	text := posting.Title + "\n" + posting.Description
	vec, err := w.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding posting: %w", err)
	}

	rec := retrieval.Record{
		ID:        uuid.New().String(),
		JobID:     posting.ID,
		TextChunk: text,
		Embedding: vec,
		CreatedAt: time.Now().UTC(),
	}

	if err := w.vectors.Insert([]retrieval.Record{rec}); err != nil {
		return fmt.Errorf("inserting vector: %w", err)
	}

	if err := w.store.UpdateJobPostingVectorID(ctx, posting.ID, rec.ID); err != nil {
		return fmt.Errorf("updating vector_id: %w", err)
	}

	return nil
}
