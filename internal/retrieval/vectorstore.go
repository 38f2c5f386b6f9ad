// Package retrieval finds seeded job postings semantically related to a
// resume: postings are embedded once by the ingest worker, and queries run
// brute-force cosine similarity over the stored vectors.
package retrieval

import "time"

// VectorStore is the storage backend for job-posting vectors. The shipped
// implementation is SQLite with brute-force cosine search; an ANN-backed
// store can replace it behind this interface when the posting corpus grows.
type VectorStore interface {
	// Insert adds embedding records.
	Insert(records []Record) error

	// Search returns the top-K postings most similar to the query vector,
	// highest score first.
	Search(vector []float32, topK int) ([]JobMatch, error)

	// Count returns the number of stored vectors.
	Count() (int, error)
}

// Record is one stored posting embedding.
type Record struct {
	ID        string
	JobID     string
	TextChunk string
	Embedding []float32
	CreatedAt time.Time
}

// JobMatch is one related job posting with its similarity score.
type JobMatch struct {
	Score   float32  `json:"score"`
	JobID   string   `json:"job_id"`
	Title   string   `json:"title"`
	Company string   `json:"company"`
	Skills  []string `json:"skills"`
	Excerpt string   `json:"excerpt"`
}
