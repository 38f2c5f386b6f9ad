package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skillvector/skillvector/internal/skills"
)

// JobPosting is a seeded job description used for related-job retrieval.
type JobPosting struct {
	ID          string
	Title       string
	Company     string
	Description string
	Skills      string // JSON array
	VectorID    string
	CreatedAt   time.Time
}

// EmbedJob is one queued embedding task for the ingest worker.
type EmbedJob struct {
	ID      string
	Type    string
	Payload string
}

// Analysis is one persisted analysis run.
type Analysis struct {
	ID            string
	Identity      string
	Tier          string
	MatchScore    float64
	MissingSkills string // JSON array
	Report        string // JSON report
	LatencyMs     int64
	CreatedAt     time.Time
}

// ErrGraphEmpty is returned when the graph tables have not been seeded.
var ErrGraphEmpty = errors.New("skill graph is not seeded")

// SeedGraph upserts the skill catalog and prerequisite edges. Idempotent:
// re-seeding refreshes durations and categories without duplicating rows.
func (s *Store) SeedGraph(ctx context.Context, list []skills.Skill, edges []skills.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	skillStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO skills (name, display_name, category, estimated_days)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			display_name = excluded.display_name,
			category = excluded.category,
			estimated_days = excluded.estimated_days`)
	if err != nil {
		return fmt.Errorf("preparing skill upsert: %w", err)
	}
	defer skillStmt.Close()

	for _, sk := range list {
		key := strings.ToLower(strings.TrimSpace(sk.Name))
		if _, err := skillStmt.ExecContext(ctx, key, sk.Name, sk.Category, sk.EstimatedDays); err != nil {
			return fmt.Errorf("seeding skill %q: %w", sk.Name, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prerequisite_edges (prerequisite, dependent)
		VALUES (?, ?)
		ON CONFLICT(prerequisite, dependent) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("preparing edge upsert: %w", err)
	}
	defer edgeStmt.Close()

	for _, e := range edges {
		pre := strings.ToLower(strings.TrimSpace(e.Prerequisite))
		dep := strings.ToLower(strings.TrimSpace(e.Dependent))
		if _, err := edgeStmt.ExecContext(ctx, pre, dep); err != nil {
			return fmt.Errorf("seeding edge %s->%s: %w", e.Prerequisite, e.Dependent, err)
		}
	}

	return tx.Commit()
}

// Graph loads a snapshot of the skill graph. Implements skills.Source, so
// the planner reads prerequisite data from SQLite and falls back to the
// built-in catalog when this store is unreachable or unseeded.
func (s *Store) Graph(ctx context.Context) (*skills.Graph, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT display_name, category, estimated_days FROM skills`)
	if err != nil {
		return nil, fmt.Errorf("querying skills: %w", err)
	}
	defer rows.Close()

	var list []skills.Skill
	for rows.Next() {
		var sk skills.Skill
		if err := rows.Scan(&sk.Name, &sk.Category, &sk.EstimatedDays); err != nil {
			return nil, fmt.Errorf("scanning skill: %w", err)
		}
		list = append(list, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating skills: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrGraphEmpty
	}

	edgeRows, err := s.db.QueryContext(ctx, `SELECT prerequisite, dependent FROM prerequisite_edges`)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer edgeRows.Close()

	var edges []skills.Edge
	for edgeRows.Next() {
		var e skills.Edge
		if err := edgeRows.Scan(&e.Prerequisite, &e.Dependent); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edges: %w", err)
	}

	return skills.NewGraph(list, edges), nil
}

// SaveJobPosting inserts a posting and enqueues its embedding job.
func (s *Store) SaveJobPosting(ctx context.Context, p JobPosting, embedJobID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning posting transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO job_postings (id, title, company, description, skills, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Company, p.Description, p.Skills, createdAt.Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("inserting posting %s: %w", p.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO embed_jobs (id, job_type, payload) VALUES (?, 'posting_embed', ?)`,
		embedJobID, fmt.Sprintf(`{"posting_id":%q}`, p.ID),
	); err != nil {
		return fmt.Errorf("enqueueing embed job for %s: %w", p.ID, err)
	}

	return tx.Commit()
}

// GetJobPosting returns a posting by id.
func (s *Store) GetJobPosting(ctx context.Context, id string) (JobPosting, error) {
	var p JobPosting
	var vectorID sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, company, description, skills, vector_id, created_at
		FROM job_postings WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Company, &p.Description, &p.Skills, &vectorID, &createdAt)
	if err != nil {
		return JobPosting{}, fmt.Errorf("loading posting %s: %w", id, err)
	}
	p.VectorID = vectorID.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return p, nil
}

// ListJobPostings returns postings newest first.
func (s *Store) ListJobPostings(ctx context.Context, limit int) ([]JobPosting, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, company, description, skills, vector_id, created_at
		FROM job_postings ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	defer rows.Close()

	var out []JobPosting
	for rows.Next() {
		var p JobPosting
		var vectorID sql.NullString
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Title, &p.Company, &p.Description, &p.Skills, &vectorID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		p.VectorID = vectorID.String
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateJobPostingVectorID records the vector written for a posting.
func (s *Store) UpdateJobPostingVectorID(ctx context.Context, id, vectorID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE job_postings SET vector_id = ? WHERE id = ?`, vectorID, id)
	if err != nil {
		return fmt.Errorf("updating vector_id for %s: %w", id, err)
	}
	return nil
}

// ClaimNextEmbedJob marks the oldest pending job as running and returns it.
// Returns nil when the queue is empty.
func (s *Store) ClaimNextEmbedJob(ctx context.Context) (*EmbedJob, error) {
	var j EmbedJob
	err := s.db.QueryRowContext(ctx, `
		UPDATE embed_jobs SET status = 'running', updated_at = CURRENT_TIMESTAMP
		WHERE id = (
			SELECT id FROM embed_jobs WHERE status = 'pending'
			ORDER BY created_at ASC LIMIT 1
		)
		RETURNING id, job_type, payload`,
	).Scan(&j.ID, &j.Type, &j.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming embed job: %w", err)
	}
	return &j, nil
}

// CompleteEmbedJob marks a job done.
func (s *Store) CompleteEmbedJob(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE embed_jobs SET status = 'done', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("completing embed job %s: %w", id, err)
	}
	return nil
}

// FailEmbedJob marks a job failed with its error message.
func (s *Store) FailEmbedJob(ctx context.Context, id, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE embed_jobs SET status = 'failed', error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, errMsg, id)
	if err != nil {
		return fmt.Errorf("failing embed job %s: %w", id, err)
	}
	return nil
}

// SaveAnalysis persists one analysis run for history.
func (s *Store) SaveAnalysis(ctx context.Context, a Analysis) error {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, identity, tier, match_score, missing_skills, report, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Identity, a.Tier, a.MatchScore, a.MissingSkills, a.Report, a.LatencyMs,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving analysis %s: %w", a.ID, err)
	}
	return nil
}

// ListAnalyses returns a caller's analyses, newest first.
func (s *Store) ListAnalyses(ctx context.Context, identity string, limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, identity, tier, match_score, missing_skills, report, latency_ms, created_at
		FROM analyses WHERE identity = ? ORDER BY created_at DESC LIMIT ?`, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Identity, &a.Tier, &a.MatchScore, &a.MissingSkills, &a.Report, &a.LatencyMs, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}
