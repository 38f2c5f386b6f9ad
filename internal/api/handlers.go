// Package api exposes the analysis service over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/skillvector/skillvector/internal/engine"
	"github.com/skillvector/skillvector/internal/metrics"
	"github.com/skillvector/skillvector/internal/pipeline"
	"github.com/skillvector/skillvector/internal/quota"
	"github.com/skillvector/skillvector/internal/skills"
	"github.com/skillvector/skillvector/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Analyzer runs the analysis pipeline for one request.
type Analyzer interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Report, error)
}

// Deps holds the collaborators of the HTTP layer.
type Deps struct {
	Store    *storage.Store
	Gate     *quota.Gate
	Analyzer Analyzer
	Engine   engine.Engine
	Metrics  *metrics.Manager // optional
	Token    string           // empty disables the pro tier and admin routes
}

// NewHandler builds the service router: public analysis endpoints, the
// Prometheus scrape endpoint, and bearer-guarded admin endpoints.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	if deps.Metrics != nil {
		r.Use(httpMetrics(deps.Metrics))
	}

	r.Get("/health", handleHealth(deps))
	r.Post("/analyze", handleAnalyze(deps))
	r.Get("/quota", handleQuota(deps))
	r.Get("/analyses", handleListAnalyses(deps))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/admin", func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Post("/postings", handleCreatePosting(deps))
		r.Get("/postings", handleListPostings(deps))
		r.Post("/seed", handleSeedGraph(deps))
	})

	return r
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := deps.Store.Ping(ctx); err != nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "storage unavailable: %v", err)
			return
		}

		engineRunning := deps.Engine != nil && deps.Engine.IsRunning(ctx)
		status := "ok"
		if !engineRunning {
			status = "degraded"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         status,
			"engine_running": engineRunning,
		})
	}
}

// AnalyzeRequest is the /analyze request body.
type AnalyzeRequest struct {
	ResumeText string `json:"resume_text"`
	JobText    string `json:"job_text"`
}

func handleAnalyze(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		identity, tier := callerIdentity(r, deps.Token)

		// Quota is charged once, at admission, before any pipeline work.
		decision := deps.Gate.Admit(identity, tier)
		writeQuotaHeaders(w, decision)
		if !decision.Allowed {
			if deps.Metrics != nil {
				deps.Metrics.RecordQuotaRejection(string(tier))
			}
			httpError(w, http.StatusTooManyRequests, "rate_limit_error",
				"free tier quota exhausted; retry after %s or upgrade", decision.ResetAt.UTC().Format(time.RFC3339))
			return
		}

		req.ResumeText = sanitizeText(req.ResumeText)
		req.JobText = sanitizeText(req.JobText)
		if msg := validateResume(req.ResumeText); msg != "" {
			httpError(w, http.StatusUnprocessableEntity, "validation_error", "%s", msg)
			return
		}
		if msg := validateJobDescription(req.JobText); msg != "" {
			httpError(w, http.StatusUnprocessableEntity, "validation_error", "%s", msg)
			return
		}

		report, err := deps.Analyzer.Run(r.Context(), pipeline.Request{
			Identity:   identity,
			Tier:       string(tier),
			ResumeText: req.ResumeText,
			JobText:    req.JobText,
		})
		if err != nil {
			if errors.Is(err, pipeline.ErrScoringUnavailable) {
				httpError(w, http.StatusServiceUnavailable, "engine_unavailable",
					"scoring is temporarily unavailable, please retry")
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "analysis failed: %v", err)
			return
		}

		saveHistory(r.Context(), deps.Store, identity, string(tier), report)
		if deps.Metrics != nil {
			deps.Metrics.RecordAnalysis()
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// saveHistory persists the run for the caller's history. Best-effort: a
// storage failure must not fail a request that already produced a report.
func saveHistory(ctx context.Context, store *storage.Store, identity, tier string, report pipeline.Report) {
	missing, err := json.Marshal(report.MissingSkills)
	if err != nil {
		slog.Warn("marshalling missing skills for history", "error", err)
		return
	}
	full, err := json.Marshal(report)
	if err != nil {
		slog.Warn("marshalling report for history", "error", err)
		return
	}
	err = store.SaveAnalysis(ctx, storage.Analysis{
		ID:            report.RequestID,
		Identity:      identity,
		Tier:          tier,
		MatchScore:    report.MatchScore,
		MissingSkills: string(missing),
		Report:        string(full),
		LatencyMs:     report.LatencyMs,
	})
	if err != nil {
		slog.Warn("saving analysis history", "request_id", report.RequestID, "error", err)
	}
}

func handleQuota(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, tier := callerIdentity(r, deps.Token)
		decision := deps.Gate.Peek(identity, tier)
		writeJSON(w, http.StatusOK, map[string]any{
			"tier":      tier,
			"remaining": decision.Remaining,
			"reset_at":  decision.ResetAt.UTC().Format(time.RFC3339),
		})
	}
}

func handleListAnalyses(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := callerIdentity(r, deps.Token)
		limit := parseIntParam(r, "limit", 20, 100)

		list, err := deps.Store.ListAnalyses(r.Context(), identity, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list analyses: %v", err)
			return
		}

		type item struct {
			ID            string  `json:"id"`
			MatchScore    float64 `json:"match_score"`
			MissingSkills string  `json:"missing_skills"`
			LatencyMs     int64   `json:"latency_ms"`
			CreatedAt     string  `json:"created_at"`
		}
		out := make([]item, 0, len(list))
		for _, a := range list {
			out = append(out, item{
				ID:            a.ID,
				MatchScore:    a.MatchScore,
				MissingSkills: a.MissingSkills,
				LatencyMs:     a.LatencyMs,
				CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"analyses": out})
	}
}

// PostingRequest is the admin request body for seeding a job posting.
type PostingRequest struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

func handleCreatePosting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req PostingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Title == "" || req.Description == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title and description are required")
			return
		}

		skillsJSON := "[]"
		if len(req.Skills) > 0 {
			b, err := json.Marshal(req.Skills)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to marshal skills: %v", err)
				return
			}
			skillsJSON = string(b)
		}

		posting := storage.JobPosting{
			ID:          uuid.New().String(),
			Title:       req.Title,
			Company:     req.Company,
			Description: sanitizeText(req.Description),
			Skills:      skillsJSON,
		}
		if err := deps.Store.SaveJobPosting(r.Context(), posting, uuid.New().String()); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save posting: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": posting.ID, "status": "queued"})
	}
}

func handleListPostings(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)
		list, err := deps.Store.ListJobPostings(r.Context(), limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list postings: %v", err)
			return
		}

		type item struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			Company  string `json:"company"`
			Skills   string `json:"skills"`
			Embedded bool   `json:"embedded"`
		}
		out := make([]item, 0, len(list))
		for _, p := range list {
			out = append(out, item{
				ID:       p.ID,
				Title:    p.Title,
				Company:  p.Company,
				Skills:   p.Skills,
				Embedded: p.VectorID != "",
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"postings": out})
	}
}

func handleSeedGraph(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := skills.Catalog()
		edges := skills.CatalogEdges()
		if err := deps.Store.SeedGraph(r.Context(), list, edges); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to seed graph: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"skills": len(list), "edges": len(edges)})
	}
}

func writeQuotaHeaders(w http.ResponseWriter, d quota.Decision) {
	if d.Remaining >= 0 {
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	}
	if !d.ResetAt.IsZero() {
		w.Header().Set("X-RateLimit-Reset", d.ResetAt.UTC().Format(time.RFC3339))
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return defaultVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func httpMetrics(m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.RecordHTTPRequest(r.Method, route, strconv.Itoa(rec.status), time.Since(start))
		})
	}
}
