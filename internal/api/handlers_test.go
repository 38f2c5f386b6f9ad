package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skillvector/skillvector/internal/engine"
	"github.com/skillvector/skillvector/internal/metrics"
	"github.com/skillvector/skillvector/internal/pipeline"
	"github.com/skillvector/skillvector/internal/quota"
	"github.com/skillvector/skillvector/internal/storage"
)

const testToken = "secret-token"

type fakeAnalyzer struct {
	err   error
	score float64
}

func (f *fakeAnalyzer) Run(ctx context.Context, req pipeline.Request) (pipeline.Report, error) {
	if f.err != nil {
		return pipeline.Report{}, f.err
	}
	return pipeline.Report{
		RequestID:        uuid.New().String(),
		MatchScore:       f.score,
		LearningPriority: "Medium",
		MissingSkills:    []string{"Docker"},
		PresentSkills:    []string{},
		LatencyMs:        12,
	}, nil
}

type stubEngine struct {
	running bool
}

func (s *stubEngine) Chat(ctx context.Context, model string, messages []engine.Message, jsonSchema *engine.Schema) (string, error) {
	return "", nil
}

func (s *stubEngine) Embed(ctx context.Context, model, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (s *stubEngine) IsRunning(ctx context.Context) bool { return s.running }

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return Deps{
		Store:    store,
		Gate:     quota.NewGate(time.Hour, 3),
		Analyzer: &fakeAnalyzer{score: 62.5},
		Engine:   &stubEngine{running: true},
		Metrics:  metrics.NewManager(),
		Token:    testToken,
	}
}

func validBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	filler := strings.Repeat("backend services in production environments. ", 3)
	body, err := json.Marshal(AnalyzeRequest{
		ResumeText: "Senior engineer with Python and Docker: " + filler,
		JobText:    "Platform engineer role requiring Kubernetes: " + filler,
	})
	if err != nil {
		t.Fatalf("marshalling body: %v", err)
	}
	return bytes.NewBuffer(body)
}

func doAnalyze(t *testing.T, h http.Handler, configure func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", validBody(t))
	if configure != nil {
		configure(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyze_Success(t *testing.T) {
	deps := newTestDeps(t)
	h := NewHandler(deps)

	rec := doAnalyze(t, h, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var report pipeline.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.RequestID == "" || report.MatchScore != 62.5 {
		t.Errorf("report = %+v, want request id and score 62.5", report)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "2" {
		t.Errorf("remaining header = %q, want 2", rec.Header().Get("X-RateLimit-Remaining"))
	}

	// History is persisted for the caller identity.
	list, err := deps.Store.ListAnalyses(context.Background(), "ip:192.0.2.1", 10)
	if err != nil {
		t.Fatalf("ListAnalyses: %v", err)
	}
	if len(list) != 1 || list[0].MatchScore != 62.5 {
		t.Errorf("history = %+v, want one entry with score 62.5", list)
	}
}

func TestAnalyze_FreeTierQuotaExhaustion(t *testing.T) {
	h := NewHandler(newTestDeps(t))

	for i := 1; i <= 3; i++ {
		rec := doAnalyze(t, h, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d status = %d, want 200", i, rec.Code)
		}
		wantRemaining := fmt.Sprintf("%d", 3-i)
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("call %d remaining = %q, want %q", i, got, wantRemaining)
		}
	}

	rec := doAnalyze(t, h, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("4th call status = %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rate_limit_error") {
		t.Errorf("body = %s, want rate_limit_error type", rec.Body.String())
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("reset header missing on rejection")
	}
}

func TestAnalyze_ProTierUnlimited(t *testing.T) {
	h := NewHandler(newTestDeps(t))

	for i := 0; i < 10; i++ {
		rec := doAnalyze(t, h, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+testToken)
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("pro call %d status = %d, want 200", i, rec.Code)
		}
	}
}

func TestAnalyze_IdentitiesAreIndependent(t *testing.T) {
	h := NewHandler(newTestDeps(t))

	for i := 0; i < 3; i++ {
		doAnalyze(t, h, nil)
	}
	// A different caller still has quota.
	rec := doAnalyze(t, h, func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", "198.51.100.9")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d for fresh identity, want 200", rec.Code)
	}
}

func TestAnalyze_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		req  AnalyzeRequest
	}{
		{"empty resume", AnalyzeRequest{JobText: strings.Repeat("j", 100)}},
		{"short resume", AnalyzeRequest{ResumeText: "too short", JobText: strings.Repeat("j", 100)}},
		{"oversized resume", AnalyzeRequest{ResumeText: strings.Repeat("r", 50_001), JobText: strings.Repeat("j", 100)}},
		{"oversized job", AnalyzeRequest{ResumeText: strings.Repeat("r", 100), JobText: strings.Repeat("j", 20_001)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(newTestDeps(t))
			body, _ := json.Marshal(tc.req)
			req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBuffer(body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422; body = %s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), "validation_error") {
				t.Errorf("body = %s, want validation_error type", rec.Body.String())
			}
		})
	}
}

func TestAnalyze_ScoringUnavailable(t *testing.T) {
	deps := newTestDeps(t)
	deps.Analyzer = &fakeAnalyzer{err: fmt.Errorf("%w: engine offline", pipeline.ErrScoringUnavailable)}
	h := NewHandler(deps)

	rec := doAnalyze(t, h, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "engine_unavailable") {
		t.Errorf("body = %s, want engine_unavailable type", rec.Body.String())
	}
}

func TestQuotaEndpoint_DoesNotCharge(t *testing.T) {
	h := NewHandler(newTestDeps(t))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/quota", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp struct {
			Tier      string `json:"tier"`
			Remaining int    `json:"remaining"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if resp.Tier != "free" || resp.Remaining != 3 {
			t.Fatalf("quota = %+v, want free/3 on every peek", resp)
		}
	}
}

func TestHealth(t *testing.T) {
	h := NewHandler(newTestDeps(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s, want status ok", rec.Body.String())
	}
}

func TestHealth_EngineDown(t *testing.T) {
	deps := newTestDeps(t)
	deps.Engine = &stubEngine{running: false}
	h := NewHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"degraded"`) {
		t.Errorf("body = %s, want degraded", rec.Body.String())
	}
}

func TestAdmin_RequiresBearer(t *testing.T) {
	h := NewHandler(newTestDeps(t))

	req := httptest.NewRequest(http.MethodPost, "/admin/seed", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without token", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/seed", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 with wrong token", rec.Code)
	}
}

func TestAdmin_SeedGraph(t *testing.T) {
	deps := newTestDeps(t)
	h := NewHandler(deps)

	req := httptest.NewRequest(http.MethodPost, "/admin/seed", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	graph, err := deps.Store.Graph(context.Background())
	if err != nil {
		t.Fatalf("Graph after seed: %v", err)
	}
	if graph.Len() == 0 {
		t.Error("graph is empty after seeding")
	}
}

func TestAdmin_CreateAndListPostings(t *testing.T) {
	deps := newTestDeps(t)
	h := NewHandler(deps)

	body, _ := json.Marshal(PostingRequest{
		Title:       "Platform Engineer",
		Company:     "Acme",
		Description: "Run Kubernetes clusters and build Go services.",
		Skills:      []string{"Go", "Kubernetes"},
	})
	req := httptest.NewRequest(http.MethodPost, "/admin/postings", bytes.NewBuffer(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// The posting enqueues an embed job for the ingest worker.
	job, err := deps.Store.ClaimNextEmbedJob(context.Background())
	if err != nil {
		t.Fatalf("ClaimNextEmbedJob: %v", err)
	}
	if job == nil || job.Type != "posting_embed" {
		t.Errorf("job = %+v, want a posting_embed job", job)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/postings", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Platform Engineer") {
		t.Errorf("list body = %s, want the created posting", rec.Body.String())
	}
}

func TestAdmin_CreatePostingValidation(t *testing.T) {
	h := NewHandler(newTestDeps(t))

	body, _ := json.Marshal(PostingRequest{Company: "Acme"})
	req := httptest.NewRequest(http.MethodPost, "/admin/postings", bytes.NewBuffer(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing fields", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewHandler(newTestDeps(t))

	doAnalyze(t, h, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "skillvector_http_requests_total") {
		t.Error("scrape output missing http counter")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	if got := clientIP(req); got != "203.0.113.7" {
		t.Errorf("clientIP = %q, want 203.0.113.7", got)
	}

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	if got := clientIP(req); got != "198.51.100.1" {
		t.Errorf("clientIP = %q, want first forwarded hop", got)
	}
}
