package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skillvector/skillvector/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestAnalyzeRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /analyze": `{"request_id":"req-1","match_score":71.5,"learning_priority":"Medium","missing_skills":["Docker"],"latency_ms":42}`,
	})

	client := ts.client()
	resp, err := client.post(ctx, "/analyze", map[string]string{
		"resume_text": "resume body",
		"job_text":    "job body",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report struct {
		RequestID  string  `json:"request_id"`
		MatchScore float64 `json:"match_score"`
	}
	if err := decodeJSON(resp, &report); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if report.MatchScore != 71.5 {
		t.Errorf("match_score = %v, want 71.5", report.MatchScore)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Method != "POST" || r.Path != "/analyze" {
		t.Errorf("request = %s %s, want POST /analyze", r.Method, r.Path)
	}
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", r.Auth)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["resume_text"] != "resume body" {
		t.Errorf("body.resume_text = %q, want 'resume body'", body["resume_text"])
	}
}

func TestAnalyzeCommand_MissingArgs(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"analyze"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing args")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want it to mention 'required'", err.Error())
	}
}

func TestClientWithoutToken(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /quota": `{"tier":"free","remaining":3,"reset_at":"2026-01-01T00:00:00Z"}`,
	})

	client := ts.client()
	client.token = ""

	resp, err := client.get(ctx, "/quota")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	if ts.requests[0].Auth != "" {
		t.Errorf("auth = %q, want no Authorization header without a token", ts.requests[0].Auth)
	}
}

func TestQuotaRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /quota": `{"tier":"free","remaining":2,"reset_at":"2026-01-01T00:00:00Z"}`,
	})

	client := ts.client()
	resp, err := client.get(ctx, "/quota")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var q struct {
		Tier      string `json:"tier"`
		Remaining int    `json:"remaining"`
	}
	if err := decodeJSON(resp, &q); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if q.Tier != "free" || q.Remaining != 2 {
		t.Errorf("quota = %+v, want free/2", q)
	}
}

func TestHistoryRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /analyses": `{"analyses":[{"id":"a1b2c3d4-0000","match_score":55.0,"missing_skills":"[\"Docker\",\"AWS\"]","latency_ms":100,"created_at":"2026-01-01T00:00:00Z"}]}`,
	})

	client := ts.client()
	resp, err := client.get(ctx, "/analyses?limit=20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		Analyses []struct {
			ID            string `json:"id"`
			MissingSkills string `json:"missing_skills"`
		} `json:"analyses"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if len(result.Analyses) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(result.Analyses))
	}
	var missing []string
	if err := json.Unmarshal([]byte(result.Analyses[0].MissingSkills), &missing); err != nil {
		t.Fatalf("missing skills parse error: %v", err)
	}
	if len(missing) != 2 {
		t.Errorf("missing = %v, want 2 skills", missing)
	}
}

func TestSeedRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /admin/seed": `{"skills":25,"edges":18}`,
	})

	client := ts.client()
	resp, err := client.post(ctx, "/admin/seed", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result map[string]int
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result["skills"] != 25 {
		t.Errorf("skills = %d, want 25", result["skills"])
	}
}

func TestPostingAddRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /admin/postings": `{"id":"post-123","status":"queued"}`,
	})

	client := ts.client()
	resp, err := client.post(ctx, "/admin/postings", map[string]any{
		"title":       "Platform Engineer",
		"company":     "Acme",
		"description": "Run Kubernetes clusters.",
		"skills":      []string{"Kubernetes"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result map[string]string
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result["status"] != "queued" {
		t.Errorf("status = %q, want queued", result["status"])
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["title"] != "Platform Engineer" {
		t.Errorf("body.title = %v, want Platform Engineer", body["title"])
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
		w.Write([]byte(`{"error":{"message":"free tier quota exhausted","type":"rate_limit_error"}}`))
	}))
	defer ts.Close()

	client := &apiClient{
		baseURL:    ts.URL,
		token:      "test",
		httpClient: ts.Client(),
	}

	resp, err := client.post(ctx, "/analyze", map[string]string{})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate_limit_error") {
		t.Errorf("error = %q, want it to contain 429 and rate_limit_error", err.Error())
	}
}

func TestStatusCommand_Stopped(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	client := ts.client()
	_, err := client.get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestExtractText_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(path, []byte("plain text resume"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	text, err := extractText(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "plain text resume" {
		t.Errorf("text = %q, want the file content", text)
	}
}

func TestExtractText_MissingFile(t *testing.T) {
	_, err := extractText(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestStripDocxMarkup(t *testing.T) {
	content := `<w:p><w:r><w:t>Senior Engineer</w:t></w:r></w:p><w:p><w:r><w:t>Go &amp; Python</w:t></w:r></w:p>`
	got := stripDocxMarkup(content)

	want := "Senior Engineer\nGo & Python"
	if got != want {
		t.Errorf("stripDocxMarkup = %q, want %q", got, want)
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 4000
	cfg.Engine.ChatModel = "mistral-nemo"

	keys := config.ShowAll(cfg)
	if len(keys) == 0 {
		t.Fatal("expected non-empty keys from ShowAll")
	}

	found := false
	for _, k := range keys {
		if k.Key == "server.port" && k.Value == "4000" {
			found = true
		}
	}
	if !found {
		t.Error("expected to find server.port=4000 in ShowAll output")
	}
}
