package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/skillvector/skillvector/internal/pipeline"
)

func TestObserveStage(t *testing.T) {
	m := NewManager()

	m.ObserveStage("match", pipeline.StatusSucceeded, 120*time.Millisecond)
	m.ObserveStage("gap", pipeline.StatusDegraded, 5*time.Second)
	m.ObserveStage("plan", pipeline.StatusSkipped, 0)

	if got := testutil.ToFloat64(m.stageStatus.WithLabelValues("match", "succeeded")); got != 1 {
		t.Errorf("match succeeded count = %f, want 1", got)
	}
	if got := testutil.ToFloat64(m.stageStatus.WithLabelValues("plan", "skipped")); got != 1 {
		t.Errorf("plan skipped count = %f, want 1", got)
	}
	// Skipped stages have no meaningful latency.
	if got := testutil.CollectAndCount(m.stageLatency); got != 2 {
		t.Errorf("latency series = %d, want 2 (skipped stage excluded)", got)
	}
}

func TestCounters(t *testing.T) {
	m := NewManager()

	m.RecordAnalysis()
	m.RecordAnalysis()
	m.RecordQuotaRejection("free")
	m.RecordEmbedJob()
	m.RecordHTTPRequest("POST", "/analyze", "200", 80*time.Millisecond)

	if got := testutil.ToFloat64(m.analysesTotal); got != 2 {
		t.Errorf("analyses = %f, want 2", got)
	}
	if got := testutil.ToFloat64(m.quotaRejections.WithLabelValues("free")); got != 1 {
		t.Errorf("rejections = %f, want 1", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/analyze", "200")); got != 1 {
		t.Errorf("http requests = %f, want 1", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	m := NewManager()
	m.RecordAnalysis()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "skillvector_analysis_requests_total") {
		t.Errorf("scrape output missing analysis counter:\n%s", body)
	}
}
