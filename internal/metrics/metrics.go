// Package metrics provides Prometheus metrics for the analysis service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skillvector/skillvector/internal/pipeline"
)

// Manager owns all Prometheus metrics and their registry.
type Manager struct {
	registry *prometheus.Registry

	analysesTotal   prometheus.Counter
	stageLatency    *prometheus.HistogramVec
	stageStatus     *prometheus.CounterVec
	quotaRejections *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	embedJobsProcessed prometheus.Counter
}

// NewManager creates a Manager with its own registry, keeping the default
// Go runtime collectors out of the scrape output.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	const namespace = "skillvector"

	return &Manager{
		registry: registry,
		analysesTotal: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Total number of completed analysis requests",
		}),
		stageLatency: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "stage_duration_seconds",
			Help:      "Per-stage execution time",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		stageStatus: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "stage_outcomes_total",
			Help:      "Stage outcomes by status (succeeded, degraded, skipped)",
		}, []string{"stage", "status"}),
		quotaRejections: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "rejections_total",
			Help:      "Requests rejected by the quota gate",
		}, []string{"tier"}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route, and status code",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		embedJobsProcessed: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "embed_jobs_total",
			Help:      "Embed jobs processed by the ingest worker",
		}),
	}
}

// ObserveStage implements pipeline.Observer.
func (m *Manager) ObserveStage(stage string, status pipeline.Status, elapsed time.Duration) {
	m.stageStatus.WithLabelValues(stage, string(status)).Inc()
	if status != pipeline.StatusSkipped {
		m.stageLatency.WithLabelValues(stage).Observe(elapsed.Seconds())
	}
}

// RecordAnalysis counts one completed analysis request.
func (m *Manager) RecordAnalysis() {
	m.analysesTotal.Inc()
}

// RecordQuotaRejection counts one quota-gate rejection.
func (m *Manager) RecordQuotaRejection(tier string) {
	m.quotaRejections.WithLabelValues(tier).Inc()
}

// RecordHTTPRequest counts one served HTTP request.
func (m *Manager) RecordHTTPRequest(method, route, status string, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RecordEmbedJob counts one processed embed job.
func (m *Manager) RecordEmbedJob() {
	m.embedJobsProcessed.Inc()
}

// Handler returns the scrape endpoint for this Manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}
