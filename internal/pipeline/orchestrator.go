package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrScoringUnavailable aborts a request when the essential match stage
// fails. It is the only stage error that crosses the pipeline boundary.
var ErrScoringUnavailable = errors.New("scoring unavailable")

const (
	defaultStageTimeout   = 25 * time.Second
	defaultOverallTimeout = 2 * time.Minute
)

// Request is one analysis request flowing through the pipeline.
type Request struct {
	Identity   string
	Tier       string
	ResumeText string
	JobText    string
}

// Observer receives per-stage outcomes, e.g. for metrics.
type Observer interface {
	ObserveStage(stage string, status Status, elapsed time.Duration)
}

// Orchestrator executes the stage registry in order for each request.
type Orchestrator struct {
	registry       *Registry
	stageTimeout   time.Duration
	overallTimeout time.Duration
	observer       Observer
	logger         *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStageTimeout bounds each stage's execution.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.stageTimeout = d
		}
	}
}

// WithOverallTimeout bounds a whole request. Optional stages that have not
// started when the deadline passes are skipped, not failed.
func WithOverallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.overallTimeout = d
		}
	}
}

// WithObserver registers a stage outcome observer.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// NewOrchestrator creates an Orchestrator over the given registry.
func NewOrchestrator(registry *Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:       registry,
		stageTimeout:   defaultStageTimeout,
		overallTimeout: defaultOverallTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes every registered stage in order and assembles the report.
//
// Degradation policy: an essential stage failure aborts the request with
// ErrScoringUnavailable. An optional stage failure is recorded as DEGRADED
// and the pipeline continues. Stages that require missing skills are
// SKIPPED when gap identification failed or found none. Optional stages
// are also SKIPPED once the overall deadline has passed, so the caller
// still gets a partial report.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Report, error) {
	start := time.Now()
	requestID := uuid.New().String()

	ctx, cancel := context.WithTimeout(ctx, o.overallTimeout)
	defer cancel()

	state := &State{
		ResumeText: req.ResumeText,
		JobText:    req.JobText,
	}
	results := make([]StageResult, 0, o.registry.Len())

	for _, stage := range o.registry.Stages() {
		if stage.RequiresMissingSkills() && (!state.GapIdentified || len(state.Gap.MissingSkills) == 0) {
			reason := "no missing skills identified"
			if !state.GapIdentified {
				reason = "gap identification unavailable"
			}
			results = append(results, o.record(stage, StatusSkipped, reason, 0))
			continue
		}
		if ctx.Err() != nil {
			if stage.Essential() {
				return Report{}, fmt.Errorf("%w: %v", ErrScoringUnavailable, ctx.Err())
			}
			results = append(results, o.record(stage, StatusSkipped, "request deadline exceeded", 0))
			continue
		}

		stageCtx, stageCancel := context.WithTimeout(ctx, o.stageTimeout)
		stageStart := time.Now()
		err := stage.Run(stageCtx, state)
		elapsed := time.Since(stageStart)
		stageCancel()

		if err != nil {
			if stage.Essential() {
				o.logger.Error("essential stage failed", "request_id", requestID, "stage", stage.Name(), "error", err)
				return Report{}, fmt.Errorf("%w: %v", ErrScoringUnavailable, err)
			}
			o.logger.Warn("optional stage degraded", "request_id", requestID, "stage", stage.Name(), "error", err)
			results = append(results, o.record(stage, StatusDegraded, err.Error(), elapsed))
			continue
		}
		results = append(results, o.record(stage, StatusSucceeded, "", elapsed))
	}

	report := assemble(state, results, requestID, time.Since(start))
	o.logger.Info("analysis complete",
		"request_id", requestID,
		"match_score", report.MatchScore,
		"missing_skills", len(report.MissingSkills),
		"latency_ms", report.LatencyMs,
	)
	return report, nil
}

func (o *Orchestrator) record(stage Stage, status Status, reason string, elapsed time.Duration) StageResult {
	if o.observer != nil {
		o.observer.ObserveStage(stage.Name(), status, elapsed)
	}
	return StageResult{
		Stage:     stage.Name(),
		Status:    status,
		Reason:    reason,
		LatencyMs: elapsed.Milliseconds(),
	}
}
