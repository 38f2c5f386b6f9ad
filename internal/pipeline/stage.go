// Package pipeline runs the analysis stages in order, applies the
// degradation policy per stage, and assembles the final report. The only
// failure that aborts a request is the essential match-scoring stage; every
// other stage degrades to an empty report section.
package pipeline

import (
	"context"
	"fmt"

	"github.com/skillvector/skillvector/internal/evidence"
	"github.com/skillvector/skillvector/internal/gap"
	"github.com/skillvector/skillvector/internal/retrieval"
	"github.com/skillvector/skillvector/internal/skills"
)

// Status is the terminal state of one stage within a request.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusDegraded  Status = "degraded"
	StatusSkipped   Status = "skipped"
)

// State carries the inputs and accumulated stage outputs of one request.
// Stages mutate it in declared order; it is never shared across requests.
type State struct {
	ResumeText string
	JobText    string

	MatchScore    float64
	GapIdentified bool
	Gap           gap.Gap
	Path          skills.Path
	RelatedJobs   []retrieval.JobMatch
	Projects      []evidence.Project
	Interview     []evidence.InterviewPrep
	Rubrics       []evidence.Rubric
}

// Stage is one unit of work wrapping a single external capability.
type Stage interface {
	// Name identifies the stage in results, logs, and metrics.
	Name() string
	// Essential stages abort the whole request on failure.
	Essential() bool
	// RequiresMissingSkills marks stages that are skipped when gap
	// identification failed or found nothing.
	RequiresMissingSkills() bool
	Run(ctx context.Context, st *State) error
}

// StageResult records how one stage ended for one request.
type StageResult struct {
	Stage     string `json:"stage"`
	Status    Status `json:"status"`
	Reason    string `json:"reason,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Registry is a fixed, ordered list of uniquely named stages.
type Registry struct {
	stages []Stage
	names  map[string]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register appends a stage. Stage names must be unique; execution order is
// registration order.
func (r *Registry) Register(s Stage) error {
	if s.Name() == "" {
		return fmt.Errorf("stage name is empty")
	}
	if _, ok := r.names[s.Name()]; ok {
		return fmt.Errorf("stage %q already registered", s.Name())
	}
	r.names[s.Name()] = struct{}{}
	r.stages = append(r.stages, s)
	return nil
}

// Stages returns the registered stages in execution order.
func (r *Registry) Stages() []Stage {
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

// Len returns the number of registered stages.
func (r *Registry) Len() int {
	return len(r.stages)
}
