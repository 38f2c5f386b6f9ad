package pipeline

import (
	"context"
	"fmt"

	"github.com/skillvector/skillvector/internal/evidence"
	"github.com/skillvector/skillvector/internal/gap"
	"github.com/skillvector/skillvector/internal/retrieval"
	"github.com/skillvector/skillvector/internal/skills"
)

// Collaborator contracts consumed by the built-in stages. Implementations
// live in the match, gap, skills, evidence, and retrieval packages.
type (
	// Scorer computes the 0-100 resume/job match score.
	Scorer interface {
		Score(ctx context.Context, resumeText, jobText string) (float64, error)
	}

	// GapDetector identifies missing and present skills.
	GapDetector interface {
		Detect(ctx context.Context, resumeText, jobText string) (gap.Gap, error)
	}

	// PathPlanner orders missing skills by prerequisite.
	PathPlanner interface {
		Plan(ctx context.Context, missing, possessed []string) skills.Path
	}

	// JobFinder retrieves seeded postings similar to the resume.
	JobFinder interface {
		RelatedJobs(ctx context.Context, resumeText string, topK int) ([]retrieval.JobMatch, error)
	}

	// EvidenceGenerator produces projects, interview prep, and rubrics.
	EvidenceGenerator interface {
		Projects(steps []skills.Step) []evidence.Project
		Interview(ctx context.Context, missingSkills []string, jobContext string) []evidence.InterviewPrep
		Rubrics(missingSkills []string) []evidence.Rubric
	}
)

// matchStage is the single essential stage: without a score there is no report.
type matchStage struct {
	scorer Scorer
}

func (s *matchStage) Name() string                { return "match" }
func (s *matchStage) Essential() bool             { return true }
func (s *matchStage) RequiresMissingSkills() bool { return false }

func (s *matchStage) Run(ctx context.Context, st *State) error {
	score, err := s.scorer.Score(ctx, st.ResumeText, st.JobText)
	if err != nil {
		return err
	}
	st.MatchScore = score
	return nil
}

type relatedJobsStage struct {
	finder JobFinder
	topK   int
}

func (s *relatedJobsStage) Name() string                { return "related_jobs" }
func (s *relatedJobsStage) Essential() bool             { return false }
func (s *relatedJobsStage) RequiresMissingSkills() bool { return false }

func (s *relatedJobsStage) Run(ctx context.Context, st *State) error {
	matches, err := s.finder.RelatedJobs(ctx, st.ResumeText, s.topK)
	if err != nil {
		return err
	}
	st.RelatedJobs = matches
	return nil
}

type gapStage struct {
	detector GapDetector
}

func (s *gapStage) Name() string                { return "gap" }
func (s *gapStage) Essential() bool             { return false }
func (s *gapStage) RequiresMissingSkills() bool { return false }

func (s *gapStage) Run(ctx context.Context, st *State) error {
	g, err := s.detector.Detect(ctx, st.ResumeText, st.JobText)
	if err != nil {
		return err
	}
	st.Gap = g
	st.GapIdentified = true
	return nil
}

type planStage struct {
	planner PathPlanner
}

func (s *planStage) Name() string                { return "plan" }
func (s *planStage) Essential() bool             { return false }
func (s *planStage) RequiresMissingSkills() bool { return true }

func (s *planStage) Run(ctx context.Context, st *State) error {
	st.Path = s.planner.Plan(ctx, st.Gap.MissingSkills, st.Gap.PresentSkills)
	return nil
}

type evidenceStage struct {
	generator EvidenceGenerator
}

func (s *evidenceStage) Name() string                { return "evidence" }
func (s *evidenceStage) Essential() bool             { return false }
func (s *evidenceStage) RequiresMissingSkills() bool { return true }

func (s *evidenceStage) Run(ctx context.Context, st *State) error {
	steps := st.Path.Steps
	if len(steps) == 0 {
		// Plan stage degraded or was skipped; build unordered steps so
		// evidence still covers every missing skill.
		for _, skill := range st.Gap.MissingSkills {
			steps = append(steps, skills.Step{Skill: skill, EstimatedWeeks: 1})
		}
	}
	st.Projects = s.generator.Projects(steps)
	return nil
}

type interviewStage struct {
	generator EvidenceGenerator
}

func (s *interviewStage) Name() string                { return "interview" }
func (s *interviewStage) Essential() bool             { return false }
func (s *interviewStage) RequiresMissingSkills() bool { return true }

func (s *interviewStage) Run(ctx context.Context, st *State) error {
	st.Interview = s.generator.Interview(ctx, st.Gap.MissingSkills, st.JobText)
	return nil
}

type rubricStage struct {
	generator EvidenceGenerator
}

func (s *rubricStage) Name() string                { return "rubric" }
func (s *rubricStage) Essential() bool             { return false }
func (s *rubricStage) RequiresMissingSkills() bool { return true }

func (s *rubricStage) Run(ctx context.Context, st *State) error {
	st.Rubrics = s.generator.Rubrics(st.Gap.MissingSkills)
	return nil
}

// DefaultRegistry wires the standard stage order: match first (essential),
// then related-job retrieval, gap identification, and the gap-dependent
// planning and evidence stages.
func DefaultRegistry(scorer Scorer, finder JobFinder, detector GapDetector, planner PathPlanner, generator EvidenceGenerator, topK int) (*Registry, error) {
	if topK <= 0 {
		topK = 5
	}
	r := NewRegistry()
	stages := []Stage{
		&matchStage{scorer: scorer},
		&relatedJobsStage{finder: finder, topK: topK},
		&gapStage{detector: detector},
		&planStage{planner: planner},
		&evidenceStage{generator: generator},
		&interviewStage{generator: generator},
		&rubricStage{generator: generator},
	}
	for _, s := range stages {
		if err := r.Register(s); err != nil {
			return nil, fmt.Errorf("building default registry: %w", err)
		}
	}
	return r, nil
}
