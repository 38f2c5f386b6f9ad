package pipeline

import (
	"time"

	"github.com/skillvector/skillvector/internal/evidence"
	"github.com/skillvector/skillvector/internal/retrieval"
	"github.com/skillvector/skillvector/internal/skills"
)

// Report is the assembled response for one analysis request. Every slice
// field is non-nil so callers can iterate all sections without nil checks;
// degraded and skipped stages contribute empty sections.
type Report struct {
	RequestID        string                   `json:"request_id"`
	MatchScore       float64                  `json:"match_score"`
	LearningPriority string                   `json:"learning_priority"`
	MissingSkills    []string                 `json:"missing_skills"`
	PresentSkills    []string                 `json:"present_skills"`
	LearningPath     []skills.Step            `json:"learning_path"`
	TotalWeeks       int                      `json:"total_weeks"`
	RelatedJobs      []retrieval.JobMatch     `json:"related_jobs"`
	Projects         []evidence.Project       `json:"evidence_projects"`
	Interview        []evidence.InterviewPrep `json:"interview_prep"`
	Rubrics          []evidence.Rubric        `json:"rubrics"`
	Stages           []StageResult            `json:"stages"`
	LatencyMs        int64                    `json:"latency_ms"`
}

// assemble merges the stage outputs into a Report. It never blocks and
// never fails: missing payloads map to empty sections.
func assemble(state *State, results []StageResult, requestID string, elapsed time.Duration) Report {
	return Report{
		RequestID:        requestID,
		MatchScore:       state.MatchScore,
		LearningPriority: learningPriority(state.MatchScore),
		MissingSkills:    orEmpty(state.Gap.MissingSkills),
		PresentSkills:    orEmpty(state.Gap.PresentSkills),
		LearningPath:     orEmpty(state.Path.Steps),
		TotalWeeks:       state.Path.TotalWeeks,
		RelatedJobs:      orEmpty(state.RelatedJobs),
		Projects:         orEmpty(state.Projects),
		Interview:        orEmpty(state.Interview),
		Rubrics:          orEmpty(state.Rubrics),
		Stages:           orEmpty(results),
		LatencyMs:        elapsed.Milliseconds(),
	}
}

// learningPriority labels how urgently the candidate should close the gap:
// low scores mean a large gap and a high learning priority.
func learningPriority(score float64) string {
	switch {
	case score < 50:
		return "High"
	case score < 75:
		return "Medium"
	default:
		return "Low"
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
