// Package evidence turns a learning path into resume-ready artifacts:
// portfolio project recommendations, interview preparation questions, and
// assessment rubrics.
package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skillvector/skillvector/internal/engine"
	"github.com/skillvector/skillvector/internal/skills"
)

const (
	questionsPerSkill = 5
	interviewTimeout  = 15 * time.Second
)

// Chatter is the interface for structured chat completion.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []engine.Message, jsonSchema *engine.Schema) (string, error)
}

// Generator produces evidence artifacts for missing skills. Projects and
// rubrics come from curated catalogs; interview questions are LLM-generated
// with a curated fallback.
type Generator struct {
	client Chatter
	model  string
}

// NewGenerator creates a Generator. A nil client disables LLM question
// generation and the curated fallback is used for everything.
func NewGenerator(client Chatter, model string) *Generator {
	return &Generator{client: client, model: model}
}

// Projects maps each learning-path step to a portfolio project. Skills
// without a catalog entry get a generic project so every step has evidence
// attached. Never returns nil.
func (g *Generator) Projects(steps []skills.Step) []Project {
	projects := make([]Project, 0, len(steps))
	for _, step := range steps {
		key := strings.ToLower(strings.TrimSpace(step.Skill))
		p, ok := projectCatalog[key]
		if !ok {
			p = Project{
				Title:        fmt.Sprintf("Build a practical project for %s", step.Skill),
				Description:  fmt.Sprintf("Design and build a small but complete project that demonstrates working knowledge of %s.", step.Skill),
				Deliverables: []string{"README.md"},
			}
		}
		p.Skill = step.Skill
		if p.EstimatedWeeks == 0 {
			p.EstimatedWeeks = step.EstimatedWeeks
		}
		projects = append(projects, p)
	}
	return projects
}

// Rubrics returns an assessment rubric for each missing skill, falling back
// to generic criteria for skills outside the catalog. Never returns nil.
func (g *Generator) Rubrics(missingSkills []string) []Rubric {
	rubrics := make([]Rubric, 0, len(missingSkills))
	for _, skill := range missingSkills {
		key := strings.ToLower(strings.TrimSpace(skill))
		criteria, ok := rubricCatalog[key]
		if !ok {
			criteria = genericCriteria(skill)
		}
		rubrics = append(rubrics, Rubric{
			Skill:       skill,
			Criteria:    criteria,
			Scoring:     scoringGuide(),
			TotalPoints: 100,
		})
	}
	return rubrics
}

// Interview returns preparation material for each missing skill. When a chat
// client is configured it asks the LLM for job-specific questions and falls
// back to the curated catalog per skill on any failure. Never returns nil
// and never fails: interview prep always degrades to the catalog.
func (g *Generator) Interview(ctx context.Context, missingSkills []string, jobContext string) []InterviewPrep {
	preps := make([]InterviewPrep, 0, len(missingSkills))
	for _, skill := range missingSkills {
		questions := g.questionsFor(ctx, skill, jobContext)
		key := strings.ToLower(strings.TrimSpace(skill))
		preps = append(preps, InterviewPrep{
			Skill:      skill,
			Questions:  questions,
			Difficulty: difficultyFor(key),
			Tips:       tipsFor(skill, key),
		})
	}
	return preps
}

func (g *Generator) questionsFor(ctx context.Context, skill, jobContext string) []string {
	if g.client != nil {
		questions, err := g.generateLLM(ctx, skill, jobContext)
		if err != nil {
			slog.Warn("interview question generation failed, using catalog", "skill", skill, "error", err)
		} else {
			return questions
		}
	}
	return fallbackFor(skill)
}

func (g *Generator) generateLLM(ctx context.Context, skill, jobContext string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, interviewTimeout)
	defer cancel()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d technical interview questions for a candidate who needs to demonstrate knowledge of %q.\n", questionsPerSkill, skill)
	if jobContext != "" {
		fmt.Fprintf(&sb, "Job context: %s\n", jobContext)
	}
	sb.WriteString("Mix difficulty levels (easy, medium, hard). Return ONLY a JSON object with a \"questions\" array of strings.")

	messages := []engine.Message{
		{Role: "system", Content: "You are a senior technical interviewer. Output only valid JSON conforming to the provided schema."},
		{Role: "user", Content: sb.String()},
	}
	schema := &engine.Schema{
		Type: "object",
		Properties: map[string]engine.SchemaProperty{
			"questions": {Type: "array", Description: "Interview questions ordered easy to hard"},
		},
		Required: []string{"questions"},
	}

	raw, err := g.client.Chat(ctx, g.model, messages, schema)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshalling questions: %w", err)
	}
	if len(parsed.Questions) == 0 {
		return nil, fmt.Errorf("model returned no questions")
	}
	if len(parsed.Questions) > questionsPerSkill {
		parsed.Questions = parsed.Questions[:questionsPerSkill]
	}
	return parsed.Questions, nil
}

func fallbackFor(skill string) []string {
	key := strings.ToLower(strings.TrimSpace(skill))
	if questions, ok := fallbackQuestions[key]; ok {
		return questions
	}
	return []string{
		fmt.Sprintf("Explain the core concepts of %s.", skill),
		fmt.Sprintf("Describe a project where you used %s effectively.", skill),
		fmt.Sprintf("What are common challenges when working with %s?", skill),
		fmt.Sprintf("How does %s compare to alternative technologies?", skill),
		fmt.Sprintf("What best practices do you follow when using %s?", skill),
	}
}

func difficultyFor(key string) string {
	if _, ok := advancedSkills[key]; ok {
		return "Advanced"
	}
	if _, ok := intermediateSkills[key]; ok {
		return "Intermediate"
	}
	return "Foundational"
}

func tipsFor(skill, key string) []string {
	if tips, ok := preparationTips[key]; ok {
		return tips
	}
	return []string{
		fmt.Sprintf("Build a small project using %s", skill),
		fmt.Sprintf("Read the official %s documentation", skill),
		"Practice explaining concepts out loud",
	}
}

func scoringGuide() map[string]string {
	return map[string]string{
		"Excellent":  "90-100: Exceeds expectations",
		"Good":       "70-89: Meets expectations",
		"Needs Work": "0-69: Below expectations",
	}
}

func genericCriteria(skill string) []RubricCriterion {
	return []RubricCriterion{
		{Name: "Technical Implementation", Weight: 30, Levels: map[string]string{
			"Excellent":  fmt.Sprintf("Demonstrates deep understanding of %s. Uses best practices and advanced features.", skill),
			"Good":       fmt.Sprintf("Working implementation using %s correctly.", skill),
			"Needs Work": fmt.Sprintf("Basic or incorrect use of %s.", skill),
		}},
		{Name: "Code Quality", Weight: 25, Levels: map[string]string{
			"Excellent":  "Clean, well-structured code with tests and documentation.",
			"Good":       "Readable code with some tests.",
			"Needs Work": "Messy code without tests.",
		}},
		{Name: "Problem Solving", Weight: 25, Levels: map[string]string{
			"Excellent":  "Elegant solution addressing edge cases and error scenarios.",
			"Good":       "Functional solution for the main use case.",
			"Needs Work": "Incomplete or fragile solution.",
		}},
		{Name: "Documentation", Weight: 20, Levels: map[string]string{
			"Excellent":  "Clear README, setup instructions, design decisions explained.",
			"Good":       "Basic README with setup instructions.",
			"Needs Work": "No documentation.",
		}},
	}
}

// stripFences removes markdown code fences from model output.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
