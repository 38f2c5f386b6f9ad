// Package gap identifies which skills a job posting requires that a resume
// does not demonstrate, using structured LLM extraction.
package gap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/skillvector/skillvector/internal/engine"
)

const detectionTimeout = 20 * time.Second

// Chatter is the interface for structured chat completion.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []engine.Message, jsonSchema *engine.Schema) (string, error)
}

// Gap holds the structured extraction result for a resume/job pair.
type Gap struct {
	MissingSkills []string `json:"missing_skills"`
	PresentSkills []string `json:"present_skills"`
}

// Detector extracts skill gaps with an LLM.
type Detector struct {
	client Chatter
	model  string
}

// NewDetector creates a Detector using the given chat client and model name.
func NewDetector(client Chatter, model string) *Detector {
	return &Detector{client: client, model: model}
}

// Detect compares the resume against the job description and returns the
// missing and present skills. Skill lists are deduplicated and never nil.
// An empty missing list on success is a legitimate outcome, not an error:
// it means the resume already covers the posting.
func (d *Detector) Detect(ctx context.Context, resumeText, jobText string) (Gap, error) {
	if strings.TrimSpace(resumeText) == "" {
		return Gap{}, fmt.Errorf("resume text is empty")
	}
	if strings.TrimSpace(jobText) == "" {
		return Gap{}, fmt.Errorf("job description is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, detectionTimeout)
	defer cancel()

	raw, err := d.client.Chat(ctx, d.model, buildPrompt(resumeText, jobText), gapSchema())
	if err != nil {
		return Gap{}, fmt.Errorf("gap extraction chat failed: %w", err)
	}

	var result Gap
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &result); err != nil {
		return Gap{}, fmt.Errorf("unmarshalling gap response %q: %w", raw, err)
	}

	result.MissingSkills = dedupeSkills(result.MissingSkills)
	result.PresentSkills = dedupeSkills(result.PresentSkills)
	return result, nil
}

// cleanJSON strips markdown code fences that chat models sometimes wrap
// around JSON output despite instructions.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// dedupeSkills trims entries, drops blanks, and removes case-insensitive
// duplicates while preserving first occurrence and order.
func dedupeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
