package gap

import (
	"fmt"

	"github.com/skillvector/skillvector/internal/engine"
)

const systemPrompt = `You are a senior technical recruiter and curriculum architect. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Rules:
- missing_skills lists ONLY skills required by the job that are NOT clearly present in the resume.
- present_skills lists skills required by the job that the resume clearly demonstrates.
- Use short canonical skill names ("Kubernetes", not "container orchestration with k8s").
- Never invent skills that the job description does not ask for.`

const userPromptTemplate = `Compare the following resume and job description.

Resume:
%s

Job Description:
%s`

// buildPrompt constructs the chat messages for skill-gap extraction.
func buildPrompt(resumeText, jobText string) []engine.Message {
	return []engine.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userPromptTemplate, resumeText, jobText)},
	}
}

// gapSchema returns the JSON schema for structured gap output.
func gapSchema() *engine.Schema {
	return &engine.Schema{
		Type: "object",
		Properties: map[string]engine.SchemaProperty{
			"missing_skills": {Type: "array", Description: "Skills the job requires that the resume lacks"},
			"present_skills": {Type: "array", Description: "Skills the job requires that the resume demonstrates"},
		},
		Required: []string{"missing_skills", "present_skills"},
	}
}
