package api

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	minInputLength   = 50
	maxResumeLength  = 50_000
	maxJobDescLength = 20_000
)

var (
	excessNewlines = regexp.MustCompile(`\n{4,}`)
	controlChars   = regexp.MustCompile("[\x01-\x08\x0b\x0c\x0e-\x1f\x7f]")
)

// validateResume checks resume text bounds. Returns "" when valid.
func validateResume(text string) string {
	return validateText(text, "resume", maxResumeLength)
}

// validateJobDescription checks job description bounds. Returns "" when valid.
func validateJobDescription(text string) string {
	return validateText(text, "job description", maxJobDescLength)
}

func validateText(text, field string, maxLen int) string {
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return fmt.Sprintf("%s text is required", field)
	}
	if len(stripped) < minInputLength {
		return fmt.Sprintf("%s must be at least %d characters", field, minInputLength)
	}
	if len(text) > maxLen {
		return fmt.Sprintf("%s exceeds maximum length of %d characters", field, maxLen)
	}
	return ""
}

// sanitizeText strips null bytes and control characters (keeping newlines
// and tabs) and collapses runs of 4+ newlines.
func sanitizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = excessNewlines.ReplaceAllString(text, "\n\n\n")
	text = controlChars.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
