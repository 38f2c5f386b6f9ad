package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/skillvector/skillvector/internal/pipeline"
	"github.com/skillvector/skillvector/internal/skills"
)

type fakePlanner struct {
	path skills.Path
}

func (f *fakePlanner) Plan(ctx context.Context, missing, possessed []string) skills.Path {
	return f.path
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func longText(prefix string) string {
	return prefix + " " + strings.Repeat("building and operating production systems. ", 3)
}

func TestMCPAnalyzeFit(t *testing.T) {
	deps := MCPDeps{Analyzer: &fakeAnalyzer{score: 81.3}}
	handler := mcpAnalyzeFit(deps)

	result, err := handler(context.Background(), makeCallToolRequest("analyze_fit", map[string]interface{}{
		"resume_text": longText("Senior engineer, Python and Docker."),
		"job_text":    longText("Platform role requiring Kubernetes."),
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var report pipeline.Report
	if err := json.Unmarshal([]byte(toolText(t, result)), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.MatchScore != 81.3 {
		t.Errorf("MatchScore = %v, want 81.3", report.MatchScore)
	}
}

func TestMCPAnalyzeFit_MissingArguments(t *testing.T) {
	deps := MCPDeps{Analyzer: &fakeAnalyzer{}}
	handler := mcpAnalyzeFit(deps)

	result, err := handler(context.Background(), makeCallToolRequest("analyze_fit", map[string]interface{}{
		"resume_text": longText("Resume only, no job text."),
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing job_text")
	}
}

func TestMCPAnalyzeFit_RejectsShortInput(t *testing.T) {
	deps := MCPDeps{Analyzer: &fakeAnalyzer{}}
	handler := mcpAnalyzeFit(deps)

	result, err := handler(context.Background(), makeCallToolRequest("analyze_fit", map[string]interface{}{
		"resume_text": "too short",
		"job_text":    longText("A job description."),
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for short resume")
	}
	if !strings.Contains(toolText(t, result), "at least") {
		t.Errorf("error text = %q, want length message", toolText(t, result))
	}
}

func TestMCPAnalyzeFit_AnalyzerFailure(t *testing.T) {
	deps := MCPDeps{Analyzer: &fakeAnalyzer{err: errors.New("engine offline")}}
	handler := mcpAnalyzeFit(deps)

	result, err := handler(context.Background(), makeCallToolRequest("analyze_fit", map[string]interface{}{
		"resume_text": longText("A valid resume."),
		"job_text":    longText("A valid job description."),
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when analysis fails")
	}
}

func TestMCPPlanLearningPath(t *testing.T) {
	deps := MCPDeps{Planner: &fakePlanner{path: skills.Path{
		Steps: []skills.Step{
			{Skill: "Docker", EstimatedWeeks: 3},
			{Skill: "Kubernetes", EstimatedWeeks: 6},
		},
		TotalWeeks: 9,
	}}}
	handler := mcpPlanPath(deps)

	result, err := handler(context.Background(), makeCallToolRequest("plan_learning_path", map[string]interface{}{
		"missing_skills":    []interface{}{"Kubernetes", "Docker"},
		"possessed_skills":  []interface{}{"Python"},
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var path skills.Path
	if err := json.Unmarshal([]byte(toolText(t, result)), &path); err != nil {
		t.Fatalf("decoding path: %v", err)
	}
	if len(path.Steps) != 2 || path.TotalWeeks != 9 {
		t.Errorf("path = %+v, want 2 steps over 9 weeks", path)
	}
}

func TestMCPPlanLearningPath_RequiresSkills(t *testing.T) {
	deps := MCPDeps{Planner: &fakePlanner{}}
	handler := mcpPlanPath(deps)

	result, err := handler(context.Background(), makeCallToolRequest("plan_learning_path", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for empty missing_skills")
	}
}

func TestMCPCatalogResource(t *testing.T) {
	handler := mcpResourceCatalog(MCPDeps{})

	contents, err := handler(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "skills://catalog"},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents is %T, want TextResourceContents", contents[0])
	}

	var payload struct {
		Skills []skills.Skill `json:"skills"`
		Edges  []skills.Edge  `json:"edges"`
	}
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("decoding catalog: %v", err)
	}
	if len(payload.Skills) == 0 || len(payload.Edges) == 0 {
		t.Error("catalog payload is empty")
	}
}

func TestNewMCPServer(t *testing.T) {
	s := NewMCPServer(MCPDeps{Analyzer: &fakeAnalyzer{}, Planner: &fakePlanner{}})
	if s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}
