package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/skillvector/skillvector/internal/pipeline"
	"github.com/skillvector/skillvector/internal/skills"
)

// MCPPlanner abstracts learning-path planning for the MCP layer.
type MCPPlanner interface {
	Plan(ctx context.Context, missing, possessed []string) skills.Path
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Analyzer Analyzer
	Planner  MCPPlanner
}

// NewMCPServer creates an MCP server exposing the analysis pipeline and the
// learning-path planner as tools, plus the skill catalog as a resource.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"skillvector",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("skillvector — resume/job skill-gap analysis and prerequisite-ordered learning paths."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("analyze_fit",
			mcp.WithDescription("Analyze how well a resume matches a job description: match score, missing skills, learning path, and preparation material."),
			mcp.WithString("resume_text", mcp.Description("Full resume text"), mcp.Required()),
			mcp.WithString("job_text", mcp.Description("Full job description text"), mcp.Required()),
		),
		mcpAnalyzeFit(deps),
	)

	s.AddTool(
		mcp.NewTool("plan_learning_path",
			mcp.WithDescription("Order a set of missing skills into a prerequisite-respecting learning path with duration estimates."),
			mcp.WithArray("missing_skills", mcp.Description("Skill names to learn"), mcp.Required()),
			mcp.WithArray("possessed_skills", mcp.Description("Skills the candidate already has")),
		),
		mcpPlanPath(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"skills://catalog",
			"Skill Catalog",
			mcp.WithResourceDescription("Built-in skill catalog with categories, durations, and prerequisite edges"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCatalog(deps),
	)

	return s
}

func mcpAnalyzeFit(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resumeText, err := req.RequireString("resume_text")
		if err != nil {
			return mcpError("resume_text is required"), nil
		}
		jobText, err := req.RequireString("job_text")
		if err != nil {
			return mcpError("job_text is required"), nil
		}

		resumeText = sanitizeText(resumeText)
		jobText = sanitizeText(jobText)
		if msg := validateResume(resumeText); msg != "" {
			return mcpError(msg), nil
		}
		if msg := validateJobDescription(jobText); msg != "" {
			return mcpError(msg), nil
		}

		report, err := deps.Analyzer.Run(ctx, pipeline.Request{
			Identity:   "mcp",
			Tier:       "pro",
			ResumeText: resumeText,
			JobText:    jobText,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		b, err := json.Marshal(report)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal report: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpPlanPath(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		missing := req.GetStringSlice("missing_skills", nil)
		if len(missing) == 0 {
			return mcpError("missing_skills is required and must not be empty"), nil
		}
		possessed := req.GetStringSlice("possessed_skills", nil)

		path := deps.Planner.Plan(ctx, missing, possessed)

		b, err := json.Marshal(path)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal path: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceCatalog(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		payload := map[string]any{
			"skills": skills.Catalog(),
			"edges":  skills.CatalogEdges(),
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshalling catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "skills://catalog",
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
