package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillvector/skillvector/internal/config"
	"github.com/skillvector/skillvector/internal/pipeline"
)

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze how well a resume matches a job description",
	Long: `Analyze how well a resume matches a job description.

The resume can be plain text, PDF, or DOCX. The job description is read
from a file or passed inline.

Examples:
  skillvector analyze --resume resume.pdf --job posting.txt
  skillvector analyze --resume resume.docx --job-text "Senior Go engineer..."
  skillvector analyze --resume resume.txt --job posting.txt --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resumePath, _ := cmd.Flags().GetString("resume")
		jobPath, _ := cmd.Flags().GetString("job")
		jobText, _ := cmd.Flags().GetString("job-text")
		asJSON, _ := cmd.Flags().GetBool("json")

		if resumePath == "" {
			return fmt.Errorf("--resume is required")
		}
		if jobPath == "" && jobText == "" {
			return fmt.Errorf("one of --job or --job-text is required")
		}

		resumeText, err := extractText(resumePath)
		if err != nil {
			return fmt.Errorf("extracting resume: %w", err)
		}
		if jobPath != "" {
			jobText, err = extractText(jobPath)
			if err != nil {
				return fmt.Errorf("extracting job description: %w", err)
			}
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Analyzing...")
		resp, err := client.post(cmd.Context(), "/analyze", map[string]string{
			"resume_text": resumeText,
			"job_text":    jobText,
		})
		if err != nil {
			return err
		}

		var report pipeline.Report
		if err := decodeJSON(resp, &report); err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printReport(report)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("resume", "", "resume file (.txt, .pdf, or .docx)")
	analyzeCmd.Flags().String("job", "", "job description file")
	analyzeCmd.Flags().String("job-text", "", "job description text")
	analyzeCmd.Flags().Bool("json", false, "print the full report as JSON")
}

func printReport(r pipeline.Report) {
	fmt.Printf("\n%s %.1f%%  (learning priority: %s)\n",
		colorize(colorBold, "Match score:"), r.MatchScore, r.LearningPriority)

	if len(r.MissingSkills) > 0 {
		fmt.Printf("\n%s\n", colorize(colorBold, "Missing skills"))
		for _, s := range r.MissingSkills {
			fmt.Printf("  - %s\n", s)
		}
	} else {
		fmt.Printf("\n%s\n", colorize(colorGreen, "No missing skills identified."))
	}

	if len(r.LearningPath) > 0 {
		fmt.Printf("\n%s (about %d weeks)\n", colorize(colorBold, "Learning path"), r.TotalWeeks)
		for i, step := range r.LearningPath {
			fmt.Printf("  %d. %s (%d weeks)\n", i+1, step.Skill, step.EstimatedWeeks)
			if step.Rationale != "" {
				fmt.Printf("     %s\n", step.Rationale)
			}
		}
	}

	if len(r.RelatedJobs) > 0 {
		fmt.Printf("\n%s\n", colorize(colorBold, "Related jobs"))
		for _, j := range r.RelatedJobs {
			title := j.Title
			if j.Company != "" {
				title += " @ " + j.Company
			}
			fmt.Printf("  %s [%.2f]\n", title, j.Score)
		}
	}

	if len(r.Projects) > 0 {
		fmt.Printf("\n%s\n", colorize(colorBold, "Portfolio projects"))
		for _, p := range r.Projects {
			fmt.Printf("  %s: %s (%d weeks)\n", p.Skill, p.Title, p.EstimatedWeeks)
		}
	}

	if len(r.Interview) > 0 {
		fmt.Printf("\n%s\n", colorize(colorBold, "Interview prep"))
		for _, prep := range r.Interview {
			fmt.Printf("  %s (%s): %d questions\n", prep.Skill, prep.Difficulty, len(prep.Questions))
		}
	}

	var degraded []string
	for _, s := range r.Stages {
		if s.Status == pipeline.StatusDegraded {
			degraded = append(degraded, s.Stage)
		}
	}
	if len(degraded) > 0 {
		printWarning("partial report: %s degraded", strings.Join(degraded, ", "))
	}
	fmt.Printf("\n%s %dms\n", colorize(colorBold, "Latency:"), r.LatencyMs)
}

// --- quota ---

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show remaining quota for the current identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/quota")
		if err != nil {
			return err
		}

		var q struct {
			Tier      string `json:"tier"`
			Remaining int    `json:"remaining"`
			ResetAt   string `json:"reset_at"`
		}
		if err := decodeJSON(resp, &q); err != nil {
			return err
		}

		printStatus("Tier", "%s", q.Tier)
		if q.Remaining < 0 {
			printStatus("Remaining", "unlimited")
		} else {
			printStatus("Remaining", "%d", q.Remaining)
			printStatus("Resets", "%s", q.ResetAt)
		}
		return nil
	},
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past analyses for the current identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/analyses?limit=%d", limit))
		if err != nil {
			return err
		}

		var result struct {
			Analyses []struct {
				ID            string  `json:"id"`
				MatchScore    float64 `json:"match_score"`
				MissingSkills string  `json:"missing_skills"`
				CreatedAt     string  `json:"created_at"`
			} `json:"analyses"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Analyses) == 0 {
			fmt.Println("No analyses found.")
			return nil
		}

		for _, a := range result.Analyses {
			var missing []string
			json.Unmarshal([]byte(a.MissingSkills), &missing)
			fmt.Printf("%s  %s  %.1f%%  missing: %d\n",
				colorize(colorCyan, a.ID[:8]),
				a.CreatedAt,
				a.MatchScore,
				len(missing),
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of analyses to list")
}

// --- seed ---

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the built-in skill catalog and prerequisite graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/admin/seed", nil)
		if err != nil {
			return err
		}

		var result map[string]int
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Seeded %d skills and %d edges", result["skills"], result["edges"])
		return nil
	},
}

// --- posting ---

var postingCmd = &cobra.Command{
	Use:   "posting",
	Short: "Manage seeded job postings",
}

var postingAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Seed a job posting for related-job retrieval",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		company, _ := cmd.Flags().GetString("company")
		file, _ := cmd.Flags().GetString("file")
		skillsStr, _ := cmd.Flags().GetString("skills")

		if title == "" || file == "" {
			return fmt.Errorf("--title and --file are required")
		}

		description, err := extractText(file)
		if err != nil {
			return fmt.Errorf("reading description: %w", err)
		}

		var skillList []string
		if skillsStr != "" {
			skillList = strings.Split(skillsStr, ",")
			for i := range skillList {
				skillList[i] = strings.TrimSpace(skillList[i])
			}
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/admin/postings", map[string]any{
			"title":       title,
			"company":     company,
			"description": description,
			"skills":      skillList,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Queued posting %s for embedding", result["id"])
		return nil
	},
}

var postingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List seeded job postings",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/admin/postings")
		if err != nil {
			return err
		}

		var result struct {
			Postings []struct {
				ID       string `json:"id"`
				Title    string `json:"title"`
				Company  string `json:"company"`
				Embedded bool   `json:"embedded"`
			} `json:"postings"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Postings) == 0 {
			fmt.Println("No postings found.")
			return nil
		}

		for _, p := range result.Postings {
			state := "pending"
			if p.Embedded {
				state = "embedded"
			}
			fmt.Printf("%s  %-10s  %s", colorize(colorCyan, p.ID[:8]), state, p.Title)
			if p.Company != "" {
				fmt.Printf(" @ %s", p.Company)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	postingAddCmd.Flags().String("title", "", "posting title")
	postingAddCmd.Flags().String("company", "", "company name")
	postingAddCmd.Flags().String("file", "", "file containing the job description")
	postingAddCmd.Flags().String("skills", "", "comma-separated skill names")
	postingCmd.AddCommand(postingAddCmd)
	postingCmd.AddCommand(postingListCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
