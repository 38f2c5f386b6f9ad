package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/skillvector/skillvector/internal/api"
	"github.com/skillvector/skillvector/internal/config"
	"github.com/skillvector/skillvector/internal/engine"
	"github.com/skillvector/skillvector/internal/evidence"
	"github.com/skillvector/skillvector/internal/gap"
	"github.com/skillvector/skillvector/internal/ingest"
	"github.com/skillvector/skillvector/internal/match"
	"github.com/skillvector/skillvector/internal/metrics"
	"github.com/skillvector/skillvector/internal/pipeline"
	"github.com/skillvector/skillvector/internal/quota"
	"github.com/skillvector/skillvector/internal/retrieval"
	"github.com/skillvector/skillvector/internal/skills"
	"github.com/skillvector/skillvector/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the skillvector server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		mcpStdio, _ := cmd.Flags().GetBool("mcp")
		return runServer(mcpStdio)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running skillvector server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show skillvector system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func init() {
	startCmd.Flags().Bool("mcp", false, "also serve MCP over stdio")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "skillvector.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// newEngine selects the inference backend from config.
func newEngine(ctx context.Context, cfg config.Config) (engine.Engine, error) {
	switch cfg.Engine.Backend {
	case config.EngineGemini:
		return engine.NewGemini(ctx, cfg.Engine.GeminiAPIKey)
	default:
		return engine.NewOllama(cfg.Engine.OllamaBaseURL), nil
	}
}

func runServer(mcpStdio bool) error {
	fmt.Fprintf(os.Stderr, "skillvector version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if cfg.Auth.APIToken == "" {
		printWarning("SKILLVECTOR_API_TOKEN is not set: pro tier and admin endpoints are disabled")
	}

	// Refuse to start a second instance on the same port.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("skillvector is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("skillvector is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := newEngine(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing %s engine: %w", cfg.Engine.Backend, err)
	}
	if !eng.IsRunning(ctx) {
		// Degrade, don't fail: the gate and history endpoints still work,
		// and /analyze reports 503 until the engine comes back.
		printWarning("inference engine (%s) is not reachable; analysis will be unavailable", cfg.Engine.Backend)
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Seed the skill graph on first run.
	if _, err := store.Graph(ctx); errors.Is(err, storage.ErrGraphEmpty) {
		if seedErr := store.SeedGraph(ctx, skills.Catalog(), skills.CatalogEdges()); seedErr != nil {
			return fmt.Errorf("seeding skill graph: %w", seedErr)
		}
		slog.Info("seeded skill graph", "skills", len(skills.Catalog()), "edges", len(skills.CatalogEdges()))
	} else if err != nil {
		return fmt.Errorf("loading skill graph: %w", err)
	}

	// Assemble the analysis pipeline.
	embedder := retrieval.NewEmbedder(eng, cfg.Engine.EmbedModel)
	vectorStore := retrieval.NewSQLiteStore(store.DB())
	retriever := retrieval.NewRetriever(embedder, vectorStore)
	scorer := match.NewScorer(embedder)
	detector := gap.NewDetector(eng, cfg.Engine.ChatModel)
	generator := evidence.NewGenerator(eng, cfg.Engine.ChatModel)
	planner := skills.NewPlanner(store)

	registry, err := pipeline.DefaultRegistry(scorer, retriever, detector, planner, generator, cfg.Retrieval.TopK)
	if err != nil {
		return err
	}
	mgr := metrics.NewManager()
	orch := pipeline.NewOrchestrator(registry,
		pipeline.WithStageTimeout(time.Duration(cfg.Pipeline.StageTimeoutSeconds)*time.Second),
		pipeline.WithOverallTimeout(time.Duration(cfg.Pipeline.RequestTimeoutSeconds)*time.Second),
		pipeline.WithObserver(mgr),
	)

	gate := quota.NewGate(time.Duration(cfg.Quota.WindowMinutes)*time.Minute, cfg.Quota.FreeLimit)
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Quota.WindowMinutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := gate.Prune(); n > 0 {
					slog.Debug("pruned elapsed quota windows", "count", n)
				}
			}
		}
	}()

	handler := api.NewHandler(api.Deps{
		Store:    store,
		Gate:     gate,
		Analyzer: orch,
		Engine:   eng,
		Metrics:  mgr,
		Token:    cfg.Auth.APIToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Background worker embeds seeded postings.
	worker := ingest.NewWorker(store, embedder, vectorStore, 500*time.Millisecond,
		ingest.WithObserver(mgr.RecordEmbedJob))
	go worker.Run(ctx)

	if mcpStdio {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Analyzer: orch, Planner: planner})
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "skillvector listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("skillvector is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop skillvector (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to skillvector (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	serverRunning := false
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		defer resp.Body.Close()
		if resp.StatusCode == 200 {
			serverRunning = true
			var health struct {
				Status        string `json:"status"`
				EngineRunning bool   `json:"engine_running"`
			}
			if json.NewDecoder(resp.Body).Decode(&health) == nil {
				printStatus("Server", "running on port %d (%s)", cfg.Server.Port, health.Status)
			} else {
				printStatus("Server", "running on port %d", cfg.Server.Port)
			}
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if cfg.Engine.Backend == config.EngineOllama {
		ollamaResp, err := client.Get(cfg.Engine.OllamaBaseURL + "/api/version")
		if err != nil {
			printStatus("Ollama", "not running")
		} else {
			ollamaResp.Body.Close()
			printStatus("Ollama", "running at %s", cfg.Engine.OllamaBaseURL)
		}
	} else {
		printStatus("Engine", "%s", cfg.Engine.Backend)
	}

	printStatus("Chat model", "%s", cfg.Engine.ChatModel)
	printStatus("Embed model", "%s", cfg.Engine.EmbedModel)
	printStatus("Free quota", "%d analyses per %d min", cfg.Quota.FreeLimit, cfg.Quota.WindowMinutes)

	if serverRunning {
		quotaResp, err := client.Get(serverURL + "/quota")
		if err == nil {
			var q struct {
				Tier      string `json:"tier"`
				Remaining int    `json:"remaining"`
			}
			if json.NewDecoder(quotaResp.Body).Decode(&q) == nil {
				printStatus("Remaining", "%d (%s tier)", q.Remaining, q.Tier)
			}
			quotaResp.Body.Close()
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
