package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// Engine backend names accepted by engine selection.
const (
	EngineOllama = "ollama"
	EngineGemini = "gemini"
)

type Config struct {
	Server    ServerConfig
	Engine    EngineConfig
	Storage   StorageConfig
	Quota     QuotaConfig
	Retrieval RetrievalConfig
	Pipeline  PipelineConfig
	Auth      AuthConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type EngineConfig struct {
	// Backend selects the inference provider: "ollama" or "gemini".
	Backend       string
	OllamaBaseURL string
	ChatModel     string
	EmbedModel    string
	GeminiAPIKey  string
}

type StorageConfig struct {
	DataDir string
}

type QuotaConfig struct {
	WindowMinutes int
	FreeLimit     int
}

type RetrievalConfig struct {
	TopK int
}

type PipelineConfig struct {
	StageTimeoutSeconds   int
	RequestTimeoutSeconds int
}

type AuthConfig struct {
	// APIToken authenticates pro-tier callers and the seeding endpoints.
	// Empty disables the pro tier.
	APIToken string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		Engine: EngineConfig{
			Backend:       EngineOllama,
			OllamaBaseURL: "http://localhost:11434",
			ChatModel:     "mistral-nemo",
			EmbedModel:    "nomic-embed-text",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Quota: QuotaConfig{
			WindowMinutes: 60,
			FreeLimit:     3,
		},
		Retrieval: RetrievalConfig{
			TopK: 5,
		},
		Pipeline: PipelineConfig{
			StageTimeoutSeconds:   25,
			RequestTimeoutSeconds: 120,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration in ascending precedence: built-in defaults, the
// JSON file backend, then SKILLVECTOR_* environment variables. A .env file
// in the working directory is loaded first if present. Secrets (API token,
// Gemini key) come from the environment only, never the config file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Engine.Backend {
	case EngineOllama:
	case EngineGemini:
		if cfg.Engine.GeminiAPIKey == "" {
			return fmt.Errorf("engine backend %q requires SKILLVECTOR_GEMINI_API_KEY", EngineGemini)
		}
	default:
		return fmt.Errorf("unknown engine backend %q (want %q or %q)", cfg.Engine.Backend, EngineOllama, EngineGemini)
	}
	if cfg.Quota.FreeLimit < 0 {
		return fmt.Errorf("quota free limit must be >= 0, got %d", cfg.Quota.FreeLimit)
	}
	if cfg.Quota.WindowMinutes <= 0 {
		return fmt.Errorf("quota window must be positive, got %d minutes", cfg.Quota.WindowMinutes)
	}
	return nil
}
