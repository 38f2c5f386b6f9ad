package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "SKILLVECTOR_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "engine.backend", typ: kString, env: "SKILLVECTOR_ENGINE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Engine.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.Backend },
	},
	{
		key: "engine.ollama_base_url", typ: kString, env: "SKILLVECTOR_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Engine.OllamaBaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.OllamaBaseURL },
	},
	{
		key: "engine.chat_model", typ: kString, env: "SKILLVECTOR_CHAT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Engine.ChatModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.ChatModel },
	},
	{
		key: "engine.embed_model", typ: kString, env: "SKILLVECTOR_EMBED_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Engine.EmbedModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.EmbedModel },
	},
	{
		key: "engine.gemini_api_key", typ: kString, env: "SKILLVECTOR_GEMINI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Engine.GeminiAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.GeminiAPIKey },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SKILLVECTOR_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "quota.window_minutes", typ: kInt, env: "SKILLVECTOR_QUOTA_WINDOW_MINUTES",
		apply:   func(cfg *Config, v any) { cfg.Quota.WindowMinutes = v.(int) },
		extract: func(cfg Config) any { return cfg.Quota.WindowMinutes },
	},
	{
		key: "quota.free_limit", typ: kInt, env: "SKILLVECTOR_QUOTA_FREE_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Quota.FreeLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Quota.FreeLimit },
	},
	{
		key: "retrieval.top_k", typ: kInt, env: "SKILLVECTOR_RETRIEVAL_TOP_K",
		apply:   func(cfg *Config, v any) { cfg.Retrieval.TopK = v.(int) },
		extract: func(cfg Config) any { return cfg.Retrieval.TopK },
	},
	{
		key: "pipeline.stage_timeout_seconds", typ: kInt, env: "SKILLVECTOR_STAGE_TIMEOUT_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.Pipeline.StageTimeoutSeconds = v.(int) },
		extract: func(cfg Config) any { return cfg.Pipeline.StageTimeoutSeconds },
	},
	{
		key: "pipeline.request_timeout_seconds", typ: kInt, env: "SKILLVECTOR_REQUEST_TIMEOUT_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.Pipeline.RequestTimeoutSeconds = v.(int) },
		extract: func(cfg Config) any { return cfg.Pipeline.RequestTimeoutSeconds },
	},
	{
		key: "auth.api_token", typ: kString, env: "SKILLVECTOR_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Auth.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Auth.APIToken },
	},
	{
		key: "log.level", typ: kString, env: "SKILLVECTOR_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
