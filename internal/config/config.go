package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the companion chat service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool

	// Provider selects the model backend: openai or mock.
	Provider      string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	ChatModel     string
	EmbedModel    string

	// NamespacePrefix scopes vector-index namespaces, e.g. "dev:user:willy:mem".
	NamespacePrefix string
	// MemoryPath is the chromem persistence directory. Empty keeps the index in
	// process memory only.
	MemoryPath string

	// DatabaseURL enables the Postgres med-state store. Empty falls back to the
	// in-memory store.
	DatabaseURL string

	MemTopK         int
	HistoryMaxTurns int

	// IntentsPath optionally overrides the built-in ack/profile phrase sets
	// with a JSON file, so they can be tuned without a rebuild.
	IntentsPath string

	Timezone string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8000"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "ragagent"),
		Provider:         strings.ToLower(envOrDefault("MODEL_PROVIDER", "openai")),
		OpenAIAPIKey:     trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:    trimmedEnv("OPENAI_BASE_URL"),
		ChatModel:        envOrDefault("CHAT_MODEL", "gpt-4o-mini"),
		EmbedModel:       envOrDefault("EMBED_MODEL", "text-embedding-3-small"),
		NamespacePrefix:  envOrDefault("MEMORY_NAMESPACE_PREFIX", "dev"),
		MemoryPath:       trimmedEnv("MEMORY_PATH"),
		DatabaseURL:      trimmedEnv("DATABASE_URL"),
		IntentsPath:      trimmedEnv("INTENTS_PATH"),
		Timezone:         envOrDefault("TZ", "Asia/Taipei"),
		ShutdownTimeout:  15 * time.Second,
		MemTopK:          6,
		HistoryMaxTurns:  10,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MemTopK, err = intFromEnv("MEM_TOP_K", cfg.MemTopK)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryMaxTurns, err = intFromEnv("HISTORY_MAX_TURNS", cfg.HistoryMaxTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return Config{}, fmt.Errorf("OPENAI_API_KEY is required when MODEL_PROVIDER=openai")
		}
	case "mock":
	default:
		return Config{}, fmt.Errorf("invalid MODEL_PROVIDER: %q (expected openai|mock)", cfg.Provider)
	}

	if cfg.MemTopK <= 0 {
		return Config{}, fmt.Errorf("MEM_TOP_K must be positive")
	}
	if cfg.HistoryMaxTurns <= 0 {
		return Config{}, fmt.Errorf("HISTORY_MAX_TURNS must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
