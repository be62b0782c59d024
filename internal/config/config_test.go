package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MODEL_PROVIDER", "mock")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8000" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8000")
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Fatalf("ChatModel = %q, want default", cfg.ChatModel)
	}
	if cfg.EmbedModel != "text-embedding-3-small" {
		t.Fatalf("EmbedModel = %q, want default", cfg.EmbedModel)
	}
	if cfg.NamespacePrefix != "dev" {
		t.Fatalf("NamespacePrefix = %q, want %q", cfg.NamespacePrefix, "dev")
	}
	if cfg.MemTopK != 6 {
		t.Fatalf("MemTopK = %d, want 6", cfg.MemTopK)
	}
	if cfg.HistoryMaxTurns != 10 {
		t.Fatalf("HistoryMaxTurns = %d, want 10", cfg.HistoryMaxTurns)
	}
}

func TestLoadRequiresAPIKeyForOpenAI(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MODEL_PROVIDER", "openai")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() with openai provider and no key should fail")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MODEL_PROVIDER", "llamacpp")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() with unknown provider should fail")
	}
}

func TestLoadRejectsNonPositiveTopK(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MODEL_PROVIDER", "mock")
	t.Setenv("MEM_TOP_K", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() with MEM_TOP_K=0 should fail")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MODEL_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("MEM_TOP_K", "4")
	t.Setenv("MEMORY_NAMESPACE_PREFIX", "mem_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.MemTopK != 4 {
		t.Fatalf("MemTopK = %d, want 4", cfg.MemTopK)
	}
	if cfg.NamespacePrefix != "mem_test" {
		t.Fatalf("NamespacePrefix = %q, want %q", cfg.NamespacePrefix, "mem_test")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"MODEL_PROVIDER",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"CHAT_MODEL",
		"EMBED_MODEL",
		"MEMORY_NAMESPACE_PREFIX",
		"MEMORY_PATH",
		"DATABASE_URL",
		"MEM_TOP_K",
		"HISTORY_MAX_TURNS",
		"INTENTS_PATH",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}
