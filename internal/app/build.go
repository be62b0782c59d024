package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wen-han-chang/RAG-agent/internal/agent"
	"github.com/wen-han-chang/RAG-agent/internal/config"
	"github.com/wen-han-chang/RAG-agent/internal/httpapi"
	"github.com/wen-han-chang/RAG-agent/internal/llm"
	"github.com/wen-han-chang/RAG-agent/internal/memory"
	"github.com/wen-han-chang/RAG-agent/internal/observability"
	"github.com/wen-han-chang/RAG-agent/internal/reminder"
)

// BuildResult holds the wired service graph shared by the server and the CLI.
type BuildResult struct {
	Config   config.Config
	Agent    *agent.Agent
	API      *httpapi.Server
	Memories *memory.Store
	Metrics  *observability.Metrics

	// Cleanup should be called on shutdown to drain background work and
	// release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config, logger *log.Logger) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	var client llm.Client
	switch cfg.Provider {
	case "mock":
		client = llm.NewMock()
		logger.Info("model provider: mock")
	default:
		client = llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			ChatModel:  cfg.ChatModel,
			EmbedModel: cfg.EmbedModel,
		})
		logger.Info("model provider: openai", "chat_model", cfg.ChatModel, "embed_model", cfg.EmbedModel)
	}

	index, err := memory.NewChromemIndex(cfg.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("vector index init failed: %w", err)
	}
	memories := memory.NewStore(index, client, cfg.NamespacePrefix)

	medStore, err := reminder.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("med-state store init failed: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		_ = medStore.Close()
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	reminders := reminder.NewService(medStore, loc)

	intents := agent.DefaultIntents()
	if cfg.IntentsPath != "" {
		intents, err = agent.LoadIntents(cfg.IntentsPath)
		if err != nil {
			_ = medStore.Close()
			return nil, fmt.Errorf("load intents: %w", err)
		}
		logger.Info("intent phrase sets loaded", "path", cfg.IntentsPath)
	}

	facts := agent.NewFactExtractor(client, memories)
	chat := agent.New(client, memories, reminders, facts, intents, cfg.MemTopK, cfg.HistoryMaxTurns, logger, metrics)

	api := httpapi.New(cfg, chat, memories, metrics, logger)

	cleanup := func() error {
		chat.Wait()
		return medStore.Close()
	}

	return &BuildResult{
		Config:   cfg,
		Agent:    chat,
		API:      api,
		Memories: memories,
		Metrics:  metrics,
		Cleanup:  cleanup,
	}, nil
}
