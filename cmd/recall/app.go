package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/becomeliminal/recall-go-sdk/config"
	"github.com/becomeliminal/recall-go-sdk/engine"
	"github.com/becomeliminal/recall-go-sdk/history"
	"github.com/becomeliminal/recall-go-sdk/llm"
	"github.com/becomeliminal/recall-go-sdk/memory"
	"github.com/becomeliminal/recall-go-sdk/memory/embedder/cache"
	"github.com/becomeliminal/recall-go-sdk/memory/embedder/mock"
	"github.com/becomeliminal/recall-go-sdk/memory/embedder/ollama"
	"github.com/becomeliminal/recall-go-sdk/memory/store/chromem"
)

// loadConfig reads the config path off the command's persistent flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// buildEngine wires the full assistant from config: Anthropic client,
// embedder (optionally cached), chromem store, history backend, engine.
// The returned cleanup releases everything in reverse order.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, func(), error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
	}

	anthropicClient := anthropic.NewClient(option.WithAPIKey(apiKey))
	model := llm.NewAnthropicClient(&anthropicClient,
		llm.WithModel(cfg.Model.Name),
		llm.WithMaxTokens(cfg.Model.MaxTokens),
	)

	embedder, closeEmbedder, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Embedder.Cache {
		cached, err := cache.New(embedder, 0)
		if err != nil {
			closeEmbedder()
			return nil, nil, err
		}
		embedder = cached
		inner := closeEmbedder
		closeEmbedder = func() {
			cached.Close()
			inner()
		}
	}

	store, err := chromem.New(chromem.Config{
		Path:       cfg.Store.Path,
		Collection: cfg.Store.Collection,
		Compress:   cfg.Store.Compress,
	}, embedder)
	if err != nil {
		closeEmbedder()
		return nil, nil, fmt.Errorf("open memory store: %w", err)
	}

	hist, err := newHistory(ctx, cfg.History)
	if err != nil {
		closeEmbedder()
		return nil, nil, err
	}

	eng := engine.New(model, store,
		engine.WithHistory(hist),
		engine.WithRetrievalK(cfg.RetrievalK),
		engine.WithTurnTimeout(cfg.TurnTimeout()),
	)

	cleanup := func() {
		if err := hist.Close(); err != nil {
			log.Printf("close history: %v", err)
		}
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
		closeEmbedder()
	}
	return eng, cleanup, nil
}

func newEmbedder(cfg config.EmbedderConfig) (memory.Embedder, func(), error) {
	switch cfg.Backend {
	case "", "ollama":
		return ollama.New(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), func() {}, nil
	case "mock":
		return mock.New(), func() {}, nil
	case "onnx":
		return newONNXEmbedder(cfg)
	}
	return nil, nil, fmt.Errorf("unknown embedder backend %q", cfg.Backend)
}

func newHistory(ctx context.Context, cfg config.HistoryConfig) (history.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return history.NewMemoryStore(cfg.MaxMessages), nil
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("history backend redis requires redis_url")
		}
		return history.NewRedisStore(ctx, cfg.RedisURL, cfg.MaxMessages, 0)
	}
	return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
}
