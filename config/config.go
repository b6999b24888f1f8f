// Package config loads the assistant's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ModelConfig selects the hosted chat model.
type ModelConfig struct {
	Name      string `yaml:"name"`
	MaxTokens int64  `yaml:"max_tokens"`
}

// StoreConfig configures the vector store.
type StoreConfig struct {
	// Path is the snapshot file the store persists to. Empty keeps the
	// store in memory only.
	Path       string `yaml:"path"`
	Collection string `yaml:"collection,omitempty"`
	Compress   bool   `yaml:"compress,omitempty"`
}

// EmbedderConfig selects the embedding backend.
type EmbedderConfig struct {
	// Backend is one of "ollama", "onnx" (requires the onnx build tag),
	// or "mock".
	Backend    string `yaml:"backend"`
	Model      string `yaml:"model,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	ModelPath  string `yaml:"model_path,omitempty"`
	Tokenizer  string `yaml:"tokenizer,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`

	// Cache enables the ristretto embedding cache in front of the backend.
	Cache bool `yaml:"cache"`
}

// HistoryConfig selects the conversation-history backend.
type HistoryConfig struct {
	// Backend is "memory" or "redis".
	Backend     string `yaml:"backend"`
	RedisURL    string `yaml:"redis_url,omitempty"`
	MaxMessages int    `yaml:"max_messages,omitempty"`
}

// Config is the root configuration.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Store    StoreConfig    `yaml:"store"`
	Embedder EmbedderConfig `yaml:"embedder"`
	History  HistoryConfig  `yaml:"history"`

	// RetrievalK is how many records a fact-recall question pulls in as
	// answer context.
	RetrievalK int `yaml:"retrieval_k"`

	// TurnTimeoutSeconds bounds one full user turn, model calls included.
	TurnTimeoutSeconds int `yaml:"turn_timeout_seconds"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Name:      "claude-sonnet-4-20250514",
			MaxTokens: 2048,
		},
		Store: StoreConfig{
			Path: "recall-store.gob",
		},
		Embedder: EmbedderConfig{
			Backend: "ollama",
			Model:   "nomic-embed-text",
			Cache:   true,
		},
		History: HistoryConfig{
			Backend: "memory",
		},
		RetrievalK:         3,
		TurnTimeoutSeconds: 30,
	}
}

// Load reads the YAML file at path, falling back to Default when the file
// does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.RetrievalK <= 0 {
		cfg.RetrievalK = 3
	}
	if cfg.TurnTimeoutSeconds <= 0 {
		cfg.TurnTimeoutSeconds = 30
	}
	return cfg, nil
}

// TurnTimeout returns the per-turn deadline as a duration.
func (c *Config) TurnTimeout() time.Duration {
	return time.Duration(c.TurnTimeoutSeconds) * time.Second
}
