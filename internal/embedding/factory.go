package embedding

import (
	"fmt"
	"time"
)

// ProviderType selects the embedding provider implementation.
type ProviderType string

const (
	// ProviderMock is the deterministic offline embedder.
	ProviderMock ProviderType = "mock"
	// ProviderOpenAI is an OpenAI-compatible embeddings API.
	ProviderOpenAI ProviderType = "openai"
)

// FactoryConfig selects and configures the embedding provider.
type FactoryConfig struct {
	Type       string
	Dimensions int
	CacheSize  int
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Timeout    time.Duration
}

// NewEmbedder creates the configured embedder wrapped in an LRU cache.
// Supported types: "mock" (default), "openai".
func NewEmbedder(cfg FactoryConfig) (Embedder, error) {
	var inner Embedder
	switch ProviderType(cfg.Type) {
	case ProviderMock, "":
		inner = NewMockEmbedder(cfg.Dimensions)
	case ProviderOpenAI:
		client, err := NewOpenAIEmbedder(OpenAIConfig{
			BaseURL:    cfg.BaseURL,
			APIKeyEnv:  cfg.APIKeyEnv,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		inner = client
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: mock, openai)", cfg.Type)
	}
	return NewCachingEmbedder(inner, cfg.CacheSize), nil
}
