package reasoning

import (
	"fmt"
	"time"
)

// ProviderType selects the reasoning provider implementation.
type ProviderType string

const (
	// ProviderNone disables external reasoning; the engine's deterministic
	// fallback becomes the sole answer path.
	ProviderNone ProviderType = "none"
	// ProviderOpenAI is an OpenAI-compatible chat-completions API.
	ProviderOpenAI ProviderType = "openai"
)

// FactoryConfig selects and configures the reasoning provider.
type FactoryConfig struct {
	Type       string
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// NewProvider creates the configured provider. A nil Provider (type "none")
// is valid and means no external reasoning is attempted.
func NewProvider(cfg FactoryConfig) (Provider, error) {
	switch ProviderType(cfg.Type) {
	case ProviderNone, "":
		return nil, nil
	case ProviderOpenAI:
		return NewOpenAIProvider(OpenAIConfig{
			BaseURL:    cfg.BaseURL,
			APIKeyEnv:  cfg.APIKeyEnv,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("unknown reasoning provider: %s (supported: none, openai)", cfg.Type)
	}
}
