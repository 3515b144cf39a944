package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Store.Qdrant.APIKeyEnv == "" {
		cfg.Store.Qdrant.APIKeyEnv = "QDRANT_API_KEY"
	}
	if cfg.Store.Qdrant.Collection == "" {
		cfg.Store.Qdrant.Collection = "sbomrag"
	}
	if cfg.Store.Qdrant.TimeoutSecs == 0 {
		cfg.Store.Qdrant.TimeoutSecs = 15
	}
	if cfg.Embedding.Type == "" {
		cfg.Embedding.Type = "mock"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	applyOpenAIDefaults(&cfg.Embedding.OpenAI, "text-embedding-3-small", 30)
	if cfg.Reasoning.Type == "" {
		cfg.Reasoning.Type = "none"
	}
	applyOpenAIDefaults(&cfg.Reasoning.OpenAI, "gpt-4o-mini", 60)
	if cfg.Reasoning.OpenAI.MaxRetries == 0 {
		cfg.Reasoning.OpenAI.MaxRetries = 3
	}
	if cfg.Ask.TopK == 0 {
		cfg.Ask.TopK = 5
	}
}

func applyOpenAIDefaults(cfg *OpenAIConfig, model string, timeoutSecs int) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Model == "" {
		cfg.Model = model
	}
	if cfg.TimeoutSecs == 0 {
		cfg.TimeoutSecs = timeoutSecs
	}
}
