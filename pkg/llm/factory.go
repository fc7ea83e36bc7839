package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// Config holds configuration for creating a provider.
type Config struct {
	Provider string // "openai" or "anthropic"
	Endpoint string // Base URL override; empty means the provider default
	Model    string
	APIKey   string
}

// NewProvider creates the provider named in cfg.Provider.
func NewProvider(cfg *Config, logger *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIProvider(cfg, logger)
	case "anthropic":
		return NewAnthropicProvider(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
