package llm

import (
	"context"

	"github.com/pkg/errors"
)

const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderGateway = "gateway"
)

type Config struct {
	Provider   string `mapstructure:"provider" yaml:"provider"`
	Model      string `mapstructure:"model" yaml:"model"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	GatewayURL string `mapstructure:"gateway_url" yaml:"gateway_url"`
}

// New builds the client for cfg.Provider.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case ProviderGemini:
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderGateway:
		return NewGatewayClient(cfg.GatewayURL, cfg.APIKey, cfg.Model), nil
	}
	return nil, errors.Errorf("unknown llm provider %q", cfg.Provider)
}
