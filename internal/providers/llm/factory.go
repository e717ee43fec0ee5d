package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/pkg/log"
)

// NewProvider creates the Generator selected by the configuration.
func NewProvider(ctx context.Context, cfg core.ProviderConfig) (core.Generator, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Str("model", cfg.GetModel()).
		Msg("starting llm provider")

	params := Params{
		Model:       cfg.GetModel(),
		Temperature: cfg.GetTemperature(),
		MaxTokens:   cfg.GetMaxTokens(),
	}

	switch cfg.GetProvider() {
	case "openai":
		return NewOpenAI(cfg.GetBaseURL(), cfg.GetAPIKey(), params), nil
	case "anthropic":
		return NewAnthropic(cfg.GetBaseURL(), cfg.GetAPIKey(), params), nil
	case "openrouter":
		return NewOpenRouter(cfg.GetBaseURL(), cfg.GetAPIKey(), params), nil
	case "ollama":
		return NewOllama(cfg.GetBaseURL(), cfg.GetAPIKey(), params), nil
	case "custom":
		return NewCustomOpenAI(cfg.GetBaseURL(), cfg.GetAPIKey(), params)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
}
