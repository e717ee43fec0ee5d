package rag

import (
	"context"
	"fmt"

	"github.com/sandevgo/medichat/internal/config"
	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/pkg/log"
)

// NewEmbedder creates the embedder selected by the configuration.
func NewEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (core.Embedder, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting embedder")

	switch cfg.Provider {
	case "local", "":
		return NewHashingEmbedder(cfg.Dimensions), nil
	case "openai":
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai embedder requires an api key or a base url")
		}
		return NewOpenAIEmbedder(OpenAIEmbedderConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
