package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/medichat/pkg/log"
)

type EmbeddingConfig struct {
	// local (feature hashing, no network) or openai
	Provider   string `env:"MEDICHAT_EMBEDDING_PROVIDER" envDefault:"local"`
	Model      string `env:"MEDICHAT_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	Dimensions int    `env:"MEDICHAT_EMBEDDING_DIMENSIONS" envDefault:"0"`
	APIKey     string `env:"MEDICHAT_EMBEDDING_API_KEY" mask:"true"`
	BaseURL    string `env:"MEDICHAT_EMBEDDING_BASE_URL"`
	BatchSize  int    `env:"MEDICHAT_EMBEDDING_BATCH_SIZE" envDefault:"64"`
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	c := &EmbeddingConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Embedding config")
	}
	return c
}

func (c EmbeddingConfig) GetEmbeddingProvider() string {
	return c.Provider
}

func (c EmbeddingConfig) GetEmbeddingModel() string {
	return c.Model
}

func (c EmbeddingConfig) GetEmbeddingDimensions() int {
	return c.Dimensions
}
