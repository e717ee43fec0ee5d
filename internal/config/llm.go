package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/medichat/pkg/log"
)

var knownProviders = []string{"openai", "openrouter", "ollama", "anthropic", "custom"}

type LLMConfig struct {
	Provider    string        `env:"MEDICHAT_LLM_PROVIDER" envDefault:"openai"`
	Model       string        `env:"MEDICHAT_LLM_MODEL" envDefault:"gpt-3.5-turbo"`
	APIKey      string        `env:"MEDICHAT_LLM_API_KEY" mask:"true"`
	BaseURL     string        `env:"MEDICHAT_LLM_BASE_URL"`
	Temperature float32       `env:"MEDICHAT_LLM_TEMPERATURE" envDefault:"0.3"`
	MaxTokens   int           `env:"MEDICHAT_LLM_MAX_TOKENS" envDefault:"1024"`
	Timeout     time.Duration `env:"MEDICHAT_LLM_TIMEOUT" envDefault:"60s"`

	mu sync.RWMutex
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	c.Provider = strings.ToLower(c.Provider)
	if !isKnownProvider(c.Provider) {
		log.FromCtx(ctx).Fatal().Str("provider", c.Provider).Msg("unknown llm provider")
	}
	return c
}

func isKnownProvider(p string) bool {
	for _, k := range knownProviders {
		if k == p {
			return true
		}
	}
	return false
}

func (c *LLMConfig) GetModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Model
}

func (c *LLMConfig) SetModel(model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("model name is empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Model = model
	return nil
}

func (c *LLMConfig) GetProvider() string {
	return c.Provider
}

func (c *LLMConfig) GetAPIKey() string {
	return c.APIKey
}

func (c *LLMConfig) GetBaseURL() string {
	return c.BaseURL
}

func (c *LLMConfig) GetTemperature() float32 {
	return c.Temperature
}

func (c *LLMConfig) GetMaxTokens() int {
	return c.MaxTokens
}

func (c *LLMConfig) GetTimeout() time.Duration {
	return c.Timeout
}
