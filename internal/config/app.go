package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/medichat/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"MEDICHAT_RUNTIME_PATH" envDefault:".medichat"`

	// Retrieval and conversation knobs
	TopK            int `env:"MEDICHAT_TOP_K" envDefault:"5"`
	MaxHistory      int `env:"MEDICHAT_MAX_HISTORY" envDefault:"20"`
	ContextMessages int `env:"MEDICHAT_CONTEXT_MESSAGES" envDefault:"0"`

	// Ingestion
	ChunkMaxTokens     int    `env:"MEDICHAT_CHUNK_MAX_TOKENS" envDefault:"250"`
	ChunkOverlapTokens int    `env:"MEDICHAT_CHUNK_OVERLAP_TOKENS" envDefault:"50"`
	MaxUploadMB        int    `env:"MEDICHAT_MAX_UPLOAD_MB" envDefault:"20"`
	WatchDir           string `env:"MEDICHAT_WATCH_DIR"`

	// Canned response picker seed, 0 means seeded from the clock
	Seed int64 `env:"MEDICHAT_SEED" envDefault:"0"`

	PersistTranscripts bool `env:"MEDICHAT_PERSIST_TRANSCRIPTS" envDefault:"true"`

	// Transport Flags
	EnableTelegram bool   `env:"MEDICHAT_ENABLE_TELEGRAM" envDefault:"false"`
	EnableHTTP     bool   `env:"MEDICHAT_ENABLE_HTTP" envDefault:"false"`
	HTTPAddr       string `env:"MEDICHAT_HTTP_ADDR" envDefault:"127.0.0.1:8080"`

	// HTTP clients that never send a session id would otherwise pile up
	HTTPSessionTTL time.Duration `env:"MEDICHAT_HTTP_SESSION_TTL" envDefault:"1h"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := ParseAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

// ParseAppConfig reads the environment without terminating the process.
func ParseAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c AppConfig) Validate() error {
	var errs []error
	if c.TopK <= 0 {
		errs = append(errs, fmt.Errorf("MEDICHAT_TOP_K must be positive, got %d", c.TopK))
	}
	if c.MaxHistory <= 0 {
		errs = append(errs, fmt.Errorf("MEDICHAT_MAX_HISTORY must be positive, got %d", c.MaxHistory))
	}
	if c.ContextMessages < 0 {
		errs = append(errs, fmt.Errorf("MEDICHAT_CONTEXT_MESSAGES must not be negative, got %d", c.ContextMessages))
	}
	if c.ChunkMaxTokens <= 0 || c.ChunkOverlapTokens < 0 || c.ChunkOverlapTokens >= c.ChunkMaxTokens {
		errs = append(errs, fmt.Errorf("invalid chunk sizes: max=%d overlap=%d", c.ChunkMaxTokens, c.ChunkOverlapTokens))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("MEDICHAT_MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB))
	}
	if c.HTTPSessionTTL < 0 {
		errs = append(errs, fmt.Errorf("MEDICHAT_HTTP_SESSION_TTL must not be negative, got %s", c.HTTPSessionTTL))
	}
	return errors.Join(errs...)
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "medichat.db")
}

func (c AppConfig) GetHistoryFilePath() string {
	return filepath.Join(c.RuntimePath, "input_history")
}

func (c AppConfig) GetMaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}

func (c AppConfig) IsHTTPSelected() bool {
	return c.EnableHTTP
}
