package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	EnvProvider          = "MEDICHAT_LLM_PROVIDER"
	EnvModel             = "MEDICHAT_LLM_MODEL"
	EnvAPIKey            = "MEDICHAT_LLM_API_KEY"
	EnvBaseURL           = "MEDICHAT_LLM_BASE_URL"
	EnvEmbeddingProvider = "MEDICHAT_EMBEDDING_PROVIDER"
	EnvEmbeddingAPIKey   = "MEDICHAT_EMBEDDING_API_KEY"
	EnvEnableTelegram    = "MEDICHAT_ENABLE_TELEGRAM"
	EnvEnableHTTP        = "MEDICHAT_ENABLE_HTTP"
	EnvTelegramToken     = "MEDICHAT_TELEGRAM_TOKEN"
	EnvTelegramOwnerID   = "MEDICHAT_TELEGRAM_OWNER_ID"
	EnvWatchDir          = "MEDICHAT_WATCH_DIR"
	EnvDebug             = "MEDICHAT_DEBUG"

	// wizard-only, never written
	keyChannel = "channel"
)

type InstallState struct {
	EnvVars map[string]string
	// RuntimePath receives .env and the documents directory.
	RuntimePath string
}

func NewInstallState(runtimePath string) *InstallState {
	return &InstallState{
		EnvVars:     make(map[string]string),
		RuntimePath: runtimePath,
	}
}

func (s *InstallState) Provider() string {
	return strings.ToLower(s.EnvVars[EnvProvider])
}

// Render formats the collected variables as a sorted .env file.
func (s *InstallState) Render() string {
	keys := make([]string, 0, len(s.EnvVars))
	for k := range s.EnvVars {
		if strings.HasPrefix(k, "MEDICHAT_") {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, quote(s.EnvVars[k]))
	}
	return b.String()
}

// WriteEnv refuses to overwrite an existing .env.
func (s *InstallState) WriteEnv() (string, error) {
	if err := os.MkdirAll(s.RuntimePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create runtime directory: %w", err)
	}

	envPath := filepath.Join(s.RuntimePath, ".env")
	if _, err := os.Stat(envPath); err == nil {
		return "", fmt.Errorf(".env file already exists at %s", envPath)
	}

	if err := os.WriteFile(envPath, []byte(s.Render()), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", envPath, err)
	}
	return envPath, nil
}

func quote(v string) string {
	if strings.ContainsAny(v, " #\"'") {
		return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return v
}
