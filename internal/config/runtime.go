package config

import (
	"os"
	"path/filepath"
)

// GetRuntimePath is usable before the config is parsed, e.g. to locate .env.
func GetRuntimePath() string {
	return resolveRuntimePath(os.Getenv("MEDICHAT_RUNTIME_PATH"))
}

func resolveRuntimePath(path string) string {
	if path == "" {
		path = ".medichat"
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}
