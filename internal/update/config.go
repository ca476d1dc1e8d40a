package update

import (
	"os"
	"path/filepath"
	"strings"
)

type RuntimeConfig struct {
	DBPath   string
	BlobDir  string
	DarkMode bool
}

func DefaultRuntimeConfig() RuntimeConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return RuntimeConfig{
		DBPath:   filepath.Join(home, ".markplan", "markplan.db"),
		BlobDir:  filepath.Join(home, ".markplan", "blobs"),
		DarkMode: true,
	}
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("MARKPLAN_DB_PATH")); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("MARKPLAN_BLOB_DIR")); v != "" {
		cfg.BlobDir = v
	}
	if v, ok := getEnvBool("MARKPLAN_DARK_MODE"); ok {
		cfg.DarkMode = v
	}
	return cfg
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
