package update

import "testing"

func TestRuntimeConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("MARKPLAN_DB_PATH", "/tmp/custom.db")
	t.Setenv("MARKPLAN_BLOB_DIR", "/tmp/blobs")
	t.Setenv("MARKPLAN_DARK_MODE", "off")

	cfg := RuntimeConfigFromEnv(DefaultRuntimeConfig())
	if cfg.DBPath != "/tmp/custom.db" {
		t.Fatalf("unexpected db path: %q", cfg.DBPath)
	}
	if cfg.BlobDir != "/tmp/blobs" {
		t.Fatalf("unexpected blob dir: %q", cfg.BlobDir)
	}
	if cfg.DarkMode {
		t.Fatal("expected dark mode off")
	}
}

func TestRuntimeConfigIgnoresInvalidBool(t *testing.T) {
	t.Setenv("MARKPLAN_DARK_MODE", "sometimes")
	cfg := RuntimeConfigFromEnv(DefaultRuntimeConfig())
	if !cfg.DarkMode {
		t.Fatal("invalid value must keep the default")
	}
}
