package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-wins:5432/photoshare")
	t.Setenv("AI_API_KEY", "sk-env")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "8080"
logLevel: "info"
databaseURL: "postgres://from-file:5432/photoshare"
tokenSecret: "secret"
redisAddr: "localhost:6379"
aiBaseURL: "https://api.openai.com/v1"
aiModel: "gpt-4o-mini"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DatabaseURL != "postgres://env-wins:5432/photoshare" {
		t.Fatalf("databaseURL = %q, want env override", cfg.DatabaseURL)
	}
	if cfg.AIAPIKey != "sk-env" {
		t.Fatalf("aiAPIKey = %q, want env override", cfg.AIAPIKey)
	}
	if cfg.StorageDriver != "disk" {
		t.Fatalf("storageDriver = %q, want default disk", cfg.StorageDriver)
	}
	if cfg.ThumbnailWidth != 320 {
		t.Fatalf("thumbnailWidth = %d, want default 320", cfg.ThumbnailWidth)
	}
	if cfg.MaxUploadMB != 20 {
		t.Fatalf("maxUploadMB = %d, want default 20", cfg.MaxUploadMB)
	}
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "8080"
databaseURL: "postgres://localhost:5432/photoshare"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected missing tokenSecret to fail validation")
	}
}

func TestLoadRejectsUnknownStorageDriver(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "8080"
databaseURL: "postgres://localhost:5432/photoshare"
tokenSecret: "secret"
storageDriver: "tape"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected unknown storage driver to fail validation")
	}
}
