package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"roastreel/internal/config"
)

func TestDefaultValidatesWithAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.APIKey = "test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected missing api key error")
	}
	if !strings.Contains(err.Error(), "gemini.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsNonPositiveSceneCount(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.APIKey = "test"
	cfg.Gemini.SceneCount = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected scene_count error")
	}
}

func TestValidateRejectsTimeoutBelowPollInterval(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.APIKey = "test"
	cfg.Workflow.VideoStageTimeout = cfg.Gemini.VideoPollInterval
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected stage timeout error")
	}
}

func TestLoadParsesFileAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
store_dir = "` + filepath.Join(dir, "media") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[gemini]
api_key = "file-key"
scene_count = 3
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Gemini.APIKey != "file-key" {
		t.Fatalf("api key = %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.SceneCount != 3 {
		t.Fatalf("scene count = %d", cfg.Gemini.SceneCount)
	}
	if !filepath.IsAbs(cfg.Paths.StoreDir) {
		t.Fatalf("store dir not absolute: %q", cfg.Paths.StoreDir)
	}
	// Unset sections keep defaults.
	if cfg.Gemini.VideoPollInterval != 15 {
		t.Fatalf("poll interval = %d, want default 15", cfg.Gemini.VideoPollInterval)
	}
}

func TestLoadFallsBackToEnvAPIKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
store_dir = "` + filepath.Join(dir, "media") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "env-key" {
		t.Fatalf("api key = %q, want env fallback", cfg.Gemini.APIKey)
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[gemini]") {
		t.Fatal("sample missing gemini section")
	}
}
