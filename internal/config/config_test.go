package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Imports.MaxAttempts != 30 {
		t.Errorf("MaxAttempts = %d, want 30", cfg.Imports.MaxAttempts)
	}
	if cfg.Imports.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.Imports.PollInterval)
	}
	if cfg.Scoring.RecencyYears != 5 {
		t.Errorf("RecencyYears = %d, want 5", cfg.Scoring.RecencyYears)
	}
	if got := cfg.Documents.LengthTiers["short"]; got != 2 {
		t.Errorf("short tier = %d, want 2", got)
	}
	if cfg.Imports.CleanupInterval != time.Hour {
		t.Errorf("CleanupInterval = %v, want 1h", cfg.Imports.CleanupInterval)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
imports:
  max_attempts: 20
  poll_interval: 3s
  extraction_url: ${TEST_EXTRACTION_URL}
documents:
  length_tiers:
    short: 1
    medium: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TEST_EXTRACTION_URL", "http://extractor.internal")
	t.Setenv("IMPORT_MAX_ATTEMPTS", "25")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Imports.ExtractionURL != "http://extractor.internal" {
		t.Errorf("ExtractionURL = %q", cfg.Imports.ExtractionURL)
	}
	if cfg.Imports.MaxAttempts != 25 {
		t.Errorf("MaxAttempts = %d, env override should win", cfg.Imports.MaxAttempts)
	}
	if cfg.Imports.PollInterval != 3*time.Second {
		t.Errorf("PollInterval = %v, want 3s", cfg.Imports.PollInterval)
	}
	if cfg.Documents.LengthTiers["short"] != 1 || cfg.Documents.LengthTiers["medium"] != 2 {
		t.Errorf("LengthTiers = %v", cfg.Documents.LengthTiers)
	}
}

func TestExpandEnvVarsKeepsUnknown(t *testing.T) {
	t.Setenv("KNOWN_VAR", "value")

	got := expandEnvVars("a=${KNOWN_VAR} b=${SURELY_UNSET_VAR} c=$KNOWN_VAR")
	want := "a=value b=${SURELY_UNSET_VAR} c=value"
	if got != want {
		t.Errorf("expandEnvVars = %q, want %q", got, want)
	}
}

func TestSpacesEnabled(t *testing.T) {
	cfg := Default()
	if cfg.SpacesEnabled() {
		t.Fatal("spaces should be disabled without credentials")
	}
	cfg.DigitalOcean.Spaces.AccessKeyID = "id"
	cfg.DigitalOcean.Spaces.AccessKeySecret = "secret"
	cfg.DigitalOcean.Spaces.BucketName = "bucket"
	if !cfg.SpacesEnabled() {
		t.Fatal("spaces should be enabled with credentials")
	}
}

func TestAuthFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AUTH_REQUIRED", "true")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Auth.JWTSecret != "s3cret" || !cfg.Auth.Required {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
}

func TestExtractionTokenFromEnv(t *testing.T) {
	t.Setenv("EXTRACTION_SERVICE_TOKEN", "svc-tok")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Imports.ExtractionToken != "svc-tok" {
		t.Errorf("ExtractionToken = %q", cfg.Imports.ExtractionToken)
	}
}
