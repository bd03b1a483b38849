package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "STORAGE", "ACCESS_TOKEN_TTL", "ENVIRONMENT", "MAX_UPLOAD_BYTES"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.Storage != "postgres" {
		t.Errorf("Storage = %q, want postgres", cfg.Storage)
	}
	if cfg.AccessTokenTTL != 2*time.Hour {
		t.Errorf("AccessTokenTTL = %v, want 2h", cfg.AccessTokenTTL)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if !cfg.IsDevelopment() {
		t.Error("default environment should be development")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("STORAGE", "MEMORY")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := Load()
	if cfg.HTTPPort != 9000 || cfg.Storage != "memory" || cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction = false")
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("SlogLevel = %v, want warn", cfg.SlogLevel())
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "eighty")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	t.Setenv("HERITAGE_RATE", "-3")
	t.Setenv("HERITAGECTL_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))

	cfg := Load()
	if cfg.HTTPPort != 8080 || cfg.AccessTokenTTL != 2*time.Hour {
		t.Fatalf("malformed values should fall back to defaults: %+v", cfg)
	}
	cli, err := LoadCLI()
	if err != nil {
		t.Fatal(err)
	}
	if cli.RatePerSecond != 5 {
		t.Errorf("RatePerSecond = %v, want 5", cli.RatePerSecond)
	}
}

func TestCLISaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Setenv("HERITAGECTL_CONFIG", path)
	t.Setenv("HERITAGE_SERVER", "")
	t.Setenv("HERITAGE_TOKEN", "")

	cli, err := LoadCLI()
	if err != nil {
		t.Fatal(err)
	}
	if cli.Server != "http://localhost:8080" || cli.IsAuthenticated() {
		t.Fatalf("defaults = %+v", cli)
	}

	cli.Server = "http://culture.dz:8080"
	cli.Token = "tok"
	cli.Email = "admin@culture.dz"
	if err := cli.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	again, err := LoadCLI()
	if err != nil {
		t.Fatal(err)
	}
	if again.Server != "http://culture.dz:8080" || again.Token != "tok" || again.Email != "admin@culture.dz" {
		t.Errorf("reloaded = %+v", again)
	}

	t.Setenv("HERITAGE_TOKEN", "from-env")
	again, err = LoadCLI()
	if err != nil {
		t.Fatal(err)
	}
	if again.Token != "from-env" {
		t.Errorf("Token = %q, want env override", again.Token)
	}
}

func TestLoadCLIRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HERITAGECTL_CONFIG", path)

	if _, err := LoadCLI(); err == nil {
		t.Error("expected a parse error")
	}
}
