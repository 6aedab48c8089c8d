package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	loader := NewLoader().WithDotEnv(false).WithPath("")
	chdir(t, t.TempDir())

	result, err := loader.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if result.Config.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", result.Config.Server.Port)
	}
	if result.Config.Providers.TokenSafetySecs != 60 {
		t.Errorf("expected default token safety 60, got %d", result.Config.Providers.TokenSafetySecs)
	}
	if result.Path != "" {
		t.Errorf("expected empty path for default config, got %q", result.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  ip: 127.0.0.1
  port: 9090
security:
  encryption_key: "0123456789abcdef"
telemetry:
  workers: 2
  queue_size: 50
providers:
  http_timeout: 5s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	result, err := NewLoader().WithDotEnv(false).WithPath(path).Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	cfg := result.Config
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Security.EncryptionKey != "0123456789abcdef" {
		t.Errorf("unexpected encryption key: %q", cfg.Security.EncryptionKey)
	}
	if cfg.Telemetry.Workers != 2 || cfg.Telemetry.QueueSize != 50 {
		t.Errorf("telemetry overrides not applied: %+v", cfg.Telemetry)
	}
	if cfg.Providers.HTTPTimeout != 5*time.Second {
		t.Errorf("expected 5s http timeout, got %v", cfg.Providers.HTTPTimeout)
	}
	// 未覆盖的字段保持默认值
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level, got %q", cfg.Log.Level)
	}
}

func TestLoadRejectsBadEncryptionKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("security:\n  encryption_key: short\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := NewLoader().WithDotEnv(false).WithPath(path).Load(); err == nil {
		t.Fatal("expected error for invalid key length")
	}
}

func TestLoadEnvEncryptionKeyOverride(t *testing.T) {
	t.Setenv(envEncryptionKey, "abcdefghijklmnopqrstuvwxyz012345")
	chdir(t, t.TempDir())

	result, err := NewLoader().WithDotEnv(false).Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(result.Config.Security.EncryptionKey) != 32 {
		t.Errorf("env override not applied: %q", result.Config.Security.EncryptionKey)
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
