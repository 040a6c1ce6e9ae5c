package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"FRAMEZ_CONFIG", "FRAMEZ_URL", "FRAMEZ_ANON_KEY", "FRAMEZ_TOKEN", "FRAMEZ_RATE_LIMIT"} {
		t.Setenv(k, "")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRAMEZ_URL", "https://abc.supabase.co/")
	t.Setenv("FRAMEZ_ANON_KEY", "anon")
	t.Setenv("FRAMEZ_TOKEN", "/tmp/token")
	t.Setenv("FRAMEZ_RATE_LIMIT", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ProjectURL != "https://abc.supabase.co" {
		t.Fatalf("trailing slash must be trimmed, got %q", cfg.ProjectURL)
	}
	if cfg.RealtimeURL != "wss://abc.supabase.co/realtime/v1/websocket" {
		t.Fatalf("unexpected realtime url: %q", cfg.RealtimeURL)
	}
	if cfg.TokenPath != "/tmp/token" || cfg.RequestsPerSecond != 5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	file := `project_url: https://file.supabase.co
anon_key: file-key
realtime_url: wss://custom.example.com/socket
token_path: /from/file
`
	if err := os.WriteFile(path, []byte(file), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("FRAMEZ_CONFIG", path)
	t.Setenv("FRAMEZ_ANON_KEY", "env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ProjectURL != "https://file.supabase.co" {
		t.Fatalf("file value must apply, got %q", cfg.ProjectURL)
	}
	if cfg.AnonKey != "env-key" {
		t.Fatalf("env must override file, got %q", cfg.AnonKey)
	}
	if cfg.RealtimeURL != "wss://custom.example.com/socket" {
		t.Fatalf("explicit realtime url must not be rederived, got %q", cfg.RealtimeURL)
	}
	if cfg.TokenPath != "/from/file" {
		t.Fatalf("unexpected token path: %q", cfg.TokenPath)
	}
}

func TestLoad_MissingURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRAMEZ_ANON_KEY", "anon")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing url")
	}
}

func TestLoad_RejectsNonHTTPS(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRAMEZ_ANON_KEY", "anon")

	for _, bad := range []string{"http://abc.supabase.co", "abc.supabase.co", "ftp://x"} {
		t.Setenv("FRAMEZ_URL", bad)
		if _, err := Load(); err == nil {
			t.Errorf("expected %q rejected", bad)
		}
	}
}

func TestLoad_MissingAnonKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRAMEZ_URL", "https://abc.supabase.co")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing anon key")
	}
}

func TestLoad_InvalidRateLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRAMEZ_URL", "https://abc.supabase.co")
	t.Setenv("FRAMEZ_ANON_KEY", "anon")
	t.Setenv("FRAMEZ_RATE_LIMIT", "lots")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid rate limit")
	}
}

func TestLoad_DefaultTokenPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRAMEZ_URL", "https://abc.supabase.co")
	t.Setenv("FRAMEZ_ANON_KEY", "anon")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	want := filepath.Join(os.Getenv("HOME"), ".config", "framez", "token")
	if cfg.TokenPath != want {
		t.Fatalf("unexpected default token path: %q", cfg.TokenPath)
	}
}
