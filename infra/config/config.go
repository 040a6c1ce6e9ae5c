package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds application-level configuration.
type Config struct {
	ProjectURL        string  `yaml:"project_url"`         // e.g. "https://abc.supabase.co"
	RealtimeURL       string  `yaml:"realtime_url"`        // Websocket endpoint; derived from ProjectURL when empty
	AnonKey           string  `yaml:"anon_key"`            // Project api key
	TokenPath         string  `yaml:"token_path"`          // Path to file containing the access token
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 disables client-side rate limiting
}

// Load reads configuration from an optional YAML file, then overrides from
// environment variables.
//
//	FRAMEZ_CONFIG     — Path to YAML config file (optional)
//	FRAMEZ_URL        — Project base URL (required, https)
//	FRAMEZ_ANON_KEY   — Project api key (required)
//	FRAMEZ_TOKEN      — Path to token file (default: ~/.config/framez/token)
//	FRAMEZ_RATE_LIMIT — Requests per second (default: 0, unlimited)
func Load() (Config, error) {
	var cfg Config

	if path := os.Getenv("FRAMEZ_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if v := os.Getenv("FRAMEZ_URL"); v != "" {
		cfg.ProjectURL = v
	}
	if v := os.Getenv("FRAMEZ_ANON_KEY"); v != "" {
		cfg.AnonKey = v
	}
	if v := os.Getenv("FRAMEZ_TOKEN"); v != "" {
		cfg.TokenPath = v
	}
	if v := os.Getenv("FRAMEZ_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FRAMEZ_RATE_LIMIT: %w", err)
		}
		cfg.RequestsPerSecond = rps
	}

	if cfg.ProjectURL == "" {
		return Config{}, fmt.Errorf("FRAMEZ_URL is required")
	}
	parsed, err := url.Parse(cfg.ProjectURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, fmt.Errorf("invalid FRAMEZ_URL: must be an absolute URL")
	}
	if parsed.Scheme != "https" {
		return Config{}, fmt.Errorf("invalid FRAMEZ_URL: only https is allowed")
	}
	cfg.ProjectURL = strings.TrimRight(parsed.String(), "/")

	if cfg.AnonKey == "" {
		return Config{}, fmt.Errorf("FRAMEZ_ANON_KEY is required")
	}

	if cfg.RealtimeURL == "" {
		cfg.RealtimeURL = "wss://" + parsed.Host + "/realtime/v1/websocket"
	}

	if cfg.TokenPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfg.TokenPath = filepath.Join(home, ".config", "framez", "token")
	}

	return cfg, nil
}
