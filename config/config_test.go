package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MOVIENIGHT_API_URL",
		"MOVIENIGHT_HTTP_TIMEOUT",
		"MOVIENIGHT_POLL_INTERVAL",
		"MOVIENIGHT_RATE_LIMIT",
		"MOVIENIGHT_LOG_LEVEL",
		"MOVIENIGHT_LOG_FILE",
		"MOVIENIGHT_SEARCH_CACHE_TTL",
		"MOVIENIGHT_GENRE_CACHE_TTL",
		"MOVIENIGHT_GOOGLE_ID_TOKEN",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://localhost:8000" {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, "http://localhost:8000")
	}
	if cfg.HTTPTimeout != 12*time.Second {
		t.Errorf("HTTPTimeout = %v, want 12s", cfg.HTTPTimeout)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if cfg.RateLimit != 5 {
		t.Errorf("RateLimit = %v, want 5", cfg.RateLimit)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Burst() != 5 {
		t.Errorf("Burst = %d, want 5", cfg.Burst())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOVIENIGHT_API_URL", "https://api.example.com/")
	t.Setenv("MOVIENIGHT_POLL_INTERVAL", "5s")
	t.Setenv("MOVIENIGHT_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://api.example.com" {
		t.Errorf("APIURL = %q, want trailing slash trimmed", cfg.APIURL)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_InvalidAPIURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOVIENIGHT_API_URL", "not a url")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid api url")
	}
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOVIENIGHT_POLL_INTERVAL", "-1s")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative poll interval")
	}
}
