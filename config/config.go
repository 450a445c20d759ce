// Package config loads client settings from the environment, an optional .env.local overlay and defaults.
package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the runtime settings of the client.
type Config struct {
	// APIURL is the root of the movie night REST API (e.g. http://localhost:8000).
	APIURL string `mapstructure:"MOVIENIGHT_API_URL"`
	// HTTPTimeout bounds every single request.
	HTTPTimeout time.Duration `mapstructure:"MOVIENIGHT_HTTP_TIMEOUT"`
	// PollInterval is the notification polling period.
	PollInterval time.Duration `mapstructure:"MOVIENIGHT_POLL_INTERVAL"`
	// RateLimit caps outgoing requests per second; burst equals the limit.
	RateLimit float64 `mapstructure:"MOVIENIGHT_RATE_LIMIT"`
	LogLevel  string  `mapstructure:"MOVIENIGHT_LOG_LEVEL"`
	// LogFile is where logs go; empty means the user cache dir, "-" means stderr.
	LogFile        string        `mapstructure:"MOVIENIGHT_LOG_FILE"`
	SearchCacheTTL time.Duration `mapstructure:"MOVIENIGHT_SEARCH_CACHE_TTL"`
	GenreCacheTTL  time.Duration `mapstructure:"MOVIENIGHT_GENRE_CACHE_TTL"`
	// GoogleIDToken is an identity-provider token used by `login --google` when no flag is given.
	GoogleIDToken string `mapstructure:"MOVIENIGHT_GOOGLE_ID_TOKEN"`
}

// Load reads .env.local (if present), then builds and validates Config from the environment via Viper.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("MOVIENIGHT_API_URL", "http://localhost:8000")
	v.SetDefault("MOVIENIGHT_HTTP_TIMEOUT", "12s")
	v.SetDefault("MOVIENIGHT_POLL_INTERVAL", "30s")
	v.SetDefault("MOVIENIGHT_RATE_LIMIT", 5)
	v.SetDefault("MOVIENIGHT_LOG_LEVEL", "info")
	v.SetDefault("MOVIENIGHT_LOG_FILE", "")
	v.SetDefault("MOVIENIGHT_SEARCH_CACHE_TTL", "12h")
	v.SetDefault("MOVIENIGHT_GENRE_CACHE_TTL", "24h")
	v.SetDefault("MOVIENIGHT_GOOGLE_ID_TOKEN", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.New("config: MOVIENIGHT_API_URL must be an absolute http(s) URL")
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, errors.New("config: MOVIENIGHT_HTTP_TIMEOUT must be positive")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("config: MOVIENIGHT_POLL_INTERVAL must be positive")
	}
	if cfg.RateLimit <= 0 {
		return nil, errors.New("config: MOVIENIGHT_RATE_LIMIT must be positive")
	}

	return &cfg, nil
}

// Burst returns the limiter burst derived from RateLimit (at least 1).
func (c *Config) Burst() int {
	if c == nil || c.RateLimit < 1 {
		return 1
	}
	return int(c.RateLimit)
}
