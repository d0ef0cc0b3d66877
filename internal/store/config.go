package store

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		BaseURL         string  `yaml:"base_url"`
		TimeoutSeconds  int     `yaml:"timeout_seconds"`
		RetryCount      int     `yaml:"retry_count"`
		RetryWaitMillis int     `yaml:"retry_wait_ms"`
		RateLimitRPS    float64 `yaml:"rate_limit_rps"`
		RateLimitBurst  int     `yaml:"rate_limit_burst"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
		Logging         bool    `yaml:"logging"`
		// Headers are sent with every backend request, e.g. an API key.
		Headers map[string]string `yaml:"headers"`
	} `yaml:"api"`
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		ReleaseMode    bool     `yaml:"release_mode"`
	} `yaml:"server"`
	Viewer struct {
		PageSize int `yaml:"page_size"`
	} `yaml:"viewer"`
	Downloads struct {
		JournalDir    string `yaml:"journal_dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"downloads"`
}

// Default returns a configuration usable without a config file.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:3000"
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = 30
	}
	if c.API.RetryWaitMillis == 0 {
		c.API.RetryWaitMillis = 500
	}
	if c.API.RateLimitRPS == 0 {
		c.API.RateLimitRPS = 10
	}
	if c.API.RateLimitBurst == 0 {
		c.API.RateLimitBurst = 5
	}
	if c.API.CacheTTLSeconds == 0 {
		c.API.CacheTTLSeconds = 300
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Viewer.PageSize == 0 {
		c.Viewer.PageSize = 15
	}
	if c.Downloads.JournalDir == "" {
		c.Downloads.JournalDir = "logs/downloads"
	}
}

// applyEnv lets deployment-specific values override the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("NSE_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("NSEDASH_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url '%s': must be an absolute URL", c.API.BaseURL)
	}
	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("api.timeout_seconds must be positive, got %d", c.API.TimeoutSeconds)
	}
	if c.API.RetryCount < 0 || c.API.RetryCount > 10 {
		return fmt.Errorf("api.retry_count must be between 0-10, got %d", c.API.RetryCount)
	}
	if c.API.RateLimitRPS < 0 {
		return fmt.Errorf("api.rate_limit_rps must not be negative, got %.2f", c.API.RateLimitRPS)
	}
	if c.Viewer.PageSize < 1 || c.Viewer.PageSize > 500 {
		return fmt.Errorf("viewer.page_size must be between 1-500, got %d", c.Viewer.PageSize)
	}
	if c.Downloads.RetentionDays < 0 {
		return errors.New("downloads.retention_days must not be negative")
	}
	return nil
}

// LoadConfig reads path, fills defaults, applies env overrides and validates.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var c Config

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyDefaults()
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
