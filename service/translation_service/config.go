package translation_service

import (
	"fmt"
	"net/url"
	"time"
)

// Config MyMemory client configuration.
type Config struct {
	BaseURL       string        `json:"baseUrl"`
	Email         string        `json:"email"`   // optional "de" parameter, raises the daily quota
	Timeout       time.Duration `json:"timeout"` // per HTTP call
	RatePerSecond int           `json:"ratePerSecond"`
}

// DefaultConfig returns the public MyMemory endpoint with a 5s timeout.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "https://api.mymemory.translated.net",
		Timeout:       5 * time.Second,
		RatePerSecond: 5,
	}
}

// ApplyDefaults fills zero values from DefaultConfig.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = d.RatePerSecond
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base URL must be an http(s) URL: %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
