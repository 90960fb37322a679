package media_service

import (
	"fmt"
	"time"
)

// Config holds the Cloudinary upload credentials.
type Config struct {
	CloudName string        `yaml:"cloud_name" json:"cloud_name"`
	APIKey    string        `yaml:"api_key" json:"api_key"`
	APISecret string        `yaml:"api_secret" json:"api_secret"`
	Folder    string        `yaml:"folder" json:"folder"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	BaseURL   string        `yaml:"base_url" json:"base_url"` // override for tests
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Folder:  "chat_images",
		Timeout: 60 * time.Second,
		BaseURL: "https://api.cloudinary.com",
	}
}

// ApplyDefaults applies default values to missing configuration fields
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Folder == "" {
		c.Folder = defaults.Folder
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
}

// Configured reports whether credentials are present.
func (c *Config) Configured() bool {
	return c != nil && c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !c.Configured() {
		return fmt.Errorf("cloud_name, api_key and api_secret are required")
	}
	return nil
}
