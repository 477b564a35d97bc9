package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvSignersBaseURL = "QUILL_SIGNERS_BASE_URL"
	EnvSignersTimeout = "QUILL_SIGNERS_TIMEOUT"
)

// SignersConfig locates the remote signer directory. An empty BaseURL leaves
// sessions with only the signer options supplied at creation.
type SignersConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// Enabled reports whether a remote directory is configured.
func (c *SignersConfig) Enabled() bool {
	return c.BaseURL != ""
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *SignersConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SignersConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SignersConfig) Merge(overlay *SignersConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *SignersConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
}

func (c *SignersConfig) loadEnv() {
	if v := os.Getenv(EnvSignersBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvSignersTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *SignersConfig) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
