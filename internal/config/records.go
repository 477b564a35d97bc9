package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

const (
	EnvRecordsImageBaseURL   = "QUILL_RECORDS_IMAGE_BASE_URL"
	EnvRecordsResolveTimeout = "QUILL_RECORDS_RESOLVE_TIMEOUT"
)

// RecordsConfig controls how persisted signature images are fetched back
// into editor sessions.
type RecordsConfig struct {
	ImageBaseURL   string `toml:"image_base_url"`
	ResolveTimeout string `toml:"resolve_timeout"`
}

// ResolveTimeoutDuration returns ResolveTimeout as a time.Duration.
func (c *RecordsConfig) ResolveTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ResolveTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *RecordsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *RecordsConfig) Merge(overlay *RecordsConfig) {
	if overlay.ImageBaseURL != "" {
		c.ImageBaseURL = overlay.ImageBaseURL
	}
	if overlay.ResolveTimeout != "" {
		c.ResolveTimeout = overlay.ResolveTimeout
	}
}

func (c *RecordsConfig) loadDefaults() {
	if c.ImageBaseURL == "" {
		c.ImageBaseURL = "http://localhost:8080"
	}
	if c.ResolveTimeout == "" {
		c.ResolveTimeout = "15s"
	}
}

func (c *RecordsConfig) loadEnv() {
	if v := os.Getenv(EnvRecordsImageBaseURL); v != "" {
		c.ImageBaseURL = v
	}
	if v := os.Getenv(EnvRecordsResolveTimeout); v != "" {
		c.ResolveTimeout = v
	}
}

func (c *RecordsConfig) validate() error {
	u, err := url.ParseRequestURI(c.ImageBaseURL)
	if err != nil {
		return fmt.Errorf("invalid image_base_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("image_base_url %q must be an absolute url", c.ImageBaseURL)
	}
	if _, err := time.ParseDuration(c.ResolveTimeout); err != nil {
		return fmt.Errorf("invalid resolve_timeout: %w", err)
	}
	return nil
}
