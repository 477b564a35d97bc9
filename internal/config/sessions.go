package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	EnvSessionsIdleTTL         = "QUILL_SESSIONS_IDLE_TTL"
	EnvSessionsSweepInterval   = "QUILL_SESSIONS_SWEEP_INTERVAL"
	EnvSessionsPrivilegedRoles = "QUILL_SESSIONS_PRIVILEGED_ROLES"
)

// SessionsConfig holds editor session lifetime and operator policy.
type SessionsConfig struct {
	IdleTTL         string   `toml:"idle_ttl"`
	SweepInterval   string   `toml:"sweep_interval"`
	PrivilegedRoles []string `toml:"privileged_roles"`
}

// IdleTTLDuration returns IdleTTL as a time.Duration.
func (c *SessionsConfig) IdleTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.IdleTTL)
	return d
}

// SweepIntervalDuration returns SweepInterval as a time.Duration.
func (c *SessionsConfig) SweepIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SweepInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SessionsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SessionsConfig) Merge(overlay *SessionsConfig) {
	if overlay.IdleTTL != "" {
		c.IdleTTL = overlay.IdleTTL
	}
	if overlay.SweepInterval != "" {
		c.SweepInterval = overlay.SweepInterval
	}
	if overlay.PrivilegedRoles != nil {
		c.PrivilegedRoles = overlay.PrivilegedRoles
	}
}

func (c *SessionsConfig) loadDefaults() {
	if c.IdleTTL == "" {
		c.IdleTTL = "30m"
	}
	if c.SweepInterval == "" {
		c.SweepInterval = "1m"
	}
	if len(c.PrivilegedRoles) == 0 {
		c.PrivilegedRoles = []string{"admin"}
	}
}

func (c *SessionsConfig) loadEnv() {
	if v := os.Getenv(EnvSessionsIdleTTL); v != "" {
		c.IdleTTL = v
	}
	if v := os.Getenv(EnvSessionsSweepInterval); v != "" {
		c.SweepInterval = v
	}
	if v := os.Getenv(EnvSessionsPrivilegedRoles); v != "" {
		roles := strings.Split(v, ",")
		for i := range roles {
			roles[i] = strings.TrimSpace(roles[i])
		}
		c.PrivilegedRoles = roles
	}
}

func (c *SessionsConfig) validate() error {
	ttl, err := time.ParseDuration(c.IdleTTL)
	if err != nil {
		return fmt.Errorf("invalid idle_ttl: %w", err)
	}
	sweep, err := time.ParseDuration(c.SweepInterval)
	if err != nil {
		return fmt.Errorf("invalid sweep_interval: %w", err)
	}
	if ttl <= 0 || sweep <= 0 {
		return fmt.Errorf("idle_ttl and sweep_interval must be positive")
	}
	return nil
}
