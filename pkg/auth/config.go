package auth

import (
	"fmt"
	"os"
)

// Config holds OIDC bearer-token verification settings. Verification is
// disabled when Issuer is empty.
type Config struct {
	Issuer     string `toml:"issuer"`
	ClientID   string `toml:"client_id"`
	NameClaim  string `toml:"name_claim"`
	TitleClaim string `toml:"title_claim"`
	RoleClaim  string `toml:"role_claim"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Issuer     string
	ClientID   string
	NameClaim  string
	TitleClaim string
	RoleClaim  string
}

// Enabled reports whether tokens are verified.
func (c *Config) Enabled() bool {
	return c.Issuer != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.NameClaim != "" {
		c.NameClaim = overlay.NameClaim
	}
	if overlay.TitleClaim != "" {
		c.TitleClaim = overlay.TitleClaim
	}
	if overlay.RoleClaim != "" {
		c.RoleClaim = overlay.RoleClaim
	}
}

func (c *Config) loadDefaults() {
	if c.NameClaim == "" {
		c.NameClaim = "name"
	}
	if c.TitleClaim == "" {
		c.TitleClaim = "title"
	}
	if c.RoleClaim == "" {
		c.RoleClaim = "roles"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.NameClaim != "" {
		if v := os.Getenv(env.NameClaim); v != "" {
			c.NameClaim = v
		}
	}
	if env.TitleClaim != "" {
		if v := os.Getenv(env.TitleClaim); v != "" {
			c.TitleClaim = v
		}
	}
	if env.RoleClaim != "" {
		if v := os.Getenv(env.RoleClaim); v != "" {
			c.RoleClaim = v
		}
	}
}

func (c *Config) validate() error {
	if c.Issuer != "" && c.ClientID == "" {
		return fmt.Errorf("client_id required when issuer is set")
	}
	return nil
}
