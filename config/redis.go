package config

import (
	"strings"
	"time"
)

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	URI      string `env:"URI"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// Sanitize trims the connection settings.
func (c *RedisConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	if c.DB < 0 {
		c.DB = 0
	}
}

// TokenStoreConfig controls persistence of the session token between runs.
type TokenStoreConfig struct {
	// Enabled is required by the login, logout and whoami commands, which run as
	// separate processes and share the session only through Redis.
	Enabled bool   `env:"TOKEN_STORE_ENABLED" envDefault:"false"`
	Prefix  string `env:"TOKEN_STORE_PREFIX"  envDefault:"fitmatch:token:"`
	// DefaultTTL applies when the provider did not report an expiry.
	DefaultTTL time.Duration `env:"TOKEN_DEFAULT_TTL" envDefault:"24h"`
}

// Sanitize enforces defaults for empty or non-positive values.
func (c *TokenStoreConfig) Sanitize() {
	if c.Prefix = strings.TrimSpace(c.Prefix); c.Prefix == "" {
		c.Prefix = "fitmatch:token:"
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 24 * time.Hour
	}
}
