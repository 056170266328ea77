package config

import (
	"errors"
	"fmt"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Auth0 tenant and redirect configuration
//   - backend.go: FitMatch backend and HTTP client configuration
//   - redis.go: token store configuration
//   - observability.go: metrics configuration
type AppConfig struct {
	// Auth0 tenant and login redirect configuration
	Auth AuthConfig

	// FitMatch backend configuration
	Backend BackendConfig

	// Token persistence configuration
	TokenStore TokenStoreConfig
	Redis      RedisConfig `envPrefix:"REDIS_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.Backend.Sanitize()
	c.TokenStore.Sanitize()
	c.Redis.Sanitize()
	c.Observability.Sanitize()
}

// Validate reports every invalid value at once. Call it after Sanitize.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}
	if err := c.Backend.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("backend: %w", err))
	}
	if c.TokenStore.Enabled && c.Redis.URI == "" {
		errs = append(errs, errors.New("token store: REDIS_URI is required when TOKEN_STORE_ENABLED=true"))
	}
	return errors.Join(errs...)
}
