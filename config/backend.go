package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// BackendConfig contains the FitMatch backend and outbound HTTP settings.
type BackendConfig struct {
	BaseURL string `env:"BACKEND_API,required,notEmpty"`

	// ErrorMessagePath is a JMESPath expression selecting the message from error bodies.
	ErrorMessagePath string `env:"BACKEND_ERROR_MESSAGE_PATH" envDefault:"message || error_description || error"`

	// HTTPTimeout applies to provider and backend requests alike.
	HTTPTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"15s"`
}

// Sanitize trims values and enforces a positive timeout.
func (c *BackendConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.ErrorMessagePath = strings.TrimSpace(c.ErrorMessagePath)
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
}

// Validate checks the backend URL is absolute.
func (c *BackendConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("BACKEND_API is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("BACKEND_API: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BACKEND_API %q must be an absolute http(s) URL", c.BaseURL)
	}
	return nil
}
