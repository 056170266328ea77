package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// ResponseType selects the OAuth response type used for login.
type ResponseType string

const (
	// ResponseTypeToken receives the access token in the redirect fragment.
	ResponseTypeToken ResponseType = "token"
	// ResponseTypeCode receives an authorization code redeemed with PKCE.
	ResponseTypeCode ResponseType = "code"
)

// UnmarshalText implements encoding.TextUnmarshaler for ResponseType.
func (r *ResponseType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "token", "code":
		*r = ResponseType(v)
		return nil
	default:
		return fmt.Errorf("invalid ResponseType: %q (valid options: token, code)", v)
	}
}

// AuthConfig groups the Auth0 tenant settings and the local redirect listener.
type AuthConfig struct {
	Domain     string `env:"AUTH0_DOMAIN,required,notEmpty"`
	ClientID   string `env:"AUTH0_CLIENT_ID,required,notEmpty"`
	Audience   string `env:"AUTH0_AUDIENCE,required,notEmpty"`
	Connection string `env:"AUTH0_CONNECTION"`

	ResponseType ResponseType `env:"AUTH_RESPONSE_TYPE" envDefault:"token"`

	// RedirectTimeout bounds the wait for the browser to return to the callback.
	RedirectTimeout time.Duration `env:"AUTH_REDIRECT_TIMEOUT" envDefault:"5m"`
	CallbackAddr    string        `env:"AUTH_CALLBACK_ADDR"    envDefault:"127.0.0.1:0"`
	CallbackPath    string        `env:"AUTH_CALLBACK_PATH"    envDefault:"/callback"`
}

// Sanitize normalises the tenant domain and listener settings.
func (c *AuthConfig) Sanitize() {
	c.Domain = normalizeDomain(c.Domain)
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.Audience = strings.TrimSpace(c.Audience)
	c.Connection = strings.TrimSpace(c.Connection)

	if c.ResponseType == "" {
		c.ResponseType = ResponseTypeToken
	}
	if c.RedirectTimeout <= 0 {
		c.RedirectTimeout = 5 * time.Minute
	}
	if c.CallbackAddr = strings.TrimSpace(c.CallbackAddr); c.CallbackAddr == "" {
		c.CallbackAddr = "127.0.0.1:0"
	}
	c.CallbackPath = strings.TrimSpace(c.CallbackPath)
	if c.CallbackPath == "" {
		c.CallbackPath = "/callback"
	}
	if !strings.HasPrefix(c.CallbackPath, "/") {
		c.CallbackPath = "/" + c.CallbackPath
	}
}

// Validate checks that the tenant domain is a registrable hostname.
func (c *AuthConfig) Validate() error {
	if c.ClientID == "" {
		return errors.New("AUTH0_CLIENT_ID is required")
	}
	return ValidateDomain(c.Domain)
}

// ValidateDomain checks domain is a hostname under a public suffix, e.g. tenant.auth0.com.
func ValidateDomain(domain string) error {
	if domain == "" {
		return errors.New("AUTH0_DOMAIN is required")
	}
	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return fmt.Errorf("AUTH0_DOMAIN %q is not a valid hostname: %w", domain, err)
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(ascii); err != nil {
		return fmt.Errorf("AUTH0_DOMAIN %q has no registrable domain: %w", domain, err)
	}
	return nil
}

// normalizeDomain accepts "https://tenant.auth0.com/" style values and keeps the host.
func normalizeDomain(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimPrefix(v, "https://")
	v = strings.TrimPrefix(v, "http://")
	if i := strings.IndexByte(v, '/'); i >= 0 {
		v = v[:i]
	}
	return v
}
