package auth

import (
	"maps"
	"slices"
)

// ResponseType selects the OAuth response type of an authorization request.
type ResponseType string

const (
	// ResponseTypeToken returns the access token in the redirect fragment (implicit flow).
	ResponseTypeToken ResponseType = "token"
	// ResponseTypeCode returns an authorization code exchanged with a PKCE verifier.
	ResponseTypeCode ResponseType = "code"
)

// Valid reports whether r is a supported response type.
func (r ResponseType) Valid() bool {
	return r == ResponseTypeToken || r == ResponseTypeCode
}

// DefaultScopes are requested on every login. offline_access is deliberately absent:
// no refresh token is issued.
var DefaultScopes = []string{"openid", "profile", "email"}

// AuthRequest describes one login attempt. Fields are unexported so the request
// stays immutable after BuildRequest; accessors return copies.
type AuthRequest struct {
	clientID     string
	redirectURI  string
	responseType ResponseType
	scopes       []string
	extraParams  map[string]string
}

// RequestOption customises BuildRequest.
type RequestOption func(*AuthRequest)

// WithResponseType overrides the default token response type.
func WithResponseType(rt ResponseType) RequestOption {
	return func(r *AuthRequest) {
		if rt.Valid() {
			r.responseType = rt
		}
	}
}

// WithScopes replaces the default scopes.
func WithScopes(scopes ...string) RequestOption {
	return func(r *AuthRequest) {
		if len(scopes) > 0 {
			r.scopes = slices.Clone(scopes)
		}
	}
}

// WithConnection pins the login to a specific upstream connection.
func WithConnection(connection string) RequestOption {
	return func(r *AuthRequest) {
		if connection != "" {
			r.extraParams["connection"] = connection
		}
	}
}

// BuildRequest constructs the authorization request for a login attempt.
func BuildRequest(cfg ProviderConfig, redirectURI string, opts ...RequestOption) AuthRequest {
	r := AuthRequest{
		clientID:     cfg.ClientID,
		redirectURI:  redirectURI,
		responseType: ResponseTypeToken,
		scopes:       slices.Clone(DefaultScopes),
		extraParams: map[string]string{
			"prompt": "login",
		},
	}
	if cfg.Audience != "" {
		r.extraParams["audience"] = cfg.Audience
	}
	if cfg.Connection != "" {
		r.extraParams["connection"] = cfg.Connection
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Ready reports whether the request can be dispatched. The redirect URI may
// resolve asynchronously, so callers must check this before opening the browser.
func (r AuthRequest) Ready() bool {
	return r.clientID != "" && r.redirectURI != ""
}

func (r AuthRequest) ClientID() string           { return r.clientID }
func (r AuthRequest) RedirectURI() string        { return r.redirectURI }
func (r AuthRequest) ResponseType() ResponseType { return r.responseType }
func (r AuthRequest) Scopes() []string           { return slices.Clone(r.scopes) }

// ExtraParams returns a copy of the additional authorize query parameters.
func (r AuthRequest) ExtraParams() map[string]string {
	return maps.Clone(r.extraParams)
}
