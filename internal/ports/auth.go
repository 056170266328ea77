package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/fitmatch-auth/internal/domain/auth"
)

// RedirectURIProvider yields the callback URI registered with the identity provider.
// It returns an empty string until the URI is resolved.
type RedirectURIProvider interface {
	RedirectURI() string
}

// RedirectOutcomeType tags how an interactive redirect ended.
type RedirectOutcomeType string

const (
	// RedirectCompleted means the browser reached the return URL.
	RedirectCompleted RedirectOutcomeType = "completed"
	// RedirectDismissed means the user closed the browser view or the wait was canceled.
	RedirectDismissed RedirectOutcomeType = "dismissed"
)

// RedirectOutcome is the result of an interactive redirect.
// URL is the full callback URL (with fragment parameters moved into the query) when completed.
type RedirectOutcome struct {
	Type RedirectOutcomeType
	URL  string
}

// Redirector opens a provider page in a browser context and waits for the
// redirect back to returnURL. Cancelling ctx must yield RedirectDismissed.
type Redirector interface {
	Open(ctx context.Context, pageURL, returnURL string) (RedirectOutcome, error)
}

// AuthorizeInput groups parameters for building the authorize URL.
type AuthorizeInput struct {
	Request      domainauth.AuthRequest
	State        string
	CodeVerifier string // PKCE verifier the S256 challenge is derived from; empty in token mode
}

// IdentityProvider performs the provider-side HTTP interactions.
type IdentityProvider interface {
	// AuthorizeURL builds the URL the browser is sent to for login.
	AuthorizeURL(in AuthorizeInput) string
	// ExchangeCode redeems an authorization code with its PKCE verifier.
	ExchangeCode(ctx context.Context, req domainauth.AuthRequest, code, verifier string) (domainauth.AuthResult, error)
	// Revoke invalidates the access token server-side.
	Revoke(ctx context.Context, accessToken string) error
	// LogoutURL builds the federated logout URL returning to returnTo.
	LogoutURL(returnTo string) string
	// UserInfo fetches the profile for the access token.
	UserInfo(ctx context.Context, accessToken string) (domainauth.Profile, error)
}

// SignupBackend talks to the FitMatch backend signup endpoints.
type SignupBackend interface {
	RequestSignup(ctx context.Context, email, password string) error
	VerifySignup(ctx context.Context, email, code string) error
}

// TokenStore persists the session token between runs.
type TokenStore interface {
	Save(ctx context.Context, key string, tok domainauth.StoredToken) error
	Load(ctx context.Context, key string) (domainauth.StoredToken, error)
	Delete(ctx context.Context, key string) error
}
