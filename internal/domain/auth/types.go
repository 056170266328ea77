package auth

// Package auth contains domain-level types for the FitMatch login session and email signup.
// It is pure and free of framework/adapter concerns.

import "time"

// ProviderConfig is the immutable identity-provider and backend configuration.
// It is built once at startup and injected into each state machine.
type ProviderConfig struct {
	Domain         string // Auth0 tenant domain, e.g. tenant.auth0.com
	ClientID       string
	Audience       string
	BackendBaseURL string
	Connection     string // optional upstream connection, e.g. google-oauth2
}

// SessionState is the login state of a SessionMachine.
type SessionState string

const (
	SessionLoggedOut SessionState = "logged_out"
	SessionLoggedIn  SessionState = "logged_in"
)

// Session is the client-side record of the current login.
// AccessToken is empty while logged out.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time // zero when the provider did not report expires_in
}

// State derives the session state from the token.
func (s Session) State() SessionState {
	if s.AccessToken == "" {
		return SessionLoggedOut
	}
	return SessionLoggedIn
}

// StoredToken is the persisted form of a session.
type StoredToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	SavedAt     time.Time `json:"saved_at"`
}

// Expired reports whether the token is past its expiry at now.
// Tokens without an expiry never expire locally.
func (t StoredToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Profile is the subset of OIDC userinfo claims the app displays.
type Profile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}
