package auth

import "time"

// ResultKind tags an AuthResult.
type ResultKind string

const (
	ResultPending   ResultKind = "pending"
	ResultSuccess   ResultKind = "success"
	ResultCancelled ResultKind = "cancelled"
	ResultError     ResultKind = "error"
)

// AuthResult is the outcome of one redirect round-trip.
// AccessToken and ExpiresIn are set only for ResultSuccess, Reason only for ResultError.
type AuthResult struct {
	Kind        ResultKind
	AccessToken string
	ExpiresIn   time.Duration
	Reason      string
}

// Success builds a successful result.
func Success(accessToken string, expiresIn time.Duration) AuthResult {
	return AuthResult{Kind: ResultSuccess, AccessToken: accessToken, ExpiresIn: expiresIn}
}

// Cancelled builds a cancellation result.
func Cancelled() AuthResult {
	return AuthResult{Kind: ResultCancelled}
}

// Failed builds an error result carrying the provider's reason.
func Failed(reason string) AuthResult {
	if reason == "" {
		reason = "authentication failed"
	}
	return AuthResult{Kind: ResultError, Reason: reason}
}

// Terminal reports whether the result ends the round-trip.
func (r AuthResult) Terminal() bool {
	return r.Kind == ResultSuccess || r.Kind == ResultCancelled || r.Kind == ResultError
}
