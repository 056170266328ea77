package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	domainauth "github.com/target/fitmatch-auth/internal/domain/auth"
	apperrors "github.com/target/fitmatch-auth/internal/errors"
	"github.com/target/fitmatch-auth/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Redirector          = (*FakeRedirector)(nil)
	_ ports.RedirectURIProvider = StaticRedirectURI("")
	_ ports.TokenStore          = (*MemoryTokenStore)(nil)
)

// StaticRedirectURI is a RedirectURIProvider returning a fixed URI.
type StaticRedirectURI string

func (s StaticRedirectURI) RedirectURI() string { return string(s) }

// RedirectCall records one Open invocation.
type RedirectCall struct {
	PageURL   string
	ReturnURL string
}

// FakeRedirector simulates the browser round-trip. OpenFunc, when set, decides the
// outcome; otherwise every call completes with CallbackURL.
type FakeRedirector struct {
	OpenFunc    func(ctx context.Context, pageURL, returnURL string) (ports.RedirectOutcome, error)
	CallbackURL string

	mu    sync.Mutex
	calls []RedirectCall
}

func (f *FakeRedirector) Open(ctx context.Context, pageURL, returnURL string) (ports.RedirectOutcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, RedirectCall{PageURL: pageURL, ReturnURL: returnURL})
	f.mu.Unlock()

	if f.OpenFunc != nil {
		return f.OpenFunc(ctx, pageURL, returnURL)
	}
	return ports.RedirectOutcome{Type: ports.RedirectCompleted, URL: f.CallbackURL}, nil
}

// Calls returns a copy of the recorded invocations.
func (f *FakeRedirector) Calls() []RedirectCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RedirectCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// MemoryTokenStore is an in-memory token store for unit tests.
type MemoryTokenStore struct {
	// SaveErr and DeleteErr force failures when set.
	SaveErr   error
	DeleteErr error

	mu     sync.Mutex
	tokens map[string]domainauth.StoredToken
}

// NewMemoryTokenStore creates a new in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]domainauth.StoredToken)}
}

func (m *MemoryTokenStore) Save(_ context.Context, key string, tok domainauth.StoredToken) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = tok
	return nil
}

func (m *MemoryTokenStore) Load(_ context.Context, key string) (domainauth.StoredToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[key]
	if !ok {
		return domainauth.StoredToken{}, apperrors.NotFound("token not found")
	}
	return tok, nil
}

func (m *MemoryTokenStore) Delete(_ context.Context, key string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, key)
	return nil
}

// Len returns the number of stored tokens.
func (m *MemoryTokenStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}
