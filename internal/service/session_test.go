package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/fitmatch-auth/internal/domain/auth"
	apperrors "github.com/target/fitmatch-auth/internal/errors"
	"github.com/target/fitmatch-auth/internal/mocks"
	mockauth "github.com/target/fitmatch-auth/internal/mocks/auth"
	"github.com/target/fitmatch-auth/internal/ports"
	"github.com/target/fitmatch-auth/internal/testutil"
	"go.uber.org/mock/gomock"
)

const testRedirectURI = "http://127.0.0.1:53682/callback"

var testProviderConfig = domainauth.ProviderConfig{
	Domain:         "tenant.auth0.com",
	ClientID:       "client-123",
	Audience:       "https://api.fitmatch.app",
	BackendBaseURL: "https://api.fitmatch.app",
}

type countingSink struct {
	mu     sync.Mutex
	counts []map[string]string
}

func (c *countingSink) Count(_ string, _ int64, tags map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = append(c.counts, tags)
}

func (c *countingSink) Timing(string, time.Duration, map[string]string) {}

func (c *countingSink) last() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.counts) == 0 {
		return nil
	}
	return c.counts[len(c.counts)-1]
}

type sessionFixture struct {
	machine    *SessionMachine
	provider   *mocks.MockIdentityProvider
	redirector *mockauth.FakeRedirector
	store      *mockauth.MemoryTokenStore
	sink       *countingSink
	clock      *testutil.TestTimeProvider
}

func newSessionFixture(t *testing.T, mutate func(*SessionMachineOptions)) *sessionFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &sessionFixture{
		provider:   mocks.NewMockIdentityProvider(ctrl),
		redirector: &mockauth.FakeRedirector{},
		store:      mockauth.NewMemoryTokenStore(),
		sink:       &countingSink{},
		clock:      testutil.NewTestTimeProvider(testutil.TestTime()),
	}
	opts := SessionMachineOptions{
		Config:       testProviderConfig,
		Provider:     f.provider,
		Redirector:   f.redirector,
		RedirectURIs: mockauth.StaticRedirectURI(testRedirectURI),
		Tokens:       f.store,
		Metrics:      f.sink,
		Logger:       testutil.DiscardLogger(),
		Now:          f.clock.Now,
	}
	if mutate != nil {
		mutate(&opts)
	}
	f.machine = NewSessionMachine(opts)
	return f
}

// expectAuthorize echoes the state parameter into the returned URL so the fake
// browser can send it back.
func (f *sessionFixture) expectAuthorize(captured *ports.AuthorizeInput) {
	f.provider.EXPECT().AuthorizeURL(gomock.Any()).DoAndReturn(func(in ports.AuthorizeInput) string {
		if captured != nil {
			*captured = in
		}
		return "https://tenant.auth0.com/authorize?state=" + url.QueryEscape(in.State)
	})
}

// callbackWith returns an OpenFunc that redirects back with the given parameters
// in the fragment, adding the state from the authorize URL unless overridden.
func callbackWith(params url.Values) func(context.Context, string, string) (ports.RedirectOutcome, error) {
	return func(_ context.Context, pageURL, returnURL string) (ports.RedirectOutcome, error) {
		u, err := url.Parse(pageURL)
		if err != nil {
			return ports.RedirectOutcome{}, err
		}
		out := url.Values{}
		for k, v := range params {
			out[k] = v
		}
		if _, ok := out["state"]; !ok {
			out.Set("state", u.Query().Get("state"))
		}
		return ports.RedirectOutcome{Type: ports.RedirectCompleted, URL: returnURL + "#" + out.Encode()}, nil
	}
}

func (f *sessionFixture) seedLoggedIn(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, f.store.Save(context.Background(), DefaultTokenKey, domainauth.StoredToken{
		AccessToken: token,
		ExpiresAt:   f.clock.Now().Add(time.Hour),
		SavedAt:     f.clock.Now(),
	}))
	require.NoError(t, f.machine.Restore(context.Background()))
	require.Equal(t, domainauth.SessionLoggedIn, f.machine.State())
}

func TestSessionMachine_LoginTokenFlow(t *testing.T) {
	f := newSessionFixture(t, nil)
	var in ports.AuthorizeInput
	f.expectAuthorize(&in)
	f.redirector.OpenFunc = callbackWith(url.Values{"access_token": {"tok"}, "expires_in": {"3600"}})

	var observed []domainauth.SessionState
	f.machine.Subscribe(func(s domainauth.SessionState) { observed = append(observed, s) })

	result, err := f.machine.Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domainauth.ResultSuccess, result.Kind)
	assert.Equal(t, "tok", result.AccessToken)
	assert.Equal(t, time.Hour, result.ExpiresIn)
	assert.Equal(t, domainauth.SessionLoggedIn, f.machine.State())
	assert.Equal(t, "tok", f.machine.AccessToken())
	assert.Equal(t, testutil.TestTime().Add(time.Hour), f.machine.Session().ExpiresAt)
	assert.Equal(t, []domainauth.SessionState{domainauth.SessionLoggedIn}, observed)

	assert.NotEmpty(t, in.State)
	assert.Empty(t, in.CodeVerifier)
	assert.Equal(t, domainauth.ResponseTypeToken, in.Request.ResponseType())
	assert.Equal(t, testRedirectURI, in.Request.RedirectURI())

	calls := f.redirector.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, testRedirectURI, calls[0].ReturnURL)

	stored, err := f.store.Load(context.Background(), DefaultTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok", stored.AccessToken)
	assert.Equal(t, testutil.TestTime(), stored.SavedAt)

	assert.Equal(t, "success", f.sink.last()["result"])
}

func TestSessionMachine_LoginRejectedWhenNotReady(t *testing.T) {
	f := newSessionFixture(t, func(o *SessionMachineOptions) {
		o.RedirectURIs = mockauth.StaticRedirectURI("")
	})

	result, err := f.machine.Login(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidState(err))
	assert.Equal(t, domainauth.ResultKind(""), result.Kind)
	assert.Empty(t, f.redirector.Calls())
	assert.Equal(t, domainauth.SessionLoggedOut, f.machine.State())
	assert.Equal(t, "rejected", f.sink.last()["result"])
}

func TestSessionMachine_LoginProviderError(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.expectAuthorize(nil)
	f.redirector.OpenFunc = callbackWith(url.Values{
		"error":             {"access_denied"},
		"error_description": {"User did not authorize the request"},
	})

	result, err := f.machine.Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domainauth.ResultError, result.Kind)
	assert.Equal(t, "User did not authorize the request", result.Reason)
	assert.Equal(t, domainauth.SessionLoggedOut, f.machine.State())
	assert.Zero(t, f.store.Len())
}

func TestSessionMachine_LoginStateMismatch(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.expectAuthorize(nil)
	f.redirector.OpenFunc = callbackWith(url.Values{"access_token": {"tok"}, "state": {"forged"}})

	result, err := f.machine.Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domainauth.Failed("state mismatch"), result)
	assert.Equal(t, domainauth.SessionLoggedOut, f.machine.State())
}

func TestSessionMachine_LoginMissingToken(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.expectAuthorize(nil)
	f.redirector.OpenFunc = callbackWith(url.Values{"completed": {"1"}})

	result, err := f.machine.Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domainauth.Failed("missing access token"), result)
}

func TestSessionMachine_LoginDismissed(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.expectAuthorize(nil)
	f.redirector.OpenFunc = func(context.Context, string, string) (ports.RedirectOutcome, error) {
		return ports.RedirectOutcome{Type: ports.RedirectDismissed}, nil
	}

	result, err := f.machine.Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domainauth.ResultCancelled, result.Kind)
	assert.Equal(t, domainauth.SessionLoggedOut, f.machine.State())
	assert.Equal(t, "cancelled", f.sink.last()["result"])
}

func TestSessionMachine_LoginTimeoutCancels(t *testing.T) {
	f := newSessionFixture(t, func(o *SessionMachineOptions) {
		o.RedirectTimeout = 20 * time.Millisecond
	})
	f.expectAuthorize(nil)
	f.redirector.OpenFunc = func(ctx context.Context, _, _ string) (ports.RedirectOutcome, error) {
		<-ctx.Done()
		return ports.RedirectOutcome{Type: ports.RedirectDismissed}, nil
	}

	result, err := f.machine.Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domainauth.ResultCancelled, result.Kind)
}

func TestSessionMachine_LoginRedirectFailure(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.expectAuthorize(nil)
	f.redirector.OpenFunc = func(context.Context, string, string) (ports.RedirectOutcome, error) {
		return ports.RedirectOutcome{}, errors.New("no browser available")
	}

	_, err := f.machine.Login(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no browser available")
	assert.Equal(t, domainauth.SessionLoggedOut, f.machine.State())
}

func TestSessionMachine_LoginCodeFlow(t *testing.T) {
	f := newSessionFixture(t, func(o *SessionMachineOptions) {
		o.ResponseType = domainauth.ResponseTypeCode
	})
	var in ports.AuthorizeInput
	f.expectAuthorize(&in)
	f.redirector.OpenFunc = func(_ context.Context, pageURL, returnURL string) (ports.RedirectOutcome, error) {
		u, _ := url.Parse(pageURL)
		q := url.Values{"code": {"auth-code"}, "state": {u.Query().Get("state")}}
		return ports.RedirectOutcome{Type: ports.RedirectCompleted, URL: returnURL + "?" + q.Encode()}, nil
	}
	f.provider.EXPECT().
		ExchangeCode(gomock.Any(), gomock.Any(), "auth-code", gomock.Any()).
		DoAndReturn(func(_ context.Context, req domainauth.AuthRequest, _ string, verifier string) (domainauth.AuthResult, error) {
			assert.Equal(t, domainauth.ResponseTypeCode, req.ResponseType())
			assert.Equal(t, in.CodeVerifier, verifier)
			return domainauth.Success("code-tok", 0), nil
		})

	result, err := f.machine.Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domainauth.ResultSuccess, result.Kind)
	assert.Len(t, in.CodeVerifier, 86)
	assert.Equal(t, "code-tok", f.machine.AccessToken())
	assert.True(t, f.machine.Session().ExpiresAt.IsZero())
}

func TestSessionMachine_LoginCodeExchangeFailure(t *testing.T) {
	f := newSessionFixture(t, func(o *SessionMachineOptions) {
		o.ResponseType = domainauth.ResponseTypeCode
	})
	f.expectAuthorize(nil)
	f.redirector.OpenFunc = func(_ context.Context, pageURL, returnURL string) (ports.RedirectOutcome, error) {
		u, _ := url.Parse(pageURL)
		return ports.RedirectOutcome{
			Type: ports.RedirectCompleted,
			URL:  returnURL + "?code=c&state=" + url.QueryEscape(u.Query().Get("state")),
		}, nil
	}
	f.provider.EXPECT().
		ExchangeCode(gomock.Any(), gomock.Any(), "c", gomock.Any()).
		Return(domainauth.AuthResult{}, apperrors.Network(errors.New("dial tcp"), "token exchange failed"))

	_, err := f.machine.Login(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
	assert.Equal(t, domainauth.SessionLoggedOut, f.machine.State())
}

func TestSessionMachine_LoginWhileLoggedIn(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.seedLoggedIn(t, "tok")

	_, err := f.machine.Login(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidState(err))
	assert.Empty(t, f.redirector.Calls())
}

func TestSessionMachine_ConcurrentLoginRejected(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.expectAuthorize(nil)

	opened := make(chan struct{})
	f.redirector.OpenFunc = func(ctx context.Context, _, _ string) (ports.RedirectOutcome, error) {
		close(opened)
		<-ctx.Done()
		return ports.RedirectOutcome{Type: ports.RedirectDismissed}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domainauth.AuthResult, 1)
	go func() {
		res, _ := f.machine.Login(ctx)
		done <- res
	}()
	<-opened

	_, err := f.machine.Login(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	err = f.machine.Logout(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	cancel()
	assert.Equal(t, domainauth.ResultCancelled, (<-done).Kind)
}

func TestSessionMachine_LogoutSwallowsRevocationFailure(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.seedLoggedIn(t, "tok")

	logoutURL := "https://tenant.auth0.com/v2/logout?federated&client_id=client-123&returnTo=" + url.QueryEscape(testRedirectURI)
	gomock.InOrder(
		f.provider.EXPECT().Revoke(gomock.Any(), "tok").
			Return(apperrors.Network(errors.New("connection reset"), "revocation failed")),
		f.provider.EXPECT().LogoutURL(testRedirectURI).Return(logoutURL),
	)

	var observed []domainauth.SessionState
	f.machine.Subscribe(func(s domainauth.SessionState) { observed = append(observed, s) })

	err := f.machine.Logout(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domainauth.SessionLoggedOut, f.machine.State())
	assert.Empty(t, f.machine.AccessToken())
	assert.Zero(t, f.store.Len())
	assert.Equal(t, []domainauth.SessionState{domainauth.SessionLoggedOut}, observed)

	calls := f.redirector.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, logoutURL, calls[0].PageURL)
	assert.Equal(t, "error", f.sink.last()["result"])
}

func TestSessionMachine_LogoutSwallowsRedirectFailure(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.seedLoggedIn(t, "tok")
	f.provider.EXPECT().Revoke(gomock.Any(), "tok").Return(nil)
	f.provider.EXPECT().LogoutURL(testRedirectURI).Return("https://tenant.auth0.com/v2/logout")
	f.redirector.OpenFunc = func(context.Context, string, string) (ports.RedirectOutcome, error) {
		return ports.RedirectOutcome{}, errors.New("browser crashed")
	}

	require.NoError(t, f.machine.Logout(context.Background()))
	assert.Equal(t, domainauth.SessionLoggedOut, f.machine.State())
}

func TestSessionMachine_LogoutClearsWhenStoreFails(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.seedLoggedIn(t, "tok")
	f.store.DeleteErr = errors.New("redis down")
	f.provider.EXPECT().Revoke(gomock.Any(), "tok").Return(nil)
	f.provider.EXPECT().LogoutURL(gomock.Any()).Return("https://tenant.auth0.com/v2/logout")

	require.NoError(t, f.machine.Logout(context.Background()))
	assert.Equal(t, domainauth.SessionLoggedOut, f.machine.State())
}

func TestSessionMachine_LogoutWhileLoggedOut(t *testing.T) {
	f := newSessionFixture(t, nil)

	err := f.machine.Logout(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidState(err))
	assert.Empty(t, f.redirector.Calls())
}

func TestSessionMachine_Restore(t *testing.T) {
	t.Run("missing token stays logged out", func(t *testing.T) {
		f := newSessionFixture(t, nil)
		require.NoError(t, f.machine.Restore(context.Background()))
		assert.Equal(t, domainauth.SessionLoggedOut, f.machine.State())
	})

	t.Run("expired token is discarded", func(t *testing.T) {
		f := newSessionFixture(t, nil)
		require.NoError(t, f.store.Save(context.Background(), DefaultTokenKey, domainauth.StoredToken{
			AccessToken: "old",
			ExpiresAt:   f.clock.Now().Add(-time.Minute),
		}))

		require.NoError(t, f.machine.Restore(context.Background()))
		assert.Equal(t, domainauth.SessionLoggedOut, f.machine.State())
		assert.Zero(t, f.store.Len())
	})

	t.Run("valid token logs in", func(t *testing.T) {
		f := newSessionFixture(t, func(o *SessionMachineOptions) { o.TokenKey = "alice" })
		expires := f.clock.Now().Add(time.Hour)
		require.NoError(t, f.store.Save(context.Background(), "alice", domainauth.StoredToken{AccessToken: "tok", ExpiresAt: expires}))

		require.NoError(t, f.machine.Restore(context.Background()))
		assert.Equal(t, "tok", f.machine.AccessToken())
		assert.Equal(t, expires, f.machine.Session().ExpiresAt)
	})

	t.Run("without a store is a no-op", func(t *testing.T) {
		f := newSessionFixture(t, func(o *SessionMachineOptions) { o.Tokens = nil })
		require.NoError(t, f.machine.Restore(context.Background()))
		assert.Equal(t, domainauth.SessionLoggedOut, f.machine.State())
	})
}

func TestSessionMachine_LoginPersistFailureIsNotFatal(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.store.SaveErr = errors.New("redis down")
	f.expectAuthorize(nil)
	f.redirector.OpenFunc = callbackWith(url.Values{"access_token": {"tok"}})

	result, err := f.machine.Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domainauth.ResultSuccess, result.Kind)
	assert.Equal(t, domainauth.SessionLoggedIn, f.machine.State())
}

func TestSessionMachine_Profile(t *testing.T) {
	f := newSessionFixture(t, nil)

	_, err := f.machine.Profile(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidState(err))

	f.seedLoggedIn(t, "tok")
	want := domainauth.Profile{Subject: "auth0|1", Email: "a@b.com", EmailVerified: true}
	f.provider.EXPECT().UserInfo(gomock.Any(), "tok").Return(want, nil)

	got, err := f.machine.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSessionMachine_Unsubscribe(t *testing.T) {
	f := newSessionFixture(t, nil)
	calls := 0
	unsubscribe := f.machine.Subscribe(func(domainauth.SessionState) { calls++ })
	unsubscribe()
	unsubscribe()

	f.seedLoggedIn(t, "tok")
	assert.Zero(t, calls)
}

func TestSessionMachine_Request(t *testing.T) {
	f := newSessionFixture(t, func(o *SessionMachineOptions) {
		o.ResponseType = domainauth.ResponseTypeCode
	})

	req := f.machine.Request()

	assert.True(t, req.Ready())
	assert.Equal(t, "client-123", req.ClientID())
	assert.Equal(t, domainauth.ResponseTypeCode, req.ResponseType())
	assert.Equal(t, "https://api.fitmatch.app", req.ExtraParams()["audience"])
}
