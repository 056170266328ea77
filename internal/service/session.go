package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/fitmatch-auth/internal/domain/auth"
	apperrors "github.com/target/fitmatch-auth/internal/errors"
	"github.com/target/fitmatch-auth/internal/observability/metrics"
	"github.com/target/fitmatch-auth/internal/observability/statsd"
	"github.com/target/fitmatch-auth/internal/ports"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultRedirectTimeout bounds the wait for the browser to come back.
	DefaultRedirectTimeout = 5 * time.Minute
	// DefaultTokenKey is the token store key used when none is configured.
	DefaultTokenKey = "default"

	stateParamBytes = 32
	verifierBytes   = 64
)

// SessionMachineOptions groups dependencies for SessionMachine.
type SessionMachineOptions struct {
	Config       domainauth.ProviderConfig
	Provider     ports.IdentityProvider
	Redirector   ports.Redirector
	RedirectURIs ports.RedirectURIProvider

	// Tokens persists the session across restarts. Optional.
	Tokens   ports.TokenStore
	TokenKey string

	ResponseType    domainauth.ResponseType // defaults to token
	RedirectTimeout time.Duration           // defaults to DefaultRedirectTimeout

	Metrics statsd.Sink
	Logger  *slog.Logger
	Now     func() time.Time
}

// SessionMachine owns the login session and drives the login and logout transitions.
type SessionMachine struct {
	cfg             domainauth.ProviderConfig
	provider        ports.IdentityProvider
	redirector      ports.Redirector
	redirectURIs    ports.RedirectURIProvider
	tokens          ports.TokenStore
	tokenKey        string
	responseType    domainauth.ResponseType
	redirectTimeout time.Duration
	metrics         statsd.Sink
	logger          *slog.Logger
	now             func() time.Time

	// inflight admits one of Login, Logout or Restore at a time.
	inflight *semaphore.Weighted

	mu        sync.RWMutex
	session   domainauth.Session
	observers observerSet[domainauth.SessionState]
}

// NewSessionMachine constructs a SessionMachine in the LoggedOut state.
func NewSessionMachine(opts SessionMachineOptions) *SessionMachine {
	if opts.Provider == nil {
		panic("IdentityProvider is required")
	}
	if opts.Redirector == nil {
		panic("Redirector is required")
	}
	if opts.RedirectURIs == nil {
		panic("RedirectURIProvider is required")
	}

	responseType := opts.ResponseType
	if !responseType.Valid() {
		responseType = domainauth.ResponseTypeToken
	}
	timeout := opts.RedirectTimeout
	if timeout <= 0 {
		timeout = DefaultRedirectTimeout
	}
	key := opts.TokenKey
	if key == "" {
		key = DefaultTokenKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &SessionMachine{
		cfg:             opts.Config,
		provider:        opts.Provider,
		redirector:      opts.Redirector,
		redirectURIs:    opts.RedirectURIs,
		tokens:          opts.Tokens,
		tokenKey:        key,
		responseType:    responseType,
		redirectTimeout: timeout,
		metrics:         opts.Metrics,
		logger:          logger.With("component", "session"),
		now:             now,
		inflight:        semaphore.NewWeighted(1),
	}
}

// State returns the current session state.
func (m *SessionMachine) State() domainauth.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.State()
}

// AccessToken returns the current token, or "" while logged out.
func (m *SessionMachine) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.AccessToken
}

// Session returns a copy of the current session.
func (m *SessionMachine) Session() domainauth.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Request builds the authorization request for the next login attempt.
// It is not ready until the redirect URI provider has resolved its URI.
func (m *SessionMachine) Request() domainauth.AuthRequest {
	return domainauth.BuildRequest(m.cfg, m.redirectURIs.RedirectURI(), domainauth.WithResponseType(m.responseType))
}

// Subscribe registers fn for state changes and returns a function that removes it.
func (m *SessionMachine) Subscribe(fn func(domainauth.SessionState)) func() {
	return m.observers.add(fn)
}

// Login runs the interactive redirect and, on success, moves to LoggedIn.
//
// Provider errors, dismissal and timeouts are reported through the returned
// AuthResult with a nil error. The error is non-nil only when the attempt was
// rejected or no terminal result could be produced.
func (m *SessionMachine) Login(ctx context.Context) (result domainauth.AuthResult, err error) {
	start := m.now()
	defer func() { m.emit("login", start, sessionResult(result, err), err) }()

	if !m.inflight.TryAcquire(1) {
		return domainauth.AuthResult{}, apperrors.Conflict("a session operation is already in progress")
	}
	defer m.inflight.Release(1)

	if state := m.State(); state != domainauth.SessionLoggedOut {
		return domainauth.AuthResult{}, apperrors.InvalidStatef("login is not allowed in state %s", state)
	}

	req := m.Request()
	if !req.Ready() {
		return domainauth.AuthResult{}, apperrors.InvalidStatef("auth request is not ready")
	}

	state, err := generateRandomString(stateParamBytes)
	if err != nil {
		return domainauth.AuthResult{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "generate state")
	}
	var verifier string
	if req.ResponseType() == domainauth.ResponseTypeCode {
		if verifier, err = generateRandomString(verifierBytes); err != nil {
			return domainauth.AuthResult{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "generate code verifier")
		}
	}

	authURL := m.provider.AuthorizeURL(ports.AuthorizeInput{Request: req, State: state, CodeVerifier: verifier})

	waitCtx, cancel := context.WithTimeout(ctx, m.redirectTimeout)
	defer cancel()

	m.logger.InfoContext(ctx, "opening authorization page", "response_type", req.ResponseType())
	outcome, err := m.redirector.Open(waitCtx, authURL, req.RedirectURI())
	if err != nil {
		return domainauth.AuthResult{}, fmt.Errorf("open authorization page: %w", err)
	}
	if outcome.Type != ports.RedirectCompleted {
		m.logger.InfoContext(ctx, "login dismissed")
		return domainauth.Cancelled(), nil
	}

	result, err = m.completeLogin(ctx, req, outcome.URL, state, verifier)
	if err != nil {
		return domainauth.AuthResult{}, err
	}

	switch result.Kind {
	case domainauth.ResultSuccess:
		m.establish(ctx, result)
		m.logger.InfoContext(ctx, "login succeeded")
	case domainauth.ResultError:
		m.logger.WarnContext(ctx, "login failed", "reason", result.Reason)
	}
	return result, nil
}

// completeLogin interprets the callback URL. Fragment parameters (token mode)
// and query parameters (code mode) are merged.
func (m *SessionMachine) completeLogin(
	ctx context.Context,
	req domainauth.AuthRequest,
	callbackURL, state, verifier string,
) (domainauth.AuthResult, error) {
	params, err := callbackParams(callbackURL)
	if err != nil {
		return domainauth.Failed("malformed callback"), nil
	}

	if errCode := params.Get("error"); errCode != "" {
		return domainauth.Failed(firstNonEmpty(params.Get("error_description"), errCode)), nil
	}
	if params.Get("state") != state {
		return domainauth.Failed("state mismatch"), nil
	}

	if req.ResponseType() == domainauth.ResponseTypeCode {
		code := params.Get("code")
		if code == "" {
			return domainauth.Failed("missing authorization code"), nil
		}
		result, exErr := m.provider.ExchangeCode(ctx, req, code, verifier)
		if exErr != nil {
			return domainauth.AuthResult{}, fmt.Errorf("exchange authorization code: %w", exErr)
		}
		return result, nil
	}

	token := params.Get("access_token")
	if token == "" {
		return domainauth.Failed("missing access token"), nil
	}
	var expiresIn time.Duration
	if raw := params.Get("expires_in"); raw != "" {
		if secs, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil && secs > 0 {
			expiresIn = time.Duration(secs) * time.Second
		}
	}
	return domainauth.Success(token, expiresIn), nil
}

func callbackParams(callbackURL string) (url.Values, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, err
	}
	params := u.Query()
	if u.Fragment != "" {
		frag, fragErr := url.ParseQuery(u.Fragment)
		if fragErr != nil {
			return nil, fragErr
		}
		for k, vs := range frag {
			for _, v := range vs {
				params.Add(k, v)
			}
		}
	}
	return params, nil
}

// Logout revokes the token and sends the browser through the provider logout
// page. Both steps are best-effort: failures are logged and the session always
// ends LoggedOut.
func (m *SessionMachine) Logout(ctx context.Context) (err error) {
	start := m.now()
	result := metrics.ResultSuccess
	defer func() {
		if err != nil {
			result = metrics.ResultRejected
		}
		m.emit("logout", start, result, err)
	}()

	if !m.inflight.TryAcquire(1) {
		return apperrors.Conflict("a session operation is already in progress")
	}
	defer m.inflight.Release(1)

	if state := m.State(); state != domainauth.SessionLoggedIn {
		return apperrors.InvalidStatef("logout is not allowed in state %s", state)
	}

	if revokeErr := m.provider.Revoke(ctx, m.AccessToken()); revokeErr != nil {
		result = metrics.ResultError
		m.logger.WarnContext(ctx, "token revocation failed", "error", revokeErr)
	}

	if redirectErr := m.openLogoutPage(ctx); redirectErr != nil {
		result = metrics.ResultError
		m.logger.WarnContext(ctx, "logout redirect failed", "error", redirectErr)
	}

	m.clear(ctx)
	m.logger.InfoContext(ctx, "logged out")
	return nil
}

func (m *SessionMachine) openLogoutPage(ctx context.Context) error {
	redirectURI := m.redirectURIs.RedirectURI()
	if redirectURI == "" {
		return errors.New("redirect URI is not resolved")
	}

	waitCtx, cancel := context.WithTimeout(ctx, m.redirectTimeout)
	defer cancel()

	outcome, err := m.redirector.Open(waitCtx, m.provider.LogoutURL(redirectURI), redirectURI)
	if err != nil {
		return err
	}
	if outcome.Type != ports.RedirectCompleted {
		m.logger.DebugContext(ctx, "logout page dismissed")
	}
	return nil
}

// Restore loads a persisted token and moves to LoggedIn when it is still valid.
// A missing or expired token leaves the machine LoggedOut without error.
func (m *SessionMachine) Restore(ctx context.Context) (err error) {
	start := m.now()
	restored := false
	defer func() {
		result := metrics.ResultCancelled
		switch {
		case apperrors.IsConflict(err) || apperrors.IsInvalidState(err):
			result = metrics.ResultRejected
		case err != nil:
			result = metrics.ResultError
		case restored:
			result = metrics.ResultSuccess
		}
		m.emit("restore", start, result, err)
	}()

	if m.tokens == nil {
		return nil
	}
	if !m.inflight.TryAcquire(1) {
		return apperrors.Conflict("a session operation is already in progress")
	}
	defer m.inflight.Release(1)

	if state := m.State(); state != domainauth.SessionLoggedOut {
		return apperrors.InvalidStatef("restore is not allowed in state %s", state)
	}

	tok, err := m.tokens.Load(ctx, m.tokenKey)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("load token: %w", err)
	}
	if tok.AccessToken == "" || tok.Expired(m.now()) {
		if delErr := m.tokens.Delete(ctx, m.tokenKey); delErr != nil {
			m.logger.WarnContext(ctx, "delete stale token failed", "error", delErr)
		}
		return nil
	}

	m.setSession(domainauth.Session{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt})
	restored = true
	m.logger.InfoContext(ctx, "session restored", "expires_at", tok.ExpiresAt)
	return nil
}

// Profile fetches the signed-in user's profile.
func (m *SessionMachine) Profile(ctx context.Context) (domainauth.Profile, error) {
	token := m.AccessToken()
	if token == "" {
		return domainauth.Profile{}, apperrors.InvalidStatef("profile requires a signed-in session")
	}
	profile, err := m.provider.UserInfo(ctx, token)
	if err != nil {
		return domainauth.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	return profile, nil
}

func (m *SessionMachine) establish(ctx context.Context, result domainauth.AuthResult) {
	now := m.now()
	sess := domainauth.Session{AccessToken: result.AccessToken}
	if result.ExpiresIn > 0 {
		sess.ExpiresAt = now.Add(result.ExpiresIn)
	}
	m.setSession(sess)

	if m.tokens == nil {
		return
	}
	stored := domainauth.StoredToken{AccessToken: sess.AccessToken, ExpiresAt: sess.ExpiresAt, SavedAt: now}
	if err := m.tokens.Save(ctx, m.tokenKey, stored); err != nil {
		m.logger.WarnContext(ctx, "persist token failed", "error", err)
	}
}

func (m *SessionMachine) clear(ctx context.Context) {
	m.setSession(domainauth.Session{})

	if m.tokens == nil {
		return
	}
	if err := m.tokens.Delete(ctx, m.tokenKey); err != nil {
		m.logger.WarnContext(ctx, "delete stored token failed", "error", err)
	}
}

func (m *SessionMachine) setSession(sess domainauth.Session) {
	m.mu.Lock()
	before := m.session.State()
	m.session = sess
	after := m.session.State()
	m.mu.Unlock()

	if before != after {
		m.observers.notify(after)
	}
}

func (m *SessionMachine) emit(op string, start time.Time, result string, err error) {
	metrics.EmitFlowTransition(m.metrics, metrics.FlowMetric{
		Flow:      metrics.FlowSession,
		Operation: op,
		Result:    result,
		Duration:  m.now().Sub(start),
		Err:       err,
	})
}

func sessionResult(res domainauth.AuthResult, err error) string {
	if err != nil {
		if apperrors.IsConflict(err) || apperrors.IsInvalidState(err) {
			return metrics.ResultRejected
		}
		return metrics.ResultError
	}
	switch res.Kind {
	case domainauth.ResultSuccess:
		return metrics.ResultSuccess
	case domainauth.ResultCancelled:
		return metrics.ResultCancelled
	default:
		return metrics.ResultError
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
