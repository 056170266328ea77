package oidc

// Package oidc provides the Auth0 identity-provider adapter for the FitMatch auth core.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/fitmatch-auth/internal/domain/auth"
	apperrors "github.com/target/fitmatch-auth/internal/errors"
	"github.com/target/fitmatch-auth/internal/ports"
	"golang.org/x/oauth2"
)

var _ ports.IdentityProvider = (*Provider)(nil)

// Provider implements ports.IdentityProvider against an Auth0 tenant.
type Provider struct {
	clientID   string
	discovery  domainauth.DiscoveryDocument
	httpClient *http.Client
	now        func() time.Time

	// go-oidc provider, discovered lazily on first UserInfo call
	mu           sync.Mutex
	oidcProvider *gooidc.Provider
}

// ProviderConfig holds configuration for the Auth0 provider.
type ProviderConfig struct {
	ClientID   string
	Discovery  domainauth.DiscoveryDocument
	HTTPClient *http.Client // Optional, defaults to a client with a 30s timeout
	// Now is the clock used for expiry math. Optional, defaults to time.Now.
	Now func() time.Time
}

// NewProvider creates a new Auth0 provider.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.Discovery.AuthorizationEndpoint == "" || config.Discovery.TokenEndpoint == "" {
		return nil, errors.New("authorization and token endpoints are required")
	}
	if config.Discovery.RevocationEndpoint == "" {
		return nil, errors.New("revocation endpoint is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &Provider{
		clientID:   config.ClientID,
		discovery:  config.Discovery,
		httpClient: httpClient,
		now:        now,
	}, nil
}

// oauthConfig maps an auth request onto an oauth2 config. Auth0 public clients
// send client_id in the form body rather than basic auth.
func (p *Provider) oauthConfig(req domainauth.AuthRequest) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    req.ClientID(),
		RedirectURL: req.RedirectURI(),
		Scopes:      req.Scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.discovery.AuthorizationEndpoint,
			TokenURL:  p.discovery.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (p *Provider) AuthorizeURL(in ports.AuthorizeInput) string {
	cfg := p.oauthConfig(in.Request)

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("response_type", string(in.Request.ResponseType())),
	}
	for k, v := range in.Request.ExtraParams() {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	if in.Request.ResponseType() == domainauth.ResponseTypeCode && in.CodeVerifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(in.CodeVerifier))
	}

	return cfg.AuthCodeURL(in.State, opts...)
}

func (p *Provider) ExchangeCode(
	ctx context.Context,
	req domainauth.AuthRequest,
	code, verifier string,
) (domainauth.AuthResult, error) {
	if code == "" {
		return domainauth.AuthResult{}, apperrors.Validation("authorization code is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	opts := []oauth2.AuthCodeOption{}
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	token, err := p.oauthConfig(req).Exchange(ctx, code, opts...)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return domainauth.Failed(firstNonEmpty(retrieveErr.ErrorDescription, retrieveErr.ErrorCode)), nil
		}
		return domainauth.AuthResult{}, apperrors.Network(err, "exchange authorization code")
	}

	return domainauth.Success(token.AccessToken, tokenLifetime(token, p.now())), nil
}

// tokenLifetime prefers the expires_in the server sent. oauth2 stamps Expiry with
// its own clock, so Expiry is only consulted when the raw value is missing.
func tokenLifetime(token *oauth2.Token, now time.Time) time.Duration {
	switch v := token.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case string:
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	if token.Expiry.IsZero() {
		return 0
	}
	if d := token.Expiry.Sub(now).Round(time.Second); d > 0 {
		return d
	}
	return 0
}

// Revoke posts the token to the revocation endpoint as a form-encoded body.
// The response body is not inspected.
func (p *Provider) Revoke(ctx context.Context, accessToken string) error {
	form := url.Values{
		"client_id": {p.clientID},
		"token":     {accessToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.discovery.RevocationEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build revocation request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperrors.Network(err, "revoke token")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.Protocol(resp.StatusCode, fmt.Sprintf("revoke token: unexpected status %d", resp.StatusCode))
	}
	return nil
}

// LogoutURL builds the federated logout URL. "federated" is a bare flag with no value,
// so the query is assembled by hand rather than with url.Values.
func (p *Provider) LogoutURL(returnTo string) string {
	return p.discovery.RevocationEndpoint +
		"?federated&client_id=" + url.QueryEscape(p.clientID) +
		"&returnTo=" + url.QueryEscape(returnTo)
}

func (p *Provider) UserInfo(ctx context.Context, accessToken string) (domainauth.Profile, error) {
	if accessToken == "" {
		return domainauth.Profile{}, apperrors.Validation("access token is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	op, err := p.provider(ctx)
	if err != nil {
		return domainauth.Profile{}, err
	}

	ui, err := op.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return domainauth.Profile{}, apperrors.Wrap(err, apperrors.ErrCodeProtocol, "fetch user info")
	}

	var profile domainauth.Profile
	if claimsErr := ui.Claims(&profile); claimsErr != nil {
		return domainauth.Profile{}, apperrors.Wrap(claimsErr, apperrors.ErrCodeProtocol, "decode user info")
	}
	profile.Subject = firstNonEmpty(profile.Subject, ui.Subject)
	profile.Email = firstNonEmpty(profile.Email, ui.Email)
	return profile, nil
}

// provider returns the go-oidc provider, running discovery once it first succeeds.
func (p *Provider) provider(ctx context.Context) (*gooidc.Provider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.oidcProvider != nil {
		return p.oidcProvider, nil
	}
	op, err := gooidc.NewProvider(ctx, p.discovery.Issuer)
	if err != nil {
		return nil, apperrors.Network(err, "oidc discovery")
	}
	p.oidcProvider = op
	return op, nil
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
