package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/fitmatch-auth/config"
	"github.com/target/fitmatch-auth/internal/adapters/backend"
	"github.com/target/fitmatch-auth/internal/adapters/loopback"
	"github.com/target/fitmatch-auth/internal/adapters/oidc"
	redisadapter "github.com/target/fitmatch-auth/internal/adapters/redis"
	domainauth "github.com/target/fitmatch-auth/internal/domain/auth"
	"github.com/target/fitmatch-auth/internal/observability/statsd"
	"github.com/target/fitmatch-auth/internal/ports"
	"github.com/target/fitmatch-auth/internal/service"
)

// AuthConfig contains configuration for the auth state machines.
type AuthConfig struct {
	App config.AppConfig
	// RedisClient backs the token store when TOKEN_STORE_ENABLED is set. Optional.
	RedisClient redis.UniversalClient
	Metrics     statsd.Sink
	Logger      *slog.Logger
	// Opener overrides how the browser is opened. Optional.
	Opener func(url string) error
	// TokenKey selects the stored session, e.g. a profile name. Optional.
	TokenKey string
	// HTTPClient is shared by the provider and backend adapters. Optional,
	// defaults to a client bounded by HTTP_CLIENT_TIMEOUT.
	HTTPClient *http.Client
	// Now is the clock handed to every component. Optional, defaults to time.Now.
	Now func() time.Time
}

// AuthComponents are the wired state machines and the adapters they share.
type AuthComponents struct {
	ProviderConfig domainauth.ProviderConfig
	Discovery      domainauth.DiscoveryDocument
	// Redirector must be started before Login or Logout.
	Redirector *loopback.Redirector
	Provider   *oidc.Provider
	Session    *service.SessionMachine
	Signup     *service.SignupFlow
}

// ProviderConfigFrom builds the immutable provider configuration injected into the machines.
func ProviderConfigFrom(cfg config.AppConfig) domainauth.ProviderConfig {
	return domainauth.ProviderConfig{
		Domain:         cfg.Auth.Domain,
		ClientID:       cfg.Auth.ClientID,
		Audience:       cfg.Auth.Audience,
		BackendBaseURL: cfg.Backend.BaseURL,
		Connection:     cfg.Auth.Connection,
	}
}

// BuildAuth wires the provider, backend, redirector and token store into the
// session and signup machines.
func BuildAuth(cfg AuthConfig) (*AuthComponents, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	providerCfg := ProviderConfigFrom(cfg.App)
	discovery := domainauth.Resolve(providerCfg.Domain)
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.App.Backend.HTTPTimeout}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	provider, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:   providerCfg.ClientID,
		Discovery:  discovery,
		HTTPClient: httpClient,
		Now:        now,
	})
	if err != nil {
		return nil, fmt.Errorf("create identity provider: %w", err)
	}

	backendClient, err := backend.NewClient(backend.Config{
		BaseURL:          providerCfg.BackendBaseURL,
		ErrorMessagePath: cfg.App.Backend.ErrorMessagePath,
		HTTPClient:       httpClient,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	redirector := loopback.New(loopback.Config{
		Addr:   cfg.App.Auth.CallbackAddr,
		Path:   cfg.App.Auth.CallbackPath,
		Opener: cfg.Opener,
		Logger: logger,
	})

	session := service.NewSessionMachine(service.SessionMachineOptions{
		Config:          providerCfg,
		Provider:        provider,
		Redirector:      redirector,
		RedirectURIs:    redirector,
		Tokens:          buildTokenStore(cfg, now, logger),
		TokenKey:        cfg.TokenKey,
		ResponseType:    domainauth.ResponseType(cfg.App.Auth.ResponseType),
		RedirectTimeout: cfg.App.Auth.RedirectTimeout,
		Metrics:         cfg.Metrics,
		Logger:          logger,
		Now:             now,
	})

	signup := service.NewSignupFlow(service.SignupFlowOptions{
		Backend: backendClient,
		Metrics: cfg.Metrics,
		Logger:  logger,
		Now:     now,
	})

	return &AuthComponents{
		ProviderConfig: providerCfg,
		Discovery:      discovery,
		Redirector:     redirector,
		Provider:       provider,
		Session:        session,
		Signup:         signup,
	}, nil
}

//nolint:ireturn // a nil interface keeps the session machine's store optional.
func buildTokenStore(cfg AuthConfig, now func() time.Time, logger *slog.Logger) ports.TokenStore {
	if !cfg.App.TokenStore.Enabled {
		return nil
	}
	if cfg.RedisClient == nil {
		logger.Warn("token store disabled: redis client not configured")
		return nil
	}
	return redisadapter.NewTokenStore(cfg.RedisClient, redisadapter.TokenStoreOptions{
		Prefix:     cfg.App.TokenStore.Prefix,
		DefaultTTL: cfg.App.TokenStore.DefaultTTL,
		Now:        now,
	})
}
