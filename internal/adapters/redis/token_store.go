package redis

// Package redis provides Redis-based adapters for the FitMatch auth core.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/fitmatch-auth/internal/domain/auth"
	apperrors "github.com/target/fitmatch-auth/internal/errors"
	"github.com/target/fitmatch-auth/internal/ports"
)

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore persists session tokens in Redis.
// TTL follows the token's ExpiresAt, or DefaultTTL when the provider gave no expiry.
type TokenStore struct {
	client     redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
	now        func() time.Time
}

// TokenStoreOptions configures a TokenStore. Zero values take defaults.
type TokenStoreOptions struct {
	Prefix     string
	DefaultTTL time.Duration
	Now        func() time.Time
}

// NewTokenStore creates a Redis token store.
func NewTokenStore(client redis.UniversalClient, opts TokenStoreOptions) *TokenStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "fitmatch:token:"
	}
	defaultTTL := opts.DefaultTTL
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &TokenStore{client: client, prefix: prefix, defaultTTL: defaultTTL, now: now}
}

func (s *TokenStore) Save(ctx context.Context, key string, tok domainauth.StoredToken) error {
	if key == "" {
		return errors.New("token key cannot be empty")
	}
	if tok.AccessToken == "" {
		return errors.New("access token cannot be empty")
	}

	ttl := s.defaultTTL
	if !tok.ExpiresAt.IsZero() {
		ttl = tok.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			// Token is already expired, don't save it
			return errors.New("token is expired")
		}
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	return s.client.Set(ctx, s.prefix+key, data, ttl).Err()
}

func (s *TokenStore) Load(ctx context.Context, key string) (domainauth.StoredToken, error) {
	if key == "" {
		return domainauth.StoredToken{}, apperrors.NotFound("token not found")
	}

	data, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.StoredToken{}, apperrors.NotFound("token not found")
		}
		return domainauth.StoredToken{}, fmt.Errorf("redis get: %w", err)
	}

	var tok domainauth.StoredToken
	if unmarshalErr := json.Unmarshal([]byte(data), &tok); unmarshalErr != nil {
		return domainauth.StoredToken{}, fmt.Errorf("unmarshal token: %w", unmarshalErr)
	}

	// Redis TTL should already have evicted it; clock skew can leave a stale entry.
	if tok.Expired(s.now()) {
		if deleteErr := s.Delete(ctx, key); deleteErr != nil {
			return domainauth.StoredToken{}, fmt.Errorf("cleanup expired token: %w", deleteErr)
		}
		return domainauth.StoredToken{}, apperrors.NotFound("token expired")
	}

	return tok, nil
}

func (s *TokenStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil // Nothing to delete
	}
	return s.client.Del(ctx, s.prefix+key).Err()
}
