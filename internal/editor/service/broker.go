package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/webshoptools/shopedit/internal/editor/domain"
	"github.com/webshoptools/shopedit/internal/editor/store"
	"github.com/webshoptools/shopedit/pkg/relay"
	"github.com/webshoptools/shopedit/pkg/slogx"
)

// TokenBroker owns the per-tenant credential lifecycle: it resolves stored
// configs, exchanges client credentials for bearer tokens through the relay,
// and persists issued tokens with their expiry.
//
// Concurrent callers needing a token for the same tenant may both trigger an
// exchange; each persists independently and the last write wins. That is
// wasteful but harmless, so refreshes are deliberately not deduplicated.
type TokenBroker struct {
	Store store.Store
	Relay relay.Relay

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func NewTokenBroker(st store.Store, rl relay.Relay) *TokenBroker {
	return &TokenBroker{Store: st, Relay: rl}
}

func (b *TokenBroker) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// ResolveConfig returns the tenant config for a shop. A missing shop is a
// ConfigurationError, not a bare not-found: callers surface it to the user.
func (b *TokenBroker) ResolveConfig(ctx context.Context, shopID string) (domain.TenantConfig, error) {
	cfg, err := b.Store.Tenants().GetByShopID(ctx, shopID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.TenantConfig{}, &domain.ConfigurationError{
			ShopID: shopID,
			Reason: "no configuration found",
		}
	}
	if err != nil {
		return domain.TenantConfig{}, err
	}
	return cfg, nil
}

// ValidateCredentials checks that the shop has a config with both client id
// and secret present. It performs no network I/O.
func (b *TokenBroker) ValidateCredentials(ctx context.Context, shopID string) error {
	cfg, err := b.ResolveConfig(ctx, shopID)
	if err != nil {
		return err
	}
	if !cfg.IsConfigured() {
		return &domain.ConfigurationError{
			ShopID: shopID,
			Reason: "missing client credentials",
		}
	}
	return nil
}

// HasValidToken reports whether the shop holds a token whose expiry is
// strictly in the future. It never triggers an exchange.
func (b *TokenBroker) HasValidToken(ctx context.Context, shopID string) bool {
	cfg, err := b.Store.Tenants().GetByShopID(ctx, shopID)
	if err != nil {
		return false
	}
	return cfg.HasValidToken(b.now())
}

// GetValidToken returns a usable bearer token for the shop, exchanging
// client credentials through the relay when the cached token is absent or
// expired. Exchange failures surface as AuthenticationError and are not
// retried here; retrying is the caller's decision.
func (b *TokenBroker) GetValidToken(ctx context.Context, shopID string) (string, error) {
	cfg, err := b.ResolveConfig(ctx, shopID)
	if err != nil {
		return "", err
	}
	if !cfg.IsConfigured() {
		return "", &domain.ConfigurationError{ShopID: shopID, Reason: "missing client credentials"}
	}

	now := b.now()
	if cfg.HasValidToken(now) {
		return cfg.AccessToken, nil
	}

	resp := b.Relay.Do(ctx, relay.Request{
		Action:       relay.ActionOAuth,
		ShopID:       shopID,
		APIURL:       relay.APIBaseURL(shopID),
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})
	if !resp.Success {
		return "", &domain.AuthenticationError{ShopID: shopID, Message: resp.Error}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(resp.Data, &body); err != nil || body.AccessToken == "" {
		return "", &domain.AuthenticationError{ShopID: shopID, Message: "malformed token response"}
	}

	expiry := now.UnixMilli() + body.ExpiresIn*1000
	if body.ExpiresIn == 0 {
		// Some token endpoints omit expires_in; the bearer is a JWT, so fall
		// back to its exp claim.
		expiry = jwtExpiryMillis(body.AccessToken)
	}

	if err := b.Store.Tenants().UpdateToken(ctx, shopID, body.AccessToken, expiry); err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("issued access token",
		slog.String("shop_id", shopID),
		slog.Int64("expiry_ms", expiry),
	)
	return body.AccessToken, nil
}

// jwtExpiryMillis reads the exp claim of a JWT without verifying its
// signature; the broker only needs the expiry, not trust in the token.
// Returns 0 when the token is not a parseable JWT or carries no exp.
func jwtExpiryMillis(token string) int64 {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return exp.Time.UnixMilli()
}
