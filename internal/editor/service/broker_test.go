package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/webshoptools/shopedit/internal/editor/domain"
	"github.com/webshoptools/shopedit/internal/editor/store"
	"github.com/webshoptools/shopedit/internal/editor/store/drivers/sqlite"
	"github.com/webshoptools/shopedit/pkg/relay"
)

func TestMain(m *testing.M) {
	// Tenant secrets are encrypted at rest; pin the key so every test run
	// derives the same one.
	os.Setenv("SHOPEDIT_MASTER_KEY", "service-test-master-key")
	os.Exit(m.Run())
}

func newServiceStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "shopedit-test.db"))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fakeRelay scripts relay responses and records every request it saw.
type fakeRelay struct {
	fn    func(relay.Request) relay.Response
	calls []relay.Request
}

func (f *fakeRelay) Do(_ context.Context, req relay.Request) relay.Response {
	f.calls = append(f.calls, req)
	if f.fn == nil {
		return relay.Fail("unexpected relay call: %s", req.Action)
	}
	return f.fn(req)
}

func seedTenant(t *testing.T, st store.Store, shopID string) {
	t.Helper()

	require.NoError(t, st.Tenants().Upsert(context.Background(), domain.TenantConfig{
		ShopID:       shopID,
		ClientID:     "client-" + shopID,
		ClientSecret: "secret-" + shopID,
		DisplayName:  "Test shop",
	}))
}

func TestGetValidTokenServesCachedToken(t *testing.T) {
	t.Parallel()

	st := newServiceStore(t)
	rl := &fakeRelay{}
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedTenant(t, st, "shop1001")
	require.NoError(t, st.Tenants().UpdateToken(ctx, "shop1001", "cached-token", now.UnixMilli()+60_000))

	b := NewTokenBroker(st, rl)
	b.Now = func() time.Time { return now }

	token, err := b.GetValidToken(ctx, "shop1001")
	require.NoError(t, err)
	require.Equal(t, "cached-token", token)
	require.Empty(t, rl.calls, "a valid cached token must not touch the network")
}

func TestGetValidTokenExchangesAndPersists(t *testing.T) {
	t.Parallel()

	st := newServiceStore(t)
	rl := &fakeRelay{fn: func(req relay.Request) relay.Response {
		return relay.OK(json.RawMessage(`{"access_token":"fresh-token","expires_in":3600}`))
	}}
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedTenant(t, st, "shop1002")

	b := NewTokenBroker(st, rl)
	b.Now = func() time.Time { return now }

	token, err := b.GetValidToken(ctx, "shop1002")
	require.NoError(t, err)
	require.Equal(t, "fresh-token", token)

	require.Len(t, rl.calls, 1)
	req := rl.calls[0]
	require.Equal(t, relay.ActionOAuth, req.Action)
	require.Equal(t, "shop1002", req.ShopID)
	require.Equal(t, "https://shop1002.mywebshop.io", req.APIURL)
	require.Equal(t, "client-shop1002", req.ClientID)
	require.Equal(t, "secret-shop1002", req.ClientSecret)

	cfg, err := st.Tenants().GetByShopID(ctx, "shop1002")
	require.NoError(t, err)
	require.Equal(t, "fresh-token", cfg.AccessToken)
	require.Equal(t, now.UnixMilli()+3600*1000, cfg.TokenExpiry)

	// The persisted token is served on the next call without an exchange.
	token, err = b.GetValidToken(ctx, "shop1002")
	require.NoError(t, err)
	require.Equal(t, "fresh-token", token)
	require.Len(t, rl.calls, 1)
}

func TestGetValidTokenRefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	st := newServiceStore(t)
	rl := &fakeRelay{fn: func(req relay.Request) relay.Response {
		return relay.OK(json.RawMessage(`{"access_token":"renewed","expires_in":1800}`))
	}}
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedTenant(t, st, "shop1003")
	// Expiry exactly at now is already invalid; the check is strict.
	require.NoError(t, st.Tenants().UpdateToken(ctx, "shop1003", "stale", now.UnixMilli()))

	b := NewTokenBroker(st, rl)
	b.Now = func() time.Time { return now }

	token, err := b.GetValidToken(ctx, "shop1003")
	require.NoError(t, err)
	require.Equal(t, "renewed", token)
	require.Len(t, rl.calls, 1)
}

func TestGetValidTokenExchangeFailure(t *testing.T) {
	t.Parallel()

	st := newServiceStore(t)
	rl := &fakeRelay{fn: func(req relay.Request) relay.Response {
		return relay.Fail("upstream status 401")
	}}
	ctx := context.Background()

	seedTenant(t, st, "shop1004")

	b := NewTokenBroker(st, rl)

	_, err := b.GetValidToken(ctx, "shop1004")
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "shop1004", authErr.ShopID)

	cfg, err := st.Tenants().GetByShopID(ctx, "shop1004")
	require.NoError(t, err)
	require.Empty(t, cfg.AccessToken, "a failed exchange must not persist anything")
}

func TestGetValidTokenMalformedResponse(t *testing.T) {
	t.Parallel()

	st := newServiceStore(t)
	rl := &fakeRelay{fn: func(req relay.Request) relay.Response {
		return relay.OK(json.RawMessage(`{"token_type":"Bearer"}`))
	}}

	seedTenant(t, st, "shop1005")

	b := NewTokenBroker(st, rl)

	_, err := b.GetValidToken(context.Background(), "shop1005")
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestGetValidTokenUnknownShop(t *testing.T) {
	t.Parallel()

	b := NewTokenBroker(newServiceStore(t), &fakeRelay{})

	_, err := b.GetValidToken(context.Background(), "shop9999")
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "shop9999", cfgErr.ShopID)
}

func TestGetValidTokenJWTExpiryFallback(t *testing.T) {
	t.Parallel()

	exp := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"sub": "client-shop1006",
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	st := newServiceStore(t)
	rl := &fakeRelay{fn: func(req relay.Request) relay.Response {
		body, _ := json.Marshal(map[string]any{"access_token": signed})
		return relay.OK(body)
	}}
	ctx := context.Background()

	seedTenant(t, st, "shop1006")

	b := NewTokenBroker(st, rl)

	token, err := b.GetValidToken(ctx, "shop1006")
	require.NoError(t, err)
	require.Equal(t, signed, token)

	cfg, err := st.Tenants().GetByShopID(ctx, "shop1006")
	require.NoError(t, err)
	require.Equal(t, exp.UnixMilli(), cfg.TokenExpiry)
}

func TestValidateCredentials(t *testing.T) {
	t.Parallel()

	st := newServiceStore(t)
	rl := &fakeRelay{}
	ctx := context.Background()

	seedTenant(t, st, "shop1007")
	require.NoError(t, st.Tenants().Upsert(ctx, domain.TenantConfig{
		ShopID:   "shop1008",
		ClientID: "client-only",
	}))

	b := NewTokenBroker(st, rl)

	require.NoError(t, b.ValidateCredentials(ctx, "shop1007"))

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, b.ValidateCredentials(ctx, "shop1008"), &cfgErr)
	require.ErrorAs(t, b.ValidateCredentials(ctx, "shop9999"), &cfgErr)
	require.Empty(t, rl.calls, "credential validation must not touch the network")
}

func TestHasValidToken(t *testing.T) {
	t.Parallel()

	st := newServiceStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedTenant(t, st, "shop1009")

	b := NewTokenBroker(st, &fakeRelay{})
	b.Now = func() time.Time { return now }

	require.False(t, b.HasValidToken(ctx, "shop1009"))
	require.False(t, b.HasValidToken(ctx, "shop9999"))

	require.NoError(t, st.Tenants().UpdateToken(ctx, "shop1009", "tok", now.UnixMilli()+1))
	require.True(t, b.HasValidToken(ctx, "shop1009"))
}
