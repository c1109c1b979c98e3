package domain

import "time"

// TenantConfig is the stored configuration for one shop. ShopID is the
// identity; ClientID doubles as a secondary lookup key while a config is
// being edited. The token fields are mutated by the broker on each
// successful exchange.
type TenantConfig struct {
	ShopID       string
	ClientID     string
	ClientSecret string
	DisplayName  string

	AccessToken string
	// TokenExpiry is epoch milliseconds; zero means no token issued yet.
	TokenExpiry int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsConfigured reports whether the tenant carries complete credentials.
func (c TenantConfig) IsConfigured() bool {
	return c.ShopID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// HasValidToken reports whether the stored token is usable at the given
// instant. The expiry must be strictly in the future.
func (c TenantConfig) HasValidToken(now time.Time) bool {
	return c.AccessToken != "" && c.TokenExpiry > now.UnixMilli()
}

// ConfiguredShop is the listing view of a tenant.
type ConfiguredShop struct {
	ShopID       string
	Name         string
	IsConfigured bool
}
