package store

import (
	"context"
	"errors"

	"github.com/webshoptools/shopedit/internal/editor/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Tenants() Tenants
	CategoryCache() CategoryCache
	Settings() Settings

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Tenants interface {
	// GetByShopID returns the tenant keyed by its shop identifier.
	GetByShopID(ctx context.Context, shopID string) (domain.TenantConfig, error)

	// GetByClientID is the secondary lookup used while a config is edited.
	GetByClientID(ctx context.Context, clientID string) (domain.TenantConfig, error)

	// List returns all tenants ordered by shop id.
	List(ctx context.Context) ([]domain.TenantConfig, error)

	// Upsert inserts or updates the record keyed by ShopID. A shop id that
	// already has a row is updated in place, never duplicated.
	Upsert(ctx context.Context, cfg domain.TenantConfig) error

	// UpdateToken sets the token fields after a successful exchange and
	// bumps updated_at. Expiry is epoch milliseconds.
	UpdateToken(ctx context.Context, shopID, accessToken string, expiry int64) error

	// Delete removes the tenant and leaves its cache entries to the
	// caller's cache-clear.
	Delete(ctx context.Context, shopID string) error
}

type CategoryCache interface {
	// Get returns the cached set for the exact key, fresh or stale.
	// Staleness is the service's call, not the store's.
	Get(ctx context.Context, key string) (domain.CachedCategorySet, error)

	// Put writes or replaces the entry for the key.
	Put(ctx context.Context, key, shopID string, languageID int, set domain.CachedCategorySet) error

	// DeleteByPrefix removes every entry whose key starts with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error
}

type Settings interface {
	// DomainWhitelist returns the stored host whitelist. Empty means no
	// restriction.
	DomainWhitelist(ctx context.Context) ([]string, error)

	// SetDomainWhitelist replaces the stored whitelist.
	SetDomainWhitelist(ctx context.Context, hosts []string) error
}
