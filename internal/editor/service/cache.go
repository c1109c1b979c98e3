package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/webshoptools/shopedit/internal/editor/domain"
	"github.com/webshoptools/shopedit/internal/editor/store"
	"github.com/webshoptools/shopedit/pkg/slogx"
)

// CategoryCacheTTL bounds how long a fetched category set is served without
// a refetch.
const CategoryCacheTTL = 24 * time.Hour

// categoryFetcher is the facade operation the cache falls back to on a miss.
type categoryFetcher interface {
	FetchAllCategories(ctx context.Context, shopID string, languageID int) ([]domain.CategoryRecord, error)
}

// CategoryService is the time-boxed category cache. Entries are keyed per
// (tenant, language) and invalidated per tenant: a save clears every
// language of that shop rather than just the edited one. Narrowing that
// would reintroduce staleness across language mirrors, so the conservative
// behavior is kept.
type CategoryService struct {
	Store   store.Store
	Fetcher categoryFetcher

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func NewCategoryService(st store.Store, fetcher categoryFetcher) *CategoryService {
	return &CategoryService{Store: st, Fetcher: fetcher}
}

func (s *CategoryService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// GetAllCategories returns the category set for a tenant/language, serving
// a fresh cache entry without any network I/O and refetching through the
// facade on a miss or a stale entry.
func (s *CategoryService) GetAllCategories(ctx context.Context, shopID string, languageID int) ([]domain.CategoryRecord, error) {
	key := domain.CategoryCacheKey(shopID, languageID)
	now := s.now()

	cached, err := s.Store.CategoryCache().Get(ctx, key)
	switch {
	case err == nil:
		if now.UnixMilli()-cached.FetchedAt < CategoryCacheTTL.Milliseconds() {
			return cached.Categories, nil
		}
		// Stale entries are treated as absent.
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	categories, err := s.Fetcher.FetchAllCategories(ctx, shopID, languageID)
	if err != nil {
		return nil, err
	}

	set := domain.CachedCategorySet{Categories: categories, FetchedAt: now.UnixMilli()}
	if err := s.Store.CategoryCache().Put(ctx, key, shopID, languageID, set); err != nil {
		return nil, err
	}

	return categories, nil
}

// GetCategoryDetails returns one category by id, or nil when the id is not
// in the fetched set. Absence is expected, category membership can change
// between indexing and lookup, so it is not an error.
func (s *CategoryService) GetCategoryDetails(ctx context.Context, shopID, categoryID string, languageID int) (*domain.CategoryRecord, error) {
	categories, err := s.GetAllCategories(ctx, shopID, languageID)
	if err != nil {
		return nil, err
	}

	for i := range categories {
		if categories[i].ID == categoryID {
			return &categories[i], nil
		}
	}

	slogx.FromContext(ctx).Info("category not found in fetched set",
		slog.String("shop_id", shopID),
		slog.String("category_id", categoryID),
	)
	return nil, nil
}

// ClearShop removes every cached entry of the tenant across all languages.
// Called unconditionally after any successful field save.
func (s *CategoryService) ClearShop(ctx context.Context, shopID string) error {
	return s.Store.CategoryCache().DeleteByPrefix(ctx, domain.CategoryCachePrefix(shopID))
}

// ClearAll removes every cached category entry of every tenant.
func (s *CategoryService) ClearAll(ctx context.Context) error {
	return s.Store.CategoryCache().DeleteByPrefix(ctx, "categories_")
}
