package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/webshoptools/shopedit/internal/editor/domain"
)

type categoryCacheRepo struct {
	db *sql.DB
}

func (r *categoryCacheRepo) Get(ctx context.Context, key string) (domain.CachedCategorySet, error) {
	var (
		payload   string
		fetchedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM category_cache WHERE cache_key = ?`, key).
		Scan(&payload, &fetchedAt)
	if err != nil {
		return domain.CachedCategorySet{}, mapNotFound(err)
	}

	var categories []domain.CategoryRecord
	if err := json.Unmarshal([]byte(payload), &categories); err != nil {
		return domain.CachedCategorySet{}, fmt.Errorf("decode cache payload %s: %w", key, err)
	}

	return domain.CachedCategorySet{Categories: categories, FetchedAt: fetchedAt}, nil
}

func (r *categoryCacheRepo) Put(ctx context.Context, key, shopID string, languageID int, set domain.CachedCategorySet) error {
	payload, err := json.Marshal(set.Categories)
	if err != nil {
		return fmt.Errorf("encode cache payload %s: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO category_cache (cache_key, shop_id, language_id, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at`,
		key, shopID, languageID, string(payload), set.FetchedAt)
	return err
}

// DeleteByPrefix matches on a literal prefix. LIKE is avoided because cache
// keys contain underscores, which LIKE treats as a wildcard.
func (r *categoryCacheRepo) DeleteByPrefix(ctx context.Context, prefix string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM category_cache WHERE substr(cache_key, 1, ?) = ?`,
		len(prefix), prefix)
	return err
}
