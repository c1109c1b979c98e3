package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/webshoptools/shopedit/internal/editor/store"
)

const settingDomainWhitelist = "domain_whitelist"

type settingsRepo struct {
	db *sql.DB
}

func (r *settingsRepo) DomainWhitelist(ctx context.Context) ([]string, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingDomainWhitelist).Scan(&raw)
	if errors.Is(mapNotFound(err), store.ErrNotFound) {
		// Never stored yet; an absent whitelist means no restriction.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var hosts []string
	if err := json.Unmarshal([]byte(raw), &hosts); err != nil {
		return nil, fmt.Errorf("decode domain whitelist: %w", err)
	}
	return hosts, nil
}

func (r *settingsRepo) SetDomainWhitelist(ctx context.Context, hosts []string) error {
	if hosts == nil {
		hosts = []string{}
	}
	raw, err := json.Marshal(hosts)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingDomainWhitelist, string(raw))
	return err
}
