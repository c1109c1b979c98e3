package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/webshoptools/shopedit/internal/editor/domain"
	"github.com/webshoptools/shopedit/pkg/cryptox"
)

// tenantsRepo persists TenantConfig rows. Client secrets are encrypted at
// rest; rows read back are returned with the secret in the clear.
type tenantsRepo struct {
	db *sql.DB
}

const tenantColumns = `shop_id, client_id, client_secret, display_name, access_token, token_expiry, created_at, updated_at`

func (r *tenantsRepo) GetByShopID(ctx context.Context, shopID string) (domain.TenantConfig, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE shop_id = ?`, shopID)
	return scanTenant(row)
}

func (r *tenantsRepo) GetByClientID(ctx context.Context, clientID string) (domain.TenantConfig, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE client_id = ? ORDER BY created_at LIMIT 1`, clientID)
	return scanTenant(row)
}

func (r *tenantsRepo) List(ctx context.Context) ([]domain.TenantConfig, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY shop_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TenantConfig
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *tenantsRepo) Upsert(ctx context.Context, cfg domain.TenantConfig) error {
	secret, err := cryptox.EncryptSecret(cfg.ClientSecret)
	if err != nil {
		return fmt.Errorf("encrypt client secret: %w", err)
	}

	now := nowUTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tenants (shop_id, client_id, client_secret, display_name, access_token, token_expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', NULL, ?, ?)
		ON CONFLICT(shop_id) DO UPDATE SET
			client_id = excluded.client_id,
			client_secret = excluded.client_secret,
			display_name = excluded.display_name,
			updated_at = excluded.updated_at`,
		cfg.ShopID, cfg.ClientID, secret, cfg.DisplayName, now, now)
	return err
}

func (r *tenantsRepo) UpdateToken(ctx context.Context, shopID, accessToken string, expiry int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tenants SET access_token = ?, token_expiry = ?, updated_at = ?
		WHERE shop_id = ?`,
		accessToken, mapIntNull(expiry), nowUTC(), shopID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func (r *tenantsRepo) Delete(ctx context.Context, shopID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE shop_id = ?`, shopID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (domain.TenantConfig, error) {
	var (
		t      domain.TenantConfig
		secret string
		expiry sql.NullInt64
	)
	err := row.Scan(&t.ShopID, &t.ClientID, &secret, &t.DisplayName,
		&t.AccessToken, &expiry, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.TenantConfig{}, mapNotFound(err)
	}

	t.TokenExpiry = mapNullInt(expiry)
	t.ClientSecret, err = cryptox.DecryptSecret(secret)
	if err != nil {
		return domain.TenantConfig{}, fmt.Errorf("decrypt client secret for %s: %w", t.ShopID, err)
	}
	return t, nil
}
