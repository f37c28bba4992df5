// Package settings provides key-value configuration at two scopes: per
// tenant (tenant_config inside each tenant schema) and system wide
// (public.system_config). Both use upsert semantics keyed by the unique
// setting key.
package settings

import (
	"context"
	"errors"
	"log/slog"

	"github.com/invoiceflow/invoiceflow/pkg/pg"
	"github.com/invoiceflow/invoiceflow/pkg/tstore"
)

// ErrSettingNotFound is returned when no setting exists under the key.
var ErrSettingNotFound = errors.New("setting not found")

const upsertTemplate = `INSERT INTO ` + tstore.TablePlaceholder + ` AS c (key, value, description)
	VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value,
	    description = COALESCE(EXCLUDED.description, c.description),
	    updated_at = now()
	RETURNING *`

// TenantSettings reads and writes the calling tenant's tenant_config table.
type TenantSettings struct {
	store *tstore.Store
}

func NewTenantSettings(db tstore.DB, log *slog.Logger) *TenantSettings {
	return &TenantSettings{
		store: tstore.New(db, "tenant_config", tstore.WithLogger(log)),
	}
}

// GetSetting returns the setting record for the key or ErrSettingNotFound.
func (s *TenantSettings) GetSetting(ctx context.Context, key string) (tstore.Record, error) {
	recs, err := s.store.Find(ctx, tstore.Record{"key": key}, tstore.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrSettingNotFound
	}
	return recs[0], nil
}

// SetSetting inserts the setting or updates it in place. A nil description
// keeps any existing one.
func (s *TenantSettings) SetSetting(ctx context.Context, key, value string, description *string) (tstore.Record, error) {
	recs, err := s.store.RawQuery(ctx, upsertTemplate, key, value, description)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("upsert returned no row")
	}
	return recs[0], nil
}

// SystemSettings is the public-schema counterpart used by admin tooling.
// It is not tenant-scoped and requires no tenant context.
type SystemSettings struct {
	db tstore.DB
}

func NewSystemSettings(db tstore.DB) *SystemSettings {
	return &SystemSettings{db: db}
}

const systemTable = "public.system_config"

// GetSetting returns the system-wide value for the key.
func (s *SystemSettings) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx,
		"SELECT value FROM "+systemTable+" WHERE key = $1", key).Scan(&value)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return "", ErrSettingNotFound
		}
		return "", err
	}
	return value, nil
}

// SetSetting upserts the system-wide value for the key.
func (s *SystemSettings) SetSetting(ctx context.Context, key, value string, description *string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO `+systemTable+` AS c (key, value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    description = COALESCE(EXCLUDED.description, c.description),
		    updated_at = now()`,
		key, value, description)
	return err
}
