package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brunostein/rest-api-base/internal/model"
)

// SettingsRepository reads and writes the single runtime-settings row. TTLs
// are stored as milliseconds.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

func (r *SettingsRepository) Get(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	var accessTTLMs, refreshTTLMs int64
	err := r.pool.QueryRow(ctx,
		`SELECT company_name, company_website, company_support_email, token_scheme,
		        access_token_secret, access_token_ttl_ms,
		        refresh_token_enabled, refresh_token_secret, refresh_token_ttl_ms,
		        refresh_token_rotation, access_history_enabled, updated_at
		 FROM api_settings WHERE id = 1`).
		Scan(&s.CompanyName, &s.CompanyWebsite, &s.CompanySupportEmail, &s.TokenScheme,
			&s.AccessTokenSecret, &accessTTLMs,
			&s.RefreshTokenEnabled, &s.RefreshTokenSecret, &refreshTTLMs,
			&s.RefreshTokenRotation, &s.AccessHistoryEnabled, &s.UpdatedAt)
	if err != nil {
		return model.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	s.AccessTokenTTL = time.Duration(accessTTLMs) * time.Millisecond
	s.RefreshTokenTTL = time.Duration(refreshTTLMs) * time.Millisecond
	return s, nil
}

func (r *SettingsRepository) Update(ctx context.Context, s model.Settings) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE api_settings SET
			company_name = $1, company_website = $2, company_support_email = $3,
			token_scheme = $4, access_token_secret = $5, access_token_ttl_ms = $6,
			refresh_token_enabled = $7, refresh_token_secret = $8, refresh_token_ttl_ms = $9,
			refresh_token_rotation = $10, access_history_enabled = $11, updated_at = now()
		 WHERE id = 1`,
		s.CompanyName, s.CompanyWebsite, s.CompanySupportEmail,
		s.TokenScheme, s.AccessTokenSecret, s.AccessTokenTTL.Milliseconds(),
		s.RefreshTokenEnabled, s.RefreshTokenSecret, s.RefreshTokenTTL.Milliseconds(),
		s.RefreshTokenRotation, s.AccessHistoryEnabled)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
