package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brunostein/rest-api-base/internal/model"
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

const tokenColumns = `id, username, token, revoked, revoked_at, revoked_by_username,
	total_attempts, total_failed, total_success, last_refresh_at, created_at`

func (r *TokenRepository) Create(ctx context.Context, t model.RefreshToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO api_refresh_tokens (id, username, token, created_at)
		 VALUES ($1, $2, $3, $4)`,
		t.ID, t.Username, t.Token, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) Find(ctx context.Context, username string, tokenString string) (model.RefreshToken, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM api_refresh_tokens
		 WHERE username = $1 AND token = $2`, username, tokenString)
	return scanToken(row, "find refresh token")
}

// Revoke is a one-way transition; revoking again just re-stamps the audit
// fields.
func (r *TokenRepository) Revoke(ctx context.Context, username string, tokenString string, revokedBy string) (model.RefreshToken, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE api_refresh_tokens
		 SET revoked = true, revoked_at = now(), revoked_by_username = $3
		 WHERE username = $1 AND token = $2
		 RETURNING `+tokenColumns, username, tokenString, revokedBy)
	return scanToken(row, "revoke refresh token")
}

func (r *TokenRepository) RecordAttempt(ctx context.Context, username string, tokenString string, success bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE api_refresh_tokens SET
			total_attempts  = total_attempts + 1,
			total_failed    = total_failed   + CASE WHEN $3 THEN 0 ELSE 1 END,
			total_success   = total_success  + CASE WHEN $3 THEN 1 ELSE 0 END,
			last_refresh_at = CASE WHEN $3 THEN now() ELSE last_refresh_at END
		 WHERE username = $1 AND token = $2`, username, tokenString, success)
	if err != nil {
		return fmt.Errorf("record refresh attempt: %w", err)
	}
	return nil
}

func (r *TokenRepository) DeleteAllForUsername(ctx context.Context, username string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM api_refresh_tokens WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete refresh tokens for username: %w", err)
	}
	return nil
}

func scanToken(row pgx.Row, op string) (model.RefreshToken, error) {
	var t model.RefreshToken
	var revokedBy *string
	err := row.Scan(&t.ID, &t.Username, &t.Token, &t.Revoked, &t.RevokedAt, &revokedBy,
		&t.RefreshStats.TotalAttempts, &t.RefreshStats.TotalFailed, &t.RefreshStats.TotalSuccess,
		&t.RefreshStats.Last, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RefreshToken{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("%s: %w", op, err)
	}
	if revokedBy != nil {
		t.RevokedBy = *revokedBy
	}
	return t, nil
}
