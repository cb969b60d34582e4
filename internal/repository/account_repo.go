package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brunostein/rest-api-base/internal/model"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, email, username, password_hash, scope, blocked,
	total_attempts, total_failed, total_success, last_auth_at, created_at, updated_at`

func (r *AccountRepository) FindByID(ctx context.Context, id string) (model.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM api_accounts WHERE id = $1`, id)
	return scanAccount(row, "find account by id")
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (model.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM api_accounts WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username))
	return scanAccount(row, "find account by username")
}

func (r *AccountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM api_accounts WHERE lower(username) = lower($1))`,
		strings.TrimSpace(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}
	return exists, nil
}

func (r *AccountRepository) Create(ctx context.Context, a model.Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO api_accounts (id, email, username, password_hash, scope, blocked, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Email, a.Username, a.PasswordHash, a.Scope, a.Blocked, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) Update(ctx context.Context, a model.Account) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE api_accounts
		 SET email = $2, username = $3, password_hash = $4, scope = $5, blocked = $6, updated_at = $7
		 WHERE id = $1`,
		a.ID, a.Email, a.Username, a.PasswordHash, a.Scope, a.Blocked, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE api_accounts SET blocked = $2, updated_at = now() WHERE id = $1`, id, blocked)
	if err != nil {
		return fmt.Errorf("set account blocked: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

// RecordAttempt bumps the attempt counters in a single UPDATE so two
// concurrent sign-ins cannot lose an increment.
func (r *AccountRepository) RecordAttempt(ctx context.Context, id string, success bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE api_accounts SET
			total_attempts = total_attempts + 1,
			total_failed   = total_failed   + CASE WHEN $2 THEN 0 ELSE 1 END,
			total_success  = total_success  + CASE WHEN $2 THEN 1 ELSE 0 END,
			last_auth_at   = CASE WHEN $2 THEN now() ELSE last_auth_at END,
			updated_at     = now()
		 WHERE id = $1`, id, success)
	if err != nil {
		return fmt.Errorf("record auth attempt: %w", err)
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM api_accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context) ([]model.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM api_accounts ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]model.Account, 0)
	for rows.Next() {
		a, scanErr := scanAccount(rows, "scan account")
		if scanErr != nil {
			return nil, scanErr
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanAccount(row pgx.Row, op string) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Email, &a.Username, &a.PasswordHash, &a.Scope, &a.Blocked,
		&a.AuthStats.TotalAttempts, &a.AuthStats.TotalFailed, &a.AuthStats.TotalSuccess,
		&a.AuthStats.Last, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, model.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}
