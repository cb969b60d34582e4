package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brunostein/rest-api-base/internal/model"
)

type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func (r *HistoryRepository) Record(ctx context.Context, e model.AccessEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO api_access_history (username, event, success, remote_addr, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.Username, e.Event, e.Success, e.RemoteAddr, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("record access event: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListForUsername(ctx context.Context, username string, limit int) ([]model.AccessEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT username, event, success, remote_addr, occurred_at
		 FROM api_access_history WHERE username = $1
		 ORDER BY occurred_at DESC LIMIT $2`, username, limit)
	if err != nil {
		return nil, fmt.Errorf("list access history: %w", err)
	}
	defer rows.Close()

	events := make([]model.AccessEvent, 0)
	for rows.Next() {
		var e model.AccessEvent
		if err := rows.Scan(&e.Username, &e.Event, &e.Success, &e.RemoteAddr, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan access event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *HistoryRepository) DeleteAllForUsername(ctx context.Context, username string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM api_access_history WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete access history for username: %w", err)
	}
	return nil
}
