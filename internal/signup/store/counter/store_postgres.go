package counter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"enroll/internal/signup/models"
	"enroll/pkg/sentinel"
)

// PostgresStore keeps the counter in a single-row table so the slot survives
// restarts and is shared across instances.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the counter table if absent. Idempotent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS signup_daily_counter (
			slot  INT PRIMARY KEY DEFAULT 1 CHECK (slot = 1),
			day   TEXT NOT NULL,
			count INT  NOT NULL CHECK (count >= 0)
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure counter schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (models.DailyCount, error) {
	var state models.DailyCount
	err := s.pool.QueryRow(ctx,
		`SELECT day, count FROM signup_daily_counter WHERE slot = 1`,
	).Scan(&state.Date, &state.Count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.DailyCount{}, sentinel.ErrNotFound
		}
		return models.DailyCount{}, fmt.Errorf("read counter row: %w", err)
	}
	return state, nil
}

func (s *PostgresStore) Save(ctx context.Context, state models.DailyCount) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO signup_daily_counter (slot, day, count)
		VALUES (1, $1, $2)
		ON CONFLICT (slot) DO UPDATE SET
			day = EXCLUDED.day,
			count = EXCLUDED.count
	`, state.Date, state.Count)
	if err != nil {
		return fmt.Errorf("write counter row: %w", err)
	}
	return nil
}
