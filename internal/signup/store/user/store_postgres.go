package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"enroll/internal/signup/models"
	"enroll/pkg/sentinel"
)

// uniqueViolation is the PostgreSQL error code raised when an insert breaks a
// unique constraint.
const uniqueViolation = "23505"

// PostgresStore persists users in PostgreSQL. The unique index on email is
// the authority on duplicates; the ExistsByEmail pre-check only provides a
// friendlier early exit.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	return &PostgresStore{db: db}, nil
}

// EnsureSchema creates the users table if absent. Idempotent and safe to call
// on every request.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id               BIGSERIAL PRIMARY KEY,
			email            TEXT NOT NULL UNIQUE,
			password_hash    TEXT NOT NULL,
			full_name        TEXT NOT NULL,
			user_type        TEXT NOT NULL,
			marketing_opt_in BOOLEAN NOT NULL DEFAULT FALSE,
			created_at       TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure users schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = $1`, email).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check email existence: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) Insert(ctx context.Context, draft models.UserDraft, passwordHash string, createdAt time.Time) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, full_name, user_type, marketing_opt_in, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, draft.Email, passwordHash, draft.FullName, draft.UserType, draft.MarketingOptIn, createdAt).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%w: email already registered", sentinel.ErrConflict)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// FindByEmail returns the stored record, or sentinel.ErrNotFound.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (models.StoredUser, error) {
	var u models.StoredUser
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, full_name, user_type, marketing_opt_in, created_at
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.UserType, &u.MarketingOptIn, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.StoredUser{}, sentinel.ErrNotFound
		}
		return models.StoredUser{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}
