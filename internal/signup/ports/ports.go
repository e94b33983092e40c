// Package ports defines the collaborator interfaces the signup module is
// composed from. Interfaces live here when consumed by more than one package
// to avoid duplication.
package ports

//go:generate mockgen -source=ports.go -destination=../service/mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"enroll/internal/audit"
	"enroll/internal/signup/models"
)

// UserStore persists and queries user records. Implementations must enforce
// email uniqueness at insert time with a storage-level constraint; the
// pre-insert existence check in the service is advisory only.
type UserStore interface {
	// EnsureSchema creates the backing structure if absent. Idempotent and
	// safe to call on every request.
	EnsureSchema(ctx context.Context) error

	// ExistsByEmail reports whether a user with the normalized email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Insert persists a draft and returns the storage-assigned identifier.
	// Returns sentinel.ErrConflict (possibly wrapped) when the email is
	// already taken.
	Insert(ctx context.Context, draft models.UserDraft, passwordHash string, createdAt time.Time) (int64, error)
}

// CounterStore is the durable slot backing the daily signup counter.
// Load returns sentinel.ErrNotFound when no counter was ever written and
// sentinel.ErrCorrupted when the persisted state cannot be decoded.
type CounterStore interface {
	Load(ctx context.Context) (models.DailyCount, error)
	Save(ctx context.Context, state models.DailyCount) error
}

// Notifier delivers the welcome message. Delivery failures are non-fatal to
// the signup outcome; the orchestrator absorbs them after the commit point.
type Notifier interface {
	SendWelcome(ctx context.Context, to, fullName string, userID int64) error
}

// AuditPublisher emits audit events for registration outcomes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
