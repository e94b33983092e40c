// Package user provides the persistence implementations behind the
// registration repository contract.
package user

import (
	"context"
	"sync"
	"time"

	"enroll/internal/signup/models"
	"enroll/pkg/sentinel"
)

// InMemoryStore keeps users in a map guarded by a mutex. The email uniqueness
// check happens under the same lock as the insert, giving it the same
// exactly-one-winner guarantee the postgres constraint provides.
type InMemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]models.StoredUser
	nextID  int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byEmail: make(map[string]models.StoredUser),
		nextID:  1,
	}
}

// EnsureSchema is a no-op for the in-memory store; kept so the repository
// contract stays uniform.
func (s *InMemoryStore) EnsureSchema(_ context.Context) error { return nil }

func (s *InMemoryStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *InMemoryStore) Insert(_ context.Context, draft models.UserDraft, passwordHash string, createdAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[draft.Email]; taken {
		return 0, sentinel.ErrConflict
	}

	id := s.nextID
	s.nextID++
	s.byEmail[draft.Email] = models.StoredUser{
		ID:             id,
		Email:          draft.Email,
		PasswordHash:   passwordHash,
		FullName:       draft.FullName,
		UserType:       draft.UserType,
		MarketingOptIn: draft.MarketingOptIn,
		CreatedAt:      createdAt,
	}
	return id, nil
}

// FindByEmail returns the stored record, or sentinel.ErrNotFound. Used by
// tests to inspect persisted state.
func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (models.StoredUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byEmail[email]
	if !ok {
		return models.StoredUser{}, sentinel.ErrNotFound
	}
	return u, nil
}

// Count returns the number of stored users.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail)
}
