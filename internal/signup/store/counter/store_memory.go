// Package counter provides durable slots for the daily signup counter.
package counter

import (
	"context"
	"sync"

	"enroll/internal/signup/models"
	"enroll/pkg/sentinel"
)

// InMemoryStore holds the counter in process memory. Suitable for tests and
// single-instance deployments that accept losing the count on restart.
type InMemoryStore struct {
	mu    sync.RWMutex
	state models.DailyCount
	set   bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Load(_ context.Context) (models.DailyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return models.DailyCount{}, sentinel.ErrNotFound
	}
	return s.state, nil
}

func (s *InMemoryStore) Save(_ context.Context, state models.DailyCount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.set = true
	return nil
}
