package counter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"enroll/internal/signup/models"
	"enroll/pkg/sentinel"
)

// FileStore persists the counter as a small JSON file. This is the original
// deployment shape; writes go through a temp file and rename so a crash never
// leaves a half-written counter.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("counter file path is required")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Load(_ context.Context) (models.DailyCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.DailyCount{}, sentinel.ErrNotFound
		}
		return models.DailyCount{}, fmt.Errorf("read counter file: %w", err)
	}

	var state models.DailyCount
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.DailyCount{}, fmt.Errorf("%w: decode counter file: %v", sentinel.ErrCorrupted, err)
	}
	if state.Count < 0 {
		return models.DailyCount{}, fmt.Errorf("%w: negative count %d", sentinel.ErrCorrupted, state.Count)
	}
	return state, nil
}

func (s *FileStore) Save(_ context.Context, state models.DailyCount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode counter state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write counter file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace counter file: %w", err)
	}
	return nil
}
