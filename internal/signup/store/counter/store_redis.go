package counter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"enroll/internal/signup/models"
	"enroll/pkg/sentinel"
)

const redisKey = "signup:daily_counter"

// counterTTL keeps stale counters from accumulating; two days covers any
// rollover read.
const counterTTL = 48 * time.Hour

// RedisStore persists the counter as a JSON value under a single key, shared
// across instances.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Load(ctx context.Context) (models.DailyCount, error) {
	raw, err := s.client.Get(ctx, redisKey).Result()
	if err != nil {
		if err == redis.Nil {
			return models.DailyCount{}, sentinel.ErrNotFound
		}
		return models.DailyCount{}, fmt.Errorf("read counter key: %w", err)
	}

	var state models.DailyCount
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return models.DailyCount{}, fmt.Errorf("%w: decode counter value: %v", sentinel.ErrCorrupted, err)
	}
	if state.Count < 0 {
		return models.DailyCount{}, fmt.Errorf("%w: negative count %d", sentinel.ErrCorrupted, state.Count)
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, state models.DailyCount) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode counter state: %w", err)
	}
	if err := s.client.Set(ctx, redisKey, raw, counterTTL).Err(); err != nil {
		return fmt.Errorf("write counter key: %w", err)
	}
	return nil
}
