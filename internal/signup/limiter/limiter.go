// Package limiter enforces the daily signup ceiling over a pluggable counter
// store.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"enroll/internal/signup/models"
	"enroll/internal/signup/ports"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/sentinel"
)

type Clock func() time.Time

// Daily tracks a rolling counter of accepted signups per UTC calendar day and
// rejects attempts once the configured limit is reached. The check runs before
// the increment, so the attempt that trips the ceiling never consumes quota.
type Daily struct {
	store  ports.CounterStore
	limit  int
	clock  Clock
	logger *slog.Logger

	// mu serializes the read-modify-write cycle for in-process callers.
	// Cross-process atomicity is the counter store's concern.
	mu sync.Mutex
}

type Option func(*Daily)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Daily) {
		d.logger = logger
	}
}

// WithClock sets the time source for testability.
func WithClock(clock Clock) Option {
	return func(d *Daily) {
		if clock != nil {
			d.clock = clock
		}
	}
}

func New(store ports.CounterStore, limit int, opts ...Option) (*Daily, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("daily limit must be positive, got %d", limit)
	}

	d := &Daily{
		store:  store,
		limit:  limit,
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// CheckAndIncrement consumes one unit of today's quota, or returns a
// CodeRateLimited error when the day's count already reached the limit.
//
// A counter persisted for an earlier day resets to zero before the check.
// Unreadable or corrupted state also counts as zero: the limiter fails open,
// favoring availability over strict abuse prevention.
func (d *Daily) CheckAndIncrement(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	today := models.DayOf(d.clock())

	state, err := d.store.Load(ctx)
	if err != nil {
		// A counter that was never written is the expected first-run state;
		// only unreadable or corrupted state warrants the fail-open warning.
		if !errors.Is(err, sentinel.ErrNotFound) {
			d.logger.Warn("signup counter unreadable, treating as zero", "error", err)
		}
		state = models.DailyCount{Date: today}
	}
	if state.Date != today {
		state = models.DailyCount{Date: today}
	}

	if state.Count >= d.limit {
		return dErrors.New(dErrors.CodeRateLimited, "daily signup limit reached")
	}

	state.Count++
	if err := d.store.Save(ctx, state); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist signup counter")
	}
	return nil
}
