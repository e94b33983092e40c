package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enroll/internal/audit"
	"enroll/internal/signup/hasher"
	"enroll/internal/signup/limiter"
	"enroll/internal/signup/metrics"
	"enroll/internal/signup/models"
	"enroll/internal/signup/ports"
	"enroll/internal/signup/service"
	"enroll/internal/signup/store/counter"
	"enroll/internal/signup/store/user"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/sentinel"
)

const testSalt = "dev_salt"

var testTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *service.Service
	users    *user.InMemoryStore
	counters *counter.InMemoryStore
	trail    *audit.Memory
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	dailyLimit int
	extra      []service.Option
}

func withDailyLimit(n int) fixtureOption {
	return func(c *fixtureConfig) { c.dailyLimit = n }
}

func withOptions(opts ...service.Option) fixtureOption {
	return func(c *fixtureConfig) { c.extra = append(c.extra, opts...) }
}

func newFixture(t *testing.T, notify ports.Notifier, opts ...fixtureOption) fixture {
	t.Helper()

	cfg := fixtureConfig{dailyLimit: 100}
	for _, opt := range opts {
		opt(&cfg)
	}
	if notify == nil {
		notify = okNotifier{}
	}

	users := user.NewInMemoryStore()
	counters := counter.NewInMemoryStore()
	trail := audit.NewMemory()

	lim, err := limiter.New(counters, cfg.dailyLimit,
		limiter.WithClock(func() time.Time { return testTime }))
	require.NoError(t, err)

	options := append([]service.Option{
		service.WithClock(func() time.Time { return testTime }),
		service.WithAuditPublisher(trail),
	}, cfg.extra...)

	svc, err := service.New(users, lim, notify, testSalt, options...)
	require.NoError(t, err)

	return fixture{svc: svc, users: users, counters: counters, trail: trail}
}

func validRequest() models.RegistrationRequest {
	return models.RegistrationRequest{
		Email:    "jane@example.com",
		Password: "longenough1",
		FullName: "Jane Doe",
	}
}

func TestSignupHappyPath(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.svc.Signup(context.Background(), models.RegistrationRequest{
		Email:    "  A@B.com ",
		Password: "longenough1",
		FullName: "  Jane   Doe ",
	})
	require.NoError(t, err)

	assert.Equal(t, "a@b.com", result.Email)
	assert.Equal(t, "Jane Doe", result.FullName)
	assert.Positive(t, result.ID)
	assert.Equal(t, testTime.UTC(), result.CreatedAt)

	stored, err := f.users.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, result.ID, stored.ID)
	assert.Equal(t, hasher.NewSHA256().Hash("longenough1", testSalt), stored.PasswordHash)
	assert.Equal(t, "NORMAL", stored.UserType)

	events := f.trail.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionUserRegistered, events[0].Action)
	assert.Equal(t, result.ID, events[0].UserID)
}

func TestSignupValidationFailure(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Signup(context.Background(), models.RegistrationRequest{
		Email:    "jane@example.com",
		Password: "short",
		FullName: "Jane Doe",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	assert.Zero(t, f.users.Count(), "nothing may be persisted on validation failure")

	_, counterErr := f.counters.Load(context.Background())
	assert.ErrorIs(t, counterErr, sentinel.ErrNotFound,
		"validation runs before the limiter, so no quota is consumed")
}

func TestSignupRateLimited(t *testing.T) {
	f := newFixture(t, nil, withDailyLimit(1))
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, validRequest())
	require.NoError(t, err)

	second := validRequest()
	second.Email = "john@example.com"
	second.FullName = "John Doe"
	_, err = f.svc.Signup(ctx, second)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRateLimited))
	assert.Equal(t, 1, f.users.Count())
}

func TestSignupDisposableEmail(t *testing.T) {
	t.Run("rejected after the quota is consumed", func(t *testing.T) {
		f := newFixture(t, nil)

		req := validRequest()
		req.Email = "jane@mailinator.com"
		_, err := f.svc.Signup(context.Background(), req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEmailRejected))

		state, err := f.counters.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, state.Count,
			"the limiter increment precedes the disposable check")
		assert.Zero(t, f.users.Count())
	})

	t.Run("accepted when the check is disabled", func(t *testing.T) {
		f := newFixture(t, nil, withOptions(service.WithDisposableCheck(false)))

		req := validRequest()
		req.Email = "jane@mailinator.com"
		_, err := f.svc.Signup(context.Background(), req)
		assert.NoError(t, err)
	})
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, validRequest())
	require.NoError(t, err)

	_, err = f.svc.Signup(ctx, validRequest())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Equal(t, 1, f.users.Count())
}

func TestSignupConcurrentSameEmail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	wg.Add(attempts)

	var mu sync.Mutex
	var winners, conflicts int

	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := f.svc.Signup(ctx, validRequest())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one concurrent signup may win")
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, f.users.Count())
}

func TestSignupFailingNotifierStillSucceeds(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	// The registration is already committed when delivery runs, so a dead
	// relay must not change the outcome.
	f := newFixture(t, failingNotifier{}, withOptions(service.WithMetrics(m)))

	result, err := f.svc.Signup(context.Background(), validRequest())
	require.NoError(t, err)

	stored, err := f.users.FindByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, result.ID,
		"the result carries the identifier the repository produced")

	assert.Equal(t, float64(1),
		promtestutil.ToFloat64(m.WelcomeDeliveryFailure))
	assert.Equal(t, float64(1),
		promtestutil.ToFloat64(m.SignupsTotal.WithLabelValues("success")))

	events := f.trail.Events()
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionWelcomeFailed, events[0].Action)
	assert.Equal(t, audit.ActionUserRegistered, events[1].Action)
}

func TestSignupLimiterStoreFailureIsInternal(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	trail := audit.NewMemory()
	users := user.NewInMemoryStore()

	svc, err := service.New(users, failingLimiter{}, okNotifier{}, testSalt,
		service.WithMetrics(m),
		service.WithAuditPublisher(trail),
	)
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.Zero(t, users.Count())

	// A counter store that cannot persist the increment is an infrastructure
	// failure; it must not show up as a hit ceiling.
	assert.Equal(t, float64(1),
		promtestutil.ToFloat64(m.SignupsTotal.WithLabelValues("internal_error")))
	assert.Zero(t,
		promtestutil.ToFloat64(m.SignupsTotal.WithLabelValues("rate_limited")))

	events := trail.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionSignupRejected, events[0].Action)
	assert.Equal(t, "internal_error", events[0].Reason)
}

func TestSignupAuditTrailOnRejection(t *testing.T) {
	f := newFixture(t, nil, withDailyLimit(1))
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Email = "other@example.com"
	_, err = f.svc.Signup(ctx, req)
	require.Error(t, err)

	events := f.trail.Events()
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionUserRegistered, events[0].Action)
	assert.Equal(t, audit.ActionSignupRejected, events[1].Action)
	assert.Equal(t, "rate_limited", events[1].Reason)
	assert.Equal(t, "other@example.com", events[1].Email)
}

func TestSignupPBKDF2Hasher(t *testing.T) {
	f := newFixture(t, nil, withOptions(service.WithHasher(hasher.NewPBKDF2())))

	_, err := f.svc.Signup(context.Background(), validRequest())
	require.NoError(t, err)

	stored, err := f.users.FindByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, hasher.NewPBKDF2().Hash("longenough1", testSalt), stored.PasswordHash)
}

func TestNewValidation(t *testing.T) {
	lim, err := limiter.New(counter.NewInMemoryStore(), 10)
	require.NoError(t, err)
	users := user.NewInMemoryStore()

	cases := []struct {
		name string
		call func() (*service.Service, error)
	}{
		{"nil user store", func() (*service.Service, error) {
			return service.New(nil, lim, okNotifier{}, testSalt)
		}},
		{"nil limiter", func() (*service.Service, error) {
			return service.New(users, nil, okNotifier{}, testSalt)
		}},
		{"nil notifier", func() (*service.Service, error) {
			return service.New(users, lim, nil, testSalt)
		}},
		{"empty salt", func() (*service.Service, error) {
			return service.New(users, lim, okNotifier{}, "")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.call()
			assert.Error(t, err)
		})
	}
}

type okNotifier struct{}

func (okNotifier) SendWelcome(context.Context, string, string, int64) error { return nil }

type failingNotifier struct{}

func (failingNotifier) SendWelcome(context.Context, string, string, int64) error {
	return errors.New("smtp: connection refused")
}

type failingLimiter struct{}

func (failingLimiter) CheckAndIncrement(context.Context) error {
	return dErrors.Wrap(errors.New("disk full"), dErrors.CodeInternal, "persist signup counter")
}
