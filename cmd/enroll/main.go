// Command enroll wires the signup service and processes a single
// registration request: JSON on stdin, JSON result on stdout. Transport
// beyond that (HTTP, queues) is deliberately outside the core.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"enroll/internal/audit"
	"enroll/internal/platform/config"
	"enroll/internal/platform/logger"
	"enroll/internal/platform/postgres"
	platformredis "enroll/internal/platform/redis"
	"enroll/internal/signup/hasher"
	"enroll/internal/signup/limiter"
	"enroll/internal/signup/metrics"
	"enroll/internal/signup/models"
	"enroll/internal/signup/notifier"
	"enroll/internal/signup/ports"
	"enroll/internal/signup/service"
	"enroll/internal/signup/store/counter"
	"enroll/internal/signup/store/user"
	dErrors "enroll/pkg/domain-errors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "enroll: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	users, closeUsers, err := buildUserStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeUsers()

	counters, closeCounters, err := buildCounterStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCounters()

	lim, err := limiter.New(counters, cfg.DailySignupLimit, limiter.WithLogger(log))
	if err != nil {
		return err
	}

	var notify ports.Notifier = notifier.NewNoop()
	if cfg.SMTPHost != "" {
		notify, err = notifier.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailFrom)
		if err != nil {
			return err
		}
	}

	auditor, closeAudit, err := buildAuditPublisher(cfg)
	if err != nil {
		return err
	}
	defer closeAudit()

	svc, err := service.New(users, lim, notify, cfg.PasswordSalt,
		service.WithLogger(log),
		service.WithMetrics(metrics.New(nil)),
		service.WithAuditPublisher(auditor),
		service.WithDisposableCheck(cfg.DisposableCheck),
		service.WithHasher(hasher.ForName(cfg.PasswordHasher)),
	)
	if err != nil {
		return err
	}

	var req models.RegistrationRequest
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	result, err := svc.Signup(ctx, req)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(result)
}

func buildUserStore(ctx context.Context, cfg config.Config) (ports.UserStore, func(), error) {
	if cfg.DatabaseURL == "" {
		return user.NewInMemoryStore(), func() {}, nil
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store, err := user.NewPostgresStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, func() { _ = db.Close() }, nil
}

func buildCounterStore(ctx context.Context, cfg config.Config) (ports.CounterStore, func(), error) {
	noop := func() {}
	switch cfg.CounterBackend {
	case "memory":
		return counter.NewInMemoryStore(), noop, nil
	case "redis":
		client, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, fmt.Errorf("COUNTER_BACKEND=redis requires REDIS_URL")
		}
		store, err := counter.NewRedisStore(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, func() { _ = client.Close() }, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("COUNTER_BACKEND=postgres requires DATABASE_URL")
		}
		pool, err := postgres.OpenPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := counter.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, func() { pool.Close() }, nil
	default:
		store, err := counter.NewFileStore(cfg.CounterFile)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	}
}

func buildAuditPublisher(cfg config.Config) (ports.AuditPublisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewMemory(), func() {}, nil
	}
	kafka, err := audit.NewKafka(cfg.KafkaBrokers, cfg.AuditTopic)
	if err != nil {
		return nil, nil, err
	}
	return kafka, kafka.Close, nil
}

// exitCode maps the error taxonomy onto distinct process exit codes so shell
// callers can branch on the outcome.
func exitCode(err error) int {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation:
		return 2
	case dErrors.CodeRateLimited:
		return 3
	case dErrors.CodeEmailRejected:
		return 4
	case dErrors.CodeConflict:
		return 5
	default:
		return 1
	}
}
