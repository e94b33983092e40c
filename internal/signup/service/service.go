// Package service orchestrates the registration pipeline. The service holds
// no business state of its own, only references to collaborators, so any of
// them can be swapped without touching the orchestration.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"enroll/internal/audit"
	"enroll/internal/signup/hasher"
	"enroll/internal/signup/metrics"
	"enroll/internal/signup/models"
	"enroll/internal/signup/policy"
	"enroll/internal/signup/ports"
	"enroll/internal/signup/validator"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/sentinel"
)

// Outcome labels for metrics and span attributes.
const (
	outcomeSuccess        = "success"
	outcomeValidation     = "validation_failed"
	outcomeRateLimited    = "rate_limited"
	outcomeEmailRejected  = "email_rejected"
	outcomeDuplicateEmail = "duplicate_email"
	outcomeInternalError  = "internal_error"
)

// RateLimiter gates signup attempts against an anti-abuse ceiling.
type RateLimiter interface {
	CheckAndIncrement(ctx context.Context) error
}

// DisposablePolicy classifies an email address as throwaway.
type DisposablePolicy interface {
	IsDisposable(email string) bool
}

type Clock func() time.Time

// Service runs the registration pipeline:
// validate, rate-limit, disposable check, hash, persist, notify.
//
// The insert is the commit point. Anything failing before it leaves nothing
// persisted except the rate-limit increment; anything failing after it (the
// welcome delivery) is absorbed and never rolls the registration back.
type Service struct {
	users     ports.UserStore
	limiter   RateLimiter
	notifier  ports.Notifier
	validator *validator.Validator
	policy    DisposablePolicy
	hasher    hasher.Hasher
	salt      string

	disposableCheck bool

	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor ports.AuditPublisher
	clock   Clock
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

// WithDisposableCheck toggles the denylist stage. Enabled by default.
func WithDisposableCheck(enabled bool) Option {
	return func(s *Service) {
		s.disposableCheck = enabled
	}
}

// WithPolicy replaces the default disposable-email policy.
func WithPolicy(p DisposablePolicy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithHasher replaces the default credential hasher.
func WithHasher(h hasher.Hasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithClock sets the time source for testability.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(users ports.UserStore, limiter RateLimiter, notifier ports.Notifier, salt string, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if salt == "" {
		return nil, fmt.Errorf("password salt is required")
	}

	s := &Service{
		users:           users,
		limiter:         limiter,
		notifier:        notifier,
		validator:       validator.New(),
		policy:          policy.NewDisposableEmail(),
		hasher:          hasher.NewSHA256(),
		salt:            salt,
		disposableCheck: true,
		logger:          slog.Default(),
		clock:           time.Now,
		tracer:          otel.Tracer("enroll/signup"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Signup is the single public entry point of the core. It runs each pipeline
// stage exactly once; no stage is retried.
func (s *Service) Signup(ctx context.Context, req models.RegistrationRequest) (models.RegistrationResult, error) {
	ctx, span := s.tracer.Start(ctx, "signup")
	defer span.End()
	start := s.clock()

	draft, err := s.validator.NormalizeAndValidate(req)
	if err != nil {
		return models.RegistrationResult{}, s.reject(ctx, span, start, req.Email, outcomeValidation, err)
	}

	// The quota is consumed before the disposable check, so a rejected
	// throwaway address still counts against the day's limit.
	if err := s.limiter.CheckAndIncrement(ctx); err != nil {
		// The limiter also fails when its store cannot persist the
		// increment; that is an infrastructure outcome, not a hit ceiling.
		outcome := outcomeInternalError
		if dErrors.HasCode(err, dErrors.CodeRateLimited) {
			outcome = outcomeRateLimited
		}
		return models.RegistrationResult{}, s.reject(ctx, span, start, draft.Email, outcome, err)
	}

	if s.disposableCheck && s.policy.IsDisposable(draft.Email) {
		err := dErrors.New(dErrors.CodeEmailRejected, "disposable email is not allowed")
		return models.RegistrationResult{}, s.reject(ctx, span, start, draft.Email, outcomeEmailRejected, err)
	}

	passwordHash := s.hasher.Hash(draft.Password, s.salt)

	if err := s.users.EnsureSchema(ctx); err != nil {
		wrapped := dErrors.Wrap(err, dErrors.CodeInternal, "ensure user schema")
		return models.RegistrationResult{}, s.reject(ctx, span, start, draft.Email, outcomeInternalError, wrapped)
	}

	exists, err := s.users.ExistsByEmail(ctx, draft.Email)
	if err != nil {
		wrapped := dErrors.Wrap(err, dErrors.CodeInternal, "check existing email")
		return models.RegistrationResult{}, s.reject(ctx, span, start, draft.Email, outcomeInternalError, wrapped)
	}
	if exists {
		err := dErrors.New(dErrors.CodeConflict, "email already registered")
		return models.RegistrationResult{}, s.reject(ctx, span, start, draft.Email, outcomeDuplicateEmail, err)
	}

	createdAt := s.clock().UTC()
	userID, err := s.users.Insert(ctx, draft, passwordHash, createdAt)
	if err != nil {
		// The storage constraint is the authority on duplicates; a concurrent
		// insert racing past the existence check lands here.
		if errors.Is(err, sentinel.ErrConflict) {
			conflict := dErrors.Wrap(err, dErrors.CodeConflict, "email already registered")
			return models.RegistrationResult{}, s.reject(ctx, span, start, draft.Email, outcomeDuplicateEmail, conflict)
		}
		wrapped := dErrors.Wrap(err, dErrors.CodeInternal, "insert user")
		return models.RegistrationResult{}, s.reject(ctx, span, start, draft.Email, outcomeInternalError, wrapped)
	}

	// Commit point passed: from here the registration stands regardless of
	// what the notifier does.
	if err := s.notifier.SendWelcome(ctx, draft.Email, draft.FullName, userID); err != nil {
		s.logger.Warn("welcome delivery failed",
			"user_id", userID,
			"email", draft.Email,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.RecordWelcomeFailure()
		}
		s.emitAudit(ctx, audit.Event{
			Action: audit.ActionWelcomeFailed,
			Email:  draft.Email,
			UserID: userID,
			Reason: err.Error(),
		})
	}

	s.logger.Info("user registered", "user_id", userID, "email", draft.Email)
	s.emitAudit(ctx, audit.Event{
		Action: audit.ActionUserRegistered,
		Email:  draft.Email,
		UserID: userID,
	})
	s.finish(span, start, outcomeSuccess)

	return models.RegistrationResult{
		ID:        userID,
		Email:     draft.Email,
		FullName:  draft.FullName,
		CreatedAt: createdAt,
	}, nil
}

// reject records a terminal non-success outcome and returns the error
// unchanged for the caller.
func (s *Service) reject(ctx context.Context, span trace.Span, start time.Time, email, outcome string, err error) error {
	s.logger.Info("signup rejected", "email", email, "outcome", outcome, "error", err)
	s.emitAudit(ctx, audit.Event{
		Action: audit.ActionSignupRejected,
		Email:  email,
		Reason: outcome,
	})
	s.finish(span, start, outcome)
	return err
}

func (s *Service) finish(span trace.Span, start time.Time, outcome string) {
	span.SetAttributes(attribute.String("signup.outcome", outcome))
	if s.metrics != nil {
		s.metrics.RecordOutcome(outcome)
		s.metrics.ObserveDuration(s.clock().Sub(start).Seconds())
	}
}

// emitAudit is best-effort; a failing audit sink must not affect the signup
// outcome.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.Warn("audit emit failed", "action", event.Action, "error", err)
	}
}
