// Package domainerrors provides the error type shared by all services.
// Errors carry a machine-readable code so callers can branch on the outcome
// of an operation without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks malformed or rule-violating input. Recoverable by
	// resubmitting corrected input.
	CodeValidation Code = "validation"
	// CodeRateLimited marks requests rejected by an anti-abuse ceiling.
	// Transient; recoverable after the quota window resets.
	CodeRateLimited Code = "rate_limited"
	// CodeEmailRejected marks addresses refused by policy (disposable
	// domains). Permanent for that address.
	CodeEmailRejected Code = "email_rejected"
	// CodeConflict marks writes rejected by a uniqueness constraint, e.g. an
	// already-registered email.
	CodeConflict Code = "conflict"
	// CodeDeliveryFailed marks notification transport failures. Absorbed by
	// the orchestrator, observable only via logs and metrics.
	CodeDeliveryFailed Code = "delivery_failed"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. Returns nil when
// err is nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err, or any error in its chain, carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// CodeOf returns the code of the outermost domain error in the chain, or
// CodeInternal when err carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is delegates to errors.Is; kept so callers importing this package do not
// also need the stdlib errors import.
func Is(err, target error) bool { return errors.Is(err, target) }
