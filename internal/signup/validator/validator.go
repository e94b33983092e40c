// Package validator turns raw registration payloads into well-formed drafts.
package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"enroll/internal/signup/models"
	dErrors "enroll/pkg/domain-errors"
)

// DefaultUserType is assigned when the request does not specify one.
const DefaultUserType = "NORMAL"

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 10

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validator normalizes and validates signup input. It is stateless and safe
// for concurrent use.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// NormalizeAndValidate produces a UserDraft from raw input, or a
// CodeValidation error naming the first rule that failed. Normalization:
// email is trimmed and lowercased, full name has its whitespace collapsed,
// user type is trimmed, uppercased and defaulted. The operation is pure and
// idempotent on its own output.
func (v *Validator) NormalizeAndValidate(req models.RegistrationRequest) (models.UserDraft, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.Join(strings.Fields(req.FullName), " ")
	userType := strings.ToUpper(strings.TrimSpace(req.UserType))
	if userType == "" {
		userType = DefaultUserType
	}

	if email == "" {
		return models.UserDraft{}, dErrors.New(dErrors.CodeValidation, "missing email")
	}
	if !emailPattern.MatchString(email) {
		return models.UserDraft{}, dErrors.New(dErrors.CodeValidation, "invalid email format")
	}
	// Counted in runes so multibyte passwords are measured the way users
	// type them, not by encoding size.
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		return models.UserDraft{}, dErrors.New(dErrors.CodeValidation, "password too short")
	}
	if fullName == "" {
		return models.UserDraft{}, dErrors.New(dErrors.CodeValidation, "missing full_name")
	}

	return models.UserDraft{
		Email:          email,
		FullName:       fullName,
		UserType:       userType,
		Password:       req.Password,
		MarketingOptIn: req.MarketingOptIn,
	}, nil
}
