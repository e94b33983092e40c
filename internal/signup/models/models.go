// Package models holds the data types flowing through the registration
// pipeline.
package models

import "time"

// RegistrationRequest is the raw, untrusted signup payload. It carries no
// invariants; any field may be missing or malformed.
type RegistrationRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	UserType       string `json:"user_type,omitempty"`
	MarketingOptIn bool   `json:"marketing_opt_in,omitempty"`
}

// UserDraft is a validated, normalized, not-yet-persisted user. Only the
// validator constructs one; holding a UserDraft means every validation rule
// already passed. The password is still plaintext at this stage.
type UserDraft struct {
	Email          string
	FullName       string
	UserType       string
	Password       string
	MarketingOptIn bool
}

// StoredUser is the durable user record as persisted by a UserStore. The ID
// is assigned by storage and never reused.
type StoredUser struct {
	ID             int64
	Email          string
	PasswordHash   string
	FullName       string
	UserType       string
	MarketingOptIn bool
	CreatedAt      time.Time
}

// DailyCount is the state of the daily signup counter: how many signups were
// accepted on a given UTC calendar day. A counter belongs to exactly one day.
type DailyCount struct {
	Date  string `json:"date"` // UTC calendar day, YYYY-MM-DD
	Count int    `json:"count"`
}

// RegistrationResult is the public response contract for a successful signup.
type RegistrationResult struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// DayOf formats a time as the UTC calendar day a counter is keyed by.
func DayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
