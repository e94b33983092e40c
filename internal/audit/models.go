// Package audit records registration outcomes as append-only events. Kafka is
// the durable sink; an in-memory publisher backs tests and single-binary
// deployments.
package audit

import "time"

// Actions emitted by the signup pipeline.
const (
	ActionUserRegistered = "user_registered"
	ActionSignupRejected = "signup_rejected"
	ActionWelcomeFailed  = "welcome_email_failed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out. Field names are part of the
// consumer contract; do not rename without versioning the topic.
type Event struct {
	ID        string    `json:"ID"`
	Action    string    `json:"Action"`
	Email     string    `json:"Email,omitempty"`
	UserID    int64     `json:"UserID,omitempty"`
	Reason    string    `json:"Reason,omitempty"`
	Timestamp time.Time `json:"Timestamp"`
}
