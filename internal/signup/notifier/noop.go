package notifier

import "context"

// Noop discards welcome messages. Used when no mail relay is configured.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) SendWelcome(context.Context, string, string, int64) error { return nil }
