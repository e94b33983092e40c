// Package policy holds signup acceptance policies that are pure functions of
// the draft, with no storage or transport concerns.
package policy

import "strings"

// defaultBlockedDomains are domains of known throwaway mailbox providers.
var defaultBlockedDomains = []string{
	"tempmail.com",
	"mailinator.com",
	"10minutemail.com",
	"guerrillamail.com",
	"yopmail.com",
	"sharklasers.com",
	"trashmail.com",
}

// DisposableEmail classifies addresses against a fixed domain denylist.
type DisposableEmail struct {
	blocked map[string]struct{}
}

// Option configures a DisposableEmail policy.
type Option func(*DisposableEmail)

// WithDomains replaces the built-in denylist. Entries are trimmed and
// lowercased; blanks and duplicates are dropped.
func WithDomains(domains []string) Option {
	return func(p *DisposableEmail) {
		p.blocked = make(map[string]struct{}, len(domains))
		for _, d := range domains {
			d = strings.ToLower(strings.TrimSpace(d))
			if d == "" {
				continue
			}
			p.blocked[d] = struct{}{}
		}
	}
}

func NewDisposableEmail(opts ...Option) *DisposableEmail {
	p := &DisposableEmail{}
	WithDomains(defaultBlockedDomains)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsDisposable reports whether the address' domain is on the denylist.
// Comparison is case-insensitive. Addresses that are not exactly local@domain
// return false; format rejection belongs to the validator, which runs before
// this policy in the pipeline.
func (p *DisposableEmail) IsDisposable(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	_, blocked := p.blocked[strings.ToLower(parts[1])]
	return blocked
}
