// Package matcher holds the block/allow decision function. It is pure:
// no storage, no caching, no side effects.
package matcher

import "github.com/adonnan/form-blocker/internal/blocker/domain"

// Check decides whether an email address is blocked by the list.
//
// The input is normalized before comparison even though the stored list is
// already normalized, so matching is effectively case-insensitive. A
// syntactically invalid address is never blocked. An address-level match
// takes precedence over a domain-level match and short-circuits.
func Check(email string, list domain.Blocklist) domain.Decision {
	email = domain.NormalizeEntry(email)
	if !domain.IsEmail(email) {
		return domain.Allow()
	}
	if list.HasEmail(email) {
		return domain.Decision{Blocked: true, Reason: domain.ReasonEmail}
	}
	if name, ok := domain.EmailDomain(email); ok && list.HasDomain(name) {
		return domain.Decision{Blocked: true, Reason: domain.ReasonDomain}
	}
	return domain.Allow()
}
