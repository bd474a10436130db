package domain

// Reason identifies which part of the blocklist matched a checked address.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonEmail
	ReasonDomain
)

// String returns the lowercase name of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonEmail:
		return "email"
	case ReasonDomain:
		return "domain"
	default:
		return "none"
	}
}

// Decision is the outcome of checking one email address against the list.
// An address-level match always wins over a domain-level match.
type Decision struct {
	Blocked bool
	Reason  Reason
}

// Allow returns the zero decision: not blocked, no reason.
func Allow() Decision {
	return Decision{}
}
