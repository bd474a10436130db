package domain

import "strings"

// Blocklist is the canonical denylist document: a set of blocked email
// domains and a set of blocked full addresses. Both collections always
// exist; absence in source data is coerced to empty, never nil.
type Blocklist struct {
	Domains []string `json:"domains"`
	Emails  []string `json:"emails"`
}

// EmptyBlocklist returns a blocklist with both collections present but empty.
func EmptyBlocklist() Blocklist {
	return Blocklist{Domains: []string{}, Emails: []string{}}
}

// Normalized returns a copy of the blocklist with every entry trimmed and
// lowercased, empties dropped, and duplicates removed. Matching is exact
// string comparison, so both the stored list and lookup inputs must pass
// through the same normalization.
func (b Blocklist) Normalized() Blocklist {
	return Blocklist{
		Domains: normalizeSet(b.Domains),
		Emails:  normalizeSet(b.Emails),
	}
}

// HasEmail reports whether the exact address is present in the emails set.
// The input must already be normalized.
func (b Blocklist) HasEmail(email string) bool {
	return contains(b.Emails, email)
}

// HasDomain reports whether the exact domain is present in the domains set.
// The input must already be normalized.
func (b Blocklist) HasDomain(name string) bool {
	return contains(b.Domains, name)
}

// NormalizeEntry lowercases and trims a single list entry or lookup input.
func NormalizeEntry(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeSet(entries []string) []string {
	out := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		n := NormalizeEntry(e)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func contains(entries []string, s string) bool {
	for _, e := range entries {
		if e == s {
			return true
		}
	}
	return false
}
