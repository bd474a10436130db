package domain

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/idna"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// IsEmail reports whether s is syntactically a valid email address.
// An invalid address can never be blocked; it simply fails whatever
// validation the host form applies elsewhere.
func IsEmail(s string) bool {
	if s == "" {
		return false
	}
	return validate.Var(s, "email") == nil
}

// EmailDomain returns the domain part of an address, defined as the
// substring after the single '@' separator. Addresses with zero or more
// than one '@' have no domain for matching purposes.
func EmailDomain(email string) (string, bool) {
	at := strings.IndexByte(email, '@')
	if at < 0 || at != strings.LastIndexByte(email, '@') {
		return "", false
	}
	d := email[at+1:]
	if d == "" {
		return "", false
	}
	return d, true
}

// ASCIIDomain converts a domain name to its ASCII (punycode) form so that
// unicode entries in an upload still match the ASCII form submitted by
// browsers. Returns the input unchanged when conversion fails.
func ASCIIDomain(name string) string {
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return name
	}
	return ascii
}
