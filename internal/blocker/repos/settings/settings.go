// Package settings exposes the four blocker settings through a generic
// key-value store with enumerated keys and typed defaults. The store is
// injected so components never reach for ambient global state.
package settings

import (
	"crypto/rand"
	"fmt"
)

// Known setting keys.
const (
	KeyAPIEnabled           = "api_enabled"
	KeyAPIKey               = "api_key"
	KeyBlockedEmailMessage  = "blocked_email_message"
	KeyBlockedDomainMessage = "blocked_domain_message"
)

// Built-in fallback messages, used whenever the stored value is unset or
// empty.
const (
	DefaultBlockedEmailMessage  = "This email address is not allowed for submission."
	DefaultBlockedDomainMessage = "Submissions from this email domain are not allowed."
)

// apiKeyLength is the number of characters in a generated API key.
const apiKeyLength = 40

const apiKeyCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Store is the minimal key-value surface the settings service needs.
// Get returns the empty string for unset keys.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Service wraps a Store with typed accessors and defaults.
type Service struct {
	store Store
}

// New returns a Service over the given store.
func New(store Store) *Service {
	return &Service{store: store}
}

// Init applies first-activation defaults: an API key is generated when
// none is stored yet. Existing values are never overwritten.
func (s *Service) Init() error {
	key, err := s.store.Get(KeyAPIKey)
	if err != nil {
		return err
	}
	if key == "" {
		if _, err := s.RegenerateAPIKey(); err != nil {
			return err
		}
	}
	return nil
}

// APIEnabled reports whether the external read API is switched on.
// Defaults to false.
func (s *Service) APIEnabled() bool {
	v, err := s.store.Get(KeyAPIEnabled)
	return err == nil && v == "1"
}

// SetAPIEnabled toggles the external read API.
func (s *Service) SetAPIEnabled(enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	return s.store.Set(KeyAPIEnabled, v)
}

// APIKey returns the stored API key, or the empty string when none is
// configured (the gateway treats that as operator misconfiguration).
func (s *Service) APIKey() string {
	v, err := s.store.Get(KeyAPIKey)
	if err != nil {
		return ""
	}
	return v
}

// RegenerateAPIKey replaces the stored key with a fresh random one and
// returns it. The old key stops working the moment the write lands.
func (s *Service) RegenerateAPIKey() (string, error) {
	key, err := generateAPIKey()
	if err != nil {
		return "", err
	}
	if err := s.store.Set(KeyAPIKey, key); err != nil {
		return "", err
	}
	return key, nil
}

// BlockedEmailMessage returns the message shown when a specific address
// is blocked.
func (s *Service) BlockedEmailMessage() string {
	return s.getWithDefault(KeyBlockedEmailMessage, DefaultBlockedEmailMessage)
}

// BlockedDomainMessage returns the message shown when an address from a
// blocked domain is submitted.
func (s *Service) BlockedDomainMessage() string {
	return s.getWithDefault(KeyBlockedDomainMessage, DefaultBlockedDomainMessage)
}

// SetMessages updates both block messages. Empty strings clear the stored
// value, falling back to the built-in defaults on read.
func (s *Service) SetMessages(emailMsg, domainMsg string) error {
	if err := s.store.Set(KeyBlockedEmailMessage, emailMsg); err != nil {
		return err
	}
	return s.store.Set(KeyBlockedDomainMessage, domainMsg)
}

func (s *Service) getWithDefault(key, def string) string {
	v, err := s.store.Get(key)
	if err != nil || v == "" {
		return def
	}
	return v
}

// generateAPIKey produces apiKeyLength random characters from the
// alphanumeric charset.
func generateAPIKey() (string, error) {
	buf := make([]byte, apiKeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	for i, b := range buf {
		buf[i] = apiKeyCharset[int(b)%len(apiKeyCharset)]
	}
	return string(buf), nil
}
