// Package formcheck bridges a host form-validation pass and the matcher.
// The host hands over its ordered field descriptors; failures come back
// as annotations keyed by field ID rather than mutations of shared state.
package formcheck

import (
	"strings"

	"github.com/adonnan/form-blocker/internal/blocker/domain"
	"github.com/adonnan/form-blocker/internal/blocker/repos/blocklist"
	"github.com/adonnan/form-blocker/internal/blocker/repos/settings"
	"github.com/adonnan/form-blocker/internal/blocker/services/matcher"
)

// Failure marks one field as blocked, with the configured message for
// its match reason.
type Failure struct {
	FieldID string        `json:"field_id"`
	Reason  domain.Reason `json:"reason"`
	Message string        `json:"message"`
}

// Result is the outcome of validating one submission. Valid is false as
// soon as any field is blocked.
type Result struct {
	Valid    bool      `json:"valid"`
	Failures []Failure `json:"failures,omitempty"`
}

// Service checks submitted forms against the blocklist.
type Service struct {
	lists    *blocklist.Repository
	settings *settings.Service
}

// New constructs a formcheck Service.
func New(lists *blocklist.Repository, settings *settings.Service) *Service {
	return &Service{lists: lists, settings: settings}
}

// ValidateForm checks every email-kind field of a submission. Fields are
// checked independently; a block on one field never short-circuits the
// rest. The list is loaded at most once per call through a memo reader.
func (s *Service) ValidateForm(fields []domain.Field) Result {
	reader := s.lists.Reader()

	var failures []Failure
	for _, f := range fields {
		if f.Kind != domain.FieldEmail {
			continue
		}
		value := strings.TrimSpace(f.Value)
		if value == "" || !domain.IsEmail(value) {
			// Empty or malformed values fail ordinary validation
			// elsewhere; the blocklist has no opinion on them.
			continue
		}
		dec := matcher.Check(value, reader.Get())
		if !dec.Blocked {
			continue
		}
		// The email message doubles as the fallback for any blocked
		// reason other than a domain match.
		msg := s.settings.BlockedEmailMessage()
		if dec.Reason == domain.ReasonDomain {
			msg = s.settings.BlockedDomainMessage()
		}
		failures = append(failures, Failure{FieldID: f.ID, Reason: dec.Reason, Message: msg})
	}

	return Result{Valid: len(failures) == 0, Failures: failures}
}
