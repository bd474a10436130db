package rest

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/adonnan/form-blocker/internal/blocker/domain"
)

// listResponse is the body of the public list endpoint: the current list
// plus the configured block messages.
type listResponse struct {
	Domains  []string     `json:"domains"`
	Emails   []string     `json:"emails"`
	Messages listMessages `json:"messages"`
}

type listMessages struct {
	BlockedEmail  string `json:"blocked_email"`
	BlockedDomain string `json:"blocked_domain"`
}

// authorizeKey runs the key-auth state machine and writes the error
// response itself when authorization fails.
//
// Check order matters: the disabled flag is evaluated before any key
// inspection, so a disabled API answers 403 whether or not a valid key
// was supplied. A missing server-side key is the operator's fault, not
// the caller's, and maps to 500.
func (s *Server) authorizeKey(w http.ResponseWriter, r *http.Request, requireEnabled bool) bool {
	if requireEnabled && !s.settings.APIEnabled() {
		respondError(w, http.StatusForbidden, "api_disabled", "API access is disabled.")
		return false
	}

	supplied := r.URL.Query().Get("key")
	if supplied == "" {
		respondError(w, http.StatusUnauthorized, "missing_key", "API key is missing.")
		return false
	}

	stored := s.settings.APIKey()
	if stored == "" {
		respondError(w, http.StatusInternalServerError, "server_key_not_set", "API key not configured on the server.")
		return false
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) != 1 {
		respondError(w, http.StatusForbidden, "invalid_key", "Invalid API key.")
		return false
	}
	return true
}

// handleGetList serves the current blocklist and messages to external
// consumers. GET-only, idempotent, side-effect-free.
func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeKey(w, r, true) {
		return
	}

	list := s.lists.Reader().Get()
	respondJSON(w, http.StatusOK, listResponse{
		Domains: list.Domains,
		Emails:  list.Emails,
		Messages: listMessages{
			BlockedEmail:  s.settings.BlockedEmailMessage(),
			BlockedDomain: s.settings.BlockedDomainMessage(),
		},
	})
}

// fieldPayload is one submitted form field as the host framework sees it.
// The input_type carries the HTML5 subtype for text-like fields.
type fieldPayload struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	InputType string `json:"input_type,omitempty"`
	Value     string `json:"value"`
}

type validateRequest struct {
	Fields []fieldPayload `json:"fields"`
}

// handleValidate is the validation callback for host form frameworks.
// It requires the API key but not the distribution-API flag; disabling
// external list reads must not turn off blocking itself.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeKey(w, r, false) {
		return
	}

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "Request body must be JSON with a fields array.")
		return
	}

	fields := make([]domain.Field, 0, len(req.Fields))
	for _, f := range req.Fields {
		fields = append(fields, domain.Field{
			ID:    f.ID,
			Kind:  domain.FieldKindOf(f.Type, f.InputType),
			Value: f.Value,
		})
	}

	respondJSON(w, http.StatusOK, s.checks.ValidateForm(fields))
}
