package rest

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adonnan/form-blocker/internal/blocker/domain"
)

// maxUploadBytes bounds blocklist uploads. Lists are small; anything
// larger is almost certainly not a blocklist.
const maxUploadBytes = 10 << 20

// requireAdmin guards the operator surface with the static admin token.
// An unset token refuses everything: that is a deployment mistake, not a
// caller mistake.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			respondError(w, http.StatusInternalServerError, "admin_token_not_set", "Admin token not configured on the server.")
			return
		}
		supplied := r.Header.Get("X-Admin-Token")
		if supplied == "" {
			respondError(w, http.StatusUnauthorized, "missing_admin_token", "Admin token is missing.")
			return
		}
		if subtle.ConstantTimeCompare([]byte(s.adminToken), []byte(supplied)) != 1 {
			respondError(w, http.StatusForbidden, "invalid_admin_token", "Invalid admin token.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleUpload replaces the blocklist from a multipart upload. The file
// travels in the "file" part.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", "Expected a multipart upload with a file part.")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "no_file", "No file was uploaded.")
		return
	}
	defer f.Close()

	list, err := s.ingest.Ingest(f, header.Filename)
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusBadRequest, "invalid_upload", err.Error())
		return
	case errors.Is(err, domain.ErrPersistence):
		s.logger.Error(map[string]any{"error": err.Error()}, "blocklist upload could not be persisted")
		respondError(w, http.StatusInternalServerError, "write_failed", err.Error())
		return
	case err != nil:
		s.logger.Error(map[string]any{"error": err.Error()}, "blocklist upload failed")
		respondError(w, http.StatusInternalServerError, "upload_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"domains": len(list.Domains),
		"emails":  len(list.Emails),
	})
}

// handleRawBlocklist returns the stored document text for display.
func (s *Server) handleRawBlocklist(w http.ResponseWriter, r *http.Request) {
	raw, err := s.lists.Raw()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "read_failed", "Could not read the blocklist file.")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(raw))
}

// handleRegenerateKey rotates the API key. The old key is invalid the
// moment this returns.
func (s *Server) handleRegenerateKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.settings.RegenerateAPIKey()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "key_rotation_failed", "Could not regenerate the API key.")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"api_key": key})
}

// settingsPayload is the admin view of the four settings. Pointers on
// update distinguish "leave unchanged" from "set to empty".
type settingsPayload struct {
	APIEnabled           *bool   `json:"api_enabled,omitempty"`
	APIKey               string  `json:"api_key,omitempty"`
	BlockedEmailMessage  *string `json:"blocked_email_message,omitempty"`
	BlockedDomainMessage *string `json:"blocked_domain_message,omitempty"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	enabled := s.settings.APIEnabled()
	emailMsg := s.settings.BlockedEmailMessage()
	domainMsg := s.settings.BlockedDomainMessage()
	respondJSON(w, http.StatusOK, settingsPayload{
		APIEnabled:           &enabled,
		APIKey:               s.settings.APIKey(),
		BlockedEmailMessage:  &emailMsg,
		BlockedDomainMessage: &domainMsg,
	})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "Request body must be a JSON settings object.")
		return
	}

	if req.APIEnabled != nil {
		if err := s.settings.SetAPIEnabled(*req.APIEnabled); err != nil {
			respondError(w, http.StatusInternalServerError, "settings_write_failed", "Could not update settings.")
			return
		}
	}
	if req.BlockedEmailMessage != nil || req.BlockedDomainMessage != nil {
		emailMsg := s.settings.BlockedEmailMessage()
		if req.BlockedEmailMessage != nil {
			emailMsg = *req.BlockedEmailMessage
		}
		domainMsg := s.settings.BlockedDomainMessage()
		if req.BlockedDomainMessage != nil {
			domainMsg = *req.BlockedDomainMessage
		}
		if err := s.settings.SetMessages(emailMsg, domainMsg); err != nil {
			respondError(w, http.StatusInternalServerError, "settings_write_failed", "Could not update settings.")
			return
		}
	}

	s.handleGetSettings(w, r)
}
