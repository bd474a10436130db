// Package ingest turns an untrusted uploaded document into a safe
// canonical blocklist, or rejects it. Validation failures and persistence
// failures are distinct error kinds even though both mean "the list was
// not updated".
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/adonnan/form-blocker/internal/blocker/common/log"
	"github.com/adonnan/form-blocker/internal/blocker/domain"
	"github.com/adonnan/form-blocker/internal/blocker/repos/blocklist"
)

// Service validates, sanitizes, and commits uploaded blocklists.
type Service struct {
	repo   *blocklist.Repository
	logger log.Logger
}

// New constructs an ingest Service.
func New(repo *blocklist.Repository, logger log.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Ingest processes one uploaded document. filename is the declared name
// of the upload; only .json files are accepted. On success the sanitized
// list has been committed and is returned.
func (s *Service) Ingest(r io.Reader, filename string) (domain.Blocklist, error) {
	if r == nil {
		return domain.Blocklist{}, fmt.Errorf("%w: no file was uploaded", domain.ErrValidation)
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != ".json" {
		return domain.Blocklist{}, fmt.Errorf("%w: invalid file type %q, please upload a .json file", domain.ErrValidation, ext)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return domain.Blocklist{}, fmt.Errorf("%w: could not read the uploaded file: %v", domain.ErrValidation, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.Blocklist{}, fmt.Errorf("%w: the uploaded file is empty", domain.ErrValidation)
	}

	parsed, err := parseUpload(raw)
	if err != nil {
		return domain.Blocklist{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	list := domain.Blocklist{
		Domains: s.sanitizeDomains(parsed.Domains),
		Emails:  s.sanitizeEmails(parsed.Emails),
	}

	if err := s.repo.Replace(list); err != nil {
		return domain.Blocklist{}, err
	}

	s.logger.Info(map[string]any{
		"domains": len(list.Domains),
		"emails":  len(list.Emails),
	}, "blocklist replaced from upload")
	return list, nil
}

// parseUpload decodes the document, requiring an object root. Missing or
// mistyped keys coerce to empty collections; only a root that is not an
// object at all is rejected.
func parseUpload(raw []byte) (domain.Blocklist, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return domain.Blocklist{}, fmt.Errorf("invalid JSON format: %v", err)
	}
	if root == nil {
		return domain.Blocklist{}, errors.New("invalid JSON format: root must be an object")
	}

	list := domain.EmptyBlocklist()
	if v, ok := root["domains"]; ok {
		var entries []string
		if json.Unmarshal(v, &entries) == nil && entries != nil {
			list.Domains = entries
		}
	}
	if v, ok := root["emails"]; ok {
		var entries []string
		if json.Unmarshal(v, &entries) == nil && entries != nil {
			list.Emails = entries
		}
	}
	return list, nil
}

// sanitizeDomains trims, strips markup and control characters, lowercases,
// converts to ASCII (punycode) form, and de-duplicates.
func (s *Service) sanitizeDomains(entries []string) []string {
	out := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		name := domain.NormalizeEntry(stripText(e))
		if name == "" {
			s.logger.Debug(map[string]any{"raw": e}, "skip empty domain entry")
			continue
		}
		name = domain.ASCIIDomain(name)
		if _, ok := seen[name]; ok {
			s.logger.Debug(map[string]any{"name": name}, "skip duplicate domain entry")
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// sanitizeEmails trims, lowercases, and drops entries that are not
// syntactically valid addresses. Invalid entries are skipped, not fatal;
// rejecting the whole file for one bad row would be a behavior change.
func (s *Service) sanitizeEmails(entries []string) []string {
	out := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		addr := domain.NormalizeEntry(e)
		if !domain.IsEmail(addr) {
			s.logger.Debug(map[string]any{"raw": e}, "skip invalid email entry")
			continue
		}
		if _, ok := seen[addr]; ok {
			s.logger.Debug(map[string]any{"email": addr}, "skip duplicate email entry")
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// stripText removes tag-like sequences and control characters so list
// entries stay plain text regardless of what the upload contained. An
// unterminated tag swallows the rest of the entry.
func stripText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case inTag || r < 0x20 || r == 0x7f:
			// drop
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
