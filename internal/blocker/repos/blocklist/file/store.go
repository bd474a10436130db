// Package file persists the blocklist as a single pretty-printed JSON
// document, replaced wholesale on every write. Writes go through a
// temp-file-then-rename so concurrent readers never observe a torn
// document.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adonnan/form-blocker/internal/blocker/common/log"
	"github.com/adonnan/form-blocker/internal/blocker/domain"
	"github.com/adonnan/form-blocker/internal/blocker/repos/blocklist"
)

// Store implements blocklist.Store on a local JSON file.
type Store struct {
	path   string
	logger log.Logger
}

// New returns a Store backed by the document at path.
func New(path string, logger log.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads and normalizes the document.
//
// The two failure paths deliberately differ in durability: a missing file
// is replaced with an empty document (self-healing), while an unreadable
// or unparseable file is left exactly as found so an operator can repair
// it by hand, and an empty list is served in the meantime.
func (s *Store) Load() (domain.Blocklist, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		empty := domain.EmptyBlocklist()
		if werr := s.write(empty); werr != nil {
			s.logger.Warn(map[string]any{"path": s.path, "error": werr.Error()}, "could not create empty blocklist document")
		} else {
			s.logger.Info(map[string]any{"path": s.path}, "created empty blocklist document")
		}
		return empty, nil
	}
	if err != nil {
		return domain.EmptyBlocklist(), fmt.Errorf("%w: reading %s: %v", domain.ErrCorruptData, s.path, err)
	}

	list, err := decodeDocument(raw)
	if err != nil {
		return domain.EmptyBlocklist(), fmt.Errorf("%w: parsing %s: %v", domain.ErrCorruptData, s.path, err)
	}
	return list.Normalized(), nil
}

// Save serializes the list as pretty-printed JSON and replaces the whole
// document. The caller (the repository) is responsible for invalidating
// caches afterwards.
func (s *Store) Save(list domain.Blocklist) error {
	// Never persist nil collections; the wire contract promises both keys.
	if list.Domains == nil {
		list.Domains = []string{}
	}
	if list.Emails == nil {
		list.Emails = []string{}
	}
	if err := s.write(list); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// Raw returns the stored document text for operator display. A missing
// file renders as the empty document; valid JSON is re-indented, anything
// else is returned as found.
func (s *Store) Raw() (string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		out, _ := json.MarshalIndent(domain.EmptyBlocklist(), "", "    ")
		return string(out), nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", domain.ErrCorruptData, s.path, err)
	}
	var v any
	if json.Unmarshal(raw, &v) == nil {
		if out, err := json.MarshalIndent(v, "", "    "); err == nil {
			return string(out), nil
		}
	}
	return string(raw), nil
}

// decodeDocument parses the JSON document, requiring an object root.
// Missing or mistyped domains/emails keys coerce to empty collections;
// only a root that is not an object at all is an error.
func decodeDocument(raw []byte) (domain.Blocklist, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return domain.Blocklist{}, err
	}
	if root == nil {
		return domain.Blocklist{}, errors.New("document root is not an object")
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

// write marshals and atomically replaces the document via rename.
func (s *Store) write(list domain.Blocklist) error {
	data, err := json.MarshalIndent(list, "", "    ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".blocklist-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

var _ blocklist.Store = (*Store)(nil)
