package blocklist

import "github.com/adonnan/form-blocker/internal/blocker/domain"

// Store abstracts durable read/write of the canonical list document.
//   - Load returns the normalized list. A missing document self-heals to an
//     empty one; unreadable or corrupt content returns an empty list together
//     with a domain.ErrCorruptData error and leaves the file untouched.
//   - Save replaces the whole document. Failures wrap domain.ErrPersistence.
type Store interface {
	Load() (domain.Blocklist, error)
	Save(domain.Blocklist) error
	Raw() (string, error)
}

// SnapshotCache is the longer-lived shared tier: a single slot holding the
// parsed list until its TTL elapses or a write purges it.
type SnapshotCache interface {
	Get() (domain.Blocklist, bool)
	Put(domain.Blocklist)
	Purge()
}
