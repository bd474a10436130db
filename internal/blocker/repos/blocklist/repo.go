package blocklist

import (
	"sync"
	"sync/atomic"

	"github.com/adonnan/form-blocker/internal/blocker/common/log"
	"github.com/adonnan/form-blocker/internal/blocker/domain"
)

// Repository composes the durable store with the shared snapshot cache and
// hands out per-operation memo readers. Reads never fail outward: a broken
// store falls back to the last known good snapshot, or the empty default.
// Writes are whole-document replacements followed by a synchronous purge,
// so any operation beginning after Replace returns observes fresh data.
type Repository struct {
	store  Store
	cache  SnapshotCache
	logger log.Logger

	writeMu sync.Mutex
	last    atomic.Pointer[domain.Blocklist]
}

// NewRepository constructs a Repository around a store and cache.
func NewRepository(store Store, cache SnapshotCache, logger log.Logger) *Repository {
	return &Repository{store: store, cache: cache, logger: logger}
}

// Load returns the current blocklist snapshot. When force is false the
// shared cache is consulted first; otherwise the store is read directly
// and both the cache and the fallback snapshot are refreshed.
func (r *Repository) Load(force bool) domain.Blocklist {
	if !force {
		if snap, ok := r.cache.Get(); ok {
			return snap
		}
	}

	list, err := r.store.Load()
	if err != nil {
		r.logger.Error(map[string]any{"error": err.Error()}, "blocklist load failed, serving fallback snapshot")
		// Do not cache the fallback; the next read should retry the store.
		if last := r.last.Load(); last != nil {
			return *last
		}
		return domain.EmptyBlocklist()
	}

	r.cache.Put(list)
	r.last.Store(&list)
	return list
}

// Replace commits a new list through the store and invalidates the cache
// before returning. Concurrent writers are serialized.
func (r *Repository) Replace(list domain.Blocklist) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.store.Save(list); err != nil {
		return err
	}
	r.Invalidate()
	return nil
}

// Invalidate clears the shared cache slot and the fallback snapshot.
func (r *Repository) Invalidate() {
	r.cache.Purge()
	r.last.Store(nil)
}

// Raw returns the stored document text for operator display.
func (r *Repository) Raw() (string, error) {
	return r.store.Raw()
}

// Reader returns a memo view for one logical operation. The first Get
// loads through the repository; subsequent Gets reuse that snapshot even
// if the shared cache is purged mid-operation.
func (r *Repository) Reader() *Reader {
	return &Reader{repo: r}
}

// Reader is the per-call-context memo tier. It is not safe for concurrent
// use; create one per request.
type Reader struct {
	repo   *Repository
	loaded bool
	snap   domain.Blocklist
}

// Get returns the memoized snapshot, loading it on first use.
func (rd *Reader) Get() domain.Blocklist {
	if !rd.loaded {
		rd.snap = rd.repo.Load(false)
		rd.loaded = true
	}
	return rd.snap
}
