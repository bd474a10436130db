package blocklist

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/adonnan/form-blocker/internal/blocker/domain"
)

// snapshotKey is the fixed key for the single global cache slot.
const snapshotKey = "blocklist"

// ttlCache implements SnapshotCache on top of an expirable LRU of size one.
// Expired entries are dropped on read, so a stale snapshot is never served
// past its deadline.
type ttlCache struct {
	lru *expirable.LRU[string, domain.Blocklist]
}

// NewTTLCache returns a SnapshotCache whose entry expires after ttl.
func NewTTLCache(ttl time.Duration) SnapshotCache {
	return &ttlCache{
		lru: expirable.NewLRU[string, domain.Blocklist](1, nil, ttl),
	}
}

func (c *ttlCache) Get() (domain.Blocklist, bool) {
	return c.lru.Get(snapshotKey)
}

func (c *ttlCache) Put(list domain.Blocklist) {
	c.lru.Add(snapshotKey, list)
}

func (c *ttlCache) Purge() {
	c.lru.Purge()
}

var _ SnapshotCache = (*ttlCache)(nil)
