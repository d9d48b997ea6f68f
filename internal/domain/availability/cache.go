package availability

import (
	"sync"

	"frontdesk/internal/domain/room"
)

type cacheEntry struct {
	version uint64
	index   *Index
}

// Cache memoises indexes per room, keyed by snapshot version. A new version
// replaces the entry instead of patching it.
type Cache struct {
	mu      sync.RWMutex
	entries map[room.RoomID]cacheEntry
	hits    int
	misses  int
}

func NewCache() *Cache {
	return &Cache{entries: make(map[room.RoomID]cacheEntry)}
}

// Index returns the cached index for the snapshot's version or builds it.
func (c *Cache) Index(snapshot RoomSnapshot) *Index {
	version := snapshot.Version()
	c.mu.RLock()
	entry, ok := c.entries[snapshot.RoomID]
	c.mu.RUnlock()
	if ok && entry.version == version {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return entry.index
	}
	idx := BuildIndex(snapshot)
	c.mu.Lock()
	c.misses++
	c.entries[snapshot.RoomID] = cacheEntry{version: version, index: idx}
	c.mu.Unlock()
	return idx
}

// Evict drops cached indexes for the given rooms.
func (c *Cache) Evict(ids ...room.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, id)
	}
}

// Stats reports cache hits and misses.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
