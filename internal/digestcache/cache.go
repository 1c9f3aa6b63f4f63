// ABOUTME: Thread-safe TTL cache of asset content digests
// ABOUTME: Lets the image endpoint answer conditional requests without rehashing files

package digestcache

import (
	"container/list"
	"sync"
	"time"

	"github.com/2389/folder-icons/internal/assetstore"
)

// Defaults used when New is given non-positive values.
const (
	DefaultTTL     = time.Hour
	DefaultMaxSize = 4096
)

type cacheEntry struct {
	digest    string
	timestamp time.Time
	element   *list.Element
}

// Cache maps identities to digests. Entries expire after the TTL and the
// least recently stored entry is evicted once the cache is full.
type Cache struct {
	mu      sync.Mutex
	entries map[assetstore.Identity]*cacheEntry
	order   *list.List // identities, oldest at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a cache and starts its background expiry sweep.
func New(ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	c := &Cache{
		entries: make(map[assetstore.Identity]*cacheEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.expireLoop()
	return c
}

// Get returns the cached digest for id if present and not expired.
func (c *Cache) Get(id assetstore.Identity) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok || time.Since(entry.timestamp) >= c.ttl {
		return "", false
	}
	return entry.digest, true
}

// Put stores the digest for id, evicting the oldest entry if the cache is full.
func (c *Cache) Put(id assetstore.Identity, digest string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if entry, ok := c.entries[id]; ok {
		entry.digest = digest
		entry.timestamp = now
		c.order.MoveToBack(entry.element)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[id] = &cacheEntry{
		digest:    digest,
		timestamp: now,
		element:   c.order.PushBack(id),
	}
}

// Forget drops the entry for id, if any.
func (c *Cache) Forget(id assetstore.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[id]; ok {
		c.order.Remove(entry.element)
		delete(c.entries, id)
	}
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	id, _ := front.Value.(assetstore.Identity)
	c.order.Remove(front)
	delete(c.entries, id)
}

func (c *Cache) expireLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.expire()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, entry := range c.entries {
		if now.Sub(entry.timestamp) >= c.ttl {
			c.order.Remove(entry.element)
			delete(c.entries, id)
		}
	}
}

// Close stops the background expiry sweep. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
