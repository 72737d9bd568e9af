package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a bounded in-memory store of response bodies keyed by request
// path. It enforces an entry count limit, a total byte budget and a TTL, and
// evicts the least recently used entry first.
//
// All methods serialize on one mutex, so MemoryUsage and EntryCount always
// describe the same state. Values returned by Get must not be modified.
type Cache struct {
	cfg Config

	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front is most recently used
	memory  int64
	stats   Stats
	now     func() time.Time
	onEvict func(reason EvictReason, size int64)
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithEvictionObserver registers fn to be called for every eviction and
// expiry. fn runs with the cache lock held and must not call back into it.
func WithEvictionObserver(fn func(reason EvictReason, size int64)) Option {
	return func(c *Cache) { c.onEvict = fn }
}

// New creates a cache. A configuration without a positive capacity or
// memory budget yields a disabled cache.
func New(cfg Config, opts ...Option) *Cache {
	if cfg.MaxCapacity <= 0 || cfg.MaxMemory <= 0 {
		cfg.Enabled = false
	}
	c := &Cache{
		cfg:   cfg,
		items: make(map[string]*list.Element),
		order: list.New(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.cfg.Enabled
}

// MaxMemory returns the byte budget, which is also the largest value Set accepts.
func (c *Cache) MaxMemory() int64 {
	if !c.cfg.Enabled {
		return 0
	}
	return c.cfg.MaxMemory
}

// Get returns the value for key if it is present and younger than the TTL.
// A hit makes the entry the most recently used. An expired entry is removed
// and reported as a miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	if !c.cfg.Enabled {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	e := el.Value.(*entry)
	if c.expired(e, c.now()) {
		c.removeElement(el)
		c.stats.Expirations++
		c.notify(EvictExpired, e.size)
		c.stats.Misses++
		return nil, false
	}

	c.order.MoveToFront(el)
	c.stats.Hits++
	return e.value, true
}

// Set stores value under key and reports whether it was stored.
//
// A value larger than the memory budget is rejected without touching the
// cache. Otherwise any previous value for key is released, least recently
// used entries are evicted until the value fits, one more is evicted if the
// table is full, and the value becomes the most recently used entry.
func (c *Cache) Set(key string, value []byte) bool {
	if !c.cfg.Enabled {
		return false
	}

	size := int64(len(value))

	c.mu.Lock()
	defer c.mu.Unlock()

	if size > c.cfg.MaxMemory {
		c.stats.Rejections++
		return false
	}

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}

	for c.memory+size > c.cfg.MaxMemory {
		if !c.evictOldest(EvictMemory) {
			break
		}
	}
	if len(c.items) >= c.cfg.MaxCapacity {
		c.evictOldest(EvictCapacity)
	}

	el := c.order.PushFront(&entry{
		key:       key,
		value:     value,
		size:      size,
		createdAt: c.now(),
	})
	c.items[key] = el
	c.memory += size
	return true
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	if !c.cfg.Enabled {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

// PurgeExpired removes every entry older than the TTL and returns how many
// were removed.
func (c *Cache) PurgeExpired() int {
	if !c.cfg.Enabled {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		e := el.Value.(*entry)
		if c.expired(e, now) {
			c.removeElement(el)
			c.stats.Expirations++
			c.notify(EvictExpired, e.size)
			removed++
		}
		el = prev
	}
	return removed
}

// MemoryUsage returns the total size of all stored values.
func (c *Cache) MemoryUsage() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memory
}

// EntryCount returns the number of stored entries.
func (c *Cache) EntryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = len(c.items)
	s.MemoryBytes = c.memory
	return s
}

// Check verifies the accounting invariants. It is used by the readiness probe.
func (c *Cache) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sum int64
	for el := c.order.Front(); el != nil; el = el.Next() {
		sum += el.Value.(*entry).size
	}
	switch {
	case sum != c.memory:
		return &InvariantError{Detail: "memory accounting drift", Got: c.memory, Want: sum}
	case c.order.Len() != len(c.items):
		return &InvariantError{Detail: "index and recency list disagree", Got: int64(len(c.items)), Want: int64(c.order.Len())}
	case c.cfg.Enabled && len(c.items) > c.cfg.MaxCapacity:
		return &InvariantError{Detail: "entry count above capacity", Got: int64(len(c.items)), Want: int64(c.cfg.MaxCapacity)}
	case c.cfg.Enabled && c.memory > c.cfg.MaxMemory:
		return &InvariantError{Detail: "memory above budget", Got: c.memory, Want: c.cfg.MaxMemory}
	}
	return nil
}

func (c *Cache) expired(e *entry, now time.Time) bool {
	return c.cfg.TTL > 0 && now.Sub(e.createdAt) >= c.cfg.TTL
}

// evictOldest removes the least recently used entry. Caller holds mu.
func (c *Cache) evictOldest(reason EvictReason) bool {
	el := c.order.Back()
	if el == nil {
		return false
	}
	size := el.Value.(*entry).size
	c.removeElement(el)
	c.stats.Evictions++
	c.notify(reason, size)
	return true
}

// removeElement unlinks el and releases its bytes. Caller holds mu.
func (c *Cache) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.items, e.key)
	c.memory -= e.size
}

func (c *Cache) notify(reason EvictReason, size int64) {
	if c.onEvict != nil {
		c.onEvict(reason, size)
	}
}
