package cache

import "time"

// Config controls the size and lifetime bounds of a Cache.
type Config struct {
	// Enabled turns caching on. A disabled cache never stores anything.
	Enabled bool

	// MaxCapacity is the maximum number of entries.
	MaxCapacity int

	// MaxMemory is the byte budget for all payloads together.
	MaxMemory int64

	// TTL is how long after insertion an entry may be served.
	TTL time.Duration
}

// EvictReason says why an entry left the cache.
type EvictReason string

const (
	// EvictMemory means the entry was dropped to make room for new bytes.
	EvictMemory EvictReason = "memory"

	// EvictCapacity means the entry was dropped because the table was full.
	EvictCapacity EvictReason = "capacity"

	// EvictExpired means the entry outlived its TTL.
	EvictExpired EvictReason = "expired"
)

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Expirations uint64
	Rejections  uint64
	Entries     int
	MemoryBytes int64
}

// entry is one cached payload. size is len(value), kept separately so the
// accounting does not depend on the slice staying untouched.
type entry struct {
	key       string
	value     []byte
	size      int64
	createdAt time.Time
}
