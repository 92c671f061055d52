package botbuilder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/gen"
	"github.com/fedorabakumets/telegram-bot-builder/compiler/load"
)

// Cache is the interface for caching generation results.
// Implementations may be backed by Redis, Memcached or process memory.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error
}

// ProjectDigest returns a stable content digest of the project
// snapshot, usable as a cache key.
func ProjectDigest(p *load.Project) (string, error) {
	raw, err := msgpack.Marshal(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// CacheHook wraps the generator with a result cache keyed by the
// project digest. Generation is deterministic for a given project and
// settings, so a hit replays the stored artifact set without
// recompiling. Callers with differing generation settings must use
// distinct caches; the digest covers the project only.
func CacheHook(c Cache, ttl time.Duration) gen.Hook {
	return func(next gen.Generator) gen.Generator {
		return gen.GenerateFunc(func(p *load.Project) (*gen.Result, error) {
			ctx := context.Background()
			key, err := ProjectDigest(p)
			if err != nil {
				return nil, err
			}
			if raw, err := c.Get(ctx, key); err == nil && raw != nil {
				var res gen.Result
				if err := msgpack.Unmarshal(raw, &res); err == nil {
					return &res, nil
				}
				// A stale or corrupt entry falls through to regeneration.
				_ = c.Delete(ctx, key)
			}
			res, err := next.Generate(p)
			if err != nil {
				return nil, err
			}
			if raw, err := msgpack.Marshal(res); err == nil {
				_ = c.Set(ctx, key, raw, ttl)
			}
			return res, nil
		})
	}
}

// MemoryCache is a process-local Cache for tests and single-binary
// deployments. Entries expire lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get implements Cache.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, nil
	}
	return e.value, nil
}

// Set implements Cache.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete implements Cache.
func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
