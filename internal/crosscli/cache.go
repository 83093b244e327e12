package crosscli

import (
	"sync"
	"time"

	"github.com/crosscli/go-crosscli/internal/clilog"
)

// ScanCache is a short-lived session-list cache adapters embed to avoid
// rescanning unchanged storage within one process lifetime. An entry is
// valid only while its TTL has not expired AND the source directory's
// latest modification time is unchanged. TTL zero disables caching.
type ScanCache struct {
	mu   sync.RWMutex
	name string // identifies this cache in log messages
	ttl  time.Duration

	entries map[string]*scanCacheEntry
}

type scanCacheEntry struct {
	cachedAt time.Time
	stamp    time.Time // source mtime at fill time
	sessions []SessionMeta
	err      error
}

// SetName sets a label for this cache (used in log messages).
func (c *ScanCache) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// SetTTL configures the cache time-to-live. Zero disables caching.
func (c *ScanCache) SetTTL(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = d
}

// Load returns the cached session list for key when still valid, otherwise
// runs fetch and stores its result. stamp is the current source mtime; a
// stamp differing from the cached one invalidates the entry regardless of
// TTL.
func (c *ScanCache) Load(key string, stamp time.Time, fetch func() ([]SessionMeta, error)) ([]SessionMeta, error) {
	c.mu.RLock()
	ttl := c.ttl
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ttl > 0 && ok {
		fresh := time.Since(entry.cachedAt) <= ttl
		unchanged := entry.stamp.Equal(stamp)
		if fresh && unchanged {
			return entry.sessions, entry.err
		}
		if !unchanged {
			clilog.Log.Debug("cache invalidated by source mtime", "cache", c.name, "key", key)
		}
	}

	sessions, err := fetch()

	if ttl > 0 {
		c.mu.Lock()
		if c.entries == nil {
			c.entries = make(map[string]*scanCacheEntry)
		}
		c.entries[key] = &scanCacheEntry{
			cachedAt: time.Now(),
			stamp:    stamp,
			sessions: sessions,
			err:      err,
		}
		c.mu.Unlock()
	}

	return sessions, err
}

// Clear drops all cached data, forcing the next Load to rescan.
func (c *ScanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
