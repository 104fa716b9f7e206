// Package cache persists store metadata between runs so repeated scans
// don't hit the network for names they already know.
package cache

import (
	"errors"
	"time"

	"github.com/jamesainslie/depotscan/pkg/depotscan/logging"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
)

var logger = logging.Get("cache")

// Stats describes the cache contents.
type Stats struct {
	Path    string `json:"path" yaml:"path"`
	Entries int    `json:"entries" yaml:"entries"`
	LSMSize int64  `json:"lsm_size" yaml:"lsm_size"`
	LogSize int64  `json:"log_size" yaml:"log_size"`
}

// Cache provides metadata caching with a fixed time to live.
type Cache struct {
	store *Store
	path  string
	ttl   time.Duration
}

// Open opens or creates a cache at the given path.
func Open(path string, ttl time.Duration) (*Cache, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	return &Cache{store: store, path: path, ttl: ttl}, nil
}

// NewWithStore wraps an open store.
func NewWithStore(store *Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Lookup returns cached metadata for appID. A miss is (zero, false, nil).
func (c *Cache) Lookup(appID string) (types.AppInfo, bool, error) {
	entry, err := c.store.Get(appID)
	if errors.Is(err, ErrNotFound) {
		return types.AppInfo{}, false, nil
	}
	if err != nil {
		return types.AppInfo{}, false, err
	}
	if entry.Version != CacheVersion {
		logger.Debug("discarding cache entry with old version", "app", appID, "version", entry.Version)
		return types.AppInfo{}, false, nil
	}
	return entry.AppInfo(), true, nil
}

// Store saves metadata for its app ID.
func (c *Cache) Store(info types.AppInfo) error {
	return c.store.Put(FromAppInfo(info), c.ttl)
}

// Forget removes one app.
func (c *Cache) Forget(appID string) error {
	return c.store.Delete(appID)
}

// Clear removes every entry and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	n, err := c.store.DeleteAll()
	if err == nil {
		logger.Info("cache cleared", "entries", n)
	}
	return n, err
}

// Stats reports entry count and disk usage.
func (c *Cache) Stats() (Stats, error) {
	n, err := c.store.Count()
	if err != nil {
		return Stats{}, err
	}
	lsm, vlog := c.store.Size()
	return Stats{Path: c.path, Entries: n, LSMSize: lsm, LogSize: vlog}, nil
}
