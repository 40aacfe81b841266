package globaldiscovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/basiliscos/syncspirit-go/uri"
)

// Cache persists lookup results to disk between process runs, keyed
// by the device display id, so a restart does not have to wait out a
// fresh rendezvous round-trip before it has somewhere to dial.
// Adapted from the teacher's directory.Cache disk-cache pattern
// (JSON blob per entry, validity checked against a stored expiry) —
// generalized from one well-known cache file per data kind to one
// file per device id, since lookup results are per-peer rather than a
// single shared consensus document.
type Cache struct {
	Dir string
	TTL time.Duration
}

type cachedLookup struct {
	Addresses []string  `json:"addresses"`
	Seen      time.Time `json:"seen"`
	CachedAt  time.Time `json:"cached_at"`
}

func (c *Cache) path(deviceDisplayID string) string {
	return filepath.Join(c.Dir, deviceDisplayID+".json")
}

// Load returns a cached LookupResult for deviceDisplayID if one exists
// and is within TTL of when it was cached.
func (c *Cache) Load(deviceDisplayID string) (LookupResult, bool) {
	if c.Dir == "" {
		return LookupResult{}, false
	}
	data, err := os.ReadFile(c.path(deviceDisplayID))
	if err != nil {
		return LookupResult{}, false
	}
	var cached cachedLookup
	if err := json.Unmarshal(data, &cached); err != nil {
		return LookupResult{}, false
	}
	if time.Since(cached.CachedAt) > c.TTL {
		return LookupResult{}, false
	}

	addrs := make([]uri.URI, 0, len(cached.Addresses))
	for _, a := range cached.Addresses {
		u, err := uri.Parse(a)
		if err != nil {
			continue
		}
		addrs = append(addrs, u)
	}
	return LookupResult{Addresses: addrs, Seen: cached.Seen}, true
}

// Save writes result to the on-disk cache for deviceDisplayID.
func (c *Cache) Save(deviceDisplayID string, result LookupResult) error {
	if c.Dir == "" {
		return fmt.Errorf("globaldiscovery: cache directory not set")
	}
	if err := os.MkdirAll(c.Dir, 0o700); err != nil {
		return fmt.Errorf("globaldiscovery: create cache dir: %w", err)
	}

	addrs := make([]string, len(result.Addresses))
	for i, a := range result.Addresses {
		addrs[i] = a.String()
	}
	cached := cachedLookup{Addresses: addrs, Seen: result.Seen, CachedAt: time.Now()}
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("globaldiscovery: marshal cache entry: %w", err)
	}
	return os.WriteFile(c.path(deviceDisplayID), data, 0o600)
}
