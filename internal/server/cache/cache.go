// Package cache keeps the most recent lap record published for each
// driver so late joiners and the REST endpoint can read a snapshot.
// Entries expire with patrickmn/go-cache once a driver goes quiet.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/laprelay/pkg/timing"
)

// lapPrefix namespaces lap snapshots inside the store.
const lapPrefix = "lap:"

// Cache is a TTL store of lap snapshots keyed by driver name.
type Cache struct {
	store *gocache.Cache
}

// New creates a new cache with the given TTL and cleanup interval.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// SetLap records the latest published lap for a driver.
func (c *Cache) SetLap(driverName string, rec timing.LapRecord) {
	c.store.Set(lapPrefix+driverName, rec, gocache.DefaultExpiration)
}

// Lap returns the latest published lap for a driver.
func (c *Cache) Lap(driverName string) (timing.LapRecord, bool) {
	v, ok := c.store.Get(lapPrefix + driverName)
	if !ok {
		return timing.LapRecord{}, false
	}
	rec, ok := v.(timing.LapRecord)
	return rec, ok
}

// ItemCount returns the number of items in the cache, expired ones
// included until the next cleanup.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}
