package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/domain/entity"
)

// CacheEntry represents a cached observation with the time it was cached
type CacheEntry struct {
	Observation entity.RateObservation
	Timestamp   time.Time
}

// LatestRateCache keeps the most recent persisted observation per target currency
type LatestRateCache struct {
	cache      map[string]CacheEntry
	expiration time.Duration
	now        func() time.Time
	mutex      sync.RWMutex
}

// NewLatestRateCache creates a new cache; entries older than expiration are treated as stale
func NewLatestRateCache(expiration time.Duration) *LatestRateCache {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}

	return &LatestRateCache{
		cache:      make(map[string]CacheEntry),
		expiration: expiration,
		now:        time.Now,
	}
}

// Get returns the latest observation for target if it is present and fresh
func (c *LatestRateCache) Get(target string) (entity.RateObservation, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[target]
	if !exists || c.now().Sub(entry.Timestamp) > c.expiration {
		return entity.RateObservation{}, false
	}

	return entry.Observation, true
}

// Put records obs unless a newer observation for the same target is already cached
func (c *LatestRateCache) Put(obs entity.RateObservation) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if current, ok := c.cache[obs.TargetCurrency]; ok && current.Observation.ObservedAt.After(obs.ObservedAt) {
		return
	}

	c.cache[obs.TargetCurrency] = CacheEntry{
		Observation: obs,
		Timestamp:   c.now(),
	}
}

// All returns every fresh observation ordered by target currency
func (c *LatestRateCache) All() []entity.RateObservation {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := c.now()
	out := make([]entity.RateObservation, 0, len(c.cache))
	for _, entry := range c.cache {
		if now.Sub(entry.Timestamp) > c.expiration {
			continue
		}
		out = append(out, entry.Observation)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TargetCurrency < out[j].TargetCurrency
	})
	return out
}

// Clear clears all entries from the cache
func (c *LatestRateCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string]CacheEntry)
}

// SetExpiration sets the cache expiration duration
func (c *LatestRateCache) SetExpiration(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.expiration = duration
}

// Size returns the number of items in the cache
func (c *LatestRateCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CleanExpired removes expired entries from the cache
func (c *LatestRateCache) CleanExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	count := 0
	now := c.now()

	for key, entry := range c.cache {
		if now.Sub(entry.Timestamp) > c.expiration {
			delete(c.cache, key)
			count++
		}
	}

	return count
}
