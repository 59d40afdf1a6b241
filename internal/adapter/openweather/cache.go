package openweather

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
	"github.com/couchcryptid/climate-sim-service/internal/observability"
)

// CachedProvider wraps a WeatherProvider with an in-memory LRU cache whose
// entries expire after a TTL. Coordinates are rounded to two decimals
// (roughly 1 km) to form the key. Only observations are cached; climate
// profiles are always rebuilt from them.
type CachedProvider struct {
	inner   domain.WeatherProvider
	ttl     time.Duration
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a weather provider.
func NewCachedProvider(inner domain.WeatherProvider, maxEntries int, ttl time.Duration, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		ttl:     ttl,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedProvider) CurrentObservation(ctx context.Context, lat, lon float64) (domain.Observation, error) {
	key := cacheKey(lat, lon)
	now := domain.Clock().Now()
	if obs, ok := c.cache.get(key, now); ok {
		c.metrics.WeatherCache.WithLabelValues("hit").Inc()
		return obs, nil
	}
	c.metrics.WeatherCache.WithLabelValues("miss").Inc()

	obs, err := c.inner.CurrentObservation(ctx, lat, lon)
	if err != nil {
		return obs, err
	}
	c.cache.put(key, obs, now.Add(c.ttl))
	return obs, nil
}

// cacheKey buckets coordinates to 0.01°. Values that round to zero from
// either side share the "0.00" bucket.
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", roundCoord(lat), roundCoord(lon))
}

func roundCoord(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// lruCache is a thread-safe LRU cache of observations with per-entry expiry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     domain.Observation
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string, now time.Time) (domain.Observation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Observation{}, false
	}
	if !now.Before(e.expiresAt) {
		c.unlink(e)
		delete(c.entries, key)
		return domain.Observation{}, false
	}
	c.touch(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Observation, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.touch(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.pushFront(e)

	for len(c.entries) > c.maxEntries && c.tail != nil {
		oldest := c.tail
		c.unlink(oldest)
		delete(c.entries, oldest.key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) touch(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
