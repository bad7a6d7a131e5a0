package overpass

import (
	"context"
	"sync"

	"github.com/couchcryptid/spatial-pattern-service/internal/domain"
	"github.com/couchcryptid/spatial-pattern-service/internal/observability"
)

// CachedAnalyzer wraps a RoadAnalyzer with an in-memory LRU cache.
type CachedAnalyzer struct {
	inner   domain.RoadAnalyzer
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedAnalyzer creates a cache decorator around a road analyzer.
func NewCachedAnalyzer(inner domain.RoadAnalyzer, maxEntries int, metrics *observability.Metrics) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedAnalyzer) AnalyzeRoadNetwork(ctx context.Context, lat, lng, radiusKm float64) (domain.RoadNetworkSummary, error) {
	key := domain.RoadCacheKey(lat, lng, radiusKm)
	if summary, ok := c.cache.get(key); ok {
		c.metrics.RoadCache.WithLabelValues("memory", "hit").Inc()
		return summary, nil
	}
	c.metrics.RoadCache.WithLabelValues("memory", "miss").Inc()

	summary, err := c.inner.AnalyzeRoadNetwork(ctx, lat, lng, radiusKm)
	if err != nil {
		return summary, err
	}
	c.cache.put(key, summary)
	return summary, nil
}

// lruCache is a simple thread-safe LRU cache for road network summaries.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.RoadNetworkSummary
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.RoadNetworkSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.RoadNetworkSummary{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.RoadNetworkSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
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
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
