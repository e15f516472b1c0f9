// Package cache holds fetched quotes in memory for a freshness horizon.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bpkennedy/greentoe-sub001/internal/quote"
)

// entry stores one cached quote with the time it was stored.
type entry struct {
	fetchedAt time.Time
	quote     quote.Quote
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// Cache keeps at most one quote per symbol and serves it while fresh.
// Reads never mutate state: an expired entry is reported as absent and
// stays in place until overwritten or evicted. Writers always win, so
// the freshest fetch is what later readers see.
type Cache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu    sync.RWMutex
	items map[string]entry

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxEntries bounds the number of stored symbols; zero means
// unbounded. The bound is best-effort: eviction drops expired entries
// first, then arbitrary ones.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the quote stored for symbol if it is within the freshness
// horizon. Entries stored exactly TTL ago still count as fresh.
func (c *Cache) Get(symbol string) (quote.Quote, bool) {
	c.mu.RLock()
	e, ok := c.items[symbol]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.fetchedAt) > c.ttl {
		c.misses.Add(1)
		return quote.Quote{}, false
	}
	c.hits.Add(1)
	return e.quote, true
}

// Set stores q under symbol with a fresh timestamp, overwriting any
// previous entry.
func (c *Cache) Set(symbol string, q quote.Quote) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[symbol] = entry{fetchedAt: now, quote: q}
	if c.maxEntries <= 0 || len(c.items) <= c.maxEntries {
		return
	}
	for k, e := range c.items {
		if k == symbol {
			continue
		}
		if now.Sub(e.fetchedAt) > c.ttl {
			delete(c.items, k)
		}
		if len(c.items) <= c.maxEntries {
			return
		}
	}
	for k := range c.items {
		if len(c.items) <= c.maxEntries {
			return
		}
		if k == symbol {
			continue
		}
		delete(c.items, k)
	}
}

// Len reports the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear drops all entries and resets counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]entry)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats reports hit/miss counters and current size.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.Len(),
	}
}
