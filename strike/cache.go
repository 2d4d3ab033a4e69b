package strike

import (
	"errors"
	"sync"

	"github.com/gogpu/glyphsync"
	"github.com/gogpu/glyphsync/descriptor"
	"github.com/gogpu/glyphsync/internal/lru"
	"github.com/gogpu/glyphsync/scaler"
)

// ErrInvalidDescriptor is returned when a descriptor fails validation and
// therefore cannot key a strike.
var ErrInvalidDescriptor = errors.New("strike: invalid descriptor")

// Cache maps descriptors to strikes, keeping them in recency order and
// purging the least recently used unpinned strikes when over budget.
//
// Cache is safe for concurrent use.
// Cache must not be copied after creation (has mutex).
type Cache struct {
	mu      sync.Mutex
	strikes map[string]*cacheEntry
	order   lru.List[string]
	opts    cacheOptions
}

type cacheEntry struct {
	strike *Strike
	node   *lru.Node[string]
}

// NewCache creates an empty strike cache.
func NewCache(opts ...CacheOption) *Cache {
	o := defaultCacheOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache{
		strikes: make(map[string]*cacheEntry),
		opts:    o,
	}
}

// FindStrike returns the strike for desc, or nil. A hit marks the strike as
// most recently used.
func (c *Cache) FindStrike(desc *descriptor.Descriptor) *Strike {
	if !desc.IsValid() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.strikes[desc.Key()]
	if !ok {
		return nil
	}
	c.order.Touch(e.node)
	return e.strike
}

// Contains reports whether the cache holds a strike for desc without
// changing its recency.
func (c *Cache) Contains(desc *descriptor.Descriptor) bool {
	if !desc.IsValid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.strikes[desc.Key()]
	return ok
}

// CreateStrike inserts a new strike for desc, replacing any existing one,
// and purges if the cache is over budget. The new strike is never purged
// by its own insertion.
func (c *Cache) CreateStrike(desc *descriptor.Descriptor, ctx scaler.Context, opts ...Option) (*Strike, error) {
	if !desc.IsValid() {
		return nil, ErrInvalidDescriptor
	}
	s := New(desc, ctx, opts...)

	c.mu.Lock()
	defer c.mu.Unlock()
	key := desc.Key()
	if old, ok := c.strikes[key]; ok {
		c.order.Remove(old.node)
	}
	c.strikes[key] = &cacheEntry{strike: s, node: c.order.PushFront(key)}
	glyphsync.Logger().Debug("strike: created", "descriptor", desc.Checksum(), "strikes", len(c.strikes))
	count, bytes := c.opts.limits()
	c.purgeLocked(count, bytes, s)
	return s, nil
}

// FindOrCreateStrike returns the strike for desc, opening a context on tf
// to create it if needed. A typeface that cannot open a context yields a
// strike of empty glyphs.
func (c *Cache) FindOrCreateStrike(desc *descriptor.Descriptor, tf scaler.Typeface) (*Strike, error) {
	if s := c.FindStrike(desc); s != nil {
		return s, nil
	}
	if !desc.IsValid() {
		return nil, ErrInvalidDescriptor
	}
	ctx, err := tf.OpenContext(desc)
	if err != nil {
		glyphsync.Logger().Warn("strike: open context failed", "typeface", tf.ID(), "err", err)
		ctx = scaler.Empty()
	}
	return c.CreateStrike(desc, ctx)
}

// Purge drops least recently used strikes until the cache fits its budget.
// Strikes whose pinner refuses deletion are skipped. It returns the number
// of strikes removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count, bytes := c.opts.limits()
	return c.purgeLocked(count, bytes, nil)
}

// PurgeAll drops every strike whose pinner allows it.
func (c *Cache) PurgeAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeLocked(0, 0, nil)
}

// Len returns the number of strikes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.strikes)
}

// MemoryUsed returns the approximate bytes retained by all strikes.
func (c *Cache) MemoryUsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memoryLocked()
}

func (c *Cache) memoryLocked() int {
	total := 0
	for _, e := range c.strikes {
		total += e.strike.MemoryUsed()
	}
	return total
}

// purgeLocked walks from the least recently used strike, removing strikes
// until at most countLimit strikes and byteLimit bytes remain. A limit of
// zero removes everything removable; a negative limit is no bound. keep is
// never removed.
func (c *Cache) purgeLocked(countLimit, byteLimit int, keep *Strike) int {
	bytes := 0
	if byteLimit >= 0 {
		bytes = c.memoryLocked()
	}
	over := func() bool {
		return (countLimit >= 0 && len(c.strikes) > countLimit) ||
			(byteLimit >= 0 && bytes > byteLimit)
	}

	removed := 0
	for n := range c.order.FromOldest() {
		if !over() {
			break
		}
		e := c.strikes[n.Key]
		if e.strike == keep {
			continue
		}
		if p := e.strike.Pinner(); p != nil && !p.CanDelete() {
			continue
		}
		if byteLimit >= 0 {
			bytes -= e.strike.MemoryUsed()
		}
		c.order.Remove(n)
		delete(c.strikes, n.Key)
		removed++
	}
	if removed > 0 {
		glyphsync.Logger().Debug("strike: purged", "removed", removed, "strikes", len(c.strikes))
	}
	return removed
}
