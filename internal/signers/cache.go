package signers

import (
	"context"
	"slices"
	"sync"
)

// Cache wraps a Directory so each listing is fetched once. Concurrent callers
// for the same query share one fetch. Failed fetches are not cached.
type Cache struct {
	dir     Directory
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	done chan struct{}
	opts []Option
	err  error
}

// NewCache wraps dir.
func NewCache(dir Directory) *Cache {
	return &Cache{dir: dir, entries: make(map[string]*entry)}
}

// List returns the cached listing for q, fetching it on first use.
func (c *Cache) List(ctx context.Context, q Query) ([]Option, error) {
	key := q.Key()

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{done: make(chan struct{})}
		c.entries[key] = e
		c.mu.Unlock()
		c.fill(ctx, key, e, q)
	} else {
		c.mu.Unlock()
	}

	select {
	case <-e.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if e.err != nil {
		return nil, e.err
	}
	return slices.Clone(e.opts), nil
}

// Invalidate drops every cached listing.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		select {
		case <-e.done:
			delete(c.entries, k)
		default:
		}
	}
}

func (c *Cache) fill(ctx context.Context, key string, e *entry, q Query) {
	e.opts, e.err = c.dir.List(ctx, q)
	if e.err != nil {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}
	close(e.done)
}
