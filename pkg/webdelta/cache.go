package webdelta

import (
	"context"
	"sync"

	"webdelta/internal/storage"
)

// cache is the in-memory working copy of last-seen results, optionally
// backed by a storage.Store.
//
// It is the only state shared between one-shot calls and the continuous
// runner; a single mutex keeps it consistent (request volume is I/O-bound
// and low-frequency, so per-key locking would buy nothing).
type cache struct {
	mu      sync.Mutex
	entries map[string]string
	store   storage.Store
}

func newCache(ctx context.Context, store storage.Store) (*cache, error) {
	c := &cache{entries: map[string]string{}, store: store}
	if store != nil {
		m, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if m != nil {
			c.entries = m
		}
	}
	return c, nil
}

// diffNew stores val under key and reports whether it differed from (or was
// absent from) the previous entry. A first-seen key is always "new".
func (c *cache) diffNew(key, val string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.entries[key]
	if ok && prev == val {
		return false
	}
	c.entries[key] = val
	return true
}

// getAll stores val under key unconditionally. Used by ALL mode, which
// emits everything but still keeps the cache current for later diffNew calls.
func (c *cache) getAll(key, val string) {
	c.mu.Lock()
	c.entries[key] = val
	c.mu.Unlock()
}

// snapshot returns a copy of the current entries.
func (c *cache) snapshot() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		m[k] = v
	}
	return m
}

// save persists the current entries. No-op without a backing store.
func (c *cache) save(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.Save(ctx, c.snapshot())
}

// clear empties the in-memory map and removes any persisted state.
func (c *cache) clear() error {
	c.mu.Lock()
	c.entries = map[string]string{}
	store := c.store
	c.mu.Unlock()
	if store == nil {
		return nil
	}
	return store.Delete()
}

func (c *cache) close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
