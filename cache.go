package dalleboard

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/dalleboard/store"
)

// PostCache is an in-memory cache of the post list with a TTL. The returned
// slice is shared between callers and must not be modified.
type PostCache struct {
	mu      sync.RWMutex
	posts   []store.Post
	fetched time.Time
	ttl     time.Duration
	store   store.Store
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s store.Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

// ListPosts returns cached posts after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ListPosts(ctx context.Context) ([]store.Post, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, nil
	}
	posts, err := c.store.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []store.Post{}
	}
	c.posts = posts
	c.fetched = time.Now()
	return c.posts, nil
}
