package server

import (
	"sync"
	"time"

	"github.com/mj1618/a11y-probe/internal/model"
)

// TreeCache keeps the last node tree read for a short time so repeated
// `tree` calls do not each round-trip to the device.
type TreeCache struct {
	mu   sync.Mutex
	root *model.Node
	at   time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewTreeCache creates a new cache. A ttl of 0 disables caching.
func NewTreeCache(ttl time.Duration) *TreeCache {
	return &TreeCache{ttl: ttl, now: time.Now}
}

// Get returns the cached tree if within TTL, otherwise calls read and caches
// the result. Errors are not cached.
func (c *TreeCache) Get(read func() (*model.Node, error)) (*model.Node, error) {
	if c.ttl == 0 {
		return read()
	}

	c.mu.Lock()
	if c.root != nil && c.now().Sub(c.at) < c.ttl {
		root := c.root
		c.mu.Unlock()
		return root, nil
	}
	c.mu.Unlock()

	root, err := read()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.root = root
	c.at = c.now()
	c.mu.Unlock()
	return root, nil
}

// Invalidate drops the cached tree. Called after any tool that may change
// the screen.
func (c *TreeCache) Invalidate() {
	c.mu.Lock()
	c.root = nil
	c.mu.Unlock()
}
