// Package cache memoises pure computations by input equality.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 10000

// Cache maps comparable keys to previously computed values.
type Cache[K comparable, V any] interface {
	// Get returns the value stored for key, if any.
	Get(ctx context.Context, key K) (V, bool)

	// Put stores value for key. In bounded mode the oldest entry is evicted
	// once the cache is full.
	Put(ctx context.Context, key K, value V)

	Len() int64
}

// node is one entry of the insertion-ordered list.
type node[K comparable, V any] struct {
	key   K
	value V
	next  *node[K, V]
}

func (n *node[K, V]) reset() {
	var zk K
	var zv V
	n.key = zk
	n.value = zv
	n.next = nil
}

// inMemoryCache keeps entries in a map plus a FIFO list used for eviction.
// For maxSize <= 0 the list is not maintained and nothing is evicted.
type inMemoryCache[K comparable, V any] struct {
	mu       sync.RWMutex
	entries  map[K]*node[K, V]
	head     *node[K, V] // oldest
	tail     *node[K, V] // newest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// New creates an in-memory cache.
func New[K comparable, V any](opts ...Option) Cache[K, V] {
	cfg := config{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &inMemoryCache[K, V]{
		entries: make(map[K]*node[K, V]),
		maxSize: cfg.maxSize,
	}
	c.nodePool = sync.Pool{
		New: func() any {
			return &node[K, V]{}
		},
	}
	return c
}

func (c *inMemoryCache[K, V]) Get(_ context.Context, key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return n.value, true
}

func (c *inMemoryCache[K, V]) Put(_ context.Context, key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		n.value = value
		return
	}

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	n := c.nodePool.Get().(*node[K, V])
	n.key = key
	n.value = value
	if c.maxSize > 0 {
		if c.tail == nil {
			c.head = n
		} else {
			c.tail.next = n
		}
		c.tail = n
	}
	c.entries[key] = n
	c.size.Add(1)
}

// evictOldest drops the head of the list. Must be called with c.mu held.
func (c *inMemoryCache[K, V]) evictOldest() {
	n := c.head
	if n == nil {
		return
	}
	c.head = n.next
	if c.head == nil {
		c.tail = nil
	}
	delete(c.entries, n.key)
	n.reset()
	c.nodePool.Put(n)
	c.size.Add(-1)
}

func (c *inMemoryCache[K, V]) Len() int64 {
	return c.size.Load()
}
