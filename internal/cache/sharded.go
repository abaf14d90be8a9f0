// Package cache provides a sharded, cost-bounded LRU cache.
//
// Keys are spread over a fixed number of shards by a caller supplied hash so
// concurrent readers rarely contend on the same lock. Each shard evicts its
// least recently used entries once the total cost of its entries exceeds its
// share of the budget.
//
//	c := cache.New[string, []byte](64<<20, cache.StringHasher, cache.WithCost(cache.ByteCost))
//	c.Set("k", blob)
//	blob, ok := c.Get("k")
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// ShardCount is the number of shards. It is a power of two so the shard
// index is a mask of the hash.
const ShardCount = 16

const shardMask = ShardCount - 1

// Hasher maps a key to the hash used for shard selection.
type Hasher[K any] func(K) uint64

// StringHasher is FNV-1a over the bytes of s.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// IntHasher spreads small integers with a 64-bit finalizer.
func IntHasher(i int) uint64 {
	x := uint64(i)
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// ByteCost charges a byte slice its length.
func ByteCost(b []byte) int64 { return int64(len(b)) }

// Option configures a Cache.
type Option[V any] func(*options[V])

type options[V any] struct {
	cost func(V) int64
}

// WithCost sets the cost function. By default every entry costs 1, which
// makes the budget an entry count.
func WithCost[V any](cost func(V) int64) Option[V] {
	return func(o *options[V]) { o.cost = cost }
}

// Cache is a thread-safe sharded LRU cache. It must not be copied after
// creation.
type Cache[K comparable, V any] struct {
	shards [ShardCount]*shard[K, V]
	hasher Hasher[K]
	cost   func(V) int64
	budget int64 // per shard

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*node[K, V]
	lru     recency[K, V]
	cost    int64
}

// New returns a cache holding entries up to a total cost of budget. The
// budget is split evenly across shards; a budget below ShardCount is raised
// so every shard can hold one unit.
func New[K comparable, V any](budget int64, hasher Hasher[K], opts ...Option[V]) *Cache[K, V] {
	o := options[V]{cost: func(V) int64 { return 1 }}
	for _, opt := range opts {
		opt(&o)
	}
	per := budget / ShardCount
	if per < 1 {
		per = 1
	}
	c := &Cache[K, V]{hasher: hasher, cost: o.cost, budget: per}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{entries: make(map[K]*node[K, V])}
	}
	return c
}

func (c *Cache[K, V]) shardFor(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get returns the value stored under key and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	n, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.lru.moveToFront(n)
	v := n.value
	s.mu.Unlock()
	c.hits.Add(1)
	return v, true
}

// Set stores value under key, evicting older entries as needed. A value
// costing more than a whole shard's budget is not stored and Set reports
// false.
func (c *Cache[K, V]) Set(key K, value V) bool {
	cost := c.cost(value)
	if cost > c.budget {
		c.Delete(key)
		return false
	}
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.entries[key]; ok {
		s.cost += cost - n.cost
		n.value, n.cost = value, cost
		s.lru.moveToFront(n)
	} else {
		n := &node[K, V]{key: key, value: value, cost: cost}
		s.entries[key] = n
		s.lru.pushFront(n)
		s.cost += cost
	}
	for s.cost > c.budget {
		old := s.lru.popBack()
		if old == nil {
			break
		}
		delete(s.entries, old.key)
		s.cost -= old.cost
		c.evictions.Add(1)
	}
	return true
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.entries[key]
	if !ok {
		return false
	}
	s.lru.unlink(n)
	delete(s.entries, key)
	s.cost -= n.cost
	return true
}

// Clear removes every entry. Statistics are kept.
func (c *Cache[K, V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[K]*node[K, V])
		s.lru = recency[K, V]{}
		s.cost = 0
		s.mu.Unlock()
	}
}

// Len returns the number of entries across all shards.
func (c *Cache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Len       int
	Cost      int64
	Budget    int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

// Stats returns current statistics.
func (c *Cache[K, V]) Stats() Stats {
	st := Stats{
		Budget:    c.budget * ShardCount,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
	for _, s := range c.shards {
		s.mu.Lock()
		st.Len += len(s.entries)
		st.Cost += s.cost
		s.mu.Unlock()
	}
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total)
	}
	return st
}
