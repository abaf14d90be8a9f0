package storage

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/trouthatch/trout/internal/cache"
)

// DefaultCacheBytes is the blob cache budget used by NewCached when none
// is given.
const DefaultCacheBytes = 64 << 20

// Cached wraps a Store with an in-memory LRU of fetched and stored blobs.
// Concurrent fetches of the same id share one call to the backing store.
// Content ids are derived from content, so cached entries never go stale.
type Cached struct {
	backing Store
	blobs   *cache.Cache[ContentID, []byte]
	flight  singleflight.Group
}

// NewCached returns s wrapped by a cache of at most budget bytes. A budget
// of zero selects DefaultCacheBytes.
func NewCached(s Store, budget int64) *Cached {
	if budget <= 0 {
		budget = DefaultCacheBytes
	}
	hash := func(id ContentID) uint64 { return cache.StringHasher(string(id)) }
	return &Cached{
		backing: s,
		blobs:   cache.New[ContentID, []byte](budget, hash, cache.WithCost(cache.ByteCost)),
	}
}

// Store implements Store and remembers the blob under its returned id.
func (c *Cached) Store(ctx context.Context, blob []byte) (ContentID, error) {
	id, err := c.backing.Store(ctx, blob)
	if err != nil {
		return "", err
	}
	c.blobs.Set(id, append([]byte(nil), blob...))
	return id, nil
}

// Fetch implements Store.
func (c *Cached) Fetch(ctx context.Context, id ContentID) ([]byte, error) {
	if b, ok := c.blobs.Get(id); ok {
		return append([]byte(nil), b...), nil
	}
	v, err, _ := c.flight.Do(string(id), func() (any, error) {
		b, err := c.backing.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		c.blobs.Set(id, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), v.([]byte)...), nil
}

// Stats reports cache counters.
func (c *Cached) Stats() cache.Stats { return c.blobs.Stats() }
