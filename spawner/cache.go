package spawner

import (
	"cmp"
	"slices"
	"sync"

	"github.com/trouthatch/trout/artifact"
	"github.com/trouthatch/trout/index"
	"github.com/trouthatch/trout/storage"
)

// entry is the cached state of one item. Exactly one of unresolved,
// resolved and posted.
type entry interface {
	isEntry()
}

// unresolved marks an item known to be stale. prev and history describe
// the artifact it replaces, if any.
type unresolved struct {
	prev    storage.ContentID
	history []storage.ContentID
}

// resolved is a computed and stored artifact the ledger has not accepted
// yet.
type resolved struct {
	cid  storage.ContentID
	meta artifact.Metadata
}

// posted is a current artifact the ledger points at.
type posted struct {
	cid  storage.ContentID
	meta artifact.Metadata
}

func (unresolved) isEntry() {}
func (resolved) isEntry()   {}
func (posted) isEntry()     {}

// cache maps item ids to entries. Probes and parent fetches fill it from
// concurrent goroutines.
type cache struct {
	mu      sync.Mutex
	entries map[uint64]entry
}

func newCache() *cache {
	return &cache{entries: make(map[uint64]entry)}
}

func (c *cache) get(item uint64) entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[item]
}

func (c *cache) set(item uint64, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[item] = e
}

// metadata returns the computed metadata of item, from either a resolved
// or a posted entry.
func (c *cache) metadata(item uint64) (artifact.Metadata, bool) {
	switch e := c.get(item).(type) {
	case resolved:
		return e.meta, true
	case posted:
		return e.meta, true
	}
	return artifact.Metadata{}, false
}

// pending returns the ids of resolved entries.
func (c *cache) pending() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []uint64
	for id, e := range c.entries {
		if _, ok := e.(resolved); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// markPosted promotes resolved entries after the ledger accepted them.
func (c *cache) markPosted(items []uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range items {
		if r, ok := c.entries[id].(resolved); ok {
			c.entries[id] = posted(r)
		}
	}
}

// checkpoint lists the resolved and posted entries in item order.
func (c *cache) checkpoint() []index.CheckpointEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []index.CheckpointEntry
	for id, e := range c.entries {
		switch e := e.(type) {
		case resolved:
			out = append(out, index.CheckpointEntry{Item: id, ContentID: e.cid})
		case posted:
			out = append(out, index.CheckpointEntry{Item: id, ContentID: e.cid, Posted: true})
		}
	}
	slices.SortFunc(out, func(a, b index.CheckpointEntry) int { return cmp.Compare(a.Item, b.Item) })
	return out
}
