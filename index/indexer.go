package index

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/trouthatch/trout"
	"github.com/trouthatch/trout/artifact"
	"github.com/trouthatch/trout/ledger"
	"github.com/trouthatch/trout/storage"
)

const (
	defaultIndexBatch       = 50
	defaultIndexConcurrency = 16
	maxOutdated             = 1000
)

// Indexer copies posted artifacts from the ledger and storage into an
// Index.
type Indexer struct {
	Ledger    ledger.Ledger
	Store     storage.Store
	Index     *Index
	NetworkID uint64

	// BatchSize is the number of items fetched between index writes.
	BatchSize int
	// Concurrency bounds parallel fetches.
	Concurrency int
}

// Run indexes every item newer than the latest indexed one, and re-indexes
// items with an outdated format. It returns the number of records written.
// Items without a posted artifact, or with one that cannot be decoded, are
// skipped.
func (ix *Indexer) Run(ctx context.Context) (int, error) {
	total, err := ix.Ledger.TotalSupply(ctx)
	if err != nil {
		return 0, err
	}
	latest, err := ix.Index.LatestItem(ctx, ix.NetworkID)
	if err != nil {
		return 0, err
	}
	ids, err := ix.Index.OutdatedItems(ctx, ix.NetworkID, maxOutdated)
	if err != nil {
		return 0, err
	}
	reindex := len(ids)
	for id := latest + 1; id <= total; id++ {
		ids = append(ids, id)
	}
	trout.Logger().Debug("indexing", "reindex", reindex, "new", len(ids)-reindex)

	batch := ix.BatchSize
	if batch <= 0 {
		batch = defaultIndexBatch
	}
	written := 0
	for start := 0; start < len(ids); start += batch {
		recs, err := ix.fetch(ctx, ids[start:min(start+batch, len(ids))])
		if err != nil {
			return written, err
		}
		if len(recs) == 0 {
			continue
		}
		if err := ix.Index.Put(ctx, recs...); err != nil {
			return written, err
		}
		written += len(recs)
		ix.pin(ctx, recs)
	}
	return written, nil
}

func (ix *Indexer) fetch(ctx context.Context, ids []uint64) ([]Record, error) {
	conc := ix.Concurrency
	if conc <= 0 {
		conc = defaultIndexConcurrency
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(conc)

	var mu sync.Mutex
	var recs []Record
	for _, id := range ids {
		g.Go(func() error {
			rec, ok, err := ix.fetchOne(ctx, id)
			if err != nil || !ok {
				return err
			}
			mu.Lock()
			recs = append(recs, rec)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recs, nil
}

func (ix *Indexer) fetchOne(ctx context.Context, id uint64) (Record, bool, error) {
	uri, err := ix.Ledger.ArtifactURI(ctx, id)
	if err != nil {
		return Record{}, false, err
	}
	cid, err := storage.ParseURI(uri)
	if err != nil || cid.IsZero() {
		return Record{}, false, err
	}
	blob, err := ix.Store.Fetch(ctx, cid)
	if err != nil {
		return Record{}, false, fmt.Errorf("index: fetch item %d: %w", id, err)
	}
	m, err := artifact.Decode(blob)
	if errors.Is(err, artifact.ErrLegacyFormat) || errors.Is(err, artifact.ErrMalformed) {
		trout.Logger().Warn("skipping undecodable artifact", "item", id, "cid", cid, "err", err)
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("index: decode item %d: %w", id, err)
	}
	return RecordOf(cid, &m), true, nil
}

// pin keeps indexed artifacts and their images resident when the store
// supports pinning. Failures are logged.
func (ix *Indexer) pin(ctx context.Context, recs []Record) {
	p, ok := ix.Store.(storage.Pinner)
	if !ok {
		return
	}
	for _, r := range recs {
		ids := []storage.ContentID{r.ContentID}
		if img, err := storage.ParseURI(r.Image); err == nil && !img.IsZero() {
			ids = append(ids, img)
		}
		for _, id := range ids {
			if err := p.Pin(ctx, id); err != nil {
				trout.Logger().Error("failed to pin", "item", r.Self.ItemID, "cid", id, "err", err)
			}
		}
	}
}
