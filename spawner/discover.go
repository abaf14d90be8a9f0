package spawner

import (
	"context"
	"errors"
	"slices"

	"github.com/cenkalti/backoff/v5"
	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/trouthatch/trout/artifact"
	"github.com/trouthatch/trout/storage"
)

// discover returns the ascending ids of items that need an artifact, or
// need their computed artifact posted.
//
// Items are assumed to go stale oldest first, so on a large ledger the
// boundary is found by binary search. Small ledgers are scanned item by
// item.
func (r *run) discover(ctx context.Context) ([]uint64, error) {
	ctx, span := r.tracer.Start(ctx, "discover")
	defer span.End()

	total, err := retry(ctx, r.opts.Retry, "total supply", func() (uint64, error) {
		return r.ledger.TotalSupply(ctx)
	})
	if err != nil {
		return nil, err
	}

	var stale []uint64
	if total <= linearScanMax {
		stale, err = r.scan(ctx, total)
	} else {
		var first uint64
		first, err = frontier(ctx, 1, total+1, r.probe)
		for id := first; id <= total; id++ {
			stale = append(stale, id)
		}
	}
	if err != nil {
		return nil, err
	}

	// Results rejected by an earlier submission may sit below the frontier.
	stale = append(stale, r.cache.pending()...)
	slices.Sort(stale)
	stale = slices.Compact(stale)

	span.SetAttributes(
		attribute.Int64("trout.total_supply", int64(total)),
		attribute.Int("trout.stale", len(stale)),
	)
	return stale, nil
}

// frontier returns the first id in [lo, hi) for which stale reports true,
// or hi when there is none. stale must be monotonic over the range.
func frontier(ctx context.Context, lo, hi uint64, stale func(context.Context, uint64) (bool, error)) (uint64, error) {
	for lo < hi {
		mid := lo + (hi-lo)/2
		s, err := stale(ctx, mid)
		if err != nil {
			return 0, err
		}
		if s {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, nil
}

// scan probes items 1..total concurrently.
func (r *run) scan(ctx context.Context, total uint64) ([]uint64, error) {
	flags := make([]bool, total+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.ProbeConcurrency)
	for id := uint64(1); id <= total; id++ {
		g.Go(func() error {
			s, err := r.probe(gctx, id)
			flags[id] = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var stale []uint64
	for id := uint64(1); id <= total; id++ {
		if flags[id] {
			stale = append(stale, id)
		}
	}
	return stale, nil
}

// probe reports whether item needs an artifact and records what it found.
// Resolved entries are not stale here; discover merges them in through
// pending, which keeps the probe monotonic when a batch in the middle of
// the ledger was rejected.
func (r *run) probe(ctx context.Context, item uint64) (bool, error) {
	switch r.cache.get(item).(type) {
	case unresolved:
		return true, nil
	case resolved, posted:
		return false, nil
	}
	e, err := r.inspect(ctx, item)
	if err != nil {
		return false, err
	}
	r.cache.set(item, e)
	_, stale := e.(unresolved)
	return stale, nil
}

// inspect reads the artifact the ledger points at for item. It returns
// posted for a current artifact of item and unresolved, carrying the
// replaced artifact and its history, for anything else.
func (r *run) inspect(ctx context.Context, item uint64) (entry, error) {
	uri, err := retry(ctx, r.opts.Retry, "artifact uri", func() (string, error) {
		return r.ledger.ArtifactURI(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	cid, err := storage.ParseURI(uri)
	if err != nil {
		r.log.Warn("unreadable artifact uri", "item", item, "uri", uri, "err", err)
		return unresolved{}, nil
	}
	if cid.IsZero() {
		return unresolved{}, nil
	}

	m, err := r.fetchMetadata(ctx, cid)
	switch {
	case errors.Is(err, artifact.ErrLegacyFormat), errors.Is(err, artifact.ErrMalformed):
		r.log.Warn("replacing unreadable artifact", "item", item, "cid", cid, "err", err)
		return unresolved{prev: cid}, nil
	case err != nil:
		return nil, err
	}

	self := artifact.OrganismID{NetworkID: r.opts.NetworkID, ItemID: item}
	if m.Properties.Self != self {
		r.log.Warn("replacing artifact of another item", "item", item, "cid", cid, "self", m.Properties.Self)
		return unresolved{prev: cid}, nil
	}
	if !m.Properties.IsCurrent() {
		return unresolved{prev: cid, history: m.Properties.Generations}, nil
	}
	return posted{cid: cid, meta: m}, nil
}

// fetchMetadata fetches and decodes a stored artifact. Only the fetch is
// retried.
func (r *run) fetchMetadata(ctx context.Context, cid storage.ContentID) (artifact.Metadata, error) {
	blob, err := retry(ctx, r.opts.Retry, "fetch "+cid.String(), func() ([]byte, error) {
		b, err := r.store.Fetch(ctx, cid)
		if errors.Is(err, storage.ErrInvalidID) {
			return nil, backoff.Permanent(err)
		}
		return b, err
	})
	if err != nil {
		return artifact.Metadata{}, err
	}
	r.log.Debug("fetched artifact", "cid", cid, "size", humanize.Bytes(uint64(len(blob))))
	return artifact.Decode(blob)
}
