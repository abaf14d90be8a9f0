package spawner

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/trouthatch/trout/artifact"
	"github.com/trouthatch/trout/genetics"
	"github.com/trouthatch/trout/render"
	"github.com/trouthatch/trout/storage"
)

// parent is a resolved parent of a bred item.
type parent struct {
	id     artifact.OrganismID
	traits artifact.Traits
}

// compute builds, renders and stores the artifact of item and caches it
// as resolved.
func (r *run) compute(ctx context.Context, item uint64) (resolved, error) {
	ctx, span := r.tracer.Start(ctx, "spawner.compute",
		trace.WithAttributes(attribute.Int64("trout.item_id", int64(item))))
	defer span.End()

	res, err := r.computeItem(ctx, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resolved{}, &ItemError{Item: item, Err: err}
	}
	r.cache.set(item, res)
	return res, nil
}

func (r *run) computeItem(ctx context.Context, item uint64) (resolved, error) {
	type pair struct{ left, right uint64 }
	p, err := retry(ctx, r.opts.Retry, "parents", func() (pair, error) {
		l, rt, err := r.ledger.Parents(ctx, item)
		return pair{l, rt}, err
	})
	if err != nil {
		return resolved{}, err
	}

	self := artifact.OrganismID{NetworkID: r.opts.NetworkID, ItemID: item}
	attrs := r.policy.Attributes(item)
	seed, err := artifact.DeriveSeed(r.cipher, self)
	if err != nil {
		return resolved{}, err
	}

	var (
		org         genetics.Organism
		left, right *artifact.OrganismID
	)
	switch {
	case p.left == 0 && p.right == 0:
		if attrs.Genesis {
			org, err = r.catalog.Genesis(seed)
		} else {
			org, err = r.catalog.Spawn(seed)
		}
	case p.left == 0 || p.right == 0:
		return resolved{}, fmt.Errorf("%w: item has parents %d and %d", ErrMissingParent, p.left, p.right)
	default:
		var lp, rp parent
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) { lp, err = r.parent(gctx, p.left); return err })
		g.Go(func() (err error) { rp, err = r.parent(gctx, p.right); return err })
		if err := g.Wait(); err != nil {
			return resolved{}, err
		}
		left, right = &lp.id, &rp.id
		org, err = r.catalog.Breed(&lp.traits.Genotype, &rp.traits.Genotype, seed)
	}
	if err != nil {
		return resolved{}, err
	}

	d, err := render.Draw(&org.Phenotype, render.Options{Seed: seed, Seasonal: attrs.Seasonal})
	if err != nil {
		return resolved{}, err
	}
	var svg bytes.Buffer
	if err := d.WriteSVG(&svg); err != nil {
		return resolved{}, err
	}
	image, err := r.storeBlob(ctx, item, "image", svg.Bytes())
	if err != nil {
		return resolved{}, err
	}

	generations, err := r.generations(ctx, item)
	if err != nil {
		return resolved{}, err
	}
	meta, err := artifact.Build(r.cipher, &artifact.Params{
		Self:        self,
		Left:        left,
		Right:       right,
		Attributes:  attrs,
		Traits:      artifact.Traits{Seed: seed, Organism: org},
		Image:       image,
		Generations: generations,
	})
	if err != nil {
		return resolved{}, err
	}
	blob, err := meta.Encode()
	if err != nil {
		return resolved{}, err
	}
	cid, err := r.storeBlob(ctx, item, "artifact", blob)
	if err != nil {
		return resolved{}, err
	}
	r.log.Debug("computed item", "item", item, "cid", cid, "seed", seed,
		"bred", left != nil, "genesis", attrs.Genesis, "seasonal", attrs.Seasonal)
	return resolved{cid: cid, meta: meta}, nil
}

// generations returns the history of the artifact replacing item's
// current one: the old history followed by the old content id. Items
// that were never probed are inspected first.
func (r *run) generations(ctx context.Context, item uint64) ([]storage.ContentID, error) {
	e := r.cache.get(item)
	if e == nil {
		var err error
		if e, err = r.inspect(ctx, item); err != nil {
			return nil, err
		}
	}
	var prev storage.ContentID
	var history []storage.ContentID
	switch e := e.(type) {
	case unresolved:
		prev, history = e.prev, e.history
	case posted:
		prev, history = e.cid, e.meta.Properties.Generations
	case resolved:
		// Recomputing an unposted result replaces nothing on the ledger.
		return e.meta.Properties.Generations, nil
	}
	if prev.IsZero() {
		return nil, nil
	}
	return append(slices.Clone(history), prev), nil
}

func (r *run) storeBlob(ctx context.Context, item uint64, kind string, blob []byte) (storage.ContentID, error) {
	cid, err := retry(ctx, r.opts.Retry, "store "+kind, func() (storage.ContentID, error) {
		return r.store.Store(ctx, blob)
	})
	if err != nil {
		return "", err
	}
	r.log.Debug("stored blob", "item", item, "kind", kind, "cid", cid, "size", humanize.Bytes(uint64(len(blob))))
	return cid, nil
}

// parent resolves the artifact and traits of a parent item, preferring
// results computed earlier in this process.
func (r *run) parent(ctx context.Context, item uint64) (parent, error) {
	m, ok := r.cache.metadata(item)
	if !ok {
		uri, err := retry(ctx, r.opts.Retry, "artifact uri", func() (string, error) {
			return r.ledger.ArtifactURI(ctx, item)
		})
		if err != nil {
			return parent{}, err
		}
		cid, err := storage.ParseURI(uri)
		if err != nil {
			return parent{}, fmt.Errorf("%w: item %d: %w", ErrMissingParent, item, err)
		}
		if cid.IsZero() {
			return parent{}, fmt.Errorf("%w: item %d has no artifact", ErrMissingParent, item)
		}
		m, err = r.fetchMetadata(ctx, cid)
		if err != nil {
			return parent{}, fmt.Errorf("%w: item %d: %w", ErrMissingParent, item, err)
		}
		if m.Properties.IsCurrent() && m.Properties.Self.ItemID == item {
			r.cache.set(item, posted{cid: cid, meta: m})
		}
	}
	t, err := artifact.Open(r.cipher, &m.Properties)
	if err != nil {
		return parent{}, fmt.Errorf("%w: item %d: %w", ErrMissingParent, item, err)
	}
	return parent{id: m.Properties.Self, traits: t}, nil
}
