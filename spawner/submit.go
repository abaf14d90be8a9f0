package spawner

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/trouthatch/trout/artifact"
	"github.com/trouthatch/trout/ledger"
	"github.com/trouthatch/trout/storage"
)

// sapphireGasLimit is the fixed gas limit of submissions on Sapphire
// networks, where estimation under-reports encrypted calls.
const sapphireGasLimit = 15_000_000

// result pairs an item with its stored artifact.
type result struct {
	item uint64
	cid  storage.ContentID
}

// batch computes items in order, reusing unposted results and skipping
// items whose posted artifact is current, then submits them. It stops at the first item that fails and submits nothing for
// the batch.
func (r *run) batch(ctx context.Context, items []uint64) error {
	ctx, span := r.tracer.Start(ctx, "batch", trace.WithAttributes(
		attribute.Int64("trout.first_item", int64(items[0])),
		attribute.Int("trout.batch_size", len(items)),
	))
	defer span.End()

	results := make([]result, 0, len(items))
	for _, id := range items {
		e := r.cache.get(id)
		if e == nil {
			// Above the frontier only the midpoints were probed.
			var err error
			if e, err = r.inspect(ctx, id); err != nil {
				err = &ItemError{Item: id, Err: err}
				r.log.Error("failed to inspect item", "item", id, "err", err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
			r.cache.set(id, e)
		}
		switch e := e.(type) {
		case resolved:
			r.report.Reused++
			results = append(results, result{item: id, cid: e.cid})
			continue
		case posted:
			r.log.Debug("item already current", "item", id, "cid", e.cid)
			r.report.Current++
			continue
		}
		res, err := r.compute(ctx, id)
		if err != nil {
			r.log.Error("failed to compute item", "item", id, "err", err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		r.report.Computed++
		results = append(results, result{item: id, cid: res.cid})
	}
	err := r.submit(ctx, results)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// submit posts results as one ledger transaction, ascending by item. On
// success the entries become posted; on failure they stay resolved.
func (r *run) submit(ctx context.Context, results []result) error {
	if len(results) == 0 {
		return nil
	}
	slices.SortFunc(results, func(a, b result) int { return cmp.Compare(a.item, b.item) })
	items := make([]uint64, len(results))
	cids := make([]string, len(results))
	for i, res := range results {
		items[i], cids[i] = res.item, res.cid.String()
	}
	receipt, err := r.ledger.SubmitResults(ctx, items, []byte{}, ledger.EncodeStrings(cids), ledger.SubmitOptions{
		GasLimit: gasLimit(r.opts.NetworkID),
	})
	if err != nil {
		r.log.Error("failed to post task results", "items", len(items), "first", items[0], "err", err)
		r.report.Unposted = append(r.report.Unposted, items...)
		return fmt.Errorf("%w: items %d..%d: %w", ErrSubmitFailed, items[0], items[len(items)-1], err)
	}
	r.cache.markPosted(items)
	r.report.Posted = append(r.report.Posted, items...)
	r.report.Receipts = append(r.report.Receipts, receipt)
	r.log.Info("submitted batch", "tx", receipt.TxHash, "items", receipt.Items, "first", items[0], "last", items[len(items)-1])
	return nil
}

// gasLimit returns the gas limit override for a network, zero for none.
func gasLimit(networkID uint64) uint64 {
	if networkID >= artifact.Sapphire-1 && networkID <= artifact.Sapphire+1 {
		return sapphireGasLimit
	}
	return 0
}
