// Package spawner keeps the ledger's items backed by current artifacts.
//
// A run finds the stale items, computes each one from its parents (or
// spawns it when it has none), stores the rendered image and the sealed
// artifact, and posts the content ids to the ledger in ascending batches.
// Results the ledger has not accepted yet are kept and posted by a later
// run without being computed again.
package spawner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/trouthatch/trout"
	"github.com/trouthatch/trout/artifact"
	"github.com/trouthatch/trout/cipher"
	"github.com/trouthatch/trout/genetics"
	"github.com/trouthatch/trout/index"
	"github.com/trouthatch/trout/ledger"
	"github.com/trouthatch/trout/storage"
)

const (
	// DefaultBatchSize is the number of items posted per submission.
	DefaultBatchSize = 30

	defaultProbeConcurrency = 8

	// linearScanMax is the largest supply scanned item by item.
	linearScanMax = 16

	tracerName = "github.com/trouthatch/trout/spawner"
)

// Checkpoint saves the spawner's cache between processes. *index.Index
// implements it.
type Checkpoint interface {
	SaveCheckpoint(ctx context.Context, networkID uint64, entries []index.CheckpointEntry) error
	LoadCheckpoint(ctx context.Context, networkID uint64) ([]index.CheckpointEntry, error)
}

// Options configure a Spawner. Zero fields take their defaults.
type Options struct {
	NetworkID uint64

	// Policy decides genesis and seasonal attributes. Nil means
	// artifact.DefaultPolicy(NetworkID).
	Policy *artifact.Policy

	BatchSize        int
	Retry            Retry
	ProbeConcurrency int

	// Checkpoint, when set, restores unposted results at the first run and
	// saves the cache after every run.
	Checkpoint Checkpoint

	// Catalog is the trait catalog. Nil means genetics.Default().
	Catalog *genetics.Catalog
}

// Spawner runs the pipeline against one ledger. Its cache survives
// between runs; Run must not be called concurrently.
type Spawner struct {
	ledger  ledger.Ledger
	store   storage.Store
	cipher  *cipher.Cipher
	opts    Options
	policy  artifact.Policy
	catalog *genetics.Catalog
	tracer  trace.Tracer
	cache   *cache
	loaded  bool
}

// New returns a Spawner.
func New(l ledger.Ledger, s storage.Store, c *cipher.Cipher, opts Options) (*Spawner, error) {
	if l == nil || s == nil || c == nil {
		return nil, errors.New("spawner: ledger, store and cipher are required")
	}
	if opts.BatchSize < 0 {
		return nil, fmt.Errorf("spawner: invalid batch size %d", opts.BatchSize)
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Retry.Attempts <= 0 {
		opts.Retry = DefaultRetry
	}
	if opts.ProbeConcurrency <= 0 {
		opts.ProbeConcurrency = defaultProbeConcurrency
	}
	policy := artifact.DefaultPolicy(opts.NetworkID)
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = genetics.Default()
	}
	return &Spawner{
		ledger:  l,
		store:   s,
		cipher:  c,
		opts:    opts,
		policy:  policy,
		catalog: catalog,
		tracer:  otel.Tracer(tracerName),
		cache:   newCache(),
	}, nil
}

// Report summarizes a run.
type Report struct {
	RunID string

	// Stale lists the items found needing an artifact, ascending.
	Stale []uint64

	// Computed counts items computed this run; Reused counts unposted
	// results carried over from an earlier run.
	Computed, Reused int

	// Current counts stale candidates whose posted artifact turned out to
	// be current; they are neither computed nor submitted again.
	Current int

	// Posted lists the items the ledger accepted.
	Posted   []uint64
	Receipts []ledger.Receipt

	// Unposted lists computed items whose batch was rejected.
	Unposted []uint64
}

// run carries the state of one Run call.
type run struct {
	*Spawner
	log    *slog.Logger
	report *Report
}

func (s *Spawner) newRun() *run {
	id := uuid.NewString()
	return &run{
		Spawner: s,
		log:     trout.Logger().With("run_id", id, "network", s.opts.NetworkID),
		report:  &Report{RunID: id},
	}
}

// Run brings the ledger up to date. It stops at the first item that cannot
// be computed and returns an *ItemError; batches posted before it stay
// posted. Rejected batches are logged and reported with ErrSubmitFailed
// after the remaining batches were tried.
func (s *Spawner) Run(ctx context.Context) (*Report, error) {
	r := s.newRun()
	ctx, span := s.tracer.Start(ctx, "spawner.Run",
		trace.WithAttributes(attribute.String("trout.run_id", r.report.RunID)))
	defer span.End()

	err := r.execute(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	r.saveCheckpoint(ctx)
	return r.report, err
}

func (r *run) execute(ctx context.Context) error {
	r.loadCheckpoint(ctx)

	stale, err := r.discover(ctx)
	if err != nil {
		return err
	}
	r.report.Stale = stale
	if len(stale) == 0 {
		r.log.Debug("nothing to spawn")
		return nil
	}
	r.log.Info("found tasks", "count", len(stale), "first", stale[0], "last", stale[len(stale)-1])

	var rejected []error
	for start := 0; start < len(stale); start += r.opts.BatchSize {
		items := stale[start:min(start+r.opts.BatchSize, len(stale))]
		err := r.batch(ctx, items)
		if errors.Is(err, ErrSubmitFailed) {
			rejected = append(rejected, err)
			continue
		}
		if err != nil {
			return err
		}
	}
	return errors.Join(rejected...)
}

// loadCheckpoint restores unposted results saved by an earlier process.
// Posted entries are left to discovery, which asks the ledger.
func (r *run) loadCheckpoint(ctx context.Context) {
	if r.loaded || r.opts.Checkpoint == nil {
		return
	}
	r.loaded = true
	entries, err := r.opts.Checkpoint.LoadCheckpoint(ctx, r.opts.NetworkID)
	if err != nil {
		r.log.Error("failed to load checkpoint", "err", err)
		return
	}
	restored := 0
	for _, e := range entries {
		if e.Posted {
			continue
		}
		m, err := r.fetchMetadata(ctx, e.ContentID)
		if err != nil || !m.Properties.IsCurrent() || m.Properties.Self.ItemID != e.Item {
			r.log.Warn("dropping checkpoint entry", "item", e.Item, "cid", e.ContentID, "err", err)
			continue
		}
		r.cache.set(e.Item, resolved{cid: e.ContentID, meta: m})
		restored++
	}
	r.log.Debug("loaded checkpoint", "entries", len(entries), "restored", restored)
}

func (r *run) saveCheckpoint(ctx context.Context) {
	if r.opts.Checkpoint == nil {
		return
	}
	if err := r.opts.Checkpoint.SaveCheckpoint(ctx, r.opts.NetworkID, r.cache.checkpoint()); err != nil {
		r.log.Error("failed to save checkpoint", "err", err)
	}
}
