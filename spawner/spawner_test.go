package spawner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/trouthatch/trout/artifact"
	"github.com/trouthatch/trout/cipher"
	"github.com/trouthatch/trout/genetics"
	"github.com/trouthatch/trout/index"
	"github.com/trouthatch/trout/ledger"
	"github.com/trouthatch/trout/storage"
)

var fastRetry = Retry{Attempts: 3, Delay: time.Millisecond}

func testCipher(t *testing.T) *cipher.Cipher {
	t.Helper()
	c, err := cipher.New(bytes.Repeat([]byte{7}, cipher.MinRootKeySize))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func newSpawner(t *testing.T, l ledger.Ledger, s storage.Store, opts Options) *Spawner {
	t.Helper()
	if opts.NetworkID == 0 {
		opts.NetworkID = artifact.Hardhat
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = fastRetry
	}
	sp, err := New(l, s, testCipher(t), opts)
	if err != nil {
		t.Fatal(err)
	}
	return sp
}

func mint(t *testing.T, l *ledger.Memory, parents ...[2]uint64) {
	t.Helper()
	for _, p := range parents {
		if _, err := l.Mint(p[0], p[1]); err != nil {
			t.Fatal(err)
		}
	}
}

func roots(n int) [][2]uint64 {
	return make([][2]uint64, n)
}

func metadataOf(t *testing.T, l ledger.Ledger, s storage.Store, item uint64) (storage.ContentID, artifact.Metadata) {
	t.Helper()
	ctx := context.Background()
	uri, err := l.ArtifactURI(ctx, item)
	if err != nil {
		t.Fatal(err)
	}
	cid, err := storage.ParseURI(uri)
	if err != nil || cid.IsZero() {
		t.Fatalf("item %d: uri %q: %v", item, uri, err)
	}
	blob, err := s.Fetch(ctx, cid)
	if err != nil {
		t.Fatal(err)
	}
	m, err := artifact.Decode(blob)
	if err != nil {
		t.Fatal(err)
	}
	return cid, m
}

func ids(from, to uint64) []uint64 {
	var out []uint64
	for id := from; id <= to; id++ {
		out = append(out, id)
	}
	return out
}

// rejectingLedger fails submissions while reject is set.
type rejectingLedger struct {
	*ledger.Memory
	reject atomic.Bool
}

func (l *rejectingLedger) SubmitResults(ctx context.Context, items []uint64, aux, results []byte, opts ledger.SubmitOptions) (ledger.Receipt, error) {
	if l.reject.Load() {
		return ledger.Receipt{}, errors.New("transaction reverted")
	}
	return l.Memory.SubmitResults(ctx, items, aux, results, opts)
}

// brokenParents fails Parents for the listed items.
type brokenParents struct {
	*ledger.Memory
	broken map[uint64]bool
}

func (l *brokenParents) Parents(ctx context.Context, item uint64) (uint64, uint64, error) {
	if l.broken[item] {
		return 0, 0, errors.New("rpc unavailable")
	}
	return l.Memory.Parents(ctx, item)
}

func TestFrontier(t *testing.T) {
	tests := []struct {
		name  string
		n     uint64
		first uint64 // first stale item, n+1 for none
	}{
		{"tail stale", 10, 7},
		{"all current", 10, 11},
		{"all stale", 10, 1},
		{"single current", 1, 2},
		{"single stale", 1, 1},
		{"empty", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probes := 0
			got, err := frontier(context.Background(), 1, tt.n+1, func(_ context.Context, id uint64) (bool, error) {
				probes++
				return id >= tt.first, nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.first {
				t.Errorf("frontier = %d, want %d", got, tt.first)
			}
			if tt.n > 0 && probes > 5 {
				t.Errorf("probes = %d, want a logarithmic count", probes)
			}
		})
	}
}

func TestFrontierError(t *testing.T) {
	boom := errors.New("boom")
	_, err := frontier(context.Background(), 1, 11, func(context.Context, uint64) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestSubmitSortsAscending(t *testing.T) {
	l := ledger.NewMemory()
	mint(t, l, roots(9)...)
	sp := newSpawner(t, l, storage.NewMemory(), Options{})
	r := sp.newRun()

	var results []result
	for _, id := range []uint64{7, 3, 9, 1} {
		results = append(results, result{item: id, cid: storage.Sum(fmt.Appendf(nil, "item %d", id))})
	}
	if err := r.submit(context.Background(), results); err != nil {
		t.Fatal(err)
	}
	subs := l.Submissions()
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	if want := []uint64{1, 3, 7, 9}; !slices.Equal(subs[0].Items, want) {
		t.Errorf("items = %v, want %v", subs[0].Items, want)
	}
	for i, id := range subs[0].Items {
		if want := storage.Sum(fmt.Appendf(nil, "item %d", id)).String(); subs[0].Results[i] != want {
			t.Errorf("result %d = %s, want %s", i, subs[0].Results[i], want)
		}
	}
	if !slices.Equal(r.report.Posted, []uint64{1, 3, 7, 9}) {
		t.Errorf("posted = %v", r.report.Posted)
	}
}

func TestRunSpawnsAndBreeds(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	mint(t, l, [2]uint64{}, [2]uint64{}, [2]uint64{1, 2})
	s := storage.NewMemory()
	policy := artifact.Policy{GenesisLimit: 1}
	sp := newSpawner(t, l, s, Options{Policy: &policy})

	rep, err := sp.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(rep.Stale, ids(1, 3)) || !slices.Equal(rep.Posted, ids(1, 3)) {
		t.Fatalf("stale = %v, posted = %v", rep.Stale, rep.Posted)
	}
	if rep.Computed != 3 || rep.Reused != 0 || rep.RunID == "" {
		t.Errorf("report = %+v", rep)
	}

	c := testCipher(t)
	for id := uint64(1); id <= 3; id++ {
		_, m := metadataOf(t, l, s, id)
		d := m.Properties
		if d.Self != (artifact.OrganismID{NetworkID: artifact.Hardhat, ItemID: id}) {
			t.Errorf("item %d: self = %v", id, d.Self)
		}
		if !d.IsCurrent() {
			t.Errorf("item %d: format version %d", id, d.FormatVersion)
		}
		if img, err := storage.ParseURI(m.Image); err != nil || img.IsZero() {
			t.Errorf("item %d: image %q", id, m.Image)
		} else if svg, err := s.Fetch(ctx, img); err != nil || !bytes.HasPrefix(svg, []byte("<svg")) {
			t.Errorf("item %d: image is not an svg: %v", id, err)
		}
		traits, err := artifact.Open(c, &d)
		if err != nil {
			t.Fatalf("item %d: %v", id, err)
		}
		seed, err := artifact.DeriveSeed(c, d.Self)
		if err != nil {
			t.Fatal(err)
		}
		if traits.Seed != seed {
			t.Errorf("item %d: seed = %d, want %d", id, traits.Seed, seed)
		}

		switch id {
		case 1:
			if !d.IsRoot() || !d.Attributes.Genesis {
				t.Errorf("item 1: want a genesis root, got %+v", d)
			}
			if traits.Phenotype.Int(genetics.Color) != genetics.ColorRainbow {
				t.Error("genesis item is not rainbow")
			}
		case 2:
			if !d.IsRoot() || d.Attributes.Genesis {
				t.Errorf("item 2: want a plain root, got %+v", d)
			}
		case 3:
			if d.Left == nil || d.Right == nil || d.Left.ItemID != 1 || d.Right.ItemID != 2 {
				t.Errorf("item 3: parents = %v, %v", d.Left, d.Right)
			}
		}
	}

	rep, err = sp.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Stale) != 0 || rep.Computed != 0 {
		t.Errorf("second run: %+v", rep)
	}
	if n := len(l.Submissions()); n != 1 {
		t.Errorf("submissions = %d, want 1", n)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	ctx := context.Background()
	images := make([]string, 2)
	for i := range images {
		l := ledger.NewMemory()
		mint(t, l, roots(2)...)
		s := storage.NewMemory()
		if _, err := newSpawner(t, l, s, Options{}).Run(ctx); err != nil {
			t.Fatal(err)
		}
		_, m := metadataOf(t, l, s, 2)
		images[i] = m.Image
	}
	if images[0] != images[1] {
		t.Errorf("images differ: %s and %s", images[0], images[1])
	}
}

func TestRunBatches(t *testing.T) {
	l := ledger.NewMemory()
	mint(t, l, roots(5)...)
	sp := newSpawner(t, l, storage.NewMemory(), Options{BatchSize: 2})
	if _, err := sp.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	subs := l.Submissions()
	want := [][]uint64{{1, 2}, {3, 4}, {5}}
	if len(subs) != len(want) {
		t.Fatalf("submissions = %d, want %d", len(subs), len(want))
	}
	for i, s := range subs {
		if !slices.Equal(s.Items, want[i]) {
			t.Errorf("batch %d = %v, want %v", i, s.Items, want[i])
		}
	}
}

func TestRunFindsFrontier(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	s := storage.NewMemory()
	mint(t, l, roots(12)...)
	if _, err := newSpawner(t, l, s, Options{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	mint(t, l, roots(8)...)

	// A fresh spawner knows nothing; 20 items are searched, not scanned.
	rep, err := newSpawner(t, l, s, Options{}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(rep.Stale, ids(13, 20)) {
		t.Errorf("stale = %v, want 13..20", rep.Stale)
	}
}

// postOutdated stores an artifact of the previous format for item, with
// history as its generations, and points the ledger at it.
func postOutdated(t *testing.T, l *ledger.Memory, s storage.Store, item uint64, history ...storage.ContentID) storage.ContentID {
	t.Helper()
	ctx := context.Background()
	org, err := genetics.Spawn(uint32(item))
	if err != nil {
		t.Fatal(err)
	}
	old, err := artifact.Build(testCipher(t), &artifact.Params{
		Self:        artifact.OrganismID{NetworkID: artifact.Hardhat, ItemID: item},
		Traits:      artifact.Traits{Seed: uint32(item), Organism: org},
		Generations: history,
	})
	if err != nil {
		t.Fatal(err)
	}
	old.Properties.FormatVersion = artifact.CurrentFormatVersion - 1
	blob, err := old.Encode()
	if err != nil {
		t.Fatal(err)
	}
	cid, err := s.Store(ctx, blob)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.SetArtifactURI(item, cid.URI()); err != nil {
		t.Fatal(err)
	}
	return cid
}

func TestRunKeepsGenerations(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	mint(t, l, roots(1)...)
	s := storage.NewMemory()

	ancient := storage.Sum([]byte("ancient"))
	oldCID := postOutdated(t, l, s, 1, ancient)

	rep, err := newSpawner(t, l, s, Options{}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(rep.Posted, []uint64{1}) {
		t.Fatalf("posted = %v", rep.Posted)
	}
	cid, m := metadataOf(t, l, s, 1)
	if cid == oldCID {
		t.Fatal("artifact was not replaced")
	}
	if want := []storage.ContentID{ancient, oldCID}; !slices.Equal(m.Properties.Generations, want) {
		t.Errorf("generations = %v, want %v", m.Properties.Generations, want)
	}
}

func TestRunKeepsGenerationsAboveFrontier(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	const n = 20 // searched, so most items are never probed
	mint(t, l, roots(n)...)
	s := storage.NewMemory()
	want := make(map[uint64][]storage.ContentID)
	for id := uint64(1); id <= n; id++ {
		ancient := storage.Sum(fmt.Appendf(nil, "ancient %d", id))
		want[id] = []storage.ContentID{ancient, postOutdated(t, l, s, id, ancient)}
	}

	rep, err := newSpawner(t, l, s, Options{}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(rep.Posted, ids(1, n)) {
		t.Fatalf("posted = %v", rep.Posted)
	}
	for id := uint64(1); id <= n; id++ {
		_, m := metadataOf(t, l, s, id)
		if !slices.Equal(m.Properties.Generations, want[id]) {
			t.Errorf("item %d: generations = %v, want %v", id, m.Properties.Generations, want[id])
		}
	}
}

func TestRunReplacesUnreadableArtifact(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	mint(t, l, roots(2)...)
	s := storage.NewMemory()
	legacy, err := s.Store(ctx, []byte(`{"properties":{"version":2}}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := l.SetArtifactURI(1, legacy.URI()); err != nil {
		t.Fatal(err)
	}
	rep, err := newSpawner(t, l, s, Options{}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(rep.Posted, []uint64{1, 2}) {
		t.Fatalf("posted = %v", rep.Posted)
	}
	_, m := metadataOf(t, l, s, 1)
	if want := []storage.ContentID{legacy}; !slices.Equal(m.Properties.Generations, want) {
		t.Errorf("generations = %v, want %v", m.Properties.Generations, want)
	}
}

func TestComputeMissingParent(t *testing.T) {
	l := ledger.NewMemory()
	mint(t, l, [2]uint64{}, [2]uint64{}, [2]uint64{1, 2})
	sp := newSpawner(t, l, storage.NewMemory(), Options{})
	r := sp.newRun()

	_, err := r.compute(context.Background(), 3)
	var ie *ItemError
	if !errors.As(err, &ie) || ie.Item != 3 {
		t.Fatalf("err = %v, want an *ItemError for item 3", err)
	}
	if !errors.Is(err, ErrMissingParent) {
		t.Errorf("err = %v, want ErrMissingParent", err)
	}
	if _, ok := sp.cache.get(3).(resolved); ok {
		t.Error("failed item was cached as resolved")
	}
}

func TestComputeLegacyParent(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	mint(t, l, [2]uint64{}, [2]uint64{}, [2]uint64{1, 2})
	s := storage.NewMemory()
	for id := uint64(1); id <= 2; id++ {
		cid, err := s.Store(ctx, []byte(`not json`))
		if err != nil {
			t.Fatal(err)
		}
		if err := l.SetArtifactURI(id, cid.URI()); err != nil {
			t.Fatal(err)
		}
	}
	_, err := newSpawner(t, l, s, Options{}).newRun().compute(ctx, 3)
	if !errors.Is(err, ErrMissingParent) || !errors.Is(err, ErrLegacyFormat) {
		t.Errorf("err = %v, want ErrMissingParent and ErrLegacyFormat", err)
	}
}

func TestRunStopsAtFailedItem(t *testing.T) {
	ctx := context.Background()
	mem := ledger.NewMemory()
	mint(t, mem, roots(3)...)
	l := &brokenParents{Memory: mem, broken: map[uint64]bool{2: true}}
	sp := newSpawner(t, l, storage.NewMemory(), Options{})

	rep, err := sp.Run(ctx)
	var ie *ItemError
	if !errors.As(err, &ie) || ie.Item != 2 {
		t.Fatalf("err = %v, want an *ItemError for item 2", err)
	}
	if !errors.Is(err, ErrTransient) {
		t.Errorf("err = %v, want ErrTransient", err)
	}
	if rep.Computed != 1 || len(rep.Posted) != 0 {
		t.Errorf("report = %+v", rep)
	}
	if n := len(mem.Submissions()); n != 0 {
		t.Errorf("submissions = %d, want 0", n)
	}

	delete(l.broken, 2)
	rep, err = sp.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Reused != 1 || rep.Computed != 2 || !slices.Equal(rep.Posted, ids(1, 3)) {
		t.Errorf("report = %+v", rep)
	}
}

func TestRunSubmitFailure(t *testing.T) {
	ctx := context.Background()
	l := &rejectingLedger{Memory: ledger.NewMemory()}
	mint(t, l.Memory, roots(2)...)
	l.reject.Store(true)
	sp := newSpawner(t, l, storage.NewMemory(), Options{})

	rep, err := sp.Run(ctx)
	if !errors.Is(err, ErrSubmitFailed) {
		t.Fatalf("err = %v, want ErrSubmitFailed", err)
	}
	if !slices.Equal(rep.Unposted, []uint64{1, 2}) || len(rep.Posted) != 0 {
		t.Errorf("report = %+v", rep)
	}
	for id := uint64(1); id <= 2; id++ {
		if uri, _ := l.ArtifactURI(ctx, id); uri != storage.URIScheme {
			t.Errorf("item %d: uri = %q", id, uri)
		}
		if _, ok := sp.cache.get(id).(resolved); !ok {
			t.Errorf("item %d: not kept as resolved", id)
		}
	}

	l.reject.Store(false)
	rep, err = sp.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Reused != 2 || rep.Computed != 0 || !slices.Equal(rep.Posted, []uint64{1, 2}) {
		t.Errorf("report = %+v", rep)
	}
}

func TestRunReconcilesBelowFrontier(t *testing.T) {
	ctx := context.Background()
	l := &rejectingLedger{Memory: ledger.NewMemory()}
	mint(t, l.Memory, roots(20)...)
	sp := newSpawner(t, l, storage.NewMemory(), Options{BatchSize: 10})

	// Reject the first batch only.
	l.reject.Store(true)
	r := sp.newRun()
	if err := r.batch(ctx, ids(1, 10)); !errors.Is(err, ErrSubmitFailed) {
		t.Fatalf("err = %v, want ErrSubmitFailed", err)
	}
	l.reject.Store(false)
	if err := r.batch(ctx, ids(11, 20)); err != nil {
		t.Fatal(err)
	}

	rep, err := sp.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(rep.Stale, ids(1, 10)) || rep.Reused != 10 || rep.Computed != 0 {
		t.Errorf("report = %+v", rep)
	}
}

// itemRejectingLedger fails every submission that contains item.
type itemRejectingLedger struct {
	*ledger.Memory
	item uint64
}

func (l *itemRejectingLedger) SubmitResults(ctx context.Context, items []uint64, aux, results []byte, opts ledger.SubmitOptions) (ledger.Receipt, error) {
	if slices.Contains(items, l.item) {
		return ledger.Receipt{}, errors.New("transaction reverted")
	}
	return l.Memory.SubmitResults(ctx, items, aux, results, opts)
}

func TestRunRejectedMiddleBatch(t *testing.T) {
	ctx := context.Background()
	l := &itemRejectingLedger{Memory: ledger.NewMemory(), item: 21}
	mint(t, l.Memory, roots(40)...)
	s := storage.NewMemory()
	sp := newSpawner(t, l, s, Options{BatchSize: 10})

	rep, err := sp.Run(ctx)
	if !errors.Is(err, ErrSubmitFailed) {
		t.Fatalf("err = %v, want ErrSubmitFailed", err)
	}
	if !slices.Equal(rep.Unposted, ids(21, 30)) {
		t.Fatalf("unposted = %v", rep.Unposted)
	}
	before := make(map[uint64]storage.ContentID)
	for id := uint64(31); id <= 40; id++ {
		before[id], _ = metadataOf(t, l, s, id)
	}

	l.item = 0
	rep, err = sp.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(rep.Stale, ids(21, 30)) || rep.Reused != 10 || rep.Computed != 0 {
		t.Errorf("report = %+v, want 21..30 reused", rep)
	}
	for id, cid := range before {
		if got, _ := metadataOf(t, l, s, id); got != cid {
			t.Errorf("item %d: posted artifact replaced", id)
		}
	}

	// A fresh process handed current items skips them.
	r := newSpawner(t, l, s, Options{}).newRun()
	if err := r.batch(ctx, ids(31, 33)); err != nil {
		t.Fatal(err)
	}
	if r.report.Current != 3 || r.report.Computed != 0 || len(r.report.Posted) != 0 {
		t.Errorf("report = %+v, want 3 current items", r.report)
	}
	if n := len(l.Submissions()); n != 4 {
		t.Errorf("submissions = %d, want 4", n)
	}
}

func TestCheckpoint(t *testing.T) {
	ctx := context.Background()
	x, err := index.Open(ctx, filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer x.Close()

	l := &rejectingLedger{Memory: ledger.NewMemory()}
	mint(t, l.Memory, roots(2)...)
	s := storage.NewMemory()
	l.reject.Store(true)
	if _, err := newSpawner(t, l, s, Options{Checkpoint: x}).Run(ctx); !errors.Is(err, ErrSubmitFailed) {
		t.Fatalf("err = %v, want ErrSubmitFailed", err)
	}
	saved, err := x.LoadCheckpoint(ctx, artifact.Hardhat)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 2 || saved[0].Posted || saved[1].Posted {
		t.Fatalf("checkpoint = %+v", saved)
	}

	// A new process picks up the unposted results.
	l.reject.Store(false)
	rep, err := newSpawner(t, l, s, Options{Checkpoint: x}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Reused != 2 || rep.Computed != 0 {
		t.Errorf("report = %+v", rep)
	}
	saved, err = x.LoadCheckpoint(ctx, artifact.Hardhat)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range saved {
		if !e.Posted {
			t.Errorf("item %d not marked posted", e.Item)
		}
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	calls := 0
	v, err := retry(ctx, fastRetry, "flaky", func() (int, error) {
		calls++
		if calls < 3 {
			return 0, boom
		}
		return 42, nil
	})
	if err != nil || v != 42 || calls != 3 {
		t.Errorf("flaky: v = %d, err = %v, calls = %d", v, err, calls)
	}

	calls = 0
	_, err = retry(ctx, fastRetry, "down", func() (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, ErrTransient) || !errors.Is(err, boom) || calls != 3 {
		t.Errorf("down: err = %v, calls = %d", err, calls)
	}

	calls = 0
	_, err = retry(ctx, fastRetry, "permanent", func() (int, error) {
		calls++
		return 0, backoff.Permanent(boom)
	})
	if !errors.Is(err, boom) || errors.Is(err, ErrTransient) || calls != 1 {
		t.Errorf("permanent: err = %v, calls = %d", err, calls)
	}
}

func TestGasLimit(t *testing.T) {
	tests := []struct {
		network uint64
		want    uint64
	}{
		{artifact.Sapphire, sapphireGasLimit},
		{artifact.SapphireTestnet, sapphireGasLimit},
		{artifact.Sapphire - 1, sapphireGasLimit},
		{artifact.Hardhat, 0},
		{artifact.Ganache, 0},
	}
	for _, tt := range tests {
		if got := gasLimit(tt.network); got != tt.want {
			t.Errorf("gasLimit(%d) = %d, want %d", tt.network, got, tt.want)
		}
	}
}

func TestNewValidates(t *testing.T) {
	c := testCipher(t)
	if _, err := New(nil, storage.NewMemory(), c, Options{}); err == nil {
		t.Error("nil ledger accepted")
	}
	if _, err := New(ledger.NewMemory(), storage.NewMemory(), c, Options{BatchSize: -1}); err == nil {
		t.Error("negative batch size accepted")
	}
	sp, err := New(ledger.NewMemory(), storage.NewMemory(), c, Options{NetworkID: artifact.Sapphire})
	if err != nil {
		t.Fatal(err)
	}
	if sp.opts.BatchSize != DefaultBatchSize || sp.opts.Retry != DefaultRetry {
		t.Errorf("defaults not applied: %+v", sp.opts)
	}
	if sp.policy != artifact.DefaultPolicy(artifact.Sapphire) {
		t.Errorf("policy = %+v", sp.policy)
	}
}
