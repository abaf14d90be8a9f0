package index

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/trouthatch/trout/artifact"
	"github.com/trouthatch/trout/cipher"
	"github.com/trouthatch/trout/genetics"
	"github.com/trouthatch/trout/ledger"
	"github.com/trouthatch/trout/storage"
)

const net = artifact.Hardhat

func openIndex(t *testing.T) *Index {
	t.Helper()
	x, err := Open(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = x.Close() })
	return x
}

func id(item uint64) artifact.OrganismID {
	return artifact.OrganismID{NetworkID: net, ItemID: item}
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	x := openIndex(t)
	want := Record{
		Self:          id(3),
		Left:          1,
		Right:         2,
		ContentID:     "bafkthree",
		Image:         "ipfs://bafkimg",
		Name:          "Hardhat TROUT #3",
		Attributes:    artifact.Attributes{Genesis: true},
		FormatVersion: artifact.CurrentFormatVersion,
		Generations:   []storage.ContentID{"bafkold"},
	}
	if err := x.Put(ctx, want, Record{Self: id(1), ContentID: "bafkone", FormatVersion: 2}); err != nil {
		t.Fatal(err)
	}
	got, err := x.Get(ctx, id(3))
	if err != nil {
		t.Fatal(err)
	}
	if got.Left != 1 || got.Right != 2 || got.ContentID != want.ContentID || got.Name != want.Name ||
		!got.Attributes.Genesis || len(got.Generations) != 1 || got.Generations[0] != "bafkold" {
		t.Errorf("Get = %+v", got)
	}
	root, err := x.Get(ctx, id(1))
	if err != nil {
		t.Fatal(err)
	}
	if root.Left != 0 || root.Right != 0 || len(root.Generations) != 0 {
		t.Errorf("root = %+v", root)
	}
	if _, err := x.Get(ctx, id(9)); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}

	// Replacing keeps one row per item.
	want.FormatVersion = 1
	if err := x.Put(ctx, want); err != nil {
		t.Fatal(err)
	}
	latest, err := x.LatestItem(ctx, net)
	if err != nil || latest != 3 {
		t.Errorf("LatestItem = %d, %v", latest, err)
	}
	outdated, err := x.OutdatedItems(ctx, net, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(outdated) != 2 || outdated[0] != 1 || outdated[1] != 3 {
		t.Errorf("OutdatedItems = %v", outdated)
	}
	if latest, _ := x.LatestItem(ctx, artifact.Sapphire); latest != 0 {
		t.Errorf("LatestItem of empty network = %d", latest)
	}
}

func TestInbreeding(t *testing.T) {
	tests := []struct {
		name  string
		edges [][3]uint64
		item  uint64
		want  float64
	}{
		{"root", [][3]uint64{{1, 0, 0}}, 1, 0},
		{"unrelated parents", [][3]uint64{{1, 0, 0}, {2, 0, 0}, {3, 1, 2}}, 3, 0},
		{"full siblings", [][3]uint64{{1, 0, 0}, {2, 0, 0}, {3, 1, 2}, {4, 1, 2}, {5, 3, 4}}, 5, 0.25},
		{"half siblings", [][3]uint64{{1, 0, 0}, {2, 0, 0}, {6, 0, 0}, {3, 1, 2}, {4, 1, 6}, {5, 3, 4}}, 5, 0.125},
		{"parent and offspring", [][3]uint64{{1, 0, 0}, {2, 0, 0}, {3, 1, 2}, {4, 1, 3}}, 4, 0.25},
		{"unknown", nil, 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLineage()
			for _, e := range tt.edges {
				l.Add(e[0], e[1], e[2])
			}
			if got := l.Inbreeding(tt.item); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Inbreeding(%d) = %v, want %v", tt.item, got, tt.want)
			}
		})
	}
}

func TestLineageFromIndex(t *testing.T) {
	ctx := context.Background()
	x := openIndex(t)
	recs := []Record{
		{Self: id(1), ContentID: "a", FormatVersion: 4},
		{Self: id(2), ContentID: "b", FormatVersion: 4},
		{Self: id(3), Left: 1, Right: 2, ContentID: "c", FormatVersion: 4},
		{Self: id(4), Left: 1, Right: 2, ContentID: "d", FormatVersion: 4},
		{Self: id(5), Left: 3, Right: 4, ContentID: "e", FormatVersion: 4},
	}
	if err := x.Put(ctx, recs...); err != nil {
		t.Fatal(err)
	}
	l, err := x.Lineage(ctx, net)
	if err != nil {
		t.Fatal(err)
	}
	if got := l.Inbreeding(5); got != 0.25 {
		t.Errorf("Inbreeding = %v", got)
	}
}

func TestCheckpoint(t *testing.T) {
	ctx := context.Background()
	x := openIndex(t)
	first := []CheckpointEntry{{Item: 2, ContentID: "b", Posted: true}, {Item: 1, ContentID: "a"}}
	if err := x.SaveCheckpoint(ctx, net, first); err != nil {
		t.Fatal(err)
	}
	got, err := x.LoadCheckpoint(ctx, net)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != (CheckpointEntry{Item: 1, ContentID: "a"}) || !got[1].Posted {
		t.Errorf("LoadCheckpoint = %+v", got)
	}
	if err := x.SaveCheckpoint(ctx, net, []CheckpointEntry{{Item: 3, ContentID: "c"}}); err != nil {
		t.Fatal(err)
	}
	got, _ = x.LoadCheckpoint(ctx, net)
	if len(got) != 1 || got[0].Item != 3 {
		t.Errorf("checkpoint not replaced: %+v", got)
	}
	if other, _ := x.LoadCheckpoint(ctx, artifact.Sapphire); len(other) != 0 {
		t.Errorf("other network = %+v", other)
	}
}

func TestIndexerRun(t *testing.T) {
	ctx := context.Background()
	c, err := cipher.New(bytes.Repeat([]byte{9}, cipher.MinRootKeySize))
	if err != nil {
		t.Fatal(err)
	}
	l := ledger.NewMemory()
	store := storage.NewMemory()
	for range 3 {
		if _, err := l.Mint(0, 0); err != nil {
			t.Fatal(err)
		}
	}

	org, _ := genetics.Spawn(1)
	img, _ := store.Store(ctx, []byte("<svg/>"))
	m, err := artifact.Build(c, &artifact.Params{
		Self:   id(1),
		Traits: artifact.Traits{Seed: 1, Organism: org},
		Image:  img,
	})
	if err != nil {
		t.Fatal(err)
	}
	blob, _ := m.Encode()
	good, _ := store.Store(ctx, blob)
	legacy, _ := store.Store(ctx, []byte("not an artifact"))
	results := ledger.EncodeStrings([]string{string(good), string(legacy)})
	if _, err := l.SubmitResults(ctx, []uint64{1, 2}, nil, results, ledger.SubmitOptions{}); err != nil {
		t.Fatal(err)
	}

	x := openIndex(t)
	ix := &Indexer{Ledger: l, Store: store, Index: x, NetworkID: net, BatchSize: 2}
	n, err := ix.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("written = %d, want 1", n)
	}
	rec, err := x.Get(ctx, id(1))
	if err != nil {
		t.Fatal(err)
	}
	if rec.ContentID != good || rec.Name != "Hardhat TROUT #1" {
		t.Errorf("record = %+v", rec)
	}
	for _, cid := range []storage.ContentID{good, img} {
		if pinned, _ := store.IsPinned(ctx, cid); !pinned {
			t.Errorf("%s not pinned", cid)
		}
	}
}
