package geom

import (
	"math"
	"testing"
)

func TestResampleEndpoints(t *testing.T) {
	tests := []struct {
		name string
		pl   Polyline
		step float64
	}{
		{"straight", Polyline{{0, 0}, {10, 0}}, 3},
		{"bend", Polyline{{0, 0}, {10, 0}, {10, 7.3}}, 2},
		{"duplicates", Polyline{{0, 0}, {0, 0}, {5, 5}, {5, 5}}, 1},
		{"step larger than line", Polyline{{0, 0}, {1, 1}}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resample(tt.pl, tt.step)
			if got[0] != tt.pl[0] {
				t.Errorf("first = %v, want %v", got[0], tt.pl[0])
			}
			if got[len(got)-1] != tt.pl[len(tt.pl)-1] {
				t.Errorf("last = %v, want %v", got[len(got)-1], tt.pl[len(tt.pl)-1])
			}
		})
	}
}

func TestResampleSpacing(t *testing.T) {
	pl := Polyline{{0, 0}, {20, 0}, {20, 20}}
	got := Resample(pl, 2)
	for i := 1; i < len(got)-1; i++ {
		if d := got[i-1].Distance(got[i]); math.Abs(d-2) > 1e-9 {
			t.Errorf("spacing %d = %v, want 2", i, d)
		}
	}
	if d := got[len(got)-2].Distance(got[len(got)-1]); d < 1 || d > 3 {
		t.Errorf("final spacing = %v, want within [1,3]", d)
	}
}

func TestResampleShort(t *testing.T) {
	pl := Polyline{{1, 2}}
	got := Resample(pl, 1)
	if len(got) != 1 || got[0] != pl[0] {
		t.Errorf("Resample(single) = %v", got)
	}
}

func TestResampleKeep(t *testing.T) {
	pl := Polyline{{0, 0}, {3.3, 0}, {10, 0}}
	got := ResampleKeep(pl, 2, func(i int) bool { return i == 1 })
	found := false
	for _, p := range got {
		if p == pl[1] {
			found = true
		}
	}
	if !found {
		t.Errorf("feature point %v missing from %v", pl[1], got)
	}
	if got[0] != pl[0] || got[len(got)-1] != pl[2] {
		t.Errorf("endpoints not kept: %v", got)
	}
}

func TestSimplify(t *testing.T) {
	t.Run("short unchanged", func(t *testing.T) {
		pl := Polyline{{0, 0}, {1, 1}}
		if got := Simplify(pl, 10); len(got) != 2 {
			t.Errorf("len = %d, want 2", len(got))
		}
	})
	t.Run("collinear", func(t *testing.T) {
		pl := Polyline{{0, 0}, {1, 0.01}, {2, 0}, {3, -0.01}, {4, 0}}
		got := Simplify(pl, 0.1)
		if len(got) != 2 || got[0] != pl[0] || got[1] != pl[4] {
			t.Errorf("Simplify = %v, want endpoints only", got)
		}
	})
	t.Run("corner kept", func(t *testing.T) {
		pl := Polyline{{0, 0}, {5, 0}, {10, 0}, {10, 5}, {10, 10}}
		got := Simplify(pl, 0.1)
		want := Polyline{{0, 0}, {10, 0}, {10, 10}}
		if len(got) != len(want) {
			t.Fatalf("Simplify = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})
}
