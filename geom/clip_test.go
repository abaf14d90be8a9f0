package geom

import (
	"math"
	"testing"

	"github.com/trouthatch/trout/noise"
)

const epsilon = 1e-9

func pointsEqual(p1, p2 Point, eps float64) bool {
	return math.Abs(p1.X-p2.X) < eps && math.Abs(p1.Y-p2.Y) < eps
}

func square(x, y, s float64) Polyline {
	return Polyline{{x, y}, {x + s, y}, {x + s, y + s}, {x, y + s}}
}

func TestSegmentIntersect(t *testing.T) {
	tests := []struct {
		name           string
		p0, p1, q0, q1 Point
		ray            bool
		want           bool
		at             Point
	}{
		{"cross", Pt(0, 0), Pt(2, 2), Pt(0, 2), Pt(2, 0), false, true, Pt(1, 1)},
		{"parallel", Pt(0, 0), Pt(1, 0), Pt(0, 1), Pt(1, 1), false, false, Point{}},
		{"short of p", Pt(0, 0), Pt(0.5, 0.5), Pt(0, 2), Pt(2, 0), false, false, Point{}},
		{"ray reaches", Pt(0, 0), Pt(0.5, 0.5), Pt(0, 2), Pt(2, 0), true, true, Pt(1, 1)},
		{"q end excluded", Pt(0, 1), Pt(2, 1), Pt(1, 0), Pt(1, 1), false, false, Point{}},
		{"q start included", Pt(0, 1), Pt(2, 1), Pt(1, 1), Pt(1, 2), false, true, Pt(1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, ok := SegmentIntersect(tt.p0, tt.p1, tt.q0, tt.q1, tt.ray)
			if ok != tt.want {
				t.Fatalf("ok = %v, want %v", ok, tt.want)
			}
			if ok && !pointsEqual(x.At, tt.at, epsilon) {
				t.Errorf("At = %v, want %v", x.At, tt.at)
			}
		})
	}
}

func TestContains(t *testing.T) {
	sq := square(0, 0, 10)
	tests := []struct {
		p    Point
		want bool
	}{
		{Pt(5, 5), true},
		{Pt(0.5, 9.5), true},
		{Pt(-1, 5), false},
		{Pt(11, 11), false},
	}
	for _, tt := range tests {
		if got := Contains(sq, tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestClipEmpty(t *testing.T) {
	s := Clip(nil, square(0, 0, 10))
	if len(s.Inside) != 0 || len(s.Outside) != 0 {
		t.Errorf("Clip(nil) = %+v, want empty", s)
	}
}

func TestClipCrossing(t *testing.T) {
	line := Polyline{{-5, 5}, {15, 5}}
	s := Clip(line, square(0, 0, 10))
	if len(s.Inside) != 1 {
		t.Fatalf("inside runs = %d, want 1", len(s.Inside))
	}
	in := s.Inside[0]
	if !pointsEqual(in[0], Pt(0, 5), epsilon) || !pointsEqual(in[len(in)-1], Pt(10, 5), epsilon) {
		t.Errorf("inside run = %v, want (0,5)-(10,5)", in)
	}
	if len(s.Outside) != 2 {
		t.Fatalf("outside runs = %d, want 2", len(s.Outside))
	}
	if !pointsEqual(s.Outside[0][0], Pt(-5, 5), epsilon) {
		t.Errorf("first outside run starts at %v", s.Outside[0][0])
	}
}

func TestClipStartsInside(t *testing.T) {
	line := Polyline{{5, 5}, {5, 7}, {20, 7}}
	s := Clip(line, square(0, 0, 10))
	if len(s.Inside) != 1 || len(s.Outside) != 1 {
		t.Fatalf("runs = %d inside, %d outside; want 1, 1", len(s.Inside), len(s.Outside))
	}
	if got := s.Inside[0]; len(got) != 3 || got[0] != Pt(5, 5) {
		t.Errorf("inside run = %v", got)
	}
}

func TestClipThroughVertex(t *testing.T) {
	diamond := Polyline{{0, -2}, {2, 0}, {0, 2}, {-2, 0}}
	tests := []struct {
		name    string
		pl      Polyline
		inside  int
		outside int
	}{
		{"across two vertices", Polyline{{-3, 0}, {3, 0}}, 1, 2},
		{"touching a vertex", Polyline{{-1, 2}, {1, 2}}, 0, 1},
		{"ending inside through a vertex", Polyline{{0, 3}, {0, 1}}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Clip(tt.pl, diamond)
			if len(s.Inside) != tt.inside || len(s.Outside) != tt.outside {
				t.Fatalf("inside = %v, outside = %v", s.Inside, s.Outside)
			}
			for _, run := range s.Inside {
				mid := run[0].Lerp(run[len(run)-1], 0.5)
				if !Contains(diamond, mid) {
					t.Errorf("inside run %v leaves the polygon", run)
				}
			}
		})
	}
}

func TestClipInsideRunsStayInside(t *testing.T) {
	poly := ellipse(100, 100, 60, 30, 40)
	// Diagonals through the inset ellipse hit its vertices exactly.
	for _, pl := range Shade(poly, 5, 6, 6, noise.New(9)) {
		for _, p := range pl {
			if !Contains(ellipse(100, 100, 61, 31, 40), p) {
				t.Fatalf("shade stroke %v leaves the polygon at %v", pl, p)
			}
		}
	}
}

func TestClipEmptyPolygon(t *testing.T) {
	line := Polyline{{0, 0}, {1, 1}}
	s := Clip(line, nil)
	if len(s.Inside) != 0 || len(s.Outside) != 1 {
		t.Errorf("Clip against empty polygon = %+v", s)
	}
}

func TestBinClip(t *testing.T) {
	line := Polyline{{0, 0}, {1, 0}, {2, 0}, {3, 0}}
	s := BinClip(line, func(p Point, _ float64) bool { return p.X >= 2 })
	if len(s.Inside) != 1 || len(s.Outside) != 1 {
		t.Fatalf("runs = %+v", s)
	}
	if got := s.Inside[0][0]; got != Pt(1.5, 0) {
		t.Errorf("cut at %v, want midpoint (1.5,0)", got)
	}
	if got := s.Outside[0][len(s.Outside[0])-1]; got != Pt(1.5, 0) {
		t.Errorf("outside ends at %v, want (1.5,0)", got)
	}
}

func TestBinClipParameter(t *testing.T) {
	line := Polyline{{0, 0}, {1, 0}, {2, 0}}
	var ts []float64
	BinClip(line, func(_ Point, t float64) bool {
		ts = append(ts, t)
		return true
	})
	want := []float64{0, 0.5, 1}
	for i := range want {
		if ts[i] != want[i] {
			t.Errorf("t[%d] = %v, want %v", i, ts[i], want[i])
		}
	}
}
