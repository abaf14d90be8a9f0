package geom

import (
	"math"
	"testing"
)

func TestMatrixTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		in   Point
		want Point
	}{
		{"identity", Identity(), Pt(3, 4), Pt(3, 4)},
		{"translate", Translate(10, -5), Pt(1, 1), Pt(11, -4)},
		{"scale", Scale(2, 3), Pt(1, 1), Pt(2, 3)},
		{"rotate 90", Rotate(math.Pi / 2), Pt(1, 0), Pt(0, 1)},
		{"shear x", Shear(1, 0), Pt(1, 2), Pt(3, 2)},
		{"translate after scale", Translate(1, 1).Multiply(Scale(2, 2)), Pt(1, 1), Pt(3, 3)},
		{"rotate about", RotateAbout(math.Pi, 1, 1), Pt(2, 1), Pt(0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformPoint(tt.in); !pointsEqual(got, tt.want, 1e-9) {
				t.Errorf("TransformPoint(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatrixInvert(t *testing.T) {
	m := Translate(4, 5).Multiply(Rotate(0.7)).Multiply(Scale(2, 0.5))
	p := Pt(3, -2)
	if got := m.Invert().TransformPoint(m.TransformPoint(p)); !pointsEqual(got, p, 1e-9) {
		t.Errorf("round trip = %v, want %v", got, p)
	}
	if got := Scale(0, 1).Invert(); got != Identity() {
		t.Errorf("singular Invert() = %+v, want identity", got)
	}
}

func TestMatrixScaleFactor(t *testing.T) {
	if got := Scale(3, 3).Multiply(Rotate(1)).ScaleFactor(); math.Abs(got-3) > 1e-9 {
		t.Errorf("ScaleFactor = %v, want 3", got)
	}
}

func TestCubicFlatten(t *testing.T) {
	c := CubicBez{P0: Pt(0, 0), P1: Pt(0, 10), P2: Pt(10, 10), P3: Pt(10, 0)}
	pl := c.Flatten(Polyline{c.P0}, 0.05)
	if pl[len(pl)-1] != c.P3 {
		t.Errorf("last = %v, want %v", pl[len(pl)-1], c.P3)
	}
	if len(pl) < 8 {
		t.Errorf("flattened to %d points, want a smooth curve", len(pl))
	}
	for i := 0; i <= 20; i++ {
		p := c.Eval(float64(i) / 20)
		best := math.Inf(1)
		for j := 1; j < len(pl); j++ {
			best = math.Min(best, SegmentDistance(p, pl[j-1], pl[j]))
		}
		if best > 0.1 {
			t.Errorf("curve point %v is %v from the flattening", p, best)
		}
	}
}

func TestQuadFlattenLine(t *testing.T) {
	q := QuadBez{P0: Pt(0, 0), P1: Pt(5, 0), P2: Pt(10, 0)}
	pl := q.Flatten(nil, 0.1)
	if len(pl) != 1 || pl[0] != Pt(10, 0) {
		t.Errorf("straight quad flattened to %v", pl)
	}
}

func TestRect(t *testing.T) {
	r := NewRect(Pt(10, 10), Pt(0, 5))
	if r.Width() != 10 || r.Height() != 5 {
		t.Errorf("size = %vx%v", r.Width(), r.Height())
	}
	if !r.Contains(Pt(5, 7)) || r.Contains(Pt(11, 7)) {
		t.Error("Contains mismatch")
	}
	if got := r.Inset(1); got.Width() != 12 {
		t.Errorf("Inset width = %v", got.Width())
	}
	if got := BoundsOf(); got != (Rect{}) {
		t.Errorf("BoundsOf() = %+v, want zero", got)
	}
}
