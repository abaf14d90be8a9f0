package geom

import (
	"math"
	"slices"
)

// Intersection is a crossing of segment p0-p1 with segment q0-q1.
type Intersection struct {
	T  float64 // parameter along p0-p1
	S  float64 // parameter along q0-q1
	At Point
	// Side is +1 when q0 lies on the negative side of the line through p1
	// and p0, -1 otherwise. Union tracing uses it to pick a direction.
	Side int
}

// HalfPlane reports on which side of the directed line a-b the point p
// lies: negative on one side, positive on the other, zero on the line.
func HalfPlane(p, a, b Point) float64 {
	return (p.X-a.X)*(b.Y-a.Y) - (p.Y-a.Y)*(b.X-a.X)
}

func sideOf(p0, p1, q0 Point) int {
	if HalfPlane(p0, p1, q0) < 0 {
		return 1
	}
	return -1
}

// SegmentIntersect intersects p0-p1 with q0-q1. The p segment is half open
// at p1 unless ray is set, in which case it extends to infinity. The q
// segment is always half open at q1. Parallel segments never intersect.
func SegmentIntersect(p0, p1, q0, q1 Point, ray bool) (Intersection, bool) {
	d0 := p1.Sub(p0)
	d1 := q1.Sub(q0)
	vc := d0.Cross(d1)
	if vc == 0 {
		return Intersection{}, false
	}
	qp := q0.Sub(p0)
	t := qp.Cross(d1) / vc
	s := qp.Cross(d0) / vc
	if t < 0 || (!ray && t >= 1) || s < 0 || s >= 1 {
		return Intersection{}, false
	}
	return Intersection{
		T:    t,
		S:    s,
		At:   p0.Lerp(p1, t),
		Side: sideOf(p0, p1, q0),
	}, true
}

// vertexEps is the edge parameter within which a crossing is taken to
// pass through a polygon vertex.
const vertexEps = 1e-9

// intersectPolygon returns every crossing of a-b with the edges of the
// closed polygon, ordered along a-b. A crossing through a vertex is
// reported once, and only when the boundary passes from one side of a-b
// to the other there.
func intersectPolygon(a, b Point, polygon Polyline, ray bool) []Intersection {
	var out []Intersection
	n := len(polygon)
	for i := range polygon {
		x, ok := SegmentIntersect(a, b, polygon[i], polygon[(i+1)%n], ray)
		if ok && x.S > vertexEps && x.S < 1-vertexEps {
			out = append(out, x)
		}
	}
	for i, v := range polygon {
		t, ok := throughPoint(a, b, v, ray)
		if !ok {
			continue
		}
		prev, next := polygon[(i+n-1)%n], polygon[(i+1)%n]
		if HalfPlane(prev, a, b)*HalfPlane(next, a, b) < 0 {
			out = append(out, Intersection{T: t, At: v, Side: sideOf(a, b, prev)})
		}
	}
	slices.SortStableFunc(out, func(x, y Intersection) int {
		switch {
		case x.T < y.T:
			return -1
		case x.T > y.T:
			return 1
		}
		return 0
	})
	return out
}

// throughPoint reports whether segment a-b, half open at b unless ray is
// set, passes through v, and at which parameter.
func throughPoint(a, b, v Point, ray bool) (float64, bool) {
	d := b.Sub(a)
	l2 := d.Dot(d)
	if l2 == 0 {
		return 0, false
	}
	if math.Abs(v.Sub(a).Cross(d)) > vertexEps*math.Max(1, l2) {
		return 0, false
	}
	t := v.Sub(a).Dot(d) / l2
	if t < -vertexEps || (!ray && t >= 1-vertexEps) {
		return 0, false
	}
	return max(t, 0), true
}

// Contains reports whether p lies inside the closed polygon, by counting
// crossings of a ray cast in a fixed irrational direction.
func Contains(polygon Polyline, p Point) bool {
	probe := Point{X: p.X + math.E, Y: p.Y + math.Pi}
	return len(intersectPolygon(p, probe, polygon, true))%2 == 1
}

// Split holds the pieces of a clipped polyline.
type Split struct {
	Inside  []Polyline
	Outside []Polyline
}

func (s *Split) add(o Split) {
	s.Inside = append(s.Inside, o.Inside...)
	s.Outside = append(s.Outside, o.Outside...)
}

// splitter accumulates alternating inside/outside runs.
type splitter struct {
	runs [2][]Polyline
	io   int
}

func newSplitter(inside bool) *splitter {
	s := &splitter{runs: [2][]Polyline{{nil}, {nil}}}
	if inside {
		s.io = 1
	}
	return s
}

func (s *splitter) push(p Point) {
	r := s.runs[s.io]
	r[len(r)-1] = append(r[len(r)-1], p)
}

// flip ends the current run at p and starts the opposite one there.
func (s *splitter) flip(p Point) {
	s.push(p)
	s.io ^= 1
	s.runs[s.io] = append(s.runs[s.io], Polyline{p})
}

func (s *splitter) result() Split {
	keep := func(rs []Polyline) []Polyline {
		var out []Polyline
		for _, r := range rs {
			if len(r) > 0 {
				out = append(out, r)
			}
		}
		return out
	}
	return Split{Inside: keep(s.runs[1]), Outside: keep(s.runs[0])}
}

// Clip partitions pl into the runs inside and outside polygon. Runs are
// split exactly at the crossing points, which belong to both neighbours.
// An empty polyline yields an empty Split.
func Clip(pl, polygon Polyline) Split {
	if len(pl) == 0 {
		return Split{}
	}
	s := newSplitter(Contains(polygon, pl[0]))
	for i, a := range pl {
		s.push(a)
		if i+1 == len(pl) {
			break
		}
		for _, x := range intersectPolygon(a, pl[i+1], polygon, false) {
			s.flip(x.At)
		}
	}
	return s.result()
}

// ClipAll clips every polyline against polygon.
func ClipAll(pls []Polyline, polygon Polyline) Split {
	var out Split
	for _, pl := range pls {
		out.add(Clip(pl, polygon))
	}
	return out
}

// Predicate classifies a point of a polyline; t is the point's index
// normalized to [0, 1].
type Predicate func(p Point, t float64) bool

// BinClip partitions pl by a predicate evaluated at every vertex. Where
// consecutive vertices disagree the polyline is cut at the segment
// midpoint.
func BinClip(pl Polyline, pred Predicate) Split {
	if len(pl) == 0 {
		return Split{}
	}
	bins := make([]bool, len(pl))
	for i, p := range pl {
		var t float64
		if len(pl) > 1 {
			t = float64(i) / float64(len(pl)-1)
		}
		bins[i] = pred(p, t)
	}
	s := newSplitter(bins[0])
	for i, a := range pl {
		s.push(a)
		if i+1 == len(pl) {
			break
		}
		if bins[i] != bins[i+1] {
			s.flip(a.Lerp(pl[i+1], 0.5))
		}
	}
	return s.result()
}

// BinClipAll applies BinClip to every polyline.
func BinClipAll(pls []Polyline, pred Predicate) Split {
	var out Split
	for _, pl := range pls {
		out.add(BinClip(pl, pred))
	}
	return out
}
