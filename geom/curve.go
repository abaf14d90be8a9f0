package geom

import "math"

// Rect represents an axis-aligned rectangle.
// Min is the top-left corner (minimum coordinates).
// Max is the bottom-right corner (maximum coordinates).
type Rect struct {
	Min, Max Point
}

// NewRect creates a rectangle from two points.
// The points are normalized so Min <= Max.
func NewRect(p1, p2 Point) Rect {
	return Rect{
		Min: Point{X: math.Min(p1.X, p2.X), Y: math.Min(p1.Y, p2.Y)},
		Max: Point{X: math.Max(p1.X, p2.X), Y: math.Max(p1.Y, p2.Y)},
	}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// Inset returns r grown by d on every side (shrunk when d is negative).
func (r Rect) Inset(d float64) Rect {
	return Rect{
		Min: Point{X: r.Min.X - d, Y: r.Min.Y - d},
		Max: Point{X: r.Max.X + d, Y: r.Max.Y + d},
	}
}

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// QuadBez represents a quadratic Bezier curve.
type QuadBez struct {
	P0, P1, P2 Point
}

// Eval evaluates the curve at parameter t (0 to 1).
func (q QuadBez) Eval(t float64) Point {
	mt := 1.0 - t
	return Point{
		X: mt*mt*q.P0.X + 2*mt*t*q.P1.X + t*t*q.P2.X,
		Y: mt*mt*q.P0.Y + 2*mt*t*q.P1.Y + t*t*q.P2.Y,
	}
}

// Raise returns the equivalent cubic.
func (q QuadBez) Raise() CubicBez {
	return CubicBez{
		P0: q.P0,
		P1: q.P0.Add(q.P1.Sub(q.P0).Mul(2.0 / 3.0)),
		P2: q.P2.Add(q.P1.Sub(q.P2).Mul(2.0 / 3.0)),
		P3: q.P2,
	}
}

// Flatten appends the curve, minus its start point, to dst as line
// segments within tolerance of the true curve.
func (q QuadBez) Flatten(dst Polyline, tolerance float64) Polyline {
	return q.Raise().Flatten(dst, tolerance)
}

// CubicBez represents a cubic Bezier curve with control points P0, P1, P2, P3.
// P0 is the start point, P1 and P2 are control points, P3 is the end point.
type CubicBez struct {
	P0, P1, P2, P3 Point
}

// Eval evaluates the curve at parameter t (0 to 1).
func (c CubicBez) Eval(t float64) Point {
	mt := 1.0 - t
	mt2 := mt * mt
	mt3 := mt2 * mt
	t2 := t * t
	t3 := t2 * t

	// (1-t)^3 * P0 + 3(1-t)^2*t * P1 + 3(1-t)*t^2 * P2 + t^3 * P3
	return Point{
		X: mt3*c.P0.X + 3*mt2*t*c.P1.X + 3*mt*t2*c.P2.X + t3*c.P3.X,
		Y: mt3*c.P0.Y + 3*mt2*t*c.P1.Y + 3*mt*t2*c.P2.Y + t3*c.P3.Y,
	}
}

// Subdivide splits the curve at t=0.5 into two halves using de Casteljau.
func (c CubicBez) Subdivide() (CubicBez, CubicBez) {
	p01 := c.P0.Lerp(c.P1, 0.5)
	p12 := c.P1.Lerp(c.P2, 0.5)
	p23 := c.P2.Lerp(c.P3, 0.5)
	p012 := p01.Lerp(p12, 0.5)
	p123 := p12.Lerp(p23, 0.5)
	mid := p012.Lerp(p123, 0.5)

	return CubicBez{P0: c.P0, P1: p01, P2: p012, P3: mid},
		CubicBez{P0: mid, P1: p123, P2: p23, P3: c.P3}
}

// flatness is the largest distance of a control point from the chord.
func (c CubicBez) flatness() float64 {
	return math.Max(SegmentDistance(c.P1, c.P0, c.P3), SegmentDistance(c.P2, c.P0, c.P3))
}

// maxFlattenDepth bounds recursive subdivision (2^12 segments).
const maxFlattenDepth = 12

// Flatten appends the curve, minus its start point, to dst as line
// segments within tolerance of the true curve.
func (c CubicBez) Flatten(dst Polyline, tolerance float64) Polyline {
	if tolerance <= 0 {
		tolerance = 0.1
	}
	return c.flatten(dst, tolerance, 0)
}

func (c CubicBez) flatten(dst Polyline, tolerance float64, depth int) Polyline {
	if depth >= maxFlattenDepth || c.flatness() <= tolerance {
		return append(dst, c.P3)
	}
	a, b := c.Subdivide()
	dst = a.flatten(dst, tolerance, depth+1)
	return b.flatten(dst, tolerance, depth+1)
}
