package geom

import "math"

// Polyline is an ordered list of points. A polygon is a Polyline read as
// implicitly closed.
type Polyline []Point

// Clone returns a copy of pl.
func (pl Polyline) Clone() Polyline {
	if pl == nil {
		return nil
	}
	out := make(Polyline, len(pl))
	copy(out, pl)
	return out
}

// Reversed returns a reversed copy of pl.
func (pl Polyline) Reversed() Polyline {
	out := make(Polyline, len(pl))
	for i, p := range pl {
		out[len(pl)-1-i] = p
	}
	return out
}

// Concat returns pl followed by the given polylines, as a new polyline.
func (pl Polyline) Concat(more ...Polyline) Polyline {
	n := len(pl)
	for _, m := range more {
		n += len(m)
	}
	out := make(Polyline, 0, n)
	out = append(out, pl...)
	for _, m := range more {
		out = append(out, m...)
	}
	return out
}

// Translate returns pl moved by (dx, dy).
func (pl Polyline) Translate(dx, dy float64) Polyline {
	out := make(Polyline, len(pl))
	for i, p := range pl {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// Rotate returns pl rotated around the origin by angle radians.
func (pl Polyline) Rotate(angle float64) Polyline {
	return pl.Transform(Rotate(angle))
}

// Transform returns pl with m applied to every point.
func (pl Polyline) Transform(m Matrix) Polyline {
	out := make(Polyline, len(pl))
	for i, p := range pl {
		out[i] = m.TransformPoint(p)
	}
	return out
}

// Bounds returns the bounding rectangle of pl. The zero Rect is returned
// for an empty polyline.
func (pl Polyline) Bounds() Rect {
	return BoundsOf(pl)
}

// Length returns the arc length of pl.
func (pl Polyline) Length() float64 {
	var l float64
	for i := 1; i < len(pl); i++ {
		l += pl[i-1].Distance(pl[i])
	}
	return l
}

// Area returns the signed area of pl read as a closed polygon.
func (pl Polyline) Area() float64 {
	var a float64
	n := len(pl)
	for i := range pl {
		a += pl[i].Cross(pl[(i+1)%n])
	}
	return a / 2
}

// BoundsOf returns the bounding rectangle of every point of every polyline.
func BoundsOf(pls ...Polyline) Rect {
	r := Rect{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	found := false
	for _, pl := range pls {
		for _, p := range pl {
			found = true
			r.Min.X = math.Min(r.Min.X, p.X)
			r.Min.Y = math.Min(r.Min.Y, p.Y)
			r.Max.X = math.Max(r.Max.X, p.X)
			r.Max.Y = math.Max(r.Max.Y, p.Y)
		}
	}
	if !found {
		return Rect{}
	}
	return r
}

// Normals returns, for every vertex of curve, the outward direction used
// to sweep fin rays: perpendicular at the ends, bisecting in between.
func Normals(curve Polyline) []float64 {
	n := len(curve)
	angs := make([]float64, n)
	if n < 2 {
		return angs
	}
	for i := range curve {
		switch i {
		case 0:
			angs[i] = curve[0].Angle(curve[1]) - math.Pi/2
		case n - 1:
			angs[i] = curve[n-2].Angle(curve[n-1]) - math.Pi/2
		default:
			a0 := curve[i].Angle(curve[i-1])
			a1 := curve[i].Angle(curve[i+1])
			for a1 > a0 {
				a1 -= 2 * math.Pi
			}
			a1 += 2 * math.Pi
			angs[i] = (a0 + a1) / 2
		}
	}
	return angs
}
