package geom

import (
	"math"
	"slices"
)

// crossing is an Intersection seen from one edge, linked to the same
// point seen from the other polygon's edge.
type crossing struct {
	Intersection
	other  int // edge index in the other polygon
	mirror cursor
}

type vertex struct {
	at      Point
	crosses []crossing
}

// cursor addresses a position on the union boundary walk: a vertex
// (cross == -1) or the cross'th crossing on edge vert of polygon poly.
type cursor struct {
	poly, vert, cross int
}

// Bridge joins two polygons into one outline through their closest pair
// of vertices. Empty inputs are passed through.
func Bridge(a, b Polyline) Polyline {
	if len(a) == 0 {
		return b.Clone()
	}
	if len(b) == 0 {
		return a.Clone()
	}
	best := math.Inf(1)
	var bi, bj int
	for i, p := range a {
		for j, q := range b {
			if d := p.DistanceSquared(q); d < best {
				best, bi, bj = d, i, j
			}
		}
	}
	return a[:bi].Concat(b[bj:], b[:bj], a[bi:])
}

// Union returns the outer boundary of two polygons. When their edges never
// cross the polygons are bridged. The boundary is traced from the leftmost
// vertex, switching polygons at every crossing; if the walk revisits a
// position without closing, or runs past its step budget, the input with
// the larger area is returned instead. Union never panics and always
// terminates.
func Union(a, b Polyline) Polyline {
	if len(a) < 3 {
		return b.Clone()
	}
	if len(b) < 3 {
		return a.Clone()
	}

	verts := [2][]vertex{newVertices(a), newVertices(b)}
	total := 0
	for i := range a {
		c, d := a[i], a[(i+1)%len(a)]
		for j := range b {
			e, f := b[j], b[(j+1)%len(b)]
			x, ok := SegmentIntersect(c, d, e, f, false)
			if !ok {
				continue
			}
			total++
			verts[0][i].crosses = append(verts[0][i].crosses, crossing{Intersection: x, other: j})
			verts[1][j].crosses = append(verts[1][j].crosses, crossing{
				Intersection: Intersection{T: x.S, S: x.T, At: x.At, Side: sideOf(e, f, c)},
				other:        i,
			})
		}
	}
	if total == 0 {
		return Bridge(a, b)
	}

	for p := range verts {
		for i := range verts[p] {
			slices.SortStableFunc(verts[p][i].crosses, func(x, y crossing) int {
				switch {
				case x.T < y.T:
					return -1
				case x.T > y.T:
					return 1
				}
				return 0
			})
		}
	}
	for p := range verts {
		q := 1 - p
		for i := range verts[p] {
			for j := range verts[p][i].crosses {
				k := verts[p][i].crosses[j].other
				z := slices.IndexFunc(verts[q][k].crosses, func(c crossing) bool { return c.other == i })
				verts[p][i].crosses[j].mirror = cursor{poly: q, vert: k, cross: z}
			}
		}
	}

	start := cursor{cross: -1}
	xmin := math.Inf(1)
	for p, pl := range [2]Polyline{a, b} {
		for i, pt := range pl {
			if pt.X < xmin {
				xmin = pt.X
				start.poly, start.vert = p, i
			}
		}
	}
	src := [2]Polyline{a, b}[start.poly]
	n := len(src)
	dir := sideOf(src[(start.vert-1+n)%n], src[start.vert], src[(start.vert+1)%n])

	out, ok := trace(verts, start, dir, 4*(len(a)+len(b)+2*total)+8)
	if !ok || len(out) < 3 {
		if math.Abs(b.Area()) > math.Abs(a.Area()) {
			return b.Clone()
		}
		return a.Clone()
	}
	return out
}

func newVertices(pl Polyline) []vertex {
	vs := make([]vertex, len(pl))
	for i, p := range pl {
		vs[i].at = p
	}
	return vs
}

type walkState struct {
	cursor
	dir int
}

func trace(verts [2][]vertex, start cursor, dir, budget int) (Polyline, bool) {
	var out Polyline
	visited := make(map[walkState]bool)
	cur := start
	for step := 0; ; step++ {
		if step > 0 && cur == start {
			return out, true
		}
		if step > budget || cur.cross < -1 {
			return nil, false
		}
		st := walkState{cur, dir}
		if visited[st] {
			return nil, false
		}
		visited[st] = true

		vs := verts[cur.poly]
		n := len(vs)
		v := vs[cur.vert]
		next := (cur.vert + dir + n) % n
		switch {
		case cur.cross == -1:
			out = append(out, v.at)
			switch {
			case dir < 0:
				cur = cursor{cur.poly, next, len(vs[next].crosses) - 1}
			case len(v.crosses) == 0:
				cur = cursor{cur.poly, next, -1}
			default:
				cur = cursor{cur.poly, cur.vert, 0}
			}
		case cur.cross >= len(v.crosses):
			cur = cursor{cur.poly, next, -1}
		default:
			c := v.crosses[cur.cross]
			out = append(out, c.At)
			m := c.mirror
			if m.cross < 0 {
				return nil, false
			}
			if c.Side*dir < 0 {
				cur, dir = cursor{m.poly, m.vert, m.cross - 1}, -1
			} else {
				cur, dir = cursor{m.poly, m.vert, m.cross + 1}, 1
			}
		}
	}
}
