package geom

import "math"

// circleLine returns the first parameter t in [0, 1] where segment a-b
// meets the circle of radius r around c.
func circleLine(c Point, r float64, a, b Point) (float64, bool) {
	d := b.Sub(a)
	f := a.Sub(c)
	qa := d.Dot(d)
	qb := 2 * f.Dot(d)
	qc := f.Dot(f) - r*r
	disc := qb*qb - 4*qa*qc
	if disc < 0 {
		return 0, false
	}
	disc = math.Sqrt(disc)
	if t := (-qb - disc) / (2 * qa); t >= 0 && t <= 1 {
		return t, true
	}
	t := (-qb + disc) / (2 * qa)
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

// Resample returns pl re-spaced so consecutive points are step apart,
// measured as chord length. The first and last points are kept exactly; a
// final point closer than step/2 to the end is dropped in favour of the end.
func Resample(pl Polyline, step float64) Polyline {
	if len(pl) < 2 || step <= 0 {
		return pl.Clone()
	}
	work := pl.Clone()
	out := Polyline{work[0]}
	i := 0
	for i < len(work)-1 {
		a, b := work[i], work[i+1]
		d := a.Distance(b)
		if d == 0 {
			i++
			continue
		}
		n := int(d / step)
		rp := a.Lerp(b, float64(n)*step/d)
		for j := 1; j <= n; j++ {
			out = append(out, a.Lerp(rp, float64(j)/float64(n)))
		}

		next := -1
		for j := i + 2; j < len(work); j++ {
			s0, s1 := work[j-1], work[j]
			if s0 == s1 {
				continue
			}
			t, ok := circleLine(rp, step, s0, s1)
			if !ok {
				continue
			}
			q := s0.Lerp(s1, t)
			out = append(out, q)
			work[j-1] = q
			next = j - 1
			break
		}
		if next < 0 {
			break
		}
		i = next
	}

	end := pl[len(pl)-1]
	if len(out) > 1 && out[len(out)-1].Distance(end) < step*0.5 {
		out = out[:len(out)-1]
	}
	return append(out, end)
}

// ResampleKeep resamples pl like Resample but also keeps every vertex for
// which keep returns true, resampling each stretch between kept vertices
// on its own.
func ResampleKeep(pl Polyline, step float64, keep func(i int) bool) Polyline {
	if len(pl) < 2 {
		return pl.Clone()
	}
	var out Polyline
	from := 0
	for i := 1; i < len(pl); i++ {
		if i != len(pl)-1 && !keep(i) {
			continue
		}
		run := Resample(pl[from:i+1], step)
		if len(out) > 0 {
			run = run[1:]
		}
		out = append(out, run...)
		from = i
	}
	return out
}

// Simplify reduces pl with the Douglas-Peucker algorithm: points closer
// than epsilon to the simplified chord are removed. Polylines of fewer
// than three points are returned unchanged.
func Simplify(pl Polyline, epsilon float64) Polyline {
	if len(pl) < 3 {
		return pl
	}
	keep := make([]bool, len(pl))
	keep[0], keep[len(pl)-1] = true, true
	type span struct{ lo, hi int }
	stack := []span{{0, len(pl) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		dmax, arg := 0.0, -1
		for i := s.lo + 1; i < s.hi; i++ {
			if d := SegmentDistance(pl[i], pl[s.lo], pl[s.hi]); d > dmax {
				dmax, arg = d, i
			}
		}
		if dmax > epsilon {
			keep[arg] = true
			stack = append(stack, span{s.lo, arg}, span{arg, s.hi})
		}
	}
	out := make(Polyline, 0, len(pl))
	for i, p := range pl {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}
