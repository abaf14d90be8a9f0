package render

import (
	"math"

	"github.com/trouthatch/trout/genetics"
	"github.com/trouthatch/trout/geom"
)

// bodyPoints is the number of samples on each body edge. Fin and head
// anchors index into the edges, so it is fixed.
const bodyPoints = 32

// bean is the half profile of the second body family: blunt at the head,
// tapering towards the tail.
func bean(x float64) float64 {
	return math.Sqrt(math.Max(0, 0.25-(x-0.5)*(x-0.5))) * (2.6 + 2.4*math.Pow(x, 1.5)) * 0.542
}

// bodyCurves returns the dorsal and ventral edges of the body, both
// running from head to tail.
func (b *builder) bodyCurves() (top, bottom geom.Polyline) {
	length := b.p[genetics.BodyLength]
	height := b.p[genetics.BodyHeight]
	amount := b.p[genetics.BodyCurveAmount]
	family := b.p.Int(genetics.BodyCurveType)

	profile := func(t, z float64) float64 {
		if family == 0 {
			return math.Sin(t*math.Pi)*geom.Lerp(0.5, 1, b.rng.Noise(t*2, z, 0))*amount + (1 - amount)
		}
		return geom.Lerp(1-amount, 1, b.rng.Noise(t*1.2, z, 0)*bean(1-t))
	}

	top = make(geom.Polyline, bodyPoints)
	for i := range top {
		t := float64(i) / (bodyPoints - 1)
		top[i] = geom.Pt(225+(t-0.5)*length, 150-profile(t, 1)*height)
	}
	bottom = make(geom.Polyline, bodyPoints)
	for i := range bottom {
		t := float64(i) / (bodyPoints - 1)
		bottom[i] = geom.Pt(225+(t-0.5)*length, 150+profile(t, 2)*height)
	}
	return top, bottom
}

// between interpolates two equally sampled curves point by point.
func between(a, b geom.Polyline, t float64) geom.Polyline {
	out := make(geom.Polyline, len(a))
	for i := range a {
		out[i] = a[i].Lerp(b[i], t)
	}
	return out
}

// closed joins two edges running the same way into one polygon.
func closed(a, b geom.Polyline) geom.Polyline {
	return a.Concat(b.Reversed())
}

// pattern reports whether a point is covered by the body pattern.
type pattern func(p geom.Point) bool

// pattern returns the body pattern of the phenotype, or nil when it has
// none. The stipple pattern is not a predicate and is drawn separately.
func (b *builder) pattern() pattern {
	scale := b.p[genetics.PatternScale]
	switch b.p.Int(genetics.PatternType) {
	case 1:
		return b.spots(scale)
	case 2:
		return func(p geom.Point) bool {
			return b.rng.Noise(p.X*0.1, p.Y*0.1, 0)*math.Max(0.35, (p.Y-10)/280) < 0.2
		}
	case 3:
		return func(p geom.Point) bool {
			dx := b.rng.Noise(p.X*0.01, p.Y*0.01, 0) * 30
			return int((p.X+dx)/(30*scale))%2 == 1
		}
	}
	return nil
}

func gauss2d(x, y float64) float64 {
	return math.Exp(-0.5*x*x) * math.Exp(-0.5*y*y)
}

// spots scatters soft round blotches over the canvas.
func (b *builder) spots(scale float64) pattern {
	centers := geom.PoissonDisk(500, 300, 20*scale, b.rng)
	radii := make([]float64, len(centers))
	for i := range radii {
		radii[i] = (b.rng.Float64()*5 + 10) * scale
	}
	return func(p geom.Point) bool {
		for i, c := range centers {
			r := radii[i]
			if p.Distance(c) >= r {
				continue
			}
			d := p.Sub(c).Mul(2 / r)
			if gauss2d(d.X, d.Y)*b.rng.Noise(p.X, p.Y, 999) > 0.2 {
				return true
			}
		}
		return false
	}
}

// lattice returns the scale mesh dimensions for a body bounding box.
func lattice(box geom.Rect, cell float64) (cols, rows int, uw, uh float64) {
	cols = max(1, int(box.Width()/cell))
	rows = max(1, int(box.Height()/cell))
	return cols, rows, box.Width() / float64(cols), box.Height() / float64(rows)
}

func translateAll(pls []geom.Polyline, dx, dy float64) []geom.Polyline {
	for i := range pls {
		pls[i] = pls[i].Translate(dx, dy)
	}
	return pls
}

// scaledBody covers the body in overlapping round scales. Scales over the
// pattern carry texture strokes; scales near the belly thin out.
func (b *builder) scaledBody(top, bottom geom.Polyline, scale float64, pat pattern) []geom.Polyline {
	inner := closed(top, between(top, bottom, 0.95))
	upper := closed(top, between(top, bottom, 0.85))

	box := geom.BoundsOf(top, bottom)
	cols, rows, uw, uh := lattice(box, scale*15)
	draw := func(at geom.Point, w, h float64) []geom.Polyline {
		strokes := 3
		if pat != nil && !pat(at) {
			strokes = 0
		}
		return geom.ScaleStroke(w, h, strokes, b.rng)
	}
	mesh := geom.ScaleMesh(cols, rows+3, uw, uh, draw, uw*3, uh*3, true, b.rng)
	mesh = translateAll(mesh, box.Min.X, box.Min.Y-uh*1.5)

	split := geom.ClipAll(geom.ClipAll(mesh, inner).Inside, upper)
	out := []geom.Polyline{top, bottom.Reversed()}
	out = append(out, split.Inside...)
	for _, pl := range split.Outside {
		if b.rng.Float64() < 0.6 {
			out = append(out, pl)
		}
	}
	return out
}

// finelyScaledBody draws small untextured scales that fade out towards
// the belly except where the pattern holds.
func (b *builder) finelyScaledBody(top, bottom geom.Polyline, scale float64, pat pattern) []geom.Polyline {
	inner := closed(top, between(top, bottom, 0.95))

	box := geom.BoundsOf(top, bottom)
	cols, rows, uw, uh := lattice(box, scale*5)
	draw := func(_ geom.Point, w, h float64) []geom.Polyline {
		return geom.ScaleStroke(w*0.7, h*0.6, 0, b.rng)
	}
	mesh := geom.ScaleMesh(cols, rows+16, uw, uh, draw, uw*8, uh*8, false, b.rng)
	mesh = translateAll(mesh, box.Min.X, box.Min.Y-uh*8)

	out := []geom.Polyline{top, bottom.Reversed()}
	for _, pl := range geom.ClipAll(mesh, inner).Inside {
		p := pl[0]
		t := (p.Y - box.Min.Y) / box.Height()
		var keep bool
		if pat != nil {
			keep = pat(p) || (b.rng.Float64() > t && b.rng.Float64() > t)
		} else {
			keep = b.rng.Float64() > t
		}
		if keep {
			out = append(out, pl)
		}
	}
	return out
}

// latticedBody draws a wavy diamond lattice bent to follow the body.
func (b *builder) latticedBody(top, bottom geom.Polyline, scale float64) []geom.Polyline {
	step := 6 * scale
	inner := closed(top, between(top, bottom, 0.95))

	box := geom.BoundsOf(top, bottom).Inset(step)
	w, h := box.Width(), box.Height()
	lines := []geom.Polyline{between(top, bottom, 0.4).Reversed()}
	for i := -h; i < w; i += step {
		lines = append(lines, geom.Polyline{
			geom.Pt(box.Min.X+i, box.Min.Y),
			geom.Pt(box.Min.X+i+h, box.Min.Y+h),
		})
	}
	for i := 0.0; i < w+h; i += step {
		lines = append(lines, geom.Polyline{
			geom.Pt(box.Min.X+i, box.Min.Y),
			geom.Pt(box.Min.X+i-h, box.Min.Y+h),
		})
	}
	for k, l := range lines {
		l = geom.Resample(l, 4)
		for j, q := range l {
			t := (q.Y - box.Min.Y) / h
			y := -math.Cos(t*math.Pi)*h/2 + box.Min.Y + h/2
			dx := (b.rng.Noise(q.X*0.005, y*0.005, 0.1) - 0.5) * 50
			dy := (b.rng.Noise(q.X*0.005, y*0.005, 1.2) - 0.5) * 50
			l[j] = geom.Pt(q.X+dx, y+dy)
		}
		lines[k] = l
	}

	kept := geom.ClipAll(lines, inner).Inside
	kept = geom.BinClipAll(kept, func(_ geom.Point, t float64) bool {
		return b.rng.Float64() > t || b.rng.Float64() > t
	}).Inside

	out := []geom.Polyline{top, bottom.Reversed()}
	return append(out, kept...)
}

// streakedBody draws broken chevrons from the lateral line to both edges,
// densest towards the tail, plus a scatter of veins.
func (b *builder) streakedBody(top, bottom geom.Polyline, scale float64) []geom.Polyline {
	mid := geom.Resample(between(top, bottom, 0.4), 10*scale)
	top = geom.Resample(top, 10*scale)
	bottom = geom.Resample(bottom, 10*scale)
	full := closed(top, bottom)

	lines := []geom.Polyline{mid}
	for i := 3; i < min(len(top), len(bottom), len(mid)); i++ {
		lines = append(lines,
			geom.Polyline{top[i], mid[i-3]},
			geom.Polyline{mid[i-3], bottom[i]},
		)
	}

	streak := func(p geom.Point, t float64) bool {
		c := math.Cos(t * math.Pi)
		return (b.rng.Float64() > c && b.rng.Float64() < p.X/500) ||
			(b.rng.Float64() > c && b.rng.Float64() < p.X/500)
	}
	var strokes []geom.Polyline
	for _, l := range lines {
		l = geom.Resample(l, 4)
		for j, q := range l {
			l[j] = geom.Pt(
				q.X+30*(b.rng.Noise(q.X*0.01, q.Y*0.01, 1)-0.5),
				q.Y+30*(b.rng.Noise(q.X*0.01, q.Y*0.01, 9)-0.5),
			)
		}
		strokes = append(strokes, geom.BinClip(l, streak).Inside...)
	}
	strokes = geom.ClipAll(strokes, full).Inside

	out := []geom.Polyline{top, bottom.Reversed()}
	out = append(out, strokes...)
	return append(out, geom.Veins(full, 50, b.rng)...)
}
