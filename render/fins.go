package render

import (
	"math"

	"github.com/trouthatch/trout/geom"
)

// part is one drawn component: the silhouette that hides what lies under
// it and the strokes that draw it.
type part struct {
	outline geom.Polyline
	strokes []geom.Polyline
}

// span returns pl[from:to] with both bounds clamped. A negative to counts
// from the end.
func span(pl geom.Polyline, from, to int) geom.Polyline {
	if to < 0 {
		to += len(pl)
	}
	from = max(0, min(from, len(pl)))
	to = max(0, min(to, len(pl)))
	if from >= to {
		return nil
	}
	return pl[from:to].Clone()
}

// rayFin describes a fin drawn as rays swept out of a base curve.
type rayFin struct {
	from, to     float64 // ray angle offsets at the start and end of the base
	length       func(t float64) float64
	trimRoot     bool    // start inner rays a little away from the base
	bend0, bend1 float64 // sideways bow of the rays at the start and end
	softness     float64
}

// rays sweeps a ray fin along base. The outline is the fin's rim followed
// by the base reversed.
func (b *builder) rays(base geom.Polyline, f rayFin) part {
	n := len(base)
	if n < 2 {
		return part{}
	}
	normals := geom.Normals(base)

	var first, last, tips geom.Polyline
	var rays []geom.Polyline
	for i, root := range base {
		t := float64(i) / float64(n-1)
		a := normals[i] + geom.Lerp(f.from, f.to, t)
		ray := geom.Resample(geom.Polyline{root, root.Polar(a, f.length(t))}, 3)
		bend := geom.Lerp(f.bend0, f.bend1, t)
		for j, q := range ray {
			s := float64(j) / float64(len(ray)-1)
			ss := math.Sqrt(s)
			cv := bend * math.Sin(s*math.Pi)
			ray[j] = geom.Pt(
				q.X+b.rng.Noise(q.X*0.1, q.Y*0.1, 3)*ss*f.softness+math.Cos(a-math.Pi/2)*cv,
				q.Y+b.rng.Noise(q.X*0.1, q.Y*0.1, 4)*ss*f.softness+math.Sin(a-math.Pi/2)*cv,
			)
		}
		switch i {
		case 0:
			first = ray
		case n - 1:
			last = ray.Reversed()
		default:
			tips = append(tips, ray[len(ray)-1])
			lo := 0
			if f.trimRoot {
				lo = int(b.rng.Float64() * 4)
			}
			hi := max(2, int(float64(len(ray))*(b.rng.Float64()*0.5+0.5)))
			if q := span(ray, lo, hi); len(q) > 0 {
				rays = append(rays, q)
			}
		}
	}

	tips = geom.Resample(tips, 3)
	for j, q := range tips {
		d := (b.rng.Noise(q.X*0.1, q.Y*0.1, 0)*6 - 3) * (f.softness / 10)
		tips[j] = geom.Pt(q.X+d, q.Y+d)
	}
	rim := first.Concat(tips, last)
	return part{
		outline: rim.Concat(base.Reversed()),
		strokes: append([]geom.Polyline{rim}, rays...),
	}
}

// membrane draws a fin as thin spines joined by a scalloped webbing edge,
// with dark strokes shading each web. dark scales the shading density.
func (b *builder) membrane(base geom.Polyline, from, to float64, length func(t float64) float64, dark float64) part {
	n := len(base)
	if n < 2 {
		return part{}
	}
	normals := geom.Normals(base)

	// Each spine is a thin quad: root left, tip left, tip right, root right.
	spines := make([]geom.Polyline, n)
	for i, root := range base {
		t := float64(i) / float64(n-1)
		a := normals[i] + geom.Lerp(from, to, t)
		tip := root.Polar(a, length(t))
		spines[i] = geom.Polyline{
			root.Polar(a-math.Pi/2, 1.8),
			tip.Polar(a-math.Pi/2, 0.5),
			tip.Polar(a+math.Pi/2, 0.5),
			root.Polar(a+math.Pi/2, 1.8),
		}
	}

	const m = 10
	var edges, webs []geom.Polyline
	for i := 0; i+1 < n; i++ {
		tip0, root0 := spines[i][2], spines[i][3]
		root1, tip1 := spines[i+1][0], spines[i+1][1]
		u := tip0.Lerp(root0, 0.1)
		v := tip1.Lerp(root1, 0.1)
		ang := u.Angle(v)

		edge := make(geom.Polyline, m)
		for j := range edge {
			t := float64(j) / (m - 1)
			edge[j] = u.Lerp(v, t).Polar(ang+math.Pi/2, math.Sin(t*math.Pi)*2)
		}
		edges = append(edges, edge)

		k := int(math.Min(tip0.Distance(root0), tip1.Distance(root1)) / 10 * dark)
		mid := base[i].Lerp(base[i+1], 0.5)
		for s := 0; s < k; s++ {
			w := float64(s) / float64(k) * 0.7
			web := make(geom.Polyline, 0, m-2)
			for j := 1; j < m-1; j++ {
				web = append(web, edge[j].Lerp(mid, w))
			}
			webs = append(webs, web)
		}
	}

	// Later spines are hidden behind earlier ones.
	visible := []geom.Polyline{spines[0]}
	clipper := spines[0]
	for _, s := range spines[1:] {
		visible = append(visible, geom.Clip(s, clipper).Outside...)
		clipper = geom.Union(clipper, s)
	}

	var rim geom.Polyline
	for _, e := range edges {
		rim = append(rim, e...)
	}
	strokes := append(visible, edges...)
	return part{
		outline: rim.Concat(base.Reversed()),
		strokes: append(strokes, webs...),
	}
}

// finlet draws a row of small spikes along base, shrinking towards its end.
func (b *builder) finlet(base geom.Polyline, h float64) part {
	n := len(base)
	if n < 2 {
		return part{}
	}
	normals := geom.Normals(base)
	edge := make(geom.Polyline, n)
	for i, root := range base {
		t := float64(i) / float64(n-1)
		w := 0.0
		if (i+1)%3 == 0 {
			w = h * (1 - t*0.5)
		}
		edge[i] = root.Polar(normals[i], w)
	}
	edge = geom.Resample(edge, 2)
	for j, q := range edge {
		d := b.rng.Noise(q.X*0.1, q.Y*0.1, 0)*2 - 3
		edge[j] = geom.Pt(q.X+d, q.Y+d)
	}
	edge = append(edge, base[n-1])
	return part{
		outline: edge.Concat(base.Reversed()),
		strokes: []geom.Polyline{edge},
	}
}

// adipose draws a fleshy lobe of radius r over base, centred at the base
// midpoint offset by (dx, dy).
func (b *builder) adipose(base geom.Polyline, dx, dy, r float64) part {
	n := len(base)
	if n < 2 {
		return part{}
	}
	c := base[n/2].Add(geom.Pt(dx, dy))
	p1, p2 := base[0], base[n-1]
	start := c.Angle(p1) + math.Acos(math.Min(1, r/c.Distance(p1)))
	end := c.Angle(p2) - math.Acos(math.Min(1, r/c.Distance(p2))) - 2*math.Pi
	for end < start {
		end += 2 * math.Pi
	}

	const steps = 20
	edge := geom.Polyline{p1}
	for i := 0; i < steps; i++ {
		t := float64(i) / (steps - 1)
		edge = append(edge, c.Polar(geom.Lerp(start, end, t), r))
	}
	edge = append(edge, p2)
	edge = geom.Resample(edge, 3)
	for j, q := range edge {
		t := float64(j) / float64(len(edge)-1)
		d := (b.rng.Noise(q.X*0.01, q.Y*0.01, 0) - 0.5) * math.Sin(t*math.Pi) * 50
		edge[j] = geom.Pt(q.X+d, q.Y+d)
	}

	shape := edge.Concat(base.Reversed())
	inner := geom.Clip(edge.Translate(0, 4), shape).Inside
	inner = geom.BinClipAll(inner, func(_ geom.Point, t float64) bool {
		return b.rng.Float64() < math.Sin(t*math.Pi)
	}).Inside
	return part{
		outline: shape,
		strokes: append([]geom.Polyline{edge}, inner...),
	}
}
