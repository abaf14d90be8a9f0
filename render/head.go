package render

import (
	"math"

	"github.com/trouthatch/trout/genetics"
	"github.com/trouthatch/trout/geom"
)

// headPoints is the number of samples on each head edge; jaw anchors index
// into the lower edge.
const headPoints = 20

// lip draws a rounded lip of half-width w hooked around p1, open towards p0.
func (b *builder) lip(p0, p1 geom.Point, w float64) geom.Polyline {
	jitter := func() float64 { return b.rng.Float64()*0.001 - 0.0005 }
	p0 = geom.Pt(p0.X+jitter(), p0.Y+jitter())
	p1 = geom.Pt(p1.X+jitter(), p1.Y+jitter())

	a0 := p0.Angle(p1)
	ang := math.Acos(math.Min(1, w/p0.Distance(p1)))
	d := geom.Point{}.Polar(a0+math.Pi/2, 0.5)

	const n = 10
	o := geom.Polyline{p0.Sub(d)}
	for i := 0; i < n; i++ {
		t := float64(i) / (n - 1)
		a := geom.Lerp(ang, 2*math.Pi-ang, t) + a0
		o = append(o, geom.Pt(p1.X-math.Cos(a)*w, p1.Y-math.Sin(a)*w))
	}
	o = append(o, p0.Add(d))
	o = geom.Resample(o, 2.5)
	for i, q := range o {
		o[i] = geom.Pt(
			q.X+b.rng.Noise(q.X*0.05, q.Y*0.05, 1)*2-1,
			q.Y+b.rng.Noise(q.X*0.05, q.Y*0.05, 2)*2-1,
		)
	}
	return o
}

// teeth draws a row of fangs along p0-p1 growing to length h at p1. dir
// picks the side of the line they point to.
func teeth(p0, p1 geom.Point, h, dir, sep float64) []geom.Polyline {
	n := max(2, int(p0.Distance(p1)/sep))
	ang := p0.Angle(p1)
	out := make([]geom.Polyline, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		a := p0.Lerp(p1, t)
		w := h * t
		tip := a.Polar(ang+dir*math.Pi/2, w)
		c := a.Polar(ang, 1)
		d := a.Polar(ang+math.Pi, 1)
		out = append(out, geom.Polyline{
			c,
			c.Lerp(tip, 0.7),
			a.Polar(ang+dir*(math.Pi/2+0.15), w),
			d.Lerp(tip, 0.7),
			d,
		})
	}
	return out
}

// jaw draws the lower jaw hinged at p0 with its front edge p1-p2.
func (b *builder) jaw(p0, p1, p2 geom.Point) part {
	const n = 10
	ang := p0.Angle(p2)
	d := p0.Distance(p2)
	o := make(geom.Polyline, n)
	for i := range o {
		t := float64(i) / (n - 1)
		s := math.Sin(t * math.Pi)
		q := p2.Lerp(p0, t).Polar(ang-math.Pi/2, s*d/20)
		o[i] = geom.Pt(
			q.X+(b.rng.Noise(q.X*0.01, q.Y*0.01, 1)-0.5)*4*s,
			q.Y+(b.rng.Noise(q.X*0.01, q.Y*0.01, 4)-0.5)*4*s,
		)
	}
	return part{
		outline: geom.Polyline{p2, p1, p0},
		strokes: append([]geom.Polyline{o}, geom.Veins(o, 5, b.rng)...),
	}
}

func circle(c geom.Point, r float64, n int, phase float64) geom.Polyline {
	o := make(geom.Polyline, n)
	for i := range o {
		a := float64(i)/float64(n-1)*2*math.Pi + phase
		o[i] = c.Polar(a, r)
	}
	return o
}

// roundEye is a ringed eye with a shaded pupil.
func (b *builder) roundEye(c geom.Point, r float64) part {
	const n = 20
	rim := circle(c, r, n, math.Pi*3/4)
	var ring geom.Polyline
	for i := n / 2; i < n; i++ {
		t := float64(i) / (n - 1)
		ring = append(ring, c.Polar(t*2*math.Pi+math.Pi*3/4, r*0.8))
	}
	pupil := circle(c, r*0.4, n, math.Pi*3/4).Translate(-0.75, -0.75)
	strokes := []geom.Polyline{rim, ring, pupil}
	return part{
		outline: rim,
		strokes: append(strokes, geom.Shade(pupil, 2.7, 10, 10, b.rng)...),
	}
}

// glossyEye is an eye with concentric lid arcs, a filled pupil and a
// highlight cut out of both.
func (b *builder) glossyEye(c geom.Point, r float64) part {
	const n = 20
	rim := circle(c, r, n, math.E)
	pupil := circle(c, r*0.4, n, math.E)

	var arcs []geom.Polyline
	for k := 0; k < int(r*0.6/2); k++ {
		rr := r - float64(k)*2
		arc := make(geom.Polyline, n)
		for i := range arc {
			t := float64(i) / (n - 1)
			arc[i] = c.Polar(geom.Lerp(math.Pi*7/8, math.Pi*13/8, t), rr)
		}
		arcs = append(arcs, arc)
	}

	glint := geom.Resample(geom.Polyline{
		c.Polar(-math.Pi*3/4, r*0.9),
		c.Add(geom.Pt(1, 1)),
		c.Polar(-math.Pi*11/12, r*0.9),
	}, 3)
	for i, q := range glint {
		x := q.X + b.rng.Noise(q.X*0.1, q.Y*0.1, 22)*4 - 2
		y := q.Y + b.rng.Noise(x*0.1, q.Y*0.1, 33)*4 - 2
		glint[i] = geom.Pt(x, y)
	}

	fill := geom.ClipAll(geom.Hatch(pupil, 1.5), glint).Outside
	strokes := []geom.Polyline{rim}
	strokes = append(strokes, geom.ClipAll(arcs, glint).Outside...)
	strokes = append(strokes, geom.Clip(pupil, glint).Outside...)
	return part{outline: rim, strokes: append(strokes, fill...)}
}

// barbel draws a whisker of n segments of length step leaving p at angle
// ang, as a closed tapering outline.
func (b *builder) barbel(p geom.Point, n int, ang, step float64) geom.Polyline {
	spine := geom.Polyline{p}
	phase := b.rng.Float64() * 2 * math.Pi
	wiggle := 1.0
	for i := 0; i < n; i++ {
		p = p.Polar(ang, step)
		ang += (b.rng.Noise(float64(i)*0.1, phase, 0) - 0.5) * wiggle
		if float64(i) < float64(n)/2 {
			wiggle *= 1.02
		} else {
			wiggle *= 0.92
		}
		spine = append(spine, p)
	}

	var left, right geom.Polyline
	for i := 0; i < n-1; i++ {
		t := float64(i) / float64(n-1)
		w := 1.5 * (1 - t)
		cur := spine[i]
		a1 := cur.Angle(spine[i+1])
		a := a1 - math.Pi/2
		if i > 0 {
			a0 := cur.Angle(spine[i-1])
			a1 -= 2 * math.Pi
			for a1 < a0 {
				a1 += 2 * math.Pi
			}
			a = (a0 + a1) / 2
		}
		left = append(left, cur.Polar(a, w))
		right = append(right, cur.Polar(a+math.Pi, w))
	}
	left = append(left, spine[len(spine)-1])
	return left.Concat(right.Reversed())
}

// headResult is the drawn head.
type headResult struct {
	shape    geom.Polyline // head silhouette
	occluder geom.Polyline // region hiding the body behind the gill line
	strokes  []geom.Polyline
	neckline geom.Point // top of the gill line, where overlays sit
}

// head draws the head from the snout p0 to the gill line p1-p2, with its
// eye, lips, jaw and optional teeth and barbels.
func (b *builder) head(p0, p1, p2 geom.Point) headResult {
	const n = headPoints
	wobble := func(x, y, t float64) geom.Point {
		dx := (b.rng.Noise(x*0.01, y*0.01, 9)*40 - 20) * (1.01 - t)
		dy := (b.rng.Noise(x*0.01, y*0.01, 8)*40 - 20) * (1.01 - t)
		return geom.Pt(x+dx, y+dy)
	}
	top := make(geom.Polyline, n)
	for i := range top {
		t := float64(i) / (n - 1)
		a := math.Pi / 2 * t
		top[i] = wobble(
			p1.X-geom.SignedPow(math.Cos(a), 1.5)*(p1.X-p0.X),
			p0.Y-geom.SignedPow(math.Sin(a), 1.5)*(p0.Y-p1.Y),
			t,
		)
	}
	bottom := make(geom.Polyline, n)
	for i := range bottom {
		t := float64(i) / (n - 1)
		a := math.Pi / 2 * t
		bottom[n-1-i] = wobble(
			p2.X-geom.SignedPow(math.Cos(a), 0.8)*(p2.X-p0.X),
			p0.Y+geom.SignedPow(math.Sin(a), 1.5)*(p2.Y-p0.Y),
			t,
		)
	}
	ang := p1.Angle(p2)
	gill := make(geom.Polyline, 0, n-2)
	for i := 1; i < n-1; i++ {
		t := float64(i) / (n - 1)
		r := b.rng.Noise(t*2, 1.2, 0) * math.Sqrt(math.Sin(t*math.Pi)) * 20
		gill = append(gill, p1.Lerp(p2, t).Polar(ang-math.Pi/2, r))
	}
	outline := top.Concat(gill, bottom)

	// The cheek line follows the gill and lower edge, pulled towards the top.
	cheek := gill[len(gill)/3:].Concat(bottom[:n/2])
	if len(cheek) > len(top) {
		cheek = cheek[:len(top)]
	}
	for i := range cheek {
		t := float64(i) / float64(len(cheek)-1)
		s := math.Pow(math.Sin(t*math.Pi), 2)*0.1 + 0.12
		cheek[i] = cheek[i].Lerp(top[i], s)
	}
	end := cheek[len(cheek)-1]
	cheek = cheek.Translate((p0.X-end.X)*0.3, (p0.Y-end.Y)*0.2)

	// Keep the eye clear of the snout edges.
	eyeSize := b.p[genetics.EyeSize]
	eye := geom.Pt(
		p0.X*0.475+p1.X*0.375+p2.X*0.15,
		p0.Y*0.475+p1.Y*0.375+p2.Y*0.15,
	)
	d0 := geom.SegmentDistance(eye, p0, p1)
	d1 := geom.SegmentDistance(eye, p0, p2)
	switch {
	case d0 < eyeSize && d1 < eyeSize:
		eyeSize = math.Min(d0, d1)
	case d0 < eyeSize:
		eye = p0.Lerp(p1, 0.5).Polar(p0.Angle(p1)+math.Pi/2, eyeSize)
	}

	mouth := b.p.Int(genetics.MouthSize)
	hinge := bottom[18-mouth]
	corner := bottom[18]
	open := b.p[genetics.JawOpen] * math.Pi / 4
	if !b.p.Bool(genetics.HasTeeth) {
		open *= 0.5
	}
	chin := hinge.Polar(hinge.Angle(corner)-open, hinge.Distance(corner)*b.p[genetics.JawSize])

	var e part
	if b.p.Int(genetics.EyeType) == 1 {
		e = b.glossyEye(eye, eyeSize)
	} else {
		e = b.roundEye(eye, eyeSize)
	}
	eyeStrokes := geom.ClipAll(e.strokes, outline).Inside
	cheeks := geom.Clip(cheek, e.outline).Outside

	upperLip := b.lip(hinge, corner, 3)
	lowerLip := b.lip(hinge, chin, 3)

	j := b.jaw(bottom[15-mouth], hinge, chin)
	jaw := geom.ClipAll(geom.ClipAll(j.strokes, lowerLip).Outside, outline).Outside
	jaw = append(jaw, j.outline)

	var fangs []geom.Polyline
	if b.p.Bool(genetics.HasTeeth) {
		length, space := b.p[genetics.TeethLength], b.p[genetics.TeethSpace]
		fangs = geom.ClipAll(teeth(hinge, corner, length, -1, space), upperLip).Outside
		fangs = append(fangs, geom.ClipAll(teeth(hinge, chin, length, 1, space), lowerLip).Outside...)
	}

	edges := geom.Clip(outline, upperLip).Outside
	upperLips := geom.Clip(upperLip, lowerLip).Outside

	shade := geom.Shade(outline, 6, -6, -6, b.rng)
	shade = geom.ClipAll(geom.ClipAll(shade, upperLip).Outside, e.outline).Outside
	veins := geom.Veins(outline, b.p.Int(genetics.HeadTextureAmount), b.rng)
	veins = geom.ClipAll(geom.ClipAll(veins, upperLip).Outside, e.outline).Outside

	var whiskers []geom.Polyline
	lowerLips := []geom.Polyline{lowerLip}
	if b.p.Bool(genetics.HasMoustache) {
		m := b.barbel(hinge, b.p.Int(genetics.MoustacheLength), math.Pi*3/4, 1.5)
		lowerLips = geom.Clip(lowerLip, m).Outside
		jaw = geom.ClipAll(jaw, m).Outside
		whiskers = append(whiskers, m)
	}
	if b.p.Bool(genetics.HasBeard) {
		at := bottom[8]
		if len(jaw) > 0 && len(jaw[0]) > 0 {
			at = jaw[0][len(jaw[0])/2]
		}
		strands := b.p.Int(genetics.BeardLength)
		strand := func() geom.Polyline {
			return b.barbel(at, strands, math.Pi*0.6+b.rng.Float64()*0.4-0.2, 3).
				Translate(b.rng.Float64()-0.5, b.rng.Float64()-0.5)
		}
		s1, s2, s3 := strand(), strand(), strand()
		whiskers = append(whiskers, s1)
		whiskers = append(whiskers, geom.Clip(s2, s1).Outside...)
		whiskers = append(whiskers, geom.ClipAll(geom.Clip(s3, s2).Outside, s1).Outside...)
	}

	neckline := top[n-1]
	occluder := geom.Polyline{geom.Pt(0, 0), geom.Pt(neckline.X, 0), neckline}.
		Concat(gill, geom.Polyline{bottom[0], geom.Pt(bottom[0].X, 300), geom.Pt(0, 300)})

	var strokes []geom.Polyline
	for _, group := range [][]geom.Polyline{
		edges, cheeks, upperLips, lowerLips, eyeStrokes, shade, veins, whiskers, fangs, jaw,
	} {
		strokes = append(strokes, group...)
	}
	return headResult{
		shape:    outline,
		occluder: occluder,
		strokes:  strokes,
		neckline: neckline,
	}
}
