package geom

import (
	"math"

	"github.com/trouthatch/trout/noise"
)

// ScaleMask returns the occluding outline of a single scale of half-width
// w and half-height h, centered on the origin.
func ScaleMask(w, h float64) Polyline {
	const n = 7
	p := make(Polyline, n)
	for i := range p {
		a := float64(i) / n * math.Pi * 2
		p[i] = Point{X: -SignedPow(math.Cos(a), 1.3) * w, Y: SignedPow(math.Sin(a), 1.3) * h}
	}
	return p
}

// ScaleStroke draws one scale: a rounded rim plus strokes texture lines
// across it. The origin is the scale's center.
func ScaleStroke(w, h float64, strokes int, rng *noise.Rand) []Polyline {
	const n = 8
	rim := make(Polyline, n)
	for i := range rim {
		a := float64(i)/(n-1)*math.Pi + math.Pi/2
		rim[i] = Point{X: -SignedPow(math.Cos(a), 1.4) * w, Y: SignedPow(math.Sin(a), 1.4) * h}
	}
	out := []Polyline{rim}
	for i := 0; i < strokes; i++ {
		var t float64
		if strokes > 1 {
			t = float64(i) / float64(strokes-1)
		}
		out = append(out, Polyline{
			{X: -w*0.3 + (rng.Float64() - 0.5), Y: -h*0.2 + t*h*0.4 + (rng.Float64() - 0.5)},
			{X: w*0.5 + (rng.Float64() - 0.5), Y: -h*0.3 + t*h*0.6 + (rng.Float64() - 0.5)},
		})
	}
	return out
}

// ScaleFunc draws one scale of half size (w, h) centered on the origin;
// at is the scale's position in the mesh, for pattern lookups.
type ScaleFunc func(at Point, w, h float64) []Polyline

// ScaleMesh lays scales on a cols by rows lattice of cell size (uw, uh),
// with rows bunched towards the top and bottom edges and positions
// displaced by coherent noise of amplitude (noiseX, noiseY). Scales are
// placed column by column, each followed by an offset row between lattice
// points. With interclip, every new scale is clipped against the union of
// the masks already placed, so earlier scales overlap later ones.
func ScaleMesh(cols, rows int, uw, uh float64, fn ScaleFunc, noiseX, noiseY float64, interclip bool, rng *noise.Rand) []Polyline {
	if cols < 3 || rows < 3 {
		return nil
	}
	pts := make([]Point, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x := float64(j) * uw
			half := float64(rows) * uh / 2
			y := half - math.Cos(float64(i)/float64(rows-1)*math.Pi)*half
			a := rng.Noise2(x*0.005, y*0.005)*math.Pi*2 - math.Pi
			r := rng.Noise2(x*0.005, y*0.005)
			pts[i*cols+j] = Point{X: x + math.Cos(a)*r*noiseX, Y: y + math.Cos(a)*r*noiseY}
		}
	}

	sizes := make([]Point, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if i == 0 || j == 0 || i == rows-1 || j == cols-1 {
				sizes[i*cols+j] = Point{X: uw / 2, Y: uh / 2}
				continue
			}
			a := pts[i*cols+j]
			dw := (a.Distance(pts[i*cols+j+1]) + a.Distance(pts[i*cols+j-1])) / 4
			dh := (a.Distance(pts[(i-1)*cols+j]) + a.Distance(pts[(i+1)*cols+j])) / 4
			sizes[i*cols+j] = Point{X: dw, Y: dh}
		}
	}

	var out []Polyline
	var clipper Polyline
	place := func(at Point, w, h float64) {
		ps := fn(at, w, h)
		for k := range ps {
			ps[k] = ps[k].Translate(at.X, at.Y)
		}
		if !interclip {
			out = append(out, ps...)
			return
		}
		mask := ScaleMask(w, h).Translate(at.X, at.Y)
		if clipper == nil {
			out = append(out, ps...)
			clipper = mask
			return
		}
		out = append(out, ClipAll(ps, clipper).Outside...)
		clipper = Union(clipper, mask)
	}

	for j := 1; j < cols-1; j++ {
		for i := 1; i < rows-1; i++ {
			s := sizes[i*cols+j]
			place(pts[i*cols+j], s.X, s.Y)
		}
		for i := 1; i < rows-1; i++ {
			a, b := i*cols+j, i*cols+j+1
			c, d := (i+1)*cols+j, (i+1)*cols+j+1
			at := pts[a].Add(pts[b]).Add(pts[c]).Add(pts[d]).Mul(0.25)
			sz := sizes[a].Add(sizes[b]).Add(sizes[c]).Add(sizes[d]).Mul(0.25)
			place(at, sz.X*1.2, sz.Y)
		}
	}
	return out
}
