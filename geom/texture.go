package geom

import (
	"math"

	"github.com/trouthatch/trout/noise"
)

// diagonals returns parallel strokes covering r. Each stroke runs from
// (x, top) to (x+lean, bottom) for x stepping across [from, to).
func diagonals(r Rect, from, to, step, lean float64) []Polyline {
	var lines []Polyline
	for i := from; i < to; i += step {
		lines = append(lines, Polyline{
			{X: r.Min.X + i, Y: r.Min.Y},
			{X: r.Min.X + i + lean, Y: r.Max.Y},
		})
	}
	return lines
}

// Hatch fills poly with evenly spaced diagonal strokes.
func Hatch(poly Polyline, step float64) []Polyline {
	r := poly.Bounds().Inset(step)
	lines := diagonals(r, 0, r.Width()+r.Height()/2, step, -r.Height()/2)
	return ClipAll(lines, poly).Inside
}

// Shade draws 45 degree strokes inside poly but outside a copy of poly
// shifted by (-dx, -dy), which leaves a crescent of shading on one side.
// Each stroke is shortened by a random amount at the end facing the
// light.
func Shade(poly Polyline, step, dx, dy float64, rng *noise.Rand) []Polyline {
	r := poly.Bounds().Inset(step)
	lines := diagonals(r, -r.Height(), r.Width(), step, r.Height())
	lines = ClipAll(lines, poly).Inside
	lines = ClipAll(lines, poly.Translate(-dx, -dy)).Outside
	for _, l := range lines {
		a, b := l[0], l[len(l)-1]
		s := rng.Float64() * 0.5
		if dy > 0 {
			l[0] = a.Lerp(b, s)
		} else {
			l[len(l)-1] = b.Lerp(a, s)
		}
	}
	return lines
}

// PatternShade draws dense strokes inside poly wherever pattern holds.
func PatternShade(poly Polyline, step float64, pattern func(Point) bool) []Polyline {
	r := poly.Bounds().Inset(step)
	lines := diagonals(r, -r.Height()/2, r.Width(), step, r.Height()/2)
	lines = ClipAll(lines, poly).Inside
	for i := range lines {
		lines[i] = Resample(lines[i], 2)
	}
	return BinClipAll(lines, func(p Point, _ float64) bool { return pattern(p) }).Inside
}

// Veins scatters n short noise-guided walks inside poly.
func Veins(poly Polyline, n int, rng *noise.Rand) []Polyline {
	r := poly.Bounds()
	var out []Polyline
	for i := 0; i < n; i++ {
		p := Point{X: r.Min.X + rng.Float64()*r.Width(), Y: r.Min.Y + rng.Float64()*r.Height()}
		walk := Polyline{p}
		for j := 0; j < 15; j++ {
			p.X += (rng.Noise(p.X*0.1, p.Y*0.1, 7) - 0.5) * 4
			p.Y += (rng.Noise(p.X*0.1, p.Y*0.1, 6) - 0.5) * 4
			walk = append(walk, p)
		}
		out = append(out, walk)
	}
	return ClipAll(out, poly).Inside
}

// Dots stipples poly with tiny double ellipses on a Poisson disk, thinning
// them out towards the bottom of the canvas.
func Dots(poly Polyline, scale float64, rng *noise.Rand) []Polyline {
	r := poly.Bounds()
	const n = 7
	var out []Polyline
	for _, s := range PoissonDisk(r.Width(), r.Height(), 5*scale, rng) {
		p := s.Add(r.Min)
		t := 0.5
		if p.Y > 0 {
			t = p.Y / 300
		}
		if (t > 0.4 || p.Y < 0) && t > rng.Float64() {
			continue
		}
		for k := 0; k < 2; k++ {
			o := make(Polyline, n)
			for j := range o {
				a := float64(j) / (n - 1) * math.Pi * 2
				o[j] = Point{
					X: math.Cos(a) - float64(k)*0.3,
					Y: math.Sin(a)*0.5 - float64(k)*0.3,
				}
			}
			out = append(out, o.Rotate(rng.Float64()*math.Pi*2).Translate(p.X, p.Y))
		}
	}
	return ClipAll(out, poly).Inside
}
