package render

import (
	"math"

	"github.com/trouthatch/trout/genetics"
	"github.com/trouthatch/trout/geom"
	"github.com/trouthatch/trout/noise"
)

// builder draws one phenotype. Every random draw goes through rng, so a
// drawing depends only on the phenotype and the seed.
type builder struct {
	rng *noise.Rand
	p   genetics.Haploid
}

func (b *builder) deviate(n float64) float64 {
	return b.rng.Float64()*2*n - n
}

// wave is one-dimensional noise along a fin.
func (b *builder) wave(t float64) float64 {
	return b.rng.Noise(t*3, 0, 0)
}

// fish is the drawn organism in model coordinates.
type fish struct {
	lines      []geom.Polyline
	silhouette []geom.Polyline // body, fin and head shapes, painted behind the lines
	neckline   geom.Point
}

// fish draws the whole organism: body, five fin groups, finlets and head,
// each clipped so nearer parts hide farther ones.
func (b *builder) fish() fish {
	p := &b.p
	top, bottom := b.bodyCurves()
	body := closed(top, bottom)
	shade := geom.Shade(body, 8, -12, -12, b.rng)
	pat := b.pattern()

	scale := p[genetics.ScaleScale]
	var bd []geom.Polyline
	switch p.Int(genetics.ScaleType) {
	case 0:
		bd = b.scaledBody(top, bottom, scale, pat)
	case 1:
		bd = b.finelyScaledBody(top, bottom, scale, pat)
	case 2:
		bd = b.latticedBody(top, bottom, scale)
	default:
		bd = b.streakedBody(top, bottom, scale)
	}

	dorsalStart, dorsalEnd := p.Int(genetics.DorsalStart), p.Int(genetics.DorsalEnd)
	dorsalLength := p[genetics.DorsalLength]
	dorsal := b.dorsal(span(top, dorsalStart, dorsalEnd), dorsalLength)
	dorsalStrokes := geom.ClipAll(dorsal.strokes, body.Translate(0, 0.001)).Outside

	wing := b.wing(top, bottom)
	bd = geom.ClipAll(bd, wing.outline).Outside

	pelvic := b.pelvic(span(bottom, p.Int(genetics.PelvicStart), p.Int(genetics.PelvicEnd)).Reversed())
	pelvicStrokes := geom.ClipAll(pelvic.strokes, wing.outline).Outside

	anal := b.anal(span(bottom, p.Int(genetics.AnalStart), p.Int(genetics.AnalEnd)).Reversed())
	analStrokes := geom.ClipAll(anal.strokes, wing.outline).Outside

	tail := b.tail(top, bottom)
	bd = geom.ClipAll(bd, tail.outline.Translate(1, 0)).Outside
	tailStrokes := geom.ClipAll(tail.strokes, wing.outline).Outside

	var finlets []geom.Polyline
	switch p.Int(genetics.FinletType) {
	case 1:
		for _, base := range []geom.Polyline{
			geom.Resample(span(top, dorsalEnd, -2), 5),
			geom.Resample(span(bottom, p.Int(genetics.AnalEnd), -2).Reversed(), 5),
		} {
			finlets = append(finlets, b.finlet(base, 5).strokes...)
		}
	case 2:
		f := b.adipose(geom.Resample(span(top, 27, 30), 5), 20, -5, 6)
		finlets = f.strokes
		body = geom.Union(body, f.outline.Translate(0, -1))
	case 3:
		if base := geom.Resample(span(top, dorsalEnd+2, -3), 5); len(base) > 2 {
			f := b.rays(base, rayFin{
				from: 0.2, to: 0.3, softness: 10,
				length: func(t float64) float64 {
					return (0.3 + b.wave(t)*0.7) * dorsalLength * 0.6 * math.Sqrt(math.Sin(t*math.Pi))
				},
			})
			finlets = f.strokes
		}
	}

	nose := geom.Pt(50-p[genetics.HeadLength], 150+p[genetics.NoseHeight])
	var h headResult
	if p.Int(genetics.NeckType) == 0 {
		h = b.head(nose, top[6], bottom[5])
	} else {
		h = b.head(nose, top[5], bottom[6])
	}
	bd = geom.ClipAll(bd, h.occluder).Outside
	shade = geom.ClipAll(geom.ClipAll(shade, h.occluder).Outside, wing.outline).Outside
	wingStrokes := geom.ClipAll(wing.strokes, h.occluder).Outside
	dorsalStrokes = geom.ClipAll(dorsalStrokes, wing.outline).Outside

	var patterned []geom.Polyline
	if pat != nil {
		if p.Int(genetics.ScaleType) > 1 {
			patterned = geom.PatternShade(geom.Union(body, dorsal.outline.Translate(0, 3)), 3.5, pat)
		} else {
			patterned = geom.PatternShade(dorsal.outline, 4.5, pat)
		}
		patterned = geom.ClipAll(geom.ClipAll(patterned, h.occluder).Outside, wing.outline).Outside
	}

	var dots []geom.Polyline
	if p.Int(genetics.PatternType) == 4 {
		dots = geom.Dots(geom.Union(body, dorsal.outline.Translate(0, 5)), p[genetics.PatternScale], b.rng)
		dots = geom.ClipAll(geom.ClipAll(dots, wing.outline).Outside, h.occluder).Outside
	}

	var lines []geom.Polyline
	for _, group := range [][]geom.Polyline{
		bd, dorsalStrokes, wingStrokes, pelvicStrokes, analStrokes, finlets,
		h.strokes, shade, patterned, dots, tailStrokes,
	} {
		lines = append(lines, group...)
	}

	var silhouette []geom.Polyline
	for _, s := range []geom.Polyline{
		tail.outline, dorsal.outline, pelvic.outline, anal.outline, body, h.shape, wing.outline,
	} {
		if len(s) > 2 {
			silhouette = append(silhouette, s)
		}
	}
	return fish{lines: lines, silhouette: silhouette, neckline: h.neckline}
}

// sweep draws a fin with the phenotype's texture: rays resampled at
// rayStep, or a membrane resampled at webStep.
func (b *builder) sweep(base geom.Polyline, textured bool, rayStep, webStep float64, f rayFin, dark float64) part {
	if textured {
		return b.membrane(geom.Resample(base, webStep), f.from, f.to, f.length, dark)
	}
	return b.rays(geom.Resample(base, rayStep), f)
}

func (b *builder) dorsal(base geom.Polyline, length float64) part {
	f := rayFin{softness: 10}
	if b.p.Int(genetics.DorsalType) == 0 {
		f.from = 0.2 + b.deviate(0.05)
		f.to = 0.3 + b.deviate(0.05)
		f.length = func(t float64) float64 {
			return (0.3 + b.wave(t)*0.7) * length * math.Sqrt(math.Sin(t*math.Pi))
		}
	} else {
		f.from = 0.6 + b.deviate(0.05)
		f.to = 0.3 + b.deviate(0.05)
		f.bend0 = length / 8
		f.length = func(t float64) float64 {
			return length * ((t-1)*(t-1)*0.5 + (1-t)*0.5)
		}
	}
	return b.sweep(base, b.p.Bool(genetics.DorsalTextureType), 5, 15, f, 1)
}

// wing draws the pectoral fin from a short vertical base inside the body.
func (b *builder) wing(top, bottom geom.Polyline) part {
	at := top[b.p.Int(genetics.WingStart)].Lerp(bottom[b.p.Int(genetics.WingEnd)], b.p[genetics.WingY])
	width := b.p[genetics.WingWidth]
	base := make(geom.Polyline, 10)
	for i := range base {
		t := float64(i) / 9
		base[i] = geom.Pt(at.X, geom.Lerp(at.Y-width/2, at.Y+width/2, t))
	}

	length := b.p[genetics.WingLength]
	f := rayFin{trimRoot: true}
	if b.p.Int(genetics.WingType) == 0 {
		f.from = -0.4 + b.deviate(0.05)
		f.to = 0.4 + b.deviate(0.05)
		f.softness = 10
		f.length = func(t float64) float64 {
			return (40 + (20+b.wave(t)*70)*math.Sqrt(math.Sin(t*math.Pi))) / 130 * length
		}
	} else {
		f.from = b.deviate(0.05)
		f.to = 0.4 + b.deviate(0.05)
		f.softness = 5
		f.bend0 = length / 25
		f.length = func(t float64) float64 { return length * (1 - t*0.95) }
	}
	return b.sweep(base, b.p.Bool(genetics.WingTextureType), 1.5, 4, f, 0.3)
}

func (b *builder) pelvic(base geom.Polyline) part {
	length := b.p[genetics.PelvicLength]
	f := rayFin{softness: 10}
	rayStep, webStep := 5.0, 15.0
	if b.p.Int(genetics.PelvicType) == 0 {
		f.from = -0.8 + b.deviate(0.05)
		f.to = -0.5 + b.deviate(0.05)
		f.length = func(t float64) float64 {
			return (10 + (15+b.wave(t)*60)*math.Sqrt(math.Sin(t*math.Pi))) / 85 * length
		}
	} else {
		f.from = -0.9 + b.deviate(0.05)
		f.to = -0.3 + b.deviate(0.05)
		f.length = func(t float64) float64 { return (t*0.5 + 0.5) * length }
		rayStep, webStep = 2, 2
	}
	return b.sweep(base, b.p.Bool(genetics.PelvicTextureType), rayStep, webStep, f, 1)
}

func (b *builder) anal(base geom.Polyline) part {
	length := b.p[genetics.AnalLength]
	f := rayFin{softness: 10}
	f.from = -0.4 + b.deviate(0.05)
	f.to = -0.4 + b.deviate(0.05)
	if b.p.Int(genetics.AnalType) == 0 {
		f.length = func(t float64) float64 {
			return (10 + (10+b.wave(t)*30)*math.Sqrt(math.Sin(t*math.Pi))) / 50 * length
		}
	} else {
		f.length = func(t float64) float64 { return length * (t*t*0.8 + 0.2) }
	}
	return b.sweep(base, b.p.Bool(genetics.AnalTextureType), 5, 15, f, 1)
}

// tail draws the caudal fin across the end of the body. Ray spacing
// follows the height of the tail root.
func (b *builder) tail(top, bottom geom.Polyline) part {
	n := len(top)
	root := top[n-2].Distance(bottom[n-2])
	step := root / float64(max(8, min(20, int(root/1.5))))
	length := b.p[genetics.TailLength]

	end := geom.Polyline{top[n-1], bottom[n-1]}
	inset := geom.Polyline{top[n-2], bottom[n-2]}
	f := rayFin{from: -0.6, to: 0.6, trimRoot: true, softness: 10}
	base := inset
	switch b.p.Int(genetics.TailType) {
	case 0:
		base = end
		f.length = func(t float64) float64 {
			return (75 - (10+b.wave(t)*10)*math.Sin(3*t*math.Pi-math.Pi)) / 75 * length
		}
	case 1:
		f.length = func(t float64) float64 { return length * (math.Sin(t*math.Pi)*0.5 + 0.5) }
	case 2:
		base = end
		step *= 0.7
		f.bend0, f.bend1 = length/8, -length/8
		f.length = func(t float64) float64 { return (math.Abs(math.Cos(math.Pi*t))*0.8 + 0.2) * length }
	case 3:
		f.length = func(t float64) float64 { return (1 - math.Sin(t*math.Pi)*0.3) * length }
	case 4:
		f.length = func(t float64) float64 { return (1 - math.Sin(t*math.Pi)*0.6) * (1 - t*0.45) * length }
	default:
		f.length = func(t float64) float64 { return (1 - math.Pow(math.Sin(t*math.Pi), 0.4)*0.55) * length }
	}
	return b.rays(geom.Resample(base, step), f)
}
