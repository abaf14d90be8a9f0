package render

import (
	"fmt"

	"github.com/trouthatch/trout/genetics"
	"github.com/trouthatch/trout/geom"
	"github.com/trouthatch/trout/noise"
)

// Options control a drawing.
type Options struct {
	// Seed drives every random choice of the drawing. Equal phenotypes drawn
	// with equal seeds produce identical drawings.
	Seed uint32

	// Seasonal dresses the drawing for winter: a hat, falling snow and a
	// cold background.
	Seasonal bool

	// Caption is written under the fish when not empty.
	Caption string
}

// Drawing is a rendered organism in canvas units, ready to be written as
// SVG or rasterized.
type Drawing struct {
	// Lines are the pen strokes, in drawing order.
	Lines []geom.Polyline

	// Silhouettes are the filled shapes behind the strokes.
	Silhouettes []geom.Polyline

	// Rainbow strokes the lines with a vertical gradient.
	Rainbow bool

	Seasonal   bool
	Hat        Placement
	Snowflakes []Placement

	// Caption holds the glyph contours of the caption text.
	Caption []geom.Polyline
}

// Size returns the canvas size.
func (d *Drawing) Size() (w, h float64) {
	return canvasWidth, canvasHeight
}

// Draw renders a phenotype. The phenotype must lie in the default trait
// catalog's domains.
func Draw(p *genetics.Haploid, opts Options) (*Drawing, error) {
	if err := genetics.Default().Validate(p); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	b := &builder{rng: noise.New(opts.Seed), p: *p}
	f := b.fish()

	m := frame(geom.BoundsOf(f.lines...), opts.Caption != "")
	lines := make([]geom.Polyline, len(f.lines))
	for i, pl := range f.lines {
		lines[i] = pl.Transform(m)
	}
	lines = cleanup(lines)
	silhouettes := make([]geom.Polyline, len(f.silhouette))
	for i, pl := range f.silhouette {
		silhouettes[i] = pl.Transform(m)
	}

	d := &Drawing{
		Lines:       lines,
		Silhouettes: silhouettes,
		Rainbow:     p.Int(genetics.Color) == genetics.ColorRainbow,
		Seasonal:    opts.Seasonal,
	}
	if opts.Seasonal {
		if _, err := hatAsset(); err != nil {
			return nil, err
		}
		if _, err := snowflakeAsset(); err != nil {
			return nil, err
		}
		d.Hat = placeHat(b.rng, m.TransformPoint(f.neckline), p[genetics.HeadLength])
		d.Snowflakes = scatterSnow(b.rng)
	}
	if opts.Caption != "" {
		c, err := caption(opts.Caption, canvasWidth/2, canvasHeight-border-framePad+5)
		if err != nil {
			return nil, err
		}
		d.Caption = c
	}
	return d, nil
}
