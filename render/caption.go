package render

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/trouthatch/trout/geom"
)

// captionSize is the caption font size in canvas units.
const captionSize = 10

// typeface holds the caption font parsed twice: go-text shapes the text
// and sfnt supplies the glyph outlines. Both are read-only once parsed.
type typeface struct {
	shape   *font.Font
	outline *sfnt.Font
}

var loadTypeface = sync.OnceValues(func() (*typeface, error) {
	face, err := font.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("render: parse caption font: %w", err)
	}
	sf, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse caption outlines: %w", err)
	}
	return &typeface{shape: face.Font, outline: sf}, nil
})

// caption shapes text and returns its glyph contours, centred on x with
// the baseline at y. Contours are closed and filled with the nonzero rule.
func caption(text string, x, y float64) ([]geom.Polyline, error) {
	if text == "" {
		return nil, nil
	}
	tf, err := loadTypeface()
	if err != nil {
		return nil, err
	}
	runes := []rune(text)
	out := (&shaping.HarfbuzzShaper{}).Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(tf.shape),
		Size:      fixed.Int26_6(captionSize * 64),
		Script:    language.LookupScript(runes[0]),
		Language:  language.NewLanguage("en"),
	})

	var width fixed.Int26_6
	for _, g := range out.Glyphs {
		width += g.Advance
	}
	pen := x - float64(width)/128

	var buf sfnt.Buffer
	var contours []geom.Polyline
	for _, g := range out.Glyphs {
		ox := pen + float64(g.XOffset)/64
		oy := y - float64(g.YOffset)/64
		segs, err := tf.outline.LoadGlyph(&buf, sfnt.GlyphIndex(g.GlyphID), fixed.Int26_6(captionSize*64), nil)
		if err != nil {
			return nil, fmt.Errorf("render: glyph %d: %w", g.GlyphID, err)
		}
		contours = append(contours, glyphContours(segs, ox, oy)...)
		pen += float64(g.Advance) / 64
	}
	return contours, nil
}

// glyphContours flattens sfnt segments, whose y axis already points down,
// into closed polylines offset by (ox, oy).
func glyphContours(segs sfnt.Segments, ox, oy float64) []geom.Polyline {
	pt := func(p fixed.Point26_6) geom.Point {
		return geom.Pt(ox+float64(p.X)/64, oy+float64(p.Y)/64)
	}
	var out []geom.Polyline
	var cur geom.Polyline
	closeContour := func() {
		if len(cur) > 2 {
			if cur[0] != cur[len(cur)-1] {
				cur = append(cur, cur[0])
			}
			out = append(out, cur)
		}
		cur = nil
	}
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			closeContour()
			cur = geom.Polyline{pt(s.Args[0])}
		case sfnt.SegmentOpLineTo:
			cur = append(cur, pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			q := geom.QuadBez{P0: cur[len(cur)-1], P1: pt(s.Args[0]), P2: pt(s.Args[1])}
			cur = q.Flatten(cur, 0.05)
		case sfnt.SegmentOpCubeTo:
			c := geom.CubicBez{P0: cur[len(cur)-1], P1: pt(s.Args[0]), P2: pt(s.Args[1]), P3: pt(s.Args[2])}
			cur = c.Flatten(cur, 0.05)
		}
	}
	closeContour()
	return out
}
