package render

import (
	"fmt"
	"image"
	"io"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"

	"github.com/trouthatch/trout/geom"
)

// parseColor resolves an SVG color: a CSS name, #rgb or #rrggbb. It
// reports false for "none" and for anything it cannot read.
func parseColor(s string) (gg.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return gg.RGBA{}, false
	}
	if c, ok := colornames.Map[s]; ok {
		return gg.FromColor(c), true
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 3 && len(hex) != 6) || strings.Trim(hex, "0123456789abcdef") != "" {
		return gg.RGBA{}, false
	}
	return gg.Hex(hex), true
}

// canvas draws polylines onto a gg context, mapping canvas units to
// pixels itself so that stroke widths stay in pixels.
type canvas struct {
	dc *gg.Context
	m  geom.Matrix // canvas units to pixels
}

func newCanvas(scale float64) *canvas {
	w := int(math.Ceil(canvasWidth * scale))
	h := int(math.Ceil(canvasHeight * scale))
	dc := gg.NewContext(w, h)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	return &canvas{dc: dc, m: geom.Scale(scale, scale)}
}

func (c *canvas) path(pl geom.Polyline, m geom.Matrix, closed bool) {
	for i, p := range pl {
		p = m.TransformPoint(p)
		if i == 0 {
			c.dc.MoveTo(p.X, p.Y)
		} else {
			c.dc.LineTo(p.X, p.Y)
		}
	}
	if closed {
		c.dc.ClosePath()
	}
}

func (c *canvas) fill(pls []geom.Polyline, m geom.Matrix, b gg.Brush, rule gg.FillRule) error {
	for _, pl := range pls {
		if len(pl) >= 3 {
			c.path(pl, m, true)
		}
	}
	c.dc.SetFillRule(rule)
	c.dc.SetFillBrush(b)
	return c.dc.Fill()
}

func (c *canvas) stroke(pls []geom.Polyline, m geom.Matrix, width float64, b gg.Brush) error {
	for _, pl := range pls {
		if len(pl) >= 2 {
			c.path(pl, m, false)
		}
	}
	c.dc.SetLineWidth(width)
	c.dc.SetStrokeBrush(b)
	return c.dc.Stroke()
}

// rainbowBrush is the vertical rainbow across box, in pixels.
func rainbowBrush(box geom.Rect) gg.Brush {
	g := gg.NewLinearGradientBrush(0, box.Min.Y, 0, box.Max.Y)
	for _, s := range rainbow {
		col, _ := parseColor(s.color)
		g.AddColorStop(float64(s.percent)/100, col)
	}
	return g
}

// drawAsset paints each asset path: fill first, then its outline.
func (c *canvas) drawAsset(a *asset, p Placement) error {
	base := c.m.Multiply(p.matrix(a))
	for _, ap := range a.paths {
		m := base.Multiply(ap.m)
		if col, ok := parseColor(ap.paint.fill); ok {
			rule := gg.FillRuleNonZero
			if ap.paint.evenOdd {
				rule = gg.FillRuleEvenOdd
			}
			if err := c.fill(ap.contours, m, gg.Solid(col), rule); err != nil {
				return err
			}
		}
		if col, ok := parseColor(ap.paint.stroke); ok {
			closed := make([]geom.Polyline, len(ap.contours))
			for i, pl := range ap.contours {
				if len(pl) > 0 {
					pl = append(pl[:len(pl):len(pl)], pl[0])
				}
				closed[i] = pl
			}
			if err := c.stroke(closed, m, ap.paint.strokeWidth*m.ScaleFactor(), gg.Solid(col)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Rasterize paints the drawing at scale pixels per canvas unit.
func (d *Drawing) Rasterize(scale float64) (image.Image, error) {
	c, err := d.paint(scale)
	if err != nil {
		return nil, err
	}
	defer c.dc.Close()
	return c.dc.Image(), nil
}

func (d *Drawing) paint(scale float64) (*canvas, error) {
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil, fmt.Errorf("render: invalid scale %v", scale)
	}
	c := newCanvas(scale)
	if err := d.paintOn(c, scale); err != nil {
		c.dc.Close()
		return nil, err
	}
	return c, nil
}

func (d *Drawing) paintOn(c *canvas, scale float64) error {
	bgName, fillName, _ := d.colors()
	bg, _ := parseColor(bgName)
	fill, _ := parseColor(fillName)
	ink, _ := parseColor(inkColor)

	c.dc.SetColor(bg.Color())
	c.dc.DrawRectangle(0, 0, float64(c.dc.Width()), float64(c.dc.Height()))
	if err := c.dc.Fill(); err != nil {
		return err
	}
	frame := geom.Polyline{
		geom.Pt(border, border), geom.Pt(border+frameWidth, border),
		geom.Pt(border+frameWidth, border+frameHeight), geom.Pt(border, border+frameHeight),
		geom.Pt(border, border),
	}
	if err := c.stroke([]geom.Polyline{frame}, c.m, scale, gg.Solid(ink)); err != nil {
		return err
	}

	if d.Seasonal {
		flake, err := snowflakeAsset()
		if err != nil {
			return err
		}
		for _, p := range d.Snowflakes {
			if err := c.drawAsset(flake, p); err != nil {
				return err
			}
		}
	}

	if err := c.fill(d.Silhouettes, c.m, gg.Solid(fill), gg.FillRuleNonZero); err != nil {
		return err
	}
	var lines gg.Brush = gg.Solid(ink)
	if d.Rainbow {
		box := geom.BoundsOf(d.Lines...)
		lines = rainbowBrush(geom.Rect{Min: c.m.TransformPoint(box.Min), Max: c.m.TransformPoint(box.Max)})
	}
	if err := c.stroke(d.Lines, c.m, scale, lines); err != nil {
		return err
	}

	if d.Seasonal {
		hat, err := hatAsset()
		if err != nil {
			return err
		}
		if err := c.drawAsset(hat, d.Hat); err != nil {
			return err
		}
	}
	if len(d.Caption) > 0 {
		return c.fill(d.Caption, c.m, gg.Solid(ink), gg.FillRuleNonZero)
	}
	return nil
}

// WritePNG rasterizes the drawing at scale and encodes it as PNG.
func (d *Drawing) WritePNG(w io.Writer, scale float64) error {
	c, err := d.paint(scale)
	if err != nil {
		return err
	}
	defer c.dc.Close()
	return c.dc.EncodePNG(w)
}
