package render

import (
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/trouthatch/trout/geom"
	"github.com/trouthatch/trout/noise"
)

//go:embed assets/*.svg
var assetFS embed.FS

// Hat artwork size; the hat is scaled from its viewBox.
const (
	hatWidth  = 410.435
	hatHeight = 285.174
)

// asset is a parsed SVG drawing: its viewBox and its paths in order.
type asset struct {
	width, height float64
	paths         []assetPath
}

type assetPath struct {
	d         string
	style     string // serialized presentation attributes
	transform string
	m         geom.Matrix
	contours  []geom.Polyline
	paint     paint
}

// paint is the resolved presentation of an asset path.
type paint struct {
	fill, stroke string
	strokeWidth  float64
	evenOdd      bool
}

type svgDoc struct {
	ViewBox string    `xml:"viewBox,attr"`
	Paths   []svgPath `xml:"path"`
}

type svgPath struct {
	D         string `xml:"d,attr"`
	Style     string `xml:"style,attr"`
	Fill      string `xml:"fill,attr"`
	Stroke    string `xml:"stroke,attr"`
	Width     string `xml:"stroke-width,attr"`
	FillRule  string `xml:"fill-rule,attr"`
	Transform string `xml:"transform,attr"`
}

// parseAsset reads a flat SVG document of paths.
func parseAsset(data []byte) (*asset, error) {
	var doc svgDoc
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("render: parse asset: %w", err)
	}
	var vb [4]float64
	fields := strings.Fields(strings.ReplaceAll(doc.ViewBox, ",", " "))
	if len(fields) != 4 {
		return nil, fmt.Errorf("render: asset viewBox %q", doc.ViewBox)
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("render: asset viewBox: %w", err)
		}
		vb[i] = v
	}
	a := &asset{width: vb[2], height: vb[3]}
	for _, p := range doc.Paths {
		contours, err := ParsePath(p.D, 0.25)
		if err != nil {
			return nil, err
		}
		m, err := parseTransform(p.Transform)
		if err != nil {
			return nil, err
		}
		pt := paint{fill: "black", strokeWidth: 1}
		if p.Fill != "" {
			pt.fill = p.Fill
		}
		pt.stroke = p.Stroke
		pt.evenOdd = p.FillRule == "evenodd"
		if p.Width != "" {
			pt.strokeWidth = parseLength(p.Width)
		}
		applyStyle(&pt, p.Style)

		style := p.Style
		if style == "" {
			style = fmt.Sprintf("fill:%s;stroke:%s", pt.fill, orNone(pt.stroke))
		}
		a.paths = append(a.paths, assetPath{
			d:         p.D,
			style:     style,
			transform: p.Transform,
			m:         m,
			contours:  contours,
			paint:     pt,
		})
	}
	return a, nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// applyStyle overrides presentation attributes from a CSS style string.
func applyStyle(pt *paint, style string) {
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch strings.TrimSpace(k) {
		case "fill":
			pt.fill = v
		case "stroke":
			pt.stroke = v
		case "stroke-width":
			pt.strokeWidth = parseLength(v)
		case "fill-rule":
			pt.evenOdd = v == "evenodd"
		}
	}
}

func parseLength(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "px"), 64)
	if err != nil {
		return 1
	}
	return v
}

// parseTransform reads an SVG transform list of translate, scale and
// rotate functions.
func parseTransform(s string) (geom.Matrix, error) {
	m := geom.Identity()
	s = strings.TrimSpace(s)
	for s != "" {
		name, rest, ok := strings.Cut(s, "(")
		if !ok {
			return m, fmt.Errorf("render: transform %q", s)
		}
		body, tail, ok := strings.Cut(rest, ")")
		if !ok {
			return m, fmt.Errorf("render: transform %q", s)
		}
		var args []float64
		for _, f := range strings.Fields(strings.ReplaceAll(body, ",", " ")) {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return m, fmt.Errorf("render: transform: %w", err)
			}
			args = append(args, v)
		}
		arg := func(i int, def float64) float64 {
			if i < len(args) {
				return args[i]
			}
			return def
		}
		var t geom.Matrix
		switch strings.TrimSpace(name) {
		case "translate":
			t = geom.Translate(arg(0, 0), arg(1, 0))
		case "scale":
			t = geom.Scale(arg(0, 1), arg(1, arg(0, 1)))
		case "rotate":
			t = geom.RotateAbout(arg(0, 0)*math.Pi/180, arg(1, 0), arg(2, 0))
		default:
			return m, fmt.Errorf("render: unsupported transform %q", name)
		}
		m = m.Multiply(t)
		s = strings.TrimLeft(tail, " ,")
	}
	return m, nil
}

func lazyAsset(name string) func() (*asset, error) {
	return sync.OnceValues(func() (*asset, error) {
		data, err := assetFS.ReadFile("assets/" + name)
		if err != nil {
			return nil, err
		}
		return parseAsset(data)
	})
}

var (
	hatAsset       = lazyAsset("hat.svg")
	snowflakeAsset = lazyAsset("snowflake.svg")
)

// Placement positions an asset on the canvas.
type Placement struct {
	X, Y, Width, Height float64
	Rotate              float64 // degrees about the asset centre
	Flip                bool    // mirrored horizontally
}

// matrix maps asset viewBox units to canvas units, scaling uniformly and
// centring the viewBox in the placement box.
func (p Placement) matrix(a *asset) geom.Matrix {
	s := math.Min(p.Width/a.width, p.Height/a.height)
	dx := (p.Width - a.width*s) / 2
	dy := (p.Height - a.height*s) / 2
	m := geom.Translate(p.X+dx, p.Y+dy).Multiply(geom.Scale(s, s))
	if p.Flip {
		m = m.Multiply(geom.Scale(-1, 1)).Multiply(geom.Translate(-a.width, 0))
	}
	if p.Rotate != 0 {
		m = m.Multiply(geom.RotateAbout(p.Rotate*math.Pi/180, a.width/2, a.height/2))
	}
	return m
}

// placeHat sets the hat on the neckline, sized by the head length. One in
// five hats is worn the other way round.
func placeHat(rng *noise.Rand, neck geom.Point, headLength float64) Placement {
	w := headLength * 4
	h := hatHeight / hatWidth * w
	flip := rng.Float64() > 0.8
	p := Placement{Width: w, Height: h, Flip: flip}
	p.X = neck.X
	p.Y = neck.Y - h + 25
	if flip {
		p.Y += 10
	} else {
		p.X -= w / 2
	}
	return p
}

// scatterSnow drops snowflakes of random size and rotation inside the
// border.
func scatterSnow(rng *noise.Rand) []Placement {
	n := 20 + int(math.Ceil(rng.Float64()*100))
	flakes := make([]Placement, n)
	for i := range flakes {
		s := 40*rng.Float64() + 3
		r := math.Round(360 * rng.Float64())
		flakes[i] = Placement{
			X:      border + rng.Float64()*(frameWidth-s),
			Y:      border + rng.Float64()*(frameHeight-s),
			Width:  s,
			Height: s,
			Rotate: r,
		}
	}
	return flakes
}
