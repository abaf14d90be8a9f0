package render

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/trouthatch/trout/geom"
)

// Palette.
const (
	paperColor    = "floralwhite"
	winterColor   = "powderblue"
	fishColor     = "white"
	winterFish    = "#fff6e5"
	rainbowFish   = "snow"
	inkColor      = "black"
	gradientID    = "trout-gradient"
	strokeOptions = `stroke-width="1" stroke-linecap="round" stroke-linejoin="round"`
)

// gradientStop is one stop of the rainbow gradient, top to bottom.
type gradientStop struct {
	percent int
	color   string
}

var rainbow = []gradientStop{
	{0, "#4F0E23"},
	{15, "#63343E"},
	{30, "#3F7067"},
	{50, "#E38A26"},
	{70, "#A1161D"},
	{85, "#581414"},
}

// colors returns the background, fish fill and stroke paint.
func (d *Drawing) colors() (background, fill, stroke string) {
	background, fill, stroke = paperColor, fishColor, inkColor
	if d.Seasonal {
		background, fill = winterColor, winterFish
	}
	if d.Rainbow {
		fill, stroke = rainbowFish, "url(#"+gradientID+")"
	}
	return background, fill, stroke
}

// num formats a coordinate truncated to two decimals.
func num(v float64) string {
	return strconv.FormatFloat(truncate(v, 2), 'f', -1, 64)
}

// pathData writes polylines as SVG path data. Closed polylines end with Z.
func pathData(w *bufio.Writer, pls []geom.Polyline, closePath bool) {
	for _, pl := range pls {
		for i, p := range pl {
			if i == 0 {
				w.WriteByte('M')
			} else {
				w.WriteByte('L')
			}
			w.WriteString(num(p.X))
			w.WriteByte(' ')
			w.WriteString(num(p.Y))
		}
		if closePath {
			w.WriteByte('Z')
		}
	}
}

// WriteSVG writes the drawing as a standalone SVG document.
func (d *Drawing) WriteSVG(out io.Writer) error {
	w := bufio.NewWriter(out)
	background, fill, stroke := d.colors()

	fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		canvasWidth, canvasHeight, canvasWidth, canvasHeight)
	w.WriteByte('\n')
	if d.Rainbow {
		fmt.Fprintf(w, `<defs><linearGradient id="%s" x1="0" y1="0" x2="0" y2="1">`, gradientID)
		for _, s := range rainbow {
			fmt.Fprintf(w, `<stop offset="%d%%" stop-color="%s"/>`, s.percent, s.color)
		}
		w.WriteString("</linearGradient></defs>\n")
	}
	fmt.Fprintf(w, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`+"\n",
		canvasWidth, canvasHeight, background)
	fmt.Fprintf(w, `<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="%s"/>`+"\n",
		border, border, frameWidth, frameHeight, inkColor)

	if d.Seasonal {
		flake, err := snowflakeAsset()
		if err != nil {
			return err
		}
		for _, p := range d.Snowflakes {
			writeAsset(w, flake, p)
		}
	}

	for _, s := range d.Silhouettes {
		w.WriteString(`<path d="`)
		pathData(w, []geom.Polyline{s}, true)
		fmt.Fprintf(w, `" fill="%s" stroke="none"/>`+"\n", fill)
	}
	w.WriteString(`<path d="`)
	pathData(w, d.Lines, false)
	fmt.Fprintf(w, `" fill="none" stroke="%s" %s/>`+"\n", stroke, strokeOptions)

	if d.Seasonal {
		hat, err := hatAsset()
		if err != nil {
			return err
		}
		writeAsset(w, hat, d.Hat)
	}
	if len(d.Caption) > 0 {
		w.WriteString(`<path d="`)
		pathData(w, d.Caption, true)
		fmt.Fprintf(w, `" fill="%s"/>`+"\n", inkColor)
	}
	w.WriteString("</svg>\n")
	return w.Flush()
}

// writeAsset nests an asset document at its placement. The viewBox scales
// it; flips and rotations become group transforms.
func writeAsset(w *bufio.Writer, a *asset, p Placement) {
	fmt.Fprintf(w, `<svg x="%s" y="%s" width="%s" height="%s" viewBox="0 0 %g %g">`,
		num(p.X), num(p.Y), num(p.Width), num(p.Height), a.width, a.height)
	var group string
	switch {
	case p.Flip:
		group = fmt.Sprintf("scale(-1, 1) translate(%g, 0)", -a.width)
	case p.Rotate != 0:
		group = fmt.Sprintf("rotate(%g %g %g)", p.Rotate, a.width/2, a.height/2)
	}
	if group != "" {
		fmt.Fprintf(w, `<g transform="%s">`, group)
	}
	for _, ap := range a.paths {
		fmt.Fprintf(w, `<path d="%s" style="%s"`, ap.d, ap.style)
		if ap.transform != "" {
			fmt.Fprintf(w, ` transform="%s"`, ap.transform)
		}
		w.WriteString("/>")
	}
	if group != "" {
		w.WriteString("</g>")
	}
	w.WriteString("</svg>\n")
}

// SVG returns the drawing as an SVG document.
func (d *Drawing) SVG() []byte {
	var buf bytes.Buffer
	// Writing to a bytes.Buffer only fails when assets fail to load, which
	// Draw has already ruled out.
	_ = d.WriteSVG(&buf)
	return buf.Bytes()
}
