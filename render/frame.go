package render

import (
	"math"

	"github.com/trouthatch/trout/geom"
)

const (
	// Canvas size and the inset of the framed drawing area.
	canvasWidth  = 520
	canvasHeight = 320
	border       = 10
	frameWidth   = canvasWidth - 2*border
	frameHeight  = canvasHeight - 2*border

	framePad      = 20
	captionHeight = 10
)

// frame returns the transform that fits box into the drawing area,
// centred, keeping its aspect ratio. With a caption the area loses a strip
// at the bottom.
func frame(box geom.Rect, captioned bool) geom.Matrix {
	w := float64(frameWidth - 2*framePad)
	h := float64(frameHeight - 2*framePad)
	if captioned {
		h -= captionHeight
	}
	bw, bh := box.Width(), box.Height()
	if bw <= 0 || bh <= 0 {
		return geom.Translate(border+framePad, border+framePad)
	}
	s := math.Min(w/bw, h/bh)
	px := (w - bw*s) / 2
	py := (h - bh*s) / 2
	return geom.Translate(border+framePad+px, border+framePad+py).
		Multiply(geom.Scale(s, s)).
		Multiply(geom.Translate(-box.Min.X, -box.Min.Y))
}

func truncate(v float64, places float64) float64 {
	p := math.Pow(10, places)
	return math.Trunc(v*p) / p
}

// cleanup simplifies the drawn lines and drops the specks: polylines with
// fewer than two points and single segments shorter than 0.9.
func cleanup(lines []geom.Polyline) []geom.Polyline {
	out := lines[:0]
	for _, pl := range lines {
		pl = geom.Simplify(pl, 0.1).Clone()
		for i, p := range pl {
			pl[i] = geom.Pt(truncate(p.X, 4), truncate(p.Y, 4))
		}
		if len(pl) < 2 || (len(pl) == 2 && pl[0].Distance(pl[1]) < 0.9) {
			continue
		}
		out = append(out, pl)
	}
	return out
}
