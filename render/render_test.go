package render

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/trouthatch/trout/genetics"
	"github.com/trouthatch/trout/geom"
)

func spawn(t *testing.T, seed uint32) genetics.Haploid {
	t.Helper()
	org, err := genetics.Spawn(seed)
	if err != nil {
		t.Fatal(err)
	}
	return org.Phenotype
}

func TestDrawDeterministic(t *testing.T) {
	p := spawn(t, 11)
	a, err := Draw(&p, Options{Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Draw(&p, Options{Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.SVG(), b.SVG()) {
		t.Error("same phenotype and seed drew different pictures")
	}
	c, err := Draw(&p, Options{Seed: 6})
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a.SVG(), c.SVG()) {
		t.Error("different seeds drew the same picture")
	}
}

func TestDrawRejectsInvalidPhenotype(t *testing.T) {
	p := spawn(t, 1)
	p[genetics.BodyLength] = 1e6
	_, err := Draw(&p, Options{})
	if !errors.Is(err, genetics.ErrTraitDomain) {
		t.Fatalf("err = %v, want ErrTraitDomain", err)
	}
}

// Every phenotype family must draw without panicking and fit the frame.
func TestDrawFitsFrame(t *testing.T) {
	for seed := uint32(1); seed <= 24; seed++ {
		p := spawn(t, seed)
		d, err := Draw(&p, Options{Seed: seed})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if len(d.Lines) == 0 {
			t.Fatalf("seed %d: no lines", seed)
		}
		box := geom.BoundsOf(d.Lines...)
		const eps = 1e-6
		lo, hi := float64(border+framePad), geom.Pt(canvasWidth-border-framePad, canvasHeight-border-framePad)
		if box.Min.X < lo-eps || box.Min.Y < lo-eps || box.Max.X > hi.X+eps || box.Max.Y > hi.Y+eps {
			t.Errorf("seed %d: lines %v outside frame", seed, box)
		}
		for _, pl := range d.Lines {
			if len(pl) < 2 {
				t.Fatalf("seed %d: polyline of %d points", seed, len(pl))
			}
		}
	}
}

func TestSVG(t *testing.T) {
	p := spawn(t, 3)
	tests := []struct {
		name    string
		mutate  func(*genetics.Haploid)
		opts    Options
		want    []string
		notWant []string
	}{
		{
			name:    "plain",
			want:    []string{`width="520"`, paperColor, `stroke="black"`, `stroke-linecap="round"`},
			notWant: []string{gradientID, winterColor},
		},
		{
			name:   "rainbow",
			mutate: func(h *genetics.Haploid) { h[genetics.Color] = genetics.ColorRainbow },
			want:   []string{`<linearGradient id="trout-gradient" x1="0" y1="0" x2="0" y2="1">`, `offset="85%" stop-color="#581414"`, `stroke="url(#trout-gradient)"`, `fill="snow"`},
		},
		{
			name: "seasonal",
			opts: Options{Seasonal: true},
			want: []string{winterColor, winterFish, `viewBox="0 0 410.435 285.174"`, `viewBox="0 0 397 411"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := p
			if tt.mutate != nil {
				tt.mutate(&h)
			}
			d, err := Draw(&h, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			svg := string(d.SVG())
			if !strings.HasPrefix(svg, "<svg ") || !strings.HasSuffix(svg, "</svg>\n") {
				t.Errorf("not an svg document: %.60q", svg)
			}
			for _, s := range tt.want {
				if !strings.Contains(svg, s) {
					t.Errorf("missing %q", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(svg, s) {
					t.Errorf("unexpected %q", s)
				}
			}
		})
	}
}

func TestSeasonalOverlay(t *testing.T) {
	p := spawn(t, 8)
	d, err := Draw(&p, Options{Seed: 2, Seasonal: true})
	if err != nil {
		t.Fatal(err)
	}
	if n := len(d.Snowflakes); n < 21 || n > 120 {
		t.Errorf("%d snowflakes", n)
	}
	for _, f := range d.Snowflakes {
		if f.Width < 3 || f.Width > 43 || f.X < border || f.Y < border ||
			f.X+f.Width > border+frameWidth || f.Y+f.Height > border+frameHeight {
			t.Errorf("snowflake %+v", f)
		}
	}
	if want := p[genetics.HeadLength] * 4; math.Abs(d.Hat.Width-want) > 1e-9 {
		t.Errorf("hat width = %v, want %v", d.Hat.Width, want)
	}
	if got := strings.Count(string(d.SVG()), `viewBox="0 0 397 411"`); got != len(d.Snowflakes) {
		t.Errorf("%d snowflakes written, want %d", got, len(d.Snowflakes))
	}

	plain, err := Draw(&p, Options{Seed: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(plain.Snowflakes) != 0 {
		t.Error("snow outside the season")
	}
}

func TestCaption(t *testing.T) {
	p := spawn(t, 4)
	d, err := Draw(&p, Options{Seed: 1, Caption: "Hardhat TROUT #4"})
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Caption) == 0 {
		t.Fatal("no caption contours")
	}
	box := geom.BoundsOf(d.Caption...)
	if mid := (box.Min.X + box.Max.X) / 2; math.Abs(mid-canvasWidth/2) > 5 {
		t.Errorf("caption centred at %v", mid)
	}
	lines := geom.BoundsOf(d.Lines...)
	if lines.Max.Y > canvasHeight-border-framePad-captionHeight+1e-6 {
		t.Errorf("lines reach %v, into the caption strip", lines.Max.Y)
	}
}

func TestDrawCleansFramedLines(t *testing.T) {
	p := spawn(t, 5)
	d, err := Draw(&p, Options{Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	for _, pl := range d.Lines {
		if len(pl) < 2 || (len(pl) == 2 && pl[0].Distance(pl[1]) < 0.9) {
			t.Fatalf("speck survived cleanup: %v", pl)
		}
		for _, q := range pl {
			for _, v := range []float64{q.X, q.Y} {
				if f := v * 1e4; math.Abs(f-math.Round(f)) > 1e-6 {
					t.Fatalf("point %v is not rounded to 4 places", q)
				}
			}
		}
	}
}

func TestRasterize(t *testing.T) {
	p := spawn(t, 9)
	p[genetics.Color] = genetics.ColorRainbow
	d, err := Draw(&p, Options{Seed: 3, Seasonal: true, Caption: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Rasterize(0); err == nil {
		t.Error("zero scale accepted")
	}
	var buf bytes.Buffer
	if err := d.WritePNG(&buf, 0.5); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 260 || b.Dy() != 160 {
		t.Errorf("bounds = %v", b)
	}
	// The corner below the tail is background.
	want := rgb8(t, winterColor)
	r, g, b, _ := img.At(259, 159).RGBA()
	if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
		t.Errorf("corner = %v, want %v", img.At(259, 159), want)
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name  string
		d     string
		paths int
		last  geom.Point
	}{
		{"absolute", "M0 0L10 0L10 10Z", 1, geom.Pt(0, 0)},
		{"relative", "m5 5h10v10h-10z", 1, geom.Pt(5, 5)},
		{"implicit lines", "M0-1.5.5 1 2 2", 1, geom.Pt(2, 2)},
		{"two subpaths", "M0 0L1 1M5 5l1 1", 2, geom.Pt(6, 6)},
		{"cubic", "M0 0C0 10 10 10 10 0s10-10 20 0", 1, geom.Pt(30, 0)},
		{"quad", "M0 0Q5 10 10 0T20 0", 1, geom.Pt(20, 0)},
		{"arc", "M0 0A5 5 0 0 1 10 0", 1, geom.Pt(10, 0)},
		{"arc flags run together", "M0 0a5 5 0 1110 0", 1, geom.Pt(10, 0)},
		{"exponent", "M1e1 0L2e+1 0", 1, geom.Pt(20, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.d, 0.1)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.paths {
				t.Fatalf("%d subpaths, want %d", len(got), tt.paths)
			}
			pl := got[len(got)-1]
			if end := pl[len(pl)-1]; end.Distance(tt.last) > 1e-9 {
				t.Errorf("ends at %v, want %v", end, tt.last)
			}
		})
	}
}

func TestParsePathArcRadius(t *testing.T) {
	got, err := ParsePath("M0 0A5 5 0 0 1 10 0", 0.01)
	if err != nil {
		t.Fatal(err)
	}
	c := geom.Pt(5, 0)
	for _, p := range got[0] {
		if d := p.Distance(c); math.Abs(d-5) > 0.05 {
			t.Fatalf("point %v is %v from the centre", p, d)
		}
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, d := range []string{"L0 0", "M0 0L1", "M0 0X1 1", "M0 0A1 1 0 2 0 1 1"} {
		if _, err := ParsePath(d, 0.1); !errors.Is(err, ErrPathData) {
			t.Errorf("ParsePath(%q) err = %v", d, err)
		}
	}
}

func TestAssets(t *testing.T) {
	hat, err := hatAsset()
	if err != nil {
		t.Fatal(err)
	}
	if hat.width != hatWidth || hat.height != hatHeight || len(hat.paths) != 10 {
		t.Errorf("hat = %v x %v, %d paths", hat.width, hat.height, len(hat.paths))
	}
	if c := rgb8(t, hat.paths[0].paint.fill); c.R != 0xd0 {
		t.Errorf("hat fill = %q", hat.paths[0].paint.fill)
	}
	if !hat.paths[0].paint.evenOdd {
		t.Error("hat fill rule is not evenodd")
	}
	flake, err := snowflakeAsset()
	if err != nil {
		t.Fatal(err)
	}
	if len(flake.paths) != 1 || flake.paths[0].paint.stroke != "gray" {
		t.Errorf("snowflake = %+v", flake.paths)
	}
}

// rgb8 parses a color known to be valid.
func rgb8(t *testing.T, s string) color.NRGBA {
	t.Helper()
	c, ok := parseColor(s)
	if !ok {
		t.Fatalf("parseColor(%q) failed", s)
	}
	return c.Color().(color.NRGBA)
}

func TestDrawAssetFillRule(t *testing.T) {
	outer := geom.Polyline{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	inner := geom.Polyline{{X: 3, Y: 3}, {X: 7, Y: 3}, {X: 7, Y: 7}, {X: 3, Y: 7}}
	tests := []struct {
		name    string
		evenOdd bool
		hole    bool
	}{
		{"nonzero", false, false},
		{"evenodd", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &asset{width: 10, height: 10, paths: []assetPath{{
				m:        geom.Identity(),
				contours: []geom.Polyline{outer, inner},
				paint:    paint{fill: "black", evenOdd: tt.evenOdd},
			}}}
			c := newCanvas(1)
			defer c.dc.Close()
			if err := c.drawAsset(a, Placement{Width: 10, Height: 10}); err != nil {
				t.Fatal(err)
			}
			img := c.dc.Image()
			if _, _, _, ring := img.At(1, 1).RGBA(); ring == 0 {
				t.Error("ring is not filled")
			}
			_, _, _, alpha := img.At(5, 5).RGBA()
			if hole := alpha == 0; hole != tt.hole {
				t.Errorf("center alpha = %d, want hole %v", alpha, tt.hole)
			}
		})
	}
}

func TestPlacementFlip(t *testing.T) {
	a := &asset{width: 10, height: 5}
	m := Placement{X: 100, Y: 50, Width: 20, Height: 10, Flip: true}.matrix(a)
	if got := m.TransformPoint(geom.Pt(0, 0)); got.Distance(geom.Pt(120, 50)) > 1e-9 {
		t.Errorf("flipped origin = %v", got)
	}
	if got := m.TransformPoint(geom.Pt(10, 5)); got.Distance(geom.Pt(100, 60)) > 1e-9 {
		t.Errorf("flipped corner = %v", got)
	}
}

func TestParseTransform(t *testing.T) {
	m, err := parseTransform("translate(-8.903 -24.385)")
	if err != nil {
		t.Fatal(err)
	}
	if got := m.TransformPoint(geom.Pt(10, 30)); got.Distance(geom.Pt(1.097, 5.615)) > 1e-9 {
		t.Errorf("translate = %v", got)
	}
	if _, err := parseTransform("skewX(10)"); err == nil {
		t.Error("skewX accepted")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		r, b uint8
	}{
		{"#d00000", true, 0xd0, 0},
		{"#000", true, 0, 0},
		{"#fff", true, 0xff, 0xff},
		{"powderblue", true, 0xb0, 0xe6},
		{"none", false, 0, 0},
		{"#12", false, 0, 0},
		{"url(#x)", false, 0, 0},
	}
	for _, tt := range tests {
		c, ok := parseColor(tt.in)
		n := c.Color().(color.NRGBA)
		if ok != tt.ok || (ok && (n.R != tt.r || n.B != tt.b)) {
			t.Errorf("parseColor(%q) = %v, %v", tt.in, c, ok)
		}
	}
}

func TestSpan(t *testing.T) {
	pl := geom.Polyline{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}, {X: 4, Y: 0}}
	tests := []struct {
		from, to int
		want     int
	}{
		{1, 3, 2},
		{0, -1, 4},
		{3, 99, 2},
		{4, 2, 0},
		{-5, 2, 2},
	}
	for _, tt := range tests {
		if got := span(pl, tt.from, tt.to); len(got) != tt.want {
			t.Errorf("span(%d, %d) = %v", tt.from, tt.to, got)
		}
	}
	s := span(pl, 0, 2)
	s[0] = geom.Pt(9, 9)
	if pl[0] != (geom.Point{}) {
		t.Error("span aliases its input")
	}
}

func TestCleanup(t *testing.T) {
	in := []geom.Polyline{
		{{X: 0, Y: 0}},
		{{X: 0, Y: 0}, {X: 0.5, Y: 0}},
		{{X: 0, Y: 0}, {X: 5, Y: 0}},
		{{X: 0, Y: 0}, {X: 1, Y: 0.01}, {X: 2, Y: 0}, {X: 3.123456789, Y: 0}},
	}
	got := cleanup(in)
	if len(got) != 2 {
		t.Fatalf("kept %d polylines: %v", len(got), got)
	}
	last := got[1]
	if len(last) != 2 {
		t.Errorf("not simplified: %v", last)
	}
	if x := last[len(last)-1].X; x != 3.1234 {
		t.Errorf("x = %v, want 3.1234", x)
	}
}

func TestFrame(t *testing.T) {
	box := geom.Rect{Min: geom.Pt(100, 50), Max: geom.Pt(300, 150)}
	m := frame(box, false)
	lo := m.TransformPoint(box.Min)
	hi := m.TransformPoint(box.Max)
	// 200x100 box into 460x260: width bound, scale 2.3.
	if math.Abs(hi.X-lo.X-460) > 1e-9 || math.Abs(hi.Y-lo.Y-230) > 1e-9 {
		t.Errorf("framed box %v - %v", lo, hi)
	}
	if math.Abs(lo.X-30) > 1e-9 || math.Abs(lo.Y-45) > 1e-9 {
		t.Errorf("framed origin %v", lo)
	}
}
