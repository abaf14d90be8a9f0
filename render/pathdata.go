package render

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/trouthatch/trout/geom"
)

// ErrPathData is returned for malformed SVG path data.
var ErrPathData = errors.New("render: malformed path data")

// pathScanner tokenizes SVG path data: single command letters and numbers,
// separated by optional whitespace and commas.
type pathScanner struct {
	s   string
	pos int
}

func (sc *pathScanner) skip() {
	for sc.pos < len(sc.s) {
		switch sc.s[sc.pos] {
		case ' ', '\t', '\n', '\r', ',':
			sc.pos++
		default:
			return
		}
	}
}

// command returns the next command letter, or 0 when a number follows.
func (sc *pathScanner) command() byte {
	sc.skip()
	if sc.pos >= len(sc.s) {
		return 0
	}
	c := sc.s[sc.pos]
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		sc.pos++
		return c
	}
	return 0
}

func (sc *pathScanner) done() bool {
	sc.skip()
	return sc.pos >= len(sc.s)
}

// number scans one float. "1.5.5" is two numbers and "1-2" is too.
func (sc *pathScanner) number() (float64, error) {
	sc.skip()
	start := sc.pos
	i := sc.pos
	if i < len(sc.s) && (sc.s[i] == '+' || sc.s[i] == '-') {
		i++
	}
	dot, exp, digits := false, false, false
scan:
	for ; i < len(sc.s); i++ {
		c := sc.s[i]
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.' && !dot && !exp:
			dot = true
		case (c == 'e' || c == 'E') && digits && !exp:
			exp = true
			if i+1 < len(sc.s) && (sc.s[i+1] == '+' || sc.s[i+1] == '-') {
				i++
			}
		default:
			break scan
		}
	}
	if !digits {
		return 0, fmt.Errorf("%w: number expected at %d", ErrPathData, start)
	}
	v, err := strconv.ParseFloat(sc.s[start:i], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPathData, err)
	}
	sc.pos = i
	return v, nil
}

// flag scans an arc flag, which may be written without a separator.
func (sc *pathScanner) flag() (bool, error) {
	sc.skip()
	if sc.pos < len(sc.s) {
		switch sc.s[sc.pos] {
		case '0':
			sc.pos++
			return false, nil
		case '1':
			sc.pos++
			return true, nil
		}
	}
	return false, fmt.Errorf("%w: flag expected at %d", ErrPathData, sc.pos)
}

func (sc *pathScanner) numbers(dst []float64) error {
	for i := range dst {
		v, err := sc.number()
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// ParsePath flattens SVG path data into one polyline per subpath. Curves
// are flattened to within tolerance. Closed subpaths end with their first
// point repeated.
func ParsePath(d string, tolerance float64) ([]geom.Polyline, error) {
	sc := &pathScanner{s: d}
	var (
		out        []geom.Polyline
		cur        geom.Polyline
		pen, start geom.Point
		ctrl       geom.Point // last control point, for S and T
		prev, cmd  byte
		args       [7]float64
	)
	flush := func() {
		if len(cur) > 1 {
			out = append(out, cur)
		}
		cur = nil
	}
	for !sc.done() {
		if c := sc.command(); c != 0 {
			cmd = c
		}
		if prev == 0 && cmd != 'M' && cmd != 'm' {
			return nil, fmt.Errorf("%w: path must start with a moveto", ErrPathData)
		}
		rel := cmd >= 'a'
		base := pen
		if !rel {
			base = geom.Point{}
		}
		abs := func(x, y float64) geom.Point { return geom.Pt(base.X+x, base.Y+y) }
		if len(cur) == 0 && cmd != 'M' && cmd != 'm' {
			cur = geom.Polyline{pen}
		}

		switch cmd {
		case 'M', 'm':
			if err := sc.numbers(args[:2]); err != nil {
				return nil, err
			}
			flush()
			pen = abs(args[0], args[1])
			start = pen
			cur = geom.Polyline{pen}
			// Further pairs are implicit line-tos.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
			ctrl = pen
			prev = 'M'
			continue
		case 'L', 'l':
			if err := sc.numbers(args[:2]); err != nil {
				return nil, err
			}
			pen = abs(args[0], args[1])
			cur = append(cur, pen)
		case 'H', 'h':
			if err := sc.numbers(args[:1]); err != nil {
				return nil, err
			}
			pen = geom.Pt(base.X+args[0], pen.Y)
			cur = append(cur, pen)
		case 'V', 'v':
			if err := sc.numbers(args[:1]); err != nil {
				return nil, err
			}
			y := args[0]
			if rel {
				y += pen.Y
			}
			pen = geom.Pt(pen.X, y)
			cur = append(cur, pen)
		case 'C', 'c':
			if err := sc.numbers(args[:6]); err != nil {
				return nil, err
			}
			c := geom.CubicBez{P0: pen, P1: abs(args[0], args[1]), P2: abs(args[2], args[3]), P3: abs(args[4], args[5])}
			cur = c.Flatten(cur, tolerance)
			ctrl, pen = c.P2, c.P3
		case 'S', 's':
			if err := sc.numbers(args[:4]); err != nil {
				return nil, err
			}
			p1 := pen
			if isCubic(prev) {
				p1 = pen.Add(pen.Sub(ctrl))
			}
			c := geom.CubicBez{P0: pen, P1: p1, P2: abs(args[0], args[1]), P3: abs(args[2], args[3])}
			cur = c.Flatten(cur, tolerance)
			ctrl, pen = c.P2, c.P3
		case 'Q', 'q':
			if err := sc.numbers(args[:4]); err != nil {
				return nil, err
			}
			q := geom.QuadBez{P0: pen, P1: abs(args[0], args[1]), P2: abs(args[2], args[3])}
			cur = q.Flatten(cur, tolerance)
			ctrl, pen = q.P1, q.P2
		case 'T', 't':
			if err := sc.numbers(args[:2]); err != nil {
				return nil, err
			}
			p1 := pen
			if isQuad(prev) {
				p1 = pen.Add(pen.Sub(ctrl))
			}
			q := geom.QuadBez{P0: pen, P1: p1, P2: abs(args[0], args[1])}
			cur = q.Flatten(cur, tolerance)
			ctrl, pen = q.P1, q.P2
		case 'A', 'a':
			if err := sc.numbers(args[:3]); err != nil {
				return nil, err
			}
			large, err := sc.flag()
			if err != nil {
				return nil, err
			}
			sweep, err := sc.flag()
			if err != nil {
				return nil, err
			}
			if err := sc.numbers(args[3:5]); err != nil {
				return nil, err
			}
			to := abs(args[3], args[4])
			for _, c := range arcToCubics(pen, to, args[0], args[1], args[2]*math.Pi/180, large, sweep) {
				cur = c.Flatten(cur, tolerance)
			}
			pen = to
		case 'Z', 'z':
			cur = append(cur, start)
			pen = start
			flush()
			prev = 'Z'
			continue
		default:
			return nil, fmt.Errorf("%w: unknown command %q", ErrPathData, cmd)
		}
		if !isCubic(cmd) && !isQuad(cmd) {
			ctrl = pen
		}
		prev = cmd
	}
	flush()
	return out, nil
}

func isCubic(c byte) bool { return c == 'C' || c == 'c' || c == 'S' || c == 's' }
func isQuad(c byte) bool  { return c == 'Q' || c == 'q' || c == 'T' || c == 't' }

// arcToCubics converts an elliptical arc in endpoint form to cubic
// segments of at most a quarter turn each.
func arcToCubics(p0, p1 geom.Point, rx, ry, phi float64, large, sweep bool) []geom.CubicBez {
	rx, ry = math.Abs(rx), math.Abs(ry)
	if p0 == p1 {
		return nil
	}
	if rx == 0 || ry == 0 {
		return []geom.CubicBez{{P0: p0, P1: p0, P2: p1, P3: p1}}
	}
	sin, cos := math.Sincos(phi)
	dx, dy := (p0.X-p1.X)/2, (p0.Y-p1.Y)/2
	x1 := cos*dx + sin*dy
	y1 := -sin*dx + cos*dy

	// Scale radii up when they cannot reach both endpoints.
	if l := x1*x1/(rx*rx) + y1*y1/(ry*ry); l > 1 {
		s := math.Sqrt(l)
		rx, ry = rx*s, ry*s
	}
	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	k := math.Sqrt(math.Max(0, num/den))
	if large == sweep {
		k = -k
	}
	cx1 := k * rx * y1 / ry
	cy1 := -k * ry * x1 / rx
	cx := cos*cx1 - sin*cy1 + (p0.X+p1.X)/2
	cy := sin*cx1 + cos*cy1 + (p0.Y+p1.Y)/2

	angle := func(ux, uy, vx, vy float64) float64 {
		return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
	}
	theta := angle(1, 0, (x1-cx1)/rx, (y1-cy1)/ry)
	delta := angle((x1-cx1)/rx, (y1-cy1)/ry, (-x1-cx1)/rx, (-y1-cy1)/ry)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(delta) / (math.Pi / 2)))
	step := delta / float64(n)
	alpha := 4.0 / 3 * math.Tan(step/4)
	point := func(t float64) (geom.Point, geom.Point) {
		st, ct := math.Sincos(t)
		p := geom.Pt(cx+rx*ct*cos-ry*st*sin, cy+rx*ct*sin+ry*st*cos)
		d := geom.Pt(-rx*st*cos-ry*ct*sin, -rx*st*sin+ry*ct*cos)
		return p, d
	}
	out := make([]geom.CubicBez, 0, n)
	a, da := point(theta)
	a = p0
	for i := 1; i <= n; i++ {
		t := theta + step*float64(i)
		b, db := point(t)
		if i == n {
			b = p1
		}
		out = append(out, geom.CubicBez{P0: a, P1: a.Add(da.Mul(alpha)), P2: b.Sub(db.Mul(alpha)), P3: b})
		a, da = b, db
	}
	return out
}
