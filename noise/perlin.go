package noise

import "math"

const (
	perlinYWrapB  = 4
	perlinYWrap   = 1 << perlinYWrapB
	perlinZWrapB  = 8
	perlinZWrap   = 1 << perlinZWrapB
	perlinSize    = 4095
	perlinOctaves = 4
	perlinFalloff = 0.5
)

func scaledCosine(i float64) float64 {
	return 0.5 * (1 - math.Cos(i*math.Pi))
}

// Noise returns smooth value noise in [0, 1) at (x, y, z). The lattice is
// filled from the generator's stream on first use after seeding, so noise
// fields are reproducible for a given seed and call order.
func (r *Rand) Noise(x, y, z float64) float64 {
	if r.perlin == nil {
		r.perlin = make([]float64, perlinSize+1)
		for i := range r.perlin {
			r.perlin[i] = r.Float64()
		}
	}
	x, y, z = math.Abs(x), math.Abs(y), math.Abs(z)
	xi, yi, zi := int(math.Floor(x)), int(math.Floor(y)), int(math.Floor(z))
	xf, yf, zf := x-float64(xi), y-float64(yi), z-float64(zi)

	p := r.perlin
	ampl := 0.5
	var out float64
	for o := 0; o < perlinOctaves; o++ {
		of := xi + yi<<perlinYWrapB + zi<<perlinZWrapB
		rxf := scaledCosine(xf)
		ryf := scaledCosine(yf)

		n1 := p[of&perlinSize]
		n1 += rxf * (p[(of+1)&perlinSize] - n1)
		n2 := p[(of+perlinYWrap)&perlinSize]
		n2 += rxf * (p[(of+perlinYWrap+1)&perlinSize] - n2)
		n1 += ryf * (n2 - n1)

		of += perlinZWrap
		n2 = p[of&perlinSize]
		n2 += rxf * (p[(of+1)&perlinSize] - n2)
		n3 := p[(of+perlinYWrap)&perlinSize]
		n3 += rxf * (p[(of+perlinYWrap+1)&perlinSize] - n3)
		n2 += ryf * (n3 - n2)

		n1 += scaledCosine(zf) * (n2 - n1)
		out += n1 * ampl
		ampl *= perlinFalloff

		xi <<= 1
		xf *= 2
		yi <<= 1
		yf *= 2
		zi <<= 1
		zf *= 2
		if xf >= 1 {
			xi++
			xf--
		}
		if yf >= 1 {
			yi++
			yf--
		}
		if zf >= 1 {
			zi++
			zf--
		}
	}
	return out
}

// Noise2 is Noise with z = 0.
func (r *Rand) Noise2(x, y float64) float64 { return r.Noise(x, y, 0) }
