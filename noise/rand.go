// Package noise provides the seeded pseudo-random source shared by the
// genetics model and the renderer.
//
// A Rand is a 32-bit xorshift generator together with a lazily filled
// Perlin lattice. Every draw (uniform, Gaussian, triangular, weighted
// choice, coherent noise) consumes the same stream, so a fixed seed and a
// fixed sequence of calls always produce identical output. Rand is not safe
// for concurrent use; give each concurrently computed item its own instance.
package noise

import "math"

// fallbackSeed replaces a zero seed, which is a fixed point of xorshift.
const fallbackSeed = 0x5eed

// Rand is a deterministic xorshift32 generator with coherent noise.
type Rand struct {
	state  int32
	perlin []float64
}

// New returns a generator seeded with seed.
func New(seed uint32) *Rand {
	r := &Rand{}
	r.Seed(seed)
	return r
}

// Seed resets the generator to seed. The Perlin lattice is discarded and
// refilled from the stream on the next Noise call.
func (r *Rand) Seed(seed uint32) {
	if seed == 0 {
		seed = fallbackSeed
	}
	r.state = int32(seed)
	r.perlin = nil
}

// Uint32 advances the generator and returns the raw 32-bit state.
func (r *Rand) Uint32() uint32 {
	s := r.state
	s ^= s << 17
	s ^= s >> 13
	s ^= s << 5
	r.state = s
	return uint32(s)
}

// Float64 returns a uniform sample in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint32()) / (1 << 32)
}

// Range returns a uniform sample in [lo, hi).
func (r *Rand) Range(lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// Intn returns a uniform integer in [0, n). It returns 0 when n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(r.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// positive returns a uniform sample in (0, 1).
func (r *Rand) positive() float64 {
	v := r.Float64()
	for v == 0 {
		v = r.Float64()
	}
	return v
}

// Gaussian returns a normally distributed sample (Box-Muller).
func (r *Rand) Gaussian(mean, std float64) float64 {
	u := r.positive()
	v := r.positive()
	n := math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
	return mean + std*n
}

// Triangular samples the triangular distribution with lower limit lo,
// mode mode and upper limit hi.
func (r *Rand) Triangular(lo, mode, hi float64) float64 {
	s0 := (mode - lo) / 2
	s1 := (hi - mode) / 2
	s := s0 + s1
	v := r.Float64() * s
	if v < s0 {
		return lo + math.Sqrt(2*v*(mode-lo))
	}
	return hi - math.Sqrt(2*(s-v)*(hi-mode))
}

// Choice returns an index drawn with probability proportional to weights.
// Nil weights select uniformly among n options. Choice panics when there is
// nothing to choose from.
func (r *Rand) Choice(n int, weights []float64) int {
	if weights == nil {
		weights = make([]float64, n)
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) == 0 {
		panic("noise: Choice with no options")
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	v := r.Float64() * total
	var acc float64
	for i, w := range weights {
		acc += w
		if v <= acc {
			return i
		}
	}
	return len(weights) - 1
}

// Bool returns true with probability p.
func (r *Rand) Bool(p float64) bool {
	return r.Float64() < p
}
