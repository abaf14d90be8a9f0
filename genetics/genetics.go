// Package genetics implements the Mendelian trait model behind every
// trout: founding haploids drawn from per-trait distributions, gametes by
// independent assortment, per-trait mutation, and dominance rules that turn
// a genotype into its phenotype.
//
// All rules live in an immutable Catalog. Traits are evaluated in the
// catalog's dependency order, so an epistatic trait always sees the
// resolved value of the trait that governs it. A malformed catalog is
// rejected at construction time.
//
// Randomness comes from an explicit *noise.Rand. Breed and Spawn reseed
// their own generator, and phenotypes are seeded from a fingerprint of the
// genotype, so results never depend on call history.
package genetics

import (
	"fmt"
	"math"

	"github.com/trouthatch/trout/noise"
)

// Generate draws a founding haploid.
func (c *Catalog) Generate(rng *noise.Rand) Haploid {
	var h Haploid
	for _, id := range c.order {
		h[id] = c.generate(c.defs[id].Gen, &h, rng)
	}
	return h
}

func (c *Catalog) generate(g Gen, h *Haploid, rng *noise.Rand) float64 {
	switch g.Kind {
	case GenChoice:
		return g.Values[rng.Choice(len(g.Values), g.Weights)]
	case GenTriangular:
		v := rng.Triangular(g.Lo, g.Mode, g.Hi)
		if g.Floor {
			v = math.Floor(v)
		}
		return v
	case GenEpistatic:
		return c.generate(g.Table[h[g.Gene]], h, rng)
	case GenDerived:
		return h[g.Gene] + g.Value
	}
	return g.Value
}

// MakeGamete picks, for every trait independently, the left or the right
// allele with equal probability.
func MakeGamete(g *Diploid, rng *noise.Rand) Haploid {
	var h Haploid
	for id := range h {
		if rng.Float64() < 0.5 {
			h[id] = g[0][id]
		} else {
			h[id] = g[1][id]
		}
	}
	return h
}

// Mutate applies every trait's mutation rule to h.
func (c *Catalog) Mutate(h Haploid, rng *noise.Rand) Haploid {
	for id := range h {
		d := c.defs[id]
		switch d.Mutation.Kind {
		case MutateDiscrete:
			if rng.Float64() >= d.Mutation.Rate {
				continue
			}
			h[id] = pickOther(d.Domain.Values, h[id], rng)
		case MutateContinuous:
			std := (d.Domain.Max - d.Domain.Min) * d.Mutation.Rate
			h[id] = clamp(h[id]+rng.Gaussian(0, std), d.Domain.Min, d.Domain.Max)
		}
	}
	return h
}

// pickOther returns a uniformly chosen value of values other than v. With
// a single value it returns that value.
func pickOther(values []float64, v float64, rng *noise.Rand) float64 {
	others := make([]float64, 0, len(values))
	for _, x := range values {
		if x != v {
			others = append(others, x)
		}
	}
	if len(others) == 0 {
		return v
	}
	return others[rng.Intn(len(others))]
}

// Phenotype resolves g trait by trait in dependency order. The noise used
// by blending and random rules is seeded from g itself, so equal genotypes
// always yield equal phenotypes.
func (c *Catalog) Phenotype(g *Diploid) (Haploid, error) {
	rng := noise.New(g.fingerprint())
	var p Haploid
	for _, id := range c.order {
		r, err := c.ResolveRule(id, &p)
		if err != nil {
			return Haploid{}, fmt.Errorf("genetics: resolve %s: %w", id, err)
		}
		v := apply(r, g[0][id], g[1][id], &p, rng)
		if !c.defs[id].Domain.Contains(v) {
			return Haploid{}, &TraitError{Trait: id, Value: v, Err: ErrTraitDomain}
		}
		p[id] = v
	}
	return p, nil
}

func apply(r Rule, l, rv float64, p *Haploid, rng *noise.Rand) float64 {
	switch r.Kind {
	case Mendelian:
		return dominant(r.Order, l, rv)
	case Incomplete:
		v := rng.Gaussian((l+rv)/2, (r.Max-r.Min)*r.Factor)
		v = clamp(v, r.Min, r.Max)
		if r.Floor {
			v = math.Floor(v)
		}
		return v
	case Derived:
		return p[r.Gene] + r.Value
	case Random:
		if rng.Bool(r.Value) {
			return 1
		}
		return 0
	}
	return r.Value
}

// dominant returns whichever of l and r comes first in order. A value
// missing from order loses to any listed one; if neither is listed the
// smaller wins, so the result never depends on argument position.
func dominant(order []float64, l, r float64) float64 {
	li, ri := index(order, l), index(order, r)
	switch {
	case li < 0 && ri < 0:
		return math.Min(l, r)
	case li < 0:
		return r
	case ri < 0:
		return l
	case ri < li:
		return r
	}
	return l
}

func index(order []float64, v float64) int {
	for i, o := range order {
		if o == v {
			return i
		}
	}
	return -1
}

// Organism returns g paired with its phenotype.
func (c *Catalog) Organism(g Diploid) (Organism, error) {
	p, err := c.Phenotype(&g)
	if err != nil {
		return Organism{}, err
	}
	return Organism{Genotype: g, Phenotype: p}, nil
}

// Breed crosses two genotypes: one mutated gamete from each parent forms
// the child genotype. The result depends only on the parents and seed.
func (c *Catalog) Breed(left, right *Diploid, seed uint32) (Organism, error) {
	if err := c.ValidateGenotype(left); err != nil {
		return Organism{}, fmt.Errorf("genetics: left parent: %w", err)
	}
	if err := c.ValidateGenotype(right); err != nil {
		return Organism{}, fmt.Errorf("genetics: right parent: %w", err)
	}
	rng := noise.New(seed)
	l := c.Mutate(MakeGamete(left, rng), rng)
	r := c.Mutate(MakeGamete(right, rng), rng)
	return c.Organism(Diploid{l, r})
}

// Spawn creates a founding organism with no parents.
func (c *Catalog) Spawn(seed uint32) (Organism, error) {
	rng := noise.New(seed)
	g := Diploid{c.Generate(rng), c.Generate(rng)}
	if err := c.ValidateGenotype(&g); err != nil {
		return Organism{}, fmt.Errorf("genetics: spawn: %w", err)
	}
	return c.Organism(g)
}

// Genesis spawns a founding organism whose color alleles are both
// rainbow.
func (c *Catalog) Genesis(seed uint32) (Organism, error) {
	o, err := c.Spawn(seed)
	if err != nil {
		return Organism{}, err
	}
	o.Genotype[0][Color] = ColorRainbow
	o.Genotype[1][Color] = ColorRainbow
	return c.Organism(o.Genotype)
}

// Breed crosses two genotypes using the default catalog.
func Breed(left, right *Diploid, seed uint32) (Organism, error) {
	return Default().Breed(left, right, seed)
}

// Spawn creates a founding organism using the default catalog.
func Spawn(seed uint32) (Organism, error) {
	return Default().Spawn(seed)
}

// ComputePhenotype resolves g using the default catalog.
func ComputePhenotype(g *Diploid) (Haploid, error) {
	return Default().Phenotype(g)
}
