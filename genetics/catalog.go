package genetics

import (
	"fmt"
	"math"
	"slices"
)

// TraitDef declares one trait: its domain and how it is generated,
// expressed and mutated.
type TraitDef struct {
	ID        TraitID
	Domain    Domain
	Gen       Gen
	Dominance Rule
	Mutation  Mutation
}

// Catalog is an immutable table of trait definitions together with the
// order in which traits must be evaluated so every epistatic or derived
// rule sees its governing trait already resolved. A Catalog is safe for
// concurrent use.
type Catalog struct {
	defs  [NumTraits]TraitDef
	order []TraitID
}

// NewCatalog validates defs and builds a catalog. Every trait must be
// defined exactly once. Rule dependencies must be acyclic, and epistatic
// tables must cover every value of their governing trait.
func NewCatalog(defs []TraitDef) (*Catalog, error) {
	c := &Catalog{}
	var seen [NumTraits]bool
	for _, d := range defs {
		if !d.ID.Valid() {
			return nil, fmt.Errorf("%w: %v", ErrUnknownTrait, d.ID)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("genetics: trait %s defined twice", d.ID)
		}
		seen[d.ID] = true
		d.Domain.Values = slices.Clone(d.Domain.Values)
		d.Gen = d.Gen.clone()
		d.Dominance = d.Dominance.clone()
		c.defs[d.ID] = d
	}
	for id, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: trait %s is not defined", ErrNoRule, TraitID(id))
		}
	}
	for id := TraitID(0); id < NumTraits; id++ {
		if err := c.check(id); err != nil {
			return nil, err
		}
	}
	order, err := c.topoSort()
	if err != nil {
		return nil, err
	}
	c.order = order
	return c, nil
}

// MustCatalog is like NewCatalog but panics on error. It is meant for
// package-level catalogs whose definitions are fixed at compile time.
func MustCatalog(defs []TraitDef) *Catalog {
	c, err := NewCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}

// Def returns the definition of id.
func (c *Catalog) Def(id TraitID) TraitDef {
	return c.defs[id]
}

// Order returns the evaluation order. The result is a copy.
func (c *Catalog) Order() []TraitID {
	return slices.Clone(c.order)
}

// check verifies that the rules of id are total over the domains they
// consume and stay within the domain of id.
func (c *Catalog) check(id TraitID) error {
	d := c.defs[id]
	if d.Dominance.Kind == 0 || d.Gen.Kind == 0 || d.Mutation.Kind == 0 {
		return fmt.Errorf("%w: trait %s has an incomplete definition", ErrNoRule, id)
	}
	if !d.Domain.IsDiscrete() && d.Domain.Min > d.Domain.Max {
		return fmt.Errorf("genetics: trait %s has an empty range", id)
	}
	if d.Mutation.Kind == MutateDiscrete && !d.Domain.IsDiscrete() {
		return fmt.Errorf("%w: trait %s mutates discretely over a range", ErrNoRule, id)
	}
	if err := c.checkRule(id, d.Dominance); err != nil {
		return err
	}
	return c.checkGen(id, d.Gen)
}

func (c *Catalog) checkRule(id TraitID, r Rule) error {
	dom := c.defs[id].Domain
	switch r.Kind {
	case Mendelian:
		if len(r.Order) == 0 {
			return fmt.Errorf("%w: trait %s has an empty priority order", ErrNoRule, id)
		}
		for _, v := range r.Order {
			if !dom.Contains(v) {
				return &TraitError{Trait: id, Value: v, Err: ErrTraitDomain}
			}
		}
	case Incomplete:
		if !dom.Contains(r.Min) || !dom.Contains(r.Max) {
			return &TraitError{Trait: id, Value: r.Min, Err: ErrTraitDomain}
		}
	case Epistatic:
		if err := c.checkGoverning(id, r.Gene); err != nil {
			return err
		}
		for _, v := range c.defs[r.Gene].Domain.Values {
			sub, ok := r.Table[v]
			if !ok {
				return fmt.Errorf("%w: trait %s has no rule for %s = %v", ErrNoRule, id, r.Gene, v)
			}
			if err := c.checkRule(id, sub); err != nil {
				return err
			}
		}
	case Constant:
		if !dom.Contains(r.Value) {
			return &TraitError{Trait: id, Value: r.Value, Err: ErrTraitDomain}
		}
	case Derived:
		if !r.Gene.Valid() || r.Gene == id {
			return fmt.Errorf("%w: trait %s derives from %v", ErrNoRule, id, r.Gene)
		}
	case Random:
		if !dom.Contains(0) || !dom.Contains(1) {
			return fmt.Errorf("%w: trait %s cannot hold a random bit", ErrTraitDomain, id)
		}
	default:
		return fmt.Errorf("%w: trait %s has rule kind %d", ErrNoRule, id, r.Kind)
	}
	return nil
}

func (c *Catalog) checkGen(id TraitID, g Gen) error {
	dom := c.defs[id].Domain
	switch g.Kind {
	case GenChoice:
		if len(g.Values) == 0 || (g.Weights != nil && len(g.Weights) != len(g.Values)) {
			return fmt.Errorf("%w: trait %s has a malformed choice", ErrNoRule, id)
		}
		for _, v := range g.Values {
			if !dom.Contains(v) {
				return &TraitError{Trait: id, Value: v, Err: ErrTraitDomain}
			}
		}
	case GenTriangular:
		if !(g.Lo <= g.Mode && g.Mode <= g.Hi) {
			return fmt.Errorf("genetics: trait %s has a malformed triangle", id)
		}
		if !dom.Contains(g.Lo) || !dom.Contains(g.Hi) {
			return &TraitError{Trait: id, Value: g.Lo, Err: ErrTraitDomain}
		}
	case GenEpistatic:
		if err := c.checkGoverning(id, g.Gene); err != nil {
			return err
		}
		for _, v := range c.defs[g.Gene].Domain.Values {
			sub, ok := g.Table[v]
			if !ok {
				return fmt.Errorf("%w: trait %s has no generator for %s = %v", ErrNoRule, id, g.Gene, v)
			}
			if err := c.checkGen(id, sub); err != nil {
				return err
			}
		}
	case GenConstant:
		if !dom.Contains(g.Value) {
			return &TraitError{Trait: id, Value: g.Value, Err: ErrTraitDomain}
		}
	case GenDerived:
		if !g.Gene.Valid() || g.Gene == id {
			return fmt.Errorf("%w: trait %s derives from %v", ErrNoRule, id, g.Gene)
		}
	default:
		return fmt.Errorf("%w: trait %s has generator kind %d", ErrNoRule, id, g.Kind)
	}
	return nil
}

func (c *Catalog) checkGoverning(id, gene TraitID) error {
	if !gene.Valid() || gene == id {
		return fmt.Errorf("%w: trait %s is governed by %v", ErrNoRule, id, gene)
	}
	if !c.defs[gene].Domain.IsDiscrete() {
		return fmt.Errorf("%w: trait %s is governed by continuous trait %s", ErrNoRule, id, gene)
	}
	return nil
}

// topoSort orders traits so dependencies come first, breaking ties by ID.
func (c *Catalog) topoSort() ([]TraitID, error) {
	var indegree [NumTraits]int
	var users [NumTraits][]TraitID
	for id := TraitID(0); id < NumTraits; id++ {
		d := c.defs[id]
		deps := d.Gen.deps(d.Dominance.deps(nil))
		slices.Sort(deps)
		for _, dep := range slices.Compact(deps) {
			users[dep] = append(users[dep], id)
			indegree[id]++
		}
	}
	order := make([]TraitID, 0, NumTraits)
	var done [NumTraits]bool
	for len(order) < int(NumTraits) {
		next := TraitID(-1)
		for id := TraitID(0); id < NumTraits; id++ {
			if !done[id] && indegree[id] == 0 {
				next = id
				break
			}
		}
		if next < 0 {
			var stuck []string
			for id := TraitID(0); id < NumTraits; id++ {
				if !done[id] {
					stuck = append(stuck, id.String())
				}
			}
			return nil, fmt.Errorf("%w: %v", ErrDependencyCycle, stuck)
		}
		done[next] = true
		order = append(order, next)
		for _, u := range users[next] {
			indegree[u]--
		}
	}
	return order, nil
}

// Validate reports the first trait of h outside its domain.
func (c *Catalog) Validate(h *Haploid) error {
	for id := TraitID(0); id < NumTraits; id++ {
		if !c.defs[id].Domain.Contains(h[id]) {
			return &TraitError{Trait: id, Value: h[id], Err: ErrTraitDomain}
		}
	}
	return nil
}

// ValidateGenotype validates both haploids of g.
func (c *Catalog) ValidateGenotype(g *Diploid) error {
	for i := range g {
		if err := c.Validate(&g[i]); err != nil {
			return fmt.Errorf("allele %d: %w", i, err)
		}
	}
	return nil
}

// ResolveRule returns the non-epistatic rule that governs id given the
// traits of resolved already evaluated.
func (c *Catalog) ResolveRule(id TraitID, resolved *Haploid) (Rule, error) {
	r := c.defs[id].Dominance
	for r.Kind == Epistatic {
		sub, ok := r.Table[resolved[r.Gene]]
		if !ok {
			return Rule{}, &TraitError{Trait: r.Gene, Value: resolved[r.Gene], Err: ErrNoRule}
		}
		r = sub
	}
	return r, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
