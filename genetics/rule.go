package genetics

import (
	"maps"
	"math"
	"slices"
)

// Domain is the set of legal values of a trait: an enumerated set when
// Values is non-empty, otherwise the closed range [Min, Max].
type Domain struct {
	Values []float64
	Min    float64
	Max    float64
}

// Discrete returns an enumerated domain.
func Discrete(values ...float64) Domain {
	return Domain{Values: values}
}

// Range returns a continuous domain.
func Range(lo, hi float64) Domain {
	return Domain{Min: lo, Max: hi}
}

// IsDiscrete reports whether d is an enumerated set.
func (d Domain) IsDiscrete() bool { return len(d.Values) > 0 }

// Contains reports whether v is a legal value.
func (d Domain) Contains(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if d.IsDiscrete() {
		return slices.Contains(d.Values, v)
	}
	return v >= d.Min && v <= d.Max
}

// RuleKind tags a dominance rule.
type RuleKind uint8

const (
	// Mendelian picks the allele that comes first in Order.
	Mendelian RuleKind = iota + 1
	// Incomplete blends both alleles with Gaussian noise.
	Incomplete
	// Epistatic delegates to Table, keyed by the phenotype value of Gene.
	Epistatic
	// Constant always yields Value.
	Constant
	// Derived yields the phenotype value of Gene plus Value.
	Derived
	// Random yields 1 with probability Value, 0 otherwise.
	Random
)

func (k RuleKind) String() string {
	switch k {
	case Mendelian:
		return "mendelian"
	case Incomplete:
		return "incomplete"
	case Epistatic:
		return "epistatic"
	case Constant:
		return "constant"
	case Derived:
		return "derived"
	case Random:
		return "random"
	}
	return "invalid"
}

// defaultIncompleteFactor scales the blend noise to the rule's range.
const defaultIncompleteFactor = 0.05

// Rule is a dominance rule: how two alleles become one phenotype value.
// Only the fields used by Kind are meaningful.
type Rule struct {
	Kind RuleKind

	Order []float64 // Mendelian

	Min, Max float64 // Incomplete
	Factor   float64 // Incomplete
	Floor    bool    // Incomplete: truncate to an integer after clamping

	Gene  TraitID          // Epistatic, Derived
	Table map[float64]Rule // Epistatic

	Value float64 // Constant, Derived offset, Random probability
}

// MendelianRule returns a rule in which earlier values of order dominate.
func MendelianRule(order ...float64) Rule {
	return Rule{Kind: Mendelian, Order: order}
}

// IncompleteRule blends alleles within [lo, hi].
func IncompleteRule(lo, hi float64) Rule {
	return Rule{Kind: Incomplete, Min: lo, Max: hi, Factor: defaultIncompleteFactor}
}

// Floored returns r with integer truncation enabled.
func (r Rule) Floored() Rule {
	r.Floor = true
	return r
}

// EpistaticRule selects a rule by the resolved value of gene.
func EpistaticRule(gene TraitID, table map[float64]Rule) Rule {
	return Rule{Kind: Epistatic, Gene: gene, Table: table}
}

// ConstantRule always yields v.
func ConstantRule(v float64) Rule {
	return Rule{Kind: Constant, Value: v}
}

// DerivedRule yields the resolved value of gene plus offset.
func DerivedRule(gene TraitID, offset float64) Rule {
	return Rule{Kind: Derived, Gene: gene, Value: offset}
}

// RandomRule yields 1 with probability p.
func RandomRule(p float64) Rule {
	return Rule{Kind: Random, Value: p}
}

func (r Rule) clone() Rule {
	r.Order = slices.Clone(r.Order)
	if r.Table != nil {
		t := make(map[float64]Rule, len(r.Table))
		for k, v := range r.Table {
			t[k] = v.clone()
		}
		r.Table = t
	}
	return r
}

// deps appends every trait r reads, including through nested tables.
func (r Rule) deps(dst []TraitID) []TraitID {
	switch r.Kind {
	case Epistatic:
		dst = append(dst, r.Gene)
		for _, k := range slices.Sorted(maps.Keys(r.Table)) {
			dst = r.Table[k].deps(dst)
		}
	case Derived:
		dst = append(dst, r.Gene)
	}
	return dst
}

// GenKind tags a generation rule.
type GenKind uint8

const (
	// GenChoice draws one of Values with probability proportional to Weights.
	GenChoice GenKind = iota + 1
	// GenTriangular draws from a triangular distribution (Lo, Mode, Hi).
	GenTriangular
	// GenEpistatic delegates to Table, keyed by the generated value of Gene.
	GenEpistatic
	// GenConstant always yields Value.
	GenConstant
	// GenDerived yields the generated value of Gene plus Value.
	GenDerived
)

// Gen describes how a founding allele is drawn.
type Gen struct {
	Kind GenKind

	Values  []float64 // GenChoice
	Weights []float64 // GenChoice; nil means uniform

	Lo, Mode, Hi float64 // GenTriangular
	Floor        bool    // GenTriangular

	Gene  TraitID         // GenEpistatic, GenDerived
	Table map[float64]Gen // GenEpistatic

	Value float64 // GenConstant, GenDerived offset
}

// Choose draws uniformly from values.
func Choose(values ...float64) Gen {
	return Gen{Kind: GenChoice, Values: values}
}

// Weighted draws from values with the given weights.
func Weighted(values, weights []float64) Gen {
	return Gen{Kind: GenChoice, Values: values, Weights: weights}
}

// Triangular draws from the triangular distribution (lo, mode, hi).
func Triangular(lo, mode, hi float64) Gen {
	return Gen{Kind: GenTriangular, Lo: lo, Mode: mode, Hi: hi}
}

// Floored returns g with integer truncation enabled.
func (g Gen) Floored() Gen {
	g.Floor = true
	return g
}

// GenBy selects a generation rule by the generated value of gene.
func GenBy(gene TraitID, table map[float64]Gen) Gen {
	return Gen{Kind: GenEpistatic, Gene: gene, Table: table}
}

// Fixed always generates v.
func Fixed(v float64) Gen {
	return Gen{Kind: GenConstant, Value: v}
}

// Offset generates the value of gene plus offset.
func Offset(gene TraitID, offset float64) Gen {
	return Gen{Kind: GenDerived, Gene: gene, Value: offset}
}

func (g Gen) clone() Gen {
	g.Values = slices.Clone(g.Values)
	g.Weights = slices.Clone(g.Weights)
	if g.Table != nil {
		t := make(map[float64]Gen, len(g.Table))
		for k, v := range g.Table {
			t[k] = v.clone()
		}
		g.Table = t
	}
	return g
}

func (g Gen) deps(dst []TraitID) []TraitID {
	switch g.Kind {
	case GenEpistatic:
		dst = append(dst, g.Gene)
		for _, k := range slices.Sorted(maps.Keys(g.Table)) {
			dst = g.Table[k].deps(dst)
		}
	case GenDerived:
		dst = append(dst, g.Gene)
	}
	return dst
}

// MutationKind tags a mutation rule.
type MutationKind uint8

const (
	// MutateDiscrete replaces the value, with probability Rate, by a
	// different value of the trait's domain.
	MutateDiscrete MutationKind = iota + 1
	// MutateContinuous adds Gaussian noise with standard deviation
	// Rate times the domain width, clamped to the domain.
	MutateContinuous
	// MutateNever leaves the value unchanged.
	MutateNever
)

// Default mutation rates.
const (
	DiscreteRate   = 2e-3
	DramaticRate   = 1e-3
	ContinuousRate = 1e-3
)

// Mutation is a per-trait mutation rule.
type Mutation struct {
	Kind MutationKind
	Rate float64
}
