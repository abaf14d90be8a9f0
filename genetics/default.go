package genetics

import "sync"

// Default returns the trout trait catalog.
var Default = sync.OnceValue(func() *Catalog {
	return MustCatalog(DefaultTraits())
})

var (
	bit     = Discrete(0, 1)
	bitRule = MendelianRule(0, 1)
	bitGen  = Choose(0, 1)
)

func discrete() Mutation {
	return Mutation{Kind: MutateDiscrete, Rate: DiscreteRate}
}

func continuous() Mutation {
	return Mutation{Kind: MutateContinuous, Rate: ContinuousRate}
}

// switchDef builds a 0/1 trait with uniform generation and 0 dominant.
func switchDef(id TraitID) TraitDef {
	return TraitDef{ID: id, Domain: bit, Gen: bitGen, Dominance: bitRule, Mutation: discrete()}
}

// enumDef builds an enumerated trait over 0..n-1 with uniform generation
// and lower values dominant.
func enumDef(id TraitID, n int) TraitDef {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i)
	}
	return TraitDef{
		ID:        id,
		Domain:    Discrete(vals...),
		Gen:       Choose(vals...),
		Dominance: MendelianRule(vals...),
		Mutation:  discrete(),
	}
}

// blendDef builds a continuous trait drawn from (lo, mode, hi) and
// expressed by incomplete dominance over [lo, hi].
func blendDef(id TraitID, lo, mode, hi float64) TraitDef {
	return TraitDef{
		ID:        id,
		Domain:    Range(lo, hi),
		Gen:       Triangular(lo, mode, hi),
		Dominance: IncompleteRule(lo, hi),
		Mutation:  continuous(),
	}
}

// intDef is blendDef with integer truncation on generation and expression.
func intDef(id TraitID, lo, mode, hi float64) TraitDef {
	d := blendDef(id, lo, mode, hi)
	d.Gen = d.Gen.Floored()
	d.Dominance = d.Dominance.Floored()
	return d
}

// DefaultTraits returns the definitions of the trout catalog. Callers may
// modify the result to build variant catalogs.
func DefaultTraits() []TraitDef {
	return []TraitDef{
		switchDef(BodyCurveType),
		blendDef(BodyCurveAmount, 0.5, 0.85, 0.98),
		blendDef(BodyLength, 200, 350, 420),
		blendDef(BodyHeight, 45, 90, 150),
		enumDef(ScaleType, 4),
		blendDef(ScaleScale, 0.8, 1, 1.5),
		enumDef(PatternType, 5),
		blendDef(PatternScale, 0.5, 1, 2),
		switchDef(DorsalTextureType),
		switchDef(DorsalType),
		blendDef(DorsalLength, 30, 90, 180),
		{
			ID:     DorsalStart,
			Domain: Range(7, 16),
			Gen: GenBy(DorsalType, map[float64]Gen{
				0: Triangular(7, 8, 15).Floored(),
				1: Triangular(11, 12, 16).Floored(),
			}),
			Dominance: EpistaticRule(DorsalType, map[float64]Rule{
				0: IncompleteRule(7, 15).Floored(),
				1: IncompleteRule(11, 16).Floored(),
			}),
			Mutation: continuous(),
		},
		{
			ID:     DorsalEnd,
			Domain: Range(19, 28),
			Gen: GenBy(DorsalType, map[float64]Gen{
				0: Triangular(20, 27, 28).Floored(),
				1: Triangular(19, 21, 24).Floored(),
			}),
			Dominance: EpistaticRule(DorsalType, map[float64]Rule{
				0: IncompleteRule(20, 28).Floored(),
				1: IncompleteRule(19, 24).Floored(),
			}),
			Mutation: continuous(),
		},
		switchDef(WingTextureType),
		switchDef(WingType),
		intDef(WingStart, 5, 6, 8),
		intDef(WingEnd, 5, 6, 8),
		{
			ID:     WingY,
			Domain: Range(0.45, 0.85),
			Gen: GenBy(WingTextureType, map[float64]Gen{
				0: Triangular(0.45, 0.7, 0.85),
				1: Triangular(0.45, 0.65, 0.75),
			}),
			Dominance: EpistaticRule(WingTextureType, map[float64]Rule{
				0: IncompleteRule(0.45, 0.85),
				1: IncompleteRule(0.45, 0.75),
			}),
			Mutation: continuous(),
		},
		{
			ID:     WingLength,
			Domain: Range(40, 350),
			Gen: GenBy(WingType, map[float64]Gen{
				0: Triangular(40, 130, 200),
				1: Triangular(40, 150, 350),
			}),
			Dominance: EpistaticRule(WingType, map[float64]Rule{
				0: IncompleteRule(40, 200),
				1: IncompleteRule(40, 350),
			}),
			Mutation: continuous(),
		},
		{
			ID:     WingWidth,
			Domain: Range(7, 50),
			Gen: GenBy(WingTextureType, map[float64]Gen{
				0: Triangular(7, 10, 20),
				1: Triangular(20, 30, 50),
			}),
			Dominance: EpistaticRule(WingTextureType, map[float64]Rule{
				0: IncompleteRule(7, 20),
				1: IncompleteRule(20, 50),
			}),
			Mutation: continuous(),
		},
		{
			ID:     PelvicStart,
			Domain: Range(7, 12),
			Gen: GenBy(PelvicType, map[float64]Gen{
				0: Triangular(7, 9, 11).Floored(),
				1: Triangular(7, 9, 12).Floored(),
			}),
			Dominance: EpistaticRule(PelvicType, map[float64]Rule{
				0: IncompleteRule(7, 11).Floored(),
				1: IncompleteRule(11, 12).Floored(),
			}),
			Mutation: continuous(),
		},
		{
			ID:     PelvicEnd,
			Domain: Range(9, 15),
			Gen: GenBy(PelvicType, map[float64]Gen{
				0: Triangular(13, 14, 15).Floored(),
				1: Offset(PelvicStart, 2),
			}),
			Dominance: EpistaticRule(PelvicType, map[float64]Rule{
				0: IncompleteRule(13, 15).Floored(),
				1: DerivedRule(PelvicStart, 2),
			}),
			Mutation: continuous(),
		},
		blendDef(PelvicLength, 30, 85, 140),
		switchDef(PelvicType),
		{
			ID:     PelvicTextureType,
			Domain: bit,
			Gen: GenBy(DorsalTextureType, map[float64]Gen{
				0: Fixed(0),
				1: bitGen,
			}),
			Dominance: EpistaticRule(DorsalTextureType, map[float64]Rule{
				0: ConstantRule(0),
				1: bitRule,
			}),
			Mutation: discrete(),
		},
		intDef(AnalStart, 16, 19, 23),
		intDef(AnalEnd, 25, 29, 31),
		blendDef(AnalLength, 20, 50, 80),
		switchDef(AnalType),
		{
			ID:     AnalTextureType,
			Domain: bit,
			Gen: GenBy(DorsalTextureType, map[float64]Gen{
				0: Fixed(0),
				1: bitGen,
			}),
			Dominance: EpistaticRule(DorsalTextureType, map[float64]Rule{
				0: ConstantRule(0),
				1: bitRule,
			}),
			Mutation: discrete(),
		},
		enumDef(TailType, 6),
		blendDef(TailLength, 50, 75, 180),
		enumDef(FinletType, 4),
		switchDef(NeckType),
		blendDef(NoseHeight, -50, 0, 35),
		intDef(MouthSize, 6, 8, 11),
		blendDef(HeadLength, 20, 30, 35),
		intDef(HeadTextureAmount, 30, 60, 160),
		{
			ID:        HasMoustache,
			Domain:    bit,
			Gen:       Weighted([]float64{0, 1}, []float64{3, 1}),
			Dominance: bitRule,
			Mutation:  discrete(),
		},
		{
			ID:     MoustacheLength,
			Domain: Range(0, 40),
			Gen:    Triangular(10, 20, 40).Floored(),
			Dominance: EpistaticRule(HasMoustache, map[float64]Rule{
				0: ConstantRule(0),
				1: IncompleteRule(10, 40).Floored(),
			}),
			Mutation: continuous(),
		},
		{
			ID:        HasBeard,
			Domain:    bit,
			Gen:       Weighted([]float64{0, 1}, []float64{5, 1}),
			Dominance: bitRule,
			Mutation:  discrete(),
		},
		{
			ID:        HasTeeth,
			Domain:    bit,
			Gen:       Weighted([]float64{0, 1}, []float64{1, 2}),
			Dominance: MendelianRule(1, 0),
			Mutation:  discrete(),
		},
		blendDef(TeethLength, 5, 8, 15),
		blendDef(TeethSpace, 3, 3.5, 6),
		{
			ID:     BeardLength,
			Domain: Range(0, 50),
			Gen:    Triangular(20, 30, 50).Floored(),
			Dominance: EpistaticRule(HasBeard, map[float64]Rule{
				0: ConstantRule(0),
				1: IncompleteRule(20, 50).Floored(),
			}),
			Mutation: continuous(),
		},
		switchDef(EyeType),
		blendDef(EyeSize, 8, 10, 28),
		blendDef(JawSize, 0.7, 1, 1.4),
		{
			ID:     JawOpen,
			Domain: bit,
			Gen:    Fixed(1),
			Dominance: EpistaticRule(HasTeeth, map[float64]Rule{
				0: RandomRule(0.8),
				1: ConstantRule(1),
			}),
			Mutation: Mutation{Kind: MutateNever},
		},
		{
			ID:        Color,
			Domain:    Discrete(ColorNormal, ColorRainbow),
			Gen:       Fixed(ColorNormal),
			Dominance: MendelianRule(ColorNormal, ColorRainbow),
			Mutation:  Mutation{Kind: MutateDiscrete, Rate: DramaticRate},
		},
	}
}
