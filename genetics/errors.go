package genetics

import (
	"errors"
	"fmt"
)

// Sentinel errors for the genetics package. All of them describe a broken
// trait catalog or corrupt genetic material; none are transient.
var (
	// ErrTraitDomain is returned when a trait value lies outside its
	// declared domain.
	ErrTraitDomain = errors.New("genetics: trait value outside its domain")

	// ErrNoRule is returned when a trait has no rule for a value it can
	// take, or when a catalog leaves a trait undefined.
	ErrNoRule = errors.New("genetics: no rule for trait value")

	// ErrDependencyCycle is returned when epistatic or derived rules form a
	// cycle, so no evaluation order exists.
	ErrDependencyCycle = errors.New("genetics: trait dependency cycle")

	// ErrUnknownTrait is returned when decoding a trait name that is not
	// part of the catalog.
	ErrUnknownTrait = errors.New("genetics: unknown trait")
)

// TraitError attaches the offending trait and value to a sentinel error.
type TraitError struct {
	Trait TraitID
	Value float64
	Err   error
}

func (e *TraitError) Error() string {
	return fmt.Sprintf("%v: %s = %v", e.Err, e.Trait, e.Value)
}

func (e *TraitError) Unwrap() error { return e.Err }
