package genetics

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"slices"
)

// Haploid holds one value per trait. Discrete traits store the numeric
// value (or label index for Color); continuous traits store the raw real.
type Haploid [NumTraits]float64

// Int returns the trait value truncated to an integer.
func (h *Haploid) Int(id TraitID) int {
	return int(h[id])
}

// Bool reports whether a 0/1 trait is set.
func (h *Haploid) Bool(id TraitID) bool {
	return h[id] != 0
}

// MarshalJSON encodes h as an object keyed by trait name, in trait order.
// Color is written as its label.
func (h Haploid) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for id := TraitID(0); id < NumTraits; id++ {
		if id > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(id.String())
		buf.Write(key)
		buf.WriteByte(':')
		v, err := h.marshalValue(id)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (h *Haploid) marshalValue(id TraitID) ([]byte, error) {
	if labels := id.labels(); labels != nil {
		i := int(h[id])
		if float64(i) != h[id] || i < 0 || i >= len(labels) {
			return nil, &TraitError{Trait: id, Value: h[id], Err: ErrTraitDomain}
		}
		return json.Marshal(labels[i])
	}
	b, err := json.Marshal(h[id])
	if err != nil {
		return nil, fmt.Errorf("genetics: encode %s: %w", id, err)
	}
	return b, nil
}

// UnmarshalJSON decodes an object produced by MarshalJSON. Every trait
// must be present; unknown keys are ignored.
func (h *Haploid) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Haploid
	for id := TraitID(0); id < NumTraits; id++ {
		msg, ok := raw[id.String()]
		if !ok {
			return fmt.Errorf("genetics: missing trait %s", id)
		}
		if labels := id.labels(); labels != nil {
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return fmt.Errorf("genetics: decode %s: %w", id, err)
			}
			i := slices.Index(labels, s)
			if i < 0 {
				return fmt.Errorf("%w: %s = %q", ErrTraitDomain, id, s)
			}
			out[id] = float64(i)
			continue
		}
		if err := json.Unmarshal(msg, &out[id]); err != nil {
			return fmt.Errorf("genetics: decode %s: %w", id, err)
		}
	}
	*h = out
	return nil
}

// Diploid is a genotype: an ordered pair of haploids.
type Diploid [2]Haploid

// fingerprint hashes every allele of g. It seeds phenotype resolution so
// the phenotype depends on nothing but the genotype.
func (g *Diploid) fingerprint() uint32 {
	f := fnv.New32a()
	var b [8]byte
	for i := range g {
		for _, v := range g[i] {
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
			f.Write(b[:])
		}
	}
	return f.Sum32()
}

// Organism pairs a genotype with the phenotype derived from it.
type Organism struct {
	Genotype  Diploid `json:"genotype"`
	Phenotype Haploid `json:"phenotype"`
}
