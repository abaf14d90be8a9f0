// Package artifact defines the stored form of a trout: the descriptor that
// links an item to its parents and sealed traits, and the metadata envelope
// that pairs it with a name, a description and the rendered image.
package artifact

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trouthatch/trout/cipher"
	"github.com/trouthatch/trout/genetics"
	"github.com/trouthatch/trout/storage"
)

// CurrentFormatVersion is written into every new descriptor. Artifacts with
// any other version are recomputed.
const CurrentFormatVersion = 4

var (
	// ErrLegacyFormat is returned for stored artifacts that cannot be read
	// with the current schema.
	ErrLegacyFormat = errors.New("artifact: legacy or foreign format")

	// ErrMalformed is returned for descriptors that violate their own
	// invariants.
	ErrMalformed = errors.New("artifact: malformed descriptor")
)

// OrganismID names an item on a network.
type OrganismID struct {
	NetworkID uint64 `json:"networkId"`
	ItemID    uint64 `json:"itemId"`
}

func (id OrganismID) String() string {
	return fmt.Sprintf("%d/%d", id.NetworkID, id.ItemID)
}

// Attributes are public, non-genetic properties of an item.
type Attributes struct {
	Genesis  bool `json:"genesis"`
	Seasonal bool `json:"seasonal"`
}

// Descriptor is the persisted record of one computed item. Left and Right
// are both nil for a spawned item and both set for a bred one.
type Descriptor struct {
	Left            *OrganismID         `json:"left"`
	Right           *OrganismID         `json:"right"`
	Self            OrganismID          `json:"self"`
	Attributes      Attributes          `json:"attributes"`
	EncryptedTraits cipher.Box          `json:"encryptedTraits"`
	Generations     []storage.ContentID `json:"generations"`
	FormatVersion   int                 `json:"formatVersion"`
}

// IsRoot reports whether d describes an item with no parents.
func (d *Descriptor) IsRoot() bool { return d.Left == nil && d.Right == nil }

// IsCurrent reports whether d was written with CurrentFormatVersion.
func (d *Descriptor) IsCurrent() bool { return d.FormatVersion == CurrentFormatVersion }

// Validate checks the parent invariant and the format version.
func (d *Descriptor) Validate() error {
	if (d.Left == nil) != (d.Right == nil) {
		return fmt.Errorf("%w: item %s has exactly one parent", ErrMalformed, d.Self)
	}
	if d.FormatVersion < 1 || d.FormatVersion > CurrentFormatVersion {
		return fmt.Errorf("%w: format version %d", ErrLegacyFormat, d.FormatVersion)
	}
	return nil
}

// Metadata is the envelope stored for every item.
type Metadata struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	Properties  Descriptor `json:"properties"`
}

// Encode returns the stored bytes of m.
func (m *Metadata) Encode() ([]byte, error) {
	if m.Properties.Generations == nil {
		m.Properties.Generations = []storage.ContentID{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("artifact: encode %s: %w", m.Properties.Self, err)
	}
	return b, nil
}

// Decode parses stored metadata. Anything that is not a well-formed
// envelope of a known format version fails with ErrLegacyFormat.
func Decode(blob []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(blob, &m); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrLegacyFormat, err)
	}
	if err := m.Properties.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Traits is the sealed part of a descriptor: the organism and the seed it
// was computed with.
type Traits struct {
	Seed uint32 `json:"seed"`
	genetics.Organism
}

// Seal encrypts t bound to itemID, so the box only opens for that item.
func Seal(c *cipher.Cipher, itemID uint64, t *Traits) (cipher.Box, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return cipher.Box{}, fmt.Errorf("artifact: encode traits of %d: %w", itemID, err)
	}
	return c.Encrypt(b, itemID)
}

// Open decrypts the traits of d.
func Open(c *cipher.Cipher, d *Descriptor) (Traits, error) {
	b, err := c.Decrypt(d.EncryptedTraits, d.Self.ItemID)
	if err != nil {
		return Traits{}, fmt.Errorf("artifact: open traits of %s: %w", d.Self, err)
	}
	var t Traits
	if err := json.Unmarshal(b, &t); err != nil {
		return Traits{}, fmt.Errorf("%w: traits of %s: %w", ErrLegacyFormat, d.Self, err)
	}
	return t, nil
}

// EntropyLabel is the key derivation label of an item's seed.
func EntropyLabel(id OrganismID) string {
	return fmt.Sprintf("nftrout/entropy/%d/%d", id.NetworkID, id.ItemID)
}

// DeriveSeed returns the deterministic seed of an item: its derived key
// read as a little-endian integer, reduced modulo 2^32.
func DeriveSeed(c *cipher.Cipher, id OrganismID) (uint32, error) {
	key, err := c.DeriveKey(EntropyLabel(id), 32)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(key), nil
}

// Params are the inputs of Build.
type Params struct {
	Self        OrganismID
	Left, Right *OrganismID
	Attributes  Attributes
	Traits      Traits
	Image       storage.ContentID
	Generations []storage.ContentID
}

// Build seals p.Traits and assembles the metadata envelope of a new
// artifact at CurrentFormatVersion.
func Build(c *cipher.Cipher, p *Params) (Metadata, error) {
	box, err := Seal(c, p.Self.ItemID, &p.Traits)
	if err != nil {
		return Metadata{}, err
	}
	gens := append([]storage.ContentID{}, p.Generations...)
	d := Descriptor{
		Left:            p.Left,
		Right:           p.Right,
		Self:            p.Self,
		Attributes:      p.Attributes,
		EncryptedTraits: box,
		Generations:     gens,
		FormatVersion:   CurrentFormatVersion,
	}
	if err := d.Validate(); err != nil {
		return Metadata{}, err
	}
	name, err := p.Self.Name()
	if err != nil {
		return Metadata{}, err
	}
	desc, err := Description(p.Self, p.Left, p.Right, p.Attributes)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Name:        name,
		Description: desc,
		Image:       p.Image.URI(),
		Properties:  d,
	}, nil
}
