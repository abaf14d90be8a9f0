package genetics

import "fmt"

// TraitID identifies one heritable trait. IDs index Haploid arrays and fix
// the key order of the JSON encoding.
type TraitID int

const (
	BodyCurveType TraitID = iota
	BodyCurveAmount
	BodyLength
	BodyHeight
	ScaleType
	ScaleScale
	PatternType
	PatternScale
	DorsalTextureType
	DorsalType
	DorsalLength
	DorsalStart
	DorsalEnd
	WingTextureType
	WingType
	WingStart
	WingEnd
	WingY
	WingLength
	WingWidth
	PelvicStart
	PelvicEnd
	PelvicLength
	PelvicType
	PelvicTextureType
	AnalStart
	AnalEnd
	AnalLength
	AnalType
	AnalTextureType
	TailType
	TailLength
	FinletType
	NeckType
	NoseHeight
	MouthSize
	HeadLength
	HeadTextureAmount
	HasMoustache
	MoustacheLength
	HasBeard
	HasTeeth
	TeethLength
	TeethSpace
	BeardLength
	EyeType
	EyeSize
	JawSize
	JawOpen
	Color

	// NumTraits is the number of traits in a Haploid.
	NumTraits
)

var traitNames = [NumTraits]string{
	BodyCurveType:     "body_curve_type",
	BodyCurveAmount:   "body_curve_amount",
	BodyLength:        "body_length",
	BodyHeight:        "body_height",
	ScaleType:         "scale_type",
	ScaleScale:        "scale_scale",
	PatternType:       "pattern_type",
	PatternScale:      "pattern_scale",
	DorsalTextureType: "dorsal_texture_type",
	DorsalType:        "dorsal_type",
	DorsalLength:      "dorsal_length",
	DorsalStart:       "dorsal_start",
	DorsalEnd:         "dorsal_end",
	WingTextureType:   "wing_texture_type",
	WingType:          "wing_type",
	WingStart:         "wing_start",
	WingEnd:           "wing_end",
	WingY:             "wing_y",
	WingLength:        "wing_length",
	WingWidth:         "wing_width",
	PelvicStart:       "pelvic_start",
	PelvicEnd:         "pelvic_end",
	PelvicLength:      "pelvic_length",
	PelvicType:        "pelvic_type",
	PelvicTextureType: "pelvic_texture_type",
	AnalStart:         "anal_start",
	AnalEnd:           "anal_end",
	AnalLength:        "anal_length",
	AnalType:          "anal_type",
	AnalTextureType:   "anal_texture_type",
	TailType:          "tail_type",
	TailLength:        "tail_length",
	FinletType:        "finlet_type",
	NeckType:          "neck_type",
	NoseHeight:        "nose_height",
	MouthSize:         "mouth_size",
	HeadLength:        "head_length",
	HeadTextureAmount: "head_texture_amount",
	HasMoustache:      "has_moustache",
	MoustacheLength:   "moustache_length",
	HasBeard:          "has_beard",
	HasTeeth:          "has_teeth",
	TeethLength:       "teeth_length",
	TeethSpace:        "teeth_space",
	BeardLength:       "beard_length",
	EyeType:           "eye_type",
	EyeSize:           "eye_size",
	JawSize:           "jaw_size",
	JawOpen:           "jaw_open",
	Color:             "color",
}

// Color values. Color is the only trait encoded by label rather than
// number.
const (
	ColorNormal  = 0
	ColorRainbow = 1
)

var colorLabels = []string{"normal", "rainbow"}

// labels returns the JSON labels of a labelled trait, or nil.
func (id TraitID) labels() []string {
	if id == Color {
		return colorLabels
	}
	return nil
}

// String returns the snake_case trait name.
func (id TraitID) String() string {
	if id < 0 || id >= NumTraits {
		return fmt.Sprintf("TraitID(%d)", int(id))
	}
	return traitNames[id]
}

// Valid reports whether id names a trait.
func (id TraitID) Valid() bool {
	return id >= 0 && id < NumTraits
}

// ParseTrait returns the trait with the given snake_case name.
func ParseTrait(name string) (TraitID, error) {
	for i, n := range traitNames {
		if n == name {
			return TraitID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTrait, name)
}
