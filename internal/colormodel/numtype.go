// Package colormodel defines the entity classes a pixel format is built
// from: numeric types, components, tone-reproduction curves, color spaces,
// color models, and pixel formats themselves. It also implements space
// construction (chromaticity -> RGB/XYZ matrices), model rebasing onto a
// space, and format derivation ("<base>-<space>").
package colormodel

// NumericType describes a component's storage representation: its name,
// bit width, whether it is integer or floating point, and its
// representable range.
type NumericType struct {
	ID       uint32
	Name     string
	BitWidth int // always a multiple of 8
	Float    bool
	Min, Max float64
}

// NewType constructs a NumericType from its storage parameters. Callers
// that want one of the six standard types should use the TypeU8/TypeU16/...
// vars instead; this exists for formats built on a caller-supplied
// encoding.
func NewType(name string, bitWidth int, float bool, min, max float64) *NumericType {
	return &NumericType{Name: name, BitWidth: bitWidth, Float: float, Min: min, Max: max}
}

// Fingerprint returns a content address, used as part of a format's
// fingerprint.
func (t *NumericType) Fingerprint() string {
	kind := "i"
	if t.Float {
		kind = "f"
	}
	return fmtFingerprint("type", kind, t.BitWidth)
}

// Component semantic roles. A component may carry more than one flag, though
// in practice luma/chroma/alpha/padding are mutually exclusive.
type ComponentFlags uint8

const (
	CompLuma ComponentFlags = 1 << iota
	CompChroma
	CompAlpha
	CompPadding
)

// Component names a single channel of a ColorModel, such as "R", "Y", or
// "alpha", along with its semantic role.
type Component struct {
	ID    uint32
	Name  string
	Flags ComponentFlags
}

// NewComponent constructs a Component with the given semantic flags.
// Callers that want one of the standard RGB/Y'CbCr/CMYK/Oklab channels
// should use the Comp* vars instead.
func NewComponent(name string, flags ComponentFlags) *Component {
	return &Component{Name: name, Flags: flags}
}

func (c *Component) IsAlpha() bool   { return c.Flags&CompAlpha != 0 }
func (c *Component) IsPadding() bool { return c.Flags&CompPadding != 0 }
func (c *Component) IsLuma() bool    { return c.Flags&CompLuma != 0 }
func (c *Component) IsChroma() bool  { return c.Flags&CompChroma != 0 }

func (c *Component) Fingerprint() string {
	return fmtFingerprint("component", c.Name, uint8(c.Flags))
}
