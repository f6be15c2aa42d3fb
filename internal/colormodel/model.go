package colormodel

import "sync"

// ModelFlags captures the semantic tags attached to a ColorModel.
type ModelFlags uint16

const (
	FlagRGB ModelFlags = 1 << iota
	FlagGray
	FlagCMYK
	FlagCIE
	FlagLinear
	FlagNonlinear
	FlagPerceptual
	FlagInverted
	FlagAssociated // premultiplied
	FlagAlpha      // alpha channel present
)

// Model is a ColorModel: an ordered list of components carrying a
// semantic tag, optionally rebased onto a particular Space.
type Model struct {
	ID         uint32
	Name       string
	Components []*Component
	Flags      ModelFlags
	Base       *Model // non-nil for a space-rebased clone
	Space      *Space

	rebaseMu    sync.Mutex
	rebaseCache map[*Space]*Model // canonical model only: cap 512
}

// NewModel constructs a canonical (non-rebased) Model from an ordered
// component list and semantic flags. space may be nil for an abstract
// model not yet tied to any color space.
func NewModel(name string, components []*Component, flags ModelFlags, space *Space) *Model {
	return &Model{Name: name, Components: components, Flags: flags, Space: space}
}

func (m *Model) HasFlag(f ModelFlags) bool { return m.Flags&f != 0 }

// HasAlpha reports whether any component of the model carries the alpha
// role (independent of FlagAlpha bookkeeping, which should agree).
func (m *Model) HasAlpha() bool {
	for _, c := range m.Components {
		if c.IsAlpha() {
			return true
		}
	}
	return false
}

// IsCanonical reports whether m is a root model (not itself a space
// rebasing of another model).
func (m *Model) IsCanonical() bool { return m.Base == nil }

// Canonical returns the root model this one was rebased from, or m itself
// if it is already canonical.
func (m *Model) Canonical() *Model {
	if m.Base != nil {
		return m.Base
	}
	return m
}

const rebaseCacheCap = 512

// RebasedOn returns a Model identical to m's component list and flags but
// attached to the given Space. If space is m's own Space already, m is
// returned unchanged. Clones are cached per canonical model (cap 512);
// once full, further requests still construct a transient (uncached)
// clone rather than erroring, since correctness must never depend on
// cache capacity.
func (m *Model) RebasedOn(space *Space) *Model {
	canon := m.Canonical()
	if canon.Space == space || space == nil {
		return canon
	}

	canon.rebaseMu.Lock()
	defer canon.rebaseMu.Unlock()

	if canon.rebaseCache == nil {
		canon.rebaseCache = make(map[*Space]*Model)
	}
	if existing, ok := canon.rebaseCache[space]; ok {
		return existing
	}

	clone := &Model{
		Name:       canon.Name + "-rebased",
		Components: canon.Components,
		Flags:      canon.Flags,
		Base:       canon,
		Space:      space,
	}
	if len(canon.rebaseCache) < rebaseCacheCap {
		canon.rebaseCache[space] = clone
	}
	return clone
}

func (m *Model) Fingerprint() string {
	names := make([]any, 0, len(m.Components)+1)
	names = append(names, uint16(m.Flags))
	for _, c := range m.Components {
		names = append(names, c.Name)
	}
	return fmtFingerprint("model", names...)
}
