package colormodel

import (
	"fmt"
	"sync/atomic"
)

// formatIndexCounter hands out the dense, stable PixelFormat.Index values
// internal/pathsearch's caller-local visited bitmap is keyed on. Assigned
// at construction time, which for every PixelFormat this package or its
// callers produce is also its interning time: NewFormat/WithSpace are the
// only constructors, and each call yields the one instance that gets
// registered (or, for unregistered synthetic formats, the one instance
// ever used).
var formatIndexCounter uint64

func nextFormatIndex() int {
	return int(atomic.AddUint64(&formatIndexCounter, 1))
}

// FormatComponent pairs a Component with its storage type and subsampling
// factors within a PixelFormat.
type FormatComponent struct {
	Component  *Component
	Type       *NumericType
	HSampling  int
	VSampling  int
}

// PixelFormat is the concrete byte-level layout: a Space, a ColorModel
// (possibly rebased onto that Space), and a per-component (type, sampling)
// list.
type PixelFormat struct {
	ID    uint32
	Name  string
	Space *Space
	Model *Model

	Components    []FormatComponent
	Planar        bool
	BytesPerPixel int

	// Index is a dense, stable identifier assigned at interning time.
	// The path search (internal/pathsearch) uses it to index a
	// caller-local visited bitmap instead of mutating a field shared
	// across concurrent searches (DESIGN NOTES #1 / REDESIGN FLAGS).
	Index int

	lossMetric    float64
	lossMetricSet bool

	Generic bool // the "n-component generic" format

	// Scratch is a reusable descriptor handle for transient Image
	// buffers built during reference conversion. Left untyped here;
	// internal/refconv owns the concrete type.
	Scratch any
}

// NewFormat constructs a PixelFormat. Components the format carries that
// the model's component list lacks are kept as given; MissingComponents
// lists them, and conversion fills them with NeutralDefault (0 for
// ordinary channels, 1 for alpha).
func NewFormat(name string, space *Space, model *Model, comps []FormatComponent, planar bool) *PixelFormat {
	rebased := model
	if space != nil {
		rebased = model.RebasedOn(space)
	}
	bpp := 0
	if !planar {
		for _, c := range comps {
			bpp += c.Type.BitWidth / 8
		}
	}
	return &PixelFormat{
		Name:          name,
		Space:         space,
		Model:         rebased,
		Components:    comps,
		Planar:        planar,
		BytesPerPixel: bpp,
		Index:         nextFormatIndex(),
	}
}

// NeutralDefault returns the fill value a format should synthesize for a
// component its Model does not carry: 1 for alpha, 0 otherwise.
func NeutralDefault(c *Component) float64 {
	if c.IsAlpha() {
		return 1
	}
	return 0
}

// MissingComponents returns the components this format carries that are
// absent from its Model's component list — these get the neutral-default
// treatment on conversion.
func (f *PixelFormat) MissingComponents() []*Component {
	have := make(map[*Component]bool, len(f.Model.Components))
	for _, c := range f.Model.Components {
		have[c] = true
	}
	var missing []*Component
	for _, fc := range f.Components {
		if !have[fc.Component] {
			missing = append(missing, fc.Component)
		}
	}
	return missing
}

// LossMetric reports (and lazily computes/caches) a coarse numeric-loss
// score for this format: lower bit depth and fewer components cost more.
// Used by the path search's "aesthetic prune" as a cheap proxy without
// needing a full measurement.
func (f *PixelFormat) LossMetric() float64 {
	if f.lossMetricSet {
		return f.lossMetric
	}
	bits := 0
	for _, c := range f.Components {
		bits += c.Type.BitWidth
	}
	f.lossMetric = 1.0 / (float64(bits) * float64(len(f.Components)+1))
	f.lossMetricSet = true
	return f.lossMetric
}

// WithSpace builds a space-rebased copy of this format named
// "<base>-<space>". It neither looks up nor registers anything; the
// registry owns the actual lookup-or-insert of the candidate.
func (f *PixelFormat) WithSpace(space *Space) *PixelFormat {
	name := fmt.Sprintf("%s-%s", f.Name, space.Name)
	return &PixelFormat{
		Name:          name,
		Space:         space,
		Model:         f.Model.RebasedOn(space),
		Components:    f.Components,
		Planar:        f.Planar,
		BytesPerPixel: f.BytesPerPixel,
		Generic:       f.Generic,
		Index:         nextFormatIndex(),
	}
}

func (f *PixelFormat) Fingerprint() string {
	parts := make([]any, 0, len(f.Components)*3+3)
	if f.Space != nil {
		parts = append(parts, f.Space.Fingerprint())
	}
	parts = append(parts, f.Model.Fingerprint(), f.Planar)
	for _, c := range f.Components {
		parts = append(parts, c.Component.Name, c.Type.Fingerprint(), c.HSampling, c.VSampling)
	}
	return fmtFingerprint("format", parts...)
}
