package pixelfish

import (
	"github.com/deepteams/pixelfish/internal/colormodel"
	"github.com/deepteams/pixelfish/internal/convgraph"
)

// Functional-option constructors for every entity class (id, name,
// packed, planar, model flags, data, allow-collision,
// linear|plane|planar+fn) as ordinary Go options instead of a
// keyword-argument table. Every entity constructor other than
// NewConversion interns its result into the default Context, so a second
// call with the same name returns the first instance; NewConversion
// registers a new edge on every call unless AllowCollision is given.

// TypeOption configures NewType.
type TypeOption func(*typeSpec)

type typeSpec struct {
	name     string
	bitWidth int
	float    bool
	min, max float64
}

func TypeName(name string) TypeOption     { return func(s *typeSpec) { s.name = name } }
func TypeBitWidth(bits int) TypeOption    { return func(s *typeSpec) { s.bitWidth = bits } }
func TypeIsFloat(float bool) TypeOption   { return func(s *typeSpec) { s.float = float } }
func TypeRange(min, max float64) TypeOption {
	return func(s *typeSpec) { s.min, s.max = min, max }
}

// NewType interns a new NumericType built from opts. Use the well-known
// TypeU8/TypeU16/.../TypeDouble instead for any of the six standard
// storage types.
func NewType(opts ...TypeOption) *NumericType {
	var s typeSpec
	for _, o := range opts {
		o(&s)
	}
	t := colormodel.NewType(s.name, s.bitWidth, s.float, s.min, s.max)
	return ensureContext().types.Insert(t)
}

// ComponentOption configures NewComponent.
type ComponentOption func(*componentSpec)

type componentSpec struct {
	name  string
	flags ComponentFlags
}

func CompName(name string) ComponentOption { return func(s *componentSpec) { s.name = name } }
func CompRole(flags ComponentFlags) ComponentOption {
	return func(s *componentSpec) { s.flags = flags }
}

// NewComponent interns a new Component built from opts.
func NewComponent(opts ...ComponentOption) *Component {
	var s componentSpec
	for _, o := range opts {
		o(&s)
	}
	c := colormodel.NewComponent(s.name, s.flags)
	return ensureContext().components.Insert(c)
}

// ModelOption configures NewModel.
type ModelOption func(*modelSpec)

type modelSpec struct {
	name       string
	components []*Component
	flags      ModelFlags
	space      *Space
}

func ModelName(name string) ModelOption { return func(s *modelSpec) { s.name = name } }
func ModelComponents(comps ...*Component) ModelOption {
	return func(s *modelSpec) { s.components = comps }
}
func ModelWithFlags(flags ModelFlags) ModelOption {
	return func(s *modelSpec) { s.flags = flags }
}
func ModelInSpace(space *Space) ModelOption { return func(s *modelSpec) { s.space = space } }

// NewModel interns a new Model built from opts.
func NewModel(opts ...ModelOption) *Model {
	var s modelSpec
	for _, o := range opts {
		o(&s)
	}
	m := colormodel.NewModel(s.name, s.components, s.flags, s.space)
	return ensureContext().models.Insert(m)
}

// SpaceOption configures NewSpace.
type SpaceOption func(*spaceSpec)

type spaceSpec struct {
	name      string
	white     Chromaticity
	primaries [3]Chromaticity
	trcs      [3]*TRC
}

func SpaceName(name string) SpaceOption { return func(s *spaceSpec) { s.name = name } }
func SpaceWhitePoint(white Chromaticity) SpaceOption {
	return func(s *spaceSpec) { s.white = white }
}
func SpacePrimaries(primaries [3]Chromaticity) SpaceOption {
	return func(s *spaceSpec) { s.primaries = primaries }
}
func SpaceTRCs(r, g, b *TRC) SpaceOption {
	return func(s *spaceSpec) { s.trcs = [3]*TRC{r, g, b} }
}

// NewSpace interns a new Space built from opts, deriving its RGB<->XYZ
// matrices from the given white point and primaries.
func NewSpace(opts ...SpaceOption) *Space {
	var s spaceSpec
	for _, o := range opts {
		o(&s)
	}
	sp := colormodel.NewSpace(s.name, s.white, s.primaries, s.trcs)
	return ensureContext().spaces.Insert(sp)
}

// FormatOption configures NewFormat.
type FormatOption func(*formatSpec)

type formatSpec struct {
	name    string
	space   *Space
	model   *Model
	comps   []FormatComponent
	planar  bool
	generic bool
}

func FormatName(name string) FormatOption { return func(s *formatSpec) { s.name = name } }
func FormatSpace(space *Space) FormatOption { return func(s *formatSpec) { s.space = space } }
func FormatModel(model *Model) FormatOption { return func(s *formatSpec) { s.model = model } }
func FormatComponents(comps ...FormatComponent) FormatOption {
	return func(s *formatSpec) { s.comps = comps }
}
func FormatPlanar(planar bool) FormatOption { return func(s *formatSpec) { s.planar = planar } }

// FormatGeneric marks the format as the "n-component generic"
// destination internal/refconv.Convert short-circuits into with a
// positional per-component copy rather than a model-aware transform.
func FormatGeneric(generic bool) FormatOption {
	return func(s *formatSpec) { s.generic = generic }
}

// NewFormat interns a new PixelFormat built from opts.
func NewFormat(opts ...FormatOption) *PixelFormat {
	var s formatSpec
	for _, o := range opts {
		o(&s)
	}
	f := colormodel.NewFormat(s.name, s.space, s.model, s.comps, s.planar)
	f.Generic = s.generic
	return ensureContext().formats.Insert(f)
}

// ConversionKind mirrors convgraph.Kind — the three function-pointer
// shapes a registered Conversion's implementation may take.
type ConversionKind = int

const (
	ConversionLinear ConversionKind = iota
	ConversionPlane
	ConversionPlanar
)

// ConversionOption configures NewConversion.
type ConversionOption func(*conversionSpec)

type conversionSpec struct {
	name           string
	allowCollision bool
}

func ConversionName(name string) ConversionOption {
	return func(s *conversionSpec) { s.name = name }
}

// AllowCollision, when set, returns an existing (src, dst, kind) edge
// instead of registering a duplicate.
func AllowCollision() ConversionOption {
	return func(s *conversionSpec) { s.allowCollision = true }
}

// NewConversion registers a new Conversion edge from src to dst (each
// either a *Model or a *PixelFormat) in the default Context's graph. fn
// must match kind: LinearFunc for ConversionLinear, PlaneFunc for
// ConversionPlane, PlanarFunc for ConversionPlanar (see
// internal/convgraph's corresponding exported function types).
func NewConversion(src, dst Entity, kind ConversionKind, fn any, opts ...ConversionOption) *Conversion {
	var s conversionSpec
	for _, o := range opts {
		o(&s)
	}
	ctx := ensureContext()
	return ctx.graph.Register(src, dst, graphKind(kind), fn, convgraph.RegisterOpts{
		Name:           s.name,
		AllowCollision: s.allowCollision,
	})
}

func graphKind(k ConversionKind) convgraph.Kind {
	switch k {
	case ConversionPlane:
		return convgraph.Plane
	case ConversionPlanar:
		return convgraph.Planar
	default:
		return convgraph.Linear
	}
}
