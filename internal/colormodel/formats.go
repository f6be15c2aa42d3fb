package colormodel

// allDouble builds a packed FormatComponent list from a Model's own
// components, every one stored as TypeDouble — the shape every
// canonical "<model>-double" format and convgraph's Model-registration
// companion format share.
func allDouble(components []*Component) []FormatComponent {
	out := make([]FormatComponent, len(components))
	for i, c := range components {
		out[i] = FormatComponent{Component: c, Type: TypeDouble}
	}
	return out
}

// Canonical double-precision formats, one per well-known Model. These
// are the endpoints the root package registers its representative core
// set of fast-path Conversions between (internal/convgraph edges wired
// at Init), and what internal/refconv's reference pipeline ultimately
// narrows through.
var (
	FormatRGBADouble           = NewFormat("RGBA double", SpaceSRGBLinear, ModelRGBALinear, allDouble(ModelRGBALinear.Components), false)
	FormatRGBDouble            = NewFormat("R'G'B' double", SpaceSRGB, ModelRGB, allDouble(ModelRGB.Components), false)
	FormatRGBAEncodedDouble    = NewFormat("R'G'B'A double", SpaceSRGB, ModelRGBA, allDouble(ModelRGBA.Components), false)
	FormatRGBAAssociatedDouble = NewFormat("R'aG'aB'aA double", SpaceSRGB, ModelRGBAAssociated, allDouble(ModelRGBAAssociated.Components), false)
	FormatGrayDouble           = NewFormat("Y' double", SpaceSRGB, ModelGray, allDouble(ModelGray.Components), false)
	FormatYCbCrDouble          = NewFormat("Y'CbCr double", SpaceSRGB, ModelYCbCr, allDouble(ModelYCbCr.Components), false)
	FormatCMYKADouble          = NewFormat("cmykA double", SpaceSRGB, ModelCMYKA, allDouble(ModelCMYKA.Components), false)
	FormatOklabDouble          = NewFormat("Oklab double", SpaceSRGBLinear, ModelOklab, allDouble(ModelOklab.Components), false)
)

// allFloat mirrors allDouble at TypeFloat, for the 32-bit-float
// canonical formats below.
func allFloat(components []*Component) []FormatComponent {
	out := make([]FormatComponent, len(components))
	for i, c := range components {
		out[i] = FormatComponent{Component: c, Type: TypeFloat}
	}
	return out
}

// RGBA float and R'G'B'A u16 are part of the representative set callers
// exercise directly (not just the double-precision canonical bridges
// above): the former is linear light at 32-bit float precision, the
// latter is encoded RGBA at 16-bit integer precision.
var (
	FormatRGBAFloat = NewFormat("RGBA float", SpaceSRGBLinear, ModelRGBALinear, allFloat(ModelRGBALinear.Components), false)
	FormatRGBAu16   = NewFormat("R'G'B'A u16", SpaceSRGB, ModelRGBA, []FormatComponent{
		{Component: CompR, Type: TypeU16},
		{Component: CompG, Type: TypeU16},
		{Component: CompB, Type: TypeU16},
		{Component: CompA, Type: TypeU16},
	}, false)
)

// A handful of 8-bit packed formats for the common byte-level case
// (image buffers most callers actually hold), wired to the same models
// as their double counterparts above.
var (
	FormatRGBu8 = NewFormat("R'G'B' u8", SpaceSRGB, ModelRGB, []FormatComponent{
		{Component: CompR, Type: TypeU8},
		{Component: CompG, Type: TypeU8},
		{Component: CompB, Type: TypeU8},
	}, false)
	FormatRGBAu8 = NewFormat("R'G'B'A u8", SpaceSRGB, ModelRGBA, []FormatComponent{
		{Component: CompR, Type: TypeU8},
		{Component: CompG, Type: TypeU8},
		{Component: CompB, Type: TypeU8},
		{Component: CompA, Type: TypeU8},
	}, false)
	FormatRGBAAssociatedU8 = NewFormat("R'aG'aB'aA u8", SpaceSRGB, ModelRGBAAssociated, []FormatComponent{
		{Component: CompR, Type: TypeU8},
		{Component: CompG, Type: TypeU8},
		{Component: CompB, Type: TypeU8},
		{Component: CompA, Type: TypeU8},
	}, false)
	FormatGrayU8 = NewFormat("Y' u8", SpaceSRGB, ModelGray, []FormatComponent{
		{Component: CompGray, Type: TypeU8},
	}, false)
	FormatGrayAlphaU8 = NewFormat("Y'A u8", SpaceSRGB, NewModel("Y'A", []*Component{CompGray, CompA}, FlagGray|FlagNonlinear|FlagAlpha, SpaceSRGB), []FormatComponent{
		{Component: CompGray, Type: TypeU8},
		{Component: CompA, Type: TypeU8},
	}, false)
	FormatCMYKu8 = NewFormat("CMYK u8", SpaceSRGB, ModelCMYK, []FormatComponent{
		{Component: CompC, Type: TypeU8},
		{Component: CompM, Type: TypeU8},
		{Component: CompYk, Type: TypeU8},
		{Component: CompK, Type: TypeU8},
	}, false)
)
