package colormodel

import "math"

// This file builds the small set of canonical entities the rest of the
// repository exercises by default: numeric types, components, the sRGB
// and linear-light RGB spaces, Oklab, Rec.601-ish Y'CbCr, CMYK, and Gray
// models — generalizing a single hard-coded color pipeline into a small
// registry of interchangeable ones.

// Standard numeric types.
var (
	TypeU8     = &NumericType{Name: "u8", BitWidth: 8, Min: 0, Max: 255}
	TypeU16    = &NumericType{Name: "u16", BitWidth: 16, Min: 0, Max: 65535}
	TypeU32    = &NumericType{Name: "u32", BitWidth: 32, Min: 0, Max: 4294967295}
	TypeFloat  = &NumericType{Name: "float", BitWidth: 32, Float: true, Min: -math.MaxFloat32, Max: math.MaxFloat32}
	TypeDouble = &NumericType{Name: "double", BitWidth: 64, Float: true, Min: -math.MaxFloat64, Max: math.MaxFloat64}
	TypeHalf   = &NumericType{Name: "half", BitWidth: 16, Float: true, Min: -65504, Max: 65504}
)

// Standard components.
var (
	CompR     = &Component{Name: "R"}
	CompG     = &Component{Name: "G"}
	CompB     = &Component{Name: "B"}
	CompA     = &Component{Name: "A", Flags: CompAlpha}
	CompY     = &Component{Name: "Y", Flags: CompLuma}
	CompCb    = &Component{Name: "Cb", Flags: CompChroma}
	CompCr    = &Component{Name: "Cr", Flags: CompChroma}
	CompGray  = &Component{Name: "Gray", Flags: CompLuma}
	CompC     = &Component{Name: "C"}
	CompM     = &Component{Name: "M"}
	CompYk    = &Component{Name: "Yk"}
	CompK     = &Component{Name: "K"}
	CompOkL   = &Component{Name: "Ok L", Flags: CompLuma}
	CompOkA   = &Component{Name: "Ok a", Flags: CompChroma}
	CompOkB   = &Component{Name: "Ok b", Flags: CompChroma}
)

// D65 white point (sRGB, BT.709, Oklab's reference).
var WhiteD65 = Chromaticity{X: 0.3127, Y: 0.3290}

// BT.709 / sRGB primaries.
var PrimariesSRGB = [3]Chromaticity{
	{X: 0.6400, Y: 0.3300}, // R
	{X: 0.3000, Y: 0.6000}, // G
	{X: 0.1500, Y: 0.0600}, // B
}

// SpaceSRGB is the canonical sRGB space: sRGB primaries, D65 white,
// sRGB TRC on all three channels.
var SpaceSRGB = func() *Space {
	trc := NewSRGBCanonicalTRC()
	return NewSpace("sRGB", WhiteD65, PrimariesSRGB, [3]*TRC{trc, trc, trc})
}()

// SpaceSRGBLinear is sRGB's primaries/white point with a linear TRC —
// "scRGB"-style linear-light sRGB.
var SpaceSRGBLinear = func() *Space {
	lin := NewLinearTRC()
	return NewSpace("sRGB-linear", WhiteD65, PrimariesSRGB, [3]*TRC{lin, lin, lin})
}()

// ModelRGB is the canonical (nonlinear, non-premultiplied) RGB model.
var ModelRGB = &Model{
	Name:       "R'G'B'",
	Components: []*Component{CompR, CompG, CompB},
	Flags:      FlagRGB | FlagNonlinear,
	Space:      SpaceSRGB,
}

// ModelRGBA adds an alpha channel to ModelRGB.
var ModelRGBA = &Model{
	Name:       "R'G'B'A",
	Components: []*Component{CompR, CompG, CompB, CompA},
	Flags:      FlagRGB | FlagNonlinear | FlagAlpha,
	Space:      SpaceSRGB,
}

// ModelRGBALinear is the canonical linear-light RGBA model used as the
// universal intermediate the reference converter funnels through.
var ModelRGBALinear = &Model{
	Name:       "RGBA",
	Components: []*Component{CompR, CompG, CompB, CompA},
	Flags:      FlagRGB | FlagLinear | FlagAlpha,
	Space:      SpaceSRGBLinear,
}

// ModelRGBAAssociated is premultiplied-alpha RGBA.
var ModelRGBAAssociated = &Model{
	Name:       "RaGaBaA",
	Components: []*Component{CompR, CompG, CompB, CompA},
	Flags:      FlagRGB | FlagNonlinear | FlagAlpha | FlagAssociated,
	Space:      SpaceSRGB,
}

// ModelGray is a single-channel grayscale model.
var ModelGray = &Model{
	Name:       "Y'",
	Components: []*Component{CompGray},
	Flags:      FlagGray | FlagNonlinear,
	Space:      SpaceSRGB,
}

// ModelYCbCr is BT.601-style luma/chroma, matching sharpyuv's default
// Kr/Kb coefficients (see RGBToYCbCrMatrix).
var ModelYCbCr = &Model{
	Name:       "Y'CbCr",
	Components: []*Component{CompY, CompCb, CompCr},
	Flags:      FlagNonlinear,
	Space:      SpaceSRGB,
}

// ModelCMYK is subtractive CMYK.
var ModelCMYK = &Model{
	Name:       "CMYK",
	Components: []*Component{CompC, CompM, CompYk, CompK},
	Flags:      FlagCMYK | FlagNonlinear,
	Space:      SpaceSRGB,
}

// ModelCMYKA is CMYK plus alpha — the canonical "cmykA" intermediate
// CMYK conversions route through.
var ModelCMYKA = &Model{
	Name:       "cmykA",
	Components: []*Component{CompC, CompM, CompYk, CompK, CompA},
	Flags:      FlagCMYK | FlagNonlinear | FlagAlpha,
	Space:      SpaceSRGB,
}

// ModelOklab is Björn Ottosson's perceptually-uniform Oklab space,
// built from the M1/M2 matrices below.
var ModelOklab = &Model{
	Name:       "Oklab",
	Components: []*Component{CompOkL, CompOkA, CompOkB},
	Flags:      FlagCIE | FlagLinear,
	Space:      SpaceSRGBLinear,
}

// oklabM1 is the XYZ->LMS matrix and oklabM2 the LMS'->Lab matrix from
// Ottosson's paper, as used by the retrieved Oklab extension.
var (
	oklabM1 = Mat3{
		+0.8189330101, +0.3618667424, -0.1288597137,
		+0.0329845436, +0.9293118715, +0.0361456387,
		+0.0482003018, +0.2643662691, +0.6338517070,
	}
	oklabM2 = Mat3{
		+0.2104542553, +0.7936177850, -0.0040720468,
		+1.9779984951, -2.4285922050, +0.4505937099,
		+0.0259040371, +0.7827717662, -0.8086757660,
	}
	oklabM1Inv = oklabM1.Invert()
	oklabM2Inv = oklabM2.Invert()
)

// XYZToOklab converts a D65 XYZ triple to Oklab.
func XYZToOklab(xyz [3]float64) [3]float64 {
	lms := oklabM1.MulVec3(xyz)
	for i := range lms {
		lms[i] = math.Cbrt(lms[i])
	}
	return oklabM2.MulVec3(lms)
}

// OklabToXYZ converts an Oklab triple back to D65 XYZ.
func OklabToXYZ(lab [3]float64) [3]float64 {
	lms := oklabM2Inv.MulVec3(lab)
	for i := range lms {
		lms[i] = lms[i] * lms[i] * lms[i]
	}
	return oklabM1Inv.MulVec3(lms)
}

// YCbCrCoeffs are the luma coefficients (Kr, Kb) a Y'CbCr model derives
// its matrix from; Kg = 1 - Kr - Kb.
type YCbCrCoeffs struct {
	Kr, Kb float64
}

// BT601Coeffs and BT709Coeffs mirror sharpyuv's predefined ColorSpace
// constants, generalized from WebP's fixed 8-bit matrices into a
// resolution-independent float matrix usable at any NumericType.
var (
	BT601Coeffs = YCbCrCoeffs{Kr: 0.2990, Kb: 0.1140}
	BT709Coeffs = YCbCrCoeffs{Kr: 0.2126, Kb: 0.0722}
)

// RGBToYCbCrMatrix builds the full-range, unscaled [0,1]-domain RGB->Y'CbCr
// matrix for the given coefficients: Y in [0,1], Cb/Cr signed in
// [-0.5, 0.5]. The float/double Y'CbCr models carry Cb/Cr zero-centered
// as-is; only an integer encoding needs the familiar +0.5 bias, and that
// belongs in the codec layer, not here. This is the floating-point
// analog of sharpyuv's ComputeConversionMatrix, generalized away from
// its 16-bit fixed-point, 8/10/12-bit-depth-specific encoding.
func RGBToYCbCrMatrix(c YCbCrCoeffs) Mat3 {
	kr, kb := c.Kr, c.Kb
	kg := 1 - kr - kb
	cb := 0.5 / (1 - kb)
	cr := 0.5 / (1 - kr)
	return Mat3{
		kr, kg, kb,
		-kr * cb, -kg * cb, (1 - kb) * cb,
		(1 - kr) * cr, -kg * cr, -kb * cr,
	}
}
