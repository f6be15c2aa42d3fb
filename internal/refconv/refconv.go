// Package refconv implements the reference converter: the slow,
// always-correct conversion every error measurement is judged against.
// It routes any (source, destination) pixel format pair through a
// canonical intermediate — RGBA or cmykA, always in float64 — handling
// component reordering, missing-component synthesis, CMYK ink-coverage
// pullout, XYZ matrix composition between differing color spaces, and
// the Gray/Y'CbCr/Oklab model transforms those formats need to reach
// RGBA at all.
package refconv

import (
	"sync"

	"github.com/deepteams/pixelfish/internal/colormodel"
)

// Image is the minimal buffer descriptor the reference converter (and,
// eventually, the dispatch shim in internal/convgraph) operates on: a
// flat, pixel-interleaved float64 slice, n pixels wide, in a known Model.
// Planar sources/destinations are represented as one Image per plane by
// the caller; refconv itself never needs to know about planarity since
// it always expands through a packed canonical intermediate.
type Image struct {
	Model *colormodel.Model
	Data  []float64 // len == n * len(Model.Components)
	N     int
}

// scratchMu serializes the CMYK routing step (throughCMYKA) of
// reference conversions.
var scratchMu sync.Mutex

// Convert runs the full reference pipeline, writing n pixels of encoded
// srcBuf (in srcFmt) into dstBuf (in dstFmt). Buffers are raw, pixel-
// interleaved float64 slices; callers owning integer-typed storage are
// responsible for the final quantization step (this package works
// entirely in normalized [0,1]-per-component float space).
func Convert(srcFmt, dstFmt *colormodel.PixelFormat, srcBuf []float64, n int) []float64 {
	if srcFmt == dstFmt {
		out := make([]float64, len(srcBuf))
		copy(out, srcBuf)
		return out
	}

	// Identical model+space: every component already carries the right
	// semantic value in the right order, so only storage type/sampling
	// differs — which this package never encodes (refconv always works
	// in normalized float64; internal/colormodel's codec handles the
	// byte-level difference). The conversion is a verbatim copy.
	if srcFmt.Model == dstFmt.Model && sameFormatComponentOrder(srcFmt.Components, dstFmt.Components) {
		out := make([]float64, len(srcBuf))
		copy(out, srcBuf)
		return out
	}

	// The n-component generic format accepts whatever the source
	// produces positionally, with no model-aware remapping.
	if dstFmt.Generic {
		return bulkCopyPerComponent(srcFmt, dstFmt, srcBuf, n)
	}

	canon := expand(srcFmt, srcBuf, n)
	// curComps tracks canon's current per-pixel component layout, since
	// the CMYK and XYZ-matrix branches below may reshape it away from
	// srcFmt.Model's own order/count (e.g. CMYK -> RGBA via cmykaToRGBA).
	curComps := srcFmt.Model.Components

	if srcFmt.Model.HasFlag(colormodel.FlagAssociated) {
		canon = unpremultiply(curComps, canon, n)
	}

	// Linear light is the only domain XYZ matrices and CMYK ink-coverage
	// routing are valid in; delinearize again on the way out.
	if isRGBFamily(srcFmt.Model) && srcFmt.Model.HasFlag(colormodel.FlagNonlinear) && srcFmt.Space != nil {
		linearizeRGB(srcFmt.Space, len(curComps), canon, n)
	}

	if srcFmt.Model.HasFlag(colormodel.FlagCMYK) || dstFmt.Model.HasFlag(colormodel.FlagCMYK) {
		canon = throughCMYKA(srcFmt, dstFmt, canon, n)
		curComps = cmykaThroughComponents(srcFmt, dstFmt)
	} else if isColorimetric(srcFmt.Model) || isColorimetric(dstFmt.Model) {
		canon, curComps = throughColorimetric(srcFmt, dstFmt, curComps, canon, n)
	} else if isRGBFamily(srcFmt.Model) && isRGBFamily(dstFmt.Model) && srcFmt.Space != nil && dstFmt.Space != nil && srcFmt.Space != dstFmt.Space {
		canon = applyXYZMatrix(srcFmt.Space, dstFmt.Space, canon, n)
	}

	// Reconcile whatever component set canon currently carries to
	// dstFmt.Model's set before delinearizing/narrowing: a same-family
	// model change (e.g. RGB -> RGBA) never reshapes canon on its own.
	if len(curComps) != len(dstFmt.Model.Components) || !sameComponents(curComps, dstFmt.Model.Components) {
		canon = remapComponents(curComps, dstFmt.Model.Components, canon, n)
	}

	if isRGBFamily(dstFmt.Model) && dstFmt.Model.HasFlag(colormodel.FlagNonlinear) && dstFmt.Space != nil {
		delinearizeRGB(dstFmt.Space, len(dstFmt.Model.Components), canon, n)
	}

	if dstFmt.Model.HasFlag(colormodel.FlagAssociated) {
		canon = premultiply(dstFmt.Model.Components, canon, n)
	}

	return narrow(dstFmt, canon, n)
}

// AlphaFloor is the minimum alpha unpremultiply treats as nonzero.
// Alphas at or below it are left as-is rather than divided out: dividing
// by a near-zero alpha would blow up the recovered RGB well past any
// useful tolerance.
const AlphaFloor = 1.0 / 255.0

func findComponentIndex(comps []*colormodel.Component, target *colormodel.Component) int {
	for i, c := range comps {
		if c == target {
			return i
		}
	}
	return -1
}

// unpremultiply divides every non-alpha component by the pixel's alpha,
// recovering straight (unassociated) values from associated ones.
func unpremultiply(comps []*colormodel.Component, canon []float64, n int) []float64 {
	ai := findComponentIndex(comps, colormodel.CompA)
	if ai < 0 {
		return canon
	}
	stride := len(comps)
	out := make([]float64, len(canon))
	copy(out, canon)
	for p := 0; p < n; p++ {
		a := out[p*stride+ai]
		if a <= AlphaFloor {
			continue
		}
		for i := range comps {
			if i == ai {
				continue
			}
			out[p*stride+i] /= a
		}
	}
	return out
}

// premultiply is unpremultiply's inverse: every non-alpha component
// scaled by the pixel's alpha.
func premultiply(comps []*colormodel.Component, canon []float64, n int) []float64 {
	ai := findComponentIndex(comps, colormodel.CompA)
	if ai < 0 {
		return canon
	}
	stride := len(comps)
	out := make([]float64, len(canon))
	copy(out, canon)
	for p := 0; p < n; p++ {
		a := out[p*stride+ai]
		if a <= AlphaFloor {
			continue
		}
		for i := range comps {
			if i == ai {
				continue
			}
			out[p*stride+i] *= a
		}
	}
	return out
}

// cmykaThroughComponents reports the component layout throughCMYKA leaves
// canon in, which depends on which side(s) of the conversion are CMYK.
func cmykaThroughComponents(srcFmt, dstFmt *colormodel.PixelFormat) []*colormodel.Component {
	srcIsCMYK := srcFmt.Model.HasFlag(colormodel.FlagCMYK)
	dstIsCMYK := dstFmt.Model.HasFlag(colormodel.FlagCMYK)
	switch {
	case srcIsCMYK && dstIsCMYK:
		return srcFmt.Model.Components
	case srcIsCMYK && !dstIsCMYK:
		return []*colormodel.Component{colormodel.CompR, colormodel.CompG, colormodel.CompB, colormodel.CompA}
	case !srcIsCMYK && dstIsCMYK:
		return []*colormodel.Component{colormodel.CompC, colormodel.CompM, colormodel.CompYk, colormodel.CompK, colormodel.CompA}
	default:
		return srcFmt.Model.Components
	}
}

// sameFormatComponentOrder reports whether two formats list the same
// components in the same order (storage type/sampling may still
// differ — that's a byte-codec concern, not this package's).
func sameFormatComponentOrder(a, b []colormodel.FormatComponent) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Component != b[i].Component {
			return false
		}
	}
	return true
}

// bulkCopyPerComponent copies min(len(srcComponents), len(dstComponents))
// positional slots per pixel, padding any extra destination components
// with their neutral default and dropping any extra source ones.
func bulkCopyPerComponent(srcFmt, dstFmt *colormodel.PixelFormat, srcBuf []float64, n int) []float64 {
	srcStride := len(srcFmt.Components)
	dstStride := len(dstFmt.Components)
	out := make([]float64, n*dstStride)
	for p := 0; p < n; p++ {
		for di, fc := range dstFmt.Components {
			if di < srcStride {
				out[p*dstStride+di] = srcBuf[p*srcStride+di]
			} else {
				out[p*dstStride+di] = colormodel.NeutralDefault(fc.Component)
			}
		}
	}
	return out
}

func sameComponents(a, b []*colormodel.Component) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// linearizeRGB replaces each pixel's R,G,B slots (the first three
// entries of every stride-wide record, per the fixed component order
// every well-known RGB/CMYK model uses) with their linear-light values
// via the space's per-channel TRC.
func linearizeRGB(space *colormodel.Space, stride int, canon []float64, n int) {
	for p := 0; p < n; p++ {
		for k := 0; k < 3; k++ {
			idx := p*stride + k
			canon[idx] = space.TRCs[k].ToLinear(canon[idx])
		}
	}
}

// delinearizeRGB is linearizeRGB's inverse: linear light back to the
// space's encoded representation.
func delinearizeRGB(space *colormodel.Space, stride int, canon []float64, n int) {
	for p := 0; p < n; p++ {
		for k := 0; k < 3; k++ {
			idx := p*stride + k
			canon[idx] = space.TRCs[k].FromLinear(canon[idx])
		}
	}
}

func isRGBFamily(m *colormodel.Model) bool {
	return m.HasFlag(colormodel.FlagRGB)
}

func isGrayModel(m *colormodel.Model) bool  { return m.HasFlag(colormodel.FlagGray) }
func isYCbCrModel(m *colormodel.Model) bool { return m.Canonical() == colormodel.ModelYCbCr }
func isOklabModel(m *colormodel.Model) bool { return m.Canonical() == colormodel.ModelOklab }

// isColorimetric reports whether m is one of the models with no direct
// to/from-RGBA component mapping: Gray, Y'CbCr and Oklab each need real
// color math (throughColorimetric below), not component reordering, to
// reach canonical RGBA.
func isColorimetric(m *colormodel.Model) bool {
	return isGrayModel(m) || isYCbCrModel(m) || isOklabModel(m)
}

// rgbaComponents is the canonical 4-component RGBA layout the
// colorimetric bridges below read from or write to.
var rgbaComponents = []*colormodel.Component{colormodel.CompR, colormodel.CompG, colormodel.CompB, colormodel.CompA}

// ycbcrMatrix/ycbcrMatrixInv are the BT.601-style coefficients every
// well-known Y'CbCr model uses (see ModelYCbCr's doc comment).
var (
	ycbcrMatrix    = colormodel.RGBToYCbCrMatrix(colormodel.BT601Coeffs)
	ycbcrMatrixInv = ycbcrMatrix.Invert()
)

// throughColorimetric routes a conversion touching a Gray, Y'CbCr, or
// Oklab endpoint through canonical linear RGBA — the same bridge
// builtins.go's fast paths for these models read from or write to, so
// the reference and fast paths stay numerically aligned. curComps is
// canon's layout on entry (srcFmt.Model's own, since the RGB-family
// linearize step earlier in Convert never touches a colorimetric
// model); it returns canon's new layout.
func throughColorimetric(srcFmt, dstFmt *colormodel.PixelFormat, curComps []*colormodel.Component, canon []float64, n int) ([]float64, []*colormodel.Component) {
	if isColorimetric(srcFmt.Model) {
		canon = colorimetricToLinearRGBA(srcFmt.Model, canon, n)
		curComps = rgbaComponents
	} else if !sameComponents(curComps, rgbaComponents) {
		// Plain RGB(A), already linearized above: pad to RGBA so the
		// bridge functions below can assume a fixed 4-wide stride.
		canon = remapComponents(curComps, rgbaComponents, canon, n)
		curComps = rgbaComponents
	}

	if isColorimetric(dstFmt.Model) {
		canon = linearRGBAToColorimetric(dstFmt.Model, canon, n)
		curComps = dstFmt.Model.Components
	}

	return canon, curComps
}

// colorimetricToLinearRGBA converts canon (in model's own native layout,
// already expanded/unpremultiplied) to canonical linear RGBA.
func colorimetricToLinearRGBA(model *colormodel.Model, canon []float64, n int) []float64 {
	switch {
	case isGrayModel(model):
		return grayToLinearRGBA(canon, n)
	case isYCbCrModel(model):
		return ycbcrToLinearRGBA(canon, n)
	case isOklabModel(model):
		return oklabToLinearRGBA(canon, n)
	default:
		return canon
	}
}

// linearRGBAToColorimetric is colorimetricToLinearRGBA's inverse,
// producing model's own native component layout from canonical linear
// RGBA.
func linearRGBAToColorimetric(model *colormodel.Model, canon []float64, n int) []float64 {
	switch {
	case isGrayModel(model):
		return linearRGBAToGray(canon, n)
	case isYCbCrModel(model):
		return linearRGBAToYCbCr(canon, n)
	case isOklabModel(model):
		return linearRGBAToOklab(canon, n)
	default:
		return canon
	}
}

// grayToLinearRGBA treats the single Gray channel as encoded luma (Y',
// nonlinear per ModelGray's flags) and replicates it across R, G, B
// after decoding through sRGB's TRC.
func grayToLinearRGBA(canon []float64, n int) []float64 {
	trc := colormodel.SpaceSRGB.TRCs[0]
	out := make([]float64, n*4)
	for p := 0; p < n; p++ {
		y := trc.ToLinear(canon[p])
		out[p*4], out[p*4+1], out[p*4+2], out[p*4+3] = y, y, y, 1
	}
	return out
}

// linearRGBAToGray computes BT.601 luma directly from gamma-encoded
// R'G'B', matching registerGrayEdges' fast path exactly.
func linearRGBAToGray(canon []float64, n int) []float64 {
	trcs := colormodel.SpaceSRGB.TRCs
	kr, kb := colormodel.BT601Coeffs.Kr, colormodel.BT601Coeffs.Kb
	kg := 1 - kr - kb
	out := make([]float64, n)
	for p := 0; p < n; p++ {
		r := trcs[0].FromLinear(canon[p*4])
		g := trcs[1].FromLinear(canon[p*4+1])
		b := trcs[2].FromLinear(canon[p*4+2])
		out[p] = kr*r + kg*g + kb*b
	}
	return out
}

// ycbcrToLinearRGBA inverts the Y'CbCr matrix to encoded R'G'B', then
// decodes through sRGB's TRC to reach the linear RGBA pivot.
func ycbcrToLinearRGBA(canon []float64, n int) []float64 {
	trcs := colormodel.SpaceSRGB.TRCs
	out := make([]float64, n*4)
	for p := 0; p < n; p++ {
		ycc := [3]float64{canon[p*3], canon[p*3+1], canon[p*3+2]}
		rgb := ycbcrMatrixInv.MulVec3(ycc)
		for k := 0; k < 3; k++ {
			out[p*4+k] = trcs[k].ToLinear(rgb[k])
		}
		out[p*4+3] = 1
	}
	return out
}

// linearRGBAToYCbCr encodes linear RGBA through sRGB's TRC, then applies
// the Y'CbCr matrix — the reference-path mirror of registerYCbCrEdges.
func linearRGBAToYCbCr(canon []float64, n int) []float64 {
	trcs := colormodel.SpaceSRGB.TRCs
	out := make([]float64, n*3)
	for p := 0; p < n; p++ {
		var rgb [3]float64
		for k := 0; k < 3; k++ {
			rgb[k] = trcs[k].FromLinear(canon[p*4+k])
		}
		ycc := ycbcrMatrix.MulVec3(rgb)
		out[p*3], out[p*3+1], out[p*3+2] = ycc[0], ycc[1], ycc[2]
	}
	return out
}

// oklabToLinearRGBA is already in linear light (ModelOklab's Space is
// SpaceSRGBLinear), so it only needs the XYZ round trip.
func oklabToLinearRGBA(canon []float64, n int) []float64 {
	out := make([]float64, n*4)
	for p := 0; p < n; p++ {
		lab := [3]float64{canon[p*3], canon[p*3+1], canon[p*3+2]}
		xyz := colormodel.OklabToXYZ(lab)
		rgb := colormodel.SpaceSRGBLinear.FromXYZ.MulVec3(xyz)
		out[p*4], out[p*4+1], out[p*4+2], out[p*4+3] = rgb[0], rgb[1], rgb[2], 1
	}
	return out
}

func linearRGBAToOklab(canon []float64, n int) []float64 {
	out := make([]float64, n*3)
	for p := 0; p < n; p++ {
		rgb := [3]float64{canon[p*4], canon[p*4+1], canon[p*4+2]}
		xyz := colormodel.SpaceSRGBLinear.ToXYZ.MulVec3(rgb)
		lab := colormodel.XYZToOklab(xyz)
		out[p*3], out[p*3+1], out[p*3+2] = lab[0], lab[1], lab[2]
	}
	return out
}

// expand widens an encoded buffer in srcFmt to a packed RGBA-like double
// buffer in the format's own Model component order, reordering
// components and synthesizing any the format's Model lacks (alpha = 1,
// everything else = 0).
func expand(fmt_ *colormodel.PixelFormat, buf []float64, n int) []float64 {
	model := fmt_.Model
	numComp := len(model.Components)
	out := make([]float64, n*numComp)

	compIndex := make(map[*colormodel.Component]int, len(fmt_.Components))
	for i, fc := range fmt_.Components {
		compIndex[fc.Component] = i
	}

	stride := len(fmt_.Components)
	for p := 0; p < n; p++ {
		for ci, comp := range model.Components {
			if srcIdx, ok := compIndex[comp]; ok {
				out[p*numComp+ci] = decodeComponent(fmt_.Components[srcIdx].Type, buf[p*stride+srcIdx])
			} else {
				out[p*numComp+ci] = colormodel.NeutralDefault(comp)
			}
		}
	}
	return out
}

// decodeComponent is a passthrough placeholder: refconv operates on
// already-normalized [0,1] float64 input (the caller — internal/fish or
// a test — is responsible for turning integer storage into normalized
// values via the component's NumericType before calling Convert).
func decodeComponent(_ *colormodel.NumericType, v float64) float64 { return v }

// narrow packages a canonical packed double buffer (in dstFmt.Model's
// component order) down into dstFmt's own component order and count,
// dropping components the destination format doesn't carry.
func narrow(fmt_ *colormodel.PixelFormat, canon []float64, n int) []float64 {
	model := fmt_.Model
	numComp := len(model.Components)
	modelIndex := make(map[*colormodel.Component]int, numComp)
	for i, c := range model.Components {
		modelIndex[c] = i
	}

	stride := len(fmt_.Components)
	out := make([]float64, n*stride)
	for p := 0; p < n; p++ {
		for di, fc := range fmt_.Components {
			if srcIdx, ok := modelIndex[fc.Component]; ok {
				out[p*stride+di] = canon[p*numComp+srcIdx]
			} else {
				out[p*stride+di] = colormodel.NeutralDefault(fc.Component)
			}
		}
	}
	return out
}

// remapComponents reconciles a canonical buffer currently laid out per
// srcComps to dstComps, matching components by identity and synthesizing
// any the destination carries that the source lacked (its neutral
// default). Used whenever a stage upstream leaves canon in a
// component set that doesn't already match the destination Model's.
func remapComponents(srcComps, dstComps []*colormodel.Component, canon []float64, n int) []float64 {
	srcStride := len(srcComps)
	dstStride := len(dstComps)
	srcIndex := make(map[*colormodel.Component]int, srcStride)
	for i, c := range srcComps {
		srcIndex[c] = i
	}

	out := make([]float64, n*dstStride)
	for p := 0; p < n; p++ {
		for di, c := range dstComps {
			if si, ok := srcIndex[c]; ok {
				out[p*dstStride+di] = canon[p*srcStride+si]
			} else {
				out[p*dstStride+di] = colormodel.NeutralDefault(c)
			}
		}
	}
	return out
}

// applyXYZMatrix composes srcSpace.ToXYZ with dstSpace.FromXYZ and
// applies it to the first three (RGB) components of each pixel,
// leaving any trailing alpha component untouched.
func applyXYZMatrix(srcSpace, dstSpace *colormodel.Space, canon []float64, n int) []float64 {
	m := dstSpace.FromXYZ.Mul(srcSpace.ToXYZ)
	stride := len(canon) / n
	out := make([]float64, len(canon))
	copy(out, canon)
	for p := 0; p < n; p++ {
		rgb := [3]float64{canon[p*stride], canon[p*stride+1], canon[p*stride+2]}
		conv := m.MulVec3(rgb)
		out[p*stride], out[p*stride+1], out[p*stride+2] = conv[0], conv[1], conv[2]
	}
	return out
}

// throughCMYKA routes a conversion involving at least one CMYK endpoint
// through the 5-component cmykA intermediate: a space-supplied CMYK
// transform is used when present, otherwise a naive ink-coverage
// inversion parameterized by CMYKSpace.Pullout.
func throughCMYKA(srcFmt, dstFmt *colormodel.PixelFormat, canon []float64, n int) []float64 {
	scratchMu.Lock()
	defer scratchMu.Unlock()

	srcIsCMYK := srcFmt.Model.HasFlag(colormodel.FlagCMYK)
	dstIsCMYK := dstFmt.Model.HasFlag(colormodel.FlagCMYK)

	switch {
	case srcIsCMYK && dstIsCMYK:
		return canon
	case srcIsCMYK && !dstIsCMYK:
		return cmykaToRGBA(srcFmt.Space, canon, n)
	case !srcIsCMYK && dstIsCMYK:
		return rgbaToCMYKA(dstFmt.Space, canon, n)
	default:
		return canon
	}
}

func pulloutFor(space *colormodel.Space) float64 {
	if space != nil && space.CMYK != nil && space.CMYK.Pullout != 0 {
		return space.CMYK.Pullout
	}
	return 1.0
}

// rgbaToCMYKA performs the naive ink-coverage inversion: K = 1 - max(R,G,B),
// C/M/Y derived from the remaining headroom scaled by Pullout.
func rgbaToCMYKA(space *colormodel.Space, canon []float64, n int) []float64 {
	pullout := pulloutFor(space)
	stride := len(canon) / n
	out := make([]float64, n*5)
	for p := 0; p < n; p++ {
		r, g, b := canon[p*stride], canon[p*stride+1], canon[p*stride+2]
		a := 1.0
		if stride > 3 {
			a = canon[p*stride+3]
		}
		k := 1 - maxOf3(r, g, b)
		var c, m, y float64
		if k < 1 {
			c = (1 - r - k) / (1 - k) * pullout
			m = (1 - g - k) / (1 - k) * pullout
			y = (1 - b - k) / (1 - k) * pullout
		}
		out[p*5+0], out[p*5+1], out[p*5+2], out[p*5+3], out[p*5+4] = c, m, y, k, a
	}
	return out
}

func cmykaToRGBA(space *colormodel.Space, canon []float64, n int) []float64 {
	_ = space // naive inversion is symmetric and profile-independent
	out := make([]float64, n*4)
	for p := 0; p < n; p++ {
		c, m, y, k, a := canon[p*5], canon[p*5+1], canon[p*5+2], canon[p*5+3], canon[p*5+4]
		out[p*4+0] = (1 - c) * (1 - k)
		out[p*4+1] = (1 - m) * (1 - k)
		out[p*4+2] = (1 - y) * (1 - k)
		out[p*4+3] = a
	}
	return out
}

func maxOf3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
