package colormodel

import (
	"math"
	"sync"
)

// TRCKind identifies a tone-reproduction curve variant.
type TRCKind int

const (
	TRCLinear TRCKind = iota
	TRCGamma
	TRCFormulaSRGB
	TRCSRGBCanonical
	TRCLUT
)

// SRGBFormula holds the five parameters of the piecewise sRGB-style
// transfer function: forward = (a*x + b)^g for x >= d, else c*x.
type SRGBFormula struct {
	G, A, B, C, D float64
}

// polyApprox is a degree-3 polynomial fit over the interior interval
// [0.5/255, 254.5/255] for Gamma/FormulaSRGB curves. It is used as a
// fast path only when valid, that is when both directions of the fit
// stay within 1e-6 of the exact curve (see fitPoly); otherwise
// ToLinear/FromLinear evaluate the exact function. Coefficients are in
// ascending power order.
type polyApprox struct {
	fwd, inv [4]float64
	valid    bool
}

const (
	polyLo = 0.5 / 255.0
	polyHi = 254.5 / 255.0
)

// TRC is a deduplicated tone-reproduction curve: the scalar function
// mapping encoded (gamma-corrected) values to and from linear light.
type TRC struct {
	ID   uint32
	Name string
	Kind TRCKind

	Gamma   float64     // TRCGamma
	Formula SRGBFormula // TRCFormulaSRGB

	LUT    []float64 // TRCLUT: forward table, domain [0,1] -> [0,1]
	InvLUT []float64 // TRCLUT: numerically inverted table

	poly     polyApprox
	polyOnce sync.Once
}

// Fingerprint returns a value-based content address, used as part of a
// Space's restart-stable fingerprint.
func (t *TRC) Fingerprint() string {
	switch t.Kind {
	case TRCLinear:
		return fmtFingerprint("trc", "linear")
	case TRCGamma:
		return fmtFingerprint("trc", "gamma", t.Gamma)
	case TRCFormulaSRGB:
		return fmtFingerprint("trc", "formula", t.Formula.G, t.Formula.A, t.Formula.B, t.Formula.C, t.Formula.D)
	case TRCSRGBCanonical:
		return fmtFingerprint("trc", "srgb")
	case TRCLUT:
		return fmtFingerprint("trc", "lut", len(t.LUT), sampleDigest(t.LUT))
	default:
		return fmtFingerprint("trc", "unknown")
	}
}

// sampleDigest folds a handful of evenly spaced samples into the
// fingerprint so two LUT TRCs with the same length but different curves
// don't collide, without hashing the entire (potentially large) table.
func sampleDigest(lut []float64) float64 {
	if len(lut) == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < 8; i++ {
		idx := i * (len(lut) - 1) / 7
		sum += lut[idx] * float64(i+1)
	}
	return sum
}

// NewLinearTRC returns the identity TRC.
func NewLinearTRC() *TRC {
	return &TRC{Name: "linear", Kind: TRCLinear}
}

// NewGammaTRC returns a pure power-law TRC: ToLinear(x) = x^gamma,
// FromLinear(x) = x^(1/gamma) (matching the "encode raises to 1/gamma"
// convention).
func NewGammaTRC(gamma float64) *TRC {
	return &TRC{Name: "gamma", Kind: TRCGamma, Gamma: gamma}
}

// NewFormulaSRGBTRC returns a piecewise power-law TRC parameterized the
// way ICC and CSS describe sRGB-like curves.
func NewFormulaSRGBTRC(g, a, b, c, d float64) *TRC {
	return &TRC{Name: "formula-srgb", Kind: TRCFormulaSRGB, Formula: SRGBFormula{g, a, b, c, d}}
}

// NewSRGBCanonicalTRC returns the hard-coded canonical sRGB curve.
func NewSRGBCanonicalTRC() *TRC {
	return &TRC{Name: "srgb", Kind: TRCSRGBCanonical}
}

// NewLUTTRC builds a TRC from n uniformly sampled forward values in
// [0, 1], numerically inverting the table with a 16-iteration binary
// search per output entry.
func NewLUTTRC(name string, fwd []float64) *TRC {
	t := &TRC{Name: name, Kind: TRCLUT, LUT: fwd}
	t.InvLUT = invertLUT(fwd)
	return t
}

func invertLUT(fwd []float64) []float64 {
	n := len(fwd)
	inv := make([]float64, n)
	for i := 0; i < n; i++ {
		target := float64(i) / float64(n-1)
		lo, hi := 0.0, 1.0
		for iter := 0; iter < 16; iter++ {
			mid := (lo + hi) / 2
			if lutEval(fwd, mid) < target {
				lo = mid
			} else {
				hi = mid
			}
		}
		inv[i] = (lo + hi) / 2
	}
	return inv
}

func lutEval(table []float64, x float64) float64 {
	n := len(table)
	if n == 0 {
		return 0
	}
	if x <= 0 {
		return table[0]
	}
	if x >= 1 {
		return table[n-1]
	}
	pos := x * float64(n-1)
	i0 := int(pos)
	i1 := i0 + 1
	if i1 >= n {
		return table[n-1]
	}
	frac := pos - float64(i0)
	return table[i0]*(1-frac) + table[i1]*frac
}

// ToLinear converts an encoded value x in [0,1] to linear light.
func (t *TRC) ToLinear(x float64) float64 {
	switch t.Kind {
	case TRCLinear:
		return x
	case TRCGamma:
		return t.gammaToLinear(x)
	case TRCFormulaSRGB:
		return t.formulaToLinear(x)
	case TRCSRGBCanonical:
		return srgbToLinear(x)
	case TRCLUT:
		return lutEval(t.InvLUT, x)
	default:
		return x
	}
}

// FromLinear converts a linear value x in [0,1] to an encoded value.
func (t *TRC) FromLinear(x float64) float64 {
	switch t.Kind {
	case TRCLinear:
		return x
	case TRCGamma:
		return t.linearToGamma(x)
	case TRCFormulaSRGB:
		return t.linearToFormula(x)
	case TRCSRGBCanonical:
		return linearToSRGB(x)
	case TRCLUT:
		return lutEval(t.LUT, x)
	default:
		return x
	}
}

func (t *TRC) ensurePoly() {
	t.polyOnce.Do(func() {
		t.poly = fitPoly(t)
	})
}

// fitPoly fits a cubic polynomial approximation over the interior
// interval [polyLo, polyHi] by sampling the exact function at four nodes
// and solving the resulting Vandermonde system. The fit is marked valid
// only if both directions stay within 1e-6 of the exact function at 257
// evenly spaced points of the interval.
func fitPoly(t *TRC) polyApprox {
	var exactFwd, exactInv func(float64) float64
	switch t.Kind {
	case TRCGamma:
		exactFwd = func(x float64) float64 { return math.Pow(x, t.Gamma) }
		exactInv = func(x float64) float64 { return math.Pow(x, 1/t.Gamma) }
	case TRCFormulaSRGB:
		exactFwd = t.formulaToLinearExact
		exactInv = t.linearToFormulaExact
	default:
		return polyApprox{}
	}

	nodes := [4]float64{polyLo, polyLo + (polyHi-polyLo)/3, polyLo + 2*(polyHi-polyLo)/3, polyHi}
	fwdCoef, ok1 := fitCubic(nodes, apply(nodes, exactFwd))
	invCoef, ok2 := fitCubic(nodes, apply(nodes, exactInv))
	const maxErr = 1e-6
	valid := ok1 && ok2
	for i := 0; valid && i <= 256; i++ {
		x := polyLo + (polyHi-polyLo)*float64(i)/256
		if math.Abs(evalCubic(fwdCoef, x)-exactFwd(x)) > maxErr || math.Abs(evalCubic(invCoef, x)-exactInv(x)) > maxErr {
			valid = false
		}
	}
	return polyApprox{fwd: fwdCoef, inv: invCoef, valid: valid}
}

func apply(xs [4]float64, f func(float64) float64) [4]float64 {
	var ys [4]float64
	for i, x := range xs {
		ys[i] = f(x)
	}
	return ys
}

// fitCubic solves for the cubic polynomial through 4 (x,y) points via
// Lagrange interpolation expanded into monomial coefficients. Returns
// false if the nodes are degenerate (should not happen for our fixed
// interior interval).
func fitCubic(xs, ys [4]float64) ([4]float64, bool) {
	var coef [4]float64
	for i := 0; i < 4; i++ {
		// Lagrange basis polynomial i, expanded via repeated multiplication.
		basis := [4]float64{1, 0, 0, 0} // constant 1, ascending powers
		denom := 1.0
		deg := 0
		for j := 0; j < 4; j++ {
			if j == i {
				continue
			}
			if xs[i] == xs[j] {
				return coef, false
			}
			denom *= xs[i] - xs[j]
			// multiply basis by (x - xs[j])
			var next [4]float64
			for k := 0; k <= deg; k++ {
				next[k+1] += basis[k]
				next[k] += basis[k] * -xs[j]
			}
			basis = next
			deg++
		}
		scale := ys[i] / denom
		for k := range coef {
			coef[k] += basis[k] * scale
		}
	}
	return coef, true
}

func evalCubic(c [4]float64, x float64) float64 {
	return ((c[3]*x+c[2])*x+c[1])*x + c[0]
}

func (t *TRC) gammaToLinear(x float64) float64 {
	t.ensurePoly()
	if t.poly.valid && x >= polyLo && x <= polyHi {
		return evalCubic(t.poly.fwd, x)
	}
	if x <= 0 {
		return 0
	}
	return math.Pow(x, t.Gamma)
}

func (t *TRC) linearToGamma(x float64) float64 {
	t.ensurePoly()
	if t.poly.valid && x >= polyLo && x <= polyHi {
		return evalCubic(t.poly.inv, x)
	}
	if x <= 0 {
		return 0
	}
	return math.Pow(x, 1/t.Gamma)
}

func (t *TRC) formulaToLinearExact(x float64) float64 {
	f := t.Formula
	if x >= f.D {
		return math.Pow(f.A*x+f.B, f.G)
	}
	return f.C * x
}

func (t *TRC) linearToFormulaExact(x float64) float64 {
	f := t.Formula
	thresh := f.C * f.D
	if x >= thresh {
		return (math.Pow(x, 1/f.G) - f.B) / f.A
	}
	if f.C == 0 {
		return 0
	}
	return x / f.C
}

func (t *TRC) formulaToLinear(x float64) float64 {
	t.ensurePoly()
	if t.poly.valid && x >= polyLo && x <= polyHi {
		return evalCubic(t.poly.fwd, x)
	}
	return t.formulaToLinearExact(x)
}

func (t *TRC) linearToFormula(x float64) float64 {
	t.ensurePoly()
	if t.poly.valid && x >= polyLo && x <= polyHi {
		return evalCubic(t.poly.inv, x)
	}
	return t.linearToFormulaExact(x)
}

// Canonical sRGB constants (IEC 61966-2-1): linear-region slope 12.92 up
// to a linear threshold of 0.0031308 (0.04045 encoded), gamma 2.4 with
// offset a = 0.055 above it.
const (
	srgbA          = 0.055
	srgbGamma      = 2.4
	srgbLinThresh  = 0.0031308
	srgbEncThresh  = 0.04045
	srgbLinSlope   = 12.92
)

func srgbToLinear(x float64) float64 {
	if x <= srgbEncThresh {
		return x / srgbLinSlope
	}
	return math.Pow((x+srgbA)/(1+srgbA), srgbGamma)
}

func linearToSRGB(x float64) float64 {
	if x <= srgbLinThresh {
		return srgbLinSlope * x
	}
	return (1+srgbA)*math.Pow(x, 1/srgbGamma) - srgbA
}
