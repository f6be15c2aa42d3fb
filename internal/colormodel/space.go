package colormodel

import "math"

// Chromaticity is a CIE xy chromaticity coordinate.
type Chromaticity struct {
	X, Y float64
}

// CMYKSpace holds the CMYK-specific parameters a Space carries when it
// describes a CMYK-capable color space: an optional externally supplied
// profile/transform handle (opaque to this package; ICC byte-level
// parsing is out of scope) and the naive ink-coverage pullout fallback
// parameter.
//
// Pullout is a real field rather than a hardcoded 1.0 constant, so
// callers with a better-characterized press profile can override it.
type CMYKSpace struct {
	Profile any // opaque externally-supplied CMYK transform, if any
	Pullout float64
}

// Space is a deduplicated color space: a white point, three primaries,
// three tone-reproduction curves (one per RGB channel), and the RGB<->XYZ
// matrices derived from them.
type Space struct {
	ID   uint32
	Name string

	White     Chromaticity
	Primaries [3]Chromaticity
	TRCs      [3]*TRC // R, G, B

	ToXYZ, FromXYZ     Mat3
	ToXYZ32, FromXYZ32 Mat3f

	ICCProfile []byte
	CMYK       *CMYKSpace
}

// NewSpace builds a Space from chromaticities, computing the forward and
// inverse RGB<->XYZ matrices.
func NewSpace(name string, white Chromaticity, primaries [3]Chromaticity, trcs [3]*TRC) *Space {
	toXYZ := rgbToXYZMatrix(white, primaries)
	s := &Space{
		Name:      name,
		White:     white,
		Primaries: primaries,
		TRCs:      trcs,
		ToXYZ:     toXYZ,
		FromXYZ:   toXYZ.Invert(),
	}
	s.ToXYZ32 = s.ToXYZ.ToFloat32()
	s.FromXYZ32 = s.FromXYZ.ToFloat32()
	return s
}

// chromaticityToXYZ converts an xy chromaticity to an XYZ vector with Y=1.
func chromaticityToXYZ(c Chromaticity) [3]float64 {
	if c.Y == 0 {
		return [3]float64{0, 0, 0}
	}
	return [3]float64{c.X / c.Y, 1, (1 - c.X - c.Y) / c.Y}
}

// rgbToXYZMatrix builds the 3x3 RGB->XYZ matrix from primaries and a
// white point, following the standard "solve for per-primary scale
// factors" construction used by every RGB working-space derivation.
func rgbToXYZMatrix(white Chromaticity, primaries [3]Chromaticity) Mat3 {
	xr, xg, xb := chromaticityToXYZ(primaries[0]), chromaticityToXYZ(primaries[1]), chromaticityToXYZ(primaries[2])
	unscaled := Mat3{
		xr[0], xg[0], xb[0],
		xr[1], xg[1], xb[1],
		xr[2], xg[2], xb[2],
	}
	whiteXYZ := chromaticityToXYZ(white)
	s := unscaled.Invert().MulVec3(whiteXYZ)

	return Mat3{
		unscaled[0] * s[0], unscaled[1] * s[1], unscaled[2] * s[2],
		unscaled[3] * s[0], unscaled[4] * s[1], unscaled[5] * s[2],
		unscaled[6] * s[0], unscaled[7] * s[1], unscaled[8] * s[2],
	}
}

// Equal implements the interning equality invariant: two spaces are the
// same entity when primaries and white point agree to within four
// decimal digits and each TRC is pointer-identical (TRCs are themselves
// interned, so this reduces to pointer comparison).
func (s *Space) Equal(o *Space) bool {
	if s == o {
		return true
	}
	if !chromaEqual(s.White, o.White) {
		return false
	}
	for i := range s.Primaries {
		if !chromaEqual(s.Primaries[i], o.Primaries[i]) {
			return false
		}
	}
	for i := range s.TRCs {
		if s.TRCs[i] != o.TRCs[i] {
			return false
		}
	}
	return true
}

func chromaEqual(a, b Chromaticity) bool {
	return round4(a.X) == round4(b.X) && round4(a.Y) == round4(b.Y)
}

func round4(v float64) int64 {
	return int64(math.Round(v * 1e4))
}

// Fingerprint returns a restart-stable content address (DESIGN NOTES #2):
// primaries + white point (quantized to 4 decimal digits) plus each TRC's
// own fingerprint.
func (s *Space) Fingerprint() string {
	trcFps := make([]any, 0, len(s.TRCs)+2)
	trcFps = append(trcFps, s.White.X, s.White.Y)
	for _, p := range s.Primaries {
		trcFps = append(trcFps, p.X, p.Y)
	}
	for _, t := range s.TRCs {
		if t != nil {
			trcFps = append(trcFps, t.Fingerprint())
		} else {
			trcFps = append(trcFps, "nil")
		}
	}
	return fmtFingerprint("space", trcFps...)
}
