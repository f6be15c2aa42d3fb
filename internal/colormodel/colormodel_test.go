package colormodel

import (
	"math"
	"math/rand"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSRGBTRCRoundTrip(t *testing.T) {
	trc := NewSRGBCanonicalTRC()
	for _, x := range []float64{0, 0.01, 0.18, 0.5, 0.735, 1.0} {
		lin := trc.ToLinear(x)
		back := trc.FromLinear(lin)
		if !approxEqual(x, back, 1e-6) {
			t.Errorf("sRGB round trip: x=%v -> lin=%v -> back=%v", x, lin, back)
		}
	}
}

func TestGammaTRCRoundTrip(t *testing.T) {
	trc := NewGammaTRC(2.2)
	for _, x := range []float64{0, 0.1, 0.25, 0.6, 0.9, 1.0} {
		lin := trc.ToLinear(x)
		back := trc.FromLinear(lin)
		if !approxEqual(x, back, 1e-4) {
			t.Errorf("gamma round trip: x=%v -> lin=%v -> back=%v", x, lin, back)
		}
	}
}

func TestFormulaSRGBTRCRoundTrip(t *testing.T) {
	// Parameters matching the canonical sRGB piecewise curve, expressed
	// via the general formula constructor.
	trc := NewFormulaSRGBTRC(2.4, 1/1.055, 0.055/1.055, 1/12.92, 0.04045)
	for _, x := range []float64{0, 0.02, 0.04045, 0.2, 0.77, 1.0} {
		lin := trc.ToLinear(x)
		back := trc.FromLinear(lin)
		if !approxEqual(x, back, 1e-3) {
			t.Errorf("formula-srgb round trip: x=%v -> lin=%v -> back=%v", x, lin, back)
		}
	}
}

func TestLUTTRCRoundTrip(t *testing.T) {
	const n = 256
	fwd := make([]float64, n)
	for i := range fwd {
		x := float64(i) / float64(n-1)
		fwd[i] = math.Pow(x, 1/2.2)
	}
	trc := NewLUTTRC("lut-test", fwd)
	for _, x := range []float64{0.1, 0.3, 0.5, 0.8} {
		lin := trc.ToLinear(x)
		back := trc.FromLinear(lin)
		if !approxEqual(x, back, 0.01) {
			t.Errorf("LUT round trip: x=%v -> lin=%v -> back=%v", x, lin, back)
		}
	}
}

func TestTRCFingerprintStable(t *testing.T) {
	a := NewGammaTRC(2.2)
	b := NewGammaTRC(2.2)
	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("equal-valued gamma TRCs fingerprint differently: %s vs %s", a.Fingerprint(), b.Fingerprint())
	}
	c := NewGammaTRC(1.8)
	if a.Fingerprint() == c.Fingerprint() {
		t.Errorf("different gamma TRCs fingerprint the same")
	}
}

// TestYCbCrMatrixBT601 reproduces a known-good RGB->Y'CbCr conversion
// table: linear RGB pixels encoded with the sRGB TRC, then run through
// the BT.601-coefficient matrix.
func TestYCbCrMatrixBT601(t *testing.T) {
	m := RGBToYCbCrMatrix(BT601Coeffs)
	srgb := NewSRGBCanonicalTRC()

	cases := []struct {
		rgb  [3]float64
		want [3]float64
	}{
		{[3]float64{0.0, 0.0, 0.0}, [3]float64{0.0, 0.0, 0.0}},
		{[3]float64{0.5, 0.5, 0.5}, [3]float64{0.735357, 0.0, 0.0}},
		{[3]float64{1.0, 1.0, 1.0}, [3]float64{1.0, 0.0, 0.0}},
		{[3]float64{1.0, 0.0, 0.0}, [3]float64{0.299, -0.168736, 0.5}},
		{[3]float64{0.0, 1.0, 0.0}, [3]float64{0.587, -0.331264, -0.418688}},
		{[3]float64{0.0, 0.0, 1.0}, [3]float64{0.114, 0.5, -0.081312}},
	}

	for _, c := range cases {
		var encoded [3]float64
		for i, v := range c.rgb {
			encoded[i] = srgb.FromLinear(v)
		}
		got := m.MulVec3(encoded)
		for i := range got {
			if !approxEqual(got[i], c.want[i], 1e-5) {
				t.Errorf("YCbCr(%v)[%d] = %v, want %v", c.rgb, i, got[i], c.want[i])
			}
		}
	}
}

// TestOklabRoundTrip checks S4: converting a large sample of random XYZ
// triples to Oklab and back recovers the original within a tight mean
// absolute error.
func TestOklabRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const n = 1024
	var sumAbsErr float64
	for i := 0; i < n; i++ {
		xyz := [3]float64{rng.Float64(), rng.Float64(), rng.Float64()}
		lab := XYZToOklab(xyz)
		back := OklabToXYZ(lab)
		for k := 0; k < 3; k++ {
			sumAbsErr += math.Abs(xyz[k] - back[k])
		}
	}
	mean := sumAbsErr / float64(n*3)
	if mean > 1e-4 {
		t.Errorf("Oklab round trip mean abs error = %v, want <= 1e-4", mean)
	}
}

func TestMat3InvertIdentity(t *testing.T) {
	inv := Identity3.Invert()
	for i := range inv {
		if inv[i] != Identity3[i] {
			t.Fatalf("identity matrix should invert to itself, got %v", inv)
		}
	}
}

func TestMat3InvertRoundTrip(t *testing.T) {
	m := Mat3{2, 0, 0, 0, 4, 0, 0, 0, 8}
	inv := m.Invert()
	prod := m.Mul(inv)
	for i, v := range Identity3 {
		if !approxEqual(prod[i], v, 1e-9) {
			t.Errorf("M * M^-1 != I, got %v", prod)
		}
	}
}

func TestSpaceEqualQuantizesToFourDigits(t *testing.T) {
	trc := NewLinearTRC()
	a := NewSpace("a", Chromaticity{X: 0.31270, Y: 0.32900}, PrimariesSRGB, [3]*TRC{trc, trc, trc})
	b := NewSpace("b", Chromaticity{X: 0.312701, Y: 0.328999}, PrimariesSRGB, [3]*TRC{trc, trc, trc})
	if !a.Equal(b) {
		t.Errorf("spaces differing only beyond 4 decimal digits should be Equal")
	}
}

func TestSpaceFingerprintDeterministic(t *testing.T) {
	if SpaceSRGB.Fingerprint() == "" {
		t.Fatal("space fingerprint should not be empty")
	}
	if SpaceSRGB.Fingerprint() == SpaceSRGBLinear.Fingerprint() {
		t.Errorf("distinct spaces (different TRCs) must not share a fingerprint")
	}
}

func TestModelRebasedOnCachesClone(t *testing.T) {
	other := NewSpace("other", WhiteD65, PrimariesSRGB, [3]*TRC{NewLinearTRC(), NewLinearTRC(), NewLinearTRC()})
	first := ModelRGB.RebasedOn(other)
	second := ModelRGB.RebasedOn(other)
	if first != second {
		t.Errorf("RebasedOn should return the cached clone on repeat calls")
	}
	if first.Canonical() != ModelRGB {
		t.Errorf("rebased clone's Canonical() should be the original model")
	}
}

func TestModelRebasedOnSameSpaceReturnsCanonical(t *testing.T) {
	if ModelRGB.RebasedOn(SpaceSRGB) != ModelRGB {
		t.Errorf("rebasing onto the model's own space should return the canonical model unchanged")
	}
}

func TestFormatNeutralDefaultForMissingAlpha(t *testing.T) {
	f := NewFormat("test-rgb-with-alpha-slot", SpaceSRGB, ModelRGB, []FormatComponent{
		{Component: CompR, Type: TypeU8},
		{Component: CompG, Type: TypeU8},
		{Component: CompB, Type: TypeU8},
		{Component: CompA, Type: TypeU8},
	}, false)
	missing := f.MissingComponents()
	if len(missing) != 1 || missing[0] != CompA {
		t.Fatalf("expected CompA as the sole missing component, got %v", missing)
	}
	if NeutralDefault(CompA) != 1 {
		t.Errorf("alpha neutral default should be 1")
	}
	if NeutralDefault(CompR) != 0 {
		t.Errorf("non-alpha neutral default should be 0")
	}
}

func TestFormatFingerprintStableAcrossEquivalentBuilds(t *testing.T) {
	comps := []FormatComponent{
		{Component: CompR, Type: TypeU8},
		{Component: CompG, Type: TypeU8},
		{Component: CompB, Type: TypeU8},
	}
	f1 := NewFormat("rgb8", SpaceSRGB, ModelRGB, comps, false)
	f2 := NewFormat("rgb8-again", SpaceSRGB, ModelRGB, comps, false)
	if f1.Fingerprint() != f2.Fingerprint() {
		t.Errorf("two formats built from equal components/model/space should fingerprint equal regardless of Name")
	}
}

func TestFormatBytesPerPixel(t *testing.T) {
	f := NewFormat("rgba8", SpaceSRGB, ModelRGBA, []FormatComponent{
		{Component: CompR, Type: TypeU8},
		{Component: CompG, Type: TypeU8},
		{Component: CompB, Type: TypeU8},
		{Component: CompA, Type: TypeU8},
	}, false)
	if f.BytesPerPixel != 4 {
		t.Errorf("BytesPerPixel = %d, want 4", f.BytesPerPixel)
	}
}

func TestEntityIDAccessors(t *testing.T) {
	c := &Component{Name: "test", ID: 7}
	var e interface {
		EntityID() uint32
		EntityName() string
	} = c
	if e.EntityID() != 7 || e.EntityName() != "test" {
		t.Errorf("EntityID/EntityName accessors did not reflect struct fields")
	}
}
