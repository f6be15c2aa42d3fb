package pixelfish

import (
	"github.com/deepteams/pixelfish/internal/colormodel"
	"github.com/deepteams/pixelfish/internal/convgraph"
)

// registerBuiltinConversions wires a representative core set of fast
// paths, not an exhaustive extension catalogue: direct, measurable
// alternatives to the
// always-correct-but-generic internal/refconv route between the
// canonical double-precision format of each well-known Model. Path
// search (internal/pathsearch) picks whichever of these — or a chain of
// them — beats the reference converter's cost under a given tolerance;
// where none exists for a given pair, Fish still falls back to
// Reference.
func registerBuiltinConversions(g *convgraph.Graph) {
	registerGammaEdges(g)
	registerYCbCrEdges(g)
	registerGrayEdges(g)
	registerCMYKEdges(g)
	registerPremultiplyEdges(g)
	registerOklabEdges(g)
}

func registerGammaEdges(g *convgraph.Graph) {
	src, dst := colormodel.FormatRGBAEncodedDouble, colormodel.FormatRGBADouble
	g.Register(src, dst, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		trcs := colormodel.SpaceSRGB.TRCs
		for p := 0; p < n; p++ {
			for k := 0; k < 3; k++ {
				d[p*4+k] = trcs[k].ToLinear(s[p*4+k])
			}
			d[p*4+3] = s[p*4+3]
		}
	}), convgraph.RegisterOpts{})
	g.Register(dst, src, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		trcs := colormodel.SpaceSRGB.TRCs
		for p := 0; p < n; p++ {
			for k := 0; k < 3; k++ {
				d[p*4+k] = trcs[k].FromLinear(s[p*4+k])
			}
			d[p*4+3] = s[p*4+3]
		}
	}), convgraph.RegisterOpts{})
}

func registerYCbCrEdges(g *convgraph.Graph) {
	m := colormodel.RGBToYCbCrMatrix(colormodel.BT601Coeffs)
	inv := m.Invert()
	src, dst := colormodel.FormatRGBAEncodedDouble, colormodel.FormatYCbCrDouble

	g.Register(src, dst, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		for p := 0; p < n; p++ {
			rgb := [3]float64{s[p*4], s[p*4+1], s[p*4+2]}
			ycc := m.MulVec3(rgb)
			d[p*3], d[p*3+1], d[p*3+2] = ycc[0], ycc[1], ycc[2]
		}
	}), convgraph.RegisterOpts{})

	g.Register(dst, src, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		for p := 0; p < n; p++ {
			ycc := [3]float64{s[p*3], s[p*3+1], s[p*3+2]}
			rgb := inv.MulVec3(ycc)
			d[p*4], d[p*4+1], d[p*4+2] = rgb[0], rgb[1], rgb[2]
			d[p*4+3] = 1
		}
	}), convgraph.RegisterOpts{})
}

func registerGrayEdges(g *convgraph.Graph) {
	kr, kb := colormodel.BT601Coeffs.Kr, colormodel.BT601Coeffs.Kb
	kg := 1 - kr - kb
	src, dst := colormodel.FormatRGBAEncodedDouble, colormodel.FormatGrayDouble

	g.Register(src, dst, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		for p := 0; p < n; p++ {
			d[p] = kr*s[p*4] + kg*s[p*4+1] + kb*s[p*4+2]
		}
	}), convgraph.RegisterOpts{})

	g.Register(dst, src, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		for p := 0; p < n; p++ {
			y := s[p]
			d[p*4], d[p*4+1], d[p*4+2] = y, y, y
			d[p*4+3] = 1
		}
	}), convgraph.RegisterOpts{})
}

// registerCMYKEdges mirrors internal/refconv's naive ink-coverage formula
// (full pullout), as a direct fast path registered against the canonical
// linear RGBA and cmykA double formats rather than routed through the
// generic reference pipeline.
func registerCMYKEdges(g *convgraph.Graph) {
	src, dst := colormodel.FormatRGBADouble, colormodel.FormatCMYKADouble

	g.Register(src, dst, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		for p := 0; p < n; p++ {
			r, gr, b, a := s[p*4], s[p*4+1], s[p*4+2], s[p*4+3]
			k := 1 - maxOf3(r, gr, b)
			c, m, y := 0.0, 0.0, 0.0
			if k < 1 {
				c = (1 - r - k) / (1 - k)
				m = (1 - gr - k) / (1 - k)
				y = (1 - b - k) / (1 - k)
			}
			d[p*5], d[p*5+1], d[p*5+2], d[p*5+3], d[p*5+4] = c, m, y, k, a
		}
	}), convgraph.RegisterOpts{})

	g.Register(dst, src, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		for p := 0; p < n; p++ {
			c, m, y, k, a := s[p*5], s[p*5+1], s[p*5+2], s[p*5+3], s[p*5+4]
			d[p*4] = (1 - c) * (1 - k)
			d[p*4+1] = (1 - m) * (1 - k)
			d[p*4+2] = (1 - y) * (1 - k)
			d[p*4+3] = a
		}
	}), convgraph.RegisterOpts{})
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

func registerPremultiplyEdges(g *convgraph.Graph) {
	src, dst := colormodel.FormatRGBAEncodedDouble, colormodel.FormatRGBAAssociatedDouble

	g.Register(src, dst, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		for p := 0; p < n; p++ {
			a := s[p*4+3]
			if a <= refconvAlphaFloor {
				copy(d[p*4:p*4+4], s[p*4:p*4+4])
				continue
			}
			d[p*4], d[p*4+1], d[p*4+2] = s[p*4]*a, s[p*4+1]*a, s[p*4+2]*a
			d[p*4+3] = a
		}
	}), convgraph.RegisterOpts{})

	g.Register(dst, src, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		for p := 0; p < n; p++ {
			a := s[p*4+3]
			if a <= refconvAlphaFloor {
				copy(d[p*4:p*4+4], s[p*4:p*4+4])
				continue
			}
			d[p*4], d[p*4+1], d[p*4+2] = s[p*4]/a, s[p*4+1]/a, s[p*4+2]/a
			d[p*4+3] = a
		}
	}), convgraph.RegisterOpts{})
}

// refconvAlphaFloor has the same value as internal/refconv.AlphaFloor,
// so the premultiply fast paths gate on the same threshold as the
// reference path.
const refconvAlphaFloor = 1.0 / 255.0

func registerOklabEdges(g *convgraph.Graph) {
	src, dst := colormodel.FormatRGBADouble, colormodel.FormatOklabDouble

	g.Register(src, dst, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		for p := 0; p < n; p++ {
			rgb := [3]float64{s[p*4], s[p*4+1], s[p*4+2]}
			xyz := colormodel.SpaceSRGBLinear.ToXYZ.MulVec3(rgb)
			lab := colormodel.XYZToOklab(xyz)
			d[p*3], d[p*3+1], d[p*3+2] = lab[0], lab[1], lab[2]
		}
	}), convgraph.RegisterOpts{})

	g.Register(dst, src, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		for p := 0; p < n; p++ {
			lab := [3]float64{s[p*3], s[p*3+1], s[p*3+2]}
			rgb := colormodel.OklabToXYZ(lab)
			out := colormodel.SpaceSRGBLinear.FromXYZ.MulVec3(rgb)
			d[p*4], d[p*4+1], d[p*4+2] = out[0], out[1], out[2]
			d[p*4+3] = 1
		}
	}), convgraph.RegisterOpts{})
}
