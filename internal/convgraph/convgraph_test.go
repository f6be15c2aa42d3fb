package convgraph

import (
	"testing"

	"github.com/deepteams/pixelfish/internal/colormodel"
)

func rgbFormat(name string) *colormodel.PixelFormat {
	return colormodel.NewFormat(name, colormodel.SpaceSRGB, colormodel.ModelRGB, []colormodel.FormatComponent{
		{Component: colormodel.CompR, Type: colormodel.TypeDouble},
		{Component: colormodel.CompG, Type: colormodel.TypeDouble},
		{Component: colormodel.CompB, Type: colormodel.TypeDouble},
	}, false)
}

func TestRegisterAssignsUniqueNames(t *testing.T) {
	g := NewGraph()
	a, b := rgbFormat("rgb-a"), rgbFormat("rgb-b")
	fn := LinearFunc(func(src, dst []float64, n int) { copy(dst, src) })

	c1 := g.Register(a, b, Linear, fn, RegisterOpts{})
	c2 := g.Register(a, b, Linear, fn, RegisterOpts{})
	if c1.Name == c2.Name {
		t.Errorf("two distinct registrations for the same (src,dst) should get distinct auto-suffixed names, got %q twice", c1.Name)
	}
	if len(g.Outgoing(a)) != 2 {
		t.Errorf("expected 2 outgoing edges from a, got %d", len(g.Outgoing(a)))
	}
}

func TestRegisterAllowCollisionReturnsExisting(t *testing.T) {
	g := NewGraph()
	a, b := rgbFormat("rgb-a2"), rgbFormat("rgb-b2")
	fn := LinearFunc(func(src, dst []float64, n int) { copy(dst, src) })

	c1 := g.Register(a, b, Linear, fn, RegisterOpts{})
	c2 := g.Register(a, b, Linear, fn, RegisterOpts{AllowCollision: true})
	if c1 != c2 {
		t.Errorf("AllowCollision should return the pre-existing identical edge")
	}
	if len(g.Outgoing(a)) != 1 {
		t.Errorf("AllowCollision must not add a duplicate edge, got %d outgoing", len(g.Outgoing(a)))
	}
}

func TestRegisterModelToModelSpawnsCompanionFormatEdge(t *testing.T) {
	g := NewGraph()
	fn := LinearFunc(func(src, dst []float64, n int) { copy(dst, src) })
	g.Register(colormodel.ModelRGB, colormodel.ModelGray, Linear, fn, RegisterOpts{})

	var found *Conversion
	for srcFmt := range g.outgoing {
		if pf, ok := srcFmt.(*colormodel.PixelFormat); ok && pf.Model == colormodel.ModelRGB {
			for _, c := range g.outgoing[srcFmt] {
				if dstFmt, ok := c.Destination.(*colormodel.PixelFormat); ok && dstFmt.Model == colormodel.ModelGray {
					found = c
				}
			}
		}
	}
	if found == nil {
		t.Fatal("expected a companion Format-to-Format edge to be spawned for a Model-to-Model registration")
	}
	if found.Error() != 0 {
		t.Errorf("companion edge should have error 0, got %v", found.Error())
	}
}

func TestConversionErrorDefaultsUnmeasured(t *testing.T) {
	g := NewGraph()
	a, b := rgbFormat("rgb-c"), rgbFormat("rgb-d")
	fn := LinearFunc(func(src, dst []float64, n int) { copy(dst, src) })
	c := g.Register(a, b, Linear, fn, RegisterOpts{})
	if c.Error() != ErrUnmeasured {
		t.Errorf("freshly registered conversion should report ErrUnmeasured, got %v", c.Error())
	}
}

func TestMeasureIdentityConversionHasZeroError(t *testing.T) {
	g := NewGraph()
	a := rgbFormat("rgb-identity")
	fn := LinearFunc(func(src, dst []float64, n int) { copy(dst, src) })
	c := g.Register(a, a, Linear, fn, RegisterOpts{})
	Measure(c, a, a)
	if c.Error() > 1e-9 {
		t.Errorf("identity conversion should measure ~0 error, got %v", c.Error())
	}
	if c.Cost() <= 0 {
		t.Errorf("Measure should record a positive cost, got %v", c.Cost())
	}
}

func TestDispatchPlanarReturnsError(t *testing.T) {
	c := newConversion("test", nil, nil, Planar)
	err := c.Dispatch(nil, nil, 0)
	if err == nil {
		t.Errorf("Dispatch on a Planar conversion should report an error directing callers to PlanarFn")
	}
}

func TestPixelsProcessedCounter(t *testing.T) {
	c := newConversion("test", nil, nil, Linear)
	c.AddPixelsProcessed(10)
	c.AddPixelsProcessed(5)
	if c.PixelsProcessed() != 15 {
		t.Errorf("PixelsProcessed() = %d, want 15", c.PixelsProcessed())
	}
}
