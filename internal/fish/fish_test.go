package fish

import (
	"testing"

	"github.com/deepteams/pixelfish/internal/colormodel"
	"github.com/deepteams/pixelfish/internal/convgraph"
	"github.com/deepteams/pixelfish/internal/scratch"
)

func rgbFmt(name string) *colormodel.PixelFormat {
	return colormodel.NewFormat(name, colormodel.SpaceSRGB, colormodel.ModelRGB, []colormodel.FormatComponent{
		{Component: colormodel.CompR, Type: colormodel.TypeDouble},
		{Component: colormodel.CompG, Type: colormodel.TypeDouble},
		{Component: colormodel.CompB, Type: colormodel.TypeDouble},
	}, false)
}

func identityEdge(src, dst *colormodel.PixelFormat) *convgraph.Conversion {
	g := convgraph.NewGraph()
	return g.Register(src, dst, convgraph.Linear, convgraph.LinearFunc(func(s, d []float64, n int) {
		copy(d, s)
	}), convgraph.RegisterOpts{})
}

func TestNewMemcpyWhenSameFormat(t *testing.T) {
	a := rgbFmt("fish-memcpy")
	f := New(a, a, nil)
	if f.Kind != Memcpy {
		t.Errorf("expected Memcpy, got %v", f.Kind)
	}
}

func TestNewReferenceWhenNoPath(t *testing.T) {
	a, b := rgbFmt("fish-ref-a"), rgbFmt("fish-ref-b")
	f := New(a, b, nil)
	if f.Kind != Reference {
		t.Errorf("expected Reference, got %v", f.Kind)
	}
}

func TestNewSimpleRerigsLengthOnePath(t *testing.T) {
	a, b := rgbFmt("fish-simple-a"), rgbFmt("fish-simple-b")
	edge := identityEdge(a, b)
	f := New(a, b, []*convgraph.Conversion{edge})
	if f.Kind != Simple {
		t.Errorf("a length-1 path should be re-rigged to Simple, got %v", f.Kind)
	}
}

func TestNewPathForMultiEdge(t *testing.T) {
	a, b, c := rgbFmt("fish-path-a"), rgbFmt("fish-path-b"), rgbFmt("fish-path-c")
	e1, e2 := identityEdge(a, b), identityEdge(b, c)
	f := New(a, c, []*convgraph.Conversion{e1, e2})
	if f.Kind != Path {
		t.Errorf("a 2-edge path should stay Path, got %v", f.Kind)
	}
}

func TestProcessMemcpy(t *testing.T) {
	a := rgbFmt("fish-process-memcpy")
	f := New(a, a, nil)
	src := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	dst := make([]float64, len(src))
	if err := f.Process(src, dst, 2, false); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i := range src {
		if dst[i] != src[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], src[i])
		}
	}
}

func TestProcessSimpleDispatchesEdge(t *testing.T) {
	a, b := rgbFmt("fish-process-simple-a"), rgbFmt("fish-process-simple-b")
	edge := identityEdge(a, b)
	f := New(a, b, []*convgraph.Conversion{edge})
	src := []float64{0.1, 0.2, 0.3}
	dst := make([]float64, 3)
	if err := f.Process(src, dst, 1, true); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if dst[0] != 0.1 || dst[1] != 0.2 || dst[2] != 0.3 {
		t.Errorf("got %v, want %v", dst, src)
	}
	if f.PixelsProcessed() != 1 {
		t.Errorf("PixelsProcessed() = %d, want 1", f.PixelsProcessed())
	}
}

func TestProcessPathChainsEdgesThroughScratch(t *testing.T) {
	a, b, c := rgbFmt("fish-process-path-a"), rgbFmt("fish-process-path-b"), rgbFmt("fish-process-path-c")
	scale := func(k float64) convgraph.LinearFunc {
		return func(src, dst []float64, n int) {
			for i := range src {
				dst[i] = src[i] * k
			}
		}
	}
	g := convgraph.NewGraph()
	e1 := g.Register(a, b, convgraph.Linear, scale(2), convgraph.RegisterOpts{})
	e2 := g.Register(b, c, convgraph.Linear, scale(3), convgraph.RegisterOpts{})

	f := New(a, c, []*convgraph.Conversion{e1, e2})
	src := []float64{0.1, 0.2, 0.3}
	dst := make([]float64, 3)
	if err := f.Process(src, dst, 1, false); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i := range src {
		want := src[i] * 6
		if diff := dst[i] - want; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestProcessPathMultiBlock(t *testing.T) {
	a, b, c := rgbFmt("fish-process-path-multi-a"), rgbFmt("fish-process-path-multi-b"), rgbFmt("fish-process-path-multi-c")
	scale := func(k float64) convgraph.LinearFunc {
		return func(src, dst []float64, n int) {
			for i := range src {
				dst[i] = src[i] * k
			}
		}
	}
	g := convgraph.NewGraph()
	e1 := g.Register(a, b, convgraph.Linear, scale(2), convgraph.RegisterOpts{})
	e2 := g.Register(b, c, convgraph.Linear, scale(3), convgraph.RegisterOpts{})
	f := New(a, c, []*convgraph.Conversion{e1, e2})

	n := scratch.BlockPixels + 17
	src := make([]float64, n*3)
	for i := range src {
		src[i] = float64(i%7) / 7
	}
	dst := make([]float64, n*3)
	if err := f.Process(src, dst, n, false); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i := range src {
		want := src[i] * 6
		if diff := dst[i] - want; diff > 1e-12 || diff < -1e-12 {
			t.Fatalf("dst[%d] = %v, want %v (multi-block boundary)", i, dst[i], want)
		}
	}
}

func TestProcessRowsHonorsStrides(t *testing.T) {
	a := rgbFmt("fish-rows")
	f := New(a, a, nil)
	src := []float64{1, 2, 3, 0, 0, 4, 5, 6, 0, 0}
	dst := make([]float64, 10)
	if err := f.ProcessRows(src, 5, dst, 5, 3, 2, false); err != nil {
		t.Fatalf("ProcessRows: %v", err)
	}
	want := []float64{1, 2, 3, 0, 0, 4, 5, 6, 0, 0}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}
