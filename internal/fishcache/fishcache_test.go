package fishcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deepteams/pixelfish/internal/colormodel"
	"github.com/deepteams/pixelfish/internal/convgraph"
	"github.com/deepteams/pixelfish/internal/fish"
)

func rgbFmt(name string) *colormodel.PixelFormat {
	return colormodel.NewFormat(name, colormodel.SpaceSRGB, colormodel.ModelRGB, []colormodel.FormatComponent{
		{Component: colormodel.CompR, Type: colormodel.TypeDouble},
		{Component: colormodel.CompG, Type: colormodel.TypeDouble},
		{Component: colormodel.CompB, Type: colormodel.TypeDouble},
	}, false)
}

func TestFishIdentityIsMemcpyWithoutSearch(t *testing.T) {
	c := New(convgraph.NewGraph(), Config{Version: "test", Tolerance: DefaultTestTolerance})
	a := rgbFmt("fc-identity")
	f := c.Fish(a, a)
	if f.Kind != fish.Memcpy {
		t.Errorf("expected Memcpy, got %v", f.Kind)
	}
}

func TestFishZeroToleranceAlwaysReference(t *testing.T) {
	c := New(convgraph.NewGraph(), Config{Version: "test", Tolerance: 0})
	a, b := rgbFmt("fc-zero-a"), rgbFmt("fc-zero-b")
	f := c.Fish(a, b)
	if f.Kind != fish.Reference {
		t.Errorf("expected Reference at tolerance 0, got %v", f.Kind)
	}
}

func TestFishMissReturnsReferenceThenCachesPath(t *testing.T) {
	g := convgraph.NewGraph()
	a, b := rgbFmt("fc-miss-a"), rgbFmt("fc-miss-b")
	g.Register(a, b, convgraph.Linear, convgraph.LinearFunc(func(src, dst []float64, n int) {
		copy(dst, src)
	}), convgraph.RegisterOpts{})

	c := New(g, Config{Version: "test", Tolerance: DefaultTestTolerance})

	first := c.Fish(a, b)
	if first.Kind != fish.Reference {
		t.Errorf("first (cache-miss) call should hand back Reference, got %v", first.Kind)
	}

	second := c.Fish(a, b)
	if second.Kind == fish.Reference {
		t.Errorf("second call should hit the now-populated cache with a real path, got %v", second.Kind)
	}
}

func TestFishMissWithNoPathCachesSentinel(t *testing.T) {
	g := convgraph.NewGraph()
	a, b := rgbFmt("fc-sentinel-a"), rgbFmt("fc-sentinel-b")
	c := New(g, Config{Version: "test", Tolerance: DefaultTestTolerance})

	_ = c.Fish(a, b) // populates the sentinel: no edge registered at all

	second := c.Fish(a, b)
	if second.Kind != fish.Reference {
		t.Errorf("a memoized negative search result should still resolve to Reference, got %v", second.Kind)
	}
}

func TestHashKeyIsNonZeroAndFingerprintBased(t *testing.T) {
	a, b := rgbFmt("fc-hash-a"), rgbFmt("fc-hash-b")
	k1 := hashKey(a, b)
	if k1 == 0 {
		t.Error("hashKey must never be zero")
	}
	k2 := hashKey(a, b)
	if k1 != k2 {
		t.Error("hashKey must be deterministic for the same pair")
	}
	if hashKey(a, b) == hashKey(b, a) {
		t.Error("hashKey should (almost certainly) differ when src/dst are swapped")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g := convgraph.NewGraph()
	a, b := rgbFmt("fc-persist-a"), rgbFmt("fc-persist-b")
	g.Register(a, b, convgraph.Linear, convgraph.LinearFunc(func(src, dst []float64, n int) {
		copy(dst, src)
	}), convgraph.RegisterOpts{})

	cfg := Config{Version: "test", Tolerance: DefaultTestTolerance, StrictEviction: true}
	c := New(g, cfg)
	_ = c.Fish(a, b)
	_ = c.Fish(a, b) // second call should now hit the populated path entry

	dir := t.TempDir()
	path := filepath.Join(dir, "cache.txt")
	if err := c.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected cache file to exist: %v", err)
	}

	c2 := New(g, cfg)
	formats := map[string]*colormodel.PixelFormat{a.Name: a, b.Name: b}
	conversions := map[string]*convgraph.Conversion{}
	for _, e := range g.Outgoing(a) {
		conversions[e.Name] = e
	}
	err := c2.Load(path, func(name string) (*colormodel.PixelFormat, bool) {
		f, ok := formats[name]
		return f, ok
	}, func(name string) (*convgraph.Conversion, bool) {
		e, ok := conversions[name]
		return e, ok
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	f := c2.Fish(a, b)
	if f.Kind == fish.Reference {
		t.Error("a loaded Path entry should not fall back to Reference")
	}
}

func TestLoadDiscardsOnHeaderMismatch(t *testing.T) {
	g := convgraph.NewGraph()
	a, b := rgbFmt("fc-header-a"), rgbFmt("fc-header-b")
	g.Register(a, b, convgraph.Linear, convgraph.LinearFunc(func(src, dst []float64, n int) {
		copy(dst, src)
	}), convgraph.RegisterOpts{})

	c := New(g, Config{Version: "v1", Tolerance: DefaultTestTolerance, StrictEviction: true})
	_ = c.Fish(a, b)
	_ = c.Fish(a, b)

	dir := t.TempDir()
	path := filepath.Join(dir, "cache.txt")
	if err := c.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c2 := New(g, Config{Version: "v2", Tolerance: DefaultTestTolerance, StrictEviction: true})
	err := c2.Load(path, func(name string) (*colormodel.PixelFormat, bool) { return nil, false }, func(name string) (*convgraph.Conversion, bool) { return nil, false })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f := c2.Fish(a, b); f.Kind != fish.Reference {
		t.Error("a version-mismatched cache file must be discarded wholesale")
	}
}

func TestLoadDropsStaleFormatRecord(t *testing.T) {
	g := convgraph.NewGraph()
	a, b := rgbFmt("fc-stale-a"), rgbFmt("fc-stale-b")
	g.Register(a, b, convgraph.Linear, convgraph.LinearFunc(func(src, dst []float64, n int) {
		copy(dst, src)
	}), convgraph.RegisterOpts{})

	cfg := Config{Version: "test", Tolerance: DefaultTestTolerance, StrictEviction: true}
	c := New(g, cfg)
	_ = c.Fish(a, b)
	_ = c.Fish(a, b)

	dir := t.TempDir()
	path := filepath.Join(dir, "cache.txt")
	if err := c.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c2 := New(g, cfg)
	err := c2.Load(path,
		func(name string) (*colormodel.PixelFormat, bool) { return nil, false }, // every format now "gone"
		func(name string) (*convgraph.Conversion, bool) { return nil, false },
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f := c2.Fish(a, b); f.Kind != fish.Reference {
		t.Error("a record referencing a vanished format must be dropped, not crash or resurrect")
	}
}

// DefaultTestTolerance is a generous tolerance for tests that only care
// about path existence/shape, not realistic color-accuracy budgets.
const DefaultTestTolerance = 1.0
