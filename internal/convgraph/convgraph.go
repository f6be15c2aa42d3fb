// Package convgraph holds the Conversion edges between entities — the
// directed graph internal/pathsearch walks — along with the dispatch
// shim that presents all three function-pointer kinds through one
// external call signature, and the error/cost measurement pipeline that
// scores a candidate edge against internal/refconv's oracle.
package convgraph

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/deepteams/pixelfish/internal/colormodel"
	"github.com/deepteams/pixelfish/internal/corpus"
	"github.com/deepteams/pixelfish/internal/refconv"
)

// debugLog is swapped out by SetDebugLogger (the root package's
// Config.DebugConversions knob) to surface every Measure call's
// error/cost at Debug level; a no-op logger by default so Measure never
// pays logging cost in the common path.
var debugLog = zap.NewNop()

// SetDebugLogger overrides the logger Measure reports to. Passing nil
// restores the no-op default.
func SetDebugLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	debugLog = l
}

// Kind distinguishes the three function-pointer shapes a Conversion's
// underlying implementation may take.
type Kind int

const (
	// Linear: tightly packed (src, dst, n).
	Linear Kind = iota
	// Plane: strided single-component (src, dst, srcPitch, dstPitch, n).
	Plane
	// Planar: per-component pointer arrays with their own pitches.
	Planar
)

// LinearFunc converts n tightly packed pixels.
type LinearFunc func(src, dst []float64, n int)

// PlaneFunc converts a single strided component plane.
type PlaneFunc func(src, dst []float64, srcPitch, dstPitch, n int)

// PlanarFunc converts per-component planes, each with its own pitch.
type PlanarFunc func(src, dst [][]float64, srcPitch, dstPitch []int, n int)

// ErrUnmeasured is the sentinel measured-error value meaning "not yet
// measured".
const ErrUnmeasured = -1.0

// Conversion is one directed edge of the graph: source and destination
// entities (either *colormodel.Model or *colormodel.PixelFormat), a
// kind-tagged function, opaque user data, and measured error/cost.
type Conversion struct {
	Name        string
	Source      any // *colormodel.Model or *colormodel.PixelFormat
	Destination any

	Kind       Kind
	LinearFn   LinearFunc
	PlaneFn    PlaneFunc
	PlanarFn   PlanarFunc
	UserData   any

	mu              sync.Mutex
	measuredError   float64
	measuredCost    float64
	pixelsProcessed uint64
}

func newConversion(name string, src, dst any, kind Kind) *Conversion {
	return &Conversion{Name: name, Source: src, Destination: dst, Kind: kind, measuredError: ErrUnmeasured}
}

// Error reports the measured mean-absolute-component error, or
// ErrUnmeasured if Measure has not run yet.
func (c *Conversion) Error() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.measuredError
}

// Cost reports the measured wall-clock cost in seconds per corpus.Size
// pixels, or 0 if unmeasured.
func (c *Conversion) Cost() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.measuredCost
}

// AddPixelsProcessed increments the usage counter (best-effort, atomic);
// internal/fish calls this as it dispatches through a Conversion.
func (c *Conversion) AddPixelsProcessed(n uint64) {
	atomic.AddUint64(&c.pixelsProcessed, n)
}

func (c *Conversion) PixelsProcessed() uint64 {
	return atomic.LoadUint64(&c.pixelsProcessed)
}

// Dispatch presents all three Kind variants through the Linear-style
// call signature, loading strides out of the conversion's own Kind when
// a caller only has a flat buffer (the common case: processing a single
// packed, pixel-interleaved Image). Planar conversions require the
// caller to use PlanarFn directly since they need per-component slices.
func (c *Conversion) Dispatch(src, dst []float64, n int) error {
	switch c.Kind {
	case Linear:
		c.LinearFn(src, dst, n)
		return nil
	case Plane:
		c.PlaneFn(src, dst, n, n, n)
		return nil
	default:
		return fmt.Errorf("convgraph: Dispatch called on a %v conversion; use PlanarFn directly", c.Kind)
	}
}

// Graph owns the adjacency lists (outgoing edges per format/model index)
// and the name-collision bookkeeping for registered Conversions.
type Graph struct {
	mu       sync.Mutex
	outgoing map[any][]*Conversion // keyed by Source (Model or Format pointer)
	byName   map[string]*Conversion
}

// NewGraph constructs an empty conversion graph.
func NewGraph() *Graph {
	return &Graph{
		outgoing: make(map[any][]*Conversion),
		byName:   make(map[string]*Conversion),
	}
}

// Outgoing returns the conversions registered with the given source
// entity, in registration order — the order internal/pathsearch's DFS
// iterates them.
func (g *Graph) Outgoing(src any) []*Conversion {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Conversion(nil), g.outgoing[src]...)
}

// RegisterOpts configures Register.
type RegisterOpts struct {
	Name           string
	AllowCollision bool
}

// Register adds a new Conversion between src and dst. By policy,
// multiple edges for the same (src, dst) are normally distinguished by
// an auto-suffixed name; if AllowCollision is
// set and an identical (src, dst, kind) edge already exists, that
// existing edge is returned instead of creating a new one.
//
// A Conversion whose source is a *colormodel.Model (not a Format)
// automatically spawns a companion Format-to-Format Conversion at
// `double` type with error 0 — callers asking the graph for a direct
// byte-level path always find one once a Model-level transform exists.
func (g *Graph) Register(src, dst any, kind Kind, fn any, opts RegisterOpts) *Conversion {
	g.mu.Lock()
	defer g.mu.Unlock()

	if opts.AllowCollision {
		for _, c := range g.outgoing[src] {
			if c.Destination == dst && c.Kind == kind {
				return c
			}
		}
	}

	name := opts.Name
	if name == "" {
		name = defaultName(src, dst)
	}
	name = g.uniqueNameLocked(name)

	c := newConversion(name, src, dst, kind)
	switch kind {
	case Linear:
		c.LinearFn, _ = fn.(LinearFunc)
	case Plane:
		c.PlaneFn, _ = fn.(PlaneFunc)
	case Planar:
		c.PlanarFn, _ = fn.(PlanarFunc)
	}

	g.outgoing[src] = append(g.outgoing[src], c)
	g.byName[name] = c

	if srcModel, ok := src.(*colormodel.Model); ok {
		if dstModel, ok := dst.(*colormodel.Model); ok {
			g.spawnCompanionFormatEdgeLocked(srcModel, dstModel)
		}
	}
	return c
}

func (g *Graph) spawnCompanionFormatEdgeLocked(srcModel, dstModel *colormodel.Model) {
	srcFmt := syntheticDoubleFormat(srcModel)
	dstFmt := syntheticDoubleFormat(dstModel)
	name := g.uniqueNameLocked(defaultName(srcFmt, dstFmt) + "-companion")
	c := newConversion(name, srcFmt, dstFmt, Linear)
	c.measuredError = 0
	c.LinearFn = func(src, dst []float64, n int) {
		out := refconv.Convert(srcFmt, dstFmt, src, n)
		copy(dst, out)
	}
	g.outgoing[srcFmt] = append(g.outgoing[srcFmt], c)
	g.byName[name] = c
}

// syntheticDoubleFormat builds an unregistered, all-double packed
// PixelFormat wrapping a Model's own component list, used only as the
// endpoint of a Model's automatically spawned Format-to-Format edge.
func syntheticDoubleFormat(m *colormodel.Model) *colormodel.PixelFormat {
	comps := make([]colormodel.FormatComponent, len(m.Components))
	for i, c := range m.Components {
		comps[i] = colormodel.FormatComponent{Component: c, Type: colormodel.TypeDouble}
	}
	return colormodel.NewFormat(m.Name+"-double", m.Space, m, comps, false)
}

func defaultName(src, dst any) string {
	return fmt.Sprintf("%s->%s", entityName(src), entityName(dst))
}

func entityName(e any) string {
	switch v := e.(type) {
	case *colormodel.Model:
		return v.Name
	case *colormodel.PixelFormat:
		return v.Name
	default:
		return "?"
	}
}

func (g *Graph) uniqueNameLocked(base string) string {
	name := base
	for i := 2; ; i++ {
		if _, exists := g.byName[name]; !exists {
			return name
		}
		name = fmt.Sprintf("%s#%d", base, i)
	}
}

// Measure runs the error/cost pipeline for a candidate Format-to-Format
// Conversion against internal/refconv's oracle: push
// the fixed test corpus through the candidate and through the
// reference, transform both back to canonical RGBA double, compute mean
// absolute component error, and time the candidate over exactly
// corpus.Size pixels.
func Measure(c *Conversion, srcFmt, dstFmt *colormodel.PixelFormat) {
	pixels := corpus.Pixels()
	n := len(pixels)

	src := make([]float64, 0, n*len(srcFmt.Components))
	for _, p := range pixels {
		src = append(src, encodeIntoFormat(srcFmt, p)...)
	}

	candidateOut := make([]float64, n*len(dstFmt.Components))
	start := time.Now()
	if c.LinearFn != nil {
		c.LinearFn(src, candidateOut, n)
	} else {
		copy(candidateOut, refconv.Convert(srcFmt, dstFmt, src, n))
	}
	elapsed := time.Since(start)

	referenceOut := refconv.Convert(srcFmt, dstFmt, src, n)

	candidateCanon := refconv.Convert(dstFmt, canonicalRGBADoubleFormat(), candidateOut, n)
	referenceCanon := refconv.Convert(dstFmt, canonicalRGBADoubleFormat(), referenceOut, n)

	var sumAbsErr float64
	for i := range candidateCanon {
		d := candidateCanon[i] - referenceCanon[i]
		if d < 0 {
			d = -d
		}
		sumAbsErr += d
	}
	meanErr := sumAbsErr / float64(len(candidateCanon))

	c.mu.Lock()
	c.measuredError = meanErr
	if c.measuredCost == 0 {
		c.measuredCost = elapsed.Seconds()
	} else {
		// EWMA rather than a single measurement: a candidate edge gets
		// re-measured every time a path containing it is rebuilt on a
		// cache miss, and wall-clock timing over corpus.Size pixels is
		// noisy enough that a straight overwrite would make path costs
		// jump between otherwise-identical searches.
		c.measuredCost = 0.9*c.measuredCost + 0.1*elapsed.Seconds()
	}
	cost := c.measuredCost
	c.mu.Unlock()

	debugLog.Debug("conversion measured",
		zap.String("name", c.Name),
		zap.Float64("error", meanErr),
		zap.Float64("cost", cost))
}

func encodeIntoFormat(f *colormodel.PixelFormat, p corpus.Pixel) []float64 {
	out := make([]float64, len(f.Components))
	for i, fc := range f.Components {
		switch {
		case fc.Component == colormodel.CompR || fc.Component == colormodel.CompGray:
			out[i] = p[0]
		case fc.Component == colormodel.CompG:
			out[i] = p[1]
		case fc.Component == colormodel.CompB:
			out[i] = p[2]
		case fc.Component.IsAlpha():
			out[i] = p[3]
		default:
			out[i] = colormodel.NeutralDefault(fc.Component)
		}
	}
	return out
}

var canonicalRGBADouble *colormodel.PixelFormat
var canonicalOnce sync.Once

func canonicalRGBADoubleFormat() *colormodel.PixelFormat {
	canonicalOnce.Do(func() {
		canonicalRGBADouble = colormodel.NewFormat("RGBA-double-canonical", colormodel.SpaceSRGBLinear, colormodel.ModelRGBALinear, []colormodel.FormatComponent{
			{Component: colormodel.CompR, Type: colormodel.TypeDouble},
			{Component: colormodel.CompG, Type: colormodel.TypeDouble},
			{Component: colormodel.CompB, Type: colormodel.TypeDouble},
			{Component: colormodel.CompA, Type: colormodel.TypeDouble},
		}, false)
	})
	return canonicalRGBADouble
}
