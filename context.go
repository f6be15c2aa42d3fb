// Package pixelfish is a universal pixel-format conversion library: it
// interns numeric types, components, color models, tone-reproduction
// curves, color spaces and pixel formats, builds a measured graph of
// Conversion edges between them, and hands out Fish converters that walk
// the cheapest known path (or fall back to an always-correct reference
// pipeline) between any two registered formats.
package pixelfish

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/deepteams/pixelfish/internal/colormodel"
	"github.com/deepteams/pixelfish/internal/convgraph"
	"github.com/deepteams/pixelfish/internal/fish"
	"github.com/deepteams/pixelfish/internal/fishcache"
	"github.com/deepteams/pixelfish/internal/pathsearch"
	"github.com/deepteams/pixelfish/internal/registry"
)

// Public aliases onto the internal entity types, so callers never import
// internal/colormodel directly.
type (
	NumericType     = colormodel.NumericType
	Component       = colormodel.Component
	Model           = colormodel.Model
	Space           = colormodel.Space
	PixelFormat     = colormodel.PixelFormat
	TRC             = colormodel.TRC
	FormatComponent = colormodel.FormatComponent
	ModelFlags      = colormodel.ModelFlags
	ComponentFlags  = colormodel.ComponentFlags
	Chromaticity    = colormodel.Chromaticity
	Conversion      = convgraph.Conversion
	LinearFunc      = convgraph.LinearFunc
	PlaneFunc       = convgraph.PlaneFunc
	PlanarFunc      = convgraph.PlanarFunc

	// Entity is either a *Model or a *PixelFormat — the two vertex kinds
	// NewConversion accepts.
	Entity = any
)

// Model flag re-exports.
const (
	FlagRGB        = colormodel.FlagRGB
	FlagGray       = colormodel.FlagGray
	FlagCMYK       = colormodel.FlagCMYK
	FlagCIE        = colormodel.FlagCIE
	FlagLinear     = colormodel.FlagLinear
	FlagNonlinear  = colormodel.FlagNonlinear
	FlagPerceptual = colormodel.FlagPerceptual
	FlagInverted   = colormodel.FlagInverted
	FlagAssociated = colormodel.FlagAssociated
	FlagAlpha      = colormodel.FlagAlpha
)

// Component flag re-exports.
const (
	CompLuma    = colormodel.CompLuma
	CompChroma  = colormodel.CompChroma
	CompAlpha   = colormodel.CompAlpha
	CompPadding = colormodel.CompPadding
)

// ErrUnknownFormat is returned by Fish/FastFish when either endpoint
// name doesn't resolve to a registered PixelFormat.
var ErrUnknownFormat = errors.New("pixelfish: unknown format")

// rootLog is the package-level logger the error-handling path writes
// through; a no-op by default, replaced at Init
// when Config.DebugConversions is set (which also wires the same logger
// into internal/convgraph's Measure debug line).
var rootLog = zap.NewNop()

// Context owns one complete set of interned entities, the conversion
// graph built on top of them, and the Fish cache bound to that graph.
// Most callers never construct one directly: Init seeds a package-level
// default Context, and the top-level lookup/constructor functions all
// operate on it.
type Context struct {
	types      *registry.Registry[*NumericType]
	components *registry.Registry[*Component]
	models     *registry.Registry[*Model]
	spaces     *registry.Registry[*Space]
	formats    *registry.Registry[*PixelFormat]
	trcs       *registry.Registry[*TRC]

	graph *convgraph.Graph
	cache *fishcache.Cache
	cfg   Config

	cachePath string
}

var (
	ctxMu          sync.Mutex
	defaultContext *Context
	initCount      int
)

// Init seeds the package-level default Context: the well-known entities
// (types, components, models, spaces and the canonical formats this
// library ships), the representative core set of fast-path Conversions
// registered between them, and a Fish cache loaded from cfg's (or the
// environment's) persisted cache directory. Init is refcounted — nested
// Init/Exit pairs are safe — and only the first call's Config takes
// effect until the outermost Exit.
func Init(cfg Config) error {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	initCount++
	if defaultContext != nil {
		return nil
	}

	resolved := configFromEnv(cfg)
	ctx, err := newContext(resolved)
	if err != nil {
		initCount--
		return err
	}
	defaultContext = ctx
	return nil
}

// Exit persists the default Context's Fish cache (logging, not failing,
// on I/O error) and, once the outermost Init/Exit
// pair unwinds, discards the Context.
func Exit() error {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	if defaultContext == nil {
		return nil
	}
	initCount--
	err := defaultContext.persist()
	if initCount <= 0 {
		defaultContext = nil
		initCount = 0
	}
	return err
}

func (c *Context) persist() error {
	if c.cachePath == "" {
		return nil
	}
	if err := c.cache.Save(c.cachePath); err != nil {
		rootLog.Warn("fish cache save failed", zap.String("path", c.cachePath), zap.Error(err))
		return nil
	}
	return nil
}

func newContext(cfg Config) (*Context, error) {
	if cfg.DebugConversions {
		rootLog, _ = zap.NewDevelopment()
		if rootLog == nil {
			rootLog = zap.NewNop()
		}
		convgraph.SetDebugLogger(rootLog)
	}

	ctx := &Context{
		types:      registry.New[*NumericType](rootLog),
		components: registry.New[*Component](rootLog),
		models:     registry.New[*Model](rootLog),
		spaces:     registry.New[*Space](rootLog),
		formats:    registry.New[*PixelFormat](rootLog),
		trcs:       registry.New[*TRC](rootLog),
		graph:      convgraph.NewGraph(),
		cfg:        cfg,
	}
	ctx.seedWellKnown()
	registerBuiltinConversions(ctx.graph)

	ctx.cache = fishcache.New(ctx.graph, fishcache.Config{
		Version:        cfg.cacheVersion(),
		Tolerance:      cfg.tolerance(),
		DepthBound:     cfg.depthBound(),
		DisableLoad:    cfg.DisableCacheLoad,
		Instrument:     cfg.Instrument,
		StrictEviction: cfg.StrictEviction,
	})

	if cfg.CacheDir != "" {
		ctx.cachePath = cfg.CacheDir + "/fish.cache"
		if !cfg.DisableCacheLoad {
			if err := ctx.cache.Load(ctx.cachePath, ctx.resolveFormatByName, ctx.resolveConversionByName); err != nil {
				rootLog.Warn("fish cache load failed", zap.String("path", ctx.cachePath), zap.Error(err))
			}
		}
	}
	return ctx, nil
}

func (c *Context) resolveFormatByName(name string) (*PixelFormat, bool) {
	return c.formats.Lookup(name)
}

func (c *Context) resolveConversionByName(name string) (*Conversion, bool) {
	for _, edges := range allOutgoing(c) {
		for _, e := range edges {
			if e.Name == name {
				return e, true
			}
		}
	}
	return nil, false
}

// allOutgoing walks every registered format's outgoing edges; used only
// by cache-load conversion-name resolution, which runs once per process
// lifetime and is not on any hot path.
func allOutgoing(c *Context) [][]*Conversion {
	var all [][]*Conversion
	c.formats.Iterate(func(f *PixelFormat) bool {
		all = append(all, c.graph.Outgoing(f))
		return true
	})
	c.models.Iterate(func(m *Model) bool {
		all = append(all, c.graph.Outgoing(m))
		return true
	})
	return all
}

// seedWellKnown interns every well-known entity this package's internal
// colormodel sub-package predefines (the sRGB/linear spaces, the
// RGB/RGBA/Gray/YCbCr/CMYK/Oklab models, the six standard numeric types,
// and the canonical double/8-bit formats builtins.go's fast paths are
// registered against) so Type/Component/Model/Space/Format lookups find
// them by name without a caller having to construct anything first.
func (c *Context) seedWellKnown() {
	for _, t := range []*NumericType{colormodel.TypeU8, colormodel.TypeU16, colormodel.TypeU32, colormodel.TypeHalf, colormodel.TypeFloat, colormodel.TypeDouble} {
		c.types.Insert(t)
	}
	for _, comp := range []*Component{
		colormodel.CompR, colormodel.CompG, colormodel.CompB, colormodel.CompA,
		colormodel.CompY, colormodel.CompCb, colormodel.CompCr, colormodel.CompGray,
		colormodel.CompC, colormodel.CompM, colormodel.CompYk, colormodel.CompK,
		colormodel.CompOkL, colormodel.CompOkA, colormodel.CompOkB,
	} {
		c.components.Insert(comp)
	}
	for _, sp := range []*Space{colormodel.SpaceSRGB, colormodel.SpaceSRGBLinear} {
		c.spaces.Insert(sp)
	}
	for _, m := range []*Model{
		colormodel.ModelRGB, colormodel.ModelRGBA, colormodel.ModelRGBALinear,
		colormodel.ModelRGBAAssociated, colormodel.ModelGray, colormodel.ModelYCbCr,
		colormodel.ModelCMYK, colormodel.ModelCMYKA, colormodel.ModelOklab,
	} {
		c.models.Insert(m)
	}
	for _, f := range []*PixelFormat{
		colormodel.FormatRGBADouble, colormodel.FormatRGBDouble, colormodel.FormatRGBAEncodedDouble,
		colormodel.FormatRGBAAssociatedDouble, colormodel.FormatGrayDouble, colormodel.FormatYCbCrDouble,
		colormodel.FormatCMYKADouble, colormodel.FormatOklabDouble,
		colormodel.FormatRGBu8, colormodel.FormatRGBAu8, colormodel.FormatRGBAAssociatedU8,
		colormodel.FormatGrayU8, colormodel.FormatGrayAlphaU8, colormodel.FormatCMYKu8,
		colormodel.FormatRGBAFloat, colormodel.FormatRGBAu16,
	} {
		c.formats.Insert(f)
	}
}

// ensureContext returns the default Context, auto-initializing it with
// a zero Config (all knobs from the environment, or their package
// defaults) if no caller has run Init yet — most callers never call Init
// explicitly and just start converting.
func ensureContext() *Context {
	ctxMu.Lock()
	if defaultContext != nil {
		ctx := defaultContext
		ctxMu.Unlock()
		return ctx
	}
	ctxMu.Unlock()

	_ = Init(Config{})

	ctxMu.Lock()
	defer ctxMu.Unlock()
	return defaultContext
}

// Type looks up a registered NumericType by name.
func Type(name string) (*NumericType, bool) { return ensureContext().types.Lookup(name) }

// Component looks up a registered Component by name.
func Component(name string) (*Component, bool) { return ensureContext().components.Lookup(name) }

// Model looks up a registered Model by name.
func Model(name string) (*Model, bool) { return ensureContext().models.Lookup(name) }

// Space looks up a registered Space by name.
func Space(name string) (*Space, bool) { return ensureContext().spaces.Lookup(name) }

// Format looks up a registered PixelFormat by name.
func Format(name string) (*PixelFormat, bool) { return ensureContext().formats.Lookup(name) }

// FormatWithSpace returns (creating and interning it on first use) the
// PixelFormat identical to the named base format but rebased onto space,
// named "<base>-<space>".
func FormatWithSpace(baseName string, space *Space) *PixelFormat {
	ctx := ensureContext()
	base, ok := ctx.formats.Lookup(baseName)
	if !ok {
		return nil
	}
	name := base.Name + "-" + space.Name
	if existing, ok := ctx.formats.Lookup(name); ok {
		return existing
	}
	derived := colormodel.NewFormat(name, space, base.Model, base.Components, base.Planar)
	derived.Generic = base.Generic
	return ctx.formats.Insert(derived)
}

// FormatRef is accepted by Fish and FastFish as either a *PixelFormat
// handle or a format name string.
type FormatRef = any

func resolveFormatRef(ctx *Context, ref FormatRef) (*PixelFormat, bool) {
	switch v := ref.(type) {
	case *PixelFormat:
		return v, v != nil
	case string:
		return ctx.formats.Lookup(v)
	default:
		return nil, false
	}
}

func errUnknownFormat(ref FormatRef) error {
	rootLog.Error("unknown format", zap.Any("ref", ref))
	return ErrUnknownFormat
}

// Fish returns a ready-to-use converter between src and dst, resolving
// them from the default Context (by handle or by name) and memoizing
// the result in the Fish cache. An unresolvable name logs at Error and
// returns ErrUnknownFormat; any other miss degrades to a Reference Fish
// rather than failing.
func Fish(src, dst FormatRef) (*fish.Fish, error) {
	ctx := ensureContext()
	sf, ok := resolveFormatRef(ctx, src)
	if !ok {
		return nil, errUnknownFormat(src)
	}
	df, ok := resolveFormatRef(ctx, dst)
	if !ok {
		return nil, errUnknownFormat(dst)
	}
	return ctx.cache.Fish(sf, df), nil
}

// FastFish builds a Fish for (src, dst) at an explicit Quality tolerance
// rather than the Context's configured default, running a fresh path
// search every call instead of going through (or populating) the
// persistent Fish cache — for one-off conversions where the caller knows
// better than the cache's warm-path heuristics.
func FastFish(src, dst FormatRef, quality Quality) (*fish.Fish, error) {
	ctx := ensureContext()
	sf, ok := resolveFormatRef(ctx, src)
	if !ok {
		return nil, errUnknownFormat(src)
	}
	df, ok := resolveFormatRef(ctx, dst)
	if !ok {
		return nil, errUnknownFormat(dst)
	}
	if sf == df {
		return fish.New(sf, df, nil), nil
	}
	tolerance := quality.tolerance
	if tolerance == 0 {
		tolerance = ctx.cfg.tolerance()
	}
	result, found := pathsearch.SearchWithBound(ctx.graph, sf, df, tolerance, ctx.cfg.depthBound())
	if !found {
		return fish.NewReference(sf, df), nil
	}
	return fish.New(sf, df, result.Path), nil
}

// Process converts n pixels from src into dst, decoding/encoding
// through f.Source/f.Destination's byte-level storage types around the
// normalized-float64 pipeline every internal converter runs in.
func Process(f *fish.Fish, src, dst []byte, n int) error {
	ctx := ensureContext()
	srcVals := colormodel.DecodeBytes(f.Source, src, n)
	dstVals := make([]float64, n*len(f.Destination.Components))
	if err := f.Process(srcVals, dstVals, n, ctx.cfg.Instrument); err != nil {
		return err
	}
	copy(dst, colormodel.EncodeBytes(f.Destination, dstVals, n))
	return nil
}

// ProcessRows is Process's strided counterpart, converting n pixels from
// each of rows rows; srcStride/dstStride are byte strides (which may
// include row padding beyond n pixels' worth of storage).
func ProcessRows(f *fish.Fish, src []byte, srcStride int, dst []byte, dstStride int, n, rows int) error {
	ctx := ensureContext()
	srcComps := len(f.Source.Components)
	dstComps := len(f.Destination.Components)

	srcVals := make([]float64, rows*n*srcComps)
	for r := 0; r < rows; r++ {
		rowBytes := src[r*srcStride : r*srcStride+n*f.Source.BytesPerPixel]
		copy(srcVals[r*n*srcComps:(r+1)*n*srcComps], colormodel.DecodeBytes(f.Source, rowBytes, n))
	}

	dstVals := make([]float64, rows*n*dstComps)
	if err := f.ProcessRows(srcVals, n*srcComps, dstVals, n*dstComps, n, rows, ctx.cfg.Instrument); err != nil {
		return err
	}

	for r := 0; r < rows; r++ {
		rowVals := dstVals[r*n*dstComps : (r+1)*n*dstComps]
		copy(dst[r*dstStride:r*dstStride+n*f.Destination.BytesPerPixel], colormodel.EncodeBytes(f.Destination, rowVals, n))
	}
	return nil
}
