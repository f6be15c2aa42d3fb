// Package fish implements the converter object internal/fishcache hands
// back to callers: one of four variants (Memcpy, Simple, Path, Reference)
// dispatching through the cheapest mechanism its shape allows, plus the
// pixel/row processing entry points every format conversion ultimately
// goes through.
package fish

import (
	"fmt"
	"sync/atomic"

	"github.com/deepteams/pixelfish/internal/colormodel"
	"github.com/deepteams/pixelfish/internal/convgraph"
	"github.com/deepteams/pixelfish/internal/refconv"
	"github.com/deepteams/pixelfish/internal/scratch"
)

// Kind distinguishes the four Fish variants.
type Kind int

const (
	// Memcpy: source == destination, dispatch is a plain copy.
	Memcpy Kind = iota
	// Simple: exactly one Conversion; dispatch forwards to its function.
	Simple
	// Path: an ordered list of Conversions, processed through scratch
	// buffers in blocks of up to scratch.BlockPixels pixels.
	Path
	// Reference: no measured path exists (or tolerance is 0); every
	// pixel goes through internal/refconv.
	Reference
)

// Fish is a ready-to-use converter between two PixelFormats.
type Fish struct {
	Source      *colormodel.PixelFormat
	Destination *colormodel.PixelFormat
	Kind        Kind

	// Path holds the edge sequence: two or more edges for a Path Fish,
	// the single edge of a Simple Fish (a length-1 path is re-rigged at
	// construction time into a Simple Fish), and empty for Memcpy and
	// Reference.
	Path []*convgraph.Conversion

	srcBytesPerPixel int
	dstBytesPerPixel int

	pixelsProcessed uint64
}

// New builds a Fish for the given (source, destination) pair from a
// path-search result. path may be nil/empty (Memcpy when src == dst,
// Reference otherwise — the "search found nothing" case).
func New(src, dst *colormodel.PixelFormat, path []*convgraph.Conversion) *Fish {
	f := &Fish{
		Source:           src,
		Destination:      dst,
		srcBytesPerPixel: src.BytesPerPixel,
		dstBytesPerPixel: dst.BytesPerPixel,
	}
	switch {
	case src == dst:
		f.Kind = Memcpy
	case len(path) == 0:
		f.Kind = Reference
	case len(path) == 1:
		f.Kind = Simple
		f.Path = path
	default:
		f.Kind = Path
		f.Path = path
	}
	return f
}

// NewReference builds a Reference Fish directly, used by
// internal/fishcache both for negative-search memoization and for the
// tolerance-zero short-circuit.
func NewReference(src, dst *colormodel.PixelFormat) *Fish {
	return &Fish{
		Source:           src,
		Destination:      dst,
		Kind:             Reference,
		srcBytesPerPixel: src.BytesPerPixel,
		dstBytesPerPixel: dst.BytesPerPixel,
	}
}

// PixelsProcessed reports the running usage counter; callers must pass
// instrument=true to Process/ProcessRows for it to advance.
func (f *Fish) PixelsProcessed() uint64 {
	return atomic.LoadUint64(&f.pixelsProcessed)
}

// Process converts n pixels from src into dst.
func (f *Fish) Process(src, dst []float64, n int, instrument bool) error {
	if instrument {
		defer atomic.AddUint64(&f.pixelsProcessed, uint64(n))
	}
	switch f.Kind {
	case Memcpy:
		copy(dst, src[:n*len(f.Source.Components)])
		return nil
	case Simple:
		return f.Path[0].Dispatch(src, dst, n)
	case Path:
		return f.processPath(src, dst, n)
	case Reference:
		out := refconv.Convert(f.Source, f.Destination, src, n)
		copy(dst, out)
		return nil
	default:
		return fmt.Errorf("fish: unknown kind %v", f.Kind)
	}
}

// ProcessRows converts n pixels per row across rows rows, honoring
// independent source/destination strides.
func (f *Fish) ProcessRows(src []float64, srcStride int, dst []float64, dstStride int, n, rows int, instrument bool) error {
	for r := 0; r < rows; r++ {
		srcRow := src[r*srcStride : r*srcStride+n*len(f.Source.Components)]
		dstRow := dst[r*dstStride : r*dstStride+n*len(f.Destination.Components)]
		if err := f.Process(srcRow, dstRow, n, instrument); err != nil {
			return err
		}
	}
	return nil
}

// processPath runs a >=2-edge path through a pair of pooled scratch
// buffers, processing the input in blocks of up to scratch.BlockPixels
// pixels: the first edge writes src[block] -> A, middle edges swap A/B
// and run scratch -> scratch, and the last edge writes scratch -> dst[block].
func (f *Fish) processPath(src, dst []float64, n int) error {
	srcStride := len(f.Source.Components)
	dstStride := len(f.Destination.Components)

	for offset := 0; offset < n; offset += scratch.BlockPixels {
		block := scratch.BlockPixels
		if offset+block > n {
			block = n - offset
		}
		if err := f.processBlock(src[offset*srcStride:], dst[offset*dstStride:], block); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fish) processBlock(src, dst []float64, block int) error {
	pair := scratch.Get()
	defer scratch.Put(pair)

	src = src[:block*len(f.Source.Components)]
	dst = dst[:block*len(f.Destination.Components)]
	last := len(f.Path) - 1
	cur := pair.A
	prevLen := 0

	for i, edge := range f.Path {
		var out []float64
		switch {
		case i == last:
			out = dst
		default:
			out = cur
			if df, ok := edge.Destination.(*colormodel.PixelFormat); ok {
				out = cur[:block*len(df.Components)]
			}
		}
		in := srcFor(i, src, pair)
		if i > 0 {
			in = in[:prevLen]
		}
		if err := edge.Dispatch(in, out, block); err != nil {
			return fmt.Errorf("fish: path edge %q: %w", edge.Name, err)
		}
		prevLen = len(out)
		if i != last {
			pair.Swap()
			cur = pair.A
		}
	}
	return nil
}

// srcFor picks the input buffer for path edge i: the caller's own src
// slice for the first edge, otherwise whichever scratch buffer currently
// holds the previous edge's output (pair.B after the swap processBlock
// just performed).
func srcFor(i int, src []float64, pair *scratch.Pair) []float64 {
	if i == 0 {
		return src
	}
	return pair.B
}
