// Package pathsearch finds a sequence of internal/convgraph Conversions
// from a source PixelFormat to a destination one, minimizing measured
// composite cost subject to a tolerance on composite error. Because edge
// cost isn't additive in a way Dijkstra can exploit, the search is a
// bounded-depth DFS with backtracking, exactly as spec'd: multiplicative
// error-product pruning, an "aesthetic prune" against pointless
// narrowing, and a retry ladder on the depth bound.
package pathsearch

import (
	"sync"
	"time"

	"github.com/deepteams/pixelfish/internal/colormodel"
	"github.com/deepteams/pixelfish/internal/convgraph"
	"github.com/deepteams/pixelfish/internal/corpus"
	"github.com/deepteams/pixelfish/internal/refconv"
)

// DefaultTolerance is the default composite-error budget a search must
// stay under; the root package's Config.Tolerance (set by the caller or
// read from the environment) overrides it.
const DefaultTolerance = 4.7e-6

// DefaultDepthBound is the starting depth limit; HardDepthCap bounds the
// bound+1/bound+2 retry ladder Search runs when nothing is found.
const (
	DefaultDepthBound = 4
	HardDepthCap      = 8
)

// Result is a found path together with its measured composite cost and
// error, ready to be handed to internal/fish as a Path Fish.
type Result struct {
	Path  []*convgraph.Conversion
	Cost  float64
	Error float64
}

// Search finds the cheapest path from src to dst under tolerance. It
// returns (nil, false) if no path is found at DefaultDepthBound or at
// the two retry bounds above it (never beyond HardDepthCap).
// Tolerance 0 is a special mode handled by the caller (internal/fishcache):
// Search itself still honors whatever tolerance it's given, but a zero
// tolerance means the reference converter should be returned directly
// without calling Search at all.
func Search(g *convgraph.Graph, src, dst *colormodel.PixelFormat, tolerance float64) (*Result, bool) {
	return SearchWithBound(g, src, dst, tolerance, DefaultDepthBound)
}

// SearchWithBound is Search generalized over the starting depth bound,
// for callers whose Config overrides PathLength away from
// DefaultDepthBound (root package's Init). startBound is clamped into
// [1, HardDepthCap] so a misconfigured value can't make the retry ladder
// degenerate or exceed the hard cap.
func SearchWithBound(g *convgraph.Graph, src, dst *colormodel.PixelFormat, tolerance float64, startBound int) (*Result, bool) {
	if src == dst {
		return &Result{Path: nil, Cost: 0, Error: 0}, true
	}
	if startBound < 1 {
		startBound = 1
	}
	if startBound > HardDepthCap {
		startBound = HardDepthCap
	}

	for bound := startBound; bound <= HardDepthCap; bound++ {
		if r, ok := searchAtBound(g, src, dst, tolerance, bound); ok {
			return r, true
		}
		// Only the first attempt uses startBound; a failed search
		// retries at bound+1 then bound+2, but never beyond HardDepthCap.
		if bound == startBound+2 {
			break
		}
	}
	return nil, false
}

// searchAtBound runs one full bounded-DFS at a fixed depth limit.
func searchAtBound(g *convgraph.Graph, src, dst *colormodel.PixelFormat, tolerance float64, bound int) (*Result, bool) {
	s := &searcher{
		g:         g,
		dst:       dst,
		tolerance: tolerance,
		bound:     bound,
		visited:   make([]bool, maxIndex(src, dst)+1),
		best:      nil,
	}
	s.path = make([]*convgraph.Conversion, 0, bound)
	s.dfs(src, 1.0)
	if s.best == nil {
		return nil, false
	}
	return s.best, true
}

// maxIndex gives the searcher's visited bitmap a starting size; it grows
// on demand via ensureVisited since intermediate formats encountered
// mid-search may carry a higher Index than either endpoint.
func maxIndex(src, dst *colormodel.PixelFormat) int {
	if src.Index > dst.Index {
		return src.Index
	}
	return dst.Index
}

type searcher struct {
	g         *convgraph.Graph
	dst       *colormodel.PixelFormat
	tolerance float64
	bound     int

	// visited is caller-local, indexed by PixelFormat.Index, replacing a
	// shared mutable flag kept directly on the format struct; this makes
	// concurrent searches over distinct (src, dst) pairs safe without any
	// global mutex.
	visited []bool
	path    []*convgraph.Conversion
	best    *Result
}

func (s *searcher) ensureVisited(idx int) {
	if idx >= len(s.visited) {
		grown := make([]bool, idx+1)
		copy(grown, s.visited)
		s.visited = grown
	}
}

func (s *searcher) dfs(cur *colormodel.PixelFormat, errProduct float64) {
	if cur == s.dst && len(s.path) > 0 {
		s.considerLeaf()
		// No return here: the walk goes on through dst's outgoing edges,
		// but dst is marked visited for that subtree, so no longer path
		// can come back to dst and produce a second leaf from here.
	}
	if len(s.path) >= s.bound {
		return
	}

	s.ensureVisited(cur.Index)
	if s.visited[cur.Index] {
		return
	}
	s.visited[cur.Index] = true
	defer func() { s.visited[cur.Index] = false }()

	start := cur
	if len(s.path) > 0 {
		if f, ok := s.path[0].Source.(*colormodel.PixelFormat); ok {
			start = f
		}
	}

	for _, edge := range s.g.Outgoing(cur) {
		nextFmt, ok := edge.Destination.(*colormodel.PixelFormat)
		if !ok {
			continue // Model-level edges aren't walkable by format path search
		}

		// An unmeasured edge contributes no known error for pruning
		// purposes; it gets measured for real at the leaf via
		// considerLeaf's composite measurement.
		edgeErr := edge.Error()
		if edgeErr == convgraph.ErrUnmeasured {
			edgeErr = 0
		}
		nextProduct := errProduct * (1 + edgeErr)
		if nextProduct-1 > s.tolerance {
			continue
		}

		if aestheticPrune(start, s.dst, nextFmt) {
			continue
		}

		s.ensureVisited(nextFmt.Index)
		if s.visited[nextFmt.Index] {
			continue
		}

		s.path = append(s.path, edge)
		s.dfs(nextFmt, nextProduct)
		s.path = s.path[:len(s.path)-1]
	}
}

// aestheticPrune implements the "bad idea" prune: skip an edge whose
// destination has fewer components than both the path's start and the
// ultimate target (would drop information, e.g. alpha) or fewer bits
// than both (needless narrowing), unless the destination IS the target
// (narrowing into the actual goal format is the point of the search).
func aestheticPrune(start, goal, candidate *colormodel.PixelFormat) bool {
	if candidate == goal {
		return false
	}
	fewerComponents := len(candidate.Components) < len(start.Components) && len(candidate.Components) < len(goal.Components)
	fewerBits := bitsOf(candidate) < bitsOf(start) && bitsOf(candidate) < bitsOf(goal)
	return fewerComponents || fewerBits
}

func bitsOf(f *colormodel.PixelFormat) int {
	total := 0
	for _, c := range f.Components {
		total += c.Type.BitWidth
	}
	return total
}

// considerLeaf measures the current path's composite cost/error exactly
// and keeps it if it beats the best found so far.
func (s *searcher) considerLeaf() {
	if len(s.path) == 0 {
		return
	}
	srcFmt, ok := s.path[0].Source.(*colormodel.PixelFormat)
	if !ok {
		return
	}
	for _, edge := range s.path {
		edgeSrc, okSrc := edge.Source.(*colormodel.PixelFormat)
		edgeDst, okDst := edge.Destination.(*colormodel.PixelFormat)
		if okSrc && okDst {
			// Opportunistic re-measurement: every edge on a path that
			// reaches a leaf gets its cost/error refreshed (EWMA on cost,
			// convgraph.Measure), not just edges freshly registered.
			convgraph.Measure(edge, edgeSrc, edgeDst)
		}
	}

	cost, err := measurePath(s.path, srcFmt, s.dst)
	if err > s.tolerance {
		return
	}
	if s.best == nil || cost < s.best.Cost {
		s.best = &Result{
			Path:  append([]*convgraph.Conversion(nil), s.path...),
			Cost:  cost,
			Error: err,
		}
	}
}

// measurePath runs the fixed test corpus through the full edge sequence
// and through the reference converter, compares both in canonical RGBA
// double, and times the candidate chain over exactly corpus.Size pixels
// — the same measurement convgraph.Measure applies to a single edge,
// generalized to a composite path.
func measurePath(path []*convgraph.Conversion, srcFmt, dstFmt *colormodel.PixelFormat) (cost, err float64) {
	pixels := corpus.Pixels()
	n := len(pixels)

	buf := make([]float64, 0, n*len(srcFmt.Components))
	for _, p := range pixels {
		buf = append(buf, encodeIntoFormat(srcFmt, p)...)
	}

	start := time.Now()
	cur := buf
	for _, edge := range path {
		edgeDst, _ := edge.Destination.(*colormodel.PixelFormat)
		out := make([]float64, n*len(edgeDst.Components))
		if edge.Kind == convgraph.Linear && edge.LinearFn != nil {
			edge.LinearFn(cur, out, n)
		} else {
			edgeSrc, _ := edge.Source.(*colormodel.PixelFormat)
			copy(out, refconv.Convert(edgeSrc, edgeDst, cur, n))
		}
		cur = out
	}
	elapsed := time.Since(start)

	referenceOut := refconv.Convert(srcFmt, dstFmt, buf, n)
	candidateCanon := refconv.Convert(dstFmt, canonicalFormat(), cur, n)
	referenceCanon := refconv.Convert(dstFmt, canonicalFormat(), referenceOut, n)

	var sumAbsErr float64
	for i := range candidateCanon {
		d := candidateCanon[i] - referenceCanon[i]
		if d < 0 {
			d = -d
		}
		sumAbsErr += d
	}
	return elapsed.Seconds(), sumAbsErr / float64(len(candidateCanon))
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

var (
	canonical     *colormodel.PixelFormat
	canonicalOnce sync.Once
)

func canonicalFormat() *colormodel.PixelFormat {
	canonicalOnce.Do(func() {
		canonical = colormodel.NewFormat("RGBA-double-pathsearch-canonical", colormodel.SpaceSRGBLinear, colormodel.ModelRGBALinear, []colormodel.FormatComponent{
			{Component: colormodel.CompR, Type: colormodel.TypeDouble},
			{Component: colormodel.CompG, Type: colormodel.TypeDouble},
			{Component: colormodel.CompB, Type: colormodel.TypeDouble},
			{Component: colormodel.CompA, Type: colormodel.TypeDouble},
		}, false)
	})
	return canonical
}
