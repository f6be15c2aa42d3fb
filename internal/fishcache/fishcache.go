// Package fishcache memoizes internal/pathsearch results behind a
// hash-bucketed in-memory cache, with text persistence to a platform
// cache directory and single-flighted concurrent lookups for the same
// (source, destination) pair.
package fishcache

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/deepteams/pixelfish/internal/colormodel"
	"github.com/deepteams/pixelfish/internal/convgraph"
	"github.com/deepteams/pixelfish/internal/fish"
	"github.com/deepteams/pixelfish/internal/pathsearch"
)

// bucketCount sizes the in-memory hash table; lookup is hash-first, then
// a linear scan within the bucket for an exact (src, dst) match — the
// same bucket-chain shape internal/registry uses.
const bucketCount = 256

// Config carries the environment-derived knobs attached to the cache: a
// version/tolerance header pair (any change invalidates a persisted
// cache outright), and the debug/instrument overrides.
type Config struct {
	Version   string
	Tolerance float64

	// DepthBound overrides pathsearch.DefaultDepthBound for the initial
	// attempt of the bound+1/bound+2 retry ladder. Zero means use
	// pathsearch's own default.
	DepthBound int

	// DisableLoad corresponds to a debug flag that skips loading any
	// persisted cache at all, forcing every pair through a fresh search.
	DisableLoad bool
	// Instrument enables the Fish pixels-processed counter and the
	// optional binary usage-statistics trailer on persisted records.
	Instrument bool
	// StrictEviction disables the eviction-on-load rule (shouldEvict:
	// wall-clock seconds modulo the record's pixel count) a production
	// cache normally applies, for deterministic tests and tooling that
	// need every loaded entry to survive.
	StrictEviction bool
}

func (c Config) header() string {
	return fmt.Sprintf("pixelfish %s tolerance=%g", c.Version, c.Tolerance)
}

type entry struct {
	src, dst *colormodel.PixelFormat
	fish     *fish.Fish
	sentinel bool
	path     []*convgraph.Conversion
	cost     float64
	measErr  float64
	pixels   uint64
}

// Cache is the in-memory Fish cache. Zero value is not usable; construct
// with New.
type Cache struct {
	graph  *convgraph.Graph
	cfg    Config
	mu     sync.Mutex
	bucket [bucketCount][]*entry
	group  singleflight.Group
}

// New constructs an empty Cache bound to graph, which Search uses to walk
// conversion edges on a miss.
func New(graph *convgraph.Graph, cfg Config) *Cache {
	return &Cache{graph: graph, cfg: cfg}
}

// hashKey is a restart-stable replacement for a pointer-address-based
// cache key: it is hashed from the two formats' content fingerprints,
// forced non-zero. Formats with equal fingerprints share a key; lookup
// still matches the exact (src, dst) pointers within the bucket.
func hashKey(src, dst *colormodel.PixelFormat) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(src.Fingerprint()))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(dst.Fingerprint()))
	sum := h.Sum64()
	if sum == 0 {
		sum = 1
	}
	return sum
}

// Fish returns a working converter for (src, dst), populating the cache
// on a miss. Tolerance zero is a special mode: the search is skipped
// entirely and a Reference Fish is always returned.
func (c *Cache) Fish(src, dst *colormodel.PixelFormat) *fish.Fish {
	if src == dst {
		return fish.New(src, dst, nil)
	}
	if c.cfg.Tolerance == 0 {
		return fish.NewReference(src, dst)
	}

	key := hashKey(src, dst)
	if f, ok := c.lookup(key, src, dst); ok {
		return f
	}

	sfKey := fmt.Sprintf("%d:%d", key, src.Index)
	_, _, _ = c.group.Do(sfKey, func() (any, error) {
		// Re-check under the singleflight key: another caller may have
		// already resolved this exact pair while we were waiting to
		// enter Do for the first time.
		if _, ok := c.lookup(key, src, dst); ok {
			return nil, nil
		}

		bound := c.cfg.DepthBound
		if bound == 0 {
			bound = pathsearch.DefaultDepthBound
		}
		result, found := pathsearch.SearchWithBound(c.graph, src, dst, c.cfg.Tolerance, bound)
		e := &entry{src: src, dst: dst}
		if found && len(result.Path) > 0 {
			e.fish = fish.New(src, dst, result.Path)
			e.path = result.Path
			e.cost = result.Cost
			e.measErr = result.Error
		} else {
			e.sentinel = true
		}
		c.insert(key, e)
		return nil, nil
	})

	// Whichever outcome the search just memoized, the call that
	// triggered the miss always gets a Reference Fish; only later
	// lookups benefit from the newly cached Path fish or sentinel.
	return fish.NewReference(src, dst)
}

func (c *Cache) lookup(key uint64, src, dst *colormodel.PixelFormat) (*fish.Fish, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := key % bucketCount
	for _, e := range c.bucket[b] {
		if e.src == src && e.dst == dst {
			if e.sentinel {
				return fish.NewReference(src, dst), true
			}
			return e.fish, true
		}
	}
	return nil, false
}

func (c *Cache) insert(key uint64, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := key % bucketCount
	for _, existing := range c.bucket[b] {
		if existing.src == e.src && existing.dst == e.dst {
			return
		}
	}
	c.bucket[b] = append(c.bucket[b], e)
}

// snapshot returns every cache entry, descending by pixels-processed —
// the order Save writes records in.
func (c *Cache) snapshot() []*entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var all []*entry
	for _, b := range c.bucket {
		for _, e := range b {
			if !e.sentinel {
				e.pixels = e.fish.PixelsProcessed()
			}
			all = append(all, e)
		}
	}
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].pixels > all[j-1].pixels; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	return all
}

// clockSeconds is the wall-clock source persist.go's eviction-on-load
// rule is keyed on.
func clockSeconds() int64 {
	return time.Now().Unix()
}
