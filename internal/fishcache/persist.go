package fishcache

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/deepteams/pixelfish/internal/bitio"
	"github.com/deepteams/pixelfish/internal/colormodel"
	"github.com/deepteams/pixelfish/internal/convgraph"
	"github.com/deepteams/pixelfish/internal/fish"
)

// recordTerminator closes every record in the persisted text format.
const recordTerminator = "----"

// FormatResolver looks a persisted format name back up to the live
// interned *PixelFormat, reporting false if it no longer exists (the
// entity may have been dropped between runs).
type FormatResolver func(name string) (*colormodel.PixelFormat, bool)

// ConversionResolver is FormatResolver's counterpart for the named edges
// a Path record's body lists.
type ConversionResolver func(name string) (*convgraph.Conversion, bool)

// CacheDir resolves the platform cache directory a persisted Fish cache
// should live under: an XDG-style override first, then a HOME-relative
// fallback, ultimately the system temp directory.
func CacheDir(xdgCacheHome, home string) string {
	if xdgCacheHome != "" {
		return filepath.Join(xdgCacheHome, "pixelfish")
	}
	if home != "" {
		return filepath.Join(home, ".cache", "pixelfish")
	}
	return filepath.Join(os.TempDir(), "pixelfish")
}

// Save serializes the cache to path as a single header line followed by
// one record per non-evicted Fish, descending by pixels processed.
// Writing goes to a temp file in the same directory,
// renamed into place on success, so a crash mid-write never corrupts an
// existing cache file.
func (c *Cache) Save(path string) error {
	entries := c.snapshot()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n", c.cfg.header())
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s\n%s\n", e.src.Name, e.dst.Name)
		if e.sentinel {
			fmt.Fprintf(&buf, "\tpixels=0 error=0 [reference]\n")
		} else {
			fmt.Fprintf(&buf, "\tpixels=%d cost=%v error=%v\n", e.pixels, e.cost, e.measErr)
			for _, edge := range e.path {
				fmt.Fprintf(&buf, "\t%s\n", edge.Name)
			}
			if c.cfg.Instrument {
				fmt.Fprintf(&buf, "\tstats=%s\n", encodeStatsTrailer(e.pixels))
			}
		}
		buf.WriteString(recordTerminator + "\n")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".fishcache-*")
	if err != nil {
		return fmt.Errorf("fishcache: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fishcache: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("fishcache: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("fishcache: rename into place: %w", err)
	}
	return nil
}

// encodeStatsTrailer packs the ambient usage-statistics trailer: a single
// varint today (the pixels-processed count at save time), room for a
// longer rolling history later without breaking readers that don't parse
// it.
func encodeStatsTrailer(pixels uint64) string {
	bw := bitio.NewBitWriter(16)
	bw.WriteVarint(pixels)
	return base64.StdEncoding.EncodeToString(bw.Finish())
}

// decodeStatsTrailer is defensive: any malformed trailer is ignored
// rather than failing the whole record, since the trailer never carries
// information required for correctness.
func decodeStatsTrailer(s string) (uint64, bool) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return 0, false
	}
	br := bitio.NewBitReader(raw)
	v := br.ReadVarint()
	if br.IsEndOfStream() && len(raw) == 0 {
		return 0, false
	}
	return v, true
}

// Load reads a persisted cache from path. If DisableLoad is set, or the
// header line doesn't match the current (version, tolerance) exactly, or
// the file doesn't exist, Load is a no-op leaving the cache empty — any
// parameter change invalidates every prior decision wholesale.
func (c *Cache) Load(path string, resolveFormat FormatResolver, resolveConversion ConversionResolver) error {
	if c.cfg.DisableLoad {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("fishcache: read %s: %w", path, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	if !scanner.Scan() {
		return nil
	}
	if scanner.Text() != c.cfg.header() {
		return nil // parameters changed; discard the whole cache
	}

	now := clockSeconds()
	for {
		rec, ok := readRecord(scanner)
		if !ok {
			break
		}
		if !c.cfg.StrictEviction && shouldEvict(now, rec.pixels) {
			continue
		}
		c.loadRecord(rec, resolveFormat, resolveConversion)
	}
	return scanner.Err()
}

// shouldEvict applies the cache's load-time eviction rule: the
// wall-clock second modulo a record's pixel count, not a uniform
// 1-in-100 roll. This is non-uniform and correlated with usage (a
// heavily-processed fish has a larger modulus and so a smaller chance of
// landing on 0); Config.StrictEviction opts out entirely for callers
// that want every loaded
// entry to survive deterministically.
func shouldEvict(nowSeconds int64, pixels uint64) bool {
	if pixels == 0 {
		return false
	}
	return nowSeconds%int64(pixels) == 0
}

type rawRecord struct {
	srcName, dstName string
	statsLine        string
	edgeNames        []string
	sentinel         bool
	pixels           uint64
	cost             float64
	measErr          float64
	trailer          string
}

// readRecord consumes one <src>\n<dst>\n\tstats...\n[\tedge...]\n----\n
// block from scanner, returning ok=false at EOF.
func readRecord(scanner *bufio.Scanner) (rawRecord, bool) {
	var rec rawRecord
	if !scanner.Scan() {
		return rec, false
	}
	rec.srcName = scanner.Text()
	if !scanner.Scan() {
		return rec, false
	}
	rec.dstName = scanner.Text()

	for scanner.Scan() {
		line := scanner.Text()
		if line == recordTerminator {
			return rec, true
		}
		trimmed := strings.TrimPrefix(line, "\t")
		switch {
		case strings.HasPrefix(trimmed, "pixels="):
			rec.statsLine = trimmed
			parseStatsLine(&rec, trimmed)
		case strings.HasPrefix(trimmed, "stats="):
			rec.trailer = strings.TrimPrefix(trimmed, "stats=")
		default:
			rec.edgeNames = append(rec.edgeNames, trimmed)
		}
	}
	return rec, rec.srcName != "" // ran out of input mid-record
}

func parseStatsLine(rec *rawRecord, line string) {
	rec.sentinel = strings.Contains(line, "[reference]")
	for _, field := range strings.Fields(line) {
		switch {
		case strings.HasPrefix(field, "pixels="):
			rec.pixels, _ = strconv.ParseUint(strings.TrimPrefix(field, "pixels="), 10, 64)
		case strings.HasPrefix(field, "cost="):
			rec.cost, _ = strconv.ParseFloat(strings.TrimPrefix(field, "cost="), 64)
		case strings.HasPrefix(field, "error="):
			rec.measErr, _ = strconv.ParseFloat(strings.TrimPrefix(field, "error="), 64)
		}
	}
}

func (c *Cache) loadRecord(rec rawRecord, resolveFormat FormatResolver, resolveConversion ConversionResolver) {
	src, ok := resolveFormat(rec.srcName)
	if !ok {
		return
	}
	dst, ok := resolveFormat(rec.dstName)
	if !ok {
		return
	}

	e := &entry{src: src, dst: dst, pixels: rec.pixels, cost: rec.cost, measErr: rec.measErr}
	if rec.sentinel {
		e.sentinel = true
		c.insert(hashKey(src, dst), e)
		return
	}

	path := make([]*convgraph.Conversion, 0, len(rec.edgeNames))
	for _, name := range rec.edgeNames {
		edge, ok := resolveConversion(name)
		if !ok {
			return // stale edge: drop the whole record
		}
		path = append(path, edge)
	}
	if len(path) == 0 {
		return
	}
	e.path = path
	e.fish = fish.New(src, dst, path)
	if rec.trailer != "" {
		if v, ok := decodeStatsTrailer(rec.trailer); ok {
			e.pixels = v
		}
	}
	c.insert(hashKey(src, dst), e)
}
