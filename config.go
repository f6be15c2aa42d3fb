package pixelfish

import (
	"os"
	"strconv"

	"github.com/deepteams/pixelfish/internal/fishcache"
	"github.com/deepteams/pixelfish/internal/pathsearch"
)

// Config is the set of knobs Init reads from the environment (or that a
// caller sets explicitly before calling Init): path search depth, the
// default composite-error tolerance, debug/instrumentation switches, and
// where the Fish cache persists between runs.
type Config struct {
	// PathLength overrides pathsearch.DefaultDepthBound. Zero means use
	// the package default.
	PathLength int

	// Tolerance overrides pathsearch.DefaultTolerance for Fish lookups
	// that don't pass an explicit Quality. Zero means use the package
	// default.
	Tolerance float64

	// DebugConversions, when set, makes every registered Conversion log
	// its measured error/cost at Debug level once Measure runs.
	DebugConversions bool

	// Instrument enables the Fish pixels-processed counter and the Fish
	// cache's optional binary usage-statistics trailer.
	Instrument bool

	// ReferenceNoFloat is read from the environment into Config, but no
	// converter consults it: the reference converter always computes in
	// float64 and has no float32 mode for this flag to turn off.
	ReferenceNoFloat bool

	// CacheDir overrides the resolved persisted-cache directory
	// (normally derived from XDG_CACHE_HOME/HOME/TEMP). Empty means
	// resolve from the environment as usual.
	CacheDir string

	// DisableCacheLoad skips loading any persisted cache at Init,
	// forcing every pair through a fresh search this run.
	DisableCacheLoad bool

	// StrictEviction disables the Fish cache's eviction-on-load policy
	// (see fishcache.Config.StrictEviction).
	StrictEviction bool

	// CacheVersion tags the persisted cache header; bump it to force
	// every prior decision to be discarded regardless of tolerance.
	CacheVersion string
}

// Environment variable names.
const (
	envPathLength       = "BABL_PATH_LENGTH"
	envTolerance        = "BABL_TOLERANCE"
	envDebugConversions = "BABL_DEBUG_CONVERSIONS"
	envInstrument       = "BABL_INSTRUMENT"
	envReferenceNoFloat = "BABL_REFERENCE_NOFLOAT"
	envXDGCacheHome     = "XDG_CACHE_HOME"
	envHome             = "HOME"
	envTemp             = "TEMP"
)

// configFromEnv builds a Config from the process environment, the way
// Init is normally called: everything is parsed into Config at Init.
// Fields already set on base take precedence over their environment
// counterpart, so a caller can override a subset of knobs and still pick
// up the rest from the environment.
func configFromEnv(base Config) Config {
	cfg := base
	if cfg.PathLength == 0 {
		if v, ok := envInt(envPathLength); ok {
			cfg.PathLength = v
		}
	}
	if cfg.Tolerance == 0 {
		if v, ok := envFloat(envTolerance); ok {
			cfg.Tolerance = v
		}
	}
	if !cfg.DebugConversions {
		cfg.DebugConversions = envBool(envDebugConversions)
	}
	if !cfg.Instrument {
		cfg.Instrument = envBool(envInstrument)
	}
	if !cfg.ReferenceNoFloat {
		cfg.ReferenceNoFloat = envBool(envReferenceNoFloat)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = fishcache.CacheDir(os.Getenv(envXDGCacheHome), os.Getenv(envHome))
		if cfg.CacheDir == "" {
			cfg.CacheDir = os.Getenv(envTemp)
		}
	}
	return cfg
}

func (c Config) depthBound() int {
	if c.PathLength > 0 {
		return c.PathLength
	}
	return pathsearch.DefaultDepthBound
}

func (c Config) tolerance() float64 {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return pathsearch.DefaultTolerance
}

func (c Config) cacheVersion() string {
	if c.CacheVersion != "" {
		return c.CacheVersion
	}
	return "1"
}

func envInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envFloat(name string) (float64, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envBool(name string) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

// Quality is a symbolic tolerance tag FastFish accepts in place of a
// literal float.
type Quality struct {
	tolerance float64
}

// Standard quality tags, mapped to a fixed tolerance each.
var (
	QualityDefault = Quality{tolerance: 0} // use the Context's configured tolerance
	QualityExact   = Quality{tolerance: 1e-10}
	QualityPrecise = Quality{tolerance: 1e-5}
	QualityFast    = Quality{tolerance: 1e-3}
	QualityGlitch  = Quality{tolerance: 1e-2}
)

// Tolerance builds a literal Quality value from an explicit error
// budget, for callers that want something other than the five named
// tags.
func Tolerance(x float64) Quality {
	return Quality{tolerance: x}
}
