// Package pixelfish converts pixels between arbitrary color formats.
//
// A format is a combination of color model (RGB, grayscale, Y'CbCr,
// CMYK, Oklab, ...), color space (white point, primaries, tone
// reproduction curve) and storage encoding (8/16/32-bit integer,
// half/float/double, packed or planar). pixelfish interns these as
// distinct entities, maintains a graph of known direct conversions
// between them, and finds the cheapest chain of conversions between any
// two registered formats under a given error tolerance — falling back
// to an always-correct, if slower, reference pipeline when no
// sufficiently precise path is known.
//
// Basic usage:
//
//	rgba, _ := pixelfish.Format("R'G'B'A u8")
//	gray, _ := pixelfish.Format("Y' u8")
//	f, err := pixelfish.Fish(rgba, gray)
//	if err != nil {
//		// ...
//	}
//	err = pixelfish.Process(f, srcBytes, dstBytes, pixelCount)
//
// Init is optional: the first call into the package auto-initializes a
// default Context from the environment. Call Init explicitly to control
// Config up front, and Exit to persist the warmed Fish cache before the
// process exits.
package pixelfish
