// Package scratch provides pooled double buffers for multi-step format
// conversion chains.
//
// A path Fish with k >= 2 edges processes its input in blocks of up to 512
// pixels, writing each edge's output into one of two scratch buffers and
// swapping between them. The C reference implementation stack-allocates
// these buffers with alloca; Go has no equivalent, so buffers are instead
// drawn from a single sync.Pool of fixed-size pairs (BlockPixels *
// maxComponents float64 each) and returned when a block finishes.
package scratch

import "sync"

// BlockPixels is the maximum number of pixels processed per chain-block,
// matching the reference implementation's 512-pixel alloca block size.
const BlockPixels = 512

// maxComponents bounds the per-pixel component count a scratch buffer needs
// to hold (5 accommodates cmykA, the widest canonical intermediate model).
const maxComponents = 5

// bufSize is the byte size of one scratch buffer: BlockPixels pixels of
// maxComponents float64 components each.
const bufSize = BlockPixels * maxComponents * 8

var pairPool = sync.Pool{
	New: func() any {
		return &Pair{
			A: make([]float64, BlockPixels*maxComponents),
			B: make([]float64, BlockPixels*maxComponents),
		}
	},
}

// Pair is a pair of scratch buffers sized for one chain-processing block.
// An edge writes its output into A; after Swap, B holds that output for
// the next edge to read and A is free for the next edge to write into.
// Callers swap A and B between edges instead of copying.
type Pair struct {
	A, B []float64
}

// Swap exchanges A and B.
func (p *Pair) Swap() {
	p.A, p.B = p.B, p.A
}

// Get returns a pooled Pair. The caller must call Put when the block has
// been fully processed.
func Get() *Pair {
	return pairPool.Get().(*Pair)
}

// Put returns a Pair to the pool for reuse.
func Put(p *Pair) {
	pairPool.Put(p)
}

// BytesSize reports the size in bytes a single scratch buffer would occupy
// if allocated as raw bytes, mirroring the reference implementation's
// `min(n, 512) * sizeof(double) * 5` sizing rule.
func BytesSize(n int) int {
	if n > BlockPixels {
		n = BlockPixels
	}
	return n * maxComponents * 8
}
