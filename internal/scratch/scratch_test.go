package scratch

import "testing"

func TestGetPutSwap(t *testing.T) {
	p := Get()
	defer Put(p)

	if len(p.A) != BlockPixels*maxComponents {
		t.Fatalf("len(A) = %d, want %d", len(p.A), BlockPixels*maxComponents)
	}
	if len(p.B) != BlockPixels*maxComponents {
		t.Fatalf("len(B) = %d, want %d", len(p.B), BlockPixels*maxComponents)
	}

	p.A[0] = 1
	p.B[0] = 2
	p.Swap()
	if p.A[0] != 2 || p.B[0] != 1 {
		t.Fatalf("Swap did not exchange buffers: A[0]=%v B[0]=%v", p.A[0], p.B[0])
	}
}

func TestBytesSize(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{10, 10 * maxComponents * 8},
		{512, 512 * maxComponents * 8},
		{10000, 512 * maxComponents * 8},
	}
	for _, tt := range tests {
		if got := BytesSize(tt.n); got != tt.want {
			t.Errorf("BytesSize(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestPairReuse(t *testing.T) {
	p1 := Get()
	p1.A[5] = 42
	Put(p1)

	p2 := Get()
	defer Put(p2)
	// p2 may or may not be the same underlying pair; either way its
	// length invariants must hold after reuse.
	if len(p2.A) != BlockPixels*maxComponents {
		t.Fatalf("reused pair has wrong length: %d", len(p2.A))
	}
}
