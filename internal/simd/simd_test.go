package simd

import (
	"math/rand"
	"testing"
)

// TestTransposeInvolutive checks spec.md §8: transpose(transpose(x)) == x
// bit-exactly, for both the tiled and scalar code paths.
func TestTransposeInvolutive(t *testing.T) {
	cases := []struct{ rows, cols int }{
		{4, 8}, {8, 4}, {16, 16}, {3, 5}, {1, 7}, {6, 9},
	}
	rng := rand.New(rand.NewSource(1))
	for _, c := range cases {
		src := make([]float32, c.rows*c.cols)
		for i := range src {
			src[i] = rng.Float32()
		}
		mid := make([]float32, c.rows*c.cols)
		Transpose(src, mid, c.rows, c.cols)
		back := make([]float32, c.rows*c.cols)
		Transpose(mid, back, c.cols, c.rows)
		for i := range src {
			if src[i] != back[i] {
				t.Fatalf("rows=%d cols=%d: round trip mismatch at %d: %v != %v", c.rows, c.cols, i, src[i], back[i])
			}
		}
	}
}

func TestDowngrade(t *testing.T) {
	if got := Downgrade(Lanes16, 4); got != Scalar {
		t.Fatalf("Downgrade(Lanes16, 4) = %v, want Scalar", got.Name())
	}
	if got := Downgrade(Lanes16, 8); got.Lanes() != 8 {
		t.Fatalf("Downgrade(Lanes16, 8).Lanes() = %d, want 8", got.Lanes())
	}
	if got := Downgrade(Lanes8, 16); got.Lanes() != 8 {
		t.Fatalf("Downgrade(Lanes8, 16).Lanes() = %d, want 8 (capped by input token)", got.Lanes())
	}
}
