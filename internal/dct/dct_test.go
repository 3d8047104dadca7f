package dct

import (
	"math"
	"testing"

	"github.com/jxlcore/jxl/internal/simd"
	"gonum.org/v1/gonum/mat"
)

func approxEqual(a, b, tol float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

// TestDCT1D_Ramp checks spec.md §8: DCT N=8, COLS=1, input [0..7] has a
// first coefficient close to the input sum (28.0) and near-zero
// coefficients at even indices 2, 4, 6 — a known symmetry property of the
// DCT-II applied to a linear ramp.
func TestDCT1D_Ramp(t *testing.T) {
	data := []float32{0, 1, 2, 3, 4, 5, 6, 7}
	if err := DCT1D(simd.Scalar, 8, 1, data); err != nil {
		t.Fatal(err)
	}
	if !approxEqual(data[0], 28.0, 1e-3) {
		t.Fatalf("DCT[0] = %v, want ~28.0", data[0])
	}
	for _, i := range []int{2, 4, 6} {
		if !approxEqual(data[i], 0, 1e-3) {
			t.Fatalf("DCT[%d] = %v, want ~0", i, data[i])
		}
	}
}

// TestIDCT1D_InvertsDCT1D checks spec.md §8's general property: for every
// supported size N, IDCT1D(DCT1D(x)) == N*x (up to float tolerance),
// since this radix-2 pair has no built-in 1/N normalization.
func TestIDCT1D_InvertsDCT1D(t *testing.T) {
	sizes := []int{1, 2, 4, 8, 16, 32, 64, 128, 256}
	cols := 3
	for _, n := range sizes {
		orig := make([]float32, n*cols)
		for i := range orig {
			orig[i] = float32(math.Sin(float64(i)*0.37) * 10)
		}
		data := append([]float32(nil), orig...)
		if err := DCT1D(simd.Scalar, n, cols, data); err != nil {
			t.Fatalf("n=%d: DCT1D: %v", n, err)
		}
		if err := IDCT1D(simd.Scalar, n, cols, data); err != nil {
			t.Fatalf("n=%d: IDCT1D: %v", n, err)
		}
		for i := range data {
			want := orig[i] * float32(n)
			if !approxEqual(data[i], want, float32(n)*1e-2+1e-2) {
				t.Fatalf("n=%d: IDCT(DCT(x))[%d] = %v, want ~%v", n, i, data[i], want)
			}
		}
	}
}

// TestIDCT1D_MatchesSlowReference checks spec.md §8: IDCT N=8 COLS=3
// against an independently computed slow reference matrix built with
// gonum (rather than re-deriving the fast recursion), so the test does
// not just check the implementation against itself.
func TestIDCT1D_MatchesSlowReference(t *testing.T) {
	const n, cols = 8, 3
	coeffs := make([]float64, n*cols)
	for i := range coeffs {
		coeffs[i] = math.Sin(float64(i) * 0.53)
	}

	// Slow reference: IDCT-III basis matrix B where B[k][i] is the
	// contribution of input coefficient i to output sample k, matching
	// this package's un-normalized convention (DCT1D scales every non-DC
	// coefficient by sqrt(2), and IDCT1D(DCT1D(x)) = N*x):
	//   out[k] = x[0] + sqrt(2)*sum_{i=1}^{N-1} x[i]*cos(pi*i*(2k+1)/(2N))
	basis := mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if i == 0 {
				basis.Set(k, i, 1)
				continue
			}
			theta := math.Pi * float64(i) * float64(2*k+1) / float64(2*n)
			basis.Set(k, i, math.Sqrt2*math.Cos(theta))
		}
	}
	in := mat.NewDense(n, cols, coeffs)
	var want mat.Dense
	want.Mul(basis, in)

	got := make([]float32, n*cols)
	for i, v := range coeffs {
		got[i] = float32(v)
	}
	if err := IDCT1D(simd.Scalar, n, cols, got); err != nil {
		t.Fatal(err)
	}
	for k := 0; k < n; k++ {
		for c := 0; c < cols; c++ {
			w := float32(want.At(k, c))
			g := got[k*cols+c]
			if !approxEqual(g, w, 0.05) {
				t.Fatalf("idct[%d][%d] = %v, want ~%v", k, c, g, w)
			}
		}
	}
}

// TestComputeScaledDCT_Example checks spec.md §8's compute_scaled_dct<4,8>
// scenario: a forward 2D DCT normalized by 1/(rows*cols), whose DC term
// (index [0][0]) is the mean of the input block.
func TestComputeScaledDCT_Example(t *testing.T) {
	const rows, cols = 4, 8
	from := make([]float32, rows*cols)
	var sum float32
	for i := range from {
		from[i] = float32(i)
		sum += from[i]
	}
	to := make([]float32, rows*cols)
	if err := ComputeScaledDCT(simd.Scalar, rows, cols, from, to); err != nil {
		t.Fatal(err)
	}
	mean := sum / float32(rows*cols)
	if !approxEqual(to[0], mean, 1e-2) {
		t.Fatalf("compute_scaled_dct DC = %v, want ~%v (mean)", to[0], mean)
	}
}

// TestComputeScaledDCT_RoundTripsWithIDCT2D checks that
// ComputeScaledDCT followed by the matching IDCT2D reconstructs the
// input, per spec.md §8's general round-trip property.
func TestComputeScaledDCT_RoundTripsWithIDCT2D(t *testing.T) {
	cases := []struct{ rows, cols int }{{4, 8}, {8, 4}, {8, 8}, {2, 16}}
	for _, c := range cases {
		from := make([]float32, c.rows*c.cols)
		for i := range from {
			from[i] = float32(math.Cos(float64(i) * 0.19))
		}
		orig := append([]float32(nil), from...)
		to := make([]float32, c.rows*c.cols)
		if err := ComputeScaledDCT(simd.Scalar, c.rows, c.cols, from, to); err != nil {
			t.Fatalf("rows=%d cols=%d: %v", c.rows, c.cols, err)
		}
		if err := IDCT2D(simd.Scalar, c.rows, c.cols, to); err != nil {
			t.Fatalf("rows=%d cols=%d: %v", c.rows, c.cols, err)
		}
		for i := range to {
			if !approxEqual(to[i], orig[i], 0.05) {
				t.Fatalf("rows=%d cols=%d: round trip[%d] = %v, want ~%v", c.rows, c.cols, i, to[i], orig[i])
			}
		}
	}
}

// TestDCT2D_IDCT2D_Identity checks the 2D analogue of
// TestIDCT1D_InvertsDCT1D: IDCT2D(DCT2D(x)) == rows*cols*x.
func TestDCT2D_IDCT2D_Identity(t *testing.T) {
	const rows, cols = 8, 4
	orig := make([]float32, rows*cols)
	for i := range orig {
		orig[i] = float32(i%5) - 2
	}
	data := append([]float32(nil), orig...)
	if err := DCT2D(simd.Scalar, rows, cols, data); err != nil {
		t.Fatal(err)
	}
	if err := IDCT2D(simd.Scalar, rows, cols, data); err != nil {
		t.Fatal(err)
	}
	scale := float32(rows * cols)
	for i := range data {
		want := orig[i] * scale
		if !approxEqual(data[i], want, scale*0.02+0.1) {
			t.Fatalf("2D identity[%d] = %v, want ~%v", i, data[i], want)
		}
	}
}

func TestDCT1D_RejectsBadSize(t *testing.T) {
	data := make([]float32, 3)
	if err := DCT1D(simd.Scalar, 3, 1, data); err == nil {
		t.Fatal("DCT1D(n=3): want error for unsupported size")
	}
}

func TestDCT1D_RejectsLengthMismatch(t *testing.T) {
	data := make([]float32, 4)
	if err := DCT1D(simd.Scalar, 8, 1, data); err == nil {
		t.Fatal("DCT1D: want error for data length mismatch")
	}
}
