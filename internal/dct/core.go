// Package dct implements the recursive radix-2 DCT-II/DCT-III kernels
// (spec.md §4.8 "DCT1D / IDCT1D") that the VarDCT coefficient path is
// built on, and the 2D row/column pipelines layered over them.
//
// Rust's const generics let jxl_transforms/src/dct.rs monomorphize one
// DCT1DImpl<N>/IDCT1DImpl<N> struct per transform size at compile time,
// recursing from DCT1DImpl<N> into DCT1DImpl<N/2> as a *type*-level
// recursion with the base cases (N=1, N=2) as separate trait impls. Go
// has no const generics, so this port collapses that into one ordinary
// runtime recursion over an int size parameter: dctRec/idctRec take n as
// a value and switch on it, which is the direct, idiomatic Go rendition
// of "the same code, specialized per size" when the specialization can't
// happen at compile time. The algorithm, data flow and step names
// (AddReverse, SubReverse, multiply, B, InverseEvenOdd) are unchanged
// from the Rust source.
package dct

// MaxScratchSpace bounds the largest scratch buffer any 2D transform in
// this package needs (spec.md §4.8 MAX_SCRATCH_SPACE), sized for the
// largest supported block, 256x256, at up to 3 buffers of bookkeeping.
const MaxScratchSpace = 256 * 256 * 3

// sizes this package supports 1D transforms for (spec.md §4.8: N in
// {1,2,4,8,16,32,64,128,256}).
func validSize(n int) bool {
	switch n {
	case 1, 2, 4, 8, 16, 32, 64, 128, 256:
		return true
	default:
		return false
	}
}

// dctRec computes an in-place forward DCT-II of size n along the leading
// axis of data, which holds n rows of cols contiguous float32 lanes each
// (row r occupies data[r*cols : (r+1)*cols]), processing all cols lanes
// in the same recursive pass (spec.md §4.8: "the DCT operates on N rows
// of width COLS").
func dctRec(n, cols int, data []float32) {
	if !validSize(n) {
		panic("dct: unsupported transform size")
	}
	switch n {
	case 1:
		return
	case 2:
		dctBase2(cols, data)
		return
	}

	half := n / 2
	tmp := make([]float32, n*cols)

	// AddReverse into the first half of tmp.
	for i := 0; i < half; i++ {
		a := data[i*cols : i*cols+cols]
		b := data[(n-1-i)*cols : (n-1-i)*cols+cols]
		dst := tmp[i*cols : i*cols+cols]
		for j := range dst {
			dst[j] = a[j] + b[j]
		}
	}
	dctRec(half, cols, tmp[:half*cols])

	// SubReverse into the second half of tmp.
	for i := 0; i < half; i++ {
		a := data[i*cols : i*cols+cols]
		b := data[(n-1-i)*cols : (n-1-i)*cols+cols]
		dst := tmp[(half+i)*cols : (half+i)*cols+cols]
		for j := range dst {
			dst[j] = a[j] - b[j]
		}
	}
	mult := wcMultipliers(n)
	for i := 0; i < half; i++ {
		row := tmp[(half+i)*cols : (half+i)*cols+cols]
		m := mult[i]
		for j := range row {
			row[j] *= m
		}
	}
	second := tmp[half*cols : n*cols]
	dctRec(half, cols, second)

	// B transform on second, in place.
	bTransformForward(half, cols, second)

	// InverseEvenOdd: interleave first half (even rows) and second
	// half (odd rows) of tmp back into data.
	for i := 0; i < half; i++ {
		copy(data[(2*i)*cols:(2*i)*cols+cols], tmp[i*cols:i*cols+cols])
		copy(data[(2*i+1)*cols:(2*i+1)*cols+cols], second[i*cols:i*cols+cols])
	}
}

// idctRec computes an in-place inverse DCT (DCT-III) of size n along the
// leading axis of data, mirroring dctRec's recursion.
func idctRec(n, cols int, data []float32) {
	if !validSize(n) {
		panic("dct: unsupported transform size")
	}
	switch n {
	case 1:
		return
	case 2:
		dctBase2(cols, data) // self-inverse up to the shared radix-2 base case
		return
	}

	half := n / 2
	scratch := make([]float32, n*cols)

	// ForwardEvenOdd: even rows of data into the first half, odd rows
	// into the second half.
	for i := 0; i < half; i++ {
		copy(scratch[i*cols:i*cols+cols], data[(2*i)*cols:(2*i)*cols+cols])
		copy(scratch[(half+i)*cols:(half+i)*cols+cols], data[(2*i+1)*cols:(2*i+1)*cols+cols])
	}

	idctRec(half, cols, scratch[:half*cols])

	second := scratch[half*cols : n*cols]
	bTransformInverse(half, cols, second)
	idctRec(half, cols, second)

	mult := wcMultipliers(n)
	for i := 0; i < half; i++ {
		a := scratch[i*cols : i*cols+cols]
		b := second[i*cols : i*cols+cols]
		m := mult[i]
		outLo := data[i*cols : i*cols+cols]
		outHi := data[(n-1-i)*cols : (n-1-i)*cols+cols]
		for j := range a {
			bm := b[j] * m
			outLo[j] = a[j] + bm
			outHi[j] = a[j] - bm
		}
	}
}

// dctBase2 is the shared N=2 radix-2 butterfly: (a+b, a-b), its own
// inverse up to the scale the surrounding recursion already accounts for.
func dctBase2(cols int, data []float32) {
	a := data[:cols]
	b := data[cols : 2*cols]
	for j := 0; j < cols; j++ {
		av, bv := a[j], b[j]
		a[j] = av + bv
		b[j] = av - bv
	}
}

// bTransformForward mirrors the Rust "B" step: row0 <- row0*sqrt2 + row1,
// then row[i] += row[i+1] for i in 1..half-1 (forward order).
func bTransformForward(half, cols int, rows []float32) {
	if half < 2 {
		return
	}
	row0 := rows[0:cols]
	row1 := rows[cols : 2*cols]
	for j := range row0 {
		row0[j] = row0[j]*sqrt2 + row1[j]
	}
	for i := 1; i <= half-2; i++ {
		cur := rows[i*cols : i*cols+cols]
		next := rows[(i+1)*cols : (i+1)*cols+cols]
		for j := range cur {
			cur[j] += next[j]
		}
	}
}

// bTransformInverse mirrors the Rust "B transpose" step: row[i] +=
// row[i-1] for i in half-1..1 in reverse, then row0 *= sqrt2.
func bTransformInverse(half, cols int, rows []float32) {
	if half < 2 {
		return
	}
	for i := half - 1; i >= 1; i-- {
		cur := rows[i*cols : i*cols+cols]
		prev := rows[(i-1)*cols : (i-1)*cols+cols]
		for j := range cur {
			cur[j] += prev[j]
		}
	}
	row0 := rows[0:cols]
	for j := range row0 {
		row0[j] *= sqrt2
	}
}
