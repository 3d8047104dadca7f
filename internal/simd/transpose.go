package simd

// Transpose writes the ROWSxCOLS row-major matrix src into dst as a
// COLSxROWS row-major matrix (spec.md §4.8 "Transpose is the single SIMD
// primitive the 2D pipeline relies on").
//
// When both dimensions are multiples of 4 the copy is tiled in 4x4 blocks,
// mirroring the teacher's dispatch shape (a fixed-width register tile with
// a scalar fallback for the remainder) even though this port has no actual
// SIMD register shuffles to issue — the tiling keeps access patterns
// cache-friendly, which is the property the original optimization buys.
func Transpose(src, dst []float32, rows, cols int) {
	if len(src) != rows*cols {
		panic("simd: Transpose: src length mismatch")
	}
	if len(dst) != rows*cols {
		panic("simd: Transpose: dst length mismatch")
	}
	if rows%4 == 0 && cols%4 == 0 {
		transposeTiled4(src, dst, rows, cols)
		return
	}
	transposeScalar(src, dst, rows, cols)
}

func transposeScalar(src, dst []float32, rows, cols int) {
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dst[c*rows+r] = src[r*cols+c]
		}
	}
}

func transposeTiled4(src, dst []float32, rows, cols int) {
	for r0 := 0; r0 < rows; r0 += 4 {
		for c0 := 0; c0 < cols; c0 += 4 {
			for dr := 0; dr < 4; dr++ {
				srcRow := (r0 + dr) * cols
				for dc := 0; dc < 4; dc++ {
					dst[(c0+dc)*rows+(r0+dr)] = src[srcRow+c0+dc]
				}
			}
		}
	}
}
