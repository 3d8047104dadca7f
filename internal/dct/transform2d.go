package dct

import (
	"github.com/jxlcore/jxl/internal/jxlerr"
	"github.com/jxlcore/jxl/internal/jxllog"
	"github.com/jxlcore/jxl/internal/simd"
)

// DCT1D computes an n-point forward DCT-II in place over cols parallel
// lanes (spec.md §4.8 DCT1DImpl<N>). tok is the capability token from
// simd.Detect; it is downgraded against cols and logged, mirroring
// spec.md §9's "every vector operation carries the proof token", even
// though the only vector primitive this package issues (simd.Transpose,
// used by the 2D wrappers below) already self-selects its tiling from
// the dimensions alone.
func DCT1D(tok simd.Token, n, cols int, data []float32) error {
	if !validSize(n) {
		return jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "dct: unsupported size %d", n)
	}
	if len(data) != n*cols {
		return jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "dct: data length %d, want %d", len(data), n*cols)
	}
	jxllog.Trace("dct1d", "n", n, "cols", cols, "lanes", simd.Downgrade(tok, cols).Name())
	dctRec(n, cols, data)
	return nil
}

// IDCT1D computes an n-point inverse DCT in place over cols lanes
// (spec.md §4.8 IDCT1DImpl<N>).
func IDCT1D(tok simd.Token, n, cols int, data []float32) error {
	if !validSize(n) {
		return jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "idct: unsupported size %d", n)
	}
	if len(data) != n*cols {
		return jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "idct: data length %d, want %d", len(data), n*cols)
	}
	jxllog.Trace("idct1d", "n", n, "cols", cols, "lanes", simd.Downgrade(tok, cols).Name())
	idctRec(n, cols, data)
	return nil
}

// DCT2D computes the forward 2D DCT of a rows x cols row-major block in
// place: 1D-DCT along rows (N=rows, width=cols), transpose, 1D-DCT along
// the transposed rows (N=cols, width=rows), transpose back to rows x
// cols row-major (spec.md §4.8 dct2d).
//
// Unlike the Rust idct2d/compute_scaled_dct, this always performs both
// transposes regardless of which of rows/cols is larger. The reference
// skips the second transpose when rows>=cols by having idct_wrapper read
// its input with a layout-dependent stride instead — a register-level
// trick that has no well-defined meaning over a flat Go slice without
// reproducing its exact stride arithmetic. Always transposing costs one
// extra O(rows*cols) pass but keeps every buffer in this package in
// plain row-major layout, which is required for DCT2D/IDCT2D/
// ComputeScaledDCT to compose correctly with each other (see
// ComputeScaledDCT's doc comment and DESIGN.md's dct-layout entry).
func DCT2D(tok simd.Token, rows, cols int, data []float32) error {
	if err := checkBlock(rows, cols, data); err != nil {
		return err
	}
	dctRec(rows, cols, data)
	transposed := make([]float32, rows*cols)
	simd.Transpose(data, transposed, rows, cols)
	dctRec(cols, rows, transposed)
	simd.Transpose(transposed, data, cols, rows)
	jxllog.Trace("dct2d", "rows", rows, "cols", cols, "lanes", simd.Downgrade(tok, cols).Name())
	return nil
}

// IDCT2D computes the inverse 2D DCT of a rows x cols row-major block in
// place, the exact mirror of DCT2D (spec.md §4.8 idct2d), always
// transposing both ways (see DCT2D's doc comment).
func IDCT2D(tok simd.Token, rows, cols int, data []float32) error {
	if err := checkBlock(rows, cols, data); err != nil {
		return err
	}
	transposed := make([]float32, rows*cols)
	simd.Transpose(data, transposed, rows, cols)
	idctRec(cols, rows, transposed)
	simd.Transpose(transposed, data, cols, rows)
	idctRec(rows, cols, data)
	jxllog.Trace("idct2d", "rows", rows, "cols", cols, "lanes", simd.Downgrade(tok, cols).Name())
	return nil
}

// ComputeScaledDCT computes the forward 2D DCT of the rows x cols
// row-major block `from` into `to`, normalized by 1/(rows*cols)
// (spec.md §4.8 compute_scaled_dct). `from` is overwritten as scratch.
//
// `to` is always written rows x cols row-major, matching IDCT2D's input
// convention, so ComputeScaledDCT(...) followed by IDCT2D(tok, rows,
// cols, to) reconstructs `from` up to the 1/(rows*cols) normalization —
// see the round-trip property tested in dct_test.go. The
// reference implementation instead writes `to` row-major only when
// rows<cols, and column-major (the untransposed intermediate, read back
// out by a matching branch in idct2d) when rows>=cols, to save a
// transpose; this port always produces row-major output, trading that
// optimization for a single fixed output convention (see DCT2D's doc
// comment for the general rationale).
func ComputeScaledDCT(tok simd.Token, rows, cols int, from, to []float32) error {
	if err := checkBlock(rows, cols, from); err != nil {
		return err
	}
	if len(to) != rows*cols {
		return jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "compute_scaled_dct: to length %d, want %d", len(to), rows*cols)
	}
	dctRec(rows, cols, from)
	transposed := make([]float32, rows*cols)
	simd.Transpose(from, transposed, rows, cols)
	dctRec(cols, rows, transposed)
	simd.Transpose(transposed, to, cols, rows)

	norm := float32(1.0 / float64(rows*cols))
	for i := range to {
		to[i] *= norm
	}
	jxllog.Trace("compute_scaled_dct", "rows", rows, "cols", cols, "lanes", simd.Downgrade(tok, cols).Name())
	return nil
}

func checkBlock(rows, cols int, data []float32) error {
	if !validSize(rows) || !validSize(cols) {
		return jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "dct: unsupported block %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "dct: data length %d, want %d", len(data), rows*cols)
	}
	return nil
}
