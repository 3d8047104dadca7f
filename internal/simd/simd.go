// Package simd implements the capability-dispatched vector facade the DCT
// kernels are built on (spec.md §4.8 "Vectorization dispatch", §9 "The SIMD
// capability type uses a zero-sized proof token").
//
// The teacher dispatches per-operation function variables set up once at
// init time (internal/dsp/dsp.go's var (Transform func(...) ...) table,
// overridden per-GOARCH by internal/dsp/dsp_amd64.go's init(), gated by a
// hand-written CPUID probe in internal/dsp/cpuid_amd64.go). This package
// keeps that same "detect once, dispatch through a small capability value"
// shape, but:
//   - replaces the hand-rolled asm CPUID probe with golang.org/x/sys/cpu,
//     the ecosystem-standard portable feature-detection package (also an
//     indirect dependency of ausocean-av and of the teacher's own
//     benchmark submodule), so capability construction needs no per-arch
//     .s files;
//   - represents the capability as a Token value (the "zero-sized proof
//     token" of spec.md §9) rather than a set of package-level function
//     variables, since the DCT/IDCT kernels are generic over transform
//     size and need the token threaded through recursive calls instead of
//     selected once globally.
//
// No actual vector intrinsics are emitted, and the token does not change
// how package dct loops: its DCT entry points downgrade the token against
// the column count and log the result, while the lane loops themselves
// are the same plain Go code for every token. Transpose picks its 4x4
// tiling from the matrix dimensions alone.
package simd

import "golang.org/x/sys/cpu"

// Token is the capability-dispatch proof: constructing one is the only
// place capability detection happens (spec.md §9), after which lane-width
// selection is a pure function of the token.
type Token interface {
	// Lanes is the number of f32 lanes this token's width stands for;
	// Downgrade compares it against a column count.
	Lanes() int
	// Name identifies the token for logging/tests.
	Name() string
}

type scalarToken struct{}

func (scalarToken) Lanes() int    { return 1 }
func (scalarToken) Name() string  { return "scalar" }

type lanesToken struct {
	lanes int
	name  string
}

func (t lanesToken) Lanes() int   { return t.lanes }
func (t lanesToken) Name() string { return t.name }

// Scalar is the always-available fallback token.
var Scalar Token = scalarToken{}

// Lanes4, Lanes8, Lanes16 model 128/256/512-bit lane widths over f32 data
// (4, 8, and 16 lanes respectively), mirroring spec.md §4.8's "widest lane
// width that still fully divides COLS" selection.
var (
	Lanes4  Token = lanesToken{lanes: 4, name: "128-bit"}
	Lanes8  Token = lanesToken{lanes: 8, name: "256-bit"}
	Lanes16 Token = lanesToken{lanes: 16, name: "512-bit"}
)

// Detect probes the current CPU via golang.org/x/sys/cpu and returns the
// widest capability token available. This is the only place an "unsafe by
// construction" judgment is made; every function below is pure Go.
func Detect() Token {
	switch {
	case cpu.X86.HasAVX512F:
		return Lanes16
	case cpu.X86.HasAVX2:
		return Lanes8
	case cpu.X86.HasSSE41 || cpu.ARM64.HasASIMD:
		return Lanes4
	default:
		return Scalar
	}
}

// SimdThreshold mirrors spec.md §4.8's SIMD_THRESHOLD: at or below this
// many columns, scalar code is emitted unconditionally because mask setup
// cost exceeds any SIMD benefit.
const SimdThreshold = 4

// Downgrade returns the widest token that still fully divides cols,
// stepping down from t to 128-bit or scalar when cols does not divide t's
// lane width evenly (spec.md §4.8 idct_wrapper dispatch rule).
func Downgrade(t Token, cols int) Token {
	if cols <= SimdThreshold {
		return Scalar
	}
	for _, cand := range []Token{t, Lanes16, Lanes8, Lanes4} {
		if cand.Lanes() <= cols && cols%cand.Lanes() == 0 && cand.Lanes() <= t.Lanes() {
			return cand
		}
	}
	return Scalar
}
