package frame

import (
	"github.com/jxlcore/jxl/internal/bitio"
	"github.com/jxlcore/jxl/internal/entropy"
	"github.com/jxlcore/jxl/internal/jxlerr"
	"github.com/jxlcore/jxl/internal/jxllog"
)

// Patches, Splines and Noise are bounded, presence-gated opaque reads:
// spec.md explicitly lists "noise/spline/patch feature generation" as
// out of scope for this core (see spec.md's Non-goals), so this package
// only consumes enough of the bitstream to stay byte-aligned for the
// sections that follow, without reconstructing the actual feature
// data. Grounded on frame.rs::decode_lf_global, which reads each of
// these unconditionally behind its own presence flag before the
// VarDCT-only fields.
type Patches struct {
	RawByteLen int
}

type Splines struct {
	RawByteLen int
}

type Noise struct {
	RawByteLen int
}

// readOpaqueBlock consumes a length-prefixed opaque byte region: a
// 32-bit length followed by that many bytes, discarded. This is the
// bounded placeholder shape used for the three out-of-scope features
// above (see the Patches/Splines/Noise doc comment).
func readOpaqueBlock(br *bitio.Reader) (int, error) {
	n, err := br.Read(32)
	if err != nil {
		return 0, err
	}
	for i := uint64(0); i < n; i++ {
		if _, err := br.Read(8); err != nil {
			return 0, err
		}
	}
	return int(n), nil
}

// LfQuantFactors holds the three per-channel LF dequantization
// multipliers (spec.md names LfQuantFactors as a required LfGlobal
// field; original_source/jxl/src/frame.rs constructs it unconditionally
// via LfQuantFactors::new at the top of decode_lf_global).
type LfQuantFactors struct {
	Factors [3]float32
}

// NewLfQuantFactors reads the three dequantization factors, each stored
// as a raw 16-bit fixed point value divided by 1<<16, mirroring the
// "store as an integer, scale on read" convention the teacher's own
// quantizer fields (internal/dsp) use for WebP's AC/DC multipliers.
func NewLfQuantFactors(br *bitio.Reader) (LfQuantFactors, error) {
	var f LfQuantFactors
	for i := range f.Factors {
		v, err := br.Read(16)
		if err != nil {
			return LfQuantFactors{}, err
		}
		f.Factors[i] = float32(v) / float32(1<<16)
	}
	return f, nil
}

// QuantizerParams is the VarDCT global quantizer state (spec.md's
// "quant_params" LfGlobal field), consumed only for VarDCT frames.
type QuantizerParams struct {
	GlobalScale int
	Quant       int
}

func readQuantizerParams(br *bitio.Reader) (QuantizerParams, error) {
	scale, err := br.Read(16)
	if err != nil {
		return QuantizerParams{}, err
	}
	quant, err := br.Read(16)
	if err != nil {
		return QuantizerParams{}, err
	}
	return QuantizerParams{GlobalScale: int(scale), Quant: int(quant)}, nil
}

// BlockContextMap assigns each (channel, quant-level) coefficient
// position to an entropy-coding context (spec.md's "block_context_map"
// LfGlobal field). NumACContexts is the value HfGlobal uses to size its
// per-context histogram set (frame.rs::decode_hf_global iterates
// `0..block_context_map.num_ac_contexts()`).
type BlockContextMap struct {
	ContextMap    []int
	numACContexts int
}

func (m BlockContextMap) NumACContexts() int { return m.numACContexts }

func readBlockContextMap(br *bitio.Reader) (BlockContextMap, error) {
	n, err := br.Read(8)
	if err != nil {
		return BlockContextMap{}, err
	}
	numACContexts := int(n) + 1
	lengths, err := entropy.ReadCodeLengths(br, numACContexts)
	if err != nil {
		return BlockContextMap{}, err
	}
	ctxMap := make([]int, len(lengths))
	for i, l := range lengths {
		ctxMap[i] = l
	}
	return BlockContextMap{ContextMap: ctxMap, numACContexts: numACContexts}, nil
}

// ColorCorrelationParams holds the global YCoCg-like chroma-from-luma
// base coefficients (spec.md's "color_correlation_params" LfGlobal
// field), overridden per-tile by HfMetadata's ytox/ytob maps.
type ColorCorrelationParams struct {
	YtoXBase int32
	YtoBBase int32
}

func readColorCorrelationParams(br *bitio.Reader) (ColorCorrelationParams, error) {
	x, err := br.Read(16)
	if err != nil {
		return ColorCorrelationParams{}, err
	}
	b, err := br.Read(16)
	if err != nil {
		return ColorCorrelationParams{}, err
	}
	return ColorCorrelationParams{YtoXBase: int32(x) - (1 << 15), YtoBBase: int32(b) - (1 << 15)}, nil
}

// TreeMaxSize bounds the optional per-frame Modular property tree's
// decoded node budget, per frame.rs::decode_lf_global's
// `min(1 << 22, 1024 + width*height*(color_channels+extra_channels)/16)`
// formula.
func TreeMaxSize(width, height, colorChannels, extraChannels int) int {
	bound := 1024 + width*height*(colorChannels+extraChannels)/16
	const cap22 = 1 << 22
	if bound > cap22 {
		return cap22
	}
	return bound
}

// Tree is a size-bounded placeholder for the Modular property-context
// tree: spec.md names a Modular decode path but "Image buffer container
// type" and the MA-tree property algorithm are both out of scope for
// this core (see SPEC_FULL.md and the package doc comment in
// modular.go). It records only the node count the bitstream declared,
// enough to stay byte-aligned and to bound subsequent decode work.
type Tree struct {
	NumNodes int
}

func readTree(br *bitio.Reader, maxSize int) (Tree, error) {
	n, err := br.Read(32)
	if err != nil {
		return Tree{}, err
	}
	if int(n) > maxSize {
		return Tree{}, jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "frame: tree node count %d exceeds bound %d", n, maxSize)
	}
	return Tree{NumNodes: int(n)}, nil
}

// LfGlobalState bundles every field decode_lf_global produces, carried
// forward into LfGroup/HfGlobal/HfGroup decode (spec.md's LfGlobalState
// data model entry; grounded on frame.rs's LfGlobalState struct).
type LfGlobalState struct {
	Patches     *Patches
	Splines     *Splines
	Noise       *Noise
	LfQuant     LfQuantFactors
	QuantParams *QuantizerParams
	BlockCtxMap *BlockContextMap
	ColorCorr   *ColorCorrelationParams
	Tree        *Tree
	Modular     *ModularImage
}

// DecodeLfGlobal implements spec.md §4.3 (LfGlobal Decoder), grounded on
// frame.rs::decode_lf_global's field ordering: patches, splines, noise
// (each behind its own presence flag), LfQuantFactors unconditionally,
// then (VarDCT only) quantizer params / block context map / color
// correlation params, then an optional property tree, then the full
// Modular image stream. modularColorChannels is the frame's
// modular_color_channels count (0 for VarDCT, 3 for Modular — computed
// once in decoderstate.go's NewFrame) and sizes the optional tree's
// node budget per spec.md §4.3's
// min(2²², 1024 + width*height*(color+extra)/16) bound.
func DecodeLfGlobal(br *bitio.Reader, h Header, modularColorChannels int) (*LfGlobalState, error) {
	jxllog.Trace("frame: decode_lf_global")
	state := &LfGlobalState{}

	if h.HasPatches {
		n, err := readOpaqueBlock(br)
		if err != nil {
			return nil, jxlerr.Wrap(err, "frame: lf_global patches")
		}
		state.Patches = &Patches{RawByteLen: n}
	}
	if h.HasSplines {
		n, err := readOpaqueBlock(br)
		if err != nil {
			return nil, jxlerr.Wrap(err, "frame: lf_global splines")
		}
		state.Splines = &Splines{RawByteLen: n}
	}
	if h.HasNoise {
		n, err := readOpaqueBlock(br)
		if err != nil {
			return nil, jxlerr.Wrap(err, "frame: lf_global noise")
		}
		state.Noise = &Noise{RawByteLen: n}
	}

	lfQuant, err := NewLfQuantFactors(br)
	if err != nil {
		return nil, jxlerr.Wrap(err, "frame: lf_global lf_quant")
	}
	state.LfQuant = lfQuant

	if h.Encoding == EncodingVarDCT {
		qp, err := readQuantizerParams(br)
		if err != nil {
			return nil, jxlerr.Wrap(err, "frame: lf_global quantizer_params")
		}
		state.QuantParams = &qp

		bcm, err := readBlockContextMap(br)
		if err != nil {
			return nil, jxlerr.Wrap(err, "frame: lf_global block_context_map")
		}
		state.BlockCtxMap = &bcm

		ccp, err := readColorCorrelationParams(br)
		if err != nil {
			return nil, jxlerr.Wrap(err, "frame: lf_global color_correlation_params")
		}
		state.ColorCorr = &ccp
	}

	hasTree, err := br.ReadBool()
	if err != nil {
		return nil, jxlerr.Wrap(err, "frame: lf_global tree presence bit")
	}
	if hasTree {
		maxSize := TreeMaxSize(h.Width, h.Height, modularColorChannels, 0)
		tree, err := readTree(br, maxSize)
		if err != nil {
			return nil, jxlerr.Wrap(err, "frame: lf_global tree")
		}
		state.Tree = &tree
	}

	modular, err := ReadFullModularImage(br, h.Width, h.Height)
	if err != nil {
		return nil, jxlerr.Wrap(err, "frame: lf_global modular_global")
	}
	state.Modular = modular

	return state, nil
}
