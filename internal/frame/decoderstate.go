package frame

import (
	"github.com/jxlcore/jxl/internal/bitio"
	"github.com/jxlcore/jxl/internal/jxlerr"
	"github.com/jxlcore/jxl/internal/jxllog"
)

// MaxStoredFrames is the fixed reference-frame slot count (spec.md's
// DecoderState data model entry; frame.rs's MAX_STORED_FRAMES const and
// its `[Option<ReferenceFrame>; 4]` array).
const MaxStoredFrames = 4

// ReferenceFrame is a finished frame kept around for later frames to
// reference (patches, blending, or as a base for progressive passes).
// Grounded on frame.rs's ReferenceFrame{frame, saved_before_color_transform}.
type ReferenceFrame struct {
	Header                    Header
	SavedBeforeColorTransform bool
}

// BlankReferenceFrame constructs the placeholder ReferenceFrame stored
// when a frame declares can_be_referenced without carrying full pixel
// data through this core (frame.rs's `ReferenceFrame::blank`).
func BlankReferenceFrame(h Header) ReferenceFrame {
	return ReferenceFrame{Header: h, SavedBeforeColorTransform: h.SaveBeforeCT}
}

// DecoderState threads the reference-frame table across the frame
// sequence (spec.md's DecoderState entry; frame.rs's
// DecoderState{file_header, reference_frames}).
type DecoderState struct {
	ReferenceFrames [MaxStoredFrames]*ReferenceFrame
}

// ReferenceFrameAt returns the reference frame stored in slot i
// (0<=i<MaxStoredFrames), or nil if that slot is empty.
func (d *DecoderState) ReferenceFrameAt(i int) (*ReferenceFrame, error) {
	if i < 0 || i >= MaxStoredFrames {
		return nil, jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "frame: reference slot %d out of range [0,%d)", i, MaxStoredFrames)
	}
	return d.ReferenceFrames[i], nil
}

// HfMetadata is the frame-wide assembly of the per-LfGroup
// GroupHfMetadata tiles (spec.md's HfMetadata data model entry;
// frame.rs's HfMetadata{ytox_map, ytob_map, raw_quant_map,
// transform_map, epf_map}), populated as LfGroup sections are decoded.
type HfMetadata struct {
	YToXMap      *Image
	YToBMap      *Image
	RawQuantMap  *Image
	TransformMap *Image
	EpfMap       *Image
}

// Frame is the decode state for a single frame: its header/TOC, the
// per-phase results accumulated as sections are routed through
// DecodeLfGlobal/DecodeLfGroup/DecodeHfGlobal/DecodeHfGroup, and the
// shared DecoderState it reads reference frames from and (on
// Finalize) writes one back into. Grounded on frame.rs's
// Frame{header, toc, modular_color_channels, lf_global, hf_global,
// lf_image, hf_meta, decoder_state}.
type Frame struct {
	Header Header
	Toc    Toc

	ModularColorChannels int

	LfGlobal *LfGlobalState
	HfGlobal *HfGlobalState

	LfGroups map[int]*LfGroupResult
	HfGroups map[int]*HfGroupResult

	LfImage *Image
	HfMeta  *HfMetadata

	decoderState *DecoderState
}

// NewFrame reads a frame header and TOC off br and allocates the
// frame-wide LF image / HF metadata planes the VarDCT path needs,
// mirroring frame.rs::Frame::new: read header, read TOC, jump to the
// next byte boundary, derive modular_color_channels (0 for VarDCT
// frames, which keep color entirely in the DCT domain; the channel
// count for Modular frames), and conditionally allocate lf_image/hf_meta.
func NewFrame(br *bitio.Reader, ds *DecoderState) (*Frame, error) {
	h, err := ReadHeader(br)
	if err != nil {
		return nil, jxlerr.Wrap(err, "frame: header")
	}
	toc, err := ReadToc(br, h.NumTOCEntries)
	if err != nil {
		return nil, jxlerr.Wrap(err, "frame: toc")
	}
	if err := br.JumpToByteBoundary(); err != nil {
		return nil, jxlerr.Wrap(err, "frame: post-toc byte alignment")
	}

	modularColorChannels := 0
	if h.Encoding == EncodingModular {
		modularColorChannels = 3
	}

	f := &Frame{
		Header:               h,
		Toc:                  toc,
		ModularColorChannels: modularColorChannels,
		LfGroups:             make(map[int]*LfGroupResult),
		HfGroups:             make(map[int]*HfGroupResult),
		decoderState:         ds,
	}

	if h.Encoding == EncodingVarDCT {
		bw, bh := h.SizeBlocks()
		f.LfImage = NewImage(bw, bh)
		f.HfMeta = &HfMetadata{
			YToXMap:      NewImage(ceilDiv(bw, 8), ceilDiv(bh, 8)),
			YToBMap:      NewImage(ceilDiv(bw, 8), ceilDiv(bh, 8)),
			RawQuantMap:  NewImage(bw, bh),
			TransformMap: NewImage(bw, bh),
			EpfMap:       NewImage(ceilDiv(bw, 8), ceilDiv(bh, 8)),
		}
	}

	return f, nil
}

// Run decodes every TOC section in canonical section order, dispatching
// to the four phase decoders per spec.md §5's ordering requirement
// (LfGlobal before any LfGroup, all LfGroups before HfGlobal, HfGlobal
// before any HfGroup).
//
// When the TOC carries a single entry (spec.md §3: "when the TOC has a
// single entry the whole frame is one section at index 0"), every phase
// reads sequentially from that one shared section rather than from four
// independent section readers — frame.rs's `sections()` hands back one
// shared reader in that case too, since there is only one byte range to
// split. This collapse is keyed on Header.NumTOCEntries (equivalently
// len(sections)), not on the group/pass counts: those can each be 1
// while the TOC still carries its full 4-entry layout.
func (f *Frame) Run(sections [][]byte) error {
	jxllog.Info("frame: run", "width", f.Header.Width, "height", f.Header.Height)

	collapsed := f.Header.NumTOCEntries == 1
	var shared *bitio.Reader
	if collapsed {
		br, err := sectionReader(sections, 0)
		if err != nil {
			return jxlerr.Wrap(err, "frame: collapsed section")
		}
		shared = br
	}
	sectionFor := func(kind SectionKind, group, pass int) (*bitio.Reader, error) {
		if collapsed {
			return shared, nil
		}
		idx := GetSectionIdx(Section{Kind: kind, Group: group, Pass: pass}, f.Header.NumTOCEntries, f.Header.NumGroups, f.Header.NumLFGroups, f.Header.NumPasses)
		return sectionReader(sections, idx)
	}

	lfGlobalBr, err := sectionFor(SectionLfGlobal, 0, 0)
	if err != nil {
		return jxlerr.Wrap(err, "frame: lf_global section")
	}
	lfGlobal, err := DecodeLfGlobal(lfGlobalBr, f.Header, f.ModularColorChannels)
	if err != nil {
		return err
	}
	f.LfGlobal = lfGlobal

	for g := 0; g < f.Header.NumLFGroups; g++ {
		br, err := sectionFor(SectionLfGroup, g, 0)
		if err != nil {
			return jxlerr.Wrapf(err, "frame: lf_group %d section", g)
		}
		result, err := DecodeLfGroup(br, f.Header, g, f.LfGlobal)
		if err != nil {
			return err
		}
		f.LfGroups[g] = result
		f.mergeLfGroup(result)
	}

	hfGlobalBr, err := sectionFor(SectionHfGlobal, 0, 0)
	if err != nil {
		return jxlerr.Wrap(err, "frame: hf_global section")
	}
	hfGlobal, err := DecodeHfGlobal(hfGlobalBr, f.Header, f.LfGlobal)
	if err != nil {
		return err
	}
	f.HfGlobal = hfGlobal

	for p := 0; p < f.Header.NumPasses; p++ {
		for g := 0; g < f.Header.NumGroups; g++ {
			br, err := sectionFor(SectionHfGroup, g, p)
			if err != nil {
				return jxlerr.Wrapf(err, "frame: hf_group %d pass %d section", g, p)
			}
			result, err := DecodeHfGroup(br, f.Header, g, p, f.HfGlobal)
			if err != nil {
				return err
			}
			f.HfGroups[g] = result
		}
	}

	return nil
}

func sectionReader(sections [][]byte, idx int) (*bitio.Reader, error) {
	if idx < 0 || idx >= len(sections) {
		return nil, jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "frame: section index %d out of range [0,%d)", idx, len(sections))
	}
	return bitio.NewReader(sections[idx]), nil
}

// mergeLfGroup copies a decoded LfGroup's VarDCT contributions into the
// frame-wide LfImage/HfMeta planes at that group's tile offset.
func (f *Frame) mergeLfGroup(r *LfGroupResult) {
	if f.Header.Encoding != EncodingVarDCT || r.LfPlane == nil {
		return
	}
	const tileBlocks = 2048 / 8
	cols := ceilDiv(f.Header.Width, 2048)
	if cols == 0 {
		cols = 1
	}
	gx := (r.Group % cols) * tileBlocks
	gy := (r.Group / cols) * tileBlocks
	blitImage(f.LfImage, r.LfPlane, gx, gy)

	if r.HfMeta == nil {
		return
	}
	txg, tyg := gx/8, gy/8
	blitImage(f.HfMeta.RawQuantMap, r.HfMeta.RawQuant, gx, gy)
	blitImage(f.HfMeta.TransformMap, r.HfMeta.TransformMap, gx, gy)
	blitImage(f.HfMeta.EpfMap, r.HfMeta.EpfMap, txg, tyg)
}

func blitImage(dst, src *Image, ox, oy int) {
	if dst == nil || src == nil {
		return
	}
	for y := 0; y < src.H; y++ {
		dy := oy + y
		if dy >= dst.H {
			break
		}
		for x := 0; x < src.W; x++ {
			dx := ox + x
			if dx >= dst.W {
				break
			}
			dst.Set(dx, dy, src.At(x, y))
		}
	}
}

// Finalize implements spec.md §4.7 (Frame Finalization), grounded on
// frame.rs::finalize: if the frame can be referenced, store a blank
// ReferenceFrame into its declared save_as_reference slot; return the
// (possibly mutated) DecoderState unless this was the last frame, in
// which case decode is complete and there is nothing further to thread
// through.
func (f *Frame) Finalize() (*DecoderState, error) {
	if f.decoderState == nil {
		return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "frame: finalize called without a DecoderState")
	}
	if f.Header.CanBeReferenced {
		ref := BlankReferenceFrame(f.Header)
		slot := f.Header.SaveAsReference
		if slot < 0 || slot >= MaxStoredFrames {
			return nil, jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "frame: save_as_reference slot %d out of range", slot)
		}
		f.decoderState.ReferenceFrames[slot] = &ref
	}
	if f.Header.IsLast {
		return nil, nil
	}
	return f.decoderState, nil
}
