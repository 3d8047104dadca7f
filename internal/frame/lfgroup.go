package frame

import (
	"github.com/jxlcore/jxl/internal/bitio"
	"github.com/jxlcore/jxl/internal/jxlerr"
	"github.com/jxlcore/jxl/internal/jxllog"
)

// LfGroupResult carries one LfGroup section's decoded contribution
// (spec.md §4.4 LfGroup Decoder): the VarDCT LF-band coefficient plane
// plus the HF metadata maps covering this group's tile, and the portion
// of the Modular LF stream addressed at this group (frame.rs's
// `ModularStreamId::ModularLF(group)`).
type LfGroupResult struct {
	Group   int
	LfPlane *Image
	HfMeta  *GroupHfMetadata
	Modular *ModularImage
}

// GroupHfMetadata is the per-group slice of the frame-wide HfMetadata
// planes (ytox/ytob/raw_quant/transform/epf), decoded alongside the LF
// band because both are required before any HfGroup section can be
// entropy-decoded (frame.rs::decode_lf_group decodes HF metadata right
// after the VarDCT LF band for the same reason).
type GroupHfMetadata struct {
	YToX         int32
	YToB         int32
	RawQuant     *Image
	TransformMap *Image
	EpfMap       *Image
}

// DecodeLfGroup implements spec.md §4.4, grounded on
// frame.rs::decode_lf_group: for VarDCT frames, decode the LF band (one
// DC-resolution plane) then the HF metadata maps; for Modular frames,
// the whole group comes from the Modular stream directly instead. In
// both cases the group's `ModularLF(group)` stream is then read
// unconditionally — frame.rs reads it outside and after the VarDCT
// branch, using the global tree, so a VarDCT group still owns a
// Modular LF substream and skipping it desyncs every section that
// follows.
func DecodeLfGroup(br *bitio.Reader, h Header, group int, state *LfGlobalState) (*LfGroupResult, error) {
	jxllog.Trace("frame: decode_lf_group", "group", group)
	if group < 0 || group >= h.NumLFGroups {
		return nil, jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "frame: lf_group index %d out of range [0,%d)", group, h.NumLFGroups)
	}

	gw, gh := lfGroupExtent(h, group)
	result := &LfGroupResult{Group: group}

	if h.Encoding == EncodingVarDCT {
		if state.QuantParams == nil {
			return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "frame: lf_group requires VarDCT quantizer params")
		}
		lfPlane, err := readLfBand(br, gw, gh)
		if err != nil {
			return nil, jxlerr.Wrap(err, "frame: lf_group lf band")
		}
		result.LfPlane = lfPlane

		meta, err := readGroupHfMetadata(br, gw, gh)
		if err != nil {
			return nil, jxlerr.Wrap(err, "frame: lf_group hf_metadata")
		}
		result.HfMeta = meta
	}

	modular, err := ReadFullModularImage(br, gw, gh)
	if err != nil {
		return nil, jxlerr.Wrap(err, "frame: lf_group modular stream")
	}
	result.Modular = modular
	return result, nil
}

// lfGroupExtent returns this LF group's pixel extent: the frame is
// tiled into up-to-2048x2048 LF groups; the last row/column of groups
// is clipped to the frame boundary, mirroring how original_source's
// group geometry (driven by frame.rs's stored num_lf_groups) always
// tiles the full frame without overhang.
func lfGroupExtent(h Header, group int) (int, int) {
	const tile = 2048
	cols := ceilDiv(h.Width, tile)
	if cols == 0 {
		cols = 1
	}
	gx := group % cols
	gy := group / cols
	w := tile
	if (gx+1)*tile > h.Width {
		w = h.Width - gx*tile
	}
	height := tile
	if (gy+1)*tile > h.Height {
		height = h.Height - gy*tile
	}
	if w <= 0 {
		w = 1
	}
	if height <= 0 {
		height = 1
	}
	return w, height
}

// readLfBand reads one DC-resolution (1/8 scale) coefficient plane.
func readLfBand(br *bitio.Reader, w, h int) (*Image, error) {
	bw, bh := ceilDiv(w, 8), ceilDiv(h, 8)
	plane := NewImage(bw, bh)
	for i := range plane.Data {
		v, err := br.Read(16)
		if err != nil {
			return nil, err
		}
		plane.Data[i] = int32(v) - (1 << 15)
	}
	return plane, nil
}

func readGroupHfMetadata(br *bitio.Reader, w, h int) (*GroupHfMetadata, error) {
	bw, bh := ceilDiv(w, 8), ceilDiv(h, 8)
	tw, th := ceilDiv(bw, 8), ceilDiv(bh, 8)

	ytox, err := br.Read(16)
	if err != nil {
		return nil, err
	}
	ytob, err := br.Read(16)
	if err != nil {
		return nil, err
	}

	rawQuant := NewImage(bw, bh)
	if err := fillPlane8(br, rawQuant); err != nil {
		return nil, err
	}
	transformMap := NewImage(bw, bh)
	if err := fillPlane8(br, transformMap); err != nil {
		return nil, err
	}
	epfMap := NewImage(tw, th)
	if err := fillPlane8(br, epfMap); err != nil {
		return nil, err
	}

	return &GroupHfMetadata{
		YToX:         int32(ytox) - (1 << 15),
		YToB:         int32(ytob) - (1 << 15),
		RawQuant:     rawQuant,
		TransformMap: transformMap,
		EpfMap:       epfMap,
	}, nil
}

func fillPlane8(br *bitio.Reader, im *Image) error {
	for i := range im.Data {
		v, err := br.Read(8)
		if err != nil {
			return err
		}
		im.Data[i] = int32(v)
	}
	return nil
}
