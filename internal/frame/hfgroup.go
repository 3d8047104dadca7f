package frame

import (
	"github.com/jxlcore/jxl/internal/bitio"
	"github.com/jxlcore/jxl/internal/jxlerr"
	"github.com/jxlcore/jxl/internal/jxllog"
)

// HfGroupResult is one HfGroup section's decoded contribution: for
// Modular frames, the group/pass's residual plane; for VarDCT frames,
// this core does not decode AC coefficients (see DecodeHfGroup).
type HfGroupResult struct {
	Group   int
	Pass    int
	Modular *ModularImage
}

// DecodeHfGroup implements spec.md §4.6, grounded on
// frame.rs::decode_hf_group: the Modular path reads the group+pass's
// ModularStreamId::ModularHF stream the same way decode_lf_group reads
// ModularLF; the VarDCT AC-coefficient path is explicitly `todo!` in
// the original and stays unimplemented here too (VarDCT HF residual
// decoding needs the per-context histograms' symbol-to-coefficient
// placement via the coefficient-order permutations, which depends on
// the natural/zigzag scan tables in transform_data.rs that this port
// does not reproduce bit-for-bit — see DESIGN.md).
func DecodeHfGroup(br *bitio.Reader, h Header, group, pass int, hf *HfGlobalState) (*HfGroupResult, error) {
	jxllog.Trace("frame: decode_hf_group", "group", group, "pass", pass)
	if group < 0 || group >= h.NumGroups {
		return nil, jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "frame: hf_group index %d out of range [0,%d)", group, h.NumGroups)
	}
	if pass < 0 || pass >= h.NumPasses {
		return nil, jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "frame: hf_group pass %d out of range [0,%d)", pass, h.NumPasses)
	}

	if h.Encoding == EncodingModular {
		gw, gh := hfGroupExtent(h, group)
		modular, err := ReadFullModularImage(br, gw, gh)
		if err != nil {
			return nil, jxlerr.Wrap(err, "frame: hf_group modular stream")
		}
		return &HfGroupResult{Group: group, Pass: pass, Modular: modular}, nil
	}

	return nil, jxlerr.Wrap(jxlerr.ErrUnimplemented, "frame: VarDCT hf_group AC coefficient decode")
}

// hfGroupExtent mirrors lfGroupExtent but at the 256-pixel HF group
// tiling granularity (vs. the 2048-pixel LF group tiling), matching the
// 8x coarser-to-finer group-size relationship original_source's group
// geometry uses between LF and HF/AC groups.
func hfGroupExtent(h Header, group int) (int, int) {
	const tile = 256
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
