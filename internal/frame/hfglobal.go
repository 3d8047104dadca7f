package frame

import (
	"github.com/jxlcore/jxl/internal/bitio"
	"github.com/jxlcore/jxl/internal/entropy"
	"github.com/jxlcore/jxl/internal/jxlerr"
	"github.com/jxlcore/jxl/internal/jxllog"
)

// NumOrders is the number of distinct coefficient orders a frame can
// declare (spec.md §4.5's "NUM_ORDERS raw bits" fallback case),
// grounded on original_source/jxl/src/headers/transform_data.rs's
// order-table layout.
const NumOrders = 13

// usedOrdersPresets are the fixed bitmasks used_orders_sel selects
// between for values 0..2; value 3 means "read NumOrders raw bits
// instead", per frame.rs::decode_hf_global.
var usedOrdersPresets = [3]uint32{0x5F, 0x13, 0x00}

// readUsedOrders expands the 2-bit used_orders_sel selector into the
// NumOrders-bit mask of which coefficient orders this pass actually
// uses.
func readUsedOrders(br *bitio.Reader) (uint32, error) {
	sel, err := br.Read(2)
	if err != nil {
		return 0, err
	}
	if sel < 3 {
		return usedOrdersPresets[sel], nil
	}
	raw, err := br.Read(NumOrders)
	if err != nil {
		return 0, err
	}
	return uint32(raw), nil
}

// CoeffOrder is a permutation of one coefficient order's natural
// (zigzag-like) scan. Each used order bit carries 3 of these — one per
// color channel — per spec.md's "each PassState carries 3*NUM_ORDERS
// coefficient permutations" and §4.5's "Decodes 3*NUM_ORDERS
// coefficient permutations from the mask" (frame.rs::decode_coeff_orders
// loops the 3 channels inside its per-order-bit loop).
type CoeffOrder struct {
	Permutation []uint16
}

func decodeCoeffOrders(br *bitio.Reader, usedOrders uint32, blockSize int) ([]CoeffOrder, error) {
	n := blockSize * blockSize
	var orders []CoeffOrder
	for bit := 0; bit < NumOrders; bit++ {
		if usedOrders&(1<<uint(bit)) == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			perm := make([]uint16, n)
			for i := range perm {
				v, err := br.Read(16)
				if err != nil {
					return nil, err
				}
				perm[i] = uint16(v)
			}
			orders = append(orders, CoeffOrder{Permutation: perm})
		}
	}
	return orders, nil
}

// PassState is one coding pass's coefficient orders plus its
// per-context AC histograms (spec.md's "PassState" HfGlobalState
// field; frame.rs's PassState{coeff_orders, histograms}).
type PassState struct {
	CoeffOrders []CoeffOrder
	Histograms  []*entropy.Distribution
}

// HfGlobalState is the result of decode_hf_global: the shared
// histogram count plus one PassState per coding pass (spec.md §4.5;
// frame.rs's HfGlobalState{num_histograms, passes}).
type HfGlobalState struct {
	NumHistograms int
	Passes        []PassState
}

// DecodeHfGlobal implements spec.md §4.5, grounded on
// frame.rs::decode_hf_global: a no-op for Modular frames (all
// coefficient work happens in Modular streams instead); for VarDCT, a
// mandatory flag bit (the only defined value is 1 - frame.rs panics via
// `todo!` on 0, so this core rejects 0 with ErrUnimplemented), then
// ceil_log2(num_groups) bits for num_histograms-1, then per pass a
// used_orders_sel expansion, coefficient-order tables, and
// num_histograms * num_ac_contexts histograms.
func DecodeHfGlobal(br *bitio.Reader, h Header, lf *LfGlobalState) (*HfGlobalState, error) {
	jxllog.Trace("frame: decode_hf_global")
	if h.Encoding == EncodingModular {
		return &HfGlobalState{}, nil
	}

	mandatory, err := br.ReadBool()
	if err != nil {
		return nil, jxlerr.Wrap(err, "frame: hf_global mandatory bit")
	}
	if !mandatory {
		return nil, jxlerr.Wrap(jxlerr.ErrUnimplemented, "frame: hf_global mandatory bit == 0")
	}

	bits := ceilLog2(h.NumGroups)
	raw, err := br.Read(bits)
	if err != nil {
		return nil, jxlerr.Wrap(err, "frame: hf_global num_histograms")
	}
	numHistograms := int(raw) + 1

	if lf.BlockCtxMap == nil {
		return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "frame: hf_global requires a block context map")
	}
	numACContexts := lf.BlockCtxMap.NumACContexts()

	passes := make([]PassState, h.NumPasses)
	for p := range passes {
		usedOrders, err := readUsedOrders(br)
		if err != nil {
			return nil, jxlerr.Wrapf(err, "frame: hf_global pass %d used_orders_sel", p)
		}
		orders, err := decodeCoeffOrders(br, usedOrders, 8)
		if err != nil {
			return nil, jxlerr.Wrapf(err, "frame: hf_global pass %d coeff_orders", p)
		}

		histograms := make([]*entropy.Distribution, numHistograms*numACContexts)
		for i := range histograms {
			lengths, err := entropy.ReadCodeLengths(br, 256)
			if err != nil {
				return nil, jxlerr.Wrapf(err, "frame: hf_global pass %d histogram %d lengths", p, i)
			}
			dist, err := entropy.NewDistribution(lengths, entropy.DefaultUintConfig)
			if err != nil {
				return nil, jxlerr.Wrapf(err, "frame: hf_global pass %d histogram %d table", p, i)
			}
			histograms[i] = dist
		}

		passes[p] = PassState{CoeffOrders: orders, Histograms: histograms}
	}

	return &HfGlobalState{NumHistograms: numHistograms, Passes: passes}, nil
}

// ceilLog2 returns the number of bits needed to represent values in
// [0, n), i.e. ceil(log2(n)), with ceilLog2(1) == 0.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	bits := 0
	for (1 << uint(bits)) < n {
		bits++
	}
	return bits
}
