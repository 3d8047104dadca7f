// Package entropy implements the canonical-prefix-code entropy decoder
// and hybrid-uint symbol decoding that spec.md §1/§2 name as a required
// external capability ("Entropy coding ... specified only as required
// capabilities") without detailing the wire format, since entropy coding
// is not itself one of this module's [MODULE] blocks.
//
// Only the canonical-prefix-code entropy mode is implemented; the
// bitstream's alternative ANS mode is left unimplemented (see
// DESIGN.md's Open Questions) since the teacher has no ANS-family code
// to ground a port on and spec.md's Non-goals treat advanced entropy
// modes as out of core scope.
package entropy

import (
	"github.com/jxlcore/jxl/internal/bitio"
	"github.com/jxlcore/jxl/internal/jxlerr"
)

// MaxCodeLength is the longest prefix code this decoder accepts.
const MaxCodeLength = 15

// RootTableBits sizes the first-level lookup table built by BuildTable.
const RootTableBits = 8

// Code is a single two-level prefix-code table entry: Bits is the number
// of bits this entry consumes (for a root-table entry pointing at a
// second-level table, it is RootTableBits+subTableBits instead, and
// Value is the offset of that sub-table), Value is the decoded symbol.
type Code struct {
	Bits  uint8
	Value uint16
}

// BuildTable constructs a two-level canonical prefix-code lookup table
// from an array of per-symbol code lengths, the same two-pass
// root-table/sub-table algorithm as libwebp's BuildHuffmanTable (ported
// here from the teacher's internal/lossless/huffman.go, generalized from
// WebP's fixed RootTableBits=8 policy only in name — the size stays the
// same since JPEG XL's Brotli-derived prefix codes use the same
// first-level table width).
func BuildTable(codeLengths []int) ([]Code, error) {
	n := len(codeLengths)
	if n == 0 {
		return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: empty code length table")
	}

	var count [MaxCodeLength + 1]int
	for _, cl := range codeLengths {
		if cl < 0 || cl > MaxCodeLength {
			return nil, jxlerr.Wrapf(jxlerr.ErrInvalidSignature, "entropy: code length %d out of range", cl)
		}
		count[cl]++
	}
	if count[0] == n {
		return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: all code lengths zero")
	}

	var offset [MaxCodeLength + 1]int
	for l := 1; l < MaxCodeLength; l++ {
		if count[l] > (1 << uint(l)) {
			return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: over-subscribed code length")
		}
		offset[l+1] = offset[l] + count[l]
	}
	sorted := make([]uint16, n)
	for symbol, cl := range codeLengths {
		if cl > 0 {
			if offset[cl] >= n {
				return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: invalid code length distribution")
			}
			sorted[offset[cl]] = uint16(symbol)
			offset[cl]++
		}
	}

	if offset[MaxCodeLength] == 1 {
		table := make([]Code, 1<<RootTableBits)
		code := Code{Bits: 0, Value: sorted[0]}
		replicate(table, 1, len(table), code)
		return table, nil
	}

	totalSize := tableSize(count[:], n)
	if totalSize == 0 {
		return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: invalid prefix code tree")
	}
	table := make([]Code, totalSize)

	for i := range count {
		count[i] = 0
	}
	for _, cl := range codeLengths {
		count[cl]++
	}

	rootBits := RootTableBits
	tableWidth := rootBits
	tSize := 1 << uint(tableWidth)

	var low uint32 = 0xffffffff
	mask := uint32(tSize - 1)
	var key uint32
	numNodes := 1
	numOpen := 1
	symbol := 0

	for l, step := 1, 2; l <= rootBits; l, step = l+1, step<<1 {
		numOpen <<= 1
		numNodes += numOpen
		numOpen -= count[l]
		if numOpen < 0 {
			return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: over-subscribed prefix code")
		}
		for ; count[l] > 0; count[l]-- {
			code := Code{Bits: uint8(l), Value: sorted[symbol]}
			symbol++
			replicate(table[key:], step, tSize, code)
			key = nextKey(key, l)
		}
	}

	tableOff := 0
	for l, step := rootBits+1, 2; l <= MaxCodeLength; l, step = l+1, step<<1 {
		numOpen <<= 1
		numNodes += numOpen
		numOpen -= count[l]
		if numOpen < 0 {
			return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: over-subscribed prefix code")
		}
		for ; count[l] > 0; count[l]-- {
			if (key & mask) != low {
				tableOff += tSize
				tableWidth = nextTableWidth(count[:], l, rootBits)
				tSize = 1 << uint(tableWidth)
				if tableOff+tSize > totalSize {
					return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: sub-table overflow")
				}
				low = key & mask
				table[low] = Code{Bits: uint8(tableWidth + rootBits), Value: uint16(tableOff)}
			}
			code := Code{Bits: uint8(l - rootBits), Value: sorted[symbol]}
			symbol++
			off := tableOff + int(key>>uint(rootBits))
			if off >= totalSize {
				return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: sub-table index overflow")
			}
			replicate(table[off:], step, tSize, code)
			key = nextKey(key, l)
		}
	}

	if numNodes != 2*offset[MaxCodeLength]-1 {
		return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: incomplete prefix code tree")
	}
	return table, nil
}

// ReadSymbol decodes the next prefix-coded symbol from br using table.
func ReadSymbol(table []Code, br *bitio.Reader) (uint16, error) {
	window, avail := br.PeekUpTo(MaxCodeLength)
	if avail == 0 {
		return 0, jxlerr.ErrOutOfBounds
	}
	rootMask := uint64(len(table) - 1)
	if rootMask >= 1<<RootTableBits {
		rootMask = (1 << RootTableBits) - 1
	}
	entry := table[window&rootMask]
	nbits := int(entry.Bits) - RootTableBits
	if nbits > 0 {
		sub := window >> RootTableBits
		idx := int(entry.Value) + int(sub&((1<<uint(nbits))-1))
		if idx >= len(table) {
			return 0, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: invalid sub-table index")
		}
		entry = table[idx]
		consumed := RootTableBits + int(entry.Bits)
		if _, err := br.Read(consumed); err != nil {
			return 0, err
		}
		return entry.Value, nil
	}
	if _, err := br.Read(int(entry.Bits)); err != nil {
		return 0, err
	}
	return entry.Value, nil
}

func tableSize(count []int, n int) int {
	rootBits := RootTableBits
	total := 1 << uint(rootBits)

	var offset [MaxCodeLength + 1]int
	for l := 1; l < MaxCodeLength; l++ {
		if count[l] > (1 << uint(l)) {
			return 0
		}
		offset[l+1] = offset[l] + count[l]
	}
	if offset[MaxCodeLength] == 1 {
		return total
	}

	mask := uint32(total - 1)
	var key uint32
	for l := 1; l <= rootBits; l++ {
		for c := count[l]; c > 0; c-- {
			key = nextKey(key, l)
		}
	}
	var low uint32 = 0xffffffff
	for l := rootBits + 1; l <= MaxCodeLength; l++ {
		for c := count[l]; c > 0; c-- {
			if (key & mask) != low {
				total += 1 << uint(nextTableWidth(count, l, rootBits))
				low = key & mask
			}
			key = nextKey(key, l)
		}
	}
	return total
}

// nextKey returns reverse(reverse(key, length) + 1, length) — the bit-
// reversed successor used to walk the canonical code space in order.
func nextKey(key uint32, length int) uint32 {
	step := uint32(1) << uint(length-1)
	for key&step != 0 {
		step >>= 1
	}
	if step != 0 {
		return (key & (step - 1)) + step
	}
	return key
}

func replicate(table []Code, step, end int, code Code) {
	for i := end - step; i >= 0; i -= step {
		table[i] = code
	}
}

func nextTableWidth(count []int, length, rootBits int) int {
	left := 1 << uint(length-rootBits)
	for length < MaxCodeLength {
		left -= count[length]
		if left <= 0 {
			break
		}
		length++
		left <<= 1
	}
	return length - rootBits
}
