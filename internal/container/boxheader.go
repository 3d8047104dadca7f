package container

import (
	"encoding/binary"

	"github.com/jxlcore/jxl/internal/jxlerr"
)

// BoxType is a 4-byte ISO-BMFF-style box type, e.g. "jxlc" or "jxlp".
type BoxType [4]byte

func (t BoxType) String() string { return string(t[:]) }

var (
	boxTypeCodestream        = BoxType{'j', 'x', 'l', 'c'}
	boxTypePartialCodestream = BoxType{'j', 'x', 'l', 'p'}
)

// BoxHeader is a parsed (size, type) box header (spec.md §3 "Container
// box", §6 "Box header").
type BoxHeader struct {
	Type BoxType
	// PayloadSize is the number of payload bytes following the header, or
	// nil if the box runs to the end of the stream (declared size == 0).
	PayloadSize *uint64
	// HeaderSize is the number of bytes the header itself occupied (8 for
	// a normal box, 16 when the 64-bit extended size field was present).
	HeaderSize int
}

// ParseBoxHeader parses a box header from the start of data.
//
// It returns (header, true, nil) on success, (zero, false, nil) if data is
// too short to determine the header yet (caller should buffer more bytes
// and retry), or (zero, false, err) on a malformed header.
func ParseBoxHeader(data []byte) (BoxHeader, bool, error) {
	if len(data) < 8 {
		return BoxHeader{}, false, nil
	}
	size32 := binary.BigEndian.Uint32(data[0:4])
	var typ BoxType
	copy(typ[:], data[4:8])

	switch size32 {
	case 0:
		return BoxHeader{Type: typ, PayloadSize: nil, HeaderSize: 8}, true, nil
	case 1:
		if len(data) < 16 {
			return BoxHeader{}, false, nil
		}
		size64 := binary.BigEndian.Uint64(data[8:16])
		if size64 < 16 {
			return BoxHeader{}, false, jxlerr.Wrapf(jxlerr.ErrInvalidBox, "extended box size %d smaller than header", size64)
		}
		payload := size64 - 16
		return BoxHeader{Type: typ, PayloadSize: &payload, HeaderSize: 16}, true, nil
	default:
		if uint64(size32) < 8 {
			return BoxHeader{}, false, jxlerr.Wrapf(jxlerr.ErrInvalidBox, "box size %d smaller than header", size32)
		}
		payload := uint64(size32) - 8
		return BoxHeader{Type: typ, PayloadSize: &payload, HeaderSize: 8}, true, nil
	}
}
