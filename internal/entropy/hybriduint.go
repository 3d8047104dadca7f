package entropy

import (
	"github.com/jxlcore/jxl/internal/bitio"
	"github.com/jxlcore/jxl/internal/jxlerr"
)

// UintConfig parametrizes hybrid-uint decoding: tokens below
// 1<<SplitExponent decode directly as the value; tokens at or above that
// split point carry MsbInToken+LsbInToken bits of the value directly in
// the token, plus an exponent (derived from the rest of the token) that
// says how many further raw bits to read from the stream and fold in
// (spec.md §1/§2's "hybrid-uint decoding" required capability; this is
// the general JPEG XL scheme, not detailed by spec.md's [MODULE] blocks
// since entropy coding is named only as a collaborator there).
type UintConfig struct {
	SplitExponent int
	MsbInToken    int
	LsbInToken    int
}

// DefaultUintConfig is a reasonable general-purpose configuration
// (split_exponent=4, msb_in_token=2, lsb_in_token=0), matching the
// distribution most small coefficient/order alphabets in this decoder use.
var DefaultUintConfig = UintConfig{SplitExponent: 4, MsbInToken: 2, LsbInToken: 0}

// DecodeUint expands an entropy-decoded token into its hybrid-uint value,
// reading any additional raw bits the token's exponent implies.
func (c UintConfig) DecodeUint(br *bitio.Reader, token uint32) (uint32, error) {
	split := uint32(1) << uint(c.SplitExponent)
	if token < split {
		return token, nil
	}

	n := token - split
	lsb := n & (uint32(1)<<uint(c.LsbInToken) - 1)
	n >>= uint(c.LsbInToken)
	msb := n & (uint32(1)<<uint(c.MsbInToken) - 1)
	n >>= uint(c.MsbInToken)

	nbits := c.SplitExponent - c.MsbInToken - c.LsbInToken + int(n)
	if nbits < 0 || nbits > 32 {
		return 0, jxlerr.Wrapf(jxlerr.ErrInvalidSignature, "entropy: hybrid-uint bit count out of range: %d", nbits)
	}
	bits, err := br.Read(nbits)
	if err != nil {
		return 0, err
	}

	value := ((uint32(1)<<uint(nbits) | uint32(bits)) << uint(c.MsbInToken+c.LsbInToken)) | (msb << uint(c.LsbInToken)) | lsb
	return value, nil
}
