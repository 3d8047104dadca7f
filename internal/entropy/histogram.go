package entropy

import (
	"github.com/jxlcore/jxl/internal/bitio"
	"github.com/jxlcore/jxl/internal/jxlerr"
)

// lz77Symbol is the first alphabet-slot reserved for "repeat the last
// decoded symbol count times" run-length tokens, the way brotli-derived
// prefix-coded histograms (including JPEG XL's) extend a plain canonical
// code with a cheap LZ77 pass over repeated symbols.
const lz77Symbol = 224

// lz77LengthConfig expands an LZ77 repeat token into a run length.
var lz77LengthConfig = UintConfig{SplitExponent: 2, MsbInToken: 0, LsbInToken: 0}

// Distribution is a decoded prefix-code table together with the
// hybrid-uint configuration its tokens expand through, and the
// repeated-symbol (LZ77) state needed to decode a context's histogram
// (spec.md §4's "AC histograms ... (LZ77-enabled)").
type Distribution struct {
	table  []Code
	uint   UintConfig
	lastSym uint32
	haveLast bool
}

// NewDistribution builds a Distribution from explicit per-symbol code
// lengths (as decoded by ReadCodeLengths) and a hybrid-uint config.
func NewDistribution(codeLengths []int, cfg UintConfig) (*Distribution, error) {
	table, err := BuildTable(codeLengths)
	if err != nil {
		return nil, err
	}
	return &Distribution{table: table, uint: cfg}, nil
}

// ReadSymbol decodes one value from br, transparently expanding a
// "repeat previous symbol" LZ77 token into the symbol it repeats.
// Callers that need the run length themselves (to repeat a decoded
// value N times rather than only once) should use ReadSymbolRun.
func (d *Distribution) ReadSymbol(br *bitio.Reader) (uint32, error) {
	vals, err := d.ReadSymbolRun(br)
	if err != nil {
		return 0, err
	}
	return vals.value, nil
}

type symbolRun struct {
	value  uint32
	repeat int
}

// Value returns the decoded symbol value.
func (r symbolRun) Value() uint32 { return r.value }

// Repeat returns how many times Value is repeated.
func (r symbolRun) Repeat() int { return r.repeat }

// ReadSymbolRun decodes the next logical symbol, resolving an LZ77
// repeat token (if encountered) against the last real symbol decoded.
// repeat is 1 for an ordinary symbol and the token's decoded run length
// plus one (so at least 1) for an LZ77 repeat token.
func (d *Distribution) ReadSymbolRun(br *bitio.Reader) (symbolRun, error) {
	token, err := ReadSymbol(d.table, br)
	if err != nil {
		return symbolRun{}, err
	}
	if int(token) < lz77Symbol {
		value, err := d.uint.DecodeUint(br, uint32(token))
		if err != nil {
			return symbolRun{}, err
		}
		d.lastSym = value
		d.haveLast = true
		return symbolRun{value: value, repeat: 1}, nil
	}

	if !d.haveLast {
		return symbolRun{}, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: LZ77 repeat with no prior symbol")
	}
	runToken := uint32(token) - lz77Symbol
	runLen, err := lz77LengthConfig.DecodeUint(br, runToken)
	if err != nil {
		return symbolRun{}, err
	}
	return symbolRun{value: d.lastSym, repeat: int(runLen) + 1}, nil
}

// ReadCodeLengths reads a canonical code-length table for an alphabet of
// the given size off br: per symbol, a 2-bit selector of 0 means code
// length 0; any other selector value is followed by a 4-bit value v and
// gives code length v+1 (capped at MaxCodeLength). The brotli
// repeat/zero-run code-length alphabet is not supported.
func ReadCodeLengths(br *bitio.Reader, alphabetSize int) ([]int, error) {
	if alphabetSize <= 0 {
		return nil, jxlerr.Wrap(jxlerr.ErrInvalidSignature, "entropy: empty alphabet")
	}
	lengths := make([]int, alphabetSize)
	for i := range lengths {
		widthSel, err := br.Read(2)
		if err != nil {
			return nil, err
		}
		switch widthSel {
		case 0:
			lengths[i] = 0
		default:
			v, err := br.Read(4)
			if err != nil {
				return nil, err
			}
			lengths[i] = int(v) + 1
			if lengths[i] > MaxCodeLength {
				lengths[i] = MaxCodeLength
			}
		}
	}
	return lengths, nil
}
