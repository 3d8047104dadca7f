package jxl

import (
	"go.uber.org/zap"

	"github.com/jxlcore/jxl/internal/bitio"
	"github.com/jxlcore/jxl/internal/container"
	"github.com/jxlcore/jxl/internal/frame"
	"github.com/jxlcore/jxl/internal/jxlerr"
	"github.com/jxlcore/jxl/internal/jxllog"
)

// SetLogger replaces the package-wide logger used by the container,
// frame, and dct packages. Pass nil to restore the default no-op logger.
func SetLogger(l *zap.SugaredLogger) {
	jxllog.SetLogger(l)
}

// Limits bounds a handful of decode-time allocations, the way the
// teacher names fixed ceilings for untrusted chunk sizes in
// internal/container/constants.go (e.g. MaxChunkPayload). Zero values
// fall back to DefaultLimits.
type Limits struct {
	// MaxBoxPayload bounds any single container box's declared payload
	// size, guarding against a corrupt or hostile size field.
	MaxBoxPayload uint64
	// MaxFrames bounds how many frames Decode will process before
	// giving up, guarding against a frame sequence that never sets
	// is_last.
	MaxFrames int
}

// DefaultLimits are the limits Decode uses when the caller does not
// supply its own via NewDecoderWithLimits.
var DefaultLimits = Limits{
	MaxBoxPayload: 1 << 32,
	MaxFrames:     1 << 16,
}

// Decoder decodes a JPEG XL bitstream down to per-frame coefficient
// state (spec.md §1 Purpose/Scope), stopping short of pixel
// reconstruction.
type Decoder struct {
	limits Limits
}

// NewDecoder creates a Decoder using DefaultLimits.
func NewDecoder() *Decoder {
	return &Decoder{limits: DefaultLimits}
}

// NewDecoderWithLimits creates a Decoder using explicit limits.
func NewDecoderWithLimits(limits Limits) *Decoder {
	if limits.MaxBoxPayload == 0 {
		limits.MaxBoxPayload = DefaultLimits.MaxBoxPayload
	}
	if limits.MaxFrames == 0 {
		limits.MaxFrames = DefaultLimits.MaxFrames
	}
	return &Decoder{limits: limits}
}

// Result is everything Decode produces: the detected bitstream kind,
// any auxiliary (non-codestream) container boxes, and the decoded
// frame sequence.
type Result struct {
	Kind     container.BitstreamKind
	AuxBoxes []container.AuxBox
	Frames   []*frame.Frame
}

// Decode demultiplexes data (bare codestream or ISO-BMFF-style
// container, spec.md §3/§4.1), then decodes every frame's sections in
// canonical order (spec.md §4.2-§4.7) until a frame declares is_last.
func (d *Decoder) Decode(data []byte) (*Result, error) {
	demux := container.NewDemuxWithLimits(d.limits.MaxBoxPayload)
	if err := demux.FeedBytes(data); err != nil {
		return nil, jxlerr.Wrap(err, "jxl: demux")
	}
	demux.Finish()
	if demux.Kind() == container.KindInvalid {
		return nil, jxlerr.ErrInvalidSignature
	}

	codestream := demux.TakeBytes()
	// The bare-codestream signature (0xFF 0x0A) is part of the codestream
	// byte vector itself (spec.md §3's signature detection advances past
	// the container signature but not the bare one); a real file header
	// would consume it along with image metadata before the first frame
	// header, but that file header is explicitly external to this core
	// (spec.md §2's data flow: "bit reader -> file header (external) ->
	// loop { frame header ... }"), so Decode skips just those two bytes
	// itself rather than modeling a file header it does not implement.
	if demux.Kind() == container.KindBareCodestream && len(codestream) >= 2 {
		codestream = codestream[2:]
	}
	br := bitio.NewReader(codestream)

	state := &frame.DecoderState{}
	result := &Result{Kind: demux.Kind(), AuxBoxes: demux.AuxBoxes()}

	for i := 0; ; i++ {
		if i >= d.limits.MaxFrames {
			return nil, jxlerr.Wrapf(jxlerr.ErrOutOfBounds, "jxl: exceeded MaxFrames (%d)", d.limits.MaxFrames)
		}

		f, err := frame.NewFrame(br, state)
		if err != nil {
			return nil, jxlerr.Wrapf(err, "jxl: frame %d", i)
		}

		body, err := br.ReadBytes(f.Toc.TotalBytes())
		if err != nil {
			return nil, jxlerr.Wrapf(err, "jxl: frame %d body", i)
		}
		sections, err := frame.Sections(body, f.Toc)
		if err != nil {
			return nil, jxlerr.Wrapf(err, "jxl: frame %d sections", i)
		}

		if err := f.Run(sections); err != nil {
			return nil, jxlerr.Wrapf(err, "jxl: frame %d decode", i)
		}
		result.Frames = append(result.Frames, f)

		next, err := f.Finalize()
		if err != nil {
			return nil, jxlerr.Wrapf(err, "jxl: frame %d finalize", i)
		}
		if next == nil {
			break
		}
		state = next
	}

	return result, nil
}
