// Package jxlerr defines the error taxonomy shared by the container,
// frame, and transform packages (spec.md §7).
package jxlerr

import "github.com/pkg/errors"

// Sentinel error kinds. Wrap these with errors.Wrap/Wrapf to attach
// positional context; callers should match with errors.Is.
var (
	// ErrOutOfBounds is returned when a bit or byte read runs past the end
	// of the available input.
	ErrOutOfBounds = errors.New("jxl: read out of bounds")

	// ErrNonZeroPadding is returned when required zero-padding bits were
	// observed set.
	ErrNonZeroPadding = errors.New("jxl: non-zero padding bits")

	// ErrInvalidSignature is returned when neither the bare-codestream nor
	// the container signature matches a fully-determined input prefix.
	ErrInvalidSignature = errors.New("jxl: invalid signature")

	// ErrInvalidBox is returned for any container box-sequencing
	// violation (duplicate jxlc, out-of-order jxlp index, jxlp after
	// jxlc, jxlp box declared smaller than 4 bytes, etc).
	ErrInvalidBox = errors.New("jxl: invalid box")

	// ErrUnimplemented marks a reserved bitstream branch this core does
	// not decode (e.g. custom quant matrices, VarDCT HF residuals).
	ErrUnimplemented = errors.New("jxl: unimplemented")
)

// Wrap attaches msg as context to err, returning nil if err is nil.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Wrapf attaches a formatted message as context to err.
func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}
