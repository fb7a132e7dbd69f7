package wire

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOutOfBounds indicates a read past the end of the buffer or span.
	ErrOutOfBounds = errors.New("read out of bounds")
	// ErrMagicMismatch indicates the container does not start with the save magic.
	ErrMagicMismatch = errors.New("magic mismatch")
	// ErrUnsupportedCompression indicates a body compression code that cannot be decoded.
	ErrUnsupportedCompression = errors.New("unsupported compression type")
	// ErrInvalidLengthWidth indicates a change form with an invalid length-width tag.
	ErrInvalidLengthWidth = errors.New("invalid change form length width")
	// ErrSizeMismatch indicates decompressed data of the wrong size.
	ErrSizeMismatch = errors.New("decompressed size mismatch")
	// ErrDecompress indicates a corrupt compressed stream.
	ErrDecompress = errors.New("decompression failed")
	// ErrBudgetExceeded indicates a declared size larger than the memory budget allows.
	ErrBudgetExceeded = errors.New("memory budget exceeded")
	// ErrVarIntRange indicates a value that does not fit the requested varint width.
	ErrVarIntRange = errors.New("value out of range for varint width")
	// ErrCountOverflow indicates a stored count whose real value does not fit in 32 bits.
	ErrCountOverflow = errors.New("count overflow")
)

// DecodeError is a format-fatal decode failure. Offset is absolute within
// the buffer the failing cursor was rooted on.
type DecodeError struct {
	Stage    string
	Offset   int
	Expected string
	Found    string
	Err      error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	if e.Stage != "" {
		b.WriteString(e.Stage)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%v at offset %d", e.Err, e.Offset)
	if e.Expected != "" || e.Found != "" {
		fmt.Fprintf(&b, " (expected %s, found %s)", e.Expected, e.Found)
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError builds a DecodeError for sentinel err at offset.
func NewDecodeError(err error, offset int, expected, found string) *DecodeError {
	return &DecodeError{Offset: offset, Expected: expected, Found: found, Err: err}
}

// WithStage stamps stage onto the DecodeError inside err if it has none yet.
// Errors that carry no DecodeError are wrapped with the stage name.
func WithStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		if de.Stage == "" {
			de.Stage = stage
		}
		return err
	}
	return fmt.Errorf("%s: %w", stage, err)
}
