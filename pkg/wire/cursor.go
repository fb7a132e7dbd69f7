// Package wire provides the primitive readers for the save container:
// a bounds-checked byte cursor, the variable-width integer codec and the
// packed reference-ID resolver.
//
// Every read checks that the requested bytes are inside the cursor's
// buffer. Sub-cursors are bounded views over a parent span, so a record
// decoder can never read into the next record.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// InvalidText replaces a length-prefixed string that is not valid UTF-8.
const InvalidText = "<invalid utf-8>"

// Cursor reads little-endian values from an immutable buffer.
type Cursor struct {
	buf  []byte
	pos  int
	base int
	diag *Diagnostics
}

// NewCursor returns a cursor at the start of buf. If diag is nil a fresh
// collector is created.
func NewCursor(buf []byte, diag *Diagnostics) *Cursor {
	if diag == nil {
		diag = NewDiagnostics()
	}
	return &Cursor{buf: buf, diag: diag}
}

// Diagnostics returns the warning collector shared by this cursor and its
// sub-cursors.
func (c *Cursor) Diagnostics() *Diagnostics {
	return c.diag
}

// Offset returns the absolute read position within the root buffer.
func (c *Cursor) Offset() int {
	return c.base + c.pos
}

// Pos returns the read position relative to this cursor's span.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the span length.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Remaining returns the number of unread bytes in the span.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Warn records a warning at the current offset.
func (c *Cursor) Warn(kind WarningKind, format string, args ...any) {
	c.diag.Warn(c.Offset(), kind, format, args...)
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || n > len(c.buf)-c.pos {
		return nil, NewDecodeError(ErrOutOfBounds, c.Offset(),
			fmt.Sprintf("%d bytes", n), fmt.Sprintf("%d bytes", len(c.buf)-c.pos))
	}
	b := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b, nil
}

// Sub returns a cursor bounded to the next n bytes and advances past them.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	b, err := c.take(n)
	if err != nil {
		return nil, err
	}
	return &Cursor{buf: b, base: c.Offset() - n, diag: c.diag}, nil
}

// U8 reads one byte.
func (c *Cursor) U8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a little-endian uint16.
func (c *Cursor) U16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 reads a little-endian uint32.
func (c *Cursor) U32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// I32 reads a little-endian two's-complement int32.
func (c *Cursor) I32() (int32, error) {
	v, err := c.U32()
	return int32(v), err
}

// F32 reads a little-endian IEEE 754 float.
func (c *Cursor) F32() (F32, error) {
	v, err := c.U32()
	return F32(math.Float32frombits(v)), err
}

// Bytes returns a copy of the next n bytes.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	b, err := c.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Skip advances past n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.take(n)
	return err
}

// String returns the next n bytes as a string without validation.
func (c *Cursor) String(n int) (string, error) {
	b, err := c.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WString reads a u16 length followed by that many bytes of UTF-8 text.
// Invalid text is replaced with InvalidText and recorded as a warning.
func (c *Cursor) WString() (string, error) {
	n, err := c.U16()
	if err != nil {
		return "", err
	}
	off := c.Offset()
	b, err := c.take(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		c.diag.Warn(off, WarnInvalidText, "%d byte string is not valid UTF-8", n)
		return InvalidText, nil
	}
	return string(b), nil
}

// Rest returns a copy of every unread byte and moves to the end of the span.
func (c *Cursor) Rest() []byte {
	out, _ := c.Bytes(c.Remaining())
	return out
}

// OptionalRest returns the unread bytes as a present value, or an absent
// value when the span is already consumed.
func (c *Cursor) OptionalRest() Optional[[]byte] {
	if c.Remaining() == 0 {
		return Optional[[]byte]{}
	}
	return Some(c.Rest())
}

// Bool8 reads a byte holding a boolean. Values above 1 are kept as-is and
// recorded as unrecognized.
func (c *Cursor) Bool8(field string) (Bool8, error) {
	off := c.Offset()
	v, err := c.U8()
	if err != nil {
		return 0, err
	}
	b := Bool8(v)
	if !b.Recognized() {
		c.diag.Warn(off, WarnUnrecognizedValue, "%s: boolean byte %d", field, v)
	}
	return b, nil
}

// CapHint returns the capacity to preallocate for n elements that each
// take at least minSize bytes, given remaining unread bytes. A corrupt
// count therefore cannot allocate more elements than the span could hold.
func CapHint(n uint32, remaining, minSize int) int {
	if remaining <= 0 {
		return 0
	}
	return int(min(uint64(n), uint64(remaining/max(minSize, 1))))
}

// ReadN calls fn n times and collects the results. minSize is the smallest
// encoded size of one element and bounds the initial allocation.
func ReadN[T any](c *Cursor, n uint32, minSize int, fn func(*Cursor) (T, error)) ([]T, error) {
	out := make([]T, 0, CapHint(n, c.Remaining(), minSize))
	for i := uint32(0); i < n; i++ {
		v, err := fn(c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// U32s reads n little-endian u32 values.
func (c *Cursor) U32s(n uint32) ([]uint32, error) {
	return ReadN(c, n, 4, (*Cursor).U32)
}

// WStrings reads n length-prefixed strings.
func (c *Cursor) WStrings(n uint32) ([]string, error) {
	return ReadN(c, n, 2, (*Cursor).WString)
}

// Refs reads n packed reference IDs and resolves them.
func (c *Cursor) Refs(n uint32) ([]Ref, error) {
	return ReadN(c, n, 3, (*Cursor).Ref)
}
