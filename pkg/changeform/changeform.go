// Package changeform decodes the change-form section of a save body: the
// per-form deltas the engine persists against the master files.
package changeform

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/zlib"

	"github.com/eunmann/tesv-save/pkg/wire"
)

// LengthWidth is the encoded width of a change form's two length fields,
// selected by the top two bits of the type byte.
type LengthWidth uint8

const (
	Width8  LengthWidth = 0x00
	Width16 LengthWidth = 0x40
	Width32 LengthWidth = 0x80
)

// Bytes returns the size of one length field.
func (w LengthWidth) Bytes() int {
	switch w {
	case Width8:
		return 1
	case Width16:
		return 2
	case Width32:
		return 4
	}
	return 0
}

func (w LengthWidth) String() string {
	if n := w.Bytes(); n > 0 {
		return "u" + strconv.Itoa(n*8)
	}
	return "invalid(" + strconv.Itoa(int(w)) + ")"
}

// ChangeForm is one decoded change form. Data is always the uncompressed
// payload; Length1 and Length2 keep the stored values.
type ChangeForm struct {
	ID          wire.RefID  `json:"-"`
	Ref         wire.Ref    `json:"ref"`
	ChangeFlags uint32      `json:"change_flags"`
	TypeByte    uint8       `json:"type_byte"`
	Version     uint8       `json:"version"`
	LengthWidth LengthWidth `json:"length_width"`
	Length1     uint32      `json:"length1"`
	// Length2 is the inflated size, or 0 when the payload is stored raw.
	Length2 uint32 `json:"length2"`
	Data    []byte `json:"-"`
}

// FormType returns the form type held in the low six bits of the type byte.
func (f *ChangeForm) FormType() uint8 {
	return f.TypeByte & 0x3F
}

// Compressed reports whether the payload was stored zlib-compressed.
func (f *ChangeForm) Compressed() bool {
	return f.Length2 != 0
}

// MinEncodedSize is the size of a change form with one-byte lengths and an
// empty payload: ref, flags, type, version and both lengths.
const MinEncodedSize = 11

// ReadAll decodes count consecutive change forms.
func ReadAll(c *wire.Cursor, count uint32) ([]ChangeForm, error) {
	return wire.ReadN(c, count, MinEncodedSize, Read)
}

// Read decodes a single change form at the cursor.
func Read(c *wire.Cursor) (ChangeForm, error) {
	var f ChangeForm
	var err error

	if f.ID, err = c.RefID(); err != nil {
		return f, err
	}
	f.Ref = f.ID.Resolve()
	if f.ChangeFlags, err = c.U32(); err != nil {
		return f, err
	}
	typeOff := c.Offset()
	if f.TypeByte, err = c.U8(); err != nil {
		return f, err
	}
	if f.Version, err = c.U8(); err != nil {
		return f, err
	}

	f.LengthWidth = LengthWidth(f.TypeByte & 0xC0)
	if f.LengthWidth.Bytes() == 0 {
		return f, wire.NewDecodeError(wire.ErrInvalidLengthWidth, typeOff,
			"length bits 0x00, 0x40 or 0x80", fmt.Sprintf("%#02x", uint8(f.LengthWidth)))
	}
	if f.Length1, err = readLength(c, f.LengthWidth); err != nil {
		return f, err
	}
	if f.Length2, err = readLength(c, f.LengthWidth); err != nil {
		return f, err
	}

	dataOff := c.Offset()
	stored, err := c.Bytes(int(f.Length1))
	if err != nil {
		return f, fmt.Errorf("change form %s payload: %w", f.Ref, err)
	}
	if !f.Compressed() {
		f.Data = stored
		return f, nil
	}
	if f.Data, err = inflate(stored, f.Length2, dataOff); err != nil {
		return f, fmt.Errorf("change form %s payload: %w", f.Ref, err)
	}
	return f, nil
}

func readLength(c *wire.Cursor, w LengthWidth) (uint32, error) {
	switch w {
	case Width8:
		v, err := c.U8()
		return uint32(v), err
	case Width16:
		v, err := c.U16()
		return uint32(v), err
	default:
		return c.U32()
	}
}

// inflate decompresses a zlib payload that must expand to exactly want
// bytes. The output is read through a limit one byte past want so a
// corrupt stream cannot grow without bound.
func inflate(src []byte, want uint32, offset int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, wire.NewDecodeError(wire.ErrDecompress, offset, "zlib stream", err.Error())
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, int64(want)+1))
	if err != nil {
		return nil, wire.NewDecodeError(wire.ErrDecompress, offset, "zlib stream", err.Error())
	}
	if len(out) != int(want) {
		found := strconv.Itoa(len(out)) + " bytes"
		if len(out) > int(want) {
			found = "more than " + strconv.Itoa(int(want)) + " bytes"
		}
		return nil, wire.NewDecodeError(wire.ErrSizeMismatch, offset, strconv.Itoa(int(want))+" bytes", found)
	}
	return out, nil
}

// Stats summarizes a set of change forms.
type Stats struct {
	Total             int    `json:"total"`
	Raw               int    `json:"raw"`
	Compressed        int    `json:"compressed"`
	StoredBytes       uint64 `json:"stored_bytes"`
	UncompressedBytes uint64 `json:"uncompressed_bytes"`
}

// Summarize counts raw and compressed forms and their payload sizes.
func Summarize(forms []ChangeForm) Stats {
	s := Stats{Total: len(forms)}
	for i := range forms {
		f := &forms[i]
		if f.Compressed() {
			s.Compressed++
		} else {
			s.Raw++
		}
		s.StoredBytes += uint64(f.Length1)
		s.UncompressedBytes += uint64(len(f.Data))
	}
	return s
}
