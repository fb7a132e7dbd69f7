package benchutil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

// Compression codes understood by the decoder.
const (
	CompressionNone uint16 = 0
	CompressionZlib uint16 = 1
	CompressionLZ4  uint16 = 2
)

// Change form length widths, as stored in the top bits of the type byte.
const (
	Width8  uint8 = 0x00
	Width16 uint8 = 0x40
	Width32 uint8 = 0x80
)

// Record is a global data record with a pre-encoded payload.
type Record struct {
	Type    uint32
	Payload []byte
}

// ChangeForm is a change form to be encoded. With Compress set the payload
// is stored zlib-compressed and Length2 carries len(Data).
type ChangeForm struct {
	RefID    [3]byte
	Flags    uint32
	FormType uint8
	Version  uint8
	Width    uint8
	Data     []byte
	Compress bool
}

// Save describes a synthetic save container.
type Save struct {
	Version     uint32
	SaveNumber  uint32
	PlayerName  string
	PlayerLevel uint32
	Location    string
	GameDate    string
	RaceID      string
	Sex         uint16
	CurExp      float32
	LvlUpExp    float32
	FileTime    uint64
	ShotWidth   uint32
	ShotHeight  uint32
	Compression uint16

	FormVersion  uint8
	Plugins      []string
	LightPlugins []string

	Table1      []Record
	Table2      []Record
	ChangeForms []ChangeForm
	// Table3 is written with a stored count of len(Table3)-1.
	Table3 []Record

	FormIDs        []uint32
	Worldspaces    []uint32
	UnknownStrings []string

	// OffsetBase is added to every location table offset.
	OffsetBase uint32
	// SkewChangeForms shifts the declared change forms offset.
	SkewChangeForms int32
	// CompressedLenDelta is added to the stored compressed length.
	CompressedLenDelta int32
}

// Minimal returns the smallest valid save: no plugins, empty tables and
// a single terminal record in table 3.
func Minimal() *Save {
	return &Save{
		Version:     12,
		PlayerName:  "Prisoner",
		PlayerLevel: 1,
		Location:    "Helgen",
		GameDate:    "Morndas, 17th of Last Seed, 4E 201",
		RaceID:      "NordRace",
		FormVersion: 74,
		Table3:      []Record{{Type: 1005}},
	}
}

type buffer struct{ bytes.Buffer }

func (b *buffer) u8(v uint8)    { b.WriteByte(v) }
func (b *buffer) u16(v uint16)  { _ = binary.Write(b, binary.LittleEndian, v) }
func (b *buffer) u32(v uint32)  { _ = binary.Write(b, binary.LittleEndian, v) }
func (b *buffer) f32(v float32) { b.u32(math.Float32bits(v)) }

func (b *buffer) wstr(s string) {
	b.u16(uint16(len(s)))
	b.WriteString(s)
}

func (b *buffer) wstrs(s []string) {
	for _, v := range s {
		b.wstr(v)
	}
}

// Body encodes the decompressed body.
func (s *Save) Body() ([]byte, error) {
	var pre buffer
	pre.u8(s.FormVersion)
	pre.u32(0) // plugin info size, ignored by the decoder
	pre.u8(uint8(len(s.Plugins)))
	pre.wstrs(s.Plugins)
	pre.u16(uint16(len(s.LightPlugins)))
	pre.wstrs(s.LightPlugins)

	// The location table and reserved region are fixed size, so section
	// positions are known before the sections are written.
	var sections buffer
	base := pre.Len() + 40 + 60
	pos := func() uint32 { return s.OffsetBase + uint32(base+sections.Len()) }

	gdt1 := pos()
	writeRecords(&sections, s.Table1)
	gdt2 := pos()
	writeRecords(&sections, s.Table2)
	cf := pos()
	for _, f := range s.ChangeForms {
		if err := writeChangeForm(&sections, f); err != nil {
			return nil, err
		}
	}
	gdt3 := pos()
	writeRecords(&sections, s.Table3)
	formIDs := pos()
	sections.u32(uint32(len(s.FormIDs)))
	for _, v := range s.FormIDs {
		sections.u32(v)
	}
	sections.u32(uint32(len(s.Worldspaces)))
	for _, v := range s.Worldspaces {
		sections.u32(v)
	}
	unknown3 := pos()
	var strs buffer
	strs.wstrs(s.UnknownStrings)
	sections.u32(uint32(strs.Len()))
	sections.u32(uint32(len(s.UnknownStrings)))
	sections.Write(strs.Bytes())

	table3Count := uint32(0)
	if len(s.Table3) > 0 {
		table3Count = uint32(len(s.Table3) - 1)
	}
	var out buffer
	out.Write(pre.Bytes())
	for _, v := range []uint32{
		formIDs, unknown3, gdt1, gdt2, uint32(int64(cf) + int64(s.SkewChangeForms)), gdt3,
		uint32(len(s.Table1)), uint32(len(s.Table2)), table3Count, uint32(len(s.ChangeForms)),
	} {
		out.u32(v)
	}
	out.Write(make([]byte, 60))
	out.Write(sections.Bytes())
	return out.Bytes(), nil
}

func writeRecords(b *buffer, recs []Record) {
	for _, r := range recs {
		b.u32(r.Type)
		b.u32(uint32(len(r.Payload)))
		b.Write(r.Payload)
	}
}

func writeChangeForm(b *buffer, f ChangeForm) error {
	stored := f.Data
	var length2 uint32
	if f.Compress {
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		if _, err := zw.Write(f.Data); err != nil {
			return fmt.Errorf("compress change form: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compress change form: %w", err)
		}
		stored = z.Bytes()
		length2 = uint32(len(f.Data))
	}

	b.Write(f.RefID[:])
	b.u32(f.Flags)
	b.u8(f.Width | f.FormType&0x3F)
	b.u8(f.Version)
	for _, n := range []uint32{uint32(len(stored)), length2} {
		switch f.Width {
		case Width8:
			if n > math.MaxUint8 {
				return fmt.Errorf("length %d does not fit a u8 length field", n)
			}
			b.u8(uint8(n))
		case Width16:
			if n > math.MaxUint16 {
				return fmt.Errorf("length %d does not fit a u16 length field", n)
			}
			b.u16(uint16(n))
		default:
			b.u32(n)
		}
	}
	b.Write(stored)
	return nil
}

// ErrIncompressible is returned when LZ4 cannot shrink the body.
var ErrIncompressible = errors.New("body is not lz4 compressible")

// Bytes encodes the full container.
func (s *Save) Bytes() ([]byte, error) {
	body, err := s.Body()
	if err != nil {
		return nil, err
	}

	stored := body
	if s.Compression == CompressionLZ4 {
		dst := make([]byte, lz4.CompressBlockBound(len(body)))
		n, err := lz4.CompressBlock(body, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 {
			return nil, ErrIncompressible
		}
		stored = dst[:n]
	}

	var hdr buffer
	hdr.u32(s.Version)
	hdr.u32(s.SaveNumber)
	hdr.wstr(s.PlayerName)
	hdr.u32(s.PlayerLevel)
	hdr.wstr(s.Location)
	hdr.wstr(s.GameDate)
	hdr.wstr(s.RaceID)
	hdr.u16(s.Sex)
	hdr.f32(s.CurExp)
	hdr.f32(s.LvlUpExp)
	hdr.u32(uint32(s.FileTime))
	hdr.u32(uint32(s.FileTime >> 32))
	hdr.u32(s.ShotWidth)
	hdr.u32(s.ShotHeight)
	hdr.u16(s.Compression)

	var out buffer
	out.WriteString("TESV_SAVEGAME")
	out.u32(uint32(hdr.Len()))
	out.Write(hdr.Bytes())
	out.Write(make([]byte, 4*int(s.ShotWidth)*int(s.ShotHeight)))
	out.u32(uint32(len(body)))
	out.u32(uint32(int64(len(stored)) + int64(s.CompressedLenDelta)))
	out.Write(stored)
	return out.Bytes(), nil
}

// MustBytes is Bytes for fixtures that are known to encode.
func (s *Save) MustBytes() []byte {
	b, err := s.Bytes()
	if err != nil {
		panic(err)
	}
	return b
}
