package wire

import "fmt"

// Varint widths. The two low bits of the first byte select the width and
// the value is the little-endian composite shifted right by two.
const (
	varIntTag1 = 0
	varIntTag2 = 1
	varIntTag3 = 2

	maxVarInt1 = 1<<6 - 1
	maxVarInt2 = 1<<14 - 1
	maxVarInt3 = 1<<22 - 1
)

// VarInt is a decoded variable-width unsigned integer together with the
// number of bytes it occupied.
type VarInt struct {
	Value uint32
	Width uint8
}

// VarInt reads a 1, 2 or 3 byte varint. A width tag of 3 is invalid: the
// result is zero (one byte consumed) and a warning is recorded.
func (c *Cursor) VarInt() (VarInt, error) {
	off := c.Offset()
	b0, err := c.U8()
	if err != nil {
		return VarInt{}, err
	}

	switch b0 & 0x03 {
	case varIntTag1:
		return VarInt{Value: uint32(b0) >> 2, Width: 1}, nil
	case varIntTag2:
		b1, err := c.U8()
		if err != nil {
			return VarInt{}, err
		}
		return VarInt{Value: (uint32(b1)<<8 | uint32(b0)) >> 2, Width: 2}, nil
	case varIntTag3:
		b, err := c.take(2)
		if err != nil {
			return VarInt{}, err
		}
		v := uint32(b[1])<<16 | uint32(b[0])<<8 | uint32(b0)
		return VarInt{Value: v >> 2, Width: 3}, nil
	default:
		c.diag.Warn(off, WarnInvalidVarInt, "leading byte %#02x has width tag 3, using 0", b0)
		return VarInt{Width: 1}, nil
	}
}

// Count reads a varint used as an element count.
func (c *Cursor) Count() (uint32, error) {
	v, err := c.VarInt()
	return v.Value, err
}

// Encode writes v back in its own width.
func (v VarInt) Encode() ([]byte, error) {
	switch v.Width {
	case 1:
		if v.Value > maxVarInt1 {
			return nil, fmt.Errorf("%w: %d in 1 byte", ErrVarIntRange, v.Value)
		}
		return []byte{byte(v.Value << 2)}, nil
	case 2:
		if v.Value > maxVarInt2 {
			return nil, fmt.Errorf("%w: %d in 2 bytes", ErrVarIntRange, v.Value)
		}
		x := v.Value<<2 | varIntTag2
		return []byte{byte(x), byte(x >> 8)}, nil
	case 3:
		if v.Value > maxVarInt3 {
			return nil, fmt.Errorf("%w: %d in 3 bytes", ErrVarIntRange, v.Value)
		}
		x := v.Value<<2 | varIntTag3
		return []byte{byte(x), byte(x >> 8), byte(x >> 16)}, nil
	default:
		return nil, fmt.Errorf("%w: width %d", ErrVarIntRange, v.Width)
	}
}

// EncodeVarInt encodes value in the smallest width that holds it.
func EncodeVarInt(value uint32) ([]byte, error) {
	switch {
	case value <= maxVarInt1:
		return VarInt{Value: value, Width: 1}.Encode()
	case value <= maxVarInt2:
		return VarInt{Value: value, Width: 2}.Encode()
	default:
		return VarInt{Value: value, Width: 3}.Encode()
	}
}
