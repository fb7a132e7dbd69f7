package savefile

import (
	"strconv"

	"github.com/pierrec/lz4/v4"

	"github.com/eunmann/tesv-save/pkg/wire"
)

// Compression is the body compression code stored in the header.
type Compression uint16

const (
	CompressionNone Compression = 0
	// CompressionZlib is the legacy codec. Its framing is undocumented and
	// it is rejected rather than guessed at.
	CompressionZlib Compression = 1
	CompressionLZ4  Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZlib:
		return "zlib"
	case CompressionLZ4:
		return "lz4"
	}
	return "Compression(" + strconv.Itoa(int(c)) + ")"
}

// Supported reports whether DecompressBody can handle c.
func (c Compression) Supported() bool {
	return c == CompressionNone || c == CompressionLZ4
}

// DecompressBody turns the bytes after the two length fields into the save
// body. CompressionNone returns src unchanged. CompressionLZ4 decodes one
// LZ4 block that must fill exactly uncompressedLen bytes. Every other code
// fails with wire.ErrUnsupportedCompression.
func DecompressBody(code Compression, src []byte, uncompressedLen uint32) ([]byte, error) {
	switch code {
	case CompressionNone:
		return src, nil
	case CompressionLZ4:
		dst := make([]byte, uncompressedLen)
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, wire.NewDecodeError(wire.ErrDecompress, 0, "lz4 block of "+strconv.FormatUint(uint64(uncompressedLen), 10)+" bytes", err.Error())
		}
		if n != len(dst) {
			return nil, wire.NewDecodeError(wire.ErrSizeMismatch, 0,
				strconv.Itoa(len(dst))+" bytes", strconv.Itoa(n)+" bytes")
		}
		return dst, nil
	default:
		return nil, wire.NewDecodeError(wire.ErrUnsupportedCompression, 0, "compression 0 or 2", code.String())
	}
}
