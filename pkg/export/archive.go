package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/eunmann/tesv-save/pkg/changeform"
	"github.com/eunmann/tesv-save/pkg/wire"
)

// Payload archive format:
//
// Header (32 bytes):
//   Magic:            4 bytes  (0x41505354 = "TSPA")
//   Version:          4 bytes  (1)
//   Flags:            4 bytes  (bit 0: compressed, bits 1-3: compression type)
//   Count:            8 bytes  (number of payload records)
//   UncompressedSize: 8 bytes  (total size of the record stream)
//   Reserved:         4 bytes
//
// Body: zstd stream of records
//   RefKind:  1 byte
//   RefValue: 4 bytes
//   FormType: 1 byte
//   Length:   4 bytes
//   Data:     Length bytes

const (
	archiveMagic   = 0x41505354
	archiveVersion = 1
	archiveHeader  = 32

	compressionTypeZstd = 1
	flagCompressed      = 1 << 0

	recordHeader = 1 + 4 + 1 + 4
)

// Payload is one change form payload read back from an archive.
type Payload struct {
	Ref      wire.Ref
	FormType uint8
	Data     []byte
}

// WritePayloadArchive writes the uncompressed payload of every form to w.
func WritePayloadArchive(w io.Writer, forms []changeform.ChangeForm) error {
	var size uint64
	for i := range forms {
		size += recordHeader + uint64(len(forms[i].Data))
	}

	header := make([]byte, archiveHeader)
	binary.LittleEndian.PutUint32(header[0:4], archiveMagic)
	binary.LittleEndian.PutUint32(header[4:8], archiveVersion)
	binary.LittleEndian.PutUint32(header[8:12], flagCompressed|compressionTypeZstd<<1)
	binary.LittleEndian.PutUint64(header[12:20], uint64(len(forms)))
	binary.LittleEndian.PutUint64(header[20:28], size)
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write archive header: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	bw := bufio.NewWriterSize(enc, 1<<20)

	var rec [recordHeader]byte
	for i := range forms {
		f := &forms[i]
		rec[0] = uint8(f.Ref.Kind)
		binary.LittleEndian.PutUint32(rec[1:5], f.Ref.Value)
		rec[5] = f.FormType()
		binary.LittleEndian.PutUint32(rec[6:10], uint32(len(f.Data)))
		if _, err := bw.Write(rec[:]); err != nil {
			enc.Close()
			return fmt.Errorf("write record: %w", err)
		}
		if _, err := bw.Write(f.Data); err != nil {
			enc.Close()
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("flush archive: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close zstd encoder: %w", err)
	}
	return nil
}

// ReadPayloadArchive reads every record of an archive written by
// WritePayloadArchive.
func ReadPayloadArchive(r io.Reader) ([]Payload, error) {
	header := make([]byte, archiveHeader)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read archive header: %w", err)
	}
	if binary.LittleEndian.Uint32(header[0:4]) != archiveMagic {
		return nil, ErrArchiveMagic
	}
	if v := binary.LittleEndian.Uint32(header[4:8]); v != archiveVersion {
		return nil, fmt.Errorf("%w: %d", ErrArchiveVersion, v)
	}
	count := binary.LittleEndian.Uint64(header[12:20])
	size := binary.LittleEndian.Uint64(header[20:28])

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()
	br := bufio.NewReaderSize(dec, 1<<20)

	// count comes from the file; cap the preallocation by the stream size.
	capHint := count
	if maxRecs := size / recordHeader; capHint > maxRecs {
		capHint = maxRecs
	}
	out := make([]Payload, 0, capHint)

	var rec [recordHeader]byte
	var read uint64
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(br, rec[:]); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrArchiveCorrupt, i, err)
		}
		n := binary.LittleEndian.Uint32(rec[6:10])
		read += recordHeader + uint64(n)
		if read > size {
			return nil, fmt.Errorf("%w: record %d exceeds declared size", ErrArchiveCorrupt, i)
		}
		data := make([]byte, n)
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrArchiveCorrupt, i, err)
		}
		out = append(out, Payload{
			Ref:      wire.Ref{Kind: wire.RefKind(rec[0]), Value: binary.LittleEndian.Uint32(rec[1:5])},
			FormType: rec[5],
			Data:     data,
		})
	}
	if read != size {
		return nil, fmt.Errorf("%w: records cover %d of %d bytes", ErrArchiveCorrupt, read, size)
	}
	return out, nil
}
