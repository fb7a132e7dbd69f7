package benchutil

import "sort"

// MiscStatsPayload encodes a MiscStats record with every stat in the
// General category, ordered by name.
func MiscStatsPayload(stats map[string]uint32) []byte {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	var b buffer
	b.u32(uint32(len(names)))
	for _, name := range names {
		b.wstr(name)
		b.u8(0)
		b.u32(stats[name])
	}
	return b.Bytes()
}

// PlayerLocationPayload encodes a PlayerLocation record in Tamriel.
func PlayerLocationPayload(nextObjectID uint32, x, y int32) []byte {
	var b buffer
	b.u32(nextObjectID)
	b.Write([]byte{0x40, 0x00, 0x3C})
	b.u32(uint32(x))
	b.u32(uint32(y))
	b.Write([]byte{0x40, 0x00, 0x3C})
	b.f32(float32(x) * 4096)
	b.f32(float32(y) * 4096)
	b.f32(128)
	return b.Bytes()
}

// GlobalVariablesPayload encodes n global variables with table-index
// references and values 1..n.
func GlobalVariablesPayload(n int) []byte {
	var b buffer
	b.u8(uint8(n) << 2)
	for i := 0; i < n; i++ {
		b.Write([]byte{0x00, uint8(i + 1), 0x00})
		b.f32(float32(i + 1))
	}
	return b.Bytes()
}
