package savefile

import (
	"fmt"
	"math"

	"github.com/eunmann/tesv-save/pkg/wire"
)

// ReservedAfterLocationTable is the unused region between the location
// table and the first global data table.
const ReservedAfterLocationTable = 60

// LocationTable describes the layout of the body. Offsets are absolute in
// the original file, so only their relative spacing is comparable with
// positions in the decompressed body.
type LocationTable struct {
	FormIDArrayCountOffset uint32 `json:"form_id_array_count_offset"`
	UnknownTable3Offset    uint32 `json:"unknown_table_3_offset"`
	GlobalDataTable1Offset uint32 `json:"global_data_table_1_offset"`
	GlobalDataTable2Offset uint32 `json:"global_data_table_2_offset"`
	ChangeFormsOffset      uint32 `json:"change_forms_offset"`
	GlobalDataTable3Offset uint32 `json:"global_data_table_3_offset"`
	GlobalDataTable1Count  uint32 `json:"global_data_table_1_count"`
	GlobalDataTable2Count  uint32 `json:"global_data_table_2_count"`
	// GlobalDataTable3Count is stored one lower than the real record count.
	GlobalDataTable3Count uint32 `json:"global_data_table_3_count"`
	ChangeFormCount       uint32 `json:"change_form_count"`
}

// GlobalData3Records is the number of records actually present in table 3.
// It is computed in 64 bits; a decoded table always yields a value that
// fits in a uint32.
func (lt *LocationTable) GlobalData3Records() uint64 {
	return uint64(lt.GlobalDataTable3Count) + 1
}

func readLocationTable(c *wire.Cursor) (LocationTable, error) {
	off := c.Offset()
	v, err := c.U32s(10)
	if err != nil {
		return LocationTable{}, err
	}
	if v[8] == math.MaxUint32 {
		return LocationTable{}, wire.NewDecodeError(wire.ErrCountOverflow, off+8*4,
			"global data table 3 count below 0xFFFFFFFF", fmt.Sprintf("%#x", v[8]))
	}
	return LocationTable{
		FormIDArrayCountOffset: v[0],
		UnknownTable3Offset:    v[1],
		GlobalDataTable1Offset: v[2],
		GlobalDataTable2Offset: v[3],
		ChangeFormsOffset:      v[4],
		GlobalDataTable3Offset: v[5],
		GlobalDataTable1Count:  v[6],
		GlobalDataTable2Count:  v[7],
		GlobalDataTable3Count:  v[8],
		ChangeFormCount:        v[9],
	}, nil
}

// SectionOffsets are body positions the assembler observed while decoding.
type SectionOffsets struct {
	GlobalDataTable1 int
	GlobalDataTable2 int
	ChangeForms      int
	GlobalDataTable3 int
	FormIDArrayCount int
	UnknownTable3    int
}

// LocationMismatch is one section whose position disagrees with the table.
// Observed is translated into the table's coordinates.
type LocationMismatch struct {
	Section    string
	Declared   int64
	Observed   int64
	BodyOffset int
}

func (m LocationMismatch) String() string {
	return fmt.Sprintf("%s: table says %d, decoded at %d", m.Section, m.Declared, m.Observed)
}

// Check compares the table against observed positions. Global data table 1
// anchors both coordinate systems; every other section must sit at the same
// distance from it in both. The result is nil when everything agrees.
func (lt *LocationTable) Check(obs SectionOffsets) []LocationMismatch {
	anchor := int64(lt.GlobalDataTable1Offset) - int64(obs.GlobalDataTable1)
	sections := []struct {
		name     string
		declared uint32
		observed int
	}{
		{"global_data_table_2", lt.GlobalDataTable2Offset, obs.GlobalDataTable2},
		{"change_forms", lt.ChangeFormsOffset, obs.ChangeForms},
		{"global_data_table_3", lt.GlobalDataTable3Offset, obs.GlobalDataTable3},
		{"form_id_array_count", lt.FormIDArrayCountOffset, obs.FormIDArrayCount},
		{"unknown_table_3", lt.UnknownTable3Offset, obs.UnknownTable3},
	}

	var out []LocationMismatch
	for _, s := range sections {
		want := int64(s.observed) + anchor
		if int64(s.declared) != want {
			out = append(out, LocationMismatch{
				Section:    s.name,
				Declared:   int64(s.declared),
				Observed:   want,
				BodyOffset: s.observed,
			})
		}
	}
	return out
}
