// Package export writes a decoded save to analysis-friendly files: parquet
// tables for change forms and global data, and a zstd archive of change
// form payloads.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/eunmann/tesv-save/pkg/changeform"
	"github.com/eunmann/tesv-save/pkg/globaldata"
)

// ChangeFormRow is one change form in changeforms.parquet.
type ChangeFormRow struct {
	Position    int64  `parquet:"position"`
	RefKind     string `parquet:"ref_kind"`
	RefValue    uint32 `parquet:"ref_value"`
	ChangeFlags uint32 `parquet:"change_flags"`
	FormType    int32  `parquet:"form_type"`
	Version     int32  `parquet:"version"`
	LengthWidth string `parquet:"length_width"`
	Length1     uint32 `parquet:"length1"`
	Length2     uint32 `parquet:"length2"`
	Compressed  bool   `parquet:"compressed"`
	DataSize    int64  `parquet:"data_size"`
}

// GlobalDataRow is one global data record in globaldata.parquet. Record
// holds the decoded fields as JSON.
type GlobalDataRow struct {
	Table    int32  `parquet:"table"`
	Position int32  `parquet:"position"`
	Type     uint32 `parquet:"type"`
	TypeName string `parquet:"type_name"`
	Record   string `parquet:"record"`
}

// ChangeFormRows converts forms to table rows in decode order.
func ChangeFormRows(forms []changeform.ChangeForm) []ChangeFormRow {
	rows := make([]ChangeFormRow, len(forms))
	for i := range forms {
		f := &forms[i]
		rows[i] = ChangeFormRow{
			Position:    int64(i),
			RefKind:     f.Ref.Kind.String(),
			RefValue:    f.Ref.Value,
			ChangeFlags: f.ChangeFlags,
			FormType:    int32(f.FormType()),
			Version:     int32(f.Version),
			LengthWidth: f.LengthWidth.String(),
			Length1:     f.Length1,
			Length2:     f.Length2,
			Compressed:  f.Compressed(),
			DataSize:    int64(len(f.Data)),
		}
	}
	return rows
}

// GlobalDataRows converts the global data tables to rows. Table numbers
// start at 1.
func GlobalDataRows(tables [][]globaldata.Record) ([]GlobalDataRow, error) {
	var rows []GlobalDataRow
	for t, recs := range tables {
		for i, rec := range recs {
			js, err := json.Marshal(rec)
			if err != nil {
				return nil, fmt.Errorf("encode %s record: %w", rec.Type(), err)
			}
			rows = append(rows, GlobalDataRow{
				Table:    int32(t + 1),
				Position: int32(i),
				Type:     uint32(rec.Type()),
				TypeName: rec.Type().String(),
				Record:   string(js),
			})
		}
	}
	return rows, nil
}

// WriteChangeForms writes forms as a parquet file to w.
func WriteChangeForms(w io.Writer, forms []changeform.ChangeForm) error {
	return writeRows(w, ChangeFormRows(forms))
}

// WriteGlobalData writes the global data tables as a parquet file to w.
func WriteGlobalData(w io.Writer, tables [][]globaldata.Record) error {
	rows, err := GlobalDataRows(tables)
	if err != nil {
		return err
	}
	return writeRows(w, rows)
}

func writeRows[T any](w io.Writer, rows []T) error {
	pw := parquet.NewGenericWriter[T](w)
	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			pw.Close()
			return fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
