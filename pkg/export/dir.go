package export

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/eunmann/tesv-save/pkg/fileutil"
	"github.com/eunmann/tesv-save/pkg/savefile"
)

// Output file names written by Dir.
const (
	ChangeFormsFile = "changeforms.parquet"
	GlobalDataFile  = "globaldata.parquet"
	PayloadsFile    = "payloads.zst"
)

// Dir writes every export file for sf into outDir. Each file is written to
// a temporary name and renamed into place.
func Dir(outDir string, sf *savefile.SaveFile) ([]string, error) {
	files := []struct {
		name  string
		write func(w io.Writer) error
	}{
		{ChangeFormsFile, func(w io.Writer) error { return WriteChangeForms(w, sf.ChangeForms) }},
		{GlobalDataFile, func(w io.Writer) error { return WriteGlobalData(w, sf.Records()) }},
		{PayloadsFile, func(w io.Writer) error { return WritePayloadArchive(w, sf.ChangeForms) }},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(outDir, f.name)
		if err := fileutil.WriteAtomic(path, f.write); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
