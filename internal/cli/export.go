package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/eunmann/tesv-save/internal/logctx"
	"github.com/eunmann/tesv-save/pkg/export"
	"github.com/eunmann/tesv-save/pkg/fileutil"
	"github.com/eunmann/tesv-save/pkg/logging"
	"github.com/eunmann/tesv-save/pkg/savefile"
)

func runExport(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	outDir := fs.String("out", "", "output directory for export files")
	force := fs.Bool("force", false, "replace files from a previous export")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outDir == "" {
		return errors.New("--out is required")
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one save is required")
	}
	source := fs.Arg(0)
	if !*force {
		if err := checkExportDir(*outDir); err != nil {
			return err
		}
	}

	ctx, r, err := common.setup(ctx)
	if err != nil {
		return err
	}

	var paths []string
	err = r.decodeEach(ctx, "export", []string{source}, func(ctx context.Context, _ int, sf *savefile.SaveFile) error {
		start := time.Now()
		written, err := export.Dir(*outDir, sf)
		if err != nil {
			if cleanErr := fileutil.CleanupTmpFiles(*outDir); cleanErr != nil {
				log := logctx.FromContext(ctx)
				log.Warn().Err(cleanErr).Msg("cleanup tmp files")
			}
			return err
		}
		paths = written
		log := logctx.FromContext(ctx)
		for _, p := range written {
			ev := logging.FileCreated(log, "export", time.Since(start)).Str("path", p)
			if info, statErr := os.Stat(p); statErr == nil {
				ev = ev.Bytes("bytes", info.Size())
			}
			ev.Log("export file written")
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Fprintln(stdout, p)
	}
	return nil
}

// checkExportDir refuses to overwrite a non-empty previous export.
func checkExportDir(outDir string) error {
	if !fileutil.Exists(outDir) {
		return nil
	}
	for _, name := range []string{export.ChangeFormsFile, export.GlobalDataFile, export.PayloadsFile} {
		if p := filepath.Join(outDir, name); fileutil.IsNonEmpty(p) {
			return fmt.Errorf("%s already exists (use --force to replace)", p)
		}
	}
	return nil
}
