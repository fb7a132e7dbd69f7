package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/eunmann/tesv-save/pkg/changeform"
	"github.com/eunmann/tesv-save/pkg/humanfmt"
	"github.com/eunmann/tesv-save/pkg/savefile"
)

// inspectRecord is one line of `inspect --json` output.
type inspectRecord struct {
	Source  string             `json:"source"`
	Summary savefile.Summary   `json:"summary"`
	Save    *savefile.SaveFile `json:"save"`
}

func runInspect(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	asJSON := fs.Bool("json", false, "print the full decode as JSON, one object per line")

	if err := fs.Parse(args); err != nil {
		return err
	}
	sources := fs.Args()
	if len(sources) == 0 {
		return errors.New("at least one save is required")
	}

	ctx, r, err := common.setup(ctx)
	if err != nil {
		return err
	}

	// Rendered per save so output order matches argument order.
	outputs := make([][]byte, len(sources))
	err = r.decodeEach(ctx, "inspect", sources, func(_ context.Context, i int, sf *savefile.SaveFile) error {
		var buf bytes.Buffer
		if *asJSON {
			rec := inspectRecord{Source: sources[i], Summary: sf.Summary(), Save: sf}
			if err := json.NewEncoder(&buf).Encode(rec); err != nil {
				return fmt.Errorf("encode %s: %w", sources[i], err)
			}
		} else {
			writeSummary(&buf, sources[i], sf)
		}
		outputs[i] = buf.Bytes()
		return nil
	})
	if err != nil {
		return err
	}

	for _, out := range outputs {
		if _, err := stdout.Write(out); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(w io.Writer, source string, sf *savefile.SaveFile) {
	h := sf.Header
	s := sf.Summary()
	cf := s.ChangeForms

	fmt.Fprintln(w, source)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(k, format string, args ...any) {
		fmt.Fprintf(tw, "  %s\t"+format+"\n", append([]any{k}, args...)...)
	}
	row("player", "%s, level %d, %s at %s", h.PlayerName, h.PlayerLevel, h.PlayerRaceID, h.PlayerLocation)
	row("game date", "%s", h.GameDate)
	if t := h.FileTime.Time(); !t.IsZero() {
		row("saved", "%s (save #%d, version %d)", t.Format(time.RFC3339), h.SaveNumber, h.Version)
	} else {
		row("saved", "unknown (save #%d, version %d)", h.SaveNumber, h.Version)
	}
	row("screenshot", "%dx%d (%s)", h.ShotWidth, h.ShotHeight, humanfmt.Bytes(int64(s.ScreenshotBytes)))
	row("body", "%s, %s, %s stored", s.Compression, humanfmt.Bytes(int64(sf.UncompressedLen)),
		humanfmt.Ratio(int64(sf.CompressedLen), int64(sf.UncompressedLen)))
	row("form version", "%d", sf.FormVersion)
	row("plugins", "%d (+%d light)", s.Plugins, s.LightPlugins)
	row("global data", "%d / %d / %d records", s.GlobalData1, s.GlobalData2, s.GlobalData3)
	row("change forms", "%s", formatChangeForms(cf))
	row("form ids", "%d", s.FormIDs)
	row("worldspaces", "%d visited", s.VisitedWorldspaces)
	row("warnings", "%d", s.Warnings)
	tw.Flush()
}

func formatChangeForms(cf changeform.Stats) string {
	return fmt.Sprintf("%s (%s compressed, %s stored, %s inflated)",
		humanfmt.Count(int64(cf.Total)), humanfmt.Count(int64(cf.Compressed)),
		humanfmt.Bytes(int64(cf.StoredBytes)), humanfmt.Bytes(int64(cf.UncompressedBytes)))
}
