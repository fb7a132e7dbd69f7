package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/eunmann/tesv-save/internal/logctx"
	"github.com/eunmann/tesv-save/pkg/changeform"
	"github.com/eunmann/tesv-save/pkg/formindex"
	"github.com/eunmann/tesv-save/pkg/savefile"
	"github.com/eunmann/tesv-save/pkg/wire"
)

var errRefNotFound = errors.New("no change form for reference")

func runLookup(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	refFlag := fs.String("ref", "", "reference to find, KIND:VALUE (kinds: index, authoritative, created, unrecognized)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *refFlag == "" {
		return errors.New("--ref is required")
	}
	ref, err := wire.ParseRef(*refFlag)
	if err != nil {
		return fmt.Errorf("invalid --ref: %w", err)
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one save is required")
	}

	ctx, r, err := common.setup(ctx)
	if err != nil {
		return err
	}

	return r.decodeEach(ctx, "lookup", fs.Args(), func(ctx context.Context, _ int, sf *savefile.SaveFile) error {
		idx, err := formindex.Build(sf.ChangeForms)
		if err != nil {
			return err
		}
		if idx.Duplicates() > 0 {
			log := logctx.FromContext(ctx)
			log.Debug().Int("duplicates", idx.Duplicates()).Msg("duplicate change form references")
		}
		pos, ok := idx.Lookup(ref)
		if !ok {
			return fmt.Errorf("%w: %s", errRefNotFound, ref)
		}
		writeChangeForm(stdout, sf, pos, &sf.ChangeForms[pos])
		return nil
	})
}

func writeChangeForm(w io.Writer, sf *savefile.SaveFile, pos int, f *changeform.ChangeForm) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ref\t%s\n", f.Ref)
	if id, ok := sf.ResolveFormID(f.Ref); ok {
		fmt.Fprintf(tw, "form id\t0x%08X\n", id)
	}
	fmt.Fprintf(tw, "position\t%d\n", pos)
	fmt.Fprintf(tw, "form type\t%d\n", f.FormType())
	fmt.Fprintf(tw, "change flags\t0x%08X\n", f.ChangeFlags)
	fmt.Fprintf(tw, "version\t%d\n", f.Version)
	fmt.Fprintf(tw, "length width\t%s\n", f.LengthWidth)
	fmt.Fprintf(tw, "stored bytes\t%d\n", f.Length1)
	fmt.Fprintf(tw, "compressed\t%v\n", f.Compressed())
	fmt.Fprintf(tw, "payload bytes\t%d\n", len(f.Data))
	tw.Flush()
}
