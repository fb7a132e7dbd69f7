package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/eunmann/tesv-save/internal/logctx"
	"github.com/eunmann/tesv-save/pkg/changeform"
	"github.com/eunmann/tesv-save/pkg/logging"
	"github.com/eunmann/tesv-save/pkg/membudget"
	"github.com/eunmann/tesv-save/pkg/memdiag"
	"github.com/eunmann/tesv-save/pkg/savefile"
	"github.com/eunmann/tesv-save/pkg/wire"
)

// runner decodes saves for one command invocation.
type runner struct {
	budget  *membudget.Budget
	loader  *loader
	tracker *memdiag.Tracker
	jobs    int
}

// saveFunc is called while the save's bytes are still loaded; decoded
// payloads may alias them.
type saveFunc func(ctx context.Context, i int, sf *savefile.SaveFile) error

// decodeEach loads and decodes every source with at most r.jobs in flight.
func (r *runner) decodeEach(ctx context.Context, phase string, sources []string, fn saveFunc) error {
	log := logctx.FromContext(ctx)
	pt := logging.NewProgressTracker(phase, int64(len(sources)), log)
	start := time.Now()
	r.tracker.SetPhase(phase)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.jobs, 1))
	for i, src := range sources {
		g.Go(func() error {
			sctx := logctx.WithSave(gctx, src, i)
			return r.decodeOne(sctx, phase, src, pt, func(sf *savefile.SaveFile) error {
				return fn(sctx, i, sf)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	completed, _, _ := pt.Progress()
	ev := logging.PhaseComplete(log, phase, time.Since(start)).
		Int64("saves", completed)
	if r.tracker.Enabled() {
		ev = ev.Bytes("peak_heap", int64(r.tracker.PeakHeap()))
	}
	ev.Log(phase + " complete")
	r.tracker.LogNow("done")
	return nil
}

func (r *runner) decodeOne(ctx context.Context, phase, src string, pt *logging.ProgressTracker, fn func(*savefile.SaveFile) error) error {
	log := logctx.FromContext(ctx)

	ls, err := r.loader.Load(ctx, src)
	if err != nil {
		return err
	}
	defer ls.Close()

	start := time.Now()
	sf, err := savefile.DecodeWithOptions(ls.Data, savefile.Options{Budget: r.budget})
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}
	elapsed := time.Since(start)
	pt.RecordCompletion(elapsed)
	r.tracker.Sample()

	logWarnings(log, sf.Warnings)
	stats := changeform.Summarize(sf.ChangeForms)
	logging.SaveDecoded(log, phase, elapsed).
		Bytes("file_bytes", int64(len(ls.Data))).
		Bytes("body_bytes", int64(sf.UncompressedLen)).
		Count("change_forms", int64(stats.Total)).
		Int("warnings", len(sf.Warnings)).
		Throughput(int64(sf.UncompressedLen)).
		ProgressFromTracker(pt).
		Log("save decoded")

	return fn(sf)
}

func logWarnings(log zerolog.Logger, warnings []wire.Warning) {
	for _, w := range warnings {
		log.Warn().
			Str("stage", w.Stage).
			Int("offset", w.Offset).
			Str("kind", string(w.Kind)).
			Msg(w.Detail)
	}
}
