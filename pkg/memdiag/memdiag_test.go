package memdiag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/eunmann/tesv-save/pkg/logging"
	"github.com/eunmann/tesv-save/pkg/membudget"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("TESV_MEM_DEBUG", "1")
	if !DefaultConfig().Enabled {
		t.Error("Enabled = false with TESV_MEM_DEBUG=1")
	}
	t.Setenv("TESV_MEM_DEBUG", "")
	if DefaultConfig().Enabled {
		t.Error("Enabled = true without TESV_MEM_DEBUG")
	}
}

func TestTrackerLogs(t *testing.T) {
	var buf bytes.Buffer
	logging.SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	oldLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer func() {
		zerolog.SetGlobalLevel(oldLevel)
		logging.Init(false, false)
	}()

	budget := membudget.New(membudget.Config{TotalBytes: 1 << 20})
	tr := NewTracker(Config{Enabled: true}, budget)
	tr.SetPhase("decode")

	out := buf.String()
	for _, want := range []string{`"phase":"decode"`, `"reason":"phase_change"`, `"budget_total":"1.00 MiB"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s, got: %s", want, out)
		}
	}
	if tr.PeakHeap() == 0 {
		t.Error("PeakHeap() = 0 after snapshot")
	}
}

func TestTrackerDisabled(t *testing.T) {
	var buf bytes.Buffer
	logging.SetLogger(zerolog.New(&buf))
	defer logging.Init(false, false)

	tr := NewTracker(Config{}, nil)
	tr.SetPhase("decode")
	tr.LogNow("manual")
	if buf.Len() != 0 {
		t.Errorf("disabled tracker logged: %s", buf.String())
	}

	tr.Sample()
	if tr.PeakHeap() == 0 {
		t.Error("Sample() did not record heap")
	}
}
