// Package memdiag logs heap usage around decode phases.
//
// Enable with TESV_MEM_DEBUG=1; output goes to the debug log level.
package memdiag

import (
	"os"
	"runtime"
	"sync"

	"github.com/eunmann/tesv-save/pkg/humanfmt"
	"github.com/eunmann/tesv-save/pkg/logging"
	"github.com/eunmann/tesv-save/pkg/membudget"
)

// Config holds configuration for memory diagnostics.
type Config struct {
	// Enabled controls whether memory diagnostics are active.
	Enabled bool
}

// DefaultConfig reads the configuration from the environment.
func DefaultConfig() Config {
	return Config{Enabled: os.Getenv("TESV_MEM_DEBUG") == "1"}
}

// Stats holds memory statistics from runtime.
type Stats struct {
	HeapAlloc  uint64
	HeapSys    uint64
	HeapInuse  uint64
	StackInuse uint64
	Sys        uint64
	NumGC      uint32
}

// Read reads current memory statistics.
func Read() Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Stats{
		HeapAlloc:  m.HeapAlloc,
		HeapSys:    m.HeapSys,
		HeapInuse:  m.HeapInuse,
		StackInuse: m.StackInuse,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// Tracker records peak heap across phases. It is safe for concurrent use.
type Tracker struct {
	config   Config
	budget   *membudget.Budget
	mu       sync.Mutex
	phase    string
	peakHeap uint64
}

// NewTracker creates a tracker. budget may be nil.
func NewTracker(config Config, budget *membudget.Budget) *Tracker {
	return &Tracker{config: config, budget: budget, phase: "init"}
}

// Enabled reports whether the tracker logs anything.
func (t *Tracker) Enabled() bool {
	return t.config.Enabled
}

// SetPhase sets the current phase and logs a snapshot.
func (t *Tracker) SetPhase(phase string) {
	t.mu.Lock()
	t.phase = phase
	t.mu.Unlock()

	t.LogNow("phase_change")
}

// LogNow logs current memory stats immediately.
func (t *Tracker) LogNow(reason string) {
	if !t.config.Enabled {
		return
	}

	stats := Read()
	peakHeap, phase := t.observe(stats)

	log := logging.WithPhase(phase)
	e := log.Debug().
		Str("reason", reason).
		Str("heap_alloc", humanfmt.Bytes(int64(stats.HeapAlloc))).
		Str("heap_sys", humanfmt.Bytes(int64(stats.HeapSys))).
		Str("heap_inuse", humanfmt.Bytes(int64(stats.HeapInuse))).
		Str("stack_inuse", humanfmt.Bytes(int64(stats.StackInuse))).
		Str("sys_total", humanfmt.Bytes(int64(stats.Sys))).
		Str("peak_heap", humanfmt.Bytes(int64(peakHeap))).
		Uint32("num_gc", stats.NumGC)
	if t.budget != nil {
		e = e.Str("budget_inuse", humanfmt.Bytes(int64(t.budget.InUse()))).
			Str("budget_total", humanfmt.Bytes(int64(t.budget.Total())))
	}
	e.Msg("memory stats")
}

func (t *Tracker) observe(stats Stats) (peak uint64, phase string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if stats.HeapAlloc > t.peakHeap {
		t.peakHeap = stats.HeapAlloc
	}
	return t.peakHeap, t.phase
}

// Sample folds the current heap into the peak without logging.
func (t *Tracker) Sample() {
	t.observe(Read())
}

// PeakHeap returns the peak heap allocation seen.
func (t *Tracker) PeakHeap() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peakHeap
}
