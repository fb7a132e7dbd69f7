// Package benchutil builds synthetic save containers for tests and
// benchmarks.
package benchutil

import (
	"math/rand"
	"os"
	"testing"
)

// BenchmarkSeed is the default seed for reproducible generation.
const BenchmarkSeed = 42

// BenchmarkSizes are change form counts for quick benchmark runs.
var BenchmarkSizes = []int{100, 1000, 10000}

// SkipIfNoLongBench skips the benchmark unless TESV_LONG_BENCH is set.
func SkipIfNoLongBench(b *testing.B) {
	if os.Getenv("TESV_LONG_BENCH") == "" {
		b.Skip("set TESV_LONG_BENCH=1 to run scaling benchmark")
	}
}

// GeneratorConfig configures synthetic save generation.
type GeneratorConfig struct {
	// ChangeForms is the number of change forms to generate.
	ChangeForms int
	// CompressedRatio is the fraction of change forms stored zlib-compressed.
	CompressedRatio float64
	// MaxPayload bounds each change form's uncompressed payload size.
	MaxPayload int
	// Compression is the body compression code.
	Compression uint16
	// Seed for reproducible generation. 0 = use BenchmarkSeed.
	Seed int64
}

// DefaultConfig returns a mix resembling a mid-game save.
func DefaultConfig(changeForms int) GeneratorConfig {
	return GeneratorConfig{
		ChangeForms:     changeForms,
		CompressedRatio: 0.3,
		MaxPayload:      512,
		Compression:     CompressionLZ4,
		Seed:            BenchmarkSeed,
	}
}

// Generator produces synthetic saves.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// NewGenerator creates a new save generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = BenchmarkSeed
	}
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = 256
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Generate returns a save with one record of each common global data type
// and cfg.ChangeForms change forms with distinct references.
func (g *Generator) Generate() *Save {
	s := Minimal()
	s.Compression = g.cfg.Compression
	s.Plugins = []string{"Skyrim.esm", "Update.esm", "Dawnguard.esm"}
	s.LightPlugins = []string{"ccBGSSSE001-Fish.esm"}
	s.OffsetBase = 0x1000

	s.Table1 = []Record{
		{Type: 0, Payload: MiscStatsPayload(map[string]uint32{"Days Passed": 12, "Locations Discovered": 40})},
		{Type: 1, Payload: PlayerLocationPayload(0xFF000A00, 4, -7)},
		{Type: 3, Payload: GlobalVariablesPayload(3)},
	}
	s.Table2 = []Record{
		{Type: 101, Payload: g.bytes(32)},
		{Type: 108, Payload: []byte{1}},
		{Type: 113, Payload: []byte{0, 1}},
	}
	s.Table3 = []Record{
		{Type: 1001, Payload: g.bytes(64)},
		{Type: 1003, Payload: []byte{1, 2}},
		{Type: 1005},
	}

	s.ChangeForms = make([]ChangeForm, g.cfg.ChangeForms)
	for i := range s.ChangeForms {
		s.ChangeForms[i] = g.changeForm(i)
	}

	s.FormIDs = make([]uint32, 0, 16)
	for i := 0; i < 16; i++ {
		s.FormIDs = append(s.FormIDs, 0x00010000+uint32(i))
	}
	s.Worldspaces = []uint32{0x3C, 0x1691D}
	s.UnknownStrings = []string{"Tamriel"}
	return s
}

func (g *Generator) changeForm(i int) ChangeForm {
	// Authoritative references stay distinct for the first 16384 forms:
	// byte1 holds the low bits of i and byte0 the next six.
	ref := [3]byte{0x40 | uint8(i>>8)&0x3F, uint8(i), uint8(g.rng.Intn(256))}
	size := 1 + g.rng.Intn(g.cfg.MaxPayload)
	f := ChangeForm{
		RefID:    ref,
		Flags:    g.rng.Uint32(),
		FormType: uint8(g.rng.Intn(64)),
		Version:  74,
		Width:    Width32,
		Data:     g.payload(size),
		Compress: g.rng.Float64() < g.cfg.CompressedRatio,
	}
	if !f.Compress && size <= 255 {
		f.Width = Width8
	}
	return f
}

// payload returns low-entropy bytes so compressed forms shrink.
func (g *Generator) payload(n int) []byte {
	b := make([]byte, n)
	v := byte(g.rng.Intn(8))
	for i := range b {
		if g.rng.Intn(8) == 0 {
			v = byte(g.rng.Intn(8))
		}
		b[i] = v
	}
	return b
}

func (g *Generator) bytes(n int) []byte {
	b := make([]byte, n)
	g.rng.Read(b)
	return b
}
