package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eunmann/tesv-save/pkg/benchutil"
	"github.com/eunmann/tesv-save/pkg/export"
	"github.com/eunmann/tesv-save/pkg/membudget"
	"github.com/eunmann/tesv-save/pkg/savefile"
	"github.com/eunmann/tesv-save/pkg/wire"
)

func writeSave(t *testing.T, name string, forms int) (string, []byte) {
	t.Helper()
	data := benchutil.NewGenerator(benchutil.DefaultConfig(forms)).Generate().MustBytes()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write save: %v", err)
	}
	return path, data
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestRunNoArgs(t *testing.T) {
	err := Run(nil)
	if err == nil {
		t.Fatal("expected error with no args")
	}
	if !strings.Contains(err.Error(), "usage") {
		t.Errorf("expected usage message, got: %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	_, err := runCLI(t, "unknown")
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("expected 'unknown command' error, got: %v", err)
	}
}

func TestRunHelp(t *testing.T) {
	out, err := runCLI(t, "help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if !strings.Contains(out, "inspect") || !strings.Contains(out, "s3://") {
		t.Errorf("help output missing commands: %s", out)
	}
}

func TestFlagValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"inspect without saves", []string{"inspect"}, "at least one save"},
		{"export without out", []string{"export", "a.ess"}, "--out"},
		{"export two saves", []string{"export", "--out", "x", "a.ess", "b.ess"}, "exactly one save"},
		{"lookup without ref", []string{"lookup", "a.ess"}, "--ref"},
		{"lookup bad ref", []string{"lookup", "--ref", "nope", "a.ess"}, "invalid --ref"},
		{"bad budget", []string{"inspect", "--mem-budget", "lots", "a.ess"}, "--mem-budget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestInspectSummary(t *testing.T) {
	first, _ := writeSave(t, "first.ess", 50)
	second, _ := writeSave(t, "second.ess", 10)

	out, err := runCLI(t, "inspect", "--mem-budget", "64MiB", first, second)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"Prisoner, level 1, NordRace at Helgen", "change forms", "lz4", "3 (+1 light)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if i, j := strings.Index(out, first), strings.Index(out, second); i < 0 || j < 0 || i > j {
		t.Errorf("saves out of argument order:\n%s", out)
	}
}

func TestInspectJSON(t *testing.T) {
	path, _ := writeSave(t, "quick.ess", 20)

	out, err := runCLI(t, "inspect", "--json", "--mem-budget", "64MiB", path)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	var rec struct {
		Source  string           `json:"source"`
		Summary savefile.Summary `json:"summary"`
		Save    struct {
			Plugins     []string          `json:"plugins"`
			ChangeForms []json.RawMessage `json:"change_forms"`
		} `json:"save"`
	}
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if rec.Source != path || rec.Summary.PlayerName != "Prisoner" {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Save.ChangeForms) != 20 || len(rec.Save.Plugins) != 3 {
		t.Errorf("change forms = %d, plugins = %d, want 20, 3", len(rec.Save.ChangeForms), len(rec.Save.Plugins))
	}
}

func TestInspectJSONNonFiniteFloats(t *testing.T) {
	s := benchutil.Minimal()
	s.CurExp = float32(math.NaN())
	s.LvlUpExp = float32(math.Inf(1))
	path := filepath.Join(t.TempDir(), "nan.ess")
	if err := os.WriteFile(path, s.MustBytes(), 0o644); err != nil {
		t.Fatalf("write save: %v", err)
	}

	out, err := runCLI(t, "inspect", "--json", "--mem-budget", "64MiB", path)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(out, `"player_cur_exp":"NaN"`) || !strings.Contains(out, `"player_lvl_up_exp":"+Inf"`) {
		t.Errorf("output missing non-finite floats: %s", out)
	}
}

func TestInspectBudgetExceeded(t *testing.T) {
	path, _ := writeSave(t, "quick.ess", 20)

	_, err := runCLI(t, "inspect", "--mem-budget", "16", path)
	if !errors.Is(err, wire.ErrBudgetExceeded) {
		t.Errorf("err = %v, want ErrBudgetExceeded", err)
	}
}

func TestInspectMissingFile(t *testing.T) {
	_, err := runCLI(t, "inspect", "--mem-budget", "64MiB", filepath.Join(t.TempDir(), "missing.ess"))
	if err == nil || !strings.Contains(err.Error(), "missing.ess") {
		t.Errorf("err = %v, want error naming the file", err)
	}
}

func TestExport(t *testing.T) {
	path, _ := writeSave(t, "quick.ess", 30)
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := runCLI(t, "export", "--out", outDir, "--mem-budget", "64MiB", path)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	lines := strings.Fields(out)
	if len(lines) != 3 {
		t.Fatalf("output = %q, want 3 paths", out)
	}
	for _, name := range []string{export.ChangeFormsFile, export.GlobalDataFile, export.PayloadsFile} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestExportRefusesOverwrite(t *testing.T) {
	path, _ := writeSave(t, "quick.ess", 5)
	outDir := t.TempDir()

	if _, err := runCLI(t, "export", "--out", outDir, "--mem-budget", "64MiB", path); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	_, err := runCLI(t, "export", "--out", outDir, "--mem-budget", "64MiB", path)
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Errorf("err = %v, want overwrite refusal", err)
	}
	if _, err := runCLI(t, "export", "--out", outDir, "--force", "--mem-budget", "64MiB", path); err != nil {
		t.Errorf("export --force failed: %v", err)
	}
}

func TestLookup(t *testing.T) {
	path, data := writeSave(t, "quick.ess", 40)
	sf, err := savefile.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	target := sf.ChangeForms[17]

	out, err := runCLI(t, "lookup", "--ref", target.Ref.String(), "--mem-budget", "64MiB", path)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !strings.Contains(out, target.Ref.String()) || !strings.Contains(out, "position") {
		t.Errorf("output = %s", out)
	}
	if !strings.Contains(out, "17") {
		t.Errorf("output missing position 17: %s", out)
	}

	_, err = runCLI(t, "lookup", "--ref", "unrecognized:0x7", "--mem-budget", "64MiB", path)
	if !errors.Is(err, errRefNotFound) {
		t.Errorf("err = %v, want errRefNotFound", err)
	}
}

func TestDetermineMemoryBudgetCLI(t *testing.T) {
	budget, err := determineMemoryBudget("4GiB")
	if err != nil {
		t.Fatalf("determineMemoryBudget error: %v", err)
	}
	if budget.Total() != 4*1024*1024*1024 {
		t.Errorf("Total() = %d, want %d", budget.Total(), 4*1024*1024*1024)
	}
	if budget.Source() != membudget.BudgetSourceCLI {
		t.Errorf("Source() = %s, want %s", budget.Source(), membudget.BudgetSourceCLI)
	}
}

func TestDetermineMemoryBudgetEnv(t *testing.T) {
	t.Setenv(memBudgetEnv, "512MiB")

	budget, err := determineMemoryBudget("")
	if err != nil {
		t.Fatalf("determineMemoryBudget error: %v", err)
	}
	if budget.Total() != 512*1024*1024 {
		t.Errorf("Total() = %d, want %d", budget.Total(), 512*1024*1024)
	}
	if budget.Source() != membudget.BudgetSourceEnv {
		t.Errorf("Source() = %s, want %s", budget.Source(), membudget.BudgetSourceEnv)
	}
}

func TestDetermineMemoryBudgetCLIOverridesEnv(t *testing.T) {
	t.Setenv(memBudgetEnv, "512MiB")

	budget, err := determineMemoryBudget("1GiB")
	if err != nil {
		t.Fatalf("determineMemoryBudget error: %v", err)
	}
	if budget.Total() != 1024*1024*1024 || budget.Source() != membudget.BudgetSourceCLI {
		t.Errorf("budget = %d from %s, want 1GiB from cli", budget.Total(), budget.Source())
	}
}

func TestDetermineMemoryBudgetDefault(t *testing.T) {
	t.Setenv(memBudgetEnv, "")

	budget, err := determineMemoryBudget("")
	if err != nil {
		t.Fatalf("determineMemoryBudget error: %v", err)
	}
	if budget.Source() != membudget.BudgetSourceAuto50Pct && budget.Source() != membudget.BudgetSourceDefault {
		t.Errorf("Source() = %s, want auto-50pct or default", budget.Source())
	}
}

func TestDetermineMemoryBudgetInvalidEnv(t *testing.T) {
	t.Setenv(memBudgetEnv, "badvalue")

	_, err := determineMemoryBudget("")
	if err == nil || !strings.Contains(err.Error(), memBudgetEnv) {
		t.Errorf("err = %v, want mention of %s", err, memBudgetEnv)
	}
}
