// Package cli implements the command-line interface for tesv-save.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/eunmann/tesv-save/internal/logctx"
	"github.com/eunmann/tesv-save/pkg/humanfmt"
	"github.com/eunmann/tesv-save/pkg/logging"
	"github.com/eunmann/tesv-save/pkg/membudget"
	"github.com/eunmann/tesv-save/pkg/memdiag"
)

// memBudgetEnv overrides the auto-detected memory budget when --mem-budget is absent.
const memBudgetEnv = "TESV_MEM_BUDGET"

const usage = `usage: tesv-save <command> [options] <save>...
commands:
  inspect  print a summary of each save (--json for the full decode)
  export   write parquet tables and a payload archive (--out DIR)
  lookup   find the change form for a reference (--ref KIND:VALUE)
saves are local paths or s3://bucket/key URIs`

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, args, os.Stdout)
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "inspect":
		return runInspect(ctx, args[1:], stdout)
	case "export":
		return runExport(ctx, args[1:], stdout)
	case "lookup":
		return runLookup(ctx, args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	debug     bool
	human     bool
	memBudget string
	jobs      int
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&c.human, "human", false, "human-friendly log output")
	fs.StringVar(&c.memBudget, "mem-budget", "", "memory budget for save bodies and downloads, e.g. 512MiB (env "+memBudgetEnv+")")
	fs.IntVar(&c.jobs, "jobs", 4, "saves decoded concurrently")
}

// setup configures logging and resolves the memory budget.
func (c *commonFlags) setup(ctx context.Context) (context.Context, *runner, error) {
	logging.Init(c.debug, c.human)
	log := *logging.L()
	logctx.SetDefaultLogger(log)

	budget, err := determineMemoryBudget(c.memBudget)
	if err != nil {
		return nil, nil, err
	}
	log.Debug().
		Str("budget", humanfmt.Bytes(int64(budget.Total()))).
		Str("source", string(budget.Source())).
		Msg("memory budget")

	r := &runner{
		budget:  budget,
		loader:  newLoader(budget),
		tracker: memdiag.NewTracker(memdiag.DefaultConfig(), budget),
		jobs:    c.jobs,
	}
	return logctx.WithLogger(ctx, log), r, nil
}

// determineMemoryBudget resolves the budget from the CLI flag, then the
// environment, then 50% of system RAM.
func determineMemoryBudget(cliValue string) (*membudget.Budget, error) {
	if cliValue != "" {
		n, err := membudget.ParseHumanSize(cliValue)
		if err != nil {
			return nil, fmt.Errorf("invalid --mem-budget %q: %w", cliValue, err)
		}
		return membudget.New(membudget.Config{TotalBytes: n, Source: membudget.BudgetSourceCLI}), nil
	}

	if envValue := os.Getenv(memBudgetEnv); envValue != "" {
		n, err := membudget.ParseHumanSize(envValue)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", memBudgetEnv, envValue, err)
		}
		return membudget.New(membudget.Config{TotalBytes: n, Source: membudget.BudgetSourceEnv}), nil
	}

	return membudget.NewFromSystemRAM(), nil
}
