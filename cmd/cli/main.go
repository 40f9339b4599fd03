package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"learnspeed/domain/run"
	"learnspeed/internal"
	"learnspeed/internal/cohortgen"
	"learnspeed/internal/config"
	"learnspeed/internal/errors"
	"learnspeed/internal/pipeline"
	"learnspeed/internal/report"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "learnspeed",
		Short:         "Simulate learning attempts and compare learning speed between two groups",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newGenerateCmd(),
		newReplayCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(errors.ExitCode(err))
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		outDir      string
		seed        int64
		attempts    int
		groupColumn string
		tieBreak    string
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "analyze [input]",
		Short: "Run the learning speed analysis on a CSV or XLSX baseline table",
		Long: `Simulate repeated attempts for every row of the baseline table, fit a
learning rate per row and subject, and compare the two groups.

Settings are read from .env, learnspeed.yaml (or LEARNSPEED_CONFIG) and the
environment; flags override them.

Example: learnspeed analyze StudentsPerformance.csv --out results --seed 42`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Input.File = args[0]
			}
			flags := cmd.Flags()
			if flags.Changed("out") {
				cfg.OutputDir = outDir
			}
			if flags.Changed("seed") {
				cfg.Seed = &seed
			}
			if flags.Changed("attempts") {
				cfg.Simulation.Attempts = attempts
			}
			if flags.Changed("group-column") {
				cfg.Input.GroupColumn = groupColumn
			}
			if flags.Changed("tie-break") {
				cfg.Analysis.TieBreak = tieBreak
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "invalid flags")
			}

			logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
			res, err := pipeline.Run(cmd.Context(), cfg, pipeline.DefaultDeps(cfg, logger))
			if err != nil {
				return err
			}
			printRun(cmd, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Noise seed (default: drawn from the clock and recorded in the manifest)")
	cmd.Flags().IntVar(&attempts, "attempts", 5, "Simulated attempts per entity")
	cmd.Flags().StringVar(&groupColumn, "group-column", "gender", "Column holding the group label")
	cmd.Flags().StringVar(&tieBreak, "tie-break", "first", "Group reported as faster on an exact tie: first|second")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel slope fits (default: GOMAXPROCS)")

	return cmd
}

func newReplayCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "replay [manifest]",
		Short: "Rerun a recorded analysis and check it reproduces the same results",
		Long: `Rerun the input, seed and settings recorded in a run manifest and compare
the new fingerprints with the recorded ones.

Example: learnspeed replay results/run_manifest.json --out replay`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := run.ReadManifest(args[0])
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cfg.OutputDir = outDir

			logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
			res, err := pipeline.Replay(cmd.Context(), cfg, m, logger)
			if err != nil {
				return err
			}
			printRun(cmd, res)
			fmt.Fprintf(cmd.OutOrStdout(), "Replay of %s reproduced output %s\n", m.RunID, res.OutputHash.Short())
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "replay", "Output directory for the replayed run")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var (
		out    string
		rows   int
		seed   int64
		format string
		shift  float64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic StudentsPerformance-shaped baseline table",
		Long: `Generate a synthetic baseline table with a gender column and math, reading
and writing scores.

Example: learnspeed generate --out cohort.xlsx --rows 1000 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmtName := strings.ToLower(strings.TrimSpace(format))
			if fmtName == "" {
				switch strings.ToLower(filepath.Ext(out)) {
				case ".xlsx":
					fmtName = "xlsx"
				default:
					fmtName = "csv"
				}
			}

			cfg := cohortgen.DefaultConfig()
			cfg.Rows = rows
			cfg.Seed = seed
			cfg.GroupShift = shift

			tbl, err := cohortgen.Generate(cfg)
			if err != nil {
				return errors.Wrap(err, "invalid generator settings")
			}

			switch fmtName {
			case "csv":
				err = cohortgen.WriteCSV(out, tbl)
			case "xlsx":
				err = cohortgen.WriteXLSX(out, tbl)
			default:
				return errors.ConfigInvalid(fmt.Sprintf("unsupported format %q (use csv or xlsx)", fmtName))
			}
			if err != nil {
				return errors.ReportError(out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cohort written: %s\n", out)
			fmt.Fprintf(cmd.OutOrStdout(), "Total Columns: %d | Total Rows: %d\n", len(tbl.Headers), len(tbl.Rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "StudentsPerformance.csv", "Output file path")
	cmd.Flags().IntVar(&rows, "rows", 1000, "Number of rows")
	cmd.Flags().Int64Var(&seed, "seed", 42, "RNG seed (deterministic)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: csv or xlsx (default inferred from --out)")
	cmd.Flags().Float64Var(&shift, "group-shift", 0, "Mean score offset of the second group")

	return cmd
}

func printRun(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	for _, line := range report.ConsoleLines(res.Analysis, res.Outputs) {
		fmt.Fprintln(out, line)
	}
	if res.SeedGenerated {
		fmt.Fprintf(out, "Seed: %d (pass --seed %d to reproduce)\n", res.Seed, res.Seed)
	}
}
