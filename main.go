package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"learnspeed/internal"
	"learnspeed/internal/config"
	"learnspeed/internal/errors"
	"learnspeed/internal/pipeline"
	"learnspeed/internal/report"
)

// One-shot run over StudentsPerformance.csv in the working directory.
// Settings can be changed through .env, learnspeed.yaml or environment
// variables; see internal/config.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return errors.ExitCode(err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))

	res, err := pipeline.Run(ctx, cfg, pipeline.DefaultDeps(cfg, logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return errors.ExitCode(err)
	}

	for _, line := range report.ConsoleLines(res.Analysis, res.Outputs) {
		fmt.Println(line)
	}
	if res.SeedGenerated {
		fmt.Printf("Seed: %d (set SEED=%d to reproduce)\n", res.Seed, res.Seed)
	}
	return 0
}
