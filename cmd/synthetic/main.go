package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/ascent/internal/adapters/table"
	"github.com/okian/ascent/internal/synthetic"
	"github.com/okian/ascent/pkg/logger"
)

const defaultTimeout = 5 * time.Minute

func main() {
	def := synthetic.DefaultConfig()
	var (
		output    = flag.String("output", "results.csv", "CSV file receiving the generated results")
		firstYear = flag.Int("first-year", def.FirstYear, "Season of the first event")
		years     = flag.Int("years", def.Years, "Number of seasons")
		events    = flag.Int("events", def.EventsPerYear, "Events per season")
		athletes  = flag.Int("athletes", def.Athletes, "Size of the athlete pool")
		seed      = flag.Int64("seed", def.Seed, "Random seed")
		workers   = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		jsonLogs  = flag.Bool("json", false, "Log as JSON")
	)
	flag.Parse()

	format := logger.FormatText
	if *jsonLogs {
		format = logger.FormatJSON
	}
	if err := logger.Init(logger.WithFormat(format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	cfg := def
	cfg.FirstYear = *firstYear
	cfg.Years = *years
	cfg.EventsPerYear = *events
	cfg.Athletes = *athletes
	cfg.Seed = *seed
	cfg.Workers = *workers

	df, err := synthetic.Generate(ctx, cfg, logger.Named("synthetic"))
	if err != nil {
		os.Stderr.WriteString("generation failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel already called
	}
	if err := table.WriteCSV(*output, df); err != nil {
		os.Stderr.WriteString("write failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel already called
	}
	logger.Get().Info(ctx, "results written", logger.String("output", *output), logger.Int("rows", df.Nrow()))
}
