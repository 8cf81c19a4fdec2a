package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/ascent/internal/adapters/table"
	service "github.com/okian/ascent/internal/app"
	"github.com/okian/ascent/internal/config"
	"github.com/okian/ascent/internal/domain/features"
	"github.com/okian/ascent/internal/modelling"
	"github.com/okian/ascent/pkg/logger"
	"github.com/okian/ascent/pkg/metrics"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("ascent: " + err.Error() + "\n")
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

// run loads configuration, builds and splits the feature table, writes both
// halves and optionally trains a model on the train half.
func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(logger.Format(cfg.LogFormat))); err != nil {
		return err
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithConstLabels(cfg.MetricsLabels),
		metrics.WithDurationBuckets(cfg.MetricsDurationBuckets),
	)

	raw, err := table.ReadCSV(cfg.InputPath)
	if err != nil {
		return err
	}

	svc := service.New(options(cfg, log)...)

	res, err := svc.Run(ctx, raw)
	if err != nil {
		return err
	}
	if err := table.WriteCSV(cfg.TrainPath, res.Train); err != nil {
		return err
	}
	if err := table.WriteCSV(cfg.TestPath, res.Test); err != nil {
		return err
	}
	log.Info(ctx, "feature tables written",
		logger.String("run_id", res.RunID),
		logger.String("train_path", cfg.TrainPath),
		logger.String("test_path", cfg.TestPath),
	)

	if cfg.Model.Enabled {
		if _, err := svc.Train(ctx, res); err != nil {
			return err
		}
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Error(ctx, "failed to write metrics", logger.String("path", cfg.MetricsTextfile), logger.Error(err))
		}
	}
	return nil
}

// options maps the loaded configuration onto service options.
func options(cfg *config.Config, log logger.Logger) []service.Option {
	search := []modelling.SearchOption{
		modelling.WithIterations(cfg.Model.Iterations),
		modelling.WithSplits(cfg.Model.Splits),
		modelling.WithSeed(cfg.Model.Seed),
	}
	if cfg.Model.Workers > 0 {
		search = append(search, modelling.WithWorkers(cfg.Model.Workers))
	}

	space := make(modelling.ParamSpace, len(cfg.Model.SearchSpace))
	for k, v := range cfg.Model.SearchSpace {
		space[k] = v
	}

	return []service.Option{
		service.WithLogger(log),
		service.WithFeatureOptions(
			features.WithCohorts(cfg.CountryCohorts),
			features.WithWatchlist(cfg.Watchlist),
			features.WithLookbackYears(cfg.LookbackYears),
			features.WithTimestampLayouts(cfg.TimestampLayouts...),
			features.WithBirthdayLayout(cfg.BirthdayLayout),
			features.WithDropColumns(cfg.DropColumns...),
		),
		service.WithSplit(cfg.OrderBy, cfg.PartitionBy, cfg.TestRatio),
		service.WithFeatureSet(modelling.FeatureSet{
			Categorical: cfg.Model.Categorical,
			Numerical:   cfg.Model.Numerical,
			Target:      cfg.Model.Target,
		}),
		service.WithSearch(space, search...),
		service.WithTopFeatures(cfg.Model.TopFeatures),
	}
}
