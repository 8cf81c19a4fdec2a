// Package config defines the pipeline configuration and its loader.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers a YAML file and environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// InputPath is the CSV file of raw event results.
	InputPath string `koanf:"input_path"`

	// TrainPath and TestPath receive the split feature tables.
	TrainPath string `koanf:"train_path"`
	TestPath  string `koanf:"test_path"`

	// MetricsTextfile, when set, receives the Prometheus exposition after a run.
	MetricsTextfile string `koanf:"metrics_textfile"`

	// Metric naming: namespace and subsystem prefix every series, labels are
	// attached to all of them. Empty values keep the defaults.
	MetricsNamespace       string            `koanf:"metrics_namespace"`
	MetricsSubsystem       string            `koanf:"metrics_subsystem"`
	MetricsLabels          map[string]string `koanf:"metrics_labels"`
	MetricsDurationBuckets []float64         `koanf:"metrics_duration_buckets"`

	// OrderBy and PartitionBy name the splitter columns.
	OrderBy     string `koanf:"order_by"`
	PartitionBy string `koanf:"partition_by"`

	// TestRatio is the share of partitions routed to the test table, in (0, 1).
	TestRatio float64 `koanf:"test_ratio"`

	// LookbackYears is the length of the trailing history window.
	LookbackYears int `koanf:"lookback_years"`

	// TimestampLayouts are tried in order when parsing status_as_of.
	TimestampLayouts []string `koanf:"timestamp_layouts"`

	// BirthdayLayout parses the birthday column.
	BirthdayLayout string `koanf:"birthday_layout"`

	// DropColumns vary within an event and are removed before rows are collapsed.
	DropColumns []string `koanf:"drop_columns"`

	// CountryCohorts maps a country code to the column counting its athletes per
	// (event, category) group.
	CountryCohorts map[string]string `koanf:"country_cohorts"`

	// Watchlist maps an athlete id to the 0/1 column flagging its presence per
	// (event, category) group.
	Watchlist map[string]string `koanf:"watchlist"`

	// Model configures the optional training stage run on the train table.
	Model ModelConfig `koanf:"model"`
}

// ModelConfig selects the model inputs and the hyperparameter search.
type ModelConfig struct {
	Enabled     bool             `koanf:"enabled"`
	Categorical []string         `koanf:"categorical"`
	Numerical   []string         `koanf:"numerical"`
	Target      string           `koanf:"target"`
	Iterations  int              `koanf:"iterations"`
	Splits      int              `koanf:"splits"`
	Seed        int64            `koanf:"seed"`
	Workers     int              `koanf:"workers"`
	TopFeatures int              `koanf:"top_features"`
	SearchSpace map[string][]any `koanf:"search_space"`
}

// New creates a Config with defaults matching the IFSC results dataset.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		TrainPath:        "train.csv",
		TestPath:         "test.csv",
		MetricsNamespace: "ascent",
		MetricsSubsystem: "pipeline",
		OrderBy:          "status_as_of",
		PartitionBy:      "event_id",
		TestRatio:        0.2,
		LookbackYears:    1,
		TimestampLayouts: []string{"2006-01-02 15:04:05 MST"},
		BirthdayLayout:   "2006-01-02",
		DropColumns:      []string{"round", "score", "round_rank"},
		CountryCohorts: map[string]string{
			"JPN": "jpn_athletes_count",
			"FRA": "fra_athletes_count",
		},
		Watchlist: map[string]string{
			"1147": "is_janja_competing",
		},
		Model: ModelConfig{
			Categorical: []string{"dcat", "athlete_country", "athlete_id"},
			Numerical: []string{
				"athlete_age_in_days",
				"athlete_years_active",
				"fra_athletes_count",
				"jpn_athletes_count",
				"is_janja_competing",
				"events_last_year",
				"podiums_last_year",
				"finals_last_year",
				"semis_last_year",
				"avg_rank_last_year",
				"progression_to_semi_last_year",
				"progression_to_final_last_year",
			},
			Target:      "is_on_podium",
			Iterations:  500,
			Splits:      3,
			Seed:        42,
			TopFeatures: 10,
			SearchSpace: map[string][]any{
				"learning_rate":    {0.01, 0.05, 0.1, 0.3},
				"max_iter":         {100, 200, 500},
				"l2":               {0.0, 0.001, 0.01, 0.1},
				"scale_pos_weight": {1.0, 23.6},
			},
		},
	}
}

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate() error {
	switch {
	case c.InputPath == "":
		return fmt.Errorf("%w: input_path must not be empty", ErrInvalidConfig)
	case c.OrderBy == "" || c.PartitionBy == "":
		return fmt.Errorf("%w: order_by and partition_by must not be empty", ErrInvalidConfig)
	case c.TestRatio <= 0 || c.TestRatio >= 1:
		return fmt.Errorf("%w: test_ratio must be in (0, 1), got %v", ErrInvalidConfig, c.TestRatio)
	case c.LookbackYears <= 0:
		return fmt.Errorf("%w: lookback_years must be positive, got %d", ErrInvalidConfig, c.LookbackYears)
	case len(c.TimestampLayouts) == 0:
		return fmt.Errorf("%w: timestamp_layouts must not be empty", ErrInvalidConfig)
	case c.BirthdayLayout == "":
		return fmt.Errorf("%w: birthday_layout must not be empty", ErrInvalidConfig)
	}
	for i := 1; i < len(c.MetricsDurationBuckets); i++ {
		if c.MetricsDurationBuckets[i] <= c.MetricsDurationBuckets[i-1] {
			return fmt.Errorf("%w: metrics_duration_buckets must increase, got %v", ErrInvalidConfig, c.MetricsDurationBuckets)
		}
	}

	seen := make(map[string]string, len(c.CountryCohorts)+len(c.Watchlist))
	for code, col := range c.CountryCohorts {
		if col == "" {
			return fmt.Errorf("%w: country cohort %q has no column", ErrInvalidConfig, code)
		}
		if prev, ok := seen[col]; ok {
			return fmt.Errorf("%w: column %q used by %q and %q", ErrInvalidConfig, col, prev, code)
		}
		seen[col] = code
	}
	for id, col := range c.Watchlist {
		if col == "" {
			return fmt.Errorf("%w: watched athlete %q has no column", ErrInvalidConfig, id)
		}
		if prev, ok := seen[col]; ok {
			return fmt.Errorf("%w: column %q used by %q and %q", ErrInvalidConfig, col, prev, id)
		}
		seen[col] = id
	}
	return c.Model.validate()
}

func (m *ModelConfig) validate() error {
	if !m.Enabled {
		return nil
	}
	switch {
	case m.Target == "":
		return fmt.Errorf("%w: model.target must not be empty", ErrInvalidConfig)
	case len(m.Categorical)+len(m.Numerical) == 0:
		return fmt.Errorf("%w: model needs at least one feature", ErrInvalidConfig)
	case m.Iterations <= 0:
		return fmt.Errorf("%w: model.iterations must be positive, got %d", ErrInvalidConfig, m.Iterations)
	case m.Splits < 2:
		return fmt.Errorf("%w: model.splits must be at least 2, got %d", ErrInvalidConfig, m.Splits)
	case m.Workers < 0:
		return fmt.Errorf("%w: model.workers must not be negative, got %d", ErrInvalidConfig, m.Workers)
	}
	for name, values := range m.SearchSpace {
		if len(values) == 0 {
			return fmt.Errorf("%w: model.search_space.%s has no values", ErrInvalidConfig, name)
		}
	}
	return nil
}
