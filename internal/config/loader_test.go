package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/ascent/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigNew(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it carries the dataset defaults", func() {
			convey.So(cfg.OrderBy, convey.ShouldEqual, "status_as_of")
			convey.So(cfg.PartitionBy, convey.ShouldEqual, "event_id")
			convey.So(cfg.TestRatio, convey.ShouldEqual, 0.2)
			convey.So(cfg.LookbackYears, convey.ShouldEqual, 1)
			convey.So(cfg.DropColumns, convey.ShouldResemble, []string{"round", "score", "round_rank"})
			convey.So(cfg.CountryCohorts, convey.ShouldContainKey, "JPN")
			convey.So(cfg.CountryCohorts, convey.ShouldContainKey, "FRA")
			convey.So(cfg.Watchlist["1147"], convey.ShouldEqual, "is_janja_competing")
		})

		convey.Convey("Then it fails validation until an input path is set", func() {
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			cfg.InputPath = "results.csv"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New()
		cfg.InputPath = "results.csv"

		cases := []struct {
			name   string
			mutate func()
		}{
			{"test ratio of zero", func() { cfg.TestRatio = 0 }},
			{"test ratio of one", func() { cfg.TestRatio = 1 }},
			{"non-positive lookback", func() { cfg.LookbackYears = 0 }},
			{"no timestamp layouts", func() { cfg.TimestampLayouts = nil }},
			{"empty partition column", func() { cfg.PartitionBy = "" }},
			{"empty birthday layout", func() { cfg.BirthdayLayout = "" }},
			{"cohort without column", func() { cfg.CountryCohorts["GBR"] = "" }},
			{"watchlist reusing a column", func() { cfg.Watchlist["42"] = "jpn_athletes_count" }},
			{"a model without target", func() { cfg.Model.Enabled = true; cfg.Model.Target = "" }},
			{"a model with a single split", func() { cfg.Model.Enabled = true; cfg.Model.Splits = 1 }},
			{"an empty search dimension", func() { cfg.Model.Enabled = true; cfg.Model.SearchSpace["l2"] = nil }},
			{"decreasing duration buckets", func() { cfg.MetricsDurationBuckets = []float64{1, 0.5} }},
		}
		for _, tc := range cases {
			convey.Convey("When it has "+tc.name, func() {
				tc.mutate()

				convey.Convey("Then validation fails", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When only the input path is provided through env", func() {
			_ = os.Setenv("ASCENT_INPUT_PATH", "results.csv")

			cfg, err := config.Load(ctx)

			convey.Convey("Then defaults fill the rest", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.InputPath, convey.ShouldEqual, "results.csv")
				convey.So(cfg.TestRatio, convey.ShouldEqual, 0.2)
				convey.So(cfg.TimestampLayouts, convey.ShouldResemble, []string{"2006-01-02 15:04:05 MST"})
			})
		})

		convey.Convey("When scalar and list values come from env", func() {
			_ = os.Setenv("ASCENT_INPUT_PATH", "results.csv")
			_ = os.Setenv("ASCENT_TEST_RATIO", "0.3")
			_ = os.Setenv("ASCENT_LOOKBACK_YEARS", "2")
			_ = os.Setenv("ASCENT_DROP_COLUMNS", "round, score")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TestRatio, convey.ShouldEqual, 0.3)
				convey.So(cfg.LookbackYears, convey.ShouldEqual, 2)
				convey.So(cfg.DropColumns, convey.ShouldResemble, []string{"round", "score"})
			})
		})

		convey.Convey("When loading a YAML file", func() {
			yamlContent := `
input_path: "data/results.csv"
test_ratio: 0.25
country_cohorts:
  GBR: gbr_athletes_count
watchlist:
  "2001": is_watched_competing
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("ASCENT_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values replace the default collections", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.InputPath, convey.ShouldEqual, "data/results.csv")
				convey.So(cfg.TestRatio, convey.ShouldEqual, 0.25)
				convey.So(cfg.CountryCohorts, convey.ShouldResemble, map[string]string{"GBR": "gbr_athletes_count"})
				convey.So(cfg.Watchlist, convey.ShouldResemble, map[string]string{"2001": "is_watched_competing"})
			})
		})

		convey.Convey("When env overrides a file value", func() {
			tmpFile := createTempConfigFile(t, "input_path: a.csv\ntest_ratio: 0.25\n")
			_ = os.Setenv("ASCENT_CONFIG", tmpFile)
			_ = os.Setenv("ASCENT_TEST_RATIO", "0.5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.InputPath, convey.ShouldEqual, "a.csv")
				convey.So(cfg.TestRatio, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When the model section comes from env", func() {
			_ = os.Setenv("ASCENT_INPUT_PATH", "results.csv")
			_ = os.Setenv("ASCENT_MODEL_ENABLED", "true")
			_ = os.Setenv("ASCENT_MODEL_TARGET", "is_on_podium")
			_ = os.Setenv("ASCENT_MODEL_NUMERICAL", "events_last_year,avg_rank_last_year")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it maps to the nested keys", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Model.Enabled, convey.ShouldBeTrue)
				convey.So(cfg.Model.Numerical, convey.ShouldResemble, []string{"events_last_year", "avg_rank_last_year"})
				convey.So(cfg.Model.Categorical, convey.ShouldResemble, []string{"dcat", "athlete_country", "athlete_id"})
			})
		})

		convey.Convey("When metric naming comes from env and file", func() {
			yamlContent := `
input_path: results.csv
metrics_labels:
  dataset: ifsc
`
			_ = os.Setenv("ASCENT_CONFIG", createTempConfigFile(t, yamlContent))
			_ = os.Setenv("ASCENT_METRICS_NAMESPACE", "climbing")
			_ = os.Setenv("ASCENT_METRICS_DURATION_BUCKETS", "0.01, 0.1, 1")

			cfg, err := config.Load(ctx)

			convey.Convey("Then both layers reach the metrics settings", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "climbing")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "pipeline")
				convey.So(cfg.MetricsLabels, convey.ShouldResemble, map[string]string{"dataset": "ifsc"})
				convey.So(cfg.MetricsDurationBuckets, convey.ShouldResemble, []float64{0.01, 0.1, 1})
			})
		})

		convey.Convey("When a YAML file sets the search space", func() {
			yamlContent := `
input_path: results.csv
model:
  enabled: true
  iterations: 20
  search_space:
    learning_rate: [0.1, 0.2]
`
			_ = os.Setenv("ASCENT_CONFIG", createTempConfigFile(t, yamlContent))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it replaces the default space", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Model.Iterations, convey.ShouldEqual, 20)
				convey.So(cfg.Model.Splits, convey.ShouldEqual, 3)
				convey.So(cfg.Model.SearchSpace, convey.ShouldResemble, map[string][]any{"learning_rate": {0.1, 0.2}})
			})
		})

		convey.Convey("When the file is missing", func() {
			_ = os.Setenv("ASCENT_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file is not valid YAML", func() {
			_ = os.Setenv("ASCENT_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the test ratio is out of range", func() {
			_ = os.Setenv("ASCENT_INPUT_PATH", "results.csv")
			_ = os.Setenv("ASCENT_TEST_RATIO", "1.5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then a validation error is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "test_ratio")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a numeric env value is malformed", func() {
			_ = os.Setenv("ASCENT_INPUT_PATH", "results.csv")
			_ = os.Setenv("ASCENT_LOOKBACK_YEARS", "one")

			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"ASCENT_CONFIG",
		"ASCENT_INPUT_PATH",
		"ASCENT_TEST_RATIO",
		"ASCENT_LOOKBACK_YEARS",
		"ASCENT_DROP_COLUMNS",
		"ASCENT_MODEL_ENABLED",
		"ASCENT_MODEL_TARGET",
		"ASCENT_MODEL_NUMERICAL",
		"ASCENT_METRICS_NAMESPACE",
		"ASCENT_METRICS_DURATION_BUCKETS",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "ascent-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpFile.Name()
}
