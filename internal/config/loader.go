package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ASCENT_CONFIG is set
//  3. env (prefix ASCENT_)
//
// List-valued keys (timestamp_layouts, drop_columns, metrics_duration_buckets,
// model.categorical, model.numerical) accept a comma separated env value.
// ASCENT_MODEL_* maps to the model section. Map-valued keys are file only.
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("ASCENT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// ASCENT_TEST_RATIO -> test_ratio. Underscores are preserved to match the
	// flat koanf tags.
	envProvider := env.ProviderWithValue("ASCENT_", ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), "ascent_")
		if key == "config" {
			return "", nil
		}
		if rest, ok := strings.CutPrefix(key, "model_"); ok {
			key = "model." + rest
		}
		switch key {
		case "timestamp_layouts", "drop_columns", "metrics_duration_buckets", "model.categorical", "model.numerical":
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	// Collections given by a layer replace the defaults instead of merging into them.
	if k.Exists("timestamp_layouts") {
		cfg.TimestampLayouts = nil
	}
	if k.Exists("drop_columns") {
		cfg.DropColumns = nil
	}
	if k.Exists("country_cohorts") {
		cfg.CountryCohorts = nil
	}
	if k.Exists("watchlist") {
		cfg.Watchlist = nil
	}
	if k.Exists("model.categorical") {
		cfg.Model.Categorical = nil
	}
	if k.Exists("model.numerical") {
		cfg.Model.Numerical = nil
	}
	if k.Exists("model.search_space") {
		cfg.Model.SearchSpace = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
