package features

import (
	"sort"

	"github.com/okian/ascent/pkg/logger"
)

// Cohort counts the distinct athletes of one country per (event, category) group
// into Column.
type Cohort struct {
	Country string
	Column  string
}

// Watch flags, per (event, category) group, whether one athlete competes.
type Watch struct {
	AthleteID string
	Column    string
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithCohorts replaces the country cohorts with a country code -> column map.
// Columns are emitted in column-name order.
func WithCohorts(byCountry map[string]string) Option {
	return func(b *Builder) {
		b.cohorts = b.cohorts[:0]
		for country, col := range byCountry {
			b.cohorts = append(b.cohorts, Cohort{Country: country, Column: col})
		}
		sort.Slice(b.cohorts, func(i, j int) bool { return b.cohorts[i].Column < b.cohorts[j].Column })
	}
}

// WithWatchlist replaces the watched athletes with an athlete id -> column map.
// Columns are emitted in column-name order.
func WithWatchlist(byAthlete map[string]string) Option {
	return func(b *Builder) {
		b.watch = b.watch[:0]
		for id, col := range byAthlete {
			b.watch = append(b.watch, Watch{AthleteID: id, Column: col})
		}
		sort.Slice(b.watch, func(i, j int) bool { return b.watch[i].Column < b.watch[j].Column })
	}
}

// WithLookbackYears sets the length of the trailing window.
func WithLookbackYears(years int) Option {
	return func(b *Builder) {
		if years > 0 {
			b.window = TrailingYears(years)
		}
	}
}

// WithTimestampLayouts sets the layouts tried, in order, for status_as_of.
func WithTimestampLayouts(layouts ...string) Option {
	return func(b *Builder) {
		if len(layouts) > 0 {
			b.timestampLayouts = layouts
		}
	}
}

// WithBirthdayLayout sets the layout of the birthday column.
func WithBirthdayLayout(layout string) Option {
	return func(b *Builder) {
		if layout != "" {
			b.birthdayLayout = layout
		}
	}
}

// WithDropColumns sets the round-specific columns removed before the collapse.
// They must exist in the input.
func WithDropColumns(cols ...string) Option {
	return func(b *Builder) {
		b.dropColumns = cols
	}
}

// WithLogger sets a custom logger for the builder.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}
