// Package features derives the model-ready feature table from raw event
// results: typed normalization, per-row derivations, per-group cohort counts and
// trailing-window history per athlete.
package features

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/okian/ascent/internal/adapters/table"
	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/pkg/logger"
	"github.com/okian/ascent/pkg/metrics"
)

const day = 24 * time.Hour

// Builder turns a raw results table into the feature table.
type Builder struct {
	cohorts          []Cohort
	watch            []Watch
	window           Window
	timestampLayouts []string
	birthdayLayout   string
	dropColumns      []string
	logger           logger.Logger
}

// New creates a Builder. Defaults count Japanese and French athletes per group,
// watch athlete 1147 and look back one year.
func New(opts ...Option) *Builder {
	b := &Builder{
		cohorts: []Cohort{
			{Country: "FRA", Column: "fra_athletes_count"},
			{Country: "JPN", Column: "jpn_athletes_count"},
		},
		watch:            []Watch{{AthleteID: "1147", Column: "is_janja_competing"}},
		window:           TrailingYears(1),
		timestampLayouts: []string{"2006-01-02 15:04:05 MST"},
		birthdayLayout:   "2006-01-02",
		dropColumns:      []string{"round", "score", "round_rank"},
		logger:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns a new feature table. The input is not modified. Rows of the
// earliest calendar year only serve as history and are removed, and rows that
// become identical once round-specific columns are dropped collapse into one.
func (b *Builder) Build(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	start := time.Now()
	defer func() { metrics.ObserveStage(metrics.StageBuild, time.Since(start)) }()

	out, stats, err := b.build(ctx, df)
	if err != nil {
		metrics.RecordStageError(metrics.StageBuild, errorKind(err))
		b.logger.Error(ctx, "feature build failed", logger.Error(err))
		return dataframe.DataFrame{}, err
	}
	metrics.RecordBuild(stats)
	b.logger.Info(ctx, "features built",
		logger.Int("rows_in", stats.RowsIn),
		logger.Int("rows_out", stats.RowsOut),
		logger.Int("rows_trimmed", stats.RowsTrimmed),
		logger.Int("rows_collapsed", stats.RowsCollapsed),
		logger.Duration("took", time.Since(start)),
	)
	return out, nil
}

func (b *Builder) build(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, metrics.BuildStats, error) {
	stats := metrics.BuildStats{RowsIn: df.Nrow()}
	if err := ctx.Err(); err != nil {
		return dataframe.DataFrame{}, stats, err
	}
	if df.Err != nil {
		return dataframe.DataFrame{}, stats, df.Err
	}
	if err := table.Require(df, requiredColumns...); err != nil {
		return dataframe.DataFrame{}, stats, err
	}
	if err := table.Require(df, b.dropColumns...); err != nil {
		return dataframe.DataFrame{}, stats, err
	}

	rows, err := b.normalize(df)
	if err != nil {
		return dataframe.DataFrame{}, stats, err
	}
	if len(rows) == 0 {
		metrics.RecordEmptyInput(metrics.StageBuild)
		b.logger.Warn(ctx, "no rows to build features from", logger.Error(ErrEmptyInput))
	}

	feats := derive(rows)

	groups := Cohorts(rows, b.cohorts, b.watch)
	for i := range feats {
		g := groups[GroupKey{EventID: feats[i].EventID, DCat: feats[i].DCat}]
		feats[i].Cohorts = g.Counts
		feats[i].Watched = g.Watched
	}

	histories, err := Trailing(rows, b.window)
	if err != nil {
		return dataframe.DataFrame{}, stats, err
	}
	for i := range feats {
		h, ok := histories[HistoryKey{AthleteID: feats[i].AthleteID, StatusAsOf: feats[i].StatusAsOf}]
		feats[i].History = h
		feats[i].HasHistory = ok
	}

	for i := range feats {
		feats[i].ProgressionToSemi = feats[i].History.ProgressionToSemi()
		feats[i].ProgressionToFinal = feats[i].History.ProgressionToFinal()
	}

	kept := trimWarmUp(feats)
	stats.RowsTrimmed = len(feats) - len(kept)

	for i := range kept {
		if kept[i].HasAge {
			kept[i].AgeInDays = int(kept[i].AgeSpan / day)
		}
	}

	encoded, err := b.encode(df, kept)
	if err != nil {
		return dataframe.DataFrame{}, stats, err
	}
	out, collapsed, err := table.Distinct(encoded)
	if err != nil {
		return dataframe.DataFrame{}, stats, err
	}
	stats.RowsCollapsed = collapsed
	stats.RowsOut = out.Nrow()
	return out, stats, nil
}

func derive(rows []model.Result) []model.Features {
	feats := make([]model.Features, len(rows))
	for i, r := range rows {
		f := model.Features{Result: r, IsOnPodium: r.Podium()}
		if !r.Birthday.IsZero() {
			f.AgeSpan = r.StatusAsOf.Sub(r.Birthday)
			f.HasAge = true
		}
		if r.HasFirstSeason {
			f.YearsActive = r.StatusAsOf.Year() - int(r.FirstSeason)
			f.HasYearsActive = true
		}
		feats[i] = f
	}
	return feats
}

// trimWarmUp drops every row in the earliest calendar year present.
func trimWarmUp(feats []model.Features) []model.Features {
	if len(feats) == 0 {
		return feats
	}
	minYear := feats[0].StatusAsOf.Year()
	for _, f := range feats[1:] {
		if y := f.StatusAsOf.Year(); y < minYear {
			minYear = y
		}
	}
	kept := make([]model.Features, 0, len(feats))
	for _, f := range feats {
		if f.StatusAsOf.Year() != minYear {
			kept = append(kept, f)
		}
	}
	return kept
}

// encode lays the features out as a table: the input columns minus the dropped
// ones, then the engineered columns.
func (b *Builder) encode(df dataframe.DataFrame, feats []model.Features) (dataframe.DataFrame, error) {
	engineered := b.engineeredColumns(feats)
	skip := make(map[string]struct{}, len(b.dropColumns)+len(engineered))
	for _, c := range b.dropColumns {
		skip[c] = struct{}{}
	}
	for _, s := range engineered {
		skip[s.Name] = struct{}{}
	}

	src := make([]int, len(feats))
	for i, f := range feats {
		src[i] = f.Row
	}

	cols := make([]series.Series, 0, df.Ncol()+len(engineered))
	for _, name := range df.Names() {
		if _, ok := skip[name]; ok {
			continue
		}
		switch name {
		case ColStatusAsOf:
			cols = append(cols, table.Column(name, series.String, cells(feats, func(f model.Features) string {
				return f.StatusAsOf.Format(DateLayout)
			})))
		case ColBirthday:
			cols = append(cols, table.Column(name, series.String, cells(feats, func(f model.Features) string {
				if f.Birthday.IsZero() {
					return table.NA
				}
				return f.Birthday.Format(DateLayout)
			})))
		case ColCompRank:
			cols = append(cols, table.Column(name, series.Int, cells(feats, func(f model.Features) string {
				return strconv.Itoa(f.CompRank)
			})))
		case ColFirstSeason:
			cols = append(cols, table.Column(name, series.Int, cells(feats, func(f model.Features) string {
				if !f.HasFirstSeason {
					return table.NA
				}
				return strconv.FormatUint(uint64(f.FirstSeason), 10)
			})))
		default:
			cols = append(cols, df.Col(name).Subset(src))
		}
	}
	cols = append(cols, engineered...)
	return table.New(cols...)
}

func (b *Builder) engineeredColumns(feats []model.Features) []series.Series {
	cols := []series.Series{
		table.Column(ColAgeInDays, series.Int, cells(feats, func(f model.Features) string {
			if !f.HasAge {
				return table.NA
			}
			return strconv.Itoa(f.AgeInDays)
		})),
		table.Column(ColYearsActive, series.Int, cells(feats, func(f model.Features) string {
			if !f.HasYearsActive {
				return table.NA
			}
			return strconv.Itoa(f.YearsActive)
		})),
		table.Column(ColIsOnPodium, series.Int, cells(feats, func(f model.Features) string {
			return strconv.Itoa(int(f.IsOnPodium))
		})),
	}
	for i, c := range b.cohorts {
		cols = append(cols, table.Column(c.Column, series.Int, cells(feats, func(f model.Features) string {
			return strconv.Itoa(f.Cohorts[i])
		})))
	}
	for i, w := range b.watch {
		cols = append(cols, table.Column(w.Column, series.Int, cells(feats, func(f model.Features) string {
			return strconv.Itoa(int(f.Watched[i]))
		})))
	}
	cols = append(cols,
		table.Column(ColEventsLastYear, series.Int, cells(feats, historyInt(func(h model.History) int { return h.Events }))),
		table.Column(ColPodiumsLastYear, series.Int, cells(feats, historyInt(func(h model.History) int { return h.Podiums }))),
		table.Column(ColFinalsLastYear, series.Int, cells(feats, historyInt(func(h model.History) int { return h.Finals }))),
		table.Column(ColSemisLastYear, series.Int, cells(feats, historyInt(func(h model.History) int { return h.Semis }))),
		table.Column(ColAvgRankLastYear, series.Float, cells(feats, func(f model.Features) string {
			if !f.HasHistory {
				return table.NA
			}
			return formatFloat(f.History.AvgRank)
		})),
		table.Column(ColProgressionToSemi, series.Float, cells(feats, func(f model.Features) string {
			if !f.HasHistory {
				return table.NA
			}
			return formatFloat(f.ProgressionToSemi)
		})),
		table.Column(ColProgressionToFinal, series.Float, cells(feats, func(f model.Features) string {
			if !f.HasHistory {
				return table.NA
			}
			return formatFloat(f.ProgressionToFinal)
		})),
	)
	return cols
}

// historyInt renders a trailing count, missing when the join found no history.
func historyInt(get func(model.History) int) func(model.Features) string {
	return func(f model.Features) string {
		if !f.HasHistory {
			return table.NA
		}
		return strconv.Itoa(get(f.History))
	}
}

func cells(feats []model.Features, cell func(model.Features) string) []string {
	out := make([]string, len(feats))
	for i, f := range feats {
		out[i] = cell(f)
	}
	return out
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return table.NA
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, table.ErrColumnNotFound):
		return "column_not_found"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrJoinCardinality):
		return "join_cardinality"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
