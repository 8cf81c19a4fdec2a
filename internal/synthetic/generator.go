package synthetic

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/okian/ascent/internal/adapters/table"
	"github.com/okian/ascent/pkg/logger"
)

const (
	firstAthleteID = 1100
	seasonStart    = time.March
	seasonDays     = 240
	bornAfter      = 1985
	bornSpanDays   = 20 * 365
	rookieAge      = 15
)

// Round names in the order athletes progress through them.
const (
	RoundQualification = "Qualification"
	RoundSemi          = "Semi-final"
	RoundFinal         = "Final"
)

// Columns lists the generated columns in output order.
var Columns = []string{
	"event_id", "athlete_id", "athlete_country", "dcat", "round", "score",
	"round_rank", "comp_rank", "status_as_of", "birthday", "first_season",
}

type athlete struct {
	id          string
	country     string
	strength    float64
	birthday    string
	firstSeason int
}

type contest struct {
	eventID string
	dcat    string
	asOf    time.Time
	seed    int64
}

// Generate builds a raw results table. The same Config always yields the
// same table regardless of Workers.
func Generate(ctx context.Context, cfg Config, log logger.Logger) (dataframe.DataFrame, error) {
	if err := cfg.validate(); err != nil {
		return dataframe.DataFrame{}, err
	}
	if log == nil {
		log = logger.Nop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	athletes := roster(cfg)
	contests := schedule(cfg)
	log.Info(ctx, "generating results",
		logger.Int("athletes", len(athletes)),
		logger.Int("contests", len(contests)),
		logger.Int("workers", workers),
	)

	pool := pond.NewResultPool[[][]string](workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	waits := make([]func() ([][]string, error), len(contests))
	for i, c := range contests {
		waits[i] = pool.SubmitErr(func() ([][]string, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return simulate(cfg, c, athletes), nil
		}).Wait
	}

	cells := make([][]string, len(Columns))
	for i, wait := range waits {
		rows, err := wait()
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return dataframe.DataFrame{}, fmt.Errorf("context cancelled during generation: %w", cerr)
			}
			return dataframe.DataFrame{}, fmt.Errorf("failed to generate contest %d: %w", i, err)
		}
		for _, row := range rows {
			for j, v := range row {
				cells[j] = append(cells[j], v)
			}
		}
	}

	cols := make([]series.Series, len(Columns))
	for i, name := range Columns {
		cols[i] = table.Column(name, series.String, cells[i])
	}
	df, err := table.New(cols...)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	log.Info(ctx, "generated results", logger.Int("rows", df.Nrow()))
	return df, nil
}

func roster(cfg Config) []athlete {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible fixtures
	lastSeason := cfg.FirstYear + cfg.Years - 1
	out := make([]athlete, cfg.Athletes)
	for i := range out {
		born := time.Date(bornAfter, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rng.Intn(bornSpanDays))
		first := born.Year() + rookieAge + rng.Intn(4)
		if first > lastSeason {
			first = lastSeason
		}
		out[i] = athlete{
			id:          strconv.Itoa(firstAthleteID + i),
			country:     cfg.Countries[i%len(cfg.Countries)],
			strength:    rng.NormFloat64(),
			birthday:    born.Format(time.DateOnly),
			firstSeason: first,
		}
	}
	return out
}

func schedule(cfg Config) []contest {
	gap := seasonDays / cfg.EventsPerYear
	var out []contest
	for y := 0; y < cfg.Years; y++ {
		year := cfg.FirstYear + y
		for e := 0; e < cfg.EventsPerYear; e++ {
			slot := y*cfg.EventsPerYear + e
			asOf := time.Date(year, seasonStart, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, e*gap)
			for _, dcat := range cfg.Categories {
				out = append(out, contest{
					eventID: strconv.Itoa(slot + 1),
					dcat:    dcat,
					asOf:    asOf,
					seed:    cfg.Seed + int64(len(out)) + 1,
				})
			}
		}
	}
	return out
}

// simulate draws the field of one contest and emits a row per athlete and
// round reached.
func simulate(cfg Config, c contest, athletes []athlete) [][]string {
	rng := rand.New(rand.NewSource(c.seed)) //nolint:gosec // reproducible fixtures

	type entry struct {
		a    athlete
		perf float64
	}
	var field []entry
	for _, a := range athletes {
		// Draws happen for every athlete to keep the stream aligned.
		enter := rng.Float64()
		noise := rng.NormFloat64()
		if enter < cfg.Participation {
			field = append(field, entry{a: a, perf: a.strength + 0.5*noise})
		}
	}
	sort.SliceStable(field, func(i, j int) bool { return field[i].perf > field[j].perf })

	asOf := c.asOf.Format("2006-01-02 15:04:05 MST")
	var rows [][]string
	for i, e := range field {
		rank := strconv.Itoa(i + 1)
		for _, round := range reached(i+1, cfg) {
			rows = append(rows, []string{
				c.eventID,
				e.a.id,
				e.a.country,
				c.dcat,
				round,
				score(e.perf, round),
				rank,
				rank,
				asOf,
				e.a.birthday,
				strconv.Itoa(e.a.firstSeason),
			})
		}
	}
	return rows
}

func reached(rank int, cfg Config) []string {
	switch {
	case rank <= cfg.FinalCut:
		return []string{RoundQualification, RoundSemi, RoundFinal}
	case rank <= cfg.SemiCut:
		return []string{RoundQualification, RoundSemi}
	default:
		return []string{RoundQualification}
	}
}

// score renders a boulder style tops and zones score that tightens in later rounds.
func score(perf float64, round string) string {
	bonus := map[string]float64{RoundQualification: 2, RoundSemi: 1.5, RoundFinal: 1}[round]
	tops := clamp(int(perf+bonus), 0, 4)
	zones := clamp(tops+1, 0, 4)
	return fmt.Sprintf("%dT%dz", tops, zones)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
