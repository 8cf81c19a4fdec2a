package features

import (
	"sort"
	"time"

	"github.com/okian/ascent/internal/domain/model"
)

// Window selects the rows of one athlete that precede an instant. Rows must be
// sorted by StatusAsOf ascending.
type Window interface {
	Select(rows []model.Result, t time.Time) []model.Result
}

type trailingYears struct {
	years int
}

// TrailingYears returns a window over [t - years calendar years, t). Rows at t
// itself are excluded. A Feb 29 anchor maps to Feb 28 of a non-leap start year.
func TrailingYears(years int) Window {
	return &trailingYears{years: years}
}

func (w *trailingYears) Select(rows []model.Result, t time.Time) []model.Result {
	start := yearsBefore(t, w.years)
	lo := sort.Search(len(rows), func(i int) bool { return !rows[i].StatusAsOf.Before(start) })
	hi := sort.Search(len(rows), func(i int) bool { return !rows[i].StatusAsOf.Before(t) })
	if lo >= hi {
		return nil
	}
	return rows[lo:hi]
}

func yearsBefore(t time.Time, years int) time.Time {
	y := t.Year() - years
	m := t.Month()
	d := t.Day()
	if last := daysIn(y, m); d > last {
		d = last
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
