package features

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/okian/ascent/internal/adapters/table"
	"github.com/okian/ascent/internal/domain/model"
)

// normalize decodes every input row into a typed Result and returns them sorted
// by status_as_of, ties in source order.
func (b *Builder) normalize(df dataframe.DataFrame) ([]model.Result, error) {
	text := make(map[string][]string, len(requiredColumns))
	for _, col := range []string{ColEventID, ColAthleteID, ColAthleteCountry, ColDCat, ColRound, ColStatusAsOf, ColBirthday} {
		cells, err := table.Strings(df, col)
		if err != nil {
			return nil, err
		}
		text[col] = cells
	}
	ranks := df.Col(ColCompRank)
	seasons := df.Col(ColFirstSeason)

	rows := make([]model.Result, df.Nrow())
	for i := range rows {
		r := model.Result{
			Row:            i,
			EventID:        text[ColEventID][i],
			AthleteID:      text[ColAthleteID][i],
			AthleteCountry: text[ColAthleteCountry][i],
			DCat:           text[ColDCat][i],
			Round:          text[ColRound][i],
		}

		rank, err := intCell(ranks.Elem(i))
		if err != nil {
			return nil, parseError(ColCompRank, i, ranks.Elem(i).String(), err)
		}
		r.CompRank = rank

		at, err := b.parseTimestamp(text[ColStatusAsOf][i])
		if err != nil {
			return nil, parseError(ColStatusAsOf, i, text[ColStatusAsOf][i], err)
		}
		r.StatusAsOf = at

		if cell := text[ColBirthday][i]; !table.IsMissing(cell) {
			born, err := time.Parse(b.birthdayLayout, cell)
			if err != nil {
				return nil, parseError(ColBirthday, i, cell, err)
			}
			r.Birthday = toDate(born)
		}

		season, ok, err := uintCell(seasons.Elem(i))
		if err != nil {
			return nil, parseError(ColFirstSeason, i, seasons.Elem(i).String(), err)
		}
		r.FirstSeason, r.HasFirstSeason = season, ok

		rows[i] = r
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].StatusAsOf.Before(rows[j].StatusAsOf) })
	return rows, nil
}

func (b *Builder) parseTimestamp(cell string) (time.Time, error) {
	if table.IsMissing(cell) {
		return time.Time{}, fmt.Errorf("missing value")
	}
	var firstErr error
	for _, layout := range b.timestampLayouts {
		t, err := time.Parse(layout, cell)
		if err == nil {
			return toDate(t), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// toDate truncates an instant to its calendar date in its own zone, as UTC
// midnight.
func toDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intCell(e series.Element) (int, error) {
	if e.IsNA() {
		return 0, fmt.Errorf("missing value")
	}
	if e.Type() == series.Float {
		f := e.Float()
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("not an integer")
		}
		return int(f), nil
	}
	return e.Int()
}

// uintCell reports false for a missing cell.
func uintCell(e series.Element) (uint32, bool, error) {
	if e.IsNA() || table.IsMissing(e.String()) {
		return 0, false, nil
	}
	if e.Type() == series.Float {
		f := e.Float()
		if f < 0 || f != math.Trunc(f) || f > math.MaxUint32 {
			return 0, false, fmt.Errorf("not an unsigned 32-bit integer")
		}
		return uint32(f), true, nil
	}
	v, err := strconv.ParseUint(e.String(), 10, 32)
	if err != nil {
		return 0, false, err
	}
	return uint32(v), true, nil
}

func parseError(col string, row int, value string, cause error) error {
	return fmt.Errorf("%w: column %q row %d value %q: %v", ErrParse, col, row, value, cause)
}
