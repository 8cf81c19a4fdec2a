// Package table holds the dataframe plumbing shared by the feature builder and
// the splitter: schema checks, column construction, row collapse and CSV IO.
package table

import (
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/okian/ascent/internal/domain/dedupe"
)

// NA is the cell text gota reads and writes for missing values.
const NA = "NaN"

// Require fails with ErrColumnNotFound naming the first absent column.
func Require(df dataframe.DataFrame, cols ...string) error {
	names := df.Names()
	for _, c := range cols {
		if !slices.Contains(names, c) {
			return fmt.Errorf("%w: %q", ErrColumnNotFound, c)
		}
	}
	return nil
}

// Strings returns the textual cells of a column, NA for missing values.
func Strings(df dataframe.DataFrame, col string) ([]string, error) {
	if err := Require(df, col); err != nil {
		return nil, err
	}
	s := df.Col(col)
	out := make([]string, s.Len())
	for i := range out {
		e := s.Elem(i)
		if e.IsNA() {
			out[i] = NA
			continue
		}
		out[i] = e.String()
	}
	return out, nil
}

// IsMissing reports whether a cell holds no value.
func IsMissing(cell string) bool {
	switch cell {
	case "", NA, "NA", "<nil>":
		return true
	}
	return false
}

// Column builds a typed series from cell text. Missing cells must be NA.
func Column(name string, t series.Type, cells []string) series.Series {
	return series.New(cells, t, name)
}

// New assembles columns into a dataframe, surfacing construction errors.
func New(cols ...series.Series) (dataframe.DataFrame, error) {
	df := dataframe.New(cols...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("assemble table: %w", df.Err)
	}
	return df, nil
}

// Subset selects rows by index, keeping the column types.
func Subset(df dataframe.DataFrame, idx []int) (dataframe.DataFrame, error) {
	if idx == nil {
		idx = []int{}
	}
	out := df.Subset(idx)
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("subset table: %w", out.Err)
	}
	return out, nil
}

// Distinct collapses exact-duplicate rows to their first occurrence and
// returns the collapsed table plus the number of rows removed. Float cells are
// compared at full precision.
func Distinct(df dataframe.DataFrame) (dataframe.DataFrame, int, error) {
	n := df.Nrow()
	if n <= 1 {
		return df, 0, nil
	}
	cols := make([][]string, df.Ncol())
	for j, name := range df.Names() {
		cols[j] = exactCells(df.Col(name))
	}
	keys := make([]string, n)
	row := make([]string, len(cols))
	for i := range keys {
		for j := range cols {
			row[j] = cols[j][i]
		}
		keys[i] = dedupe.Key(row...)
	}
	idx := dedupe.FirstOccurrences(keys)
	if len(idx) == len(keys) {
		return df, 0, nil
	}
	out, err := Subset(df, idx)
	if err != nil {
		return dataframe.DataFrame{}, 0, err
	}
	return out, len(keys) - len(idx), nil
}

// exactCells renders a column without the fixed precision gota uses for
// floats in Records.
func exactCells(s series.Series) []string {
	if s.Type() != series.Float {
		return s.Records()
	}
	out := make([]string, s.Len())
	for i := range out {
		e := s.Elem(i)
		if e.IsNA() {
			out[i] = NA
			continue
		}
		out[i] = strconv.FormatFloat(e.Float(), 'g', -1, 64)
	}
	return out
}

// ReadCSV loads a CSV file with every column as text so that parsing stays with
// the feature builder.
func ReadCSV(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer func() { _ = f.Close() }()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %v", ErrRead, path, df.Err)
	}
	return df, nil
}

// WriteCSV stores a dataframe as CSV with a header row.
func WriteCSV(path string, df dataframe.DataFrame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := df.WriteCSV(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}
