package modelling

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"

	"github.com/okian/ascent/internal/adapters/table"
)

// Prefixes of encoded column names.
const (
	PrefixCategorical = "cat__"
	PrefixAthlete     = "ath__"
	PrefixRemainder   = "remainder__"
)

// AthleteColumn is one-hot encoded as its own block.
const AthleteColumn = "athlete_id"

type categorical struct {
	column string
	prefix string
	levels []string       // kept levels, first sorted level dropped
	index  map[string]int // level -> output offset within the block
}

// Encoder one-hot encodes categorical columns and passes numerical columns
// through. The first sorted level of each categorical column is dropped, and
// levels unseen at fit time encode as all zeros.
type Encoder struct {
	categorical []categorical
	numerical   []string
	names       []string
}

// FitEncoder learns the categorical levels from ds.
func FitEncoder(ds Dataset) (*Encoder, error) {
	e := &Encoder{numerical: ds.Features.Numerical}

	var cats, athletes []string
	for _, c := range ds.Features.Categorical {
		if c == AthleteColumn {
			athletes = append(athletes, c)
		} else {
			cats = append(cats, c)
		}
	}
	for _, block := range []struct {
		prefix string
		cols   []string
	}{{PrefixCategorical, cats}, {PrefixAthlete, athletes}} {
		for _, col := range block.cols {
			cells, err := table.Strings(ds.X, col)
			if err != nil {
				return nil, err
			}
			e.categorical = append(e.categorical, fitLevels(col, block.prefix, cells))
		}
	}

	for _, c := range e.categorical {
		for _, l := range c.levels {
			e.names = append(e.names, c.prefix+c.column+"_"+l)
		}
	}
	for _, n := range e.numerical {
		e.names = append(e.names, PrefixRemainder+n)
	}
	return e, nil
}

func fitLevels(col, prefix string, cells []string) categorical {
	seen := make(map[string]struct{}, len(cells))
	var levels []string
	for _, c := range cells {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			levels = append(levels, c)
		}
	}
	sort.Strings(levels)
	if len(levels) > 0 {
		levels = levels[1:]
	}
	index := make(map[string]int, len(levels))
	for i, l := range levels {
		index[l] = i
	}
	return categorical{column: col, prefix: prefix, levels: levels, index: index}
}

// FeatureNamesOut lists the encoded column names in output order.
func (e *Encoder) FeatureNamesOut() []string {
	return append([]string(nil), e.names...)
}

// Transform encodes X into a dense matrix. Missing or non-numeric numerical
// cells become NaN.
func (e *Encoder) Transform(X dataframe.DataFrame) (*mat.Dense, error) {
	rows, cols := X.Nrow(), len(e.names)
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: cannot encode a %dx%d table", ErrTooFewSamples, rows, cols)
	}
	data := make([]float64, rows*cols)

	offset := 0
	for _, c := range e.categorical {
		cells, err := table.Strings(X, c.column)
		if err != nil {
			return nil, err
		}
		for i, cell := range cells {
			if j, ok := c.index[cell]; ok {
				data[i*cols+offset+j] = 1
			}
		}
		offset += len(c.levels)
	}
	for _, n := range e.numerical {
		cells, err := table.Strings(X, n)
		if err != nil {
			return nil, err
		}
		for i, cell := range cells {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || table.IsMissing(cell) {
				v = math.NaN()
			}
			data[i*cols+offset] = v
		}
		offset++
	}
	return mat.NewDense(rows, cols, data), nil
}
