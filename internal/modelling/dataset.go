package modelling

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"github.com/okian/ascent/internal/adapters/table"
)

// FeatureSet names the model inputs and the binary target.
type FeatureSet struct {
	Categorical []string
	Numerical   []string
	Target      string
}

// Columns returns the input columns, categorical first.
func (fs FeatureSet) Columns() []string {
	out := make([]string, 0, len(fs.Categorical)+len(fs.Numerical))
	out = append(out, fs.Categorical...)
	return append(out, fs.Numerical...)
}

// Dataset is the selected inputs X and the 0/1 target Y, row aligned.
type Dataset struct {
	Features FeatureSet
	X        dataframe.DataFrame
	Y        []int
}

// NewDataset selects the feature columns and target from df.
func NewDataset(df dataframe.DataFrame, fs FeatureSet) (Dataset, error) {
	if err := table.Require(df, fs.Columns()...); err != nil {
		return Dataset{}, err
	}
	if err := table.Require(df, fs.Target); err != nil {
		return Dataset{}, err
	}

	target := df.Col(fs.Target)
	y := make([]int, target.Len())
	for i := range y {
		e := target.Elem(i)
		if e.IsNA() {
			return Dataset{}, fmt.Errorf("%w: %q row %d is missing", ErrInvalidTarget, fs.Target, i)
		}
		v := e.Float()
		switch v {
		case 0, 1:
			y[i] = int(v)
		default:
			return Dataset{}, fmt.Errorf("%w: %q row %d is %q, want 0 or 1", ErrInvalidTarget, fs.Target, i, e.String())
		}
	}

	x := df.Select(fs.Columns())
	if x.Err != nil {
		return Dataset{}, fmt.Errorf("select features: %w", x.Err)
	}
	return Dataset{Features: fs, X: x, Y: y}, nil
}

// Len is the number of rows.
func (d Dataset) Len() int { return len(d.Y) }

// Subset selects rows by index.
func (d Dataset) Subset(idx []int) (Dataset, error) {
	x, err := table.Subset(d.X, idx)
	if err != nil {
		return Dataset{}, err
	}
	y := make([]int, len(idx))
	for i, j := range idx {
		y[i] = d.Y[j]
	}
	return Dataset{Features: d.Features, X: x, Y: y}, nil
}

// Positives counts rows of the positive class.
func (d Dataset) Positives() int {
	n := 0
	for _, v := range d.Y {
		n += v
	}
	return n
}
