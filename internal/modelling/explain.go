package modelling

import (
	"context"
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
)

// Explain runs ex over X and returns the attribution under clean feature names.
// Every row must carry one value per feature name.
func Explain(ctx context.Context, ex Explainer, m Model, X dataframe.DataFrame) (Attribution, error) {
	a, err := ex.Explain(ctx, m, X)
	if err != nil {
		return Attribution{}, err
	}
	if len(a.Values) != X.Nrow() {
		return Attribution{}, fmt.Errorf("%w: %d rows of values for %d input rows", ErrAttributionShape, len(a.Values), X.Nrow())
	}
	for i, row := range a.Values {
		if len(row) != len(a.Names) {
			return Attribution{}, fmt.Errorf("%w: row %d has %d values for %d names", ErrAttributionShape, i, len(row), len(a.Names))
		}
	}
	a.Names = CleanFeatureNames(a.Names)
	return a, nil
}

// LinearExplainer attributes the log-odds of a logistic pipeline. Feature j of
// row i gets w_j * (x_ij - mean_j), with means taken over the explained rows,
// and Base is the log-odds at the means.
type LinearExplainer struct{}

// Explain implements Explainer.
func (LinearExplainer) Explain(ctx context.Context, m Model, X dataframe.DataFrame) (Attribution, error) {
	p, ok := m.(*Pipeline)
	if !ok {
		return Attribution{}, fmt.Errorf("%w: %T", ErrUnsupportedModel, m)
	}
	lm, ok := p.Estimator.(*LogisticModel)
	if !ok {
		return Attribution{}, fmt.Errorf("%w: %T", ErrUnsupportedModel, p.Estimator)
	}
	if err := ctx.Err(); err != nil {
		return Attribution{}, err
	}

	enc, err := p.Encoder.Transform(X)
	if err != nil {
		return Attribution{}, err
	}
	rows, cols := enc.Dims()
	if cols != len(lm.Weights) {
		return Attribution{}, fmt.Errorf("%w: %d columns, model has %d", ErrFeatureMismatch, cols, len(lm.Weights))
	}

	means := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j, v := range enc.RawRowView(i) {
			means[j] += zeroNaN(v)
		}
	}
	base := lm.Intercept
	for j := range means {
		means[j] /= float64(rows)
		base += lm.Weights[j] * means[j]
	}

	values := make([][]float64, rows)
	for i := range values {
		row := enc.RawRowView(i)
		values[i] = make([]float64, cols)
		for j, v := range row {
			values[i][j] = lm.Weights[j] * (zeroNaN(v) - means[j])
		}
	}
	return Attribution{Names: p.FeatureNamesOut(), Values: values, Base: base}, nil
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
