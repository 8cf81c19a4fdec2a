package modelling

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Hyperparameters read by Logistic.
const (
	ParamLearningRate   = "learning_rate"
	ParamMaxIter        = "max_iter"
	ParamL2             = "l2"
	ParamScalePosWeight = "scale_pos_weight"
)

// Logistic is a batch gradient descent logistic regression. NaN inputs are
// treated as zero.
type Logistic struct{}

// LogisticModel is a fitted Logistic.
type LogisticModel struct {
	Weights   []float64
	Intercept float64
}

// Fit minimizes the weighted log loss with an optional L2 penalty.
func (Logistic) Fit(ctx context.Context, X *mat.Dense, y []int, params Params) (Estimator, error) {
	lr, err := floatParam(params, ParamLearningRate, 0.1)
	if err != nil {
		return nil, err
	}
	iters, err := intParam(params, ParamMaxIter, 200)
	if err != nil {
		return nil, err
	}
	l2, err := floatParam(params, ParamL2, 0)
	if err != nil {
		return nil, err
	}
	posWeight, err := floatParam(params, ParamScalePosWeight, 1)
	if err != nil {
		return nil, err
	}
	if lr <= 0 || iters <= 0 || l2 < 0 || posWeight <= 0 {
		return nil, fmt.Errorf("%w: learning_rate=%v max_iter=%d l2=%v scale_pos_weight=%v",
			ErrInvalidParams, lr, iters, l2, posWeight)
	}

	rows, cols := X.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("%w: %d rows and %d labels", ErrFeatureMismatch, rows, len(y))
	}

	m := &LogisticModel{Weights: make([]float64, cols)}
	grad := make([]float64, cols)
	for it := 0; it < iters; it++ {
		if it%50 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for j := range grad {
			grad[j] = 0
		}
		var gradB, total float64
		for i := 0; i < rows; i++ {
			row := X.RawRowView(i)
			w := 1.0
			if y[i] == 1 {
				w = posWeight
			}
			diff := w * (sigmoid(m.score(row)) - float64(y[i]))
			for j, v := range row {
				if !math.IsNaN(v) {
					grad[j] += diff * v
				}
			}
			gradB += diff
			total += w
		}
		for j := range m.Weights {
			m.Weights[j] -= lr * (grad[j]/total + l2*m.Weights[j])
		}
		m.Intercept -= lr * gradB / total
	}
	return m, nil
}

func (m *LogisticModel) score(row []float64) float64 {
	z := m.Intercept
	for j, v := range row {
		if !math.IsNaN(v) {
			z += m.Weights[j] * v
		}
	}
	return z
}

// PredictProba returns the positive class probability per row.
func (m *LogisticModel) PredictProba(X *mat.Dense) ([]float64, error) {
	rows, cols := X.Dims()
	if cols != len(m.Weights) {
		return nil, fmt.Errorf("%w: %d columns, model has %d", ErrFeatureMismatch, cols, len(m.Weights))
	}
	out := make([]float64, rows)
	for i := range out {
		out[i] = sigmoid(m.score(X.RawRowView(i)))
	}
	return out, nil
}

// FeatureImportances are the absolute weights normalized to sum to one.
func (m *LogisticModel) FeatureImportances() []float64 {
	out := make([]float64, len(m.Weights))
	var sum float64
	for j, w := range m.Weights {
		out[j] = math.Abs(w)
		sum += out[j]
	}
	if sum == 0 {
		return out
	}
	for j := range out {
		out[j] /= sum
	}
	return out
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func floatParam(p Params, key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T", ErrInvalidParams, key, v)
	}
}

func intParam(p Params, key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%w: %s is not an integer", ErrInvalidParams, key)
		}
		return int(x), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T", ErrInvalidParams, key, v)
	}
}
