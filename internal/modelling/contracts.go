// Package modelling trains, tunes and explains the podium classifier on the
// feature table: a one-hot encoding stage with named output columns followed by
// a classifier stage.
package modelling

import (
	"context"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
)

// Params are hyperparameters keyed by name.
type Params map[string]any

// Model is a fitted two-stage model.
type Model interface {
	// Predict returns the 0/1 class of every row.
	Predict(X dataframe.DataFrame) ([]int, error)
	// PredictProba returns the probability of the positive class of every row.
	PredictProba(X dataframe.DataFrame) ([]float64, error)
	// FeatureNamesOut lists the encoded column names the classifier sees.
	FeatureNamesOut() []string
	// FeatureImportances is aligned with FeatureNamesOut.
	FeatureImportances() []float64
}

// Trainer fits a Model on a dataset.
type Trainer interface {
	Fit(ctx context.Context, ds Dataset, params Params) (Model, error)
}

// Estimator is a fitted classifier stage over encoded features.
type Estimator interface {
	PredictProba(X *mat.Dense) ([]float64, error)
	FeatureImportances() []float64
}

// Classifier fits the classifier stage.
type Classifier interface {
	Fit(ctx context.Context, X *mat.Dense, y []int, params Params) (Estimator, error)
}

// Attribution holds one value per row and encoded feature. Names has the
// same length as every row of Values.
type Attribution struct {
	Names  []string
	Values [][]float64
	Base   float64
}

// Explainer computes per-row feature attributions of a model.
type Explainer interface {
	Explain(ctx context.Context, m Model, X dataframe.DataFrame) (Attribution, error)
}
