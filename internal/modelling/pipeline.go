package modelling

import (
	"context"
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// Threshold separates the classes in Predict.
const Threshold = 0.5

// Pipeline is an Encoder followed by an Estimator.
type Pipeline struct {
	Encoder   *Encoder
	Estimator Estimator
}

// PipelineTrainer fits an Encoder and then Classifier on the encoded rows.
type PipelineTrainer struct {
	Classifier Classifier
}

// Fit implements Trainer.
func (t PipelineTrainer) Fit(ctx context.Context, ds Dataset, params Params) (Model, error) {
	if t.Classifier == nil {
		return nil, fmt.Errorf("%w: no classifier stage", ErrUnsupportedModel)
	}
	enc, err := FitEncoder(ds)
	if err != nil {
		return nil, err
	}
	X, err := enc.Transform(ds.X)
	if err != nil {
		return nil, err
	}
	est, err := t.Classifier.Fit(ctx, X, ds.Y, params)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Encoder: enc, Estimator: est}, nil
}

// PredictProba implements Model.
func (p *Pipeline) PredictProba(X dataframe.DataFrame) ([]float64, error) {
	enc, err := p.Encoder.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.Estimator.PredictProba(enc)
}

// Predict implements Model.
func (p *Pipeline) Predict(X dataframe.DataFrame) ([]int, error) {
	proba, err := p.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(proba))
	for i, v := range proba {
		if v >= Threshold {
			out[i] = 1
		}
	}
	return out, nil
}

// FeatureNamesOut implements Model.
func (p *Pipeline) FeatureNamesOut() []string { return p.Encoder.FeatureNamesOut() }

// FeatureImportances implements Model.
func (p *Pipeline) FeatureImportances() []float64 { return p.Estimator.FeatureImportances() }
