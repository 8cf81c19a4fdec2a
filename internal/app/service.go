// Package service composes the feature builder, the splitter and the optional
// training stage into one pipeline run.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"

	"github.com/okian/ascent/internal/domain/features"
	"github.com/okian/ascent/internal/domain/split"
	"github.com/okian/ascent/internal/modelling"
	"github.com/okian/ascent/pkg/logger"
)

// Result holds the tables produced by one run.
type Result struct {
	RunID    string
	Features dataframe.DataFrame
	Train    dataframe.DataFrame
	Test     dataframe.DataFrame
}

// Evaluation is the outcome of the training stage.
type Evaluation struct {
	Search           modelling.SearchResult
	TestAvgPrecision float64
	TopFeatures      []modelling.Importance
	// Attribution explains the test table predictions. Empty when no explainer
	// is set or the model is not supported by it.
	Attribution modelling.Attribution
}

// Service runs the pipeline.
type Service struct {
	// Feature stage
	builderOpts []features.Option

	// Split stage
	orderBy     string
	partitionBy string
	testRatio   float64

	// Training stage
	trainer     modelling.Trainer
	featureSet  modelling.FeatureSet
	searchSpace modelling.ParamSpace
	searchOpts  []modelling.SearchOption
	topFeatures int
	explainer   modelling.Explainer

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFeatureOptions passes options to the feature builder.
func WithFeatureOptions(opts ...features.Option) Option {
	return func(s *Service) {
		s.builderOpts = append(s.builderOpts, opts...)
	}
}

// WithSplit sets the split columns and test ratio.
func WithSplit(orderBy, partitionBy string, testRatio float64) Option {
	return func(s *Service) {
		s.orderBy = orderBy
		s.partitionBy = partitionBy
		s.testRatio = testRatio
	}
}

// WithTrainer replaces the trainer used by Train.
func WithTrainer(t modelling.Trainer) Option {
	return func(s *Service) {
		if t != nil {
			s.trainer = t
		}
	}
}

// WithFeatureSet sets the model inputs and target.
func WithFeatureSet(fs modelling.FeatureSet) Option {
	return func(s *Service) {
		s.featureSet = fs
	}
}

// WithSearch sets the hyperparameter space and search options.
func WithSearch(space modelling.ParamSpace, opts ...modelling.SearchOption) Option {
	return func(s *Service) {
		s.searchSpace = space
		s.searchOpts = append(s.searchOpts, opts...)
	}
}

// WithTopFeatures sets how many importances Train reports.
func WithTopFeatures(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.topFeatures = n
		}
	}
}

// WithExplainer sets the explainer run over the test table. Nil disables it.
func WithExplainer(ex modelling.Explainer) Option {
	return func(s *Service) {
		s.explainer = ex
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		orderBy:     features.ColStatusAsOf,
		partitionBy: features.ColEventID,
		testRatio:   0.2,
		trainer:     modelling.PipelineTrainer{Classifier: modelling.Logistic{}},
		topFeatures: 10,
		explainer:   modelling.LinearExplainer{},
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run builds the feature table from raw results and splits it.
func (s *Service) Run(ctx context.Context, raw dataframe.DataFrame) (Result, error) {
	runID := uuid.NewString()
	log := s.logger.With(logger.String("run_id", runID))
	start := time.Now()

	log.Info(ctx, "pipeline run started", logger.Int("rows", raw.Nrow()))

	builder := features.New(append([]features.Option{features.WithLogger(log.Named("features"))}, s.builderOpts...)...)
	feats, err := builder.Build(ctx, raw)
	if err != nil {
		return Result{}, fmt.Errorf("build features: %w", err)
	}

	train, test, err := split.TrainTestSplit(ctx, feats, s.orderBy, s.partitionBy, s.testRatio,
		split.WithLogger(log.Named("split")))
	if err != nil {
		return Result{}, fmt.Errorf("split features: %w", err)
	}

	log.Info(ctx, "pipeline run finished",
		logger.Int("features", feats.Nrow()),
		logger.Int("train", train.Nrow()),
		logger.Int("test", test.Nrow()),
		logger.Duration("took", time.Since(start)),
	)
	return Result{RunID: runID, Features: feats, Train: train, Test: test}, nil
}

// Train tunes a model on the train table, scores it on the test table,
// reports its most important features and explains its test predictions.
func (s *Service) Train(ctx context.Context, res Result) (Evaluation, error) {
	log := s.logger.With(logger.String("run_id", res.RunID))

	trainSet, err := modelling.NewDataset(res.Train, s.featureSet)
	if err != nil {
		return Evaluation{}, fmt.Errorf("train dataset: %w", err)
	}
	testSet, err := modelling.NewDataset(res.Test, s.featureSet)
	if err != nil {
		return Evaluation{}, fmt.Errorf("test dataset: %w", err)
	}

	opts := append([]modelling.SearchOption{modelling.WithSearchLogger(log.Named("search"))}, s.searchOpts...)
	search, err := modelling.RandomizedSearch(ctx, s.trainer, trainSet, s.searchSpace, opts...)
	if err != nil {
		return Evaluation{}, fmt.Errorf("search: %w", err)
	}

	proba, err := search.Model.PredictProba(testSet.X)
	if err != nil {
		return Evaluation{}, fmt.Errorf("score test table: %w", err)
	}
	ap, err := modelling.AveragePrecision(testSet.Y, proba)
	if err != nil {
		return Evaluation{}, fmt.Errorf("score test table: %w", err)
	}
	top, err := modelling.TopImportances(search.Model, s.topFeatures)
	if err != nil {
		return Evaluation{}, fmt.Errorf("feature importances: %w", err)
	}

	var attribution modelling.Attribution
	if s.explainer != nil {
		attribution, err = modelling.Explain(ctx, s.explainer, search.Model, testSet.X)
		switch {
		case errors.Is(err, modelling.ErrUnsupportedModel):
			log.Warn(ctx, "model cannot be explained", logger.Error(err))
		case err != nil:
			return Evaluation{}, fmt.Errorf("explain test table: %w", err)
		}
	}

	names := make([]string, len(top))
	for i, imp := range top {
		names[i] = imp.Name
	}
	log.Info(ctx, "model trained",
		logger.Float64("cv_avg_precision", search.Score),
		logger.Float64("test_avg_precision", ap),
		logger.Any("params", search.Params),
		logger.Strings("top_features", names),
		logger.Int("explained_rows", len(attribution.Values)),
	)
	return Evaluation{Search: search, TestAvgPrecision: ap, TopFeatures: top, Attribution: attribution}, nil
}
