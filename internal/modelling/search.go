package modelling

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/okian/ascent/pkg/logger"
	"github.com/okian/ascent/pkg/metrics"
)

// ParamSpace maps each hyperparameter to the discrete values it may take.
type ParamSpace map[string][]any

// SearchResult is the outcome of RandomizedSearch.
type SearchResult struct {
	Model      Model     // best candidate refit on the whole dataset
	Score      float64   // mean average precision of the best candidate
	Params     Params    // best candidate
	Candidates []Params  // every evaluated candidate, in sampling order
	Scores     []float64 // aligned with Candidates
}

type searchConfig struct {
	iterations int
	seed       int64
	splits     int
	workers    int
	logger     logger.Logger
}

// SearchOption configures RandomizedSearch.
type SearchOption func(*searchConfig)

// WithIterations sets how many candidates are sampled.
func WithIterations(n int) SearchOption {
	return func(c *searchConfig) {
		if n > 0 {
			c.iterations = n
		}
	}
}

// WithSeed sets the sampling seed.
func WithSeed(seed int64) SearchOption {
	return func(c *searchConfig) { c.seed = seed }
}

// WithSplits sets the number of time-series folds.
func WithSplits(n int) SearchOption {
	return func(c *searchConfig) { c.splits = n }
}

// WithWorkers bounds how many candidates are evaluated at once.
func WithWorkers(n int) SearchOption {
	return func(c *searchConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithSearchLogger sets a custom logger for the search.
func WithSearchLogger(l logger.Logger) SearchOption {
	return func(c *searchConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// RandomizedSearch samples candidates from space, scores each by its mean
// average precision over time-series folds of ds, and refits the best one on
// all of ds. Rows of ds must be in time order. Candidates are sampled before any
// evaluation and equal scores go to the earliest candidate, so the result does
// not depend on the number of workers.
func RandomizedSearch(ctx context.Context, t Trainer, ds Dataset, space ParamSpace, opts ...SearchOption) (SearchResult, error) {
	cfg := searchConfig{
		iterations: 500,
		seed:       42,
		splits:     3,
		workers:    runtime.NumCPU(),
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	res, err := randomizedSearch(ctx, t, ds, space, cfg)
	metrics.ObserveStage(metrics.StageSearch, time.Since(start))
	if err != nil {
		metrics.RecordStageError(metrics.StageSearch, searchErrorKind(err))
		cfg.logger.Error(ctx, "hyperparameter search failed", logger.Error(err))
		return SearchResult{}, err
	}
	metrics.SetBestScore(res.Score)
	cfg.logger.Info(ctx, "hyperparameter search finished",
		logger.Int("candidates", len(res.Candidates)),
		logger.Float64("best_score", res.Score),
		logger.Any("best_params", res.Params),
		logger.Duration("took", time.Since(start)),
	)
	return res, nil
}

func randomizedSearch(ctx context.Context, t Trainer, ds Dataset, space ParamSpace, cfg searchConfig) (SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return SearchResult{}, err
	}
	candidates, err := sampleCandidates(space, cfg.iterations, cfg.seed)
	if err != nil {
		return SearchResult{}, err
	}
	folds, err := TimeSeriesSplit(ds.Len(), cfg.splits)
	if err != nil {
		return SearchResult{}, err
	}
	type foldData struct{ train, test Dataset }
	data := make([]foldData, len(folds))
	for i, f := range folds {
		if data[i].train, err = ds.Subset(f.Train); err != nil {
			return SearchResult{}, err
		}
		if data[i].test, err = ds.Subset(f.Test); err != nil {
			return SearchResult{}, err
		}
	}

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	pool := pond.NewResultPool[float64](cfg.workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	waits := make([]func() (float64, error), len(candidates))
	for i, params := range candidates {
		waits[i] = pool.SubmitErr(func() (float64, error) {
			var sum float64
			for _, fd := range data {
				if err := ctx.Err(); err != nil {
					return 0, err
				}
				m, err := t.Fit(ctx, fd.train, params)
				if err != nil {
					return 0, err
				}
				proba, err := m.PredictProba(fd.test.X)
				if err != nil {
					return 0, err
				}
				ap, err := AveragePrecision(fd.test.Y, proba)
				if err != nil {
					return 0, err
				}
				sum += ap
			}
			return sum / float64(len(data)), nil
		}).Wait
	}

	scores := make([]float64, len(candidates))
	best := 0
	for i, wait := range waits {
		score, err := wait()
		if err != nil {
			cancel()
			if perr := parent.Err(); perr != nil {
				return SearchResult{}, perr
			}
			return SearchResult{}, fmt.Errorf("candidate %d: %w", i, err)
		}
		scores[i] = score
		metrics.RecordCandidate(score)
		if score > scores[best] {
			best = i
		}
	}

	model, err := t.Fit(ctx, ds, candidates[best])
	if err != nil {
		return SearchResult{}, fmt.Errorf("refit best candidate: %w", err)
	}
	return SearchResult{
		Model:      model,
		Score:      scores[best],
		Params:     candidates[best],
		Candidates: candidates,
		Scores:     scores,
	}, nil
}

// sampleCandidates draws n distinct points of the grid spanned by space. When
// the grid has at most n points every point is returned in grid order.
func sampleCandidates(space ParamSpace, n int, seed int64) ([]Params, error) {
	keys := make([]string, 0, len(space))
	for k, values := range space {
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: %q has no values", ErrEmptySearchSpace, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	size := 1
	for _, k := range keys {
		if size > math.MaxInt/len(space[k]) {
			size = math.MaxInt
			break
		}
		size *= len(space[k])
	}

	decode := func(idx int) Params {
		p := make(Params, len(keys))
		for i := len(keys) - 1; i >= 0; i-- {
			values := space[keys[i]]
			p[keys[i]] = values[idx%len(values)]
			idx /= len(values)
		}
		return p
	}

	if n >= size {
		out := make([]Params, size)
		for i := range out {
			out[i] = decode(i)
		}
		return out, nil
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible sampling, not security
	seen := make(map[int]struct{}, n)
	out := make([]Params, 0, n)
	for len(out) < n {
		idx := int(rng.Int63n(int64(size)))
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, decode(idx))
	}
	return out, nil
}

func searchErrorKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrTooFewSamples):
		return "too_few_samples"
	case errors.Is(err, ErrEmptySearchSpace), errors.Is(err, ErrInvalidParams):
		return "invalid_params"
	default:
		return "internal"
	}
}
