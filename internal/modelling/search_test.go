package modelling_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/ascent/internal/modelling"
)

// signModel scores rows by sign * x.
type signModel struct{ sign float64 }

func (m signModel) PredictProba(X dataframe.DataFrame) ([]float64, error) {
	x := X.Col("x").Float()
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = m.sign * v
	}
	return out, nil
}
func (m signModel) Predict(X dataframe.DataFrame) ([]int, error) { return nil, nil }
func (m signModel) FeatureNamesOut() []string                  { return []string{"remainder__x"} }
func (m signModel) FeatureImportances() []float64              { return []float64{1} }

type signTrainer struct{ fail bool }

func (t signTrainer) Fit(_ context.Context, _ modelling.Dataset, p modelling.Params) (modelling.Model, error) {
	sign := float64(p["sign"].(int))
	if t.fail && sign < 0 {
		return nil, errors.New("diverged")
	}
	return signModel{sign: sign}, nil
}

func TestTimeSeriesSplit(t *testing.T) {
	convey.Convey("Given ten samples", t, func() {
		convey.Convey("When split into three folds", func() {
			folds, err := modelling.TimeSeriesSplit(10, 3)

			convey.Convey("Then test blocks expand forward and end at the last row", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(folds, convey.ShouldHaveLength, 3)
				convey.So(folds[0].Train, convey.ShouldResemble, []int{0, 1, 2, 3})
				convey.So(folds[0].Test, convey.ShouldResemble, []int{4, 5})
				convey.So(folds[2].Train, convey.ShouldHaveLength, 8)
				convey.So(folds[2].Test, convey.ShouldResemble, []int{8, 9})
			})
		})

		convey.Convey("When more folds than samples are asked for", func() {
			_, err := modelling.TimeSeriesSplit(3, 3)

			convey.Convey("Then ErrTooFewSamples is returned", func() {
				convey.So(errors.Is(err, modelling.ErrTooFewSamples), convey.ShouldBeTrue)
			})
		})
	})
}

func TestAveragePrecision(t *testing.T) {
	convey.Convey("Given scored labels", t, func() {
		convey.Convey("Then precision is weighted by recall steps", func() {
			ap, err := modelling.AveragePrecision([]int{0, 0, 1, 1}, []float64{0.1, 0.4, 0.35, 0.8})
			convey.So(err, convey.ShouldBeNil)
			convey.So(ap, convey.ShouldAlmostEqual, 5.0/6.0, 1e-12)
		})

		convey.Convey("Then tied scores form a single threshold", func() {
			ap, err := modelling.AveragePrecision([]int{1, 0}, []float64{0.5, 0.5})
			convey.So(err, convey.ShouldBeNil)
			convey.So(ap, convey.ShouldEqual, 0.5)
		})

		convey.Convey("Then no positives scores zero", func() {
			ap, err := modelling.AveragePrecision([]int{0, 0}, []float64{0.5, 0.1})
			convey.So(err, convey.ShouldBeNil)
			convey.So(ap, convey.ShouldEqual, 0)
		})

		convey.Convey("Then mismatched lengths fail", func() {
			_, err := modelling.AveragePrecision([]int{0}, nil)
			convey.So(errors.Is(err, modelling.ErrFeatureMismatch), convey.ShouldBeTrue)
		})
	})
}

func TestRandomizedSearch(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a small grid and a dataset in time order", t, func() {
		ds, err := modelling.NewDataset(podiums(), features)
		convey.So(err, convey.ShouldBeNil)
		space := modelling.ParamSpace{"sign": {-1, 1}, "pad": {1, 2}}

		convey.Convey("When the grid is smaller than the iteration budget", func() {
			res, err := modelling.RandomizedSearch(ctx, signTrainer{}, ds, space, modelling.WithWorkers(4))

			convey.Convey("Then every grid point is evaluated and the first best wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Candidates, convey.ShouldHaveLength, 4)
				convey.So(res.Params, convey.ShouldResemble, modelling.Params{"pad": 1, "sign": 1})
				convey.So(res.Score, convey.ShouldAlmostEqual, 1, 1e-9)
				convey.So(res.Model, convey.ShouldResemble, signModel{sign: 1})
			})

			convey.Convey("Then the worker count does not change the outcome", func() {
				single, err := modelling.RandomizedSearch(ctx, signTrainer{}, ds, space, modelling.WithWorkers(1))
				convey.So(err, convey.ShouldBeNil)
				convey.So(single.Scores, convey.ShouldResemble, res.Scores)
				convey.So(single.Params, convey.ShouldResemble, res.Params)
			})
		})

		convey.Convey("When fewer candidates than grid points are sampled", func() {
			wide := modelling.ParamSpace{"sign": {-1, 1}, "pad": {0, 1, 2, 3, 4, 5, 6, 7, 8, 9}}
			a, errA := modelling.RandomizedSearch(ctx, signTrainer{}, ds, wide, modelling.WithIterations(5), modelling.WithSeed(7))
			b, errB := modelling.RandomizedSearch(ctx, signTrainer{}, ds, wide, modelling.WithIterations(5), modelling.WithSeed(7))

			convey.Convey("Then sampling is distinct and reproducible", func() {
				convey.So(errA, convey.ShouldBeNil)
				convey.So(errB, convey.ShouldBeNil)
				convey.So(a.Candidates, convey.ShouldHaveLength, 5)
				convey.So(a.Candidates, convey.ShouldResemble, b.Candidates)
				seen := map[[2]int]bool{}
				for _, c := range a.Candidates {
					k := [2]int{c["sign"].(int), c["pad"].(int)}
					convey.So(seen[k], convey.ShouldBeFalse)
					seen[k] = true
				}
			})
		})

		convey.Convey("When a candidate fails to fit", func() {
			_, err := modelling.RandomizedSearch(ctx, signTrainer{fail: true}, ds, space)

			convey.Convey("Then the search fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "diverged")
			})
		})

		convey.Convey("When the context is already canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := modelling.RandomizedSearch(canceled, signTrainer{}, ds, space)

			convey.Convey("Then the cancellation is returned", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a hyperparameter has no values", func() {
			_, err := modelling.RandomizedSearch(ctx, signTrainer{}, ds, modelling.ParamSpace{"sign": {}})

			convey.Convey("Then ErrEmptySearchSpace is returned", func() {
				convey.So(errors.Is(err, modelling.ErrEmptySearchSpace), convey.ShouldBeTrue)
			})
		})
	})
}
