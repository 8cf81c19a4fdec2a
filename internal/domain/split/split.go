// Package split divides a table into train and test sets along whole
// partitions, putting the most recent partitions in the test set.
package split

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/okian/ascent/internal/adapters/table"
	"github.com/okian/ascent/pkg/logger"
	"github.com/okian/ascent/pkg/metrics"
)

// partition is one distinct partitionBy value and the latest orderBy value among
// its rows.
type partition struct {
	key     string
	latest  string
	hasMax  bool
	rowsIdx []int
}

// TrainTestSplit assigns whole partitions to the test set, most recent first
// by the maximum of orderBy within each partition, until ceil(testRatio * n)
// partitions are taken. Every other row goes to train. Both outputs keep input
// row order and the input is not modified.
//
// Equal maxima order by partition key ascending, and partitions whose orderBy
// values are all missing come last. Numeric columns compare numerically, any
// other column as text.
func TrainTestSplit(
	ctx context.Context,
	df dataframe.DataFrame,
	orderBy, partitionBy string,
	testRatio float64,
	opts ...Option,
) (train, test dataframe.DataFrame, err error) {
	cfg := config{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	defer func() {
		metrics.ObserveStage(metrics.StageSplit, time.Since(start))
		if err != nil {
			metrics.RecordStageError(metrics.StageSplit, errorKind(err))
		}
	}()

	if math.IsNaN(testRatio) || testRatio <= 0 || testRatio >= 1 {
		return dataframe.DataFrame{}, dataframe.DataFrame{}, fmt.Errorf("%w: got %v", ErrInvalidRatio, testRatio)
	}
	if err := ctx.Err(); err != nil {
		return dataframe.DataFrame{}, dataframe.DataFrame{}, err
	}
	if err := table.Require(df, orderBy, partitionBy); err != nil {
		return dataframe.DataFrame{}, dataframe.DataFrame{}, err
	}

	if df.Nrow() == 0 {
		metrics.RecordEmptyInput(metrics.StageSplit)
		cfg.logger.Warn(ctx, "nothing to split", logger.Error(ErrEmptyInput))
	}

	parts, err := partitions(df, orderBy, partitionBy)
	if err != nil {
		return dataframe.DataFrame{}, dataframe.DataFrame{}, err
	}
	nTest := int(math.Ceil(testRatio * float64(len(parts))))

	inTest := make([]bool, df.Nrow())
	for _, p := range parts[:nTest] {
		for _, i := range p.rowsIdx {
			inTest[i] = true
		}
	}
	var trainIdx, testIdx []int
	for i, t := range inTest {
		if t {
			testIdx = append(testIdx, i)
		} else {
			trainIdx = append(trainIdx, i)
		}
	}

	if train, err = table.Subset(df, trainIdx); err != nil {
		return dataframe.DataFrame{}, dataframe.DataFrame{}, err
	}
	if test, err = table.Subset(df, testIdx); err != nil {
		return dataframe.DataFrame{}, dataframe.DataFrame{}, err
	}

	metrics.RecordSplit(len(parts)-nTest, nTest, len(trainIdx), len(testIdx))
	cfg.logger.Info(ctx, "table split",
		logger.String("order_by", orderBy),
		logger.String("partition_by", partitionBy),
		logger.Int("partitions", len(parts)),
		logger.Int("test_partitions", nTest),
		logger.Int("train_rows", len(trainIdx)),
		logger.Int("test_rows", len(testIdx)),
	)
	return train, test, nil
}

// partitions groups rows by partitionBy and sorts the groups most recent first.
func partitions(df dataframe.DataFrame, orderBy, partitionBy string) ([]partition, error) {
	keys, err := table.Strings(df, partitionBy)
	if err != nil {
		return nil, err
	}
	order, err := table.Strings(df, orderBy)
	if err != nil {
		return nil, err
	}
	cmpOrder := comparator(df.Col(orderBy).Type())
	cmpKey := comparator(df.Col(partitionBy).Type())

	byKey := make(map[string]int)
	var parts []partition
	for i, k := range keys {
		pi, ok := byKey[k]
		if !ok {
			pi = len(parts)
			byKey[k] = pi
			parts = append(parts, partition{key: k})
		}
		p := &parts[pi]
		p.rowsIdx = append(p.rowsIdx, i)
		v := order[i]
		if table.IsMissing(v) {
			continue
		}
		if !p.hasMax || cmpOrder(v, p.latest) > 0 {
			p.latest = v
			p.hasMax = true
		}
	}

	sort.SliceStable(parts, func(i, j int) bool {
		a, b := parts[i], parts[j]
		if a.hasMax != b.hasMax {
			return a.hasMax
		}
		if a.hasMax {
			if c := cmpOrder(a.latest, b.latest); c != 0 {
				return c > 0
			}
		}
		return cmpKey(a.key, b.key) < 0
	})
	return parts, nil
}

// comparator orders cells of one column type. Cells that fail to parse as
// numbers fall back to text order.
func comparator(t series.Type) func(a, b string) int {
	switch t {
	case series.Int, series.Float:
		return func(a, b string) int {
			x, errA := strconv.ParseFloat(a, 64)
			y, errB := strconv.ParseFloat(b, 64)
			if errA != nil || errB != nil {
				return cmp.Compare(a, b)
			}
			return cmp.Compare(x, y)
		}
	default:
		return cmp.Compare[string]
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRatio):
		return "invalid_ratio"
	case errors.Is(err, table.ErrColumnNotFound):
		return "column_not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
