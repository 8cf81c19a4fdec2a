package modelling

import (
	"fmt"
	"sort"
)

// AveragePrecision summarizes the precision-recall curve as the recall-step
// weighted mean of precision, sum_n (R_n - R_{n-1}) P_n, over the distinct
// score thresholds taken in descending order. Without positives it is 0.
func AveragePrecision(yTrue []int, scores []float64) (float64, error) {
	if len(yTrue) != len(scores) {
		return 0, fmt.Errorf("%w: %d labels and %d scores", ErrFeatureMismatch, len(yTrue), len(scores))
	}
	positives := 0
	for _, y := range yTrue {
		positives += y
	}
	if positives == 0 {
		return 0, nil
	}

	idx := indexRange(0, len(scores))
	sort.SliceStable(idx, func(i, j int) bool { return scores[idx[i]] > scores[idx[j]] })

	var ap, prevRecall float64
	tp, fp := 0, 0
	for i := 0; i < len(idx); {
		threshold := scores[idx[i]]
		for i < len(idx) && scores[idx[i]] == threshold {
			if yTrue[idx[i]] == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		recall := float64(tp) / float64(positives)
		precision := float64(tp) / float64(tp+fp)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
	}
	return ap, nil
}
