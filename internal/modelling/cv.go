package modelling

import "fmt"

// Fold is one train/test pair of row indexes.
type Fold struct {
	Train []int
	Test  []int
}

// TimeSeriesSplit returns nSplits expanding-window folds over rows assumed to
// be in time order. Every test block has nSamples/(nSplits+1) rows, the blocks
// end at the last row, and each fold trains on every row before its block.
func TimeSeriesSplit(nSamples, nSplits int) ([]Fold, error) {
	if nSplits < 2 {
		return nil, fmt.Errorf("%w: need at least 2 splits, got %d", ErrInvalidParams, nSplits)
	}
	nFolds := nSplits + 1
	if nFolds > nSamples {
		return nil, fmt.Errorf("%w: %d folds for %d samples", ErrTooFewSamples, nFolds, nSamples)
	}
	testSize := nSamples / nFolds
	first := nSamples - nSplits*testSize

	folds := make([]Fold, 0, nSplits)
	for start := first; start < nSamples; start += testSize {
		f := Fold{Train: indexRange(0, start), Test: indexRange(start, start+testSize)}
		folds = append(folds, f)
	}
	return folds, nil
}

func indexRange(from, to int) []int {
	out := make([]int, to-from)
	for i := range out {
		out[i] = from + i
	}
	return out
}
