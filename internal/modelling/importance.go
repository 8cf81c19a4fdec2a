package modelling

import (
	"fmt"
	"sort"
)

// Importance is the score of one encoded feature under its clean name.
type Importance struct {
	Name  string
	Score float64
}

// TopImportances returns the n most important features of m, highest first.
// Equal scores keep output column order. n is clamped to [0, features].
func TopImportances(m Model, n int) ([]Importance, error) {
	names := m.FeatureNamesOut()
	scores := m.FeatureImportances()
	if len(names) != len(scores) {
		return nil, fmt.Errorf("%w: %d names and %d importances", ErrFeatureMismatch, len(names), len(scores))
	}
	clean := CleanFeatureNames(names)
	out := make([]Importance, len(scores))
	for i, s := range scores {
		out[i] = Importance{Name: clean[i], Score: s}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	n = max(0, min(n, len(out)))
	return out[:n], nil
}
