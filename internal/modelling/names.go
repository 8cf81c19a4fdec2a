package modelling

import "strings"

// CleanFeatureNames strips the encoder prefixes from encoded column names.
func CleanFeatureNames(names []string) []string {
	r := strings.NewReplacer(PrefixRemainder, "", PrefixCategorical, "", PrefixAthlete, "")
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = r.Replace(n)
	}
	return out
}
