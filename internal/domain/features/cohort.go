package features

import "github.com/okian/ascent/internal/domain/model"

// GroupKey identifies one (event, discipline category) group.
type GroupKey struct {
	EventID string
	DCat    string
}

// CohortStats holds the per-group aggregates broadcast back to every row of the
// group. Counts follows the cohort order and Watched the watchlist order.
type CohortStats struct {
	Counts  []int
	Watched []uint8
}

// Cohorts reduces rows to one CohortStats per (event_id, dcat) group: the number
// of distinct athletes of each cohort country and whether each watched athlete
// has any row in the group.
func Cohorts(rows []model.Result, cohorts []Cohort, watch []Watch) map[GroupKey]CohortStats {
	type acc struct {
		athletes []map[string]struct{}
		stats    CohortStats
	}
	groups := make(map[GroupKey]*acc)
	for _, r := range rows {
		k := GroupKey{EventID: r.EventID, DCat: r.DCat}
		g, ok := groups[k]
		if !ok {
			g = &acc{
				athletes: make([]map[string]struct{}, len(cohorts)),
				stats: CohortStats{
					Counts:  make([]int, len(cohorts)),
					Watched: make([]uint8, len(watch)),
				},
			}
			for i := range g.athletes {
				g.athletes[i] = make(map[string]struct{})
			}
			groups[k] = g
		}
		for i, c := range cohorts {
			if r.AthleteCountry != c.Country {
				continue
			}
			if _, seen := g.athletes[i][r.AthleteID]; !seen {
				g.athletes[i][r.AthleteID] = struct{}{}
				g.stats.Counts[i]++
			}
		}
		for i, w := range watch {
			if r.AthleteID == w.AthleteID {
				g.stats.Watched[i] = 1
			}
		}
	}

	out := make(map[GroupKey]CohortStats, len(groups))
	for k, g := range groups {
		out[k] = g.stats
	}
	return out
}
