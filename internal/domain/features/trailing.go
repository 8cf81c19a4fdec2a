package features

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/ascent/internal/domain/model"
)

// HistoryKey is the join key of the trailing statistics.
type HistoryKey struct {
	AthleteID  string
	StatusAsOf time.Time
}

// Entry is the trailing statistics computed for one source row.
type Entry struct {
	Key     HistoryKey
	History model.History
}

// Aggregate reduces a window of rows to trailing statistics.
func Aggregate(window []model.Result) model.History {
	h := model.History{AvgRank: math.NaN()}
	if len(window) == 0 {
		return h
	}
	events := make(map[string]struct{}, len(window))
	podiums := make(map[string]struct{})
	rankSum := 0
	for _, r := range window {
		events[r.EventID] = struct{}{}
		if r.Podium() == 1 {
			podiums[r.EventID] = struct{}{}
		}
		if r.IsFinal() {
			h.Finals++
		}
		if r.IsSemiFinal() {
			h.Semis++
		}
		rankSum += r.CompRank
	}
	h.Events = len(events)
	h.Podiums = len(podiums)
	h.AvgRank = float64(rankSum) / float64(len(window))
	return h
}

// Rolling computes one Entry per row, over the rows of the same athlete that
// the window selects. Rows may be in any order.
func Rolling(rows []model.Result, w Window) []Entry {
	byAthlete := make(map[string][]model.Result)
	for _, r := range rows {
		byAthlete[r.AthleteID] = append(byAthlete[r.AthleteID], r)
	}
	for _, series := range byAthlete {
		sort.SliceStable(series, func(i, j int) bool { return series[i].StatusAsOf.Before(series[j].StatusAsOf) })
	}

	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		window := w.Select(byAthlete[r.AthleteID], r.StatusAsOf)
		out = append(out, Entry{
			Key:     HistoryKey{AthleteID: r.AthleteID, StatusAsOf: r.StatusAsOf},
			History: Aggregate(window),
		})
	}
	return out
}

// Collapse keeps one History per key. Two entries with the same key and
// different statistics fail with ErrJoinCardinality.
func Collapse(entries []Entry) (map[HistoryKey]model.History, error) {
	out := make(map[HistoryKey]model.History, len(entries))
	for _, e := range entries {
		prev, ok := out[e.Key]
		if !ok {
			out[e.Key] = e.History
			continue
		}
		if !sameHistory(prev, e.History) {
			return nil, fmt.Errorf("%w: conflicting trailing aggregates for athlete %q at %s",
				ErrJoinCardinality, e.Key.AthleteID, e.Key.StatusAsOf.Format(DateLayout))
		}
	}
	return out, nil
}

// Trailing computes the trailing statistics of every (athlete, status_as_of)
// present in rows.
func Trailing(rows []model.Result, w Window) (map[HistoryKey]model.History, error) {
	return Collapse(Rolling(rows, w))
}

func sameHistory(a, b model.History) bool {
	if a.Events != b.Events || a.Podiums != b.Podiums || a.Finals != b.Finals || a.Semis != b.Semis {
		return false
	}
	if math.IsNaN(a.AvgRank) || math.IsNaN(b.AvgRank) {
		return math.IsNaN(a.AvgRank) && math.IsNaN(b.AvgRank)
	}
	return a.AvgRank == b.AvgRank
}
