// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strings"
	"time"
)

// Round names compared by the trailing statistics. Finals compare
// case-sensitively, semi-finals after lowercasing.
const (
	RoundFinal = "Final"
	RoundSemi  = "semi-final"
)

// PodiumRank is the worst placement that still counts as a podium.
const PodiumRank = 3

// Result is one typed event-result row: an athlete's placement in one round of
// one discipline category at one event.
type Result struct {
	Row            int // position in the source table
	EventID        string
	AthleteID      string
	AthleteCountry string
	DCat           string
	Round          string
	CompRank       int
	StatusAsOf     time.Time // calendar date, UTC midnight
	Birthday       time.Time // zero when unknown
	FirstSeason    uint32
	HasFirstSeason bool
}

// IsFinal reports whether the row belongs to a final round.
func (r Result) IsFinal() bool { return r.Round == RoundFinal }

// IsSemiFinal reports whether the row belongs to a semi-final round.
func (r Result) IsSemiFinal() bool { return strings.ToLower(r.Round) == RoundSemi }

// Podium returns 1 when the placement is on the podium, 0 otherwise.
func (r Result) Podium() uint8 {
	if r.CompRank <= PodiumRank {
		return 1
	}
	return 0
}

// History holds the trailing-window statistics of an athlete strictly before
// one instant.
type History struct {
	Events  int
	Podiums int
	Finals  int
	Semis   int
	AvgRank float64 // NaN when the window is empty
}

// Empty reports whether the window held no rows.
func (h History) Empty() bool { return math.IsNaN(h.AvgRank) }

// ProgressionToSemi is semis over events, 0 when there were no events.
func (h History) ProgressionToSemi() float64 { return ratio(h.Semis, h.Events) }

// ProgressionToFinal is finals over events, 0 when there were no events.
func (h History) ProgressionToFinal() float64 { return ratio(h.Finals, h.Events) }

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Features is a Result plus every engineered column.
type Features struct {
	Result

	AgeSpan        time.Duration // status_as_of - birthday, before normalization
	AgeInDays      int
	HasAge         bool
	YearsActive    int
	HasYearsActive bool
	IsOnPodium     uint8

	// Cohorts holds one distinct-athlete count per configured country, and
	// Watched one 0/1 flag per watched athlete, both in configuration order.
	Cohorts []int
	Watched []uint8

	History    History
	HasHistory bool

	ProgressionToSemi  float64
	ProgressionToFinal float64
}
