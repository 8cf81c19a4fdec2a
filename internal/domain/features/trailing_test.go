package features_test

import (
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ascent/internal/domain/features"
	"github.com/okian/ascent/internal/domain/model"
)

func date(s string) time.Time {
	t, err := time.Parse(features.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTrailingYearsWindow(t *testing.T) {
	Convey("Given rows sorted by date", t, func() {
		rows := []model.Result{
			{EventID: "a", StatusAsOf: date("2019-02-27")},
			{EventID: "b", StatusAsOf: date("2019-02-28")},
			{EventID: "c", StatusAsOf: date("2019-12-31")},
			{EventID: "d", StatusAsOf: date("2020-02-29")},
		}
		w := features.TrailingYears(1)

		Convey("When the anchor is a leap day", func() {
			got := w.Select(rows, date("2020-02-29"))

			Convey("Then the window opens on Feb 28 and stops before the anchor", func() {
				So(got, ShouldHaveLength, 2)
				So(got[0].EventID, ShouldEqual, "b")
				So(got[1].EventID, ShouldEqual, "c")
			})
		})

		Convey("When the anchor precedes every row", func() {
			Convey("Then nothing is selected", func() {
				So(w.Select(rows, date("2018-01-01")), ShouldBeEmpty)
				So(w.Select(nil, date("2018-01-01")), ShouldBeEmpty)
			})
		})
	})
}

func TestTrailing(t *testing.T) {
	Convey("Given rows of two athletes", t, func() {
		rows := []model.Result{
			{AthleteID: "A", EventID: "e2", Round: "Final", CompRank: 1, StatusAsOf: date("2020-03-01")},
			{AthleteID: "A", EventID: "e1", Round: "Semi-final", CompRank: 5, StatusAsOf: date("2020-01-01")},
			{AthleteID: "A", EventID: "e1", Round: "Final", CompRank: 5, StatusAsOf: date("2020-01-01")},
			{AthleteID: "B", EventID: "e1", Round: "Final", CompRank: 2, StatusAsOf: date("2020-01-01")},
		}

		Convey("When trailing statistics are computed", func() {
			got, err := features.Trailing(rows, features.TrailingYears(1))

			Convey("Then there is one entry per athlete and date", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 3)
			})

			Convey("Then distinct events and round counts are kept apart", func() {
				h := got[features.HistoryKey{AthleteID: "A", StatusAsOf: date("2020-03-01")}]
				So(h.Events, ShouldEqual, 1)
				So(h.Semis, ShouldEqual, 1)
				So(h.Finals, ShouldEqual, 1)
				So(h.Podiums, ShouldEqual, 0)
				So(h.AvgRank, ShouldEqual, 5)
			})

			Convey("Then other athletes never leak into a window", func() {
				h := got[features.HistoryKey{AthleteID: "B", StatusAsOf: date("2020-01-01")}]
				So(h.Events, ShouldEqual, 0)
				So(h.Empty(), ShouldBeTrue)
				So(h.ProgressionToFinal(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given two different statistics for one key", t, func() {
		key := features.HistoryKey{AthleteID: "A", StatusAsOf: date("2020-01-01")}
		entries := []features.Entry{
			{Key: key, History: model.History{Events: 1, AvgRank: 2}},
			{Key: key, History: model.History{Events: 2, AvgRank: 2}},
		}

		Convey("When they are collapsed", func() {
			_, err := features.Collapse(entries)

			Convey("Then ErrJoinCardinality is returned", func() {
				So(errors.Is(err, features.ErrJoinCardinality), ShouldBeTrue)
			})
		})
	})

	Convey("Given repeated empty statistics for one key", t, func() {
		key := features.HistoryKey{AthleteID: "A", StatusAsOf: date("2020-01-01")}
		entries := []features.Entry{
			{Key: key, History: model.History{AvgRank: math.NaN()}},
			{Key: key, History: model.History{AvgRank: math.NaN()}},
		}

		Convey("When they are collapsed", func() {
			got, err := features.Collapse(entries)

			Convey("Then they merge into one", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
			})
		})
	})
}

func TestCohorts(t *testing.T) {
	Convey("Given rows of one group", t, func() {
		rows := []model.Result{
			{EventID: "e1", DCat: "LEAD Men", AthleteID: "1", AthleteCountry: "JPN"},
			{EventID: "e1", DCat: "LEAD Men", AthleteID: "1", AthleteCountry: "JPN"},
			{EventID: "e1", DCat: "LEAD Men", AthleteID: "2", AthleteCountry: "JPN"},
			{EventID: "e1", DCat: "LEAD Women", AthleteID: "3", AthleteCountry: "FRA"},
		}

		Convey("When cohorts are reduced", func() {
			got := features.Cohorts(rows,
				[]features.Cohort{{Country: "JPN", Column: "jpn"}, {Country: "FRA", Column: "fra"}},
				[]features.Watch{{AthleteID: "3", Column: "w3"}},
			)

			Convey("Then athletes are counted once per group", func() {
				So(got, ShouldHaveLength, 2)
				men := got[features.GroupKey{EventID: "e1", DCat: "LEAD Men"}]
				So(men.Counts, ShouldResemble, []int{2, 0})
				So(men.Watched, ShouldResemble, []uint8{0})
				women := got[features.GroupKey{EventID: "e1", DCat: "LEAD Women"}]
				So(women.Counts, ShouldResemble, []int{0, 1})
				So(women.Watched, ShouldResemble, []uint8{1})
			})
		})
	})
}
