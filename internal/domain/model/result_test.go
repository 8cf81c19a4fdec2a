package model_test

import (
	"math"
	"testing"

	model "github.com/okian/ascent/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestResult(t *testing.T) {
	convey.Convey("Given result rows", t, func() {
		convey.Convey("When the placement is third or better", func() {
			convey.Convey("Then the podium flag is set", func() {
				convey.So(model.Result{CompRank: 1}.Podium(), convey.ShouldEqual, 1)
				convey.So(model.Result{CompRank: 3}.Podium(), convey.ShouldEqual, 1)
				convey.So(model.Result{CompRank: 4}.Podium(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When rounds are classified", func() {
			convey.Convey("Then finals are case-sensitive", func() {
				convey.So(model.Result{Round: "Final"}.IsFinal(), convey.ShouldBeTrue)
				convey.So(model.Result{Round: "final"}.IsFinal(), convey.ShouldBeFalse)
			})

			convey.Convey("Then semi-finals are case-insensitive", func() {
				convey.So(model.Result{Round: "Semi-Final"}.IsSemiFinal(), convey.ShouldBeTrue)
				convey.So(model.Result{Round: "SEMI-FINAL"}.IsSemiFinal(), convey.ShouldBeTrue)
				convey.So(model.Result{Round: "Semi Final"}.IsSemiFinal(), convey.ShouldBeFalse)
			})
		})
	})
}

func TestHistory(t *testing.T) {
	convey.Convey("Given a trailing history", t, func() {
		convey.Convey("When there were no events", func() {
			h := model.History{AvgRank: math.NaN()}

			convey.Convey("Then ratios are zero, never NaN", func() {
				convey.So(h.Empty(), convey.ShouldBeTrue)
				convey.So(h.ProgressionToSemi(), convey.ShouldEqual, 0)
				convey.So(h.ProgressionToFinal(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When there were events", func() {
			h := model.History{Events: 4, Semis: 2, Finals: 1, AvgRank: 6}

			convey.Convey("Then ratios divide by the event count", func() {
				convey.So(h.Empty(), convey.ShouldBeFalse)
				convey.So(h.ProgressionToSemi(), convey.ShouldEqual, 0.5)
				convey.So(h.ProgressionToFinal(), convey.ShouldEqual, 0.25)
			})
		})
	})
}
