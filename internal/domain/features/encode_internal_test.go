package features

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ascent/internal/adapters/table"
	"github.com/okian/ascent/internal/domain/model"
)

func TestEngineeredColumnsWithoutHistory(t *testing.T) {
	Convey("Given a feature row the trailing join did not match", t, func() {
		b := New()
		f := model.Features{
			Result:  model.Result{StatusAsOf: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)},
			Cohorts: make([]int, len(b.cohorts)),
			Watched: make([]uint8, len(b.watch)),
		}

		Convey("When it is encoded", func() {
			cols := b.engineeredColumns([]model.Features{f})

			Convey("Then every trailing column is missing rather than zero", func() {
				byName := map[string][]string{}
				for _, c := range cols {
					byName[c.Name] = c.Records()
				}
				for _, name := range []string{
					ColEventsLastYear, ColPodiumsLastYear, ColFinalsLastYear, ColSemisLastYear,
					ColAvgRankLastYear, ColProgressionToSemi, ColProgressionToFinal,
				} {
					So(byName[name], ShouldResemble, []string{table.NA})
				}
				So(byName[ColIsOnPodium], ShouldResemble, []string{"0"})
			})
		})
	})
}
