package dedupe_test

import (
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/ascent/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithCapacityHint(8))

		Convey("When it is fresh", func() {
			Convey("Then it is empty", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When a key is recorded twice", func() {
			first := d.SeenAndRecord("row-1")
			second := d.SeenAndRecord("row-1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When keys are recorded concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					d.SeenAndRecord(fmt.Sprintf("row-%d", i%10))
				}(i)
			}
			wg.Wait()

			Convey("Then every distinct key is counted once", func() {
				So(d.Size(), ShouldEqual, 10)
			})
		})
	})
}

func TestKey(t *testing.T) {
	Convey("Given row cells", t, func() {
		Convey("Then equal cells produce equal keys", func() {
			So(dedupe.Key("a", "b"), ShouldEqual, dedupe.Key("a", "b"))
		})

		Convey("Then cell boundaries are part of the key", func() {
			So(dedupe.Key("ab", ""), ShouldNotEqual, dedupe.Key("a", "b"))
			So(dedupe.Key("a"), ShouldNotEqual, dedupe.Key("a", ""))
		})
	})
}

func TestFirstOccurrences(t *testing.T) {
	Convey("Given keys with repeats", t, func() {
		keys := []string{"x", "y", "x", "z", "y"}

		Convey("When first occurrences are selected", func() {
			idx := dedupe.FirstOccurrences(keys)

			Convey("Then the first index of each key is kept in order", func() {
				So(idx, ShouldResemble, []int{0, 1, 3})
			})

			Convey("Then selecting again over the result is a no-op", func() {
				again := make([]string, len(idx))
				for i, j := range idx {
					again[i] = keys[j]
				}
				So(dedupe.FirstOccurrences(again), ShouldResemble, []int{0, 1, 2})
			})
		})

		Convey("When there are no keys", func() {
			Convey("Then nothing is selected", func() {
				So(dedupe.FirstOccurrences(nil), ShouldBeEmpty)
			})
		})
	})
}
