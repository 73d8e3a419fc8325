package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/flagmatch/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording request ids", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the id is new", func() {
				seen := d.SeenAndRecord(ctx, "req-1")

				Convey("Then it should return false and record the id", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the id was already seen", func() {
				d.SeenAndRecord(ctx, "req-1")
				seen := d.SeenAndRecord(ctx, "req-1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the id is empty", func() {
				first := d.SeenAndRecord(ctx, "")
				second := d.SeenAndRecord(ctx, "")

				Convey("Then it is never recorded", func() {
					So(first, ShouldBeFalse)
					So(second, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 0)
				})
			})
		})

		Convey("When unrecording ids", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "req-1")
			d.Unrecord(ctx, "req-1")
			d.Unrecord(ctx, "missing")

			Convey("Then the id can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "req-1"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "req-1"), ShouldBeTrue)
			})
		})

		Convey("When the bounded deduper is full", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for _, id := range []string{"req-1", "req-2", "req-3", "req-4"} {
				So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
			}

			Convey("Then the oldest id is evicted first", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "req-2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "req-3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "req-4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "req-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("When an unrecorded slot is reused", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
			d.SeenAndRecord(ctx, "req-1")
			d.SeenAndRecord(ctx, "req-2")
			d.Unrecord(ctx, "req-1")
			d.SeenAndRecord(ctx, "req-3")

			Convey("Then the remaining ids are kept", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "req-2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "req-3"), ShouldBeTrue)
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			const n = 1000
			for i := 0; i < n; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("req-%d", i))
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, int64(n))
				So(d.SeenAndRecord(ctx, "req-0"), ShouldBeTrue)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const goroutines = 10
		const perGoroutine = 100

		Convey("When multiple goroutines record ids concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for j := 0; j < perGoroutine; j++ {
						d.SeenAndRecord(context.Background(), fmt.Sprintf("req-%d-%d", g, j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then every id is recorded", func() {
				So(d.Size(), ShouldEqual, int64(goroutines*perGoroutine))
			})
		})
	})
}
