package model_test

import (
	"testing"

	"github.com/mzsweep/mzsweep/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBox(t *testing.T) {
	Convey("Given a freshly seeded box", t, func() {
		b := model.NewBox(7, model.BoxElement{
			ScanIndex:   3,
			MZ:          500.1,
			ChargeIndex: 1,
			Score:       2.5,
			Intensity:   100,
			RT:          12.0,
		})

		Convey("Then it is a singleton open trace", func() {
			So(b.ID(), ShouldEqual, 7)
			So(b.ChargeIndex(), ShouldEqual, 1)
			So(b.Open(), ShouldBeTrue)
			So(b.Len(), ShouldEqual, 1)
			So(b.Missed(), ShouldEqual, 0)
			So(b.LastIndex(), ShouldEqual, 3)
			So(b.LastMZ(), ShouldEqual, 500.1)
		})

		Convey("When extending at a later scan", func() {
			b.Miss()
			b.Extend(model.BoxElement{ScanIndex: 5, MZ: 500.2, ChargeIndex: 1, RT: 14.0})

			Convey("Then the element is appended and the miss counter resets", func() {
				So(b.Len(), ShouldEqual, 2)
				So(b.Missed(), ShouldEqual, 0)
				So(b.LastIndex(), ShouldEqual, 5)
				So(b.LastMZ(), ShouldEqual, 500.2)
			})
		})

		Convey("When extending at a non-increasing scan index", func() {
			Convey("Then it panics", func() {
				So(func() {
					b.Extend(model.BoxElement{ScanIndex: 3, MZ: 500.1, ChargeIndex: 1})
				}, ShouldPanic)
			})
		})

		Convey("When the box is closed", func() {
			b.Close()

			Convey("Then it refuses further extension", func() {
				So(b.Open(), ShouldBeFalse)
				So(func() {
					b.Extend(model.BoxElement{ScanIndex: 9, MZ: 500.1, ChargeIndex: 1})
				}, ShouldPanic)
			})

			Convey("And closing again is a no-op", func() {
				b.Close()
				So(b.Open(), ShouldBeFalse)
			})
		})

		Convey("When counting misses", func() {
			So(b.Miss(), ShouldEqual, 1)
			So(b.Miss(), ShouldEqual, 2)
			So(b.Missed(), ShouldEqual, 2)
		})
	})
}
