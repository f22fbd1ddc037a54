package scoring_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/internal/domain/scoring"
)

func scored(mz, score float64) model.Candidate {
	return model.Candidate{MZ: mz, Charge: 1, Score: score}
}

func TestThreshold(t *testing.T) {
	Convey("Given a score distribution", t, func() {
		scores := []float64{1, 2, 3, 4, 10}

		Convey("When k is -1", func() {
			Convey("Then the adaptive term is disabled and t' is zero", func() {
				So(scoring.Threshold(scores, scoring.DisabledThreshold), ShouldEqual, 0)
			})
		})

		Convey("When k is 0", func() {
			Convey("Then t' is the mean", func() {
				So(scoring.Threshold(scores, 0), ShouldAlmostEqual, 4.0, 1e-9)
			})
		})

		Convey("When k is positive", func() {
			Convey("Then t' grows with the standard deviation", func() {
				So(scoring.Threshold(scores, 1), ShouldBeGreaterThan, 4.0)
			})
		})

		Convey("When the distribution is empty", func() {
			So(scoring.Threshold(nil, 2), ShouldEqual, 0)
		})
	})
}

func TestFilter(t *testing.T) {
	Convey("Given one scan's raw candidates", t, func() {
		cands := []model.Candidate{
			scored(500.0, 0),
			scored(501.0, 2),
			scored(502.0, 4),
			scored(503.0, 100),
		}

		Convey("When filtering with k = -1", func() {
			kept := scoring.Filter(cands, scoring.DisabledThreshold)

			Convey("Then every non-negative-score candidate passes, regardless of the distribution", func() {
				So(kept, ShouldHaveLength, 4)
			})
		})

		Convey("When filtering with k = 0", func() {
			kept := scoring.Filter(cands, 0)

			Convey("Then only candidates at or above the scan mean survive", func() {
				So(kept, ShouldHaveLength, 1)
				So(kept[0].Score, ShouldEqual, 100)
			})
		})

		Convey("When filtering an empty scan", func() {
			So(scoring.Filter(nil, 0), ShouldBeEmpty)
		})
	})
}
