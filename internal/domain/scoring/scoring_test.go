package scoring_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/internal/domain/scoring"
)

// pattern builds peaks of a charge-z isotope pattern starting at mono with
// geometrically decaying intensities.
func pattern(mono float64, z int, base float64, n int) []model.Peak {
	peaks := make([]model.Peak, n)
	for j := 0; j < n; j++ {
		peaks[j] = model.Peak{
			MZ:        mono + float64(j)*model.IsotopeDelta/float64(z),
			Intensity: base / float64(j+1),
		}
	}
	return peaks
}

func TestIsotopeScorer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scan with one charge-1 isotope pattern and a lone peak", t, func() {
		peaks := append(pattern(500.0, 1, 100, 3), model.Peak{MZ: 600.0, Intensity: 80})
		scan := model.Scan{Index: 4, RT: 12.5, Peaks: peaks}

		s := scoring.NewIsotopeScorer(1000, scoring.WithMaxCharge(1))

		Convey("When scoring the scan", func() {
			cands, err := s.Candidates(ctx, scan)
			So(err, ShouldBeNil)

			Convey("Then the monoisotopic anchor scores best", func() {
				So(cands, ShouldNotBeEmpty)
				best := cands[0]
				for _, c := range cands {
					if c.Score > best.Score {
						best = c
					}
				}
				So(best.MZ, ShouldEqual, 500.0)
				So(best.Charge, ShouldEqual, 1)
				So(best.ScanIndex, ShouldEqual, 4)
				So(best.RT, ShouldEqual, 12.5)
			})

			Convey("And the lone peak produces no candidate", func() {
				for _, c := range cands {
					So(c.MZ, ShouldNotEqual, 600.0)
				}
			})
		})
	})

	Convey("Given a charge-2 pattern and a scorer covering charges 1..2", t, func() {
		scan := model.Scan{Index: 0, RT: 1.0, Peaks: pattern(400.0, 2, 100, 3)}
		s := scoring.NewIsotopeScorer(1000, scoring.WithMaxCharge(2))

		Convey("When scoring the scan", func() {
			cands, err := s.Candidates(ctx, scan)
			So(err, ShouldBeNil)

			Convey("Then a charge-2 candidate is anchored at the monoisotopic peak", func() {
				var best *model.Candidate
				for i := range cands {
					if cands[i].Charge != 2 {
						continue
					}
					if best == nil || cands[i].Score > best.Score {
						best = &cands[i]
					}
				}
				So(best, ShouldNotBeNil)
				So(best.MZ, ShouldEqual, 400.0)
			})
		})
	})

	Convey("Given an empty scan", t, func() {
		s := scoring.NewIsotopeScorer(1000)

		Convey("Then scoring yields no candidates and no error", func() {
			cands, err := s.Candidates(ctx, model.Scan{Index: 0})
			So(err, ShouldBeNil)
			So(cands, ShouldBeEmpty)
		})
	})

	Convey("Given a canceled context", t, func() {
		s := scoring.NewIsotopeScorer(1000)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		Convey("Then scoring fails fast", func() {
			_, err := s.Candidates(canceled, model.Scan{Index: 0})
			So(err, ShouldNotBeNil)
		})
	})
}
