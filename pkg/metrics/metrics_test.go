package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/mzsweep/mzsweep/pkg/metrics"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithPrometheusRegistry(reg),
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("run"),
		)

		Convey("Then its metrics are registered and gatherable", func() {
			So(m, ShouldNotBeNil)
			fams, err := reg.Gather()
			So(err, ShouldBeNil)
			So(len(fams), ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given the global helpers", t, func() {
		Convey("When recording run activity", func() {
			metrics.RecordScanProcessed()
			metrics.RecordCandidates(3, 1)
			metrics.RecordBoxOpened()
			metrics.RecordBoxClosed()
			metrics.UpdateOpenBoxes(0)
			metrics.RecordProgress("scored")
			metrics.RecordFeatures(2)

			Convey("Then the global registry exposes them", func() {
				fams, err := metrics.GetRegistry().Gather()
				So(err, ShouldBeNil)

				names := make([]string, 0, len(fams))
				for _, f := range fams {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "mzsweep_featurefinder_scans_processed_total")
				So(names, ShouldContain, "mzsweep_featurefinder_boxes_opened_total")
				So(names, ShouldContain, "mzsweep_featurefinder_progress_ticks_total")
			})
		})

		Convey("Then the HTTP handler is available", func() {
			So(metrics.Handler(), ShouldNotBeNil)
		})
	})
}
