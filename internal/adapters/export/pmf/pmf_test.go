package pmf_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mzsweep/mzsweep/internal/adapters/export/pmf"
	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestPMFWriter(t *testing.T) {
	ctx := context.Background()

	features := []model.Feature{
		{MZ: 500.5, Charge: 1, RTStart: 30, Intensity: 1000},
		{MZ: 400.25, Charge: 2, RTStart: 45, Intensity: 2000},
	}

	Convey("Given features from a multi-scan run", t, func() {
		path := filepath.Join(t.TempDir(), "out.pmf")

		Convey("When writing with the elution time column", func() {
			So(pmf.NewWriter(path).Write(ctx, features, 10), ShouldBeNil)

			raw, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")

			Convey("Then each feature becomes a three-column line", func() {
				So(lines, ShouldHaveLength, 2)
				So(strings.Count(lines[0], "\t"), ShouldEqual, 2)
			})

			Convey("Then the charge-1 mass passes through unchanged", func() {
				So(lines[0], ShouldStartWith, fmt.Sprintf("%f", 500.5))
			})

			Convey("Then higher charges are reduced to the singly protonated mass", func() {
				want := 400.25*2 - model.ProtonMass
				So(lines[1], ShouldStartWith, fmt.Sprintf("%f", want))
			})
		})
	})

	Convey("Given features from a single-scan run", t, func() {
		path := filepath.Join(t.TempDir(), "out.pmf")

		Convey("When writing without the elution time column", func() {
			So(pmf.NewWriter(path).Write(ctx, features[:1], 1), ShouldBeNil)

			raw, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")

			Convey("Then lines carry only mass and intensity", func() {
				So(lines, ShouldHaveLength, 1)
				So(strings.Count(lines[0], "\t"), ShouldEqual, 1)
			})
		})
	})
}
