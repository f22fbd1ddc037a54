package sqlite_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mzsweep/mzsweep/internal/adapters/export/sqlite"
	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestSQLiteWriter(t *testing.T) {
	ctx := context.Background()

	Convey("Given a sqlite writer on a fresh file", t, func() {
		path := filepath.Join(t.TempDir(), "features.db")

		w, err := sqlite.NewWriter(path)
		So(err, ShouldBeNil)

		features := []model.Feature{
			{MZ: 500.5, Charge: 1, RTStart: 30, RTEnd: 60, Intensity: 1000, Score: 5.5, Scans: 7},
			{MZ: 400.25, Charge: 2, RTStart: 45, RTEnd: 50, Intensity: 2000, Score: 3.2, Scans: 3},
		}

		Convey("When writing a run with features", func() {
			runID, err := w.WriteRun(ctx, "run.mzML", 10, 2, features)
			So(err, ShouldBeNil)
			So(runID, ShouldBeGreaterThan, 0)
			So(w.Finalize(), ShouldBeNil)

			Convey("Then the rows are queryable afterwards", func() {
				db, err := sql.Open("sqlite3", path)
				So(err, ShouldBeNil)
				defer db.Close()

				var scanCount int
				err = db.QueryRow(`SELECT ScanCount FROM RunTable WHERE RunId = ?`, runID).Scan(&scanCount)
				So(err, ShouldBeNil)
				So(scanCount, ShouldEqual, 10)

				var featureCount int
				err = db.QueryRow(`SELECT COUNT(*) FROM FeatureTable WHERE RunId = ?`, runID).Scan(&featureCount)
				So(err, ShouldBeNil)
				So(featureCount, ShouldEqual, 2)

				var mz, intensity float64
				err = db.QueryRow(`SELECT MZ, Intensity FROM FeatureTable WHERE RunId = ? AND Charge = 2`, runID).
					Scan(&mz, &intensity)
				So(err, ShouldBeNil)
				So(mz, ShouldEqual, 400.25)
				So(intensity, ShouldEqual, 2000)
			})
		})

		Convey("When writing a run without features", func() {
			runID, err := w.WriteRun(ctx, "empty.mzML", 0, 1, nil)
			So(err, ShouldBeNil)
			So(runID, ShouldBeGreaterThan, 0)
			So(w.Close(), ShouldBeNil)
		})
	})
}
