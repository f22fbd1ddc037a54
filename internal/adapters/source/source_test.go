package source_test

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mzsweep/mzsweep/internal/adapters/source"
	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestSliceSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given a well-ordered scan slice", t, func() {
		scans := []model.Scan{
			{Index: 0, RT: 10},
			{Index: 1, RT: 11},
			{Index: 2, RT: 12.5},
		}

		Convey("Then the source serves a copy of it", func() {
			src, err := source.NewSliceSource(scans)
			So(err, ShouldBeNil)

			got, err := src.Scans(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, scans)
		})
	})

	Convey("Given a scan slice with a non-dense index", t, func() {
		scans := []model.Scan{
			{Index: 0, RT: 10},
			{Index: 2, RT: 11},
		}

		Convey("Then construction fails", func() {
			_, err := source.NewSliceSource(scans)
			So(err, ShouldWrap, source.ErrScanOrder)
		})
	})

	Convey("Given a scan with peaks out of m/z order", t, func() {
		scans := []model.Scan{
			{Index: 0, RT: 10, Peaks: []model.Peak{
				{MZ: 500.5, Intensity: 100},
				{MZ: 400.1, Intensity: 50},
			}},
		}

		Convey("Then construction fails", func() {
			_, err := source.NewSliceSource(scans)
			So(err, ShouldWrap, source.ErrScanOrder)
		})
	})

	Convey("Given a scan slice with non-increasing retention times", t, func() {
		scans := []model.Scan{
			{Index: 0, RT: 10},
			{Index: 1, RT: 10},
		}

		Convey("Then construction fails", func() {
			_, err := source.NewSliceSource(scans)
			So(err, ShouldWrap, source.ErrScanOrder)
		})
	})
}

// encode64 packs values as little-endian float64 and base64-encodes them,
// optionally through zlib.
func encode64(values []float64, compress bool) string {
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}

	if compress {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			panic(err)
		}
		if err := zw.Close(); err != nil {
			panic(err)
		}
		raw = buf.Bytes()
	}

	return base64.StdEncoding.EncodeToString(raw)
}

func spectrumXML(index, msLevel int, rtMinutes float64, mz, intensity []float64, compress bool) string {
	compression := `<cvParam accession="MS:1000576" name="no compression"/>`
	if compress {
		compression = `<cvParam accession="MS:1000574" name="zlib compression"/>`
	}

	return fmt.Sprintf(`<spectrum index="%d" id="scan=%d" defaultArrayLength="%d">
  <cvParam accession="MS:1000511" name="ms level" value="%d"/>
  <scanList count="1">
    <scan>
      <cvParam accession="MS:1000016" name="scan start time" value="%g" unitAccession="UO:0000031" unitName="minute"/>
    </scan>
  </scanList>
  <binaryDataArrayList count="2">
    <binaryDataArray>
      <cvParam accession="MS:1000514" name="m/z array"/>
      <cvParam accession="MS:1000523" name="64-bit float"/>
      %s
      <binary>%s</binary>
    </binaryDataArray>
    <binaryDataArray>
      <cvParam accession="MS:1000515" name="intensity array"/>
      <cvParam accession="MS:1000523" name="64-bit float"/>
      %s
      <binary>%s</binary>
    </binaryDataArray>
  </binaryDataArrayList>
</spectrum>`, index, index, len(mz), msLevel, rtMinutes,
		compression, encode64(mz, compress),
		compression, encode64(intensity, compress))
}

func writeMzML(t *testing.T, spectra ...string) string {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<mzML xmlns="http://psi.hupo.org/ms/mzml" version="1.1.0">
  <run id="run1">
    <spectrumList count="` + fmt.Sprint(len(spectra)) + `">`)
	for _, s := range spectra {
		buf.WriteString(s)
	}
	buf.WriteString(`</spectrumList>
  </run>
</mzML>`)

	path := filepath.Join(t.TempDir(), "run.mzML")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestMzMLSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given an mzML file with MS1 and MS2 spectra", t, func() {
		path := writeMzML(t,
			spectrumXML(0, 1, 0.5, []float64{400.1, 401.1}, []float64{100, 50}, false),
			spectrumXML(1, 2, 0.6, []float64{200.2}, []float64{10}, false),
			spectrumXML(2, 1, 0.75, []float64{400.1}, []float64{120}, true),
		)

		Convey("When loading scans", func() {
			scans, err := source.NewMzMLSource(path).Scans(ctx)
			So(err, ShouldBeNil)

			Convey("Then only MS1 spectra survive, reindexed densely", func() {
				So(scans, ShouldHaveLength, 2)
				So(scans[0].Index, ShouldEqual, 0)
				So(scans[1].Index, ShouldEqual, 1)
			})

			Convey("Then retention times are converted to seconds", func() {
				So(scans[0].RT, ShouldAlmostEqual, 30)
				So(scans[1].RT, ShouldAlmostEqual, 45)
			})

			Convey("Then peak arrays decode, zlib included", func() {
				So(scans[0].Peaks, ShouldResemble, []model.Peak{
					{MZ: 400.1, Intensity: 100},
					{MZ: 401.1, Intensity: 50},
				})
				So(scans[1].Peaks, ShouldResemble, []model.Peak{
					{MZ: 400.1, Intensity: 120},
				})
			})
		})
	})

	Convey("Given an mzML file with mismatched array lengths", t, func() {
		spec := spectrumXML(0, 1, 0.5, []float64{400.1, 401.1}, []float64{100}, false)
		path := writeMzML(t, spec)

		Convey("Then loading fails with a malformed-file error", func() {
			_, err := source.NewMzMLSource(path).Scans(ctx)
			So(err, ShouldWrap, source.ErrMalformedFile)
		})
	})

	Convey("Given a missing file", t, func() {
		Convey("Then loading fails", func() {
			_, err := source.NewMzMLSource("/nonexistent/run.mzML").Scans(ctx)
			So(err, ShouldNotBeNil)
		})
	})
}
