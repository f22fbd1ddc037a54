package source

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/pkg/logger"
)

// Controlled vocabulary accessions used when reading mzML
// (http://www.peptideatlas.org/tmp/mzML1.1.0.html).
const (
	cvMSLevel        = "MS:1000511"
	cvScanStartTime  = "MS:1000016"
	cvMZArray        = "MS:1000514"
	cvIntensityArray = "MS:1000515"
	cvFloat64        = "MS:1000523"
	cvFloat32        = "MS:1000521"
	cvZlib           = "MS:1000574"

	unitMinute = "UO:0000031"
)

// MzMLSource reads MS1 scans from an mzML file.
type MzMLSource struct {
	path   string
	logger logger.Logger
}

// NewMzMLSource creates a source for the mzML file at path.
func NewMzMLSource(path string) *MzMLSource {
	return &MzMLSource{
		path:   path,
		logger: logger.Get().Named("mzml-source"),
	}
}

// Scans parses the file and returns its MS1 scans ordered by retention
// time, with dense indices assigned after ordering.
func (s *MzMLSource) Scans(ctx context.Context) ([]model.Scan, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open mzml: %w", err)
	}
	defer f.Close()

	scans, err := parse(f)
	if err != nil {
		return nil, err
	}

	sort.Slice(scans, func(i, j int) bool { return scans[i].RT < scans[j].RT })
	for i := range scans {
		scans[i].Index = i
	}

	if err := validate(scans); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "mzml file loaded",
		logger.String("path", s.path),
		logger.Int("scans", len(scans)),
	)

	return scans, nil
}

type mzMLFile struct {
	XMLName xml.Name `xml:"mzML"`
	Run     struct {
		SpectrumList struct {
			Spectrum []spectrumXML `xml:"spectrum"`
		} `xml:"spectrumList"`
	} `xml:"run"`
}

type spectrumXML struct {
	Index    int         `xml:"index,attr"`
	ID       string      `xml:"id,attr"`
	CvPar    []cvParam   `xml:"cvParam"`
	ScanList scanListXML `xml:"scanList"`
	Arrays   struct {
		BinaryDataArray []binaryArrayXML `xml:"binaryDataArray"`
	} `xml:"binaryDataArrayList"`
}

type scanListXML struct {
	Scan []struct {
		CvPar []cvParam `xml:"cvParam"`
	} `xml:"scan"`
}

type binaryArrayXML struct {
	CvPar  []cvParam `xml:"cvParam"`
	Binary string    `xml:"binary"`
}

type cvParam struct {
	Accession     string `xml:"accession,attr"`
	Value         string `xml:"value,attr"`
	UnitAccession string `xml:"unitAccession,attr"`
}

func parse(r io.Reader) ([]model.Scan, error) {
	var file mzMLFile
	if err := xml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	var scans []model.Scan
	for _, spec := range file.Run.SpectrumList.Spectrum {
		level, err := msLevel(spec)
		if err != nil {
			return nil, err
		}
		if level != 1 {
			continue
		}

		rt, err := retentionTime(spec)
		if err != nil {
			return nil, err
		}

		peaks, err := decodePeaks(spec)
		if err != nil {
			return nil, fmt.Errorf("spectrum %q: %w", spec.ID, err)
		}

		scans = append(scans, model.Scan{RT: rt, Peaks: peaks})
	}

	return scans, nil
}

func msLevel(spec spectrumXML) (int, error) {
	for _, cv := range spec.CvPar {
		if cv.Accession == cvMSLevel {
			level, err := strconv.Atoi(cv.Value)
			if err != nil {
				return 0, fmt.Errorf("%w: ms level %q", ErrMalformedFile, cv.Value)
			}
			return level, nil
		}
	}

	// Spectra without an ms level term are not survey scans.
	return 0, nil
}

// retentionTime returns the scan start time in seconds. Values in
// minutes are converted, anything else is assumed to be seconds.
func retentionTime(spec spectrumXML) (float64, error) {
	for _, scan := range spec.ScanList.Scan {
		for _, cv := range scan.CvPar {
			if cv.Accession != cvScanStartTime {
				continue
			}
			rt, err := strconv.ParseFloat(cv.Value, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: scan start time %q", ErrMalformedFile, cv.Value)
			}
			if cv.UnitAccession == unitMinute {
				rt *= 60
			}
			return rt, nil
		}
	}

	return 0, fmt.Errorf("%w: spectrum without scan start time", ErrMalformedFile)
}

// decodePeaks pairs the m/z and intensity binary arrays into peaks.
func decodePeaks(spec spectrumXML) ([]model.Peak, error) {
	var mz, intensity []float64
	for _, arr := range spec.Arrays.BinaryDataArray {
		values, kind, err := decodeArray(arr)
		if err != nil {
			return nil, err
		}
		switch kind {
		case cvMZArray:
			mz = values
		case cvIntensityArray:
			intensity = values
		}
	}

	if len(mz) != len(intensity) {
		return nil, fmt.Errorf("%w: %d m/z values but %d intensities",
			ErrMalformedFile, len(mz), len(intensity))
	}

	peaks := make([]model.Peak, len(mz))
	for i := range mz {
		peaks[i] = model.Peak{MZ: mz[i], Intensity: intensity[i]}
	}

	return peaks, nil
}

func decodeArray(arr binaryArrayXML) ([]float64, string, error) {
	var kind string
	wide := true
	compressed := false

	for _, cv := range arr.CvPar {
		switch cv.Accession {
		case cvMZArray, cvIntensityArray:
			kind = cv.Accession
		case cvFloat64:
			wide = true
		case cvFloat32:
			wide = false
		case cvZlib:
			compressed = true
		}
	}

	raw, err := base64.StdEncoding.DecodeString(arr.Binary)
	if err != nil {
		return nil, "", fmt.Errorf("%w: base64: %v", ErrMalformedFile, err)
	}

	if compressed {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, "", fmt.Errorf("%w: zlib: %v", ErrMalformedFile, err)
		}
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, "", fmt.Errorf("%w: zlib: %v", ErrMalformedFile, err)
		}
		if err := zr.Close(); err != nil {
			return nil, "", fmt.Errorf("%w: zlib: %v", ErrMalformedFile, err)
		}
	}

	width := 8
	if !wide {
		width = 4
	}
	if len(raw)%width != 0 {
		return nil, "", fmt.Errorf("%w: binary length %d not a multiple of %d",
			ErrMalformedFile, len(raw), width)
	}

	values := make([]float64, len(raw)/width)
	for i := range values {
		if wide {
			bits := binary.LittleEndian.Uint64(raw[i*8:])
			values[i] = math.Float64frombits(bits)
		} else {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			values[i] = float64(math.Float32frombits(bits))
		}
	}

	return values, kind, nil
}
