// Package pmf writes a peptide mass fingerprint file suitable for a
// direct Mascot query.
//
// Each feature becomes one line with its singly protonated mass and
// summed intensity. When the run covered more than one scan, a third
// column carries the elution time so the features of different scans
// stay distinguishable.
package pmf

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/pkg/logger"
)

// Writer exports features as a PMF text file.
type Writer struct {
	path   string
	logger logger.Logger
}

// NewWriter creates a PMF writer targeting path.
func NewWriter(path string) *Writer {
	return &Writer{
		path:   path,
		logger: logger.Get().Named("pmf-writer"),
	}
}

// Write exports the features. totalScanCount decides whether the
// elution time column is included.
func (w *Writer) Write(ctx context.Context, features []model.Feature, totalScanCount int) error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create pmf file: %w", err)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	withRT := totalScanCount > 1

	for _, feat := range features {
		mass := singlyProtonated(feat)
		if withRT {
			_, err = fmt.Fprintf(buf, "%f\t%f\t%f\n", mass, feat.Intensity, feat.RTStart)
		} else {
			_, err = fmt.Fprintf(buf, "%f\t%f\n", mass, feat.Intensity)
		}
		if err != nil {
			return fmt.Errorf("write pmf line: %w", err)
		}
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush pmf file: %w", err)
	}

	w.logger.Info(ctx, "pmf file written",
		logger.String("path", w.path),
		logger.Int("features", len(features)),
	)

	return nil
}

// singlyProtonated converts a feature centroid to the [M+H]+ mass.
func singlyProtonated(f model.Feature) float64 {
	z := float64(f.Charge)
	return f.MZ*z - (z-1)*model.ProtonMass
}
