// Package source loads scan sequences into the pipeline.
//
// Sources guarantee the contract the tracker relies on: scans come out
// with dense indices starting at zero and strictly increasing retention
// times.
package source

import (
	"context"
	"fmt"

	"github.com/mzsweep/mzsweep/internal/domain/model"
)

// Source yields the scans of one run.
type Source interface {
	// Scans returns all scans, ordered by retention time with dense
	// indices from zero.
	Scans(ctx context.Context) ([]model.Scan, error)
}

// SliceSource serves an in-memory scan slice. Used by tests and by
// callers that assemble scans themselves.
type SliceSource struct {
	scans []model.Scan
}

// NewSliceSource wraps scans in a Source. Returns an error when the
// sequence violates the ordering contract.
func NewSliceSource(scans []model.Scan) (*SliceSource, error) {
	if err := validate(scans); err != nil {
		return nil, err
	}

	return &SliceSource{scans: scans}, nil
}

// Scans returns a copy of the wrapped slice.
func (s *SliceSource) Scans(_ context.Context) ([]model.Scan, error) {
	out := make([]model.Scan, len(s.scans))
	copy(out, s.scans)

	return out, nil
}

// validate checks dense zero-based indices, strictly increasing RT and
// m/z-ordered peak lists.
func validate(scans []model.Scan) error {
	for i, scan := range scans {
		if scan.Index != i {
			return fmt.Errorf("%w: scan %d has index %d", ErrScanOrder, i, scan.Index)
		}
		if i > 0 && scan.RT <= scans[i-1].RT {
			return fmt.Errorf("%w: scan %d retention time %g not after %g",
				ErrScanOrder, i, scan.RT, scans[i-1].RT)
		}
		for j := 1; j < len(scan.Peaks); j++ {
			if scan.Peaks[j].MZ < scan.Peaks[j-1].MZ {
				return fmt.Errorf("%w: scan %d peaks not ordered by m/z", ErrScanOrder, i)
			}
		}
	}

	return nil
}
