// Package synth turns closed boxes into the final feature collection.
package synth

import (
	"sort"

	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/pkg/metrics"
)

// Synthesize emits one feature per closed box that gathered at least
// voteCutoff contributing scans. A cutoff larger than the total scan count
// could never be reached by any trace of the run, so it is treated as zero
// instead of vacuously discarding everything.
//
// Aggregation: the feature m/z is the intensity-weighted mean of the trace
// elements (plain mean when the summed intensity is zero), intensity and
// score are element sums, and the retention-time span is the [min, max] of
// the element RTs. Boxes below the cutoff are dropped silently; too few
// votes is an expected outcome, not an error.
//
// The result is ordered by charge, then m/z, then RT start, so output is
// deterministic for deterministic input.
func Synthesize(closed []*model.Box, totalScanCount, voteCutoff int) []model.Feature {
	effective := voteCutoff
	if effective > totalScanCount {
		effective = 0
	}

	features := make([]model.Feature, 0, len(closed))
	for _, box := range closed {
		if box.Len() < effective {
			continue
		}
		features = append(features, fromBox(box))
	}

	sort.Slice(features, func(i, j int) bool {
		a, b := features[i], features[j]
		if a.Charge != b.Charge {
			return a.Charge < b.Charge
		}
		if a.MZ != b.MZ {
			return a.MZ < b.MZ
		}
		return a.RTStart < b.RTStart
	})

	metrics.RecordFeatures(len(features))
	return features
}

// fromBox aggregates one closed trace into a feature.
func fromBox(box *model.Box) model.Feature {
	elems := box.Elements()

	var (
		weighted  float64
		plain     float64
		intensity float64
		score     float64
	)
	rtMin, rtMax := elems[0].RT, elems[0].RT

	for _, e := range elems {
		weighted += e.MZ * e.Intensity
		plain += e.MZ
		intensity += e.Intensity
		score += e.Score
		if e.RT < rtMin {
			rtMin = e.RT
		}
		if e.RT > rtMax {
			rtMax = e.RT
		}
	}

	mz := plain / float64(len(elems))
	if intensity > 0 {
		mz = weighted / intensity
	}

	return model.Feature{
		MZ:        mz,
		Charge:    box.ChargeIndex() + 1,
		RTStart:   rtMin,
		RTEnd:     rtMax,
		Intensity: intensity,
		Score:     score,
		Scans:     len(elems),
	}
}
