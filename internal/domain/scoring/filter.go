package scoring

import (
	"math"

	"github.com/mzsweep/mzsweep/internal/domain/model"
)

// DisabledThreshold is the sentinel value of the intensity-threshold
// parameter k that turns the adaptive term off: t' becomes zero and every
// candidate with a non-negative score passes.
const DisabledThreshold = -1

// Threshold computes the per-scan cutoff t' = mean + k*stddev over the
// score distribution of one scan. It is a pure function with no cross-scan
// state.
func Threshold(scores []float64, k float64) float64 {
	if k == DisabledThreshold || len(scores) == 0 {
		return 0
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	var varsum float64
	for _, s := range scores {
		d := s - mean
		varsum += d * d
	}
	sd := math.Sqrt(varsum / float64(len(scores)))

	return mean + k*sd
}

// Filter applies the adaptive threshold to one scan's raw candidates and
// returns the surviving ones. The input order is preserved.
func Filter(candidates []model.Candidate, k float64) []model.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Score
	}
	cutoff := Threshold(scores, k)

	kept := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= cutoff {
			kept = append(kept, c)
		}
	}
	return kept
}
