// Package scoring implements the per-scan isotope-pattern scorer and the
// adaptive candidate filter applied to its output.
//
// The scorer is the numeric collaborator in front of the sweep line: given
// one scan it produces, per charge state, candidate pattern locations with
// a correlation score. All sizing tables are computed once at construction
// from the maximum m/z of the whole sequence; there is no global mutable
// state and no incremental table update.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/mzsweep/mzsweep/internal/domain/model"
)

// Default scorer configuration constants.
const (
	defaultMaxCharge   = 1
	defaultMZTolerance = 0.1
	defaultMode        = 1 // positive ion mode

	// Averagine-style envelope sizing: roughly one additional relevant
	// isotope peak per averagineStep daltons of neutral mass.
	averagineStep = 1800.0
	maxIsotopes   = 8
	minIsotopes   = 2
	massBinWidth  = 64.0
)

// PatternScorer produces pattern candidates for one scan across all
// configured charge states.
type PatternScorer interface {
	// Candidates scores one scan. The returned candidates are raw: the
	// per-scan adaptive filter has not been applied yet.
	Candidates(ctx context.Context, scan model.Scan) ([]model.Candidate, error)

	// MaxCharge returns the highest charge state the scorer evaluates.
	MaxCharge() int
}

// IsotopeScorer implements PatternScorer by correlating observed peak
// intensities at expected isotope positions against a precomputed
// averagine-style envelope.
type IsotopeScorer struct {
	maxCharge   int
	mode        int // +1 or -1, the recording-mode sign
	mzTolerance float64

	// envelopes[i] is the unit-norm isotope envelope for neutral masses in
	// [i*massBinWidth, (i+1)*massBinWidth). Sized once from the maximum m/z
	// of the sequence; read-only after construction.
	envelopes [][]float64
}

// NewIsotopeScorer builds a scorer whose envelope tables cover neutral
// masses up to maxMZ times the maximum charge. maxMZ must be the maximum
// m/z across the entire scan sequence; scoring a peak beyond it falls back
// to the last table bin.
func NewIsotopeScorer(maxMZ float64, opts ...Option) *IsotopeScorer {
	s := &IsotopeScorer{
		maxCharge:   defaultMaxCharge,
		mode:        defaultMode,
		mzTolerance: defaultMZTolerance,
	}

	for _, opt := range opts {
		opt(s)
	}

	maxMass := maxMZ * float64(s.maxCharge)
	if maxMass < massBinWidth {
		maxMass = massBinWidth
	}
	bins := int(maxMass/massBinWidth) + 1
	s.envelopes = make([][]float64, bins)
	for i := range s.envelopes {
		s.envelopes[i] = envelope(float64(i) * massBinWidth)
	}

	return s
}

// MaxCharge returns the highest charge state the scorer evaluates.
func (s *IsotopeScorer) MaxCharge() int { return s.maxCharge }

// Candidates scores one scan for charges 1..MaxCharge.
func (s *IsotopeScorer) Candidates(ctx context.Context, scan model.Scan) ([]model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring scan %d: %w", scan.Index, err)
	}

	var out []model.Candidate
	for z := 1; z <= s.maxCharge; z++ {
		out = append(out, s.scoreCharge(scan, z)...)
	}
	return out, nil
}

// scoreCharge anchors every peak as a putative monoisotopic position and
// keeps the locally best-scoring anchors per charge.
func (s *IsotopeScorer) scoreCharge(scan model.Scan, z int) []model.Candidate {
	var raw []model.Candidate
	for _, p := range scan.Peaks {
		score, intensity := s.scoreAnchor(scan.Peaks, p.MZ, z)
		if score <= 0 {
			continue
		}
		raw = append(raw, model.Candidate{
			MZ:        p.MZ,
			Charge:    z,
			Score:     score,
			Intensity: intensity,
			ScanIndex: scan.Index,
			RT:        scan.RT,
		})
	}

	// Non-maximum suppression: within one proximity window only the
	// best-scoring anchor stands for the pattern.
	sort.Slice(raw, func(i, j int) bool {
		if raw[i].Score != raw[j].Score {
			return raw[i].Score > raw[j].Score
		}
		return raw[i].MZ < raw[j].MZ
	})

	var kept []model.Candidate
	for _, c := range raw {
		suppressed := false
		for _, k := range kept {
			if math.Abs(k.MZ-c.MZ) <= s.mzTolerance {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].MZ < kept[j].MZ })
	return kept
}

// scoreAnchor correlates the observed intensities at the expected isotope
// positions of one anchor against the envelope for its neutral mass.
func (s *IsotopeScorer) scoreAnchor(peaks []model.Peak, mz float64, z int) (score, intensity float64) {
	neutral := float64(z)*mz - float64(s.mode)*float64(z)*model.ProtonMass
	if neutral <= 0 {
		return 0, 0
	}
	w := s.envelopeFor(neutral)

	observed := make([]float64, len(w))
	matched := 0
	var sum float64
	for j := range w {
		pos := mz + float64(j)*model.IsotopeDelta/float64(z)
		o := nearestIntensity(peaks, pos, s.mzTolerance)
		observed[j] = o
		if o > 0 {
			matched++
			sum += o
		}
	}
	// A single matching peak is no pattern evidence at all.
	if matched < minIsotopes {
		return 0, 0
	}

	var dot, norm float64
	for j := range w {
		dot += w[j] * observed[j]
		norm += observed[j] * observed[j]
	}
	if norm == 0 {
		return 0, 0
	}

	// Cosine similarity weighted by the matched intensity, so the score
	// distribution reflects signal amplitude the way the adaptive
	// threshold expects.
	return dot / math.Sqrt(norm) * math.Sqrt(sum), sum
}

// envelopeFor looks up the precomputed envelope for a neutral mass.
func (s *IsotopeScorer) envelopeFor(neutral float64) []float64 {
	idx := int(neutral / massBinWidth)
	if idx >= len(s.envelopes) {
		idx = len(s.envelopes) - 1
	}
	return s.envelopes[idx]
}

// envelope computes the unit-norm Poisson isotope envelope for a neutral
// mass, the usual averagine approximation.
func envelope(neutral float64) []float64 {
	lambda := neutral / averagineStep
	n := int(lambda) + 3
	if n < minIsotopes {
		n = minIsotopes
	}
	if n > maxIsotopes {
		n = maxIsotopes
	}

	w := make([]float64, n)
	term := math.Exp(-lambda)
	var norm float64
	for j := 0; j < n; j++ {
		w[j] = term
		norm += term * term
		term *= lambda / float64(j+1)
	}
	norm = math.Sqrt(norm)
	for j := range w {
		w[j] /= norm
	}
	return w
}

// nearestIntensity returns the intensity of the most intense peak within
// tol of mz, or zero when none lies in the window. Peaks must be ordered
// by m/z.
func nearestIntensity(peaks []model.Peak, mz, tol float64) float64 {
	lo := sort.Search(len(peaks), func(i int) bool { return peaks[i].MZ >= mz-tol })
	best := 0.0
	for i := lo; i < len(peaks) && peaks[i].MZ <= mz+tol; i++ {
		if peaks[i].Intensity > best {
			best = peaks[i].Intensity
		}
	}
	return best
}
