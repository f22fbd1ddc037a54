// Package idmerge combines identification runs from separate searches
// into one run, keeping peptide origins traceable through map indices.
package idmerge

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mzsweep/mzsweep/pkg/logger"
)

// Experiment types controlling how strictly modification settings must
// match across merged runs.
const (
	ExperimentLabelFree  = "label-free"
	ExperimentLabeledMS1 = "labeled_MS1"
)

// SearchParams captures the search settings of an identification run.
// Runs may only be merged when these agree.
type SearchParams struct {
	Engine                string
	EngineVersion         string
	DB                    string
	DBVersion             string
	Taxonomy              string
	Charges               string
	DigestionEnzyme       string
	PrecursorTolerance    float64
	PrecursorTolerancePPM bool
	FragmentTolerance     float64
	FragmentTolerancePPM  bool
	FixedModifications    []string
	VariableModifications []string
}

// ProteinHit is one protein reported by a search.
type ProteinHit struct {
	Accession string
	Score     float64
}

// ProteinRun is the protein-level result of one identification run.
type ProteinRun struct {
	Identifier  string
	OriginFiles []string
	Params      SearchParams
	Hits        []ProteinHit
}

// PeptideID is one peptide-spectrum match.
type PeptideID struct {
	RunIdentifier string
	MZ            float64
	RT            float64
	// MapIndex points into the merged origin file list. Negative means
	// not annotated yet.
	MapIndex    int
	ProteinRefs []string
}

// Merger accumulates identification runs and produces one merged run.
type Merger struct {
	annotateOrigin bool
	experimentType string

	identifier        string
	params            SearchParams
	filled            bool
	proteins          []ProteinHit
	peptides          []PeptideID
	fileOriginToIdx   map[string]int
	origins           []string
	proteinsCollected map[string]bool

	logger logger.Logger
}

// NewMerger creates a merger whose result run carries a fresh unique
// identifier.
func NewMerger(opts ...Option) *Merger {
	m := &Merger{
		annotateOrigin: true,
		experimentType: ExperimentLabelFree,
		logger:         logger.Get().Named("idmerge"),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.reset()
	return m
}

// Identifier returns the identifier the merged result run will carry.
func (m *Merger) Identifier() string { return m.identifier }

// InsertRun merges one identification run into the pending result.
func (m *Merger) InsertRun(ctx context.Context, prots []ProteinRun, peps []PeptideID) error {
	if len(prots) == 0 {
		return fmt.Errorf("%w: no protein runs", ErrEmptyRun)
	}
	if len(peps) == 0 {
		m.logger.Warn(ctx, "run without peptide identifications, nothing inserted")
		return nil
	}

	if !m.filled {
		if len(prots) > 1 {
			if err := m.checkConsistency(ctx, prots, prots[0].Params); err != nil {
				return err
			}
		}
		m.params = prots[0].Params
		m.filled = true
	} else if err := m.checkConsistency(ctx, prots, m.params); err != nil {
		return err
	}

	return m.moveToResult(ctx, prots, peps)
}

// Result returns the merged run and resets the merger so it can be
// reused for the next merge right away.
func (m *Merger) Result() (ProteinRun, []PeptideID) {
	merged := ProteinRun{
		Identifier:  m.identifier,
		OriginFiles: m.origins,
		Params:      m.params,
		Hits:        m.proteins,
	}
	peps := m.peptides

	m.reset()
	return merged, peps
}

func (m *Merger) reset() {
	m.identifier = "merged-" + uuid.NewString()
	m.params = SearchParams{}
	m.filled = false
	m.proteins = nil
	m.peptides = nil
	m.fileOriginToIdx = make(map[string]int)
	m.origins = nil
	m.proteinsCollected = make(map[string]bool)
}

// moveToResult transfers peptides and their referenced proteins into
// the pending result, rewriting run identifiers and map indices.
func (m *Merger) moveToResult(ctx context.Context, prots []ProteinRun, peps []PeptideID) error {
	runByID := make(map[string]int, len(prots))
	for i, run := range prots {
		if len(run.OriginFiles) == 0 && m.annotateOrigin {
			return fmt.Errorf("%w: run %s has no origin files", ErrMissingOrigin, run.Identifier)
		}
		runByID[run.Identifier] = i
		for _, f := range run.OriginFiles {
			if _, ok := m.fileOriginToIdx[f]; !ok {
				m.fileOriginToIdx[f] = len(m.origins)
				m.origins = append(m.origins, f)
			}
		}
	}

	for _, pid := range peps {
		runIdx, ok := runByID[pid.RunIdentifier]
		if !ok {
			return fmt.Errorf("%w: peptide (%g, %g) references run %q",
				ErrMissingOrigin, pid.MZ, pid.RT, pid.RunIdentifier)
		}
		run := prots[runIdx]

		if m.annotateOrigin || pid.MapIndex >= 0 {
			fileIdx := 0
			switch {
			case pid.MapIndex >= 0:
				fileIdx = pid.MapIndex
			case len(run.OriginFiles) > 1:
				return fmt.Errorf("%w: peptide (%g, %g) from multi-file run lacks a map index",
					ErrMissingOrigin, pid.MZ, pid.RT)
			}
			if fileIdx >= len(run.OriginFiles) {
				return fmt.Errorf("%w: peptide (%g, %g) map index %d out of range",
					ErrMissingOrigin, pid.MZ, pid.RT, fileIdx)
			}
			pid.MapIndex = m.fileOriginToIdx[run.OriginFiles[fileIdx]]
		}

		pid.RunIdentifier = m.identifier
		for _, acc := range pid.ProteinRefs {
			if m.proteinsCollected[acc] {
				continue
			}
			m.proteinsCollected[acc] = true
			for _, hit := range run.Hits {
				if hit.Accession == acc {
					m.proteins = append(m.proteins, hit)
					break
				}
			}
		}
		m.peptides = append(m.peptides, pid)
	}

	m.logger.Debug(ctx, "run merged",
		logger.Int("peptides", len(peps)),
		logger.Int("total_peptides", len(m.peptides)),
	)

	return nil
}

// checkConsistency verifies that every run was searched with the same
// settings as the reference. Modification mismatches are tolerated for
// MS1-labeled experiments, where label mods differ across runs.
func (m *Merger) checkConsistency(ctx context.Context, prots []ProteinRun, ref SearchParams) error {
	for i, run := range prots {
		sp := run.Params
		if sp.Engine != ref.Engine || sp.EngineVersion != ref.EngineVersion {
			return fmt.Errorf("%w: run %d search engine %s %s differs from %s %s",
				ErrRunInconsistent, i, sp.Engine, sp.EngineVersion, ref.Engine, ref.EngineVersion)
		}
		if sp.PrecursorTolerance != ref.PrecursorTolerance ||
			sp.PrecursorTolerancePPM != ref.PrecursorTolerancePPM ||
			sp.FragmentTolerance != ref.FragmentTolerance ||
			sp.FragmentTolerancePPM != ref.FragmentTolerancePPM ||
			sp.DB != ref.DB || sp.DBVersion != ref.DBVersion ||
			sp.Charges != ref.Charges ||
			sp.DigestionEnzyme != ref.DigestionEnzyme ||
			sp.Taxonomy != ref.Taxonomy {
			return fmt.Errorf("%w: run %d search settings differ", ErrRunInconsistent, i)
		}
		if !sameStringSet(sp.FixedModifications, ref.FixedModifications) ||
			!sameStringSet(sp.VariableModifications, ref.VariableModifications) {
			if m.experimentType != ExperimentLabeledMS1 {
				return fmt.Errorf("%w: run %d modification settings differ", ErrRunInconsistent, i)
			}
			m.logger.Warn(ctx, "modification settings differ across runs",
				logger.Int("run", i),
				logger.String("experiment_type", m.experimentType),
			)
		}
	}

	return nil
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}
