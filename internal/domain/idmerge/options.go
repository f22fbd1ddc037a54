package idmerge

import "github.com/mzsweep/mzsweep/pkg/logger"

// Option applies a configuration option to a Merger.
type Option func(*Merger)

// WithAnnotateOrigin controls whether merged peptides receive a map
// index pointing at their origin file. Enabled by default.
func WithAnnotateOrigin(annotate bool) Option {
	return func(m *Merger) {
		m.annotateOrigin = annotate
	}
}

// WithExperimentType sets the experiment type. MS1-labeled experiments
// tolerate differing modification settings across runs.
func WithExperimentType(t string) Option {
	return func(m *Merger) {
		if t != "" {
			m.experimentType = t
		}
	}
}

// WithLogger sets a custom logger for the merger.
func WithLogger(l logger.Logger) Option {
	return func(m *Merger) {
		if l != nil {
			m.logger = l
		}
	}
}
