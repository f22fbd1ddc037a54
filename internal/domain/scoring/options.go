package scoring

// Option applies a configuration option to the IsotopeScorer.
type Option func(*IsotopeScorer)

// WithMaxCharge sets the highest charge state to evaluate. Values below 1
// are ignored.
func WithMaxCharge(z int) Option {
	return func(s *IsotopeScorer) {
		if z >= 1 {
			s.maxCharge = z
		}
	}
}

// WithMode sets the recording-mode sign: +1 for positive ion mode, -1 for
// negative. Any other value is ignored.
func WithMode(mode int) Option {
	return func(s *IsotopeScorer) {
		if mode == 1 || mode == -1 {
			s.mode = mode
		}
	}
}

// WithMZTolerance sets the m/z window used both to collect isotope peaks
// around an expected position and as the proximity tolerance the tracker
// matches candidates with. Must be positive.
func WithMZTolerance(tol float64) Option {
	return func(s *IsotopeScorer) {
		if tol > 0 {
			s.mzTolerance = tol
		}
	}
}
