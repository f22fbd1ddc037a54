package tracker

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithGapTolerance sets the maximum number of consecutive missed scans an
// open box may absorb before being closed. Negative values are ignored.
func WithGapTolerance(n int) Option {
	return func(t *Tracker) {
		if n >= 0 {
			t.gapTolerance = n
		}
	}
}

// WithMZTolerance sets the m/z proximity window used to match a candidate
// against the most recent element of an open box. The window is owned by
// the scoring configuration; it must be positive.
func WithMZTolerance(tol float64) Option {
	return func(t *Tracker) {
		if tol > 0 {
			t.mzTolerance = tol
		}
	}
}
