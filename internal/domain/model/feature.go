package model

// Feature is a finalized isotope-pattern detection spanning a gap-tolerant
// run of scans. It is created once at synthesis time from exactly one
// closed box and is immutable thereafter.
//
// Aggregation rule: MZ is the intensity-weighted mean m/z of the trace
// elements (plain mean when the summed intensity is zero), Intensity and
// Score are the element sums.
type Feature struct {
	MZ        float64
	Charge    int // >= 1, the external one-based charge state
	RTStart   float64
	RTEnd     float64
	Intensity float64
	Score     float64
	Scans     int // number of contributing scans
}
