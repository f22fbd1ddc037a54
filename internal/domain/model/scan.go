// Package model contains domain entities passed between pipeline stages.
package model

// Peak is a single (m/z, intensity) pair within a spectrum.
type Peak struct {
	MZ        float64
	Intensity float64
}

// Scan is one mass spectrum of an LC-MS run. Scans are immutable once
// produced by a source and are identified by a monotonically increasing
// index; retention time strictly increases with the index.
type Scan struct {
	Index int
	RT    float64 // retention time in seconds
	Peaks []Peak  // ordered by m/z
}

// Candidate is a per-scan, per-charge pattern location produced by the
// scorer. It is ephemeral: the tracker consumes it for the scan that
// produced it and persists a BoxElement instead.
type Candidate struct {
	MZ        float64
	Charge    int // >= 1
	Score     float64
	Intensity float64
	ScanIndex int
	RT        float64
}
