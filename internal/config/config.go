// Package config defines run configuration and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and MZSWEEP_* env vars.
// - Validate fails fast before any scan is processed.
package config

import (
	"fmt"
	"runtime"
)

// Config contains all parameters of a detection run.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MaxCharge is the highest charge state evaluated by the scorer (>= 1).
	MaxCharge int `koanf:"max_charge"`

	// IntensityThreshold is the k in the per-scan cutoff t' = mean + k*sd
	// over the scan's score distribution. Exactly -1 disables the adaptive
	// term (t' = 0); otherwise it must be >= 0.
	IntensityThreshold float64 `koanf:"intensity_threshold"`

	// VotesCutoff is the minimum number of contributing scans a trace needs
	// to be promoted to a feature (>= 0).
	VotesCutoff int `koanf:"rt_votes_cutoff"`

	// GapTolerance is the maximum number of consecutive scans a trace may
	// miss before it is closed (>= 0).
	GapTolerance int `koanf:"rt_interleave"`

	// RecordingMode is +1 for positive ion mode, -1 for negative. Forwarded
	// to the scorer only.
	RecordingMode int `koanf:"recording_mode"`

	// MZTolerance is the m/z proximity window for isotope-peak collection
	// and candidate-to-trace matching (> 0).
	MZTolerance float64 `koanf:"mz_tolerance"`

	// CreatePMFFile turns on the peptide-mass-fingerprint export.
	CreatePMFFile bool `koanf:"create_pmf_file"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory scan queue feeding the workers.
	QueueSize int `koanf:"queue_size"`

	// MetricsAddr, when non-empty, serves Prometheus metrics on this
	// address for the duration of the run.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with the default parameter set.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		MaxCharge:          1,
		IntensityThreshold: 0.1,
		VotesCutoff:        5,
		GapTolerance:       2,
		RecordingMode:      1,
		MZTolerance:        0.1,
		CreatePMFFile:      false,
		WorkerCount:        runtime.NumCPU(),
		QueueSize:          1024,
	}
}

// Validate checks the configuration invariants. It returns an error
// wrapping ErrInvalidConfig naming the first offending field, so a
// malformed run is rejected before the first scan.
func (c *Config) Validate() error {
	if c.MaxCharge < 1 {
		return fmt.Errorf("%w: max_charge must be >= 1, got %d", ErrInvalidConfig, c.MaxCharge)
	}
	if c.IntensityThreshold != -1 && c.IntensityThreshold < 0 {
		return fmt.Errorf("%w: intensity_threshold must be -1 or >= 0, got %g", ErrInvalidConfig, c.IntensityThreshold)
	}
	if c.VotesCutoff < 0 {
		return fmt.Errorf("%w: rt_votes_cutoff must be >= 0, got %d", ErrInvalidConfig, c.VotesCutoff)
	}
	if c.GapTolerance < 0 {
		return fmt.Errorf("%w: rt_interleave must be >= 0, got %d", ErrInvalidConfig, c.GapTolerance)
	}
	if c.RecordingMode != 1 && c.RecordingMode != -1 {
		return fmt.Errorf("%w: recording_mode must be +1 or -1, got %d", ErrInvalidConfig, c.RecordingMode)
	}
	if c.MZTolerance <= 0 {
		return fmt.Errorf("%w: mz_tolerance must be > 0, got %g", ErrInvalidConfig, c.MZTolerance)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be >= 1, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be >= 1, got %d", ErrInvalidConfig, c.QueueSize)
	}
	return nil
}
