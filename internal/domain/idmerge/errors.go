package idmerge

import "errors"

// Sentinel kinds for identification merge errors.
var (
	ErrEmptyRun        = errors.New("empty identification run")
	ErrRunInconsistent = errors.New("search settings differ across runs")
	ErrMissingOrigin   = errors.New("missing origin information")
)
