package source

import "errors"

// Sentinel kinds for scan source errors.
var (
	ErrScanOrder     = errors.New("scan sequence out of order")
	ErrMalformedFile = errors.New("malformed mzML file")
)
