package repository

import "errors"

// Sentinel kinds for feature store errors.
var (
	ErrInvalidLimit = errors.New("invalid top-n limit")
	ErrStoreClosed  = errors.New("feature store closed")
)
