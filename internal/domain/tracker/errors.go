package tracker

import "errors"

// ErrOrderingViolation reports a scan presented out of strictly increasing
// index order. It is a fatal precondition failure for the current run, not
// a recoverable condition.
var ErrOrderingViolation = errors.New("scan index not strictly increasing")
