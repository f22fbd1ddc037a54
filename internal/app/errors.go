package service

import "errors"

// ErrNotConfigured means the service is missing a required collaborator.
var ErrNotConfigured = errors.New("service not configured")
