package service

import (
	"github.com/mzsweep/mzsweep/internal/adapters/repository"
	"github.com/mzsweep/mzsweep/internal/adapters/source"
	"github.com/mzsweep/mzsweep/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the scan source of the run.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithSourcePath records the path of the input file for the exporters.
func WithSourcePath(path string) Option {
	return func(s *Service) {
		s.sourcePath = path
	}
}

// WithStore sets the feature store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPMFPath enables the peptide-mass-fingerprint export.
func WithPMFPath(path string) Option {
	return func(s *Service) {
		s.pmfPath = path
	}
}

// WithDBPath enables the SQLite export.
func WithDBPath(path string) Option {
	return func(s *Service) {
		s.dbPath = path
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
