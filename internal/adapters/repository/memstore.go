package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/pkg/logger"
)

// MemStore is an in-memory feature store guarded by a read-write mutex.
// It is the default sink of a run; the sqlite exporter persists from it.
type MemStore struct {
	mu       sync.RWMutex
	features []model.Feature
	closed   bool
	logger   logger.Logger
}

// NewMemStore creates an empty in-memory feature store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		logger: logger.Get().Named("feature-store"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Add appends features to the store.
func (s *MemStore) Add(ctx context.Context, features ...model.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	s.features = append(s.features, features...)
	s.logger.Debug(ctx, "features stored",
		logger.Int("added", len(features)),
		logger.Int("total", len(s.features)),
	)

	return nil
}

// List returns a copy of all stored features in insertion order.
func (s *MemStore) List(_ context.Context) ([]model.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Feature, len(s.features))
	copy(out, s.features)

	return out, nil
}

// TopN returns the n most intense features, ordered by summed intensity
// descending. Ties break toward the lower m/z.
func (s *MemStore) TopN(_ context.Context, n int) ([]model.Feature, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	out := make([]model.Feature, len(s.features))
	copy(out, s.features)
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Intensity != out[j].Intensity {
			return out[i].Intensity > out[j].Intensity
		}
		return out[i].MZ < out[j].MZ
	})

	if n < len(out) {
		out = out[:n]
	}

	return out, nil
}

// Count returns the number of stored features.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.features)
}

// Close rejects further writes. Reads keep working so exporters can drain
// the store after the pipeline finished.
func (s *MemStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
}
