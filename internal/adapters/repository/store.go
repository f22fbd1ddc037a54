// Package repository defines the feature store interface and errors.
package repository

import (
	"context"

	"github.com/mzsweep/mzsweep/internal/domain/model"
)

// Store provides access to the features produced by a run.
type Store interface {
	// Add appends features to the store.
	Add(ctx context.Context, features ...model.Feature) error

	// List returns all stored features in their insertion order.
	List(ctx context.Context) ([]model.Feature, error)

	// TopN returns the n most intense features, ordered by summed
	// intensity descending.
	TopN(ctx context.Context, n int) ([]model.Feature, error)

	// Count returns the number of stored features.
	Count(ctx context.Context) int
}
