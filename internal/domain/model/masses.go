package model

// Physical constants shared across scoring and export.
const (
	// ProtonMass in daltons.
	ProtonMass = 1.007276466879

	// IsotopeDelta is the C13 - C12 mass difference in daltons.
	IsotopeDelta = 1.0033548378
)
