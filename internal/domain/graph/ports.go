package graph

import "context"

// SeedRepository persists one cost matrix per RNG seed so a run can be
// replayed bit-for-bit. The matrix must round-trip exactly.
type SeedRepository interface {
	// Save persists the cost matrix under the given seed
	Save(ctx context.Context, seed int64, matrix [][]float64) error

	// Load retrieves the cost matrix for a seed
	Load(ctx context.Context, seed int64) ([][]float64, error)

	// Exists reports whether a matrix is stored for the seed
	Exists(ctx context.Context, seed int64) (bool, error)

	// ListSeeds returns all persisted seeds in ascending order
	ListSeeds(ctx context.Context) ([]int64, error)

	// NextUnusedSeed returns the lowest non-negative integer not yet
	// used as a seed
	NextUnusedSeed(ctx context.Context) (int64, error)
}
