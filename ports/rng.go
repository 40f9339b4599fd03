package ports

import (
	"context"
)

// NoiseSource draws the perturbations applied by the simulator.
// Implementations must be deterministic for a given seed.
type NoiseSource interface {
	// Normal draws one value from N(mean, stdDev²)
	Normal(mean, stdDev float64) float64
}

// RNGPort provides seeded noise sources for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic noise source for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (NoiseSource, error)
}
