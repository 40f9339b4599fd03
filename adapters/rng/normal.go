package rng

import (
	"context"
	"math/rand/v2"

	"learnspeed/ports"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalNoise draws Gaussian noise from a seeded PCG stream
type NormalNoise struct {
	src rand.Source
}

// NewNormalNoise creates a noise source whose draws depend only on seed and stream
func NewNormalNoise(seed int64, stream uint64) *NormalNoise {
	return &NormalNoise{src: rand.NewPCG(uint64(seed), stream)}
}

// Normal draws one value from N(mean, stdDev²). A zero stdDev returns mean
// without consuming randomness.
func (n *NormalNoise) Normal(mean, stdDev float64) float64 {
	if stdDev == 0 {
		return mean
	}
	dist := distuv.Normal{Mu: mean, Sigma: stdDev, Src: n.src}
	return dist.Rand()
}

// Adapter implements ports.RNGPort
type Adapter struct{}

// NewAdapter creates a new RNG adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic noise source for a named operation.
// The same (name, seed) pair always yields the same sequence.
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (ports.NoiseSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewNormalNoise(seed, uint64(hashString(name))), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}

var _ ports.RNGPort = (*Adapter)(nil)
var _ ports.NoiseSource = (*NormalNoise)(nil)
