package rng

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draw(n int, src interface{ Normal(float64, float64) float64 }) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = src.Normal(2.0, 1.0)
	}
	return out
}

func TestNormalNoise_SameSeedSameSequence(t *testing.T) {
	a := draw(50, NewNormalNoise(42, 1))
	b := draw(50, NewNormalNoise(42, 1))
	assert.Equal(t, a, b)

	c := draw(50, NewNormalNoise(43, 1))
	assert.NotEqual(t, a, c)
}

func TestNormalNoise_MomentsMatch(t *testing.T) {
	src := NewNormalNoise(7, 0)
	const n = 20000
	sum, sumSq := 0.0, 0.0
	for i := 0; i < n; i++ {
		v := src.Normal(6.0, 1.0)
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	assert.InDelta(t, 6.0, mean, 0.05)
	assert.InDelta(t, 1.0, math.Sqrt(variance), 0.05)
}

func TestNormalNoise_ZeroStdDevReturnsMean(t *testing.T) {
	src := NewNormalNoise(1, 1)
	assert.Equal(t, 4.0, src.Normal(4.0, 0))
}

func TestAdapter_SeededStreamIsolatesNames(t *testing.T) {
	ctx := context.Background()
	adapter := NewAdapter()

	sim1, err := adapter.SeededStream(ctx, "simulate", 42)
	require.NoError(t, err)
	sim2, err := adapter.SeededStream(ctx, "simulate", 42)
	require.NoError(t, err)
	other, err := adapter.SeededStream(ctx, "bootstrap", 42)
	require.NoError(t, err)

	first := draw(10, sim1)
	assert.Equal(t, first, draw(10, sim2))
	assert.NotEqual(t, first, draw(10, other))
}

func TestAdapter_SeededStreamHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAdapter().SeededStream(ctx, "simulate", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
