package trend

import (
	"context"
	"testing"

	"learnspeed/domain/core"
	"learnspeed/domain/learning"
	"learnspeed/internal/simulation"
	"learnspeed/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlope(t *testing.T) {
	attempts := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		name     string
		attempts []float64
		scores   []float64
		expected float64
	}{
		{"steady gain", attempts, []float64{10, 12, 14, 16, 18}, 2.0},
		{"flat", attempts, []float64{7, 7, 7, 7, 7}, 0},
		{"decline", attempts, []float64{9, 7, 5, 3, 1}, -2.0},
		{"noisy", attempts, []float64{1, 3, 2, 5, 4}, 0.8},
		{"single point", []float64{1}, []float64{50}, 0},
		{"empty", nil, nil, 0},
		{"length mismatch", attempts, []float64{1, 2}, 0},
		{"constant attempts", []float64{3, 3, 3}, []float64{1, 2, 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Slope(tt.attempts, tt.scores), 1e-12)
		})
	}
}

func TestEstimateAll_OneSlopePerEntitySubject(t *testing.T) {
	baselines := testkit.UniformCohort(3, 40, "female", "male")
	obs, err := simulation.New(simulation.DefaultConfig(), testkit.ZeroNoise{}).Simulate(context.Background(), baselines)
	require.NoError(t, err)

	slopes, err := NewEstimator(2).EstimateAll(context.Background(), obs)
	require.NoError(t, err)
	require.Len(t, slopes, len(baselines)*learning.SubjectCount)

	for i, s := range slopes {
		entity := baselines[i/learning.SubjectCount]
		assert.Equal(t, entity.EntityID, s.EntityID)
		assert.Equal(t, entity.Group, s.Group)
		assert.Equal(t, learning.Subjects()[i%learning.SubjectCount], s.Subject)
		assert.InDelta(t, 2.0, s.LearningRate, 1e-9)
	}
}

func TestEstimateAll_OrderIndependentOfWorkers(t *testing.T) {
	baselines := testkit.UniformCohort(25, 55, "female", "male")
	obs, err := simulation.New(simulation.DefaultConfig(), testkit.NewScriptedNoise(0.3, -0.7, 1.1, 0.2, -0.4)).
		Simulate(context.Background(), baselines)
	require.NoError(t, err)

	serial, err := NewEstimator(1).EstimateAll(context.Background(), obs)
	require.NoError(t, err)
	parallel, err := NewEstimator(8).EstimateAll(context.Background(), obs)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestEstimateAll_SingleAttemptGivesZero(t *testing.T) {
	cfg := simulation.DefaultConfig()
	cfg.Attempts = 1
	obs, err := simulation.New(cfg, testkit.ZeroNoise{}).Simulate(context.Background(), testkit.UniformCohort(1, 50, "a", "b"))
	require.NoError(t, err)

	slopes, err := NewEstimator(0).EstimateAll(context.Background(), obs)
	require.NoError(t, err)
	require.Len(t, slopes, 6)
	for _, s := range slopes {
		assert.Equal(t, 0.0, s.LearningRate)
	}
}

func TestEstimateAll_RejectsGroupChange(t *testing.T) {
	id := core.NewEntityID(0)
	obs := []learning.SimulatedObservation{
		{EntityID: id, Group: "female", Attempt: 1},
		{EntityID: id, Group: "male", Attempt: 2},
	}

	_, err := NewEstimator(1).EstimateAll(context.Background(), obs)
	require.Error(t, err)
	assert.True(t, core.IsSchemaError(err))
}

func TestEstimateAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	obs := []learning.SimulatedObservation{{EntityID: core.NewEntityID(0), Group: "a", Attempt: 1}}

	_, err := NewEstimator(1).EstimateAll(ctx, obs)
	assert.ErrorIs(t, err, context.Canceled)
}
