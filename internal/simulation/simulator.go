package simulation

import (
	"context"
	"math"

	"learnspeed/domain/learning"
	"learnspeed/ports"
)

// Config controls how attempts are synthesized from a baseline
type Config struct {
	Attempts    int
	DriftRate   float64 // expected gain per attempt
	NoiseStdDev float64
	ScoreCap    float64
}

// DefaultConfig returns five attempts drifting +2 per attempt with unit noise, capped at 100
func DefaultConfig() Config {
	return Config{
		Attempts:    5,
		DriftRate:   2.0,
		NoiseStdDev: 1.0,
		ScoreCap:    100,
	}
}

// Simulator synthesizes repeated attempts for every baseline record
type Simulator struct {
	cfg   Config
	noise ports.NoiseSource
}

// New creates a simulator that draws perturbations from noise
func New(cfg Config, noise ports.NoiseSource) *Simulator {
	return &Simulator{cfg: cfg, noise: noise}
}

// Simulate produces Attempts observations per baseline, entity by entity.
// Attempt i scores min(cap, baseline + Normal(i*drift, sd)) independently per
// subject. Draws happen in entity, attempt, subject order so a seeded source
// reproduces the same output. Baselines are not modified.
func (s *Simulator) Simulate(ctx context.Context, baselines []learning.BaselineRecord) ([]learning.SimulatedObservation, error) {
	attempts := s.cfg.Attempts
	if attempts < 0 {
		attempts = 0
	}
	out := make([]learning.SimulatedObservation, 0, len(baselines)*attempts)

	for _, b := range baselines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := 1; i <= attempts; i++ {
			obs := learning.SimulatedObservation{
				EntityID: b.EntityID,
				Group:    b.Group,
				Attempt:  i,
			}
			mean := float64(i) * s.cfg.DriftRate
			for _, sub := range learning.Subjects() {
				idx := sub.Index()
				obs.Scores[idx] = math.Min(s.cfg.ScoreCap, b.Scores[idx]+s.noise.Normal(mean, s.cfg.NoiseStdDev))
			}
			out = append(out, obs)
		}
	}
	return out, nil
}
