package ports

import (
	"context"

	"learnspeed/domain/learning"
)

// ReportInput is everything the reporter renders
type ReportInput struct {
	Analysis     *learning.Analysis
	Observations []learning.SimulatedObservation
	Slopes       []learning.SlopeRecord
	GroupColumn  string
	Attempts     int
	Seed         int64
	// Profiles describe the baseline scores; optional
	Profiles []learning.BaselineProfile
}

// Reporter turns an analysis into files.
// It returns the written paths keyed by output name.
type Reporter interface {
	Write(ctx context.Context, in ReportInput) (map[string]string, error)
}
