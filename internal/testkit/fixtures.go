package testkit

import (
	"learnspeed/domain/core"
	"learnspeed/domain/learning"
)

// Baseline builds a baseline record with a deterministic entity ID
func Baseline(ordinal int, group string, math, reading, writing float64) learning.BaselineRecord {
	return learning.BaselineRecord{
		EntityID: core.NewEntityID(ordinal),
		Ordinal:  ordinal,
		Group:    learning.GroupLabel(group),
		Scores:   learning.Scores{math, reading, writing},
	}
}

// UniformCohort builds n records per group, all with the same baseline
// score in every subject
func UniformCohort(perGroup int, score float64, groups ...string) []learning.BaselineRecord {
	var out []learning.BaselineRecord
	for _, g := range groups {
		for i := 0; i < perGroup; i++ {
			out = append(out, Baseline(len(out), g, score, score, score))
		}
	}
	return out
}

// Slopes builds slope records for one group in one subject, one entity per rate
func Slopes(group string, sub learning.Subject, firstOrdinal int, rates ...float64) []learning.SlopeRecord {
	out := make([]learning.SlopeRecord, len(rates))
	for i, r := range rates {
		out[i] = learning.SlopeRecord{
			EntityID:     core.NewEntityID(firstOrdinal + i),
			Group:        learning.GroupLabel(group),
			Subject:      sub,
			LearningRate: r,
		}
	}
	return out
}

// AllSubjectSlopes repeats Slopes for every subject with the same rates
func AllSubjectSlopes(group string, firstOrdinal int, rates ...float64) []learning.SlopeRecord {
	var out []learning.SlopeRecord
	for _, sub := range learning.Subjects() {
		out = append(out, Slopes(group, sub, firstOrdinal, rates...)...)
	}
	return out
}
