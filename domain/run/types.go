package run

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strings"

	"learnspeed/domain/core"
	"learnspeed/domain/learning"
)

// Parameters are the simulation and analysis settings that affect results
type Parameters struct {
	Attempts    int     `json:"attempts"`
	DriftRate   float64 `json:"drift_rate"`
	NoiseStdDev float64 `json:"noise_std_dev"`
	ScoreCap    float64 `json:"score_cap"`
	Alpha       float64 `json:"alpha"`
	TieBreak    string  `json:"tie_break"`
	GroupColumn string  `json:"group_column"`
}

// RunFingerprint ensures deterministic replay
type RunFingerprint struct {
	CohortHash  core.CohortHash `json:"cohort_hash"`
	Parameters  Parameters      `json:"parameters"`
	Seed        int64           `json:"seed"`
	CodeVersion string          `json:"code_version"`
	Fingerprint core.Hash       `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(cohortHash core.CohortHash, params Parameters, seed int64, codeVersion string) RunFingerprint {
	return RunFingerprint{
		CohortHash:  cohortHash,
		Parameters:  params,
		Seed:        seed,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(cohortHash, params, seed, codeVersion),
	}
}

// computeRunFingerprint generates deterministic hash from all determinism parameters
func computeRunFingerprint(cohortHash core.CohortHash, params Parameters, seed int64, codeVersion string) core.Hash {
	data := fmt.Sprintf("cohort:%s|params:%+v|seed:%d|code:%s", cohortHash, params, seed, codeVersion)
	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}

// ComputeOutputHash fingerprints the statistical results bit for bit.
// Two runs with the same RunFingerprint must produce the same output hash.
func ComputeOutputHash(slopes []learning.SlopeRecord, comparisons []learning.ComparisonResult) core.Hash {
	var data strings.Builder
	for _, s := range slopes {
		fmt.Fprintf(&data, "%s|%s|%s|%x\n", s.EntityID, s.Group, s.Subject, math.Float64bits(s.LearningRate))
	}
	for _, c := range comparisons {
		fmt.Fprintf(&data, "%s|%x|%x|%x|%t|%s|%t|%x|%x|%x|%x\n",
			c.Subject,
			math.Float64bits(c.TStatistic),
			math.Float64bits(c.DegreesOfFreedom),
			math.Float64bits(c.PValue),
			c.Significant,
			c.Faster,
			c.Tie,
			math.Float64bits(c.First.Mean),
			math.Float64bits(c.First.StdDev),
			math.Float64bits(c.Second.Mean),
			math.Float64bits(c.Second.StdDev),
		)
	}
	return core.NewHash([]byte(data.String()))
}
