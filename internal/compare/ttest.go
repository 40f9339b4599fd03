package compare

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// TTestResult holds the outcome of a two-sample t-test
type TTestResult struct {
	T      float64
	DF     float64
	PValue float64
}

// PooledTTest runs an independent two-sample Student's t-test assuming equal
// variances. T is positive when a has the larger mean.
//
// Degenerate inputs: fewer than one degree of freedom, or a zero pooled
// standard error with equal means, give t = 0 and p = 1. A zero standard
// error with different means gives t = ±Inf and p = 0.
func PooledTTest(a, b []float64) TTestResult {
	na, nb := float64(len(a)), float64(len(b))
	df := na + nb - 2
	if len(a) == 0 || len(b) == 0 || df < 1 {
		return TTestResult{T: 0, DF: math.Max(df, 0), PValue: 1}
	}

	meanA, _ := stats.Mean(a)
	meanB, _ := stats.Mean(b)
	varA := sampleVariance(a)
	varB := sampleVariance(b)

	pooled := ((na-1)*varA + (nb-1)*varB) / df
	se := math.Sqrt(pooled * (1/na + 1/nb))

	if se == 0 {
		switch {
		case meanA == meanB:
			return TTestResult{T: 0, DF: df, PValue: 1}
		case meanA > meanB:
			return TTestResult{T: math.Inf(1), DF: df, PValue: 0}
		default:
			return TTestResult{T: math.Inf(-1), DF: df, PValue: 0}
		}
	}

	t := (meanA - meanB) / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	return TTestResult{T: t, DF: df, PValue: math.Min(p, 1)}
}

// sampleVariance divides by n-1 and is 0 for a single value
func sampleVariance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	v, err := stats.SampleVariance(xs)
	if err != nil {
		return 0
	}
	return v
}

// sampleStdDev is the n-1 standard deviation, 0 for a single value
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(xs)
	if err != nil {
		return 0
	}
	return sd
}
