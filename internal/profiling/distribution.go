package profiling

import (
	"math"
	"sort"

	"learnspeed/domain/core"
	"learnspeed/domain/learning"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics of one series
type Summary struct {
	N        int
	Mean     float64
	StdDev   float64 // sample (n-1); 0 for a single value
	Median   float64
	Min      float64
	Max      float64
	Q25      float64
	Q75      float64
	Skewness float64
	Outliers int
}

// Describe computes the summary statistics of data. Quartiles use the
// empirical quantile, so any non-empty series can be described.
func Describe(data []float64) (Summary, error) {
	s := Summary{N: len(data)}

	mean, err := stats.Mean(data)
	if err != nil {
		return s, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return s, err
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	// Quartiles for IQR-based outlier detection
	q25 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q75 := stat.Quantile(0.75, stat.Empirical, sorted, nil)

	s.Mean, s.Median, s.Q25, s.Q75 = mean, median, q25, q75
	s.Min, s.Max = sorted[0], sorted[len(sorted)-1]
	if len(data) > 1 {
		if s.StdDev, err = stats.StandardDeviationSample(data); err != nil {
			return s, err
		}
	}
	popStdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return s, err
	}
	s.Skewness = calculateSkewness(data, mean, popStdDev)
	s.Outliers = detectOutliers(data, q25, q75)
	return s, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n
	// Bias correction for sample skewness
	return skewness * math.Sqrt(n*(n-1)) / (n - 2)
}

// detectOutliers counts values outside 1.5 IQR of the quartiles
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}

// BaselineProfiler describes the baseline scores of each group before
// simulation
type BaselineProfiler struct {
	scoreCap float64
}

// NewBaselineProfiler creates a profiler that counts scores at or above scoreCap
func NewBaselineProfiler(scoreCap float64) *BaselineProfiler {
	return &BaselineProfiler{scoreCap: scoreCap}
}

// Profile returns one profile per (group, subject), groups sorted by label
// and subjects in canonical order
func (p *BaselineProfiler) Profile(baselines []learning.BaselineRecord) ([]learning.BaselineProfile, error) {
	if len(baselines) == 0 {
		return nil, core.NewInsufficientDataError("no baselines to profile")
	}

	byGroup := make(map[learning.GroupLabel][][]float64)
	for _, b := range baselines {
		cols, ok := byGroup[b.Group]
		if !ok {
			cols = make([][]float64, learning.SubjectCount)
		}
		for si, v := range b.Scores {
			cols[si] = append(cols[si], v)
		}
		byGroup[b.Group] = cols
	}

	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, string(g))
	}
	sort.Strings(groups)

	profiles := make([]learning.BaselineProfile, 0, len(groups)*learning.SubjectCount)
	for _, g := range groups {
		label := learning.GroupLabel(g)
		for _, sub := range learning.Subjects() {
			data := byGroup[label][sub.Index()]
			s, err := Describe(data)
			if err != nil {
				return nil, err
			}
			profiles = append(profiles, learning.BaselineProfile{
				Group:    label,
				Subject:  sub,
				N:        s.N,
				Mean:     s.Mean,
				StdDev:   s.StdDev,
				Median:   s.Median,
				Min:      s.Min,
				Max:      s.Max,
				Q25:      s.Q25,
				Q75:      s.Q75,
				Skewness: s.Skewness,
				Outliers: s.Outliers,
				AtCap:    p.countAtCap(data),
			})
		}
	}
	return profiles, nil
}

func (p *BaselineProfiler) countAtCap(data []float64) int {
	n := 0
	for _, v := range data {
		if v >= p.scoreCap {
			n++
		}
	}
	return n
}
