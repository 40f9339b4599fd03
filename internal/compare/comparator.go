package compare

import (
	"sort"
	"strings"

	"learnspeed/domain/core"
	"learnspeed/domain/learning"

	"github.com/montanaflynn/stats"
)

// DefaultAlpha is the significance threshold of the comparison
const DefaultAlpha = 0.05

// Options configure the group comparison
type Options struct {
	Alpha    float64
	TieBreak learning.TieBreak
}

// DefaultOptions returns alpha 0.05 with ties going to the first group
func DefaultOptions() Options {
	return Options{Alpha: DefaultAlpha, TieBreak: learning.TieBreakFirst}
}

// ResolveGroups returns the two distinct labels present in slopes, sorted.
// More than two labels is a schema error; fewer than two is insufficient data.
func ResolveGroups(slopes []learning.SlopeRecord) (learning.GroupPair, error) {
	seen := make(map[learning.GroupLabel]struct{})
	for _, s := range slopes {
		seen[s.Group] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for g := range seen {
		labels = append(labels, string(g))
	}
	sort.Strings(labels)

	switch {
	case len(labels) > 2:
		return learning.GroupPair{}, core.NewSchemaError("expected exactly two groups, found %d: %s", len(labels), strings.Join(labels, ", "))
	case len(labels) < 2:
		return learning.GroupPair{}, core.NewInsufficientDataError("expected exactly two groups, found %d", len(labels))
	}
	return learning.NewGroupPair(learning.GroupLabel(labels[0]), learning.GroupLabel(labels[1]))
}

// partition collects learning rates by [group index][subject index]
func partition(slopes []learning.SlopeRecord, groups learning.GroupPair) ([2][learning.SubjectCount][]float64, error) {
	var cells [2][learning.SubjectCount][]float64
	for _, s := range slopes {
		gi, si := groups.Index(s.Group), s.Subject.Index()
		if gi < 0 {
			return cells, core.NewSchemaError("slope for entity %s has group %q outside %q/%q", s.EntityID, s.Group, groups.First, groups.Second)
		}
		if si < 0 {
			return cells, core.NewSchemaError("slope for entity %s has unknown subject %q", s.EntityID, s.Subject)
		}
		cells[gi][si] = append(cells[gi][si], s.LearningRate)
	}
	for gi, g := range groups.Labels() {
		for _, sub := range learning.Subjects() {
			if len(cells[gi][sub.Index()]) == 0 {
				return cells, core.NewInsufficientDataError("group %q has no members in %s", g, sub)
			}
		}
	}
	return cells, nil
}

// Summarize computes the dense 2x3 table of mean learning rates
func Summarize(slopes []learning.SlopeRecord, groups learning.GroupPair) (learning.GroupSubjectSummary, error) {
	cells, err := partition(slopes, groups)
	if err != nil {
		return learning.GroupSubjectSummary{}, err
	}
	return summarize(cells, groups), nil
}

func summarize(cells [2][learning.SubjectCount][]float64, groups learning.GroupPair) learning.GroupSubjectSummary {
	summary := learning.GroupSubjectSummary{Groups: groups}
	for gi := range cells {
		for si := range cells[gi] {
			m, _ := stats.Mean(cells[gi][si])
			summary.Means[gi][si] = m
		}
	}
	return summary
}

// Compare resolves the groups, summarizes their learning rates, tests every
// subject and ranks the groups overall
func Compare(slopes []learning.SlopeRecord, opts Options) (*learning.Analysis, error) {
	groups, err := ResolveGroups(slopes)
	if err != nil {
		return nil, err
	}
	return CompareGroups(slopes, groups, opts)
}

// CompareGroups is Compare with the two groups fixed by the caller. A group
// with no slopes in some subject is insufficient data.
func CompareGroups(slopes []learning.SlopeRecord, groups learning.GroupPair, opts Options) (*learning.Analysis, error) {
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		opts.Alpha = DefaultAlpha
	}
	cells, err := partition(slopes, groups)
	if err != nil {
		return nil, err
	}
	summary := summarize(cells, groups)

	comparisons := make([]learning.ComparisonResult, 0, learning.SubjectCount)
	for _, sub := range learning.Subjects() {
		si := sub.Index()
		first, second := cells[0][si], cells[1][si]
		tt := PooledTTest(second, first)
		faster, tie := opts.TieBreak.Pick(groups, summary.Means[0][si], summary.Means[1][si])

		comparisons = append(comparisons, learning.ComparisonResult{
			Subject:          sub,
			TStatistic:       tt.T,
			DegreesOfFreedom: tt.DF,
			PValue:           tt.PValue,
			Significant:      tt.PValue < opts.Alpha,
			Faster:           faster,
			Tie:              tie,
			First:            groupStats(groups.First, first, summary.Means[0][si]),
			Second:           groupStats(groups.Second, second, summary.Means[1][si]),
		})
	}

	return &learning.Analysis{
		Groups:      groups,
		Summary:     summary,
		Comparisons: comparisons,
		Overall:     Overall(summary, opts.TieBreak),
		Alpha:       opts.Alpha,
		EntityCount: countEntities(slopes),
	}, nil
}

func groupStats(g learning.GroupLabel, rates []float64, mean float64) learning.GroupStats {
	return learning.GroupStats{
		Group:  g,
		N:      len(rates),
		Mean:   mean,
		StdDev: sampleStdDev(rates),
	}
}

// Overall ranks the groups by the average of their three subject means
func Overall(summary learning.GroupSubjectSummary, tb learning.TieBreak) learning.OverallResult {
	var speed [2]float64
	for gi := range summary.Means {
		speed[gi], _ = stats.Mean(summary.Means[gi][:])
	}
	winner, tie := tb.Pick(summary.Groups, speed[0], speed[1])
	wi := summary.Groups.Index(winner)
	return learning.OverallResult{
		Winner:        winner,
		WinnerSpeed:   speed[wi],
		RunnerUp:      summary.Groups.Other(winner),
		RunnerUpSpeed: speed[1-wi],
		Tie:           tie,
	}
}

func countEntities(slopes []learning.SlopeRecord) int {
	seen := make(map[core.EntityID]struct{})
	for _, s := range slopes {
		seen[s.EntityID] = struct{}{}
	}
	return len(seen)
}
