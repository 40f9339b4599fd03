package learning

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"learnspeed/domain/core"
)

// Subject names one of the three scored subjects
type Subject string

const (
	SubjectMath    Subject = "math_score"
	SubjectReading Subject = "reading_score"
	SubjectWriting Subject = "writing_score"
)

// SubjectCount is the number of scored subjects per record
const SubjectCount = 3

// Subjects returns the subjects in their canonical order
func Subjects() []Subject {
	return []Subject{SubjectMath, SubjectReading, SubjectWriting}
}

// Index returns the position of the subject in Subjects(), or -1.
func (s Subject) Index() int {
	switch s {
	case SubjectMath:
		return 0
	case SubjectReading:
		return 1
	case SubjectWriting:
		return 2
	}
	return -1
}

// Title is the long display name used in chart titles
func (s Subject) Title() string {
	switch s {
	case SubjectMath:
		return "Mathematics"
	case SubjectReading:
		return "Reading Comprehension"
	case SubjectWriting:
		return "Writing Skills"
	}
	return string(s)
}

// Short is the compact display name used on axes and in findings
func (s Subject) Short() string {
	switch s {
	case SubjectMath:
		return "Math"
	case SubjectReading:
		return "Reading"
	case SubjectWriting:
		return "Writing"
	}
	return string(s)
}

// DefaultColumn is the input column that carries the subject's baseline score
func (s Subject) DefaultColumn() string {
	return strings.Replace(string(s), "_", " ", 1)
}

// Scores holds one value per subject, indexed by Subject.Index()
type Scores [SubjectCount]float64

// Of returns the score for a subject
func (s Scores) Of(sub Subject) float64 {
	return s[sub.Index()]
}

// GroupLabel is the categorical value that partitions entities
type GroupLabel string

// Title capitalizes the label for display ("female" -> "Female")
func (g GroupLabel) Title() string {
	if g == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(string(g))
	return string(unicode.ToUpper(r)) + string(g[size:])
}

// GroupPair is the ordered pair of groups being compared.
// First sorts before Second.
type GroupPair struct {
	First  GroupLabel `json:"first"`
	Second GroupLabel `json:"second"`
}

// NewGroupPair orders two distinct labels
func NewGroupPair(a, b GroupLabel) (GroupPair, error) {
	if a == b {
		return GroupPair{}, core.NewInsufficientDataError("need two distinct groups, got only %q", a)
	}
	labels := []string{string(a), string(b)}
	sort.Strings(labels)
	return GroupPair{First: GroupLabel(labels[0]), Second: GroupLabel(labels[1])}, nil
}

// Labels returns both labels in order
func (p GroupPair) Labels() []GroupLabel {
	return []GroupLabel{p.First, p.Second}
}

// Index returns 0 for First, 1 for Second and -1 otherwise
func (p GroupPair) Index(g GroupLabel) int {
	switch g {
	case p.First:
		return 0
	case p.Second:
		return 1
	}
	return -1
}

// Other returns the label that is not g
func (p GroupPair) Other(g GroupLabel) GroupLabel {
	if g == p.First {
		return p.Second
	}
	return p.First
}

// BaselineRecord is one row of the input table. Immutable once loaded.
type BaselineRecord struct {
	EntityID core.EntityID `json:"entity_id"`
	Ordinal  int           `json:"ordinal"`
	Group    GroupLabel    `json:"group"`
	Scores   Scores        `json:"scores"`
}

// SimulatedObservation is one synthetic attempt for one entity
type SimulatedObservation struct {
	EntityID core.EntityID `json:"entity_id"`
	Group    GroupLabel    `json:"group"`
	Attempt  int           `json:"attempt"`
	Scores   Scores        `json:"scores"`
}

// SlopeRecord is the fitted learning rate of one entity in one subject
type SlopeRecord struct {
	EntityID     core.EntityID `json:"entity_id"`
	Group        GroupLabel    `json:"group"`
	Subject      Subject       `json:"subject"`
	LearningRate float64       `json:"learning_rate"`
}

// GroupSubjectSummary is the dense 2x3 table of mean learning rates
type GroupSubjectSummary struct {
	Groups GroupPair                `json:"groups"`
	Means  [2][SubjectCount]float64 `json:"means"`
}

// Mean looks up the mean learning rate for a (group, subject) cell
func (s GroupSubjectSummary) Mean(g GroupLabel, sub Subject) (float64, bool) {
	gi, si := s.Groups.Index(g), sub.Index()
	if gi < 0 || si < 0 {
		return 0, false
	}
	return s.Means[gi][si], true
}

// Row returns the three subject means of a group in canonical subject order
func (s GroupSubjectSummary) Row(g GroupLabel) ([]float64, bool) {
	gi := s.Groups.Index(g)
	if gi < 0 {
		return nil, false
	}
	row := make([]float64, SubjectCount)
	copy(row, s.Means[gi][:])
	return row, true
}

// BaselineProfile summarizes one group's baseline scores in one subject
type BaselineProfile struct {
	Group    GroupLabel `json:"group"`
	Subject  Subject    `json:"subject"`
	N        int        `json:"n"`
	Mean     float64    `json:"mean"`
	StdDev   float64    `json:"std_dev"`
	Median   float64    `json:"median"`
	Min      float64    `json:"min"`
	Max      float64    `json:"max"`
	Q25      float64    `json:"q25"`
	Q75      float64    `json:"q75"`
	Skewness float64    `json:"skewness"`
	Outliers int        `json:"outliers"`
	// AtCap counts baselines already at the score cap. Their simulated
	// attempts cannot rise, which flattens the fitted learning rate.
	AtCap int `json:"at_cap"`
}

// GroupStats describes one group's learning-rate distribution in one subject
type GroupStats struct {
	Group  GroupLabel `json:"group"`
	N      int        `json:"n"`
	Mean   float64    `json:"mean"`
	StdDev float64    `json:"std_dev"`
}

// ComparisonResult is the outcome of the per-subject group comparison
type ComparisonResult struct {
	Subject          Subject    `json:"subject"`
	TStatistic       float64    `json:"t_statistic"` // Second minus First
	DegreesOfFreedom float64    `json:"degrees_of_freedom"`
	PValue           float64    `json:"p_value"`
	Significant      bool       `json:"significant"`
	Faster           GroupLabel `json:"faster"`
	Tie              bool       `json:"tie"`
	First            GroupStats `json:"first"`
	Second           GroupStats `json:"second"`
}

// Stats returns the stats for a group label
func (c ComparisonResult) Stats(g GroupLabel) (GroupStats, bool) {
	switch g {
	case c.First.Group:
		return c.First, true
	case c.Second.Group:
		return c.Second, true
	}
	return GroupStats{}, false
}

// Gap is First mean minus Second mean
func (c ComparisonResult) Gap() float64 {
	return c.First.Mean - c.Second.Mean
}

// OverallResult ranks the groups by their average learning rate across subjects
type OverallResult struct {
	Winner        GroupLabel `json:"winner"`
	WinnerSpeed   float64    `json:"winner_speed"`
	RunnerUp      GroupLabel `json:"runner_up"`
	RunnerUpSpeed float64    `json:"runner_up_speed"`
	Tie           bool       `json:"tie"`
}

// Analysis bundles everything the comparator derives for the reporter
type Analysis struct {
	Groups      GroupPair           `json:"groups"`
	Summary     GroupSubjectSummary `json:"summary"`
	Comparisons []ComparisonResult  `json:"comparisons"`
	Overall     OverallResult       `json:"overall"`
	Alpha       float64             `json:"alpha"`
	EntityCount int                 `json:"entity_count"`
}

// Comparison returns the result for a subject
func (a *Analysis) Comparison(sub Subject) (ComparisonResult, bool) {
	for _, c := range a.Comparisons {
		if c.Subject == sub {
			return c, true
		}
	}
	return ComparisonResult{}, false
}

// SubjectWins counts how many subjects each group was faster in
func (a *Analysis) SubjectWins() map[GroupLabel]int {
	wins := map[GroupLabel]int{a.Groups.First: 0, a.Groups.Second: 0}
	for _, c := range a.Comparisons {
		wins[c.Faster]++
	}
	return wins
}

// TieBreak decides which group is reported as faster when means are equal
type TieBreak string

const (
	// TieBreakFirst favours the label that sorts first. With gender data this
	// is "female", the fallback of a "male if male > female" comparison.
	TieBreakFirst  TieBreak = "first"
	TieBreakSecond TieBreak = "second"
)

// ParseTieBreak validates a tie-break policy name
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(strings.ToLower(strings.TrimSpace(s))) {
	case TieBreakFirst, "":
		return TieBreakFirst, nil
	case TieBreakSecond:
		return TieBreakSecond, nil
	}
	return "", fmt.Errorf("%w: tie break must be %q or %q, got %q", core.ErrInvalidConfig, TieBreakFirst, TieBreakSecond, s)
}

// Pick returns the group with the strictly higher value, or the policy's
// group on an exact tie. The boolean reports whether a tie occurred.
func (t TieBreak) Pick(pair GroupPair, first, second float64) (GroupLabel, bool) {
	switch {
	case first > second:
		return pair.First, false
	case second > first:
		return pair.Second, false
	}
	if t == TieBreakSecond {
		return pair.Second, true
	}
	return pair.First, true
}
