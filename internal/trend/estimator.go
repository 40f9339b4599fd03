package trend

import (
	"context"
	"runtime"
	"sync"

	"learnspeed/domain/core"
	"learnspeed/domain/learning"

	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/stat"
)

// Slope returns the least-squares slope of scores on attempts.
// Fewer than two points, mismatched lengths or a constant attempt axis give 0.
func Slope(attempts, scores []float64) float64 {
	if len(attempts) < 2 || len(attempts) != len(scores) {
		return 0
	}
	constant := true
	for _, a := range attempts[1:] {
		if a != attempts[0] {
			constant = false
			break
		}
	}
	if constant {
		return 0
	}
	_, beta := stat.LinearRegression(attempts, scores, nil, false)
	return beta
}

// Estimator fits a learning rate per entity and subject
type Estimator struct {
	workers int64
}

// NewEstimator creates an estimator running at most workers fits at once.
// A non-positive count uses GOMAXPROCS.
func NewEstimator(workers int) *Estimator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Estimator{workers: int64(workers)}
}

type series struct {
	entity   core.EntityID
	group    learning.GroupLabel
	attempts []float64
	scores   [learning.SubjectCount][]float64
}

// EstimateAll groups observations by entity in first-seen order and returns
// one slope per (entity, subject), ordered by entity then subject.
func (e *Estimator) EstimateAll(ctx context.Context, observations []learning.SimulatedObservation) ([]learning.SlopeRecord, error) {
	entities, err := collect(observations)
	if err != nil {
		return nil, err
	}

	out := make([]learning.SlopeRecord, len(entities)*learning.SubjectCount)
	sem := semaphore.NewWeighted(e.workers)
	var wg sync.WaitGroup

	for i, s := range entities {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int, s *series) {
			defer sem.Release(1)
			defer wg.Done()
			for _, sub := range learning.Subjects() {
				idx := sub.Index()
				out[i*learning.SubjectCount+idx] = learning.SlopeRecord{
					EntityID:     s.entity,
					Group:        s.group,
					Subject:      sub,
					LearningRate: Slope(s.attempts, s.scores[idx]),
				}
			}
		}(i, s)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func collect(observations []learning.SimulatedObservation) ([]*series, error) {
	index := make(map[core.EntityID]*series)
	var order []*series
	for _, o := range observations {
		s, ok := index[o.EntityID]
		if !ok {
			s = &series{entity: o.EntityID, group: o.Group}
			index[o.EntityID] = s
			order = append(order, s)
		} else if s.group != o.Group {
			return nil, core.NewSchemaError("entity %s observed in groups %q and %q", o.EntityID, s.group, o.Group)
		}
		s.attempts = append(s.attempts, float64(o.Attempt))
		for idx, v := range o.Scores {
			s.scores[idx] = append(s.scores[idx], v)
		}
	}
	return order, nil
}
