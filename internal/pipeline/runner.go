package pipeline

import (
	"context"
	"time"

	"learnspeed/domain/stage"
	"learnspeed/internal"
)

// stageFunc does the work of one stage and reports what it processed
type stageFunc func(ctx context.Context) (stage.StageMetrics, error)

// runner executes stages in order and records a result for each
type runner struct {
	logger  *internal.Logger
	results *stage.PipelineResult
}

func newRunner(logger *internal.Logger) *runner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &runner{logger: logger, results: stage.NewPipelineResult()}
}

// exec runs fn as the named stage. A failure is recorded, logged and
// returned wrapped in a stage.StageError.
func (r *runner) exec(ctx context.Context, name stage.StageName, fn stageFunc) error {
	if err := ctx.Err(); err != nil {
		r.record(name, stage.StageMetrics{}, 0, err)
		return stage.Fail(name, err)
	}

	r.logger.Debug("[Pipeline] %s started", name)
	start := time.Now()
	metrics, err := fn(ctx)
	elapsed := time.Since(start)
	r.record(name, metrics, elapsed, err)

	if err != nil {
		r.logger.Error("[Pipeline] %s failed after %s: %v", name, elapsed, err)
		return stage.Fail(name, err)
	}
	r.logger.Info("[Pipeline] %s finished in %s (%d in, %d out)", name, elapsed, metrics.ProcessedCount, metrics.ProducedCount)
	return nil
}

func (r *runner) record(name stage.StageName, metrics stage.StageMetrics, elapsed time.Duration, err error) {
	res := stage.StageResult{
		StageName: name,
		Success:   err == nil,
		Metrics:   metrics,
		Duration:  elapsed.Milliseconds(),
	}
	if err != nil {
		res.Error = err.Error()
	}
	r.results.AddResult(res)
}
