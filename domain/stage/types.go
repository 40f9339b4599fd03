package stage

import (
	"errors"
	"fmt"
)

// StageName represents a named stage in the pipeline
type StageName string

// Pipeline stages, in execution order
const (
	StageLoad     StageName = "load"
	StageSimulate StageName = "simulate"
	StageEstimate StageName = "estimate"
	StageCompare  StageName = "compare"
	StageReport   StageName = "report"
)

// Plan returns the fixed stage order of a run
func Plan() []StageName {
	return []StageName{StageLoad, StageSimulate, StageEstimate, StageCompare, StageReport}
}

// StageResult represents the output of a stage execution
type StageResult struct {
	StageName StageName    `json:"stage_name"`
	Success   bool         `json:"success"`
	Metrics   StageMetrics `json:"metrics"`
	Error     string       `json:"error,omitempty"`
	Duration  int64        `json:"duration_ms"`
}

// StageMetrics contains canonical metrics for stage results
type StageMetrics struct {
	ProcessedCount int `json:"processed_count"`
	ProducedCount  int `json:"produced_count"`

	Custom map[string]interface{} `json:"custom,omitempty"`
}

// PipelineResult contains the results of executing the stage plan
type PipelineResult struct {
	Results []StageResult   `json:"results"`
	Overall PipelineSummary `json:"overall"`
}

// PipelineSummary provides high-level pipeline statistics
type PipelineSummary struct {
	TotalStages   int   `json:"total_stages"`
	Successful    int   `json:"successful"`
	Failed        int   `json:"failed"`
	TotalDuration int64 `json:"total_duration_ms"`
}

// NewPipelineResult creates a new pipeline result
func NewPipelineResult() *PipelineResult {
	return &PipelineResult{
		Results: make([]StageResult, 0, len(Plan())),
	}
}

// AddResult adds a stage result and updates summary
func (r *PipelineResult) AddResult(result StageResult) {
	r.Results = append(r.Results, result)
	r.Overall.TotalStages++

	if result.Success {
		r.Overall.Successful++
	} else {
		r.Overall.Failed++
	}

	r.Overall.TotalDuration += result.Duration
}

// Success returns true if all stages succeeded
func (r *PipelineResult) Success() bool {
	return r.Overall.Failed == 0
}

// Result returns the recorded result of a stage
func (r *PipelineResult) Result(name StageName) (StageResult, bool) {
	for _, res := range r.Results {
		if res.StageName == name {
			return res, true
		}
	}
	return StageResult{}, false
}

// StageError attributes a failure to the stage that produced it
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Fail wraps err with the stage name. A nil err stays nil.
func Fail(name StageName, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: name, Err: err}
}

// FailedStage extracts the failing stage from an error chain
func FailedStage(err error) (StageName, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
