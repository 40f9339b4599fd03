package stage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineResult_AddResult(t *testing.T) {
	r := NewPipelineResult()
	r.AddResult(StageResult{StageName: StageLoad, Success: true, Duration: 4})
	r.AddResult(StageResult{StageName: StageSimulate, Success: true, Duration: 6})

	assert.True(t, r.Success())
	assert.Equal(t, 2, r.Overall.TotalStages)
	assert.Equal(t, int64(10), r.Overall.TotalDuration)

	r.AddResult(StageResult{StageName: StageEstimate, Success: false, Error: "boom"})
	assert.False(t, r.Success())
	assert.Equal(t, 1, r.Overall.Failed)

	res, ok := r.Result(StageSimulate)
	require.True(t, ok)
	assert.Equal(t, int64(6), res.Duration)

	_, ok = r.Result(StageReport)
	assert.False(t, ok)
}

func TestStageError_IdentifiesStage(t *testing.T) {
	cause := errors.New("group \"male\" has no members")
	err := fmt.Errorf("run aborted: %w", Fail(StageCompare, cause))

	name, ok := FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, StageCompare, name)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `stage "compare" failed`)

	assert.NoError(t, Fail(StageLoad, nil))

	_, ok = FailedStage(cause)
	assert.False(t, ok)
}

func TestPlan_Order(t *testing.T) {
	assert.Equal(t, []StageName{StageLoad, StageSimulate, StageEstimate, StageCompare, StageReport}, Plan())
}
