package execution

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecution_Data(t *testing.T) {
	now := time.Now()
	e := New("e1", "wf", map[string]interface{}{"a": 1.0, "b": "input"}, now)
	e.Record("s1", map[string]interface{}{"b": "s1", "c": true}, 1, now)
	e.Record("s2", map[string]interface{}{"c": false}, 1, now)

	assert.Equal(t, map[string]interface{}{"a": 1.0, "b": "s1", "c": false}, e.Data())
	assert.Equal(t, "input", e.Input["b"])

	output, ok := e.StepOutput("s1")
	require.True(t, ok)
	assert.Equal(t, true, output["c"])
	_, ok = e.StepOutput("missing")
	assert.False(t, ok)
}

func TestExecution_Transitions(t *testing.T) {
	now := time.Now()
	e := New("e1", "wf", nil, now)
	assert.Equal(t, StateRunning, e.State)

	e.Suspend("s2", "waiting", map[string]interface{}{"k": "v"}, now)
	assert.Equal(t, StateSuspended, e.State)
	assert.Equal(t, "s2", e.SuspendedStepID)
	require.NotNil(t, e.SuspendedAt)

	e.Claim(now)
	assert.Equal(t, StateRunning, e.State)
	assert.Equal(t, 1, e.ResumeCount)

	e.ClearSuspension()
	assert.Empty(t, e.SuspendedStepID)
	assert.Nil(t, e.SuspendPayload)

	e.Complete(map[string]interface{}{"ok": true}, now)
	assert.True(t, e.State.IsTerminal())

	failed := New("e2", "wf", nil, now)
	failed.Fail("s1", errors.New("boom"), now)
	assert.Equal(t, StateErrored, failed.State)
	assert.Equal(t, "boom", failed.Error)
	assert.Equal(t, "s1", failed.ErrorStepID)
}

func TestExecution_Clone(t *testing.T) {
	now := time.Now()
	e := New("e1", "wf", map[string]interface{}{"nested": map[string]interface{}{"x": 1.0}}, now)
	e.Record("s1", map[string]interface{}{"list": []interface{}{"a"}}, 1, now)

	clone := e.Clone()
	clone.Input["nested"].(map[string]interface{})["x"] = 2.0
	clone.Steps[0].Output["list"].([]interface{})[0] = "b"
	clone.Steps = append(clone.Steps, &StepResult{StepID: "s2"})

	assert.Equal(t, 1.0, e.Input["nested"].(map[string]interface{})["x"])
	assert.Equal(t, "a", e.Steps[0].Output["list"].([]interface{})[0])
	assert.Len(t, e.Steps, 1)
}
