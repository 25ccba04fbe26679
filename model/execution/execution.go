package execution

import (
	"time"
)

// StepResult records the output of one completed step.
type StepResult struct {
	StepID      string                 `json:"stepId"`
	Output      map[string]interface{} `json:"output,omitempty"`
	Attempts    int                    `json:"attempts,omitempty"`
	CompletedAt time.Time              `json:"completedAt"`
}

// Execution is the durable checkpoint of one workflow run.
type Execution struct {
	ID              string                 `json:"id"`
	DefinitionID    string                 `json:"definitionId"`
	State           State                  `json:"state"`
	Input           map[string]interface{} `json:"input,omitempty"`
	Steps           []*StepResult          `json:"steps,omitempty"`
	SuspendedStepID string                 `json:"suspendedStepId,omitempty"`
	SuspendReason   string                 `json:"suspendReason,omitempty"`
	SuspendPayload  map[string]interface{} `json:"suspendPayload,omitempty"`
	Result          map[string]interface{} `json:"result,omitempty"`
	Error           string                 `json:"error,omitempty"`
	ErrorStepID     string                 `json:"errorStepId,omitempty"`
	ResumeCount     int                    `json:"resumeCount,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
	SuspendedAt     *time.Time             `json:"suspendedAt,omitempty"`
	CompletedAt     *time.Time             `json:"completedAt,omitempty"`
}

// New creates a running execution.
func New(id, definitionID string, input map[string]interface{}, now time.Time) *Execution {
	if input == nil {
		input = map[string]interface{}{}
	}
	return &Execution{
		ID:           id,
		DefinitionID: definitionID,
		State:        StateRunning,
		Input:        input,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Data returns input shallow-merged with every step output in step order.
func (e *Execution) Data() map[string]interface{} {
	ret := make(map[string]interface{}, len(e.Input))
	for k, v := range e.Input {
		ret[k] = v
	}
	for _, step := range e.Steps {
		for k, v := range step.Output {
			ret[k] = v
		}
	}
	return ret
}

// StepOutput returns the recorded output of stepID.
func (e *Execution) StepOutput(stepID string) (map[string]interface{}, bool) {
	for _, step := range e.Steps {
		if step.StepID == stepID {
			return step.Output, true
		}
	}
	return nil, false
}

// Record appends a completed step output.
func (e *Execution) Record(stepID string, output map[string]interface{}, attempts int, now time.Time) {
	e.Steps = append(e.Steps, &StepResult{StepID: stepID, Output: output, Attempts: attempts, CompletedAt: now})
	e.UpdatedAt = now
}

// Suspend marks the execution as waiting on stepID.
func (e *Execution) Suspend(stepID, reason string, payload map[string]interface{}, now time.Time) {
	e.State = StateSuspended
	e.SuspendedStepID = stepID
	e.SuspendReason = reason
	e.SuspendPayload = payload
	e.SuspendedAt = &now
	e.UpdatedAt = now
}

// Claim moves a suspended execution back to running ahead of re-entering its step.
func (e *Execution) Claim(now time.Time) {
	e.State = StateRunning
	e.ResumeCount++
	e.UpdatedAt = now
}

// ClearSuspension drops suspension details once the awaiting step completed.
func (e *Execution) ClearSuspension() {
	e.SuspendedStepID = ""
	e.SuspendReason = ""
	e.SuspendPayload = nil
	e.SuspendedAt = nil
}

// Complete marks the execution as completed with result.
func (e *Execution) Complete(result map[string]interface{}, now time.Time) {
	e.State = StateCompleted
	e.Result = result
	e.CompletedAt = &now
	e.UpdatedAt = now
}

// Fail marks the execution as errored by stepID.
func (e *Execution) Fail(stepID string, err error, now time.Time) {
	e.State = StateErrored
	e.ErrorStepID = stepID
	if err != nil {
		e.Error = err.Error()
	}
	e.CompletedAt = &now
	e.UpdatedAt = now
}

// Clone creates a deep copy of the execution so that the caller can mutate it
// without affecting the original instance.
func (e *Execution) Clone() *Execution {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Input = CopyMap(e.Input)
	clone.SuspendPayload = CopyMap(e.SuspendPayload)
	clone.Result = CopyMap(e.Result)
	if e.Steps != nil {
		clone.Steps = make([]*StepResult, len(e.Steps))
		for i, step := range e.Steps {
			stepClone := *step
			stepClone.Output = CopyMap(step.Output)
			clone.Steps[i] = &stepClone
		}
	}
	if e.SuspendedAt != nil {
		at := *e.SuspendedAt
		clone.SuspendedAt = &at
	}
	if e.CompletedAt != nil {
		at := *e.CompletedAt
		clone.CompletedAt = &at
	}
	return &clone
}

// CopyMap deep copies JSON shaped data.
func CopyMap(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	ret := make(map[string]interface{}, len(src))
	for k, v := range src {
		ret[k] = copyValue(v)
	}
	return ret
}

func copyValue(v interface{}) interface{} {
	switch actual := v.(type) {
	case map[string]interface{}:
		return CopyMap(actual)
	case []interface{}:
		ret := make([]interface{}, len(actual))
		for i, item := range actual {
			ret[i] = copyValue(item)
		}
		return ret
	}
	return v
}
