package execution

import (
	"context"
	"fmt"

	emodel "github.com/viant/homeservice/model/execution"
	"github.com/viant/structology/conv"
)

// Context is handed to a step executor; it exposes the running data of the
// execution and, when the step is re-entered after suspension, the resume payload.
type Context struct {
	context.Context
	ExecutionID  string
	DefinitionID string
	StepID       string
	Attempt      int

	execution  *emodel.Execution
	resumeData map[string]interface{}
	converter  *conv.Converter
}

// NewContext creates a step context over a snapshot of anExecution.
func NewContext(ctx context.Context, anExecution *emodel.Execution, stepID string, resumeData map[string]interface{}) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		Context:      ctx,
		ExecutionID:  anExecution.ID,
		DefinitionID: anExecution.DefinitionID,
		StepID:       stepID,
		execution:    anExecution,
		resumeData:   resumeData,
		converter:    newConverter(),
	}
}

func newConverter() *conv.Converter {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	return conv.NewConverter(options)
}

// Input returns the execution input merged with every prior step output.
func (c *Context) Input() map[string]interface{} {
	return c.execution.Data()
}

// Resumed returns true when the step is re-entered with resume data.
func (c *Context) Resumed() bool {
	return c.resumeData != nil
}

// ResumeData returns the resume payload or nil on fresh entry.
func (c *Context) ResumeData() map[string]interface{} {
	return c.resumeData
}

// StepOutput returns the recorded output of a prior step.
func (c *Context) StepOutput(stepID string) (map[string]interface{}, bool) {
	return c.execution.StepOutput(stepID)
}

// Decode converts the merged running data into dest.
func (c *Context) Decode(dest interface{}) error {
	return c.convert(c.Input(), dest, "input")
}

// DecodeResume converts the resume payload into dest.
func (c *Context) DecodeResume(dest interface{}) error {
	if c.resumeData == nil {
		return fmt.Errorf("step %s: no resume data", c.StepID)
	}
	return c.convert(c.resumeData, dest, "resume data")
}

// DecodeStep converts the output of stepID into dest.
func (c *Context) DecodeStep(stepID string, dest interface{}) error {
	output, ok := c.StepOutput(stepID)
	if !ok {
		return fmt.Errorf("step %s: no output recorded for %s", c.StepID, stepID)
	}
	return c.convert(output, dest, "output of "+stepID)
}

func (c *Context) convert(src map[string]interface{}, dest interface{}, what string) error {
	if err := c.converter.Convert(src, dest); err != nil {
		return fmt.Errorf("step %s: failed to decode %s into %T: %w", c.StepID, what, dest, err)
	}
	return nil
}

// Suspend returns the signal an executor returns to park the execution at
// this step until it is resumed.
func (c *Context) Suspend(reason string, payload map[string]interface{}) error {
	return &Suspension{StepID: c.StepID, Reason: reason, Payload: payload}
}
