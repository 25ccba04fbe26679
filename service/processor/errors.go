package processor

import (
	"errors"
	"fmt"

	"github.com/viant/homeservice/service/dao"
)

var (
	// ErrUnknownWorkflow is returned for unregistered definition ids.
	ErrUnknownWorkflow = errors.New("unknown workflow")

	// ErrNotSuspended is returned when resuming an execution that is not
	// waiting; it matches dao.ErrNotFound since no suspended execution exists.
	ErrNotSuspended = fmt.Errorf("execution not suspended: %w", dao.ErrNotFound)
)

// StepError reports an executor failure that errored the execution.
type StepError struct {
	ExecutionID string
	StepID      string
	Err         error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("execution %s: step %s failed: %v", e.ExecutionID, e.StepID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
