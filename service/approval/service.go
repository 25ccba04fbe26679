package approval

import (
	"context"
	"errors"

	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/service/messaging"
)

// ErrEngineUnavailable is returned when resuming failed and the direct write failed as well.
var ErrEngineUnavailable = errors.New("workflow engine unavailable")

// Service defines the approval service interface.
type Service interface {
	Approve(ctx context.Context, id string, input *ApproveInput) (*Outcome, error)
	Reject(ctx context.Context, id string, input *RejectInput) (*Outcome, error)
	Queue() messaging.Queue[Event]
}

// Resumer resumes a suspended workflow execution.
type Resumer interface {
	Resume(ctx context.Context, executionID string, data map[string]interface{}) (*execution.Execution, error)
}
