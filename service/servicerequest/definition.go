// Package servicerequest defines the three step service request workflow:
// create the record, wait for an operator decision, format the outcome.
package servicerequest

import (
	"context"
	"errors"

	"github.com/viant/homeservice/model/professional"
	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/runtime/workflow"
	"github.com/viant/homeservice/service/dao"
)

// WorkflowID identifies the service request workflow.
const WorkflowID = "service-request"

// Step identifiers.
const (
	StepCreateRequest = "create-request"
	StepAwaitDecision = "await-decision"
	StepFormatResult  = "format-result"
)

// SuspendReason is recorded on executions waiting for an operator.
const SuspendReason = "awaiting admin decision"

// NewDefinition builds the workflow over store and directory.
func NewDefinition(store dao.RequestStore, directory *professional.Directory) (*workflow.Definition, error) {
	if directory == nil {
		directory = professional.Default()
	}
	s := &steps{store: store, directory: directory}
	storeRetry := &workflow.Retry{Retryable: transient}
	return workflow.Define(WorkflowID,
		&workflow.Step{ID: StepCreateRequest, Execute: s.createRequest},
		&workflow.Step{ID: StepAwaitDecision, Execute: s.awaitDecision, Retry: storeRetry},
		&workflow.Step{ID: StepFormatResult, Execute: s.formatResult},
	)
}

// transient returns false for errors a retry cannot fix.
func transient(err error) bool {
	switch {
	case errors.Is(err, request.ErrAlreadyProcessed),
		errors.Is(err, request.ErrValidation),
		errors.Is(err, request.ErrAlreadyPending),
		errors.Is(err, dao.ErrNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
