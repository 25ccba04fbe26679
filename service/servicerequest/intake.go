package servicerequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/model/professional"
	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/service/dao"
)

// Starter starts workflow executions; implemented by the in-process processor
// and by the remote engine client.
type Starter interface {
	Start(ctx context.Context, definitionID string, input map[string]interface{}) (*execution.Execution, error)
}

// Submission reports the outcome of a creation call.
type Submission struct {
	AlreadyPending         bool                   `json:"alreadyPending,omitempty"`
	RequestID              string                 `json:"requestId"`
	ExecutionID            string                 `json:"executionId,omitempty"`
	Status                 request.Status         `json:"status"`
	State                  execution.State        `json:"state,omitempty"`
	ServiceType            request.ServiceType    `json:"serviceType,omitempty"`
	AvailableProfessionals []professional.Summary `json:"availableProfessionals,omitempty"`
	Message                string                 `json:"message"`
}

// Intake is the requester facing entry point: it opens requests by starting
// the workflow and serves status lookups.
type Intake struct {
	store     dao.RequestStore
	starter   Starter
	directory *professional.Directory
	logger    *slog.Logger
}

// IntakeOption customises Intake
type IntakeOption func(i *Intake)

// WithStarter sets the workflow starter; without one requests are created directly in the store.
func WithStarter(starter Starter) IntakeOption {
	return func(i *Intake) { i.starter = starter }
}

// WithDirectory sets the professional directory
func WithDirectory(directory *professional.Directory) IntakeOption {
	return func(i *Intake) { i.directory = directory }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) IntakeOption {
	return func(i *Intake) { i.logger = logger }
}

// NewIntake creates an Intake
func NewIntake(store dao.RequestStore, options ...IntakeOption) *Intake {
	ret := &Intake{store: store, directory: professional.Default(), logger: slog.Default()}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Submit opens a request for input unless the user already has a pending one.
func (i *Intake) Submit(ctx context.Context, input *request.CreateInput) (*Submission, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if existing, err := i.pending(ctx, input.UserID); err != nil || existing != nil {
		if err != nil {
			return nil, err
		}
		return alreadyPending(existing), nil
	}
	if i.starter == nil {
		return i.createDirectly(ctx, input)
	}

	data, err := inputData(input)
	if err != nil {
		return nil, err
	}
	anExecution, err := i.starter.Start(ctx, WorkflowID, data)
	if err != nil {
		if errors.Is(err, request.ErrAlreadyPending) {
			return i.lostRace(ctx, input.UserID, err)
		}
		return nil, fmt.Errorf("failed to start %s workflow: %w", WorkflowID, err)
	}
	output, ok := anExecution.StepOutput(StepCreateRequest)
	if !ok {
		return nil, fmt.Errorf("execution %s did not create a request (state: %s)", anExecution.ID, anExecution.State)
	}
	requestID, _ := output["requestId"].(string)
	i.logger.Info("service request submitted", "requestId", requestID, "executionId", anExecution.ID, "userId", input.UserID, "state", anExecution.State)
	return &Submission{
		RequestID:              requestID,
		ExecutionID:            anExecution.ID,
		Status:                 request.StatusPending,
		State:                  anExecution.State,
		ServiceType:            input.ServiceType,
		AvailableProfessionals: i.directory.Summaries(input.ServiceType),
		Message:                submittedMessage(requestID),
	}, nil
}

func (i *Intake) createDirectly(ctx context.Context, input *request.CreateInput) (*Submission, error) {
	record, err := i.store.Create(ctx, input)
	if err != nil {
		if errors.Is(err, request.ErrAlreadyPending) {
			return i.lostRace(ctx, input.UserID, err)
		}
		return nil, err
	}
	i.logger.Info("service request created without workflow", "requestId", record.ID, "userId", record.UserID)
	return &Submission{
		RequestID:              record.ID,
		Status:                 record.Status,
		ServiceType:            record.ServiceType,
		AvailableProfessionals: i.directory.Summaries(record.ServiceType),
		Message:                submittedMessage(record.ID),
	}, nil
}

// lostRace reports a concurrent creation that won the pending slot.
func (i *Intake) lostRace(ctx context.Context, userID string, cause error) (*Submission, error) {
	existing, err := i.pending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		var pendingErr *request.PendingError
		if errors.As(cause, &pendingErr) && pendingErr.ExistingID != "" {
			if existing, err = i.store.Get(ctx, pendingErr.ExistingID); err != nil {
				return nil, err
			}
		}
	}
	if existing == nil {
		return nil, cause
	}
	return alreadyPending(existing), nil
}

func (i *Intake) pending(ctx context.Context, userID string) (*request.ServiceRequest, error) {
	list, err := i.store.List(ctx, &request.Filter{UserID: userID, Status: request.StatusPending, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// Status returns the requester projection of id.
func (i *Intake) Status(ctx context.Context, id string) (*request.StatusView, error) {
	record, err := i.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return record.View(), nil
}

// Latest returns the requester projection of the user's most recent request.
func (i *Intake) Latest(ctx context.Context, userID string) (*request.StatusView, error) {
	list, err := i.store.List(ctx, &request.Filter{UserID: userID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("user %s has no requests: %w", userID, dao.ErrNotFound)
	}
	return list[0].View(), nil
}

func alreadyPending(existing *request.ServiceRequest) *Submission {
	return &Submission{
		AlreadyPending: true,
		RequestID:      existing.ID,
		Status:         existing.Status,
		ServiceType:    existing.ServiceType,
		Message:        fmt.Sprintf("You already have a pending service request (%s) for %s. Please wait for admin approval.", existing.ID, existing.ServiceType),
	}
}

func submittedMessage(requestID string) string {
	return fmt.Sprintf("Your service request %s has been submitted and is awaiting admin approval.", requestID)
}

func inputData(input *request.CreateInput) (map[string]interface{}, error) {
	encoded, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var ret map[string]interface{}
	if err = json.Unmarshal(encoded, &ret); err != nil {
		return nil, err
	}
	delete(ret, "workflowRunId")
	return ret, nil
}
