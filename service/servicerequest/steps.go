package servicerequest

import (
	"errors"
	"fmt"

	"github.com/viant/homeservice/model/professional"
	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/runtime/execution"
	"github.com/viant/homeservice/service/dao"
)

type steps struct {
	store     dao.RequestStore
	directory *professional.Directory
}

// created is the output of the create-request step.
type created struct {
	RequestID              string                 `json:"requestId"`
	AvailableProfessionals []professional.Summary `json:"availableProfessionals"`
}

func (s *steps) createRequest(ctx *execution.Context) (map[string]interface{}, error) {
	input := &request.CreateInput{}
	if err := ctx.Decode(input); err != nil {
		return nil, err
	}
	input.WorkflowRunID = ctx.ExecutionID
	record, err := s.store.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"requestId":              record.ID,
		"availableProfessionals": s.directory.Summaries(record.ServiceType),
	}, nil
}

func (s *steps) awaitDecision(ctx *execution.Context) (map[string]interface{}, error) {
	output := &created{}
	if err := ctx.DecodeStep(StepCreateRequest, output); err != nil {
		return nil, err
	}
	input := &request.CreateInput{}
	if err := ctx.Decode(input); err != nil {
		return nil, err
	}
	if !ctx.Resumed() {
		return nil, ctx.Suspend(SuspendReason, summary(output, input))
	}

	decision := &request.Decision{}
	if err := ctx.DecodeResume(decision); err != nil {
		return nil, err
	}
	decision.Init()
	if err := decision.Validate(); err != nil {
		return nil, err
	}
	if decision.Approved && decision.ProfessionalName == "" {
		decision.ProfessionalName = s.directory.NameOf(input.ServiceType, decision.ProfessionalID)
	}
	updated, err := s.store.Update(ctx, output.RequestID, decision.Update())
	if errors.Is(err, request.ErrAlreadyProcessed) && decision.AppliedTo(updated) {
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record decision for %s: %w", output.RequestID, err)
	}
	return decision.ResumeData(), nil
}

func summary(output *created, input *request.CreateInput) map[string]interface{} {
	ret := map[string]interface{}{
		"requestId":              output.RequestID,
		"userId":                 input.UserID,
		"userName":               input.UserName,
		"serviceType":            input.ServiceType,
		"issue":                  input.Issue,
		"urgency":                input.Urgency,
		"propertyAddress":        input.PropertyAddress,
		"availableProfessionals": output.AvailableProfessionals,
	}
	if input.PreferredDate != "" {
		ret["preferredDate"] = input.PreferredDate
	}
	if input.PreferredTimeSlot != "" {
		ret["preferredTimeSlot"] = input.PreferredTimeSlot
	}
	return ret
}

func (s *steps) formatResult(ctx *execution.Context) (map[string]interface{}, error) {
	output := &created{}
	if err := ctx.DecodeStep(StepCreateRequest, output); err != nil {
		return nil, err
	}
	decision := &request.Decision{}
	if err := ctx.DecodeStep(StepAwaitDecision, decision); err != nil {
		return nil, err
	}
	input := &request.CreateInput{}
	if err := ctx.Decode(input); err != nil {
		return nil, err
	}
	return NewResult(output.RequestID, decision, input).Map(), nil
}
