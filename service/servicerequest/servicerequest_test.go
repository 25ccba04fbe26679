package servicerequest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/model/professional"
	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/service/dao"
	execmemory "github.com/viant/homeservice/service/dao/execution/memory"
	reqmemory "github.com/viant/homeservice/service/dao/request/memory"
	"github.com/viant/homeservice/service/processor"
)

type fixture struct {
	store     *reqmemory.Service
	processor *processor.Service
	intake    *Intake
}

func newFixture(t *testing.T) *fixture {
	store := reqmemory.New()
	definition, err := NewDefinition(store, professional.Default())
	require.NoError(t, err)
	engine, err := processor.New(
		processor.WithExecutionDAO(execmemory.New()),
		processor.WithDefinitions(definition),
	)
	require.NoError(t, err)
	return &fixture{store: store, processor: engine, intake: NewIntake(store, WithStarter(engine))}
}

func plumbingInput(userID string) *request.CreateInput {
	return &request.CreateInput{
		UserID:          userID,
		UserName:        "Jane Doe",
		UserEmail:       "jane@example.com",
		PropertyAddress: "12 Elm St",
		ServiceType:     request.ServiceTypePlumbing,
		Issue:           "leaking kitchen sink",
		Urgency:         request.UrgencyHigh,
	}
}

func TestWorkflow_Approve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	submission, err := f.intake.Submit(ctx, plumbingInput("u1"))
	require.NoError(t, err)
	assert.False(t, submission.AlreadyPending)
	assert.Equal(t, execution.StateSuspended, submission.State)
	assert.Len(t, submission.AvailableProfessionals, 2)
	assert.Contains(t, submission.Message, submission.RequestID)

	record, err := f.store.Get(ctx, submission.RequestID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, record.Status)
	assert.Equal(t, submission.ExecutionID, record.RunID())

	suspended, err := f.processor.Execution(ctx, submission.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, StepAwaitDecision, suspended.SuspendedStepID)
	assert.Equal(t, SuspendReason, suspended.SuspendReason)
	assert.Equal(t, submission.RequestID, suspended.SuspendPayload["requestId"])
	assert.Equal(t, "u1", suspended.SuspendPayload["userId"])

	decision := &request.Decision{Approved: true, ProfessionalID: "propipe", ConfirmedDate: "2026-11-02", ConfirmedTimeSlot: request.TimeSlotAfternoon}
	decision.Init()
	completed, err := f.processor.Resume(ctx, submission.ExecutionID, decision.ResumeData())
	require.NoError(t, err)
	require.Equal(t, execution.StateCompleted, completed.State)
	assert.Equal(t, "approved", completed.Result["status"])
	assert.Equal(t, "ProPipe Services", completed.Result["professionalName"])
	assert.Equal(t, "2026-11-02", completed.Result["confirmedDate"])
	assert.Contains(t, completed.Result["message"], "Afternoon (12PM - 5PM)")
	assert.Contains(t, completed.Result["message"], "12 Elm St")

	record, err = f.store.Get(ctx, submission.RequestID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, record.Status)
	require.NotNil(t, record.AssignedProfessionalName)
	assert.Equal(t, "ProPipe Services", *record.AssignedProfessionalName)
	require.NotNil(t, record.ProcessedBy)
	assert.Equal(t, request.DefaultProcessedBy, *record.ProcessedBy)
	assert.NotNil(t, record.ProcessedAt)
}

func TestWorkflow_Reject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	submission, err := f.intake.Submit(ctx, plumbingInput("u2"))
	require.NoError(t, err)

	completed, err := f.processor.Resume(ctx, submission.ExecutionID, map[string]interface{}{"approved": false})
	require.NoError(t, err)
	assert.Equal(t, execution.StateCompleted, completed.State)
	assert.Equal(t, "rejected", completed.Result["status"])
	assert.Equal(t, request.DefaultRejectionNotes, completed.Result["rejectionReason"])
	_, hasProfessional := completed.Result["professionalName"]
	assert.False(t, hasProfessional)

	view, err := f.intake.Status(ctx, submission.RequestID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusRejected, view.Status)
}

func TestWorkflow_DecisionAlreadyWritten(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	submission, err := f.intake.Submit(ctx, plumbingInput("u3"))
	require.NoError(t, err)

	decision := &request.Decision{Approved: true, ProfessionalID: "quickfix", ProfessionalName: "QuickFix Plumbing", ConfirmedDate: "2026-11-03", ConfirmedTimeSlot: request.TimeSlotMorning}
	decision.Init()
	_, err = f.store.Update(ctx, submission.RequestID, decision.Update())
	require.NoError(t, err)

	completed, err := f.processor.Resume(ctx, submission.ExecutionID, decision.ResumeData())
	require.NoError(t, err)
	assert.Equal(t, execution.StateCompleted, completed.State)
	assert.Equal(t, "approved", completed.Result["status"])
}

func TestWorkflow_ConflictingDecisionErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	submission, err := f.intake.Submit(ctx, plumbingInput("u4"))
	require.NoError(t, err)

	rejection := &request.Decision{}
	rejection.Init()
	_, err = f.store.Update(ctx, submission.RequestID, rejection.Update())
	require.NoError(t, err)

	approval := map[string]interface{}{"approved": true, "professionalId": "propipe", "confirmedDate": "2026-11-02", "confirmedTimeSlot": "morning"}
	errored, err := f.processor.Resume(ctx, submission.ExecutionID, approval)
	require.Error(t, err)
	assert.True(t, errors.Is(err, request.ErrAlreadyProcessed))
	require.NotNil(t, errored)
	assert.Equal(t, execution.StateErrored, errored.State)
	assert.Equal(t, StepAwaitDecision, errored.ErrorStepID)

	record, err := f.store.Get(ctx, submission.RequestID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusRejected, record.Status)
}

func TestIntake_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("already pending", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.intake.Submit(ctx, plumbingInput("u5"))
		require.NoError(t, err)
		second, err := f.intake.Submit(ctx, plumbingInput("u5"))
		require.NoError(t, err)
		assert.True(t, second.AlreadyPending)
		assert.Equal(t, first.RequestID, second.RequestID)
		assert.Equal(t, "You already have a pending service request ("+first.RequestID+") for plumbing. Please wait for admin approval.", second.Message)

		executions, err := f.processor.Executions(ctx)
		require.NoError(t, err)
		assert.Len(t, executions, 1)
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t)
		input := plumbingInput("u6")
		input.Urgency = "whenever"
		_, err := f.intake.Submit(ctx, input)
		assert.True(t, errors.Is(err, request.ErrValidation))
	})

	t.Run("without workflow", func(t *testing.T) {
		store := reqmemory.New()
		intake := NewIntake(store)
		submission, err := intake.Submit(ctx, plumbingInput("u7"))
		require.NoError(t, err)
		assert.Empty(t, submission.ExecutionID)
		record, err := store.Get(ctx, submission.RequestID)
		require.NoError(t, err)
		assert.Nil(t, record.WorkflowRunID)
	})
}

func TestIntake_Latest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.intake.Latest(ctx, "nobody")
	assert.True(t, errors.Is(err, dao.ErrNotFound))

	submission, err := f.intake.Submit(ctx, plumbingInput("u8"))
	require.NoError(t, err)
	view, err := f.intake.Latest(ctx, "u8")
	require.NoError(t, err)
	assert.Equal(t, submission.RequestID, view.ID)
	assert.Equal(t, request.StatusPending, view.Status)
}

// blindPrecheck misses existing pending requests on the first lookup of each
// Submit, as when two submissions pass the check before either is stored.
type blindPrecheck struct {
	*reqmemory.Service
	skipped atomic.Bool
}

func (b *blindPrecheck) List(ctx context.Context, filter *request.Filter) ([]*request.ServiceRequest, error) {
	if b.skipped.CompareAndSwap(false, true) {
		return nil, nil
	}
	return b.Service.List(ctx, filter)
}

func TestIntake_SubmitRace(t *testing.T) {
	ctx := context.Background()

	t.Run("concurrent submissions", func(t *testing.T) {
		f := newFixture(t)
		const submitters = 20
		submissions := make([]*Submission, submitters)
		errs := make([]error, submitters)
		var wg sync.WaitGroup
		for i := 0; i < submitters; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				submissions[i], errs[i] = f.intake.Submit(ctx, plumbingInput("u9"))
			}(i)
		}
		wg.Wait()

		created := 0
		var requestID string
		for i := range submissions {
			require.NoError(t, errs[i])
			if !submissions[i].AlreadyPending {
				created++
				requestID = submissions[i].RequestID
			}
		}
		assert.Equal(t, 1, created)
		for _, submission := range submissions {
			assert.Equal(t, requestID, submission.RequestID)
		}

		rows, err := f.store.List(ctx, &request.Filter{UserID: "u9"})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	var testCases = []struct {
		description string
		workflow    bool
	}{
		{description: "store rejects workflow creation", workflow: true},
		{description: "store rejects direct creation"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			store := &blindPrecheck{Service: reqmemory.New()}
			store.skipped.Store(true)
			existing, err := store.Create(ctx, plumbingInput("u10"))
			require.NoError(t, err)
			store.skipped.Store(false)

			var options []IntakeOption
			if testCase.workflow {
				definition, err := NewDefinition(store, professional.Default())
				require.NoError(t, err)
				engine, err := processor.New(processor.WithExecutionDAO(execmemory.New()), processor.WithDefinitions(definition))
				require.NoError(t, err)
				options = append(options, WithStarter(engine))
			}
			submission, err := NewIntake(store, options...).Submit(ctx, plumbingInput("u10"))
			require.NoError(t, err)
			assert.True(t, submission.AlreadyPending)
			assert.Equal(t, existing.ID, submission.RequestID)

			rows, err := store.Service.List(ctx, &request.Filter{UserID: "u10"})
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})
	}
}
