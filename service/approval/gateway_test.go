package approval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/service/dao"
	execmemory "github.com/viant/homeservice/service/dao/execution/memory"
	reqmemory "github.com/viant/homeservice/service/dao/request/memory"
	qmem "github.com/viant/homeservice/service/messaging/memory"
	"github.com/viant/homeservice/service/processor"
	"github.com/viant/homeservice/service/servicerequest"
)

type resumerFunc func(ctx context.Context, executionID string, data map[string]interface{}) (*execution.Execution, error)

func (f resumerFunc) Resume(ctx context.Context, executionID string, data map[string]interface{}) (*execution.Execution, error) {
	return f(ctx, executionID, data)
}

var unreachable = resumerFunc(func(context.Context, string, map[string]interface{}) (*execution.Execution, error) {
	return nil, errors.New("dial tcp 127.0.0.1:3141: connect: connection refused")
})

type failingUpdates struct {
	dao.RequestStore
	err error
}

func (f *failingUpdates) Update(context.Context, string, *request.Update) (*request.ServiceRequest, error) {
	return nil, f.err
}

// staleReads serves the snapshot taken at construction, as a replica that has
// not observed a concurrent decision yet.
type staleReads struct {
	dao.RequestStore
	snapshot *request.ServiceRequest
}

func (s *staleReads) Get(context.Context, string) (*request.ServiceRequest, error) {
	return s.snapshot.Clone(), nil
}

type fixture struct {
	store     *reqmemory.Service
	processor *processor.Service
	intake    *servicerequest.Intake
}

func newFixture(t *testing.T) *fixture {
	store := reqmemory.New()
	definition, err := servicerequest.NewDefinition(store, nil)
	require.NoError(t, err)
	engine, err := processor.New(processor.WithExecutionDAO(execmemory.New()), processor.WithDefinitions(definition))
	require.NoError(t, err)
	return &fixture{
		store:     store,
		processor: engine,
		intake:    servicerequest.NewIntake(store, servicerequest.WithStarter(engine)),
	}
}

func (f *fixture) submit(t *testing.T, userID string) *servicerequest.Submission {
	submission, err := f.intake.Submit(context.Background(), &request.CreateInput{
		UserID:      userID,
		ServiceType: request.ServiceTypePlumbing,
		Urgency:     request.UrgencyHigh,
	})
	require.NoError(t, err)
	require.False(t, submission.AlreadyPending)
	return submission
}

func approval() *ApproveInput {
	return &ApproveInput{ProfessionalID: "quickfix", ConfirmedDate: "2025-06-01", ConfirmedTimeSlot: request.TimeSlotMorning}
}

func TestGateway_Approve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	queue := qmem.NewQueue[Event](qmem.DefaultConfig())
	gateway, err := New(f.store, WithResumer(f.processor), WithQueue(queue))
	require.NoError(t, err)

	submission := f.submit(t, "U1")
	outcome, err := gateway.Approve(ctx, submission.RequestID, approval())
	require.NoError(t, err)
	assert.Equal(t, PathResumed, outcome.Path)
	assert.True(t, outcome.WorkflowResumed)
	assert.Equal(t, request.StatusApproved, outcome.Request.Status)
	require.NotNil(t, outcome.Request.AssignedProfessionalName)
	assert.Equal(t, "QuickFix Plumbing", *outcome.Request.AssignedProfessionalName)

	anExecution, err := f.processor.Execution(ctx, submission.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, execution.StateCompleted, anExecution.State)
	assert.Equal(t, "approved", anExecution.Result["status"])

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, TopicDecisionCreated, message.T().Topic)
	decided, ok := message.T().Data.(*Decided)
	require.True(t, ok)
	assert.Equal(t, submission.RequestID, decided.RequestID)
	assert.Equal(t, PathResumed, decided.Path)
	assert.Equal(t, request.DefaultProcessedBy, decided.ProcessedBy)
}

func TestGateway_RejectThenApprove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gateway, err := New(f.store, WithResumer(f.processor))
	require.NoError(t, err)

	submission := f.submit(t, "U1")
	outcome, err := gateway.Reject(ctx, submission.RequestID, &RejectInput{AdminNotes: "out of area"})
	require.NoError(t, err)
	assert.Equal(t, request.StatusRejected, outcome.Request.Status)
	require.NotNil(t, outcome.Request.AdminNotes)
	assert.Equal(t, "out of area", *outcome.Request.AdminNotes)

	_, err = gateway.Approve(ctx, submission.RequestID, approval())
	assert.ErrorIs(t, err, request.ErrAlreadyProcessed)

	record, err := f.store.Get(ctx, submission.RequestID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusRejected, record.Status)
}

func TestGateway_EngineUnreachable(t *testing.T) {
	ctx := context.Background()

	resumed := newFixture(t)
	viaEngine, err := New(resumed.store, WithResumer(resumed.processor))
	require.NoError(t, err)
	first := resumed.submit(t, "U1")
	_, err = viaEngine.Approve(ctx, first.RequestID, approval())
	require.NoError(t, err)

	down := newFixture(t)
	viaFallback, err := New(down.store, WithResumer(unreachable))
	require.NoError(t, err)
	second := down.submit(t, "U1")
	outcome, err := viaFallback.Approve(ctx, second.RequestID, approval())
	require.NoError(t, err)
	assert.Equal(t, PathFallback, outcome.Path)
	assert.False(t, outcome.WorkflowResumed)

	expected, err := resumed.store.Get(ctx, first.RequestID)
	require.NoError(t, err)
	actual, err := down.store.Get(ctx, second.RequestID)
	require.NoError(t, err)
	assert.Equal(t, decisionFields(expected), decisionFields(actual))
}

func decisionFields(r *request.ServiceRequest) map[string]interface{} {
	deref := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}
	slot := ""
	if r.ConfirmedTimeSlot != nil {
		slot = string(*r.ConfirmedTimeSlot)
	}
	return map[string]interface{}{
		"status":           r.Status,
		"professionalId":   deref(r.AssignedProfessionalID),
		"professionalName": deref(r.AssignedProfessionalName),
		"confirmedDate":    deref(r.ConfirmedDate),
		"slot":             slot,
		"notes":            deref(r.AdminNotes),
		"processedBy":      deref(r.ProcessedBy),
		"processed":        r.ProcessedAt != nil,
	}
}

func TestGateway_Paths(t *testing.T) {
	ctx := context.Background()

	var testCases = []struct {
		description string
		resumer     func(f *fixture) Resumer
		legacy      bool
		expectPath  Path
	}{
		{
			description: "request without workflow run",
			resumer:     func(f *fixture) Resumer { return f.processor },
			legacy:      true,
			expectPath:  PathDirect,
		},
		{
			description: "no engine configured",
			resumer:     func(*fixture) Resumer { return nil },
			expectPath:  PathDirect,
		},
		{
			description: "engine reports success without deciding",
			resumer: func(*fixture) Resumer {
				return resumerFunc(func(context.Context, string, map[string]interface{}) (*execution.Execution, error) {
					return &execution.Execution{State: execution.StateCompleted}, nil
				})
			},
			expectPath: PathFallback,
		},
		{
			description: "execution no longer suspended",
			resumer: func(*fixture) Resumer {
				return resumerFunc(func(context.Context, string, map[string]interface{}) (*execution.Execution, error) {
					return nil, processor.ErrNotSuspended
				})
			},
			expectPath: PathFallback,
		},
		{
			description: "engine wrote decision then failed",
			resumer: func(f *fixture) Resumer {
				return resumerFunc(func(ctx context.Context, id string, data map[string]interface{}) (*execution.Execution, error) {
					if _, err := f.processor.Resume(ctx, id, data); err != nil {
						return nil, err
					}
					return nil, errors.New("gateway timeout")
				})
			},
			expectPath: PathFallback,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			f := newFixture(t)
			var id string
			if testCase.legacy {
				record, err := f.store.Create(ctx, &request.CreateInput{UserID: "U1", ServiceType: request.ServiceTypePlumbing, Urgency: request.UrgencyLow})
				require.NoError(t, err)
				id = record.ID
			} else {
				id = f.submit(t, "U1").RequestID
			}
			var options []Option
			if resumer := testCase.resumer(f); resumer != nil {
				options = append(options, WithResumer(resumer))
			}
			gateway, err := New(f.store, options...)
			require.NoError(t, err)

			outcome, err := gateway.Approve(ctx, id, approval())
			require.NoError(t, err)
			assert.Equal(t, testCase.expectPath, outcome.Path)
			assert.Equal(t, request.StatusApproved, outcome.Request.Status)
		})
	}
}

func TestGateway_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		gateway, err := New(reqmemory.New())
		require.NoError(t, err)
		_, err = gateway.Reject(ctx, "REQ-MISSING", nil)
		assert.ErrorIs(t, err, dao.ErrNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t)
		gateway, err := New(f.store, WithResumer(f.processor))
		require.NoError(t, err)
		submission := f.submit(t, "U1")
		_, err = gateway.Approve(ctx, submission.RequestID, &ApproveInput{ProfessionalID: "quickfix"})
		assert.ErrorIs(t, err, request.ErrValidation)

		anExecution, err := f.processor.Execution(ctx, submission.ExecutionID)
		require.NoError(t, err)
		assert.Equal(t, execution.StateSuspended, anExecution.State)
	})

	t.Run("engine and store down", func(t *testing.T) {
		f := newFixture(t)
		submission := f.submit(t, "U1")
		store := &failingUpdates{RequestStore: f.store, err: errors.New("connection reset")}
		gateway, err := New(store, WithResumer(unreachable))
		require.NoError(t, err)
		_, err = gateway.Approve(ctx, submission.RequestID, approval())
		assert.ErrorIs(t, err, ErrEngineUnavailable)
	})
}

func TestGateway_ConcurrentDecisions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gateway, err := New(f.store, WithResumer(f.processor))
	require.NoError(t, err)
	submission := f.submit(t, "U1")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = gateway.Approve(ctx, submission.RequestID, approval())
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = gateway.Reject(ctx, submission.RequestID, &RejectInput{AdminNotes: "duplicate"})
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, request.ErrAlreadyProcessed)
	}
	assert.Equal(t, 1, succeeded)

	record, err := f.store.Get(ctx, submission.RequestID)
	require.NoError(t, err)
	assert.False(t, record.IsPending())
}

func TestGateway_StaleReplica(t *testing.T) {
	ctx := context.Background()

	var testCases = []struct {
		description string
		legacy      bool
		resumer     Resumer
	}{
		{description: "direct write", legacy: true},
		{description: "fallback after failed resume", resumer: unreachable},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			f := newFixture(t)
			var id string
			if testCase.legacy {
				record, err := f.store.Create(ctx, &request.CreateInput{UserID: "U1", ServiceType: request.ServiceTypePlumbing, Urgency: request.UrgencyLow})
				require.NoError(t, err)
				id = record.ID
			} else {
				id = f.submit(t, "U1").RequestID
			}
			snapshot, err := f.store.Get(ctx, id)
			require.NoError(t, err)

			first, err := New(f.store, WithResumer(f.processor))
			require.NoError(t, err)
			var options []Option
			if testCase.resumer != nil {
				options = append(options, WithResumer(testCase.resumer))
			}
			second, err := New(&staleReads{RequestStore: f.store, snapshot: snapshot}, options...)
			require.NoError(t, err)

			alice := approval()
			alice.ProcessedBy = "alice"
			_, err = first.Approve(ctx, id, alice)
			require.NoError(t, err)

			bob := approval()
			bob.ProcessedBy = "bob"
			_, err = second.Approve(ctx, id, bob)
			assert.ErrorIs(t, err, request.ErrAlreadyProcessed)

			record, err := f.store.Get(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, record.ProcessedBy)
			assert.Equal(t, "alice", *record.ProcessedBy)
		})
	}
}

func TestListen(t *testing.T) {
	queue := qmem.NewQueue[Event](qmem.DefaultConfig())
	received := make(chan *Event, 1)
	stop := Listen(context.Background(), queue, func(_ context.Context, event *Event) error {
		received <- event
		return nil
	})
	defer stop()

	require.NoError(t, queue.Publish(context.Background(), &Event{Topic: TopicDecisionCreated, Data: &Decided{RequestID: "REQ-1"}}))
	select {
	case event := <-received:
		assert.Equal(t, "REQ-1", event.Data.(*Decided).RequestID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}
