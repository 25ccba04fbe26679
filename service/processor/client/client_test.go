package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/service/api"
	"github.com/viant/homeservice/service/dao"
	execmemory "github.com/viant/homeservice/service/dao/execution/memory"
	reqmemory "github.com/viant/homeservice/service/dao/request/memory"
	"github.com/viant/homeservice/service/processor"
	"github.com/viant/homeservice/service/servicerequest"
)

func newEngineServer(t *testing.T) (*httptest.Server, *reqmemory.Service) {
	store := reqmemory.New()
	definition, err := servicerequest.NewDefinition(store, nil)
	require.NoError(t, err)
	engine, err := processor.New(processor.WithExecutionDAO(execmemory.New()), processor.WithDefinitions(definition))
	require.NoError(t, err)
	server := httptest.NewServer(api.New(api.WithEngine(engine)).Router())
	t.Cleanup(server.Close)
	return server, store
}

func newInput(userID string) map[string]interface{} {
	return map[string]interface{}{"userId": userID, "serviceType": "hvac", "urgency": "medium"}
}

func TestClient_StartResume(t *testing.T) {
	ctx := context.Background()
	server, store := newEngineServer(t)
	client, err := New(server.URL, servicerequest.WorkflowID)
	require.NoError(t, err)

	started, err := client.Start(ctx, servicerequest.WorkflowID, newInput("U1"))
	require.NoError(t, err)
	assert.Equal(t, execution.StateSuspended, started.State)
	assert.Equal(t, servicerequest.StepAwaitDecision, started.SuspendedStepID)

	loaded, err := client.Execution(ctx, started.ID)
	require.NoError(t, err)
	assert.Equal(t, started.ID, loaded.ID)

	decision := &request.Decision{Approved: true, ProfessionalID: "coolair", ConfirmedDate: "2025-06-01", ConfirmedTimeSlot: request.TimeSlotEvening}
	decision.Init()
	completed, err := client.Resume(ctx, started.ID, decision.ResumeData())
	require.NoError(t, err)
	assert.Equal(t, execution.StateCompleted, completed.State)
	assert.Equal(t, "approved", completed.Result["status"])

	list, err := store.List(ctx, &request.Filter{UserID: "U1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, request.StatusApproved, list[0].Status)

	_, err = client.Resume(ctx, started.ID, decision.ResumeData())
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	server, _ := newEngineServer(t)
	client, err := New(server.URL, servicerequest.WorkflowID)
	require.NoError(t, err)

	t.Run("unknown execution", func(t *testing.T) {
		_, err := client.Execution(ctx, "missing")
		assert.ErrorIs(t, err, dao.ErrNotFound)
		var remote *RemoteError
		require.True(t, errors.As(err, &remote))
		assert.Equal(t, http.StatusNotFound, remote.StatusCode)
	})

	t.Run("unknown workflow", func(t *testing.T) {
		_, err := client.Start(ctx, "missing", newInput("U2"))
		assert.ErrorIs(t, err, dao.ErrNotFound)
	})

	t.Run("already pending", func(t *testing.T) {
		_, err := client.Start(ctx, servicerequest.WorkflowID, newInput("U3"))
		require.NoError(t, err)
		errored, err := client.Start(ctx, servicerequest.WorkflowID, newInput("U3"))
		assert.ErrorIs(t, err, request.ErrAlreadyPending)
		require.NotNil(t, errored)
		assert.Equal(t, execution.StateErrored, errored.State)
	})

	t.Run("server down", func(t *testing.T) {
		down := httptest.NewServer(http.NotFoundHandler())
		down.Close()
		unreachable, err := New(down.URL, servicerequest.WorkflowID)
		require.NoError(t, err)
		_, err = unreachable.Resume(ctx, "exec-1", map[string]interface{}{"approved": false})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("internal error", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer failing.Close()
		broken, err := New(failing.URL, servicerequest.WorkflowID)
		require.NoError(t, err)
		_, err = broken.Execution(ctx, "exec-1")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestNew(t *testing.T) {
	_, err := New("not a url", servicerequest.WorkflowID)
	assert.Error(t, err)
	_, err = New("http://localhost:3141", "")
	assert.Error(t, err)
}
