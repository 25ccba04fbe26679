package fs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/service/dao"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	baseURL := t.TempDir()
	srv, err := New(baseURL)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	suspended := execution.New("e1", "service-request", map[string]interface{}{"userId": "U1"}, now)
	suspended.Record("create-request", map[string]interface{}{"requestId": "REQ-1"}, 1, now)
	suspended.Suspend("await-decision", "awaiting admin decision", map[string]interface{}{"requestId": "REQ-1"}, now)
	completed := execution.New("e2", "service-request", nil, now.Add(time.Second))
	completed.Complete(map[string]interface{}{"status": "approved"}, now.Add(time.Second))

	require.NoError(t, srv.Save(ctx, suspended))
	require.NoError(t, srv.Save(ctx, completed))
	assert.True(t, errors.Is(srv.Save(ctx, nil), dao.ErrNilEntity))
	assert.True(t, errors.Is(srv.Save(ctx, &execution.Execution{}), dao.ErrInvalidID))

	// a fresh instance over the same directory sees the same checkpoints
	restarted, err := New(baseURL)
	require.NoError(t, err)
	loaded, err := restarted.Load(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, execution.StateSuspended, loaded.State)
	assert.Equal(t, "await-decision", loaded.SuspendedStepID)
	assert.Equal(t, "REQ-1", loaded.Data()["requestId"])
	assert.True(t, loaded.CreatedAt.Equal(now))

	_, err = restarted.Load(ctx, "missing")
	assert.True(t, errors.Is(err, dao.ErrNotFound))

	testCases := []struct {
		name       string
		parameters []*dao.Parameter
		expect     []string
	}{
		{name: "all", expect: []string{"e1", "e2"}},
		{name: "suspended", parameters: []*dao.Parameter{dao.NewParameter(dao.StateParameter, string(execution.StateSuspended))}, expect: []string{"e1"}},
		{name: "other workflow", parameters: []*dao.Parameter{dao.NewParameter(dao.DefinitionParameter, "other")}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			list, err := restarted.List(ctx, tc.parameters...)
			require.NoError(t, err)
			var ids []string
			for _, item := range list {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tc.expect, ids)
		})
	}

	require.NoError(t, restarted.Delete(ctx, "e2"))
	assert.True(t, errors.Is(restarted.Delete(ctx, "e2"), dao.ErrNotFound))
}
