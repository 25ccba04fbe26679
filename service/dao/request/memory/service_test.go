package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/homeservice/internal/clock"
	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/service/dao"
)

func newInput(userID string) *request.CreateInput {
	return &request.CreateInput{
		UserID:          userID,
		UserName:        "Jo",
		UserEmail:       "jo@example.com",
		PropertyID:      "P1",
		PropertyAddress: "1 Main St",
		ServiceType:     request.ServiceTypePlumbing,
		Issue:           "Leaking sink",
		Urgency:         request.UrgencyHigh,
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	srv := New()

	created, err := srv.Create(ctx, newInput("U1"))
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, created.Status)
	assert.Regexp(t, `^REQ-`, created.ID)
	assert.Nil(t, created.WorkflowRunID)
	assert.Nil(t, created.ProcessedAt)

	_, err = srv.Create(ctx, newInput("U1"))
	var pending *request.PendingError
	require.True(t, errors.As(err, &pending))
	assert.Equal(t, created.ID, pending.ExistingID)
	assert.True(t, errors.Is(err, request.ErrAlreadyPending))

	_, err = srv.Create(ctx, &request.CreateInput{UserID: "U2", ServiceType: "roofing", Urgency: request.UrgencyLow})
	assert.True(t, errors.Is(err, request.ErrValidation))

	withRun := newInput("U3")
	withRun.WorkflowRunID = "exec-1"
	created, err = srv.Create(ctx, withRun)
	require.NoError(t, err)
	require.NotNil(t, created.WorkflowRunID)
	assert.Equal(t, "exec-1", *created.WorkflowRunID)
}

func TestService_CreateConcurrentSameUser(t *testing.T) {
	ctx := context.Background()
	srv := New()
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := srv.Create(ctx, newInput("U1")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	srv := New()
	created, err := srv.Create(ctx, newInput("U1"))
	require.NoError(t, err)

	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	restore := clock.Freeze(at)
	defer restore()

	decision := &request.Decision{Approved: true, ProfessionalID: "quickfix", ProfessionalName: "QuickFix Plumbing", ConfirmedDate: "2025-06-01", ConfirmedTimeSlot: request.TimeSlotMorning}
	decision.Init()
	updated, err := srv.Update(ctx, created.ID, decision.Update())
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, updated.Status)
	assert.Equal(t, "QuickFix Plumbing", *updated.AssignedProfessionalName)
	assert.Equal(t, "admin", *updated.ProcessedBy)
	assert.Equal(t, at, *updated.ProcessedAt)
	assert.Equal(t, "Jo", updated.UserName)

	rejection := &request.Decision{}
	rejection.Init()
	current, err := srv.Update(ctx, created.ID, rejection.Update())
	assert.True(t, errors.Is(err, request.ErrAlreadyProcessed))
	require.NotNil(t, current)
	assert.Equal(t, request.StatusApproved, current.Status)

	_, err = srv.Update(ctx, "REQ-NONE", rejection.Update())
	assert.True(t, errors.Is(err, dao.ErrNotFound))

	_, err = srv.Get(ctx, "REQ-NONE")
	assert.True(t, errors.Is(err, dao.ErrNotFound))

	// once processed the user may open a new request
	_, err = srv.Create(ctx, newInput("U1"))
	assert.NoError(t, err)
}

func TestService_ListAndCounts(t *testing.T) {
	ctx := context.Background()
	srv := New()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		restore := clock.Freeze(base.Add(time.Duration(i) * time.Minute))
		created, err := srv.Create(ctx, newInput(fmt.Sprintf("U%d", i)))
		restore()
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}
	rejection := &request.Decision{}
	rejection.Init()
	_, err := srv.Update(ctx, ids[1], rejection.Update())
	require.NoError(t, err)

	testCases := []struct {
		name   string
		filter *request.Filter
		expect []string
	}{
		{name: "all newest first", filter: &request.Filter{}, expect: []string{ids[4], ids[3], ids[2], ids[1], ids[0]}},
		{name: "pending", filter: &request.Filter{Status: request.StatusPending}, expect: []string{ids[4], ids[3], ids[2], ids[0]}},
		{name: "rejected", filter: &request.Filter{Status: request.StatusRejected}, expect: []string{ids[1]}},
		{name: "user", filter: &request.Filter{UserID: "U2"}, expect: []string{ids[2]}},
		{name: "limit offset", filter: &request.Filter{Limit: 2, Offset: 1}, expect: []string{ids[3], ids[2]}},
		{name: "offset past end", filter: &request.Filter{Offset: 10}, expect: []string{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			list, err := srv.List(ctx, tc.filter)
			require.NoError(t, err)
			actual := []string{}
			for _, item := range list {
				actual = append(actual, item.ID)
			}
			assert.Equal(t, tc.expect, actual)
		})
	}

	counts, err := srv.CountsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, request.Counts{
		request.StatusPending:   4,
		request.StatusApproved:  0,
		request.StatusRejected:  1,
		request.StatusCompleted: 0,
		request.StatusCancelled: 0,
	}, counts)
}
