// Package memory provides an in-process service request store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/homeservice/internal/clock"
	"github.com/viant/homeservice/internal/idgen"
	"github.com/viant/homeservice/model/request"
	"github.com/viant/homeservice/service/dao"
	"github.com/viant/homeservice/service/dao/store"
)

// Service is a dao.RequestStore kept in memory. Composite operations
// (pending check plus insert, precondition check plus write) run under one lock.
type Service struct {
	mu    sync.Mutex
	store *store.MemoryStore[string, request.ServiceRequest]
}

var _ dao.RequestStore = (*Service)(nil)

// Create inserts a pending request.
func (s *Service) Create(ctx context.Context, input *request.CreateInput) (*request.ServiceRequest, error) {
	if input == nil {
		return nil, dao.ErrNilEntity
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.pendingFor(input.UserID); existing != nil {
		return nil, &request.PendingError{UserID: input.UserID, ExistingID: existing.ID}
	}
	record := input.NewRequest(idgen.NewRequestID(), clock.Now())
	if err := s.store.Save(ctx, record); err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

func (s *Service) pendingFor(userID string) *request.ServiceRequest {
	matched := s.store.Filter(func(r *request.ServiceRequest) bool {
		return r.UserID == userID && r.IsPending()
	})
	if len(matched) == 0 {
		return nil
	}
	return matched[0]
}

// Get returns a request or dao.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*request.ServiceRequest, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	ret, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", id, err)
	}
	return ret, nil
}

// List returns matching requests newest first.
func (s *Service) List(_ context.Context, filter *request.Filter) ([]*request.ServiceRequest, error) {
	ret := s.store.Filter(filter.Matches)
	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].CreatedAt.Equal(ret[j].CreatedAt) {
			return ret[i].ID > ret[j].ID
		}
		return ret[i].CreatedAt.After(ret[j].CreatedAt)
	})
	if filter == nil {
		return ret, nil
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(ret) {
			return []*request.ServiceRequest{}, nil
		}
		ret = ret[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(ret) {
		ret = ret[:filter.Limit]
	}
	return ret, nil
}

// Update applies a sparse, optionally conditional, change.
func (s *Service) Update(ctx context.Context, id string, update *request.Update) (*request.ServiceRequest, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	if update == nil {
		return nil, dao.ErrNilEntity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", id, err)
	}
	if !update.Allowed(record) {
		return record, fmt.Errorf("request %s is %s: %w", id, record.Status, request.ErrAlreadyProcessed)
	}
	if update.Status != nil && *update.Status == request.StatusPending && !record.IsPending() {
		if existing := s.pendingFor(record.UserID); existing != nil {
			return nil, &request.PendingError{UserID: record.UserID, ExistingID: existing.ID}
		}
	}
	update.Apply(record, clock.Now())
	if err = s.store.Save(ctx, record); err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// CountsByStatus returns number of requests per status, every status present.
func (s *Service) CountsByStatus(context.Context) (request.Counts, error) {
	ret := request.NewCounts()
	for _, r := range s.store.Filter(nil) {
		ret[r.Status]++
	}
	return ret, nil
}

// New creates an empty store.
func New() *Service {
	return &Service{store: store.NewMemoryStore[string, request.ServiceRequest](
		func(r *request.ServiceRequest) string { return r.ID },
		(*request.ServiceRequest).Clone,
	)}
}
