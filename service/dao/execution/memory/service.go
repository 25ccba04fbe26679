package memory

import (
	"context"
	"sort"

	"github.com/viant/homeservice/model/execution"
	"github.com/viant/homeservice/service/dao"
	"github.com/viant/homeservice/service/dao/criteria"
	"github.com/viant/homeservice/service/dao/store"
)

// Service implements an in-memory execution checkpoint storage. Stored and
// returned values are copies so callers never share state with the store.
type Service struct {
	store *store.MemoryStore[string, execution.Execution]
}

var _ dao.Service[string, execution.Execution] = (*Service)(nil)

// Save persists (a clone of) the supplied execution.
func (s *Service) Save(ctx context.Context, e *execution.Execution) error {
	if e == nil {
		return dao.ErrNilEntity
	}
	if e.ID == "" {
		return dao.ErrInvalidID
	}
	return s.store.Save(ctx, e)
}

// Load retrieves a copy of the execution or dao.ErrNotFound.
func (s *Service) Load(ctx context.Context, id string) (*execution.Execution, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	return s.store.Load(ctx, id)
}

// Delete removes an execution.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	return s.store.Delete(ctx, id)
}

// List returns executions matching State and Definition parameters, oldest first.
func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*execution.Execution, error) {
	out := s.store.Filter(func(e *execution.Execution) bool {
		return criteria.FilterByState(string(e.State), parameters) && criteria.FilterByDefinition(e.DefinitionID, parameters)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// New constructor.
func New() *Service {
	return &Service{store: store.NewMemoryStore[string, execution.Execution](
		func(e *execution.Execution) string { return e.ID },
		(*execution.Execution).Clone,
	)}
}
