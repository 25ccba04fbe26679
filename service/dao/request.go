package dao

import (
	"context"

	"github.com/viant/homeservice/model/request"
)

// RequestStore persists service requests.
//
// Create assigns the id, forces pending status and fails with
// *request.PendingError while the user already has a pending request.
// Update applies a sparse merge; when the update carries a status
// precondition that no longer holds it fails with request.ErrAlreadyProcessed
// and returns the current record alongside the error.
// Get and Update return ErrNotFound for unknown ids.
type RequestStore interface {
	Create(ctx context.Context, input *request.CreateInput) (*request.ServiceRequest, error)

	Get(ctx context.Context, id string) (*request.ServiceRequest, error)

	// List returns matching requests newest first.
	List(ctx context.Context, filter *request.Filter) ([]*request.ServiceRequest, error)

	Update(ctx context.Context, id string, update *request.Update) (*request.ServiceRequest, error)

	CountsByStatus(ctx context.Context) (request.Counts, error)
}
