package editrequestrepo

import (
	"context"
	"errors"

	"github.com/chibo-dx/roster-api/internal/domain"
)

var (
	// ErrNotFound indicates the requested edit request does not exist (or was already resolved).
	ErrNotFound = errors.New("edit request not found")

	// ErrAlreadyExists indicates an edit request already exists with the provided ID.
	ErrAlreadyExists = errors.New("edit request already exists")
)

// Repository is the pending edit-request queue.
//
// The queue does not enforce one request per member; callers decide that policy.
type Repository interface {
	Create(ctx context.Context, r domain.EditRequest) error
	GetByID(ctx context.Context, id domain.EditRequestID) (domain.EditRequest, error)

	// List returns every pending request in insertion order.
	List(ctx context.Context) ([]domain.EditRequest, error)

	// ListByMember returns the member's pending requests in insertion order.
	ListByMember(ctx context.Context, memberID domain.MemberID) ([]domain.EditRequest, error)

	// Delete removes the request. Deleting an absent request is not an error;
	// the boolean reports whether anything was removed.
	Delete(ctx context.Context, id domain.EditRequestID) (bool, error)
}
