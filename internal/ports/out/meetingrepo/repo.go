package meetingrepo

import (
	"context"
	"errors"

	"github.com/chibo-dx/roster-api/internal/domain"
)

var (
	ErrNotFound      = errors.New("meeting not found")
	ErrAlreadyExists = errors.New("meeting already exists")
)

// Repository provides access to meeting minutes.
type Repository interface {
	Create(ctx context.Context, m domain.Meeting) error
	Save(ctx context.Context, m domain.Meeting) error
	Delete(ctx context.Context, id domain.MeetingID) error
	GetByID(ctx context.Context, id domain.MeetingID) (domain.Meeting, error)

	// List returns meetings newest first (Date descending, then CreatedAt descending).
	List(ctx context.Context) ([]domain.Meeting, error)
}
