package feerepo

import (
	"context"
	"errors"

	"github.com/chibo-dx/roster-api/internal/domain"
)

var (
	ErrNotFound      = errors.New("fee not found")
	ErrAlreadyExists = errors.New("fee already exists")
)

// Filter narrows List results; zero values mean "any".
type Filter struct {
	MemberID domain.MemberID
	Year     int
	Month    int
}

// Repository provides access to dues entries.
//
// List returns entries ordered by year, month, member name, then ID.
type Repository interface {
	Create(ctx context.Context, f domain.Fee) error
	Save(ctx context.Context, f domain.Fee) error
	GetByID(ctx context.Context, id domain.FeeID) (domain.Fee, error)
	List(ctx context.Context, filter Filter) ([]domain.Fee, error)
}
