package memberrepo

import (
	"context"

	"github.com/chibo-dx/roster-api/internal/domain"
)

// Repository provides access to the roster.
//
// Records are stored as domain.Member values; implementations must copy on the way in
// and out so callers never share pointers with stored state.
//
// Result ordering expectations:
// - List/Search methods return results ordered by FullName ascending (case-insensitive), then ID.
type Repository interface {
	// Create stores a new record. The stored Version is 1 regardless of m.Version.
	Create(ctx context.Context, m domain.Member) error

	// Update replaces a record. m.Version must equal the stored version (ErrVersionConflict
	// otherwise); the stored version becomes m.Version+1.
	Update(ctx context.Context, m domain.Member) error

	GetByID(ctx context.Context, id domain.MemberID) (domain.Member, error)
	GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.Member, error)

	List(ctx context.Context, includeTransferred bool) ([]domain.Member, error)

	// SearchByName matches active members whose FullName contains every query token
	// (case-insensitive) or whose PartyCardNumber contains the raw query.
	// Query validation (e.g. minimum length) is enforced at the application layer.
	SearchByName(ctx context.Context, query string, limit int) ([]domain.Member, error)
}
