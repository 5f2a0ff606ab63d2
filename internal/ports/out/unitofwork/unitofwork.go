package unitofwork

import (
	"context"

	"github.com/chibo-dx/roster-api/internal/ports/out/editrequestrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/memberrepo"
)

// Tx exposes repositories bound to a single unit of work.
type Tx struct {
	Members      memberrepo.Repository
	EditRequests editrequestrepo.Repository
}

// Runner executes fn atomically: when fn returns an error, none of the writes made
// through tx are kept. Implementations serialize or isolate concurrent units of work.
type Runner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
