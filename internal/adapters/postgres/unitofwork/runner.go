package unitofwork

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	pgeditrequestrepo "github.com/chibo-dx/roster-api/internal/adapters/postgres/editrequestrepo"
	pgmemberrepo "github.com/chibo-dx/roster-api/internal/adapters/postgres/memberrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/unitofwork"
)

// Runner is a Postgres unitofwork.Runner. Each unit of work runs in its own
// READ COMMITTED transaction; concurrent writers to one member are ordered by the
// member row lock and the version check in UPDATE.
type Runner struct {
	pool *pgxpool.Pool
}

func NewRunner(pool *pgxpool.Pool) *Runner {
	return &Runner{pool: pool}
}

func (r *Runner) WithinTx(ctx context.Context, fn func(ctx context.Context, tx unitofwork.Tx) error) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, unitofwork.Tx{
			Members:      pgmemberrepo.NewRepo(tx),
			EditRequests: pgeditrequestrepo.NewRepo(tx),
		})
	})
}
