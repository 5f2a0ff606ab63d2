package editrequests

import (
	"context"

	memmemberrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/memberrepo"
	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/unitofwork"
)

// racingMembers bumps the stored record right after it is read, simulating a write that
// lands between read and update.
type racingMembers struct {
	*memmemberrepo.Repo
}

func (r *racingMembers) GetByID(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	m, err := r.Repo.GetByID(ctx, id)
	if err != nil {
		return m, err
	}
	if err := r.Repo.Update(ctx, m); err != nil {
		return domain.Member{}, err
	}
	return m, nil
}

type racingRunner struct {
	inner   unitofwork.Runner
	members *racingMembers
}

func (r racingRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, tx unitofwork.Tx) error) error {
	return r.inner.WithinTx(ctx, func(ctx context.Context, tx unitofwork.Tx) error {
		tx.Members = r.members
		return fn(ctx, tx)
	})
}
