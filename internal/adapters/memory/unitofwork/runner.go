package unitofwork

import (
	"context"
	"sync"

	memeditrequestrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/editrequestrepo"
	memmemberrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/memberrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/unitofwork"
)

// Runner is an in-memory unitofwork.Runner.
//
// Units of work are serialized. Rollback restores both repositories from the snapshots
// taken at the start, so every write to them must go through WithinTx.
type Runner struct {
	mu sync.Mutex

	members  *memmemberrepo.Repo
	requests *memeditrequestrepo.Repo
}

func NewRunner(members *memmemberrepo.Repo, requests *memeditrequestrepo.Repo) *Runner {
	return &Runner{members: members, requests: requests}
}

func (u *Runner) WithinTx(ctx context.Context, fn func(ctx context.Context, tx unitofwork.Tx) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	membersBefore := u.members.Snapshot()
	requestsBefore := u.requests.Snapshot()

	if err := fn(ctx, unitofwork.Tx{Members: u.members, EditRequests: u.requests}); err != nil {
		u.members.Restore(membersBefore)
		u.requests.Restore(requestsBefore)
		return err
	}
	return nil
}
