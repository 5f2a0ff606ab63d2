package unitofwork

import (
	"testing"

	"github.com/chibo-dx/roster-api/internal/adapters/contracttest"
	pgeditrequestrepo "github.com/chibo-dx/roster-api/internal/adapters/postgres/editrequestrepo"
	pgmemberrepo "github.com/chibo-dx/roster-api/internal/adapters/postgres/memberrepo"
	"github.com/chibo-dx/roster-api/internal/adapters/postgres/testutil"
)

func TestContract_PostgresUnitOfWork(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunUnitOfWork(t, func(t *testing.T) (contracttest.UnitOfWork, func()) {
		t.Helper()
		return contracttest.UnitOfWork{
			Runner:       NewRunner(pool),
			Members:      pgmemberrepo.NewRepo(pool),
			EditRequests: pgeditrequestrepo.NewRepo(pool),
		}, nil
	})
}
