package feerepo

import (
	"testing"

	"github.com/chibo-dx/roster-api/internal/adapters/contracttest"
	"github.com/chibo-dx/roster-api/internal/adapters/postgres/testutil"
	feerepoport "github.com/chibo-dx/roster-api/internal/ports/out/feerepo"
)

func TestContract_PostgresFeeRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunFeeRepo(t, func(t *testing.T) (feerepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool), nil
	})
}
