// Package bootstrap assembles the storage backend and application services from config.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/chibo-dx/roster-api/internal/adapters/httpapi"
	memeditrequestrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/editrequestrepo"
	memfeerepo "github.com/chibo-dx/roster-api/internal/adapters/memory/feerepo"
	memidempotency "github.com/chibo-dx/roster-api/internal/adapters/memory/idempotency"
	memmeetingrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/meetingrepo"
	memmemberrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/memberrepo"
	memunitofwork "github.com/chibo-dx/roster-api/internal/adapters/memory/unitofwork"
	"github.com/chibo-dx/roster-api/internal/adapters/postgres"
	pgeditrequestrepo "github.com/chibo-dx/roster-api/internal/adapters/postgres/editrequestrepo"
	pgfeerepo "github.com/chibo-dx/roster-api/internal/adapters/postgres/feerepo"
	pgidempotency "github.com/chibo-dx/roster-api/internal/adapters/postgres/idempotency"
	pgmeetingrepo "github.com/chibo-dx/roster-api/internal/adapters/postgres/meetingrepo"
	pgmemberrepo "github.com/chibo-dx/roster-api/internal/adapters/postgres/memberrepo"
	pgunitofwork "github.com/chibo-dx/roster-api/internal/adapters/postgres/unitofwork"
	"github.com/chibo-dx/roster-api/internal/adapters/snapshot"
	"github.com/chibo-dx/roster-api/internal/app/advisor"
	"github.com/chibo-dx/roster-api/internal/app/dashboard"
	"github.com/chibo-dx/roster-api/internal/app/editrequests"
	"github.com/chibo-dx/roster-api/internal/app/fees"
	"github.com/chibo-dx/roster-api/internal/app/meetings"
	"github.com/chibo-dx/roster-api/internal/app/members"
	"github.com/chibo-dx/roster-api/internal/app/seed"
	"github.com/chibo-dx/roster-api/internal/platform/config"
	advisorport "github.com/chibo-dx/roster-api/internal/ports/out/advisor"
	clockport "github.com/chibo-dx/roster-api/internal/ports/out/clock"
	"github.com/chibo-dx/roster-api/internal/ports/out/editrequestrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/feerepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/idempotency"
	"github.com/chibo-dx/roster-api/internal/ports/out/meetingrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/memberrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/unitofwork"
)

// Storage is one opened backend. Every field is set.
type Storage struct {
	Backend      string
	Members      memberrepo.Repository
	EditRequests editrequestrepo.Repository
	Fees         feerepo.Repository
	Meetings     meetingrepo.Repository
	UnitOfWork   unitofwork.Runner
	Idempotency  idempotency.Store

	close func()
}

// Close releases the backend's resources. It is safe to call on every backend.
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage opens the configured backend. The postgres backend is migrated before use.
// tokenIssuer scopes idempotency records to the identity provider that minted the subject.
func OpenStorage(ctx context.Context, cfg config.StorageConfig, tokenIssuer string, log zerolog.Logger) (*Storage, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return OpenMemory(), nil

	case config.BackendSnapshot:
		st, err := snapshot.Open(cfg.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("open snapshot: %w", err)
		}
		log.Info().Str("path", st.Path()).Msg("snapshot store opened")
		return &Storage{
			Backend:      config.BackendSnapshot,
			Members:      st.Members(),
			EditRequests: st.EditRequests(),
			Fees:         st.Fees(),
			Meetings:     st.Meetings(),
			UnitOfWork:   st,
			Idempotency:  memidempotency.NewStore(),
		}, nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{ConnectTimeout: 10 * time.Second})
		if err != nil {
			return nil, err
		}
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if len(applied) > 0 {
			log.Info().Strs("migrations", applied).Msg("database migrated")
		}
		return &Storage{
			Backend:      config.BackendPostgres,
			Members:      pgmemberrepo.NewRepo(pool),
			EditRequests: pgeditrequestrepo.NewRepo(pool),
			Fees:         pgfeerepo.NewRepo(pool),
			Meetings:     pgmeetingrepo.NewRepo(pool),
			UnitOfWork:   pgunitofwork.NewRunner(pool),
			Idempotency:  pgidempotency.NewStore(pool, tokenIssuer),
			close:        pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// OpenMemory returns a fresh process-local backend.
func OpenMemory() *Storage {
	memberRepo := memmemberrepo.NewRepo()
	requestRepo := memeditrequestrepo.NewRepo()
	return &Storage{
		Backend:      config.BackendMemory,
		Members:      memberRepo,
		EditRequests: requestRepo,
		Fees:         memfeerepo.NewRepo(),
		Meetings:     memmeetingrepo.NewRepo(),
		UnitOfWork:   memunitofwork.NewRunner(memberRepo, requestRepo),
		Idempotency:  memidempotency.NewStore(),
	}
}

// Services is the full set of application services over one Storage.
type Services struct {
	Members      *members.Service
	EditRequests *editrequests.Service
	Fees         *fees.Service
	Meetings     *meetings.Service
	Dashboard    *dashboard.Service
	Advisor      *advisor.Service
	Seed         *seed.Service
}

type ServiceOptions struct {
	SinglePending bool
	// Generator backs the advisor; nil leaves it disabled.
	Generator advisorport.Generator
}

func NewServices(st *Storage, clk clockport.Clock, log zerolog.Logger, opts ServiceOptions) Services {
	memberSvc := members.NewService(st.Members, st.EditRequests, st.UnitOfWork, clk)
	editSvc := editrequests.NewService(st.UnitOfWork, st.Members, st.EditRequests, clk, log)
	editSvc.SinglePending = opts.SinglePending
	feeSvc := fees.NewService(st.Fees, st.Members, clk)
	meetingSvc := meetings.NewService(st.Meetings, st.Members, clk)
	return Services{
		Members:      memberSvc,
		EditRequests: editSvc,
		Fees:         feeSvc,
		Meetings:     meetingSvc,
		Dashboard:    dashboard.NewService(st.Members, st.EditRequests, st.Fees, clk),
		Advisor:      advisor.NewService(opts.Generator),
		Seed:         &seed.Service{Members: memberSvc, Meetings: meetingSvc, Fees: feeSvc},
	}
}

// HTTP narrows the services to the ones the HTTP adapter serves.
func (s Services) HTTP() httpapi.Services {
	return httpapi.Services{
		Members:      s.Members,
		EditRequests: s.EditRequests,
		Fees:         s.Fees,
		Meetings:     s.Meetings,
		Dashboard:    s.Dashboard,
		Advisor:      s.Advisor,
	}
}
