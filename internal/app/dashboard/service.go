package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/chibo-dx/roster-api/internal/domain"
	clockport "github.com/chibo-dx/roster-api/internal/ports/out/clock"
	"github.com/chibo-dx/roster-api/internal/ports/out/editrequestrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/feerepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/memberrepo"
)

// Overview is the branch rollup shown on the landing page.
type Overview struct {
	ActiveMembers       int
	OfficialMembers     int
	ProbationaryMembers int
	ProspectMembers     int

	FeeCount int
	FeesPaid int
	// FeeCompletionPercent is paid entries over all entries, rounded.
	FeeCompletionPercent int

	PendingEditRequests int
	ProbationReminders  []domain.ProbationReminder
}

type Service struct {
	members  memberrepo.Repository
	requests editrequestrepo.Repository
	fees     feerepo.Repository
	clk      clockport.Clock
}

func NewService(members memberrepo.Repository, requests editrequestrepo.Repository, fees feerepo.Repository, clk clockport.Clock) *Service {
	return &Service{members: members, requests: requests, fees: fees, clk: clk}
}

// Overview reads members, fees and the pending queue concurrently.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var (
		ms      []domain.Member
		fs      []domain.Fee
		pending []domain.EditRequest
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		ms, err = s.members.List(egCtx, false)
		return err
	})
	eg.Go(func() error {
		var err error
		fs, err = s.fees.List(egCtx, feerepo.Filter{})
		return err
	})
	eg.Go(func() error {
		var err error
		pending, err = s.requests.List(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return Overview{}, err
	}

	var out Overview
	out.ActiveMembers = len(ms)
	for _, m := range ms {
		switch m.Status {
		case domain.MemberStatusOfficial:
			out.OfficialMembers++
		case domain.MemberStatusProbationary:
			out.ProbationaryMembers++
		case domain.MemberStatusProspect:
			out.ProspectMembers++
		}
	}
	out.ProbationReminders = domain.ProbationReminders(ms, clockport.Today(s.clk))

	sum := domain.SummarizeFees(fs)
	out.FeeCount = sum.FeeCount
	out.FeesPaid = sum.PaidCount
	out.FeeCompletionPercent = domain.PercentRounded(int64(sum.PaidCount), int64(sum.FeeCount))

	out.PendingEditRequests = len(pending)
	return out, nil
}
