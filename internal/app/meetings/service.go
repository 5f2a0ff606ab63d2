package meetings

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/chibo-dx/roster-api/internal/app/apperr"
	"github.com/chibo-dx/roster-api/internal/domain"
	clockport "github.com/chibo-dx/roster-api/internal/ports/out/clock"
	"github.com/chibo-dx/roster-api/internal/ports/out/meetingrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/memberrepo"
)

// Input carries the editable meeting fields. An empty Date means today; a zero
// TotalMembers on create means the current active roster size.
type Input struct {
	Title          string
	Date           string
	Type           domain.MeetingType
	Content        string
	Resolution     string
	AttendeesCount int
	TotalMembers   int
}

type Service struct {
	repo    meetingrepo.Repository
	members memberrepo.Repository
	clk     clockport.Clock

	newMeetingID func() domain.MeetingID
}

func NewService(repo meetingrepo.Repository, members memberrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo:    repo,
		members: members,
		clk:     clk,
		newMeetingID: func() domain.MeetingID {
			return domain.MeetingID(uuid.NewString())
		},
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Meeting, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id domain.MeetingID) (domain.Meeting, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Meeting{}, mapRepoErr(err)
	}
	return m, nil
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, in Input) (domain.Meeting, error) {
	if !actor.CanResolve() {
		return domain.Meeting{}, apperr.Forbidden("only the secretary or deputy secretary may record meetings")
	}
	if in.TotalMembers == 0 {
		active, err := s.members.List(ctx, false)
		if err != nil {
			return domain.Meeting{}, err
		}
		in.TotalMembers = len(active)
	}

	now := s.clk.Now()
	m := s.apply(domain.Meeting{ID: s.newMeetingID(), CreatedAt: now}, in)
	m.UpdatedAt = now
	if err := m.Validate(); err != nil {
		return domain.Meeting{}, apperr.FromValidation("invalid meeting", err)
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return domain.Meeting{}, mapRepoErr(err)
	}
	return m, nil
}

// Update replaces every editable field of an existing meeting.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id domain.MeetingID, in Input) (domain.Meeting, error) {
	if !actor.CanResolve() {
		return domain.Meeting{}, apperr.Forbidden("only the secretary or deputy secretary may edit meetings")
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return domain.Meeting{}, err
	}
	m := s.apply(cur, in)
	m.UpdatedAt = s.clk.Now()
	if err := m.Validate(); err != nil {
		return domain.Meeting{}, apperr.FromValidation("invalid meeting", err)
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return domain.Meeting{}, mapRepoErr(err)
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, id domain.MeetingID) error {
	if !actor.CanResolve() {
		return apperr.Forbidden("only the secretary or deputy secretary may delete meetings")
	}
	return mapRepoErr(s.repo.Delete(ctx, id))
}

func (s *Service) apply(m domain.Meeting, in Input) domain.Meeting {
	m.Title = domain.NormalizeHumanName(in.Title)
	m.Date = strings.TrimSpace(in.Date)
	if m.Date == "" {
		m.Date = domain.FormatDate(clockport.Today(s.clk))
	}
	m.Type = in.Type
	if m.Type == "" {
		m.Type = domain.MeetingTypeRegular
	}
	m.Content = domain.NormalizeText(in.Content)
	m.Resolution = domain.NormalizeText(in.Resolution)
	m.AttendeesCount = in.AttendeesCount
	m.TotalMembers = in.TotalMembers
	return m
}

func mapRepoErr(err error) error {
	if errors.Is(err, meetingrepo.ErrNotFound) {
		return apperr.NotFound(apperr.CodeMeetingNotFound, "meeting not found")
	}
	return err
}
