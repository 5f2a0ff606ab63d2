package members

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/chibo-dx/roster-api/internal/app/apperr"
	"github.com/chibo-dx/roster-api/internal/domain"
	clockport "github.com/chibo-dx/roster-api/internal/ports/out/clock"
	"github.com/chibo-dx/roster-api/internal/ports/out/editrequestrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/memberrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/unitofwork"
)

type Service struct {
	repo     memberrepo.Repository
	requests editrequestrepo.Repository
	uow      unitofwork.Runner
	clk      clockport.Clock

	newMemberID func() domain.MemberID

	// SearchLimit bounds search result size.
	SearchLimit int
}

func NewService(repo memberrepo.Repository, requests editrequestrepo.Repository, uow unitofwork.Runner, clk clockport.Clock) *Service {
	return &Service{
		repo:     repo,
		requests: requests,
		uow:      uow,
		clk:      clk,
		newMemberID: func() domain.MemberID {
			return domain.MemberID(uuid.NewString())
		},
		SearchLimit: 50,
	}
}

func (s *Service) ListMembers(ctx context.Context, includeTransferred bool) ([]domain.Member, error) {
	return s.repo.List(ctx, includeTransferred)
}

func (s *Service) SearchMembers(ctx context.Context, query string) ([]domain.Member, error) {
	q := strings.TrimSpace(query)
	if len([]rune(q)) < 2 {
		return nil, apperr.Invalid("invalid search query", "q", "must be at least 2 characters")
	}
	return s.repo.SearchByName(ctx, q, s.SearchLimit)
}

func (s *Service) GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Member{}, mapRepoErr(err)
	}
	return m, nil
}

// ResolveActor maps an authenticated subject onto the member record bound to it.
func (s *Service) ResolveActor(ctx context.Context, subject domain.SubjectID) (domain.Actor, error) {
	m, err := s.repo.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Actor{}, notProvisioned()
		}
		return domain.Actor{}, err
	}
	if !m.IsActive() {
		return domain.Actor{}, apperr.Forbidden("member has been transferred out of the branch")
	}
	return domain.Actor{MemberID: m.ID, Subject: subject, Role: m.Role}, nil
}

func (s *Service) GetMyProfile(ctx context.Context, subject domain.SubjectID) (Profile, error) {
	m, err := s.repo.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return Profile{}, notProvisioned()
		}
		return Profile{}, err
	}
	pending, err := s.requests.ListByMember(ctx, m.ID)
	if err != nil {
		return Profile{}, err
	}
	proposed := make(map[domain.MemberField]string)
	for _, r := range pending {
		for f, v := range r.Changes {
			proposed[f] = v
		}
	}
	return Profile{Member: m, Pending: pending, Proposed: proposed}, nil
}

func (s *Service) CreateMember(ctx context.Context, actor domain.Actor, in CreateMemberInput) (domain.Member, error) {
	if !actor.CanResolve() {
		return domain.Member{}, apperr.Forbidden("only the secretary or deputy secretary may add members")
	}

	fields := make(map[string]string, len(in.Fields)+2)
	for k, v := range in.Fields {
		fields[k] = v
	}
	if strings.TrimSpace(fields[string(domain.FieldStatus)]) == "" {
		fields[string(domain.FieldStatus)] = string(domain.MemberStatusProbationary)
	}
	if strings.TrimSpace(fields[string(domain.FieldRole)]) == "" {
		fields[string(domain.FieldRole)] = string(domain.MemberRoleMember)
	}
	changes, err := domain.ParseChanges(fields)
	if err != nil {
		return domain.Member{}, apperr.FromValidation("invalid member", err)
	}
	verr := &domain.ValidationError{}
	for _, f := range []domain.MemberField{domain.FieldFullName, domain.FieldPartyDate} {
		if _, ok := changes[f]; !ok {
			verr.Add(string(f), "must be non-empty")
		}
	}
	if err := verr.OrNil(); err != nil {
		return domain.Member{}, apperr.FromValidation("invalid member", err)
	}

	now := s.clk.Now()
	m := domain.Member{ID: s.newMemberID(), CreatedAt: now, UpdatedAt: now}
	if in.Subject != nil {
		sub := *in.Subject
		m.Subject = &sub
	}
	changes.ApplyTo(&m)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx unitofwork.Tx) error {
		return tx.Members.Create(ctx, m)
	})
	if err != nil {
		return domain.Member{}, mapRepoErr(err)
	}
	m.Version = 1
	return m, nil
}

// DirectEdit overwrites fields on a member without going through the request queue.
// expectedVersion guards against lost updates; zero skips the check.
func (s *Service) DirectEdit(ctx context.Context, actor domain.Actor, id domain.MemberID, raw map[string]string, expectedVersion int64) (domain.Member, error) {
	if !actor.CanResolve() {
		return domain.Member{}, apperr.Forbidden("only the secretary or deputy secretary may edit members directly")
	}
	changes, err := domain.ParseChanges(raw)
	if err != nil {
		return domain.Member{}, apperr.FromValidation("invalid changes", err)
	}
	if actor.MemberID == id && domain.MemberStatus(changes[domain.FieldStatus]) == domain.MemberStatusTransferred {
		return domain.Member{}, errSelfTransfer()
	}
	return s.mutate(ctx, id, expectedVersion, func(m *domain.Member) error {
		changes.ApplyTo(m)
		return nil
	})
}

// Transfer marks a member as transferred out. Transferring twice is a no-op.
func (s *Service) Transfer(ctx context.Context, actor domain.Actor, id domain.MemberID) (domain.Member, error) {
	if !actor.CanResolve() {
		return domain.Member{}, apperr.Forbidden("only the secretary or deputy secretary may transfer members")
	}
	if actor.MemberID == id {
		return domain.Member{}, errSelfTransfer()
	}
	m, err := s.GetMember(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}
	if !m.IsActive() {
		return m, nil
	}
	return s.mutate(ctx, id, 0, func(m *domain.Member) error {
		m.Status = domain.MemberStatusTransferred
		return nil
	})
}

// MakeOfficial promotes a probationary member to official standing.
func (s *Service) MakeOfficial(ctx context.Context, actor domain.Actor, id domain.MemberID, in MakeOfficialInput) (domain.Member, error) {
	if !actor.CanResolve() {
		return domain.Member{}, apperr.Forbidden("only the secretary or deputy secretary may confirm official status")
	}
	date := strings.TrimSpace(in.OfficialDate)
	if date == "" {
		date = domain.FormatDate(clockport.Today(s.clk))
	}
	if _, err := domain.ParseDate(date); err != nil {
		return domain.Member{}, apperr.Invalid("invalid officialDate", string(domain.FieldOfficialDate), "must be a date in YYYY-MM-DD format")
	}
	card := strings.TrimSpace(in.PartyCardNumber)

	return s.mutate(ctx, id, 0, func(m *domain.Member) error {
		if m.Status != domain.MemberStatusProbationary {
			return apperr.Invalid("member is not probationary", string(domain.FieldStatus), "must be "+string(domain.MemberStatusProbationary))
		}
		m.Status = domain.MemberStatusOfficial
		m.OfficialDate = &date
		if card != "" {
			m.PartyCardNumber = &card
		}
		return nil
	})
}

// BindSubject links a login identity to a member record.
func (s *Service) BindSubject(ctx context.Context, actor domain.Actor, id domain.MemberID, subject domain.SubjectID) (domain.Member, error) {
	if !actor.CanResolve() {
		return domain.Member{}, apperr.Forbidden("only the secretary or deputy secretary may bind accounts")
	}
	if strings.TrimSpace(string(subject)) == "" {
		return domain.Member{}, apperr.Invalid("invalid subject", "subject", "must be non-empty")
	}
	return s.mutate(ctx, id, 0, func(m *domain.Member) error {
		m.Subject = &subject
		return nil
	})
}

// UnbindSubject detaches the login identity from a member, suspending that account.
// The record itself is kept. Unbinding an unbound member is a no-op.
func (s *Service) UnbindSubject(ctx context.Context, actor domain.Actor, id domain.MemberID) (domain.Member, error) {
	if !actor.CanResolve() {
		return domain.Member{}, apperr.Forbidden("only the secretary or deputy secretary may unbind accounts")
	}
	if actor.MemberID == id {
		return domain.Member{}, apperr.Invalid("cannot unbind yourself", "id", "must not be the acting member")
	}
	m, err := s.GetMember(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}
	if m.Subject == nil {
		return m, nil
	}
	return s.mutate(ctx, id, 0, func(m *domain.Member) error {
		m.Subject = nil
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id domain.MemberID, expectedVersion int64, fn func(m *domain.Member) error) (domain.Member, error) {
	var out domain.Member
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx unitofwork.Tx) error {
		m, err := tx.Members.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if expectedVersion != 0 && m.Version != expectedVersion {
			return memberrepo.ErrVersionConflict
		}
		if err := fn(&m); err != nil {
			return err
		}
		m.UpdatedAt = s.clk.Now()
		if err := tx.Members.Update(ctx, m); err != nil {
			return err
		}
		m.Version++
		out = m
		return nil
	})
	if err != nil {
		return domain.Member{}, mapRepoErr(err)
	}
	return out, nil
}

func errSelfTransfer() *apperr.Error {
	return apperr.Invalid("cannot transfer yourself", "id", "must not be the acting member")
}

func notProvisioned() *apperr.Error {
	return apperr.NotFound(apperr.CodeMemberNotProvisioned, "No member profile exists for the authenticated subject.")
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, memberrepo.ErrNotFound):
		return apperr.NotFound(apperr.CodeMemberNotFound, "member not found")
	case errors.Is(err, memberrepo.ErrVersionConflict):
		return apperr.Conflict(apperr.CodeVersionConflict, "member was modified concurrently; reload and retry")
	case errors.Is(err, memberrepo.ErrSubjectAlreadyBound):
		return apperr.Conflict(apperr.CodeSubjectAlreadyBound, "subject is already bound to another member")
	case errors.Is(err, memberrepo.ErrAlreadyExists):
		return apperr.Conflict(apperr.CodeMemberAlreadyExists, "member already exists")
	default:
		return err
	}
}
