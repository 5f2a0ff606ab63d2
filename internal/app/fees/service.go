package fees

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/chibo-dx/roster-api/internal/app/apperr"
	"github.com/chibo-dx/roster-api/internal/domain"
	clockport "github.com/chibo-dx/roster-api/internal/ports/out/clock"
	"github.com/chibo-dx/roster-api/internal/ports/out/feerepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/memberrepo"
)

// DefaultAmount is the monthly dues amount used when a new entry names none.
const DefaultAmount int64 = 50000

type AddFeeInput struct {
	MemberID domain.MemberID
	Month    int
	Year     int
	// Amount zero means DefaultAmount.
	Amount int64
}

// UpdateFeeInput corrects an entry; nil fields are left as they are.
type UpdateFeeInput struct {
	Amount     *int64
	MemberName *string
}

// Report is a filtered fee listing with its rollup.
type Report struct {
	Fees    []domain.Fee
	Summary domain.FeeSummary
}

type Service struct {
	repo    feerepo.Repository
	members memberrepo.Repository
	clk     clockport.Clock

	newFeeID func() domain.FeeID
}

func NewService(repo feerepo.Repository, members memberrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo:    repo,
		members: members,
		clk:     clk,
		newFeeID: func() domain.FeeID {
			return domain.FeeID(uuid.NewString())
		},
	}
}

func (s *Service) List(ctx context.Context, filter feerepo.Filter) (Report, error) {
	if filter.Month < 0 || filter.Month > 12 {
		return Report{}, apperr.Invalid("invalid month", "month", "must be between 1 and 12")
	}
	fs, err := s.repo.List(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	return Report{Fees: fs, Summary: domain.SummarizeFees(fs)}, nil
}

// AddFee records an unpaid dues entry for one member and month.
func (s *Service) AddFee(ctx context.Context, actor domain.Actor, in AddFeeInput) (domain.Fee, error) {
	if !actor.CanResolve() {
		return domain.Fee{}, apperr.Forbidden("only the secretary or deputy secretary may record dues")
	}
	verr := &domain.ValidationError{}
	if in.Month < 1 || in.Month > 12 {
		verr.Add("month", "must be between 1 and 12")
	}
	if in.Year < 1930 || in.Year > 9999 {
		verr.Add("year", "must be a four-digit year")
	}
	if in.Amount < 0 {
		verr.Add("amount", "must not be negative")
	}
	if err := verr.OrNil(); err != nil {
		return domain.Fee{}, apperr.FromValidation("invalid fee", err)
	}

	m, err := s.members.GetByID(ctx, in.MemberID)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Fee{}, apperr.NotFound(apperr.CodeMemberNotFound, "member not found")
		}
		return domain.Fee{}, err
	}
	existing, err := s.repo.List(ctx, feerepo.Filter{MemberID: m.ID, Year: in.Year, Month: in.Month})
	if err != nil {
		return domain.Fee{}, err
	}
	if len(existing) > 0 {
		return domain.Fee{}, apperr.Conflict(apperr.CodeFeeAlreadyExists, "dues for this member and month are already recorded")
	}

	amount := in.Amount
	if amount == 0 {
		amount = DefaultAmount
	}
	now := s.clk.Now()
	f := domain.Fee{
		ID:         s.newFeeID(),
		MemberID:   m.ID,
		MemberName: m.FullName,
		Month:      in.Month,
		Year:       in.Year,
		Amount:     amount,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		if errors.Is(err, feerepo.ErrAlreadyExists) {
			return domain.Fee{}, apperr.Conflict(apperr.CodeFeeAlreadyExists, "dues for this member and month are already recorded")
		}
		return domain.Fee{}, err
	}
	return f, nil
}

// AddMonth records an entry for every active member that does not have one yet for the month.
func (s *Service) AddMonth(ctx context.Context, actor domain.Actor, year, month int, amount int64) ([]domain.Fee, error) {
	if !actor.CanResolve() {
		return nil, apperr.Forbidden("only the secretary or deputy secretary may record dues")
	}
	ms, err := s.members.List(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Fee, 0, len(ms))
	for _, m := range ms {
		f, err := s.AddFee(ctx, actor, AddFeeInput{MemberID: m.ID, Month: month, Year: year, Amount: amount})
		if apperr.HasCode(err, apperr.CodeFeeAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Service) UpdateFee(ctx context.Context, actor domain.Actor, id domain.FeeID, in UpdateFeeInput) (domain.Fee, error) {
	if !actor.CanResolve() {
		return domain.Fee{}, apperr.Forbidden("only the secretary or deputy secretary may edit dues")
	}
	f, err := s.get(ctx, id)
	if err != nil {
		return domain.Fee{}, err
	}
	if in.Amount != nil {
		if *in.Amount < 0 {
			return domain.Fee{}, apperr.Invalid("invalid amount", "amount", "must not be negative")
		}
		f.Amount = *in.Amount
	}
	if in.MemberName != nil {
		name := domain.NormalizeHumanName(*in.MemberName)
		if name == "" {
			return domain.Fee{}, apperr.Invalid("invalid memberName", "memberName", "must be non-empty")
		}
		f.MemberName = name
	}
	return s.save(ctx, f)
}

// TogglePaid flips the paid flag. Becoming paid stamps today's date; becoming unpaid clears it.
func (s *Service) TogglePaid(ctx context.Context, actor domain.Actor, id domain.FeeID) (domain.Fee, error) {
	if !actor.CanResolve() {
		return domain.Fee{}, apperr.Forbidden("only the secretary or deputy secretary may confirm payments")
	}
	f, err := s.get(ctx, id)
	if err != nil {
		return domain.Fee{}, err
	}
	f.IsPaid = !f.IsPaid
	if f.IsPaid {
		today := domain.FormatDate(clockport.Today(s.clk))
		f.PaymentDate = &today
	} else {
		f.PaymentDate = nil
	}
	return s.save(ctx, f)
}

func (s *Service) get(ctx context.Context, id domain.FeeID) (domain.Fee, error) {
	if strings.TrimSpace(string(id)) == "" {
		return domain.Fee{}, feeNotFound()
	}
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, feerepo.ErrNotFound) {
			return domain.Fee{}, feeNotFound()
		}
		return domain.Fee{}, err
	}
	return f, nil
}

func (s *Service) save(ctx context.Context, f domain.Fee) (domain.Fee, error) {
	f.UpdatedAt = s.clk.Now()
	if err := s.repo.Save(ctx, f); err != nil {
		if errors.Is(err, feerepo.ErrNotFound) {
			return domain.Fee{}, feeNotFound()
		}
		return domain.Fee{}, err
	}
	return f, nil
}

func feeNotFound() *apperr.Error {
	return apperr.NotFound(apperr.CodeFeeNotFound, "fee not found")
}
