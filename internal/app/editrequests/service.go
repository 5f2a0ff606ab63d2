// Package editrequests runs the self-service edit workflow: members propose changes to
// their own record and a secretary merges or discards each proposal.
package editrequests

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chibo-dx/roster-api/internal/app/apperr"
	"github.com/chibo-dx/roster-api/internal/domain"
	clockport "github.com/chibo-dx/roster-api/internal/ports/out/clock"
	"github.com/chibo-dx/roster-api/internal/ports/out/editrequestrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/memberrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/unitofwork"
)

type Service struct {
	uow      unitofwork.Runner
	members  memberrepo.Repository
	requests editrequestrepo.Repository
	clk      clockport.Clock
	log      zerolog.Logger

	newRequestID func() domain.EditRequestID

	// SinglePending rejects a submission while the member already has a pending request.
	// When false, requests stack and are applied in approval order.
	SinglePending bool
}

// NewService wires the workflow. members and requests serve reads of committed state;
// every write goes through uow.
func NewService(uow unitofwork.Runner, members memberrepo.Repository, requests editrequestrepo.Repository, clk clockport.Clock, log zerolog.Logger) *Service {
	return &Service{
		uow:      uow,
		members:  members,
		requests: requests,
		clk:      clk,
		log:      log.With().Str("component", "editrequests").Logger(),
		newRequestID: func() domain.EditRequestID {
			return domain.EditRequestID(uuid.NewString())
		},
	}
}

// Submit queues a proposal against the actor's own record.
func (s *Service) Submit(ctx context.Context, actor domain.Actor, raw map[string]string) (domain.EditRequest, error) {
	if !actor.CanSubmit() {
		return domain.EditRequest{}, apperr.Forbidden("only members may submit edit requests")
	}
	return s.submit(ctx, actor, actor.MemberID, raw)
}

// SubmitFor queues a proposal on behalf of another member.
func (s *Service) SubmitFor(ctx context.Context, actor domain.Actor, memberID domain.MemberID, raw map[string]string) (domain.EditRequest, error) {
	if !actor.CanResolve() {
		return domain.EditRequest{}, apperr.Forbidden("only the secretary or deputy secretary may submit on behalf of a member")
	}
	return s.submit(ctx, actor, memberID, raw)
}

func (s *Service) submit(ctx context.Context, actor domain.Actor, memberID domain.MemberID, raw map[string]string) (domain.EditRequest, error) {
	changes, err := domain.ParseChanges(raw)
	if err != nil {
		return domain.EditRequest{}, apperr.FromValidation("invalid changes", err)
	}

	var out domain.EditRequest
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx unitofwork.Tx) error {
		m, err := tx.Members.GetByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, memberrepo.ErrNotFound) {
				return memberNotFound()
			}
			return err
		}
		if !m.IsActive() {
			return apperr.Invalid("member has been transferred", "memberId", "must reference an active member")
		}
		if s.SinglePending {
			pending, err := tx.EditRequests.ListByMember(ctx, memberID)
			if err != nil {
				return err
			}
			if len(pending) > 0 {
				return apperr.Conflict(apperr.CodeEditRequestPending, "member already has a pending edit request")
			}
		}

		out = domain.EditRequest{
			ID:          s.newRequestID(),
			MemberID:    m.ID,
			MemberName:  m.FullName,
			SubmittedBy: actor.Subject,
			SubmittedAt: s.clk.Now(),
			Changes:     changes,
		}
		return tx.EditRequests.Create(ctx, out)
	})
	if err != nil {
		return domain.EditRequest{}, err
	}

	s.log.Info().
		Str("request_id", string(out.ID)).
		Str("member_id", string(out.MemberID)).
		Int("fields", len(out.Changes)).
		Msg("edit request submitted")
	return out, nil
}

// ListPending returns every pending request in submission order.
func (s *Service) ListPending(ctx context.Context, actor domain.Actor) ([]domain.EditRequest, error) {
	if !actor.CanResolve() {
		return nil, apperr.Forbidden("only the secretary or deputy secretary may list edit requests")
	}
	return s.requests.List(ctx)
}

// FindByMember returns the member's oldest pending request, if any.
func (s *Service) FindByMember(ctx context.Context, memberID domain.MemberID) (domain.EditRequest, bool, error) {
	rs, err := s.requests.ListByMember(ctx, memberID)
	if err != nil {
		return domain.EditRequest{}, false, err
	}
	if len(rs) == 0 {
		return domain.EditRequest{}, false, nil
	}
	return rs[0], true, nil
}

// PendingFor is FindByMember on behalf of a caller. Members may look at their own queue
// only; the secretary and deputy secretary may look at anyone's.
func (s *Service) PendingFor(ctx context.Context, actor domain.Actor, memberID domain.MemberID) (domain.EditRequest, bool, error) {
	if actor.MemberID != memberID && !actor.CanResolve() {
		return domain.EditRequest{}, false, apperr.Forbidden("members may only view their own pending edit request")
	}
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return domain.EditRequest{}, false, mapRepoErr(err)
	}
	return s.FindByMember(ctx, memberID)
}

// Review pairs a pending request with the current record and a per-field diff.
// It reads only.
func (s *Service) Review(ctx context.Context, actor domain.Actor, id domain.EditRequestID) (Review, error) {
	if !actor.CanResolve() {
		return Review{}, apperr.Forbidden("only the secretary or deputy secretary may review edit requests")
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return Review{}, mapRepoErr(err)
	}
	m, err := s.members.GetByID(ctx, req.MemberID)
	if err != nil {
		return Review{}, mapRepoErr(err)
	}
	return Review{Request: req, Member: m, Diffs: domain.DiffMember(m, req.Changes)}, nil
}

// Approve merges the request into its member and removes it from the queue, atomically.
// Fields absent from the request are left untouched. When every proposed value already
// matches the record, the request is still removed but the record is not written and
// MemberMutated is false.
func (s *Service) Approve(ctx context.Context, actor domain.Actor, id domain.EditRequestID) (Resolution, error) {
	if !actor.CanResolve() {
		return Resolution{}, apperr.Forbidden("only the secretary or deputy secretary may approve edit requests")
	}

	var res Resolution
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx unitofwork.Tx) error {
		req, err := tx.EditRequests.GetByID(ctx, id)
		if err != nil {
			return err
		}
		m, err := tx.Members.GetByID(ctx, req.MemberID)
		if err != nil {
			return err
		}

		changed := domain.ChangedFields(domain.DiffMember(m, req.Changes))
		if len(changed) > 0 {
			req.Changes.ApplyTo(&m)
			m.UpdatedAt = s.clk.Now()
			if err := tx.Members.Update(ctx, m); err != nil {
				return err
			}
			m.Version++
		}

		deleted, err := tx.EditRequests.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return editrequestrepo.ErrNotFound
		}

		applied := make([]domain.MemberField, 0, len(changed))
		for _, d := range changed {
			applied = append(applied, d.Field)
		}
		res = Resolution{
			RequestID:     id,
			MemberID:      m.ID,
			Outcome:       domain.ResolutionMerged,
			MemberMutated: len(applied) > 0,
			Member:        &m,
			Applied:       applied,
		}
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("request_id", string(id)).Msg("edit request approve failed")
		return Resolution{}, mapRepoErr(err)
	}

	s.log.Info().
		Str("request_id", string(id)).
		Str("member_id", string(res.MemberID)).
		Str("resolved_by", string(actor.MemberID)).
		Int("applied", len(res.Applied)).
		Msg("edit request merged")
	return res, nil
}

// Reject discards the request without touching the roster. Rejecting a request that is
// no longer pending succeeds with AlreadyResolved set.
func (s *Service) Reject(ctx context.Context, actor domain.Actor, id domain.EditRequestID) (Resolution, error) {
	if !actor.CanResolve() {
		return Resolution{}, apperr.Forbidden("only the secretary or deputy secretary may reject edit requests")
	}

	res := Resolution{RequestID: id, Outcome: domain.ResolutionDiscarded}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx unitofwork.Tx) error {
		req, err := tx.EditRequests.GetByID(ctx, id)
		switch {
		case errors.Is(err, editrequestrepo.ErrNotFound):
			res.AlreadyResolved = true
			return nil
		case err != nil:
			return err
		}
		res.MemberID = req.MemberID

		deleted, err := tx.EditRequests.Delete(ctx, id)
		if err != nil {
			return err
		}
		res.AlreadyResolved = !deleted
		return nil
	})
	if err != nil {
		return Resolution{}, err
	}

	s.log.Info().
		Str("request_id", string(id)).
		Str("member_id", string(res.MemberID)).
		Str("resolved_by", string(actor.MemberID)).
		Bool("already_resolved", res.AlreadyResolved).
		Msg("edit request discarded")
	return res, nil
}

func memberNotFound() *apperr.Error {
	return apperr.NotFound(apperr.CodeMemberNotFound, "member referenced by the edit request no longer exists")
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, editrequestrepo.ErrNotFound):
		return apperr.NotFound(apperr.CodeEditRequestNotFound, "edit request not found")
	case errors.Is(err, memberrepo.ErrNotFound):
		return memberNotFound()
	case errors.Is(err, memberrepo.ErrVersionConflict):
		return apperr.Conflict(apperr.CodeVersionConflict, "member was modified concurrently; retry")
	default:
		return err
	}
}
