package editrequestrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	postgres "github.com/chibo-dx/roster-api/internal/adapters/postgres"
	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/editrequestrepo"
)

// Repo is a Postgres implementation of editrequestrepo.Repository.
// Queue order is the insertion sequence; changes are stored as a jsonb object.
type Repo struct {
	q postgres.Querier
}

func NewRepo(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

func (r *Repo) Create(ctx context.Context, req domain.EditRequest) error {
	if r.q == nil {
		return errors.New("nil postgres querier")
	}
	if req.ID == "" {
		return errors.New("empty edit request id")
	}
	changes, err := json.Marshal(req.Changes.Raw())
	if err != nil {
		return fmt.Errorf("encode changes: %w", err)
	}
	query, args, err := postgres.SQL.Insert("edit_requests").
		Columns("id", "member_id", "member_name", "submitted_by", "submitted_at", "changes").
		Values(string(req.ID), string(req.MemberID), req.MemberName, string(req.SubmittedBy), req.SubmittedAt.UTC(), string(changes)).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err, "edit_requests_id_unique") {
			return editrequestrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.EditRequestID) (domain.EditRequest, error) {
	if r.q == nil {
		return domain.EditRequest{}, errors.New("nil postgres querier")
	}
	query, args, err := selectRequests().Where(sq.Eq{"id": string(id)}).ToSql()
	if err != nil {
		return domain.EditRequest{}, err
	}
	return scanRequest(r.q.QueryRow(ctx, query, args...))
}

func (r *Repo) List(ctx context.Context) ([]domain.EditRequest, error) {
	return r.list(ctx, selectRequests())
}

func (r *Repo) ListByMember(ctx context.Context, memberID domain.MemberID) ([]domain.EditRequest, error) {
	return r.list(ctx, selectRequests().Where(sq.Eq{"member_id": string(memberID)}))
}

func (r *Repo) Delete(ctx context.Context, id domain.EditRequestID) (bool, error) {
	if r.q == nil {
		return false, errors.New("nil postgres querier")
	}
	query, args, err := postgres.SQL.Delete("edit_requests").Where(sq.Eq{"id": string(id)}).ToSql()
	if err != nil {
		return false, err
	}
	ct, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func selectRequests() sq.SelectBuilder {
	return postgres.SQL.
		Select("id", "member_id", "member_name", "submitted_by", "submitted_at", "changes").
		From("edit_requests")
}

func (r *Repo) list(ctx context.Context, b sq.SelectBuilder) ([]domain.EditRequest, error) {
	if r.q == nil {
		return nil, errors.New("nil postgres querier")
	}
	query, args, err := b.OrderBy("seq ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.EditRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (domain.EditRequest, error) {
	var (
		id, memberID, memberName, submittedBy string
		submittedAt                           time.Time
		rawChanges                            []byte
	)
	if err := row.Scan(&id, &memberID, &memberName, &submittedBy, &submittedAt, &rawChanges); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EditRequest{}, editrequestrepo.ErrNotFound
		}
		return domain.EditRequest{}, err
	}
	var fields map[string]string
	if err := json.Unmarshal(rawChanges, &fields); err != nil {
		return domain.EditRequest{}, fmt.Errorf("decode changes of %s: %w", id, err)
	}
	changes := make(domain.Changes, len(fields))
	for k, v := range fields {
		changes[domain.MemberField(k)] = v
	}
	return domain.EditRequest{
		ID:          domain.EditRequestID(id),
		MemberID:    domain.MemberID(memberID),
		MemberName:  memberName,
		SubmittedBy: domain.SubjectID(submittedBy),
		SubmittedAt: submittedAt.UTC(),
		Changes:     changes,
	}, nil
}
