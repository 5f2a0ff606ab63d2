package feerepo

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	postgres "github.com/chibo-dx/roster-api/internal/adapters/postgres"
	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/feerepo"
)

// Repo is a Postgres implementation of feerepo.Repository.
type Repo struct {
	q postgres.Querier
}

func NewRepo(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

func (r *Repo) Create(ctx context.Context, f domain.Fee) error {
	if r.q == nil {
		return errors.New("nil postgres querier")
	}
	if f.ID == "" {
		return errors.New("empty fee id")
	}
	query, args, err := postgres.SQL.Insert("fees").
		Columns("id", "member_id", "member_name", "month", "year", "amount", "is_paid", "payment_date", "created_at", "updated_at").
		Values(string(f.ID), string(f.MemberID), f.MemberName, f.Month, f.Year, f.Amount, f.IsPaid, f.PaymentDate, f.CreatedAt.UTC(), f.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return feerepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Save(ctx context.Context, f domain.Fee) error {
	if r.q == nil {
		return errors.New("nil postgres querier")
	}
	query, args, err := postgres.SQL.Update("fees").
		SetMap(map[string]any{
			"member_name":  f.MemberName,
			"amount":       f.Amount,
			"is_paid":      f.IsPaid,
			"payment_date": f.PaymentDate,
			"updated_at":   f.UpdatedAt.UTC(),
		}).
		Where(sq.Eq{"id": string(f.ID)}).
		ToSql()
	if err != nil {
		return err
	}
	ct, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return feerepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.FeeID) (domain.Fee, error) {
	if r.q == nil {
		return domain.Fee{}, errors.New("nil postgres querier")
	}
	query, args, err := selectFees().Where(sq.Eq{"id": string(id)}).ToSql()
	if err != nil {
		return domain.Fee{}, err
	}
	return scanFee(r.q.QueryRow(ctx, query, args...))
}

func (r *Repo) List(ctx context.Context, filter feerepo.Filter) ([]domain.Fee, error) {
	if r.q == nil {
		return nil, errors.New("nil postgres querier")
	}
	b := selectFees()
	if filter.MemberID != "" {
		b = b.Where(sq.Eq{"member_id": string(filter.MemberID)})
	}
	if filter.Year != 0 {
		b = b.Where(sq.Eq{"year": filter.Year})
	}
	if filter.Month != 0 {
		b = b.Where(sq.Eq{"month": filter.Month})
	}
	query, args, err := b.OrderBy("year ASC", "month ASC", "lower(member_name) ASC", "id ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Fee, 0)
	for rows.Next() {
		f, err := scanFee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func selectFees() sq.SelectBuilder {
	return postgres.SQL.
		Select("id", "member_id", "member_name", "month", "year", "amount", "is_paid", "payment_date", "created_at", "updated_at").
		From("fees")
}

func scanFee(row pgx.Row) (domain.Fee, error) {
	var (
		f                    domain.Fee
		id, memberID         string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &memberID, &f.MemberName, &f.Month, &f.Year, &f.Amount, &f.IsPaid, &f.PaymentDate, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Fee{}, feerepo.ErrNotFound
		}
		return domain.Fee{}, err
	}
	f.ID = domain.FeeID(id)
	f.MemberID = domain.MemberID(memberID)
	f.CreatedAt = createdAt.UTC()
	f.UpdatedAt = updatedAt.UTC()
	return f, nil
}
