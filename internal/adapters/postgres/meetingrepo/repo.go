package meetingrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	postgres "github.com/chibo-dx/roster-api/internal/adapters/postgres"
	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/meetingrepo"
)

// Repo is a Postgres implementation of meetingrepo.Repository.
type Repo struct {
	q postgres.Querier
}

func NewRepo(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

func (r *Repo) Create(ctx context.Context, m domain.Meeting) error {
	if r.q == nil {
		return errors.New("nil postgres querier")
	}
	if m.ID == "" {
		return errors.New("empty meeting id")
	}
	date, err := domain.ParseDate(m.Date)
	if err != nil {
		return err
	}
	query, args, err := postgres.SQL.Insert("meetings").
		Columns("id", "title", "date", "type", "content", "resolution", "attendees_count", "total_members", "created_at", "updated_at").
		Values(string(m.ID), m.Title, date, string(m.Type), m.Content, m.Resolution, m.AttendeesCount, m.TotalMembers, m.CreatedAt.UTC(), m.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err, "meetings_pkey") {
			return meetingrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Save(ctx context.Context, m domain.Meeting) error {
	if r.q == nil {
		return errors.New("nil postgres querier")
	}
	date, err := domain.ParseDate(m.Date)
	if err != nil {
		return err
	}
	query, args, err := postgres.SQL.Update("meetings").
		SetMap(map[string]any{
			"title":           m.Title,
			"date":            date,
			"type":            string(m.Type),
			"content":         m.Content,
			"resolution":      m.Resolution,
			"attendees_count": m.AttendeesCount,
			"total_members":   m.TotalMembers,
			"updated_at":      m.UpdatedAt.UTC(),
		}).
		Where(sq.Eq{"id": string(m.ID)}).
		ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, query, args)
}

func (r *Repo) Delete(ctx context.Context, id domain.MeetingID) error {
	if r.q == nil {
		return errors.New("nil postgres querier")
	}
	query, args, err := postgres.SQL.Delete("meetings").Where(sq.Eq{"id": string(id)}).ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, query, args)
}

func (r *Repo) GetByID(ctx context.Context, id domain.MeetingID) (domain.Meeting, error) {
	if r.q == nil {
		return domain.Meeting{}, errors.New("nil postgres querier")
	}
	query, args, err := selectMeetings().Where(sq.Eq{"id": string(id)}).ToSql()
	if err != nil {
		return domain.Meeting{}, err
	}
	return scanMeeting(r.q.QueryRow(ctx, query, args...))
}

func (r *Repo) List(ctx context.Context) ([]domain.Meeting, error) {
	if r.q == nil {
		return nil, errors.New("nil postgres querier")
	}
	query, args, err := selectMeetings().OrderBy("date DESC", "created_at DESC", "id ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Meeting, 0)
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) execOne(ctx context.Context, query string, args []any) error {
	ct, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("meetings: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return meetingrepo.ErrNotFound
	}
	return nil
}

func selectMeetings() sq.SelectBuilder {
	return postgres.SQL.
		Select("id", "title", "date", "type", "content", "resolution", "attendees_count", "total_members", "created_at", "updated_at").
		From("meetings")
}

func scanMeeting(row pgx.Row) (domain.Meeting, error) {
	var (
		m                          domain.Meeting
		id, typ                    string
		date, createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &m.Title, &date, &typ, &m.Content, &m.Resolution, &m.AttendeesCount, &m.TotalMembers, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Meeting{}, meetingrepo.ErrNotFound
		}
		return domain.Meeting{}, err
	}
	m.ID = domain.MeetingID(id)
	m.Type = domain.MeetingType(typ)
	m.Date = domain.FormatDate(date)
	m.CreatedAt = createdAt.UTC()
	m.UpdatedAt = updatedAt.UTC()
	return m, nil
}
