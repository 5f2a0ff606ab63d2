package idempotency

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	postgres "github.com/chibo-dx/roster-api/internal/adapters/postgres"
	"github.com/chibo-dx/roster-api/internal/ports/out/idempotency"
)

// Store keeps idempotency records in the idempotency_keys table.
// Records are also scoped by token issuer, so two deployments sharing a database stay apart.
type Store struct {
	q      postgres.Querier
	issuer string
}

func NewStore(q postgres.Querier, tokenIssuer string) *Store {
	return &Store{q: q, issuer: tokenIssuer}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	if s.q == nil {
		return idempotency.Record{}, false, errors.New("nil postgres querier")
	}
	query, args, err := postgres.SQL.
		Select("status_code", "content_type", "body", "created_at").
		From("idempotency_keys").
		Where(s.match(fp)).
		ToSql()
	if err != nil {
		return idempotency.Record{}, false, err
	}
	var rec idempotency.Record
	if err := s.q.QueryRow(ctx, query, args...).Scan(&rec.StatusCode, &rec.ContentType, &rec.Body, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return idempotency.Record{}, false, nil
		}
		return idempotency.Record{}, false, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.q == nil {
		return errors.New("nil postgres querier")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	body := rec.Body
	if body == nil {
		body = []byte{}
	}
	query, args, err := postgres.SQL.Insert("idempotency_keys").
		Columns("idempotency_key", "subject_iss", "subject_sub", "method", "route", "body_hash",
			"status_code", "content_type", "body", "created_at").
		Values(string(fp.Key), s.issuer, string(fp.Subject), fp.Method, fp.Route, fp.BodyHash,
			rec.StatusCode, rec.ContentType, body, createdAt.UTC()).
		Suffix(`ON CONFLICT (idempotency_key, subject_iss, subject_sub, method, route, body_hash)
			DO UPDATE SET
				status_code = EXCLUDED.status_code,
				content_type = EXCLUDED.content_type,
				body = EXCLUDED.body,
				created_at = EXCLUDED.created_at`).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.q.Exec(ctx, query, args...)
	return err
}

func (s *Store) Purge(ctx context.Context, before time.Time) (int, error) {
	if s.q == nil {
		return 0, errors.New("nil postgres querier")
	}
	query, args, err := postgres.SQL.Delete("idempotency_keys").
		Where(sq.Lt{"created_at": before.UTC()}).
		ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) match(fp idempotency.Fingerprint) sq.Eq {
	return sq.Eq{
		"idempotency_key": string(fp.Key),
		"subject_iss":     s.issuer,
		"subject_sub":     string(fp.Subject),
		"method":          fp.Method,
		"route":           fp.Route,
		"body_hash":       fp.BodyHash,
	}
}
