package memberrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	postgres "github.com/chibo-dx/roster-api/internal/adapters/postgres"
	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/memberrepo"
)

const subjectConstraint = "members_subject_unique"

// Repo is a Postgres implementation of memberrepo.Repository.
//
// Every member field has its own column, named after the JSON field in snake case.
// Unset optional fields are stored as NULL.
type Repo struct {
	q postgres.Querier
}

func NewRepo(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

func (r *Repo) Create(ctx context.Context, m domain.Member) error {
	if r.q == nil {
		return errors.New("nil postgres querier")
	}
	if m.ID == "" {
		return errors.New("empty member id")
	}

	cols := []string{"id", "subject"}
	vals := []any{string(m.ID), subjectArg(m.Subject)}
	for _, f := range domain.MemberFields() {
		cols = append(cols, Column(f))
		vals = append(vals, postgres.Nullable(m.Get(f)))
	}
	cols = append(cols, "version", "created_at", "updated_at")
	vals = append(vals, int64(1), m.CreatedAt.UTC(), m.UpdatedAt.UTC())

	query, args, err := postgres.SQL.Insert("members").Columns(cols...).Values(vals...).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, m domain.Member) error {
	if r.q == nil {
		return errors.New("nil postgres querier")
	}
	set := map[string]any{
		"subject":    subjectArg(m.Subject),
		"version":    sq.Expr("version + 1"),
		"updated_at": m.UpdatedAt.UTC(),
	}
	for _, f := range domain.MemberFields() {
		set[Column(f)] = postgres.Nullable(m.Get(f))
	}
	query, args, err := postgres.SQL.Update("members").
		SetMap(set).
		Where(sq.Eq{"id": string(m.ID), "version": m.Version}).
		ToSql()
	if err != nil {
		return err
	}
	ct, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteErr(err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE id = $1)`, string(m.ID)).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return memberrepo.ErrNotFound
	}
	return memberrepo.ErrVersionConflict
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	return r.getOne(ctx, sq.Eq{"id": string(id)})
}

func (r *Repo) GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.Member, error) {
	return r.getOne(ctx, sq.Eq{"subject": string(subject)})
}

func (r *Repo) List(ctx context.Context, includeTransferred bool) ([]domain.Member, error) {
	b := selectMembers()
	if !includeTransferred {
		b = b.Where(sq.NotEq{"status": string(domain.MemberStatusTransferred)})
	}
	return r.query(ctx, b.OrderBy("lower(full_name) ASC", "id ASC"), 0)
}

func (r *Repo) SearchByName(ctx context.Context, query string, limit int) ([]domain.Member, error) {
	raw := strings.TrimSpace(query)
	tokens := strings.Fields(strings.ToLower(raw))
	if len(tokens) == 0 {
		return []domain.Member{}, nil
	}

	nameMatch := sq.And{}
	for _, tok := range tokens {
		// Match all tokens (AND) in a case-insensitive way.
		nameMatch = append(nameMatch, sq.ILike{"full_name": "%" + escapeLike(tok) + "%"})
	}
	b := selectMembers().
		Where(sq.NotEq{"status": string(domain.MemberStatusTransferred)}).
		Where(sq.Or{nameMatch, sq.Like{"party_card_number": "%" + escapeLike(raw) + "%"}}).
		OrderBy("lower(full_name) ASC", "id ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return r.query(ctx, b, limit)
}

// Column returns the column storing f.
func Column(f domain.MemberField) string {
	var sb strings.Builder
	for i, c := range string(f) {
		if unicode.IsUpper(c) {
			if i > 0 {
				sb.WriteByte('_')
			}
			c = unicode.ToLower(c)
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// --- helpers ---

func selectMembers() sq.SelectBuilder {
	cols := []string{"id", "subject"}
	for _, f := range domain.MemberFields() {
		cols = append(cols, Column(f))
	}
	cols = append(cols, "version", "created_at", "updated_at")
	return postgres.SQL.Select(cols...).From("members")
}

func (r *Repo) getOne(ctx context.Context, where sq.Eq) (domain.Member, error) {
	if r.q == nil {
		return domain.Member{}, errors.New("nil postgres querier")
	}
	query, args, err := selectMembers().Where(where).ToSql()
	if err != nil {
		return domain.Member{}, err
	}
	return scanMember(r.q.QueryRow(ctx, query, args...))
}

func (r *Repo) query(ctx context.Context, b sq.SelectBuilder, limit int) ([]domain.Member, error) {
	if r.q == nil {
		return nil, errors.New("nil postgres querier")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Collation may differ from Go's ordering; keep the documented order.
	sortByFullName(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func scanMember(row pgx.Row) (domain.Member, error) {
	fields := domain.MemberFields()
	var (
		id        string
		subject   *string
		values    = make([]*string, len(fields))
		version   int64
		createdAt time.Time
		updatedAt time.Time
	)
	dest := make([]any, 0, len(fields)+5)
	dest = append(dest, &id, &subject)
	for i := range values {
		dest = append(dest, &values[i])
	}
	dest = append(dest, &version, &createdAt, &updatedAt)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Member{}, memberrepo.ErrNotFound
		}
		return domain.Member{}, err
	}

	m := domain.Member{
		ID:        domain.MemberID(id),
		Version:   version,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}
	if subject != nil {
		s := domain.SubjectID(*subject)
		m.Subject = &s
	}
	for i, f := range fields {
		m.Set(f, postgres.Deref(values[i]))
	}
	return m, nil
}

func subjectArg(s *domain.SubjectID) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func mapWriteErr(err error) error {
	switch {
	case postgres.IsUniqueViolation(err, subjectConstraint):
		return memberrepo.ErrSubjectAlreadyBound
	case postgres.IsUniqueViolation(err, "members_pkey"):
		return memberrepo.ErrAlreadyExists
	default:
		return fmt.Errorf("members: %w", err)
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func sortByFullName(ms []domain.Member) {
	sort.SliceStable(ms, func(i, j int) bool {
		di := strings.ToLower(ms[i].FullName)
		dj := strings.ToLower(ms[j].FullName)
		if di == dj {
			return string(ms[i].ID) < string(ms[j].ID)
		}
		return di < dj
	})
}
