package memberrepo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/memberrepo"
)

// Repo is an in-memory implementation of memberrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID    map[domain.MemberID]domain.Member
	idBySub map[domain.SubjectID]domain.MemberID
}

func NewRepo() *Repo {
	return &Repo{
		byID:    make(map[domain.MemberID]domain.Member),
		idBySub: make(map[domain.SubjectID]domain.MemberID),
	}
}

func (r *Repo) Create(ctx context.Context, m domain.Member) error {
	_ = ctx
	if m.ID == "" {
		return errors.New("empty member id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[m.ID]; ok {
		return memberrepo.ErrAlreadyExists
	}
	if m.Subject != nil {
		if _, ok := r.idBySub[*m.Subject]; ok {
			return memberrepo.ErrSubjectAlreadyBound
		}
	}

	stored := m.Clone()
	stored.Version = 1
	r.byID[m.ID] = stored
	if m.Subject != nil {
		r.idBySub[*m.Subject] = m.ID
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, m domain.Member) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[m.ID]
	if !ok {
		return memberrepo.ErrNotFound
	}
	if existing.Version != m.Version {
		return memberrepo.ErrVersionConflict
	}
	if m.Subject != nil {
		if boundID, ok := r.idBySub[*m.Subject]; ok && boundID != m.ID {
			return memberrepo.ErrSubjectAlreadyBound
		}
	}

	if existing.Subject != nil {
		delete(r.idBySub, *existing.Subject)
	}
	stored := m.Clone()
	stored.Version = m.Version + 1
	r.byID[m.ID] = stored
	if m.Subject != nil {
		r.idBySub[*m.Subject] = m.ID
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return domain.Member{}, memberrepo.ErrNotFound
	}
	return m.Clone(), nil
}

func (r *Repo) GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idBySub[subject]
	if !ok {
		return domain.Member{}, memberrepo.ErrNotFound
	}
	m, ok := r.byID[id]
	if !ok {
		return domain.Member{}, memberrepo.ErrNotFound
	}
	return m.Clone(), nil
}

func (r *Repo) List(ctx context.Context, includeTransferred bool) ([]domain.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Member, 0, len(r.byID))
	for _, m := range r.byID {
		if !includeTransferred && !m.IsActive() {
			continue
		}
		out = append(out, m.Clone())
	}
	SortByFullName(out)
	return out, nil
}

func (r *Repo) SearchByName(ctx context.Context, query string, limit int) ([]domain.Member, error) {
	_ = ctx

	raw := strings.TrimSpace(query)
	qTokens := tokenize(raw)
	if len(qTokens) == 0 {
		return []domain.Member{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Member, 0)
	for _, m := range r.byID {
		if !m.IsActive() {
			continue
		}
		if matchesAllTokens(m.FullName, qTokens) || (m.PartyCardNumber != nil && strings.Contains(*m.PartyCardNumber, raw)) {
			out = append(out, m.Clone())
		}
	}
	SortByFullName(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Snapshot returns a copy of every stored record ordered by ID.
func (r *Repo) Snapshot() []domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Member, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Restore replaces the whole state with ms, keeping their versions as given.
func (r *Repo) Restore(ms []domain.Member) {
	byID := make(map[domain.MemberID]domain.Member, len(ms))
	idBySub := make(map[domain.SubjectID]domain.MemberID, len(ms))
	for _, m := range ms {
		byID[m.ID] = m.Clone()
		if m.Subject != nil {
			idBySub[*m.Subject] = m.ID
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = byID
	r.idBySub = idBySub
}

// SortByFullName orders members case-insensitively by full name; ties break by ID.
func SortByFullName(ms []domain.Member) {
	sort.Slice(ms, func(i, j int) bool {
		di := strings.ToLower(ms[i].FullName)
		dj := strings.ToLower(ms[j].FullName)
		if di == dj {
			return string(ms[i].ID) < string(ms[j].ID)
		}
		return di < dj
	})
}

func tokenize(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

func matchesAllTokens(fullName string, tokens []string) bool {
	hay := strings.ToLower(fullName)
	for _, t := range tokens {
		if !strings.Contains(hay, t) {
			return false
		}
	}
	return true
}
