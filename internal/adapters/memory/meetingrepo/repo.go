package meetingrepo

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/meetingrepo"
)

// Repo is an in-memory implementation of meetingrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.MeetingID]domain.Meeting
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.MeetingID]domain.Meeting)}
}

func (r *Repo) Create(ctx context.Context, m domain.Meeting) error {
	_ = ctx
	if m.ID == "" {
		return errors.New("empty meeting id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[m.ID]; ok {
		return meetingrepo.ErrAlreadyExists
	}
	r.byID[m.ID] = m
	return nil
}

func (r *Repo) Save(ctx context.Context, m domain.Meeting) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[m.ID]; !ok {
		return meetingrepo.ErrNotFound
	}
	r.byID[m.ID] = m
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.MeetingID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return meetingrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MeetingID) (domain.Meeting, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return domain.Meeting{}, meetingrepo.ErrNotFound
	}
	return m, nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Meeting, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Meeting, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m)
	}
	SortNewestFirst(out)
	return out, nil
}

// Snapshot returns every stored meeting in list order.
func (r *Repo) Snapshot() []domain.Meeting {
	out, _ := r.List(context.Background())
	return out
}

// Restore replaces the whole state with ms.
func (r *Repo) Restore(ms []domain.Meeting) {
	byID := make(map[domain.MeetingID]domain.Meeting, len(ms))
	for _, m := range ms {
		byID[m.ID] = m
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = byID
}

// SortNewestFirst orders meetings by date descending, then creation time descending, then ID.
func SortNewestFirst(ms []domain.Meeting) {
	sort.Slice(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
