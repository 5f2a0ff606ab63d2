package feerepo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/feerepo"
)

// Repo is an in-memory implementation of feerepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.FeeID]domain.Fee
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.FeeID]domain.Fee)}
}

func (r *Repo) Create(ctx context.Context, f domain.Fee) error {
	_ = ctx
	if f.ID == "" {
		return errors.New("empty fee id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[f.ID]; ok {
		return feerepo.ErrAlreadyExists
	}
	for _, existing := range r.byID {
		if existing.MemberID == f.MemberID && existing.Year == f.Year && existing.Month == f.Month {
			return feerepo.ErrAlreadyExists
		}
	}
	r.byID[f.ID] = f.Clone()
	return nil
}

func (r *Repo) Save(ctx context.Context, f domain.Fee) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[f.ID]; !ok {
		return feerepo.ErrNotFound
	}
	r.byID[f.ID] = f.Clone()
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.FeeID) (domain.Fee, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byID[id]
	if !ok {
		return domain.Fee{}, feerepo.ErrNotFound
	}
	return f.Clone(), nil
}

func (r *Repo) List(ctx context.Context, filter feerepo.Filter) ([]domain.Fee, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Fee, 0, len(r.byID))
	for _, f := range r.byID {
		if filter.MemberID != "" && f.MemberID != filter.MemberID {
			continue
		}
		if filter.Year != 0 && f.Year != filter.Year {
			continue
		}
		if filter.Month != 0 && f.Month != filter.Month {
			continue
		}
		out = append(out, f.Clone())
	}
	SortFees(out)
	return out, nil
}

// Snapshot returns every stored entry in list order.
func (r *Repo) Snapshot() []domain.Fee {
	out, _ := r.List(context.Background(), feerepo.Filter{})
	return out
}

// Restore replaces the whole state with fees.
func (r *Repo) Restore(fees []domain.Fee) {
	byID := make(map[domain.FeeID]domain.Fee, len(fees))
	for _, f := range fees {
		byID[f.ID] = f.Clone()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = byID
}

// SortFees orders entries by year, month, member name (case-insensitive), then ID.
func SortFees(fs []domain.Fee) {
	sort.Slice(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		an, bn := strings.ToLower(a.MemberName), strings.ToLower(b.MemberName)
		if an != bn {
			return an < bn
		}
		return a.ID < b.ID
	})
}
