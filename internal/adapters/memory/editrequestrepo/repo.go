package editrequestrepo

import (
	"context"
	"errors"
	"sync"

	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/editrequestrepo"
)

// Repo is an in-memory implementation of editrequestrepo.Repository.
// Requests are kept in insertion order. It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	queue []domain.EditRequest
}

func NewRepo() *Repo {
	return &Repo{}
}

func (r *Repo) Create(ctx context.Context, req domain.EditRequest) error {
	_ = ctx
	if req.ID == "" {
		return errors.New("empty edit request id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(req.ID) >= 0 {
		return editrequestrepo.ErrAlreadyExists
	}
	r.queue = append(r.queue, req.Clone())
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.EditRequestID) (domain.EditRequest, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(id)
	if i < 0 {
		return domain.EditRequest{}, editrequestrepo.ErrNotFound
	}
	return r.queue[i].Clone(), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.EditRequest, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.EditRequest, 0, len(r.queue))
	for _, req := range r.queue {
		out = append(out, req.Clone())
	}
	return out, nil
}

func (r *Repo) ListByMember(ctx context.Context, memberID domain.MemberID) ([]domain.EditRequest, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.EditRequest, 0)
	for _, req := range r.queue {
		if req.MemberID == memberID {
			out = append(out, req.Clone())
		}
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.EditRequestID) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return false, nil
	}
	r.queue = append(r.queue[:i:i], r.queue[i+1:]...)
	return true, nil
}

// Snapshot returns a copy of the queue in insertion order.
func (r *Repo) Snapshot() []domain.EditRequest {
	out, _ := r.List(context.Background())
	return out
}

// Restore replaces the queue with reqs, keeping their order.
func (r *Repo) Restore(reqs []domain.EditRequest) {
	q := make([]domain.EditRequest, 0, len(reqs))
	for _, req := range reqs {
		q = append(q, req.Clone())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = q
}

func (r *Repo) indexOf(id domain.EditRequestID) int {
	for i, req := range r.queue {
		if req.ID == id {
			return i
		}
	}
	return -1
}
