package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	memeditrequestrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/editrequestrepo"
	memfeerepo "github.com/chibo-dx/roster-api/internal/adapters/memory/feerepo"
	memmeetingrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/meetingrepo"
	memmemberrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/memberrepo"
	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/editrequestrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/feerepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/meetingrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/memberrepo"
	"github.com/chibo-dx/roster-api/internal/ports/out/unitofwork"
)

// Store serves reads from the in-memory repositories and rewrites the snapshot file
// after every committed write. It implements unitofwork.Runner; fee and meeting writes
// go through the repositories returned by Fees and Meetings.
//
// Writes are serialized. A failed file write rolls the in-memory state back.
type Store struct {
	mu   sync.Mutex
	path string

	members  *memmemberrepo.Repo
	requests *memeditrequestrepo.Repo
	fees     *memfeerepo.Repo
	meetings *memmeetingrepo.Repo
}

// Open loads path into memory. A missing file starts an empty store; the file is
// created on the first write.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("snapshot: empty path")
	}
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &Store{
		path:     path,
		members:  memmemberrepo.NewRepo(),
		requests: memeditrequestrepo.NewRepo(),
		fees:     memfeerepo.NewRepo(),
		meetings: memmeetingrepo.NewRepo(),
	}
	if err := s.load(doc); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Members and EditRequests persist every write on their own. Writes that must commit
// together go through WithinTx instead.
func (s *Store) Members() memberrepo.Repository           { return &memberRepo{s: s} }
func (s *Store) EditRequests() editrequestrepo.Repository { return &editRequestRepo{s: s} }
func (s *Store) Fees() feerepo.Repository                 { return &feeRepo{s: s} }
func (s *Store) Meetings() meetingrepo.Repository         { return &meetingRepo{s: s} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx unitofwork.Tx) error) error {
	return s.write(func() error {
		return fn(ctx, unitofwork.Tx{Members: s.members, EditRequests: s.requests})
	})
}

// Flush rewrites the file from the current state.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WriteFile(s.path, s.capture().document())
}

// write runs fn under the store lock and persists the result. When fn or the file
// write fails, every collection is restored to its state before fn.
func (s *Store) write(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.capture()
	if err := fn(); err != nil {
		s.restore(before)
		return err
	}
	if err := WriteFile(s.path, s.capture().document()); err != nil {
		s.restore(before)
		return err
	}
	return nil
}

type state struct {
	members  []domain.Member
	requests []domain.EditRequest
	fees     []domain.Fee
	meetings []domain.Meeting
}

func (s *Store) capture() state {
	return state{
		members:  s.members.Snapshot(),
		requests: s.requests.Snapshot(),
		fees:     s.fees.Snapshot(),
		meetings: s.meetings.Snapshot(),
	}
}

func (s *Store) restore(st state) {
	s.members.Restore(st.members)
	s.requests.Restore(st.requests)
	s.fees.Restore(st.fees)
	s.meetings.Restore(st.meetings)
}

func (st state) document() Document {
	doc := Document{
		Format:       FormatVersion,
		Members:      make([]MemberRecord, 0, len(st.members)),
		EditRequests: make([]EditRequestRecord, 0, len(st.requests)),
		Fees:         make([]FeeRecord, 0, len(st.fees)),
		Meetings:     make([]MeetingRecord, 0, len(st.meetings)),
	}
	for _, m := range st.members {
		doc.Members = append(doc.Members, memberRecord(m))
	}
	for _, r := range st.requests {
		doc.EditRequests = append(doc.EditRequests, editRequestRecord(r))
	}
	for _, f := range st.fees {
		doc.Fees = append(doc.Fees, feeRecord(f))
	}
	for _, m := range st.meetings {
		doc.Meetings = append(doc.Meetings, meetingRecord(m))
	}
	return doc
}

func (s *Store) load(doc Document) error {
	var st state
	for _, rec := range doc.Members {
		m, err := rec.member()
		if err != nil {
			return err
		}
		st.members = append(st.members, m)
	}
	for _, rec := range doc.EditRequests {
		r, err := rec.editRequest()
		if err != nil {
			return err
		}
		st.requests = append(st.requests, r)
	}
	for _, rec := range doc.Fees {
		st.fees = append(st.fees, rec.fee())
	}
	for _, rec := range doc.Meetings {
		st.meetings = append(st.meetings, rec.meeting())
	}
	s.restore(st)
	return nil
}

type feeRepo struct{ s *Store }

func (r *feeRepo) Create(ctx context.Context, f domain.Fee) error {
	return r.s.write(func() error { return r.s.fees.Create(ctx, f) })
}

func (r *feeRepo) Save(ctx context.Context, f domain.Fee) error {
	return r.s.write(func() error { return r.s.fees.Save(ctx, f) })
}

func (r *feeRepo) GetByID(ctx context.Context, id domain.FeeID) (domain.Fee, error) {
	return r.s.fees.GetByID(ctx, id)
}

func (r *feeRepo) List(ctx context.Context, filter feerepo.Filter) ([]domain.Fee, error) {
	return r.s.fees.List(ctx, filter)
}

type meetingRepo struct{ s *Store }

func (r *meetingRepo) Create(ctx context.Context, m domain.Meeting) error {
	return r.s.write(func() error { return r.s.meetings.Create(ctx, m) })
}

func (r *meetingRepo) Save(ctx context.Context, m domain.Meeting) error {
	return r.s.write(func() error { return r.s.meetings.Save(ctx, m) })
}

func (r *meetingRepo) Delete(ctx context.Context, id domain.MeetingID) error {
	return r.s.write(func() error { return r.s.meetings.Delete(ctx, id) })
}

func (r *meetingRepo) GetByID(ctx context.Context, id domain.MeetingID) (domain.Meeting, error) {
	return r.s.meetings.GetByID(ctx, id)
}

func (r *meetingRepo) List(ctx context.Context) ([]domain.Meeting, error) {
	return r.s.meetings.List(ctx)
}

type memberRepo struct{ s *Store }

func (r *memberRepo) Create(ctx context.Context, m domain.Member) error {
	return r.s.write(func() error { return r.s.members.Create(ctx, m) })
}

func (r *memberRepo) Update(ctx context.Context, m domain.Member) error {
	return r.s.write(func() error { return r.s.members.Update(ctx, m) })
}

func (r *memberRepo) GetByID(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	return r.s.members.GetByID(ctx, id)
}

func (r *memberRepo) GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.Member, error) {
	return r.s.members.GetBySubject(ctx, subject)
}

func (r *memberRepo) List(ctx context.Context, includeTransferred bool) ([]domain.Member, error) {
	return r.s.members.List(ctx, includeTransferred)
}

func (r *memberRepo) SearchByName(ctx context.Context, query string, limit int) ([]domain.Member, error) {
	return r.s.members.SearchByName(ctx, query, limit)
}

type editRequestRepo struct{ s *Store }

func (r *editRequestRepo) Create(ctx context.Context, req domain.EditRequest) error {
	return r.s.write(func() error { return r.s.requests.Create(ctx, req) })
}

func (r *editRequestRepo) Delete(ctx context.Context, id domain.EditRequestID) (bool, error) {
	var deleted bool
	err := r.s.write(func() error {
		var err error
		deleted, err = r.s.requests.Delete(ctx, id)
		return err
	})
	return deleted, err
}

func (r *editRequestRepo) GetByID(ctx context.Context, id domain.EditRequestID) (domain.EditRequest, error) {
	return r.s.requests.GetByID(ctx, id)
}

func (r *editRequestRepo) List(ctx context.Context) ([]domain.EditRequest, error) {
	return r.s.requests.List(ctx)
}

func (r *editRequestRepo) ListByMember(ctx context.Context, memberID domain.MemberID) ([]domain.EditRequest, error) {
	return r.s.requests.ListByMember(ctx, memberID)
}
