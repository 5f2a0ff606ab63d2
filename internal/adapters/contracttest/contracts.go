package contracttest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/chibo-dx/roster-api/internal/domain"
	editrequestrepoport "github.com/chibo-dx/roster-api/internal/ports/out/editrequestrepo"
	feerepoport "github.com/chibo-dx/roster-api/internal/ports/out/feerepo"
	idempotencyport "github.com/chibo-dx/roster-api/internal/ports/out/idempotency"
	meetingrepoport "github.com/chibo-dx/roster-api/internal/ports/out/meetingrepo"
	memberrepoport "github.com/chibo-dx/roster-api/internal/ports/out/memberrepo"
	unitofworkport "github.com/chibo-dx/roster-api/internal/ports/out/unitofwork"
)

type CleanupFunc = func()

// UnitOfWork bundles a runner with repositories that read committed state.
type UnitOfWork struct {
	Runner       unitofworkport.Runner
	Members      memberrepoport.Repository
	EditRequests editrequestrepoport.Repository
}

type MemberRepoFactory func(t *testing.T) (memberrepoport.Repository, CleanupFunc)
type EditRequestRepoFactory func(t *testing.T) (editrequestrepoport.Repository, CleanupFunc)
type FeeRepoFactory func(t *testing.T) (feerepoport.Repository, CleanupFunc)
type MeetingRepoFactory func(t *testing.T) (meetingrepoport.Repository, CleanupFunc)
type UnitOfWorkFactory func(t *testing.T) (UnitOfWork, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func register(t *testing.T, cleanup CleanupFunc) {
	t.Helper()
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
}

func ptr(s string) *string { return &s }

// uniqueToken returns a lowercase word that no other test run will use, so backends
// shared across runs still give exact search results.
func uniqueToken() string {
	return "z" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// NewMember returns a minimal valid member with a fresh ID.
func NewMember(fullName string, now time.Time) domain.Member {
	return domain.Member{
		ID:        domain.MemberID(uuid.NewString()),
		FullName:  fullName,
		PartyDate: "2020-05-19",
		Status:    domain.MemberStatusOfficial,
		Role:      domain.MemberRoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	register(t, cleanup)

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		Subject:  domain.SubjectID("sub-1"),
		Method:   "POST",
		Route:    "/members/me/edit-requests",
		BodyHash: "",
	}
	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}

	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get(missing) ok=%v err=%v, want ok=false", ok, err)
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// A response record lives under its own fingerprint.
	respFP := fp
	respFP.BodyHash = "hash-def"
	if _, ok, err := store.Get(ctx, respFP); err != nil || ok {
		t.Fatalf("Get(response fp) ok=%v err=%v, want ok=false", ok, err)
	}

	fresh := rec
	fresh.CreatedAt = time.Unix(500, 0).UTC()
	if err := store.Put(ctx, respFP, fresh); err != nil {
		t.Fatalf("Put response: %v", err)
	}
	n, err := store.Purge(ctx, time.Unix(200, 0).UTC())
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n < 1 {
		t.Fatalf("Purge removed %d records, want at least 1", n)
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get(purged) ok=%v err=%v, want ok=false", ok, err)
	}
	if _, ok, err := store.Get(ctx, respFP); err != nil || !ok {
		t.Fatalf("Get(after cutoff) ok=%v err=%v, want ok=true", ok, err)
	}
}

func RunMemberRepo(t *testing.T, newRepo MemberRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	register(t, cleanup)

	now := time.Unix(1000, 0).UTC()
	tok := uniqueToken()
	sub := domain.SubjectID("sub-" + uuid.NewString())

	a := NewMember("Alice "+tok+" Johnson", now)
	a.Subject = &sub
	a.Hometown = ptr("Hà Nội")
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Version != 1 {
		t.Fatalf("Version after Create=%d, want 1", got.Version)
	}
	if got.Hometown == nil || *got.Hometown != "Hà Nội" || got.BirthDate != nil {
		t.Fatalf("optional fields not round-tripped: %+v", got)
	}
	if _, err := repo.GetBySubject(ctx, sub); err != nil {
		t.Fatalf("GetBySubject: %v", err)
	}
	if _, err := repo.GetByID(ctx, domain.MemberID(uuid.NewString())); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}

	// Duplicate id and subject uniqueness.
	if err := repo.Create(ctx, a); !errors.Is(err, memberrepoport.ErrAlreadyExists) {
		t.Fatalf("Create(dup id) err=%v, want ErrAlreadyExists", err)
	}
	dupSub := NewMember("Alice 2", now)
	dupSub.Subject = &sub
	if err := repo.Create(ctx, dupSub); !errors.Is(err, memberrepoport.ErrSubjectAlreadyBound) {
		t.Fatalf("Create(dup subject) err=%v, want ErrSubjectAlreadyBound", err)
	}

	// Optimistic versioning.
	upd := got
	upd.Hometown = nil
	upd.Unit = ptr("Phòng Kỹ thuật")
	if err := repo.Update(ctx, upd); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := repo.Update(ctx, upd); !errors.Is(err, memberrepoport.ErrVersionConflict) {
		t.Fatalf("Update(stale) err=%v, want ErrVersionConflict", err)
	}
	got, err = repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if got.Version != 2 || got.Hometown != nil || got.Unit == nil || *got.Unit != "Phòng Kỹ thuật" {
		t.Fatalf("unexpected member after update: %+v", got)
	}
	missing := NewMember("Nobody", now)
	missing.Version = 1
	if err := repo.Update(ctx, missing); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("Update(missing) err=%v, want ErrNotFound", err)
	}

	// Search: AND across tokens, active only, limit.
	b := NewMember("bob "+tok, now)
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("Create b: %v", err)
	}
	gone := NewMember("Alice "+tok+" Transferred", now)
	gone.Status = domain.MemberStatusTransferred
	if err := repo.Create(ctx, gone); err != nil {
		t.Fatalf("Create transferred: %v", err)
	}
	res, err := repo.SearchByName(ctx, "ALI "+tok, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].ID != a.ID {
		t.Fatalf("unexpected search result: %#v", res)
	}
	res, err = repo.SearchByName(ctx, tok, 1)
	if err != nil {
		t.Fatalf("Search(limit): %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("Search(limit=1) len=%d, want 1", len(res))
	}

	// List filters transferred members unless asked.
	active, err := repo.List(ctx, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, m := range active {
		if m.ID == gone.ID {
			t.Fatalf("List(false) included transferred member")
		}
	}
	all, err := repo.List(ctx, true)
	if err != nil {
		t.Fatalf("List(true): %v", err)
	}
	found := false
	for _, m := range all {
		if m.ID == gone.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("List(true) missing transferred member")
	}
}

func RunEditRequestRepo(t *testing.T, newMembers MemberRepoFactory, newRepo EditRequestRepoFactory) {
	t.Helper()
	ctx := context.Background()

	members, mCleanup := newMembers(t)
	register(t, mCleanup)
	repo, cleanup := newRepo(t)
	register(t, cleanup)

	now := time.Unix(2000, 0).UTC()
	m := NewMember("Nguyễn Văn An", now)
	if err := members.Create(ctx, m); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	first := domain.EditRequest{
		ID:          domain.EditRequestID(uuid.NewString()),
		MemberID:    m.ID,
		MemberName:  m.FullName,
		SubmittedBy: domain.SubjectID("sub-an"),
		SubmittedAt: now,
		Changes:     domain.Changes{domain.FieldHometown: "Huế", domain.FieldBirthDate: ""},
	}
	second := first
	second.ID = domain.EditRequestID(uuid.NewString())
	second.SubmittedAt = now.Add(time.Minute)
	second.Changes = domain.Changes{domain.FieldUnit: "Phòng Hành chính"}

	for _, r := range []domain.EditRequest{first, second} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create %s: %v", r.ID, err)
		}
	}
	if err := repo.Create(ctx, first); !errors.Is(err, editrequestrepoport.ErrAlreadyExists) {
		t.Fatalf("Create(dup) err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if diff := cmp.Diff(first.Changes, got.Changes); diff != "" {
		t.Fatalf("Changes mismatch (-want +got):\n%s", diff)
	}
	if got.MemberID != m.ID || got.MemberName != m.FullName || got.SubmittedBy != first.SubmittedBy {
		t.Fatalf("unexpected request: %+v", got)
	}

	mine, err := repo.ListByMember(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListByMember: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != first.ID || mine[1].ID != second.ID {
		t.Fatalf("ListByMember order=%v", mine)
	}

	deleted, err := repo.Delete(ctx, first.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = repo.Delete(ctx, first.ID)
	if err != nil || deleted {
		t.Fatalf("Delete(again): deleted=%v err=%v, want false,nil", deleted, err)
	}
	if _, err := repo.GetByID(ctx, first.ID); !errors.Is(err, editrequestrepoport.ErrNotFound) {
		t.Fatalf("GetByID(deleted) err=%v, want ErrNotFound", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, r := range all {
		if r.ID == first.ID {
			t.Fatalf("List still contains deleted request")
		}
	}
}

func RunFeeRepo(t *testing.T, newRepo FeeRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	register(t, cleanup)

	now := time.Unix(3000, 0).UTC()
	year := 2100 + int(time.Now().UnixNano()%500)

	// One member per entry: a member has at most one entry per month.
	mk := func(month int, name string) domain.Fee {
		return domain.Fee{
			ID:         domain.FeeID(uuid.NewString()),
			MemberID:   domain.MemberID(uuid.NewString()),
			MemberName: name,
			Month:      month,
			Year:       year,
			Amount:     50000,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	feb := mk(2, "Bình")
	janB := mk(1, "bình")
	janA := mk(1, "An")
	for _, f := range []domain.Fee{feb, janB, janA} {
		if err := repo.Create(ctx, f); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.Create(ctx, feb); !errors.Is(err, feerepoport.ErrAlreadyExists) {
		t.Fatalf("Create(dup) err=%v, want ErrAlreadyExists", err)
	}

	sameMonth := janA
	sameMonth.ID = domain.FeeID(uuid.NewString())
	if err := repo.Create(ctx, sameMonth); !errors.Is(err, feerepoport.ErrAlreadyExists) {
		t.Fatalf("Create(same member and month) err=%v, want ErrAlreadyExists", err)
	}

	all, err := repo.List(ctx, feerepoport.Filter{Year: year})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	ours := map[domain.FeeID]bool{feb.ID: true, janA.ID: true, janB.ID: true}
	list := make([]domain.Fee, 0, 3)
	for _, f := range all {
		if ours[f.ID] {
			list = append(list, f)
		}
	}
	if len(list) != 3 || list[0].ID != janA.ID || list[1].ID != janB.ID || list[2].ID != feb.ID {
		t.Fatalf("unexpected order: %v", list)
	}
	only, err := repo.List(ctx, feerepoport.Filter{MemberID: feb.MemberID, Year: year, Month: 2})
	if err != nil || len(only) != 1 || only[0].ID != feb.ID {
		t.Fatalf("List(month=2)=%v err=%v", only, err)
	}

	paid := feb
	paid.IsPaid = true
	paid.PaymentDate = ptr("2024-02-10")
	if err := repo.Save(ctx, paid); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.GetByID(ctx, feb.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsPaid || got.PaymentDate == nil || *got.PaymentDate != "2024-02-10" {
		t.Fatalf("unexpected fee after save: %+v", got)
	}
	if err := repo.Save(ctx, mk(3, "X")); !errors.Is(err, feerepoport.ErrNotFound) {
		t.Fatalf("Save(missing) err=%v, want ErrNotFound", err)
	}
}

func RunMeetingRepo(t *testing.T, newRepo MeetingRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	register(t, cleanup)

	now := time.Unix(4000, 0).UTC()
	mk := func(date string, createdAt time.Time) domain.Meeting {
		return domain.Meeting{
			ID:             domain.MeetingID(uuid.NewString()),
			Title:          "Sinh hoạt chi bộ",
			Date:           date,
			Type:           domain.MeetingTypeRegular,
			AttendeesCount: 10,
			TotalMembers:   12,
			CreatedAt:      createdAt,
			UpdatedAt:      createdAt,
		}
	}
	older := mk("2999-01-05", now)
	newer := mk("2999-02-05", now)
	sameDayLater := mk("2999-02-05", now.Add(time.Hour))
	for _, m := range []domain.Meeting{older, newer, sameDayLater} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []domain.MeetingID
	for _, m := range list {
		if m.ID == older.ID || m.ID == newer.ID || m.ID == sameDayLater.ID {
			ids = append(ids, m.ID)
		}
	}
	want := []domain.MeetingID{sameDayLater.ID, newer.ID, older.ID}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	upd := older
	upd.Resolution = "Thông qua nghị quyết"
	if err := repo.Save(ctx, upd); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.GetByID(ctx, older.ID)
	if err != nil || got.Resolution != "Thông qua nghị quyết" {
		t.Fatalf("GetByID after save=%+v err=%v", got, err)
	}

	if err := repo.Delete(ctx, older.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, older.ID); !errors.Is(err, meetingrepoport.ErrNotFound) {
		t.Fatalf("Delete(again) err=%v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(ctx, older.ID); !errors.Is(err, meetingrepoport.ErrNotFound) {
		t.Fatalf("GetByID(deleted) err=%v, want ErrNotFound", err)
	}
}

// RunUnitOfWork checks that a failed unit of work leaves no trace and a successful one
// commits writes to both the roster and the queue.
func RunUnitOfWork(t *testing.T, newUoW UnitOfWorkFactory) {
	t.Helper()
	ctx := context.Background()

	uow, cleanup := newUoW(t)
	register(t, cleanup)

	now := time.Unix(5000, 0).UTC()
	m := NewMember("Trần Thị Bình", now)
	if err := uow.Runner.WithinTx(ctx, func(ctx context.Context, tx unitofworkport.Tx) error {
		return tx.Members.Create(ctx, m)
	}); err != nil {
		t.Fatalf("seed member: %v", err)
	}
	req := domain.EditRequest{
		ID:          domain.EditRequestID(uuid.NewString()),
		MemberID:    m.ID,
		MemberName:  m.FullName,
		SubmittedBy: "sub-binh",
		SubmittedAt: now,
		Changes:     domain.Changes{domain.FieldHometown: "Đà Nẵng"},
	}
	if err := uow.Runner.WithinTx(ctx, func(ctx context.Context, tx unitofworkport.Tx) error {
		return tx.EditRequests.Create(ctx, req)
	}); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	boom := errors.New("boom")
	err := uow.Runner.WithinTx(ctx, func(ctx context.Context, tx unitofworkport.Tx) error {
		cur, err := tx.Members.GetByID(ctx, m.ID)
		if err != nil {
			return err
		}
		req.Changes.ApplyTo(&cur)
		if err := tx.Members.Update(ctx, cur); err != nil {
			return err
		}
		if _, err := tx.EditRequests.Delete(ctx, req.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx err=%v, want %v", err, boom)
	}

	got, err := uow.Members.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Hometown != nil || got.Version != 1 {
		t.Fatalf("rolled back member was modified: %+v", got)
	}
	if _, err := uow.EditRequests.GetByID(ctx, req.ID); err != nil {
		t.Fatalf("rolled back request missing: %v", err)
	}

	if err := uow.Runner.WithinTx(ctx, func(ctx context.Context, tx unitofworkport.Tx) error {
		cur, err := tx.Members.GetByID(ctx, m.ID)
		if err != nil {
			return err
		}
		req.Changes.ApplyTo(&cur)
		if err := tx.Members.Update(ctx, cur); err != nil {
			return err
		}
		_, err = tx.EditRequests.Delete(ctx, req.ID)
		return err
	}); err != nil {
		t.Fatalf("WithinTx(commit): %v", err)
	}

	got, err = uow.Members.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID after commit: %v", err)
	}
	if got.Hometown == nil || *got.Hometown != "Đà Nẵng" || got.Version != 2 {
		t.Fatalf("committed member=%+v", got)
	}
	if _, err := uow.EditRequests.GetByID(ctx, req.ID); !errors.Is(err, editrequestrepoport.ErrNotFound) {
		t.Fatalf("committed request still present, err=%v", err)
	}
}
