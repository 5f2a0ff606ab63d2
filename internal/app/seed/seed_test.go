package seed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	memclock "github.com/chibo-dx/roster-api/internal/adapters/memory/clock"
	memeditrequestrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/editrequestrepo"
	memfeerepo "github.com/chibo-dx/roster-api/internal/adapters/memory/feerepo"
	memmeetingrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/meetingrepo"
	memmemberrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/memberrepo"
	memunitofwork "github.com/chibo-dx/roster-api/internal/adapters/memory/unitofwork"
	"github.com/chibo-dx/roster-api/internal/app/apperr"
	"github.com/chibo-dx/roster-api/internal/app/fees"
	"github.com/chibo-dx/roster-api/internal/app/meetings"
	"github.com/chibo-dx/roster-api/internal/app/members"
	"github.com/chibo-dx/roster-api/internal/domain"
)

func newSeeder(t *testing.T) (*Service, *memmemberrepo.Repo) {
	t.Helper()
	clk := memclock.NewManualClock(time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC))
	memberRepo := memmemberrepo.NewRepo()
	requests := memeditrequestrepo.NewRepo()
	uow := memunitofwork.NewRunner(memberRepo, requests)
	return &Service{
		Members:  members.NewService(memberRepo, requests, uow, clk),
		Meetings: meetings.NewService(memmeetingrepo.NewRepo(), memberRepo, clk),
		Fees:     fees.NewService(memfeerepo.NewRepo(), memberRepo, clk),
	}, memberRepo
}

func TestApply_TestdataFile(t *testing.T) {
	t.Parallel()

	f, err := LoadFile("testdata/branch.yaml")
	if err != nil {
		t.Fatalf("LoadFile err=%v", err)
	}
	svc, repo := newSeeder(t)
	ctx := context.Background()

	res, err := svc.Apply(ctx, f)
	if err != nil {
		t.Fatalf("Apply err=%v", err)
	}
	if res != (Result{Members: 3, Meetings: 1, Fees: 3}) {
		t.Fatalf("result=%+v", res)
	}

	an, err := repo.GetBySubject(ctx, "sub-an")
	if err != nil {
		t.Fatalf("GetBySubject err=%v", err)
	}
	if an.FullName != "Nguyễn Văn An" || an.Role != domain.MemberRoleSecretary {
		t.Fatalf("seeded member=%+v", an)
	}
	binh, err := repo.GetBySubject(ctx, "sub-binh")
	if err != nil {
		t.Fatalf("GetBySubject err=%v", err)
	}
	if binh.Status != domain.MemberStatusProbationary || binh.Role != domain.MemberRoleMember {
		t.Fatalf("defaults not applied: status=%q role=%q", binh.Status, binh.Role)
	}

	if _, err := svc.Apply(ctx, f); !errors.Is(err, ErrRosterNotEmpty) {
		t.Fatalf("Apply(again) err=%v, want ErrRosterNotEmpty", err)
	}
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader("members:\n  - subjekt: x\n"))
	if err == nil || !strings.Contains(err.Error(), "subjekt") {
		t.Fatalf("Decode err=%v, want unknown key error", err)
	}
}

func TestDecode_EmptyInput(t *testing.T) {
	t.Parallel()

	f, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}
	if len(f.Members) != 0 {
		t.Fatalf("members=%v", f.Members)
	}
}

func TestApply_InvalidMemberStops(t *testing.T) {
	t.Parallel()

	svc, _ := newSeeder(t)
	f := File{Members: []Member{
		{Fields: map[string]string{"fullName": "Hợp Lệ", "partyDate": "2020-01-01"}},
		{Fields: map[string]string{"fullName": "Thiếu Ngày"}},
	}}

	res, err := svc.Apply(context.Background(), f)
	if !apperr.HasCode(err, apperr.CodeValidation) {
		t.Fatalf("Apply err=%v, want VALIDATION_ERROR", err)
	}
	if res.Members != 1 || !strings.Contains(err.Error(), "member #2") {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}
