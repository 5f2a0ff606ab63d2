package httpapi

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMembers_CreateAndGet(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	var created MemberResponse
	api.expect(call{
		method:  http.MethodPost,
		path:    "/members",
		subject: secretarySubject,
		body:    `{"fields":{"fullName":"  Lê   Văn Cường ","partyDate":"2023-03-20","birthDate":"1990-01-15"},"subject":"sub-cuong"}`,
	}, http.StatusCreated, &created)

	m := created.Member
	if m.FullName != "Lê Văn Cường" || m.Version != 1 {
		t.Fatalf("created: %+v", m)
	}
	if m.Status != "Dự bị" || m.Role != "Đảng viên" {
		t.Fatalf("defaults: status=%q role=%q", m.Status, m.Role)
	}
	if bd, err := m.BirthDate.Get(); err != nil || bd.String() != "1990-01-15" {
		t.Fatalf("birthDate: %v %v", bd, err)
	}

	var me Profile
	api.expect(call{method: http.MethodGet, path: "/members/me", subject: "sub-cuong"}, http.StatusOK, &me)
	if me.Member.MemberId != m.MemberId || len(me.PendingRequests) != 0 {
		t.Fatalf("profile: %+v", me)
	}

	api.expectError(call{method: http.MethodPost, path: "/members", subject: secretarySubject, body: `{"fields":{"fullName":"X","partyDate":"2023-01-01"},"subject":"sub-cuong"}`}, http.StatusConflict, "SUBJECT_ALREADY_BOUND")
	api.expectError(call{method: http.MethodPost, path: "/members", subject: secretarySubject, body: `{"fields":{"fullName":"X"}}`}, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	api.expectError(call{method: http.MethodPost, path: "/members", subject: memberSubject, body: `{"fields":{"fullName":"X","partyDate":"2023-01-01"}}`}, http.StatusForbidden, "FORBIDDEN")
	api.expectError(call{method: http.MethodGet, path: "/members/unknown", subject: memberSubject}, http.StatusNotFound, "MEMBER_NOT_FOUND")
}

func TestMembers_SearchAndList(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	var found MembersResponse
	api.expect(call{method: http.MethodGet, path: "/members/search?q=an%20nguy", subject: memberSubject}, http.StatusOK, &found)
	if len(found.Members) != 1 || found.Members[0].MemberId != string(memberID) {
		t.Fatalf("search: %+v", found)
	}
	api.expectError(call{method: http.MethodGet, path: "/members/search?q=a", subject: memberSubject}, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	api.expectError(call{method: http.MethodGet, path: "/members?includeTransferred=maybe", subject: memberSubject}, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestMembers_DirectEditVersionGuard(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	path := "/members/" + string(memberID)

	var edited MemberResponse
	api.expect(call{method: http.MethodPatch, path: path, subject: secretarySubject, body: `{"changes":{"unit":"Phòng Kế hoạch"},"version":1}`}, http.StatusOK, &edited)
	if edited.Member.Version != 2 {
		t.Fatalf("version: got %d want 2", edited.Member.Version)
	}
	api.expectError(call{method: http.MethodPatch, path: path, subject: secretarySubject, body: `{"changes":{"unit":"Khác"},"version":1}`}, http.StatusConflict, "VERSION_CONFLICT")

	api.expect(call{method: http.MethodPatch, path: path, subject: secretarySubject, body: `{"changes":{"unit":null}}`}, http.StatusOK, &edited)
	if !edited.Member.Unit.IsNull() {
		t.Fatalf("unit should be cleared: %+v", edited.Member.Unit)
	}
	api.expectError(call{method: http.MethodPatch, path: path, subject: memberSubject, body: `{"changes":{"unit":"A"}}`}, http.StatusForbidden, "FORBIDDEN")
}

func TestMembers_TransferRemovesFromActiveRoster(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	var moved MemberResponse
	api.expect(call{method: http.MethodPost, path: "/members/" + string(memberID) + "/transfer", subject: secretarySubject}, http.StatusOK, &moved)
	if moved.Member.Status != "Đã chuyển sinh hoạt" {
		t.Fatalf("status: %q", moved.Member.Status)
	}

	var active, all MembersResponse
	api.expect(call{method: http.MethodGet, path: "/members", subject: secretarySubject}, http.StatusOK, &active)
	api.expect(call{method: http.MethodGet, path: "/members?includeTransferred=true", subject: secretarySubject}, http.StatusOK, &all)
	if len(active.Members) != 1 || len(all.Members) != 2 {
		t.Fatalf("active=%d all=%d", len(active.Members), len(all.Members))
	}

	api.expectError(call{method: http.MethodGet, path: "/members/me", subject: memberSubject}, http.StatusForbidden, "FORBIDDEN")
	api.expectError(call{method: http.MethodPost, path: "/members/" + string(secretaryID) + "/transfer", subject: secretarySubject}, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestMembers_MakeOfficialAndBindSubject(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	base := "/members/" + string(memberID)

	var promoted MemberResponse
	api.expect(call{method: http.MethodPost, path: base + "/make-official", subject: secretarySubject, body: `{"partyCardNumber":"012345"}`}, http.StatusOK, &promoted)
	if promoted.Member.Status != "Chính thức" {
		t.Fatalf("status: %q", promoted.Member.Status)
	}
	if d, err := promoted.Member.OfficialDate.Get(); err != nil || d.String() != testNow.Format("2006-01-02") {
		t.Fatalf("officialDate: %v %v", d, err)
	}
	api.expectError(call{method: http.MethodPost, path: base + "/make-official", subject: secretarySubject, body: `{}`}, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	api.expectError(call{method: http.MethodPost, path: base + "/make-official", subject: secretarySubject, body: `{"officialDate":"10/03/2024"}`}, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	var bound MemberResponse
	api.expect(call{method: http.MethodPut, path: base + "/subject", subject: secretarySubject, body: `{"subject":"sub-new"}`}, http.StatusOK, &bound)
	if sub, _ := bound.Member.Subject.Get(); sub != "sub-new" {
		t.Fatalf("subject: %q", sub)
	}
	api.expect(call{method: http.MethodGet, path: "/members/me", subject: "sub-new"}, http.StatusOK, nil)
	api.expectError(call{method: http.MethodGet, path: "/members/me", subject: memberSubject}, http.StatusNotFound, "MEMBER_NOT_PROVISIONED")
	api.expectError(call{method: http.MethodPut, path: base + "/subject", subject: secretarySubject, body: fmt.Sprintf(`{"subject":%q}`, secretarySubject)}, http.StatusConflict, "SUBJECT_ALREADY_BOUND")
}

func TestMembers_DirectEditCannotTransferSelf(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	body := `{"changes":{"status":"Đã chuyển sinh hoạt"}}`
	api.expectError(call{method: http.MethodPatch, path: "/members/" + string(secretaryID), subject: secretarySubject, body: body}, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	api.expect(call{method: http.MethodGet, path: "/members/me", subject: secretarySubject}, http.StatusOK, nil)
}

func TestMembers_UnbindSubjectSuspendsAccount(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	path := "/members/" + string(memberID) + "/subject"

	api.expectError(call{method: http.MethodDelete, path: path, subject: memberSubject}, http.StatusForbidden, "FORBIDDEN")
	api.expectError(call{method: http.MethodDelete, path: "/members/" + string(secretaryID) + "/subject", subject: secretarySubject}, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	var unbound MemberResponse
	api.expect(call{method: http.MethodDelete, path: path, subject: secretarySubject}, http.StatusOK, &unbound)
	if !unbound.Member.Subject.IsNull() || unbound.Member.Version != 2 {
		t.Fatalf("unbound: subject=%v version=%d", unbound.Member.Subject, unbound.Member.Version)
	}
	api.expectError(call{method: http.MethodGet, path: "/members/me", subject: memberSubject}, http.StatusNotFound, "MEMBER_NOT_PROVISIONED")

	api.expect(call{method: http.MethodPut, path: path, subject: secretarySubject, body: fmt.Sprintf(`{"subject":%q}`, memberSubject)}, http.StatusOK, nil)
	api.expect(call{method: http.MethodGet, path: "/members/me", subject: memberSubject}, http.StatusOK, nil)
}
