package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	memidempotency "github.com/chibo-dx/roster-api/internal/adapters/memory/idempotency"
	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/ports/out/idempotency"
)

func TestEditRequests_SubmitReviewApprove(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})

	var created EditRequestResponse
	api.expect(call{
		method:  http.MethodPost,
		path:    "/members/me/edit-requests",
		subject: memberSubject,
		body:    `{"changes":{"hometown":"  Hà Nội ","unit":null}}`,
	}, http.StatusCreated, &created)
	er := created.EditRequest
	if er.MemberId != string(memberID) || er.SubmittedBy != memberSubject {
		t.Fatalf("created: %+v", er)
	}
	if diff := cmp.Diff(map[string]string{"hometown": "Hà Nội", "unit": ""}, er.Changes); diff != "" {
		t.Fatalf("changes (-want +got):\n%s", diff)
	}

	var me Profile
	api.expect(call{method: http.MethodGet, path: "/members/me", subject: memberSubject}, http.StatusOK, &me)
	if len(me.PendingRequests) != 1 || me.Proposed["hometown"] != "Hà Nội" {
		t.Fatalf("profile: %+v", me)
	}
	if me.Member.Hometown.IsSpecified() && !me.Member.Hometown.IsNull() {
		t.Fatalf("hometown must stay unset until approval")
	}

	var list EditRequestsResponse
	api.expect(call{method: http.MethodGet, path: "/edit-requests", subject: secretarySubject}, http.StatusOK, &list)
	if len(list.EditRequests) != 1 || list.EditRequests[0].RequestId != er.RequestId {
		t.Fatalf("pending list: %+v", list)
	}

	var review Review
	api.expect(call{method: http.MethodGet, path: "/edit-requests/" + er.RequestId, subject: secretarySubject}, http.StatusOK, &review)
	if review.ChangedCount != 1 {
		t.Fatalf("changedCount: got %d want 1 (unit is already unset)", review.ChangedCount)
	}

	var res Resolution
	api.expect(call{method: http.MethodPost, path: "/edit-requests/" + er.RequestId + "/approve", subject: secretarySubject}, http.StatusOK, &res)
	if res.Outcome != "MERGED" || !res.MemberMutated || res.AlreadyResolved {
		t.Fatalf("resolution: %+v", res)
	}
	if res.Member == nil || res.Member.Version != 2 {
		t.Fatalf("resolution member: %+v", res.Member)
	}
	if got, _ := res.Member.Hometown.Get(); got != "Hà Nội" {
		t.Fatalf("hometown after approve: %q", got)
	}
	if diff := cmp.Diff([]string{"hometown"}, res.Applied); diff != "" {
		t.Fatalf("applied (-want +got):\n%s", diff)
	}

	api.expect(call{method: http.MethodGet, path: "/edit-requests", subject: secretarySubject}, http.StatusOK, &list)
	if len(list.EditRequests) != 0 {
		t.Fatalf("queue not drained: %+v", list)
	}
	api.expectError(call{method: http.MethodPost, path: "/edit-requests/" + er.RequestId + "/approve", subject: secretarySubject}, http.StatusNotFound, "EDIT_REQUEST_NOT_FOUND")
}

func TestEditRequests_RejectIsIdempotent(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	var created EditRequestResponse
	api.expect(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, body: `{"changes":{"religion":"Không"}}`}, http.StatusCreated, &created)
	path := "/edit-requests/" + created.EditRequest.RequestId + "/reject"

	var first, second Resolution
	api.expect(call{method: http.MethodPost, path: path, subject: secretarySubject}, http.StatusOK, &first)
	api.expect(call{method: http.MethodPost, path: path, subject: secretarySubject}, http.StatusOK, &second)
	if first.Outcome != "DISCARDED" || first.AlreadyResolved || first.MemberMutated {
		t.Fatalf("first reject: %+v", first)
	}
	if !second.AlreadyResolved {
		t.Fatalf("second reject: %+v", second)
	}

	var m MemberResponse
	api.expect(call{method: http.MethodGet, path: "/members/" + string(memberID), subject: secretarySubject}, http.StatusOK, &m)
	if m.Member.Version != 1 || (m.Member.Religion.IsSpecified() && !m.Member.Religion.IsNull()) {
		t.Fatalf("reject must not touch the member: %+v", m.Member)
	}
}

func TestEditRequests_ResolveRequiresPrivilege(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	var created EditRequestResponse
	api.expect(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, body: `{"changes":{"ethnicity":"Kinh"}}`}, http.StatusCreated, &created)
	id := created.EditRequest.RequestId

	api.expectError(call{method: http.MethodGet, path: "/edit-requests", subject: memberSubject}, http.StatusForbidden, "FORBIDDEN")
	api.expectError(call{method: http.MethodGet, path: "/edit-requests/" + id, subject: memberSubject}, http.StatusForbidden, "FORBIDDEN")
	api.expectError(call{method: http.MethodPost, path: "/edit-requests/" + id + "/approve", subject: memberSubject}, http.StatusForbidden, "FORBIDDEN")
	api.expectError(call{method: http.MethodPost, path: "/edit-requests/" + id + "/reject", subject: memberSubject}, http.StatusForbidden, "FORBIDDEN")
}

func TestEditRequests_SubmitValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{name: "empty changes", body: `{"changes":{}}`, field: "changes"},
		{name: "missing changes", body: `{}`, field: "changes"},
		{name: "unknown field", body: `{"changes":{"nickname":"An"}}`, field: "nickname"},
		{name: "id is immutable", body: `{"changes":{"id":"x"}}`, field: "id"},
		{name: "bad date", body: `{"changes":{"birthDate":"02/09/1990"}}`, field: "birthDate"},
		{name: "clear required", body: `{"changes":{"fullName":null}}`, field: "fullName"},
		{name: "unknown status", body: `{"changes":{"status":"Khác"}}`, field: "status"},
		{name: "unknown body key", body: `{"changes":{"unit":"A"},"extra":1}`, field: "body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			api := newTestAPI(t, testAPIOptions{})
			er := api.expectError(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, body: tc.body}, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
			details, err := er.Error.Details.Get()
			if err != nil {
				t.Fatalf("details missing: %v", err)
			}
			if _, ok := details[tc.field]; !ok {
				t.Fatalf("details %v missing %q", details, tc.field)
			}
		})
	}
}

func TestEditRequests_SubmitIdempotentReplayAndConflictOnReuse(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	key := map[string]string{"Idempotency-Key": "idem-12345678"}

	var first, replay EditRequestResponse
	api.expect(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, headers: key, body: `{"changes":{"position":"Trưởng phòng"}}`}, http.StatusCreated, &first)

	rec := api.do(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, headers: key, body: `{ "changes": { "position": "Trưởng phòng" } }`})
	if rec.Code != http.StatusCreated || rec.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("replay: status=%d headers=%v body=%s", rec.Code, rec.Header(), rec.Body.String())
	}
	api.expect(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, headers: key, body: `{"changes":{"position":"Trưởng phòng"}}`}, http.StatusCreated, &replay)
	if replay.EditRequest.RequestId != first.EditRequest.RequestId {
		t.Fatalf("replay created a new request: %s vs %s", replay.EditRequest.RequestId, first.EditRequest.RequestId)
	}

	api.expectError(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, headers: key, body: `{"changes":{"position":"Phó phòng"}}`}, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")

	var list EditRequestsResponse
	api.expect(call{method: http.MethodGet, path: "/edit-requests", subject: secretarySubject}, http.StatusOK, &list)
	if len(list.EditRequests) != 1 {
		t.Fatalf("queue: got %d requests want 1", len(list.EditRequests))
	}
}

type failingPutStore struct {
	idempotency.Store
}

func (failingPutStore) Put(context.Context, idempotency.Fingerprint, idempotency.Record) error {
	return errors.New("disk full")
}

func TestEditRequests_IdempotencyStoreFailureStillCreates(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	api := newTestAPI(t, testAPIOptions{idem: failingPutStore{Store: memidempotency.NewStore()}, logOut: &logs})
	key := map[string]string{"Idempotency-Key": "idem-87654321"}

	var created EditRequestResponse
	api.expect(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, headers: key, body: `{"changes":{"position":"Trưởng phòng"}}`}, http.StatusCreated, &created)
	if created.EditRequest.RequestId == "" {
		t.Fatalf("created: %+v", created)
	}
	if n := strings.Count(logs.String(), "idempotency record not stored"); n != 2 {
		t.Fatalf("warnings logged: %d want 2\n%s", n, logs.String())
	}
	if !strings.Contains(logs.String(), "disk full") {
		t.Fatalf("store error missing from log: %s", logs.String())
	}
}

func TestEditRequests_StackingAndSinglePending(t *testing.T) {
	t.Parallel()

	stacked := newTestAPI(t, testAPIOptions{})
	for _, body := range []string{`{"changes":{"unit":"A"}}`, `{"changes":{"unit":"B"}}`} {
		stacked.expect(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, body: body}, http.StatusCreated, nil)
	}
	var pending PendingEditRequestResponse
	stacked.expect(call{method: http.MethodGet, path: "/members/" + string(memberID) + "/edit-request", subject: secretarySubject}, http.StatusOK, &pending)
	got, err := pending.EditRequest.Get()
	if err != nil {
		t.Fatalf("expected a pending request: %v", err)
	}
	if got.Changes["unit"] != "A" {
		t.Fatalf("expected the oldest request, got %+v", got)
	}

	single := newTestAPI(t, testAPIOptions{singlePending: true})
	single.expect(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, body: `{"changes":{"unit":"A"}}`}, http.StatusCreated, nil)
	single.expectError(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, body: `{"changes":{"unit":"B"}}`}, http.StatusConflict, "EDIT_REQUEST_PENDING")
}

func TestEditRequests_NoPendingIsNull(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	rec := api.do(call{method: http.MethodGet, path: "/members/" + string(memberID) + "/edit-request", subject: secretarySubject})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "{\"editRequest\":null}\n" {
		t.Fatalf("body=%q", got)
	}
	api.expectError(call{method: http.MethodGet, path: "/members/nope/edit-request", subject: secretarySubject}, http.StatusNotFound, "MEMBER_NOT_FOUND")
}

func TestEditRequests_PendingRequestIsPrivate(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	seedMember(t, api.members, domain.Member{
		ID:        "m-other",
		FullName:  "Đỗ Văn Khác",
		PartyDate: "2019-01-01",
		Status:    domain.MemberStatusOfficial,
		Role:      domain.MemberRoleMember,
	}, "sub-other")
	api.expect(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, body: `{"changes":{"healthStatus":"Bệnh tim","disciplineHistory":"Khiển trách 2023"}}`}, http.StatusCreated, nil)

	path := "/members/" + string(memberID) + "/edit-request"
	api.expectError(call{method: http.MethodGet, path: path, subject: "sub-other"}, http.StatusForbidden, "FORBIDDEN")

	for _, sub := range []string{memberSubject, secretarySubject} {
		var pending PendingEditRequestResponse
		api.expect(call{method: http.MethodGet, path: path, subject: sub}, http.StatusOK, &pending)
		if got, err := pending.EditRequest.Get(); err != nil || got.Changes["healthStatus"] != "Bệnh tim" {
			t.Fatalf("%s: pending=%+v err=%v", sub, got, err)
		}
	}
}

func TestEditRequests_ApproveNoOpReportsNoMutation(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	var created EditRequestResponse
	api.expect(call{method: http.MethodPost, path: "/members/me/edit-requests", subject: memberSubject, body: `{"changes":{"fullName":"Nguyễn Văn An"}}`}, http.StatusCreated, &created)

	var res Resolution
	api.expect(call{method: http.MethodPost, path: "/edit-requests/" + created.EditRequest.RequestId + "/approve", subject: secretarySubject}, http.StatusOK, &res)
	if res.MemberMutated || len(res.Applied) != 0 {
		t.Fatalf("resolution: %+v", res)
	}
	if res.Member == nil || res.Member.Version != 1 {
		t.Fatalf("member version after no-op approve: %+v", res.Member)
	}
}

func TestEditRequests_SubmitOnBehalf(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testAPIOptions{})
	var created EditRequestResponse
	api.expect(call{method: http.MethodPost, path: "/members/" + string(memberID) + "/edit-requests", subject: secretarySubject, body: `{"changes":{"healthStatus":"Tốt"}}`}, http.StatusCreated, &created)
	if created.EditRequest.MemberId != string(memberID) || created.EditRequest.SubmittedBy != secretarySubject {
		t.Fatalf("created: %+v", created.EditRequest)
	}
	api.expectError(call{method: http.MethodPost, path: "/members/" + string(secretaryID) + "/edit-requests", subject: memberSubject, body: `{"changes":{"healthStatus":"Tốt"}}`}, http.StatusForbidden, "FORBIDDEN")
}
