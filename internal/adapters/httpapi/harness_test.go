package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	memclock "github.com/chibo-dx/roster-api/internal/adapters/memory/clock"
	memeditrequestrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/editrequestrepo"
	memfeerepo "github.com/chibo-dx/roster-api/internal/adapters/memory/feerepo"
	memidempotency "github.com/chibo-dx/roster-api/internal/adapters/memory/idempotency"
	memmeetingrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/meetingrepo"
	memmemberrepo "github.com/chibo-dx/roster-api/internal/adapters/memory/memberrepo"
	memunitofwork "github.com/chibo-dx/roster-api/internal/adapters/memory/unitofwork"
	"github.com/chibo-dx/roster-api/internal/app/advisor"
	"github.com/chibo-dx/roster-api/internal/app/dashboard"
	"github.com/chibo-dx/roster-api/internal/app/editrequests"
	"github.com/chibo-dx/roster-api/internal/app/fees"
	"github.com/chibo-dx/roster-api/internal/app/meetings"
	"github.com/chibo-dx/roster-api/internal/app/members"
	"github.com/chibo-dx/roster-api/internal/domain"
	advisorport "github.com/chibo-dx/roster-api/internal/ports/out/advisor"
	"github.com/chibo-dx/roster-api/internal/ports/out/idempotency"
	"github.com/chibo-dx/roster-api/internal/platform/auth/tokens"
	"github.com/chibo-dx/roster-api/internal/platform/config"
)

const (
	secretarySubject = "sub-secretary"
	memberSubject    = "sub-member"
	strangerSubject  = "sub-stranger"

	secretaryID domain.MemberID = "m-secretary"
	memberID    domain.MemberID = "m-member"
)

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type stubGenerator struct {
	answer string
	err    error
}

func (g stubGenerator) Generate(context.Context, string) (string, error) {
	return g.answer, g.err
}

type testAPI struct {
	t       *testing.T
	h       http.Handler
	members *memmemberrepo.Repo
	issuer  *tokens.Issuer
}

type testAPIOptions struct {
	generator     advisorport.Generator
	singlePending bool
	idem          idempotency.Store
	logOut        io.Writer
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Mode:      config.AuthModeJWT,
		Secret:    "test-secret-at-least-32-bytes-long!!",
		Issuer:    "test-iss",
		Audience:  "test-aud",
		ClockSkew: 0,
		TokenTTL:  time.Hour,
	}
}

func newTestAPI(t *testing.T, opts testAPIOptions) *testAPI {
	t.Helper()

	clk := memclock.NewManualClock(testNow)
	memberRepo := memmemberrepo.NewRepo()
	requestRepo := memeditrequestrepo.NewRepo()
	feeRepo := memfeerepo.NewRepo()
	meetingRepo := memmeetingrepo.NewRepo()
	uow := memunitofwork.NewRunner(memberRepo, requestRepo)
	log := zerolog.Nop()
	if opts.logOut != nil {
		log = zerolog.New(opts.logOut)
	}
	idem := opts.idem
	if idem == nil {
		idem = memidempotency.NewStore()
	}

	seedMember(t, memberRepo, domain.Member{
		ID:        secretaryID,
		FullName:  "Trần Thị Bí Thư",
		PartyDate: "2010-05-19",
		Status:    domain.MemberStatusOfficial,
		Role:      domain.MemberRoleSecretary,
	}, secretarySubject)
	seedMember(t, memberRepo, domain.Member{
		ID:        memberID,
		FullName:  "Nguyễn Văn An",
		PartyDate: "2023-09-02",
		Status:    domain.MemberStatusProbationary,
		Role:      domain.MemberRoleMember,
	}, memberSubject)

	editSvc := editrequests.NewService(uow, memberRepo, requestRepo, clk, log)
	editSvc.SinglePending = opts.singlePending
	svc := Services{
		Members:      members.NewService(memberRepo, requestRepo, uow, clk),
		EditRequests: editSvc,
		Fees:         fees.NewService(feeRepo, memberRepo, clk),
		Meetings:     meetings.NewService(meetingRepo, memberRepo, clk),
		Dashboard:    dashboard.NewService(memberRepo, requestRepo, feeRepo, clk),
		Advisor:      advisor.NewService(opts.generator),
	}

	cfg := testAuthConfig()
	tokenClock := fixedClock{t: testNow}
	api := NewServer(svc, idem, log)
	h := NewRouter(api, RouterOptions{
		AuthMiddleware: NewAuthMiddleware(tokens.NewVerifier(cfg, tokenClock)),
		Logger:         log,
	})
	return &testAPI{t: t, h: h, members: memberRepo, issuer: tokens.NewIssuer(cfg, tokenClock)}
}

func seedMember(t *testing.T, repo *memmemberrepo.Repo, m domain.Member, subject string) {
	t.Helper()
	sub := domain.SubjectID(subject)
	m.Subject = &sub
	m.CreatedAt = testNow
	m.UpdatedAt = testNow
	if err := repo.Create(context.Background(), m); err != nil {
		t.Fatalf("seed %s: %v", m.ID, err)
	}
}

type call struct {
	method  string
	path    string
	subject string
	body    string
	headers map[string]string
}

func (a *testAPI) do(c call) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	if c.body != "" {
		body = bytes.NewBufferString(c.body)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.subject != "" {
		tok, err := a.issuer.Mint(c.subject, "", 0)
		if err != nil {
			a.t.Fatalf("mint: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) expect(c call, status int, out any) {
	a.t.Helper()
	rec := a.do(c)
	if rec.Code != status {
		a.t.Fatalf("%s %s: status=%d want %d body=%s", c.method, c.path, rec.Code, status, rec.Body.String())
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		a.t.Fatalf("%s %s: decode: %v body=%s", c.method, c.path, err, rec.Body.String())
	}
}

func (a *testAPI) expectError(c call, status int, code string) ErrorResponse {
	a.t.Helper()
	var er ErrorResponse
	a.expect(c, status, &er)
	if er.Error.Code != code {
		a.t.Fatalf("%s %s: code=%q want %q", c.method, c.path, er.Error.Code, code)
	}
	return er
}
