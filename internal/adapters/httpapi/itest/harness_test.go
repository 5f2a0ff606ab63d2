package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chibo-dx/roster-api/internal/adapters/httpapi"
	memclock "github.com/chibo-dx/roster-api/internal/adapters/memory/clock"
	postgres_testutil "github.com/chibo-dx/roster-api/internal/adapters/postgres/testutil"
	"github.com/chibo-dx/roster-api/internal/domain"
	"github.com/chibo-dx/roster-api/internal/platform/bootstrap"
	"github.com/chibo-dx/roster-api/internal/platform/config"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendSnapshot backend = "snapshot"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "snapshot":
		return []backend{backendSnapshot}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendSnapshot, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|snapshot|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client

	// secretary is a privileged subject provisioned for this server only.
	secretary string
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	const issuer = "itest-issuer"
	ctx := context.Background()
	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	var cfg config.StorageConfig
	switch b {
	case backendMemory:
		cfg = config.StorageConfig{Backend: config.BackendMemory}
	case backendSnapshot:
		cfg = config.StorageConfig{Backend: config.BackendSnapshot, SnapshotPath: filepath.Join(t.TempDir(), "branch.yaml")}
	case backendPostgres:
		url := os.Getenv(postgres_testutil.DatabaseURLEnv)
		if url == "" {
			t.Skipf("%s not set; skipping postgres itest", postgres_testutil.DatabaseURLEnv)
		}
		cfg = config.StorageConfig{Backend: config.BackendPostgres, DatabaseURL: url}
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	st, err := bootstrap.OpenStorage(ctx, cfg, issuer, zerolog.Nop())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(st.Close)

	// Postgres runs share one database, so every run provisions its own secretary.
	secretary := "itest|secretary|" + uuid.NewString()
	sub := domain.SubjectID(secretary)
	if err := st.Members.Create(ctx, domain.Member{
		ID:        domain.MemberID(uuid.NewString()),
		Subject:   &sub,
		FullName:  "Bí Thư Kiểm Thử",
		PartyDate: "2010-01-01",
		Status:    domain.MemberStatusOfficial,
		Role:      domain.MemberRoleSecretary,
		CreatedAt: clk.Now(),
		UpdatedAt: clk.Now(),
	}); err != nil {
		t.Fatalf("provision secretary: %v", err)
	}

	svc := bootstrap.NewServices(st, clk, zerolog.Nop(), bootstrap.ServiceOptions{})
	api := httpapi.NewServer(svc.HTTP(), st.Idempotency, zerolog.Nop())

	// Integration tests use the dev auth middleware to stay fully local and deterministic.
	// An empty default subject means requests MUST provide X-Debug-Subject.
	authMW := httpapi.NewDevAuthMiddleware("")
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{AuthMiddleware: authMW, Logger: zerolog.Nop()})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL:   srv.URL,
		client:    srv.Client(),
		secretary: secretary,
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, subject string, body any, headers ...string) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
