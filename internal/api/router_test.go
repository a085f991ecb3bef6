package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Elale1984/RoomzIO-API/internal/api/handler"
	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
	"github.com/Elale1984/RoomzIO-API/internal/core/ports"
	"github.com/Elale1984/RoomzIO-API/internal/core/service"
	"github.com/Elale1984/RoomzIO-API/internal/infrastructure/db/memory"
	"github.com/Elale1984/RoomzIO-API/pkg/credential"
)

const cookieName = "ROOMZIO-AUTH"

type testServer struct {
	t    *testing.T
	srv  *httptest.Server
	auth *service.AuthService
	repo *memory.UserRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hasher, err := credential.NewHasher("router-test-secret")
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	repo := memory.NewUserRepository()
	authService := service.NewAuthService(repo, hasher, nil, nil, zerolog.Nop())
	userService := service.NewUserService(repo, nil, zerolog.Nop())

	e := NewRouter(Deps{
		Auth:        authService,
		Users:       userService,
		Log:         zerolog.Nop(),
		Cookie:      handler.CookieConfig{Name: cookieName},
		CORSOrigins: []string{"http://localhost:3000"},
		Registerer:  prometheus.NewRegistry(),
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, auth: authService, repo: repo}
}

func (ts *testServer) do(method, path, body, token string) *http.Response {
	ts.t.Helper()
	req, err := http.NewRequest(method, ts.srv.URL+path, strings.NewReader(body))
	if err != nil {
		ts.t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ts.t.Fatalf("%s %s: %v", method, path, err)
	}
	ts.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) register(username string, role domain.Role, token string) *http.Response {
	body := `{"first_name":"Test","last_name":"User","username":"` + username +
		`","email":"` + username + `@example.com","role":"` + string(role) + `","password":"p1"}`
	return ts.do(http.MethodPost, "/auth/register", body, token)
}

// login returns the session token and user id.
func (ts *testServer) login(username, password string) (string, string) {
	ts.t.Helper()
	resp := ts.do(http.MethodPost, "/auth/login", `{"username":"`+username+`","password":"`+password+`"}`, "")
	if resp.StatusCode != http.StatusOK {
		ts.t.Fatalf("login %s: expected 200, got %d", username, resp.StatusCode)
	}
	var token string
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			token = c.Value
		}
	}
	if token == "" {
		ts.t.Fatalf("login %s: no session cookie", username)
	}

	var body struct {
		User domain.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		ts.t.Fatalf("decode login response: %v", err)
	}
	return token, body.User.ID
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected %d, got %d", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode)
	}
}

func TestRouter_ManagerFlow(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.register("alice", domain.RoleManager, ""), http.StatusCreated)
	token, aliceID := ts.login("alice", "p1")

	// Admin-only endpoint.
	expectStatus(t, ts.do(http.MethodDelete, "/users/delete/"+aliceID, "", token), http.StatusForbidden)

	// Manager-or-admin endpoint.
	resp := ts.do(http.MethodGet, "/users/type/"+aliceID, "", token)
	expectStatus(t, resp, http.StatusOK)
	var role struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&role); err != nil || role.Role != "manager" {
		t.Fatalf("unexpected role response: %+v %v", role, err)
	}

	resp = ts.do(http.MethodGet, "/users/me", "", token)
	expectStatus(t, resp, http.StatusOK)
	if resp.Header.Get("Cache-Control") != "no-store" {
		t.Fatalf("session responses must not be cached")
	}
}

func TestRouter_ResponsesNeverCarryCredentials(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.register("alice", domain.RoleStaff, "")
	expectStatus(t, resp, http.StatusCreated)
	token, _ := ts.login("alice", "p1")

	for _, path := range []string{"/users", "/users/me"} {
		resp := ts.do(http.MethodGet, path, "", token)
		expectStatus(t, resp, http.StatusOK)
		var raw map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		encoded, _ := json.Marshal(raw)
		for _, field := range []string{"password", "salt", "session_token", "authentication", token} {
			if strings.Contains(string(encoded), field) {
				t.Fatalf("%s leaked %q: %s", path, field, encoded)
			}
		}
	}
}

func TestRouter_Unauthenticated(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.do(http.MethodGet, "/users", "", ""), http.StatusUnauthorized)
	expectStatus(t, ts.do(http.MethodGet, "/users/me", "", "forged-token"), http.StatusUnauthorized)
	expectStatus(t, ts.do(http.MethodPost, "/auth/login", `{"username":"ghost","password":"p1"}`, ""), http.StatusUnauthorized)
	expectStatus(t, ts.do(http.MethodPost, "/auth/login", `{"username":"","password":""}`, ""), http.StatusBadRequest)
}

func TestRouter_RegisterErrors(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.register("bob", domain.RoleStaff, ""), http.StatusCreated)
	expectStatus(t, ts.register("bob", domain.RoleStaff, ""), http.StatusConflict)
	expectStatus(t, ts.do(http.MethodPost, "/auth/register", `{"username":"carol"}`, ""), http.StatusBadRequest)
	expectStatus(t, ts.register("dave", "owner", ""), http.StatusBadRequest)
	expectStatus(t, ts.register("eve", domain.RoleAdmin, ""), http.StatusForbidden)
}

func TestRouter_AdminFlow(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	if _, err := ts.auth.EnsureAdmin(ctx, ports.RegisterInput{
		FirstName: "Root",
		LastName:  "Admin",
		Username:  "root",
		Email:     "root@example.com",
		Password:  "s3cret",
	}); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	adminToken, _ := ts.login("root", "s3cret")

	// Admins may create admins.
	expectStatus(t, ts.register("second", domain.RoleAdmin, adminToken), http.StatusCreated)

	expectStatus(t, ts.register("bob", domain.RoleStaff, ""), http.StatusCreated)
	bobToken, bobID := ts.login("bob", "p1")

	expectStatus(t, ts.do(http.MethodGet, "/users/type/"+bobID, "", bobToken), http.StatusForbidden)
	expectStatus(t, ts.do(http.MethodDelete, "/users/delete/"+bobID, "", adminToken), http.StatusNoContent)

	// The deleted user's session dies with the record.
	expectStatus(t, ts.do(http.MethodGet, "/users/me", "", bobToken), http.StatusUnauthorized)
	expectStatus(t, ts.do(http.MethodDelete, "/users/delete/"+bobID, "", adminToken), http.StatusNotFound)
	expectStatus(t, ts.do(http.MethodGet, "/users/type/"+bobID, "", adminToken), http.StatusNotFound)
}

func TestRouter_OwnerUpdate(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.register("alice", domain.RoleStaff, ""), http.StatusCreated)
	expectStatus(t, ts.register("bob", domain.RoleStaff, ""), http.StatusCreated)
	aliceToken, aliceID := ts.login("alice", "p1")
	_, bobID := ts.login("bob", "p1")

	expectStatus(t, ts.do(http.MethodPatch, "/users/update/"+aliceID, `{"title":"Charge Nurse"}`, aliceToken), http.StatusOK)
	expectStatus(t, ts.do(http.MethodPatch, "/users/update/"+bobID, `{"title":"Charge Nurse"}`, aliceToken), http.StatusForbidden)
	expectStatus(t, ts.do(http.MethodPatch, "/users/update/"+aliceID, `{"role":"admin"}`, aliceToken), http.StatusBadRequest)
	expectStatus(t, ts.do(http.MethodPatch, "/users/update/"+aliceID, `{"username":"queen"}`, aliceToken), http.StatusBadRequest)
	expectStatus(t, ts.do(http.MethodPatch, "/users/update/"+aliceID, `{}`, aliceToken), http.StatusBadRequest)

	resp := ts.do(http.MethodGet, "/users/me", "", aliceToken)
	var me struct {
		User domain.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me.User.Title != "Charge Nurse" || me.User.Role != domain.RoleStaff {
		t.Fatalf("unexpected profile after updates: %+v", me.User)
	}
}

func TestRouter_LoginRotatesAndLogoutClears(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.register("alice", domain.RoleStaff, ""), http.StatusCreated)
	first, _ := ts.login("alice", "p1")
	second, _ := ts.login("alice", "p1")
	if first == second {
		t.Fatalf("expected a fresh token on every login")
	}

	expectStatus(t, ts.do(http.MethodGet, "/users/me", "", first), http.StatusUnauthorized)
	expectStatus(t, ts.do(http.MethodGet, "/users/me", "", second), http.StatusOK)

	resp := ts.do(http.MethodPost, "/auth/logout", "", second)
	expectStatus(t, resp, http.StatusOK)
	expired := false
	for _, c := range resp.Cookies() {
		if c.Name == cookieName && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Fatalf("logout must expire the session cookie")
	}
	expectStatus(t, ts.do(http.MethodGet, "/users/me", "", second), http.StatusUnauthorized)

	// Logging out without a session still succeeds.
	expectStatus(t, ts.do(http.MethodPost, "/auth/logout", "", ""), http.StatusOK)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.do(http.MethodGet, "/health", "", ""), http.StatusOK)
	expectStatus(t, ts.do(http.MethodGet, "/health/ready", "", ""), http.StatusOK)
	expectStatus(t, ts.do(http.MethodGet, "/metrics", "", ""), http.StatusOK)
}

func TestRouter_AuthRateLimit(t *testing.T) {
	hasher, _ := credential.NewHasher("router-test-secret")
	repo := memory.NewUserRepository()
	e := NewRouter(Deps{
		Auth:          service.NewAuthService(repo, hasher, nil, nil, zerolog.Nop()),
		Users:         service.NewUserService(repo, nil, zerolog.Nop()),
		Log:           zerolog.Nop(),
		Cookie:        handler.CookieConfig{Name: cookieName},
		AuthRateLimit: 1,
		Registerer:    prometheus.NewRegistry(),
	})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[len(codes)-1] != http.StatusTooManyRequests {
		t.Fatalf("expected the burst to be exhausted, got %v", codes)
	}
}
