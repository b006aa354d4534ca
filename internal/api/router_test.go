package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/api/middleware"
	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/ports"
	"github.com/inkframe/cms-api/internal/core/service"
)

const testSecret = "router-test-secret"

type countingUsers struct {
	calls int
}

func (s *countingUsers) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	s.calls++
	return &domain.User{ID: "u-new", Username: in.Username, Role: in.Role}, nil
}

func (s *countingUsers) ListUsers(ctx context.Context, page, limit int, search string) (*ports.ListUsersResult, error) {
	s.calls++
	return &ports.ListUsersResult{Items: []*domain.User{}, Page: 1, Limit: 10}, nil
}

func (s *countingUsers) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.calls++
	return &domain.User{ID: id, Role: domain.RoleClient}, nil
}

func (s *countingUsers) UpdateUser(ctx context.Context, actor domain.Claims, id string, in ports.UpdateUserInput) (*domain.User, error) {
	s.calls++
	return &domain.User{ID: id}, nil
}

func (s *countingUsers) ChangePassword(ctx context.Context, userID, current, next string) error {
	s.calls++
	return nil
}

func (s *countingUsers) DeleteUser(ctx context.Context, actor domain.Claims, id string) error {
	s.calls++
	return nil
}

type countingContents struct {
	calls  int
	getErr error
}

func (s *countingContents) Create(ctx context.Context, in ports.CreateContentInput, creatorID string) (*domain.Content, error) {
	s.calls++
	return &domain.Content{ID: "c1", Title: in.Title, Blocks: in.Blocks}, nil
}

func (s *countingContents) List(ctx context.Context, page, limit int, search string) (*ports.ListContentsResult, error) {
	s.calls++
	return &ports.ListContentsResult{Items: []*domain.Content{}, Page: 1, Limit: 10}, nil
}

func (s *countingContents) Get(ctx context.Context, id string) (*domain.Content, error) {
	s.calls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &domain.Content{ID: id}, nil
}

func (s *countingContents) Update(ctx context.Context, id string, in ports.UpdateContentInput, updaterID string) (*domain.Content, error) {
	s.calls++
	return &domain.Content{ID: id}, nil
}

func (s *countingContents) Remove(ctx context.Context, id string) (*domain.Content, error) {
	s.calls++
	return &domain.Content{ID: id}, nil
}

func (s *countingContents) ListByCreator(ctx context.Context, userID string) ([]*domain.Content, error) {
	s.calls++
	return nil, nil
}

type nopUploads struct{}

func (nopUploads) Upload(ctx context.Context, in ports.UploadInput) (*domain.Block, error) {
	return &domain.Block{Type: domain.BlockImage, Value: "uploads/x.png"}, nil
}

type nopAuth struct{}

func (nopAuth) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return nil, domain.ErrInvalidCredentials
}

type fixture struct {
	e        *echo.Echo
	tokens   *service.TokenService
	users    *countingUsers
	contents *countingContents
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tokens:   service.NewTokenService(testSecret, time.Hour),
		users:    &countingUsers{},
		contents: &countingContents{},
	}
	f.e = NewRouter(Deps{
		Log:               zerolog.Nop(),
		Tokens:            f.tokens,
		Auth:              nopAuth{},
		Users:             f.users,
		Contents:          f.contents,
		Uploads:           nopUploads{},
		UploadMaxBytes:    1 << 20,
		MetricsRegisterer: prometheus.NewRegistry(),
	})
	return f
}

func (f *fixture) token(t *testing.T, id, role string) string {
	t.Helper()
	tok, err := f.tokens.Issue(domain.Claims{UserID: id, Username: "user_" + id, Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (f *fixture) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestRouter_MissingTokenNeverReachesStore(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/users", "/contents", "/contents/c1", "/auth/me"} {
		rec := f.do(http.MethodGet, target, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s: expected 401, got %d", target, rec.Code)
		}
		if resp := decodeError(t, rec); resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("GET %s: envelope statusCode %d", target, resp.StatusCode)
		}
	}
	if f.users.calls != 0 || f.contents.calls != 0 {
		t.Fatalf("expected zero store calls, got users=%d contents=%d", f.users.calls, f.contents.calls)
	}
}

func TestRouter_TamperedToken(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "a1", domain.RoleAdmin)

	rec := f.do(http.MethodGet, "/users", tok[:len(tok)-2]+"xx", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if f.users.calls != 0 {
		t.Fatalf("store reached with tampered token")
	}
}

func TestRouter_RolePolicies(t *testing.T) {
	f := newFixture(t)
	admin := f.token(t, "a1", domain.RoleAdmin)
	editor := f.token(t, "e1", domain.RoleEditor)
	client := f.token(t, "c1", domain.RoleClient)

	contentBody := `{"title":"Hi","blocks":[{"type":"text","value":"hello"}]}`

	tests := []struct {
		name   string
		method string
		target string
		token  string
		body   string
		want   int
	}{
		{"admin lists users", http.MethodGet, "/users", admin, "", http.StatusOK},
		{"client lists users", http.MethodGet, "/users", client, "", http.StatusForbidden},
		{"editor lists users", http.MethodGet, "/users", editor, "", http.StatusForbidden},
		{"editor deletes user", http.MethodDelete, "/users/u9", editor, "", http.StatusForbidden},
		{"editor creates content", http.MethodPost, "/contents", editor, contentBody, http.StatusCreated},
		{"client creates content", http.MethodPost, "/contents", client, contentBody, http.StatusForbidden},
		{"client reads contents", http.MethodGet, "/contents", client, "", http.StatusOK},
		{"client reads own user", http.MethodGet, "/users/c1", client, "", http.StatusOK},
		{"client reads other user", http.MethodGet, "/users/c2", client, "", http.StatusForbidden},
		{"client updates profile", http.MethodPatch, "/users/me", client, `{"name":"Carla"}`, http.StatusOK},
		{"client deletes content", http.MethodDelete, "/contents/c1", client, "", http.StatusForbidden},
		{"editor deletes content", http.MethodDelete, "/contents/c1", editor, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.target, tt.token, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_ForbiddenDoesNotReachService(t *testing.T) {
	f := newFixture(t)
	client := f.token(t, "c1", domain.RoleClient)

	f.do(http.MethodPost, "/users", client, `{"name":"Eve","username":"eve","email":"eve@x.io","password":"Passw0rd!","role":"admin"}`)
	if f.users.calls != 0 {
		t.Fatalf("forbidden request reached the user service")
	}
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "e1", domain.RoleEditor)

	f.contents.getErr = domain.ErrContentNotFound
	rec := f.do(http.MethodGet, "/contents/abc", tok, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.StatusCode != 404 || resp.Message != "content not found" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}

	f.contents.getErr = errors.New("connection reset by peer")
	rec = f.do(http.MethodGet, "/contents/abc", tok, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Message != "internal server error" {
		t.Fatalf("internal error leaked: %+v", resp)
	}
}

func TestRouter_ValidationIs400(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "e1", domain.RoleEditor)

	rec := f.do(http.MethodPost, "/contents", tok, `{"title":"Hi","blocks":[{"type":"audio","value":"x.mp3"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if f.contents.calls != 0 {
		t.Fatalf("invalid content reached the service")
	}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/auth/login", "", `{"email":"a@b.co","password":"x"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("login: expected 401, got %d", rec.Code)
	}
}

func TestPolicyTable_CoversEveryProtectedRoute(t *testing.T) {
	routes := protectedRoutes(handlers{})
	table := policyTable(routes)

	if len(table) != len(routes) {
		t.Fatalf("duplicate route keys: %d routes, %d policies", len(routes), len(table))
	}
	if _, ok := table["PATCH /users/:id"]; !ok {
		t.Fatalf("missing policy for PATCH /users/:id")
	}
}

func TestRouter_LoginLimitKeysOnPeerAddress(t *testing.T) {
	limiter := middleware.NewLoginLimiter(1, 1)
	defer limiter.Stop()

	e := NewRouter(Deps{
		Log:               zerolog.Nop(),
		Tokens:            service.NewTokenService(testSecret, time.Hour),
		Auth:              nopAuth{},
		Users:             &countingUsers{},
		Contents:          &countingContents{},
		Uploads:           nopUploads{},
		LoginLimiter:      limiter,
		MetricsRegisterer: prometheus.NewRegistry(),
	})

	passed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.co","password":"x"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set(echo.HeaderXForwardedFor, fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			passed++
		}
	}
	if passed != 1 {
		t.Fatalf("expected 1 attempt through with burst 1, got %d", passed)
	}
}
