package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/domain"
)

var testTable = PolicyTable{
	PolicyKey(http.MethodGet, "/users"):        Roles(domain.RoleAdmin),
	PolicyKey(http.MethodGet, "/users/:id"):    RolesOrSelf("id", domain.RoleAdmin),
	PolicyKey(http.MethodPost, "/contents"):    Roles(domain.RoleEditor, domain.RoleAdmin),
	PolicyKey(http.MethodGet, "/contents/:id"): AnyAuthenticated,
}

func newAuthorizeContext(method, path string, claims *domain.Claims, params map[string]string) (echo.Context, *httptest.ResponseRecorder, *echo.Echo) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	var names, values []string
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if claims != nil {
		SetClaims(c, claims)
	}
	return c, rec, e
}

func TestAuthorize(t *testing.T) {
	admin := &domain.Claims{UserID: "a1", Username: "admin", Role: domain.RoleAdmin}
	editor := &domain.Claims{UserID: "e1", Username: "ed", Role: domain.RoleEditor}
	client := &domain.Claims{UserID: "c1", Username: "cl", Role: domain.RoleClient}

	tests := []struct {
		name   string
		method string
		path   string
		claims *domain.Claims
		params map[string]string
		want   int
	}{
		{"admin on admin route", http.MethodGet, "/users", admin, nil, http.StatusOK},
		{"editor on admin route", http.MethodGet, "/users", editor, nil, http.StatusForbidden},
		{"client on admin route", http.MethodGet, "/users", client, nil, http.StatusForbidden},
		{"editor on editor route", http.MethodPost, "/contents", editor, nil, http.StatusOK},
		{"client on editor route", http.MethodPost, "/contents", client, nil, http.StatusForbidden},
		{"client reads own user", http.MethodGet, "/users/:id", client, map[string]string{"id": "c1"}, http.StatusOK},
		{"client reads other user", http.MethodGet, "/users/:id", client, map[string]string{"id": "a1"}, http.StatusForbidden},
		{"admin reads other user", http.MethodGet, "/users/:id", admin, map[string]string{"id": "c1"}, http.StatusOK},
		{"any authenticated", http.MethodGet, "/contents/:id", client, map[string]string{"id": "x"}, http.StatusOK},
		{"unregistered route", http.MethodDelete, "/contents/:id", admin, map[string]string{"id": "x"}, http.StatusForbidden},
		{"no claims", http.MethodGet, "/contents/:id", nil, nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec, e := newAuthorizeContext(tt.method, tt.path, tt.claims, tt.params)

			called := false
			handler := Authorize(testTable, zerolog.Nop())(func(c echo.Context) error {
				called = true
				return c.NoContent(http.StatusOK)
			})

			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if called != (tt.want == http.StatusOK) {
				t.Fatalf("next called=%v with status %d", called, rec.Code)
			}
		})
	}
}

func TestPolicy_Allows(t *testing.T) {
	noParams := func(string) string { return "" }

	if !AnyAuthenticated.Allows(&domain.Claims{Role: domain.RoleClient}, noParams) {
		t.Fatalf("empty policy should admit any authenticated caller")
	}
	if AnyAuthenticated.Allows(nil, noParams) {
		t.Fatalf("nil claims must never be admitted")
	}

	selfOnly := Policy{SelfParam: "id"}
	if selfOnly.Allows(&domain.Claims{UserID: "", Role: domain.RoleClient}, noParams) {
		t.Fatalf("empty user id must not match an empty path parameter")
	}
}
