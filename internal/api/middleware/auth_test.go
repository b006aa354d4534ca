package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/service"
)

type stubVerifier struct {
	verifyFn func(token string) (*domain.Claims, error)
	calls    int
}

func (s *stubVerifier) Verify(token string) (*domain.Claims, error) {
	s.calls++
	return s.verifyFn(token)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	tokens := service.NewTokenService("secret", time.Hour)
	signed, err := tokens.Issue(domain.Claims{UserID: "u1", Username: "alice", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(tokens, zerolog.Nop())(func(c echo.Context) error {
		called = true
		claims, ok := ClaimsFrom(c)
		if !ok {
			t.Fatalf("claims not set")
		}
		if claims.Username != "alice" || claims.Role != domain.RoleAdmin || claims.UserID != "u1" {
			t.Fatalf("unexpected claims: %+v", claims)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantVerify int
	}{
		{"missing header", "", 0},
		{"wrong scheme", "Token abc", 0},
		{"empty token", "Bearer   ", 0},
		{"no token segment", "Bearer", 0},
		{"invalid token", "Bearer not-a-token", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			verifier := &stubVerifier{verifyFn: func(string) (*domain.Claims, error) {
				return nil, domain.ErrInvalidToken
			}}
			handler := Auth(verifier, zerolog.Nop())(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if verifier.calls != tt.wantVerify {
				t.Fatalf("expected %d verify calls, got %d", tt.wantVerify, verifier.calls)
			}
		})
	}
}

func TestAuthMiddleware_LowercaseScheme(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer tok")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	verifier := &stubVerifier{verifyFn: func(token string) (*domain.Claims, error) {
		if token != "tok" {
			return nil, errors.New("unexpected token " + token)
		}
		return &domain.Claims{UserID: "u1", Username: "bob", Role: domain.RoleClient}, nil
	}}

	err := Auth(verifier, zerolog.Nop())(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})(c)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
