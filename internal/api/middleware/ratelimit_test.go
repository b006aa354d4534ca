package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func loginRequest(e *echo.Echo, h echo.HandlerFunc, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestLoginLimiter_BlocksAfterBurst(t *testing.T) {
	l := NewLoginLimiter(1, 2)
	defer l.Stop()

	e := echo.New()
	h := l.Middleware()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if rec := loginRequest(e, h, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := loginRequest(e, h, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || retry < 1 {
		t.Fatalf("expected numeric Retry-After >= 1, got %q", rec.Header().Get("Retry-After"))
	}

	// Other clients keep their own bucket.
	if rec := loginRequest(e, h, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("expected other IP to pass, got %d", rec.Code)
	}
}

func TestLoginLimiter_SweepForgetsIdleClients(t *testing.T) {
	l := NewLoginLimiter(10, 5)
	defer l.Stop()

	l.get("10.0.0.1")
	l.sweep(time.Now().Add(limiterIdleTTL + time.Second))

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.limiters) != 0 {
		t.Fatalf("expected idle limiter to be removed, have %d", len(l.limiters))
	}
}
