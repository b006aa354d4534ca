package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/metrics"
)

const claimsKey = "claims"

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*domain.Claims, error)
}

// Auth validates the bearer token and stores its claims in the context.
// Nothing downstream runs when the token is missing or invalid.
func Auth(verifier TokenVerifier, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reject := func(reason, msg string) error {
				metrics.AuthFailuresTotal.WithLabelValues("authenticate", reason).Inc()
				log.Warn().
					Str("reason", reason).
					Str("method", c.Request().Method).
					Str("path", c.Path()).
					Str("remote_ip", c.RealIP()).
					Msg("authentication failed")
				return echo.NewHTTPError(http.StatusUnauthorized, msg)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return reject("missing_header", "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return reject("bad_scheme", "invalid authorization header")
			}
			token := strings.TrimSpace(parts[1])
			if token == "" {
				return reject("empty_token", "invalid authorization header")
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				return reject("invalid_token", "invalid or expired token")
			}

			SetClaims(c, claims)
			return next(c)
		}
	}
}

// SetClaims attaches the caller identity to the request context.
func SetClaims(c echo.Context, claims *domain.Claims) {
	c.Set(claimsKey, claims)
}

// ClaimsFrom returns the identity stored by Auth.
func ClaimsFrom(c echo.Context) (*domain.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*domain.Claims)
	return claims, ok && claims != nil
}
