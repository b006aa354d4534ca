package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/metrics"
)

// Policy states who may call a route. An empty Roles with no SelfParam lets
// any authenticated caller through. When SelfParam is set, a caller whose
// user id equals that path parameter passes regardless of role.
type Policy struct {
	Roles     []string
	SelfParam string
}

// AnyAuthenticated is the policy of routes open to every logged-in user.
var AnyAuthenticated = Policy{}

// Roles returns a policy admitting the given roles.
func Roles(roles ...string) Policy {
	return Policy{Roles: roles}
}

// RolesOrSelf returns a policy admitting the given roles and the user whose id
// is in path parameter param.
func RolesOrSelf(param string, roles ...string) Policy {
	return Policy{Roles: roles, SelfParam: param}
}

// PolicyTable maps "METHOD /route/:template" to the policy of that route.
type PolicyTable map[string]Policy

// PolicyKey builds the table key of a route.
func PolicyKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// Allows reports whether claims satisfy p. param resolves path parameters.
func (p Policy) Allows(claims *domain.Claims, param func(string) string) bool {
	if claims == nil {
		return false
	}
	if len(p.Roles) == 0 && p.SelfParam == "" {
		return true
	}
	for _, r := range p.Roles {
		if r == claims.Role {
			return true
		}
	}
	if p.SelfParam != "" && claims.UserID != "" && param(p.SelfParam) == claims.UserID {
		return true
	}
	return false
}

// Authorize enforces the policy registered for the matched route. It must be
// chained after Auth. Routes missing from the table are denied.
func Authorize(table PolicyTable, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				metrics.AuthFailuresTotal.WithLabelValues("authorize", "no_identity").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			key := PolicyKey(c.Request().Method, c.Path())
			policy, found := table[key]
			if !found {
				metrics.AuthFailuresTotal.WithLabelValues("authorize", "no_policy").Inc()
				log.Error().Str("route", key).Str("user_id", claims.UserID).Msg("no access policy registered for route")
				return echo.NewHTTPError(http.StatusForbidden, domain.ErrForbidden.Error())
			}

			if !policy.Allows(claims, c.Param) {
				metrics.AuthFailuresTotal.WithLabelValues("authorize", "role").Inc()
				log.Warn().
					Str("route", key).
					Str("user_id", claims.UserID).
					Str("role", claims.Role).
					Msg("authorization failed")
				return echo.NewHTTPError(http.StatusForbidden, domain.ErrForbidden.Error())
			}

			return next(c)
		}
	}
}
