package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkframe/cms-api/internal/api/middleware"
	"github.com/inkframe/cms-api/internal/core/domain"
)

// currentUser returns the identity attached by the Auth middleware. Its
// absence means the route was registered without the guard chain.
func currentUser(c echo.Context) (*domain.Claims, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok || claims.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

// bindAndValidate decodes the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
